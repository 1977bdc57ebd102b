// pkg/report/report.go
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"CourtGrid/pkg/grid"
)

const (
	DefaultTimezone   = "Asia/Singapore"
	timestampLayout   = "2006-01-02 15:04:05 MST"
	availableLiteral  = "Book Now"
	columnSeparator   = " | "
	headerRuleLiteral = "---"
)

// Section is one site's grid plus where it came from.
type Section struct {
	Label     string
	URL       string
	RowHeader string
	Grid      *grid.Grid[string]
}

// Renderer stamps reports with the time in a fixed zone, whatever the host's.
type Renderer struct {
	Location *time.Location
	Now      func() time.Time
}

func NewRenderer(timezone string) (*Renderer, error) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", timezone, err)
	}
	return &Renderer{Location: location, Now: time.Now}, nil
}

func (r *Renderer) Timestamp() string {
	return r.Now().In(r.Location).Format(timestampLayout)
}

// Render produces the link line, a blank line and the markdown table.
func (r *Renderer) Render(section Section) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "[%s (%s)](%s)\n\n", section.Label, r.Timestamp(), section.URL)
	builder.WriteString(Table(section.RowHeader, section.Grid))
	return builder.String()
}

// Document renders every section, separated by a blank line.
func (r *Renderer) Document(sections []Section) string {
	rendered := make([]string, len(sections))
	for index, section := range sections {
		rendered[index] = r.Render(section)
	}
	return strings.Join(rendered, "\n\n") + "\n"
}

// Table renders the grid with the row label column first and the columns in
// grid order.
func Table(rowHeader string, cells *grid.Grid[string]) string {
	columns := cells.Columns()
	header := append([]string{rowHeader}, columns...)
	rule := make([]string, len(header))
	for index := range rule {
		rule[index] = headerRuleLiteral
	}

	lines := []string{tableLine(header), tableLine(rule)}
	for rowPosition, row := range cells.Rows() {
		values := make([]string, 0, len(header))
		values = append(values, row)
		for columnPosition := range columns {
			values = append(values, cells.At(rowPosition, columnPosition))
		}
		lines = append(lines, tableLine(values))
	}
	return strings.Join(lines, "\n")
}

func tableLine(values []string) string {
	escaped := make([]string, len(values))
	for index, value := range values {
		escaped[index] = strings.ReplaceAll(value, "|", `\|`)
	}
	return "| " + strings.Join(escaped, columnSeparator) + " |"
}

// FlagLabel is how a single-facility availability cell reads in a report.
func FlagLabel(available bool) string {
	if available {
		return availableLiteral
	}
	return ""
}

// File is one output of a run.
type File struct {
	Path string
	Body []byte
}

// Write replaces path with body.
func Write(path, body string) error {
	return WriteAll([]File{{Path: path, Body: []byte(body)}})
}

// WriteAll stages every file next to its destination and only then renames
// them into place, so a failure while staging leaves all targets untouched.
func WriteAll(files []File) error {
	staged := make([]string, 0, len(files))
	discard := func() {
		for _, path := range staged {
			_ = os.Remove(path)
		}
	}
	for _, file := range files {
		temporary, err := stage(file)
		if err != nil {
			discard()
			return fmt.Errorf("write %s: %w", file.Path, err)
		}
		staged = append(staged, temporary)
	}
	for index, file := range files {
		if err := os.Rename(staged[index], file.Path); err != nil {
			discard()
			return fmt.Errorf("write %s: %w", file.Path, err)
		}
	}
	return nil
}

func stage(file File) (string, error) {
	temporary, err := os.CreateTemp(filepath.Dir(file.Path), "."+filepath.Base(file.Path)+"-*")
	if err != nil {
		return "", err
	}
	if _, err := temporary.Write(file.Body); err != nil {
		temporary.Close()
		os.Remove(temporary.Name())
		return "", err
	}
	if err := temporary.Chmod(0o644); err != nil {
		temporary.Close()
		os.Remove(temporary.Name())
		return "", err
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporary.Name())
		return "", err
	}
	return temporary.Name(), nil
}
