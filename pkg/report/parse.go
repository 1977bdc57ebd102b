// pkg/report/parse.go
package report

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotATable = errors.New("not a markdown table")

// ParsedTable is a markdown table read back from a report.
type ParsedTable struct {
	Header []string
	Rows   [][]string
}

// ParseTable reads the first markdown table in text.
func ParseTable(text string) (ParsedTable, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") {
			lines = append(lines, trimmed)
			continue
		}
		if len(lines) > 0 {
			break
		}
	}
	if len(lines) < 2 {
		return ParsedTable{}, ErrNotATable
	}

	parsed := ParsedTable{Header: splitLine(lines[0])}
	for index, line := range lines[2:] {
		cells := splitLine(line)
		if len(cells) != len(parsed.Header) {
			return ParsedTable{}, fmt.Errorf("row %d has %d cells, header has %d: %w",
				index+1, len(cells), len(parsed.Header), ErrNotATable)
		}
		parsed.Rows = append(parsed.Rows, cells)
	}
	return parsed, nil
}

// Flags turns Book Now cells back into availability flags, dropping the row
// label column.
func (p ParsedTable) Flags() [][]bool {
	flags := make([][]bool, len(p.Rows))
	for rowPosition, row := range p.Rows {
		flags[rowPosition] = make([]bool, len(row)-1)
		for columnPosition, cell := range row[1:] {
			flags[rowPosition][columnPosition] = cell == availableLiteral
		}
	}
	return flags
}

func splitLine(line string) []string {
	inner := strings.TrimSuffix(strings.TrimPrefix(line, "|"), "|")
	var (
		cells   []string
		current strings.Builder
	)
	for index := 0; index < len(inner); index++ {
		switch {
		case inner[index] == '\\' && index+1 < len(inner) && inner[index+1] == '|':
			current.WriteByte('|')
			index++
		case inner[index] == '|':
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(inner[index])
		}
	}
	return append(cells, strings.TrimSpace(current.String()))
}
