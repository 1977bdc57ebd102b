// pkg/scraper/table.go
package scraper

import (
	"fmt"

	"CourtGrid/pkg/grid"
	"github.com/PuerkitoBio/goquery"
)

// Table is one facility's availability table as read from the page.
type Table struct {
	RowHeader string
	Columns   []string
	Rows      []string
	Records   []grid.Record
}

// ParseTable reads the table with the given id. The header row names the
// columns; every other row starts with its time label followed by one cell
// per column, where "Book Now" marks a free slot.
func ParseTable(document *goquery.Document, tableID, facility string) (Table, error) {
	table := document.Find("table#" + tableID).First()
	if table.Length() == 0 {
		return Table{}, fmt.Errorf("table #%s: %w", tableID, ErrExtraction)
	}
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return Table{}, fmt.Errorf("table #%s has no rows: %w", tableID, ErrExtraction)
	}

	header := cellTexts(rows.First())
	if len(header) == 0 {
		return Table{}, fmt.Errorf("table #%s has an empty header: %w", tableID, ErrExtraction)
	}
	parsed := Table{RowHeader: rowHeaderLiteral, Columns: header[1:]}

	var parseError error
	rows.Slice(1, goquery.ToEnd).EachWithBreak(func(index int, row *goquery.Selection) bool {
		cells := cellTexts(row)
		if len(cells) == 0 {
			return true
		}
		if len(cells) != len(header) {
			parseError = fmt.Errorf("table #%s row %d has %d cells, header has %d: %w",
				tableID, index+1, len(cells), len(header), ErrExtraction)
			return false
		}
		timeLabel := cells[0]
		parsed.Rows = append(parsed.Rows, timeLabel)
		for position, text := range cells[1:] {
			parsed.Records = append(parsed.Records, grid.Record{
				Row:       timeLabel,
				Column:    parsed.Columns[position],
				Facility:  facility,
				Available: text == availableLiteral,
			})
		}
		return true
	})
	if parseError != nil {
		return Table{}, parseError
	}
	return parsed, nil
}

func cellTexts(row *goquery.Selection) []string {
	var texts []string
	row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, cleanText(cell.Text()))
	})
	return texts
}
