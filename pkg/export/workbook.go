package export

import (
	"fmt"
	"strings"

	"CourtGrid/pkg/report"
	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet   = "Sheet1"
	sheetNameLimit = 31
)

var sheetNameReplacer = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

// SheetName turns a section label into a valid, unique worksheet name.
func SheetName(label string, taken map[string]bool) string {
	base := strings.TrimSpace(sheetNameReplacer.Replace(label))
	if base == "" {
		base = defaultSheet
	}
	if runes := []rune(base); len(runes) > sheetNameLimit {
		base = string(runes[:sheetNameLimit])
	}
	name := base
	for suffix := 2; taken[strings.ToLower(name)]; suffix++ {
		tail := fmt.Sprintf(" %d", suffix)
		runes := []rune(base)
		if len(runes)+len(tail) > sheetNameLimit {
			runes = runes[:sheetNameLimit-len(tail)]
		}
		name = string(runes) + tail
	}
	taken[strings.ToLower(name)] = true
	return name
}

// Workbook lays out one sheet per section: the header row, then one row per
// time slot, mirroring the markdown table.
func Workbook(sections []report.Section) (*excelize.File, error) {
	file := excelize.NewFile()
	taken := map[string]bool{}
	for index, section := range sections {
		sheet := SheetName(section.Label, taken)
		if index == 0 {
			if err := file.SetSheetName(defaultSheet, sheet); err != nil {
				return nil, err
			}
		} else if _, err := file.NewSheet(sheet); err != nil {
			return nil, err
		}

		writer, err := file.NewStreamWriter(sheet)
		if err != nil {
			return nil, err
		}
		columns := section.Grid.Columns()
		header := []interface{}{section.RowHeader}
		for _, column := range columns {
			header = append(header, column)
		}
		if err := writer.SetRow("A1", header); err != nil {
			return nil, err
		}
		for rowPosition, row := range section.Grid.Rows() {
			values := []interface{}{row}
			for columnPosition := range columns {
				values = append(values, section.Grid.At(rowPosition, columnPosition))
			}
			cell, err := excelize.CoordinatesToCellName(1, rowPosition+2)
			if err != nil {
				return nil, err
			}
			if err := writer.SetRow(cell, values); err != nil {
				return nil, err
			}
		}
		if err := writer.Flush(); err != nil {
			return nil, err
		}
	}
	return file, nil
}

// WorkbookBytes renders sections as an .xlsx file.
func WorkbookBytes(sections []report.Section) ([]byte, error) {
	file, err := Workbook(sections)
	if err != nil {
		return nil, fmt.Errorf("build workbook: %w", err)
	}
	defer file.Close()
	buffer, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buffer.Bytes(), nil
}
