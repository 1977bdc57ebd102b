// pkg/grid/merge.go
package grid

import "fmt"

const (
	firstOnlyLabel  = "1"
	secondOnlyLabel = "2"
	bothLabel       = "1,2"
)

// MergeCell names which of two facilities has the slot free.
func MergeCell(first, second bool) string {
	switch {
	case first && second:
		return bothLabel
	case first:
		return firstOnlyLabel
	case second:
		return secondOnlyLabel
	default:
		return ""
	}
}

// Merge combines two availability grids cell by cell. Both grids must carry
// the same row and column labels; the result follows the first grid's order.
func Merge(first, second *Grid[bool]) (*Grid[string], error) {
	if !sameKeySet(first.rowIndex, second.rowIndex) {
		return nil, fmt.Errorf("%w: rows %v vs %v", ErrShapeMismatch, first.rows, second.rows)
	}
	if !sameKeySet(first.colIndex, second.colIndex) {
		return nil, fmt.Errorf("%w: columns %v vs %v", ErrShapeMismatch, first.columns, second.columns)
	}
	merged, err := New[string](first.rows, first.columns)
	if err != nil {
		return nil, err
	}
	for rowPosition, row := range first.rows {
		for columnPosition, column := range first.columns {
			other, _ := second.Get(row, column)
			merged.cells[rowPosition][columnPosition] = MergeCell(first.cells[rowPosition][columnPosition], other)
		}
	}
	return merged, nil
}

// Blank returns an all-false grid shaped like template.
func Blank(template *Grid[bool]) *Grid[bool] {
	return Map(template, func(bool) bool { return false })
}
