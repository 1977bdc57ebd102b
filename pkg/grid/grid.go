// pkg/grid/grid.go
package grid

import (
	"errors"
	"fmt"
)

var (
	ErrShapeMismatch = errors.New("grids do not share the same rows and columns")
	ErrCatalogMiss   = errors.New("time label not in catalog")
	ErrUnknownColumn = errors.New("date label not in window")
	ErrDuplicateKey  = errors.New("duplicate grid key")
)

// Grid is a rectangular table indexed by row label (time of day) and column
// label (date). Every row/column pair holds a value.
type Grid[T any] struct {
	rows     []string
	columns  []string
	rowIndex map[string]int
	colIndex map[string]int
	cells    [][]T
}

func New[T any](rows, columns []string) (*Grid[T], error) {
	rowIndex, err := indexLabels(rows)
	if err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	colIndex, err := indexLabels(columns)
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	cells := make([][]T, len(rows))
	for index := range cells {
		cells[index] = make([]T, len(columns))
	}
	return &Grid[T]{
		rows:     append([]string(nil), rows...),
		columns:  append([]string(nil), columns...),
		rowIndex: rowIndex,
		colIndex: colIndex,
		cells:    cells,
	}, nil
}

func indexLabels(labels []string) (map[string]int, error) {
	index := make(map[string]int, len(labels))
	for position, label := range labels {
		if _, seen := index[label]; seen {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, label)
		}
		index[label] = position
	}
	return index, nil
}

func (g *Grid[T]) Rows() []string    { return append([]string(nil), g.rows...) }
func (g *Grid[T]) Columns() []string { return append([]string(nil), g.columns...) }

// Size is the number of cells, always len(Rows()) * len(Columns()).
func (g *Grid[T]) Size() int {
	return len(g.rows) * len(g.columns)
}

func (g *Grid[T]) At(rowPosition, columnPosition int) T {
	return g.cells[rowPosition][columnPosition]
}

func (g *Grid[T]) Get(row, column string) (T, bool) {
	var zero T
	rowPosition, ok := g.rowIndex[row]
	if !ok {
		return zero, false
	}
	columnPosition, ok := g.colIndex[column]
	if !ok {
		return zero, false
	}
	return g.cells[rowPosition][columnPosition], true
}

func (g *Grid[T]) Set(row, column string, value T) error {
	rowPosition, columnPosition, err := g.locate(row, column)
	if err != nil {
		return err
	}
	g.cells[rowPosition][columnPosition] = value
	return nil
}

func (g *Grid[T]) locate(row, column string) (int, int, error) {
	rowPosition, ok := g.rowIndex[row]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrCatalogMiss, row)
	}
	columnPosition, ok := g.colIndex[column]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	return rowPosition, columnPosition, nil
}

// Map builds a grid of the same shape by applying transform to every cell.
func Map[T, U any](source *Grid[T], transform func(T) U) *Grid[U] {
	target := &Grid[U]{
		rows:     source.rows,
		columns:  source.columns,
		rowIndex: source.rowIndex,
		colIndex: source.colIndex,
		cells:    make([][]U, len(source.cells)),
	}
	for rowPosition, row := range source.cells {
		target.cells[rowPosition] = make([]U, len(row))
		for columnPosition, value := range row {
			target.cells[rowPosition][columnPosition] = transform(value)
		}
	}
	return target
}

func sameKeySet(first, second map[string]int) bool {
	if len(first) != len(second) {
		return false
	}
	for key := range first {
		if _, ok := second[key]; !ok {
			return false
		}
	}
	return true
}
