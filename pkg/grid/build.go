// pkg/grid/build.go
package grid

/* Record is one observed slot: a facility seen at a time on a date. */
type Record struct {
	Row       string
	Column    string
	Facility  string
	Available bool
}

// BuildFlags marks a cell available when any record for that cell is.
// Records outside the catalog or the date window fail the whole build.
func BuildFlags(records []Record, rows, columns []string) (*Grid[bool], error) {
	flags, err := New[bool](rows, columns)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		rowPosition, columnPosition, err := flags.locate(record.Row, record.Column)
		if err != nil {
			return nil, err
		}
		if record.Available {
			flags.cells[rowPosition][columnPosition] = true
		}
	}
	return flags, nil
}

// BuildLists collects facility names per cell in the order they were observed.
func BuildLists(records []Record, rows, columns []string) (*Grid[[]string], error) {
	lists, err := New[[]string](rows, columns)
	if err != nil {
		return nil, err
	}
	for rowPosition := range lists.cells {
		for columnPosition := range lists.cells[rowPosition] {
			lists.cells[rowPosition][columnPosition] = []string{}
		}
	}
	for _, record := range records {
		rowPosition, columnPosition, err := lists.locate(record.Row, record.Column)
		if err != nil {
			return nil, err
		}
		lists.cells[rowPosition][columnPosition] = append(lists.cells[rowPosition][columnPosition], record.Facility)
	}
	return lists, nil
}
