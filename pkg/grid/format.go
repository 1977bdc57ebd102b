// pkg/grid/format.go
package grid

import (
	"fmt"
	"sort"
	"strings"
)

const DefaultDisplayLimit = 3

// FormatNames shortens each name to its first word, sorts, keeps at most
// limit of them and appends ",+N" for the names left out.
func FormatNames(names []string, limit int) string {
	if len(names) == 0 {
		return ""
	}
	if limit < 0 {
		limit = 0
	}
	tokens := make([]string, len(names))
	for index, name := range names {
		if fields := strings.Fields(name); len(fields) > 0 {
			tokens[index] = fields[0]
		}
	}
	sort.Strings(tokens)

	suffix := ""
	if len(names) > limit {
		suffix = fmt.Sprintf(",+%d", len(names)-limit)
		tokens = tokens[:limit]
	}
	return strings.Join(tokens, ",") + suffix
}

// FormatCells applies FormatNames with the given limit to every cell.
func FormatCells(lists *Grid[[]string], limit int) *Grid[string] {
	return Map(lists, func(names []string) string {
		return FormatNames(names, limit)
	})
}
