// pkg/scraper/scraper.go
package scraper

import (
	"errors"
	"strings"
)

// ErrExtraction means the page did not have the expected structure, as
// opposed to a page that loaded and simply lists no slots.
var ErrExtraction = errors.New("expected page structure not found")

const (
	availableLiteral = "Book Now"
	rowHeaderLiteral = "Time"
)

/* excludedFacilities is matched case-insensitively as a substring. */
var excludedFacilities = []string{"arina"}

func excluded(facility string) bool {
	lowered := strings.ToLower(facility)
	for _, keyword := range excludedFacilities {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func cleanText(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
