// pkg/scraper/widget.go
package scraper

import (
	"fmt"
	"strings"

	"CourtGrid/pkg/grid"
	"github.com/PuerkitoBio/goquery"
)

const (
	widgetContainerSelector = ".week-column.facility-row"
	widgetSlotSelector      = "div.time-slot.facility-slot"
	startTimeAttribute      = "data-starttime"
	facilityNameAttribute   = "data-facility_name"
)

// ParseWidget reads the slot elements of a booking widget day view. Every
// record is placed in column, the date label the view was opened for.
func ParseWidget(document *goquery.Document, column string) ([]grid.Record, error) {
	if document.Find(widgetContainerSelector).Length() == 0 {
		return nil, fmt.Errorf("%s: %w", widgetContainerSelector, ErrExtraction)
	}

	records := []grid.Record{}
	var parseError error
	document.Find(widgetSlotSelector).EachWithBreak(func(index int, slot *goquery.Selection) bool {
		startTime, ok := slot.Attr(startTimeAttribute)
		if !ok || strings.TrimSpace(startTime) == "" {
			parseError = fmt.Errorf("slot %d has no %s: %w", index, startTimeAttribute, ErrExtraction)
			return false
		}
		facility := strings.TrimSpace(slot.AttrOr(facilityNameAttribute, ""))
		if excluded(facility) {
			return true
		}
		records = append(records, grid.Record{
			Row:       strings.TrimSpace(startTime),
			Column:    column,
			Facility:  facility,
			Available: true,
		})
		return true
	})
	if parseError != nil {
		return nil, parseError
	}
	return records, nil
}
