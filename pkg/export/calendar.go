// Package export writes report sections in formats other than markdown.
package export

import (
	"context"
	"fmt"
	"time"

	"CourtGrid/pkg/grid"
	"CourtGrid/pkg/log"
	"CourtGrid/pkg/report"
	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	productID    = "-//CourtGrid//Court Availability//EN"
	calendarName = "Badminton court availability"
	slotLength   = time.Hour
)

// Slot is one non-empty report cell placed on the calendar.
type Slot struct {
	Label string
	URL   string
	Start time.Time
	End   time.Time
	Value string
}

// Slots lists the non-empty cells of every section whose column reads as a
// D/M/YYYY date and whose row reads as a clock time. Other cells are skipped.
func Slots(ctx context.Context, sections []report.Section, location *time.Location) []Slot {
	logger := log.FromContext(ctx)
	var slots []Slot
	for _, section := range sections {
		rows, columns := section.Grid.Rows(), section.Grid.Columns()
		skipped := 0
		for columnPosition, column := range columns {
			date, err := grid.ParseDate(column)
			if err != nil {
				skipped++
				continue
			}
			for rowPosition, row := range rows {
				value := section.Grid.At(rowPosition, columnPosition)
				if value == "" {
					continue
				}
				offset, err := grid.ParseClock(row)
				if err != nil {
					logger.Debug("export_row_skipped", zap.String("row", row), zap.Error(err))
					continue
				}
				start := date.Time(location).Add(offset)
				slots = append(slots, Slot{
					Label: section.Label,
					URL:   section.URL,
					Start: start,
					End:   start.Add(slotLength),
					Value: value,
				})
			}
		}
		if skipped > 0 {
			logger.Debug("export_columns_skipped", zap.String("section", section.Label), zap.Int("columns", skipped))
		}
	}
	return slots
}

// Calendar renders slots as an iCalendar feed. Event ids are derived from the
// slot so that re-running over the same availability yields the same ids.
func Calendar(slots []Slot, stamp time.Time) string {
	calendar := ics.NewCalendar()
	calendar.SetMethod(ics.MethodPublish)
	calendar.SetProductId(productID)
	calendar.SetXWRCalName(calendarName)
	for _, slot := range slots {
		key := fmt.Sprintf("%s|%s", slot.Label, slot.Start.UTC().Format(time.RFC3339))
		event := calendar.AddEvent(uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String())
		event.SetDtStampTime(stamp)
		event.SetStartAt(slot.Start)
		event.SetEndAt(slot.End)
		event.SetSummary(fmt.Sprintf("%s: %s", slot.Label, slot.Value))
		event.SetURL(slot.URL)
	}
	return calendar.Serialize()
}

// CalendarFeed renders the dated cells of sections as an iCalendar feed and
// reports how many events it holds.
func CalendarFeed(ctx context.Context, sections []report.Section, location *time.Location, stamp time.Time) ([]byte, int) {
	slots := Slots(ctx, sections, location)
	return []byte(Calendar(slots, stamp)), len(slots)
}
