// pkg/grid/date.go
package grid

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var clockLayouts = []string{clockLayout, "3:04 PM", "3:04PM", "3:04pm", "3pm", "15:04"}

const (
	weekLength      = 7
	clockLayout     = "03:04 PM"
	dateSeparator   = "/"
	dateFieldsCount = 3
)

/* Date is a calendar day in site-local terms. Month is 1-indexed. */
type Date struct {
	Day   int
	Month int
	Year  int
}

// FromTime drops the clock part of t.
func FromTime(t time.Time) Date {
	return Date{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

// FromPickerMonth builds a Date from a date picker that counts months from 0.
func FromPickerMonth(day, zeroBasedMonth, year int) Date {
	return Date{Day: day, Month: zeroBasedMonth + 1, Year: year}
}

// PickerMonth is the inverse of FromPickerMonth.
func (d Date) PickerMonth() int {
	return d.Month - 1
}

func (d Date) Time(location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, location)
}

func (d Date) AddDays(days int) Date {
	return FromTime(d.Time(time.UTC).AddDate(0, 0, days))
}

// String renders D/M/YYYY without zero padding.
func (d Date) String() string {
	return fmt.Sprintf("%d/%d/%d", d.Day, d.Month, d.Year)
}

func ParseDate(raw string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(raw), dateSeparator)
	if len(parts) != dateFieldsCount {
		return Date{}, fmt.Errorf("date %q: want D/M/YYYY", raw)
	}
	var fields [dateFieldsCount]int
	for index, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil {
			return Date{}, fmt.Errorf("date %q: %w", raw, err)
		}
		fields[index] = value
	}
	parsed := Date{Day: fields[0], Month: fields[1], Year: fields[2]}
	if parsed.AddDays(0) != parsed {
		return Date{}, fmt.Errorf("date %q: not a calendar day", raw)
	}
	return parsed, nil
}

// Week returns the anchor and the six days after it.
func Week(anchor Date) []Date {
	dates := make([]Date, 0, weekLength)
	for offset := 0; offset < weekLength; offset++ {
		dates = append(dates, anchor.AddDays(offset))
	}
	return dates
}

func Labels(dates []Date) []string {
	labels := make([]string, len(dates))
	for index, date := range dates {
		labels[index] = date.String()
	}
	return labels
}

/* HourlyCatalog lists "08:00 AM" style marks for every hour in [fromHour, toHour]. */
func HourlyCatalog(fromHour, toHour int) []string {
	var catalog []string
	for hour := fromHour; hour <= toHour; hour++ {
		mark := time.Date(2000, time.January, 1, hour, 0, 0, 0, time.UTC)
		catalog = append(catalog, mark.Format(clockLayout))
	}
	return catalog
}

// ParseClock reads a time-of-day label into an offset from midnight. Catalog
// marks and the shorter "7:00am" style used by table sites are both accepted.
func ParseClock(mark string) (time.Duration, error) {
	cleaned := strings.TrimSpace(mark)
	for _, layout := range clockLayouts {
		if parsed, err := time.Parse(layout, cleaned); err == nil {
			return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
		}
	}
	return 0, fmt.Errorf("clock %q: unrecognised layout", mark)
}
