package sites

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"CourtGrid/pkg/browser"
	"CourtGrid/pkg/grid"
	"CourtGrid/pkg/log"
	"CourtGrid/pkg/report"
	"CourtGrid/pkg/scraper"
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	expoName          = "expo"
	expoRowHeader     = "time"
	pickerToggle      = "div.dateTextWrapper"
	pickerCurrentDay  = "td.xdsoft_date.xdsoft_current"
	pickerDayTemplate = "td[data-date='%d'][data-month='%d'][data-year='%d']"
	widgetDayView     = "week-column.facility-row"
)

// Expo walks the omnify widget one day at a time for a week starting at the
// date the picker opens on.
type Expo struct {
	URL          string
	Label        string
	FirstHour    int
	LastHour     int
	DisplayLimit int
	Policy       browser.Policy
}

func (e *Expo) Name() string { return expoName }

func (e *Expo) Scrape(ctx context.Context, fetcher browser.Fetcher) (report.Section, error) {
	log.FromContext(ctx).Info("scrape_start", zap.String("site", expoName), zap.String("url", e.URL))
	if _, err := fetcher.Fetch(ctx, e.URL); err != nil {
		return report.Section{}, fmt.Errorf("expo: %w", err)
	}
	if err := fetcher.ClickAndWait(ctx, browser.ByCSS(pickerToggle)); err != nil {
		return report.Section{}, fmt.Errorf("expo: open date picker: %w", err)
	}
	snapshot, err := fetcher.WaitForPresence(ctx, browser.ByCSS(pickerCurrentDay))
	if err != nil {
		return report.Section{}, fmt.Errorf("expo: %w", err)
	}
	anchor, err := currentPickerDate(snapshot)
	if err != nil {
		return report.Section{}, fmt.Errorf("expo: %w", err)
	}

	week := grid.Week(anchor)
	var records []grid.Record
	for _, date := range week {
		dayRecords, err := e.day(ctx, fetcher, date)
		if err = e.Policy.Tolerate(ctx, err); err != nil {
			return report.Section{}, fmt.Errorf("expo %s: %w", date, err)
		}
		log.FromContext(ctx).Debug("day_parsed", zap.Stringer("date", date), zap.Int("slots", len(dayRecords)))
		records = append(records, dayRecords...)
	}

	lists, err := grid.BuildLists(records, grid.HourlyCatalog(e.FirstHour, e.LastHour), grid.Labels(week))
	if err != nil {
		return report.Section{}, fmt.Errorf("expo: %w", err)
	}
	cells := grid.FormatCells(lists, e.DisplayLimit)
	log.FromContext(ctx).Info("scrape_done", zap.String("site", expoName), zap.Int("records", len(records)))
	return report.Section{Label: e.Label, URL: e.URL, RowHeader: expoRowHeader, Grid: cells}, nil
}

// day opens the widget on date and reads its slots.
func (e *Expo) day(ctx context.Context, fetcher browser.Fetcher, date grid.Date) ([]grid.Record, error) {
	if err := fetcher.ClickAndWait(ctx, browser.ByCSS(pickerToggle)); err != nil {
		return nil, err
	}
	// The toggle sometimes needs a second click before the calendar reopens.
	if err := fetcher.ClickAndWait(ctx, browser.ByCSS(pickerToggle).AsOptional()); err != nil && !errors.Is(err, browser.ErrTimeout) {
		return nil, err
	}
	if err := fetcher.ClickAndWait(ctx, browser.ByCSS(PickerDaySelector(date))); err != nil {
		return nil, err
	}
	snapshot, err := fetcher.WaitForPresence(ctx, browser.ByClass(widgetDayView))
	if err != nil {
		return nil, err
	}
	document, err := snapshot.Document()
	if err != nil {
		return nil, err
	}
	return scraper.ParseWidget(document, date.String())
}

// PickerDaySelector addresses the calendar cell for date, which counts months
// from zero.
func PickerDaySelector(date grid.Date) string {
	return fmt.Sprintf(pickerDayTemplate, date.Day, date.PickerMonth(), date.Year)
}

func currentPickerDate(snapshot browser.Snapshot) (grid.Date, error) {
	document, err := snapshot.Document()
	if err != nil {
		return grid.Date{}, err
	}
	cell := document.Find(pickerCurrentDay).First()
	if cell.Length() == 0 {
		return grid.Date{}, fmt.Errorf("%s: %w", pickerCurrentDay, scraper.ErrExtraction)
	}
	day, err := intAttr(cell, "data-date")
	if err != nil {
		return grid.Date{}, err
	}
	month, err := intAttr(cell, "data-month")
	if err != nil {
		return grid.Date{}, err
	}
	year, err := intAttr(cell, "data-year")
	if err != nil {
		return grid.Date{}, err
	}
	return grid.FromPickerMonth(day, month, year), nil
}

func intAttr(cell *goquery.Selection, name string) (int, error) {
	value, err := strconv.Atoi(cell.AttrOr(name, ""))
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", pickerCurrentDay, name, scraper.ErrExtraction)
	}
	return value, nil
}
