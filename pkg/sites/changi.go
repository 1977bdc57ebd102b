package sites

import (
	"context"
	"errors"
	"fmt"

	"CourtGrid/pkg/browser"
	"CourtGrid/pkg/grid"
	"CourtGrid/pkg/log"
	"CourtGrid/pkg/report"
	"CourtGrid/pkg/scraper"
	"go.uber.org/zap"
)

const (
	changiName        = "changi"
	changiFacilityBox = "ddlFacility"
	changiTable       = "MyTable"
	changiRowHeader   = "Time"
)

// ErrNoTables means neither facility table could be read.
var ErrNoTables = errors.New("no facility table loaded")

// Changi reads the two court tables of the CARC booking page and merges them.
type Changi struct {
	URL        string
	Label      string
	Facilities []string
	Policy     browser.Policy
}

func (c *Changi) Name() string { return changiName }

func (c *Changi) Scrape(ctx context.Context, fetcher browser.Fetcher) (report.Section, error) {
	if len(c.Facilities) != 2 {
		return report.Section{}, fmt.Errorf("changi: want two facilities, have %d", len(c.Facilities))
	}
	log.FromContext(ctx).Info("scrape_start", zap.String("site", changiName), zap.String("url", c.URL))
	if _, err := fetcher.Fetch(ctx, c.URL); err != nil {
		return report.Section{}, fmt.Errorf("changi: %w", err)
	}

	flags := make([]*grid.Grid[bool], len(c.Facilities))
	for index, facility := range c.Facilities {
		facilityFlags, err := c.facility(ctx, fetcher, facility)
		if err = c.Policy.Tolerate(ctx, err); err != nil {
			return report.Section{}, fmt.Errorf("changi %s: %w", facility, err)
		}
		flags[index] = facilityFlags
	}

	first, second := flags[0], flags[1]
	switch {
	case first == nil && second == nil:
		return report.Section{}, fmt.Errorf("changi: %w", ErrNoTables)
	case first == nil:
		first = grid.Blank(second)
	case second == nil:
		second = grid.Blank(first)
	}
	merged, err := grid.Merge(first, second)
	if err != nil {
		return report.Section{}, fmt.Errorf("changi: %w", err)
	}
	log.FromContext(ctx).Info("scrape_done", zap.String("site", changiName), zap.Int("cells", merged.Size()))
	return report.Section{Label: c.Label, URL: c.URL, RowHeader: changiRowHeader, Grid: merged}, nil
}

// facility returns nil flags together with a step error when the table never
// showed up. The table already on the page is tagged before the selection
// changes, so only the one rendered for facility is read.
func (c *Changi) facility(ctx context.Context, fetcher browser.Fetcher, facility string) (*grid.Grid[bool], error) {
	if err := browser.MarkStale(ctx, fetcher, browser.ByID(changiTable)); err != nil {
		return nil, err
	}
	if err := fetcher.SelectOption(ctx, browser.ByID(changiFacilityBox), facility); err != nil {
		return nil, err
	}
	snapshot, err := fetcher.WaitForPresence(ctx, browser.ByID(changiTable).Fresh())
	if err != nil {
		return nil, err
	}
	document, err := snapshot.Document()
	if err != nil {
		return nil, err
	}
	document.Find("[" + browser.StaleAttribute + "]").Remove()
	table, err := scraper.ParseTable(document, changiTable, facility)
	if err != nil {
		return nil, err
	}
	log.FromContext(ctx).Debug("table_parsed",
		zap.String("facility", facility),
		zap.Int("rows", len(table.Rows)),
		zap.Int("columns", len(table.Columns)),
	)
	return grid.BuildFlags(table.Records, table.Rows, table.Columns)
}
