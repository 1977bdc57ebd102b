package sites

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"CourtGrid/pkg/browser"
	"CourtGrid/pkg/grid"
	"CourtGrid/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testExpoURL = "https://expo.test/widgets/ABC"

var expoAnchor = grid.Date{Day: 30, Month: 12, Year: 2023}

type slot struct {
	start    string
	facility string
}

// picker renders the calendar with a cell for every date in the week except
// those listed in missing.
func picker(missing ...grid.Date) string {
	var builder strings.Builder
	builder.WriteString(`<div class="dateTextWrapper">Sat, 30 Dec</div><table class="xdsoft_calendar"><tr>`)
	for _, date := range grid.Week(expoAnchor) {
		skip := false
		for _, absent := range missing {
			skip = skip || absent == date
		}
		if skip {
			continue
		}
		class := "xdsoft_date"
		if date == expoAnchor {
			class += " xdsoft_current"
		}
		fmt.Fprintf(&builder, `<td class="%s" data-date="%d" data-month="%d" data-year="%d">%d</td>`,
			class, date.Day, date.PickerMonth(), date.Year, date.Day)
	}
	builder.WriteString(`</tr></table>`)
	return builder.String()
}

func dayView(calendar string, slots ...slot) string {
	var builder strings.Builder
	builder.WriteString("<html><body>" + calendar + `<div class="week-column facility-row">`)
	for _, s := range slots {
		fmt.Fprintf(&builder, `<div class="time-slot facility-slot" data-starttime="%s" data-facility_name="%s">%s</div>`,
			s.start, s.facility, s.facility)
	}
	builder.WriteString("</div></body></html>")
	return builder.String()
}

func expoReplay(missing ...grid.Date) *browser.Replay {
	calendar := picker(missing...)
	slots := map[grid.Date][]slot{
		expoAnchor: {
			{"08:00 AM", "Court 3 A"},
			{"08:00 AM", "Court 1 B"},
			{"08:00 AM", "Court 2 C"},
			{"08:00 AM", "Court 5 D"},
			{"09:00 AM", "Arina Hall"},
		},
		{Day: 31, Month: 12, Year: 2023}: {{"11:00 PM", "Court 7 East"}},
		{Day: 3, Month: 1, Year: 2024}:   {{"01:00 PM", "Hall 2"}},
	}
	clicks := map[string]string{}
	for _, date := range grid.Week(expoAnchor) {
		clicks[PickerDaySelector(date)] = dayView(calendar, slots[date]...)
	}
	return &browser.Replay{
		Pages:  map[string]string{testExpoURL: "<html><body>" + calendar + "</body></html>"},
		Clicks: clicks,
	}
}

func expo(policy browser.Policy) *Expo {
	return &Expo{
		URL:          testExpoURL,
		Label:        "SBH Expo Badminton Courts",
		FirstHour:    8,
		LastHour:     23,
		DisplayLimit: grid.DefaultDisplayLimit,
		Policy:       policy,
	}
}

func TestPickerDaySelectorCountsMonthsFromZero(t *testing.T) {
	assert.Equal(t, "td[data-date='5'][data-month='0'][data-year='2024']",
		PickerDaySelector(grid.Date{Day: 5, Month: 1, Year: 2024}))
}

func TestExpoBuildsWeekGrid(t *testing.T) {
	section, err := expo(browser.Strict).Scrape(context.Background(), expoReplay())
	require.NoError(t, err)

	assert.Equal(t, "time", section.RowHeader)
	assert.Len(t, section.Grid.Rows(), 16)
	assert.Equal(t, []string{
		"30/12/2023", "31/12/2023", "1/1/2024", "2/1/2024", "3/1/2024", "4/1/2024", "5/1/2024",
	}, section.Grid.Columns())
	assert.Equal(t, 16*7, section.Grid.Size())

	assert.Equal(t, "Court,Court,Court,+1", cell(t, section.Grid, "08:00 AM", "30/12/2023"))
	assert.Equal(t, "", cell(t, section.Grid, "09:00 AM", "30/12/2023"), "denylisted facility")
	assert.Equal(t, "Court", cell(t, section.Grid, "11:00 PM", "31/12/2023"))
	assert.Equal(t, "Hall", cell(t, section.Grid, "01:00 PM", "3/1/2024"))
	assert.Equal(t, "", cell(t, section.Grid, "08:00 AM", "1/1/2024"))
}

func TestExpoBestEffortLeavesFailedDayEmpty(t *testing.T) {
	failing := grid.Date{Day: 3, Month: 1, Year: 2024}
	section, err := expo(browser.BestEffort).Scrape(context.Background(), expoReplay(failing))
	require.NoError(t, err)

	assert.Contains(t, section.Grid.Columns(), "3/1/2024")
	assert.Equal(t, "", cell(t, section.Grid, "01:00 PM", "3/1/2024"))
	assert.Equal(t, "Court", cell(t, section.Grid, "11:00 PM", "31/12/2023"))
}

func TestExpoStrictStopsOnFailedDay(t *testing.T) {
	_, err := expo(browser.Strict).Scrape(context.Background(), expoReplay(grid.Date{Day: 3, Month: 1, Year: 2024}))
	assert.ErrorIs(t, err, browser.ErrTimeout)
}

func TestExpoSlotOutsideCatalogIsFatal(t *testing.T) {
	site := expo(browser.BestEffort)
	site.LastHour = 22
	_, err := site.Scrape(context.Background(), expoReplay())
	assert.ErrorIs(t, err, grid.ErrCatalogMiss)
}

func TestExpoRendersAsReportSection(t *testing.T) {
	section, err := expo(browser.Strict).Scrape(context.Background(), expoReplay())
	require.NoError(t, err)

	renderer, err := report.NewRenderer(report.DefaultTimezone)
	require.NoError(t, err)
	rendered := renderer.Render(section)

	assert.True(t, strings.HasPrefix(rendered, "[SBH Expo Badminton Courts ("))
	assert.Contains(t, rendered, "| time | 30/12/2023 | 31/12/2023 |")
	assert.Contains(t, rendered, "| 08:00 AM | Court,Court,Court,+1 |")
}
