package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	twoSlots = []string{"08:00 AM", "09:00 AM"}
	newYear  = []string{Date{1, 1, 2024}.String()}
)

func TestBuildListsEndToEnd(t *testing.T) {
	records := []Record{{Row: "08:00 AM", Column: "1/1/2024", Facility: "Court 1 X", Available: true}}

	lists, err := BuildLists(records, twoSlots, newYear)
	require.NoError(t, err)

	cell, ok := lists.Get("08:00 AM", "1/1/2024")
	require.True(t, ok)
	assert.Equal(t, []string{"Court 1 X"}, cell)
	cell, ok = lists.Get("09:00 AM", "1/1/2024")
	require.True(t, ok)
	assert.Empty(t, cell)

	formatted := FormatCells(lists, DefaultDisplayLimit)
	assert.Equal(t, "Court", formatted.At(0, 0))
	assert.Equal(t, "", formatted.At(1, 0))
}

func TestBuildIsRectangularWithoutRecords(t *testing.T) {
	columns := Labels(Week(Date{1, 1, 2024}))
	catalog := HourlyCatalog(8, 23)

	lists, err := BuildLists(nil, catalog, columns)
	require.NoError(t, err)
	assert.Equal(t, 16*7, lists.Size())
	for rowPosition := range catalog {
		for columnPosition := range columns {
			assert.NotNil(t, lists.At(rowPosition, columnPosition))
			assert.Empty(t, lists.At(rowPosition, columnPosition))
		}
	}

	flags, err := BuildFlags(nil, catalog, columns)
	require.NoError(t, err)
	assert.Equal(t, len(catalog)*len(columns), flags.Size())
	for _, row := range catalog {
		for _, column := range columns {
			value, ok := flags.Get(row, column)
			assert.True(t, ok)
			assert.False(t, value)
		}
	}
}

func TestBuildListsKeepsObservationOrder(t *testing.T) {
	records := []Record{
		{Row: "08:00 AM", Column: "1/1/2024", Facility: "Hall B"},
		{Row: "08:00 AM", Column: "1/1/2024", Facility: "Hall A"},
		{Row: "08:00 AM", Column: "1/1/2024", Facility: "Hall B"},
	}
	lists, err := BuildLists(records, twoSlots, newYear)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hall B", "Hall A", "Hall B"}, lists.At(0, 0))
}

func TestBuildFlagsAnyAvailableWins(t *testing.T) {
	records := []Record{
		{Row: "09:00 AM", Column: "1/1/2024", Available: false},
		{Row: "09:00 AM", Column: "1/1/2024", Available: true},
		{Row: "08:00 AM", Column: "1/1/2024", Available: false},
	}
	flags, err := BuildFlags(records, twoSlots, newYear)
	require.NoError(t, err)
	assert.False(t, flags.At(0, 0))
	assert.True(t, flags.At(1, 0))
}

func TestBuildFailsOnCatalogMiss(t *testing.T) {
	records := []Record{{Row: "07:00 AM", Column: "1/1/2024", Facility: "Court 1"}}
	_, err := BuildLists(records, twoSlots, newYear)
	assert.ErrorIs(t, err, ErrCatalogMiss)

	_, err = BuildFlags(records, twoSlots, newYear)
	assert.ErrorIs(t, err, ErrCatalogMiss)
}

func TestBuildFailsOnDateOutsideWindow(t *testing.T) {
	records := []Record{{Row: "08:00 AM", Column: "2/1/2024", Facility: "Court 1"}}
	_, err := BuildLists(records, twoSlots, newYear)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestNewRejectsDuplicateLabels(t *testing.T) {
	_, err := New[bool]([]string{"08:00", "08:00"}, newYear)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}
