package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"CourtGrid/pkg/browser"
	"CourtGrid/pkg/config"
	"CourtGrid/pkg/log"
	"CourtGrid/pkg/sites"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	landing   = `<html><body><select id="ddlFacility"><option>Badminton Court 1</option><option>Badminton Court 2</option></select></body></html>`
	courtPage = `<html><body><select id="ddlFacility"></select><table id="MyTable">
<tr><td></td><td>Mon 01/01</td></tr>
<tr><td>7:00am</td><td>%s</td></tr>
</table></body></html>`
)

func writeReplay(t *testing.T, courtTwo string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"landing.html": landing,
		"court1.html":  strings.Replace(courtPage, "%s", "Book Now", 1),
		"court2.html":  courtTwo,
		"replay.yaml": `pages:
  "https://changi.test/": landing.html
selections:
  "Badminton Court 1": court1.html
  "Badminton Court 2": court2.html
`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir, t.TempDir()
}

func request(t *testing.T, replayDir, outDir string, strict bool) Request {
	t.Helper()
	settings := config.Default()
	settings.Output = filepath.Join(outDir, "README.md")
	settings.Strict = strict
	settings.Changi.URL = "https://changi.test/"
	settings.Browser.DiagnosticsDir = filepath.Join(outDir, "diagnostics")
	selected, err := sites.Select(sites.Registry(settings), "changi")
	require.NoError(t, err)
	return Request{Config: settings, Sites: selected, ReplayDir: replayDir}
}

func TestRunWritesEveryOutput(t *testing.T) {
	replayDir, outDir := writeReplay(t, strings.Replace(courtPage, "%s", "Book Now", 1))
	run := request(t, replayDir, outDir, true)
	run.ICSPath = filepath.Join(outDir, "courts.ics")
	run.XLSXPath = filepath.Join(outDir, "courts.xlsx")
	var stages []string
	run.Progress = func(stage string) { stages = append(stages, stage) }

	sections, err := Run(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, []string{StageStarting, StageScraping, StageRendering, StageDone}, stages)

	body, err := os.ReadFile(run.Config.Output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "[Changi Airport Badminton Courts ("))
	assert.Contains(t, string(body), "| Time | Mon 01/01 |\n| --- | --- |\n| 7:00am | 1,2 |\n")

	assert.FileExists(t, run.ICSPath)
	assert.FileExists(t, run.XLSXPath)
}

func TestRunFailureWritesNothing(t *testing.T) {
	replayDir, outDir := writeReplay(t, landing)
	run := request(t, replayDir, outDir, true)

	_, err := Run(context.Background(), run)
	assert.ErrorIs(t, err, browser.ErrTimeout)
	assert.NoFileExists(t, run.Config.Output)
	assert.FileExists(t, filepath.Join(run.Config.Browser.DiagnosticsDir, "error-"+diagnosticRunID(t, run.Config.Browser.DiagnosticsDir)+"-1.html"))
}

func diagnosticRunID(t *testing.T, dir string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	name := strings.TrimPrefix(entries[0].Name(), "error-")
	return strings.TrimSuffix(name, "-1.html")
}

func TestRunBestEffortKeepsGoing(t *testing.T) {
	replayDir, outDir := writeReplay(t, landing)
	run := request(t, replayDir, outDir, false)

	_, err := Run(context.Background(), run)
	require.NoError(t, err)
	body, err := os.ReadFile(run.Config.Output)
	require.NoError(t, err)
	assert.Contains(t, string(body), "| 7:00am | 1 |")
}

func TestRunKeepsOutputsWhenAnyExportFails(t *testing.T) {
	replayDir, outDir := writeReplay(t, strings.Replace(courtPage, "%s", "Book Now", 1))
	run := request(t, replayDir, outDir, true)
	run.ICSPath = filepath.Join(outDir, "courts.ics")
	run.XLSXPath = filepath.Join(outDir, "missing", "courts.xlsx")
	require.NoError(t, os.WriteFile(run.Config.Output, []byte("previous\n"), 0o644))

	_, err := Run(context.Background(), run)
	require.Error(t, err)
	body, err := os.ReadFile(run.Config.Output)
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(body))
	assert.NoFileExists(t, run.ICSPath)
}

func TestRunTagsEveryLogEntryWithRun(t *testing.T) {
	replayDir, outDir := writeReplay(t, landing)
	run := request(t, replayDir, outDir, false)
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := log.WithContext(context.Background(), zap.New(core))

	_, err := Run(ctx, run)
	require.NoError(t, err)

	messages := map[string]bool{}
	for _, entry := range logs.All() {
		messages[entry.Message] = true
		assert.NotEmpty(t, entry.ContextMap()["run"], entry.Message)
	}
	for _, message := range []string{"run_start", "replay_loaded", "scrape_start", "step_skipped", "site_scraped", "run_done"} {
		assert.True(t, messages[message], message)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	replayDir, outDir := writeReplay(t, strings.Replace(courtPage, "%s", "Book Now", 1))
	run := request(t, replayDir, outDir, true)

	var bodies []string
	for i := 0; i < 2; i++ {
		_, err := Run(context.Background(), run)
		require.NoError(t, err)
		body, err := os.ReadFile(run.Config.Output)
		require.NoError(t, err)
		_, table, found := strings.Cut(string(body), "\n")
		require.True(t, found)
		bodies = append(bodies, table)
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Contains(t, bodies[0], "| 7:00am | 1,2 |")
}

func TestOpenReportsMissingReplay(t *testing.T) {
	_, err := Open(context.Background(), config.Default(), t.TempDir(), "run")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCacheReloadsAfterTTL(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	loads := 0
	cache := NewCache(10*time.Minute, func(context.Context) (int, error) {
		loads++
		return loads, nil
	})
	cache.now = func() time.Time { return clock }

	value, loaded, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, value)
	assert.Equal(t, clock, loaded)

	clock = clock.Add(9 * time.Minute)
	value, _, _ = cache.Get(context.Background())
	assert.Equal(t, 1, value)

	clock = clock.Add(2 * time.Minute)
	value, _, _ = cache.Get(context.Background())
	assert.Equal(t, 2, value)

	cache.Invalidate()
	value, _, _ = cache.Get(context.Background())
	assert.Equal(t, 3, value)
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	fail := true
	cache := NewCache(time.Hour, func(context.Context) (string, error) {
		if fail {
			return "", errors.New("browser down")
		}
		return "grid", nil
	})

	_, _, err := cache.Get(context.Background())
	assert.EqualError(t, err, "browser down")

	fail = false
	value, _, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "grid", value)
}

func TestCacheRefreshHonoursMinimumAge(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	loads := 0
	cache := NewCache(10*time.Minute, func(context.Context) (int, error) {
		loads++
		return loads, nil
	})
	cache.now = func() time.Time { return clock }

	value, _, reloaded, err := cache.Refresh(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, 1, value)

	clock = clock.Add(30 * time.Second)
	value, _, reloaded, err = cache.Refresh(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.False(t, reloaded)
	assert.Equal(t, 1, value)

	clock = clock.Add(time.Minute)
	value, loaded, reloaded, err := cache.Refresh(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, 2, value)
	assert.Equal(t, clock, loaded)
}
