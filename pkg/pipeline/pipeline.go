// Package pipeline runs the scrape → render → write cycle shared by the
// command line tools.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"CourtGrid/pkg/browser"
	"CourtGrid/pkg/config"
	"CourtGrid/pkg/export"
	"CourtGrid/pkg/log"
	"CourtGrid/pkg/report"
	"CourtGrid/pkg/sites"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	StageStarting  = "starting"
	StageScraping  = "scraping"
	StageRendering = "rendering"
	StageDone      = "done"
	StageFailed    = "failed"
)

// Request describes one update run.
type Request struct {
	Config    config.Config
	Sites     []sites.Site
	ReplayDir string
	ICSPath   string
	XLSXPath  string
	// Progress, when set, is told each stage as the run enters it.
	Progress func(stage string)
}

func (r Request) stage(name string) {
	if r.Progress != nil {
		r.Progress(name)
	}
}

// Open starts the fetcher for a run: captured pages when replayDir is set,
// a headless Chrome otherwise.
func Open(ctx context.Context, settings config.Config, replayDir, runID string) (browser.Fetcher, error) {
	if replayDir != "" {
		replay, err := browser.LoadReplay(replayDir)
		if err != nil {
			return nil, err
		}
		log.FromContext(ctx).Info("replay_loaded",
			zap.String("dir", replayDir),
			zap.Int("pages", len(replay.Pages)),
			zap.Int("clicks", len(replay.Clicks)),
			zap.Int("selections", len(replay.Selections)),
		)
		return replay.WithDiagnostics(settings.Browser.DiagnosticsDir, runID), nil
	}
	session, err := browser.Start(ctx, settings.BrowserOptions(runID))
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Scrape visits every site in order with one fetcher. The first error stops
// the run.
func Scrape(ctx context.Context, fetcher browser.Fetcher, selected []sites.Site) ([]report.Section, error) {
	logger := log.FromContext(ctx)
	sections := make([]report.Section, 0, len(selected))
	for _, site := range selected {
		started := time.Now()
		section, err := site.Scrape(ctx, fetcher)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", site.Name(), err)
		}
		logger.Info("site_scraped", zap.String("site", site.Name()), zap.Duration("took", time.Since(started)))
		sections = append(sections, section)
	}
	return sections, nil
}

// Run performs one update. Nothing is written unless every site succeeded
// and every output rendered, and the browser is released on every path.
func Run(ctx context.Context, request Request) ([]report.Section, error) {
	runID := uuid.NewString()
	logger := log.FromContext(ctx).With(zap.String("run", runID))
	ctx = log.WithContext(ctx, logger)
	logger.Info("run_start", zap.Int("sites", len(request.Sites)), zap.String("policy", request.Config.Policy().String()))
	request.stage(StageStarting)

	renderer, err := report.NewRenderer(request.Config.Timezone)
	if err != nil {
		return nil, err
	}

	fetcher, err := Open(ctx, request.Config, request.ReplayDir, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeError := fetcher.Close(); closeError != nil {
			logger.Warn("fetcher_close_failed", zap.Error(closeError))
		}
	}()

	request.stage(StageScraping)
	sections, err := Scrape(ctx, fetcher, request.Sites)
	if err != nil {
		logger.Error("run_failed", zap.Error(err))
		return nil, err
	}

	request.stage(StageRendering)
	files, err := outputs(ctx, request, renderer, sections)
	if err != nil {
		return nil, err
	}
	if err := report.WriteAll(files); err != nil {
		return nil, err
	}
	request.stage(StageDone)
	logger.Info("run_done", zap.String("output", request.Config.Output), zap.Int("sections", len(sections)))
	return sections, nil
}

func outputs(ctx context.Context, request Request, renderer *report.Renderer, sections []report.Section) ([]report.File, error) {
	files := []report.File{{Path: request.Config.Output, Body: []byte(renderer.Document(sections))}}
	if request.ICSPath != "" {
		feed, events := export.CalendarFeed(ctx, sections, renderer.Location, renderer.Now())
		log.FromContext(ctx).Info("calendar_rendered", zap.String("path", request.ICSPath), zap.Int("events", events))
		files = append(files, report.File{Path: request.ICSPath, Body: feed})
	}
	if request.XLSXPath != "" {
		workbook, err := export.WorkbookBytes(sections)
		if err != nil {
			return nil, fmt.Errorf("workbook: %w", err)
		}
		files = append(files, report.File{Path: request.XLSXPath, Body: workbook})
	}
	return files, nil
}
