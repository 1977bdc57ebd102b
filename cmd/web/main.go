package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"html/template"
	"net/http"
	"sync"
	"time"

	"CourtGrid/pkg/config"
	"CourtGrid/pkg/log"
	"CourtGrid/pkg/pipeline"
	"CourtGrid/pkg/report"
	"CourtGrid/pkg/sites"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	cacheTTL      = 10 * time.Minute
	minRefreshAge = time.Minute
	jobRetention  = time.Minute
)

//go:embed templates/index.html
var templates embed.FS

var page = template.Must(template.ParseFS(templates, "templates/index.html"))

type stageEvent struct {
	Stage string `json:"stage"`
	Error string `json:"error,omitempty"`
}

func (e stageEvent) terminal() bool {
	return e.Stage == pipeline.StageDone || e.Stage == pipeline.StageFailed
}

type refreshJob struct {
	mutex       sync.RWMutex
	current     stageEvent
	subscribers map[chan stageEvent]struct{}
}

func newRefreshJob() *refreshJob {
	return &refreshJob{
		current:     stageEvent{Stage: pipeline.StageStarting},
		subscribers: map[chan stageEvent]struct{}{},
	}
}

func (j *refreshJob) setStage(event stageEvent) {
	j.mutex.Lock()
	j.current = event
	for ch := range j.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	j.mutex.Unlock()
}

func (j *refreshJob) subscribe() chan stageEvent {
	stageChannel := make(chan stageEvent, 4)
	j.mutex.Lock()
	stageChannel <- j.current
	j.subscribers[stageChannel] = struct{}{}
	j.mutex.Unlock()
	return stageChannel
}

func (j *refreshJob) unsubscribe(stageChannel chan stageEvent) {
	j.mutex.Lock()
	delete(j.subscribers, stageChannel)
	close(stageChannel)
	j.mutex.Unlock()
}

type jobStore struct {
	mutex sync.RWMutex
	jobs  map[string]*refreshJob
}

func (s *jobStore) add(id string, job *refreshJob) {
	s.mutex.Lock()
	s.jobs[id] = job
	s.mutex.Unlock()
}

func (s *jobStore) get(id string) (*refreshJob, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	job, exists := s.jobs[id]
	return job, exists
}

func (s *jobStore) remove(id string) {
	s.mutex.Lock()
	delete(s.jobs, id)
	s.mutex.Unlock()
}

// dashboard serves one site's grid from a cache. Refreshes younger than
// minRefreshAge reuse the cached grid, and finished jobs are dropped after
// jobRetention.
type dashboard struct {
	renderer      *report.Renderer
	cache         *pipeline.Cache[report.Section]
	minRefreshAge time.Duration
	jobRetention  time.Duration
	jobs          *jobStore
}

func newDashboard(renderer *report.Renderer, load func(context.Context) (report.Section, error)) *dashboard {
	return &dashboard{
		renderer:      renderer,
		cache:         pipeline.NewCache(cacheTTL, load),
		minRefreshAge: minRefreshAge,
		jobRetention:  jobRetention,
		jobs:          &jobStore{jobs: map[string]*refreshJob{}},
	}
}

func (d *dashboard) routes() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", d.indexHandler).Methods(http.MethodGet)
	router.HandleFunc("/report.md", d.markdownHandler).Methods(http.MethodGet)
	router.HandleFunc("/refresh", d.refreshHandler).Methods(http.MethodPost)
	router.HandleFunc("/job/{id}/events", d.serveEvents).Methods(http.MethodGet)
	return router
}

func main() {
	address := flag.String("addr", ":8080", "listen address")
	configPath := flag.String("config", "", "path to a YAML config file layered over the defaults")
	replayDir := flag.String("replay", "", "serve captured pages instead of driving Chrome")
	flag.Parse()

	if initError := log.Init(true); initError != nil {
		panic(initError)
	}
	settings, err := config.Load(*configPath)
	if err != nil {
		log.L().Fatal("config_invalid", zap.Error(err))
	}
	renderer, err := report.NewRenderer(settings.Timezone)
	if err != nil {
		log.L().Fatal("config_invalid", zap.Error(err))
	}

	site := sites.Registry(settings)["changi"]
	board := newDashboard(renderer, func(ctx context.Context) (report.Section, error) {
		return scrape(ctx, settings, site, *replayDir)
	})

	log.L().Info("server_start", zap.String("addr", *address))
	if err := http.ListenAndServe(*address, board.routes()); err != nil {
		log.L().Fatal("server_exit", zap.Error(err))
	}
}

// scrape runs one site's flow in a browser session of its own.
func scrape(ctx context.Context, settings config.Config, site sites.Site, replayDir string) (report.Section, error) {
	runID := uuid.NewString()
	logger := log.FromContext(ctx).With(zap.String("run", runID))
	ctx = log.WithContext(ctx, logger)
	started := time.Now()
	fetcher, err := pipeline.Open(ctx, settings, replayDir, runID)
	if err != nil {
		return report.Section{}, err
	}
	defer fetcher.Close()

	sections, err := pipeline.Scrape(ctx, fetcher, []sites.Site{site})
	if err != nil {
		return report.Section{}, err
	}
	logger.Info("dashboard_loaded", zap.Duration("took", time.Since(started)))
	return sections[0], nil
}

type tableView struct {
	Label     string
	URL       string
	Timestamp string
	Header    []string
	Rows      [][]string
}

func view(section report.Section, stamp string) tableView {
	cells := section.Grid
	table := tableView{
		Label:     section.Label,
		URL:       section.URL,
		Timestamp: stamp,
		Header:    append([]string{section.RowHeader}, cells.Columns()...),
	}
	for rowPosition, row := range cells.Rows() {
		values := []string{row}
		for columnPosition := range cells.Columns() {
			values = append(values, cells.At(rowPosition, columnPosition))
		}
		table.Rows = append(table.Rows, values)
	}
	return table
}

func (d *dashboard) indexHandler(writer http.ResponseWriter, request *http.Request) {
	section, loaded, err := d.cache.Get(request.Context())
	if err != nil {
		log.L().Error("dashboard_load_failed", zap.Error(err))
		http.Error(writer, "could not load court availability", http.StatusBadGateway)
		return
	}
	stamp := loaded.In(d.renderer.Location).Format("2006-01-02 15:04:05 MST")
	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(writer, view(section, stamp)); err != nil {
		log.L().Warn("template_failed", zap.Error(err))
	}
}

func (d *dashboard) markdownHandler(writer http.ResponseWriter, request *http.Request) {
	section, loaded, err := d.cache.Get(request.Context())
	if err != nil {
		http.Error(writer, "could not load court availability", http.StatusBadGateway)
		return
	}
	renderer := &report.Renderer{Location: d.renderer.Location, Now: func() time.Time { return loaded }}
	writer.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = writer.Write([]byte(renderer.Document([]report.Section{section})))
}

func (d *dashboard) refreshHandler(writer http.ResponseWriter, _ *http.Request) {
	jobIdentifier := uuid.NewString()
	jobInstance := newRefreshJob()
	d.jobs.add(jobIdentifier, jobInstance)

	go func() {
		logger := log.L().With(zap.String("job", jobIdentifier))
		ctx := log.WithContext(context.Background(), logger)
		jobInstance.setStage(stageEvent{Stage: pipeline.StageScraping})
		_, loaded, reloaded, err := d.cache.Refresh(ctx, d.minRefreshAge)
		switch {
		case err != nil:
			logger.Error("refresh_failed", zap.Error(err))
			jobInstance.setStage(stageEvent{Stage: pipeline.StageFailed, Error: err.Error()})
		case !reloaded:
			logger.Info("refresh_skipped", zap.Time("loaded", loaded))
			jobInstance.setStage(stageEvent{Stage: pipeline.StageDone})
		default:
			jobInstance.setStage(stageEvent{Stage: pipeline.StageDone})
		}
		time.AfterFunc(d.jobRetention, func() { d.jobs.remove(jobIdentifier) })
	}()

	writer.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(writer).Encode(map[string]string{"jobID": jobIdentifier})
}

func (d *dashboard) serveEvents(writer http.ResponseWriter, request *http.Request) {
	jobInstance, exists := d.jobs.get(mux.Vars(request)["id"])
	if !exists {
		http.NotFound(writer, request)
		return
	}

	flusher, ok := writer.(http.Flusher)
	if !ok {
		http.Error(writer, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "text/event-stream")
	writer.Header().Set("Cache-Control", "no-cache")
	writer.Header().Set("Connection", "keep-alive")

	stageChannel := jobInstance.subscribe()
	defer jobInstance.unsubscribe(stageChannel)

	jsonEncoder := json.NewEncoder(writer)
	for {
		select {
		case <-request.Context().Done():
			return
		case event := <-stageChannel:
			_, _ = writer.Write([]byte("data: "))
			_ = jsonEncoder.Encode(event)
			_, _ = writer.Write([]byte("\n"))
			flusher.Flush()
			if event.terminal() {
				return
			}
		}
	}
}
