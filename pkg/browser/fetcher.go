// pkg/browser/fetcher.go
package browser

import (
	"context"
	"errors"
	"fmt"

	"CourtGrid/pkg/log"
	"go.uber.org/zap"
)

var (
	ErrTimeout       = errors.New("element did not appear in time")
	ErrSession       = errors.New("browser session unavailable")
	ErrOptionMissing = errors.New("option not found in select element")
)

// Fetcher is everything the site flows need from a browser.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Snapshot, error)
	ClickAndWait(ctx context.Context, selector Selector) error
	WaitForPresence(ctx context.Context, selector Selector) (Snapshot, error)
	SelectOption(ctx context.Context, selector Selector, visibleText string) error
	Close() error
}

// Marker is implemented by fetchers that can tag the elements currently on
// the page. Fresh(selector) then matches only elements rendered after the tag.
type Marker interface {
	MarkStale(ctx context.Context, selector Selector) error
}

// MarkStale tags the elements matching selector when fetcher supports it and
// does nothing otherwise.
func MarkStale(ctx context.Context, fetcher Fetcher, selector Selector) error {
	marker, ok := fetcher.(Marker)
	if !ok {
		return nil
	}
	return marker.MarkStale(ctx, selector)
}

// StepError reports a wait or click that never completed. Diagnostic names
// the file holding the page markup at the time of failure, if one was written.
type StepError struct {
	Step       string
	Selector   Selector
	Diagnostic string
	Err        error
}

func (e *StepError) Error() string {
	message := fmt.Sprintf("%s %s: %v", e.Step, e.Selector, e.Err)
	if e.Diagnostic != "" {
		message += " (page saved to " + e.Diagnostic + ")"
	}
	return message
}

func (e *StepError) Unwrap() error { return e.Err }

// Policy decides what a failed step does to the run.
type Policy int

const (
	BestEffort Policy = iota
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "best-effort"
}

// Tolerate returns nil for a step timeout under BestEffort and err otherwise.
func (p Policy) Tolerate(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var stepError *StepError
	if p == BestEffort && errors.As(err, &stepError) && errors.Is(err, ErrTimeout) {
		log.FromContext(ctx).Warn("step_skipped",
			zap.String("step", stepError.Step),
			zap.String("selector", stepError.Selector.String()),
			zap.String("diagnostic", stepError.Diagnostic),
		)
		return nil
	}
	return err
}
