// pkg/browser/replay.go
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"CourtGrid/pkg/log"
	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"gopkg.in/yaml.v3"
)

const replayManifestName = "replay.yaml"

/*
Replay is an offline Fetcher over captured markup.

Pages are keyed by URL, Clicks by selector value (the page shown after the
click; clicks without an entry leave the page as is) and Selections by the
visible option text.
*/
type Replay struct {
	Pages      map[string]string
	Clicks     map[string]string
	Selections map[string]string

	current     Snapshot
	closed      bool
	diagnostics diagnostics
}

type replayManifest struct {
	Pages      map[string]string `yaml:"pages"`
	Clicks     map[string]string `yaml:"clicks"`
	Selections map[string]string `yaml:"selections"`
}

// LoadReplay reads replay.yaml from directory and the HTML files it names.
func LoadReplay(directory string) (*Replay, error) {
	raw, err := os.ReadFile(filepath.Join(directory, replayManifestName))
	if err != nil {
		return nil, fmt.Errorf("replay manifest: %w", err)
	}
	var manifest replayManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("replay manifest: %w", err)
	}

	load := func(files map[string]string) (map[string]string, error) {
		markup := make(map[string]string, len(files))
		for key, file := range files {
			content, err := os.ReadFile(filepath.Join(directory, file))
			if err != nil {
				return nil, fmt.Errorf("replay page for %q: %w", key, err)
			}
			markup[key] = string(content)
		}
		return markup, nil
	}
	replay := &Replay{}
	if replay.Pages, err = load(manifest.Pages); err != nil {
		return nil, err
	}
	if replay.Clicks, err = load(manifest.Clicks); err != nil {
		return nil, err
	}
	if replay.Selections, err = load(manifest.Selections); err != nil {
		return nil, err
	}
	return replay, nil
}

// WithDiagnostics makes failed steps write the current page under directory.
func (r *Replay) WithDiagnostics(directory, runID string) *Replay {
	r.diagnostics = diagnostics{directory: directory, runID: runID}
	return r
}

func (r *Replay) Fetch(_ context.Context, url string) (Snapshot, error) {
	if r.closed {
		return Snapshot{}, fmt.Errorf("%w: replay closed", ErrSession)
	}
	markup, ok := r.Pages[url]
	if !ok {
		return Snapshot{}, &StepError{Step: "navigate", Selector: ByCSS(documentSelector), Err: fmt.Errorf("no captured page for %s", url)}
	}
	r.show(url, markup)
	return r.current, nil
}

func (r *Replay) ClickAndWait(ctx context.Context, selector Selector) error {
	if r.closed {
		return fmt.Errorf("%w: replay closed", ErrSession)
	}
	if !r.present(selector) {
		return r.fail(ctx, "click", selector)
	}
	if next, ok := r.Clicks[selector.Value]; ok {
		r.show(r.current.URL, next)
	}
	return nil
}

func (r *Replay) WaitForPresence(ctx context.Context, selector Selector) (Snapshot, error) {
	if r.closed {
		return Snapshot{}, fmt.Errorf("%w: replay closed", ErrSession)
	}
	if !r.present(selector) {
		return Snapshot{}, r.fail(ctx, "wait", selector)
	}
	return r.current, nil
}

func (r *Replay) SelectOption(ctx context.Context, selector Selector, visibleText string) error {
	if r.closed {
		return fmt.Errorf("%w: replay closed", ErrSession)
	}
	if !r.present(selector) {
		return r.fail(ctx, "select", selector)
	}
	next, ok := r.Selections[visibleText]
	if !ok {
		return fmt.Errorf("%s %q: %w", selector, visibleText, ErrOptionMissing)
	}
	r.show(r.current.URL, next)
	return nil
}

// MarkStale tags matching elements of the current page. CSS selectors only;
// an XPath selector leaves the page untouched.
func (r *Replay) MarkStale(_ context.Context, selector Selector) error {
	if r.closed {
		return fmt.Errorf("%w: replay closed", ErrSession)
	}
	query, ok := selector.css()
	if !ok {
		return nil
	}
	document, err := goquery.NewDocumentFromReader(strings.NewReader(r.current.HTML))
	if err != nil {
		return err
	}
	document.Find(query).SetAttr(StaleAttribute, "")
	markup, err := goquery.OuterHtml(document.Selection)
	if err != nil {
		return err
	}
	r.show(r.current.URL, markup)
	return nil
}

func (r *Replay) Close() error {
	r.closed = true
	return nil
}

func (r *Replay) show(url, markup string) {
	r.current = Snapshot{URL: url, HTML: markup, TakenAt: time.Now()}
}

func (r *Replay) present(selector Selector) bool {
	if query, ok := selector.css(); ok {
		document, err := goquery.NewDocumentFromReader(strings.NewReader(r.current.HTML))
		if err != nil {
			return false
		}
		return document.Find(query).Length() > 0
	}
	root, err := htmlquery.Parse(strings.NewReader(r.current.HTML))
	if err != nil {
		return false
	}
	nodes, err := htmlquery.QueryAll(root, selector.Value)
	return err == nil && len(nodes) > 0
}

func (r *Replay) fail(ctx context.Context, step string, selector Selector) error {
	return &StepError{
		Step:       step,
		Selector:   selector,
		Diagnostic: r.diagnostics.dump(log.FromContext(ctx), r.current.HTML),
		Err:        ErrTimeout,
	}
}

var (
	_ Fetcher = (*Replay)(nil)
	_ Marker  = (*Replay)(nil)
)
