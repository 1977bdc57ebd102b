// pkg/browser/session.go
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"CourtGrid/pkg/log"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultPageTimeout     = 45 * time.Second
	defaultWaitTimeout     = 10 * time.Second
	defaultOptionalTimeout = 3 * time.Second
	defaultPageInterval    = 500 * time.Millisecond
	diagnosticTimeout      = 5 * time.Second
	screenshotQuality      = 90
	documentSelector       = "html"
	defaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// State of a Session's browser.
type State int

const (
	NotStarted State = iota
	Navigating
	PageReady
	Closed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Navigating:
		return "navigating"
	case PageReady:
		return "page-ready"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Options struct {
	ExecPath        string
	Headless        bool
	UserAgent       string
	PageTimeout     time.Duration
	WaitTimeout     time.Duration
	OptionalTimeout time.Duration
	PageInterval    time.Duration
	DiagnosticsDir  string
	RunID           string
}

func DefaultOptions() Options {
	return Options{
		ExecPath:        LookupChrome(),
		Headless:        true,
		UserAgent:       defaultUserAgent,
		PageTimeout:     defaultPageTimeout,
		WaitTimeout:     defaultWaitTimeout,
		OptionalTimeout: defaultOptionalTimeout,
		PageInterval:    defaultPageInterval,
		DiagnosticsDir:  ".",
	}
}

// LookupChrome finds a Chrome or Chromium binary on PATH. An empty result
// lets chromedp apply its own search.
func LookupChrome() string {
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, _ := exec.LookPath(name); path != "" {
			return path
		}
	}
	return ""
}

// Session drives one headless Chrome through chromedp.
type Session struct {
	options         Options
	state           State
	browserContext  context.Context
	cancelBrowser   context.CancelFunc
	cancelAllocator context.CancelFunc
	limiter         *rate.Limiter
	diagnostics     diagnostics
	logger          *zap.Logger
}

// Start launches the browser. On failure everything already allocated is
// released before returning.
func Start(parentContext context.Context, options Options) (*Session, error) {
	allocatorOptions := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", options.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.NoSandbox,
	)
	if options.ExecPath != "" {
		allocatorOptions = append(allocatorOptions, chromedp.ExecPath(options.ExecPath))
	}
	if options.UserAgent != "" {
		allocatorOptions = append(allocatorOptions, chromedp.UserAgent(options.UserAgent))
	}

	allocatorContext, cancelAllocator := chromedp.NewExecAllocator(parentContext, allocatorOptions...)
	browserContext, cancelBrowser := chromedp.NewContext(allocatorContext)

	limit := rate.Inf
	if options.PageInterval > 0 {
		limit = rate.Every(options.PageInterval)
	}
	session := &Session{
		options:         options,
		state:           NotStarted,
		browserContext:  browserContext,
		cancelBrowser:   cancelBrowser,
		cancelAllocator: cancelAllocator,
		limiter:         rate.NewLimiter(limit, 1),
		diagnostics:     diagnostics{directory: options.DiagnosticsDir, runID: options.RunID},
		logger:          log.FromContext(parentContext),
	}

	if err := chromedp.Run(browserContext); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("%w: %v", ErrSession, err)
	}
	session.logger.Info("browser_started", zap.String("exec", options.ExecPath), zap.Bool("headless", options.Headless))
	return session, nil
}

func (s *Session) State() State { return s.state }

func (s *Session) Fetch(ctx context.Context, url string) (Snapshot, error) {
	if err := s.usable(); err != nil {
		return Snapshot{}, err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return Snapshot{}, err
	}
	s.state = Navigating
	s.logger.Info("navigate", zap.String("url", url))

	runContext, cancel := s.scoped(ctx, s.options.PageTimeout)
	defer cancel()
	var markup string
	if err := chromedp.Run(runContext,
		chromedp.Navigate(url),
		chromedp.OuterHTML(documentSelector, &markup, chromedp.ByQuery),
	); err != nil {
		return Snapshot{}, s.fail("navigate", ByCSS(documentSelector), err)
	}
	s.state = PageReady
	return Snapshot{URL: url, HTML: markup, TakenAt: time.Now()}, nil
}

func (s *Session) ClickAndWait(ctx context.Context, selector Selector) error {
	if err := s.usable(); err != nil {
		return err
	}
	s.logger.Debug("click", zap.String("selector", selector.String()))
	query, by := selector.query()

	runContext, cancel := s.scoped(ctx, s.timeoutFor(selector))
	defer cancel()
	if err := chromedp.Run(runContext,
		chromedp.WaitVisible(query, by),
		chromedp.Click(query, by, chromedp.NodeVisible),
	); err != nil {
		return s.fail("click", selector, err)
	}
	return nil
}

func (s *Session) WaitForPresence(ctx context.Context, selector Selector) (Snapshot, error) {
	if err := s.usable(); err != nil {
		return Snapshot{}, err
	}
	s.logger.Debug("wait", zap.String("selector", selector.String()))
	query, by := selector.query()

	runContext, cancel := s.scoped(ctx, s.timeoutFor(selector))
	defer cancel()
	var markup, location string
	if err := chromedp.Run(runContext,
		chromedp.WaitReady(query, by),
		chromedp.Location(&location),
		chromedp.OuterHTML(documentSelector, &markup, chromedp.ByQuery),
	); err != nil {
		return Snapshot{}, s.fail("wait", selector, err)
	}
	s.state = PageReady
	return Snapshot{URL: location, HTML: markup, TakenAt: time.Now()}, nil
}

const selectOptionScript = `(function() {
	const select = %s;
	if (!select || !select.options) { return false; }
	const wanted = %s;
	const option = Array.from(select.options).find(o => o.text.trim() === wanted);
	if (!option) { return false; }
	select.value = option.value;
	select.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})()`

// SelectOption picks the option whose visible text matches and fires the
// change event so postback forms reload.
func (s *Session) SelectOption(ctx context.Context, selector Selector, visibleText string) error {
	if err := s.usable(); err != nil {
		return err
	}
	s.logger.Debug("select", zap.String("selector", selector.String()), zap.String("option", visibleText))
	query, by := selector.query()
	locate, err := locateScript(selector)
	if err != nil {
		return err
	}
	wanted, err := json.Marshal(visibleText)
	if err != nil {
		return err
	}

	runContext, cancel := s.scoped(ctx, s.timeoutFor(selector))
	defer cancel()
	var selected bool
	if err := chromedp.Run(runContext,
		chromedp.WaitReady(query, by),
		chromedp.Evaluate(fmt.Sprintf(selectOptionScript, locate, wanted), &selected),
	); err != nil {
		return s.fail("select", selector, err)
	}
	if !selected {
		return fmt.Errorf("%s %q: %w", selector, visibleText, ErrOptionMissing)
	}
	s.state = Navigating
	return nil
}

func locateScript(selector Selector) (string, error) {
	if query, ok := selector.css(); ok {
		literal, err := json.Marshal(query)
		return fmt.Sprintf("document.querySelector(%s)", literal), err
	}
	literal, err := json.Marshal(selector.Value)
	return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", literal), err
}

const markStaleScript = `(function() {
	const nodes = %s;
	for (const node of nodes) { node.setAttribute(%s, ""); }
	return nodes.length;
})()`

// MarkStale tags every element matching selector with StaleAttribute. No
// match is not an error.
func (s *Session) MarkStale(ctx context.Context, selector Selector) error {
	if err := s.usable(); err != nil {
		return err
	}
	nodes, err := locateAllScript(selector)
	if err != nil {
		return err
	}
	attribute, err := json.Marshal(StaleAttribute)
	if err != nil {
		return err
	}
	runContext, cancel := s.scoped(ctx, s.options.OptionalTimeout)
	defer cancel()
	var marked int
	if err := chromedp.Run(runContext, chromedp.Evaluate(fmt.Sprintf(markStaleScript, nodes, attribute), &marked)); err != nil {
		return s.fail("mark", selector, err)
	}
	s.logger.Debug("marked_stale", zap.String("selector", selector.String()), zap.Int("nodes", marked))
	return nil
}

func locateAllScript(selector Selector) (string, error) {
	if query, ok := selector.css(); ok {
		literal, err := json.Marshal(query)
		return fmt.Sprintf("Array.from(document.querySelectorAll(%s))", literal), err
	}
	literal, err := json.Marshal(selector.Value)
	return fmt.Sprintf(`(function(result) {
		const nodes = [];
		for (let i = 0; i < result.snapshotLength; i++) { nodes.push(result.snapshotItem(i)); }
		return nodes;
	})(document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null))`, literal), err
}

// Type focuses the element and sends text as key strokes.
func (s *Session) Type(ctx context.Context, selector Selector, text string) error {
	if err := s.usable(); err != nil {
		return err
	}
	query, by := selector.query()
	runContext, cancel := s.scoped(ctx, s.timeoutFor(selector))
	defer cancel()
	if err := chromedp.Run(runContext,
		chromedp.WaitVisible(query, by),
		chromedp.SendKeys(query, text, by),
	); err != nil {
		return s.fail("type", selector, err)
	}
	return nil
}

func (s *Session) Screenshot(ctx context.Context, path string) error {
	if err := s.usable(); err != nil {
		return err
	}
	runContext, cancel := s.scoped(ctx, s.options.PageTimeout)
	defer cancel()
	var image []byte
	if err := chromedp.Run(runContext, chromedp.FullScreenshot(&image, screenshotQuality)); err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return err
	}
	s.logger.Info("screenshot_saved", zap.String("path", path), zap.Int("bytes", len(image)))
	return nil
}

// Close shuts the browser down. Safe to call more than once.
func (s *Session) Close() error {
	if s.state == Closed {
		return nil
	}
	s.state = Closed
	err := chromedp.Cancel(s.browserContext)
	s.cancelBrowser()
	s.cancelAllocator()
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("browser_close_failed", zap.Error(err))
		return err
	}
	s.logger.Info("browser_closed")
	return nil
}

func (s *Session) usable() error {
	if s.state == Closed {
		return fmt.Errorf("%w: session closed", ErrSession)
	}
	return nil
}

func (s *Session) timeoutFor(selector Selector) time.Duration {
	if selector.Optional {
		return s.options.OptionalTimeout
	}
	return s.options.WaitTimeout
}

// scoped bounds one browser action by timeout and by the caller's context.
func (s *Session) scoped(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runContext, cancel := context.WithTimeout(s.browserContext, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runContext, func() {
		stop()
		cancel()
	}
}

func (s *Session) fail(step string, selector Selector, cause error) error {
	stepError := &StepError{Step: step, Selector: selector, Err: cause}
	if errors.Is(cause, context.DeadlineExceeded) {
		stepError.Err = fmt.Errorf("%w: %v", ErrTimeout, cause)
	}
	stepError.Diagnostic = s.diagnostics.dump(s.logger, s.currentMarkup())
	s.logger.Warn("step_failed",
		zap.String("step", step),
		zap.String("selector", selector.String()),
		zap.String("diagnostic", stepError.Diagnostic),
		zap.Error(cause),
	)
	return stepError
}

func (s *Session) currentMarkup() string {
	runContext, cancel := context.WithTimeout(s.browserContext, diagnosticTimeout)
	defer cancel()
	var markup string
	if err := chromedp.Run(runContext, chromedp.OuterHTML(documentSelector, &markup, chromedp.ByQuery)); err != nil {
		return ""
	}
	return markup
}

var (
	_ Fetcher = (*Session)(nil)
	_ Marker  = (*Session)(nil)
)
