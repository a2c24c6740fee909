// Package browser drives a Chrome instance through chromedp and serves as
// the capture sink for evidence screenshots.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
)

// ErrTimeout is returned when an expectation is not met in time.
var ErrTimeout = errors.New("timed out waiting for condition")

// Options configures the browser.
type Options struct {
	Headless     bool
	WindowWidth  int
	WindowHeight int
	// Timeout bounds the whole session.
	Timeout time.Duration
	// ExpectTimeout is the default for Wait* calls given a zero timeout.
	ExpectTimeout time.Duration
	// ExecPath overrides the Chrome binary.
	ExecPath string
	// Redact scrubs console and dialog text before it is logged.
	Redact func(string) string
}

// DefaultOptions mirrors the harness defaults.
func DefaultOptions() Options {
	return Options{
		Headless:      true,
		WindowWidth:   1280,
		WindowHeight:  720,
		Timeout:       2 * time.Minute,
		ExpectTimeout: 5 * time.Second,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.WindowWidth <= 0 {
		o.WindowWidth = def.WindowWidth
	}
	if o.WindowHeight <= 0 {
		o.WindowHeight = def.WindowHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.ExpectTimeout <= 0 {
		o.ExpectTimeout = def.ExpectTimeout
	}
	return o
}

func allocatorOptions(o Options) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(o.WindowWidth, o.WindowHeight),
	)
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	return opts
}

// Session is one browser tab.
type Session struct {
	ctx           context.Context
	cancel        context.CancelFunc
	allocCancel   context.CancelFunc
	logger        *log.Logger
	expectTimeout time.Duration
	redact        func(string) string
}

// Launch starts Chrome and opens a tab. The browser process starts lazily on
// the first action; Launch forces it so startup failures surface here.
func Launch(ctx context.Context, opts Options, logger *log.Logger) (*Session, error) {
	opts = opts.normalized()
	if logger == nil {
		logger = log.Default()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	// The first Run allocates the browser and must not carry a deadline.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}
	timeoutCtx, timeoutCancel := context.WithTimeout(tabCtx, opts.Timeout)

	s := &Session{
		ctx: timeoutCtx,
		cancel: func() {
			timeoutCancel()
			tabCancel()
		},
		allocCancel:   allocCancel,
		logger:        logger,
		expectTimeout: opts.ExpectTimeout,
		redact:        opts.Redact,
	}
	if s.redact == nil {
		s.redact = func(v string) string { return v }
	}
	logger.Debug("browser started", "headless", opts.Headless, "window", fmt.Sprintf("%dx%d", opts.WindowWidth, opts.WindowHeight))
	return s, nil
}

// Close shuts the tab and the browser.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// Context returns the session context; actions run against it.
func (s *Session) Context() context.Context { return s.ctx }

// derive returns a context of the tab that is also canceled with ctx.
func (s *Session) derive(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.ctx)
	if ctx == nil {
		return runCtx, cancel
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// run executes actions in the tab, bounded by ctx as well as the session.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := s.derive(ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

const disableAnimationsScript = `(() => {
  const id = "__evidence_no_animations";
  if (document.getElementById(id)) return true;
  const style = document.createElement("style");
  style.id = id;
  style.textContent = "*, *::before, *::after { animation: none !important; transition: none !important; caret-color: transparent !important; }";
  (document.head || document.documentElement).appendChild(style);
  return true;
})()`

// Screenshot implements evidence.CaptureSink.
func (s *Session) Screenshot(ctx context.Context, opts evidence.ScreenshotOptions) error {
	if opts.Path == "" {
		return errors.New("screenshot path is empty")
	}
	var actions []chromedp.Action
	if opts.AnimationsDisabled {
		var ok bool
		actions = append(actions, chromedp.Evaluate(disableAnimationsScript, &ok))
	}
	var buf []byte
	if opts.FullPage {
		// Quality 100 selects PNG.
		actions = append(actions, chromedp.FullScreenshot(&buf, 100))
	} else {
		actions = append(actions, chromedp.CaptureScreenshot(&buf))
	}
	if err := s.run(ctx, actions...); err != nil {
		return fmt.Errorf("capturing screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return fmt.Errorf("creating screenshot dir: %w", err)
	}
	if err := os.WriteFile(opts.Path, buf, 0644); err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}
	s.logger.Debug("screenshot written", "path", opts.Path, "bytes", len(buf))
	return nil
}

// Navigate loads url and waits for the body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("navigating", "url", url)
	if err := s.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Click waits for sel to be visible and clicks it. Selectors may be CSS or
// XPath.
func (s *Session) Click(ctx context.Context, sel string) error {
	err := s.run(ctx,
		chromedp.WaitVisible(sel, chromedp.BySearch),
		chromedp.Click(sel, chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("click %s: %w", sel, err)
	}
	return nil
}

// Fill replaces the value of the input matched by sel.
func (s *Session) Fill(ctx context.Context, sel, text string) error {
	err := s.run(ctx,
		chromedp.WaitVisible(sel, chromedp.BySearch),
		chromedp.Clear(sel, chromedp.BySearch),
		chromedp.SendKeys(sel, text, chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("fill %s: %w", sel, err)
	}
	return nil
}

// WaitVisible waits up to timeout for sel to be visible. A zero timeout
// uses the session's expect timeout.
func (s *Session) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	runCtx, cancel := s.derive(ctx)
	defer cancel()
	wctx, wcancel := context.WithTimeout(runCtx, s.timeout(timeout))
	defer wcancel()
	if err := chromedp.Run(wctx, chromedp.WaitVisible(sel, chromedp.BySearch)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s visible", ErrTimeout, sel)
		}
		return fmt.Errorf("wait visible %s: %w", sel, err)
	}
	return nil
}

// Text returns the visible text of sel.
func (s *Session) Text(ctx context.Context, sel string) (string, error) {
	var text string
	if err := s.run(ctx, chromedp.Text(sel, &text, chromedp.BySearch)); err != nil {
		return "", fmt.Errorf("text %s: %w", sel, err)
	}
	return text, nil
}

// Attribute returns an attribute of sel and whether it is present.
func (s *Session) Attribute(ctx context.Context, sel, name string) (string, bool, error) {
	var value string
	var ok bool
	if err := s.run(ctx, chromedp.AttributeValue(sel, name, &value, &ok, chromedp.BySearch)); err != nil {
		return "", false, fmt.Errorf("attribute %s of %s: %w", name, sel, err)
	}
	return value, ok, nil
}

// Value returns the current value of an input.
func (s *Session) Value(ctx context.Context, sel string) (string, error) {
	var value string
	if err := s.run(ctx, chromedp.Value(sel, &value, chromedp.BySearch)); err != nil {
		return "", fmt.Errorf("value %s: %w", sel, err)
	}
	return value, nil
}

// Title returns the document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("title: %w", err)
	}
	return title, nil
}

// Location returns the current URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("location: %w", err)
	}
	return loc, nil
}

// WaitURL waits until the current URL equals want, ignoring a trailing slash.
func (s *Session) WaitURL(ctx context.Context, want string, timeout time.Duration) error {
	var last string
	err := s.poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		loc, err := s.Location(ctx)
		if err != nil {
			return false, err
		}
		last = loc
		return strings.TrimRight(loc, "/") == strings.TrimRight(want, "/"), nil
	})
	if errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: url %q, last %q", ErrTimeout, want, last)
	}
	return err
}

// WaitTitle waits until the document title equals want.
func (s *Session) WaitTitle(ctx context.Context, want string, timeout time.Duration) error {
	var last string
	err := s.poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		title, err := s.Title(ctx)
		if err != nil {
			return false, err
		}
		last = title
		return title == want, nil
	})
	if errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: title %q, last %q", ErrTimeout, want, last)
	}
	return err
}

// WaitAttribute waits until attribute name of sel equals want.
func (s *Session) WaitAttribute(ctx context.Context, sel, name, want string, timeout time.Duration) error {
	var last string
	err := s.poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		v, _, err := s.Attribute(ctx, sel, name)
		if err != nil {
			return false, nil
		}
		last = v
		return v == want, nil
	})
	if errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: %s[%s] = %q, last %q", ErrTimeout, sel, name, want, last)
	}
	return err
}

// WaitValue waits until the input value of sel equals want.
func (s *Session) WaitValue(ctx context.Context, sel, want string, timeout time.Duration) error {
	var last string
	err := s.poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		v, err := s.Value(ctx, sel)
		if err != nil {
			return false, nil
		}
		last = v
		return v == want, nil
	})
	if errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: value of %s = %q, last %q", ErrTimeout, sel, want, last)
	}
	return err
}

// WaitText waits until the text of sel contains want.
func (s *Session) WaitText(ctx context.Context, sel, want string, timeout time.Duration) error {
	var last string
	err := s.poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		text, err := s.Text(ctx, sel)
		if err != nil {
			return false, nil
		}
		last = text
		return strings.Contains(text, want), nil
	})
	if errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: text of %s contains %q, last %q", ErrTimeout, sel, want, last)
	}
	return err
}

// ListenConsole forwards browser console output to the logger.
func (s *Session) ListenConsole() {
	chromedp.ListenTarget(s.ctx, func(ev any) {
		if msg, ok := ev.(*runtime.EventConsoleAPICalled); ok {
			var args []string
			for _, arg := range msg.Args {
				if arg.Value != nil {
					args = append(args, string(arg.Value))
				}
			}
			s.logger.Debug("console", "type", msg.Type, "msg", s.redact(strings.Join(args, " ")))
		}
	})
}

// AcceptDialogs accepts every alert, confirm and prompt the page opens.
func (s *Session) AcceptDialogs() {
	chromedp.ListenTarget(s.ctx, func(ev any) {
		if d, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			s.logger.Debug("accepting dialog", "type", d.Type, "message", s.redact(d.Message))
			go func() {
				if err := chromedp.Run(s.ctx, page.HandleJavaScriptDialog(true)); err != nil {
					s.logger.Warn("dialog not accepted", "err", err)
				}
			}()
		}
	})
}

func (s *Session) timeout(d time.Duration) time.Duration {
	if d <= 0 {
		return s.expectTimeout
	}
	return d
}

const pollInterval = 100 * time.Millisecond

// poll calls check until it reports true, returns an error, or timeout
// elapses. Each check runs under the same deadline, so a check blocked on a
// missing node ends with ErrTimeout instead of waiting on the session.
func (s *Session) poll(ctx context.Context, timeout time.Duration, check func(context.Context) (bool, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	deadline := time.Now().Add(s.timeout(timeout))
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		checkCtx, cancel := context.WithDeadline(ctx, deadline)
		ok, err := check(checkCtx)
		expired := errors.Is(checkCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
		cancel()
		if err != nil {
			if expired {
				return ErrTimeout
			}
			return err
		}
		if ok {
			return nil
		}
		if expired || time.Now().After(deadline) {
			return ErrTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ctx.Done():
			return s.ctx.Err()
		case <-ticker.C:
		}
	}
}
