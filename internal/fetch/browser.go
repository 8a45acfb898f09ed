// Package fetch - browser.go provides a headless browser session for boards
// that only render listings client-side.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrBrowserUnavailable is returned by a Launcher when no headless browser
// can be started on this host.
var ErrBrowserUnavailable = errors.New("headless browser unavailable")

// WaitUntil selects when a navigation is considered finished.
type WaitUntil string

const (
	// WaitLoad waits for the page load event.
	WaitLoad WaitUntil = "load"
	// WaitBodyReady waits for the load event and a ready <body>.
	WaitBodyReady WaitUntil = "body"
)

// NavigateOptions configures a single navigation.
type NavigateOptions struct {
	WaitUntil WaitUntil
	Timeout   time.Duration
}

// Page is a single browsing context.
type Page interface {
	// Navigate loads url and waits according to opts.
	Navigate(ctx context.Context, url string, opts NavigateOptions) error
	// WaitForSelector blocks until selector matches a visible element or timeout elapses.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	// Evaluate runs script in the page and decodes its result into out.
	Evaluate(ctx context.Context, script string, out any) error
	// HTML returns the current outer HTML of the document.
	HTML(ctx context.Context) (string, error)
}

// Browser is a launched headless browser with one page.
type Browser interface {
	Page
	Close() error
}

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	UserAgent string
	// ActionTimeout bounds Evaluate and HTML calls.
	ActionTimeout time.Duration
}

// Launcher starts browsers.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// WithBrowser launches a browser, hands it to fn and closes it on every exit
// path, including a panic in fn.
func WithBrowser(ctx context.Context, launcher Launcher, opts LaunchOptions, fn func(Browser) error) (err error) {
	if launcher == nil {
		return ErrBrowserUnavailable
	}
	browser, err := launcher.Launch(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close browser: %w", closeErr)
		}
	}()
	return fn(browser)
}

// chromeCandidates are executable names tried when no explicit path is set.
var chromeCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
	"chrome",
}

// ChromeLauncher launches headless Chrome through chromedp.
type ChromeLauncher struct {
	// ExecPath overrides executable discovery when set.
	ExecPath string
}

// resolveExecPath finds a Chrome binary or returns ErrBrowserUnavailable.
func (l *ChromeLauncher) resolveExecPath() (string, error) {
	if l.ExecPath != "" {
		if _, err := os.Stat(l.ExecPath); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrBrowserUnavailable, l.ExecPath, err)
		}
		return l.ExecPath, nil
	}
	for _, name := range chromeCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: none of %v found in PATH", ErrBrowserUnavailable, chromeCandidates)
}

// Launch starts a headless Chrome with a single tab.
func (l *ChromeLauncher) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	execPath, err := l.resolveExecPath()
	if err != nil {
		return nil, err
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx),
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.ExecPath(execPath),
			chromedp.UserAgent(userAgent),
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.WindowSize(1440, 900),
		)...,
	)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser now so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}

	actionTimeout := opts.ActionTimeout
	if actionTimeout <= 0 {
		actionTimeout = DefaultTimeout
	}

	return &chromeBrowser{
		ctx:           browserCtx,
		cancel:        func() { browserCancel(); allocCancel() },
		actionTimeout: actionTimeout,
	}, nil
}

// chromeBrowser implements Browser on a chromedp tab.
type chromeBrowser struct {
	ctx           context.Context
	cancel        func()
	actionTimeout time.Duration
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (b *chromeBrowser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (b *chromeBrowser) Navigate(ctx context.Context, url string, opts NavigateOptions) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	actions := []chromedp.Action{chromedp.Navigate(url)}
	if opts.WaitUntil == WaitBodyReady {
		actions = append(actions, chromedp.WaitReady("body", chromedp.ByQuery))
	}
	if err := b.run(ctx, timeout, actions...); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (b *chromeBrowser) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	return b.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (b *chromeBrowser) Evaluate(ctx context.Context, script string, out any) error {
	return b.run(ctx, b.actionTimeout, chromedp.Evaluate(script, out))
}

func (b *chromeBrowser) HTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, b.actionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

// Close shuts down the tab and the browser process.
func (b *chromeBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	return err
}

// scrollHeightScript returns the current document height.
const scrollHeightScript = `document.body ? document.body.scrollHeight : 0`

// scrollStepScript scrolls to the bottom and returns the new height.
const scrollStepScript = `(() => { window.scrollTo(0, document.body.scrollHeight); return document.body.scrollHeight; })()`

// ScrollToBottom scrolls until the document height stops growing or
// maxIterations is reached, pausing between steps so lazy content can load.
// It returns the number of scroll steps taken.
func ScrollToBottom(ctx context.Context, page Page, maxIterations int, pause time.Duration) (int, error) {
	var lastHeight float64
	if err := page.Evaluate(ctx, scrollHeightScript, &lastHeight); err != nil {
		return 0, fmt.Errorf("failed to read scroll height: %w", err)
	}

	steps := 0
	for steps < maxIterations {
		var height float64
		if err := page.Evaluate(ctx, scrollStepScript, &height); err != nil {
			return steps, fmt.Errorf("failed to scroll: %w", err)
		}
		steps++

		if err := sleep(ctx, pause); err != nil {
			return steps, err
		}

		if err := page.Evaluate(ctx, scrollHeightScript, &height); err != nil {
			return steps, fmt.Errorf("failed to read scroll height: %w", err)
		}
		if height <= lastHeight {
			break
		}
		lastHeight = height
	}
	return steps, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Sleep waits for d or until ctx is done. Adapters use it for politeness
// delays between categories.
func Sleep(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}
