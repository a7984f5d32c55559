package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"careerpath-backend/internal/shared/telemetry"
)

const defaultRenderTimeout = 60 * time.Second

// A4 in inches.
const (
	a4Width  = 8.27
	a4Height = 11.69
)

// ChromeConfig configures ChromeRenderer.
type ChromeConfig struct {
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string
	// RemoteURL attaches to a running browser instead of launching one.
	RemoteURL string
	Timeout   time.Duration
	NoSandbox bool
}

// ChromeRenderer prints HTML documents to PDF with headless Chrome.
type ChromeRenderer struct {
	timeout     time.Duration
	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromeRenderer prepares the browser allocator. Chrome starts on the
// first render and is shared by later ones.
func NewChromeRenderer(cfg ChromeConfig) *ChromeRenderer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}

	r := &ChromeRenderer{timeout: timeout}
	if remote := strings.TrimSpace(cfg.RemoteURL); remote != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), remote)
		return r
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if p := strings.TrimSpace(cfg.ExecPath); p != "" {
		opts = append(opts, chromedp.ExecPath(p))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

// Render prints a complete HTML document on A4 with backgrounds.
func (r *ChromeRenderer) Render(ctx context.Context, document string) ([]byte, error) {
	if strings.TrimSpace(document) == "" {
		return nil, ErrEmptyDocument
	}
	started := time.Now()

	browserCtx, err := r.browser()
	if err != nil {
		telemetry.Error("pdf.browser.failed", map[string]any{"err": err})
		return nil, fmt.Errorf("%w: start browser: %v", ErrRender, err)
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var out []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, document).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			out = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(tabCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", r.timeout, err)
		}
		telemetry.Error("pdf.render.failed", map[string]any{"err": err})
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrRender)
	}

	telemetry.Info("pdf.rendered", map[string]any{
		"size_bytes":  len(out),
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return out, nil
}

// browser returns the long-lived browser context, starting Chrome when it is
// not running. Cancelling the first context of an allocator closes the
// browser, so tabs are always opened beneath this one.
func (r *ChromeRenderer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx != nil && r.browserCtx.Err() == nil {
		return r.browserCtx, nil
	}
	ctx, cancel := chromedp.NewContext(r.allocCtx)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, err
	}
	r.browserCtx, r.browserCancel = ctx, cancel
	return ctx, nil
}

// Close shuts the browser down.
func (r *ChromeRenderer) Close() {
	r.mu.Lock()
	if r.browserCancel != nil {
		r.browserCancel()
	}
	r.mu.Unlock()
	if r.allocCancel != nil {
		r.allocCancel()
	}
}

var _ Renderer = (*ChromeRenderer)(nil)
