package rasterizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/joshsymonds/jobsheet/pkg/logger"
)

// ChromeOptions configures the headless Chrome rasterizer.
type ChromeOptions struct {
	// ExecPath overrides the browser binary. Empty uses chromedp's lookup.
	ExecPath string
	// RemoteURL connects to a running browser's DevTools endpoint instead
	// of launching one.
	RemoteURL string
	Timeout   time.Duration
	Scale     float64
	NoSandbox bool
}

// Chrome rasterizes documents with headless Chrome. One browser process is
// shared; every Rasterize call gets its own tab.
type Chrome struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	logger      logger.Logger
	opts        ChromeOptions
}

// NewChrome creates a Chrome rasterizer. Close releases the browser.
func NewChrome(opts ChromeOptions, log logger.Logger) *Chrome {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Scale <= 0 {
		opts.Scale = 2
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	c := &Chrome{opts: opts, logger: log}

	if opts.RemoteURL != "" {
		c.allocCtx, c.allocCancel = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
		log.Debug("Using remote Chrome", "url", opts.RemoteURL)
		return c
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	c.allocCtx, c.allocCancel = chromedp.NewExecAllocator(context.Background(), allocOpts...)
	return c
}

// Rasterize loads html into a fresh tab sized to A4 width and captures the
// report container at the configured device scale. The tab is closed on
// every return path.
func (c *Chrome) Rasterize(ctx context.Context, html string) (*Bitmap, error) {
	tabCtx, cancelTab := chromedp.NewContext(c.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			c.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer cancelTab()

	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.opts.Timeout)
	defer cancelTimeout()

	start := time.Now()
	var buf []byte

	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(PageWidthPx, PageHeightPx),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady(ContainerSelector, chromedp.ByQuery),
		chromedp.ScreenshotScale(ContainerSelector, c.opts.Scale, &buf, chromedp.ByQuery),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("rasterizing document: %w", ctxErr)
		}
		if errors.Is(tabCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("rasterizing document timed out after %v: %w", c.opts.Timeout, err)
		}
		return nil, fmt.Errorf("rasterizing document: %w", err)
	}

	bitmap, err := NewBitmap(buf)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Rasterized document",
		"width_px", bitmap.Width,
		"height_px", bitmap.Height,
		"duration", time.Since(start))

	return bitmap, nil
}

// Close shuts down the browser or remote connection.
func (c *Chrome) Close() {
	if c.allocCancel != nil {
		c.allocCancel()
	}
}
