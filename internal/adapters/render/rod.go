package render

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodConverter prints HTML to PDF with headless Chrome driven by go-rod.
// The browser is launched on first use and shared by all renders; each
// render gets its own page.
type RodConverter struct {
	mu sync.Mutex

	bin         string
	controlURL  string
	noSandbox   bool
	launcher    *launcher.Launcher
	browser     *rod.Browser
	printParams proto.PagePrintToPDF
}

// RodOption configures a RodConverter.
type RodOption func(*RodConverter)

// WithChromeBin launches a specific Chrome binary instead of the one go-rod
// finds or downloads.
func WithChromeBin(bin string) RodOption {
	return func(c *RodConverter) {
		c.bin = bin
	}
}

// WithControlURL connects to an already running Chrome instead of launching.
func WithControlURL(u string) RodOption {
	return func(c *RodConverter) {
		c.controlURL = u
	}
}

// WithNoSandbox disables the Chrome sandbox, needed in most containers.
func WithNoSandbox(noSandbox bool) RodOption {
	return func(c *RodConverter) {
		c.noSandbox = noSandbox
	}
}

// NewRodConverter creates a converter. No browser is started until the first
// ToPDF call.
func NewRodConverter(opts ...RodOption) *RodConverter {
	c := &RodConverter{
		printParams: proto.PagePrintToPDF{
			PrintBackground:   true,
			PreferCSSPageSize: true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ToPDF loads html into a fresh page and streams the printed PDF to w.
func (c *RodConverter) ToPDF(ctx context.Context, html []byte, w io.Writer) error {
	browser, err := c.ensureBrowser()
	if err != nil {
		return err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if err := page.SetDocumentContent(string(html)); err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}

	params := c.printParams
	stream, err := page.PDF(&params)
	if err != nil {
		return fmt.Errorf("print pdf: %w", err)
	}
	if _, err := io.Copy(w, stream); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (c *RodConverter) ensureBrowser() (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		if _, err := c.browser.Version(); err == nil {
			return c.browser, nil
		}
		// Stale connection; start over.
		_ = c.browser.Close()
		c.browser = nil
	}

	controlURL := c.controlURL
	if controlURL == "" {
		l := launcher.New().Headless(true).NoSandbox(c.noSandbox)
		if c.bin != "" {
			l = l.Bin(c.bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		c.launcher = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	c.browser = browser
	return browser, nil
}

// Close shuts the browser down and cleans up a launched Chrome.
func (c *RodConverter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.browser != nil {
		err = c.browser.Close()
		c.browser = nil
	}
	if c.launcher != nil {
		c.launcher.Cleanup()
		c.launcher = nil
	}
	return err
}
