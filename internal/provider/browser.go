package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"sheetquote/internal/utils"
	"sheetquote/models"
)

// BrowserOptions configures the Chrome instance behind Browser. Timeout
// bounds each page action; zero means 30 seconds.
type BrowserOptions struct {
	Headless bool
	Debug    bool
	Timeout  time.Duration
}

// Browser looks up Yahoo quotes through a headless Chrome session. It is the
// fallback when the plain HTTP client is refused: the browser collects the
// consent cookies itself and issues the quote request from the Yahoo origin.
type Browser struct {
	logger  *utils.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	baseURL string

	mu         sync.Mutex
	crumb      string
	sessionErr error
}

// NewBrowser starts Chrome and checks that it can load a blank page.
func NewBrowser(logger *utils.Logger, opts BrowserOptions) (*Browser, error) {
	logger.Debug("Initializing Chrome")
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.NoSandbox,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("enable-logging", opts.Debug),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Debug))
	cancel := func() {
		ctxCancel()
		allocCancel()
	}

	if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to launch browser: %v", err)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Browser{
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		timeout: opts.Timeout,
		baseURL: yahooBaseURL,
	}, nil
}

// run executes actions in the browser, bounded by the per-request timeout
// and by the caller's context.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.ctx, b.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Check configures the network stack and obtains the session crumb.
func (b *Browser) Check(ctx context.Context) error {
	_, err := b.session(ctx)
	return err
}

func (b *Browser) session(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.crumb != "" || b.sessionErr != nil {
		return b.crumb, b.sessionErr
	}

	b.logger.Debug("Opening Yahoo session in browser")
	var crumb string
	err := b.run(ctx,
		network.Enable(),
		network.SetCacheDisabled(true),
		emulation.SetUserAgentOverride(userAgent),
		chromedp.Navigate(yahooCookieURL),
		chromedp.Navigate(b.baseURL+"/v1/test/getcrumb"),
		chromedp.Text("body", &crumb, chromedp.ByQuery),
	)
	if err != nil {
		b.sessionErr = fmt.Errorf("browser session: %w", err)
		return "", b.sessionErr
	}

	crumb = strings.TrimSpace(crumb)
	if crumb == "" || strings.Contains(crumb, " ") {
		b.sessionErr = fmt.Errorf("browser session: no crumb")
		return "", b.sessionErr
	}
	b.crumb = crumb
	return crumb, nil
}

// Lookup fetches the quote summary of symbol from inside the page.
func (b *Browser) Lookup(ctx context.Context, symbol string) (*models.QuoteRecord, error) {
	crumb, err := b.session(ctx)
	if err != nil {
		return nil, lookupErr(symbol, "%w", err)
	}

	js := fmt.Sprintf(`fetch(%s, {credentials: "include"}).then(r => r.text())`,
		strconv.Quote(quoteSummaryURL(b.baseURL, symbol, crumb)))

	var body string
	err = b.run(ctx, chromedp.Evaluate(js, &body, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		return nil, lookupErr(symbol, "browser fetch: %w", err)
	}
	return decodeQuoteSummary(symbol, []byte(body))
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	if b.cancel == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(b.ctx, 10*time.Second)
	defer cancel()

	err := chromedp.Cancel(ctx)
	b.cancel()
	b.cancel = nil
	return err
}
