package fetch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/go-faster/errors"
)

// BrowserClient loads the JSON endpoint in headless Chrome and reads the
// rendered body text. It is slower than Client but gets past front doors that
// reject non-browser clients.
type BrowserClient struct {
	opts Options
}

func NewBrowserClient(opts Options) *BrowserClient {
	return &BrowserClient{opts: opts.withDefaults()}
}

func (b *BrowserClient) FetchJSON(ctx context.Context, rawURL string) (json.RawMessage, error) {
	target, err := resolve(b.opts.BaseURL, rawURL)
	if err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(b.opts.UserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	runCtx, cancelRun := context.WithTimeout(browserCtx, b.opts.Timeout)
	defer cancelRun()

	var text string

	slog.DebugContext(ctx, "fetching in browser", "url", target)
	err = chromedp.Run(runCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept":          b.opts.Accept,
			"Accept-Language": b.opts.AcceptLanguage,
		}),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text),
	)
	if err != nil {
		slog.ErrorContext(ctx, "browser fetch failed", "url", target, "error", err)
		return nil, errors.Wrapf(err, "browser GET %s", target)
	}

	return decodeBody(target, []byte(text))
}
