package fetch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-faster/errors"
	"github.com/gocolly/colly/v2"
)

// Client fetches JSON through a colly collector. Each call works on a clone
// of the configured collector, so callbacks never leak between calls and a
// single Client can be shared by concurrent callers.
type Client struct {
	opts      Options
	collector *colly.Collector
}

func NewClient(opts Options) *Client {
	opts = opts.withDefaults()

	c := colly.NewCollector(
		colly.UserAgent(opts.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(opts.Timeout)

	return &Client{
		opts:      opts,
		collector: c,
	}
}

func (c *Client) FetchJSON(ctx context.Context, rawURL string) (json.RawMessage, error) {
	target, err := resolve(c.opts.BaseURL, rawURL)
	if err != nil {
		return nil, err
	}

	col := c.collector.Clone()
	col.Context = ctx

	var (
		body      []byte
		statusErr *StatusError
	)

	col.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", c.opts.Accept)
		r.Headers.Set("Accept-Language", c.opts.AcceptLanguage)
	})
	col.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	col.OnError(func(r *colly.Response, _ error) {
		if r != nil && r.StatusCode != 0 {
			statusErr = &StatusError{
				URL:        target,
				StatusCode: r.StatusCode,
				Body:       truncateBody(r.Body),
			}
		}
	})

	slog.DebugContext(ctx, "fetching", "url", target)
	if err := col.Visit(target); err != nil {
		if statusErr != nil {
			slog.ErrorContext(ctx, "upstream returned error status", "url", target, "status", statusErr.StatusCode)
			return nil, statusErr
		}
		slog.ErrorContext(ctx, "failed to GET", "url", target, "error", err)
		return nil, errors.Wrapf(err, "GET %s", target)
	}

	return decodeBody(target, body)
}
