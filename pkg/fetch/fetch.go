// Package fetch performs the single outbound GET behind every retailer
// operation and hands back the JSON body.
package fetch

import (
	"context"
	"encoding/json"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAccept         = "text/html,application/json,application/xhtml+xml"
	DefaultAcceptLanguage = "en-US,en;q=0.9,es;q=0.8"
	DefaultTimeout        = 20 * time.Second
)

// ErrNotJSON is returned when the upstream answered 2xx with a body that is
// not a JSON document.
var ErrNotJSON = errors.New("response body is not JSON")

// Fetcher performs a GET and returns the raw JSON body.
type Fetcher interface {
	FetchJSON(ctx context.Context, rawURL string) (json.RawMessage, error)
}

// Options is the fixed request configuration shared by every call a client
// makes. It is copied on construction and never mutated afterwards.
type Options struct {
	BaseURL        string
	UserAgent      string
	Accept         string
	AcceptLanguage string
	Timeout        time.Duration
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Accept == "" {
		o.Accept = DefaultAccept
	}
	if o.AcceptLanguage == "" {
		o.AcceptLanguage = DefaultAcceptLanguage
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	o.BaseURL = strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	return o
}

// resolve turns a path into an absolute URL against base. Absolute URLs are
// returned untouched.
func resolve(base, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, "parse URL")
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if base == "" {
		return "", errors.Errorf("relative URL %q without base URL", raw)
	}
	b, err := url.Parse(base + "/")
	if err != nil {
		return "", errors.Wrap(err, "parse base URL")
	}
	return b.ResolveReference(u).String(), nil
}

func decodeBody(rawURL string, body []byte) (json.RawMessage, error) {
	if !json.Valid(body) {
		return nil, errors.Wrapf(ErrNotJSON, "GET %s", rawURL)
	}
	return json.RawMessage(body), nil
}

// IsTimeout reports whether err was caused by the request deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "Client.Timeout")
}

const (
	ModeHTTP    = "http"
	ModeBrowser = "browser"
)

// New returns the Fetcher for mode. An empty mode means ModeHTTP.
func New(mode string, opts Options) (Fetcher, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeHTTP:
		return NewClient(opts), nil
	case ModeBrowser:
		return NewBrowserClient(opts), nil
	default:
		return nil, errors.Errorf("unknown fetch mode %q (available: %s, %s)", mode, ModeHTTP, ModeBrowser)
	}
}
