// Package coto reads Coto Digital's internal JSON endpoints (keyword search,
// category catalog, product detail) and maps them onto the shared models.
package coto

import (
	"net/http"
	"net/url"
	"strings"

	"coto-hunter/pkg/fetch"
	"coto-hunter/pkg/logger"
	"coto-hunter/pkg/metrics"
	"coto-hunter/pkg/models"
	"coto-hunter/pkg/scrapers"

	"github.com/go-faster/errors"
)

const (
	Source = "coto"

	DefaultBaseURL       = "https://www.cotodigital.com.ar"
	DefaultStaticURL     = "https://static.cotodigital3.com.ar"
	DefaultCatalogPath   = "/sitios/cdigi/productos"
	DefaultSearchPath    = "/sitios/cdigi/categoria"
	DefaultCatalogAPIURL = "https://www.cotodigital.com.ar/sitios/cdigi/api/catalogo/productos"
	DefaultBranchID      = "200"

	opSearch   = "search"
	opCategory = "category"
	opDetails  = "details"
)

// Config holds everything that is fixed for the lifetime of a Scraper.
type Config struct {
	BaseURL       string
	StaticURL     string
	CatalogPath   string
	SearchPath    string
	CatalogAPIURL string
	BranchID      string
}

func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		StaticURL:     DefaultStaticURL,
		CatalogPath:   DefaultCatalogPath,
		SearchPath:    DefaultSearchPath,
		CatalogAPIURL: DefaultCatalogAPIURL,
		BranchID:      DefaultBranchID,
	}
}

// withDefaults fills every empty field from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = d.BaseURL
	}
	if strings.TrimSpace(c.StaticURL) == "" {
		c.StaticURL = d.StaticURL
	}
	if strings.TrimSpace(c.CatalogPath) == "" {
		c.CatalogPath = d.CatalogPath
	}
	if strings.TrimSpace(c.SearchPath) == "" {
		c.SearchPath = d.SearchPath
	}
	if strings.TrimSpace(c.CatalogAPIURL) == "" {
		c.CatalogAPIURL = d.CatalogAPIURL
	}
	if strings.TrimSpace(c.BranchID) == "" {
		c.BranchID = d.BranchID
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	c.StaticURL = strings.TrimRight(c.StaticURL, "/")
	c.CatalogPath = "/" + strings.Trim(c.CatalogPath, "/")
	c.SearchPath = "/" + strings.Trim(c.SearchPath, "/")
	return c
}

func (c Config) catalogPrefix() string {
	return c.BaseURL + c.CatalogPath
}

var _ scrapers.Retailer = (*Scraper)(nil)

// Scraper is the Coto retailer adapter. It holds no per-call state and is
// safe for concurrent use as long as its Fetcher is.
type Scraper struct {
	cfg     Config
	fetcher fetch.Fetcher
}

func NewScraper(f fetch.Fetcher, cfg Config) *Scraper {
	return &Scraper{
		cfg:     cfg.withDefaults(),
		fetcher: f,
	}
}

func (s *Scraper) Config() Config {
	return s.cfg
}

func (s *Scraper) searchURL(keyword string) string {
	params := url.Values{}
	params.Set("_dyncharset", "utf-8")
	params.Set("Dy", "1")
	params.Set("Ntt", keyword)
	params.Set("idSucursal", s.cfg.BranchID)
	params.Set("format", "json")
	return s.cfg.BaseURL + s.cfg.SearchPath + "?" + params.Encode()
}

func (s *Scraper) fail(kind models.FailureKind, op string, cause error) error {
	return models.Fail(kind, Source, op, cause)
}

// transportFailure classifies an error coming out of the Fetcher. A body
// that is not JSON means the upstream answered with something else, which
// is a shape problem rather than a transport one. 404 and 410 mean the
// product or category is gone.
func (s *Scraper) transportFailure(op string, err error) error {
	if errors.Is(err, fetch.ErrNotJSON) {
		return s.fail(models.KindUpstreamShape, op, err)
	}
	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusNotFound, http.StatusGone:
			return s.fail(models.KindNotFound, op, err)
		}
	}
	return s.fail(models.KindTransport, op, err)
}

func (s *Scraper) observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = models.KindOf(err).String()
	}
	metrics.Fetches.WithLabelValues(Source, op, outcome).Inc()
}

func (s *Scraper) drop(op string, err error) {
	metrics.DroppedRecords.WithLabelValues(Source, op).Inc()
	logger.Dedup("coto: dropping unmappable %s record: %v", op, err)
}
