package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"coto-hunter/pkg/api"
	"coto-hunter/pkg/config"
	"coto-hunter/pkg/fetch"
	"coto-hunter/pkg/logger"
	"coto-hunter/pkg/metrics"
	"coto-hunter/pkg/models"
	"coto-hunter/pkg/scrapers"
	"coto-hunter/pkg/scrapers/coto"

	scalargo "github.com/bdpiprava/scalar-go"
	"github.com/prometheus/client_golang/prometheus"
)

const maxConcurrentScrapes = 3

type server struct {
	stores  scrapers.Registry
	metrics http.Handler
	// bounds the upstream calls in flight across all requests
	semaphore chan struct{}
}

func newServer(stores scrapers.Registry, metricsHandler http.Handler) *server {
	return &server{
		stores:    stores,
		metrics:   metricsHandler,
		semaphore: make(chan struct{}, maxConcurrentScrapes),
	}
}

func main() {
	cfg := config.Load()
	logger.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	fetcher, err := fetch.New(cfg.Fetch.Mode, fetch.Options{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Fetch.Timeout,
	})
	if err != nil {
		slog.Error("failed to initialize fetcher", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	stores := scrapers.Registry{
		coto.Source: coto.NewScraper(fetcher, coto.Config{
			BaseURL:       cfg.Coto.BaseURL,
			StaticURL:     cfg.Coto.StaticURL,
			CatalogAPIURL: cfg.Coto.CatalogAPIURL,
			BranchID:      cfg.Coto.BranchID,
		}),
	}
	srv := newServer(stores, metrics.Handler(reg))

	if ip := outboundIP(); ip != nil {
		slog.Info("local network URL", "url", fmt.Sprintf("http://%s:%s", ip, cfg.Port))
	} else {
		slog.Warn("could not determine local IP address")
	}
	slog.Info("listening", "url", "http://localhost:"+cfg.Port, "fetch_mode", cfg.Fetch.Mode, "stores", stores.Names())

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           withRequestID(srv),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	err = server.ListenAndServe()
	logger.FlushDedup()
	slog.Error("server stopped", "error", err)
	os.Exit(1)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/metrics":
		s.metrics.ServeHTTP(w, r)
	case r.URL.Path == "/stores" || r.URL.Path == "/stores/":
		api.WriteJSON(w, http.StatusOK, s.stores.Names())
	case strings.HasPrefix(r.URL.Path, "/stores/"):
		s.storeHandler(w, r)
	case r.URL.Path == "/":
		docsHandler(w, r)
	default:
		api.WriteNotFound(w, "No route for "+r.URL.Path, r.URL.Path)
	}
}

func docsHandler(w http.ResponseWriter, _ *http.Request) {
	html, err := scalargo.NewV2(
		scalargo.WithSpecDir("./"),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle("Coto Hunter API"),
		),
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

func outboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		addrs, _ := net.InterfaceAddrs()
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				return ipnet.IP
			}
		}
		return nil
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP
}

func (s *server) storeHandler(w http.ResponseWriter, r *http.Request) {
	// Path expected: /stores/{store}/{search|categories|products}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		api.WriteBadRequest(w, "Invalid path. Expected /stores/{store}/search, /stores/{store}/categories or /stores/{store}/products", r.URL.Path)
		return
	}

	retailer, ok := s.stores.Get(parts[1])
	if !ok {
		api.WriteBadRequest(w, "Store not supported. Available: "+strings.Join(s.stores.Names(), ", "), r.URL.Path)
		return
	}

	if r.Method != http.MethodGet {
		api.WriteMethodNotAllowed(w, http.MethodGet, r.URL.Path)
		return
	}

	q := r.URL.Query()
	switch resource := parts[2]; resource {
	case "search":
		keyword := strings.TrimSpace(q.Get("q"))
		if keyword == "" {
			api.WriteBadRequest(w, "Missing query parameter q", r.URL.Path)
			return
		}
		s.handleList(w, r, func(ctx context.Context) (*models.ProductListPage, error) {
			return retailer.Search(ctx, keyword)
		})
	case "categories":
		categoryURL := strings.TrimSpace(q.Get("url"))
		if categoryURL == "" {
			api.WriteBadRequest(w, "Missing query parameter url", r.URL.Path)
			return
		}
		s.handleList(w, r, func(ctx context.Context) (*models.ProductListPage, error) {
			return retailer.CategoryProducts(ctx, categoryURL)
		})
	case "products":
		idOrURL := strings.TrimSpace(q.Get("url"))
		if idOrURL == "" {
			idOrURL = strings.TrimSpace(q.Get("id"))
		}
		if idOrURL == "" {
			api.WriteBadRequest(w, "Missing query parameter url", r.URL.Path)
			return
		}
		s.handleDetails(w, r, retailer, idOrURL)
	default:
		api.WriteBadRequest(w, fmt.Sprintf("Unknown resource %q. Expected search, categories or products", resource), r.URL.Path)
	}
}

func (s *server) acquire(ctx context.Context) error {
	select {
	case s.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *server) release() { <-s.semaphore }

func (s *server) handleList(w http.ResponseWriter, r *http.Request, list func(context.Context) (*models.ProductListPage, error)) {
	ctx := r.Context()
	if err := s.acquire(ctx); err != nil {
		api.WriteError(w, http.StatusServiceUnavailable, "Service Unavailable", "Request cancelled while waiting for a scraper slot", r.URL.Path)
		return
	}
	page, err := list(ctx)
	s.release()

	if err != nil {
		// A page alongside the error means the upstream answered with
		// something unexpected; clients still get a well-formed empty list.
		if page != nil && models.KindOf(err) == models.KindUpstreamShape {
			slog.WarnContext(ctx, "serving empty page after upstream shape mismatch", "request_id", requestID(ctx), "path", r.URL.Path, "error", err)
			api.WriteJSON(w, http.StatusOK, page)
			return
		}
		slog.ErrorContext(ctx, "error listing products", "request_id", requestID(ctx), "path", r.URL.Path, "error", err)
		api.WriteRetailerError(w, err, r.URL.Path)
		return
	}

	api.WriteJSON(w, http.StatusOK, page)
}

func (s *server) handleDetails(w http.ResponseWriter, r *http.Request, retailer scrapers.Retailer, idOrURL string) {
	ctx := r.Context()
	if err := s.acquire(ctx); err != nil {
		api.WriteError(w, http.StatusServiceUnavailable, "Service Unavailable", "Request cancelled while waiting for a scraper slot", r.URL.Path)
		return
	}
	detail, err := retailer.ProductDetails(ctx, idOrURL)
	s.release()

	if err != nil {
		slog.ErrorContext(ctx, "error fetching product details", "request_id", requestID(ctx), "product", idOrURL, "error", err)
		api.WriteRetailerError(w, err, r.URL.Path)
		return
	}

	api.WriteJSON(w, http.StatusOK, detail)
}
