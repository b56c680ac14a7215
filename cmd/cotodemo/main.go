package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"coto-hunter/pkg/config"
	"coto-hunter/pkg/fetch"
	"coto-hunter/pkg/logger"
	"coto-hunter/pkg/models"
	"coto-hunter/pkg/scrapers/coto"

	"github.com/go-faster/errors"
	"github.com/samber/lo"
)

func main() {
	cfg := config.Load()

	var (
		keyword  = flag.String("q", "arroz", "keyword to search for")
		category = flag.String("category", "", "category URL to list instead of searching")
		limit    = flag.Int("n", 3, "number of products to print")
		details  = flag.Bool("details", false, "also fetch details for the first product")
		mode     = flag.String("mode", cfg.Fetch.Mode, "fetch mode: http or browser")
		branch   = flag.String("branch", cfg.Coto.BranchID, "Coto branch id")
		timeout  = flag.Duration("timeout", time.Minute, "overall timeout")
		level    = flag.String("log-level", cfg.LogLevel, "log level")
	)
	flag.Parse()

	logger.Setup(os.Stderr, *level, cfg.LogFormat)
	defer logger.FlushDedup()

	fetcher, err := fetch.New(*mode, fetch.Options{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Fetch.Timeout,
	})
	if err != nil {
		exitErr(errors.Wrap(err, "create fetcher"))
	}

	scraper := coto.NewScraper(fetcher, coto.Config{
		BaseURL:       cfg.Coto.BaseURL,
		StaticURL:     cfg.Coto.StaticURL,
		CatalogAPIURL: cfg.Coto.CatalogAPIURL,
		BranchID:      *branch,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var page *models.ProductListPage
	if *category != "" {
		page, err = scraper.CategoryProducts(ctx, *category)
	} else {
		page, err = scraper.Search(ctx, *keyword)
	}
	if err != nil && page == nil {
		exitErr(err)
	}
	if err != nil {
		slog.Warn("listing came back empty", "kind", models.KindOf(err), "error", err)
	}

	fmt.Printf("%d products for %q\n", len(page.Products), page.Query)
	for _, p := range lo.Slice(page.Products, 0, *limit) {
		printItem(p)
	}

	if !*details || len(page.Products) == 0 {
		return
	}

	detail, err := scraper.ProductDetails(ctx, page.Products[0].URL)
	if err != nil {
		exitErr(errors.Wrap(err, "product details"))
	}
	fmt.Println()
	printItem(models.ProductListItem{
		ID:       detail.ID,
		Title:    detail.Title,
		Price:    detail.Price,
		OldPrice: detail.OldPrice,
		Currency: detail.Currency,
		Image:    detail.Image,
		URL:      detail.URL,
	})
	fmt.Printf("  available: %t\n", detail.IsAvailable)
	if detail.Brand != nil {
		fmt.Printf("  brand: %s\n", *detail.Brand)
	}
	fmt.Printf("  %s\n", detail.Description)
}

func printItem(p models.ProductListItem) {
	price := p.Price.StringFixed(2)
	if p.OldPrice != nil {
		price += " (was " + p.OldPrice.StringFixed(2) + ")"
	}
	fmt.Printf("- [%s] %s: %s %s\n  %s\n", p.ID, p.Title, price, p.Currency, p.URL)
	if p.Image != nil {
		fmt.Printf("  %s\n", *p.Image)
	}
}

func exitErr(err error) {
	logger.FlushDedup()
	slog.Error("cotodemo failed", "error", err)
	os.Exit(1)
}
