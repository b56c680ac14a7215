package coto

import (
	"strings"

	"coto-hunter/pkg/models"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const unknownTitle = "Unknown Product"

// listingSource is what one endpoint's raw record has to provide for the
// shared mapping pipeline. Each endpoint keeps its own field names and
// quirks behind these methods.
type listingSource interface {
	identity() (id, title string, err error)
	priceCandidates(cfg Config) []decimal.Decimal
	imagePath() string
	canonicalURL(cfg Config) (string, error)
}

func missingField(name string) error {
	return errors.Errorf("missing %s", name)
}

func mapListItem(src listingSource, cfg Config) (models.ProductListItem, error) {
	id, title, err := src.identity()
	if err != nil {
		return models.ProductListItem{}, err
	}
	productURL, err := src.canonicalURL(cfg)
	if err != nil {
		return models.ProductListItem{}, err
	}

	price, oldPrice := models.ResolvePrice(src.priceCandidates(cfg)...)

	return models.ProductListItem{
		ID:       id,
		Title:    title,
		Price:    price,
		OldPrice: oldPrice,
		Currency: models.Currency,
		Image:    absoluteImage(cfg.StaticURL, src.imagePath()),
		URL:      productURL,
	}, nil
}

// absoluteImage prefixes relative image paths with the static-asset origin.
func absoluteImage(staticURL, path string) *string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "http") {
		return &path
	}
	if strings.HasPrefix(path, "//") {
		abs := "https:" + path
		return &abs
	}
	abs := staticURL + "/" + strings.TrimLeft(path, "/")
	return &abs
}

// endecaPrices reads the active price and the optional discount from an
// Endeca attribute map, as used by both the search and detail payloads.
func endecaPrices(attrs attributes) []decimal.Decimal {
	var candidates []decimal.Decimal
	if raw, ok := attrs.first("sku.activePrice"); ok {
		if d, ok := parseAmount(raw); ok {
			candidates = append(candidates, d)
		}
	}
	if raw, ok := attrs.first("product.dtoDescuentos"); ok {
		if d, ok := discountPrice(raw); ok {
			candidates = append(candidates, d)
		}
	}
	return candidates
}
