package coto

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"coto-hunter/pkg/models"

	"github.com/go-faster/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type categoryResponse struct {
	Results []json.RawMessage `json:"results"`
}

// categoryRecord is one product from the catalog API. It is flatter than the
// search record: the image is already absolute, prices come per store, and
// the product page path has to be rebuilt from the description. Only id and
// url are required, so the price lists stay raw and are read leniently.
type categoryRecord struct {
	ID          flexString      `json:"id"`
	URL         flexString      `json:"url"`
	Description flexString      `json:"description"`
	Image       flexString      `json:"image"`
	Discounts   json.RawMessage `json:"discounts"`
	Prices      json.RawMessage `json:"prices"`
}

type categoryDiscount struct {
	DiscountPrice flexString `json:"discountPrice"`
}

type storePrice struct {
	Store     flexString `json:"store"`
	ListPrice flexString `json:"listPrice"`
}

func (r categoryRecord) identity() (string, string, error) {
	id := strings.TrimSpace(string(r.ID))
	if id == "" {
		return "", "", missingField("id")
	}
	title := strings.TrimSpace(string(r.Description))
	if title == "" {
		title = unknownTitle
	}
	return id, title, nil
}

// rawElements splits a JSON array into its elements. Anything that is not
// an array has no elements.
func rawElements(raw json.RawMessage) []json.RawMessage {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	return elems
}

func (r categoryRecord) discountPrice() (decimal.Decimal, bool) {
	elems := rawElements(r.Discounts)
	if len(elems) == 0 {
		return decimal.Zero, false
	}
	var d categoryDiscount
	if err := json.Unmarshal(elems[0], &d); err != nil {
		return decimal.Zero, false
	}
	return parseDisplayAmount(string(d.DiscountPrice))
}

func (r categoryRecord) storePrices() []storePrice {
	return lo.FilterMap(rawElements(r.Prices), func(raw json.RawMessage, _ int) (storePrice, bool) {
		var p storePrice
		if err := json.Unmarshal(raw, &p); err != nil {
			return storePrice{}, false
		}
		return p, true
	})
}

func (r categoryRecord) priceCandidates(cfg Config) []decimal.Decimal {
	var candidates []decimal.Decimal
	if d, ok := r.discountPrice(); ok {
		candidates = append(candidates, d)
	}
	branch, ok := lo.Find(r.storePrices(), func(p storePrice) bool {
		return strings.TrimSpace(string(p.Store)) == cfg.BranchID
	})
	if ok {
		if d, ok := parseAmount(string(branch.ListPrice)); ok {
			candidates = append(candidates, d)
		}
	}
	return candidates
}

func (r categoryRecord) imagePath() string {
	return string(r.Image)
}

func (r categoryRecord) canonicalURL(cfg Config) (string, error) {
	fragment := strings.Trim(strings.TrimSpace(string(r.URL)), "/")
	if fragment == "" {
		return "", missingField("url")
	}
	if slug := slugify(string(r.Description)); slug != "" {
		return cfg.catalogPrefix() + "/" + slug + "/" + fragment, nil
	}
	return cfg.catalogPrefix() + "/" + fragment, nil
}

// slugify lower-cases name and turns spaces into hyphens. Casers keep state,
// so each call gets its own.
func slugify(name string) string {
	lower := cases.Lower(language.Spanish).String(strings.TrimSpace(name))
	return strings.ReplaceAll(lower, " ", "-")
}

// categoryID returns the last path segment of a category URL, ignoring any
// query string or fragment.
func categoryID(categoryURL string) (string, error) {
	raw := strings.TrimSpace(categoryURL)
	if raw == "" {
		return "", errors.New("empty category URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, "parse category URL")
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	id := segments[len(segments)-1]
	if id == "" {
		return "", errors.Errorf("no category id in %q", categoryURL)
	}
	return id, nil
}

func (s *Scraper) categoryURL(id string) string {
	params := url.Values{}
	params.Set("idCategoria", id)
	params.Set("idSucursal", s.cfg.BranchID)
	return s.cfg.CatalogAPIURL + "?" + params.Encode()
}

func categoryRecords(body json.RawMessage) ([]json.RawMessage, error) {
	var resp categoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "decode category response")
	}
	if resp.Results == nil {
		return nil, errors.New("category response has no results")
	}
	return resp.Results, nil
}

func (s *Scraper) mapCategoryRecord(raw json.RawMessage) (models.ProductListItem, error) {
	var rec categoryRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.ProductListItem{}, errors.Wrap(err, "decode category record")
	}
	return mapListItem(rec, s.cfg)
}

// CategoryProducts lists the products of the category that categoryURL
// points at, restricted to what the configured branch carries.
func (s *Scraper) CategoryProducts(ctx context.Context, categoryURL string) (page *models.ProductListPage, err error) {
	defer func() { s.observe(opCategory, err) }()

	id, err := categoryID(categoryURL)
	if err != nil {
		return nil, s.fail(models.KindNotFound, opCategory, err)
	}

	body, err := s.fetcher.FetchJSON(ctx, s.categoryURL(id))
	if err != nil {
		err = s.transportFailure(opCategory, err)
		if models.KindOf(err) == models.KindUpstreamShape {
			slog.WarnContext(ctx, "coto returned a non-JSON category response", "category", id, "error", err)
			return models.NewProductListPage(categoryURL, nil), err
		}
		return nil, err
	}

	records, err := categoryRecords(body)
	if err != nil {
		slog.WarnContext(ctx, "coto returned unexpected category JSON structure", "category", id, "error", err)
		return models.NewProductListPage(categoryURL, nil), s.fail(models.KindUpstreamShape, opCategory, err)
	}

	items := lo.FilterMap(records, func(raw json.RawMessage, _ int) (models.ProductListItem, bool) {
		item, err := s.mapCategoryRecord(raw)
		if err != nil {
			s.drop(opCategory, err)
			return models.ProductListItem{}, false
		}
		return item, true
	})

	slog.DebugContext(ctx, "coto category mapped", "category", id, "records", len(records), "items", len(items))
	return models.NewProductListPage(categoryURL, items), nil
}
