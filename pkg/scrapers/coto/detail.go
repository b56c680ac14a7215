package coto

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"coto-hunter/pkg/models"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

type detailResponse struct {
	Contents []detailContent `json:"contents"`
}

type detailContent struct {
	Main []json.RawMessage `json:"Main"`
}

// detailBlock is the first Main block of a product page. The payload does
// not echo the product URL, so the caller's URL is carried alongside.
type detailBlock struct {
	Record skuRecord       `json:"record"`
	JSONLD json.RawMessage `json:"json-ld"`

	url string
}

func (b detailBlock) identity() (string, string, error) {
	attrs := b.Record.Attributes
	id, ok := attrs.first("product.repositoryId")
	if !ok {
		return "", "", missingField("product.repositoryId")
	}
	return id, attrs.firstOr("product.displayName", unknownTitle), nil
}

func (b detailBlock) priceCandidates(Config) []decimal.Decimal {
	return endecaPrices(b.Record.Attributes)
}

func (b detailBlock) imagePath() string {
	return b.Record.Attributes.firstOr("product.mediumImage.url", "")
}

func (b detailBlock) canonicalURL(Config) (string, error) {
	return b.url, nil
}

// structuredData returns the json-ld field, which must be a JSON string.
func (b detailBlock) structuredData() (string, error) {
	var text string
	if len(b.JSONLD) == 0 || string(b.JSONLD) == "null" {
		return "", missingField("json-ld")
	}
	if err := json.Unmarshal(b.JSONLD, &text); err != nil {
		return "", errors.Wrap(err, "json-ld is not text")
	}
	return text, nil
}

func mapDetail(b detailBlock, cfg Config) (*models.ProductDetail, error) {
	item, err := mapListItem(b, cfg)
	if err != nil {
		return nil, err
	}

	description, ok := b.Record.Attributes.first("product.ldescr")
	if !ok {
		return nil, missingField("product.ldescr")
	}
	jsonLD, err := b.structuredData()
	if err != nil {
		return nil, err
	}

	var brand *string
	if v, ok := b.Record.Attributes.first("product.brand"); ok {
		brand = &v
	} else if v, ok := jsonLDBrand(jsonLD); ok {
		brand = &v
	}

	return &models.ProductDetail{
		ID:          item.ID,
		Title:       item.Title,
		Price:       item.Price,
		OldPrice:    item.OldPrice,
		Currency:    item.Currency,
		Image:       item.Image,
		URL:         item.URL,
		Description: description,
		IsAvailable: inStock(jsonLD),
		Brand:       brand,
	}, nil
}

// productURL turns a product URL, site path or bare catalog path into the
// canonical product URL.
func (s *Scraper) productURL(idOrURL string) (*url.URL, error) {
	raw := strings.TrimSpace(idOrURL)
	if raw == "" {
		return nil, errors.New("empty product id or URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse product URL")
	}
	if u.IsAbs() {
		return u, nil
	}

	if strings.HasPrefix(raw, s.cfg.CatalogPath+"/") {
		return url.Parse(s.cfg.BaseURL + raw)
	}
	return url.Parse(s.cfg.catalogPrefix() + "/" + strings.TrimLeft(raw, "/"))
}

func withJSONFormat(u *url.URL) string {
	withFormat := *u
	q := withFormat.Query()
	q.Set("format", "json")
	withFormat.RawQuery = q.Encode()
	return withFormat.String()
}

func mainBlock(body json.RawMessage) (json.RawMessage, error) {
	var resp detailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "decode detail response")
	}
	if len(resp.Contents) == 0 {
		return nil, errors.New("detail response has no contents")
	}
	if len(resp.Contents[0].Main) == 0 {
		return nil, errors.New("detail response has no Main block")
	}
	return resp.Contents[0].Main[0], nil
}

// ProductDetails fetches the product page for idOrURL in JSON form. It
// returns a nil detail whenever no product could be read.
func (s *Scraper) ProductDetails(ctx context.Context, idOrURL string) (detail *models.ProductDetail, err error) {
	defer func() { s.observe(opDetails, err) }()

	canonical, err := s.productURL(idOrURL)
	if err != nil {
		return nil, s.fail(models.KindNotFound, opDetails, err)
	}

	body, err := s.fetcher.FetchJSON(ctx, withJSONFormat(canonical))
	if err != nil {
		return nil, s.transportFailure(opDetails, err)
	}

	raw, err := mainBlock(body)
	if err != nil {
		slog.WarnContext(ctx, "coto returned unexpected detail JSON structure", "url", canonical.String(), "error", err)
		return nil, s.fail(models.KindUpstreamShape, opDetails, err)
	}

	var block detailBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		slog.ErrorContext(ctx, "error parsing coto product detail", "url", canonical.String(), "error", err)
		return nil, s.fail(models.KindNotFound, opDetails, err)
	}
	block.url = canonical.String()

	detail, err = mapDetail(block, s.cfg)
	if err != nil {
		slog.ErrorContext(ctx, "error parsing coto product detail", "url", canonical.String(), "error", err)
		return nil, s.fail(models.KindNotFound, opDetails, err)
	}
	return detail, nil
}
