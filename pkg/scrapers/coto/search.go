package coto

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"coto-hunter/pkg/models"

	"github.com/go-faster/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const mainSlotType = "Main_Slot"

type searchResponse struct {
	Contents []searchContent `json:"contents"`
}

type searchContent struct {
	Main []json.RawMessage `json:"Main"`
}

type searchSlot struct {
	Type     string        `json:"@type"`
	Contents []searchBlock `json:"contents"`
}

type searchBlock struct {
	Records []json.RawMessage `json:"records"`
}

// searchRecord is one product in the search payload. Identity and the
// detail path live on the outer record; prices and images are read from the
// first nested record, which carries the SKU-level copy of the attributes.
// Nested records stay raw so a malformed one only costs the optional fields.
type searchRecord struct {
	Attributes    attributes        `json:"attributes"`
	Records       []json.RawMessage `json:"records"`
	DetailsAction detailsAction     `json:"detailsAction"`
}

type skuRecord struct {
	Attributes attributes `json:"attributes"`
}

type detailsAction struct {
	RecordState string `json:"recordState"`
}

func (r searchRecord) sku() attributes {
	if len(r.Records) == 0 {
		return attributes{}
	}
	var rec skuRecord
	if err := json.Unmarshal(r.Records[0], &rec); err != nil || rec.Attributes == nil {
		return attributes{}
	}
	return rec.Attributes
}

func (r searchRecord) identity() (string, string, error) {
	id, ok := r.Attributes.first("product.repositoryId")
	if !ok {
		return "", "", missingField("product.repositoryId")
	}
	return id, r.Attributes.firstOr("product.displayName", unknownTitle), nil
}

func (r searchRecord) priceCandidates(Config) []decimal.Decimal {
	return endecaPrices(r.sku())
}

func (r searchRecord) imagePath() string {
	return r.sku().firstOr("product.mediumImage.url", "")
}

func (r searchRecord) canonicalURL(cfg Config) (string, error) {
	state := strings.TrimSpace(r.DetailsAction.RecordState)
	if state == "" {
		return "", missingField("detailsAction.recordState")
	}
	path, _, _ := strings.Cut(state, "?")
	return cfg.catalogPrefix() + path, nil
}

// mainSlotRecords validates the search payload and returns the record list
// of the main content slot. found is false when the payload is well formed
// but has no main slot, which is how the endpoint reports "no matches".
func mainSlotRecords(body json.RawMessage) (records []json.RawMessage, found bool, err error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false, errors.Wrap(err, "decode search response")
	}
	if len(resp.Contents) == 0 {
		return nil, false, errors.New("search response has no contents")
	}
	if resp.Contents[0].Main == nil {
		return nil, false, errors.New("search response has no Main section")
	}

	slots := lo.FilterMap(resp.Contents[0].Main, func(raw json.RawMessage, _ int) (searchSlot, bool) {
		var slot searchSlot
		if err := json.Unmarshal(raw, &slot); err != nil {
			return searchSlot{}, false
		}
		return slot, true
	})

	slot, ok := lo.Find(slots, func(s searchSlot) bool {
		return s.Type == mainSlotType
	})
	if !ok || len(slot.Contents) == 0 {
		return nil, false, nil
	}
	return slot.Contents[0].Records, true, nil
}

func (s *Scraper) mapSearchRecord(raw json.RawMessage) (models.ProductListItem, error) {
	var rec searchRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.ProductListItem{}, errors.Wrap(err, "decode search record")
	}
	return mapListItem(rec, s.cfg)
}

// Search runs a keyword search against the branch configured for s.
func (s *Scraper) Search(ctx context.Context, keyword string) (page *models.ProductListPage, err error) {
	defer func() { s.observe(opSearch, err) }()

	body, err := s.fetcher.FetchJSON(ctx, s.searchURL(keyword))
	if err != nil {
		err = s.transportFailure(opSearch, err)
		if models.KindOf(err) == models.KindUpstreamShape {
			slog.WarnContext(ctx, "coto returned a non-JSON search response", "keyword", keyword, "error", err)
			return models.NewProductListPage(keyword, nil), err
		}
		return nil, err
	}

	records, found, err := mainSlotRecords(body)
	if err != nil {
		slog.WarnContext(ctx, "coto returned unexpected JSON structure", "keyword", keyword, "error", err)
		return models.NewProductListPage(keyword, nil), s.fail(models.KindUpstreamShape, opSearch, err)
	}
	if !found {
		slog.InfoContext(ctx, "no results found on coto", "keyword", keyword)
		return models.NewProductListPage(keyword, nil), nil
	}

	items := lo.FilterMap(records, func(raw json.RawMessage, _ int) (models.ProductListItem, bool) {
		item, err := s.mapSearchRecord(raw)
		if err != nil {
			s.drop(opSearch, err)
			return models.ProductListItem{}, false
		}
		return item, true
	})

	slog.DebugContext(ctx, "coto search mapped", "keyword", keyword, "records", len(records), "items", len(items))
	return models.NewProductListPage(keyword, items), nil
}
