package coto

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coto-hunter/pkg/fetch"
	"coto-hunter/pkg/models"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScraper(t *testing.T, handler http.HandlerFunc) *Scraper {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return NewScraper(fetch.NewClient(fetch.Options{}), Config{
		BaseURL:       ts.URL,
		CatalogAPIURL: ts.URL + "/api/catalogo/productos",
	})
}

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

func searchPayload(records ...string) string {
	return `{"contents":[{"Main":[
		{"@type":"Breadcrumbs","contents":[]},
		{"@type":"Main_Slot","contents":[{"records":[` + strings.Join(records, ",") + `]}]}
	]}]}`
}

const riceRecord = `{
	"attributes": {"product.repositoryId": ["123"], "product.displayName": ["Rice 1kg"]},
	"records": [{"attributes": {"sku.activePrice": ["500"], "product.mediumImage.url": ["img/rice.jpg"]}}],
	"detailsAction": {"recordState": "/rice-1kg/_/R-123-123-200?Dy=1&idSucursal=200"}
}`

func assertPrice(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "expected price %s, got %s", want, got)
}

func TestSearch_MapsMainSlotRecords(t *testing.T) {
	var captured *http.Request
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		serveJSON(searchPayload(riceRecord))(w, r)
	})

	page, err := s.Search(context.Background(), "arroz integral")
	require.NoError(t, err)
	require.NotNil(t, page)

	require.NotNil(t, captured)
	assert.Equal(t, DefaultSearchPath, captured.URL.Path)
	q := captured.URL.Query()
	assert.Equal(t, "arroz integral", q.Get("Ntt"))
	assert.Equal(t, DefaultBranchID, q.Get("idSucursal"))
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "utf-8", q.Get("_dyncharset"))

	assert.Equal(t, "arroz integral", page.Query)
	require.Len(t, page.Products, 1)

	item := page.Products[0]
	assert.Equal(t, "123", item.ID)
	assert.Equal(t, "Rice 1kg", item.Title)
	assertPrice(t, "500", item.Price)
	assert.Nil(t, item.OldPrice)
	assert.Equal(t, "ARS", item.Currency)
	require.NotNil(t, item.Image)
	assert.Equal(t, "https://static.cotodigital3.com.ar/img/rice.jpg", *item.Image)
	assert.Equal(t, s.Config().BaseURL+"/sitios/cdigi/productos/rice-1kg/_/R-123-123-200", item.URL)
}

func TestSearch_DropsRecordsMissingRequiredFields(t *testing.T) {
	missingID := `{
		"attributes": {"product.displayName": ["No id"]},
		"records": [{"attributes": {"sku.activePrice": ["10"]}}],
		"detailsAction": {"recordState": "/no-id/_/R-1"}
	}`
	missingPath := `{
		"attributes": {"product.repositoryId": ["456"], "product.displayName": ["No path"]},
		"records": [{"attributes": {"sku.activePrice": ["10"]}}]
	}`
	notAnObject := `"garbage"`

	s := newTestScraper(t, serveJSON(searchPayload(missingID, riceRecord, missingPath, notAnObject)))

	page, err := s.Search(context.Background(), "arroz")
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "123", page.Products[0].ID)
}

func TestSearch_DiscountBecomesPriceAndActivePriceOldPrice(t *testing.T) {
	record := `{
		"attributes": {"product.repositoryId": ["777"], "product.displayName": ["Yerba 1kg"]},
		"records": [{"attributes": {
			"sku.activePrice": ["2899.00"],
			"product.dtoDescuentos": ["[{\"precioDescuento\":\"$2.174,25\",\"textoDescuento\":\"25% Dto\"}]"],
			"product.mediumImage.url": ["https://static.cotodigital3.com.ar/sitios/fotos/medium/777.jpg"]
		}}],
		"detailsAction": {"recordState": "/yerba/_/R-777"}
	}`
	s := newTestScraper(t, serveJSON(searchPayload(record)))

	page, err := s.Search(context.Background(), "yerba")
	require.NoError(t, err)
	require.Len(t, page.Products, 1)

	item := page.Products[0]
	assertPrice(t, "2174.25", item.Price)
	require.NotNil(t, item.OldPrice)
	assertPrice(t, "2899", *item.OldPrice)
	require.NotNil(t, item.Image)
	assert.Equal(t, "https://static.cotodigital3.com.ar/sitios/fotos/medium/777.jpg", *item.Image)
}

func TestSearch_MalformedDiscountMeansNoOldPrice(t *testing.T) {
	record := `{
		"attributes": {"product.repositoryId": ["9"], "product.displayName": ["Fideos"]},
		"records": [{"attributes": {"sku.activePrice": [350], "product.dtoDescuentos": ["not json"]}}],
		"detailsAction": {"recordState": "/fideos/_/R-9"}
	}`
	s := newTestScraper(t, serveJSON(searchPayload(record)))

	page, err := s.Search(context.Background(), "fideos")
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assertPrice(t, "350", page.Products[0].Price)
	assert.Nil(t, page.Products[0].OldPrice)
	assert.Nil(t, page.Products[0].Image)
}

func TestSearch_MalformedSkuRecordKeepsProduct(t *testing.T) {
	badAttributes := `{
		"attributes": {"product.repositoryId": ["10"], "product.displayName": ["Harina"]},
		"records": [{"attributes": "oops"}],
		"detailsAction": {"recordState": "/harina/_/R-10"}
	}`
	trailingJunk := `{
		"attributes": {"product.repositoryId": ["11"]},
		"records": [{"attributes": {"sku.activePrice": ["75"]}}, "x"],
		"detailsAction": {"recordState": "/azucar/_/R-11"}
	}`
	scalarRecord := `{
		"attributes": {"product.repositoryId": ["12"]},
		"records": ["x"],
		"detailsAction": {"recordState": "/sal/_/R-12"}
	}`
	s := newTestScraper(t, serveJSON(searchPayload(riceRecord, badAttributes, trailingJunk, scalarRecord)))

	page, err := s.Search(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, page.Products, 4)

	assert.Equal(t, "10", page.Products[1].ID)
	assert.Equal(t, "Harina", page.Products[1].Title)
	assert.True(t, page.Products[1].Price.IsZero())
	assert.Nil(t, page.Products[1].Image)

	assert.Equal(t, "11", page.Products[2].ID)
	assertPrice(t, "75", page.Products[2].Price)

	assert.Equal(t, "12", page.Products[3].ID)
	assert.True(t, page.Products[3].Price.IsZero())
}

func TestSearch_MissingActivePriceIsZero(t *testing.T) {
	record := `{
		"attributes": {"product.repositoryId": ["1"]},
		"detailsAction": {"recordState": "/x/_/R-1"}
	}`
	s := newTestScraper(t, serveJSON(searchPayload(record)))

	page, err := s.Search(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.True(t, page.Products[0].Price.IsZero())
	assert.Equal(t, unknownTitle, page.Products[0].Title)
}

func TestSearch_EveryImageIsAbsolute(t *testing.T) {
	records := []string{riceRecord}
	for i, img := range []string{"/leading/slash.jpg", "http://cdn.example/a.jpg", "//cdn.example/b.jpg", "plain.png"} {
		records = append(records, fmt.Sprintf(`{
			"attributes": {"product.repositoryId": ["%d"]},
			"records": [{"attributes": {"sku.activePrice": ["1"], "product.mediumImage.url": [%q]}}],
			"detailsAction": {"recordState": "/p/_/R-%d"}
		}`, i, img, i))
	}
	s := newTestScraper(t, serveJSON(searchPayload(records...)))

	page, err := s.Search(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, page.Products, 5)
	for _, item := range page.Products {
		require.NotNil(t, item.Image)
		assert.True(t, strings.HasPrefix(*item.Image, "http"), "image %q is not absolute", *item.Image)
		assert.False(t, item.Price.IsNegative())
	}
	assert.Equal(t, "https://static.cotodigital3.com.ar/leading/slash.jpg", *page.Products[1].Image)
}

func TestSearch_NoMainSlotIsEmptyPage(t *testing.T) {
	s := newTestScraper(t, serveJSON(`{"contents":[{"Main":[{"@type":"Breadcrumbs"},{"@type":"Content_Slot","contents":[]}]}]}`))

	page, err := s.Search(context.Background(), "caviar")
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, "caviar", page.Query)
	assert.Empty(t, page.Products)
	assert.NotNil(t, page.Products)
}

func TestSearch_EmptyMainSlotIsEmptyPage(t *testing.T) {
	s := newTestScraper(t, serveJSON(`{"contents":[{"Main":[{"@type":"Main_Slot","contents":[]}]}]}`))

	page, err := s.Search(context.Background(), "caviar")
	require.NoError(t, err)
	assert.Empty(t, page.Products)
}

func TestSearch_UnexpectedShape(t *testing.T) {
	for name, body := range map[string]string{
		"no contents":     `{"status":"ok"}`,
		"empty contents":  `{"contents":[]}`,
		"no Main":         `{"contents":[{"Header":[]}]}`,
		"contents object": `{"contents":{"Main":[]}}`,
		"not JSON":        `<html>Access denied</html>`,
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestScraper(t, serveJSON(body))

			page, err := s.Search(context.Background(), "arroz")
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrUpstreamShape), "got %v", err)
			assert.Equal(t, models.KindUpstreamShape, models.KindOf(err))

			require.NotNil(t, page)
			assert.Equal(t, "arroz", page.Query)
			assert.Empty(t, page.Products)
		})
	}
}

func TestSearch_UpstreamNotFound(t *testing.T) {
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	page, err := s.Search(context.Background(), "arroz")
	require.Error(t, err)
	assert.Nil(t, page)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
}

func TestSearch_TransportErrorPropagates(t *testing.T) {
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	page, err := s.Search(context.Background(), "arroz")
	require.Error(t, err)
	assert.Nil(t, page)
	assert.True(t, errors.Is(err, models.ErrTransport))

	var statusErr *fetch.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}
