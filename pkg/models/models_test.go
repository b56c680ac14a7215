package models

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrice(t *testing.T) {
	tests := []struct {
		name       string
		candidates []decimal.Decimal
		wantPrice  string
		wantOld    string
	}{
		{name: "no candidates", wantPrice: "0"},
		{name: "single price", candidates: []decimal.Decimal{decimal.NewFromInt(500)}, wantPrice: "500"},
		{name: "discount below list", candidates: []decimal.Decimal{decimal.NewFromInt(1000), decimal.NewFromInt(800)}, wantPrice: "800", wantOld: "1000"},
		{name: "discount above list", candidates: []decimal.Decimal{decimal.NewFromInt(800), decimal.NewFromInt(1000)}, wantPrice: "800", wantOld: "1000"},
		{name: "equal prices", candidates: []decimal.Decimal{decimal.RequireFromString("99.90"), decimal.RequireFromString("99.9")}, wantPrice: "99.9"},
		{name: "negative clamps to zero", candidates: []decimal.Decimal{decimal.NewFromInt(-5)}, wantPrice: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, old := ResolvePrice(tt.candidates...)
			assert.True(t, price.Equal(decimal.RequireFromString(tt.wantPrice)), "price %s", price)
			if tt.wantOld == "" {
				assert.Nil(t, old)
				return
			}
			require.NotNil(t, old)
			assert.True(t, old.Equal(decimal.RequireFromString(tt.wantOld)), "old price %s", old)
		})
	}
}

func TestNewProductListPage_EncodesEmptyProducts(t *testing.T) {
	page := NewProductListPage("arroz", nil)

	raw, err := json.Marshal(page)
	require.NoError(t, err)
	assert.JSONEq(t, `{"keyword":"arroz","products":[]}`, string(raw))
}

func TestProductListItem_OmitsMissingOldPrice(t *testing.T) {
	assert.Equal(t, "ARS", Currency)

	raw, err := json.Marshal(ProductListItem{ID: "1", Price: decimal.NewFromInt(10), Currency: Currency})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "old_price")
	assert.Contains(t, string(raw), `"currency":"ARS"`)
}

func TestRetailerError_KindMatching(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := errors.Wrap(Fail(KindTransport, "coto", "search", cause), "search arroz")

	assert.True(t, errors.Is(err, ErrTransport))
	assert.False(t, errors.Is(err, ErrUpstreamShape))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindTransport, KindOf(err))

	shape := Fail(KindUpstreamShape, "coto", "details", nil)
	assert.True(t, errors.Is(shape, ErrUpstreamShape))
	assert.Equal(t, KindUpstreamShape, KindOf(shape))

	assert.Equal(t, KindNotFound, KindOf(errors.Wrap(ErrProductNotFound, "lookup")))
	assert.Equal(t, KindUnknown, KindOf(cause))
}
