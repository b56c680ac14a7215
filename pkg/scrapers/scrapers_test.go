package scrapers

import (
	"context"
	"testing"

	"coto-hunter/pkg/models"

	"github.com/stretchr/testify/assert"
)

type stubRetailer struct{ name string }

func (s stubRetailer) Search(context.Context, string) (*models.ProductListPage, error) {
	return models.NewProductListPage(s.name, nil), nil
}

func (s stubRetailer) CategoryProducts(context.Context, string) (*models.ProductListPage, error) {
	return models.NewProductListPage(s.name, nil), nil
}

func (s stubRetailer) ProductDetails(context.Context, string) (*models.ProductDetail, error) {
	return nil, models.ErrProductNotFound
}

func TestRegistry_Get(t *testing.T) {
	reg := Registry{"coto": stubRetailer{name: "coto"}}

	for _, name := range []string{"coto", "COTO", "  Coto "} {
		r, ok := reg.Get(name)
		assert.True(t, ok, name)
		assert.Equal(t, stubRetailer{name: "coto"}, r)
	}

	_, ok := reg.Get("jumbo")
	assert.False(t, ok)
}

func TestRegistry_Names(t *testing.T) {
	reg := Registry{
		"disco": stubRetailer{},
		"coto":  stubRetailer{},
		"jumbo": stubRetailer{},
	}
	assert.Equal(t, []string{"coto", "disco", "jumbo"}, reg.Names())
	assert.Empty(t, Registry{}.Names())
}
