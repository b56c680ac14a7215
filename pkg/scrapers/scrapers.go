package scrapers

import (
	"context"
	"slices"
	"strings"

	"coto-hunter/pkg/models"

	"github.com/samber/lo"
)

// Retailer is the surface every store adapter exposes.
//
// List operations return a non-nil page whenever the upstream answered, even
// if the answer had the wrong shape; in that case the error carries
// models.KindUpstreamShape. Transport failures return a nil page.
// ProductDetails returns a nil detail with a typed error whenever no product
// could be produced.
type Retailer interface {
	Search(ctx context.Context, keyword string) (*models.ProductListPage, error)
	CategoryProducts(ctx context.Context, categoryURL string) (*models.ProductListPage, error)
	ProductDetails(ctx context.Context, idOrURL string) (*models.ProductDetail, error)
}

// Registry maps lower-case store names to adapters.
type Registry map[string]Retailer

func (r Registry) Get(store string) (Retailer, bool) {
	ret, ok := r[strings.ToLower(strings.TrimSpace(store))]
	return ret, ok
}

func (r Registry) Names() []string {
	names := lo.Keys(map[string]Retailer(r))
	slices.Sort(names)
	return names
}
