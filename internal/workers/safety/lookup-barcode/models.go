package lookupbarcode

import (
	"context"

	"cosmetic-insights/internal/analytics/safety"
	"cosmetic-insights/internal/sources/beautyfacts"
)

// Input is the job variables the worker reads.
type Input struct {
	Barcode string `json:"barcode"`
}

// Output feeds the barcode branch of the scan process. Found is false when
// the product database has no entry; that is not an error.
type Output struct {
	Found           bool                `json:"found"`
	Barcode         string              `json:"barcode"`
	ProductInfo     *safety.ProductInfo `json:"productInfo,omitempty"`
	Ingredients     []string            `json:"ingredients"`
	IngredientsText string              `json:"ingredientsText,omitempty"`
}

// ProductLookup is satisfied by *beautyfacts.Client.
type ProductLookup interface {
	GetProduct(ctx context.Context, barcode string) (*beautyfacts.Product, error)
}
