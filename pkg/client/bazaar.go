package client

import (
	"context"

	"github.com/Sternrassler/skyblock-client/pkg/skyblock"
)

// Bazaar returns the live data of every bazaar product keyed by product id.
func (c *Client) Bazaar(ctx context.Context) (map[string]skyblock.Product, error) {
	resp, err := Get[skyblock.BazaarSnapshot](ctx, c, "bazaar")
	if err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// BazaarProductIDs lists the ids of all bazaar products.
//
// Deprecated: the endpoint was retired by the API; use Bazaar, whose map keys
// are the product ids.
func (c *Client) BazaarProductIDs(ctx context.Context) ([]string, error) {
	resp, err := Get[skyblock.BazaarProductIDs](ctx, c, "bazaar/products")
	if err != nil {
		return nil, err
	}
	return resp.ProductIDs, nil
}

// BazaarProduct returns one product including its weekly history.
//
// Deprecated: the endpoint was retired by the API; use Bazaar.
func (c *Client) BazaarProduct(ctx context.Context, productID string) (*skyblock.Product, error) {
	resp, err := Get[skyblock.BazaarProductInfo](ctx, c, "bazaar/product", Param{Key: "productId", Value: productID})
	if err != nil {
		return nil, err
	}
	return &resp.ProductInfo, nil
}
