package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Sternrassler/skyblock-client/pkg/pagination"
	"github.com/Sternrassler/skyblock-client/pkg/skyblock"
)

// AuctionsPage fetches one page of active auctions.
func (c *Client) AuctionsPage(ctx context.Context, page int) (*skyblock.AuctionsPage, error) {
	var resp skyblock.AuctionsPage
	if err := c.Fetch(ctx, "auctions", []Param{{Key: "page", Value: strconv.Itoa(page)}}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// auctionPage adapts AuctionsPage to the pagination walkers.
func (c *Client) auctionPage(ctx context.Context, page int) (*pagination.Page[skyblock.Auction], error) {
	resp, err := c.AuctionsPage(ctx, page)
	if err != nil {
		return nil, err
	}
	return resp.ToPage(), nil
}

// ActiveAuctions fetches every page of the auction house in order and
// returns all auctions in page order.
func (c *Client) ActiveAuctions(ctx context.Context) ([]skyblock.Auction, error) {
	auctions, err := pagination.Collect(ctx, c.auctionPage)
	if err != nil {
		return nil, c.walkError(err)
	}
	return auctions, nil
}

// ForEachActiveAuction streams the auction house page by page without
// holding it in memory. The first error returned by fn stops the walk and
// is returned unchanged.
func (c *Client) ForEachActiveAuction(ctx context.Context, fn func(skyblock.Auction) error) error {
	stopped := false
	err := pagination.ForEach(ctx, c.auctionPage, func(a skyblock.Auction) error {
		if err := fn(a); err != nil {
			stopped = true
			return err
		}
		return nil
	})
	if err != nil && !stopped {
		return c.walkError(err)
	}
	return err
}

// ActiveAuctionsParallel is ActiveAuctions with pages after the first fetched
// concurrently. The page count reported by page 0 bounds the walk.
func (c *Client) ActiveAuctionsParallel(ctx context.Context) ([]skyblock.Auction, error) {
	fetcher := pagination.NewBatchFetcher[skyblock.Auction](pagination.Config{
		MaxConcurrency: c.config.MaxConcurrency,
		// A page may wait up to one full window for a credential.
		Timeout: c.config.RequestTimeout + c.config.WindowSize,
	})
	auctions, err := fetcher.FetchAll(ctx, c.auctionPage)
	if err != nil {
		return nil, c.walkError(err)
	}
	return auctions, nil
}

// walkError classifies a context that ended between page fetches, which the
// walkers report without an *Error, as a transport failure.
func (c *Client) walkError(err error) error {
	if ClassOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return c.fail(&Error{Class: ErrorClassTransport, Endpoint: "auctions", Message: "walk pages", Err: err})
	}
	return err
}

// Auction looks up a single auction by its UUID.
func (c *Client) Auction(ctx context.Context, auctionID string) (*skyblock.Auction, error) {
	auctions, err := c.searchAuctions(ctx, "uuid", auctionID)
	if err != nil {
		return nil, err
	}
	if len(auctions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAuctionNotFound, auctionID)
	}
	return &auctions[0], nil
}

// AuctionsByPlayer returns the auctions created by a player.
func (c *Client) AuctionsByPlayer(ctx context.Context, playerID string) ([]skyblock.Auction, error) {
	return c.searchAuctions(ctx, "player", playerID)
}

// AuctionsByProfile returns the auctions created by a SkyBlock profile.
func (c *Client) AuctionsByProfile(ctx context.Context, profileID string) ([]skyblock.Auction, error) {
	return c.searchAuctions(ctx, "profile", profileID)
}

func (c *Client) searchAuctions(ctx context.Context, field, id string) ([]skyblock.Auction, error) {
	normalized, err := skyblock.NormalizeID(id)
	if err != nil {
		return nil, fmt.Errorf("search auctions by %s: %w", field, err)
	}

	resp, err := Get[skyblock.AuctionSearch](ctx, c, "auction", Param{Key: field, Value: normalized})
	if err != nil {
		return nil, err
	}
	if resp.Auctions == nil {
		return []skyblock.Auction{}, nil
	}
	return resp.Auctions, nil
}
