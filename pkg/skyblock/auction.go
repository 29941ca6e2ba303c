package skyblock

import (
	"github.com/Sternrassler/skyblock-client/pkg/pagination"
)

// AuctionsPage is one page of the active auction house (endpoint "auctions").
type AuctionsPage struct {
	Success       bool      `json:"success"`
	Page          int       `json:"page"`
	TotalPages    int       `json:"totalPages"`
	TotalAuctions int       `json:"totalAuctions"`
	LastUpdated   int64     `json:"lastUpdated"`
	Auctions      []Auction `json:"auctions"`
}

// ToPage converts the response into the generic page walked by the
// pagination package.
func (p *AuctionsPage) ToPage() *pagination.Page[Auction] {
	return &pagination.Page[Auction]{
		Index:       p.Page,
		TotalPages:  p.TotalPages,
		TotalItems:  p.TotalAuctions,
		LastUpdated: p.LastUpdated,
		Items:       p.Auctions,
	}
}

// AuctionSearch is the response of the "auction" endpoint, filtered by
// auction, player or profile.
type AuctionSearch struct {
	Success  bool      `json:"success"`
	Auctions []Auction `json:"auctions"`
}

// Auction is a single auction house listing. The item description and bid
// summary are flattened into the same JSON object on the wire.
type Auction struct {
	UUID           string   `json:"uuid"`
	Auctioneer     string   `json:"auctioneer"`
	ProfileID      string   `json:"profile_id,omitempty"`
	Coop           []string `json:"coop"`
	Start          int64    `json:"start"`
	End            int64    `json:"end"`
	Claimed        bool     `json:"claimed"`
	ClaimedBidders []string `json:"claimed_bidders,omitempty"`
	BIN            bool     `json:"bin,omitempty"`

	Item
	Bids
}

// Bids summarizes the bidding on an auction.
type Bids struct {
	HighestBidAmount int64 `json:"highest_bid_amount"`
	StartingBid      int64 `json:"starting_bid"`
	Bids             []Bid `json:"bids"`
}

// Bid is one bid placed on an auction.
type Bid struct {
	AuctionID string `json:"auction_id"`
	Bidder    string `json:"bidder"`
	ProfileID string `json:"profile_id,omitempty"`
	Amount    int64  `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

// Ended reports whether the auction's end time (unix millis) is at or before now.
func (a *Auction) Ended(nowMillis int64) bool {
	return a.End <= nowMillis
}
