package skyblock

import "math"

// BazaarSnapshot is the response of the unified "bazaar" endpoint.
type BazaarSnapshot struct {
	Success     bool               `json:"success"`
	LastUpdated int64              `json:"lastUpdated"`
	Products    map[string]Product `json:"products"`
}

// BazaarProductIDs is the response of the deprecated "bazaar/products" endpoint.
type BazaarProductIDs struct {
	Success    bool     `json:"success"`
	ProductIDs []string `json:"productIds"`
}

// BazaarProductInfo is the response of the deprecated "bazaar/product" endpoint.
type BazaarProductInfo struct {
	Success     bool    `json:"success"`
	ProductInfo Product `json:"product_info"`
}

// Product is the live market data of one bazaar product.
type Product struct {
	ProductID string `json:"product_id"`

	// Deprecated: only the "bazaar/product" endpoint fills WeekHistoric.
	WeekHistoric []Historic `json:"week_historic,omitempty"`

	// BuySummary lists the top (up to 30) buy orders.
	BuySummary []Order `json:"buy_summary"`
	// SellSummary lists the top (up to 30) sell offers.
	SellSummary []Order     `json:"sell_summary"`
	QuickStatus QuickStatus `json:"quick_status"`
}

// TopBuy returns the highest buy order price, or -Inf without buy orders.
func (p *Product) TopBuy() float64 {
	top := math.Inf(-1)
	for _, o := range p.BuySummary {
		if o.PricePerUnit > top {
			top = o.PricePerUnit
		}
	}
	return top
}

// TopSell returns the lowest sell offer price, or +Inf without sell offers.
func (p *Product) TopSell() float64 {
	top := math.Inf(1)
	for _, o := range p.SellSummary {
		if o.PricePerUnit < top {
			top = o.PricePerUnit
		}
	}
	return top
}

// Order is one aggregated price level of a product's order book.
type Order struct {
	Amount       int64   `json:"amount"`
	PricePerUnit float64 `json:"pricePerUnit"`
	Orders       int64   `json:"orders"`
}

// QuickStatus holds summary statistics of a product.
type QuickStatus struct {
	ProductID string `json:"productId"`
	// BuyPrice is the weighted average of the top 2% of buy volume.
	BuyPrice       float64 `json:"buyPrice"`
	BuyVolume      float64 `json:"buyVolume"`
	BuyMovingWeek  float64 `json:"buyMovingWeek"`
	BuyOrders      float64 `json:"buyOrders"`
	SellPrice      float64 `json:"sellPrice"`
	SellVolume     float64 `json:"sellVolume"`
	SellMovingWeek float64 `json:"sellMovingWeek"`
	SellOrders     float64 `json:"sellOrders"`
}

// Historic is one weekly history sample of a product.
type Historic struct {
	ProductID string `json:"productId"`
	Timestamp int64  `json:"timestamp"`
	// MarketDemand is the number of items in active buy orders.
	MarketDemand float64 `json:"nowBuyVolume"`
	// MarketSupply is the number of items in active sell offers.
	MarketSupply float64 `json:"nowSellVolume"`
	BuyCoins     float64 `json:"buyCoins"`
	BuyVolume    float64 `json:"buyVolume"`
	InstantBuys  float64 `json:"buys"`
	SellCoins    float64 `json:"sellCoins"`
	SellVolume   float64 `json:"sellVolume"`
	InstantSells float64 `json:"sells"`
}

// RecentInstantBuyPrice estimates the instant buy price from recent sell
// offer fills. It returns 0 when nothing was sold.
func (h *Historic) RecentInstantBuyPrice() float64 {
	if h.SellVolume == 0 {
		return 0
	}
	return h.SellCoins / h.SellVolume
}

// RecentInstantSellPrice estimates the instant sell price from recent buy
// order fills. It returns 0 when nothing was bought.
func (h *Historic) RecentInstantSellPrice() float64 {
	if h.BuyVolume == 0 {
		return 0
	}
	return h.BuyCoins / h.BuyVolume
}
