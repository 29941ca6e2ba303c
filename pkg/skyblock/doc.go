// Package skyblock holds the wire models of the Hypixel SkyBlock API.
//
// Field names follow the JSON the API emits exactly. Responses are wrapped in
// an envelope carrying "success" (and "cause" on failure); the client strips
// failures before these types are decoded, so the models only describe the
// success shapes.
//
// Auctions embed their Item and Bids so the flat wire layout maps onto
// grouped Go structs:
//
//	page, err := c.AuctionsPage(ctx, 0)
//	for _, a := range page.Auctions {
//		fmt.Println(a.Name, a.Tier, a.HighestBidAmount)
//	}
//
// Item metadata arrives as base64 encoded, gzip compressed NBT. ItemBytes.Raw
// unwraps the first two layers and Item.NBT decodes the tag itself.
package skyblock
