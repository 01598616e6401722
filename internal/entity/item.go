package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

// Item is a fixed price listing for a single asset. Price is in the smallest
// currency unit and is immutable once the item has been created. Sold flips
// false to true exactly once; while false the marketplace holds the asset in
// escrow custody.
type Item struct {
	ItemId  uint64 `json:"itemId"`
	AssetId uint64 `json:"assetId"`
	Price   uint64 `json:"price"`
	Seller  string `json:"seller"`
	Sold    bool   `json:"sold"`
}

func (i Item) Slug() string {
	return CreateItemSlug(i.ItemId)
}

func CreateItemSlug(itemId uint64) string {
	return slug.Make(fmt.Sprintf("item-%d", itemId))
}
