package entity

import (
	"crypto/md5"
	"fmt"
)

type MarketEventType string

const (
	OfferedEvent MarketEventType = "offered"
	BoughtEvent  MarketEventType = "bought"
)

// MarketEvent is one entry of the append-only settlement log. Seq is assigned
// by the ledger in emission order and never reused. Buyer is empty on offered
// events.
type MarketEvent struct {
	Type    MarketEventType `json:"type"`
	Seq     uint64          `json:"seq"`
	ItemId  uint64          `json:"itemId"`
	AssetId uint64          `json:"assetId"`
	Price   uint64          `json:"price"`
	Seller  string          `json:"seller"`
	Buyer   string          `json:"buyer,omitempty"`
}

func (e MarketEvent) Slug() string {
	return CreateMarketEventSlug(e.Seq, string(e.Type))
}

func CreateMarketEventSlug(seq uint64, eventType string) string {
	data := []byte(fmt.Sprintf("marketevent-%d-%s", seq, eventType))
	return fmt.Sprintf("%x", md5.Sum(data))
}
