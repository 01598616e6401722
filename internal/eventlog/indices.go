package eventlog

import (
	"fmt"

	"github.com/dappmarket/marketplace-core/internal/config"
)

type Indices string

var (
	MarketEventIndex Indices = "marketevent"
	AssetIndex       Indices = "asset"
	ItemIndex        Indices = "item"
	ErrorIndex       Indices = "error"
)

// Prefixes the index with the configured index name and returns the full string
func (i *Indices) Get() string {
	return fmt.Sprintf("%s.%s", config.Get().Index, string(*i))
}

var mappings = map[Indices]string{
	MarketEventIndex: `{
		"mappings": {
			"properties": {
				"type":    {"type": "keyword"},
				"seq":     {"type": "long"},
				"itemId":  {"type": "long"},
				"assetId": {"type": "long"},
				"price":   {"type": "long"},
				"seller":  {"type": "keyword"},
				"buyer":   {"type": "keyword"}
			}
		}
	}`,
	AssetIndex: `{
		"mappings": {
			"properties": {
				"id":          {"type": "long"},
				"owner":       {"type": "keyword"},
				"metadataUri": {"type": "keyword"}
			}
		}
	}`,
	ItemIndex: `{
		"mappings": {
			"properties": {
				"itemId":  {"type": "long"},
				"assetId": {"type": "long"},
				"price":   {"type": "long"},
				"seller":  {"type": "keyword"},
				"sold":    {"type": "boolean"}
			}
		}
	}`,
	ErrorIndex: `{
		"mappings": {
			"properties": {
				"time":      {"type": "date"},
				"component": {"type": "keyword"},
				"name":      {"type": "keyword"},
				"error":     {"type": "text"}
			}
		}
	}`,
}
