package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

// Asset is a uniquely identified, singly owned digital item. The metadata uri
// is stored verbatim at mint time and never parsed by the settlement core.
type Asset struct {
	Id          uint64 `json:"id"`
	Owner       string `json:"owner"`
	MetadataUri string `json:"metadataUri"`
}

func (a Asset) Slug() string {
	return CreateAssetSlug(a.Id)
}

func CreateAssetSlug(assetId uint64) string {
	return slug.Make(fmt.Sprintf("asset-%d", assetId))
}
