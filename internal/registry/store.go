package registry

import (
	"sync"

	"github.com/dappmarket/marketplace-core/internal/entity"
)

// Store holds the registry tables: assets by id, blanket operator approvals
// keyed owner then operator, and the monotonic asset counter. It is built
// explicitly and passed to NewAssetRegistry so tests can run isolated
// instances.
type Store struct {
	mu         sync.RWMutex
	assets     map[uint64]*entity.Asset
	approvals  map[string]map[string]bool
	assetCount uint64
}

func NewStore() *Store {
	return &Store{
		assets:    make(map[uint64]*entity.Asset),
		approvals: make(map[string]map[string]bool),
	}
}
