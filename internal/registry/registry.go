package registry

import (
	"errors"

	"github.com/dappmarket/marketplace-core/internal/entity"
	"go.uber.org/zap"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrNotAuthorized = errors.New("caller is not the owner or an approved operator")
	ErrOwnerMismatch = errors.New("from is not the current asset owner")
)

// AssetRegistry owns the asset to owner mapping and blanket operator
// approvals. Principals are opaque comparable addresses; the registry never
// interprets them.
type AssetRegistry interface {
	Mint(metadataUri string, creator string) uint64
	Asset(assetId uint64) (entity.Asset, error)
	OwnerOf(assetId uint64) (string, error)
	BalanceOf(owner string) uint64
	AssetCount() uint64
	SetApprovalForAll(owner, operator string, approved bool)
	IsApprovedForAll(owner, operator string) bool
	TransferCustody(assetId uint64, from, to, caller string) error
}

type assetRegistry struct {
	store *Store
}

func NewAssetRegistry(store *Store) AssetRegistry {
	return assetRegistry{store}
}

// Mint always succeeds. Asset ids are assigned sequentially from 1 and never
// reused.
func (r assetRegistry) Mint(metadataUri string, creator string) uint64 {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.assetCount++
	assetId := r.store.assetCount
	r.store.assets[assetId] = &entity.Asset{
		Id:          assetId,
		Owner:       creator,
		MetadataUri: metadataUri,
	}

	zap.L().With(
		zap.Uint64("assetId", assetId),
		zap.String("owner", creator),
	).Info("Registry: Minted asset")

	return assetId
}

func (r assetRegistry) Asset(assetId uint64) (entity.Asset, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	asset, ok := r.store.assets[assetId]
	if !ok {
		return entity.Asset{}, ErrAssetNotFound
	}

	return *asset, nil
}

func (r assetRegistry) OwnerOf(assetId uint64) (string, error) {
	asset, err := r.Asset(assetId)
	if err != nil {
		return "", err
	}

	return asset.Owner, nil
}

func (r assetRegistry) BalanceOf(owner string) uint64 {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count uint64
	for _, asset := range r.store.assets {
		if asset.Owner == owner {
			count++
		}
	}

	return count
}

func (r assetRegistry) AssetCount() uint64 {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.assetCount
}

// SetApprovalForAll overwrites any previous value for the pair. Repeated
// calls with the same arguments are no-ops.
func (r assetRegistry) SetApprovalForAll(owner, operator string, approved bool) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.approvals[owner]; !ok {
		r.store.approvals[owner] = make(map[string]bool)
	}
	r.store.approvals[owner][operator] = approved

	zap.L().With(
		zap.String("owner", owner),
		zap.String("operator", operator),
		zap.Bool("approved", approved),
	).Info("Registry: Set approval for all")
}

func (r assetRegistry) IsApprovedForAll(owner, operator string) bool {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.approvals[owner][operator]
}

// TransferCustody rewrites the owner of assetId from `from` to `to`. The
// caller must be `from` itself or an operator with blanket approval from
// `from`. Checks run in a fixed order: existence, authorization, owner match.
// A failed transfer leaves no partial state.
func (r assetRegistry) TransferCustody(assetId uint64, from, to, caller string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	asset, ok := r.store.assets[assetId]
	if !ok {
		return ErrAssetNotFound
	}

	if caller != from && !r.store.approvals[from][caller] {
		return ErrNotAuthorized
	}

	if asset.Owner != from {
		return ErrOwnerMismatch
	}

	asset.Owner = to

	zap.L().With(
		zap.Uint64("assetId", assetId),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("caller", caller),
	).Info("Registry: Transferred custody")

	return nil
}
