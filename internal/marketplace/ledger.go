package marketplace

import (
	"errors"
	"sync"

	"github.com/dappmarket/marketplace-core/internal/entity"
	"github.com/dappmarket/marketplace-core/internal/event"
	"github.com/dappmarket/marketplace-core/internal/funds"
	"github.com/dappmarket/marketplace-core/internal/registry"
	"go.uber.org/zap"
)

var (
	ErrInvalidPrice        = errors.New("price must be greater than zero")
	ErrItemNotFound        = errors.New("item does not exist")
	ErrAlreadySold         = errors.New("item already sold")
	ErrInsufficientPayment = errors.New("payment does not cover the item price and market fee")
)

// Ledger owns the listing table and performs atomic settlement on purchase.
// It is the only component allowed to move custody of listed assets.
type Ledger interface {
	ListItem(assetId, price uint64, seller string) (uint64, error)
	GetTotalPrice(itemId uint64) (uint64, error)
	PurchaseItem(itemId, payment uint64, buyer string) error
	Item(itemId uint64) (entity.Item, error)
	ItemCount() uint64
	Events() []entity.MarketEvent
	Address() string
	FeeAccount() string
	FeePercent() uint64
}

type ledger struct {
	mu sync.RWMutex

	registry registry.AssetRegistry
	bank     funds.Transferer
	emitter  *event.Emitter

	address      string
	feeAccount   string
	feePercent   uint64
	refundExcess bool

	items     map[uint64]*entity.Item
	itemCount uint64
	events    []entity.MarketEvent
}

type Option func(*ledger)

// WithExcessRefund returns any payment above the total price to the buyer
// inside the same settlement. The default keeps the reference behaviour:
// excess stays in the marketplace account.
func WithExcessRefund() Option {
	return func(l *ledger) {
		l.refundExcess = true
	}
}

// NewLedger constructs a marketplace ledger. Fee account and fee percent are
// fixed for the ledger's lifetime; address is the principal under which the
// marketplace escrows listed assets and receives settlement funds.
func NewLedger(
	assetRegistry registry.AssetRegistry,
	bank funds.Transferer,
	emitter *event.Emitter,
	address string,
	feeAccount string,
	feePercent uint64,
	opts ...Option,
) Ledger {
	l := &ledger{
		registry:   assetRegistry,
		bank:       bank,
		emitter:    emitter,
		address:    address,
		feeAccount: feeAccount,
		feePercent: feePercent,
		items:      make(map[uint64]*entity.Item),
		events:     make([]entity.MarketEvent, 0),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// ListItem moves the asset into escrow custody before any listing state is
// written, so a registry failure leaves no orphaned item. The marketplace is
// the transfer caller: the seller must own the asset and have granted the
// marketplace blanket operator approval.
func (l *ledger) ListItem(assetId, price uint64, seller string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if price == 0 {
		return 0, ErrInvalidPrice
	}

	if err := l.registry.TransferCustody(assetId, seller, l.address, l.address); err != nil {
		return 0, err
	}

	l.itemCount++
	itemId := l.itemCount
	l.items[itemId] = &entity.Item{
		ItemId:  itemId,
		AssetId: assetId,
		Price:   price,
		Seller:  seller,
	}

	l.record(entity.MarketEvent{
		Type:    entity.OfferedEvent,
		ItemId:  itemId,
		AssetId: assetId,
		Price:   price,
		Seller:  seller,
	}, event.ItemOfferedEvent)

	zap.L().With(
		zap.Uint64("itemId", itemId),
		zap.Uint64("assetId", assetId),
		zap.Uint64("price", price),
		zap.String("seller", seller),
	).Info("Marketplace: Item listed")

	return itemId, nil
}

// GetTotalPrice is price plus floor(price * feePercent / 100). Integer
// division rounds the fee down; the total is never below the price.
func (l *ledger) GetTotalPrice(itemId uint64) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	item, ok := l.items[itemId]
	if !ok {
		return 0, ErrItemNotFound
	}

	return l.totalPrice(item.Price), nil
}

// PurchaseItem settles a listing. Preconditions run in contract order: item
// existence, not already sold, payment covers the total price. The sold flag
// is written before any outbound transfer; if a funds leg or the custody
// transfer fails every prior effect is rolled back and the item stays listed.
func (l *ledger) PurchaseItem(itemId, payment uint64, buyer string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[itemId]
	if !ok {
		return ErrItemNotFound
	}

	if item.Sold {
		return ErrAlreadySold
	}

	total := l.totalPrice(item.Price)
	if payment < total {
		return ErrInsufficientPayment
	}

	item.Sold = true

	if err := l.settle(item, payment, total, buyer); err != nil {
		item.Sold = false
		zap.L().With(
			zap.Uint64("itemId", itemId),
			zap.String("buyer", buyer),
			zap.Error(err),
		).Error("Marketplace: Settlement failed, purchase rolled back")
		return err
	}

	l.record(entity.MarketEvent{
		Type:    entity.BoughtEvent,
		ItemId:  item.ItemId,
		AssetId: item.AssetId,
		Price:   item.Price,
		Seller:  item.Seller,
		Buyer:   buyer,
	}, event.ItemBoughtEvent)

	zap.L().With(
		zap.Uint64("itemId", item.ItemId),
		zap.Uint64("assetId", item.AssetId),
		zap.Uint64("price", item.Price),
		zap.Uint64("fee", total-item.Price),
		zap.String("seller", item.Seller),
		zap.String("buyer", buyer),
	).Info("Marketplace: Item sold")

	return nil
}

type fundsLeg struct {
	from   string
	to     string
	amount uint64
}

func (l *ledger) settle(item *entity.Item, payment, total uint64, buyer string) error {
	legs := []fundsLeg{
		{buyer, l.address, payment},
		{l.address, item.Seller, item.Price},
	}
	if fee := total - item.Price; fee > 0 {
		legs = append(legs, fundsLeg{l.address, l.feeAccount, fee})
	}
	if l.refundExcess && payment > total {
		legs = append(legs, fundsLeg{l.address, buyer, payment - total})
	}

	applied := make([]fundsLeg, 0, len(legs))
	for _, leg := range legs {
		if err := l.bank.Transfer(leg.from, leg.to, leg.amount); err != nil {
			l.reverse(applied)
			return err
		}
		applied = append(applied, leg)
	}

	if err := l.registry.TransferCustody(item.AssetId, l.address, buyer, l.address); err != nil {
		l.reverse(applied)
		return err
	}

	return nil
}

func (l *ledger) reverse(applied []fundsLeg) {
	for i := len(applied) - 1; i >= 0; i-- {
		leg := applied[i]
		if err := l.bank.Transfer(leg.to, leg.from, leg.amount); err != nil {
			zap.L().With(
				zap.String("from", leg.to),
				zap.String("to", leg.from),
				zap.Uint64("amount", leg.amount),
				zap.Error(err),
			).Error("Marketplace: Failed to reverse settlement leg")
		}
	}
}

func (l *ledger) record(ev entity.MarketEvent, eventType event.Type) {
	ev.Seq = uint64(len(l.events)) + 1
	l.events = append(l.events, ev)
	l.emitter.Emit(eventType, ev)
}

func (l *ledger) totalPrice(price uint64) uint64 {
	return price + price*l.feePercent/100
}

func (l *ledger) Item(itemId uint64) (entity.Item, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	item, ok := l.items[itemId]
	if !ok {
		return entity.Item{}, ErrItemNotFound
	}

	return *item, nil
}

func (l *ledger) ItemCount() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.itemCount
}

// Events returns a copy of the append-only settlement log in emission order.
func (l *ledger) Events() []entity.MarketEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	events := make([]entity.MarketEvent, len(l.events))
	copy(events, l.events)

	return events
}

func (l *ledger) Address() string {
	return l.address
}

func (l *ledger) FeeAccount() string {
	return l.feeAccount
}

func (l *ledger) FeePercent() uint64 {
	return l.feePercent
}
