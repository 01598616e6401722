package funds

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// Transferer moves native currency units between principals. The settlement
// core treats it as an opaque, possibly failing synchronous call; a failure
// rolls back the enclosing settlement.
type Transferer interface {
	Transfer(from, to string, amount uint64) error
}

// Bank is an in-process balance ledger backing the Transferer capability for
// the daemon and the tests. The wallet layer owns real funds movement in
// production deployments.
type Bank struct {
	mu       sync.RWMutex
	balances map[string]uint64
}

func NewBank() *Bank {
	return &Bank{balances: make(map[string]uint64)}
}

func (b *Bank) Deposit(account string, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.balances[account] += amount

	zap.L().With(
		zap.String("account", account),
		zap.Uint64("amount", amount),
	).Debug("Bank: Deposit")
}

func (b *Bank) BalanceOf(account string) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.balances[account]
}

func (b *Bank) Transfer(from, to string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balances[from] < amount {
		return ErrInsufficientFunds
	}

	b.balances[from] -= amount
	b.balances[to] += amount

	return nil
}
