package funds_test

import (
	"testing"

	"github.com/dappmarket/marketplace-core/internal/funds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositAndBalance(t *testing.T) {
	bank := funds.NewBank()

	bank.Deposit("alice", 100)
	bank.Deposit("alice", 50)

	assert.Equal(t, uint64(150), bank.BalanceOf("alice"))
	assert.Equal(t, uint64(0), bank.BalanceOf("bob"))
}

func TestTransfer(t *testing.T) {
	bank := funds.NewBank()
	bank.Deposit("alice", 100)

	require.NoError(t, bank.Transfer("alice", "bob", 60))

	assert.Equal(t, uint64(40), bank.BalanceOf("alice"))
	assert.Equal(t, uint64(60), bank.BalanceOf("bob"))
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	bank := funds.NewBank()
	bank.Deposit("alice", 10)

	err := bank.Transfer("alice", "bob", 11)
	assert.ErrorIs(t, err, funds.ErrInsufficientFunds)

	assert.Equal(t, uint64(10), bank.BalanceOf("alice"))
	assert.Equal(t, uint64(0), bank.BalanceOf("bob"))
}
