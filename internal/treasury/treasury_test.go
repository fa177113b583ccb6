package treasury

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nile-protocol/nile-core/internal/chain"
	"github.com/nile-protocol/nile-core/internal/events"
	"github.com/nile-protocol/nile-core/internal/nileerr"
	"github.com/nile-protocol/nile-core/internal/store"
)

const (
	testOwner   chain.Address = "account:owner"
	testWallet  chain.Address = "account:wallet"
	testCreator chain.Address = "account:creator"
)

func newTestTreasury() *Treasury {
	st := store.NewMemStore()
	bus := events.NewBus(nil)
	return New(testOwner, testWallet, st, bus, nil)
}

func TestReceiveFeesCreditsAllLedgers(t *testing.T) {
	tr := newTestTreasury()
	require.NoError(t, tr.ReceiveFees(testCreator, uint256.NewInt(50), uint256.NewInt(30), uint256.NewInt(20)))

	assert.Equal(t, "50", tr.CreatorBalance(testCreator).Dec())
	assert.Equal(t, "30", tr.ProtocolPending().Dec())
	assert.Equal(t, "30", tr.ProtocolCumulative().Dec())
	assert.Equal(t, "20", tr.StakerPool().Dec())
}

func TestCreatorWithdrawDrainsAndZeroes(t *testing.T) {
	tr := newTestTreasury()
	require.NoError(t, tr.ReceiveFees(testCreator, uint256.NewInt(50), uint256.NewInt(0), uint256.NewInt(0)))

	amount, err := tr.CreatorWithdraw(testCreator)
	require.NoError(t, err)
	assert.Equal(t, "50", amount.Dec())
	assert.True(t, tr.CreatorBalance(testCreator).IsZero())

	_, err = tr.CreatorWithdraw(testCreator)
	assert.ErrorIs(t, err, nileerr.ErrInsufficientBalance)
}

func TestProtocolWithdrawDrainsPendingNotCumulative(t *testing.T) {
	tr := newTestTreasury()
	require.NoError(t, tr.ReceiveFees(testCreator, uint256.NewInt(0), uint256.NewInt(30), uint256.NewInt(0)))

	amount, err := tr.ProtocolWithdraw(testOwner)
	require.NoError(t, err)
	assert.Equal(t, "30", amount.Dec())
	assert.True(t, tr.ProtocolPending().IsZero())
	assert.Equal(t, "30", tr.ProtocolCumulative().Dec(), "cumulative must never decrease")
}

func TestProtocolWithdrawRequiresOwner(t *testing.T) {
	tr := newTestTreasury()
	_, err := tr.ProtocolWithdraw(testCreator)
	assert.ErrorIs(t, err, nileerr.ErrNotAuthorized)
}

func TestSetProtocolWalletRejectsZeroAddress(t *testing.T) {
	tr := newTestTreasury()
	err := tr.SetProtocolWallet(testOwner, chain.Zero)
	assert.ErrorIs(t, err, nileerr.ErrZeroAddress)
}

func TestSetProtocolWalletRequiresOwner(t *testing.T) {
	tr := newTestTreasury()
	err := tr.SetProtocolWallet(testCreator, chain.Address("account:new_wallet"))
	assert.ErrorIs(t, err, nileerr.ErrNotAuthorized)
}
