package router

import (
	"testing"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nile-protocol/nile-core/internal/chain"
	"github.com/nile-protocol/nile-core/internal/events"
	"github.com/nile-protocol/nile-core/internal/factory"
	"github.com/nile-protocol/nile-core/internal/fixedpoint"
	"github.com/nile-protocol/nile-core/internal/nileerr"
	"github.com/nile-protocol/nile-core/internal/store"
	"github.com/nile-protocol/nile-core/internal/treasury"
)

const (
	testOwner    chain.Address = "account:owner"
	testCreator  chain.Address = "account:creator"
	testBuyer    chain.Address = "account:buyer"
	testWallet   chain.Address = "account:protocol_wallet"
	testRouter   chain.Address = "contract:router"
)

func newHarness(t *testing.T) (*Router, *factory.Factory, uuid.UUID) {
	t.Helper()
	st := store.NewMemStore()
	bus := events.NewBus(nil)
	tr := treasury.New(testOwner, testWallet, st, bus, nil)
	f := factory.New(testOwner, fixedpoint.FromUint64(1_000), st, tr, bus, nil)
	r := New(testRouter, f, nil, bus, nil)

	personID := uuid.New()
	_, err := f.CreateSoulToken(testCreator, personID, "Alice Soul", "ALICE")
	require.NoError(t, err)
	return r, f, personID
}

func TestRouterBuyForwardsMintedTokensToBuyer(t *testing.T) {
	r, f, personID := newHarness(t)

	tokensOut, err := r.Buy(testBuyer, personID, fixedpoint.FromUint64(1), uint256.NewInt(0))
	require.NoError(t, err)
	assert.False(t, tokensOut.IsZero())

	tok, err := f.Token(personID)
	require.NoError(t, err)
	assert.Equal(t, tokensOut.Dec(), tok.BalanceOf(testBuyer).Dec())
	assert.True(t, tok.BalanceOf(r.Address()).IsZero(), "router must not retain minted tokens")
}

func TestRouterSellRequiresPriorAllowance(t *testing.T) {
	r, f, personID := newHarness(t)

	minted, err := r.Buy(testBuyer, personID, fixedpoint.FromUint64(2), uint256.NewInt(0))
	require.NoError(t, err)

	_, err = r.Sell(testBuyer, personID, minted, uint256.NewInt(0))
	assert.ErrorIs(t, err, nileerr.ErrInsufficientTokens, "sell without allowance to the router must fail")

	tok, err := f.Token(personID)
	require.NoError(t, err)
	tok.Approve(testBuyer, r.Address(), minted)

	out, err := r.Sell(testBuyer, personID, minted, uint256.NewInt(0))
	require.NoError(t, err)
	assert.False(t, out.IsZero())
	assert.True(t, tok.BalanceOf(testBuyer).IsZero())
}

func TestRouterQuoteBuyMatchesUnderlyingCurve(t *testing.T) {
	r, f, personID := newHarness(t)
	quoted, err := r.QuoteBuy(personID, fixedpoint.FromUint64(1))
	require.NoError(t, err)
	assert.False(t, quoted.IsZero())

	c, err := f.Curve(personID)
	require.NoError(t, err)
	direct, err := c.QuoteBuy(fixedpoint.FromUint64(1))
	require.NoError(t, err)
	assert.Equal(t, direct.Dec(), quoted.Dec())
}

func TestRouterUnknownPersonFails(t *testing.T) {
	r, _, _ := newHarness(t)
	_, err := r.Buy(testBuyer, uuid.New(), fixedpoint.FromUint64(1), uint256.NewInt(0))
	assert.ErrorIs(t, err, nileerr.ErrTokenNotFound)
}

func TestRouterReturnsNotGraduatedOnceCurveInactive(t *testing.T) {
	r, _, personID := newHarness(t)
	_, err := r.Buy(testBuyer, personID, fixedpoint.FromUint64(2_000), uint256.NewInt(0))
	require.NoError(t, err)

	_, err = r.Buy(testBuyer, personID, fixedpoint.FromUint64(1), uint256.NewInt(0))
	assert.ErrorIs(t, err, nileerr.ErrNotGraduated)
}
