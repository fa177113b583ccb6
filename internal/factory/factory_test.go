package factory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nile-protocol/nile-core/internal/chain"
	"github.com/nile-protocol/nile-core/internal/events"
	"github.com/nile-protocol/nile-core/internal/fixedpoint"
	"github.com/nile-protocol/nile-core/internal/nileerr"
	"github.com/nile-protocol/nile-core/internal/store"
	"github.com/nile-protocol/nile-core/internal/token"
	"github.com/nile-protocol/nile-core/internal/treasury"
)

const (
	testOwner   chain.Address = "account:owner"
	testWallet  chain.Address = "account:wallet"
	testCreator chain.Address = "account:creator"
)

func newTestFactory(t *testing.T) *Factory {
	t.Helper()
	st := store.NewMemStore()
	bus := events.NewBus(nil)
	tr := treasury.New(testOwner, testWallet, st, bus, nil)
	return New(testOwner, fixedpoint.FromUint64(1_000), st, tr, bus, nil)
}

func TestCreateSoulTokenRejectsDuplicatePerson(t *testing.T) {
	f := newTestFactory(t)
	personID := uuid.New()

	_, err := f.CreateSoulToken(testCreator, personID, "Alice", "ALICE")
	require.NoError(t, err)

	_, err = f.CreateSoulToken(testCreator, personID, "Alice", "ALICE")
	assert.ErrorIs(t, err, nileerr.ErrTokenAlreadyExists)
}

func TestCreateSoulTokenWiresCurveAsMinter(t *testing.T) {
	f := newTestFactory(t)
	personID := uuid.New()

	pair, err := f.CreateSoulToken(testCreator, personID, "Alice", "ALICE")
	require.NoError(t, err)

	tok, err := f.Token(personID)
	require.NoError(t, err)
	assert.Equal(t, pair.Curve, tok.Minter())
}

func TestGetTokenPairUnknownFails(t *testing.T) {
	f := newTestFactory(t)
	_, err := f.GetTokenPair(uuid.New())
	assert.ErrorIs(t, err, nileerr.ErrTokenNotFound)
}

func TestTotalTokensCounts(t *testing.T) {
	f := newTestFactory(t)
	assert.Equal(t, 0, f.TotalTokens())
	_, err := f.CreateSoulToken(testCreator, uuid.New(), "Alice", "ALICE")
	require.NoError(t, err)
	_, err = f.CreateSoulToken(testCreator, uuid.New(), "Bob", "BOB")
	require.NoError(t, err)
	assert.Equal(t, 2, f.TotalTokens())
}

func TestSetGraduationThresholdRequiresOwner(t *testing.T) {
	f := newTestFactory(t)
	err := f.SetGraduationThreshold(testCreator, uint256.NewInt(1))
	assert.ErrorIs(t, err, nileerr.ErrNotAuthorized)
}

func TestGraduateTokenAdvancesPhaseAndRotatesMinter(t *testing.T) {
	f := newTestFactory(t)
	personID := uuid.New()
	_, err := f.CreateSoulToken(testCreator, personID, "Alice", "ALICE")
	require.NoError(t, err)

	newMinter := chain.Address("contract:post_graduation_amm")
	require.NoError(t, f.GraduateToken(testOwner, personID, newMinter))

	tok, err := f.Token(personID)
	require.NoError(t, err)
	assert.True(t, tok.Graduated())
	assert.Equal(t, token.PhaseAMM, tok.Phase())
	assert.Equal(t, newMinter, tok.Minter())
}

func TestGraduateTokenRejectsDoubleGraduation(t *testing.T) {
	f := newTestFactory(t)
	personID := uuid.New()
	_, err := f.CreateSoulToken(testCreator, personID, "Alice", "ALICE")
	require.NoError(t, err)

	newMinter := chain.Address("contract:post_graduation_amm")
	require.NoError(t, f.GraduateToken(testOwner, personID, newMinter))
	err = f.GraduateToken(testOwner, personID, newMinter)
	assert.ErrorIs(t, err, nileerr.ErrAlreadyGraduated)
}
