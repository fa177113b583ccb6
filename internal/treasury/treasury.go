// Package treasury implements the fee splitter: atomic receipt of
// trading fees, a per-creator balance ledger, protocol and
// staker-pool accounting, and guarded withdrawals.
//
// Grounded directly on the teacher's per-project multi-asset treasury
// ledger (contract/state_treasury.go: getTreasuryBalance/
// setTreasuryBalance/addTreasuryFunds/removeTreasuryFunds), generalized
// from "one balance per (project, asset)" to "one balance per
// creator address" plus the three protocol-wide running counters the
// spec names. Every counter, including the running protocol/staker
// ledgers (not just per-creator balances), is persisted through
// store.Store; ReceiveFees stages its six writes in a store.Tx so a
// mid-operation overflow leaves no partial ledger update behind.
package treasury

import (
	"sync"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/nile-protocol/nile-core/internal/chain"
	"github.com/nile-protocol/nile-core/internal/events"
	"github.com/nile-protocol/nile-core/internal/fixedpoint"
	"github.com/nile-protocol/nile-core/internal/nileerr"
	"github.com/nile-protocol/nile-core/internal/store"
)

const (
	ledgerProtocolPending    = "protocol_pending"
	ledgerProtocolCumulative = "protocol_cumulative"
	ledgerTotalCreatorFees   = "total_creator_fees"
	ledgerTotalStakerFees    = "total_staker_fees"
	ledgerStakerPool         = "staker_pool"
)

// Treasury owns the fee ledger. Owner-gated operations are guarded by
// the caller == owner check: the owner address granted at construction
// acts as the capability handle.
type Treasury struct {
	owner          chain.Address
	protocolWallet chain.Address

	st  store.Store
	bus *events.Bus
	log *zap.Logger

	withdrawGuard sync.Mutex
}

// New constructs a Treasury owned by owner, paying protocol
// withdrawals to protocolWallet.
func New(owner, protocolWallet chain.Address, st store.Store, bus *events.Bus, log *zap.Logger) *Treasury {
	if log == nil {
		log = zap.NewNop()
	}
	return &Treasury{
		owner:          owner,
		protocolWallet: protocolWallet,
		st:             st,
		bus:            bus,
		log:            log,
	}
}

func creatorBalanceKey(creator chain.Address) string {
	return store.AddrKey(store.PrefixCreatorBalance, string(creator))
}

func ledgerKey(name string) string {
	return store.AddrKey(store.PrefixTreasuryLedger, name)
}

// getUint reads a wad-scaled counter from s, defaulting to zero.
func getUint(s store.Store, key string) *uint256.Int {
	v, ok := s.Get(key)
	if !ok {
		return uint256.NewInt(0)
	}
	n, err := uint256.FromHex(v)
	if err != nil || n == nil {
		return uint256.NewInt(0)
	}
	return n
}

func setUint(s store.Store, key string, v *uint256.Int) {
	s.Set(key, v.Hex())
}

// CreatorBalance returns creator's withdrawable balance, adapted from
// the teacher's getTreasuryBalance.
func (t *Treasury) CreatorBalance(creator chain.Address) *uint256.Int {
	return getUint(t.st, creatorBalanceKey(creator))
}

func (t *Treasury) setCreatorBalance(creator chain.Address, bal *uint256.Int) {
	setUint(t.st, creatorBalanceKey(creator), bal)
}

// ReceiveFees credits creator's balance and the protocol/staker
// counters with the three fee components a curve computed. Called by
// Curve.Buy/Sell after a trade; per SPEC_FULL.md §4.3, if this call
// itself fails the caller (Curve) retains the fee as reserve instead
// of losing it — that retention happens in the curve package, not
// here, since ReceiveFees' own failure must be side-effect-free. All
// six ledger entries this touches are staged in a single store.Tx and
// only committed once every SafeAdd has succeeded, so an overflow
// partway through never leaves the creator balance and the protocol
// counters out of sync with each other.
func (t *Treasury) ReceiveFees(creator chain.Address, creatorFee, protocolFee, stakerFee *uint256.Int) error {
	tx := store.Begin(t.st)

	newCreatorBal, err := fixedpoint.SafeAdd(getUint(tx, creatorBalanceKey(creator)), creatorFee)
	if err != nil {
		return err
	}
	newTotalCreator, err := fixedpoint.SafeAdd(getUint(tx, ledgerKey(ledgerTotalCreatorFees)), creatorFee)
	if err != nil {
		return err
	}
	newPending, err := fixedpoint.SafeAdd(getUint(tx, ledgerKey(ledgerProtocolPending)), protocolFee)
	if err != nil {
		return err
	}
	newCumulative, err := fixedpoint.SafeAdd(getUint(tx, ledgerKey(ledgerProtocolCumulative)), protocolFee)
	if err != nil {
		return err
	}
	newTotalStaker, err := fixedpoint.SafeAdd(getUint(tx, ledgerKey(ledgerTotalStakerFees)), stakerFee)
	if err != nil {
		return err
	}
	newPool, err := fixedpoint.SafeAdd(getUint(tx, ledgerKey(ledgerStakerPool)), stakerFee)
	if err != nil {
		return err
	}

	setUint(tx, creatorBalanceKey(creator), newCreatorBal)
	setUint(tx, ledgerKey(ledgerTotalCreatorFees), newTotalCreator)
	setUint(tx, ledgerKey(ledgerProtocolPending), newPending)
	setUint(tx, ledgerKey(ledgerProtocolCumulative), newCumulative)
	setUint(tx, ledgerKey(ledgerTotalStakerFees), newTotalStaker)
	setUint(tx, ledgerKey(ledgerStakerPool), newPool)
	tx.Commit()

	t.bus.Emit(events.FeesReceived,
		zap.String("creator", string(creator)),
		zap.String("creator_fee", creatorFee.Dec()),
		zap.String("protocol_fee", protocolFee.Dec()),
		zap.String("staker_fee", stakerFee.Dec()),
	)
	return nil
}

// CreatorWithdraw drains creator's entire balance to them. Guarded
// against re-entry with a non-blocking mutex, matching the
// boolean-flag pattern SPEC_FULL.md §5 mandates on this entry point.
func (t *Treasury) CreatorWithdraw(creator chain.Address) (*uint256.Int, error) {
	if !t.withdrawGuard.TryLock() {
		return nil, nileerr.ErrReentrant
	}
	defer t.withdrawGuard.Unlock()

	bal := t.CreatorBalance(creator)
	if bal.IsZero() {
		return nil, nileerr.ErrInsufficientBalance
	}
	t.setCreatorBalance(creator, uint256.NewInt(0))
	t.bus.Emit(events.CreatorWithdraw, zap.String("creator", string(creator)), zap.String("amount", bal.Dec()))
	return bal, nil
}

// ProtocolWithdraw drains protocol_pending to the protocol wallet,
// zeroing it; protocol_cumulative is left untouched, resolving the
// spec's Open Question by splitting "withdrawable" from "ever
// collected" (SPEC_FULL.md §9).
func (t *Treasury) ProtocolWithdraw(caller chain.Address) (*uint256.Int, error) {
	if caller != t.owner {
		return nil, nileerr.ErrNotAuthorized
	}
	if !t.withdrawGuard.TryLock() {
		return nil, nileerr.ErrReentrant
	}
	defer t.withdrawGuard.Unlock()

	amount := t.ProtocolPending()
	if amount.IsZero() {
		return nil, nileerr.ErrInsufficientBalance
	}
	setUint(t.st, ledgerKey(ledgerProtocolPending), uint256.NewInt(0))
	t.bus.Emit(events.ProtocolWithdraw, zap.String("wallet", string(t.protocolWallet)), zap.String("amount", amount.Dec()))
	return amount, nil
}

// SetProtocolWallet rotates the protocol wallet. Owner only.
func (t *Treasury) SetProtocolWallet(caller, newWallet chain.Address) error {
	if caller != t.owner {
		return nileerr.ErrNotAuthorized
	}
	if newWallet.IsZero() {
		return nileerr.ErrZeroAddress
	}
	old := t.protocolWallet
	t.protocolWallet = newWallet
	t.bus.Emit(events.ProtocolWalletSet, zap.String("old", string(old)), zap.String("new", string(newWallet)))
	return nil
}

func (t *Treasury) ProtocolPending() *uint256.Int {
	return getUint(t.st, ledgerKey(ledgerProtocolPending))
}
func (t *Treasury) ProtocolCumulative() *uint256.Int {
	return getUint(t.st, ledgerKey(ledgerProtocolCumulative))
}
func (t *Treasury) TotalCreatorFees() *uint256.Int {
	return getUint(t.st, ledgerKey(ledgerTotalCreatorFees))
}
func (t *Treasury) TotalStakerFees() *uint256.Int {
	return getUint(t.st, ledgerKey(ledgerTotalStakerFees))
}
func (t *Treasury) StakerPool() *uint256.Int {
	return getUint(t.st, ledgerKey(ledgerStakerPool))
}
func (t *Treasury) ProtocolWallet() chain.Address { return t.protocolWallet }
