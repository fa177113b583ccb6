// Package curve implements the per-person Bancor-style bonding curve:
// buy/sell against a virtual reserve, fee splitting into the treasury,
// slippage protection, and the one-way graduation trigger.
//
// Grounded on other_examples/AethelredFoundation-aethelred-core's
// BondingCurve type for the overall buy/sell/fee shape, with the
// re-entrancy guard and event-emission idiom carried over from the
// teacher's capability-gated state mutators (contract/state_treasury.go)
// generalized from "single asset move" to "mint-against-reserve", and
// with reserve_balance/active persisted through store.Store the same
// way the teacher's treasury balances are, rather than kept only as
// plain struct fields.
package curve

import (
	"sync"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/nile-protocol/nile-core/internal/chain"
	"github.com/nile-protocol/nile-core/internal/events"
	"github.com/nile-protocol/nile-core/internal/fixedpoint"
	"github.com/nile-protocol/nile-core/internal/nileerr"
	"github.com/nile-protocol/nile-core/internal/store"
	"github.com/nile-protocol/nile-core/internal/token"
)

// FeeSink receives a completed trade's fee split. Satisfied by
// *treasury.Treasury; expressed as an interface so curve tests can
// swap in a failing stub to exercise the graceful-degradation path.
type FeeSink interface {
	ReceiveFees(creator chain.Address, creatorFee, protocolFee, stakerFee *uint256.Int) error
}

// Curve is one person's bonding curve, minting/burning the paired
// Token against a reserve balance that starts at the virtual bootstrap
// quantities and grows/shrinks with every trade. reserveBalance and
// active live in store.Store, keyed by Address, rather than as plain
// fields — the struct itself only holds the immutable wiring.
type Curve struct {
	Address chain.Address
	Creator chain.Address
	tok     *token.Token
	sink    FeeSink

	graduationThreshold *uint256.Int

	st  store.Store
	bus *events.Bus
	log *zap.Logger

	guard sync.Mutex
}

// curveState is the persisted record for one curve's mutable balance
// and lifecycle flag.
type curveState struct {
	ReserveBalance string
	Active         bool
}

// New constructs a curve over tok, bootstrapped with the virtual
// InitialReserve/InitialSupply quantities per SPEC_FULL.md §4.3, and
// writes its initial state (active, reserve = InitialReserve) into st.
// The curve does not itself hold InitialSupply as real token balance —
// only tok.TotalSupply() plus this virtual offset is used for pricing.
func New(addr, creator chain.Address, tok *token.Token, sink FeeSink, graduationThreshold *uint256.Int, st store.Store, bus *events.Bus, log *zap.Logger) *Curve {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Curve{
		Address:             addr,
		Creator:             creator,
		tok:                 tok,
		sink:                sink,
		graduationThreshold: graduationThreshold,
		st:                  st,
		bus:                 bus,
		log:                 log,
	}
	c.saveState(curveState{ReserveBalance: InitialReserve.Hex(), Active: true})
	return c
}

func (c *Curve) stateKey() string {
	return store.AddrKey(store.PrefixCurveState, string(c.Address))
}

func (c *Curve) loadState() curveState {
	v, ok := c.st.Get(c.stateKey())
	if !ok {
		return curveState{ReserveBalance: InitialReserve.Hex(), Active: true}
	}
	s, err := store.FromJSON[curveState](v)
	if err != nil {
		return curveState{ReserveBalance: InitialReserve.Hex(), Active: true}
	}
	return s
}

func (c *Curve) saveState(s curveState) {
	v, err := store.ToJSON(s)
	if err != nil {
		return
	}
	c.st.Set(c.stateKey(), v)
}

func (c *Curve) effectiveSupply() *uint256.Int {
	supply, err := fixedpoint.SafeAdd(c.tok.TotalSupply(), InitialSupply)
	if err != nil {
		// InitialSupply is a small constant; only an already-overflowed
		// total supply could get here, which SafeAdd upstream would
		// have already rejected.
		return c.tok.TotalSupply()
	}
	return supply
}

func (c *Curve) Active() bool { return c.loadState().Active }

func (c *Curve) ReserveBalance() *uint256.Int {
	s := c.loadState()
	bal, err := uint256.FromHex(s.ReserveBalance)
	if err != nil || bal == nil {
		return uint256.NewInt(0)
	}
	return bal
}

func (c *Curve) GraduationThreshold() *uint256.Int {
	return new(uint256.Int).Set(c.graduationThreshold)
}

// QuoteBuy returns the tokens a payment v (gross, fee-inclusive) would
// mint, without mutating any state.
func (c *Curve) QuoteBuy(v *uint256.Int) (*uint256.Int, error) {
	net, _, err := BpsFee(v, FeeBps)
	if err != nil {
		return nil, err
	}
	return CalcBuy(c.effectiveSupply(), c.ReserveBalance(), net)
}

// QuoteSell returns the gross coin (before fee) a sell of tokenAmount
// would return, without mutating any state.
func (c *Curve) QuoteSell(tokenAmount *uint256.Int) (*uint256.Int, error) {
	return CalcSell(c.effectiveSupply(), c.ReserveBalance(), tokenAmount)
}

// CurrentPriceSnapshot returns the curve's instantaneous marginal
// price at its current supply/reserve, for event annotation.
func (c *Curve) CurrentPriceSnapshot() (*uint256.Int, error) {
	return CurrentPrice(c.effectiveSupply(), c.ReserveBalance())
}

// Buy mints tokens to buyer for payment v, taking the protocol fee cut
// off the top, and returns the tokens minted. minTokensOut enforces
// slippage protection. Guarded against re-entry per SPEC_FULL.md §5.
func (c *Curve) Buy(buyer chain.Address, v, minTokensOut *uint256.Int) (*uint256.Int, error) {
	if !c.guard.TryLock() {
		return nil, nileerr.ErrReentrant
	}
	defer c.guard.Unlock()

	state := c.loadState()
	if !state.Active {
		return nil, nileerr.ErrCurveNotActive
	}
	if v.IsZero() {
		return nil, nileerr.ErrInsufficientPayment
	}

	reserveBalance, err := uint256.FromHex(state.ReserveBalance)
	if err != nil || reserveBalance == nil {
		reserveBalance = uint256.NewInt(0)
	}

	net, fee, err := BpsFee(v, FeeBps)
	if err != nil {
		return nil, err
	}

	tokensOut, err := CalcBuy(c.effectiveSupply(), reserveBalance, net)
	if err != nil {
		return nil, err
	}
	if tokensOut.Lt(minTokensOut) {
		return nil, nileerr.ErrSlippageExceeded
	}

	newReserve, err := fixedpoint.SafeAdd(reserveBalance, net)
	if err != nil {
		return nil, err
	}
	if err := c.tok.Mint(c.Address, buyer, tokensOut); err != nil {
		return nil, err
	}
	state.ReserveBalance = newReserve.Hex()
	c.saveState(state)

	c.splitAndForwardFee(fee)
	c.bus.Emit(events.Buy,
		zap.String("buyer", string(buyer)),
		zap.String("payment", v.Dec()),
		zap.String("tokens_out", tokensOut.Dec()),
	)

	c.maybeGraduate()
	return tokensOut, nil
}

// Sell burns tokenAmount from seller and returns net coin owed, after
// the protocol fee cut. minCoinOut enforces slippage protection.
func (c *Curve) Sell(seller chain.Address, tokenAmount, minCoinOut *uint256.Int) (*uint256.Int, error) {
	if !c.guard.TryLock() {
		return nil, nileerr.ErrReentrant
	}
	defer c.guard.Unlock()

	state := c.loadState()
	if !state.Active {
		return nil, nileerr.ErrCurveNotActive
	}
	if tokenAmount.IsZero() {
		return nil, nileerr.ErrInsufficientTokens
	}

	reserveBalance, err := uint256.FromHex(state.ReserveBalance)
	if err != nil || reserveBalance == nil {
		reserveBalance = uint256.NewInt(0)
	}

	gross, err := CalcSell(c.effectiveSupply(), reserveBalance, tokenAmount)
	if err != nil {
		return nil, err
	}
	net, fee, err := BpsFee(gross, FeeBps)
	if err != nil {
		return nil, err
	}
	if net.Lt(minCoinOut) {
		return nil, nileerr.ErrSlippageExceeded
	}

	newReserve, err := fixedpoint.SafeSub(reserveBalance, gross)
	if err != nil {
		return nil, err
	}
	if err := c.tok.Burn(c.Address, seller, tokenAmount); err != nil {
		return nil, err
	}
	state.ReserveBalance = newReserve.Hex()
	c.saveState(state)

	c.splitAndForwardFee(fee)
	c.bus.Emit(events.Sell,
		zap.String("seller", string(seller)),
		zap.String("token_amount", tokenAmount.Dec()),
		zap.String("net_out", net.Dec()),
	)

	return net, nil
}

// splitAndForwardFee divides fee into creator/protocol/staker shares
// and forwards them to the treasury. Per SPEC_FULL.md §4.3, if the
// treasury call fails the fee is not lost: it stays inside
// reserveBalance, silently strengthening the curve's backing instead
// of reverting an otherwise-valid trade.
func (c *Curve) splitAndForwardFee(fee *uint256.Int) {
	creatorFee, err1 := fixedpoint.SafeBpsMultiply(fee, FeeCreatorBps*10_000/FeeBps)
	protocolFee, err2 := fixedpoint.SafeBpsMultiply(fee, FeeProtocolBps*10_000/FeeBps)
	if err1 != nil || err2 != nil {
		c.retainFeeAsReserve(fee)
		return
	}
	stakerFee, err := fixedpoint.SafeSub(fee, mustAdd(creatorFee, protocolFee))
	if err != nil {
		c.retainFeeAsReserve(fee)
		return
	}
	if err := c.sink.ReceiveFees(c.Creator, creatorFee, protocolFee, stakerFee); err != nil {
		c.log.Warn("fee forwarding failed, retaining as reserve",
			zap.String("curve", string(c.Address)), zap.Error(err))
		c.retainFeeAsReserve(fee)
	}
}

func mustAdd(a, b *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return a
	}
	return z
}

func (c *Curve) retainFeeAsReserve(fee *uint256.Int) {
	state := c.loadState()
	reserveBalance, err := uint256.FromHex(state.ReserveBalance)
	if err != nil || reserveBalance == nil {
		return
	}
	newReserve, err := fixedpoint.SafeAdd(reserveBalance, fee)
	if err != nil {
		return
	}
	state.ReserveBalance = newReserve.Hex()
	c.saveState(state)
}

// maybeGraduate flips the curve inactive the first time reserveBalance
// reaches the graduation threshold. One-way per SPEC_FULL.md §3/§4.3:
// once active is false it never becomes true again.
func (c *Curve) maybeGraduate() {
	state := c.loadState()
	if !state.Active {
		return
	}
	reserveBalance, err := uint256.FromHex(state.ReserveBalance)
	if err != nil || reserveBalance == nil {
		return
	}
	if reserveBalance.Lt(c.graduationThreshold) {
		return
	}
	state.Active = false
	c.saveState(state)
	c.bus.Emit(events.GraduationTriggered,
		zap.String("curve", string(c.Address)),
		zap.String("reserve_balance", reserveBalance.Dec()),
	)
}
