// Package router implements the single trade-dispatch entry point:
// look up a person's pair in the factory, forward to the curve if
// still bonding, or fail ErrNotGraduated if the post-graduation venue
// hasn't landed yet. Owns the mint-to-router-then-forward mechanics
// the resolved Open Question in SPEC_FULL.md §9 settles on.
//
// Grounded on the teacher's thin dispatch pattern in contract/main.go
// (decode payload, look up the addressed sub-resource, delegate),
// generalized from "route a wasm entrypoint call to a handler
// function" to "route a trade to the right curve".
package router

import (
	"sync"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nile-protocol/nile-core/internal/chain"
	"github.com/nile-protocol/nile-core/internal/curve"
	"github.com/nile-protocol/nile-core/internal/events"
	"github.com/nile-protocol/nile-core/internal/factory"
	"github.com/nile-protocol/nile-core/internal/nileerr"
)

// PostGraduationVenue is the seam a future AMM integration would
// implement. SPEC_FULL.md §9 keeps this deliberately unimplemented:
// no type in this module satisfies it, and Router.Buy/Sell always
// return ErrNotGraduated for a graduated token.
type PostGraduationVenue interface {
	Buy(caller chain.Address, personID uuid.UUID, v, minTokensOut *uint256.Int) (*uint256.Int, error)
	Sell(caller chain.Address, personID uuid.UUID, tokenAmount, minCoinOut *uint256.Int) (*uint256.Int, error)
}

// Router is the address the curve mints newly bought tokens to before
// this package forwards them on to the real buyer in the same call.
type Router struct {
	addr    chain.Address
	factory *factory.Factory
	venue   PostGraduationVenue // nil until an AMM integration exists

	bus *events.Bus
	log *zap.Logger

	guard sync.Mutex
}

// New constructs a Router at addr, dispatching against f. venue may
// be nil (the common case, per the deferred post-graduation Open
// Question). venue is stored but not consulted: every graduated-token
// trade returns ErrNotGraduated whether venue is nil or not.
func New(addr chain.Address, f *factory.Factory, venue PostGraduationVenue, bus *events.Bus, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{addr: addr, factory: f, venue: venue, bus: bus, log: log}
}

func (r *Router) Address() chain.Address { return r.addr }

func (r *Router) resolve(personID uuid.UUID) (*curve.Curve, error) {
	c, err := r.factory.Curve(personID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Buy routes a buy to personID's curve if it is still active. Tokens
// are minted to the Router itself (curve.Buy's mint destination) and
// immediately forwarded to buyer within the same call, per the
// resolved mint-to-router-then-forward design.
func (r *Router) Buy(buyer chain.Address, personID uuid.UUID, v, minTokensOut *uint256.Int) (*uint256.Int, error) {
	if !r.guard.TryLock() {
		return nil, nileerr.ErrReentrant
	}
	defer r.guard.Unlock()

	c, err := r.resolve(personID)
	if err != nil {
		return nil, err
	}
	if !c.Active() {
		return nil, nileerr.ErrNotGraduated
	}

	tokensOut, err := c.Buy(r.addr, v, minTokensOut)
	if err != nil {
		return nil, errors.Wrap(err, "router: curve buy")
	}

	tok, err := r.factory.Token(personID)
	if err != nil {
		return nil, errors.Wrap(err, "router: resolve token after buy")
	}
	if err := tok.Transfer(r.addr, buyer, tokensOut); err != nil {
		return nil, errors.Wrap(err, "router: forward minted tokens to buyer")
	}

	newPrice, err := c.CurrentPriceSnapshot()
	if err != nil {
		r.log.Warn("router: could not snapshot price after buy", zap.Error(err))
	}
	r.bus.Emit(events.Buy,
		zap.String("buyer", string(buyer)),
		zap.String("coin_in", v.Dec()),
		zap.String("tokens_out", tokensOut.Dec()),
		zap.String("new_price", priceOrUnknown(newPrice)),
	)
	return tokensOut, nil
}

// Sell pulls tokenAmount from seller (via prior allowance to the
// Router), routes the sell to personID's curve, and returns the net
// coin the caller must forward to seller.
func (r *Router) Sell(seller chain.Address, personID uuid.UUID, tokenAmount, minCoinOut *uint256.Int) (*uint256.Int, error) {
	if !r.guard.TryLock() {
		return nil, nileerr.ErrReentrant
	}
	defer r.guard.Unlock()

	c, err := r.resolve(personID)
	if err != nil {
		return nil, err
	}
	if !c.Active() {
		return nil, nileerr.ErrNotGraduated
	}

	tok, err := r.factory.Token(personID)
	if err != nil {
		return nil, err
	}
	prevAllowance := tok.Allowance(seller, r.addr)
	if err := tok.TransferFrom(r.addr, seller, r.addr, tokenAmount); err != nil {
		return nil, errors.Wrap(err, "router: pull tokens from seller")
	}

	netOut, err := c.Sell(r.addr, tokenAmount, minCoinOut)
	if err != nil {
		// Undo the pull so a failed sell leaves no partial effect.
		if rbErr := tok.Transfer(r.addr, seller, tokenAmount); rbErr == nil {
			tok.Approve(seller, r.addr, prevAllowance)
		}
		return nil, errors.Wrap(err, "router: curve sell")
	}

	newPrice, err := c.CurrentPriceSnapshot()
	if err != nil {
		r.log.Warn("router: could not snapshot price after sell", zap.Error(err))
	}
	r.bus.Emit(events.Sell,
		zap.String("seller", string(seller)),
		zap.String("tokens_in", tokenAmount.Dec()),
		zap.String("coin_out", netOut.Dec()),
		zap.String("new_price", priceOrUnknown(newPrice)),
	)
	return netOut, nil
}

// QuoteBuy/QuoteSell pass straight through to the resolved curve, no
// re-entrancy guard needed since neither mutates state.
func (r *Router) QuoteBuy(personID uuid.UUID, v *uint256.Int) (*uint256.Int, error) {
	c, err := r.resolve(personID)
	if err != nil {
		return nil, err
	}
	return c.QuoteBuy(v)
}

func (r *Router) QuoteSell(personID uuid.UUID, tokenAmount *uint256.Int) (*uint256.Int, error) {
	c, err := r.resolve(personID)
	if err != nil {
		return nil, err
	}
	return c.QuoteSell(tokenAmount)
}

func priceOrUnknown(p *uint256.Int) string {
	if p == nil {
		return "unknown"
	}
	return p.Dec()
}
