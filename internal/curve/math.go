package curve

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/nile-protocol/nile-core/internal/fixedpoint"
	"github.com/nile-protocol/nile-core/internal/nileerr"
)

// Bancor/PPM constants from SPEC_FULL.md §4.3/§4.1.
const (
	ReserveRatio uint64 = 333_333
	PPM          uint64 = 1_000_000

	FeeBps        uint64 = 100
	FeeCreatorBps uint64 = 50
	FeeProtocolBps uint64 = 30
	FeeStakerBps  uint64 = 20
)

// InitialReserve and InitialSupply are the virtual bootstrap
// quantities (10 coin and 100,000 tokens), already wad-scaled here.
var (
	InitialReserve = fixedpoint.FromUint64(10)
	InitialSupply  = fixedpoint.FromUint64(100_000)
)

// buyRatio is r = RESERVE_RATIO/PPM ≈ 1/3, the Bancor buy exponent.
var buyRatio = fixedpoint.Ratio{Numer: ReserveRatio, Denom: PPM}

// sellRatio is 1/r = PPM/RESERVE_RATIO ≈ 3.000003, the Bancor sell
// exponent.
var sellRatio = fixedpoint.Ratio{Numer: PPM, Denom: ReserveRatio}

// CalcBuy returns the number of tokens minted for a net coin amount v
// (fees already deducted) against the given effective supply and
// reserve balance: supply · ((1 + v/reserve)^r − 1).
func CalcBuy(supply, reserve, v *uint256.Int) (*uint256.Int, error) {
	if v.IsZero() || reserve.IsZero() {
		return uint256.NewInt(0), nil
	}
	x, err := fixedpoint.DivWad(v, reserve)
	if err != nil {
		return nil, err
	}
	pow, err := fixedpoint.PowApprox(x, buyRatio)
	if err != nil {
		return nil, err
	}
	delta, err := fixedpoint.SafeSub(pow, fixedpoint.Wad)
	if err != nil {
		return nil, err
	}
	return fixedpoint.MulWad(supply, delta)
}

// CalcSell returns the gross coin amount (fees not yet deducted) for
// selling tokenAmount tokens against the given effective supply and
// reserve balance: reserve · (1 − (1 − t/supply)^(1/r)). The result
// saturates at reserve so a sell can never be quoted more coin than
// the curve actually holds.
func CalcSell(supply, reserve, tokenAmount *uint256.Int) (*uint256.Int, error) {
	if tokenAmount.IsZero() || supply.IsZero() {
		return uint256.NewInt(0), nil
	}
	x, err := fixedpoint.DivWad(tokenAmount, supply)
	if err != nil {
		return nil, err
	}
	pow, err := fixedpoint.PowApproxOneMinusX(x, sellRatio)
	if err != nil {
		return nil, err
	}
	delta, err := fixedpoint.SafeSub(fixedpoint.Wad, pow)
	if err != nil {
		return nil, err
	}
	gross, err := fixedpoint.MulWad(reserve, delta)
	if err != nil {
		return nil, err
	}
	if gross.Gt(reserve) {
		return new(uint256.Int).Set(reserve), nil
	}
	return gross, nil
}

// CurrentPrice returns the instantaneous marginal price, coin-per-token
// in wad: reserve · PPM / (supply · RESERVE_RATIO / 1e18).
func CurrentPrice(supply, reserve *uint256.Int) (*uint256.Int, error) {
	if supply.IsZero() {
		return nil, nileerr.ErrDivByZero
	}
	num := new(big.Int).Mul(reserve.ToBig(), big.NewInt(0).SetUint64(PPM))
	num.Mul(num, fixedpoint.Wad.ToBig())
	den := new(big.Int).Mul(supply.ToBig(), big.NewInt(0).SetUint64(ReserveRatio))
	if den.Sign() == 0 {
		return nil, nileerr.ErrDivByZero
	}
	num.Div(num, den)
	z, overflow := uint256.FromBig(num)
	if overflow {
		return nil, nileerr.ErrOverflow
	}
	return z, nil
}

// BpsFee splits v into (net, fee) where fee = v·bps/10_000.
func BpsFee(v *uint256.Int, bps uint64) (net, fee *uint256.Int, err error) {
	fee, err = fixedpoint.SafeBpsMultiply(v, bps)
	if err != nil {
		return nil, nil, err
	}
	net, err = fixedpoint.SafeSub(v, fee)
	if err != nil {
		return nil, nil, err
	}
	return net, fee, nil
}
