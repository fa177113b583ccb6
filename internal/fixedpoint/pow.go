package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/nile-protocol/nile-core/internal/nileerr"
)

// RegimeBoundary is x = 0.1 in wad, the documented switch point
// between the linear and quadratic approximation regimes.
var RegimeBoundary = new(uint256.Int).Div(Wad, uint256.NewInt(10))

// Ratio is an exact rational exponent n = Numer/Denom, used instead of
// a pre-rounded wad value so that r = RESERVE_RATIO/PPM (≈0.333…) and
// 1/r = PPM/RESERVE_RATIO (≈3.000003…) are both represented without
// compounding rounding error before the power approximation even
// starts.
type Ratio struct {
	Numer uint64
	Denom uint64
}

// wadBig returns Numer/Denom scaled to wad, as a signed big.Int so the
// quadratic regime's n(n-1) term can carry a sign through the
// computation instead of needing ad hoc underflow clamps at each step.
func (r Ratio) wadBig() *big.Int {
	n := new(big.Int).Mul(big.NewInt(0).SetUint64(r.Numer), wadBig)
	n.Div(n, big.NewInt(0).SetUint64(r.Denom))
	return n
}

// PowApprox approximates (1+x)^n for x in wad (x ∈ [0, 1e18)) and n
// given as the exact ratio Numer/Denom, per the spec's two-regime
// bounded polynomial expansion:
//
//	linear    (x < 0.1):  (1+x)^n ≈ 1 + n·x
//	quadratic (x ≥ 0.1):  (1+x)^n ≈ 1 + n·x + n(n-1)·x²/2
//
// Used directly by CalcBuy. The result is wad-scaled and represents
// the full (1+x)^n value; CalcBuy subtracts Wad itself to get the
// "-1" the Bancor formula needs.
func PowApprox(x *uint256.Int, n Ratio) (*uint256.Int, error) {
	return powSeries(x.ToBig(), x, n, wadBig)
}

// PowApproxOneMinusX approximates (1-x)^n for x ∈ [0, 1e18), used by
// CalcSell. It reuses the same Taylor expansion around y = -x: since
// the quadratic term depends on y² = x², only the linear term's sign
// flips relative to PowApprox — both are computed through the shared
// powSeries helper below. Unlike PowApprox, (1-x)^n ∈ [0, 1) for any
// x > 0, so the result is floored at zero rather than at Wad.
func PowApproxOneMinusX(x *uint256.Int, n Ratio) (*uint256.Int, error) {
	return powSeries(new(big.Int).Neg(x.ToBig()), x, n, bigZero)
}

// powSeries evaluates 1 + n·y + n(n-1)·y²/2 (y = +x or -x) in signed
// big.Int space so the quadratic regime's sign arithmetic needs no ad
// hoc clamping, then floors the result at floor and converts back to
// uint256, erroring if the final value overflows 256 bits. floor is
// Wad for the buy direction ((1+x)^n ≥ 1) and zero for the sell
// direction ((1-x)^n ∈ [0, 1)); bounded-polynomial error could in
// principle push either a hair past its true bound right at the
// regime boundary.
func powSeries(y *big.Int, xMag *uint256.Int, n Ratio, floor *big.Int) (*uint256.Int, error) {
	nBig := n.wadBig()

	ny := new(big.Int).Mul(nBig, y)
	ny.Div(ny, wadBig)

	result := new(big.Int).Add(wadBig, ny)

	if xMag.Lt(RegimeBoundary) {
		return clampAndConvert(result, floor)
	}

	nMinus1 := new(big.Int).Sub(nBig, wadBig)
	y2 := new(big.Int).Mul(y, y)
	y2.Div(y2, wadBig)
	term := new(big.Int).Mul(nBig, nMinus1)
	term.Div(term, wadBig)
	term.Mul(term, y2)
	term.Div(term, wadBig)
	term.Div(term, big.NewInt(2))

	result.Add(result, term)
	return clampAndConvert(result, floor)
}

func clampAndConvert(v, floor *big.Int) (*uint256.Int, error) {
	if v.Cmp(floor) < 0 {
		v = floor
	}
	z, overflow := uint256.FromBig(v)
	if overflow {
		return nil, nileerr.ErrOverflow
	}
	return z, nil
}
