package fixedpoint

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nile-protocol/nile-core/internal/nileerr"
)

func TestMulWadDivWad(t *testing.T) {
	two := FromUint64(2)
	half, err := DivWad(Wad, two)
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", half.Dec())

	back, err := MulWad(half, two)
	require.NoError(t, err)
	assert.Equal(t, Wad.Dec(), back.Dec())
}

func TestDivWadByZero(t *testing.T) {
	_, err := DivWad(Wad, uint256.NewInt(0))
	assert.ErrorIs(t, err, nileerr.ErrDivByZero)
}

func TestSafeSubUnderflow(t *testing.T) {
	_, err := SafeSub(uint256.NewInt(1), uint256.NewInt(2))
	require.Error(t, err)
}

func TestSafeAddOverflow(t *testing.T) {
	max := new(uint256.Int).Not(uint256.NewInt(0)) // 2^256 - 1
	_, err := SafeAdd(max, uint256.NewInt(1))
	require.Error(t, err)
}

func TestPowApproxLinearRegimeMatchesFirstOrder(t *testing.T) {
	// x small (0.01), n = 1/3: expect ~1 + n*x.
	x := new(uint256.Int).Div(Wad, uint256.NewInt(100))
	n := Ratio{Numer: 1, Denom: 3}
	got, err := PowApprox(x, n)
	require.NoError(t, err)
	assert.True(t, got.Gt(Wad), "power approximation must exceed 1.0 for x>0,n>0")
	// n in wad is 333333333333333333; n*x = 3333333333333333.
	assert.Equal(t, "1003333333333333333", got.Dec())
}

func TestPowApproxMonotoneInX(t *testing.T) {
	n := Ratio{Numer: 1, Denom: 3}
	prev := Wad
	for _, pct := range []uint64{1, 5, 10, 20, 50, 90} {
		x := new(uint256.Int).Div(new(uint256.Int).Mul(Wad, uint256.NewInt(pct)), uint256.NewInt(100))
		got, err := PowApprox(x, n)
		require.NoError(t, err)
		assert.False(t, got.Lt(prev), "PowApprox must be monotone non-decreasing in x")
		prev = got
	}
}

func TestPowApproxSellRegimeAboveOne(t *testing.T) {
	// n = 1/r ≈ 3.000003, n-1 > 0, quadratic regime should add, not subtract.
	x := new(uint256.Int).Div(Wad, uint256.NewInt(2)) // x = 0.5
	n := Ratio{Numer: 1_000_000, Denom: 333_333}
	got, err := PowApprox(x, n)
	require.NoError(t, err)
	assert.True(t, got.Gt(Wad))
}

func TestPowApproxOneMinusXBelowOne(t *testing.T) {
	x := new(uint256.Int).Div(Wad, uint256.NewInt(4)) // x = 0.25
	n := Ratio{Numer: 1_000_000, Denom: 333_333}
	got, err := PowApproxOneMinusX(x, n)
	require.NoError(t, err)
	assert.True(t, got.Lt(Wad), "(1-x)^n for x>0 must be below 1.0")
	assert.False(t, got.IsZero())
}

func TestPowApproxOneMinusXMonotoneInX(t *testing.T) {
	n := Ratio{Numer: 1_000_000, Denom: 333_333}
	prev := Wad
	for _, pct := range []uint64{1, 5, 10, 20, 50, 90} {
		x := new(uint256.Int).Div(new(uint256.Int).Mul(Wad, uint256.NewInt(pct)), uint256.NewInt(100))
		got, err := PowApproxOneMinusX(x, n)
		require.NoError(t, err)
		assert.False(t, got.Gt(prev), "PowApproxOneMinusX must be monotone non-increasing in x")
		prev = got
	}
}
