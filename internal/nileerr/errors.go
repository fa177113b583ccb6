// Package nileerr defines the sentinel error vocabulary shared by
// every component. The teacher signals failure by calling
// sdk.Abort/sdk.Revert, which panics back across the wasm host
// boundary with a message and an optional short symbol; this module
// runs as a plain Go library rather than a wasm guest, so each
// "revert symbol" becomes a package-level sentinel error instead,
// matchable with errors.Is and optionally wrapped with
// github.com/pkg/errors for call-site context.
package nileerr

import "errors"

var (
	// Validation — recoverable at the caller, occur before any
	// state mutation.
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrInsufficientTokens  = errors.New("insufficient tokens")
	ErrSlippageExceeded    = errors.New("slippage exceeded")
	ErrInvalidImpactScore  = errors.New("invalid impact score")

	// Authorization — always abort with no partial effects.
	ErrOnlyMinter    = errors.New("only minter")
	ErrOnlyFactory   = errors.New("only factory")
	ErrNotAuthorized = errors.New("not authorized")

	// Consistency — surfaced to the caller, invariants remain intact.
	ErrTokenAlreadyExists = errors.New("token already exists")
	ErrTokenNotFound      = errors.New("token not found")
	ErrCurveNotActive     = errors.New("curve not active")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrAlreadyFinalized   = errors.New("already finalized")
	ErrNotGraduated       = errors.New("not graduated")
	ErrAlreadyGraduated   = errors.New("already graduated")

	// Ambient: no report exists at the given id. Not among the
	// spec's 17 named tags, but Oracle.Vote/GetReport need a
	// distinct not-found tag of their own.
	ErrReportNotFound = errors.New("report not found")

	// Transfer failure.
	ErrTransferFailed = errors.New("transfer failed")

	// Shared.
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrZeroAddress         = errors.New("zero address")

	// Ambient: the boolean-flag re-entrancy guard's rejection. Not
	// named in the spec's taxonomy, but required to distinguish "this
	// operation is already running" from a business-logic failure.
	ErrReentrant = errors.New("reentrant call rejected")

	// Arithmetic substrate.
	ErrOverflow  = errors.New("arithmetic overflow")
	ErrDivByZero = errors.New("division by zero")
)
