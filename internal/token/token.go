// Package token implements the per-person fungible token: mint/burn
// gated by a single minter, a monotonic phase machine, and a thin
// permit stub. Grounded on the teacher's Member/ProjectFinance ledger
// shape (contract/types.go, contract/state_treasury.go) generalized
// from a per-project multi-asset ledger to a per-person single-asset
// fungible token, and on the teacher's persisted-map idiom
// (get/set/add through store.Store keyed by address) rather than a
// single Go map field, so balances survive the same way the rest of
// this module's state does.
package token

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/nile-protocol/nile-core/internal/chain"
	"github.com/nile-protocol/nile-core/internal/events"
	"github.com/nile-protocol/nile-core/internal/fixedpoint"
	"github.com/nile-protocol/nile-core/internal/nileerr"
	"github.com/nile-protocol/nile-core/internal/store"
)

// Phase is the token's lifecycle stage. It only ever moves forward.
type Phase uint8

const (
	PhaseBonding Phase = iota
	PhaseAMM
	PhaseOrderBook
)

func (p Phase) String() string {
	switch p {
	case PhaseBonding:
		return "bonding"
	case PhaseAMM:
		return "amm"
	case PhaseOrderBook:
		return "order_book"
	default:
		return "unknown"
	}
}

// Token is a single person's fungible unit.
type Token struct {
	PersonID uuid.UUID
	Factory  chain.Address // immutable
	Name     string
	Symbol   string

	minter      chain.Address
	phase       Phase
	graduated   bool
	totalSupply *uint256.Int

	st   store.Store
	bus  *events.Bus
	log  *zap.Logger
	addr chain.Address
}

// New constructs a token owned by factory, with no minter wired yet
// (Factory wires the curve as minter immediately after construction,
// per SPEC_FULL.md §4.4).
func New(personID uuid.UUID, factory chain.Address, name, symbol string, st store.Store, bus *events.Bus, log *zap.Logger) *Token {
	if log == nil {
		log = zap.NewNop()
	}
	return &Token{
		PersonID:    personID,
		Factory:     factory,
		Name:        name,
		Symbol:      symbol,
		phase:       PhaseBonding,
		totalSupply: uint256.NewInt(0),
		st:          st,
		bus:         bus,
		log:         log,
		addr:        DeriveAddress(personID, "token"),
	}
}

// DeriveAddress salts a deterministic address for the token or curve
// belonging to personID, grounded on the teacher's byte-prefixed
// deterministic storage-key derivation (contract/keys.go) generalized
// from a storage key to an opaque address: sha256(role-tag ‖
// person_id) truncated to a hex string, the same "salted address
// derivation" chain_service.py's createSoulToken implies exists on
// the Solidity side (CREATE2-style) without depending on any chain
// specifics here.
func DeriveAddress(personID uuid.UUID, role string) chain.Address {
	h := sha256.New()
	h.Write([]byte("nile:" + role + ":"))
	idBytes := personID
	h.Write(idBytes[:])
	sum := h.Sum(nil)
	return chain.Address(fmt.Sprintf("contract:%x", sum[:20]))
}

func (t *Token) Address() chain.Address    { return t.addr }
func (t *Token) Minter() chain.Address     { return t.minter }
func (t *Token) Phase() Phase              { return t.phase }
func (t *Token) Graduated() bool           { return t.graduated }
func (t *Token) TotalSupply() *uint256.Int { return new(uint256.Int).Set(t.totalSupply) }

func balanceKey(addr chain.Address) string {
	return store.AddrKey(store.PrefixTokenBalance, string(addr))
}

func allowanceKey(owner, spender chain.Address) string {
	return store.PairKey(store.PrefixTokenAllowance, string(owner), string(spender))
}

func nonceKey(owner chain.Address) string {
	return store.AddrKey(store.PrefixPermitNonce, string(owner))
}

// BalanceOf returns addr's balance, defaulting to zero.
func (t *Token) BalanceOf(addr chain.Address) *uint256.Int {
	v, ok := t.st.Get(balanceKey(addr))
	if !ok {
		return uint256.NewInt(0)
	}
	bal, _ := uint256.FromHex(v)
	if bal == nil {
		return uint256.NewInt(0)
	}
	return bal
}

func (t *Token) setBalance(addr chain.Address, bal *uint256.Int) {
	t.st.Set(balanceKey(addr), bal.Hex())
}

// Mint increases to's balance and total supply. Only the current
// minter may call it.
func (t *Token) Mint(caller, to chain.Address, amount *uint256.Int) error {
	if caller != t.minter {
		return nileerr.ErrOnlyMinter
	}
	if to.IsZero() {
		return nileerr.ErrZeroAddress
	}
	newSupply, err := fixedpoint.SafeAdd(t.totalSupply, amount)
	if err != nil {
		return err
	}
	newBal, err := fixedpoint.SafeAdd(t.BalanceOf(to), amount)
	if err != nil {
		return err
	}
	t.totalSupply = newSupply
	t.setBalance(to, newBal)
	return nil
}

// Burn decreases from's balance and total supply. Only the current
// minter may call it.
func (t *Token) Burn(caller, from chain.Address, amount *uint256.Int) error {
	if caller != t.minter {
		return nileerr.ErrOnlyMinter
	}
	bal := t.BalanceOf(from)
	if bal.Lt(amount) {
		return nileerr.ErrInsufficientTokens
	}
	newSupply, err := fixedpoint.SafeSub(t.totalSupply, amount)
	if err != nil {
		return err
	}
	newBal, err := fixedpoint.SafeSub(bal, amount)
	if err != nil {
		return err
	}
	t.totalSupply = newSupply
	t.setBalance(from, newBal)
	return nil
}

// SetMinter rotates the minter. Only the factory may call it. Setting
// the zero address disables minting (used during controlled
// shutdowns).
func (t *Token) SetMinter(caller, newMinter chain.Address) error {
	if caller != t.Factory {
		return nileerr.ErrOnlyFactory
	}
	old := t.minter
	t.minter = newMinter
	t.bus.Emit(events.MinterUpdated, zap.String("old", string(old)), zap.String("new", string(newMinter)))
	return nil
}

// SetPhase advances the phase. Only the factory may call it. Moving
// into PhaseAMM irreversibly sets Graduated. A move to an earlier
// phase fails ErrAlreadyGraduated.
func (t *Token) SetPhase(caller chain.Address, newPhase Phase) error {
	if caller != t.Factory {
		return nileerr.ErrOnlyFactory
	}
	if newPhase < t.phase {
		return nileerr.ErrAlreadyGraduated
	}
	old := t.phase
	t.phase = newPhase
	if newPhase == PhaseAMM {
		t.graduated = true
	}
	t.bus.Emit(events.PhaseChanged, zap.String("old", old.String()), zap.String("new", newPhase.String()))
	return nil
}

// Approve sets spender's allowance over owner's balance.
func (t *Token) Approve(owner, spender chain.Address, amount *uint256.Int) {
	t.st.Set(allowanceKey(owner, spender), amount.Hex())
}

// Allowance returns spender's remaining allowance over owner's balance.
func (t *Token) Allowance(owner, spender chain.Address) *uint256.Int {
	v, ok := t.st.Get(allowanceKey(owner, spender))
	if !ok {
		return uint256.NewInt(0)
	}
	a, _ := uint256.FromHex(v)
	if a == nil {
		return uint256.NewInt(0)
	}
	return a
}

// TransferFrom moves amount from owner to recipient on spender's
// behalf, consuming allowance. Used by the Router to pull tokens into
// a sell.
func (t *Token) TransferFrom(spender, owner, recipient chain.Address, amount *uint256.Int) error {
	allowance := t.Allowance(owner, spender)
	if allowance.Lt(amount) {
		return nileerr.ErrInsufficientTokens
	}
	bal := t.BalanceOf(owner)
	if bal.Lt(amount) {
		return nileerr.ErrInsufficientTokens
	}
	newAllowance, err := fixedpoint.SafeSub(allowance, amount)
	if err != nil {
		return err
	}
	newOwnerBal, err := fixedpoint.SafeSub(bal, amount)
	if err != nil {
		return err
	}
	newRecipientBal, err := fixedpoint.SafeAdd(t.BalanceOf(recipient), amount)
	if err != nil {
		return err
	}
	t.Approve(owner, spender, newAllowance)
	t.setBalance(owner, newOwnerBal)
	t.setBalance(recipient, newRecipientBal)
	return nil
}

// Transfer moves amount directly from caller to recipient.
func (t *Token) Transfer(caller, recipient chain.Address, amount *uint256.Int) error {
	bal := t.BalanceOf(caller)
	if bal.Lt(amount) {
		return nileerr.ErrInsufficientTokens
	}
	newCallerBal, err := fixedpoint.SafeSub(bal, amount)
	if err != nil {
		return err
	}
	newRecipientBal, err := fixedpoint.SafeAdd(t.BalanceOf(recipient), amount)
	if err != nil {
		return err
	}
	t.setBalance(caller, newCallerBal)
	t.setBalance(recipient, newRecipientBal)
	return nil
}

// PermitNonce returns owner's current permit nonce.
func (t *Token) PermitNonce(owner chain.Address) uint64 {
	v, ok := t.st.Get(nonceKey(owner))
	if !ok {
		return 0
	}
	var n uint64
	buf := []byte(v)
	if len(buf) == 8 {
		n = binary.LittleEndian.Uint64(buf)
	}
	return n
}

// Permit validates a domain-separated delegated-approval request and,
// on success, advances owner's nonce and sets the allowance. Per
// SPEC_FULL.md §4.2 this is a deliberate stub: it enforces domain
// separation (chain id + token address folded into the signed digest)
// and nonce monotonicity, but does not perform ECDSA signature
// recovery, since no signer/verifier is part of this spec's trust
// boundary.
func (t *Token) Permit(chainID uint64, owner, spender chain.Address, amount *uint256.Int, nonce uint64, digest [32]byte) error {
	if nonce != t.PermitNonce(owner) {
		return nileerr.ErrNotAuthorized
	}
	expected := t.permitDigest(chainID, owner, spender, amount, nonce)
	if expected != digest {
		return nileerr.ErrNotAuthorized
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, nonce+1)
	t.st.Set(nonceKey(owner), string(buf))
	t.Approve(owner, spender, amount)
	return nil
}

// permitDigest folds the chain id and token address into the signed
// payload so a permit signed for one token/chain cannot be replayed
// against another, matching the domain-separation requirement called
// out in SPEC_FULL.md §4.2.
func (t *Token) permitDigest(chainID uint64, owner, spender chain.Address, amount *uint256.Int, nonce uint64) [32]byte {
	h := sha256.New()
	var chainBuf [8]byte
	binary.LittleEndian.PutUint64(chainBuf[:], chainID)
	h.Write(chainBuf[:])
	h.Write([]byte(t.addr))
	h.Write([]byte(owner))
	h.Write([]byte(spender))
	h.Write(amount.Bytes())
	var nonceBuf [8]byte
	binary.LittleEndian.PutUint64(nonceBuf[:], nonce)
	h.Write(nonceBuf[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
