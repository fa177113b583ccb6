// Package factory implements the Token/Curve pair registry: one
// deterministic deployment per person, graduation thresholds, and the
// phase/minter rotation that hands a graduated token off to its
// post-graduation market.
//
// Grounded on the teacher's project registry (contract/state.go's
// project counter + ordered id list), generalized from "ordered list
// of project ids keyed by an auto-incrementing counter" to "one
// Token/Curve pair keyed by person_id", and on contract/keys.go's
// deterministic byte-prefixed key derivation, generalized to address
// derivation in token.DeriveAddress. The pair registry itself
// (person_id -> token/curve addresses, and the ordered deployment
// list) is persisted through store.Store; only the live Token/Curve
// handles — which carry behavior, not just data — stay in
// process-local maps, since a plain string-keyed store cannot hold an
// object with methods.
package factory

import (
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/nile-protocol/nile-core/internal/chain"
	"github.com/nile-protocol/nile-core/internal/curve"
	"github.com/nile-protocol/nile-core/internal/events"
	"github.com/nile-protocol/nile-core/internal/nileerr"
	"github.com/nile-protocol/nile-core/internal/store"
	"github.com/nile-protocol/nile-core/internal/token"
	"github.com/nile-protocol/nile-core/internal/treasury"
)

// TokenPair is the deployed address pair for one person, returned by
// CreateSoulToken and GetTokenPair.
type TokenPair struct {
	PersonID uuid.UUID
	Token    chain.Address
	Curve    chain.Address
	Creator  chain.Address
}

// pairRecord is TokenPair's on-disk shape (PersonID is carried by the
// key, not the value).
type pairRecord struct {
	Token   string
	Curve   string
	Creator string
}

// Factory owns the per-person registry and the default graduation
// threshold new curves are bootstrapped with.
type Factory struct {
	owner chain.Address

	graduationThreshold *uint256.Int
	tokens              map[uuid.UUID]*token.Token
	curves              map[uuid.UUID]*curve.Curve

	st       store.Store
	treasury *treasury.Treasury
	bus      *events.Bus
	log      *zap.Logger
}

// New constructs a Factory owned by owner, with initialThreshold as
// the graduation bar every newly deployed curve inherits.
func New(owner chain.Address, initialThreshold *uint256.Int, st store.Store, tr *treasury.Treasury, bus *events.Bus, log *zap.Logger) *Factory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Factory{
		owner:               owner,
		graduationThreshold: new(uint256.Int).Set(initialThreshold),
		tokens:              make(map[uuid.UUID]*token.Token),
		curves:              make(map[uuid.UUID]*curve.Curve),
		st:                  st,
		treasury:            tr,
		bus:                 bus,
		log:                 log,
	}
}

func pairKey(personID uuid.UUID) string {
	return store.PersonKey(store.PrefixTokenPair, personID)
}

func personIDListKey() string {
	return store.AddrKey(store.PrefixPersonIDList, "")
}

func (f *Factory) loadPersonIDs() []uuid.UUID {
	v, ok := f.st.Get(personIDListKey())
	if !ok {
		return nil
	}
	ids, err := store.FromJSON[[]uuid.UUID](v)
	if err != nil {
		return nil
	}
	return ids
}

func (f *Factory) appendPersonID(personID uuid.UUID) {
	ids := append(f.loadPersonIDs(), personID)
	v, err := store.ToJSON(ids)
	if err != nil {
		return
	}
	f.st.Set(personIDListKey(), v)
}

// CreateSoulToken deploys a new Token/Curve pair for personID, wires
// the curve as the token's sole minter, and records the pair in the
// registry. Fails ErrTokenAlreadyExists if personID is already
// registered.
func (f *Factory) CreateSoulToken(caller chain.Address, personID uuid.UUID, name, symbol string) (*TokenPair, error) {
	if _, exists := f.st.Get(pairKey(personID)); exists {
		return nil, nileerr.ErrTokenAlreadyExists
	}

	tok := token.New(personID, f.factoryAddress(), name, symbol, f.st, f.bus, f.log)
	curveAddr := token.DeriveAddress(personID, "curve")

	c := curve.New(curveAddr, caller, tok, f.treasury, f.graduationThreshold, f.st, f.bus, f.log)

	if err := tok.SetMinter(f.factoryAddress(), curveAddr); err != nil {
		return nil, err
	}

	pair := &TokenPair{
		PersonID: personID,
		Token:    tok.Address(),
		Curve:    curveAddr,
		Creator:  caller,
	}

	rec := pairRecord{Token: string(pair.Token), Curve: string(pair.Curve), Creator: string(pair.Creator)}
	v, err := store.ToJSON(rec)
	if err != nil {
		return nil, err
	}
	f.st.Set(pairKey(personID), v)
	f.appendPersonID(personID)

	f.tokens[personID] = tok
	f.curves[personID] = c

	f.bus.Emit(events.SoulTokenCreated,
		zap.String("person_id", personID.String()),
		zap.String("token", string(pair.Token)),
		zap.String("curve", string(pair.Curve)),
		zap.String("creator", string(caller)),
		zap.String("name", name),
		zap.String("symbol", symbol),
	)
	return pair, nil
}

// factoryAddress is the factory's own capability address, used as the
// `caller` value when it gates Token.SetMinter/SetPhase calls against
// itself. Deterministic and stable for the lifetime of the process.
func (f *Factory) factoryAddress() chain.Address {
	return chain.Address("contract:factory")
}

// GetTokenPair returns the deployed pair for personID, read through
// the persisted registry record, or ErrTokenNotFound.
func (f *Factory) GetTokenPair(personID uuid.UUID) (*TokenPair, error) {
	v, ok := f.st.Get(pairKey(personID))
	if !ok {
		return nil, nileerr.ErrTokenNotFound
	}
	rec, err := store.FromJSON[pairRecord](v)
	if err != nil {
		return nil, nileerr.ErrTokenNotFound
	}
	return &TokenPair{
		PersonID: personID,
		Token:    chain.Address(rec.Token),
		Curve:    chain.Address(rec.Curve),
		Creator:  chain.Address(rec.Creator),
	}, nil
}

// Token returns the live Token handle for personID, used by the
// Router to dispatch transfers. Returns ErrTokenNotFound if unknown.
func (f *Factory) Token(personID uuid.UUID) (*token.Token, error) {
	tok, ok := f.tokens[personID]
	if !ok {
		return nil, nileerr.ErrTokenNotFound
	}
	return tok, nil
}

// Curve returns the live Curve handle for personID, used by the
// Router to dispatch trades. Returns ErrTokenNotFound if unknown.
func (f *Factory) Curve(personID uuid.UUID) (*curve.Curve, error) {
	c, ok := f.curves[personID]
	if !ok {
		return nil, nileerr.ErrTokenNotFound
	}
	return c, nil
}

// TotalTokens returns the number of deployed pairs, counted off the
// persisted deployment-order list.
func (f *Factory) TotalTokens() int {
	return len(f.loadPersonIDs())
}

// SetGraduationThreshold rotates the threshold new curves are
// bootstrapped with. Owner only; does not affect already-deployed
// curves.
func (f *Factory) SetGraduationThreshold(caller chain.Address, newThreshold *uint256.Int) error {
	if caller != f.owner {
		return nileerr.ErrNotAuthorized
	}
	f.graduationThreshold = new(uint256.Int).Set(newThreshold)
	return nil
}

// GraduateToken advances personID's token to PhaseAMM and rotates its
// minter to newMinter (the post-graduation venue). Owner only.
func (f *Factory) GraduateToken(caller chain.Address, personID uuid.UUID, newMinter chain.Address) error {
	if caller != f.owner {
		return nileerr.ErrNotAuthorized
	}
	tok, ok := f.tokens[personID]
	if !ok {
		return nileerr.ErrTokenNotFound
	}
	if tok.Graduated() {
		return nileerr.ErrAlreadyGraduated
	}
	if err := tok.SetMinter(f.factoryAddress(), newMinter); err != nil {
		return err
	}
	return tok.SetPhase(f.factoryAddress(), token.PhaseAMM)
}
