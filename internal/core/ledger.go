// Package core wires the four subsystems (Token/Curve registry,
// Router, Oracle, Treasury) into the single long-lived object the CLI
// runner constructs once per process, mirroring the teacher's
// contract-level wiring in spirit: one root object owning every
// sub-resource, addressed by person_id instead of project id.
package core

import (
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/nile-protocol/nile-core/internal/chain"
	"github.com/nile-protocol/nile-core/internal/events"
	"github.com/nile-protocol/nile-core/internal/factory"
	"github.com/nile-protocol/nile-core/internal/oracle"
	"github.com/nile-protocol/nile-core/internal/router"
	"github.com/nile-protocol/nile-core/internal/store"
	"github.com/nile-protocol/nile-core/internal/treasury"
)

// Ledger is the economic core: every public CLI subcommand ultimately
// calls through to one of these four fields.
type Ledger struct {
	Factory  *factory.Factory
	Router   *router.Router
	Oracle   *oracle.Oracle
	Treasury *treasury.Treasury

	Owner chain.Address
}

// New constructs a fresh, empty Ledger backed by an in-memory store.
// owner is the capability address that gates every owner-only
// operation (SetGraduationThreshold, GraduateToken, AuthorizeAgent,
// ProtocolWithdraw, SetProtocolWallet).
func New(owner, protocolWallet chain.Address, graduationThreshold *uint256.Int, log *zap.Logger) *Ledger {
	st := store.NewMemStore()
	bus := events.NewBus(log)

	tr := treasury.New(owner, protocolWallet, st, bus, log)
	f := factory.New(owner, graduationThreshold, st, tr, bus, log)
	o := oracle.New(owner, st, bus, log)
	r := router.New(chain.Address("contract:router"), f, nil, bus, log)

	return &Ledger{Factory: f, Router: r, Oracle: o, Treasury: tr, Owner: owner}
}

// CreateSoulToken is a thin convenience forward so CLI subcommands
// don't need to reach into Factory directly for the most common
// operation.
func (l *Ledger) CreateSoulToken(caller chain.Address, personID uuid.UUID, name, symbol string) (*factory.TokenPair, error) {
	return l.Factory.CreateSoulToken(caller, personID, name, symbol)
}
