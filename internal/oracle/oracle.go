// Package oracle implements the quorum oracle: agent authorization,
// report submission with a submission-time quorum snapshot, and
// accept/reject finalization from agent votes.
//
// Grounded on the teacher's whitelist/member-count tracking
// (contract/state_whitelist.go's authorized-address map plus a
// maintained count) generalized into an agent set with a live
// agent_count, and on the teacher's proposal-vote tallying shape
// (contract/votes.go's per-voter has_voted guard plus running
// confirm/reject counters) generalized from DAO proposals to oracle
// reports. Agents, reports, and per-agent vote receipts are all
// persisted through store.Store rather than kept as plain Go maps,
// and report ids are allocated through store.NextID the same way the
// teacher's project/proposal counters are.
package oracle

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nile-protocol/nile-core/internal/chain"
	"github.com/nile-protocol/nile-core/internal/events"
	"github.com/nile-protocol/nile-core/internal/nileerr"
	"github.com/nile-protocol/nile-core/internal/store"
)

const (
	agentCounterName    = "oracle_agent_count"
	reportIDCounterName = "oracle_report_id"
)

// Report is one submitted real-world event and its finalization
// state.
type Report struct {
	ID              uint64
	PersonID        uuid.UUID
	EventType       string
	Headline        string
	ImpactScore     int32
	Confirmations   uint32
	Rejections      uint32
	RequiredQuorum  uint32
	Finalized       bool
	Accepted        bool
	Submitter       chain.Address
	SubmittedAtUnix int64
}

// Oracle owns the authorized agent set and the report store. All
// mutable state (agents, agent_count, reports, vote receipts) lives in
// st; the struct itself holds only immutable wiring.
type Oracle struct {
	owner chain.Address

	st  store.Store
	bus *events.Bus
	log *zap.Logger

	now func() time.Time
}

// New constructs an empty Oracle owned by owner, backed by st. The
// now field is set to time.Now; it is a struct field rather than a
// direct time.Now call so code inside this package can replace it to
// pin submitted_at.
func New(owner chain.Address, st store.Store, bus *events.Bus, log *zap.Logger) *Oracle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Oracle{
		owner: owner,
		st:    st,
		bus:   bus,
		log:   log,
		now:   time.Now,
	}
}

func agentKey(addr chain.Address) string {
	return store.AddrKey(store.PrefixOracleAgent, string(addr))
}

func reportKey(id uint64) string {
	return store.IDKey(store.PrefixOracleReport, id)
}

func voteKey(id uint64, agent chain.Address) string {
	return store.PairKey(store.PrefixOracleVote, fmt.Sprint(id), string(agent))
}

// AuthorizeAgent grants agent submit/vote rights. Owner only.
func (o *Oracle) AuthorizeAgent(caller, agent chain.Address) error {
	if caller != o.owner {
		return nileerr.ErrNotAuthorized
	}
	if _, ok := o.st.Get(agentKey(agent)); ok {
		return nil
	}
	o.st.Set(agentKey(agent), "1")
	store.SetCount(o.st, store.CounterKey(agentCounterName), store.GetCount(o.st, store.CounterKey(agentCounterName))+1)
	o.bus.Emit(events.AgentAuthorized, zap.String("agent", string(agent)))
	return nil
}

// RevokeAgent removes agent's submit/vote rights. Owner only.
func (o *Oracle) RevokeAgent(caller, agent chain.Address) error {
	if caller != o.owner {
		return nileerr.ErrNotAuthorized
	}
	if _, ok := o.st.Get(agentKey(agent)); !ok {
		return nil
	}
	o.st.Delete(agentKey(agent))
	store.SetCount(o.st, store.CounterKey(agentCounterName), store.GetCount(o.st, store.CounterKey(agentCounterName))-1)
	o.bus.Emit(events.AgentRevoked, zap.String("agent", string(agent)))
	return nil
}

func (o *Oracle) IsAgent(addr chain.Address) bool {
	_, ok := o.st.Get(agentKey(addr))
	return ok
}

func (o *Oracle) AgentCount() uint32 {
	return uint32(store.GetCount(o.st, store.CounterKey(agentCounterName)))
}

// requiredQuorum computes ceil(2*agentCount/3), floored at 1.
func requiredQuorum(agentCount uint32) uint32 {
	q := (2*agentCount + 2) / 3
	if q < 1 {
		q = 1
	}
	return q
}

func (o *Oracle) saveReport(r *Report) {
	v, err := store.ToJSON(*r)
	if err != nil {
		return
	}
	o.st.Set(reportKey(r.ID), v)
}

func (o *Oracle) loadReport(id uint64) (*Report, bool) {
	v, ok := o.st.Get(reportKey(id))
	if !ok {
		return nil, false
	}
	r, err := store.FromJSON[Report](v)
	if err != nil {
		return nil, false
	}
	return &r, true
}

// SubmitReport records a new report from caller (must be an
// authorized agent), pre-recording caller's own confirmation. The
// quorum bar is snapshotted from the agent count at this instant and
// never moves for this report again, per SPEC_FULL.md §4.6. Report ids
// are allocated through store.NextID against the oracle_report_id
// counter.
func (o *Oracle) SubmitReport(caller chain.Address, personID uuid.UUID, eventType, headline string, impactScore int32) (*Report, error) {
	if !o.IsAgent(caller) {
		return nil, nileerr.ErrNotAuthorized
	}
	if impactScore < -100 || impactScore > 100 {
		return nil, nileerr.ErrInvalidImpactScore
	}

	quorum := requiredQuorum(o.AgentCount())
	id := store.NextID(o.st, store.CounterKey(reportIDCounterName))
	r := &Report{
		ID:              id,
		PersonID:        personID,
		EventType:       eventType,
		Headline:        headline,
		ImpactScore:     impactScore,
		Confirmations:   1,
		RequiredQuorum:  quorum,
		Submitter:       caller,
		SubmittedAtUnix: o.now().Unix(),
	}
	o.st.Set(voteKey(id, caller), "1")
	o.saveReport(r)

	o.bus.Emit(events.ReportSubmitted,
		zap.Uint64("report_id", r.ID),
		zap.String("person_id", personID.String()),
		zap.String("submitter", string(caller)),
	)

	if quorum <= 1 {
		o.finalize(r, true)
	}
	return r, nil
}

// Vote records caller's confirm/reject vote on reportID and finalizes
// the report once quorum is reached or becomes unreachable.
func (o *Oracle) Vote(caller chain.Address, reportID uint64, approve bool) error {
	if !o.IsAgent(caller) {
		return nileerr.ErrNotAuthorized
	}
	r, ok := o.loadReport(reportID)
	if !ok {
		return nileerr.ErrReportNotFound
	}
	if r.Finalized {
		return nileerr.ErrAlreadyFinalized
	}
	if _, voted := o.st.Get(voteKey(reportID, caller)); voted {
		return nileerr.ErrAlreadyVoted
	}
	o.st.Set(voteKey(reportID, caller), "1")

	if approve {
		r.Confirmations++
	} else {
		r.Rejections++
	}
	o.bus.Emit(events.VoteCast,
		zap.Uint64("report_id", reportID),
		zap.String("agent", string(caller)),
		zap.Bool("approve", approve),
	)

	switch {
	case r.Confirmations >= r.RequiredQuorum:
		o.finalize(r, true)
	case r.Rejections > o.AgentCount()-r.RequiredQuorum:
		o.finalize(r, false)
	default:
		o.saveReport(r)
	}
	return nil
}

func (o *Oracle) finalize(r *Report, accepted bool) {
	r.Finalized = true
	r.Accepted = accepted
	o.saveReport(r)
	o.bus.Emit(events.ReportFinalized,
		zap.Uint64("report_id", r.ID),
		zap.Bool("accepted", accepted),
		zap.Int32("impact_score", r.ImpactScore),
	)
}

// GetReport returns a read-only snapshot of reportID, or
// ErrReportNotFound.
func (o *Oracle) GetReport(reportID uint64) (Report, error) {
	r, ok := o.loadReport(reportID)
	if !ok {
		return Report{}, nileerr.ErrReportNotFound
	}
	return *r, nil
}
