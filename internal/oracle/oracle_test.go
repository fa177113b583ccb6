package oracle

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nile-protocol/nile-core/internal/chain"
	"github.com/nile-protocol/nile-core/internal/events"
	"github.com/nile-protocol/nile-core/internal/nileerr"
	"github.com/nile-protocol/nile-core/internal/store"
)

const (
	owner chain.Address = "account:owner"
	agentA chain.Address = "account:agent_a"
	agentB chain.Address = "account:agent_b"
	agentC chain.Address = "account:agent_c"
)

func newOracle() *Oracle {
	return New(owner, store.NewMemStore(), events.NewBus(nil), nil)
}

func TestSubmitReportWithSingleAgentFinalizesImmediately(t *testing.T) {
	o := newOracle()
	require.NoError(t, o.AuthorizeAgent(owner, agentA))

	r, err := o.SubmitReport(agentA, uuid.New(), "news", "headline", 42)
	require.NoError(t, err)
	assert.True(t, r.Finalized)
	assert.True(t, r.Accepted)
}

func TestSubmitReportRejectsInvalidImpactScore(t *testing.T) {
	o := newOracle()
	require.NoError(t, o.AuthorizeAgent(owner, agentA))
	_, err := o.SubmitReport(agentA, uuid.New(), "news", "headline", 101)
	assert.ErrorIs(t, err, nileerr.ErrInvalidImpactScore)
	_, err = o.SubmitReport(agentA, uuid.New(), "news", "headline", -101)
	assert.ErrorIs(t, err, nileerr.ErrInvalidImpactScore)
}

func TestSubmitReportRequiresAuthorizedAgent(t *testing.T) {
	o := newOracle()
	_, err := o.SubmitReport(agentA, uuid.New(), "news", "headline", 0)
	assert.ErrorIs(t, err, nileerr.ErrNotAuthorized)
}

func TestThreeAgentQuorumAccepts(t *testing.T) {
	o := newOracle()
	require.NoError(t, o.AuthorizeAgent(owner, agentA))
	require.NoError(t, o.AuthorizeAgent(owner, agentB))
	require.NoError(t, o.AuthorizeAgent(owner, agentC))

	r, err := o.SubmitReport(agentA, uuid.New(), "news", "headline", 75)
	require.NoError(t, err)
	assert.False(t, r.Finalized)
	assert.Equal(t, uint32(2), r.RequiredQuorum)

	require.NoError(t, o.Vote(agentB, r.ID, true))

	got, err := o.GetReport(r.ID)
	require.NoError(t, err)
	assert.True(t, got.Finalized)
	assert.True(t, got.Accepted)
}

func TestThreeAgentQuorumRejects(t *testing.T) {
	o := newOracle()
	require.NoError(t, o.AuthorizeAgent(owner, agentA))
	require.NoError(t, o.AuthorizeAgent(owner, agentB))
	require.NoError(t, o.AuthorizeAgent(owner, agentC))

	r, err := o.SubmitReport(agentA, uuid.New(), "news", "headline", -10)
	require.NoError(t, err)

	require.NoError(t, o.Vote(agentB, r.ID, false))
	got, err := o.GetReport(r.ID)
	require.NoError(t, err)
	assert.False(t, got.Finalized, "a single rejection must not yet finalize against quorum 2")

	require.NoError(t, o.Vote(agentC, r.ID, false))
	got, err = o.GetReport(r.ID)
	require.NoError(t, err)
	assert.True(t, got.Finalized)
	assert.False(t, got.Accepted)
}

func TestDoubleVoteRejected(t *testing.T) {
	o := newOracle()
	require.NoError(t, o.AuthorizeAgent(owner, agentA))
	require.NoError(t, o.AuthorizeAgent(owner, agentB))
	require.NoError(t, o.AuthorizeAgent(owner, agentC))

	r, err := o.SubmitReport(agentA, uuid.New(), "news", "headline", 10)
	require.NoError(t, err)

	err = o.Vote(agentA, r.ID, true)
	assert.ErrorIs(t, err, nileerr.ErrAlreadyVoted, "the submitter already voted implicitly at submission")
}

func TestVoteAfterFinalizationRejected(t *testing.T) {
	o := newOracle()
	require.NoError(t, o.AuthorizeAgent(owner, agentA))

	r, err := o.SubmitReport(agentA, uuid.New(), "news", "headline", 10)
	require.NoError(t, err)
	require.True(t, r.Finalized)

	require.NoError(t, o.AuthorizeAgent(owner, agentB))
	err = o.Vote(agentB, r.ID, true)
	assert.ErrorIs(t, err, nileerr.ErrAlreadyFinalized)
}

func TestQuorumSnapshottedAtSubmission(t *testing.T) {
	o := newOracle()
	require.NoError(t, o.AuthorizeAgent(owner, agentA))
	require.NoError(t, o.AuthorizeAgent(owner, agentB))
	require.NoError(t, o.AuthorizeAgent(owner, agentC))

	r, err := o.SubmitReport(agentA, uuid.New(), "news", "headline", 10)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), r.RequiredQuorum)

	// Authorizing a fourth agent after submission must not move this
	// report's already-snapshotted bar.
	require.NoError(t, o.AuthorizeAgent(owner, chain.Address("account:agent_d")))
	got, err := o.GetReport(r.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.RequiredQuorum)
}

func TestRevokeAgentRequiresOwner(t *testing.T) {
	o := newOracle()
	require.NoError(t, o.AuthorizeAgent(owner, agentA))
	err := o.RevokeAgent(agentA, agentA)
	assert.ErrorIs(t, err, nileerr.ErrNotAuthorized)
}
