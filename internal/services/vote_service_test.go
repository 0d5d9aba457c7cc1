// ===============================
// FILE: internal/services/vote_service_test.go
// ===============================

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"threadhub/internal/models"
	"threadhub/internal/repositories"
)

type voteKey struct {
	userID      int64
	votableID   int64
	votableType models.VotableType
}

type fakeVoteRepo struct {
	votes map[voteKey]models.VoteValue
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{votes: make(map[voteKey]models.VoteValue)}
}

func (f *fakeVoteRepo) Toggle(_ context.Context, userID, votableID int64, votableType models.VotableType, value models.VoteValue) (models.VoteOutcome, error) {
	key := voteKey{userID, votableID, votableType}
	current, ok := f.votes[key]
	switch {
	case !ok:
		f.votes[key] = value
		return models.VoteOutcomeCreated, nil
	case current == value:
		delete(f.votes, key)
		return models.VoteOutcomeRemoved, nil
	default:
		f.votes[key] = value
		return models.VoteOutcomeUpdated, nil
	}
}

func (f *fakeVoteRepo) GetAggregate(_ context.Context, votableID int64, votableType models.VotableType) (*models.VoteAggregate, error) {
	agg := &models.VoteAggregate{VotableID: votableID, VotableType: votableType}
	for key, value := range f.votes {
		if key.votableID != votableID || key.votableType != votableType {
			continue
		}
		if value == models.VoteUp {
			agg.Upvotes++
		} else {
			agg.Downvotes++
		}
	}
	agg.Score = agg.Upvotes - agg.Downvotes
	return agg, nil
}

func (f *fakeVoteRepo) GetUserVote(_ context.Context, userID, votableID int64, votableType models.VotableType) (*models.Vote, error) {
	value, ok := f.votes[voteKey{userID, votableID, votableType}]
	if !ok {
		return nil, nil
	}
	return &models.Vote{UserID: userID, VotableID: votableID, VotableType: votableType, Value: value}, nil
}

func newTestVoteService(t *testing.T) (VoteService, *fakeVoteRepo) {
	t.Helper()
	votes := newFakeVoteRepo()
	content := newFakeContentRepo()
	content.nodes[1] = &models.ContentNode{ID: 1, Kind: models.NodeKindComment, ThreadID: 1, UserID: 50}
	repos := &repositories.Collection{
		Threads: &fakeThreadRepo{threads: map[int64]*models.Thread{1: {ID: 1, UserID: 100}}},
		Content: content,
		Votes:   votes,
		Users:   fakeUserRepo{},
	}
	return NewVoteService(repos, nopBus{}, zap.NewNop()), votes
}

func castVote(t *testing.T, svc VoteService, userID int64, value models.VoteValue) *VoteResponse {
	t.Helper()
	resp, err := svc.CastVote(context.Background(), &CastVoteRequest{
		UserID:      userID,
		VotableID:   1,
		VotableType: models.VotableTypeComment,
		Value:       value,
	})
	require.NoError(t, err)
	return resp
}

func TestCastVote_ToggleCycle(t *testing.T) {
	svc, _ := newTestVoteService(t)

	// First submission creates the vote.
	resp := castVote(t, svc, 10, models.VoteUp)
	assert.Equal(t, models.VoteOutcomeCreated, resp.Outcome)
	assert.Equal(t, 1, resp.Aggregate.Upvotes)
	assert.Equal(t, 1, resp.Aggregate.Score)

	// Opposite polarity flips it.
	resp = castVote(t, svc, 10, models.VoteDown)
	assert.Equal(t, models.VoteOutcomeUpdated, resp.Outcome)
	assert.Equal(t, 0, resp.Aggregate.Upvotes)
	assert.Equal(t, 1, resp.Aggregate.Downvotes)
	assert.Equal(t, -1, resp.Aggregate.Score)

	// Same polarity again removes it.
	resp = castVote(t, svc, 10, models.VoteDown)
	assert.Equal(t, models.VoteOutcomeRemoved, resp.Outcome)
	assert.Equal(t, 0, resp.Aggregate.Upvotes)
	assert.Equal(t, 0, resp.Aggregate.Downvotes)
	assert.Equal(t, 0, resp.Aggregate.Score)
}

func TestCastVote_AggregatesAcrossUsers(t *testing.T) {
	svc, _ := newTestVoteService(t)

	castVote(t, svc, 10, models.VoteUp)
	castVote(t, svc, 11, models.VoteUp)
	resp := castVote(t, svc, 12, models.VoteDown)

	assert.Equal(t, 2, resp.Aggregate.Upvotes)
	assert.Equal(t, 1, resp.Aggregate.Downvotes)
	assert.Equal(t, 1, resp.Aggregate.Score)
}

func TestCastVote_MissingEntity(t *testing.T) {
	svc, _ := newTestVoteService(t)

	_, err := svc.CastVote(context.Background(), &CastVoteRequest{
		UserID:      10,
		VotableID:   999,
		VotableType: models.VotableTypeComment,
		Value:       models.VoteUp,
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestCastVote_InvalidValue(t *testing.T) {
	svc, _ := newTestVoteService(t)

	_, err := svc.CastVote(context.Background(), &CastVoteRequest{
		UserID:      10,
		VotableID:   1,
		VotableType: models.VotableTypeComment,
		Value:       models.VoteValue("sideways"),
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestCastVote_ReplySharesCommentLedger(t *testing.T) {
	svc, _ := newTestVoteService(t)

	// Comments and replies share one id space, so a vote submitted
	// under either type lands on the same ledger entry.
	resp, err := svc.CastVote(context.Background(), &CastVoteRequest{
		UserID:      10,
		VotableID:   1,
		VotableType: models.VotableTypeReply,
		Value:       models.VoteUp,
	})
	require.NoError(t, err)
	assert.Equal(t, models.VoteOutcomeCreated, resp.Outcome)

	agg, err := svc.GetAggregate(context.Background(), 1, models.VotableTypeComment)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Upvotes)

	// Resubmitting through the comment type toggles the same vote.
	resp = castVote(t, svc, 10, models.VoteUp)
	assert.Equal(t, models.VoteOutcomeRemoved, resp.Outcome)

	agg, err = svc.GetAggregate(context.Background(), 1, models.VotableTypeReply)
	require.NoError(t, err)
	assert.Equal(t, 0, agg.Upvotes)
}

func TestGetAggregate(t *testing.T) {
	svc, _ := newTestVoteService(t)

	castVote(t, svc, 10, models.VoteUp)
	castVote(t, svc, 11, models.VoteDown)

	agg, err := svc.GetAggregate(context.Background(), 1, models.VotableTypeComment)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Upvotes)
	assert.Equal(t, 1, agg.Downvotes)
	assert.Equal(t, 0, agg.Score)
}
