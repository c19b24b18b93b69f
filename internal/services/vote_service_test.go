package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newVoteFixture(t *testing.T, retries int) (*VoteService, *memVideos, *models.Video) {
	t.Helper()
	videos := newMemVideos()
	video := &models.Video{Title: "clip", Description: "d", Owner: "1"}
	require.NoError(t, videos.CreateVideo(context.Background(), video))
	return NewVoteService(videos, nil, retries, zap.NewNop()), videos, video
}

func sumOf(voters []models.Voter) int {
	n := 0
	for _, v := range voters {
		n += v.Value
	}
	return n
}

func assertVoteInvariant(t *testing.T, v *models.Video) {
	t.Helper()
	assert.Equal(t, sumOf(v.Voters), v.Votes, "votes must equal the sum of voter values")
	seen := map[string]bool{}
	for _, voter := range v.Voters {
		assert.False(t, seen[voter.User], "duplicate voter entry for %s", voter.User)
		seen[voter.User] = true
	}
}

func TestApplyVote(t *testing.T) {
	tests := []struct {
		name      string
		current   []models.Voter
		value     int
		wantState string
		want      []models.Voter
	}{
		{
			name:      "first vote",
			current:   nil,
			value:     models.VoteUp,
			wantState: VoteStateUpvoted,
			want:      []models.Voter{{User: "u", Value: 1}},
		},
		{
			name:      "same vote toggles off",
			current:   []models.Voter{{User: "other", Value: -1}, {User: "u", Value: 1}},
			value:     models.VoteUp,
			wantState: VoteStateNone,
			want:      []models.Voter{{User: "other", Value: -1}},
		},
		{
			name:      "opposite vote switches",
			current:   []models.Voter{{User: "u", Value: 1}},
			value:     models.VoteDown,
			wantState: VoteStateDownvoted,
			want:      []models.Voter{{User: "u", Value: -1}},
		},
		{
			name:      "duplicate entries collapse",
			current:   []models.Voter{{User: "u", Value: -1}, {User: "u", Value: -1}},
			value:     models.VoteUp,
			wantState: VoteStateUpvoted,
			want:      []models.Voter{{User: "u", Value: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, state := applyVote(tt.current, "u", tt.value)
			assert.Equal(t, tt.wantState, state)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDirection(t *testing.T) {
	for _, in := range []string{"up", "UP", "1", " upvote "} {
		v, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, models.VoteUp, v)
	}
	for _, in := range []string{"down", "-1"} {
		v, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, models.VoteDown, v)
	}
	_, err := ParseDirection("sideways")
	assert.Equal(t, KindInvalidArgument, KindOf(err))
}

func TestVote_SameDirectionTwiceRestoresState(t *testing.T) {
	svc, videos, video := newVoteFixture(t, 0)
	ctx := context.Background()

	res, err := svc.Vote(ctx, video.ID.Hex(), "2", models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Upvotes)
	assert.Equal(t, VoteStateUpvoted, res.UserVoteState)

	res, err = svc.Vote(ctx, video.ID.Hex(), "2", models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Upvotes)
	assert.Equal(t, 0, res.TotalVotes)
	assert.Equal(t, VoteStateNone, res.UserVoteState)

	stored := videos.get(video.ID)
	assert.Empty(t, stored.Voters)
	assert.Equal(t, 0, stored.Votes)
}

func TestVote_UpThenDownMovesAggregateByTwo(t *testing.T) {
	svc, videos, video := newVoteFixture(t, 0)
	ctx := context.Background()

	_, err := svc.Vote(ctx, video.ID.Hex(), "2", models.VoteUp)
	require.NoError(t, err)
	before := videos.get(video.ID).Votes

	res, err := svc.Vote(ctx, video.ID.Hex(), "2", models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, before-2, res.TotalVotes)
	assert.Equal(t, 0, res.Upvotes)
	assert.Equal(t, 1, res.Downvotes)
	assert.Equal(t, VoteStateDownvoted, res.UserVoteState)
	assertVoteInvariant(t, videos.get(video.ID))
}

func TestVote_MixedSequenceKeepsInvariant(t *testing.T) {
	svc, videos, video := newVoteFixture(t, 0)
	ctx := context.Background()

	sequence := []struct {
		user  string
		value int
	}{
		{"a", 1}, {"b", -1}, {"c", 1}, {"a", -1}, {"b", -1}, {"c", 1}, {"d", 1}, {"a", -1},
	}
	for _, step := range sequence {
		_, err := svc.Vote(ctx, video.ID.Hex(), step.user, step.value)
		require.NoError(t, err)
		assertVoteInvariant(t, videos.get(video.ID))
	}
	stored := videos.get(video.ID)
	assert.Equal(t, 1, stored.Votes)
	assert.ElementsMatch(t, []models.Voter{{User: "d", Value: 1}}, stored.Voters)
}

func TestVote_RetriesAfterLostRace(t *testing.T) {
	svc, videos, video := newVoteFixture(t, 3)

	var once sync.Once
	videos.beforeUpdateVotes = func() {
		once.Do(func() {
			// Another writer commits between our read and write.
			v := videos.get(video.ID)
			v.Voters = append(v.Voters, models.Voter{User: "rival", Value: 1})
			v.Votes = 1
			v.Version++
			videos.put(v)
		})
	}

	res, err := svc.Vote(context.Background(), video.ID.Hex(), "2", models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Upvotes)
	assert.Equal(t, 2, res.TotalVotes)

	stored := videos.get(video.ID)
	assert.ElementsMatch(t, []models.Voter{{User: "rival", Value: 1}, {User: "2", Value: 1}}, stored.Voters)
	assertVoteInvariant(t, stored)
}

func TestVote_ConflictWhenRetriesExhausted(t *testing.T) {
	svc, videos, video := newVoteFixture(t, 2)
	videos.beforeUpdateVotes = func() {
		v := videos.get(video.ID)
		v.Version++
		videos.put(v)
	}

	_, err := svc.Vote(context.Background(), video.ID.Hex(), "2", models.VoteUp)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Empty(t, videos.get(video.ID).Voters)
}

func TestVote_ConcurrentVotersAllCounted(t *testing.T) {
	const voters = 20
	svc, videos, video := newVoteFixture(t, voters*5)

	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value := models.VoteUp
			if i%4 == 0 {
				value = models.VoteDown
			}
			if _, err := svc.Vote(context.Background(), video.ID.Hex(), fmt.Sprintf("user-%d", i), value); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("vote failed: %v", err)
	}

	stored := videos.get(video.ID)
	assert.Len(t, stored.Voters, voters)
	assert.Equal(t, 15-5, stored.Votes)
	assertVoteInvariant(t, stored)
}

func TestVote_Errors(t *testing.T) {
	svc, _, video := newVoteFixture(t, 0)
	ctx := context.Background()

	_, err := svc.Vote(ctx, "not-an-id", "2", models.VoteUp)
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = svc.Vote(ctx, video.ID.Hex(), "2", 0)
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = svc.Vote(ctx, video.ID.Hex(), "", models.VoteUp)
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = svc.Vote(ctx, primitive.NewObjectID().Hex(), "2", models.VoteUp)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestVote_InvalidatesStoryTree(t *testing.T) {
	videos := newMemVideos()
	storyID := primitive.NewObjectID()
	video := &models.Video{Title: "clip", Owner: "1", Story: &storyID}
	require.NoError(t, videos.CreateVideo(context.Background(), video))

	cache := newMemTreeCache()
	svc := NewVoteService(videos, cache, 0, zap.NewNop())
	_, err := svc.Vote(context.Background(), video.ID.Hex(), "2", models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, []string{storyID.Hex()}, cache.invalidated)
}
