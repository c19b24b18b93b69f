package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/repositories"
	"go.uber.org/zap"
)

// Resulting per-user vote states
const (
	VoteStateUpvoted   = "upvoted"
	VoteStateDownvoted = "downvoted"
	VoteStateNone      = "none"
)

const defaultVoteRetries = 5

// VoteResult is the vote state of a video after a vote was applied
type VoteResult struct {
	VideoID       string `json:"video_id"`
	Upvotes       int    `json:"upvotes"`
	Downvotes     int    `json:"downvotes"`
	TotalVotes    int    `json:"total_votes"`
	UserVoteState string `json:"user_vote_state"`
}

// VoteService applies up/down votes with optimistic concurrency on the video version
type VoteService struct {
	videos     repositories.VideoRepository
	cache      TreeCache
	maxRetries int
	logger     *zap.Logger
}

// NewVoteService creates a new VoteService
func NewVoteService(videos repositories.VideoRepository, cache TreeCache, maxRetries int, logger *zap.Logger) *VoteService {
	if cache == nil {
		cache = NewNoopTreeCache()
	}
	if maxRetries <= 0 {
		maxRetries = defaultVoteRetries
	}
	return &VoteService{videos: videos, cache: cache, maxRetries: maxRetries, logger: logger.Named("votes")}
}

// ParseDirection maps "up"/"down" or "1"/"-1" to a vote value
func ParseDirection(direction string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "up", "upvote", strconv.Itoa(models.VoteUp):
		return models.VoteUp, nil
	case "down", "downvote", strconv.Itoa(models.VoteDown):
		return models.VoteDown, nil
	}
	return 0, invalidArgument("vote direction must be up or down")
}

// Vote applies value for userID on videoID. Repeating the same vote removes it,
// the opposite vote replaces it.
func (s *VoteService) Vote(ctx context.Context, videoID, userID string, value int) (*VoteResult, error) {
	id, err := parseID("videoId", videoID)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, invalidArgument("voter is required")
	}
	if value != models.VoteUp && value != models.VoteDown {
		return nil, invalidArgument("vote direction must be up or down")
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		video, err := s.videos.GetVideoByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, notFound("video not found")
			}
			return nil, internal("failed to load video", err)
		}

		voters, state := applyVote(video.Voters, userID, value)
		total := sumVotes(voters)

		err = s.videos.UpdateVotes(ctx, id, video.Version, voters, total)
		switch {
		case err == nil:
			invalidateStory(ctx, s.cache, s.logger, video.Story)
			return newVoteResult(videoID, voters, state), nil
		case errors.Is(err, repositories.ErrVersionConflict):
			s.logger.Debug("vote lost version race, retrying",
				zap.String("video_id", videoID), zap.Int("attempt", attempt))
			continue
		case errors.Is(err, repositories.ErrNotFound):
			return nil, notFound("video not found")
		default:
			return nil, internal("failed to record vote", err)
		}
	}
	return nil, conflict("video is being voted on concurrently, please retry")
}

// applyVote returns the voters after userID votes value, plus the user's resulting state.
// Duplicate entries for userID left by older writers are collapsed.
func applyVote(current []models.Voter, userID string, value int) ([]models.Voter, string) {
	next := make([]models.Voter, 0, len(current)+1)
	previous := 0
	for _, v := range current {
		if v.User == userID {
			if previous == 0 {
				previous = v.Value
			}
			continue
		}
		next = append(next, v)
	}

	if previous == value {
		return next, VoteStateNone
	}
	next = append(next, models.Voter{User: userID, Value: value})
	return next, stateOf(value)
}

func sumVotes(voters []models.Voter) int {
	total := 0
	for _, v := range voters {
		total += v.Value
	}
	return total
}

func stateOf(value int) string {
	switch value {
	case models.VoteUp:
		return VoteStateUpvoted
	case models.VoteDown:
		return VoteStateDownvoted
	}
	return VoteStateNone
}

func newVoteResult(videoID string, voters []models.Voter, state string) *VoteResult {
	res := &VoteResult{VideoID: videoID, UserVoteState: state}
	for _, v := range voters {
		switch v.Value {
		case models.VoteUp:
			res.Upvotes++
		case models.VoteDown:
			res.Downvotes++
		}
	}
	res.TotalVotes = sumVotes(voters)
	return res
}
