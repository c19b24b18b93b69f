package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/repositories"
	"github.com/anonto42/story-branch/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// StoryHandler handles story, branch and vote HTTP requests
type StoryHandler struct {
	stories        *services.StoryService
	votes          *services.VoteService
	userRepository repositories.UserRepository
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(stories *services.StoryService, votes *services.VoteService, userRepo repositories.UserRepository) *StoryHandler {
	return &StoryHandler{
		stories:        stories,
		votes:          votes,
		userRepository: userRepo,
	}
}

// RegisterStoryRoutes registers story routes; reads are public, writes need a session
func (h *StoryHandler) RegisterStoryRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("", h.GetStories)
	g.GET("/:storyId", h.GetStory)
	g.GET("/:storyId/full", h.GetFullStoryTree)

	g.POST("/create", h.CreateStory, requireAuth)
	g.DELETE("/:storyId", h.DeleteStory, requireAuth)
	g.POST("/:videoId/branch", h.AddBranch, requireAuth)
	g.POST("/:videoId/vote", h.Vote, requireAuth)
	g.DELETE("/video/:videoId", h.DeleteVideo, requireAuth)
}

// StoryResponse is a story list entry enriched with its creator
type StoryResponse struct {
	models.StoryListItem
	Creator *models.UserCompact `json:"creator,omitempty"`
}

// StoryDetailResponse is a story overview enriched with its creator
type StoryDetailResponse struct {
	*models.StoryOverview
	Creator *models.UserCompact `json:"creator,omitempty"`
}

// GetStories returns every story with its root video
func (h *StoryHandler) GetStories(c echo.Context) error {
	items, err := h.stories.ListStories(c.Request().Context())
	if err != nil {
		return fail(err)
	}

	creatorIDs := make([]string, 0, len(items))
	for _, item := range items {
		creatorIDs = append(creatorIDs, item.Story.CreatedBy)
	}
	creators := h.lookupUsers(creatorIDs...)

	out := make([]StoryResponse, 0, len(items))
	for _, item := range items {
		resp := StoryResponse{StoryListItem: item}
		if u, ok := creators[item.Story.CreatedBy]; ok {
			resp.Creator = &u
		}
		out = append(out, resp)
	}
	return respond(c, http.StatusOK, out, "Stories fetched successfully")
}

// GetStory returns a story with its root video and the root's direct branches
func (h *StoryHandler) GetStory(c echo.Context) error {
	overview, err := h.stories.GetStory(c.Request().Context(), c.Param("storyId"))
	if err != nil {
		return fail(err)
	}
	resp := StoryDetailResponse{StoryOverview: overview}
	if u, ok := h.lookupUsers(overview.Story.CreatedBy)[overview.Story.CreatedBy]; ok {
		resp.Creator = &u
	}
	return respond(c, http.StatusOK, resp, "Story fetched successfully")
}

// GetFullStoryTree returns the complete branch tree of a story
func (h *StoryHandler) GetFullStoryTree(c echo.Context) error {
	tree, err := h.stories.GetFullStoryTree(c.Request().Context(), c.Param("storyId"))
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, tree, "Full story tree fetched successfully")
}

// CreateStory creates a story rooted at an existing video
func (h *StoryHandler) CreateStory(c echo.Context) error {
	var req models.CreateStoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	story, err := h.stories.CreateStory(c.Request().Context(), req.Title, req.Description, req.RootVideoID, getUserIDFromContext(c))
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusCreated, story, "Story created successfully")
}

// AddBranch links a branch video under the video in the path
func (h *StoryHandler) AddBranch(c echo.Context) error {
	var req models.AddBranchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	link, err := h.stories.AddBranch(c.Request().Context(), c.Param("videoId"), req.BranchVideoID, getUserIDFromContext(c))
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, link, "Branch added successfully")
}

// Vote toggles the authenticated user's up or down vote on a video
func (h *StoryHandler) Vote(c echo.Context) error {
	var req models.VoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	direction := req.Direction
	if direction == "" && req.Value != 0 {
		direction = strconv.Itoa(req.Value)
	}
	value, err := services.ParseDirection(direction)
	if err != nil {
		return fail(err)
	}

	result, err := h.votes.Vote(c.Request().Context(), c.Param("videoId"), getUserIDFromContext(c), value)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, result, "Vote recorded successfully")
}

// DeleteStory deletes a story and all of its videos
func (h *StoryHandler) DeleteStory(c echo.Context) error {
	if err := h.stories.DeleteStory(c.Request().Context(), c.Param("storyId"), getUserIDFromContext(c)); err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, echo.Map{}, "Story and all related videos deleted successfully")
}

// DeleteVideo deletes a video and detaches it from its parent
func (h *StoryHandler) DeleteVideo(c echo.Context) error {
	if err := h.stories.DeleteVideo(c.Request().Context(), c.Param("videoId"), getUserIDFromContext(c)); err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, echo.Map{}, "Video deleted successfully")
}

// lookupUsers resolves user IDs to compact profiles; unknown or malformed IDs are skipped
func (h *StoryHandler) lookupUsers(ids ...string) map[string]models.UserCompact {
	uintIDs := make([]uint, 0, len(ids))
	for _, id := range ids {
		if n, err := strconv.ParseUint(id, 10, 64); err == nil {
			uintIDs = append(uintIDs, uint(n))
		}
	}
	users, err := h.userRepository.GetUsersByIDs(uintIDs)
	if err != nil {
		return map[string]models.UserCompact{}
	}
	out := make(map[string]models.UserCompact, len(users))
	for i := range users {
		out[users[i].IDString()] = users[i].ToCompact()
	}
	return out
}
