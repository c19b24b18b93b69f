package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// OrphanPolicy decides what happens to the branches of a deleted video
type OrphanPolicy string

const (
	// OrphanPreserve detaches the direct children; their subtrees stay in storage
	OrphanPreserve OrphanPolicy = "preserve"
	// OrphanCascade deletes every descendant of the deleted video
	OrphanCascade OrphanPolicy = "cascade"
)

// ParseOrphanPolicy validates a configured policy name
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch OrphanPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrphanPreserve:
		return OrphanPreserve, nil
	case OrphanCascade:
		return OrphanCascade, nil
	}
	return "", fmt.Errorf("unknown orphan policy %q", s)
}

const (
	compensationTimeout = 5 * time.Second
	treeBuildTimeout    = 30 * time.Second
)

// BranchLink is the result of linking a branch video under a parent
type BranchLink struct {
	ParentVideo *models.Video `json:"parent_video"`
	BranchVideo *models.Video `json:"branch_video"`
}

// StoryService manages stories and the branch links between their videos
type StoryService struct {
	stories repositories.StoryRepository
	videos  repositories.VideoRepository
	cache   TreeCache
	policy  OrphanPolicy
	notify  BranchNotifier
	logger  *zap.Logger
	trees   singleflight.Group
}

// NewStoryService creates a new StoryService
func NewStoryService(stories repositories.StoryRepository, videos repositories.VideoRepository, cache TreeCache, policy OrphanPolicy, logger *zap.Logger) *StoryService {
	if cache == nil {
		cache = NewNoopTreeCache()
	}
	if policy == "" {
		policy = OrphanPreserve
	}
	return &StoryService{
		stories: stories,
		videos:  videos,
		cache:   cache,
		policy:  policy,
		logger:  logger.Named("stories"),
	}
}

// SetNotifier installs n to be told about new branch links
func (s *StoryService) SetNotifier(n BranchNotifier) {
	s.notify = n
}

// CreateStory creates a story rooted at rootVideoID and tags the root video with it.
// The story is removed again if the root video cannot be tagged.
func (s *StoryService) CreateStory(ctx context.Context, title, description, rootVideoID, creatorID string) (*models.Story, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" || strings.TrimSpace(rootVideoID) == "" {
		return nil, invalidArgument("title, description and rootVideoId are required to create a story")
	}
	if creatorID == "" {
		return nil, invalidArgument("creator is required")
	}
	rootID, err := parseID("rootVideoId", rootVideoID)
	if err != nil {
		return nil, err
	}

	root, err := s.getVideo(ctx, rootID, "root video not found")
	if err != nil {
		return nil, err
	}
	if root.Story != nil {
		return nil, conflict("root video already belongs to a story")
	}
	if root.ParentVideo != nil {
		return nil, conflict("root video is a branch of another video")
	}

	story := &models.Story{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: description,
		RootVideo:   rootID,
		CreatedBy:   creatorID,
	}
	if err := s.stories.CreateStory(ctx, story); err != nil {
		return nil, internal("failed to create story", err)
	}

	if err := s.videos.SetStory(ctx, rootID, story.ID); err != nil {
		s.compensateStory(ctx, story.ID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, notFound("root video not found")
		case errors.Is(err, repositories.ErrConditionFailed):
			return nil, conflict("root video already belongs to a story")
		}
		return nil, internal("failed to link root video to story", err)
	}
	s.tagSubtree(ctx, root, story.ID)

	s.logger.Info("story created", zap.String("story_id", story.ID.Hex()), zap.String("root_video", rootID.Hex()))
	return story, nil
}

func (s *StoryService) compensateStory(ctx context.Context, storyID primitive.ObjectID) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if err := s.stories.DeleteStory(cctx, storyID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		s.logger.Error("failed to roll back story after root video update failed",
			zap.String("story_id", storyID.Hex()), zap.Error(err))
	}
}

// AddBranch links branchVideoID under parentVideoID.
// The child back-reference is written first, then the parent's branches list.
func (s *StoryService) AddBranch(ctx context.Context, parentVideoID, branchVideoID, requesterID string) (*BranchLink, error) {
	if requesterID == "" {
		return nil, invalidArgument("requester is required")
	}
	parentID, err := parseID("parent video id", parentVideoID)
	if err != nil {
		return nil, err
	}
	branchID, err := parseID("branchVideoId", branchVideoID)
	if err != nil {
		return nil, err
	}
	if parentID == branchID {
		return nil, invalidArgument("a video cannot be a branch of itself")
	}

	parent, err := s.getVideo(ctx, parentID, "parent video not found")
	if err != nil {
		return nil, err
	}
	branch, err := s.getVideo(ctx, branchID, "branch video not found")
	if err != nil {
		return nil, err
	}

	if parent.HasBranch(branchID) {
		return nil, conflict("this video is already a branch of the parent video")
	}
	if branch.ParentVideo != nil && *branch.ParentVideo != parentID {
		return nil, conflict("branch video already belongs to another parent video")
	}
	if branch.Story != nil && (parent.Story == nil || *branch.Story != *parent.Story) {
		return nil, conflict("branch video already belongs to a different story")
	}
	if err := s.ensureNotAncestor(ctx, parent, branchID); err != nil {
		return nil, err
	}
	if _, err := s.stories.GetStoryByRootVideo(ctx, branchID); err == nil {
		return nil, conflict("branch video is the root of a story")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internal("failed to check story roots", err)
	}

	// A child already pointing at this parent is left-over drift; only the parent side is missing.
	childLinked := false
	if branch.ParentVideo == nil {
		if err := s.videos.SetParent(ctx, branchID, parentID, parent.Story); err != nil {
			switch {
			case errors.Is(err, repositories.ErrNotFound):
				return nil, notFound("branch video not found")
			case errors.Is(err, repositories.ErrConditionFailed):
				return nil, conflict("branch video was linked to another parent concurrently")
			}
			return nil, internal("failed to link branch video", err)
		}
		childLinked = true
	}

	if err := s.videos.AddBranch(ctx, parentID, branchID); err != nil {
		if childLinked {
			s.compensateParent(ctx, branchID, parentID)
		}
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, notFound("parent video not found")
		case errors.Is(err, repositories.ErrConditionFailed):
			return nil, conflict("this video is already a branch of the parent video")
		}
		return nil, internal("failed to add branch to parent video", err)
	}
	if parent.Story != nil {
		s.tagSubtree(ctx, branch, *parent.Story)
	}
	invalidateStory(ctx, s.cache, s.logger, parent.Story)

	parent, err = s.getVideo(ctx, parentID, "parent video not found")
	if err != nil {
		return nil, err
	}
	branch, err = s.getVideo(ctx, branchID, "branch video not found")
	if err != nil {
		return nil, err
	}
	s.logger.Info("branch linked", zap.String("parent_video", parentID.Hex()), zap.String("branch_video", branchID.Hex()),
		zap.String("requester", requesterID))
	if s.notify != nil {
		s.notify.BranchAdded(parent, branch, requesterID)
	}
	return &BranchLink{ParentVideo: parent, BranchVideo: branch}, nil
}

// tagSubtree tags top and every video below it with storyID, so that a mutation anywhere in
// the subtree invalidates the story's cached tree. Videos missed here are tagged by the next tree read.
func (s *StoryService) tagSubtree(ctx context.Context, top *models.Video, storyID primitive.ObjectID) {
	descendants, err := s.collectDescendants(ctx, top)
	if err == nil {
		ids := append([]primitive.ObjectID{top.ID}, videoIDs(descendants)...)
		_, err = s.videos.TagStory(ctx, ids, storyID)
	}
	if err != nil {
		s.logger.Warn("failed to tag subtree with its story",
			zap.String("story_id", storyID.Hex()), zap.String("video_id", top.ID.Hex()), zap.Error(err))
	}
}

func (s *StoryService) compensateParent(ctx context.Context, childID, parentID primitive.ObjectID) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if err := s.videos.ClearParent(cctx, childID, parentID); err != nil {
		// Left for the next tree read to repair.
		s.logger.Warn("failed to roll back branch back-reference",
			zap.String("branch_video", childID.Hex()), zap.String("parent_video", parentID.Hex()), zap.Error(err))
	}
}

// ensureNotAncestor walks up from parent and refuses candidate if it is found on the way
func (s *StoryService) ensureNotAncestor(ctx context.Context, parent *models.Video, candidate primitive.ObjectID) error {
	seen := map[primitive.ObjectID]bool{parent.ID: true}
	next := parent.ParentVideo
	for next != nil {
		if *next == candidate {
			return conflict("branch video is an ancestor of the parent video; linking it would create a cycle")
		}
		if seen[*next] {
			s.logger.Warn("cycle found in parent chain", zap.String("video_id", next.Hex()))
			return nil
		}
		seen[*next] = true
		ancestor, err := s.videos.GetVideoByID(ctx, *next)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil
			}
			return internal("failed to load ancestor video", err)
		}
		next = ancestor.ParentVideo
	}
	return nil
}

// GetStory returns a story with its root video and the root's direct branches
func (s *StoryService) GetStory(ctx context.Context, storyID string) (*models.StoryOverview, error) {
	story, err := s.getStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	overview := &models.StoryOverview{Story: story, Branches: []models.VideoSummary{}}

	root, err := s.videos.GetVideoByID(ctx, story.RootVideo)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warn("story root video missing", zap.String("story_id", story.ID.Hex()), zap.String("video_id", story.RootVideo.Hex()))
			return overview, nil
		}
		return nil, internal("failed to load root video", err)
	}
	summary := root.ToSummary()
	overview.RootVideo = &summary

	branches, err := s.videos.GetVideosByIDs(ctx, root.Branches)
	if err != nil {
		return nil, internal("failed to load branches", err)
	}
	byID := make(map[primitive.ObjectID]*models.Video, len(branches))
	for i := range branches {
		byID[branches[i].ID] = &branches[i]
	}
	for _, id := range root.Branches {
		if b, ok := byID[id]; ok {
			overview.Branches = append(overview.Branches, b.ToSummary())
		}
	}
	return overview, nil
}

// ListStories returns every story, newest first, with its root video summary
func (s *StoryService) ListStories(ctx context.Context) ([]models.StoryListItem, error) {
	stories, err := s.stories.ListStories(ctx)
	if err != nil {
		return nil, internal("failed to list stories", err)
	}
	rootIDs := make([]primitive.ObjectID, 0, len(stories))
	for _, st := range stories {
		rootIDs = append(rootIDs, st.RootVideo)
	}
	roots, err := s.videos.GetVideosByIDs(ctx, rootIDs)
	if err != nil {
		return nil, internal("failed to load root videos", err)
	}
	byID := make(map[primitive.ObjectID]models.VideoSummary, len(roots))
	for i := range roots {
		byID[roots[i].ID] = roots[i].ToSummary()
	}

	items := make([]models.StoryListItem, 0, len(stories))
	for _, st := range stories {
		item := models.StoryListItem{Story: st}
		if summary, ok := byID[st.RootVideo]; ok {
			item.RootVideo = &summary
		}
		items = append(items, item)
	}
	return items, nil
}

// GetFullStoryTree resolves the whole branch tree of a story.
// Concurrent fetches of the same story share one traversal as long as no write to the
// story lands in between; a traversal overtaken by a write is returned but not cached.
func (s *StoryService) GetFullStoryTree(ctx context.Context, storyID string) (*models.StoryTree, error) {
	id, err := parseID("storyId", storyID)
	if err != nil {
		return nil, err
	}
	key := id.Hex()

	if tree, ok, err := s.cache.GetTree(ctx, key); err != nil {
		s.logger.Warn("story tree cache read failed", zap.String("story_id", key), zap.Error(err))
	} else if ok {
		return tree, nil
	}

	cacheable := true
	gen, err := s.cache.Generation(ctx, key)
	if err != nil {
		s.logger.Warn("story tree generation read failed", zap.String("story_id", key), zap.Error(err))
		cacheable = false
	}

	flight := fmt.Sprintf("%s:%d:%t", key, gen, cacheable)
	v, err, _ := s.trees.Do(flight, func() (interface{}, error) {
		// Shared by every caller in the flight; one of them going away must not fail the rest.
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), treeBuildTimeout)
		defer cancel()

		tree, err := s.buildTree(bctx, id)
		if err != nil {
			return nil, err
		}
		// Trees that needed repairs are rebuilt from the repaired storage next time.
		if cacheable && len(tree.IntegrityWarnings) == 0 {
			if err := s.cache.SetTree(bctx, tree, gen); err != nil {
				s.logger.Warn("story tree cache write failed", zap.String("story_id", key), zap.Error(err))
			}
		}
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.StoryTree), nil
}

func (s *StoryService) buildTree(ctx context.Context, id primitive.ObjectID) (*models.StoryTree, error) {
	story, err := s.stories.GetStoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("story not found")
		}
		return nil, internal("failed to load story", err)
	}

	w := &treeWalker{
		ctx:    ctx,
		svc:    s,
		story:  story,
		onPath: make(map[primitive.ObjectID]bool),
	}
	tree := &models.StoryTree{Story: *story}

	root, err := s.videos.GetVideoByID(ctx, story.RootVideo)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, internal("failed to load root video", err)
		}
		w.warn(story.RootVideo, "story root video does not exist", false)
	} else {
		node, err := w.walk(root)
		if err != nil {
			return nil, err
		}
		tree.RootVideoTree = node
	}
	tree.IntegrityWarnings = w.warnings
	return tree, nil
}

// treeWalker carries the state of one depth-first traversal
type treeWalker struct {
	ctx      context.Context
	svc      *StoryService
	story    *models.Story
	onPath   map[primitive.ObjectID]bool
	warnings []models.IntegrityWarning
}

func (w *treeWalker) warn(videoID primitive.ObjectID, issue string, repaired bool) {
	w.warnings = append(w.warnings, models.IntegrityWarning{VideoID: videoID.Hex(), Issue: issue, Repaired: repaired})
	w.svc.logger.Warn("story tree structural integrity violation",
		zap.String("kind", string(KindStructuralIntegrity)),
		zap.String("story_id", w.story.ID.Hex()),
		zap.String("video_id", videoID.Hex()),
		zap.String("issue", issue),
		zap.Bool("repaired", repaired))
}

func (w *treeWalker) walk(video *models.Video) (*models.VideoNode, error) {
	node := newVideoNode(video)
	w.onPath[video.ID] = true
	defer delete(w.onPath, video.ID)

	candidates, err := w.svc.videos.GetBranchCandidates(w.ctx, video.ID, video.Branches)
	if err != nil {
		return nil, internal("failed to load branches", err)
	}
	byID := make(map[primitive.ObjectID]*models.Video, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
	}

	listed := make(map[primitive.ObjectID]bool, len(video.Branches))
	for _, branchID := range video.Branches {
		if listed[branchID] {
			w.warn(branchID, "branch listed more than once", false)
			continue
		}
		listed[branchID] = true

		child, ok := byID[branchID]
		if !ok {
			err := w.svc.videos.RemoveBranch(w.ctx, video.ID, branchID)
			w.warn(branchID, "listed branch does not exist", err == nil)
			continue
		}
		if w.onPath[branchID] {
			w.warn(branchID, "branch is already on the current path (cycle)", false)
			node.Branches = append(node.Branches, truncatedNode(child))
			continue
		}
		switch {
		case child.ParentVideo == nil:
			err := w.svc.videos.SetParent(w.ctx, child.ID, video.ID, &w.story.ID)
			w.warn(branchID, "branch is missing its parent back-reference", err == nil)
		case *child.ParentVideo != video.ID:
			w.warn(branchID, "branch references a different parent video", false)
			w.ensureTagged(child)
		default:
			w.ensureTagged(child)
		}
		sub, err := w.walk(child)
		if err != nil {
			return nil, err
		}
		node.Branches = append(node.Branches, *sub)
	}

	// Children that point at this node but were never added to its branches.
	unlisted := make([]*models.Video, 0)
	for i := range candidates {
		c := &candidates[i]
		if !listed[c.ID] && c.ParentVideo != nil && *c.ParentVideo == video.ID {
			unlisted = append(unlisted, c)
		}
	}
	sort.Slice(unlisted, func(i, j int) bool { return unlisted[i].CreatedAt.Before(unlisted[j].CreatedAt) })
	for _, child := range unlisted {
		if w.onPath[child.ID] {
			w.warn(child.ID, "branch is already on the current path (cycle)", false)
			node.Branches = append(node.Branches, truncatedNode(child))
			continue
		}
		err := w.svc.videos.AddBranch(w.ctx, video.ID, child.ID)
		w.warn(child.ID, "child is not listed in its parent's branches", err == nil || errors.Is(err, repositories.ErrConditionFailed))
		w.ensureTagged(child)
		sub, err := w.walk(child)
		if err != nil {
			return nil, err
		}
		node.Branches = append(node.Branches, *sub)
	}
	return node, nil
}

// ensureTagged tags a rendered video that does not carry the story yet
func (w *treeWalker) ensureTagged(v *models.Video) {
	if v.Story != nil {
		return
	}
	_, err := w.svc.videos.TagStory(w.ctx, []primitive.ObjectID{v.ID}, w.story.ID)
	w.warn(v.ID, "branch is not tagged with the story", err == nil)
}

func newVideoNode(v *models.Video) *models.VideoNode {
	return &models.VideoNode{
		ID:          v.ID.Hex(),
		Title:       v.Title,
		Description: v.Description,
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Views:       v.Views,
		Votes:       v.Votes,
		Branches:    []models.VideoNode{},
	}
}

func truncatedNode(v *models.Video) models.VideoNode {
	n := newVideoNode(v)
	n.Truncated = true
	return *n
}

// DeleteStory deletes a story and every video tagged with it. Only the creator may delete.
func (s *StoryService) DeleteStory(ctx context.Context, storyID, requesterID string) error {
	story, err := s.getStory(ctx, storyID)
	if err != nil {
		return err
	}
	if story.CreatedBy != requesterID {
		return forbidden("not authorized to delete this story")
	}

	// Everything reachable from the root goes too, tagged or not, so no survivor keeps a
	// parent reference into the deleted tree. Videos of another story are left alone.
	var reachable []primitive.ObjectID
	root, err := s.videos.GetVideoByID(ctx, story.RootVideo)
	switch {
	case err == nil:
		descendants, err := s.collectDescendants(ctx, root)
		if err != nil {
			return err
		}
		reachable = append(reachable, root.ID)
		for _, v := range descendants {
			if v.Story == nil || *v.Story == story.ID {
				reachable = append(reachable, v.ID)
			}
		}
	case !errors.Is(err, repositories.ErrNotFound):
		return internal("failed to load root video", err)
	}

	deleted, err := s.videos.DeleteVideosByIDs(ctx, reachable)
	if err != nil {
		return internal("failed to delete story videos", err)
	}
	tagged, err := s.videos.DeleteVideosByStory(ctx, story.ID)
	if err != nil {
		return internal("failed to delete story videos", err)
	}
	deleted += tagged
	if err := s.stories.DeleteStory(ctx, story.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return internal("failed to delete story", err)
	}
	invalidateStory(ctx, s.cache, s.logger, &story.ID)

	s.logger.Info("story deleted", zap.String("story_id", story.ID.Hex()), zap.Int64("videos_deleted", deleted))
	return nil
}

// DeleteVideo detaches a video from its parent, applies the orphan policy to its branches
// and deletes it. Only the owner may delete; a story's root video cannot be deleted on its own.
func (s *StoryService) DeleteVideo(ctx context.Context, videoID, requesterID string) error {
	id, err := parseID("videoId", videoID)
	if err != nil {
		return err
	}
	video, err := s.getVideo(ctx, id, "video not found")
	if err != nil {
		return err
	}
	if video.Owner != requesterID {
		return forbidden("not authorized to delete this video")
	}

	if _, err := s.stories.GetStoryByRootVideo(ctx, id); err == nil {
		return conflict("video is the root of a story; delete the story instead")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return internal("failed to check story roots", err)
	}

	if video.ParentVideo != nil {
		if err := s.videos.RemoveBranch(ctx, *video.ParentVideo, id); err != nil {
			if !errors.Is(err, repositories.ErrNotFound) {
				return internal("failed to detach video from its parent", err)
			}
			s.logger.Warn("parent of deleted video does not exist", zap.String("video_id", id.Hex()), zap.String("parent_video", video.ParentVideo.Hex()))
		}
	}

	switch s.policy {
	case OrphanCascade:
		descendants, err := s.collectDescendants(ctx, video)
		if err != nil {
			return err
		}
		if _, err := s.videos.DeleteVideosByIDs(ctx, videoIDs(descendants)); err != nil {
			return internal("failed to delete descendant videos", err)
		}
	default:
		if err := s.videos.ClearParentOfChildren(ctx, id); err != nil {
			return internal("failed to detach child videos", err)
		}
	}

	if err := s.videos.DeleteVideo(ctx, id); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return internal("failed to delete video", err)
	}
	invalidateStory(ctx, s.cache, s.logger, video.Story)

	s.logger.Info("video deleted", zap.String("video_id", id.Hex()), zap.String("orphan_policy", string(s.policy)))
	return nil
}

// collectDescendants returns every video below root, each once, cycle-safe
func (s *StoryService) collectDescendants(ctx context.Context, root *models.Video) ([]models.Video, error) {
	seen := map[primitive.ObjectID]bool{root.ID: true}
	var found []models.Video
	queue := []*models.Video{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		children, err := s.videos.GetBranchCandidates(ctx, current.ID, current.Branches)
		if err != nil {
			return nil, internal("failed to load descendant videos", err)
		}
		for i := range children {
			child := &children[i]
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			found = append(found, *child)
			queue = append(queue, child)
		}
	}
	return found, nil
}

func videoIDs(videos []models.Video) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(videos))
	for i := range videos {
		ids = append(ids, videos[i].ID)
	}
	return ids
}

func (s *StoryService) getStory(ctx context.Context, storyID string) (*models.Story, error) {
	id, err := parseID("storyId", storyID)
	if err != nil {
		return nil, err
	}
	story, err := s.stories.GetStoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("story not found")
		}
		return nil, internal("failed to load story", err)
	}
	return story, nil
}

func (s *StoryService) getVideo(ctx context.Context, id primitive.ObjectID, missing string) (*models.Video, error) {
	video, err := s.videos.GetVideoByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("%s", missing)
		}
		return nil, internal("failed to load video", err)
	}
	return video, nil
}
