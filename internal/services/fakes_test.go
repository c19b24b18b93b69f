package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memVideos is an in-memory VideoRepository with the same guard semantics as the Mongo one
type memVideos struct {
	mu     sync.Mutex
	videos map[primitive.ObjectID]*models.Video
	clock  time.Time

	// beforeUpdateVotes runs before each UpdateVotes, outside the lock
	beforeUpdateVotes func()
	// failAddBranch makes AddBranch return this error
	failAddBranch error
	// afterBranchCandidates runs once, after the next GetBranchCandidates has read storage
	afterBranchCandidates func()
}

func newMemVideos() *memVideos {
	return &memVideos{videos: make(map[primitive.ObjectID]*models.Video), clock: time.Unix(1700000000, 0)}
}

func cloneVideo(v *models.Video) *models.Video {
	c := *v
	c.Branches = append([]primitive.ObjectID{}, v.Branches...)
	c.Voters = append([]models.Voter{}, v.Voters...)
	if v.Story != nil {
		s := *v.Story
		c.Story = &s
	}
	if v.ParentVideo != nil {
		p := *v.ParentVideo
		c.ParentVideo = &p
	}
	return &c
}

func missing(id primitive.ObjectID) error {
	return fmt.Errorf("video %s: %w", id.Hex(), repositories.ErrNotFound)
}

// put stores v as-is, bypassing guards; used to seed drifted states
func (m *memVideos) put(v *models.Video) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[v.ID] = cloneVideo(v)
}

// get returns a copy of the stored video, nil if absent
func (m *memVideos) get(id primitive.ObjectID) *models.Video {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil
	}
	return cloneVideo(v)
}

func (m *memVideos) CreateVideo(_ context.Context, video *models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if video.ID.IsZero() {
		video.ID = primitive.NewObjectID()
	}
	m.clock = m.clock.Add(time.Second)
	video.CreatedAt = m.clock
	video.UpdatedAt = m.clock
	if video.Branches == nil {
		video.Branches = []primitive.ObjectID{}
	}
	if video.Voters == nil {
		video.Voters = []models.Voter{}
	}
	m.videos[video.ID] = cloneVideo(video)
	return nil
}

func (m *memVideos) GetVideoByID(_ context.Context, id primitive.ObjectID) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, missing(id)
	}
	return cloneVideo(v), nil
}

func (m *memVideos) GetVideosByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Video{}
	seen := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		if v, ok := m.videos[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, *cloneVideo(v))
		}
	}
	return out, nil
}

func (m *memVideos) GetBranchCandidates(ctx context.Context, parentID primitive.ObjectID, branchIDs []primitive.ObjectID) ([]models.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := m.branchCandidates(parentID, branchIDs)
	m.mu.Lock()
	hook := m.afterBranchCandidates
	m.afterBranchCandidates = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (m *memVideos) branchCandidates(parentID primitive.ObjectID, branchIDs []primitive.ObjectID) []models.Video {
	m.mu.Lock()
	defer m.mu.Unlock()
	listed := map[primitive.ObjectID]bool{}
	for _, id := range branchIDs {
		listed[id] = true
	}
	out := []models.Video{}
	for id, v := range m.videos {
		if listed[id] || (v.ParentVideo != nil && *v.ParentVideo == parentID) {
			out = append(out, *cloneVideo(v))
		}
	}
	return out
}

func (m *memVideos) ListVideos(_ context.Context, skip, limit int64) ([]models.Video, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]models.Video, 0, len(m.videos))
	for _, v := range m.videos {
		all = append(all, *cloneVideo(v))
	}
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].CreatedAt.After(all[j-1].CreatedAt); j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	total := int64(len(all))
	if skip >= total {
		return []models.Video{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return all[skip:end], total, nil
}

func (m *memVideos) UpdateVotes(_ context.Context, id primitive.ObjectID, expectedVersion int64, voters []models.Voter, votes int) error {
	if m.beforeUpdateVotes != nil {
		m.beforeUpdateVotes()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return missing(id)
	}
	if v.Version != expectedVersion {
		return repositories.ErrVersionConflict
	}
	v.Voters = append([]models.Voter{}, voters...)
	v.Votes = votes
	v.Version++
	return nil
}

func (m *memVideos) SetStory(_ context.Context, id, storyID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return missing(id)
	}
	if v.Story != nil {
		return repositories.ErrConditionFailed
	}
	v.Story = &storyID
	v.Version++
	return nil
}

func (m *memVideos) TagStory(_ context.Context, ids []primitive.ObjectID, storyID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if v, ok := m.videos[id]; ok && v.Story == nil {
			s := storyID
			v.Story = &s
			v.Version++
			n++
		}
	}
	return n, nil
}

func (m *memVideos) SetParent(_ context.Context, id, parentID primitive.ObjectID, storyID *primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return missing(id)
	}
	if v.ParentVideo != nil {
		return repositories.ErrConditionFailed
	}
	v.ParentVideo = &parentID
	if storyID != nil {
		s := *storyID
		v.Story = &s
	}
	v.Version++
	return nil
}

func (m *memVideos) ClearParent(_ context.Context, id, parentID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return missing(id)
	}
	if v.ParentVideo == nil || *v.ParentVideo != parentID {
		return repositories.ErrConditionFailed
	}
	v.ParentVideo = nil
	v.Version++
	return nil
}

func (m *memVideos) ClearParentOfChildren(_ context.Context, parentID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.videos {
		if v.ParentVideo != nil && *v.ParentVideo == parentID {
			v.ParentVideo = nil
			v.Version++
		}
	}
	return nil
}

func (m *memVideos) AddBranch(_ context.Context, parentID, branchID primitive.ObjectID) error {
	if m.failAddBranch != nil {
		return m.failAddBranch
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[parentID]
	if !ok {
		return missing(parentID)
	}
	if v.HasBranch(branchID) {
		return repositories.ErrConditionFailed
	}
	v.Branches = append(v.Branches, branchID)
	v.Version++
	return nil
}

func (m *memVideos) RemoveBranch(_ context.Context, parentID, branchID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[parentID]
	if !ok {
		return missing(parentID)
	}
	kept := v.Branches[:0]
	for _, id := range v.Branches {
		if id != branchID {
			kept = append(kept, id)
		}
	}
	v.Branches = kept
	v.Version++
	return nil
}

func (m *memVideos) DeleteVideo(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[id]; !ok {
		return missing(id)
	}
	delete(m.videos, id)
	return nil
}

func (m *memVideos) DeleteVideosByIDs(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.videos[id]; ok {
			delete(m.videos, id)
			n++
		}
	}
	return n, nil
}

func (m *memVideos) DeleteVideosByStory(_ context.Context, storyID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, v := range m.videos {
		if v.Story != nil && *v.Story == storyID {
			delete(m.videos, id)
			n++
		}
	}
	return n, nil
}

// memStories is an in-memory StoryRepository
type memStories struct {
	mu      sync.Mutex
	stories map[primitive.ObjectID]models.Story
	clock   time.Time
}

func newMemStories() *memStories {
	return &memStories{stories: make(map[primitive.ObjectID]models.Story), clock: time.Unix(1700000000, 0)}
}

func (m *memStories) CreateStory(_ context.Context, story *models.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if story.ID.IsZero() {
		story.ID = primitive.NewObjectID()
	}
	m.clock = m.clock.Add(time.Second)
	story.CreatedAt = m.clock
	story.UpdatedAt = m.clock
	m.stories[story.ID] = *story
	return nil
}

func (m *memStories) GetStoryByID(_ context.Context, id primitive.ObjectID) (*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[id]
	if !ok {
		return nil, fmt.Errorf("story %s: %w", id.Hex(), repositories.ErrNotFound)
	}
	return &s, nil
}

func (m *memStories) GetStoryByRootVideo(_ context.Context, videoID primitive.ObjectID) (*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stories {
		if s.RootVideo == videoID {
			s := s
			return &s, nil
		}
	}
	return nil, fmt.Errorf("story: %w", repositories.ErrNotFound)
}

func (m *memStories) ListStories(_ context.Context) ([]models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Story, 0, len(m.stories))
	for _, s := range m.stories {
		out = append(out, s)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.After(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (m *memStories) DeleteStory(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stories[id]; !ok {
		return fmt.Errorf("story %s: %w", id.Hex(), repositories.ErrNotFound)
	}
	delete(m.stories, id)
	return nil
}

// memTreeCache records cache traffic
type memTreeCache struct {
	mu          sync.Mutex
	trees       map[string]*models.StoryTree
	generations map[string]int64
	invalidated []string
}

func newMemTreeCache() *memTreeCache {
	return &memTreeCache{trees: make(map[string]*models.StoryTree), generations: make(map[string]int64)}
}

func (c *memTreeCache) GetTree(_ context.Context, storyID string) (*models.StoryTree, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.trees[storyID]
	return t, ok, nil
}

func (c *memTreeCache) Generation(_ context.Context, storyID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[storyID], nil
}

func (c *memTreeCache) SetTree(_ context.Context, tree *models.StoryTree, generation int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := tree.Story.ID.Hex()
	if c.generations[id] == generation {
		c.trees[id] = tree
	}
	return nil
}

func (c *memTreeCache) Invalidate(_ context.Context, storyIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range storyIDs {
		delete(c.trees, id)
		c.generations[id]++
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

// memNotifications is an in-memory NotificationRepository
type memNotifications struct {
	mu      sync.Mutex
	items   []models.Notification
	nextID  uint
	failErr error
}

func (m *memNotifications) CreateNotification(n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.nextID++
	n.ID = m.nextID
	n.CreatedAt = time.Unix(1700000000+int64(n.ID), 0)
	m.items = append(m.items, *n)
	return nil
}

func (m *memNotifications) GetByRecipientID(recipientID string, page, limit int) ([]models.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mine := []models.Notification{}
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].RecipientID == recipientID {
			mine = append(mine, m.items[i])
		}
	}
	total := int64(len(mine))
	start := (page - 1) * limit
	if start >= len(mine) {
		return []models.Notification{}, total, nil
	}
	end := start + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[start:end], total, nil
}

func (m *memNotifications) GetUnreadCount(recipientID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.RecipientID == recipientID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) MarkAsRead(recipientID string, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].RecipientID == recipientID {
			m.items[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %d: %w", id, repositories.ErrNotFound)
}

func (m *memNotifications) MarkAllAsRead(recipientID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].RecipientID == recipientID && !m.items[i].IsRead {
			m.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

// memUsers is an in-memory UserRepository
type memUsers struct {
	mu     sync.Mutex
	users  map[uint]*models.User
	nextID uint
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uint]*models.User)}
}

func (m *memUsers) noUser() error {
	return fmt.Errorf("user: %w", repositories.ErrNotFound)
}

func (m *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, m.noUser()
}

func (m *memUsers) CreateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *memUsers) GetUserByID(id uint) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) GetUserByEmail(email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memUsers) GetUserByUsername(username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username })
}

func (m *memUsers) GetUserByFirebaseUID(uid string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == uid })
}

func (m *memUsers) GetUsersByIDs(ids []uint) ([]models.User, error) {
	out := []models.User{}
	for _, id := range ids {
		if u, err := m.GetUserByID(id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) UpdateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return m.noUser()
	}
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *memUsers) SetRefreshToken(id uint, hashed string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return m.noUser()
	}
	u.RefreshToken = hashed
	return nil
}

func (m *memUsers) SearchUsers(query string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	out := []models.User{}
	for _, u := range m.users {
		if strings.Contains(strings.ToLower(u.FullName), q) || strings.Contains(u.Username, q) || strings.Contains(u.Email, q) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// memOrders is an in-memory OrderRepository
type memOrders struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
	clock  time.Time
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[primitive.ObjectID]*models.Order), clock: time.Unix(1700000000, 0)}
}

func (m *memOrders) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	m.clock = m.clock.Add(time.Minute)
	order.CreatedAt = m.clock
	order.UpdatedAt = m.clock
	c := *order
	m.orders[order.ID] = &c
	return nil
}

func (m *memOrders) GetOrderByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id.Hex(), repositories.ErrNotFound)
	}
	c := *o
	return &c, nil
}

func (m *memOrders) GetOrderByTrackingNumber(_ context.Context, tn string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.TrackingNumber != "" && o.TrackingNumber == tn {
			c := *o
			return &c, nil
		}
	}
	return nil, fmt.Errorf("order: %w", repositories.ErrNotFound)
}

func (m *memOrders) GetOrdersByUser(_ context.Context, userID, status string, skip, limit int64) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mine := []models.Order{}
	for _, o := range m.orders {
		if o.User == userID && (status == "" || o.Status == status) {
			mine = append(mine, *o)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	total := int64(len(mine))
	if skip >= total {
		return []models.Order{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return mine[skip:end], total, nil
}

func (m *memOrders) UpdateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return fmt.Errorf("order %s: %w", order.ID.Hex(), repositories.ErrNotFound)
	}
	c := *order
	m.orders[order.ID] = &c
	return nil
}

// memObjectStore keeps uploaded objects in memory
type memObjectStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failOnKey string
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (s *memObjectStore) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	if s.failOnKey != "" && strings.HasPrefix(key, s.failOnKey) {
		return "", errors.New("storage unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (s *memObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memObjectStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
