package services

import (
	"errors"
	"fmt"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/repositories"
	"go.uber.org/zap"
)

const maxNotificationPage = 50

// BranchNotifier is told about every successful branch link
type BranchNotifier interface {
	BranchAdded(parent, branch *models.Video, actorID string)
}

// NotificationPage is one page of a user's notifications
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Pagination    Pagination            `json:"pagination"`
	UnreadCount   int64                 `json:"unread_count"`
}

// NotificationService records and serves story activity notifications
type NotificationService struct {
	notifications repositories.NotificationRepository
	logger        *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifications repositories.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: logger.Named("notifications")}
}

// BranchAdded notifies the owner of parent that actorID linked branch under it.
// Owners branching their own videos are not notified. Failures are logged only.
func (s *NotificationService) BranchAdded(parent, branch *models.Video, actorID string) {
	if parent.Owner == "" || parent.Owner == actorID {
		return
	}
	n := &models.Notification{
		Type:         models.NotificationBranch,
		ActorID:      actorID,
		RecipientID:  parent.Owner,
		VideoID:      parent.ID.Hex(),
		BranchID:     branch.ID.Hex(),
		ThumbnailURL: branch.Thumbnail,
		Message:      fmt.Sprintf("%q was added as a branch of your video %q", branch.Title, parent.Title),
	}
	if parent.Story != nil {
		n.StoryID = parent.Story.Hex()
	}
	if err := s.notifications.CreateNotification(n); err != nil {
		s.logger.Warn("failed to store branch notification",
			zap.String("recipient", parent.Owner), zap.String("video_id", n.VideoID), zap.Error(err))
	}
}

// List returns a page of recipientID's notifications, newest first
func (s *NotificationService) List(recipientID string, page, limit int) (*NotificationPage, error) {
	if recipientID == "" {
		return nil, unauthorized("user not authenticated")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxNotificationPage {
		limit = 20
	}

	notifications, total, err := s.notifications.GetByRecipientID(recipientID, page, limit)
	if err != nil {
		return nil, internal("failed to fetch notifications", err)
	}
	unread, err := s.notifications.GetUnreadCount(recipientID)
	if err != nil {
		return nil, internal("failed to count unread notifications", err)
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &NotificationPage{
		Notifications: notifications,
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			Total:       total,
			HasNext:     page < totalPages,
			HasPrev:     page > 1,
		},
		UnreadCount: unread,
	}, nil
}

// UnreadCount returns how many of recipientID's notifications are unread
func (s *NotificationService) UnreadCount(recipientID string) (int64, error) {
	count, err := s.notifications.GetUnreadCount(recipientID)
	if err != nil {
		return 0, internal("failed to count unread notifications", err)
	}
	return count, nil
}

// MarkAsRead marks one of recipientID's notifications as read
func (s *NotificationService) MarkAsRead(recipientID string, notificationID uint) error {
	if err := s.notifications.MarkAsRead(recipientID, notificationID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("notification not found")
		}
		return internal("failed to mark notification as read", err)
	}
	return nil
}

// MarkAllAsRead marks every notification of recipientID as read
func (s *NotificationService) MarkAllAsRead(recipientID string) (int64, error) {
	n, err := s.notifications.MarkAllAsRead(recipientID)
	if err != nil {
		return 0, internal("failed to mark notifications as read", err)
	}
	return n, nil
}
