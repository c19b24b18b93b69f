package models

import "time"

// Notification types
const (
	NotificationBranch = "branch" // someone branched a video off one of yours
)

// Notification is a story activity notice for a video owner (PostgreSQL)
type Notification struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Type         string    `json:"type" gorm:"size:30;index"`
	ActorID      string    `json:"actor_id" gorm:"size:64;index"`
	RecipientID  string    `json:"recipient_id" gorm:"size:64;index:idx_notifications_recipient_created,priority:1"`
	VideoID      string    `json:"video_id" gorm:"size:24"`        // the video that received the branch
	BranchID     string    `json:"branch_id" gorm:"size:24"`       // the video linked under it
	StoryID      string    `json:"story_id,omitempty" gorm:"size:24"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Message      string    `json:"message"`
	IsRead       bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"index:idx_notifications_recipient_created,priority:2"`
}
