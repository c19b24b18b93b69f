package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Story is a named tree of videos rooted at RootVideo
type Story struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	RootVideo   primitive.ObjectID `json:"root_video" bson:"root_video"`
	CreatedBy   string             `json:"created_by" bson:"created_by"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreateStoryRequest defines the request body for creating a story
type CreateStoryRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"required,min=1,max=5000"`
	RootVideoID string `json:"rootVideoId" validate:"required"`
}

// StoryOverview is a story with its root video and the root's direct branches
type StoryOverview struct {
	Story     *Story         `json:"story"`
	RootVideo *VideoSummary  `json:"root_video"`
	Branches  []VideoSummary `json:"branches"`
}

// StoryListItem is a story with a summary of its root video
type StoryListItem struct {
	Story     Story         `json:"story"`
	RootVideo *VideoSummary `json:"root_video"`
}

// VideoNode is one node of a fully resolved story tree
type VideoNode struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	VideoFile   string      `json:"video_file"`
	Thumbnail   string      `json:"thumbnail"`
	Views       int64       `json:"views"`
	Votes       int         `json:"votes"`
	Truncated   bool        `json:"truncated,omitempty"` // cycle detected, descent stopped here
	Branches    []VideoNode `json:"branches"`
}

// StoryTree is the response of a full tree fetch
type StoryTree struct {
	Story             Story              `json:"story"`
	RootVideoTree     *VideoNode         `json:"root_video_tree"`
	IntegrityWarnings []IntegrityWarning `json:"integrity_warnings,omitempty"`
}

// IntegrityWarning describes a cycle or dangling reference found while walking a tree
type IntegrityWarning struct {
	VideoID  string `json:"video_id"`
	Issue    string `json:"issue"`
	Repaired bool   `json:"repaired"`
}
