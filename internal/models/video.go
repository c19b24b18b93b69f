package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vote values stored on a Voter entry
const (
	VoteUp   = 1
	VoteDown = -1
)

// Video represents an uploaded video stored in MongoDB.
// Story, ParentVideo and Branches describe its position in a story tree.
type Video struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Title       string               `json:"title" bson:"title"`
	Description string               `json:"description" bson:"description"`
	VideoFile   string               `json:"video_file" bson:"video_file"`
	Thumbnail   string               `json:"thumbnail" bson:"thumbnail"`
	Duration    float64              `json:"duration" bson:"duration"`
	Views       int64                `json:"views" bson:"views"`
	IsPublished bool                 `json:"is_published" bson:"is_published"`
	Owner       string               `json:"owner" bson:"owner"` // local user ID
	Story       *primitive.ObjectID  `json:"story" bson:"story"`
	ParentVideo *primitive.ObjectID  `json:"parent_video" bson:"parent_video"`
	Branches    []primitive.ObjectID `json:"branches" bson:"branches"`
	Votes       int                  `json:"votes" bson:"votes"`
	Voters      []Voter              `json:"voters" bson:"voters"`
	Version     int64                `json:"-" bson:"version"`
	CreatedAt   time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" bson:"updated_at"`
}

// Voter is a single user's vote on a video
type Voter struct {
	User  string `json:"user" bson:"user"`
	Value int    `json:"value" bson:"value"`
}

// HasBranch reports whether id is listed in the video's branches
func (v *Video) HasBranch(id primitive.ObjectID) bool {
	for _, b := range v.Branches {
		if b == id {
			return true
		}
	}
	return false
}

// VideoSummary is the projection used in story listings
type VideoSummary struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	VideoFile   string  `json:"video_file"`
	Thumbnail   string  `json:"thumbnail"`
	Duration    float64 `json:"duration"`
	Votes       int     `json:"votes"`
}

// ToSummary converts a Video to its summary projection
func (v *Video) ToSummary() VideoSummary {
	return VideoSummary{
		ID:          v.ID.Hex(),
		Title:       v.Title,
		Description: v.Description,
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Duration:    v.Duration,
		Votes:       v.Votes,
	}
}

// PublishVideoRequest holds the text fields of the multipart publish form
type PublishVideoRequest struct {
	Title       string  `form:"title" validate:"required,min=1,max=200"`
	Description string  `form:"description" validate:"required,min=1,max=5000"`
	Duration    float64 `form:"duration" validate:"omitempty,min=0"`
}

// VoteRequest accepts either a direction ("up"/"down") or the numeric value 1/-1
type VoteRequest struct {
	Direction string `json:"direction" validate:"omitempty,oneof=up down"`
	Value     int    `json:"value" validate:"omitempty,oneof=1 -1"`
}

// AddBranchRequest defines the request body for linking a branch video
type AddBranchRequest struct {
	BranchVideoID string `json:"branchVideoId" validate:"required"`
}
