package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/repositories"
	"github.com/anonto42/story-branch/backend/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var (
	videoExtensions = map[string]string{
		".mp4":  "video/mp4",
		".mov":  "video/quicktime",
		".mkv":  "video/x-matroska",
		".avi":  "video/x-msvideo",
		".webm": "video/webm",
	}
	imageExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
	}
)

// ObjectStore persists uploaded media and returns its public URL
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// UploadFile is one file part of a multipart upload
type UploadFile struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// VideoPage is one page of the video listing
type VideoPage struct {
	Videos     []models.Video `json:"videos"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// VideoService publishes and lists videos
type VideoService struct {
	videos   repositories.VideoRepository
	store    ObjectStore
	maxBytes int64
	logger   *zap.Logger
}

// NewVideoService creates a new VideoService
func NewVideoService(videos repositories.VideoRepository, store ObjectStore, maxBytes int64, logger *zap.Logger) *VideoService {
	return &VideoService{videos: videos, store: store, maxBytes: maxBytes, logger: logger.Named("videos")}
}

// PublishVideo uploads the media of a new video, then records it owned by ownerID
func (s *VideoService) PublishVideo(ctx context.Context, ownerID string, req models.PublishVideoRequest, video, thumbnail *UploadFile) (*models.Video, error) {
	if ownerID == "" {
		return nil, invalidArgument("owner is required")
	}
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, invalidArgument("title and description are required")
	}
	if video == nil || thumbnail == nil {
		return nil, invalidArgument("video file and thumbnail are required")
	}
	if req.Duration < 0 {
		return nil, invalidArgument("duration cannot be negative")
	}

	videoExt := strings.ToLower(filepath.Ext(video.Filename))
	contentType, ok := videoExtensions[videoExt]
	if !ok {
		return nil, invalidArgument("unsupported video format %q", videoExt)
	}
	if !imageExtensions[strings.ToLower(filepath.Ext(thumbnail.Filename))] {
		return nil, invalidArgument("thumbnail must be a jpg, png or gif image")
	}
	if s.maxBytes > 0 && (video.Size > s.maxBytes || thumbnail.Size > s.maxBytes) {
		return nil, invalidArgument("file exceeds the %d byte upload limit", s.maxBytes)
	}

	thumb, err := storage.MakeThumbnail(thumbnail.Body)
	if err != nil {
		return nil, invalidArgument("thumbnail is not a valid image")
	}

	name := uuid.NewString()
	videoKey := "videos/" + ownerID + "/" + name + videoExt
	thumbKey := "thumbnails/" + ownerID + "/" + name + ".jpg"

	videoURL, err := s.store.Upload(ctx, videoKey, contentType, video.Body)
	if err != nil {
		return nil, internal("failed to upload video file", err)
	}
	thumbURL, err := s.store.Upload(ctx, thumbKey, "image/jpeg", bytes.NewReader(thumb))
	if err != nil {
		s.removeObjects(ctx, videoKey)
		return nil, internal("failed to upload thumbnail", err)
	}

	record := &models.Video{
		Title:       title,
		Description: description,
		VideoFile:   videoURL,
		Thumbnail:   thumbURL,
		Duration:    req.Duration,
		IsPublished: true,
		Owner:       ownerID,
	}
	if err := s.videos.CreateVideo(ctx, record); err != nil {
		s.removeObjects(ctx, videoKey, thumbKey)
		return nil, internal("failed to save video", err)
	}

	s.logger.Info("video published", zap.String("video_id", record.ID.Hex()), zap.String("owner", ownerID))
	return record, nil
}

func (s *VideoService) removeObjects(ctx context.Context, keys ...string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	for _, key := range keys {
		if err := s.store.Delete(cctx, key); err != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("key", key), zap.Error(err))
		}
	}
}

// ListVideos returns a page of videos, newest first
func (s *VideoService) ListVideos(ctx context.Context, page, limit int) (*VideoPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	videos, total, err := s.videos.ListVideos(ctx, int64((page-1)*limit), int64(limit))
	if err != nil {
		return nil, internal("failed to list videos", err)
	}
	return &VideoPage{
		Videos:     videos,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// GetVideo returns a single video
func (s *VideoService) GetVideo(ctx context.Context, videoID string) (*models.Video, error) {
	id, err := parseID("videoId", videoID)
	if err != nil {
		return nil, err
	}
	video, err := s.videos.GetVideoByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("video not found")
		}
		return nil, internal("failed to load video", err)
	}
	return video, nil
}
