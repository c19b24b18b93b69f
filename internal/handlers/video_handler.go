package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// VideoHandler handles video publishing and listing
type VideoHandler struct {
	videos *services.VideoService
}

// NewVideoHandler creates a new VideoHandler
func NewVideoHandler(videos *services.VideoService) *VideoHandler {
	return &VideoHandler{videos: videos}
}

// RegisterVideoRoutes registers video routes; all of them need a session
func (h *VideoHandler) RegisterVideoRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/publish", h.PublishVideo, requireAuth)
	g.GET("/getAll-videos", h.GetAllVideos, requireAuth)
	g.GET("/:id", h.GetVideo, requireAuth)
}

// PublishVideo accepts a multipart form with videoFile, thumbnail, title, description and duration
func (h *VideoHandler) PublishVideo(c echo.Context) error {
	var req models.PublishVideoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	video, closeVideo, err := openUpload(c, "videoFile")
	if err != nil {
		return err
	}
	defer closeVideo()
	thumbnail, closeThumb, err := openUpload(c, "thumbnail")
	if err != nil {
		return err
	}
	defer closeThumb()

	published, err := h.videos.PublishVideo(c.Request().Context(), getUserIDFromContext(c), req, video, thumbnail)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusCreated, published, "Video published successfully")
}

// GetAllVideos returns a page of videos
func (h *VideoHandler) GetAllVideos(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.videos.ListVideos(c.Request().Context(), page, limit)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, result, "Videos fetched successfully")
}

// GetVideo returns a single video
func (h *VideoHandler) GetVideo(c echo.Context) error {
	video, err := h.videos.GetVideo(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, video, "Video fetched successfully")
}

func openUpload(c echo.Context, field string) (*services.UploadFile, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, badRequest(field + " is required")
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, badRequest("could not read " + field)
	}
	return &services.UploadFile{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	}, closer(file), nil
}

func closer(f multipart.File) func() {
	return func() { _ = f.Close() }
}
