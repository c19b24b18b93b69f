package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/repositories"
	"github.com/anonto42/story-branch/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notifications  *services.NotificationService
	userRepository repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *services.NotificationService, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notifications:  notifications,
		userRepository: userRepo,
	}
}

// RegisterNotificationRoutes registers notification routes; all of them need a session
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("", h.GetNotifications, requireAuth)
	g.GET("/unread-count", h.GetUnreadCount, requireAuth)
	g.PUT("/read-all", h.MarkAllAsRead, requireAuth)
	g.PUT("/:id/read", h.MarkAsRead, requireAuth)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor *models.UserCompact `json:"actor,omitempty"`
}

func (h *NotificationHandler) enrichNotifications(notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	userCache := make(map[string]*models.UserCompact)

	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		actor, ok := userCache[n.ActorID]
		if !ok {
			if id, err := strconv.ParseUint(n.ActorID, 10, 64); err == nil {
				if user, err := h.userRepository.GetUserByID(uint(id)); err == nil {
					compact := user.ToCompact()
					actor = &compact
				}
			}
			userCache[n.ActorID] = actor
		}
		enriched[i].Actor = actor
	}
	return enriched
}

// GetNotifications returns paginated notifications with the unread count
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.notifications.List(getUserIDFromContext(c), page, limit)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, echo.Map{
		"notifications": h.enrichNotifications(result.Notifications),
		"pagination":    result.Pagination,
		"unread_count":  result.UnreadCount,
	}, "Notifications fetched successfully")
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	count, err := h.notifications.UnreadCount(getUserIDFromContext(c))
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, echo.Map{"count": count}, "Unread count fetched successfully")
}

// MarkAsRead marks a notification as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	notifID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return badRequest("Invalid notification ID")
	}
	if err := h.notifications.MarkAsRead(getUserIDFromContext(c), uint(notifID)); err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, echo.Map{}, "Notification marked as read")
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	updated, err := h.notifications.MarkAllAsRead(getUserIDFromContext(c))
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, echo.Map{"updated": updated}, "All notifications marked as read")
}
