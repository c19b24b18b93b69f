package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// OrderHandler handles order placement and tracking
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// RegisterOrderRoutes registers order routes; estimates and public tracking need no session
func (h *OrderHandler) RegisterOrderRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/shipping-estimate", h.SampleShippingEstimate)
	g.POST("/shipping-estimate", h.ShippingEstimate)
	g.GET("/track-public/:identifier", h.TrackOrderPublic)

	g.POST("/create", h.CreateOrder, requireAuth)
	g.GET("/my-orders", h.GetMyOrders, requireAuth)
	g.GET("/track/:identifier", h.TrackOrder, requireAuth)
	g.GET("/:orderId", h.GetOrder, requireAuth)
	g.PATCH("/:orderId/status", h.UpdateOrderStatus, requireAuth)
}

// CreateOrder places an order with pincode-based shipping
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req models.CreateOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	order, err := h.orders.CreateOrder(c.Request().Context(), getUserIDFromContext(c), req)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusCreated, echo.Map{
		"order":         order,
		"shipping_info": order.ShippingInfo,
	}, "Order created successfully with shipping details")
}

// ShippingEstimate prices shipping for an address without placing an order
func (h *OrderHandler) ShippingEstimate(c echo.Context) error {
	var req models.ShippingEstimateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	estimate := services.EstimateShipping(req.Address, req.City, req.State, req.Pincode, req.Country)
	return respond(c, http.StatusOK, estimate, "Shipping estimate calculated successfully")
}

// SampleShippingEstimate returns a fixed example estimate
func (h *OrderHandler) SampleShippingEstimate(c echo.Context) error {
	return respond(c, http.StatusOK, services.SampleShippingEstimate(), "Sample shipping estimate (use POST with actual data)")
}

// GetMyOrders lists the authenticated user's orders
func (h *OrderHandler) GetMyOrders(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.orders.ListOrders(c.Request().Context(), getUserIDFromContext(c), c.QueryParam("status"), page, limit)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, result, "Orders fetched successfully")
}

// GetOrder returns one of the authenticated user's orders
func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.orders.GetOrder(c.Request().Context(), c.Param("orderId"), getUserIDFromContext(c))
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, order, "Order details fetched successfully")
}

// UpdateOrderStatus changes the status of one of the authenticated user's orders
func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	var req models.UpdateOrderStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	order, err := h.orders.UpdateStatus(c.Request().Context(), c.Param("orderId"), getUserIDFromContext(c), req)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, order, "Order status updated to "+order.Status)
}

// TrackOrder returns the timeline of one of the authenticated user's orders
func (h *OrderHandler) TrackOrder(c echo.Context) error {
	tracking, err := h.orders.TrackOrder(c.Request().Context(), c.Param("identifier"), getUserIDFromContext(c))
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, tracking, "Order tracking information retrieved successfully")
}

// TrackOrderPublic returns an order timeline by order ID or tracking number without a session
func (h *OrderHandler) TrackOrderPublic(c echo.Context) error {
	tracking, err := h.orders.TrackOrderPublic(c.Request().Context(), c.Param("identifier"))
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, tracking, "Order tracking information retrieved successfully")
}
