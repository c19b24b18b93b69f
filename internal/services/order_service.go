package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const orderCurrency = "INR"

// OrderPage is one page of a user's orders
type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

// Pagination describes the position of a page in a listing
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// OrderService places and tracks merchandise orders
type OrderService struct {
	orders repositories.OrderRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(orders repositories.OrderRepository, logger *zap.Logger) *OrderService {
	return &OrderService{orders: orders, logger: logger.Named("orders"), now: time.Now}
}

// CreateOrder prices shipping for the destination and stores a pending order for userID
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.Order, error) {
	if userID == "" {
		return nil, invalidArgument("user is required")
	}
	if req.Amount <= 0 || len(req.Items) == 0 {
		return nil, invalidArgument("amount, items and shipping details are required")
	}
	addr := req.ShippingDetails.Address
	if addr.Pincode == "" || addr.State == "" {
		return nil, invalidArgument("amount, items and shipping details are required")
	}

	info := EstimateShipping(addr.Street, addr.City, addr.State, addr.Pincode, addr.Country)
	order := &models.Order{
		User:            userID,
		Amount:          req.Amount + info.ShippingCost,
		OriginalAmount:  req.Amount,
		ShippingCost:    info.ShippingCost,
		Currency:        orderCurrency,
		Receipt:         fmt.Sprintf("receipt_%d", s.now().UnixMilli()),
		Status:          models.OrderPending,
		ShippingDetails: req.ShippingDetails,
		Items:           req.Items,
		ShippingInfo:    info,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, internal("failed to create order", err)
	}
	s.logger.Info("order created", zap.String("order_id", order.ID.Hex()), zap.String("zone", info.Zone))
	return order, nil
}

// ListOrders returns a page of the user's orders; status "all" or empty matches every status
func (s *OrderService) ListOrders(ctx context.Context, userID, status string, page, limit int) (*OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if status == "all" {
		status = ""
	}

	orders, total, err := s.orders.GetOrdersByUser(ctx, userID, status, int64((page-1)*limit), int64(limit))
	if err != nil {
		return nil, internal("failed to fetch orders", err)
	}
	return &OrderPage{
		Orders: orders,
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
			Total:       total,
			HasNext:     int64(page*limit) < total,
			HasPrev:     page > 1,
		},
	}, nil
}

// GetOrder returns an order owned by userID
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID string) (*models.Order, error) {
	id, err := parseID("orderId", orderID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err)
	}
	if order.User != userID {
		return nil, forbidden("access denied")
	}
	return order, nil
}

// UpdateStatus moves an order owned by userID to a new status, stamping the first
// shipped, delivered or cancelled time
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, userID string, req models.UpdateOrderStatusRequest) (*models.Order, error) {
	if !validOrderStatus(req.Status) {
		return nil, invalidArgument("invalid status, valid statuses: %s", strings.Join(orderStatuses, ", "))
	}
	order, err := s.GetOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order.Status = req.Status
	if req.TrackingNumber != "" {
		order.TrackingNumber = req.TrackingNumber
	}
	if req.Note != "" {
		order.Notes = req.Note
	}
	switch req.Status {
	case models.OrderShipped:
		if order.ShippedAt == nil {
			order.ShippedAt = &now
		}
	case models.OrderDelivered:
		if order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
	case models.OrderCancelled:
		if order.CancelledAt == nil {
			order.CancelledAt = &now
		}
	}

	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("order not found")
		}
		return nil, internal("failed to update order status", err)
	}
	return order, nil
}

// TrackOrder resolves identifier as an order ID or a tracking number for its owner
func (s *OrderService) TrackOrder(ctx context.Context, identifier, userID string) (*models.OrderTracking, error) {
	order, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if order.User != userID {
		return nil, forbidden("access denied")
	}
	return s.tracking(order), nil
}

// TrackOrderPublic is TrackOrder without ownership checks; the buyer is redacted
func (s *OrderService) TrackOrderPublic(ctx context.Context, identifier string) (*models.OrderTracking, error) {
	order, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, notFound("order not found, please check your order ID or tracking number")
		}
		return nil, err
	}
	order.User = ""
	order.Notes = ""
	return s.tracking(order), nil
}

func (s *OrderService) findByIdentifier(ctx context.Context, identifier string) (*models.Order, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, invalidArgument("order ID or tracking number is required")
	}
	if id, err := primitive.ObjectIDFromHex(identifier); err == nil {
		order, err := s.orders.GetOrderByID(ctx, id)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, internal("failed to track order", err)
		}
	}
	order, err := s.orders.GetOrderByTrackingNumber(ctx, identifier)
	if err != nil {
		return nil, s.lookupError(err)
	}
	return order, nil
}

func (s *OrderService) tracking(order *models.Order) *models.OrderTracking {
	t := &models.OrderTracking{Order: order, TrackingTimeline: BuildTimeline(order)}
	if days := order.ShippingInfo.EstimatedDeliveryDays; days > 0 {
		eta := s.now().Add(time.Duration(days) * 24 * time.Hour)
		t.EstimatedDelivery = &eta
	}
	return t
}

func (s *OrderService) lookupError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("order not found")
	}
	return internal("failed to fetch order", err)
}

var orderStatuses = []string{
	models.OrderPending,
	models.OrderConfirmed,
	models.OrderProcessing,
	models.OrderShipped,
	models.OrderDelivered,
	models.OrderCancelled,
}

func validOrderStatus(status string) bool {
	for _, s := range orderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// BuildTimeline lists the tracking events an order has passed through
func BuildTimeline(order *models.Order) []models.TrackingEvent {
	created := order.CreatedAt
	events := []models.TrackingEvent{{
		Status:      models.OrderPending,
		Timestamp:   created,
		Title:       "Order Placed",
		Description: "Your order has been received and is being processed.",
	}}

	status := order.Status
	progressed := func(statuses ...string) bool {
		for _, s := range statuses {
			if status == s {
				return true
			}
		}
		return false
	}

	if progressed(models.OrderConfirmed, models.OrderProcessing, models.OrderShipped, models.OrderDelivered) {
		events = append(events, models.TrackingEvent{
			Status:      models.OrderConfirmed,
			Timestamp:   created,
			Title:       "Order Confirmed",
			Description: "Your order has been confirmed and is being prepared.",
		})
	}
	if progressed(models.OrderProcessing, models.OrderShipped, models.OrderDelivered) {
		events = append(events, models.TrackingEvent{
			Status:      models.OrderProcessing,
			Timestamp:   created,
			Title:       "Order Processing",
			Description: "Your order is being prepared for shipment.",
		})
	}
	if order.ShippedAt != nil || progressed(models.OrderShipped, models.OrderDelivered) {
		desc := "Your order has been shipped."
		if order.TrackingNumber != "" {
			desc = "Your order has been shipped. Tracking number: " + order.TrackingNumber
		}
		events = append(events, models.TrackingEvent{
			Status:      models.OrderShipped,
			Timestamp:   orTime(order.ShippedAt, created),
			Title:       "Order Shipped",
			Description: desc,
		})
	}
	if order.DeliveredAt != nil || status == models.OrderDelivered {
		events = append(events, models.TrackingEvent{
			Status:      models.OrderDelivered,
			Timestamp:   orTime(order.DeliveredAt, created),
			Title:       "Order Delivered",
			Description: "Your order has been successfully delivered.",
		})
	}
	if status == models.OrderCancelled {
		events = append(events, models.TrackingEvent{
			Status:      models.OrderCancelled,
			Timestamp:   orTime(order.CancelledAt, order.UpdatedAt),
			Title:       "Order Cancelled",
			Description: "Your order has been cancelled.",
		})
	}
	return events
}

func orTime(t *time.Time, fallback time.Time) time.Time {
	if t != nil {
		return *t
	}
	return fallback
}
