package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses accepted by status updates
const (
	OrderPending    = "pending"
	OrderConfirmed  = "confirmed"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// Order represents a merchandise order stored in MongoDB
type Order struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	User            string             `json:"user,omitempty" bson:"user"`
	Amount          float64            `json:"amount" bson:"amount"`
	OriginalAmount  float64            `json:"original_amount" bson:"original_amount"`
	ShippingCost    float64            `json:"shipping_cost" bson:"shipping_cost"`
	Currency        string             `json:"currency" bson:"currency"`
	Receipt         string             `json:"receipt" bson:"receipt"`
	Status          string             `json:"status" bson:"status"`
	TrackingNumber  string             `json:"tracking_number,omitempty" bson:"tracking_number,omitempty"`
	Notes           string             `json:"notes,omitempty" bson:"notes,omitempty"`
	ShippedAt       *time.Time         `json:"shipped_at,omitempty" bson:"shipped_at,omitempty"`
	DeliveredAt     *time.Time         `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	ShippingDetails ShippingDetails    `json:"shipping_details" bson:"shipping_details"`
	Items           []OrderItem        `json:"items" bson:"items"`
	ShippingInfo    ShippingInfo       `json:"shipping_info" bson:"shipping_info"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

type OrderItem struct {
	Name  string  `json:"name" bson:"name" validate:"required"`
	Qty   int     `json:"qty" bson:"qty" validate:"required,min=1"`
	Price float64 `json:"price" bson:"price" validate:"min=0"`
}

type ShippingDetails struct {
	FullName string          `json:"full_name" bson:"full_name" validate:"required"`
	Phone    string          `json:"phone" bson:"phone" validate:"required"`
	Address  ShippingAddress `json:"address" bson:"address" validate:"required"`
}

type ShippingAddress struct {
	Street  string `json:"street" bson:"street" validate:"required"`
	City    string `json:"city" bson:"city" validate:"required"`
	State   string `json:"state" bson:"state" validate:"required"`
	Pincode string `json:"pincode" bson:"pincode" validate:"required,numeric,len=6"`
	Country string `json:"country" bson:"country"`
}

type Location struct {
	Lat     float64 `json:"lat,omitempty" bson:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty" bson:"lng,omitempty"`
	Address string  `json:"address" bson:"address"`
	Pincode string  `json:"pincode,omitempty" bson:"pincode,omitempty"`
	State   string  `json:"state,omitempty" bson:"state,omitempty"`
	City    string  `json:"city,omitempty" bson:"city,omitempty"`
}

// ShippingInfo is the shipping estimate attached to an order
type ShippingInfo struct {
	Warehouse             Location `json:"warehouse" bson:"warehouse"`
	Destination           Location `json:"destination" bson:"destination"`
	Zone                  string   `json:"zone" bson:"zone"`
	EstimatedDeliveryDays int      `json:"estimated_delivery_days" bson:"estimated_delivery_days"`
	ShippingCost          float64  `json:"shipping_cost" bson:"shipping_cost"`
	Method                string   `json:"method" bson:"method"`
}

type CreateOrderRequest struct {
	Amount          float64         `json:"amount" validate:"required,gt=0"`
	Items           []OrderItem     `json:"items" validate:"required,min=1,dive"`
	ShippingDetails ShippingDetails `json:"shipping_details" validate:"required"`
}

type ShippingEstimateRequest struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required,numeric,len=6"`
	Country string `json:"country"`
}

type UpdateOrderStatusRequest struct {
	Status         string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled"`
	TrackingNumber string `json:"tracking_number"`
	Note           string `json:"note"`
}

// TrackingEvent is one entry of an order's tracking timeline
type TrackingEvent struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

// OrderTracking is returned by the tracking endpoints
type OrderTracking struct {
	Order             *Order          `json:"order"`
	TrackingTimeline  []TrackingEvent `json:"tracking_timeline"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery"`
}
