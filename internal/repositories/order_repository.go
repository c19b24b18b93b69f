package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/story-branch/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetOrderByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Order, error)
	GetOrdersByUser(ctx context.Context, userID, status string, skip, limit int64) ([]models.Order, int64, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
}

// MongoOrderRepository implements OrderRepository for MongoDB
type MongoOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderRepository creates a new MongoOrderRepository
func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{collection: db.Collection("orders")}
}

// EnsureIndexes creates the unique sparse tracking number index
func (r *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tracking_number", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

// CreateOrder creates a new order in MongoDB
func (r *MongoOrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	_, err := r.collection.InsertOne(ctx, order)
	return err
}

// GetOrderByID retrieves an order by ID
func (r *MongoOrderRepository) GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetOrderByTrackingNumber retrieves an order by its carrier tracking number
func (r *MongoOrderRepository) GetOrderByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"tracking_number": trackingNumber})
}

// GetOrdersByUser retrieves a page of a user's orders, newest first, optionally filtered by status
func (r *MongoOrderRepository) GetOrdersByUser(ctx context.Context, userID, status string, skip, limit int64) ([]models.Order, int64, error) {
	filter := bson.M{"user": userID}
	if status != "" && status != "all" {
		filter["status"] = status
	}
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateOrder persists status, tracking and timestamp changes of an order
func (r *MongoOrderRepository) UpdateOrder(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now()
	set := bson.M{
		"status":     order.Status,
		"notes":      order.Notes,
		"updated_at": order.UpdatedAt,
	}
	if order.TrackingNumber != "" {
		set["tracking_number"] = order.TrackingNumber
	}
	if order.ShippedAt != nil {
		set["shipped_at"] = order.ShippedAt
	}
	if order.DeliveredAt != nil {
		set["delivered_at"] = order.DeliveredAt
	}
	if order.CancelledAt != nil {
		set["cancelled_at"] = order.CancelledAt
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": order.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("order %s: %w", order.ID.Hex(), ErrNotFound)
	}
	return nil
}

func (r *MongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, filter).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("order: %w", ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}
