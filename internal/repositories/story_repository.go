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

// StoryRepository defines the interface for story operations
type StoryRepository interface {
	CreateStory(ctx context.Context, story *models.Story) error
	GetStoryByID(ctx context.Context, id primitive.ObjectID) (*models.Story, error)
	GetStoryByRootVideo(ctx context.Context, videoID primitive.ObjectID) (*models.Story, error)
	ListStories(ctx context.Context) ([]models.Story, error)
	DeleteStory(ctx context.Context, id primitive.ObjectID) error
}

type storyRepository struct {
	mongoCollection *mongo.Collection
}

func NewStoryRepository(mongoDB *mongo.Database) StoryRepository {
	return &storyRepository{
		mongoCollection: mongoDB.Collection("stories"),
	}
}

func (r *storyRepository) CreateStory(ctx context.Context, story *models.Story) error {
	if story.ID.IsZero() {
		story.ID = primitive.NewObjectID()
	}
	story.CreatedAt = time.Now()
	story.UpdatedAt = story.CreatedAt
	_, err := r.mongoCollection.InsertOne(ctx, story)
	return err
}

func (r *storyRepository) GetStoryByID(ctx context.Context, id primitive.ObjectID) (*models.Story, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *storyRepository) GetStoryByRootVideo(ctx context.Context, videoID primitive.ObjectID) (*models.Story, error) {
	return r.findOne(ctx, bson.M{"root_video": videoID})
}

func (r *storyRepository) ListStories(ctx context.Context) ([]models.Story, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.mongoCollection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stories := []models.Story{}
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *storyRepository) DeleteStory(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.mongoCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("story %s: %w", id.Hex(), ErrNotFound)
	}
	return nil
}

func (r *storyRepository) findOne(ctx context.Context, filter bson.M) (*models.Story, error) {
	var story models.Story
	err := r.mongoCollection.FindOne(ctx, filter).Decode(&story)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("story: %w", ErrNotFound)
		}
		return nil, err
	}
	return &story, nil
}
