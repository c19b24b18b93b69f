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

// VideoRepository defines the interface for video data operations.
// Every mutation of voters or branches is a single conditional update.
type VideoRepository interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideoByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error)
	GetVideosByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Video, error)
	// GetBranchCandidates returns the videos listed in branchIDs plus any video whose parent is parentID
	GetBranchCandidates(ctx context.Context, parentID primitive.ObjectID, branchIDs []primitive.ObjectID) ([]models.Video, error)
	ListVideos(ctx context.Context, skip, limit int64) ([]models.Video, int64, error)
	UpdateVotes(ctx context.Context, id primitive.ObjectID, expectedVersion int64, voters []models.Voter, votes int) error
	SetStory(ctx context.Context, id, storyID primitive.ObjectID) error
	// TagStory tags every untagged video in ids with storyID and returns how many changed
	TagStory(ctx context.Context, ids []primitive.ObjectID, storyID primitive.ObjectID) (int64, error)
	SetParent(ctx context.Context, id, parentID primitive.ObjectID, storyID *primitive.ObjectID) error
	ClearParent(ctx context.Context, id, parentID primitive.ObjectID) error
	ClearParentOfChildren(ctx context.Context, parentID primitive.ObjectID) error
	AddBranch(ctx context.Context, parentID, branchID primitive.ObjectID) error
	RemoveBranch(ctx context.Context, parentID, branchID primitive.ObjectID) error
	DeleteVideo(ctx context.Context, id primitive.ObjectID) error
	DeleteVideosByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	DeleteVideosByStory(ctx context.Context, storyID primitive.ObjectID) (int64, error)
}

// MongoVideoRepository implements VideoRepository for MongoDB
type MongoVideoRepository struct {
	collection *mongo.Collection
}

// NewMongoVideoRepository creates a new MongoVideoRepository
func NewMongoVideoRepository(db *mongo.Database) *MongoVideoRepository {
	return &MongoVideoRepository{collection: db.Collection("videos")}
}

// EnsureIndexes creates the lookup indexes used by tree traversal and cascades
func (r *MongoVideoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "story", Value: 1}}},
		{Keys: bson.D{{Key: "parent_video", Value: 1}}},
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

// CreateVideo inserts a new video with empty tree links and vote state
func (r *MongoVideoRepository) CreateVideo(ctx context.Context, video *models.Video) error {
	if video.ID.IsZero() {
		video.ID = primitive.NewObjectID()
	}
	now := time.Now()
	video.CreatedAt = now
	video.UpdatedAt = now
	if video.Branches == nil {
		video.Branches = []primitive.ObjectID{}
	}
	if video.Voters == nil {
		video.Voters = []models.Voter{}
	}
	_, err := r.collection.InsertOne(ctx, video)
	return err
}

// GetVideoByID retrieves a video by ID from MongoDB
func (r *MongoVideoRepository) GetVideoByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	var video models.Video
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&video)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("video %s: %w", id.Hex(), ErrNotFound)
		}
		return nil, err
	}
	return &video, nil
}

// GetVideosByIDs retrieves every existing video among ids, in no particular order
func (r *MongoVideoRepository) GetVideosByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Video, error) {
	if len(ids) == 0 {
		return []models.Video{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// GetBranchCandidates fetches listed branches and back-referencing children in one query
func (r *MongoVideoRepository) GetBranchCandidates(ctx context.Context, parentID primitive.ObjectID, branchIDs []primitive.ObjectID) ([]models.Video, error) {
	filter := bson.M{"parent_video": parentID}
	if len(branchIDs) > 0 {
		filter = bson.M{"$or": bson.A{
			bson.M{"_id": bson.M{"$in": branchIDs}},
			bson.M{"parent_video": parentID},
		}}
	}
	return r.find(ctx, filter)
}

// ListVideos retrieves a page of videos, newest first, and the total count
func (r *MongoVideoRepository) ListVideos(ctx context.Context, skip, limit int64) ([]models.Video, int64, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	videos := []models.Video{}
	if err = cursor.All(ctx, &videos); err != nil {
		return nil, 0, err
	}
	total, err := r.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// UpdateVotes replaces the vote state only if the stored version still equals expectedVersion
func (r *MongoVideoRepository) UpdateVotes(ctx context.Context, id primitive.ObjectID, expectedVersion int64, voters []models.Voter, votes int) error {
	if voters == nil {
		voters = []models.Voter{}
	}
	filter := bson.M{"_id": id, "version": expectedVersion}
	update := bson.M{
		"$set": bson.M{"voters": voters, "votes": votes, "updated_at": time.Now()},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if err := r.guardMiss(ctx, id); err != nil {
			return err
		}
		return ErrVersionConflict
	}
	return nil
}

// SetStory tags a video with its story, only if it does not belong to one yet
func (r *MongoVideoRepository) SetStory(ctx context.Context, id, storyID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "story": nil}
	update := bson.M{"$set": bson.M{"story": storyID, "updated_at": time.Now()}, "$inc": bson.M{"version": 1}}
	return r.conditionalUpdate(ctx, id, filter, update)
}

// TagStory tags the untagged videos in ids with storyID; videos of another story are left alone
func (r *MongoVideoRepository) TagStory(ctx context.Context, ids []primitive.ObjectID, storyID primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "story": nil},
		bson.M{"$set": bson.M{"story": storyID, "updated_at": time.Now()}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// SetParent links a video under parentID, only if it has no parent yet
func (r *MongoVideoRepository) SetParent(ctx context.Context, id, parentID primitive.ObjectID, storyID *primitive.ObjectID) error {
	set := bson.M{"parent_video": parentID, "updated_at": time.Now()}
	if storyID != nil {
		set["story"] = *storyID
	}
	filter := bson.M{"_id": id, "parent_video": nil}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	return r.conditionalUpdate(ctx, id, filter, update)
}

// ClearParent unlinks a video from parentID, only if parentID is still its parent
func (r *MongoVideoRepository) ClearParent(ctx context.Context, id, parentID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "parent_video": parentID}
	update := bson.M{"$set": bson.M{"parent_video": nil, "updated_at": time.Now()}, "$inc": bson.M{"version": 1}}
	return r.conditionalUpdate(ctx, id, filter, update)
}

// ClearParentOfChildren detaches every direct child of parentID
func (r *MongoVideoRepository) ClearParentOfChildren(ctx context.Context, parentID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"parent_video": parentID},
		bson.M{"$set": bson.M{"parent_video": nil, "updated_at": time.Now()}, "$inc": bson.M{"version": 1}},
	)
	return err
}

// AddBranch appends branchID to the parent's branches unless it is already listed
func (r *MongoVideoRepository) AddBranch(ctx context.Context, parentID, branchID primitive.ObjectID) error {
	filter := bson.M{"_id": parentID, "branches": bson.M{"$ne": branchID}}
	update := bson.M{
		"$push": bson.M{"branches": branchID},
		"$set":  bson.M{"updated_at": time.Now()},
		"$inc":  bson.M{"version": 1},
	}
	return r.conditionalUpdate(ctx, parentID, filter, update)
}

// RemoveBranch pulls branchID from the parent's branches
func (r *MongoVideoRepository) RemoveBranch(ctx context.Context, parentID, branchID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"branches": branchID},
		"$set":  bson.M{"updated_at": time.Now()},
		"$inc":  bson.M{"version": 1},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": parentID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("video %s: %w", parentID.Hex(), ErrNotFound)
	}
	return nil
}

// DeleteVideo deletes a video by ID from MongoDB
func (r *MongoVideoRepository) DeleteVideo(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("video %s: %w", id.Hex(), ErrNotFound)
	}
	return nil
}

// DeleteVideosByIDs deletes every video in ids
func (r *MongoVideoRepository) DeleteVideosByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteVideosByStory deletes every video tagged with storyID
func (r *MongoVideoRepository) DeleteVideosByStory(ctx context.Context, storyID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"story": storyID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoVideoRepository) find(ctx context.Context, filter interface{}) ([]models.Video, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	videos := []models.Video{}
	if err = cursor.All(ctx, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// conditionalUpdate runs a guarded UpdateOne and tells a missing document apart from a failed guard
func (r *MongoVideoRepository) conditionalUpdate(ctx context.Context, id primitive.ObjectID, filter, update interface{}) error {
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if err := r.guardMiss(ctx, id); err != nil {
			return err
		}
		return ErrConditionFailed
	}
	return nil
}

// guardMiss returns ErrNotFound when id does not exist, nil when it does
func (r *MongoVideoRepository) guardMiss(ctx context.Context, id primitive.ObjectID) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("video %s: %w", id.Hex(), ErrNotFound)
	}
	return nil
}
