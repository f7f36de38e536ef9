package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wordmate-app/backend/internal/apperrors"
	"github.com/wordmate-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FriendshipRepository defines the interface for friend request documents.
type FriendshipRepository interface {
	Create(ctx context.Context, req *models.FriendRequest) error
	GetByID(ctx context.Context, id string) (*models.FriendRequest, error)
	FindPendingBetween(ctx context.Context, a, b string) (*models.FriendRequest, error)
	PendingFor(ctx context.Context, receiverID string) ([]models.FriendRequest, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// MongoFriendshipRepository implements FriendshipRepository on the
// friendRequests collection.
type MongoFriendshipRepository struct {
	collection *mongo.Collection
}

// NewMongoFriendshipRepository creates a new MongoFriendshipRepository.
func NewMongoFriendshipRepository(db *mongo.Database) *MongoFriendshipRepository {
	return &MongoFriendshipRepository{collection: db.Collection("friendRequests")}
}

// Create inserts a new pending friend request.
func (r *MongoFriendshipRepository) Create(ctx context.Context, req *models.FriendRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = models.RequestPending
	req.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, req)
	return err
}

// GetByID retrieves a friend request by id.
func (r *MongoFriendshipRepository) GetByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindPendingBetween looks for a pending request between a and b in either
// direction. This is the best-effort dedup pre-check: a concurrent sender
// can still slip a duplicate through between the check and the insert.
func (r *MongoFriendshipRepository) FindPendingBetween(ctx context.Context, a, b string) (*models.FriendRequest, error) {
	filter := bson.M{
		"status": models.RequestPending,
		"$or": []bson.M{
			{"sender_id": a, "receiver_id": b},
			{"sender_id": b, "receiver_id": a},
		},
	}
	var req models.FriendRequest
	err := r.collection.FindOne(ctx, filter).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// PendingFor retrieves pending requests addressed to a user, oldest first.
func (r *MongoFriendshipRepository) PendingFor(ctx context.Context, receiverID string) ([]models.FriendRequest, error) {
	filter := bson.M{"receiver_id": receiverID, "status": models.RequestPending}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var requests []models.FriendRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// UpdateStatus moves a request to a terminal status, but only while it is
// still pending so a rejected request cannot be flipped to accepted later.
func (r *MongoFriendshipRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.RequestPending},
		bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrStale
	}
	return nil
}
