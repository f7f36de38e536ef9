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

// InviteRepository defines the interface for game invite documents.
type InviteRepository interface {
	Create(ctx context.Context, invite *models.GameInvite) error
	GetByID(ctx context.Context, id string) (*models.GameInvite, error)
	GetByGameID(ctx context.Context, gameID string) (*models.GameInvite, error)
	FindPendingBetween(ctx context.Context, a, b string) (*models.GameInvite, error)
	FindAcceptedInvolving(ctx context.Context, uid string) ([]models.GameInvite, error)
	PendingFor(ctx context.Context, receiverID string) ([]models.GameInvite, error)
	Accept(ctx context.Context, id, gameID string) error
	UpdateStatus(ctx context.Context, id, status string) error
	DeleteByGameID(ctx context.Context, gameID string) error
}

// MongoInviteRepository implements InviteRepository on the gameInvites
// collection.
type MongoInviteRepository struct {
	collection *mongo.Collection
}

// NewMongoInviteRepository creates a new MongoInviteRepository.
func NewMongoInviteRepository(db *mongo.Database) *MongoInviteRepository {
	return &MongoInviteRepository{collection: db.Collection("gameInvites")}
}

// Create inserts a new pending game invite.
func (r *MongoInviteRepository) Create(ctx context.Context, invite *models.GameInvite) error {
	if invite.ID == "" {
		invite.ID = uuid.NewString()
	}
	invite.Status = models.InvitePending
	invite.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, invite)
	return err
}

// GetByID retrieves an invite by id.
func (r *MongoInviteRepository) GetByID(ctx context.Context, id string) (*models.GameInvite, error) {
	var invite models.GameInvite
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&invite)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &invite, nil
}

// GetByGameID retrieves the invite bound to a game id.
func (r *MongoInviteRepository) GetByGameID(ctx context.Context, gameID string) (*models.GameInvite, error) {
	var invite models.GameInvite
	err := r.collection.FindOne(ctx, bson.M{"game_id": gameID}).Decode(&invite)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &invite, nil
}

// FindPendingBetween looks for a pending invite between a and b in either
// direction.
func (r *MongoInviteRepository) FindPendingBetween(ctx context.Context, a, b string) (*models.GameInvite, error) {
	filter := bson.M{
		"status": models.InvitePending,
		"$or": []bson.M{
			{"sender_id": a, "receiver_id": b},
			{"sender_id": b, "receiver_id": a},
		},
	}
	var invite models.GameInvite
	err := r.collection.FindOne(ctx, filter).Decode(&invite)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &invite, nil
}

// FindAcceptedInvolving retrieves accepted invites where uid is either
// party, oldest first. Normally zero or one; more than one means earlier
// cleanups were missed and the coordinator scan will drain them.
func (r *MongoInviteRepository) FindAcceptedInvolving(ctx context.Context, uid string) ([]models.GameInvite, error) {
	filter := bson.M{
		"status": models.InviteAccepted,
		"$or": []bson.M{
			{"sender_id": uid},
			{"receiver_id": uid},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var invites []models.GameInvite
	if err = cursor.All(ctx, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// PendingFor retrieves pending invites addressed to a user, oldest first.
func (r *MongoInviteRepository) PendingFor(ctx context.Context, receiverID string) ([]models.GameInvite, error) {
	filter := bson.M{"receiver_id": receiverID, "status": models.InvitePending}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var invites []models.GameInvite
	if err = cursor.All(ctx, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// Accept marks a pending invite accepted and binds the freshly allocated
// game id in the same update, so no observer ever sees accepted-without-id.
func (r *MongoInviteRepository) Accept(ctx context.Context, id, gameID string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.InvitePending},
		bson.M{"$set": bson.M{"status": models.InviteAccepted, "game_id": gameID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrStale
	}
	return nil
}

// UpdateStatus moves a pending invite to a terminal status.
func (r *MongoInviteRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.InvitePending},
		bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrStale
	}
	return nil
}

// DeleteByGameID removes the invite bound to a game id, whichever party
// asks. Deleting an already-deleted invite is a no-op, so both players can
// race the cleanup safely.
func (r *MongoInviteRepository) DeleteByGameID(ctx context.Context, gameID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"game_id": gameID})
	return err
}
