package repositories

import (
	"context"
	"time"

	"github.com/wordmate-app/backend/internal/apperrors"
	"github.com/wordmate-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// membershipLimit is the platform's cap on values in one "$in" filter.
// Larger id sets are split into chunks of this size.
const membershipLimit = 10

// UserRepository defines the interface for profile data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
	Search(ctx context.Context, term, requesterID string) ([]models.User, error)
	AddFriend(ctx context.Context, ownerID, friendID string) error
	RemoveFriend(ctx context.Context, ownerID, friendID string) error
	FriendsOf(ctx context.Context, id string) ([]string, error)
	RecordGameResult(ctx context.Context, winnerID, loserID string) error
}

// MongoUserRepository implements UserRepository on the users collection.
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// Create inserts a new profile document keyed by the Firebase UID.
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now()
	if user.Friends == nil {
		user.Friends = []string{}
	}
	_, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.ErrAlreadyExists
	}
	return err
}

// GetByID retrieves a profile by Firebase UID.
func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDs retrieves profiles for a set of UIDs, chunking the "$in" filter
// to the membership limit. Missing ids are silently skipped.
func (r *MongoUserRepository) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var users []models.User
	for start := 0; start < len(ids); start += membershipLimit {
		end := start + membershipLimit
		if end > len(ids) {
			end = len(ids)
		}
		cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids[start:end]}})
		if err != nil {
			return nil, err
		}
		var chunk []models.User
		if err = cursor.All(ctx, &chunk); err != nil {
			return nil, err
		}
		users = append(users, chunk...)
	}
	return users, nil
}

// UpdateDisplayName updates the profile's display name.
func (r *MongoUserRepository) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"display_name": displayName}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// searchFilters builds the two search queries: the exact email match tried
// first, and the display-name prefix fallback. The prefix upper bound
// appends U+F8FF, which sorts after any character appearing in names, so the
// half-open range [term, term+"\uf8ff") covers exactly the names starting
// with term. Both filters exclude the requester.
func searchFilters(term, requesterID string) (exact, prefix bson.M) {
	exact = bson.M{"email": term, "_id": bson.M{"$ne": requesterID}}
	prefix = bson.M{
		"display_name": bson.M{"$gte": term, "$lt": term + "\uf8ff"},
		"_id":          bson.M{"$ne": requesterID},
	}
	return exact, prefix
}

// Search finds users by exact email first, falling back to a display-name
// prefix range scan. The requester is excluded from the results.
func (r *MongoUserRepository) Search(ctx context.Context, term, requesterID string) ([]models.User, error) {
	exactFilter, prefixFilter := searchFilters(term, requesterID)

	var exact models.User
	err := r.collection.FindOne(ctx, exactFilter).Decode(&exact)
	if err == nil {
		return []models.User{exact}, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "display_name", Value: 1}}).SetLimit(20)
	cursor, err := r.collection.Find(ctx, prefixFilter, opts)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddFriend adds friendID to the owner's friend set. "$addToSet" keeps the
// operation idempotent, which the repair pass relies on.
func (r *MongoUserRepository) AddFriend(ctx context.Context, ownerID, friendID string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": ownerID}, bson.M{"$addToSet": bson.M{"friends": friendID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// RemoveFriend removes friendID from the owner's friend set.
func (r *MongoUserRepository) RemoveFriend(ctx context.Context, ownerID, friendID string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": ownerID}, bson.M{"$pull": bson.M{"friends": friendID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FriendsOf returns the friend id set of a profile.
func (r *MongoUserRepository) FriendsOf(ctx context.Context, id string) ([]string, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Friends, nil
}

// RecordGameResult bumps the derived win/played counters after a game
// completes. Two independent single-document updates; a miss on either
// side only skews stats, never game state.
func (r *MongoUserRepository) RecordGameResult(ctx context.Context, winnerID, loserID string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": winnerID},
		bson.M{"$inc": bson.M{"games_won": 1, "games_played": 1}})
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": loserID},
		bson.M{"$inc": bson.M{"games_played": 1}})
	return err
}
