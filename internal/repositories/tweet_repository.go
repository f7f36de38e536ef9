package repositories

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wordmate-app/backend/internal/apperrors"
	"github.com/wordmate-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedPageSize is the page size for timeline scans.
const FeedPageSize = 5

// TweetRepository defines the interface for tweets and the activity log.
type TweetRepository interface {
	Create(ctx context.Context, tweet *models.Tweet) error
	GetByID(ctx context.Context, id string) (*models.Tweet, error)
	Delete(ctx context.Context, id string) error
	Like(ctx context.Context, tweetID, userID string) error
	Unlike(ctx context.Context, tweetID, userID string) error
	FeedFor(ctx context.Context, authorIDs []string, page int64) ([]models.Tweet, error)
	ActivitySince(ctx context.Context, userIDs []string, since time.Time) ([]models.Activity, error)
}

// MongoTweetRepository implements TweetRepository on the tweets and
// tweetActivity collections.
type MongoTweetRepository struct {
	tweets   *mongo.Collection
	activity *mongo.Collection
}

// NewMongoTweetRepository creates a new MongoTweetRepository.
func NewMongoTweetRepository(db *mongo.Database) *MongoTweetRepository {
	return &MongoTweetRepository{
		tweets:   db.Collection("tweets"),
		activity: db.Collection("tweetActivity"),
	}
}

// Create inserts the tweet and appends the matching activity entry. The two
// writes are sequential; a tweet without an activity row is invisible to
// incremental sync until the next full feed load, which is acceptable.
func (r *MongoTweetRepository) Create(ctx context.Context, tweet *models.Tweet) error {
	if tweet.ID == "" {
		tweet.ID = uuid.NewString()
	}
	tweet.CreatedAt = time.Now()
	if tweet.LikedBy == nil {
		tweet.LikedBy = []string{}
	}
	if _, err := r.tweets.InsertOne(ctx, tweet); err != nil {
		return err
	}
	entry := models.Activity{
		ID:        uuid.NewString(),
		UserID:    tweet.AuthorID,
		TweetID:   tweet.ID,
		Timestamp: tweet.CreatedAt,
	}
	_, err := r.activity.InsertOne(ctx, entry)
	return err
}

// GetByID retrieves a tweet by id.
func (r *MongoTweetRepository) GetByID(ctx context.Context, id string) (*models.Tweet, error) {
	var tweet models.Tweet
	err := r.tweets.FindOne(ctx, bson.M{"_id": id}).Decode(&tweet)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &tweet, nil
}

// Delete removes the tweet and its activity entries.
func (r *MongoTweetRepository) Delete(ctx context.Context, id string) error {
	res, err := r.tweets.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	_, err = r.activity.DeleteMany(ctx, bson.M{"tweet_id": id})
	return err
}

// Like adds userID to liked_by and bumps the counter in one update. The
// "$ne" guard keeps a double-like from inflating the count.
func (r *MongoTweetRepository) Like(ctx context.Context, tweetID, userID string) error {
	res, err := r.tweets.UpdateOne(ctx,
		bson.M{"_id": tweetID, "liked_by": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"liked_by": userID}, "$inc": bson.M{"likes": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Already liked, or the tweet is gone; distinguish for the caller.
		if _, gerr := r.GetByID(ctx, tweetID); gerr != nil {
			return gerr
		}
		return apperrors.ErrAlreadyExists
	}
	return nil
}

// Unlike removes userID from liked_by and decrements the counter.
func (r *MongoTweetRepository) Unlike(ctx context.Context, tweetID, userID string) error {
	res, err := r.tweets.UpdateOne(ctx,
		bson.M{"_id": tweetID, "liked_by": userID},
		bson.M{"$pull": bson.M{"liked_by": userID}, "$inc": bson.M{"likes": -1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, gerr := r.GetByID(ctx, tweetID); gerr != nil {
			return gerr
		}
		return apperrors.ErrNotFound
	}
	return nil
}

// FeedFor retrieves one page of tweets by the given authors, newest first.
// The author filter is chunked to the membership limit and the chunk
// results merged before paging, so the page is correct across chunks.
func (r *MongoTweetRepository) FeedFor(ctx context.Context, authorIDs []string, page int64) ([]models.Tweet, error) {
	var all []models.Tweet
	for start := 0; start < len(authorIDs); start += membershipLimit {
		end := start + membershipLimit
		if end > len(authorIDs) {
			end = len(authorIDs)
		}
		opts := options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit((page + 1) * FeedPageSize)
		cursor, err := r.tweets.Find(ctx, bson.M{"author_id": bson.M{"$in": authorIDs[start:end]}}, opts)
		if err != nil {
			return nil, err
		}
		var chunk []models.Tweet
		if err = cursor.All(ctx, &chunk); err != nil {
			return nil, err
		}
		all = append(all, chunk...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	lo := page * FeedPageSize
	if lo >= int64(len(all)) {
		return []models.Tweet{}, nil
	}
	hi := lo + FeedPageSize
	if hi > int64(len(all)) {
		hi = int64(len(all))
	}
	return all[lo:hi], nil
}

// ActivitySince retrieves activity entries by the given users after the
// cutoff, oldest first.
func (r *MongoTweetRepository) ActivitySince(ctx context.Context, userIDs []string, since time.Time) ([]models.Activity, error) {
	var all []models.Activity
	for start := 0; start < len(userIDs); start += membershipLimit {
		end := start + membershipLimit
		if end > len(userIDs) {
			end = len(userIDs)
		}
		filter := bson.M{
			"user_id":   bson.M{"$in": userIDs[start:end]},
			"timestamp": bson.M{"$gt": since},
		}
		opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
		cursor, err := r.activity.Find(ctx, filter, opts)
		if err != nil {
			return nil, err
		}
		var chunk []models.Activity
		if err = cursor.All(ctx, &chunk); err != nil {
			return nil, err
		}
		all = append(all, chunk...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Timestamp.Before(all[j].Timestamp) })
	return all, nil
}
