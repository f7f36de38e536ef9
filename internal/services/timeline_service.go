package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wordmate-app/backend/internal/apperrors"
	"github.com/wordmate-app/backend/internal/models"
	"github.com/wordmate-app/backend/internal/repositories"
	"go.uber.org/zap"
)

// FeedTTL is the feed cache freshness window. The cache key embeds the
// friend-set hash, so a friend change switches keys immediately; the TTL
// only bounds how long an unchanged set may serve the cached page.
const FeedTTL = 24 * time.Hour

// TimelineService owns posts, likes and the incremental activity log.
// Reads require an author-or-friend relationship; likes are the only
// mutation a non-author may perform on someone else's tweet.
type TimelineService struct {
	tweets repositories.TweetRepository
	users  repositories.UserRepository
	cache  repositories.CacheRepository
	logger *zap.Logger
}

// NewTimelineService creates a new TimelineService.
func NewTimelineService(tweets repositories.TweetRepository, users repositories.UserRepository, cache repositories.CacheRepository, logger *zap.Logger) *TimelineService {
	return &TimelineService{tweets: tweets, users: users, cache: cache, logger: logger}
}

func feedKey(uid, hash string, page int64) string {
	return fmt.Sprintf("feed:%s:%s:%d", uid, hash, page)
}

// Post creates a tweet plus its activity entry.
func (s *TimelineService) Post(ctx context.Context, authorID, content string) (*models.Tweet, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty post", apperrors.ErrInvalidInput)
	}
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	tweet := &models.Tweet{
		AuthorID:   authorID,
		AuthorName: author.DisplayName,
		Content:    content,
	}
	if err := s.tweets.Create(ctx, tweet); err != nil {
		return nil, err
	}
	// The author's own cached feed pages are now behind; drop page zero,
	// deeper pages age out with the TTL.
	hash := FriendSetHash(author.Friends)
	if err := s.cache.Delete(ctx, feedKey(authorID, hash, 0)); err != nil {
		s.logger.Warn("feed cache invalidation failed", zap.String("user", authorID), zap.Error(err))
	}
	return tweet, nil
}

// Feed returns one page of the caller's timeline (own tweets plus
// friends'), cached keyed by the friend-set hash.
func (s *TimelineService) Feed(ctx context.Context, uid string, page int64) ([]models.Tweet, error) {
	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	key := feedKey(uid, FriendSetHash(user.Friends), page)

	var cached []models.Tweet
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("feed cache read failed", zap.String("user", uid), zap.Error(err))
	}

	authors := append([]string{uid}, user.Friends...)
	tweets, err := s.tweets.FeedFor(ctx, authors, page)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, tweets, FeedTTL); err != nil {
		s.logger.Warn("feed cache write failed", zap.String("user", uid), zap.Error(err))
	}
	return tweets, nil
}

// Sync returns activity entries for the caller's friend set (self
// included) after since — the cheap incremental refresh path.
func (s *TimelineService) Sync(ctx context.Context, uid string, since time.Time) ([]models.Activity, error) {
	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.tweets.ActivitySince(ctx, append([]string{uid}, user.Friends...), since)
}

// Like records a like. Any user with read access may like; the update
// touches only likes/liked_by, per the access contract.
func (s *TimelineService) Like(ctx context.Context, tweetID, userID string) error {
	if err := s.authorizeRead(ctx, tweetID, userID); err != nil {
		return err
	}
	return s.tweets.Like(ctx, tweetID, userID)
}

// Unlike removes a like.
func (s *TimelineService) Unlike(ctx context.Context, tweetID, userID string) error {
	if err := s.authorizeRead(ctx, tweetID, userID); err != nil {
		return err
	}
	return s.tweets.Unlike(ctx, tweetID, userID)
}

// Delete removes a tweet. Author only.
func (s *TimelineService) Delete(ctx context.Context, tweetID, userID string) error {
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return err
	}
	if tweet.AuthorID != userID {
		return apperrors.ErrPermissionDenied
	}
	return s.tweets.Delete(ctx, tweetID)
}

// Get returns a single tweet, subject to the author-or-friend read rule.
func (s *TimelineService) Get(ctx context.Context, tweetID, userID string) (*models.Tweet, error) {
	if err := s.authorizeRead(ctx, tweetID, userID); err != nil {
		return nil, err
	}
	return s.tweets.GetByID(ctx, tweetID)
}

// authorizeRead enforces author-or-friend access to a tweet.
func (s *TimelineService) authorizeRead(ctx context.Context, tweetID, userID string) error {
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return err
	}
	if tweet.AuthorID == userID {
		return nil
	}
	author, err := s.users.GetByID(ctx, tweet.AuthorID)
	if err != nil {
		return err
	}
	if !author.HasFriend(userID) {
		return apperrors.ErrPermissionDenied
	}
	return nil
}
