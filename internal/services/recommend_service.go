package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/wordmate-app/backend/internal/apperrors"
	"github.com/wordmate-app/backend/internal/repositories"
	"go.uber.org/zap"
)

const (
	// SampleSize bounds how many of the requester's friends are read per
	// recommendation pass. A cost control, not a statistical requirement.
	SampleSize = 10
	// TopN is how many ranked candidates are returned.
	TopN = 5
	// RecommendationTTL is the cache freshness window.
	RecommendationTTL = 24 * time.Hour
)

// Recommendation is one ranked friend-of-friend candidate.
type Recommendation struct {
	UserID      string `json:"user_id" msgpack:"user_id"`
	DisplayName string `json:"display_name" msgpack:"display_name"`
	MutualCount int    `json:"mutual_count" msgpack:"mutual_count"`
}

// RecommendService ranks friends-of-friends by mutual-friend overlap.
// Results are cached per user keyed by a hash of the full (unsampled)
// friend set: any friend-set change changes the key, so stale entries are
// never served and simply age out.
type RecommendService struct {
	users  repositories.UserRepository
	cache  repositories.CacheRepository
	rng    *rand.Rand
	logger *zap.Logger
}

// NewRecommendService creates a new RecommendService. The rand source is
// injected so tests can pin the sample.
func NewRecommendService(users repositories.UserRepository, cache repositories.CacheRepository, rng *rand.Rand, logger *zap.Logger) *RecommendService {
	return &RecommendService{users: users, cache: cache, rng: rng, logger: logger}
}

// FriendSetHash returns a stable key for a friend set, independent of
// order. Used for both recommendation and timeline cache keys.
func FriendSetHash(friends []string) string {
	sorted := make([]string, len(friends))
	copy(sorted, friends)
	sort.Strings(sorted)
	h := fnv.New64a()
	h.Write([]byte(strings.Join(sorted, "\x00")))
	return fmt.Sprintf("%016x", h.Sum64())
}

func recommendKey(uid, hash string) string { return fmt.Sprintf("rec:%s:%s", uid, hash) }

// ForUser returns the ranked recommendations for uid, from cache when the
// friend set has not changed within the freshness window.
func (s *RecommendService) ForUser(ctx context.Context, uid string) ([]Recommendation, error) {
	friends, err := s.users.FriendsOf(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(friends) == 0 {
		return []Recommendation{}, nil
	}
	key := recommendKey(uid, FriendSetHash(friends))

	var cached []Recommendation
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("recommendation cache read failed", zap.String("user", uid), zap.Error(err))
	}

	sample := s.sample(friends)
	ranked, err := s.Rank(ctx, uid, friends, sample)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, ranked, RecommendationTTL); err != nil {
		s.logger.Warn("recommendation cache write failed", zap.String("user", uid), zap.Error(err))
	}
	return ranked, nil
}

// Rank scores every candidate reachable through the sampled friends by the
// count of distinct sampled friends listing them, excluding the requester
// and existing friends, and returns the top N sorted by count descending
// with candidate id ascending as the stable tie-break. Deterministic for a
// fixed sample.
func (s *RecommendService) Rank(ctx context.Context, uid string, friends, sample []string) ([]Recommendation, error) {
	friendSet := make(map[string]bool, len(friends))
	for _, f := range friends {
		friendSet[f] = true
	}

	counts := make(map[string]int)
	for _, fid := range sample {
		theirFriends, err := s.users.FriendsOf(ctx, fid)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue // dangling friend reference; skip, don't fail the pass
			}
			return nil, err
		}
		for _, candidate := range theirFriends {
			if candidate == uid || friendSet[candidate] {
				continue
			}
			counts[candidate]++
		}
	}

	ranked := make([]Recommendation, 0, len(counts))
	for id, n := range counts {
		ranked = append(ranked, Recommendation{UserID: id, MutualCount: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].MutualCount != ranked[j].MutualCount {
			return ranked[i].MutualCount > ranked[j].MutualCount
		}
		return ranked[i].UserID < ranked[j].UserID
	})
	if len(ranked) > TopN {
		ranked = ranked[:TopN]
	}

	// Resolve display names for the final page only.
	ids := make([]string, len(ranked))
	for i := range ranked {
		ids[i] = ranked[i].UserID
	}
	profiles, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.DisplayName
	}
	for i := range ranked {
		ranked[i].DisplayName = names[ranked[i].UserID]
	}
	return ranked, nil
}

// Dismiss removes a candidate from the cached list only. The candidate
// stays recommendable to everyone else, and to this user again once the
// cache entry expires or the friend set changes.
func (s *RecommendService) Dismiss(ctx context.Context, uid, candidateID string) error {
	friends, err := s.users.FriendsOf(ctx, uid)
	if err != nil {
		return err
	}
	key := recommendKey(uid, FriendSetHash(friends))

	var cached []Recommendation
	if err := s.cache.Get(ctx, key, &cached); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil // nothing cached, nothing to dismiss
		}
		return err
	}
	kept := cached[:0]
	for _, rec := range cached {
		if rec.UserID != candidateID {
			kept = append(kept, rec)
		}
	}
	return s.cache.Set(ctx, key, kept, RecommendationTTL)
}

// sample draws up to SampleSize friends uniformly without replacement.
func (s *RecommendService) sample(friends []string) []string {
	if len(friends) <= SampleSize {
		return friends
	}
	picked := make([]string, len(friends))
	copy(picked, friends)
	s.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked[:SampleSize]
}
