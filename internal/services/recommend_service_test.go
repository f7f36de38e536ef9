package services

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRecommendFixture() (*RecommendService, *fakeUserRepo, *fakeCache) {
	users := newFakeUserRepo()
	cache := newFakeCache()
	svc := NewRecommendService(users, cache, rand.New(rand.NewSource(1)), zap.NewNop())
	return svc, users, cache
}

// Graph: me has 3 friends (f1..f3, under the sample bound so the "sample"
// is the full deterministic set). Candidates overlap with different counts.
func seedRecommendGraph(users *fakeUserRepo) {
	users.put("me", "Me", "f1", "f2", "f3")
	users.put("f1", "Friend One", "me", "c1", "c2", "c3")
	users.put("f2", "Friend Two", "me", "c1", "c2")
	users.put("f3", "Friend Three", "me", "c1", "f2") // f2 is already a friend
	users.put("c1", "Cand One")
	users.put("c2", "Cand Two")
	users.put("c3", "Cand Three")
}

func TestRankByMutualCountWithStableTieBreak(t *testing.T) {
	svc, users, _ := newRecommendFixture()
	seedRecommendGraph(users)

	recs, err := svc.ForUser(context.Background(), "me")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	// c1 is listed by all three friends, c2 by two, c3 by one. Neither the
	// requester nor existing friends appear.
	assert.Equal(t, "c1", recs[0].UserID)
	assert.Equal(t, 3, recs[0].MutualCount)
	assert.Equal(t, "Cand One", recs[0].DisplayName)
	assert.Equal(t, "c2", recs[1].UserID)
	assert.Equal(t, 2, recs[1].MutualCount)
	assert.Equal(t, "c3", recs[2].UserID)
	assert.Equal(t, 1, recs[2].MutualCount)
}

func TestRankTieBreaksByCandidateID(t *testing.T) {
	svc, users, _ := newRecommendFixture()
	users.put("me", "Me", "f1")
	users.put("f1", "Friend", "me", "zed", "ann")
	users.put("zed", "Zed")
	users.put("ann", "Ann")

	recs, err := svc.ForUser(context.Background(), "me")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "ann", recs[0].UserID)
	assert.Equal(t, "zed", recs[1].UserID)
}

func TestRankCapsAtTopN(t *testing.T) {
	svc, users, _ := newRecommendFixture()
	friends := []string{"f1"}
	users.put("f1", "Friend", "me", "c1", "c2", "c3", "c4", "c5", "c6", "c7")
	users.put("me", "Me", friends...)
	for _, id := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"} {
		users.put(id, "Cand "+id)
	}

	recs, err := svc.ForUser(context.Background(), "me")
	require.NoError(t, err)
	assert.Len(t, recs, TopN)
}

func TestForUserServesFromCacheUntilFriendSetChanges(t *testing.T) {
	svc, users, cache := newRecommendFixture()
	seedRecommendGraph(users)
	ctx := context.Background()

	first, err := svc.ForUser(ctx, "me")
	require.NoError(t, err)
	callsAfterFirst := users.friendsOfCalls

	second, err := svc.ForUser(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	// Only the requester's own friend list is re-read for the cache key;
	// no per-friend traversal happened.
	assert.Equal(t, callsAfterFirst+1, users.friendsOfCalls)
	assert.Equal(t, 1, cache.hits)

	// Growing the friend set changes the key, so the next read recomputes.
	require.NoError(t, users.AddFriend(ctx, "me", "c3"))
	users.put("c3", "Cand Three", "me")
	third, err := svc.ForUser(ctx, "me")
	require.NoError(t, err)
	for _, rec := range third {
		assert.NotEqual(t, "c3", rec.UserID, "a new friend must not be recommended")
	}
	assert.Greater(t, users.friendsOfCalls, callsAfterFirst+2)
}

func TestDismissMutatesCacheOnly(t *testing.T) {
	svc, users, _ := newRecommendFixture()
	seedRecommendGraph(users)
	ctx := context.Background()

	_, err := svc.ForUser(ctx, "me")
	require.NoError(t, err)

	require.NoError(t, svc.Dismiss(ctx, "me", "c1"))

	recs, err := svc.ForUser(ctx, "me")
	require.NoError(t, err)
	for _, rec := range recs {
		assert.NotEqual(t, "c1", rec.UserID)
	}

	// Dismissal lives in the cache entry: a friend-set change recomputes
	// from scratch and the candidate comes back.
	require.NoError(t, users.AddFriend(ctx, "me", "c3"))
	recs, err = svc.ForUser(ctx, "me")
	require.NoError(t, err)
	found := false
	for _, rec := range recs {
		if rec.UserID == "c1" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestForUserNoFriendsNoRecommendations(t *testing.T) {
	svc, users, cache := newRecommendFixture()
	users.put("loner", "Loner")

	recs, err := svc.ForUser(context.Background(), "loner")
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Zero(t, cache.gets)
}

func TestRankSkipsDanglingFriendReferences(t *testing.T) {
	svc, users, _ := newRecommendFixture()
	users.put("me", "Me", "f1", "ghost")
	users.put("f1", "Friend", "me", "c1")
	users.put("c1", "Cand One")
	// "ghost" has no profile document.

	recs, err := svc.ForUser(context.Background(), "me")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "c1", recs[0].UserID)
}

func TestFriendSetHashOrderIndependent(t *testing.T) {
	a := FriendSetHash([]string{"x", "y", "z"})
	b := FriendSetHash([]string{"z", "x", "y"})
	c := FriendSetHash([]string{"x", "y"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
