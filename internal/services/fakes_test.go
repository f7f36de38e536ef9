package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/wordmate-app/backend/internal/apperrors"
	"github.com/wordmate-app/backend/internal/models"
)

// In-memory repository fakes. They mirror the Mongo implementations'
// guard semantics (conditional create, guarded guess commit) so the
// services' race handling is exercised without a store.

type fakeUserRepo struct {
	mu             sync.Mutex
	users          map[string]*models.User
	friendsOfCalls int
	failAddFor     map[string]int // ownerID -> remaining failures
	failRemoveFor  map[string]int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:         make(map[string]*models.User),
		failAddFor:    make(map[string]int),
		failRemoveFor: make(map[string]int),
	}
}

func (r *fakeUserRepo) put(id, name string, friends ...string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := &models.User{ID: id, DisplayName: name, Email: id + "@example.com", Friends: append([]string{}, friends...)}
	r.users[id] = u
	return u
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return apperrors.ErrAlreadyExists
	}
	if user.Friends == nil {
		user.Friends = []string{}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *u
	clone.Friends = append([]string{}, u.Friends...)
	return &clone, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, err := r.GetByID(ctx, id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.DisplayName = displayName
	return nil
}

func (r *fakeUserRepo) Search(ctx context.Context, term, requesterID string) ([]models.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) AddFriend(ctx context.Context, ownerID, friendID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := r.failAddFor[ownerID]; n > 0 {
		r.failAddFor[ownerID] = n - 1
		return fmt.Errorf("injected add failure for %s", ownerID)
	}
	u, ok := r.users[ownerID]
	if !ok {
		return apperrors.ErrNotFound
	}
	for _, f := range u.Friends {
		if f == friendID {
			return nil
		}
	}
	u.Friends = append(u.Friends, friendID)
	return nil
}

func (r *fakeUserRepo) RemoveFriend(ctx context.Context, ownerID, friendID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := r.failRemoveFor[ownerID]; n > 0 {
		r.failRemoveFor[ownerID] = n - 1
		return fmt.Errorf("injected remove failure for %s", ownerID)
	}
	u, ok := r.users[ownerID]
	if !ok {
		return apperrors.ErrNotFound
	}
	kept := u.Friends[:0]
	for _, f := range u.Friends {
		if f != friendID {
			kept = append(kept, f)
		}
	}
	u.Friends = kept
	return nil
}

func (r *fakeUserRepo) FriendsOf(ctx context.Context, id string) ([]string, error) {
	r.mu.Lock()
	r.friendsOfCalls++
	r.mu.Unlock()
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Friends, nil
}

func (r *fakeUserRepo) RecordGameResult(ctx context.Context, winnerID, loserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.users[winnerID]; ok {
		w.GamesWon++
		w.GamesPlayed++
	}
	if l, ok := r.users[loserID]; ok {
		l.GamesPlayed++
	}
	return nil
}

type fakeFriendshipRepo struct {
	mu       sync.Mutex
	requests map[string]*models.FriendRequest
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{requests: make(map[string]*models.FriendRequest)}
}

func (r *fakeFriendshipRepo) Create(ctx context.Context, req *models.FriendRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = models.RequestPending
	req.CreatedAt = time.Now()
	r.requests[req.ID] = req
	return nil
}

func (r *fakeFriendshipRepo) GetByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *req
	return &clone, nil
}

func (r *fakeFriendshipRepo) FindPendingBetween(ctx context.Context, a, b string) (*models.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.Status != models.RequestPending {
			continue
		}
		if (req.SenderID == a && req.ReceiverID == b) || (req.SenderID == b && req.ReceiverID == a) {
			clone := *req
			return &clone, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeFriendshipRepo) PendingFor(ctx context.Context, receiverID string) ([]models.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.FriendRequest
	for _, req := range r.requests {
		if req.ReceiverID == receiverID && req.Status == models.RequestPending {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeFriendshipRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != models.RequestPending {
		return apperrors.ErrStale
	}
	req.Status = status
	return nil
}

type fakeInviteRepo struct {
	mu      sync.Mutex
	invites map[string]*models.GameInvite
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: make(map[string]*models.GameInvite)}
}

func (r *fakeInviteRepo) Create(ctx context.Context, invite *models.GameInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if invite.ID == "" {
		invite.ID = uuid.NewString()
	}
	invite.Status = models.InvitePending
	invite.CreatedAt = time.Now()
	r.invites[invite.ID] = invite
	return nil
}

func (r *fakeInviteRepo) GetByID(ctx context.Context, id string) (*models.GameInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *invite
	return &clone, nil
}

func (r *fakeInviteRepo) GetByGameID(ctx context.Context, gameID string) (*models.GameInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, invite := range r.invites {
		if invite.GameID == gameID {
			clone := *invite
			return &clone, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeInviteRepo) FindPendingBetween(ctx context.Context, a, b string) (*models.GameInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, invite := range r.invites {
		if invite.Status != models.InvitePending {
			continue
		}
		if (invite.SenderID == a && invite.ReceiverID == b) || (invite.SenderID == b && invite.ReceiverID == a) {
			clone := *invite
			return &clone, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeInviteRepo) FindAcceptedInvolving(ctx context.Context, uid string) ([]models.GameInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.GameInvite
	for _, invite := range r.invites {
		if invite.Status == models.InviteAccepted && (invite.SenderID == uid || invite.ReceiverID == uid) {
			out = append(out, *invite)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeInviteRepo) PendingFor(ctx context.Context, receiverID string) ([]models.GameInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.GameInvite
	for _, invite := range r.invites {
		if invite.ReceiverID == receiverID && invite.Status == models.InvitePending {
			out = append(out, *invite)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeInviteRepo) Accept(ctx context.Context, id, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[id]
	if !ok || invite.Status != models.InvitePending {
		return apperrors.ErrStale
	}
	invite.Status = models.InviteAccepted
	invite.GameID = gameID
	return nil
}

func (r *fakeInviteRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[id]
	if !ok || invite.Status != models.InvitePending {
		return apperrors.ErrStale
	}
	invite.Status = status
	return nil
}

func (r *fakeInviteRepo) DeleteByGameID(ctx context.Context, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, invite := range r.invites {
		if invite.GameID == gameID {
			delete(r.invites, id)
			return nil
		}
	}
	return nil
}

type fakeGameRepo struct {
	mu    sync.Mutex
	games map[string]*models.WordleGame
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: make(map[string]*models.WordleGame)}
}

func (r *fakeGameRepo) CreateIfAbsent(ctx context.Context, game *models.WordleGame) (*models.WordleGame, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.games[game.ID]; ok {
		clone := *existing
		return &clone, false, nil
	}
	game.CreatedAt = time.Now()
	if game.Player1Guesses == nil {
		game.Player1Guesses = []string{}
	}
	if game.Player2Guesses == nil {
		game.Player2Guesses = []string{}
	}
	stored := *game
	r.games[game.ID] = &stored
	clone := stored
	return &clone, true, nil
}

func (r *fakeGameRepo) GetByID(ctx context.Context, id string) (*models.WordleGame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.games[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *game
	clone.Player1Guesses = append([]string{}, game.Player1Guesses...)
	clone.Player2Guesses = append([]string{}, game.Player2Guesses...)
	return &clone, nil
}

func (r *fakeGameRepo) CommitGuess(ctx context.Context, gameID, callerID, guess string, won bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.games[gameID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	// Same guard as the store filter: active and caller's turn.
	if game.Status != models.GameActive || game.CurrentPlayer != callerID {
		return false, nil
	}
	if callerID == game.Player1 {
		game.Player1Guesses = append(game.Player1Guesses, guess)
		game.CurrentPlayer = game.Player2
	} else {
		game.Player2Guesses = append(game.Player2Guesses, guess)
		game.CurrentPlayer = game.Player1
	}
	if won {
		game.Status = models.GameCompleted
		game.Winner = callerID
		game.CurrentPlayer = callerID
	}
	return true, nil
}

type fakePresenceRepo struct {
	mu      sync.Mutex
	records map[string]models.PresenceRecord
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{records: make(map[string]models.PresenceRecord)}
}

func (r *fakePresenceRepo) setOnline(uid string, online, available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record := models.PresenceRecord{IdentityID: uid, IsOnline: online, IsAvailable: available}
	if online {
		record.Sessions = []string{uuid.NewString()}
	}
	r.records[uid] = record
}

func (r *fakePresenceRepo) Attach(ctx context.Context, identityID string) (models.ClientSession, error) {
	return models.ClientSession{IdentityID: identityID, SessionToken: uuid.NewString()}, nil
}

func (r *fakePresenceRepo) Heartbeat(ctx context.Context, session models.ClientSession) error {
	return nil
}

func (r *fakePresenceRepo) Detach(ctx context.Context, session models.ClientSession) error {
	return nil
}

func (r *fakePresenceRepo) SetAvailability(ctx context.Context, identityID string, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record := r.records[identityID]
	record.IdentityID = identityID
	record.IsAvailable = available
	r.records[identityID] = record
	return nil
}

func (r *fakePresenceRepo) Get(ctx context.Context, identityID string) (models.PresenceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[identityID], nil
}

func (r *fakePresenceRepo) Watch(ctx context.Context, identityID string) (<-chan models.PresenceRecord, error) {
	ch := make(chan models.PresenceRecord)
	close(ch)
	return ch, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	hits    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	payload, ok := c.entries[key]
	if !ok {
		return apperrors.ErrNotFound
	}
	c.hits++
	return msgpack.Unmarshal(payload, value)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = payload
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

type fakeTweetRepo struct {
	mu        sync.Mutex
	tweets    map[string]*models.Tweet
	activity  []models.Activity
	feedCalls int
}

func newFakeTweetRepo() *fakeTweetRepo {
	return &fakeTweetRepo{tweets: make(map[string]*models.Tweet)}
}

func (r *fakeTweetRepo) Create(ctx context.Context, tweet *models.Tweet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tweet.ID == "" {
		tweet.ID = uuid.NewString()
	}
	tweet.CreatedAt = time.Now()
	if tweet.LikedBy == nil {
		tweet.LikedBy = []string{}
	}
	stored := *tweet
	r.tweets[tweet.ID] = &stored
	r.activity = append(r.activity, models.Activity{
		ID: uuid.NewString(), UserID: tweet.AuthorID, TweetID: tweet.ID, Timestamp: tweet.CreatedAt,
	})
	return nil
}

func (r *fakeTweetRepo) GetByID(ctx context.Context, id string) (*models.Tweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tweet, ok := r.tweets[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *tweet
	return &clone, nil
}

func (r *fakeTweetRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tweets[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.tweets, id)
	kept := r.activity[:0]
	for _, a := range r.activity {
		if a.TweetID != id {
			kept = append(kept, a)
		}
	}
	r.activity = kept
	return nil
}

func (r *fakeTweetRepo) Like(ctx context.Context, tweetID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tweet, ok := r.tweets[tweetID]
	if !ok {
		return apperrors.ErrNotFound
	}
	for _, u := range tweet.LikedBy {
		if u == userID {
			return apperrors.ErrAlreadyExists
		}
	}
	tweet.LikedBy = append(tweet.LikedBy, userID)
	tweet.Likes++
	return nil
}

func (r *fakeTweetRepo) Unlike(ctx context.Context, tweetID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tweet, ok := r.tweets[tweetID]
	if !ok {
		return apperrors.ErrNotFound
	}
	for i, u := range tweet.LikedBy {
		if u == userID {
			tweet.LikedBy = append(tweet.LikedBy[:i], tweet.LikedBy[i+1:]...)
			tweet.Likes--
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *fakeTweetRepo) FeedFor(ctx context.Context, authorIDs []string, page int64) ([]models.Tweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedCalls++
	authors := make(map[string]bool, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = true
	}
	var out []models.Tweet
	for _, tweet := range r.tweets {
		if authors[tweet.AuthorID] {
			out = append(out, *tweet)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTweetRepo) ActivitySince(ctx context.Context, userIDs []string, since time.Time) ([]models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		users[id] = true
	}
	var out []models.Activity
	for _, a := range r.activity {
		if users[a.UserID] && a.Timestamp.After(since) {
			out = append(out, a)
		}
	}
	return out, nil
}
