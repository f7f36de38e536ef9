package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/wordmate-app/backend/internal/models"
	"go.uber.org/zap"
)

// PresenceRepository defines the interface for live presence state.
//
// A user is online iff at least one session key is live. Session keys carry
// a TTL refreshed by heartbeats; a client that dies without detaching stops
// heartbeating and the store expires exactly that session — never the whole
// presence node. That expiry is the only server-enforced cleanup in the
// system; a session whose client crashed before its first heartbeat lives
// until the TTL lapses, which is an accepted staleness window.
type PresenceRepository interface {
	Attach(ctx context.Context, identityID string) (models.ClientSession, error)
	Heartbeat(ctx context.Context, session models.ClientSession) error
	Detach(ctx context.Context, session models.ClientSession) error
	SetAvailability(ctx context.Context, identityID string, available bool) error
	Get(ctx context.Context, identityID string) (models.PresenceRecord, error)
	Watch(ctx context.Context, identityID string) (<-chan models.PresenceRecord, error)
}

// RedisPresenceRepository implements PresenceRepository on Redis.
//
// Keys:
//
//	presence:{uid}:session:{sid}  "1", TTL = sessionTTL
//	presence:{uid}:sessions       set of session ids (index, lazily pruned)
//	presence:{uid}:available      "1" / "0"
//	presence:{uid}:last_active    RFC3339
//
// Every mutation publishes the fresh record on channel presence:{uid}.
type RedisPresenceRepository struct {
	rdb        *redis.Client
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewRedisPresenceRepository creates a new RedisPresenceRepository.
func NewRedisPresenceRepository(rdb *redis.Client, sessionTTL time.Duration, logger *zap.Logger) *RedisPresenceRepository {
	return &RedisPresenceRepository{rdb: rdb, sessionTTL: sessionTTL, logger: logger}
}

func sessionKey(uid, sid string) string { return fmt.Sprintf("presence:%s:session:%s", uid, sid) }
func indexKey(uid string) string        { return fmt.Sprintf("presence:%s:sessions", uid) }
func availableKey(uid string) string    { return fmt.Sprintf("presence:%s:available", uid) }
func lastActiveKey(uid string) string   { return fmt.Sprintf("presence:%s:last_active", uid) }
func channelKey(uid string) string      { return fmt.Sprintf("presence:%s", uid) }

// Attach registers a fresh session for the identity and returns it.
func (r *RedisPresenceRepository) Attach(ctx context.Context, identityID string) (models.ClientSession, error) {
	session := models.ClientSession{
		IdentityID:   identityID,
		SessionToken: uuid.NewString(),
	}
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(identityID, session.SessionToken), "1", r.sessionTTL)
	pipe.SAdd(ctx, indexKey(identityID), session.SessionToken)
	pipe.Set(ctx, lastActiveKey(identityID), time.Now().Format(time.RFC3339Nano), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return models.ClientSession{}, err
	}
	r.publish(ctx, identityID)
	return session, nil
}

// Heartbeat refreshes the session TTL and last-active time. A heartbeat on
// an already-expired session re-creates it, which is the legal outcome of a
// client that stalled past the TTL and came back.
func (r *RedisPresenceRepository) Heartbeat(ctx context.Context, session models.ClientSession) error {
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(session.IdentityID, session.SessionToken), "1", r.sessionTTL)
	pipe.SAdd(ctx, indexKey(session.IdentityID), session.SessionToken)
	pipe.Set(ctx, lastActiveKey(session.IdentityID), time.Now().Format(time.RFC3339Nano), 0)
	_, err := pipe.Exec(ctx)
	return err
}

// Detach is the clean shutdown path: it removes exactly this session.
func (r *RedisPresenceRepository) Detach(ctx context.Context, session models.ClientSession) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(session.IdentityID, session.SessionToken))
	pipe.SRem(ctx, indexKey(session.IdentityID), session.SessionToken)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	r.publish(ctx, session.IdentityID)
	return nil
}

// SetAvailability flips the available-for-games flag. Sessions untouched.
func (r *RedisPresenceRepository) SetAvailability(ctx context.Context, identityID string, available bool) error {
	val := "0"
	if available {
		val = "1"
	}
	if err := r.rdb.Set(ctx, availableKey(identityID), val, 0).Err(); err != nil {
		return err
	}
	r.publish(ctx, identityID)
	return nil
}

// Get reads the live presence record, pruning index entries whose session
// key has expired. IsOnline is derived here, never read from storage.
func (r *RedisPresenceRepository) Get(ctx context.Context, identityID string) (models.PresenceRecord, error) {
	record := models.PresenceRecord{IdentityID: identityID, Sessions: []string{}}

	sids, err := r.rdb.SMembers(ctx, indexKey(identityID)).Result()
	if err != nil {
		return record, err
	}
	for _, sid := range sids {
		n, err := r.rdb.Exists(ctx, sessionKey(identityID, sid)).Result()
		if err != nil {
			return record, err
		}
		if n == 0 {
			// Expired (ungraceful disconnect); drop the index entry.
			r.rdb.SRem(ctx, indexKey(identityID), sid)
			continue
		}
		record.Sessions = append(record.Sessions, sid)
	}
	record.IsOnline = len(record.Sessions) > 0

	avail, err := r.rdb.Get(ctx, availableKey(identityID)).Result()
	if err != nil && err != redis.Nil {
		return record, err
	}
	record.IsAvailable = avail == "1"

	last, err := r.rdb.Get(ctx, lastActiveKey(identityID)).Result()
	if err != nil && err != redis.Nil {
		return record, err
	}
	if last != "" {
		if t, perr := time.Parse(time.RFC3339Nano, last); perr == nil {
			record.LastActive = t
		}
	}
	return record, nil
}

// Watch subscribes to presence updates for one identity. The returned
// channel closes when ctx is done, so a consumer that goes away stops
// receiving by construction. The first value is the current record.
func (r *RedisPresenceRepository) Watch(ctx context.Context, identityID string) (<-chan models.PresenceRecord, error) {
	sub := r.rdb.Subscribe(ctx, channelKey(identityID))
	// Force the subscription to establish before we report success.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	out := make(chan models.PresenceRecord, 1)
	if current, err := r.Get(ctx, identityID); err == nil {
		out <- current
	}

	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var record models.PresenceRecord
				if err := msgpack.Unmarshal([]byte(msg.Payload), &record); err != nil {
					r.logger.Warn("presence: dropping undecodable update",
						zap.String("identity", identityID), zap.Error(err))
					continue
				}
				select {
				case out <- record:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// publish pushes the freshly derived record to watchers. Publish failures
// only degrade liveness of observers, so they are logged and swallowed.
func (r *RedisPresenceRepository) publish(ctx context.Context, identityID string) {
	record, err := r.Get(ctx, identityID)
	if err != nil {
		r.logger.Warn("presence: publish read failed", zap.String("identity", identityID), zap.Error(err))
		return
	}
	payload, err := msgpack.Marshal(record)
	if err != nil {
		r.logger.Warn("presence: publish encode failed", zap.String("identity", identityID), zap.Error(err))
		return
	}
	if err := r.rdb.Publish(ctx, channelKey(identityID), payload).Err(); err != nil {
		r.logger.Warn("presence: publish failed", zap.String("identity", identityID), zap.Error(err))
	}
}
