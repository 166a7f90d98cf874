package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session remembers a chat caller's details between requests so the
// chat endpoint can fill in missing fields (name, phone, reservation
// reference) the way a returning guest would expect.
type Session struct {
	Name            string `json:"name,omitempty"`
	Phone           string `json:"phone,omitempty"`
	LastReservation string `json:"last_reservation,omitempty"`
}

// SessionRepo stores chat sessions in Redis under session:<id> with a
// sliding TTL.  When no Redis client is configured it degrades to an
// in-process map, mirroring how the rest of the service treats Redis
// as optional infrastructure.
type SessionRepo struct {
	rdb *redis.Client
	ttl time.Duration

	mu  sync.Mutex
	mem map[string]Session
}

// NewSessionRepo returns a session repository.  rdb may be nil.
func NewSessionRepo(rdb *redis.Client, ttl time.Duration) *SessionRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRepo{rdb: rdb, ttl: ttl, mem: make(map[string]Session)}
}

// Get returns the session for the given id, or a zero session when
// none exists or Redis is unreachable.  Session state is a
// convenience, so lookup errors are swallowed rather than surfaced.
func (r *SessionRepo) Get(ctx context.Context, id string) Session {
	if r.rdb == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.mem[id]
	}
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		return Session{}
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}
	}
	return s
}

// Put stores the session and refreshes its TTL.
func (r *SessionRepo) Put(ctx context.Context, id string, s Session) {
	if r.rdb == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.mem[id] = s
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	_ = r.rdb.Set(ctx, sessionKey(id), raw, r.ttl).Err()
}

func sessionKey(id string) string { return "session:" + id }
