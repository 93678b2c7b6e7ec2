package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const CookieName = "farm_session"

var ErrNoSession = errors.New("no session")

// Session is a short-lived key-value record of the signed-in user. It is
// re-derived from the database on privileged reads and rewritten whenever the
// account changes, never trusted as a long-lived cache.
type Session struct {
	UserID  uint   `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

type Store struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{RDB: rdb, TTL: ttl}
}

func key(id string) string { return "session:" + id }

// Create stores the session under a fresh opaque id and returns the id.
func (s *Store) Create(ctx context.Context, sess *Session) (string, error) {
	id := uuid.NewString()
	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("session: marshal failed: %w", err)
	}
	if err := s.RDB.Set(ctx, key(id), data, s.TTL).Err(); err != nil {
		return "", fmt.Errorf("session: redis set failed: %w", err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.RDB.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis get failed: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: unmarshal failed: %w", err)
	}
	return &sess, nil
}

// Update rewrites an existing session in place, keeping its remaining TTL.
func (s *Store) Update(ctx context.Context, id string, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal failed: %w", err)
	}
	if err := s.RDB.Set(ctx, key(id), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("session: redis set failed: %w", err)
	}
	return nil
}

func (s *Store) Destroy(ctx context.Context, id string) error {
	return s.RDB.Del(ctx, key(id)).Err()
}

// Cookie builds the session cookie; an empty id with expires in the past
// clears it on logout.
func Cookie(id string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
