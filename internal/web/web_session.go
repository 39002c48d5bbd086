package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	SessionCookie    = "leaveit_session"
	sessionKeyPrefix = "session:"

	defaultSessionTTL = 24 * time.Hour
)

// Identity is the signed-in user as the web client remembers it.
type Identity struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employeeId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	AccessToken string `json:"accessToken"`
}

func (i Identity) IsManager() bool {
	return i.Role == "manager"
}

type SessionStore interface {
	// Current returns nil without error when the caller has no live session.
	Current(c *gin.Context) (*Identity, error)
	Set(c *gin.Context, identity Identity) error
	Clear(c *gin.Context) error
}

type redisSessionStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	secure bool
	newID  func() string
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration, secureCookie bool) SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &redisSessionStore{
		rdb:    rdb,
		ttl:    ttl,
		secure: secureCookie,
		newID:  uuid.NewString,
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *redisSessionStore) Current(c *gin.Context) (*Identity, error) {
	sid, err := c.Cookie(SessionCookie)
	if err != nil || sid == "" {
		return nil, nil
	}

	raw, err := s.rdb.Get(c.Request.Context(), sessionKey(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var identity Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *redisSessionStore) Set(c *gin.Context, identity Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}

	sid := s.newID()
	if err := s.rdb.Set(c.Request.Context(), sessionKey(sid), string(data), s.ttl).Err(); err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sid, int(s.ttl.Seconds()), "/", "", s.secure, true)
	return nil
}

func (s *redisSessionStore) Clear(c *gin.Context) error {
	c.SetSameSite(http.SameSiteLaxMode)
	defer c.SetCookie(SessionCookie, "", -1, "/", "", s.secure, true)

	sid, err := c.Cookie(SessionCookie)
	if err != nil || sid == "" {
		return nil
	}
	return s.rdb.Del(c.Request.Context(), sessionKey(sid)).Err()
}
