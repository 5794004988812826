package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetTokenTTL = 15 * time.Minute

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

type TokenCache struct {
	client *redis.Client
}

func NewTokenCache(client *redis.Client) *TokenCache {
	return &TokenCache{client: client}
}

// SaveSession maps a session token to its user until the session expires.
func (c *TokenCache) SaveSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	val := userID + "|" + strconv.FormatInt(expiresAt.Unix(), 10)
	return c.client.Set(ctx, "session:"+token, val, ttl).Err()
}

// GetSession returns the user id and expiry cached for token.
func (c *TokenCache) GetSession(ctx context.Context, token string) (string, time.Time, error) {
	val, err := c.get(ctx, "session:"+token)
	if err != nil {
		return "", time.Time{}, err
	}
	userID, exp, ok := strings.Cut(val, "|")
	if !ok {
		return "", time.Time{}, ErrMiss
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", time.Time{}, ErrMiss
	}
	return userID, time.Unix(unix, 0), nil
}

func (c *TokenCache) DeleteSession(ctx context.Context, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}
	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = "session:" + t
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *TokenCache) SaveResetToken(ctx context.Context, token string, userID string) error {
	return c.client.Set(ctx, "reset_token:"+token, userID, resetTokenTTL).Err()
}

// ConsumeResetToken returns the user the token was issued for and deletes it.
func (c *TokenCache) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	val, err := c.client.GetDel(ctx, "reset_token:"+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

// SaveOAuthState remembers a Google sign-in state for ten minutes.
func (c *TokenCache) SaveOAuthState(ctx context.Context, state string) error {
	return c.client.Set(ctx, "oauth_state:"+state, "1", 10*time.Minute).Err()
}

func (c *TokenCache) ConsumeOAuthState(ctx context.Context, state string) bool {
	n, err := c.client.Del(ctx, "oauth_state:"+state).Result()
	return err == nil && n == 1
}

func (c *TokenCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *TokenCache) get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}
