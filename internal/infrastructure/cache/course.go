package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	versionKey = "courses:version"
	listTTL    = 10 * time.Minute
	detailTTL  = time.Hour
)

// CourseCache stores catalogue reads under a version number. Any write bumps the
// version, which orphans every cached list and detail at once; orphans expire by TTL.
// A nil *CourseCache is valid and caches nothing.
type CourseCache struct {
	client *redis.Client
}

func NewCourseCache(client *redis.Client) *CourseCache {
	return &CourseCache{client: client}
}

func (c *CourseCache) version(ctx context.Context) int64 {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil {
		return 0
	}
	return v
}

func (c *CourseCache) ListKey(ctx context.Context, parts ...interface{}) string {
	if c == nil {
		return ""
	}
	key := fmt.Sprintf("courses:list:v%d", c.version(ctx))
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

func (c *CourseCache) DetailKey(ctx context.Context, id string, all bool) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("course:detail:v%d:%s:%t", c.version(ctx), id, all)
}

// Load decodes the cached value at key into dst.
func (c *CourseCache) Load(ctx context.Context, key string, dst interface{}) error {
	if c == nil || key == "" {
		return ErrMiss
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dst)
}

func (c *CourseCache) StoreList(ctx context.Context, key string, v interface{}) {
	c.store(ctx, key, v, listTTL)
}

func (c *CourseCache) StoreDetail(ctx context.Context, key string, v interface{}) {
	c.store(ctx, key, v, detailTTL)
}

func (c *CourseCache) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if c == nil || key == "" {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("course cache write %s: %v", key, err)
	}
}

// Invalidate drops every cached catalogue read.
func (c *CourseCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		log.Printf("course cache invalidate: %v", err)
	}
}
