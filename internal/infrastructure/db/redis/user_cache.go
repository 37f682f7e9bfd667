package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/pkg/metrics"
)

const (
	defaultCacheTTL = 5 * time.Minute
	// revisionTTL outlives any in-flight read by a wide margin.
	revisionTTL = time.Hour
)

// storeIfCurrent writes the cached record only while the revision read before
// the store lookup is still the latest one.
//
//	KEYS[1] record key, KEYS[2] revision key
//	ARGV[1] payload, ARGV[2] revision seen, ARGV[3] record ttl in ms
var storeIfCurrent = redis.NewScript(`
local current = redis.call("GET", KEYS[2]) or "0"
if current ~= ARGV[2] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// invalidate bumps the revision and drops the record in one step.
//
//	KEYS[1] record key, KEYS[2] revision key
//	ARGV[1] revision ttl in ms
var invalidate = redis.NewScript(`
redis.call("INCR", KEYS[2])
redis.call("PEXPIRE", KEYS[2], ARGV[1])
return redis.call("DEL", KEYS[1])
`)

// CachingUserRepository decorates a ports.UserRepository with a Redis
// read-through cache for id lookups. Every mutation evicts the affected id and
// bumps its revision, so a lookup that raced a mutation cannot write back the
// record it read before the change.
// Keys: users:<id> and users:<id>:rev
type CachingUserRepository struct {
	inner  ports.UserRepository
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewCachingUserRepository wraps inner. A nil client disables caching; a
// non-positive ttl falls back to defaultCacheTTL.
func NewCachingUserRepository(inner ports.UserRepository, client *redis.Client, ttl time.Duration, log zerolog.Logger) *CachingUserRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachingUserRepository{inner: inner, client: client, ttl: ttl, log: log}
}

// cachedUser is the JSON shape stored in Redis.
type cachedUser struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Stack     string    `json:"stack"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *CachingUserRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	return c.inner.Insert(ctx, user)
}

func (c *CachingUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if c.client == nil {
		return c.inner.FindByID(ctx, id)
	}

	if u, ok := c.get(ctx, id); ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return u, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	rev, revOK := c.revision(ctx, id)

	u, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if revOK {
		c.set(ctx, u, rev)
	}
	return u, nil
}

func (c *CachingUserRepository) FindOne(ctx context.Context, filter ports.UserFilter) (*domain.User, error) {
	return c.inner.FindOne(ctx, filter)
}

func (c *CachingUserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	return c.inner.FindAll(ctx)
}

func (c *CachingUserRepository) UpdateByID(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	u, err := c.inner.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, u.ID)
	return u, nil
}

func (c *CachingUserRepository) UpdateOne(ctx context.Context, filter ports.UserFilter, patch domain.UserPatch) (*domain.User, error) {
	u, err := c.inner.UpdateOne(ctx, filter, patch)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, u.ID)
	return u, nil
}

func (c *CachingUserRepository) DeleteByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := c.inner.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, u.ID)
	return u, nil
}

func (c *CachingUserRepository) DeleteOne(ctx context.Context, filter ports.UserFilter) (*domain.User, error) {
	u, err := c.inner.DeleteOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, u.ID)
	return u, nil
}

// get is best effort: any Redis or decode failure is a miss.
func (c *CachingUserRepository) get(ctx context.Context, id string) (*domain.User, bool) {
	b, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("user_id", id).Msg("user cache read failed")
		}
		return nil, false
	}

	var cu cachedUser
	if err := json.Unmarshal(b, &cu); err != nil {
		_ = c.client.Del(ctx, cacheKey(id)).Err()
		return nil, false
	}
	return &domain.User{
		ID:        cu.ID,
		FirstName: cu.FirstName,
		LastName:  cu.LastName,
		Email:     cu.Email,
		Stack:     cu.Stack,
		CreatedAt: cu.CreatedAt,
		UpdatedAt: cu.UpdatedAt,
	}, true
}

// revision reads the mutation counter of id. A missing counter is "0".
func (c *CachingUserRepository) revision(ctx context.Context, id string) (string, bool) {
	rev, err := c.client.Get(ctx, revisionKey(id)).Result()
	switch {
	case err == nil:
		return rev, true
	case errors.Is(err, redis.Nil):
		return "0", true
	default:
		c.log.Warn().Err(err).Str("user_id", id).Msg("user cache revision read failed")
		return "", false
	}
}

func (c *CachingUserRepository) set(ctx context.Context, u *domain.User, rev string) {
	b, err := json.Marshal(cachedUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Stack:     u.Stack,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
	if err != nil {
		return
	}
	keys := []string{cacheKey(u.ID), revisionKey(u.ID)}
	if err := storeIfCurrent.Run(ctx, c.client, keys, b, rev, c.ttl.Milliseconds()).Err(); err != nil {
		c.log.Warn().Err(err).Str("user_id", u.ID).Msg("user cache write failed")
	}
}

func (c *CachingUserRepository) evict(ctx context.Context, id string) {
	if c.client == nil {
		return
	}
	keys := []string{cacheKey(id), revisionKey(id)}
	if err := invalidate.Run(ctx, c.client, keys, revisionTTL.Milliseconds()).Err(); err != nil {
		c.log.Warn().Err(err).Str("user_id", id).Msg("user cache eviction failed")
	}
}

func cacheKey(id string) string {
	return "users:" + id
}

func revisionKey(id string) string {
	return "users:" + id + ":rev"
}
