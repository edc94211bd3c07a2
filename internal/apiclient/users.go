package apiclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gitlab.com/yelinaung/finance-bot/internal/models"
	"golang.org/x/sync/singleflight"
)

// UserDirectory is the subset of Backend used to find or create users.
type UserDirectory interface {
	GetUserByChatID(ctx context.Context, chatID int64) (models.User, error)
	RegisterUser(ctx context.Context, chatID int64, displayName string) (models.User, error)
}

type cachedUser struct {
	user      models.User
	expiresAt time.Time
}

const maxUserCleanupInterval = 5 * time.Minute

// CachedUsers resolves chat ids to backend users, registering unknown chats,
// with in-memory TTL caching. Concurrent lookups for the same chat share one
// backend round trip.
type CachedUsers struct {
	inner UserDirectory
	ttl   time.Duration
	now   func() time.Time

	calls singleflight.Group

	mu          sync.Mutex
	users       map[int64]cachedUser
	lastCleanup time.Time
}

// NewCachedUsers wraps a user directory with a cache.
func NewCachedUsers(inner UserDirectory, ttl time.Duration) *CachedUsers {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedUsers{
		inner: inner,
		ttl:   ttl,
		now:   time.Now,
		users: make(map[int64]cachedUser),
	}
}

// EnsureUser returns the user bound to chatID, registering it on first use.
func (c *CachedUsers) EnsureUser(ctx context.Context, chatID int64, displayName string) (models.User, error) {
	if c.inner == nil {
		return models.User{}, errors.New("user directory is required")
	}

	now := c.now()
	c.mu.Lock()
	if entry, ok := c.users[chatID]; ok {
		if now.Before(entry.expiresAt) {
			c.mu.Unlock()
			return entry.user, nil
		}
		delete(c.users, chatID)
	}
	c.mu.Unlock()

	// The shared fetch outlives any single caller's deadline.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.calls.DoChan(strconv.FormatInt(chatID, 10), func() (any, error) {
		return c.fetch(fetchCtx, chatID, displayName)
	})

	select {
	case <-ctx.Done():
		return models.User{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.User{}, res.Err
		}
		return res.Val.(models.User), nil
	}
}

func (c *CachedUsers) fetch(ctx context.Context, chatID int64, displayName string) (models.User, error) {
	user, err := c.lookupOrRegister(ctx, chatID, displayName)
	if err != nil {
		return models.User{}, err
	}

	fetchedAt := c.now()
	c.mu.Lock()
	c.users[chatID] = cachedUser{user: user, expiresAt: fetchedAt.Add(c.ttl)}
	c.cleanupExpiredLocked(fetchedAt)
	c.mu.Unlock()
	return user, nil
}

func (c *CachedUsers) lookupOrRegister(ctx context.Context, chatID int64, displayName string) (models.User, error) {
	user, err := c.inner.GetUserByChatID(ctx, chatID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	user, err = c.inner.RegisterUser(ctx, chatID, displayName)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to register chat user: %w", err)
	}
	return user, nil
}

func (c *CachedUsers) cleanupExpiredLocked(now time.Time) {
	interval := min(c.ttl, maxUserCleanupInterval)
	if !c.lastCleanup.IsZero() && now.Sub(c.lastCleanup) < interval {
		return
	}
	for id, entry := range c.users {
		if !now.Before(entry.expiresAt) {
			delete(c.users, id)
		}
	}
	c.lastCleanup = now
}
