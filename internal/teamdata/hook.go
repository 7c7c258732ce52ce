// Package teamdata is the data-access layer for team-scoped entities:
// cached team lists, mutations that invalidate the cache, and
// success/failure notifications for every mutation.
package teamdata

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Store is the persistence surface a Hook needs. Implemented by
// *storage.Collection.
type Store[T any] interface {
	List(teamID string) ([]T, error)
	Create(v T) (T, error)
	Update(id string, patch map[string]any) (T, error)
	SoftDelete(id string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

const defaultTTL = 60 * time.Second

type config struct {
	notifier Notifier
	clock    Clock
	ttl      time.Duration
}

// Option customises a Hook.
type Option func(*config)

// WithNotifier sets where mutation outcomes are reported.
func WithNotifier(n Notifier) Option { return func(c *config) { c.notifier = n } }

// WithClock replaces the clock used for cache expiry.
func WithClock(clk Clock) Option { return func(c *config) { c.clock = clk } }

// WithTTL sets how long a team list stays cached. Zero disables caching.
func WithTTL(d time.Duration) Option { return func(c *config) { c.ttl = d } }

type cacheEntry[T any] struct {
	items    []T
	cachedAt time.Time
}

// Hook provides cached list and notified mutations for one entity.
type Hook[T any] struct {
	entity   string
	store    Store[T]
	notifier Notifier
	clock    Clock
	ttl      time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry[T]
}

// NewHook creates a Hook for entity (used in notifications) backed by store.
func NewHook[T any](entity string, store Store[T], opts ...Option) *Hook[T] {
	cfg := config{notifier: NewLogNotifier(nil), clock: realClock{}, ttl: defaultTTL}
	for _, o := range opts {
		o(&cfg)
	}
	return &Hook[T]{
		entity:   entity,
		store:    store,
		notifier: cfg.notifier,
		clock:    cfg.clock,
		ttl:      cfg.ttl,
		cache:    make(map[string]cacheEntry[T]),
	}
}

// Entity returns the entity name of the hook.
func (h *Hook[T]) Entity() string { return h.entity }

// List returns the team's visible rows, newest first. An empty teamID
// returns an empty list without querying the store.
func (h *Hook[T]) List(ctx context.Context, teamID string) ([]T, error) {
	if strings.TrimSpace(teamID) == "" {
		return []T{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Fast path: read lock for cache hit.
	h.mu.RLock()
	if e, ok := h.cache[teamID]; ok && h.fresh(e) {
		items := copyItems(e.items)
		h.mu.RUnlock()
		return items, nil
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()

	// Double-check after acquiring write lock.
	if e, ok := h.cache[teamID]; ok && h.fresh(e) {
		return copyItems(e.items), nil
	}

	items, err := h.store.List(teamID)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", h.entity, err)
	}
	if h.ttl > 0 {
		h.cache[teamID] = cacheEntry[T]{items: items, cachedAt: h.clock.Now()}
	}
	return copyItems(items), nil
}

// Create inserts v. There is no retry on failure.
func (h *Hook[T]) Create(ctx context.Context, v T) (T, error) {
	created, err := h.store.Create(v)
	h.settle(ctx, OpCreate, "", err)
	if err != nil {
		var zero T
		return zero, err
	}
	return created, nil
}

// Update applies a partial update by primary key.
func (h *Hook[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	updated, err := h.store.Update(id, patch)
	h.settle(ctx, OpUpdate, id, err)
	if err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

// SoftDelete hides a row by flipping its active/archived flag.
func (h *Hook[T]) SoftDelete(ctx context.Context, id string) error {
	err := h.store.SoftDelete(id)
	h.settle(ctx, OpDelete, id, err)
	return err
}

// Invalidate drops every cached team list.
func (h *Hook[T]) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.cache)
}

// settle reports a mutation outcome and invalidates the cache on success.
func (h *Hook[T]) settle(ctx context.Context, op Op, id string, err error) {
	ev := Event{Entity: h.entity, Op: op, ID: id}
	if err != nil {
		h.notifier.Failure(ctx, ev, err)
		return
	}
	h.Invalidate()
	h.notifier.Success(ctx, ev)
}

func (h *Hook[T]) fresh(e cacheEntry[T]) bool {
	return h.clock.Now().Before(e.cachedAt.Add(h.ttl))
}

func copyItems[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}
