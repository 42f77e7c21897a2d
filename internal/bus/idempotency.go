package bus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDigestConflict is raised when a (group, event_id) key that was already
// recorded with one result digest is written again with a different digest
// — spec.md §8.1 invariant 6: "once written, cannot be overwritten by a
// different result digest."
var ErrDigestConflict = errors.New("bus: idempotency key recorded with a conflicting result digest")

// IdempotencyCache is the durable KV of spec.md §4.3.2, keyed by
// (group, event_id). Writes only ever come from the Consumer; reads gate
// every delivery.
type IdempotencyCache interface {
	// Get returns the previously recorded digest for (group, eventID), and
	// whether one was found.
	Get(ctx context.Context, group, eventID string) (digest string, found bool, err error)

	// Put atomically records digest for (group, eventID) if absent. If a
	// different digest is already present, it returns ErrDigestConflict and
	// leaves the stored value untouched.
	Put(ctx context.Context, group, eventID, digest string, ttl time.Duration) error
}

// MemoryIdempotencyCache is an in-process IdempotencyCache for tests and
// for single-process deployments that accept losing the cache on restart
// (re-delivery after a restart then falls back to at-least-once with a
// cold cache, which is still within the effectively-once contract as long
// as handlers are themselves idempotent).
type MemoryIdempotencyCache struct {
	mu   sync.Mutex
	rows map[string]string
}

func NewMemoryIdempotencyCache() *MemoryIdempotencyCache {
	return &MemoryIdempotencyCache{rows: make(map[string]string)}
}

func key(group, eventID string) string { return group + "\x00" + eventID }

func (c *MemoryIdempotencyCache) Get(_ context.Context, group, eventID string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.rows[key(group, eventID)]
	return d, ok, nil
}

func (c *MemoryIdempotencyCache) Put(_ context.Context, group, eventID, digest string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(group, eventID)
	if existing, ok := c.rows[k]; ok {
		if existing != digest {
			return ErrDigestConflict
		}
		return nil
	}
	c.rows[k] = digest
	return nil
}

// SQLIdempotencyCache persists the cache in the trade-domain Postgres store
// alongside the tradestate tables (spec.md §5: "durable KV ... writes only
// from C3, atomic compare-and-set on first sight").
type SQLIdempotencyCache struct {
	db *sql.DB
}

func NewSQLIdempotencyCache(db *sql.DB) *SQLIdempotencyCache {
	return &SQLIdempotencyCache{db: db}
}

func (c *SQLIdempotencyCache) Get(ctx context.Context, group, eventID string) (string, bool, error) {
	var digest string
	err := c.db.QueryRowContext(ctx,
		`SELECT result_digest FROM bus_idempotency WHERE group_name = $1 AND event_id = $2`,
		group, eventID,
	).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency: get: %w", err)
	}
	return digest, true, nil
}

func (c *SQLIdempotencyCache) Put(ctx context.Context, group, eventID, digest string, ttl time.Duration) error {
	expires := time.Now().Add(ttl)
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO bus_idempotency (group_name, event_id, result_digest, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (group_name, event_id) DO NOTHING`,
		group, eventID, digest, expires,
	)
	if err != nil {
		return fmt.Errorf("idempotency: put: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("idempotency: put: %w", err)
	}
	if n == 1 {
		return nil // first sight, recorded.
	}
	existing, found, err := c.Get(ctx, group, eventID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("idempotency: put: row vanished after conflict")
	}
	if existing != digest {
		return ErrDigestConflict
	}
	return nil
}
