package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/frahmantamala/visitor-management/internal"
)

var (
	ErrStore      = errors.New("permission: store query failed")
	ErrInvalidate = errors.New("permission: cache invalidation failed")
)

// Store is the authoritative source of role grants.
type Store interface {
	PermissionsForRole(ctx context.Context, roleID int64) ([]string, error)
}

type ResolverConfig struct {
	// TTL of cache entries written back after a miss.
	TTL time.Duration
	// CacheTimeout bounds every cache round trip; a timeout counts as a miss.
	CacheTimeout time.Duration
	// StoreTimeout bounds the store query of a shared load.
	StoreTimeout time.Duration
}

// Resolver maps a role to its permission set, cache-aside over Store.
//
// Concurrent resolutions of the same role share one load. The shared load
// runs on a context detached from its callers, and every caller waits on its
// own context, so a caller that goes away never fails the others.
type Resolver struct {
	store   Store
	cache   Cache
	cfg     ResolverConfig
	logger  *slog.Logger
	metrics *Metrics

	group singleflight.Group

	mu   sync.Mutex
	gens map[int64]uint64
}

func NewResolver(store Store, cache Cache, cfg ResolverConfig, logger *slog.Logger, metrics *Metrics) *Resolver {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.CacheTimeout <= 0 {
		cfg.CacheTimeout = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:   store,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		gens:    make(map[int64]uint64),
	}
}

// Resolve returns the complete permission set of roleID.
func (r *Resolver) Resolve(ctx context.Context, roleID int64) (Set, error) {
	gen := r.generation(roleID)
	key := strconv.FormatInt(roleID, 10) + ":" + strconv.FormatUint(gen, 10)
	loadCtx := context.WithoutCancel(ctx)

	ch := r.group.DoChan(key, func() (interface{}, error) {
		return r.load(loadCtx, roleID, gen)
	})

	select {
	case <-ctx.Done():
		return Set{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Set{}, res.Err
		}
		return res.Val.(Set), nil
	}
}

// Invalidate drops the cached entry of roleID. Loads that started before the
// call will neither be joined by later callers nor write their result back.
func (r *Resolver) Invalidate(ctx context.Context, roleID int64) error {
	r.bump(roleID)
	r.metrics.observeInvalidation()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.CacheTimeout)
	defer cancel()

	if err := r.cache.Delete(ctx, roleID); err != nil {
		return fmt.Errorf("%w: role %d: %v", ErrInvalidate, roleID, err)
	}
	return nil
}

func (r *Resolver) load(ctx context.Context, roleID int64, gen uint64) (Set, error) {
	res := r.lookup(ctx, roleID)
	r.metrics.observeLookup(res.Status)

	switch res.Status {
	case CacheHit:
		return res.Set, nil
	case CacheFault:
		r.logger.WarnContext(ctx, "permission cache unavailable, falling back to store",
			"role_id", roleID, "error", res.Err)
	}

	storeCtx, cancel := internal.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	perms, err := r.store.PermissionsForRole(storeCtx, roleID)
	if err != nil {
		r.metrics.observeStoreError()
		r.logger.ErrorContext(ctx, "failed to load role permissions", "role_id", roleID, "error", err)
		return Set{}, fmt.Errorf("%w: role %d: %v", ErrStore, roleID, err)
	}
	set := NewSet(perms)

	r.writeBack(ctx, roleID, gen, set)
	return set, nil
}

func (r *Resolver) lookup(ctx context.Context, roleID int64) CacheResult {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.CacheTimeout)
	defer cancel()
	return r.cache.Get(ctx, roleID)
}

func (r *Resolver) writeBack(ctx context.Context, roleID int64, gen uint64, set Set) {
	if r.generation(roleID) != gen {
		return
	}

	cacheCtx, cancel := context.WithTimeout(ctx, r.cfg.CacheTimeout)
	defer cancel()

	if err := r.cache.Set(cacheCtx, roleID, set.Strings(), r.cfg.TTL); err != nil {
		r.logger.WarnContext(ctx, "failed to cache role permissions", "role_id", roleID, "error", err)
		return
	}

	// An invalidation may have landed between the check above and the write.
	if r.generation(roleID) != gen {
		if err := r.cache.Delete(cacheCtx, roleID); err != nil {
			r.logger.WarnContext(ctx, "failed to drop superseded permission entry", "role_id", roleID, "error", err)
		}
	}
}

func (r *Resolver) generation(roleID int64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gens[roleID]
}

func (r *Resolver) bump(roleID int64) {
	r.mu.Lock()
	r.gens[roleID]++
	r.mu.Unlock()
}
