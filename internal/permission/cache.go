package permission

import (
	"context"
	"strconv"
	"time"
)

type CacheStatus int

const (
	CacheMiss CacheStatus = iota
	CacheHit
	CacheFault
)

func (s CacheStatus) String() string {
	switch s {
	case CacheHit:
		return "hit"
	case CacheFault:
		return "fault"
	default:
		return "miss"
	}
}

// CacheResult is the outcome of a cache lookup. Set is only meaningful on a
// hit and Err only on a fault.
type CacheResult struct {
	Status CacheStatus
	Set    Set
	Err    error
}

func Hit(set Set) CacheResult {
	return CacheResult{Status: CacheHit, Set: set}
}

func Miss() CacheResult {
	return CacheResult{Status: CacheMiss}
}

func Fault(err error) CacheResult {
	return CacheResult{Status: CacheFault, Err: err}
}

// Cache stores materialised permission sets per role. Implementations must
// be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, roleID int64) CacheResult
	Set(ctx context.Context, roleID int64, permissions []string, ttl time.Duration) error
	Delete(ctx context.Context, roleID int64) error
}

const keyPrefix = "permissions:role:"

func CacheKey(roleID int64) string {
	return keyPrefix + strconv.FormatInt(roleID, 10)
}
