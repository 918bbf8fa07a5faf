package policy

import (
	"context"
	"log"
	"sync"
	"time"
)

// RateLimitConfig mirrors the two fixed windows from
// original_source/backend/ai/search/policy.py: a daily cap and a
// per-minute cap, each reset when wall-clock passes its window boundary.
type RateLimitConfig struct {
	MaxPerDay    int
	MaxPerMinute int
}

// DistributedCounter is the narrow interface the rate limiter uses for an
// optional Redis-backed counter, so a single-instance deployment can run
// entirely in-process. Satisfied by storage.RedisAdapter.
type DistributedCounter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Peek(ctx context.Context, key string) (int64, error)
}

type userWindows struct {
	dailyCount   int
	dailyReset   time.Time
	minuteCount  int
	minuteReset  time.Time
}

// RateLimiter enforces the per-user daily and per-minute search caps
// (spec.md §4.3), grounded on internal/middleware.RateLimiter's
// read-first/write-fallback locking, generalized from one window to two.
type RateLimiter struct {
	mu      sync.RWMutex
	windows map[string]*userWindows
	cfg     RateLimitConfig
	counter DistributedCounter // optional; nil means in-process only
	logger  *log.Logger
}

// NewRateLimiter builds a limiter. counter may be nil to run purely
// in-process (spec.md §7 StorageUnavailable: the service degrades to
// per-instance limiting rather than failing requests).
func NewRateLimiter(cfg RateLimitConfig, counter DistributedCounter) *RateLimiter {
	if cfg.MaxPerDay == 0 {
		cfg.MaxPerDay = 50
	}
	if cfg.MaxPerMinute == 0 {
		cfg.MaxPerMinute = 5
	}
	rl := &RateLimiter{
		windows: make(map[string]*userWindows),
		cfg:     cfg,
		counter: counter,
		logger:  log.New(log.Writer(), "[POLICY-RATE] ", log.LstdFlags),
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether userID may issue another search right now. It is
// read-only: it resets expired windows but never advances the occupancy
// count, so callers can check quota (spec.md:280: cache hits and denied
// requests leave counters untouched) without consuming it. Call Increment
// after a successful external retrieval.
func (rl *RateLimiter) Allow(ctx context.Context, userID string) bool {
	now := time.Now()

	rl.mu.RLock()
	uw, exists := rl.windows[userID]
	if exists && now.Before(uw.dailyReset) && now.Before(uw.minuteReset) {
		ok := uw.dailyCount < rl.cfg.MaxPerDay && uw.minuteCount < rl.cfg.MaxPerMinute
		rl.mu.RUnlock()
		return ok
	}
	rl.mu.RUnlock()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.checkLocked(userID, now)
}

// checkLocked must be called with rl.mu held for writing. It resets
// expired windows (idempotent) and reports current occupancy against the
// configured caps, without incrementing either counter.
func (rl *RateLimiter) checkLocked(userID string, now time.Time) bool {
	uw, exists := rl.windows[userID]
	if !exists {
		uw = &userWindows{
			dailyReset:  now.Add(24 * time.Hour),
			minuteReset: now.Add(time.Minute),
		}
		rl.windows[userID] = uw
	}
	if !now.Before(uw.dailyReset) {
		uw.dailyCount = 0
		uw.dailyReset = now.Add(24 * time.Hour)
	}
	if !now.Before(uw.minuteReset) {
		uw.minuteCount = 0
		uw.minuteReset = now.Add(time.Minute)
	}

	if uw.dailyCount >= rl.cfg.MaxPerDay {
		rl.logger.Printf("⚠️ daily search limit reached: user=%s count=%d limit=%d", userID, uw.dailyCount, rl.cfg.MaxPerDay)
		return false
	}
	if uw.minuteCount >= rl.cfg.MaxPerMinute {
		rl.logger.Printf("🚫 per-minute search limit reached: user=%s count=%d limit=%d", userID, uw.minuteCount, rl.cfg.MaxPerMinute)
		return false
	}
	return true
}

// Increment records one external search against userID's quota. Call
// only after a successful external retrieval (spec.md:219); cache hits
// and policy-denied requests must never call this.
func (rl *RateLimiter) Increment(ctx context.Context, userID string) {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.checkLocked(userID, now) // ensures the window exists and is fresh
	uw := rl.windows[userID]
	uw.dailyCount++
	uw.minuteCount++
}

// AllowDistributed mirrors Allow but peeks a Redis-backed counter first
// when one is configured, so limits hold across multiple instances. It
// falls back to the in-process windows on any Redis error. It never
// increments the distributed counter.
func (rl *RateLimiter) AllowDistributed(ctx context.Context, userID string) bool {
	if rl.counter == nil {
		return rl.Allow(ctx, userID)
	}

	dayKey := "dssearch:ratelimit:day:" + userID
	minKey := "dssearch:ratelimit:min:" + userID

	dayCount, err := rl.counter.Peek(ctx, dayKey)
	if err != nil {
		rl.logger.Printf("redis counter unavailable, falling back to in-process: %v", err)
		return rl.Allow(ctx, userID)
	}
	minCount, err := rl.counter.Peek(ctx, minKey)
	if err != nil {
		rl.logger.Printf("redis counter unavailable, falling back to in-process: %v", err)
		return rl.Allow(ctx, userID)
	}

	if dayCount >= int64(rl.cfg.MaxPerDay) {
		rl.logger.Printf("⚠️ daily search limit reached (distributed): user=%s count=%d", userID, dayCount)
		return false
	}
	if minCount >= int64(rl.cfg.MaxPerMinute) {
		rl.logger.Printf("🚫 per-minute search limit reached (distributed): user=%s count=%d", userID, minCount)
		return false
	}
	return true
}

// IncrementDistributed records one external search against userID's quota
// in the distributed counter when configured, falling back to the
// in-process window otherwise. Call only after a successful external
// retrieval, mirroring Increment.
func (rl *RateLimiter) IncrementDistributed(ctx context.Context, userID string) {
	if rl.counter == nil {
		rl.Increment(ctx, userID)
		return
	}

	dayKey := "dssearch:ratelimit:day:" + userID
	minKey := "dssearch:ratelimit:min:" + userID

	if _, err := rl.counter.Incr(ctx, dayKey, 24*time.Hour); err != nil {
		rl.logger.Printf("redis counter unavailable, falling back to in-process: %v", err)
		rl.Increment(ctx, userID)
		return
	}
	if _, err := rl.counter.Incr(ctx, minKey, time.Minute); err != nil {
		rl.logger.Printf("redis counter unavailable, falling back to in-process: %v", err)
	}
}

// Stats reports current limiter occupancy for the admin status operation.
func (rl *RateLimiter) Stats() map[string]any {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return map[string]any{
		"active_users":   len(rl.windows),
		"max_per_day":    rl.cfg.MaxPerDay,
		"max_per_minute": rl.cfg.MaxPerMinute,
		"distributed":    rl.counter != nil,
	}
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, uw := range rl.windows {
			if now.After(uw.dailyReset.Add(time.Hour)) {
				delete(rl.windows, key)
			}
		}
		rl.mu.Unlock()
	}
}
