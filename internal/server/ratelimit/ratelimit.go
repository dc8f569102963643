// Package ratelimit limits expensive requests per client with token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	PerHour         int // Sustained requests per hour per client
	Burst           int
	Exempt          map[string]bool
	CleanupInterval time.Duration
	IdleTTL         time.Duration // Buckets unused this long are dropped
}

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		PerHour:         30,
		Burst:           3,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
	}
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter manages one token bucket per client.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a limiter and starts its cleanup goroutine when enabled.
func NewLimiter(cfg Config) *Limiter {
	if cfg.PerHour <= 0 {
		cfg.PerHour = DefaultConfig().PerHour
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultConfig().IdleTTL
	}

	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if cfg.Enabled && cfg.CleanupInterval > 0 {
		go l.cleanup(cfg.CleanupInterval)
	}
	return l
}

// Allow consumes one token for clientID if available.
func (l *Limiter) Allow(clientID string) Info {
	if !l.cfg.Enabled || l.cfg.Exempt[clientID] {
		return Info{Allowed: true}
	}

	now := l.now()
	l.mu.Lock()
	b, ok := l.buckets[clientID]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(float64(l.cfg.PerHour)/3600), l.cfg.Burst)}
		l.buckets[clientID] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	info := Info{Limit: l.cfg.PerHour}
	if b.limiter.AllowN(now, 1) {
		info.Allowed = true
		info.Remaining = int(b.limiter.TokensAt(now))
		return info
	}

	missing := 1 - b.limiter.TokensAt(now)
	info.RetryAfter = time.Duration(missing / float64(b.limiter.Limit()) * float64(time.Second))
	return info
}

// Sweep drops buckets idle for longer than IdleTTL.
func (l *Limiter) Sweep() {
	cutoff := l.now().Add(-l.cfg.IdleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, id)
		}
	}
}

// Clients returns the number of tracked clients.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-l.stop:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
