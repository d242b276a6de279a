// Package ratelimit throttles API callers with a fixed one-minute window
// per key. Keys are user ids for authenticated routes and client IPs
// otherwise.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

const window = time.Minute

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, CleanupInterval: 5 * time.Minute}
}

type Limiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	limit   int
	now     func() time.Time

	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	start time.Time
	count int
}

// NewLimiter creates a limiter. Call Start to sweep idle keys and Stop to
// end the sweeper.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	return &Limiter{
		clients:  make(map[string]*bucket),
		limit:    cfg.RequestsPerMinute,
		now:      time.Now,
		interval: cfg.CleanupInterval,
		stop:     make(chan struct{}),
	}
}

// Allow counts one request for key and reports whether it is within the
// limit. The second result is how long until the window resets.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.clients[key]
	if !ok || now.Sub(b.start) >= window {
		l.clients[key] = &bucket{start: now, count: 1}
		return true, 0
	}
	b.count++
	if b.count > l.limit {
		return false, window - now.Sub(b.start)
	}
	return true, 0
}

func (l *Limiter) Start() {
	go func() {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweep()
			case <-l.stop:
				return
			}
		}
	}()
}

// sweep forgets keys whose window ended a while ago.
func (l *Limiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-2 * window)
	removed := 0
	for k, b := range l.clients {
		if b.start.Before(cutoff) {
			delete(l.clients, k)
			removed++
		}
	}
	return removed
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Middleware rejects requests over the limit. onLimit writes the rejection;
// nil falls back to a plain 429.
func (l *Limiter) Middleware(key func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := l.Allow(key(r))
			if !ok {
				secs := int(retry.Seconds())
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
