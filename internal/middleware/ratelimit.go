package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultRateLimit requests per key per DefaultRateWindow.
	DefaultRateLimit  = 100
	DefaultRateWindow = 15 * time.Minute
)

// window holds the admitted request times of one key, in append order. Concurrent
// requests may append out of time order, so nothing here assumes the times are sorted.
type window struct {
	mu    sync.Mutex
	times []time.Time
	dead  bool // removed from the limiter by Sweep
}

// prune drops every time that is no longer within d of now. Caller holds w.mu.
func (w *window) prune(now time.Time, d time.Duration) {
	kept := w.times[:0]
	for _, t := range w.times {
		if now.Sub(t) < d {
			kept = append(kept, t)
		}
	}
	w.times = kept
}

// retryAfter is how long until the oldest time leaves the window. Caller holds w.mu.
func (w *window) retryAfter(now time.Time, d time.Duration) time.Duration {
	if len(w.times) == 0 {
		return 0
	}
	oldest := w.times[0]
	for _, t := range w.times[1:] {
		if t.Before(oldest) {
			oldest = t
		}
	}
	return oldest.Add(d).Sub(now)
}

// SlidingWindowLimiter admits at most limit requests per key within any trailing window.
type SlidingWindowLimiter struct {
	mu      sync.RWMutex
	windows map[string]*window
	limit   int
	window  time.Duration

	// Now defaults to time.Now; OnReject, if set, is called for every rejected request.
	Now      func() time.Time
	OnReject func()
}

func NewSlidingWindowLimiter(limit int, d time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		window:  d,
		Now:     time.Now,
	}
}

func (l *SlidingWindowLimiter) getWindow(key string) *window {
	l.mu.RLock()
	w, exists := l.windows[key]
	l.mu.RUnlock()

	if exists {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// double-check setelah dapat write lock
	if w, exists := l.windows[key]; exists {
		return w
	}
	w = &window{}
	l.windows[key] = w
	return w
}

// Check prunes key's window and admits the request if fewer than limit times remain,
// recording now. The decision and the append happen under the same lock.
func (l *SlidingWindowLimiter) Check(key string, now time.Time) bool {
	ok, _ := l.Allow(key, now)
	return ok
}

// Allow is Check that also reports, on rejection, how long until a slot frees up.
func (l *SlidingWindowLimiter) Allow(key string, now time.Time) (bool, time.Duration) {
	for {
		w := l.getWindow(key)
		w.mu.Lock()
		if w.dead {
			// Sweep won the race; the key gets a fresh window.
			w.mu.Unlock()
			continue
		}
		w.prune(now, l.window)
		if len(w.times) >= l.limit {
			wait := w.retryAfter(now, l.window)
			w.mu.Unlock()
			return false, wait
		}
		w.times = append(w.times, now)
		w.mu.Unlock()
		return true, 0
	}
}

// Sweep removes keys with no request inside the window and returns how many were dropped.
func (l *SlidingWindowLimiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, w := range l.windows {
		w.mu.Lock()
		w.prune(now, l.window)
		if len(w.times) == 0 {
			w.dead = true
			delete(l.windows, key)
			n++
		}
		w.mu.Unlock()
	}
	return n
}

// Len reports the number of tracked keys.
func (l *SlidingWindowLimiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (l *SlidingWindowLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(l.Now())
		}
	}
}

// Middleware rejects requests over the limit with 429 before they reach next.
// The client key is the remote IP; run chi's RealIP first when behind a proxy.
func (l *SlidingWindowLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.Allow(ClientKey(r), l.Now())
		if !ok {
			if l.OnReject != nil {
				l.OnReject()
			}
			w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(wait)))
			WriteJSONError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retrySeconds rounds wait up to whole seconds, at least 1.
func retrySeconds(wait time.Duration) int {
	secs := int((wait + time.Second - 1) / time.Second)
	return max(secs, 1)
}

// ClientKey returns the host part of r.RemoteAddr.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
