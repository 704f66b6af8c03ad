package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Bucket defines rate limit parameters.
type Bucket struct {
	MaxRequests int
	Window      time.Duration
}

// DefaultBuckets are the limits applied when none are configured.
var DefaultBuckets = map[string]Bucket{
	"check": {MaxRequests: 30, Window: time.Minute},
	"open":  {MaxRequests: 60, Window: time.Minute},
	"page":  {MaxRequests: 120, Window: time.Minute},
}

var fallbackBucket = Bucket{MaxRequests: 60, Window: time.Minute}

// Limiter is an in-memory sliding-window rate limiter per key.
type Limiter struct {
	mu      sync.Mutex
	hits    map[string][]time.Time
	buckets map[string]Bucket
	now     func() time.Time
}

// New creates a new rate limiter. Buckets not in overrides use DefaultBuckets.
func New(overrides map[string]Bucket) *Limiter {
	buckets := make(map[string]Bucket, len(DefaultBuckets))
	for name, b := range DefaultBuckets {
		buckets[name] = b
	}
	for name, b := range overrides {
		buckets[name] = b
	}
	return &Limiter{
		hits:    make(map[string][]time.Time),
		buckets: buckets,
		now:     time.Now,
	}
}

// Bucket returns the limits configured for name.
func (l *Limiter) Bucket(name string) Bucket {
	if b, ok := l.buckets[name]; ok {
		return b
	}
	return fallbackBucket
}

// Allow checks if a request identified by key is within the rate limit for the
// given bucket. Returns true if allowed.
func (l *Limiter) Allow(key string, bucket Bucket) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-bucket.Window)

	pruned := prune(l.hits[key], cutoff)
	if len(pruned) >= bucket.MaxRequests {
		l.hits[key] = pruned
		return false
	}

	l.hits[key] = append(pruned, now)
	return true
}

// AllowClient checks the named bucket for a client IP.
func (l *Limiter) AllowClient(bucketName, ip string) bool {
	return l.Allow(bucketName+":"+ip, l.Bucket(bucketName))
}

// Check writes an http.StatusTooManyRequests error response if the client is
// rate limited for the given bucket name. Returns true if the request was rejected.
func (l *Limiter) Check(w http.ResponseWriter, r *http.Request, bucketName string) bool {
	if l.AllowClient(bucketName, ClientIP(r)) {
		return false
	}

	retry := strconv.Itoa(int(l.Bucket(bucketName).Window.Seconds()))
	w.Header().Set("Retry-After", retry)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"Rate limited","retry_after_seconds":` + retry + `}`))
	return true
}

// CleanupLoop runs Cleanup every minute until ctx is cancelled.
func (l *Limiter) CleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// Cleanup drops keys with no hits inside the longest configured window.
func (l *Limiter) Cleanup() {
	var longest time.Duration
	for _, b := range l.buckets {
		longest = max(longest, b.Window)
	}
	longest = max(longest, fallbackBucket.Window)

	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-longest)
	for key, times := range l.hits {
		if pruned := prune(times, cutoff); len(pruned) == 0 {
			delete(l.hits, key)
		} else {
			l.hits[key] = pruned
		}
	}
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

// ClientIP returns the address a request is attributed to, without port.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func prune(times []time.Time, cutoff time.Time) []time.Time {
	pruned := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			pruned = append(pruned, t)
		}
	}
	return pruned
}
