package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

// tokenBucket implements a token bucket rate limiter. It backs both the
// per-IP HTTP limiter and the per-client WebSocket message limit.
type tokenBucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

func newTokenBucket(capacity, refillRate float64, now func() time.Time) *tokenBucket {
	if now == nil {
		now = time.Now
	}
	return &tokenBucket{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: refillRate,
		lastRefill: now(),
		now:        now,
	}
}

// refill must be called with mu held.
func (tb *tokenBucket) refill() time.Time {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now
	return now
}

// allow takes a token if one is available.
func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens--
		return true
	}
	return false
}

// state returns the tokens left and when the bucket will be full again.
func (tb *tokenBucket) state() (remaining int, full time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.refill()
	if tb.tokens >= tb.capacity || tb.refillRate <= 0 {
		return int(tb.tokens), now
	}
	secondsUntilFull := (tb.capacity - tb.tokens) / tb.refillRate
	return int(tb.tokens), now.Add(time.Duration(secondsUntilFull * float64(time.Second)))
}

func (tb *tokenBucket) idleSince() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastRefill
}

// RateLimiter manages per-IP rate limiting.
type RateLimiter struct {
	buckets    map[string]*tokenBucket
	config     RateLimiterConfig
	mu         sync.RWMutex
	cleanupTTL time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop. Call
// Stop to end the loop.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.BurstSize <= 0 {
		config.BurstSize = 10
	}
	rl := &RateLimiter{
		buckets:    make(map[string]*tokenBucket),
		config:     config,
		cleanupTTL: 5 * time.Minute,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) getBucket(ip string) *tokenBucket {
	rl.mu.RLock()
	bucket, exists := rl.buckets[ip]
	rl.mu.RUnlock()
	if exists {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if bucket, exists := rl.buckets[ip]; exists {
		return bucket
	}
	refillRate := float64(rl.config.RequestsPerMinute) / 60.0
	bucket = newTokenBucket(float64(rl.config.BurstSize), refillRate, rl.now)
	rl.buckets[ip] = bucket
	return bucket
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup removes buckets idle for longer than the TTL.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, bucket := range rl.buckets {
		if now.Sub(bucket.idleSince()) > rl.cleanupTTL {
			delete(rl.buckets, ip)
		}
	}
}

// Allow checks if a request from the given IP should be allowed.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.getBucket(ip).allow()
}

// Middleware returns an HTTP middleware that applies rate limiting.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket := rl.getBucket(getClientIP(r))
		allowed := bucket.allow()
		remaining, reset := bucket.state()

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.RequestsPerMinute))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			retryAfter := int(reset.Sub(rl.now()).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			respondError(w, r, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
				"Rate limit exceeded. Try again in "+strconv.Itoa(retryAfter)+" seconds.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP address from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
// Header values that are not IP addresses are ignored.
func getClientIP(r *http.Request) string {
	// Format: X-Forwarded-For: client, proxy1, proxy2
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		clientIP, _, _ := strings.Cut(forwarded, ",")
		clientIP = strings.TrimSpace(clientIP)
		if isValidIP(clientIP) {
			return clientIP
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); isValidIP(realIP) {
		return realIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if isValidIP(ip) {
		return ip
	}
	return "unknown"
}

func isValidIP(ipStr string) bool {
	return net.ParseIP(ipStr) != nil
}
