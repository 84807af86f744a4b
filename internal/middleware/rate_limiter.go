package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const purgeInterval = 5 * time.Minute

// rateEntry tracks request counts per IP within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

type rateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	entries map[string]*rateEntry
}

// RateLimiter allows limit requests per window per client IP. Expired entries are
// purged in the background until the process exits.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	rl := &rateLimiter{limit: limit, window: window, entries: make(map[string]*rateEntry)}
	go rl.purgeLoop()
	return rl.handle
}

func (rl *rateLimiter) handle(c *gin.Context) {
	ip := c.ClientIP()

	rl.mu.Lock()
	entry, exists := rl.entries[ip]
	if !exists {
		entry = &rateEntry{}
		rl.entries[ip] = entry
	}
	rl.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	if now.After(entry.windowEnd) {
		entry.count = 0
		entry.windowEnd = now.Add(rl.window)
	}

	entry.count++
	if entry.count > rl.limit {
		c.Header("Retry-After", entry.windowEnd.Format(time.RFC1123))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Too many requests, try again shortly"))
		return
	}
	c.Next()
}

func (rl *rateLimiter) purgeLoop() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for range ticker.C {
		rl.purge(time.Now())
	}
}

func (rl *rateLimiter) purge(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	purged := 0
	for ip, entry := range rl.entries {
		entry.mu.Lock()
		if now.After(entry.windowEnd) {
			delete(rl.entries, ip)
			purged++
		}
		entry.mu.Unlock()
	}
	if purged > 0 {
		log.Debug().Int("purged", purged).Int("remaining", len(rl.entries)).Msg("rate limiter entries purged")
	}
	return purged
}
