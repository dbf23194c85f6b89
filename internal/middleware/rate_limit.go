// internal/middleware/rate_limit.go
package middleware

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/catalog-api/internal/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle keeps one token bucket per caller for a named scope. Callers are
// identified by user id when authenticated and by client IP otherwise.
type Throttle struct {
	scope    string
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
	idle     time.Duration
	stop     chan struct{}
}

// ParseRate reads rates such as "100/minute", "5/second" or "1000/day".
func ParseRate(s string) (rate.Limit, int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, 0, fmt.Errorf("invalid rate %q", s)
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil || n < 1 {
		return 0, 0, fmt.Errorf("invalid rate %q", s)
	}

	var period time.Duration
	switch strings.ToLower(parts[1])[:1] {
	case "s":
		period = time.Second
	case "m":
		period = time.Minute
	case "h":
		period = time.Hour
	case "d":
		period = 24 * time.Hour
	default:
		return 0, 0, fmt.Errorf("invalid rate period %q", s)
	}
	return rate.Limit(float64(n) / period.Seconds()), n, nil
}

func NewThrottle(scope, limit string) (*Throttle, error) {
	r, burst, err := ParseRate(limit)
	if err != nil {
		return nil, fmt.Errorf("throttle %s: %w", scope, err)
	}

	// A bucket refills completely within burst/r; idle visitors past that
	// are indistinguishable from new ones.
	idle := time.Duration(float64(burst)/float64(r)*float64(time.Second)) + time.Minute

	t := &Throttle{
		scope:    scope,
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    burst,
		idle:     idle,
		stop:     make(chan struct{}),
	}
	go t.cleanupVisitors()
	return t, nil
}

func (t *Throttle) Close() {
	close(t.stop)
}

func (t *Throttle) cleanupVisitors() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.mtx.Lock()
			for key, v := range t.visitors {
				if time.Since(v.lastSeen) > t.idle {
					delete(t.visitors, key)
				}
			}
			t.mtx.Unlock()
		}
	}
}

func (t *Throttle) getVisitor(key string) *rate.Limiter {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	v, exists := t.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(t.rate, t.burst)
		t.visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func visitorKey(c *gin.Context) string {
	if caller, ok := utils.GetCallerFromContext(c); ok {
		return "user:" + strconv.FormatUint(uint64(caller.ID), 10)
	}
	return "ip:" + c.ClientIP()
}

func (t *Throttle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := t.getVisitor(visitorKey(c))

		res := limiter.Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			wait := int(math.Ceil(delay.Seconds()))
			utils.HandleError(c, utils.NewThrottledError(wait))
			c.Abort()
			return
		}

		c.Next()
	}
}
