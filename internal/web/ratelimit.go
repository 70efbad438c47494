package web

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const rateWindow = time.Minute

var errRateLimited = errors.New("rate limit exceeded")

// rateLimiter is a fixed-window request counter per client IP.
type rateLimiter struct {
	rate   int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	remaining int
	resetAt   time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		rate:     rate,
		window:   window,
		now:      time.Now,
		visitors: make(map[string]*visitor),
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup drops visitors whose window ended long ago.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := rl.now().Add(-rl.window)
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if v.resetAt.Before(cutoff) {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// allow consumes one request for ip and reports whether it fits the window.
// When it does not, it also returns how long until the window resets.
func (rl *rateLimiter) allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok || !now.Before(v.resetAt) {
		rl.visitors[ip] = &visitor{remaining: rl.rate - 1, resetAt: now.Add(rl.window)}
		return true, 0
	}
	if v.remaining <= 0 {
		return false, v.resetAt.Sub(now)
	}
	v.remaining--
	return true, 0
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		if ok, wait := rl.allow(ip); !ok {
			secs := int(wait.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			respondError(w, r, errRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
