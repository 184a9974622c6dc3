package devserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const writerIdleTimeout = 10 * time.Minute

type writer struct {
	bucket *rate.Limiter
	seen   time.Time
}

// WriteLimiter throttles write requests per client IP. Idle clients are
// swept on access, at most once per idle timeout.
type WriteLimiter struct {
	mu      sync.Mutex
	writers map[string]*writer
	limit   rate.Limit
	burst   int
	now     func() time.Time
	swept   time.Time
}

// NewWriteLimiter allows perSecond writes per client with the given burst.
func NewWriteLimiter(perSecond rate.Limit, burst int) *WriteLimiter {
	return &WriteLimiter{
		writers: make(map[string]*writer),
		limit:   perSecond,
		burst:   burst,
		now:     time.Now,
	}
}

func (l *WriteLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.swept) > writerIdleTimeout {
		for k, w := range l.writers {
			if now.Sub(w.seen) > writerIdleTimeout {
				delete(l.writers, k)
			}
		}
		l.swept = now
	}

	w, ok := l.writers[ip]
	if !ok {
		w = &writer{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.writers[ip] = w
	}
	w.seen = now
	return w.bucket.AllowN(now, 1)
}

// Limit answers 429 once a client exceeds its write budget. The client is
// identified by RemoteAddr, which chi's RealIP middleware has already
// resolved from forwarding headers.
func (l *WriteLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.allow(ip) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
