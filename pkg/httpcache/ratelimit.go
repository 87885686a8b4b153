package httpcache

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// Limiter spaces out requests to the same host. Each instance is fetched once per
// run, so this only matters for retries and repeated runs in one process.
var Limiter = NewDomainRateLimiter(500 * time.Millisecond)

// DomainRateLimiter enforces a minimum delay between requests to the same domain.
// It is safe for concurrent use.
type DomainRateLimiter struct {
	overrides   map[string]time.Duration
	lastRequest map[string]time.Time
	locks       map[string]*sync.Mutex
	mu          sync.Mutex
	minDelay    time.Duration
}

// NewDomainRateLimiter creates a rate limiter enforcing minDelay per domain.
func NewDomainRateLimiter(minDelay time.Duration) *DomainRateLimiter {
	return &DomainRateLimiter{
		minDelay:    minDelay,
		overrides:   make(map[string]time.Duration),
		lastRequest: make(map[string]time.Time),
		locks:       make(map[string]*sync.Mutex),
	}
}

// SetDomainDelay overrides the minimum delay for one domain.
func (r *DomainRateLimiter) SetDomainDelay(domain string, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[domain] = delay
}

// Wait blocks until a request to rawURL's domain is allowed or ctx is done.
func (r *DomainRateLimiter) Wait(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil //nolint:nilerr // unparseable URLs are not rate limited
	}
	domain := u.Host

	r.mu.Lock()
	lock, ok := r.locks[domain]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[domain] = lock
	}
	delay := r.minDelay
	if d, ok := r.overrides[domain]; ok {
		delay = d
	}
	r.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	last, seen := r.lastRequest[domain]
	r.mu.Unlock()

	if seen {
		if wait := delay - time.Since(last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	r.mu.Lock()
	r.lastRequest[domain] = time.Now()
	r.mu.Unlock()
	return nil
}
