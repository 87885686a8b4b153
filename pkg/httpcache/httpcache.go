// Package httpcache provides cached, retried, rate-limited HTTP GETs with thundering
// herd prevention.
package httpcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/codeGROOVE-dev/sfcache"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/null"
)

// UserAgent is sent with every request.
const UserAgent = "fedibridge/1.0 (+https://github.com/codeGROOVE-dev/fedibridge)"

// FetchTimeout bounds one FetchURL call including its retry.
const FetchTimeout = 10 * time.Second

// ErrorTTL bounds how long a failed response is remembered, so a transient
// outage does not outlive the run that saw it.
const ErrorTTL = time.Minute

// maxBody caps response bodies; a 40-status timeline page is well under this.
const maxBody = 8 << 20

// Stats tracks cache hit/miss statistics.
type Stats struct {
	Hits   int64
	Misses int64
}

// HitRate returns the cache hit rate as a percentage (0-100).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

var (
	hits   atomic.Int64
	misses atomic.Int64
)

// CacheStats returns the current cache statistics.
func CacheStats() Stats {
	return Stats{Hits: hits.Load(), Misses: misses.Load()}
}

// ResetStats resets the cache statistics.
func ResetStats() {
	hits.Store(0)
	misses.Store(0)
}

// Cacher allows external cache implementations.
type Cacher interface {
	GetSet(ctx context.Context, key string, fetch func(context.Context) ([]byte, error), ttl ...time.Duration) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl ...time.Duration) error
	TTL() time.Duration
	ErrorTTL() time.Duration
}

// Cache wraps sfcache for HTTP response caching.
type Cache struct {
	*sfcache.TieredCache[string, []byte]

	ttl    time.Duration
	errTTL time.Duration
}

// New creates a Cache with disk persistence under the user cache directory.
func New(ttl time.Duration) (*Cache, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return NewWithPath(ttl, filepath.Join(cacheDir, "fedibridge"))
}

// NewNull creates a Cache with no persistence.
func NewNull() *Cache {
	tc, err := sfcache.NewTiered[string, []byte](null.New[string, []byte]())
	if err != nil {
		panic("sfcache.NewTiered with null store: " + err.Error())
	}
	return &Cache{TieredCache: tc, errTTL: ErrorTTL}
}

// NewWithPath creates a Cache with disk persistence at cachePath.
func NewWithPath(ttl time.Duration, cachePath string) (*Cache, error) {
	if err := os.MkdirAll(cachePath, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	persist, err := newDiskStore("fedibridge", cachePath)
	if err != nil {
		return nil, fmt.Errorf("create persistence layer: %w", err)
	}

	tc, err := sfcache.NewTiered[string, []byte](sfcache.Store[string, []byte](persist), sfcache.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &Cache{TieredCache: tc, ttl: ttl, errTTL: ErrorTTL}, nil
}

// TTL returns the default TTL for cache entries.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// ErrorTTL returns how long failure markers are kept, never longer than TTL.
func (c *Cache) ErrorTTL() time.Duration {
	if c.ttl > 0 && c.ttl < c.errTTL {
		return c.ttl
	}
	return c.errTTL
}

// URLToKey converts a URL to a cache key using SHA256 hash.
func URLToKey(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(hash[:])
}

// HTTPError represents a non-200 response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// FetchURL fetches req with caching. When cache is non-nil, concurrent calls for
// the same URL share one request. Failures are remembered for ErrorTTL so a failing
// server is not hammered, while successful bodies live for the full TTL.
func FetchURL(ctx context.Context, cache Cacher, client *http.Client, req *http.Request, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cache == nil {
		misses.Add(1)
		return doFetch(ctx, client, req, logger)
	}

	key := URLToKey(req.URL.String())
	var wasFetched bool
	data, err := cache.GetSet(ctx, key, func(ctx context.Context) ([]byte, error) {
		wasFetched = true
		misses.Add(1)
		logger.DebugContext(ctx, "cache miss", "url", req.URL.String())
		return doFetch(ctx, client, req, logger)
	}, cache.TTL())

	if !wasFetched {
		hits.Add(1)
		logger.DebugContext(ctx, "cache hit", "url", req.URL.String())
	}
	if err != nil {
		// A cancelled caller says nothing about the server.
		if ctx.Err() == nil {
			if marker := errorMarker(err); marker != nil {
				if setErr := cache.Set(ctx, key, marker, cache.ErrorTTL()); setErr != nil {
					logger.DebugContext(ctx, "failed to cache error marker", "url", req.URL.String(), "error", setErr)
				}
			}
		}
		return nil, err
	}

	s := string(data)
	if errCode, found := strings.CutPrefix(s, "ERROR:"); found {
		code, _ := strconv.Atoi(errCode) //nolint:errcheck // 0 is acceptable default
		return nil, &HTTPError{StatusCode: code, URL: req.URL.String()}
	}
	if errMsg, found := strings.CutPrefix(s, "NETERR:"); found {
		return nil, fmt.Errorf("cached network error: %s", errMsg)
	}

	return data, nil
}

func errorMarker(err error) []byte {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Appendf(nil, "ERROR:%d", httpErr.StatusCode)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Appendf(nil, "NETERR:%s", err.Error())
}

func doFetch(ctx context.Context, client *http.Client, req *http.Request, logger *slog.Logger) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	return retry.DoWithData(
		func() ([]byte, error) {
			if err := Limiter.Wait(ctx, req.URL.String()); err != nil {
				return nil, retry.Unrecoverable(err)
			}

			resp, err := client.Do(req.WithContext(ctx))
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close() //nolint:errcheck // intentional

			if resp.StatusCode != http.StatusOK {
				return nil, &HTTPError{StatusCode: resp.StatusCode, URL: req.URL.String()}
			}

			return io.ReadAll(io.LimitReader(resp.Body, maxBody))
		},
		retry.Context(ctx),
		retry.Attempts(2),                     // single retry
		retry.Delay(200*time.Millisecond),     // delay before retry
		retry.MaxJitter(100*time.Millisecond), // small jitter
		retry.RetryIf(isRetryableError),       // only retry transient errors
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("retrying HTTP request", "attempt", n+1, "url", req.URL.String(), "error", err)
		}),
	)
}

// isRetryableError returns true for transient errors that should be retried.
func isRetryableError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false // 4xx errors (except 429) are permanent
		}
	}
	return true
}
