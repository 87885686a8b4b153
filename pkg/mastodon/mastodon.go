// Package mastodon fetches public timelines from Mastodon-compatible instances.
package mastodon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/codeGROOVE-dev/fedibridge/pkg/httpcache"
	"github.com/codeGROOVE-dev/fedibridge/pkg/post"
)

// MaxLimit is the largest page the public timeline endpoint returns.
const MaxLimit = 40

// ErrInvalidHost is returned by NormalizeHost for unusable instance names.
var ErrInvalidHost = errors.New("invalid instance host")

// Client handles Mastodon requests.
type Client struct {
	httpClient *http.Client
	cache      httpcache.Cacher
	logger     *slog.Logger
	scheme     string
}

// Option configures a Client.
type Option func(*config)

type config struct {
	cache   httpcache.Cacher
	logger  *slog.Logger
	timeout time.Duration
}

// WithHTTPCache sets the HTTP cache.
func WithHTTPCache(httpCache httpcache.Cacher) Option {
	return func(c *config) { c.cache = httpCache }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithTimeout sets the per-request HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New creates a Mastodon client.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default(), timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.timeout},
		cache:      cfg.cache,
		logger:     cfg.logger,
		scheme:     "https",
	}, nil
}

type status struct {
	Account *struct {
		Username    string `json:"username"`
		Acct        string `json:"acct"`
		DisplayName string `json:"display_name"`
	} `json:"account"`
	ID          string `json:"id"`
	CreatedAt   string `json:"created_at"`
	Content     string `json:"content"`
	SpoilerText string `json:"spoiler_text"`
	URL         string `json:"url"`
	URI         string `json:"uri"`
	Tags        []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

// FetchPublicPosts returns up to limit of host's most recent local public posts.
func (c *Client) FetchPublicPosts(ctx context.Context, host string, limit int) ([]post.Record, error) {
	if limit > MaxLimit {
		c.logger.WarnContext(ctx, "limit exceeds one timeline page, clamping", "instance", host, "requested", limit, "limit", MaxLimit)
	}
	limit = max(1, min(limit, MaxLimit))
	apiURL := fmt.Sprintf("%s://%s/api/v1/timelines/public?limit=%d&local=true", c.scheme, host, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", httpcache.UserAgent)

	c.logger.DebugContext(ctx, "fetching public timeline", "url", apiURL)
	body, err := httpcache.FetchURL(ctx, c.cache, c.httpClient, req, c.logger)
	if err != nil {
		return nil, err
	}

	return parseTimeline(body, host)
}

func parseTimeline(data []byte, host string) ([]post.Record, error) {
	var statuses []status
	if err := json.Unmarshal(data, &statuses); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}

	records := make([]post.Record, 0, len(statuses))
	for i, s := range statuses {
		created, err := time.Parse(time.RFC3339, s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("status %d (%s): bad created_at %q: %w", i, s.ID, s.CreatedAt, err)
		}

		rec := post.Record{
			ID:        s.ID,
			Instance:  host,
			Content:   s.Content,
			URL:       s.URL,
			CreatedAt: created,
		}
		if rec.URL == "" {
			rec.URL = s.URI
		}
		if s.SpoilerText != "" {
			rec.Content = "<p>" + s.SpoilerText + "</p>" + s.Content
		}
		if s.Account != nil {
			rec.AuthorHandle = s.Account.Acct
			if rec.AuthorHandle == "" {
				rec.AuthorHandle = s.Account.Username
			}
			rec.AuthorName = s.Account.DisplayName
		}
		for _, t := range s.Tags {
			rec.Tags = append(rec.Tags, t.Name)
		}
		records = append(records, rec)
	}
	return records, nil
}

// NormalizeHost reduces user input such as "https://Chaos.Social/about" or
// "mastodon.social/" to a bare lowercase host, keeping any explicit port. Flag-like
// and numeric names such as "-s" or "0.4" are rejected.
func NormalizeHost(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidHost)
	}
	raw := s
	if strings.HasPrefix(s, "-") {
		return "", fmt.Errorf("%w: %q looks like a flag; flags must come before instances", ErrInvalidHost, raw)
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	parsed, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidHost, raw, err)
	}
	if parsed.User != nil {
		return "", fmt.Errorf("%w: %q: account names are not instances", ErrInvalidHost, raw)
	}
	name := strings.ToLower(strings.TrimSuffix(parsed.Hostname(), "."))
	if err := checkHostname(name); err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidHost, raw, err)
	}
	if port := parsed.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return "", fmt.Errorf("%w: %q: bad port", ErrInvalidHost, raw)
		}
		return net.JoinHostPort(name, port), nil
	}
	if strings.Contains(name, ":") {
		return "[" + name + "]", nil
	}
	return name, nil
}

func checkHostname(name string) error {
	if name == "" {
		return errors.New("no host")
	}
	if net.ParseIP(name) != nil {
		return nil
	}
	if len(name) > 253 {
		return errors.New("name too long")
	}
	labels := strings.Split(name, ".")
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return fmt.Errorf("bad label %q", label)
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return fmt.Errorf("label %q starts or ends with a hyphen", label)
		}
		for _, r := range label {
			if r != '-' && !unicode.IsLetter(r) && !unicode.IsMark(r) && !unicode.IsDigit(r) {
				return fmt.Errorf("label %q contains %q", label, r)
			}
		}
	}
	if tld := labels[len(labels)-1]; strings.IndexFunc(tld, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return errors.New("numeric name is not a host")
	}
	return nil
}
