// Package snapshot builds read-only per-instance views of a public timeline.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/codeGROOVE-dev/fedibridge/pkg/post"
	"github.com/codeGROOVE-dev/fedibridge/pkg/topic"
)

// DefaultLimit is the number of posts requested per instance.
const DefaultLimit = 40

// DefaultWorkers bounds concurrent instance fetches in BuildAll.
const DefaultWorkers = 4

// Fetcher retrieves a bounded window of public posts from one instance.
// Implementations enforce their own timeouts.
type Fetcher interface {
	FetchPublicPosts(ctx context.Context, host string, limit int) ([]post.Record, error)
}

// FetchError reports that one instance could not be snapshotted.
type FetchError struct {
	Err      error
	Instance string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Instance, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Snapshot is the fetched timeline of one instance with its tallies.
// It is never modified after Build returns.
type Snapshot struct {
	Hashtags map[string]int // hashtag -> number of posts using it
	Accounts map[string]int // author handle -> number of posts
	Instance string
	Posts    []*post.Post // as fetched, most recent first
}

// Builder turns fetched records into snapshots.
type Builder struct {
	fetcher   Fetcher
	extractor *topic.Extractor
	logger    *slog.Logger
	limit     int
	workers   int
}

// Option configures a Builder.
type Option func(*Builder)

// WithLimit sets the per-instance fetch window.
func WithLimit(n int) Option {
	return func(b *Builder) { b.limit = n }
}

// WithExtractor sets the topic extractor applied to each post.
func WithExtractor(e *topic.Extractor) Option {
	return func(b *Builder) { b.extractor = e }
}

// WithWorkers sets how many instances BuildAll fetches at once.
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates a Builder backed by f.
func NewBuilder(f Fetcher, opts ...Option) *Builder {
	b := &Builder{
		fetcher: f,
		logger:  slog.Default(),
		limit:   DefaultLimit,
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.extractor == nil {
		b.extractor = topic.New()
	}
	if b.workers < 1 {
		b.workers = 1
	}
	return b
}

// Build fetches host's public posts and assembles a Snapshot. Transport failures and
// malformed records are returned as *FetchError. An instance with no posts yields an
// empty, valid Snapshot.
func (b *Builder) Build(ctx context.Context, host string) (*Snapshot, error) {
	b.logger.InfoContext(ctx, "fetching public timeline", "instance", host, "limit", b.limit)

	records, err := b.fetcher.FetchPublicPosts(ctx, host, b.limit)
	if err != nil {
		return nil, &FetchError{Instance: host, Err: err}
	}

	s := &Snapshot{
		Instance: host,
		Posts:    make([]*post.Post, 0, len(records)),
		Hashtags: make(map[string]int),
		Accounts: make(map[string]int),
	}
	for i := range records {
		rec := records[i]
		// Local timelines only carry this instance's posts.
		rec.Instance = host
		p, err := post.New(rec, b.extractor)
		if err != nil {
			return nil, &FetchError{Instance: host, Err: fmt.Errorf("record %d: %w", i, err)}
		}
		s.Posts = append(s.Posts, p)
		s.Accounts[p.Author]++
		for _, tag := range p.Hashtags {
			s.Hashtags[tag]++
		}
	}

	b.logger.InfoContext(ctx, "snapshot built", "instance", host,
		"posts", len(s.Posts), "hashtags", len(s.Hashtags), "accounts", len(s.Accounts))
	return s, nil
}

// BuildAll snapshots every host concurrently. Successful snapshots and failures are
// each returned in the order of hosts; one failure never cancels the others.
func (b *Builder) BuildAll(ctx context.Context, hosts []string) ([]*Snapshot, []*FetchError) {
	snaps := make([]*Snapshot, len(hosts))
	errs := make([]error, len(hosts))

	var g errgroup.Group
	g.SetLimit(b.workers)
	for i, host := range hosts {
		g.Go(func() error {
			snaps[i], errs[i] = b.Build(ctx, host)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors

	var ok []*Snapshot
	var failed []*FetchError
	for i, host := range hosts {
		if errs[i] == nil {
			ok = append(ok, snaps[i])
			continue
		}
		b.logger.WarnContext(ctx, "instance fetch failed", "instance", host, "error", errs[i])
		var fe *FetchError
		if !errors.As(errs[i], &fe) {
			fe = &FetchError{Instance: host, Err: errs[i]}
		}
		failed = append(failed, fe)
	}
	return ok, failed
}
