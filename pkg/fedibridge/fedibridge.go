// Package fedibridge discovers thematic bridges between the public timelines of
// federated instances.
//
// Basic usage:
//
//	client, _ := mastodon.New(ctx)
//	d, err := fedibridge.Run(ctx, fedibridge.Config{
//	    Instances: []string{"mastodon.social", "chaos.social"},
//	}.WithDefaults(), client)
//	if err != nil {
//	    log.Fatal(err) // invalid configuration
//	}
//	for _, b := range d.Bridges {
//	    fmt.Println(b.Similarity, b.SharedTags)
//	}
package fedibridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/codeGROOVE-dev/fedibridge/pkg/bridge"
	"github.com/codeGROOVE-dev/fedibridge/pkg/digest"
	"github.com/codeGROOVE-dev/fedibridge/pkg/mastodon"
	"github.com/codeGROOVE-dev/fedibridge/pkg/snapshot"
	"github.com/codeGROOVE-dev/fedibridge/pkg/topic"
)

// MaxFetchLimit caps the per-instance window at one timeline page. Bridge finding
// is quadratic in it.
const MaxFetchLimit = mastodon.MaxLimit

// ErrInvalidConfig is wrapped by every configuration error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the parameters of one run. Values are copied, never shared.
type Config struct {
	Instances     []string
	Stopwords     []string // nil selects topic.DefaultStopwords
	MinSimilarity float64
	MaxResults    int
	FetchLimit    int
	TopN          int
	Stats         bool
}

// DefaultConfig returns a Config with every default applied and no instances.
func DefaultConfig() Config {
	return Config{
		MinSimilarity: bridge.DefaultMinSimilarity,
		MaxResults:    bridge.DefaultMaxResults,
		FetchLimit:    snapshot.DefaultLimit,
		TopN:          digest.DefaultTopN,
	}
}

// WithDefaults fills zero-valued numeric fields. MinSimilarity is left alone since
// zero is a meaningful threshold.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.MaxResults == 0 {
		c.MaxResults = d.MaxResults
	}
	if c.FetchLimit == 0 {
		c.FetchLimit = d.FetchLimit
	}
	if c.TopN == 0 {
		c.TopN = d.TopN
	}
	return c
}

// Validate checks c and returns a copy with instance names normalized and
// deduplicated, keeping first-seen order.
func (c Config) Validate() (Config, error) {
	switch {
	case c.MinSimilarity < 0 || c.MinSimilarity > 1 || math.IsNaN(c.MinSimilarity):
		return c, fmt.Errorf("%w: min similarity %v must be within [0, 1]", ErrInvalidConfig, c.MinSimilarity)
	case c.MaxResults <= 0:
		return c, fmt.Errorf("%w: max results %d must be positive", ErrInvalidConfig, c.MaxResults)
	case c.FetchLimit <= 0 || c.FetchLimit > MaxFetchLimit:
		return c, fmt.Errorf("%w: fetch limit %d must be within 1..%d", ErrInvalidConfig, c.FetchLimit, MaxFetchLimit)
	case c.TopN <= 0:
		return c, fmt.Errorf("%w: top-N %d must be positive", ErrInvalidConfig, c.TopN)
	}

	seen := make(map[string]bool, len(c.Instances))
	hosts := make([]string, 0, len(c.Instances))
	for _, in := range c.Instances {
		host, err := mastodon.NormalizeHost(in)
		if err != nil {
			return c, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if seen[host] {
			continue
		}
		seen[host] = true
		hosts = append(hosts, host)
	}
	if len(hosts) < 2 {
		return c, fmt.Errorf("%w: need at least 2 distinct instances, got %d", ErrInvalidConfig, len(hosts))
	}

	c.Instances = hosts
	if c.Stopwords != nil {
		c.Stopwords = append([]string(nil), c.Stopwords...)
	}
	return c, nil
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
	now    func() time.Time
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) { c.logger = logger }
}

// WithClock sets the time source used for Digest.GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(c *runConfig) { c.now = now }
}

// Run validates cfg, snapshots every instance through f, finds bridges among the
// instances that succeeded and aggregates the digest. Instances that failed are
// listed in Digest.Failed; the only error Run returns wraps ErrInvalidConfig.
func Run(ctx context.Context, cfg Config, f snapshot.Fetcher, opts ...Option) (*digest.Digest, error) {
	rc := &runConfig{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(rc)
	}

	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	var exOpts []topic.Option
	if cfg.Stopwords != nil {
		exOpts = append(exOpts, topic.WithStopwords(cfg.Stopwords))
	}
	builder := snapshot.NewBuilder(f,
		snapshot.WithLimit(cfg.FetchLimit),
		snapshot.WithExtractor(topic.New(exOpts...)),
		snapshot.WithLogger(rc.logger),
	)

	snaps, failed := builder.BuildAll(ctx, cfg.Instances)
	if len(snaps) < 2 {
		rc.logger.WarnContext(ctx, "not enough instances for bridging", "succeeded", len(snaps), "failed", len(failed))
	}

	res := bridge.FindAll(snaps, bridge.Options{MinSimilarity: cfg.MinSimilarity, MaxResults: cfg.MaxResults})
	rc.logger.InfoContext(ctx, "bridges found", "total", res.Total, "kept", len(res.Bridges))

	return digest.Aggregate(digest.Input{
		GeneratedAt: rc.now().UTC(),
		Instances:   cfg.Instances,
		Result:      res,
		Snapshots:   snaps,
		Failed:      failed,
		Stats:       cfg.Stats,
		TopN:        cfg.TopN,
	}), nil
}
