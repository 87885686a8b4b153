// Command fedibridge finds thematic bridges between the public timelines of
// Mastodon instances.
//
// Usage:
//
//	fedibridge mastodon.social chaos.social
//	fedibridge -s 0.4 -n 15 mastodon.social fosstodon.org
//	fedibridge -stats -o digest.json mastodon.social chaos.social hachyderm.io
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/fedibridge/pkg/digest"
	"github.com/codeGROOVE-dev/fedibridge/pkg/fedibridge"
	"github.com/codeGROOVE-dev/fedibridge/pkg/httpcache"
	"github.com/codeGROOVE-dev/fedibridge/pkg/mastodon"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always happens.
func run() int {
	defaults := fedibridge.DefaultConfig()

	var minSimilarity float64
	var maxResults int
	var output string
	flag.Float64Var(&minSimilarity, "min-similarity", defaults.MinSimilarity, "minimum similarity (0-1)")
	flag.Float64Var(&minSimilarity, "s", defaults.MinSimilarity, "shorthand for -min-similarity")
	flag.IntVar(&maxResults, "max-results", defaults.MaxResults, "maximum number of bridges")
	flag.IntVar(&maxResults, "n", defaults.MaxResults, "shorthand for -max-results")
	flag.StringVar(&output, "output", "", "write the discovery digest as JSON to this file")
	flag.StringVar(&output, "o", "", "shorthand for -output")
	limit := flag.Int("limit", defaults.FetchLimit, fmt.Sprintf("posts fetched per instance (1-%d)", fedibridge.MaxFetchLimit))
	stats := flag.Bool("stats", false, "show per-instance statistics")
	topN := flag.Int("top", defaults.TopN, "entries per statistics list")
	noCache := flag.Bool("no-cache", false, "disable HTTP caching")
	cacheTTL := flag.Duration("cache-ttl", 5*time.Minute, "cache time-to-live for timeline responses")
	debug := flag.Bool("debug", false, "enable debug logging")
	verbose := flag.Bool("v", false, "verbose logging (same as -debug)")
	flag.Usage = usage
	flag.Parse()

	logLevel := slog.LevelWarn
	if *debug || *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if arg, ok := misplacedFlag(flag.Args()); ok {
		fmt.Fprintf(os.Stderr, "Error: flag %s must come before the instance list\n\n", arg)
		usage()
		return 2
	}

	cfg := fedibridge.Config{
		Instances:     flag.Args(),
		MinSimilarity: minSimilarity,
		MaxResults:    maxResults,
		FetchLimit:    *limit,
		TopN:          *topN,
		Stats:         *stats,
	}
	if _, err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		usage()
		return 2
	}

	var opts []mastodon.Option
	opts = append(opts, mastodon.WithLogger(logger))
	if !*noCache {
		httpCache, err := httpcache.New(*cacheTTL)
		if err != nil {
			logger.Warn("failed to initialize cache, continuing without cache", "error", err)
		} else {
			defer func() {
				if err := httpCache.Close(); err != nil {
					logger.Warn("failed to close cache", "error", err)
				}
			}()
			opts = append(opts, mastodon.WithHTTPCache(httpCache))
			logger.Debug("HTTP cache initialized", "ttl", cacheTTL.String())
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := mastodon.New(ctx, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	printBanner(os.Stdout)
	d, err := fedibridge.Run(ctx, cfg, client, fedibridge.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	printFailures(os.Stdout, d.Failed)
	if *stats {
		printStats(os.Stdout, d)
	}
	printBridges(os.Stdout, d, cfg.MaxResults)
	logger.Debug("cache statistics", "hits", httpcache.CacheStats().Hits, "misses", httpcache.CacheStats().Misses)

	if output != "" {
		if err := writeDigest(output, d); err != nil {
			fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
			return 1
		}
		fmt.Printf("\nDiscovery digest saved: %s\n", output)
	}

	if len(d.Failed) == len(d.Instances) {
		return 1
	}
	return 0
}

// misplacedFlag reports the first argument after the instance list that looks
// like a flag. flag stops parsing at the first positional argument.
func misplacedFlag(args []string) (string, bool) {
	for _, arg := range args {
		if len(arg) > 1 && strings.HasPrefix(arg, "-") {
			return arg, true
		}
	}
	return "", false
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: fedibridge [options] <instance> <instance> [instance...]")
	fmt.Fprintln(os.Stderr, "\nFinds topically related posts across Mastodon instance boundaries.")
	fmt.Fprintln(os.Stderr, "Instances are host names (mastodon.social), with or without https://.")
	fmt.Fprintln(os.Stderr, "Options must come before the instance list.")
	fmt.Fprintln(os.Stderr, "\nOptions:")
	flag.PrintDefaults()
}

func writeDigest(path string, d *digest.Digest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return errors.Join(fmt.Errorf("encode digest: %w", err), f.Close())
	}
	return f.Close()
}
