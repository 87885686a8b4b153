// Package bridge finds topically similar post pairs across instance snapshots.
//
// Every cross-instance pair is scored, so one call costs O(n₁·n₂) similarity
// evaluations for snapshots of n₁ and n₂ posts. Keep fetch windows bounded.
package bridge

import (
	"cmp"
	"slices"

	"github.com/codeGROOVE-dev/fedibridge/pkg/post"
	"github.com/codeGROOVE-dev/fedibridge/pkg/similarity"
	"github.com/codeGROOVE-dev/fedibridge/pkg/snapshot"
)

// Defaults for Options.
const (
	DefaultMinSimilarity = 0.3
	DefaultMaxResults    = 10
)

// Options controls filtering and truncation.
type Options struct {
	MinSimilarity float64 // keep pairs scoring at least this, in [0, 1]
	MaxResults    int     // keep at most this many bridges
}

// Bridge is a pair of similar posts from two different instances. The posts are
// borrowed from their snapshots.
type Bridge struct {
	Posts      [2]*post.Post
	Shared     []string // sorted shared topic tokens
	Similarity float64
}

// Result is the outcome of FindAll.
type Result struct {
	Bridges []Bridge // ranked, at most MaxResults
	Total   int      // matches before truncation
}

// Find returns up to opts.MaxResults bridges between a and b scoring at least
// opts.MinSimilarity, ranked by Less. Snapshots of the same instance never bridge.
func Find(a, b *snapshot.Snapshot, opts Options) []Bridge {
	found := candidates(a, b, opts.MinSimilarity)
	return rank(found, opts.MaxResults)
}

// FindAll runs Find over every unordered pair of snaps and applies one global
// ranking and truncation to the merged matches, so the overall best bridges win
// regardless of which pair produced them.
func FindAll(snaps []*snapshot.Snapshot, opts Options) Result {
	var all []Bridge
	for i := range snaps {
		for j := i + 1; j < len(snaps); j++ {
			all = append(all, candidates(snaps[i], snaps[j], opts.MinSimilarity)...)
		}
	}
	return Result{Total: len(all), Bridges: rank(all, opts.MaxResults)}
}

// Less orders bridges by similarity descending, then by the first post's ID,
// then by the second post's ID.
func Less(x, y Bridge) int {
	if c := cmp.Compare(y.Similarity, x.Similarity); c != 0 {
		return c
	}
	if c := cmp.Compare(x.Posts[0].ID, y.Posts[0].ID); c != 0 {
		return c
	}
	return cmp.Compare(x.Posts[1].ID, y.Posts[1].ID)
}

func candidates(a, b *snapshot.Snapshot, threshold float64) []Bridge {
	if a == nil || b == nil || a.Instance == b.Instance {
		return nil
	}
	var out []Bridge
	for _, p := range a.Posts {
		if len(p.Topics) == 0 {
			continue
		}
		for _, q := range b.Posts {
			if len(q.Topics) == 0 || p.Instance == q.Instance {
				continue
			}
			score := similarity.Jaccard(p.Topics, q.Topics)
			if score < threshold {
				continue
			}
			out = append(out, Bridge{
				Posts:      [2]*post.Post{p, q},
				Shared:     similarity.Shared(p.Topics, q.Topics),
				Similarity: score,
			})
		}
	}
	return out
}

func rank(found []Bridge, limit int) []Bridge {
	slices.SortFunc(found, Less)
	if limit >= 0 && len(found) > limit {
		found = found[:limit]
	}
	return found
}
