// Package digest assembles the exportable summary of one discovery run.
package digest

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"github.com/codeGROOVE-dev/fedibridge/pkg/bridge"
	"github.com/codeGROOVE-dev/fedibridge/pkg/post"
	"github.com/codeGROOVE-dev/fedibridge/pkg/snapshot"
)

// DefaultTopN is the number of hashtags and accounts listed per instance.
const DefaultTopN = 5

// Digest is the result of a run. It is built once by Aggregate and not modified.
//
//nolint:govet // fieldalignment: field order is the JSON order
type Digest struct {
	GeneratedAt  time.Time                `json:"generatedAt"`
	Instances    []string                 `json:"instances"`
	TotalBridges int                      `json:"totalBridges"`
	Bridges      []Bridge                 `json:"bridges"`
	Stats        map[string]InstanceStats `json:"stats,omitempty"`
	Failed       []Failure                `json:"failed,omitempty"`
}

// Bridge is the exported form of a bridge.
type Bridge struct {
	Similarity float64    `json:"similarity"`
	SharedTags []string   `json:"sharedTags"`
	Posts      [2]PostRef `json:"posts"`
}

// PostRef is the exported form of one side of a bridge.
type PostRef struct {
	Instance    string `json:"instance"`
	Author      string `json:"author"`
	DisplayName string `json:"displayName"`
	Text        string `json:"text"`
	URL         string `json:"url"`
}

// InstanceStats summarizes one instance's snapshot.
type InstanceStats struct {
	Posts          int            `json:"posts"`
	ActiveAccounts int            `json:"activeAccounts"`
	TopHashtags    []TagCount     `json:"topHashtags"`
	TopAccounts    []AccountCount `json:"topAccounts"`
}

// TagCount is a hashtag with the number of posts using it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// AccountCount is an account with its number of fetched posts.
type AccountCount struct {
	Handle string `json:"handle"`
	Count  int    `json:"count"`
}

// Failure names an instance whose snapshot could not be built.
type Failure struct {
	Instance string `json:"instance"`
	Error    string `json:"error"`
}

// Input gathers everything Aggregate needs.
type Input struct {
	GeneratedAt time.Time
	Instances   []string
	Result      bridge.Result
	Snapshots   []*snapshot.Snapshot
	Failed      []*snapshot.FetchError
	Stats       bool // compute per-instance statistics
	TopN        int  // defaults to DefaultTopN when <= 0
}

// Aggregate builds a Digest. Statistics are ranked by count descending with ties
// broken alphabetically.
func Aggregate(in Input) *Digest {
	d := &Digest{
		GeneratedAt:  in.GeneratedAt,
		Instances:    slices.Clone(in.Instances),
		TotalBridges: in.Result.Total,
		Bridges:      make([]Bridge, 0, len(in.Result.Bridges)),
	}
	if d.Instances == nil {
		d.Instances = []string{}
	}

	for _, b := range in.Result.Bridges {
		shared := slices.Clone(b.Shared)
		if shared == nil {
			shared = []string{}
		}
		d.Bridges = append(d.Bridges, Bridge{
			Similarity: b.Similarity,
			SharedTags: shared,
			Posts:      [2]PostRef{ref(b.Posts[0]), ref(b.Posts[1])},
		})
	}

	if in.Stats {
		n := in.TopN
		if n <= 0 {
			n = DefaultTopN
		}
		d.Stats = make(map[string]InstanceStats, len(in.Snapshots))
		for _, s := range in.Snapshots {
			d.Stats[s.Instance] = statsFor(s, n)
		}
	}

	for _, fe := range in.Failed {
		d.Failed = append(d.Failed, Failure{Instance: fe.Instance, Error: fe.Err.Error()})
	}
	return d
}

// TopCounts returns up to n keys of counts ordered by count descending, then key.
func TopCounts(counts map[string]int, n int) []string {
	keys := slices.Collect(maps.Keys(counts))
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func statsFor(s *snapshot.Snapshot, n int) InstanceStats {
	st := InstanceStats{
		Posts:          len(s.Posts),
		ActiveAccounts: len(s.Accounts),
		TopHashtags:    []TagCount{},
		TopAccounts:    []AccountCount{},
	}
	for _, tag := range TopCounts(s.Hashtags, n) {
		st.TopHashtags = append(st.TopHashtags, TagCount{Tag: tag, Count: s.Hashtags[tag]})
	}
	for _, handle := range TopCounts(s.Accounts, n) {
		st.TopAccounts = append(st.TopAccounts, AccountCount{Handle: handle, Count: s.Accounts[handle]})
	}
	return st
}

func ref(p *post.Post) PostRef {
	return PostRef{
		Instance:    p.Instance,
		Author:      p.Author,
		DisplayName: p.DisplayName,
		Text:        p.Text,
		URL:         p.URL,
	}
}
