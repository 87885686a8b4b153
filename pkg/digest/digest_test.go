package digest

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/codeGROOVE-dev/fedibridge/pkg/bridge"
	"github.com/codeGROOVE-dev/fedibridge/pkg/post"
	"github.com/codeGROOVE-dev/fedibridge/pkg/snapshot"
)

func TestTopCounts(t *testing.T) {
	counts := map[string]int{"python": 5, "rust": 3, "linux": 3, "go": 1}

	tests := []struct {
		n    int
		want []string
	}{
		{2, []string{"python", "linux"}},
		{3, []string{"python", "linux", "rust"}},
		{10, []string{"python", "linux", "rust", "go"}},
		{0, []string{}},
	}

	for _, tt := range tests {
		got := TopCounts(counts, tt.n)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("TopCounts(n=%d) mismatch (-want +got):\n%s", tt.n, diff)
		}
	}

	for range 20 {
		if diff := cmp.Diff([]string{"python", "linux"}, TopCounts(counts, 2)); diff != "" {
			t.Fatalf("TopCounts not stable across calls:\n%s", diff)
		}
	}
}

func fixture() Input {
	a := &post.Post{ID: "https://a.example/@alice/1", Instance: "a.example", Author: "alice", DisplayName: "Alice", Text: "#python", URL: "https://a.example/@alice/1"}
	b := &post.Post{ID: "https://b.example/@bob/2", Instance: "b.example", Author: "bob", Text: "#python", URL: "https://b.example/@bob/2"}

	return Input{
		GeneratedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		Instances:   []string{"a.example", "b.example", "c.example"},
		Result: bridge.Result{
			Total:   3,
			Bridges: []bridge.Bridge{{Posts: [2]*post.Post{a, b}, Shared: []string{"python"}, Similarity: 1}},
		},
		Snapshots: []*snapshot.Snapshot{
			{
				Instance: "a.example",
				Posts:    []*post.Post{a},
				Hashtags: map[string]int{"python": 5, "rust": 3, "linux": 3},
				Accounts: map[string]int{"alice": 4, "carol": 4, "dave": 1},
			},
			{Instance: "b.example", Posts: []*post.Post{b}, Hashtags: map[string]int{}, Accounts: map[string]int{}},
		},
		Failed: []*snapshot.FetchError{{Instance: "c.example", Err: errors.New("HTTP 503")}},
		Stats:  true,
		TopN:   2,
	}
}

func TestAggregate(t *testing.T) {
	d := Aggregate(fixture())

	if d.TotalBridges != 3 {
		t.Errorf("TotalBridges = %d, want 3", d.TotalBridges)
	}
	wantBridges := []Bridge{{
		Similarity: 1,
		SharedTags: []string{"python"},
		Posts: [2]PostRef{
			{Instance: "a.example", Author: "alice", DisplayName: "Alice", Text: "#python", URL: "https://a.example/@alice/1"},
			{Instance: "b.example", Author: "bob", Text: "#python", URL: "https://b.example/@bob/2"},
		},
	}}
	if diff := cmp.Diff(wantBridges, d.Bridges); diff != "" {
		t.Errorf("Bridges mismatch (-want +got):\n%s", diff)
	}

	wantStats := map[string]InstanceStats{
		"a.example": {
			Posts:          1,
			ActiveAccounts: 3,
			TopHashtags:    []TagCount{{"python", 5}, {"linux", 3}},
			TopAccounts:    []AccountCount{{"alice", 4}, {"carol", 4}},
		},
		"b.example": {
			Posts:       1,
			TopHashtags: []TagCount{},
			TopAccounts: []AccountCount{},
		},
	}
	if diff := cmp.Diff(wantStats, d.Stats); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}

	wantFailed := []Failure{{Instance: "c.example", Error: "HTTP 503"}}
	if diff := cmp.Diff(wantFailed, d.Failed); diff != "" {
		t.Errorf("Failed mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_NoStats(t *testing.T) {
	in := fixture()
	in.Stats = false
	if d := Aggregate(in); d.Stats != nil {
		t.Errorf("Stats = %v, want nil when disabled", d.Stats)
	}
}

func TestAggregate_Empty(t *testing.T) {
	d := Aggregate(Input{Instances: []string{"a.example", "b.example"}})
	if d.Bridges == nil || len(d.Bridges) != 0 {
		t.Errorf("Bridges = %#v, want empty non-nil slice", d.Bridges)
	}
	if d.Failed != nil {
		t.Errorf("Failed = %v, want nil", d.Failed)
	}
}

func TestDigestJSON(t *testing.T) {
	data, err := json.Marshal(Aggregate(fixture()))
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var got struct {
		Instances []string `json:"instances"`
		Bridges   []struct {
			Similarity float64  `json:"similarity"`
			SharedTags []string `json:"sharedTags"`
			Posts      []struct {
				Instance    string `json:"instance"`
				Author      string `json:"author"`
				DisplayName string `json:"displayName"`
				Text        string `json:"text"`
				URL         string `json:"url"`
			} `json:"posts"`
		} `json:"bridges"`
		Stats map[string]struct {
			TopHashtags []struct {
				Tag   string `json:"tag"`
				Count int    `json:"count"`
			} `json:"topHashtags"`
			TopAccounts []struct {
				Handle string `json:"handle"`
				Count  int    `json:"count"`
			} `json:"topAccounts"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	if len(got.Instances) != 3 {
		t.Errorf("instances = %v", got.Instances)
	}
	if len(got.Bridges) != 1 || len(got.Bridges[0].Posts) != 2 {
		t.Fatalf("bridges = %+v", got.Bridges)
	}
	if got.Bridges[0].Posts[1].URL != "https://b.example/@bob/2" {
		t.Errorf("second post url = %q", got.Bridges[0].Posts[1].URL)
	}
	if tags := got.Stats["a.example"].TopHashtags; len(tags) != 2 || tags[0].Tag != "python" || tags[0].Count != 5 {
		t.Errorf("topHashtags = %+v", tags)
	}
	if accts := got.Stats["a.example"].TopAccounts; len(accts) != 2 || accts[1].Handle != "carol" {
		t.Errorf("topAccounts = %+v", accts)
	}
}
