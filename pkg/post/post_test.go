package post

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/codeGROOVE-dev/fedibridge/pkg/topic"
)

var created = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	rec := Record{
		ID:           "1001",
		AuthorHandle: "@alice",
		AuthorName:   " Alice ",
		Instance:     "Chaos.Social",
		Content:      `<p>Neues <a href="https://chaos.social/tags/python" class="mention hashtag">#<span>python</span></a> Tool für #opensource</p>`,
		URL:          "https://chaos.social/@alice/1001",
		CreatedAt:    created,
		Tags:         []string{"Python", "opensource"},
	}

	p, err := New(rec, topic.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if p.ID != "https://chaos.social/@alice/1001" {
		t.Errorf("ID = %q", p.ID)
	}
	if p.Author != "alice" {
		t.Errorf("Author = %q, want %q", p.Author, "alice")
	}
	if p.DisplayName != "Alice" {
		t.Errorf("DisplayName = %q, want %q", p.DisplayName, "Alice")
	}
	if p.Instance != "chaos.social" {
		t.Errorf("Instance = %q, want %q", p.Instance, "chaos.social")
	}
	if p.Text != "Neues #python Tool für #opensource" {
		t.Errorf("Text = %q", p.Text)
	}
	if diff := cmp.Diff([]string{"opensource", "python"}, p.Hashtags); diff != "" {
		t.Errorf("Hashtags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"neues", "opensource", "python", "tool"}, p.Topics.Sorted()); diff != "" {
		t.Errorf("Topics mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_MissingURL(t *testing.T) {
	p, err := New(Record{ID: "7", AuthorHandle: "bob", Instance: "fosstodon.org", CreatedAt: created}, topic.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.ID != "fosstodon.org/7" {
		t.Errorf("ID = %q, want %q", p.ID, "fosstodon.org/7")
	}
	if len(p.Topics) != 0 {
		t.Errorf("Topics = %v, want empty", p.Topics.Sorted())
	}
}

func TestNew_Malformed(t *testing.T) {
	valid := Record{ID: "1", AuthorHandle: "alice", Instance: "mastodon.social", CreatedAt: created}

	tests := []struct {
		name   string
		mutate func(*Record)
	}{
		{"missing id", func(r *Record) { r.ID = " " }},
		{"missing author", func(r *Record) { r.AuthorHandle = "" }},
		{"missing instance", func(r *Record) { r.Instance = "" }},
		{"missing created", func(r *Record) { r.CreatedAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid
			tt.mutate(&rec)
			_, err := New(rec, topic.New())
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("New() error = %v, want ErrMalformed", err)
			}
		})
	}
}
