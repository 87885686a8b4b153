package topic

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		tags []string
		want []string
	}{
		{
			name: "empty",
			text: "",
			want: []string{},
		},
		{
			name: "whitespace only",
			text: "  \n\t  ",
			want: []string{},
		},
		{
			name: "german hashtags and keywords",
			text: "Neues #python Tool für #opensource",
			want: []string{"neues", "opensource", "python", "tool"},
		},
		{
			name: "hashtags plus longer keyword",
			text: "Suche #python #opensource Libraries",
			want: []string{"libraries", "opensource", "python", "suche"},
		},
		{
			name: "hashtag case folded and deduplicated",
			text: "#Python #PYTHON python",
			want: []string{"python"},
		},
		{
			name: "short hashtags survive length filter",
			text: "#go #ai",
			want: []string{"ai", "go"},
		},
		{
			name: "urls and mentions ignored",
			text: "Check https://example.com/#rust and @alice@mastodon.social about Kubernetes",
			want: []string{"check", "kubernetes"},
		},
		{
			name: "stopwords dropped",
			text: "this would have been with them",
			want: []string{},
		},
		{
			name: "punctuation separates tokens",
			text: "rust,linux;(debian)",
			want: []string{"debian", "linux", "rust"},
		},
		{
			name: "unicode letters",
			text: "#Überwachung Straße",
			want: []string{"straße", "überwachung"},
		},
		{
			name: "mid-word hash is not a hashtag",
			text: "issue#1234 and foo#bar",
			want: []string{"1234", "issue"},
		},
		{
			name: "hashtag after punctuation",
			text: "(#rust) and:#linux",
			want: []string{"linux", "rust"},
		},
		{
			name: "combining marks stay inside words",
			text: "नमस्ते दुनिया #हिंदी",
			want: []string{"दुनिया", "नमस्ते", "हिंदी"},
		},
		{
			name: "server supplied tags",
			text: "hello world",
			tags: []string{"Go", "#Fediverse", " "},
			want: []string{"fediverse", "go", "hello", "world"},
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text, tt.tags...).Sorted()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestHashtags(t *testing.T) {
	e := New()
	got := e.Hashtags("wow #Rust and #go, see https://x.org/#nope", "Linux").Sorted()
	want := []string{"go", "linux", "rust"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Hashtags() mismatch (-want +got):\n%s", diff)
	}
}

func TestHashtags_Boundaries(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{text: "issue#1234 and foo#bar", want: []string{}},
		{text: "#start mid#dle end", want: []string{"start"}},
		{text: "नमस्ते दुनिया #हिंदी", want: []string{"हिंदी"}},
		{text: "tag:#Kubernetes", want: []string{"kubernetes"}},
	}
	e := New()
	for _, tt := range tests {
		got := e.Hashtags(tt.text).Sorted()
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Hashtags(%q) mismatch (-want +got):\n%s", tt.text, diff)
		}
	}
}

func TestOptions(t *testing.T) {
	text := "Neues #python Tool"

	got := New(WithStopwords([]string{"Neues"})).Extract(text).Sorted()
	if diff := cmp.Diff([]string{"python", "tool"}, got); diff != "" {
		t.Errorf("WithStopwords mismatch (-want +got):\n%s", diff)
	}

	got = New(WithMinLength(5)).Extract(text).Sorted()
	if diff := cmp.Diff([]string{"neues", "python"}, got); diff != "" {
		t.Errorf("WithMinLength mismatch (-want +got):\n%s", diff)
	}
}

func TestSet(t *testing.T) {
	s := NewSet("b", "a", "b")
	if len(s) != 2 {
		t.Errorf("len(NewSet) = %d, want 2", len(s))
	}
	if !s.Has("a") || s.Has("c") {
		t.Errorf("Has() wrong for %v", s.Sorted())
	}
	if diff := cmp.Diff([]string{"a", "b"}, s.Sorted()); diff != "" {
		t.Errorf("Sorted() mismatch (-want +got):\n%s", diff)
	}
}
