// Package similarity scores topical overlap between two topic token sets.
package similarity

import (
	"slices"

	"github.com/codeGROOVE-dev/fedibridge/pkg/topic"
)

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when both sets are empty.
// The result is symmetric and always within [0, 1].
func Jaccard(a, b topic.Set) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := intersectionSize(a, b)
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Shared returns the tokens present in both sets, sorted.
func Shared(a, b topic.Set) []string {
	small, large := a, b
	if len(large) < len(small) {
		small, large = large, small
	}
	var out []string
	for tok := range small {
		if large.Has(tok) {
			out = append(out, tok)
		}
	}
	slices.Sort(out)
	return out
}

func intersectionSize(a, b topic.Set) int {
	small, large := a, b
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for tok := range small {
		if large.Has(tok) {
			n++
		}
	}
	return n
}
