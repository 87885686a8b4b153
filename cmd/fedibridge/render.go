package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/codeGROOVE-dev/fedibridge/pkg/digest"
	"github.com/codeGROOVE-dev/fedibridge/pkg/htmlutil"
)

const (
	rule       = "================================================================================"
	previewLen = 150
)

func printBanner(w io.Writer) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "fedibridge: thematic connections across instance boundaries")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

func printFailures(w io.Writer, failed []digest.Failure) {
	for _, f := range failed {
		fmt.Fprintf(w, "FAILED %s: %s\n", f.Instance, f.Error)
	}
	if len(failed) > 0 {
		fmt.Fprintln(w)
	}
}

func printStats(w io.Writer, d *digest.Digest) {
	fmt.Fprintln(w, "Instance statistics")
	fmt.Fprintln(w, rule)
	for _, host := range d.Instances {
		st, ok := d.Stats[host]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", host)
		fmt.Fprintf(w, "   Posts: %d\n", st.Posts)
		fmt.Fprintf(w, "   Active accounts: %d\n", st.ActiveAccounts)
		if len(st.TopHashtags) > 0 {
			tags := make([]string, 0, len(st.TopHashtags))
			for _, t := range st.TopHashtags {
				tags = append(tags, fmt.Sprintf("#%s (%d)", t.Tag, t.Count))
			}
			fmt.Fprintf(w, "   Top hashtags: %s\n", strings.Join(tags, ", "))
		}
		if len(st.TopAccounts) > 0 {
			accts := make([]string, 0, len(st.TopAccounts))
			for _, a := range st.TopAccounts {
				accts = append(accts, fmt.Sprintf("@%s (%d)", a.Handle, a.Count))
			}
			fmt.Fprintf(w, "   Top accounts: %s\n", strings.Join(accts, ", "))
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

func printBridges(w io.Writer, d *digest.Digest, maxResults int) {
	if len(d.Bridges) == 0 {
		fmt.Fprintln(w, "No thematic connections found.")
		fmt.Fprintln(w, "Tip: lower -min-similarity or add more instances.")
		return
	}

	fmt.Fprintf(w, "%d thematic bridges found\n\n", d.TotalBridges)
	fmt.Fprintln(w, rule)

	for i, b := range d.Bridges {
		fmt.Fprintf(w, "\nBridge #%d (similarity: %.0f%%)\n", i+1, b.Similarity*100)
		shared := strings.Join(b.SharedTags, ", ")
		if shared == "" {
			shared = "none"
		}
		fmt.Fprintf(w, "   Shared topics: %s\n", shared)
		for j, p := range b.Posts {
			fmt.Fprintln(w)
			name := p.DisplayName
			if name == "" {
				name = "unknown"
			}
			fmt.Fprintf(w, "   %s\n", p.Instance)
			fmt.Fprintf(w, "   @%s (%s)\n", p.Author, name)
			fmt.Fprintf(w, "   %s\n", htmlutil.Truncate(strings.ReplaceAll(p.Text, "\n", " "), previewLen))
			fmt.Fprintf(w, "   %s\n", p.URL)
			if j == 1 {
				fmt.Fprintln(w, "   "+strings.Repeat("-", 76))
			}
		}
	}

	if more := d.TotalBridges - len(d.Bridges); more > 0 && len(d.Bridges) >= maxResults {
		fmt.Fprintf(w, "\n... and %d more connections\n", more)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
}
