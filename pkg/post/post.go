// Package post defines the raw timeline record and the validated Post built from it.
package post

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/fedibridge/pkg/htmlutil"
	"github.com/codeGROOVE-dev/fedibridge/pkg/topic"
)

// ErrMalformed is returned when a record lacks a required field.
var ErrMalformed = errors.New("malformed post record")

// Record is one status as delivered by a transport, before validation.
type Record struct {
	CreatedAt    time.Time
	ID           string   // server-local status ID
	AuthorHandle string   // acct, without leading @
	AuthorName   string   // display name, may be empty
	Instance     string   // hostname the record was fetched from
	Content      string   // status body as HTML
	URL          string   // canonical status URL
	Tags         []string // hashtag names reported by the server
}

// Post is a validated status with its topic signature. Treat as read-only.
//
//nolint:govet // fieldalignment: grouped by meaning
type Post struct {
	ID          string // instance-qualified identifier
	StatusID    string
	Author      string
	DisplayName string
	Instance    string
	Text        string
	URL         string
	CreatedAt   time.Time
	Hashtags    []string  // sorted
	Topics      topic.Set // hashtags plus keywords
}

// New validates rec and derives the plain text and topic tokens.
func New(rec Record, ex *topic.Extractor) (*Post, error) {
	instance := strings.ToLower(strings.TrimSpace(rec.Instance))
	id := strings.TrimSpace(rec.ID)
	handle := strings.TrimPrefix(strings.TrimSpace(rec.AuthorHandle), "@")

	switch {
	case instance == "":
		return nil, fmt.Errorf("%w: missing instance", ErrMalformed)
	case id == "":
		return nil, fmt.Errorf("%w: missing id", ErrMalformed)
	case handle == "":
		return nil, fmt.Errorf("%w: status %s has no author", ErrMalformed, id)
	case rec.CreatedAt.IsZero():
		return nil, fmt.Errorf("%w: status %s has no creation time", ErrMalformed, id)
	}

	text := htmlutil.Text(rec.Content)
	url := strings.TrimSpace(rec.URL)
	qualified := url
	if qualified == "" {
		qualified = instance + "/" + id
	}

	return &Post{
		ID:          qualified,
		StatusID:    id,
		Author:      handle,
		DisplayName: strings.TrimSpace(rec.AuthorName),
		Instance:    instance,
		Text:        text,
		URL:         url,
		CreatedAt:   rec.CreatedAt.UTC(),
		Hashtags:    ex.Hashtags(text, rec.Tags...).Sorted(),
		Topics:      ex.Extract(text, rec.Tags...),
	}, nil
}
