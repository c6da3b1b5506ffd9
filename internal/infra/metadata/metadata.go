// Package metadata holds the per-category metadata adapters used to enrich
// model recommendations: TMDB (movie, tv), Google Books (book), RAWG (game)
// and AniList (anime). Every adapter takes a title and returns at most one
// Record; a nil Record with a nil error means the provider found no match.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	"github.com/goccy/go-json"

	"github.com/matiasleandrokruk/echopicks/internal/version"
)

// Record is the optional metadata merged into a recommendation.
type Record struct {
	Poster      string
	Year        string
	Rating      *float64
	Description string
}

// Suggestion is a title a provider considers similar to a search target.
type Suggestion struct {
	Title  string
	Reason string
	Record *Record
}

// Source looks up metadata for a single title.
type Source interface {
	Name() string
	Lookup(ctx context.Context, title string) (*Record, error)
}

// SimilarSource is a Source that can also list similar titles directly.
type SimilarSource interface {
	Source
	Similar(ctx context.Context, title string, limit int) ([]Suggestion, error)
}

// ErrNotFound is returned by Similar when the search target itself has no match.
var ErrNotFound = errors.New("metadata: title not found")

// StatusError reports a non-2xx answer from a metadata provider.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
}

// Option configures an adapter.
type Option func(*client)

// WithBaseURL points an adapter at a different API root (used by tests).
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *client) { c.http = h }
}

type client struct {
	name    string
	baseURL string
	http    *http.Client
}

func newClient(name, baseURL string, opts []Option) client {
	c := client{
		name:    name,
		baseURL: baseURL,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// do sends req and decodes a 2xx JSON body into out.
func (c *client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return &StatusError{Provider: c.name, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	return nil
}

func (c *client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.name, err)
	}
	return c.do(req, out)
}

// yearOf returns the leading four-digit year of an ISO-ish date string.
func yearOf(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	for _, r := range date[:4] {
		if !unicode.IsDigit(r) {
			return ""
		}
	}
	return date[:4]
}

// ratingOf returns nil for unrated entries.
func ratingOf(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}

var (
	_ SimilarSource = (*TMDB)(nil)
	_ Source        = (*GoogleBooks)(nil)
	_ Source        = (*RAWG)(nil)
	_ SimilarSource = (*AniList)(nil)
)
