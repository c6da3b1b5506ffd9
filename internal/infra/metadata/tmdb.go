package metadata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	tmdbPosterSize   = "w500"
)

// TMDB media types.
const (
	MediaMovie = "movie"
	MediaTV    = "tv"
)

// TMDB looks up movies or TV series on The Movie Database.
type TMDB struct {
	client
	apiKey    string
	language  string
	mediaType string
}

// NewTMDB returns a TMDB adapter for one media type (MediaMovie or MediaTV).
func NewTMDB(apiKey, language, mediaType string, opts ...Option) *TMDB {
	return &TMDB{
		client:    newClient("tmdb_"+mediaType, tmdbBaseURL, opts),
		apiKey:    strings.TrimSpace(apiKey),
		language:  language,
		mediaType: mediaType,
	}
}

// Name identifies the adapter in logs and metrics.
func (t *TMDB) Name() string { return t.name }

type tmdbResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
}

type tmdbPage struct {
	Results []tmdbResult `json:"results"`
}

func (r tmdbResult) title() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

func (r tmdbResult) record() *Record {
	rec := &Record{
		Year:        yearOf(r.ReleaseDate),
		Description: strings.TrimSpace(r.Overview),
	}
	if rec.Year == "" {
		rec.Year = yearOf(r.FirstAirDate)
	}
	if r.PosterPath != "" {
		rec.Poster = tmdbImageBaseURL + "/" + tmdbPosterSize + r.PosterPath
	}
	if r.VoteCount > 0 {
		rec.Rating = ratingOf(r.VoteAverage)
	}
	return rec
}

func (t *TMDB) endpoint(path string, q url.Values) string {
	q.Set("api_key", t.apiKey)
	if t.language != "" {
		q.Set("language", t.language)
	}
	return t.baseURL + "/3" + path + "?" + q.Encode()
}

func (t *TMDB) search(ctx context.Context, title string) (*tmdbResult, error) {
	q := url.Values{}
	q.Set("query", title)
	q.Set("include_adult", "false")

	var page tmdbPage
	if err := t.getJSON(ctx, t.endpoint("/search/"+t.mediaType, q), &page); err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, nil
	}
	return &page.Results[0], nil
}

// Lookup returns metadata for the best search match.
func (t *TMDB) Lookup(ctx context.Context, title string) (*Record, error) {
	res, err := t.search(ctx, title)
	if err != nil || res == nil {
		return nil, err
	}
	return res.record(), nil
}

// Similar returns TMDB's recommendations for the best match of title.
func (t *TMDB) Similar(ctx context.Context, title string, limit int) ([]Suggestion, error) {
	res, err := t.search(ctx, title)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrNotFound
	}

	path := fmt.Sprintf("/%s/%s/recommendations", t.mediaType, strconv.FormatInt(res.ID, 10))
	var page tmdbPage
	if err := t.getJSON(ctx, t.endpoint(path, url.Values{}), &page); err != nil {
		return nil, err
	}

	reason := "Recommended on TMDB for fans of " + res.title()
	out := make([]Suggestion, 0, limit)
	for _, r := range page.Results {
		if len(out) == limit {
			break
		}
		if r.title() == "" {
			continue
		}
		out = append(out, Suggestion{Title: r.title(), Reason: reason, Record: r.record()})
	}
	return out, nil
}
