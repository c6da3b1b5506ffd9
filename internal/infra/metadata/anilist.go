package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

const anilistBaseURL = "https://graphql.anilist.co"

const anilistMediaFields = `
    title { romaji english }
    coverImage { large }
    startDate { year }
    averageScore
    description(asHtml: false)`

const anilistLookupQuery = `query ($search: String) {
  Media(search: $search, type: ANIME) {` + anilistMediaFields + `
  }
}`

const anilistSimilarQuery = `query ($search: String, $perPage: Int) {
  Media(search: $search, type: ANIME) {` + anilistMediaFields + `
    recommendations(sort: RATING_DESC, perPage: $perPage) {
      nodes {
        mediaRecommendation {` + anilistMediaFields + `
        }
      }
    }
  }
}`

// AniList looks up anime on the AniList GraphQL API. It needs no key.
type AniList struct {
	client
}

// NewAniList returns an AniList adapter.
func NewAniList(opts ...Option) *AniList {
	return &AniList{client: newClient("anilist", anilistBaseURL, opts)}
}

// Name identifies the adapter in logs and metrics.
func (a *AniList) Name() string { return a.name }

type anilistMedia struct {
	Title struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
	} `json:"title"`
	CoverImage struct {
		Large string `json:"large"`
	} `json:"coverImage"`
	StartDate struct {
		Year int `json:"year"`
	} `json:"startDate"`
	AverageScore    float64 `json:"averageScore"`
	Description     string  `json:"description"`
	Recommendations struct {
		Nodes []struct {
			MediaRecommendation *anilistMedia `json:"mediaRecommendation"`
		} `json:"nodes"`
	} `json:"recommendations"`
}

type anilistResponse struct {
	Data struct {
		Media *anilistMedia `json:"Media"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"errors"`
}

func (m *anilistMedia) title() string {
	if m.Title.English != "" {
		return m.Title.English
	}
	return m.Title.Romaji
}

func (m *anilistMedia) record() *Record {
	rec := &Record{
		Poster:      m.CoverImage.Large,
		Description: plainText(m.Description),
	}
	if m.StartDate.Year > 0 {
		rec.Year = fmt.Sprintf("%d", m.StartDate.Year)
	}
	// averageScore is 0-100; ratings elsewhere are on a 0-10 scale.
	rec.Rating = ratingOf(m.AverageScore / 10)
	return rec
}

func (a *AniList) query(ctx context.Context, query string, vars map[string]any) (*anilistMedia, error) {
	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	if err != nil {
		return nil, fmt.Errorf("%s: marshal query: %w", a.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", a.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp anilistResponse
	if err := a.do(req, &resp); err != nil {
		// AniList answers an unmatched search with 404 "Not Found."
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if resp.Data.Media == nil && len(resp.Errors) > 0 {
		if resp.Errors[0].Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %s", a.name, resp.Errors[0].Message)
	}
	return resp.Data.Media, nil
}

// Lookup returns metadata for the best search match.
func (a *AniList) Lookup(ctx context.Context, title string) (*Record, error) {
	m, err := a.query(ctx, anilistLookupQuery, map[string]any{"search": title})
	if err != nil || m == nil {
		return nil, err
	}
	return m.record(), nil
}

// Similar returns the community recommendations of the best match of title.
func (a *AniList) Similar(ctx context.Context, title string, limit int) ([]Suggestion, error) {
	m, err := a.query(ctx, anilistSimilarQuery, map[string]any{"search": title, "perPage": limit})
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}

	reason := "Recommended on AniList by fans of " + m.title()
	out := make([]Suggestion, 0, limit)
	for _, n := range m.Recommendations.Nodes {
		if len(out) == limit {
			break
		}
		rec := n.MediaRecommendation
		if rec == nil || strings.TrimSpace(rec.title()) == "" {
			continue
		}
		out = append(out, Suggestion{Title: rec.title(), Reason: reason, Record: rec.record()})
	}
	return out, nil
}
