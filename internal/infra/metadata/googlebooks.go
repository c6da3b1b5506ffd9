package metadata

import (
	"context"
	"net/url"
	"strings"
)

const googleBooksBaseURL = "https://www.googleapis.com/books/v1"

// GoogleBooks looks up books on the Google Books volumes API.
type GoogleBooks struct {
	client
	apiKey string
}

// NewGoogleBooks returns a Google Books adapter.
func NewGoogleBooks(apiKey string, opts ...Option) *GoogleBooks {
	return &GoogleBooks{
		client: newClient("google_books", googleBooksBaseURL, opts),
		apiKey: strings.TrimSpace(apiKey),
	}
}

// Name identifies the adapter in logs and metrics.
func (g *GoogleBooks) Name() string { return g.name }

type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title         string  `json:"title"`
			Description   string  `json:"description"`
			PublishedDate string  `json:"publishedDate"`
			AverageRating float64 `json:"averageRating"`
			ImageLinks    struct {
				SmallThumbnail string `json:"smallThumbnail"`
				Thumbnail      string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Lookup returns metadata for the first volume whose title matches.
func (g *GoogleBooks) Lookup(ctx context.Context, title string) (*Record, error) {
	q := url.Values{}
	q.Set("q", "intitle:"+title)
	q.Set("maxResults", "1")
	q.Set("printType", "books")
	if g.apiKey != "" {
		q.Set("key", g.apiKey)
	}

	var resp volumesResponse
	if err := g.getJSON(ctx, g.baseURL+"/volumes?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	info := resp.Items[0].VolumeInfo
	thumb := info.ImageLinks.Thumbnail
	if thumb == "" {
		thumb = info.ImageLinks.SmallThumbnail
	}
	return &Record{
		Poster:      secureURL(thumb),
		Year:        yearOf(info.PublishedDate),
		Rating:      ratingOf(info.AverageRating),
		Description: plainText(info.Description),
	}, nil
}

// secureURL upgrades http image links; Google Books still serves some over http.
func secureURL(u string) string {
	if rest, ok := strings.CutPrefix(u, "http://"); ok {
		return "https://" + rest
	}
	return u
}
