package metadata

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/matiasleandrokruk/echopicks/internal/infra/logging"
)

const rawgBaseURL = "https://api.rawg.io"

// RAWG looks up video games on rawg.io.
type RAWG struct {
	client
	apiKey string
}

// NewRAWG returns a RAWG adapter.
func NewRAWG(apiKey string, opts ...Option) *RAWG {
	return &RAWG{
		client: newClient("rawg", rawgBaseURL, opts),
		apiKey: strings.TrimSpace(apiKey),
	}
}

// Name identifies the adapter in logs and metrics.
func (r *RAWG) Name() string { return r.name }

type rawgGame struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Released        string  `json:"released"`
	BackgroundImage string  `json:"background_image"`
	Rating          float64 `json:"rating"`
	Description     string  `json:"description"`
	DescriptionRaw  string  `json:"description_raw"`
}

type rawgSearch struct {
	Count   int        `json:"count"`
	Results []rawgGame `json:"results"`
}

// Lookup searches by title, then fetches the game detail for its description.
// A failed detail call keeps the search fields.
func (r *RAWG) Lookup(ctx context.Context, title string) (*Record, error) {
	q := url.Values{}
	q.Set("key", r.apiKey)
	q.Set("search", title)
	q.Set("page_size", "1")

	var search rawgSearch
	if err := r.getJSON(ctx, r.baseURL+"/api/games?"+q.Encode(), &search); err != nil {
		return nil, err
	}
	if len(search.Results) == 0 {
		return nil, nil
	}

	game := search.Results[0]
	rec := &Record{
		Poster: game.BackgroundImage,
		Year:   yearOf(game.Released),
		Rating: ratingOf(game.Rating),
	}

	dq := url.Values{}
	dq.Set("key", r.apiKey)
	var detail rawgGame
	endpoint := r.baseURL + "/api/games/" + strconv.FormatInt(game.ID, 10) + "?" + dq.Encode()
	if err := r.getJSON(ctx, endpoint, &detail); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("title", title).Msg("rawg: game detail failed")
		return rec, nil
	}
	rec.Description = strings.TrimSpace(detail.DescriptionRaw)
	if rec.Description == "" {
		rec.Description = plainText(detail.Description)
	}
	return rec, nil
}
