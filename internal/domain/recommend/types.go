// Package recommend turns a (category, title) pair into a list of similar
// titles: one generative-text call, defensive parsing of its JSON array, then
// best-effort metadata enrichment per item.
package recommend

// Input is a recommendation request as received from a client.
type Input struct {
	Category string
	Title    string
}

// Item is one recommendation. Title and Reason or Description come from the
// model; Poster, Year and Rating come from enrichment and may be absent.
type Item struct {
	Title       string   `json:"title"`
	Reason      string   `json:"reason,omitempty"`
	Description string   `json:"description,omitempty"`
	Poster      string   `json:"poster,omitempty"`
	Year        string   `json:"year,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

// Result is a successful recommendation run.
type Result struct {
	// Category is the normalized category the items were produced for.
	Category string
	Items    []Item
	// Fallback is set when the items came from a metadata provider's own
	// similarity list because the model call failed.
	Fallback bool
}
