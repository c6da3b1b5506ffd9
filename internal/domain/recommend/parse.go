package recommend

import (
	"bytes"
	"errors"
	"strings"

	"github.com/goccy/go-json"
)

var errNoArray = errors.New("no JSON array found")

// ErrNoItems is wrapped by a ParseError when the array parsed but held no
// usable recommendation.
var ErrNoItems = errors.New("array has no usable items")

// parseItems extracts the recommendation array from model text. Entries
// without a title are dropped and at most max items are kept.
func parseItems(raw string, max int) ([]Item, error) {
	body := extractArray(stripFences(raw))
	if !strings.HasPrefix(body, "[") {
		return nil, &ParseError{Raw: raw, Err: errNoArray}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(body), &elems); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	items := make([]Item, 0, len(elems))
	for _, e := range elems {
		it, ok := parseElem(e)
		if !ok {
			continue
		}
		items = append(items, it)
		if max > 0 && len(items) == max {
			break
		}
	}
	if len(items) == 0 {
		return nil, &ParseError{Raw: raw, Err: ErrNoItems}
	}
	return items, nil
}

type modelItem struct {
	Title       string `json:"title"`
	Name        string `json:"name"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

func parseElem(e json.RawMessage) (Item, bool) {
	e = bytes.TrimSpace(e)
	if len(e) == 0 {
		return Item{}, false
	}
	switch e[0] {
	case '"':
		var s string
		if err := json.Unmarshal(e, &s); err != nil {
			return Item{}, false
		}
		s = strings.TrimSpace(s)
		return Item{Title: s}, s != ""
	case '{':
		var m modelItem
		if err := json.Unmarshal(e, &m); err != nil {
			return Item{}, false
		}
		title := strings.TrimSpace(m.Title)
		if title == "" {
			title = strings.TrimSpace(m.Name)
		}
		return Item{
			Title:       title,
			Reason:      strings.TrimSpace(m.Reason),
			Description: strings.TrimSpace(m.Description),
		}, title != ""
	}
	return Item{}, false
}

// stripFences removes a Markdown code fence (with or without a language tag)
// around the text.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "[{") {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractArray slices from the first '[' to the last ']' so prose around the
// array is ignored.
func extractArray(s string) string {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start == -1 || end <= start {
		return s
	}
	return s[start : end+1]
}
