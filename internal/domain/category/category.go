// Package category normalizes free-form media categories to the five the
// service knows how to enrich.
package category

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Canonical categories.
const (
	Book  = "book"
	Movie = "movie"
	Anime = "anime"
	Game  = "game"
	TV    = "tv"
)

// All returns the canonical categories in display order.
func All() []string {
	return []string{Book, Movie, Anime, Game, TV}
}

// Known reports whether c is a canonical category.
func Known(c string) bool {
	switch c {
	case Book, Movie, Anime, Game, TV:
		return true
	}
	return false
}

var builtin = map[string][]string{
	Movie: {"films", "film", "movies"},
	Book:  {"novels", "novel", "books"},
	Game:  {"video games", "video game", "games"},
	TV:    {"series", "show", "shows", "tv show", "tv shows", "television"},
	Anime: {"manga"},
}

// Table maps folded aliases to canonical categories. The zero value is
// unusable; use NewTable.
type Table struct {
	aliases map[string]string
}

// NewTable returns a table holding the built-in synonyms.
func NewTable() *Table {
	t := &Table{aliases: make(map[string]string)}
	t.Merge(builtin)
	return t
}

// Merge adds aliases keyed by canonical category. Later entries win.
func (t *Table) Merge(extra map[string][]string) {
	for canonical, aliases := range extra {
		c := fold(canonical)
		for _, a := range aliases {
			if a = fold(a); a != "" {
				t.aliases[a] = c
			}
		}
	}
}

// Normalize trims, collapses inner whitespace and case-folds raw, then maps
// it through the synonym table. Unmapped values pass through folded.
func (t *Table) Normalize(raw string) string {
	c := fold(raw)
	if canonical, ok := t.aliases[c]; ok {
		return canonical
	}
	return c
}

// LoadSynonyms reads a YAML document of canonical category to alias list.
//
//	movie: [cinema, flick]
//	book:  [paperback]
func LoadSynonyms(r io.Reader) (map[string][]string, error) {
	var out map[string][]string
	if err := yaml.NewDecoder(r).Decode(&out); err != nil {
		if err == io.EOF {
			return map[string][]string{}, nil
		}
		return nil, fmt.Errorf("category: decode synonyms: %w", err)
	}
	return out, nil
}

var defaultTable = NewTable()

// Normalize maps raw through the built-in synonym table.
func Normalize(raw string) string {
	return defaultTable.Normalize(raw)
}

func fold(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
