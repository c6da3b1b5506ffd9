package recommend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItems_Objects(t *testing.T) {
	t.Parallel()

	items, err := parseItems(`[{"title":"Interstellar","reason":"Also Nolan"},{"title":"Tenet","description":"Time inversion"}]`, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, Item{Title: "Interstellar", Reason: "Also Nolan"}, items[0])
	assert.Equal(t, Item{Title: "Tenet", Description: "Time inversion"}, items[1])
}

func TestParseItems_StripsFences(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"json fence":      "```json\n[{\"title\":\"Dune\",\"reason\":\"r\"}]\n```",
		"bare fence":      "```\n[{\"title\":\"Dune\",\"reason\":\"r\"}]\n```",
		"single line":     "```[{\"title\":\"Dune\",\"reason\":\"r\"}]```",
		"surrounding ws":  "\n\n  ```json\n[{\"title\":\"Dune\",\"reason\":\"r\"}]\n```  \n",
		"prose around it": "Sure! Here you go:\n[{\"title\":\"Dune\",\"reason\":\"r\"}]\nEnjoy.",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			items, err := parseItems(raw, 10)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, "Dune", items[0].Title)
		})
	}
}

func TestParseItems_Strings(t *testing.T) {
	t.Parallel()

	items, err := parseItems(`["Hyperion", " ", "Foundation"]`, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Hyperion", items[0].Title)
	assert.Equal(t, "Foundation", items[1].Title)
}

func TestParseItems_DropsUntitledAndCaps(t *testing.T) {
	t.Parallel()

	items, err := parseItems(`[{"reason":"no title"},{"name":"Named"},{"title":"A"},{"title":"B"},{"title":"C"}, 42]`, 3)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"Named", "A", "B"}, []string{items[0].Title, items[1].Title, items[2].Title})
}

func TestParseItems_Failures(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"prose":        "I'm sorry, I can't help with that.",
		"empty array":  "[]",
		"object":       `{"title":"Dune"}`,
		"broken array": `[{"title":"Dune",]`,
		"no titles":    `[{"reason":"x"}, {"title":"  "}]`,
		"empty":        "",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseItems(raw, 10)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected ParseError, got %v", err)
			assert.Equal(t, raw, pe.Raw, "raw model text must be preserved")
		})
	}
}

func TestStripFences_LeavesUnfencedText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `[1,2]`, stripFences("  [1,2] "))
	assert.Equal(t, "[1]", stripFences("```JSON\n[1]\n```"))
}

func TestExtractArray(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `[{"a":[1]}]`, extractArray(`x [{"a":[1]}] y`))
	assert.Equal(t, "no array", extractArray("no array"))
	assert.Equal(t, "] [", extractArray("] ["))
}

func TestParseItems_EmptyArrayWrapsErrNoItems(t *testing.T) {
	t.Parallel()

	_, err := parseItems("[]", 10)
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = parseItems("nope", 10)
	assert.NotErrorIs(t, err, ErrNoItems)
}
