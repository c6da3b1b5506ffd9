package recommend

import (
	"fmt"

	"github.com/matiasleandrokruk/echopicks/internal/domain/category"
	"github.com/matiasleandrokruk/echopicks/internal/infra/llm"
)

// promptCount is how many items the model is asked for.
const promptCount = 5

const systemPrompt = "You are a media recommendation engine. You answer with a JSON array only."

var categoryLabels = map[string]string{
	category.Book:  "books",
	category.Movie: "movies",
	category.Anime: "anime series",
	category.Game:  "video games",
	category.TV:    "TV series",
}

func label(cat string) string {
	if l, ok := categoryLabels[cat]; ok {
		return l
	}
	return cat + " titles"
}

func buildMessages(cat, title string) []llm.Message {
	user := fmt.Sprintf(`Recommend exactly %d %s similar to %q.
Return ONLY a JSON array in this format:
[{"title": "...", "reason": "one sentence on why it is similar"}]
Do not include any text before or after the array and do not wrap it in Markdown code fences.
Only recommend titles that really exist, and do not include %q itself.`,
		promptCount, label(cat), title, title)

	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user},
	}
}
