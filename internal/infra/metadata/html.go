package metadata

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// plainText strips markup from provider descriptions. Line breaks become
// spaces and runs of whitespace collapse to one.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		p.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}
