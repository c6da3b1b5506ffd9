package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/matiasleandrokruk/echopicks/internal/domain/recommend"
	"github.com/matiasleandrokruk/echopicks/internal/web"
)

func newTestViewHandler(t *testing.T, r Recommender, pageSize int) *ViewHandler {
	t.Helper()
	tmpl, err := web.Templates()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	return NewViewHandler(r, tmpl, pageSize)
}

func submitForm(h *ViewHandler, category, title string) *httptest.ResponseRecorder {
	form := url.Values{"category": {category}, "title": {title}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.Submit(w, req)
	return w
}

func TestViewHandler_Index(t *testing.T) {
	t.Parallel()

	h := newTestViewHandler(t, &recommenderStub{}, 6)
	w := httptest.NewRecorder()
	h.Index(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`<option value="book" selected>Book</option>`,
		`<option value="tv">TV Show</option>`,
		`data-page-size="6"`,
		`/static/app.js`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if !strings.Contains(body, `id="error" class="error" hidden`) {
		t.Error("error panel must start hidden")
	}
}

func TestViewHandler_Submit_RendersCardsWithDisclosure(t *testing.T) {
	t.Parallel()

	rating := 7.5
	items := make([]recommend.Item, 0, 8)
	for i := 1; i <= 8; i++ {
		items = append(items, recommend.Item{Title: fmt.Sprintf("Pick %d", i), Reason: "because"})
	}
	items[0].Poster = "https://image.tmdb.org/t/p/w500/p.jpg"
	items[0].Year = "2014"
	items[0].Rating = &rating
	items[0].Description = "Metadata overview"

	stub := &recommenderStub{res: &recommend.Result{Category: "movie", Items: items}}
	w := submitForm(newTestViewHandler(t, stub, 6), "films", "Inception")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if stub.last.Category != "films" || stub.last.Title != "Inception" {
		t.Errorf("unexpected input %+v", stub.last)
	}
	for _, want := range []string{
		`<option value="movie" selected>Movie</option>`,
		`value="Inception"`,
		`<img src="https://image.tmdb.org/t/p/w500/p.jpg"`,
		`(2014)`,
		`7.5`,
		`<p class="description">Metadata overview</p>`,
		`No Image`,
		`Show more (2)`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	more := body[strings.Index(body, `id="more"`):]
	if !strings.Contains(more, "Pick 7") || strings.Contains(more, "Pick 6<") {
		t.Error("cards past the page size belong in the disclosure block")
	}
}

func TestViewHandler_Submit_RendersError(t *testing.T) {
	t.Parallel()

	stub := &recommenderStub{err: &recommend.ParseError{Raw: `{"oops":true}`, Err: errors.New("no JSON array found")}}
	w := submitForm(newTestViewHandler(t, stub, 6), "book", "Dune")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, msgParseError) {
		t.Error("error message missing")
	}
	if !strings.Contains(body, "&#34;oops&#34;: true") {
		t.Errorf("raw payload must be pretty-printed and escaped: %s", body)
	}
}

func TestViewHandler_Submit_Validation(t *testing.T) {
	t.Parallel()

	stub := &recommenderStub{err: &recommend.ValidationError{Message: recommend.MsgRequired}}
	w := submitForm(newTestViewHandler(t, stub, 6), "book", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), recommend.MsgRequired) {
		t.Error("validation message missing")
	}
}
