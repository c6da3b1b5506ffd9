package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/matiasleandrokruk/echopicks/internal/domain/category"
	"github.com/matiasleandrokruk/echopicks/internal/domain/recommend"
	"github.com/matiasleandrokruk/echopicks/internal/infra/logging"
)

var categoryLabels = map[string]string{
	category.Book:  "Book",
	category.Movie: "Movie",
	category.Anime: "Anime",
	category.Game:  "Game",
	category.TV:    "TV Show",
}

// ViewHandler serves the Recommendation View. GET renders the empty form;
// POST runs the same pipeline as the JSON API and renders the outcome, so
// the page works without JavaScript.
type ViewHandler struct {
	recommender Recommender
	tmpl        *template.Template
	pageSize    int
}

func NewViewHandler(r Recommender, tmpl *template.Template, pageSize int) *ViewHandler {
	if pageSize < 1 {
		pageSize = 6
	}
	return &ViewHandler{recommender: r, tmpl: tmpl, pageSize: pageSize}
}

type categoryOption struct {
	Value    string
	Label    string
	Selected bool
}

type viewData struct {
	Categories []categoryOption
	Title      string
	Visible    []recommend.Item
	Hidden     []recommend.Item
	Fallback   bool
	Error      string
	Raw        string
	PageSize   int
}

func (h *ViewHandler) data(selected, title string) viewData {
	if selected == "" {
		selected = category.Book
	}
	opts := make([]categoryOption, 0, len(category.All()))
	for _, c := range category.All() {
		opts = append(opts, categoryOption{Value: c, Label: categoryLabels[c], Selected: c == selected})
	}
	return viewData{Categories: opts, Title: title, PageSize: h.pageSize}
}

// Index handles GET /.
func (h *ViewHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.data("", ""))
}

// Submit handles POST / with form fields category and title.
func (h *ViewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		d := h.data("", "")
		d.Error = msgInvalidBody
		h.render(w, r, http.StatusBadRequest, d)
		return
	}

	cat, title := r.PostFormValue("category"), r.PostFormValue("title")
	d := h.data(category.Normalize(cat), title)

	res, err := h.recommender.Recommend(r.Context(), recommend.Input{Category: cat, Title: title})
	if err != nil {
		status, msg, raw := describeError(err)
		d.Error, d.Raw = msg, prettyRaw(raw)
		h.render(w, r, status, d)
		return
	}

	d.Fallback = res.Fallback
	d.Visible = res.Items
	if len(res.Items) > h.pageSize {
		d.Visible, d.Hidden = res.Items[:h.pageSize], res.Items[h.pageSize:]
	}
	h.render(w, r, http.StatusOK, d)
}

func (h *ViewHandler) render(w http.ResponseWriter, r *http.Request, status int, d viewData) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "index.html", d); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("render view")
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck
}
