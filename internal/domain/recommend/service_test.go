package recommend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/echopicks/internal/infra/llm"
	"github.com/matiasleandrokruk/echopicks/internal/infra/metadata"
)

type llmStub struct {
	resp  string
	err   error
	calls atomic.Int32
	last  llm.ChatRequest
	mu    sync.Mutex
}

func (s *llmStub) ChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.last = req
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{Content: s.resp}, nil
}

func (s *llmStub) ModelInfo() llm.ModelMeta {
	return llm.ModelMeta{ID: "stub-model", Provider: "stub"}
}

func (s *llmStub) HealthCheck(_ context.Context) error { return nil }

type routerStub struct {
	p   llm.LLMProvider
	err error
}

func (r routerStub) RouteTo(_ context.Context, _ string) (llm.LLMProvider, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.p, nil
}

type enricherStub struct {
	name    string
	records map[string]*metadata.Record
	fail    map[string]error
	calls   atomic.Int32
	similar []metadata.Suggestion
}

func (e *enricherStub) Name() string { return e.name }

func (e *enricherStub) Lookup(_ context.Context, title string) (*metadata.Record, error) {
	e.calls.Add(1)
	if err := e.fail[title]; err != nil {
		return nil, err
	}
	return e.records[title], nil
}

type similarStub struct {
	*enricherStub
}

func (s similarStub) Similar(_ context.Context, _ string, limit int) ([]metadata.Suggestion, error) {
	if len(s.similar) > limit {
		return s.similar[:limit], nil
	}
	return s.similar, nil
}

func ptr(f float64) *float64 { return &f }

const fiveMovies = `[
  {"title":"Interstellar","reason":"Same director, mind-bending science."},
  {"title":"The Prestige","reason":"Nolan puzzle box."},
  {"title":"Shutter Island","reason":"Layered reality and DiCaprio."},
  {"title":"The Matrix","reason":"Questioning reality."},
  {"title":"Paprika","reason":"The dream-heist film that inspired it."}
]`

func newTestService(stub *llmStub, reg *Registry, opts Options) *Service {
	return NewService(routerStub{p: stub}, reg, nil, opts)
}

func TestRecommend_ValidationError_NoOutboundCalls(t *testing.T) {
	t.Parallel()

	tests := []Input{
		{Category: "", Title: "Inception"},
		{Category: "movie", Title: ""},
		{Category: "  ", Title: "Inception"},
		{Category: "movie", Title: "\t "},
		{},
	}
	for _, in := range tests {
		stub := &llmStub{resp: fiveMovies}
		enr := &enricherStub{name: "tmdb_movie"}
		reg := NewRegistry()
		require.NoError(t, reg.Register("movie", enr))

		_, err := newTestService(stub, reg, Options{}).Recommend(context.Background(), in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "input %+v", in)
		assert.Equal(t, MsgRequired, ve.Message)
		assert.Zero(t, stub.calls.Load(), "model must not be called")
		assert.Zero(t, enr.calls.Load(), "metadata must not be called")
	}
}

func TestRecommend_FiveItemsEnrichedInOrder(t *testing.T) {
	t.Parallel()

	stub := &llmStub{resp: fiveMovies}
	enr := &enricherStub{name: "tmdb_movie", records: map[string]*metadata.Record{
		"Interstellar": {Poster: "https://image.tmdb.org/t/p/w500/i.jpg", Year: "2014", Rating: ptr(8.4), Description: "Wormhole."},
		"The Matrix":   {Year: "1999"},
	}}
	reg := NewRegistry()
	require.NoError(t, reg.Register("movie", enr))

	res, err := newTestService(stub, reg, Options{}).Recommend(context.Background(), Input{Category: "films", Title: "Inception"})
	require.NoError(t, err)
	assert.Equal(t, "movie", res.Category)
	assert.False(t, res.Fallback)
	require.Len(t, res.Items, 5)

	wantTitles := []string{"Interstellar", "The Prestige", "Shutter Island", "The Matrix", "Paprika"}
	for i, it := range res.Items {
		assert.Equal(t, wantTitles[i], it.Title)
		assert.NotEmpty(t, it.Reason)
	}
	assert.Equal(t, "2014", res.Items[0].Year)
	assert.Equal(t, "Wormhole.", res.Items[0].Description)
	require.NotNil(t, res.Items[0].Rating)
	assert.Equal(t, "1999", res.Items[3].Year)
	assert.Empty(t, res.Items[1].Poster)
	assert.Nil(t, res.Items[1].Rating)
	assert.Equal(t, int32(5), enr.calls.Load(), "one lookup per item")

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Contains(t, stub.last.Messages[1].Content, "movies")
	require.NotNil(t, stub.last.Temperature)
	assert.InDelta(t, 0.7, *stub.last.Temperature, 0.001)
}

func TestRecommend_ExplicitZeroTemperature(t *testing.T) {
	t.Parallel()

	stub := &llmStub{resp: `["Dune"]`}
	svc := NewService(routerStub{p: stub}, nil, nil, Options{Temperature: llm.Float32(0)})
	_, err := svc.Recommend(context.Background(), Input{Category: "book", Title: "Hyperion"})
	require.NoError(t, err)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.NotNil(t, stub.last.Temperature)
	assert.Zero(t, *stub.last.Temperature)
}

func TestRecommend_ParseError_NoEnrichment(t *testing.T) {
	t.Parallel()

	stub := &llmStub{resp: "Here are some great picks: Interstellar, Tenet."}
	enr := &enricherStub{name: "tmdb_movie"}
	reg := NewRegistry()
	require.NoError(t, reg.Register("movie", enr))

	_, err := newTestService(stub, reg, Options{}).Recommend(context.Background(), Input{Category: "movie", Title: "Inception"})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, stub.resp, pe.Raw)
	assert.Zero(t, enr.calls.Load())
}

func TestRecommend_FencedOutputParses(t *testing.T) {
	t.Parallel()

	stub := &llmStub{resp: "```json\n" + fiveMovies + "\n```"}
	res, err := newTestService(stub, nil, Options{}).Recommend(context.Background(), Input{Category: "movie", Title: "Inception"})
	require.NoError(t, err)
	assert.Len(t, res.Items, 5)
}

func TestRecommend_OneLookupFails(t *testing.T) {
	t.Parallel()

	stub := &llmStub{resp: fiveMovies}
	rec := &metadata.Record{Year: "2000"}
	enr := &enricherStub{
		name: "tmdb_movie",
		records: map[string]*metadata.Record{
			"Interstellar": rec, "The Prestige": rec, "Shutter Island": rec, "The Matrix": rec, "Paprika": rec,
		},
		fail: map[string]error{"Shutter Island": errors.New("connection reset by peer")},
	}
	reg := NewRegistry()
	require.NoError(t, reg.Register("movie", enr))

	res, err := newTestService(stub, reg, Options{}).Recommend(context.Background(), Input{Category: "movie", Title: "Inception"})
	require.NoError(t, err)
	require.Len(t, res.Items, 5)
	for i, it := range res.Items {
		if it.Title == "Shutter Island" {
			assert.Empty(t, it.Year, "failing item has no metadata")
			assert.NotEmpty(t, it.Reason, "model fields survive a failed lookup")
			continue
		}
		assert.Equal(t, "2000", it.Year, "item %d", i)
	}
}

func TestRecommend_UnmappedCategorySkipsEnrichment(t *testing.T) {
	t.Parallel()

	stub := &llmStub{resp: `["Serial","Radiolab"]`}
	enr := &enricherStub{name: "tmdb_movie"}
	reg := NewRegistry()
	require.NoError(t, reg.Register("movie", enr))

	res, err := newTestService(stub, reg, Options{}).Recommend(context.Background(), Input{Category: "Podcast", Title: "This American Life"})
	require.NoError(t, err)
	assert.Equal(t, "podcast", res.Category)
	assert.Len(t, res.Items, 2)
	assert.Zero(t, enr.calls.Load())
}

func TestRecommend_ModelDescriptionKept(t *testing.T) {
	t.Parallel()

	stub := &llmStub{resp: `[{"title":"Dune","description":"From the model"}]`}
	enr := &enricherStub{name: "google_books", records: map[string]*metadata.Record{
		"Dune": {Description: "From Google Books", Year: "1965"},
	}}
	reg := NewRegistry()
	require.NoError(t, reg.Register("book", enr))

	res, err := newTestService(stub, reg, Options{}).Recommend(context.Background(), Input{Category: "novels", Title: "Hyperion"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "From the model", res.Items[0].Description)
	assert.Equal(t, "1965", res.Items[0].Year)
}

func TestRecommend_ProviderError(t *testing.T) {
	t.Parallel()

	stub := &llmStub{err: &llm.StatusError{Provider: "gemini", StatusCode: 429, Body: `{"error":{"status":"RESOURCE_EXHAUSTED"}}`}}
	_, err := newTestService(stub, nil, Options{}).Recommend(context.Background(), Input{Category: "movie", Title: "Inception"})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "stub", pe.Provider)
	assert.Equal(t, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`, pe.Raw())
	assert.Equal(t, int32(1), stub.calls.Load(), "no retry")
}

func TestRecommend_UnknownProvider(t *testing.T) {
	t.Parallel()

	svc := NewService(routerStub{err: errors.New(`llm router: provider "nope" not registered`)}, nil, nil, Options{Provider: "nope"})
	_, err := svc.Recommend(context.Background(), Input{Category: "movie", Title: "Inception"})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "nope", pe.Provider)
	assert.Contains(t, pe.Raw(), "not registered")
}

func TestRecommend_Timeout(t *testing.T) {
	t.Parallel()

	slow := &slowProvider{}
	svc := NewService(routerStub{p: slow}, nil, nil, Options{LLMTimeout: 20 * time.Millisecond})
	_, err := svc.Recommend(context.Background(), Input{Category: "movie", Title: "Inception"})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type slowProvider struct{ llmStub }

func (s *slowProvider) ChatCompletion(ctx context.Context, _ llm.ChatRequest) (*llm.ChatResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRecommend_Fallback(t *testing.T) {
	t.Parallel()

	base := &enricherStub{name: "tmdb_movie", similar: []metadata.Suggestion{
		{Title: "Interstellar", Reason: "Recommended on TMDB for fans of Inception", Record: &metadata.Record{Year: "2014"}},
		{Title: "Tenet", Reason: "Recommended on TMDB for fans of Inception"},
	}}
	reg := NewRegistry()
	require.NoError(t, reg.Register("movie", similarStub{base}))

	failing := &llmStub{err: errors.New("gemini: status 503")}

	_, err := newTestService(failing, reg, Options{}).Recommend(context.Background(), Input{Category: "movie", Title: "Inception"})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe, "fallback is off by default")

	res, err := newTestService(failing, reg, Options{FallbackEnabled: true}).Recommend(context.Background(), Input{Category: "movie", Title: "Inception"})
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Interstellar", res.Items[0].Title)
	assert.Equal(t, "2014", res.Items[0].Year)
	assert.NotEmpty(t, res.Items[1].Reason)
}

func TestRecommend_FallbackNotForParseErrors(t *testing.T) {
	t.Parallel()

	base := &enricherStub{name: "tmdb_movie", similar: []metadata.Suggestion{{Title: "Tenet"}}}
	reg := NewRegistry()
	require.NoError(t, reg.Register("movie", similarStub{base}))

	stub := &llmStub{resp: "not json"}
	_, err := newTestService(stub, reg, Options{FallbackEnabled: true}).Recommend(context.Background(), Input{Category: "movie", Title: "Inception"})
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestRecommend_FallbackWithoutFinder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.NoError(t, reg.Register("book", &enricherStub{name: "google_books"}))

	failing := &llmStub{err: errors.New("boom")}
	_, err := newTestService(failing, reg, Options{FallbackEnabled: true}).Recommend(context.Background(), Input{Category: "book", Title: "Dune"})
	var pe *ProviderError
	assert.ErrorAs(t, err, &pe)
}

// slowOllama answers /api/chat after delay unless the caller gives up first.
func slowOllama(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":{"role":"assistant","content":"[\"Dune\"]"},"done":true}`)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRecommend_LLMTimeoutGovernsProviderCall(t *testing.T) {
	t.Parallel()

	srv := slowOllama(t, 150*time.Millisecond)
	router := llm.NewRouter(map[string]llm.LLMProvider{"ollama": llm.NewOllamaProvider(srv.URL, "llama3.2:3b")}, "ollama")

	patient := NewService(router, nil, nil, Options{LLMTimeout: 5 * time.Second})
	res, err := patient.Recommend(context.Background(), Input{Category: "book", Title: "Hyperion"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Dune", res.Items[0].Title)

	hasty := NewService(router, nil, nil, Options{LLMTimeout: 30 * time.Millisecond})
	_, err = hasty.Recommend(context.Background(), Input{Category: "book", Title: "Hyperion"})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
