package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTMDB_Lookup_Movie(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/search/movie", r.URL.Path)
		assert.Equal(t, "tmdb-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "Interstellar", r.URL.Query().Get("query"))
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))
		w.Write([]byte(`{"results":[{"id":157336,"title":"Interstellar","overview":"A team of explorers travel through a wormhole.","poster_path":"/gEU2Qni.jpg","release_date":"2014-11-05","vote_average":8.4,"vote_count":35000}]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	rec, err := NewTMDB("tmdb-key", "en-US", MediaMovie, WithBaseURL(srv.URL)).Lookup(context.Background(), "Interstellar")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/gEU2Qni.jpg", rec.Poster)
	assert.Equal(t, "2014", rec.Year)
	require.NotNil(t, rec.Rating)
	assert.InDelta(t, 8.4, *rec.Rating, 0.001)
	assert.Equal(t, "A team of explorers travel through a wormhole.", rec.Description)
}

func TestTMDB_Lookup_TVUsesFirstAirDate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/search/tv", r.URL.Path)
		w.Write([]byte(`{"results":[{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20","vote_average":0,"vote_count":0}]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	rec, err := NewTMDB("k", "", MediaTV, WithBaseURL(srv.URL)).Lookup(context.Background(), "Breaking Bad")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "2008", rec.Year)
	assert.Empty(t, rec.Poster)
	assert.Nil(t, rec.Rating, "unrated entries carry no rating")
}

func TestTMDB_Lookup_NoResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	rec, err := NewTMDB("k", "", MediaMovie, WithBaseURL(srv.URL)).Lookup(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestTMDB_Lookup_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewTMDB("bad", "", MediaMovie, WithBaseURL(srv.URL)).Lookup(context.Background(), "Inception")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, "tmdb_movie", se.Provider)
}

func TestTMDB_Similar(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/search/movie":
			w.Write([]byte(`{"results":[{"id":27205,"title":"Inception"}]}`)) //nolint:errcheck
		case "/3/movie/27205/recommendations":
			w.Write([]byte(`{"results":[{"id":1,"title":"Interstellar","release_date":"2014-11-05"},{"id":2,"title":""},{"id":3,"title":"The Prestige"},{"id":4,"title":"Tenet"}]}`)) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	out, err := NewTMDB("k", "", MediaMovie, WithBaseURL(srv.URL)).Similar(context.Background(), "Inception", 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Interstellar", out[0].Title)
	assert.Equal(t, "2014", out[0].Record.Year)
	assert.Equal(t, "The Prestige", out[1].Title)
	assert.Contains(t, out[0].Reason, "Inception")
}

func TestTMDB_Similar_UnknownTitle(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewTMDB("k", "", MediaMovie, WithBaseURL(srv.URL)).Similar(context.Background(), "zzzz", 5)
	assert.ErrorIs(t, err, ErrNotFound)
}
