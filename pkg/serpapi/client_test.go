package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

func TestMapsSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/search.json", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "google_maps", q.Get("engine"))
		assert.Equal(t, "search", q.Get("type"))
		assert.Equal(t, "etichette a Milano", q.Get("q"))
		assert.Equal(t, "40", q.Get("start"))
		assert.Equal(t, "it", q.Get("hl"))
		assert.Equal(t, "it", q.Get("gl"))
		assert.Equal(t, "test-key", q.Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(MapsResponse{
			LocalResults: []Place{
				{Title: "Etichettificio Rossi", Website: "https://rossi.it", Phone: "02 123456", Address: "Via Po 1, 20100 Milano MI"},
				{Title: "No Site Srl", Address: "Via Roma 2, Milano"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.MapsSearch(context.Background(), "etichette a Milano", 40)

	require.NoError(t, err)
	places := resp.Places()
	require.Len(t, places, 2)
	assert.Equal(t, "Etichettificio Rossi", places[0].Title)
	assert.Equal(t, "https://rossi.it", places[0].Website)
	assert.Empty(t, places[1].Website)
}

func TestMapsSearch_PlaceResultsReplacesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"local_results": [{"title": "Ignored"}],
			"place_results": {"title": "Only One", "website": "https://one.it"}
		}`))
	}))
	defer srv.Close()

	resp, err := NewClient("k", WithBaseURL(srv.URL)).MapsSearch(context.Background(), "one", 0)
	require.NoError(t, err)

	places := resp.Places()
	require.Len(t, places, 1)
	assert.Equal(t, "Only One", places[0].Title)
}

func TestMapsSearch_EmptyIsNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"search_metadata": {"status": "Success"}}`))
	}))
	defer srv.Close()

	resp, err := NewClient("k", WithBaseURL(srv.URL)).MapsSearch(context.Background(), "nothing", 200)
	require.NoError(t, err)
	assert.Empty(t, resp.Places())
}

func TestMapsSearch_ProviderError(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusUnauthorized} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error": "Google hasn't returned any results for this query."}`))
		}))

		_, err := NewClient("k", WithBaseURL(srv.URL)).MapsSearch(context.Background(), "zzz a Milano", 20)
		srv.Close()

		require.Error(t, err)
		var pe *ProviderError
		require.True(t, errors.As(err, &pe), "status %d", status)
		assert.Equal(t, "zzz a Milano", pe.Query)
		assert.Equal(t, 20, pe.Offset)
		assert.Contains(t, pe.Message, "any results")
		assert.Contains(t, err.Error(), "offset 20")
	}
}

func TestMapsSearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).MapsSearch(context.Background(), "q", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")

	var pe *ProviderError
	assert.False(t, errors.As(err, &pe))
	assert.True(t, resilience.IsTransient(err))
}

func TestMapsSearch_ClientErrorIsNotTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("forbidden"))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).MapsSearch(context.Background(), "q", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 403")
	assert.False(t, resilience.IsTransient(err))
}

func TestMapsSearch_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).MapsSearch(context.Background(), "q", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal response")
}

func TestMapsSearch_Locale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en", r.URL.Query().Get("hl"))
		assert.Equal(t, "us", r.URL.Query().Get("gl"))
		_, _ = w.Write([]byte(`{"local_results": []}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL), WithLocale("en", "us")).MapsSearch(context.Background(), "q", 0)
	require.NoError(t, err)
}

func TestMapsSearch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient("k", WithBaseURL(srv.URL)).MapsSearch(ctx, "q", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send request")
}
