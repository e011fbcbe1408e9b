package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/require"
)

func newStubES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the client refuses responses without the product header
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("es client: %v", err)
	}
	return es
}

func TestSearchDecodesHits(t *testing.T) {
	es := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hits": {
				"total": {"value": 2},
				"hits": [
					{"_source": {"id": "p1", "title": "Hello", "content": "World"}},
					{"_source": {"id": "p2", "title": "Second", "content": "Post"}}
				]
			}
		}`))
	})

	total, posts, err := Search(context.Background(), es, "posts", "hello", 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, posts, 2)
	require.Equal(t, "p1", posts[0].ID)
	require.Equal(t, "Hello", posts[0].Title)
	require.Equal(t, "World", posts[0].Content)
	require.Equal(t, "Second", posts[1].Title)
}

func TestSearchSendsQuery(t *testing.T) {
	var got map[string]interface{}
	es := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits": {"total": {"value": 0}, "hits": []}}`))
	})

	total, posts, err := Search(context.Background(), es, "posts", "needle", 20, 10)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, posts)

	mm := got["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	require.Equal(t, "needle", mm["query"])
	require.Equal(t, float64(20), got["from"])
	require.Equal(t, float64(10), got["size"])
}

func TestSearchErrorStatus(t *testing.T) {
	es := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"type": "parsing_exception"}}`))
	})

	_, _, err := Search(context.Background(), es, "posts", "bad", 0, 10)
	require.Error(t, err)
}
