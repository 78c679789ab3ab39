package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"search-audit/internal/common/config"
	"search-audit/internal/common/logger"
	"search-audit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, serverURL string, timeoutMs int) *Client {
	return NewClient(config.SearchConfig{
		BaseURL: serverURL,
		Path:    "/api/products/search",
		Limit:   10,
		Timeout: timeoutMs,
	}, logger.NewTestLogger(t))
}

func TestSearchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/products/search", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "lego set", req["query"])
		assert.Equal(t, float64(10), req["limit"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"products": []map[string]interface{}{
				{"id": "p1", "name": "LEGO City Set", "brand": "LEGO", "price": 29.99},
				{"id": "p2", "name": "LEGO Friends Set", "brand": "LEGO", "price": 39.99},
			},
			"total": 2,
		})
	}))
	defer server.Close()

	outcome := testClient(t, server.URL, 2000).Search(context.Background(), "lego set", 0)

	require.False(t, outcome.Failed())
	assert.Equal(t, 2, outcome.Count)
	assert.Equal(t, []string{"LEGO City Set", "LEGO Friends Set"}, outcome.ProductNames())
	assert.GreaterOrEqual(t, outcome.ElapsedMs, int64(0))
}

func TestSearchBareArrayResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "p1", "name": "Wooden Train Set"}]`))
	}))
	defer server.Close()

	outcome := testClient(t, server.URL, 2000).Search(context.Background(), "train set", 5)

	require.False(t, outcome.Failed())
	assert.Equal(t, 1, outcome.Count)
	assert.Equal(t, "Wooden Train Set", outcome.Products[0].Name)
}

func TestSearchZeroResultsIsNotFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products": [], "total": 0}`))
	}))
	defer server.Close()

	outcome := testClient(t, server.URL, 2000).Search(context.Background(), "xyzzy plugh", 5)

	assert.False(t, outcome.Failed())
	assert.Equal(t, 0, outcome.Count)
	assert.Equal(t, models.TransportNone, outcome.TransportError)
}

func TestSearchServerErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	outcome := testClient(t, server.URL, 2000).Search(context.Background(), "lego set", 5)

	assert.True(t, outcome.Failed())
	assert.Equal(t, models.TransportAPI, outcome.TransportError)
}

func TestSearchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"products": []}`))
	}))
	defer server.Close()

	outcome := testClient(t, server.URL, 50).Search(context.Background(), "lego set", 5)

	assert.True(t, outcome.Failed())
	assert.Equal(t, models.TransportTimeout, outcome.TransportError)
}

func TestSearchConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // port now refuses connections

	outcome := testClient(t, server.URL, 2000).Search(context.Background(), "lego set", 5)

	assert.True(t, outcome.Failed())
	assert.Equal(t, models.TransportNetwork, outcome.TransportError)
}

func TestSearchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products": [`))
	}))
	defer server.Close()

	outcome := testClient(t, server.URL, 2000).Search(context.Background(), "lego set", 5)

	assert.True(t, outcome.Failed())
	assert.Equal(t, models.TransportAPI, outcome.TransportError)
}
