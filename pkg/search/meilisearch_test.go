package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchBrokers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes/brokers/search", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "torres", body["q"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":[{"id":"b1"},{"id":"b2"},{"name":"no id"}],"estimatedTotalHits":3,"processingTimeMs":1,"query":"torres"}`))
	}))
	defer srv.Close()

	ids, err := NewSearchClient(srv.URL, "").SearchBrokers("torres", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2"}, ids)
}

func TestIndexBrokers_Empty(t *testing.T) {
	assert.NoError(t, NewSearchClient("http://127.0.0.1:1", "").IndexBrokers(nil))
}
