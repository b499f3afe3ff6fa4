package search

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-identity/internal/domain/entity"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(t *testing.T, fn roundTripFunc) *elasticsearch.Client {
	t.Helper()
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://es.test:9200"},
		Transport: fn,
	})
	require.NoError(t, err)
	return es
}

func jsonResponse(status int, body string) *http.Response {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{StatusCode: status, Header: h, Body: io.NopCloser(strings.NewReader(body))}
}

func TestDocumentOmitsSecrets(t *testing.T) {
	birth := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	doc := document(&entity.User{ID: "u-1", Email: "a@example.com", Password: "cipher", ExternalID: "g-1", BirthDate: &birth})

	assert.NotContains(t, doc, "password")
	assert.NotContains(t, doc, "external_id")
	assert.Equal(t, "1990-05-01", doc["birth_date"])
}

func TestBuildQuery_ClampsSize(t *testing.T) {
	assert.Equal(t, 10, BuildQuery("a", 0)["size"])
	assert.Equal(t, 10, BuildQuery("a", 500)["size"])
	assert.Equal(t, 25, BuildQuery("a", 25)["size"])
}

func TestUserIndex_Search(t *testing.T) {
	es := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/users/_search", r.URL.Path)
		return jsonResponse(200, `{"hits":{"hits":[{"_id":"u-1","_source":{"id":"u-1","name":"Ana"}}]}}`), nil
	})

	hits, err := NewUserIndex(es, "users", nil).Search(context.Background(), "ana", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Ana", hits[0]["name"])
}

func TestUserIndex_DeleteMissingIsOK(t *testing.T) {
	es := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodDelete, r.Method)
		return jsonResponse(404, `{"result":"not_found"}`), nil
	})

	assert.NoError(t, NewUserIndex(es, "users", nil).Delete(context.Background(), "u-1"))
}

func TestUserIndex_NilClientIsNoop(t *testing.T) {
	x := NewUserIndex(nil, "users", nil)

	assert.NoError(t, x.Index(context.Background(), &entity.User{ID: "u-1"}))
	assert.NoError(t, x.Delete(context.Background(), "u-1"))
	hits, err := x.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
