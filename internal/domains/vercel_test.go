package domains

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, h http.HandlerFunc) *VercelClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewVercelClient("tok", "prj_1", "team_1", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestVercelAdd(t *testing.T) {
	c := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v10/projects/prj_1/domains", r.URL.Path)
		assert.Equal(t, "team_1", r.URL.Query().Get("teamId"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "links.example.com", body["name"])
		w.Write([]byte(`{"name":"links.example.com","verified":false}`))
	})
	assert.NoError(t, c.Add(context.Background(), "links.example.com"))
}

func TestVercelAddError(t *testing.T) {
	c := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"code":"domain_already_in_use","message":"in use"}}`))
	})
	err := c.Add(context.Background(), "taken.example.com")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "domain_already_in_use", apiErr.Code)
}

func TestVercelVerify(t *testing.T) {
	c := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v9/projects/prj_1/domains/links.example.com/verify", r.URL.Path)
		w.Write([]byte(`{"verified":true}`))
	})
	ok, err := c.Verify(context.Background(), "links.example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVercelRemoveIgnoresNotFound(t *testing.T) {
	c := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	})
	assert.NoError(t, c.Remove(context.Background(), "gone.example.com"))
}
