package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conradoqg/maintenance-gate/internal/config"
)

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://example.com/s.json", ResolveURL("https://example.com/s.json", "abc123"))
	assert.Equal(t, "https://gist.githubusercontent.com/abc123/raw/maintenance-status.json", ResolveURL("", "abc123"))
	assert.Equal(t, "", ResolveURL("", config.GistPlaceholder))
	assert.Equal(t, "", ResolveURL("  ", ""))
}

func TestFromConfigUnconfigured(t *testing.T) {
	cfg := &config.Config{}
	cfg.Maintenance.GistID = config.GistPlaceholder
	assert.Nil(t, FromConfig(cfg))
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"maintenanceMode": true}`))
	require.NoError(t, err)
	assert.Equal(t, true, doc.Raw)
	assert.True(t, doc.Enabled())

	doc, err = ParseDocument([]byte(`{"maintenanceMode": "false", "note": "ignored"}`))
	require.NoError(t, err)
	assert.Equal(t, "false", doc.Raw)
	assert.False(t, doc.Enabled())

	for _, body := range []string{`not json`, `[]`, `{}`, `{"maintenanceMode": 1}`, `{"maintenanceMode": null}`} {
		_, err := ParseDocument([]byte(body))
		assert.Error(t, err, "body %s", body)
	}
}

func TestNormalize(t *testing.T) {
	assert.True(t, Normalize(true))
	assert.True(t, Normalize("true"))
	assert.False(t, Normalize("TRUE"))
	assert.False(t, Normalize("yes"))
	assert.False(t, Normalize(false))
	assert.False(t, Normalize(nil))
}

func TestHTTPSourceFetch(t *testing.T) {
	var gotQuery, gotCache, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotCache = r.Header.Get("Cache-Control")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"maintenanceMode":"true"}`))
	}))
	defer srv.Close()

	s := NewHTTPSource(srv.URL+"/status.json", "gate-test", srv.Client())
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }

	doc, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, doc.Enabled())
	assert.Equal(t, "t=1700000000123", gotQuery)
	assert.Equal(t, "no-cache", gotCache)
	assert.Equal(t, "gate-test", gotUA)
}

func TestHTTPSourceKeepsExistingQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"maintenanceMode":false}`))
	}))
	defer srv.Close()

	s := NewHTTPSource(srv.URL+"/status.json?ref=main", "", srv.Client())
	s.now = func() time.Time { return time.UnixMilli(42) }
	_, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ref=main&t=42", gotQuery)
}

func TestHTTPSourceLeavesQueryAsWritten(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"maintenanceMode":false}`))
	}))
	defer srv.Close()

	s := NewHTTPSource(srv.URL+"/status.json?z=1&a=b%2Fc&t=7", "", srv.Client())
	s.now = func() time.Time { return time.UnixMilli(99) }
	_, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "z=1&a=b%2Fc&t=7&t=99", gotQuery)
}

func TestHTTPSourceFailuresAreUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/500":
			w.WriteHeader(http.StatusInternalServerError)
		case "/html":
			_, _ = w.Write([]byte(`<html></html>`))
		case "/shape":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		}
	}))
	defer srv.Close()

	for _, path := range []string{"/500", "/html", "/shape"} {
		_, err := NewHTTPSource(srv.URL+path, "", srv.Client()).Fetch(context.Background())
		assert.ErrorIs(t, err, ErrUnavailable, "path %s", path)
	}

	srv.Close()
	_, err := NewHTTPSource(srv.URL+"/gone", "", nil).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
