package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsStatusAndRoute(t *testing.T) {
	Init()

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/bookmarks", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/bookmarks")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusTeapot, resp.StatusCode)

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "418"))
	assert.Equal(t, 1.0, got, "expected one request counted for GET/418")
}

func TestMiddlewareImplicitOK(t *testing.T) {
	Init()

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		// Body write without an explicit WriteHeader.
		_, _ = w.Write([]byte("pong"))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "200"))
	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "200"))
	assert.Equal(t, before+1, after, "implicit 200 should be counted as such")
}
