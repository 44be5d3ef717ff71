package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blakewatson/bookmarks/internal/archive"
	"github.com/blakewatson/bookmarks/internal/auth"
	"github.com/blakewatson/bookmarks/internal/bookmark"
	"github.com/blakewatson/bookmarks/internal/config"
	"github.com/blakewatson/bookmarks/internal/telemetry"
)

func TestMain(m *testing.M) {
	telemetry.Init()
	m.Run()
}

type fakeSubmitter struct {
	job archive.CaptureJob
	err error
}

func (s *fakeSubmitter) Submit(_ context.Context, _ string) (archive.CaptureJob, error) {
	return s.job, s.err
}

type fakePoller struct {
	raw archive.RawStatus
	err error
}

func (p *fakePoller) Poll(_ context.Context, _ string) (archive.RawStatus, error) {
	return p.raw, p.err
}

type fixture struct {
	server    *Server
	bookmarks *bookmark.Store
	records   *archive.FileRecordStore
}

func newFixture(t *testing.T, cfg config.Config, sub archive.Submitter, poll archive.Poller) fixture {
	t.Helper()

	dir := t.TempDir()
	bookmarks := bookmark.NewStore(filepath.Join(dir, "bookmarks.json"))
	require.NoError(t, bookmarks.Init())
	records := archive.NewFileRecordStore(filepath.Join(dir, "archives.json"))
	require.NoError(t, records.Init())

	if sub == nil {
		sub = &fakeSubmitter{job: archive.CaptureJob{JobID: "job1"}}
	}
	if poll == nil {
		poll = &fakePoller{raw: archive.RawStatus{
			Status:      archive.StatusSuccess,
			Timestamp:   "20240601120000",
			OriginalURL: "https://example.com",
		}}
	}
	coord := archive.NewCoordinator(sub, poll, archive.NewResolver(cfg.Archive.BaseURL), records, nil, zap.NewNop())

	return fixture{
		server:    NewServer(bookmarks, records, coord, cfg, zap.NewNop()),
		bookmarks: bookmarks,
		records:   records,
	}
}

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 8888},
		Data:   config.DataConfig{Dir: "unused"},
		Archive: config.ArchiveConfig{
			BaseURL:          "https://web.archive.org",
			PollDelaySeconds: 1,
			PollAttempts:     2,
			WaitForResult:    true,
		},
	}
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPingAndHealthz(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, testConfig(), nil, nil)
	h := fx.server.Handler()

	assert.Equal(t, http.StatusOK, doRequest(t, h, http.MethodGet, "/ping", nil, nil).Code)

	rec := doRequest(t, h, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTokenAuth(t *testing.T) {
	t.Parallel()

	hash, err := auth.HashToken("open sesame")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, TokenHash: hash}
	fx := newFixture(t, cfg, nil, nil)
	h := fx.server.Handler()

	rec := doRequest(t, h, http.MethodGet, "/api/bookmarks", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Auth failed."}`, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/api/bookmarks", nil, map[string]string{"BW-TOKEN": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/bookmarks", nil, map[string]string{"BW-TOKEN": "open sesame"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health endpoints stay open.
	assert.Equal(t, http.StatusOK, doRequest(t, h, http.MethodGet, "/ping", nil, nil).Code)
}

func TestBookmarksRoundTrip(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, testConfig(), nil, nil)
	h := fx.server.Handler()

	payload := []byte(`{
		"bookmarks": [{"id":"b1","title":"One","url":"https://one.test","description":"","tags":[],"created":1,"updated":1}],
		"tags": [],
		"bookmarksToTags": []
	}`)
	rec := doRequest(t, h, http.MethodPost, "/api/write", payload, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Bookmarks saved."}`, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/api/bookmarks", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var collection bookmark.Collection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &collection))
	require.Len(t, collection.Bookmarks, 1)
	assert.Equal(t, "b1", collection.Bookmarks[0].ID)
}

func TestWriteRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, testConfig(), nil, nil)
	rec := doRequest(t, fx.server.Handler(), http.MethodPost, "/api/write", []byte("{nope"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetArchivesEmptyArray(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, testConfig(), nil, nil)
	rec := doRequest(t, fx.server.Handler(), http.MethodGet, "/api/archives", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestArchiveURLValidation(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, testConfig(), nil, nil)
	h := fx.server.Handler()

	for _, body := range []string{
		`{}`,
		`{"bookmarkId":"abc123"}`,
		`{"url":"https://example.com"}`,
		`not json`,
	} {
		rec := doRequest(t, h, http.MethodPost, "/api/archive-url", []byte(body), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestArchiveURLSynchronousSuccess(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, testConfig(), nil, nil)
	body := []byte(`{"bookmarkId":"abc123","url":"https://example.com"}`)
	rec := doRequest(t, fx.server.Handler(), http.MethodPost, "/api/archive-url", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Result  archive.Record `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Archived bookmark.", resp.Message)
	assert.Equal(t, "20240601120000/https://example.com", resp.Result.ArchiveID)
	assert.Equal(t, "https://web.archive.org/web/20240601120000/https://example.com", resp.Result.ArchiveURL)

	stored, found, err := fx.records.FindByBookmarkID("abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, resp.Result, stored)
}

func TestArchiveURLSynchronousPollFailure(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, testConfig(), nil, &fakePoller{err: archive.ErrPollTimeout})
	body := []byte(`{"bookmarkId":"abc123","url":"https://example.com"}`)
	rec := doRequest(t, fx.server.Handler(), http.MethodPost, "/api/archive-url", body, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])

	// The synchronous path reports instead of marking.
	_, found, err := fx.records.FindByBookmarkID("abc123")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestArchiveURLFireAndForget(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Archive.WaitForResult = false
	fx := newFixture(t, cfg, nil, nil)

	body := []byte(`{"bookmarkId":"abc123","url":"https://example.com"}`)
	rec := doRequest(t, fx.server.Handler(), http.MethodPost, "/api/archive-url", body, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Archiving in progress."}`, rec.Body.String())

	require.Eventually(t, func() bool {
		_, found, err := fx.records.FindByBookmarkID("abc123")
		return err == nil && found
	}, 2*time.Second, 10*time.Millisecond, "background attempt should persist a record")
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, testConfig(), nil, nil)
	rec := doRequest(t, fx.server.Handler(), http.MethodGet, "/ping", nil, nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
