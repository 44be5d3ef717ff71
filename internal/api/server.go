// Package api exposes the HTTP interface for the bookmarks service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blakewatson/bookmarks/internal/archive"
	"github.com/blakewatson/bookmarks/internal/auth"
	"github.com/blakewatson/bookmarks/internal/bookmark"
	"github.com/blakewatson/bookmarks/internal/config"
	"github.com/blakewatson/bookmarks/internal/telemetry"
)

// Server wires HTTP handlers to the stores and the archive coordinator.
type Server struct {
	router    chi.Router
	bookmarks *bookmark.Store
	records   archive.RecordStore
	coord     *archive.Coordinator
	cfg       config.Config
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	bookmarks *bookmark.Store,
	records archive.RecordStore,
	coord *archive.Coordinator,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		bookmarks: bookmarks,
		records:   records,
		coord:     coord,
		cfg:       cfg,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(telemetry.Middleware)
	r.Use(timeoutMiddleware(s.requestTimeout()))

	r.Get("/ping", s.ping)
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(tokenMiddleware(cfg.Auth.TokenHash))
		}
		r.Get("/bookmarks", s.getBookmarks)
		r.Post("/write", s.writeBookmarks)
		r.Get("/archives", s.getArchives)
		r.Post("/archive-url", s.archiveURL)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// requestTimeout leaves room for a full synchronous polling session plus the
// capture submission itself.
func (s *Server) requestTimeout() time.Duration {
	if !s.cfg.Archive.WaitForResult {
		return 60 * time.Second
	}
	budget := time.Duration(s.cfg.Archive.PollAttempts) * s.cfg.Archive.PollDelay()
	return budget + time.Minute
}

func (s *Server) ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getBookmarks(w http.ResponseWriter, _ *http.Request) {
	collection, err := s.bookmarks.Load()
	if err != nil {
		s.logger.Error("load bookmarks failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load bookmarks")
		return
	}
	writeJSON(w, http.StatusOK, collection)
}

func (s *Server) writeBookmarks(w http.ResponseWriter, r *http.Request) {
	var collection bookmark.Collection
	if err := json.NewDecoder(r.Body).Decode(&collection); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.bookmarks.Replace(collection); err != nil {
		s.logger.Error("write bookmarks failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save bookmarks")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Bookmarks saved.",
	})
}

func (s *Server) getArchives(w http.ResponseWriter, _ *http.Request) {
	records, err := s.records.All()
	if err != nil {
		s.logger.Error("load archives failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load archives")
		return
	}
	if records == nil {
		records = []archive.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

type archiveURLRequest struct {
	BookmarkID string `json:"bookmarkId"`
	URL        string `json:"url"`
}

func (s *Server) archiveURL(w http.ResponseWriter, r *http.Request) {
	var req archiveURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookmarkID == "" || req.URL == "" {
		writeError(w, http.StatusBadRequest, "Missing bookmark ID or URL.")
		return
	}
	ref := bookmark.Ref{ID: req.BookmarkID, URL: req.URL}

	if !s.cfg.Archive.WaitForResult {
		// Fire and forget: the attempt outlives the request, so it runs on
		// its own context and records failures instead of reporting them.
		go func() {
			if _, err := s.coord.Archive(context.Background(), ref, archive.MarkAttempted); err != nil {
				s.logger.Error("background archive failed",
					zap.String("bookmark_id", ref.ID),
					zap.Error(err),
				)
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]any{
			"success": true,
			"message": "Archiving in progress.",
		})
		return
	}

	rec, err := s.coord.Archive(r.Context(), ref, archive.ReportFailure)
	if err != nil {
		s.logger.Error("archive failed", zap.String("bookmark_id", ref.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Archived bookmark.",
		"result":  rec,
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("panic", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

// tokenMiddleware verifies the BW-TOKEN header against the stored bcrypt
// hash, matching the original single-user scheme.
func tokenMiddleware(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("BW-TOKEN")
			if !auth.VerifyToken(hash, token) {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"success": false,
					"error":   "Auth failed.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
