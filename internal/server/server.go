// Package server exposes the aggregator and the research store over a JSON
// HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/TobiSchelling/researchlens/internal/database"
	"github.com/TobiSchelling/researchlens/internal/fetch"
	"github.com/TobiSchelling/researchlens/internal/metrics"
	"github.com/TobiSchelling/researchlens/internal/research"
)

// Aggregator runs searches.
type Aggregator interface {
	Aggregate(ctx context.Context, req research.SearchRequest) (*research.SearchResult, error)
}

// Store is the persistence used by the history, saved research and folder
// routes.
type Store interface {
	CreateHistory(ctx context.Context, in database.HistoryInput) (*database.HistoryRecord, error)
	GetHistory(ctx context.Context, id int64) (*database.HistoryRecord, error)
	ListHistory(ctx context.Context, f database.HistoryFilter) ([]database.HistoryRecord, error)
	UpdateHistory(ctx context.Context, id int64, patch database.HistoryPatch) (*database.HistoryRecord, error)
	DeleteHistory(ctx context.Context, id int64) error

	CreateSaved(ctx context.Context, in database.SavedInput) (*database.SavedResearch, error)
	ListSaved(ctx context.Context, f database.SavedFilter) ([]database.SavedResearchEntry, error)
	UpdateSaved(ctx context.Context, id int64, patch database.SavedPatch) (*database.SavedResearch, error)
	DeleteSaved(ctx context.Context, id int64) error

	CreateFolder(ctx context.Context, userID, name string) (*database.Folder, error)
	ListFolders(ctx context.Context, userID string) ([]database.Folder, error)

	Ping(ctx context.Context) error
}

// Previewer extracts readable text from a source URL.
type Previewer interface {
	Preview(ctx context.Context, rawURL string) (*fetch.Preview, error)
}

// Options configure a Server. Zero values are valid.
type Options struct {
	CORSOrigins   []string
	StorageDriver string
	DefaultUserID string
	Previewer     Previewer
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	agg   Aggregator
	store Store
	opts  Options
	log   *slog.Logger
	mux   *http.ServeMux
}

// New creates a Server. A nil store disables persistence: list routes
// return empty arrays and write routes report 503.
func New(agg Aggregator, store Store, opts Options) *Server {
	if opts.DefaultUserID == "" {
		opts.DefaultUserID = database.DefaultUserID
	}
	if opts.StorageDriver == "" {
		opts.StorageDriver = "none"
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		agg:   agg,
		store: store,
		opts:  opts,
		log:   logger.With("component", "server"),
		mux:   http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server, including middleware.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})
	return s.recoverer(s.requestID(s.accessLog(c.Handler(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/search", s.handleSearch)

	s.mux.HandleFunc("POST /api/search-history", s.handleCreateHistory)
	s.mux.HandleFunc("GET /api/search-history", s.handleListHistory)
	s.mux.HandleFunc("PUT /api/search-history", s.handleUpdateHistory)
	s.mux.HandleFunc("DELETE /api/search-history", s.handleDeleteHistory)
	s.mux.HandleFunc("GET /api/search-history/{id}", s.handleGetHistory)
	s.mux.HandleFunc("GET /api/search-history/{id}/export", s.handleExportHistory)

	s.mux.HandleFunc("POST /api/saved-research", s.handleCreateSaved)
	s.mux.HandleFunc("GET /api/saved-research", s.handleListSaved)
	s.mux.HandleFunc("PUT /api/saved-research", s.handleUpdateSaved)
	s.mux.HandleFunc("DELETE /api/saved-research", s.handleDeleteSaved)

	s.mux.HandleFunc("POST /api/research-folders", s.handleCreateFolder)
	s.mux.HandleFunc("GET /api/research-folders", s.handleListFolders)

	if s.opts.Previewer != nil {
		s.mux.HandleFunc("GET /api/preview", s.handlePreview)
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		s.mux.Handle("GET /metrics", s.opts.Metrics.Handler())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "storage": s.opts.StorageDriver}
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			resp["status"] = "degraded"
			resp["error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
