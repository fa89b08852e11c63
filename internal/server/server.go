// Package server exposes the screening catalog and swipe workflow as a
// JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hero-lab/litscreen/internal/dataset"
	"github.com/hero-lab/litscreen/internal/model"
	"github.com/hero-lab/litscreen/internal/screen"
	"github.com/hero-lab/litscreen/internal/session"
	"github.com/hero-lab/litscreen/internal/store"
)

// displayColumns is the fixed column set of API previews and CSV exports.
var displayColumns = []string{"id", "title", "authors", "year", "abstract", "doi", "source", "nlp_confidence"}

// Server holds the catalog, the current filtered view, and per-reviewer
// swipe sessions. The store is optional: without one the server runs in
// dataset-only mode where decisions live in memory for the session.
type Server struct {
	store       store.Store
	sessions    *session.Manager
	datasetPath string

	mu       sync.RWMutex
	papers   []model.Paper
	view     []model.Paper
	criteria screen.Criteria
	filtered bool
}

// New creates a Server. st may be nil for dataset-only mode.
func New(st store.Store, datasetPath string) *Server {
	return &Server{
		store:       st,
		sessions:    session.NewManager(),
		datasetPath: datasetPath,
	}
}

// Router builds the chi handler for all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Get("/load", s.handleLoad)
		r.Post("/filter", s.handleFilter)
		r.Post("/reset", s.handleResetFilter)
		r.Get("/preview", s.handlePreview)
		r.Get("/word_frequencies", s.handleWordFrequencies)
		r.Get("/export", s.handleExport)
		r.Post("/remove_rows", s.handleRemoveRows)

		r.Route("/swipe", func(r chi.Router) {
			r.Get("/current", s.handleSwipeCurrent)
			r.Post("/decision", s.handleSwipeDecision)
			r.Post("/reset", s.handleSwipeReset)
			r.Get("/export_kept", s.handleSwipeExportKept)
		})
	})

	return r
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server listening", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "server: shutdown")
		}
		zap.L().Info("server stopped")
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server: listen")
		}
		return nil
	}
}

// LoadPapers refreshes the catalog from the store when one is configured,
// otherwise from the dataset file, and resets the view to the full catalog.
func (s *Server) LoadPapers(ctx context.Context) (int, error) {
	var papers []model.Paper
	var err error

	if s.store != nil {
		papers, err = s.store.ListPapers(ctx)
		if err != nil {
			return 0, err
		}
	} else {
		papers, err = loadPapersFromFile(s.datasetPath)
		if err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	s.papers = papers
	s.view = papers
	s.criteria = screen.Criteria{}
	s.filtered = false
	s.mu.Unlock()
	s.sessions.InvalidateAll()

	return len(papers), nil
}

// loadPapersFromFile maps a bibliographic export onto papers using column
// detection. Row order assigns the session-local IDs.
func loadPapersFromFile(path string) ([]model.Paper, error) {
	if path == "" {
		return nil, eris.New("server: no dataset path configured")
	}
	t, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}

	titleCol := dataset.TitleColumn(t.Header)
	col := func(concept string) int {
		if idx, ok := dataset.DetectColumn(t.Header, concept); ok {
			return idx
		}
		return -1
	}
	authorsCol, yearCol := col("authors"), col("year")
	abstractCol, doiCol, sourceCol := col("abstract"), col("doi"), col("source")

	cell := func(row, c int) string {
		if c < 0 {
			return ""
		}
		return t.Cell(row, c)
	}

	papers := make([]model.Paper, 0, t.Len())
	for i := range t.Rows {
		papers = append(papers, model.Paper{
			ID:       int64(i + 1),
			Title:    t.Cell(i, titleCol),
			Authors:  cell(i, authorsCol),
			Year:     model.ParseYear(cell(i, yearCol)),
			Abstract: cell(i, abstractCol),
			DOI:      cell(i, doiCol),
			Source:   cell(i, sourceCol),
		})
	}
	return papers, nil
}

// snapshotView returns the current filtered view.
func (s *Server) snapshotView() []model.Paper {
	view, _ := s.snapshotViewState()
	return view
}

// snapshotViewState returns the current view and whether it has been
// narrowed from the full catalog by a filter or row removal.
func (s *Server) snapshotViewState() ([]model.Paper, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := make([]model.Paper, len(s.view))
	copy(view, s.view)
	return view, s.filtered
}

func (s *Server) isFiltered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filtered
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return eris.Wrap(err, "server: decode request body")
	}
	return nil
}
