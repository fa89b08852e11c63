package server

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hero-lab/litscreen/internal/model"
	"github.com/hero-lab/litscreen/internal/screen"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			zap.L().Warn("health ping failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	n, err := s.LoadPapers(r.Context())
	if err != nil {
		zap.L().Error("load papers", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":   n,
		"columns": displayColumns,
	})
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var criteria screen.Criteria
	if err := decodeJSON(r, &criteria); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if criteria.MaxWords <= 0 {
		criteria.MaxWords = screen.DefaultCriteria().MaxWords
	}

	s.mu.Lock()
	var view []model.Paper
	for _, p := range s.papers {
		if screen.Matches(p.Title, criteria) {
			view = append(view, p)
		}
	}
	s.view = view
	s.criteria = criteria
	s.filtered = true
	total := len(s.papers)
	matched := len(view)
	s.mu.Unlock()

	// The view changed shape; stale swipe cursors must not survive.
	s.sessions.InvalidateAll()

	writeJSON(w, http.StatusOK, map[string]any{
		"total":   total,
		"matched": matched,
	})
}

func (s *Server) handleResetFilter(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.view = s.papers
	s.criteria = screen.Criteria{}
	s.filtered = false
	total := len(s.papers)
	s.mu.Unlock()

	s.sessions.InvalidateAll()

	writeJSON(w, http.StatusOK, map[string]any{
		"total":   total,
		"matched": total,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 500 {
		perPage = 20
	}
	search := strings.ToLower(r.URL.Query().Get("search"))

	view := s.snapshotView()
	if search != "" {
		var matched []model.Paper
		for _, p := range view {
			if strings.Contains(strings.ToLower(p.Title), search) {
				matched = append(matched, p)
			}
		}
		view = matched
	}

	start := (page - 1) * perPage
	if start > len(view) {
		start = len(view)
	}
	end := start + perPage
	if end > len(view) {
		end = len(view)
	}

	papers := view[start:end]
	if papers == nil {
		papers = []model.Paper{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"papers":   papers,
		"page":     page,
		"per_page": perPage,
		"total":    len(view),
	})
}

func (s *Server) handleWordFrequencies(w http.ResponseWriter, r *http.Request) {
	topN := queryInt(r, "top_n", 20)

	view := s.snapshotView()
	titles := make([]string, len(view))
	for i, p := range view {
		titles[i] = p.Title
	}

	freqs := screen.TextFrequencies(titles, topN)
	if freqs == nil {
		freqs = []screen.WordCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"word_frequencies": freqs})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	writePapersCSV(w, "filtered_papers.csv", s.snapshotView())
}

func (s *Server) handleRemoveRows(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Indices []int `json:"indices"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	drop := make(map[int]bool, len(req.Indices))
	for _, idx := range req.Indices {
		if idx >= 0 && idx < len(s.view) {
			drop[idx] = true
		}
	}
	kept := make([]model.Paper, 0, len(s.view)-len(drop))
	for i, p := range s.view {
		if !drop[i] {
			kept = append(kept, p)
		}
	}
	s.view = kept
	if len(drop) > 0 {
		s.filtered = true
	}
	removed := len(drop)
	remaining := len(kept)
	s.mu.Unlock()

	s.sessions.InvalidateAll()

	writeJSON(w, http.StatusOK, map[string]any{
		"removed":   removed,
		"remaining": remaining,
	})
}

// writePapersCSV streams papers as a CSV attachment with the fixed display
// column set.
func writePapersCSV(w http.ResponseWriter, filename string, papers []model.Paper) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	cw := csv.NewWriter(w)
	if err := cw.Write(displayColumns); err != nil {
		zap.L().Error("write csv header", zap.Error(err))
		return
	}
	for _, p := range papers {
		record := []string{
			strconv.FormatInt(p.ID, 10),
			p.Title, p.Authors, model.FormatYear(p.Year), p.Abstract, p.DOI, p.Source, p.NLPConfidence,
		}
		if err := cw.Write(record); err != nil {
			zap.L().Error("write csv row", zap.Error(err))
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		zap.L().Error("flush csv", zap.Error(err))
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
