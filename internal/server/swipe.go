package server

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hero-lab/litscreen/internal/model"
	"github.com/hero-lab/litscreen/internal/session"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no store configured")
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		zap.L().Error("login lookup", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	zap.L().Info("login", zap.String("username", u.Username), zap.Int64("user_id", u.ID))
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// reviewerKey identifies the swipe session. With a store configured it must
// be the numeric user id returned by login.
func (s *Server) reviewerKey(r *http.Request) (string, int64, bool) {
	key := r.Header.Get("X-User-ID")
	if key == "" {
		return "", 0, false
	}
	if s.store != nil {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			return "", 0, false
		}
		return key, id, true
	}
	return key, 0, true
}

// decisionFromWire maps the swipe API's "Y"/"N" payload encoding onto the
// persisted decision values.
func decisionFromWire(wire string) (string, bool) {
	switch wire {
	case "Y":
		return model.DecisionKeep, true
	case "N":
		return model.DecisionReject, true
	}
	return "", false
}

// reviewerSession returns the reviewer's session, creating one over the
// current view snapshot. With a store configured and the full catalog in
// view, persisted progress is restored so a reviewer resumes where they
// left off. The persisted cursor indexes the catalog ordering, so it never
// seeds a session over a filtered view.
func (s *Server) reviewerSession(r *http.Request) (*session.Session, int64, bool) {
	key, userID, ok := s.reviewerKey(r)
	if !ok {
		return nil, 0, false
	}

	sess, err := s.sessions.GetOrCreate(key, func() (*session.Session, error) {
		view, filtered := s.snapshotViewState()
		if s.store != nil && !filtered {
			p, err := s.store.GetProgress(r.Context(), userID)
			if err != nil {
				return nil, err
			}
			return session.Restore(view, p.Cursor, p.TotalKept, p.TotalRejected), nil
		}
		return session.New(view), nil
	})
	if err != nil {
		zap.L().Error("create session", zap.Error(err))
		return nil, 0, false
	}
	return sess, userID, true
}

func (s *Server) handleSwipeCurrent(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.reviewerSession(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or invalid X-User-ID header")
		return
	}

	c, active := sess.Current()
	if !active {
		kept, rejected := sess.Counts()
		writeJSON(w, http.StatusOK, map[string]any{
			"exhausted": true,
			"kept":      kept,
			"rejected":  rejected,
			"total":     c.Total,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidate": c})
}

func (s *Server) handleSwipeDecision(w http.ResponseWriter, r *http.Request) {
	sess, userID, ok := s.reviewerSession(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or invalid X-User-ID header")
		return
	}

	var req struct {
		Decision string `json:"decision"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	decision, ok := decisionFromWire(req.Decision)
	if !ok {
		writeError(w, http.StatusBadRequest, "decision must be Y or N")
		return
	}

	if _, active := sess.Current(); !active {
		writeError(w, http.StatusConflict, "no papers left to decide")
		return
	}

	paper, err := sess.Decide(decision)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.store != nil {
		// Cursor 0 leaves the persisted catalog cursor untouched when the
		// session walks a filtered view; the decision itself still counts.
		cursor := 0
		if !s.isFiltered() {
			cursor = sess.Cursor()
		}
		if err := s.store.RecordDecision(r.Context(), userID, paper.ID, decision, cursor); err != nil {
			zap.L().Error("record decision",
				zap.Int64("user_id", userID),
				zap.Int64("paper_id", paper.ID),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "failed to persist decision")
			return
		}
	}

	resp := map[string]any{
		"recorded": req.Decision,
		"paper_id": paper.ID,
	}
	if next, active := sess.Current(); active {
		resp["candidate"] = next
	} else {
		kept, rejected := sess.Counts()
		resp["exhausted"] = true
		resp["kept"] = kept
		resp["rejected"] = rejected
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSwipeReset(w http.ResponseWriter, r *http.Request) {
	sess, userID, ok := s.reviewerSession(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or invalid X-User-ID header")
		return
	}

	if s.store != nil {
		if err := s.store.ResetProgress(r.Context(), userID); err != nil {
			zap.L().Error("reset progress", zap.Int64("user_id", userID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to reset progress")
			return
		}
	}
	sess.Reset()

	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

func (s *Server) handleSwipeExportKept(w http.ResponseWriter, r *http.Request) {
	sess, userID, ok := s.reviewerSession(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or invalid X-User-ID header")
		return
	}

	if s.store != nil {
		papers, err := s.store.KeptPapers(r.Context(), userID)
		if err != nil {
			zap.L().Error("export kept", zap.Int64("user_id", userID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to export kept papers")
			return
		}
		writePapersCSV(w, "kept_papers.csv", papers)
		return
	}
	writePapersCSV(w, "kept_papers.csv", sess.Kept())
}
