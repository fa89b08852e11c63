// Package session tracks per-reviewer swipe state over an ordered list of
// candidate papers.
package session

import (
	"sync"

	"github.com/rotisserie/eris"

	"github.com/hero-lab/litscreen/internal/model"
)

// Candidate is the paper currently awaiting a verdict.
type Candidate struct {
	Paper model.Paper `json:"paper"`
	Index int         `json:"index"`
	Total int         `json:"total"`
}

// Session walks one reviewer through the candidate list exactly once per
// pass. All methods are safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	papers   []model.Paper
	cursor   int
	kept     []int64
	rejected []int64

	// Tallies carried over from persisted progress when a session is
	// restored mid-pass. Decisions made before the restore have no paper
	// IDs here, only counts.
	baseKept     int
	baseRejected int
}

// New creates a session positioned at the start of papers.
func New(papers []model.Paper) *Session {
	return Restore(papers, 0, 0, 0)
}

// Restore creates a session resuming at cursor with the given prior
// tallies. A cursor past the end leaves the session exhausted, which is how
// a finished pass is restored from persisted progress.
func Restore(papers []model.Paper, cursor, kept, rejected int) *Session {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(papers) {
		cursor = len(papers)
	}
	if kept < 0 {
		kept = 0
	}
	if rejected < 0 {
		rejected = 0
	}
	return &Session{papers: papers, cursor: cursor, baseKept: kept, baseRejected: rejected}
}

// Current returns the paper awaiting a verdict, or ok=false when the pass
// is complete.
func (s *Session) Current() (Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.papers) {
		return Candidate{Index: s.cursor, Total: len(s.papers)}, false
	}
	return Candidate{
		Paper: s.papers[s.cursor],
		Index: s.cursor,
		Total: len(s.papers),
	}, true
}

// Decide records a verdict for the current paper and advances the cursor by
// exactly one. Deciding past the end is an error.
func (s *Session) Decide(decision string) (model.Paper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.papers) {
		return model.Paper{}, eris.New("session: no papers left to decide")
	}

	p := s.papers[s.cursor]
	switch decision {
	case model.DecisionKeep:
		s.kept = append(s.kept, p.ID)
	case model.DecisionReject:
		s.rejected = append(s.rejected, p.ID)
	default:
		return model.Paper{}, eris.Errorf("session: invalid decision %q", decision)
	}
	s.cursor++
	return p, nil
}

// Cursor returns the number of papers decided so far in this pass.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Counts returns how many papers were kept and rejected in this pass,
// including tallies restored from persisted progress.
func (s *Session) Counts() (kept, rejected int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseKept + len(s.kept), s.baseRejected + len(s.rejected)
}

// KeptIDs returns the IDs of papers kept in this pass, in decision order.
func (s *Session) KeptIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, len(s.kept))
	copy(ids, s.kept)
	return ids
}

// Kept returns the full kept papers in decision order.
func (s *Session) Kept() []model.Paper {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[int64]model.Paper, len(s.papers))
	for _, p := range s.papers {
		byID[p.ID] = p
	}
	papers := make([]model.Paper, 0, len(s.kept))
	for _, id := range s.kept {
		if p, ok := byID[id]; ok {
			papers = append(papers, p)
		}
	}
	return papers
}

// Reset rewinds the session to the start of the candidate list and clears
// its tallies.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = 0
	s.kept = nil
	s.rejected = nil
	s.baseKept = 0
	s.baseRejected = 0
}
