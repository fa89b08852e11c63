package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hero-lab/litscreen/internal/config"
	"github.com/hero-lab/litscreen/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "litscreen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedUser(t *testing.T, s *SQLiteStore, username string) *model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), model.User{
		Username:     username,
		PasswordHash: "$2a$10$fakehash",
		DisplayName:  username,
		Role:         model.RoleContributor,
	})
	require.NoError(t, err)
	return u
}

func seedPapers(t *testing.T, s *SQLiteStore, titles ...string) []model.Paper {
	t.Helper()
	papers := make([]model.Paper, len(titles))
	for i, title := range titles {
		papers[i] = model.Paper{Title: title}
	}
	n, err := s.ImportPapers(context.Background(), papers)
	require.NoError(t, err)
	require.Equal(t, len(titles), n)

	stored, err := s.ListPapers(context.Background())
	require.NoError(t, err)
	return stored
}

func TestSQLiteStore_CreateAndGetUser(t *testing.T) {
	s := newTestSQLite(t)

	created := seedUser(t, s, "alex")
	assert.NotZero(t, created.ID)

	got, err := s.GetUserByUsername(context.Background(), "alex")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, model.RoleContributor, got.Role)
}

func TestSQLiteStore_GetUser_Missing(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetUserByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_DuplicateUsername(t *testing.T) {
	s := newTestSQLite(t)

	seedUser(t, s, "alex")
	_, err := s.CreateUser(context.Background(), model.User{
		Username: "alex", PasswordHash: "h", Role: model.RoleContributor,
	})
	require.Error(t, err)
}

func TestSQLiteStore_ImportAndListPapers(t *testing.T) {
	s := newTestSQLite(t)

	stored := seedPapers(t, s, "First paper", "Second paper")
	require.Len(t, stored, 2)
	assert.Equal(t, "First paper", stored[0].Title)
	assert.Equal(t, "Second paper", stored[1].Title)

	n, err := s.CountPapers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteStore_RecordDecision_LastWriteWins(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	u := seedUser(t, s, "alex")
	papers := seedPapers(t, s, "Only paper")
	paperID := papers[0].ID

	require.NoError(t, s.RecordDecision(ctx, u.ID, paperID, model.DecisionKeep, 1))
	require.NoError(t, s.RecordDecision(ctx, u.ID, paperID, model.DecisionReject, 1))

	// The unique constraint guarantees one row per (user, paper); the
	// counters are recomputed so they agree with the surviving decision.
	p, err := s.GetProgress(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.TotalKept)
	assert.Equal(t, 1, p.TotalRejected)

	kept, err := s.KeptPapers(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, kept)
}

func TestSQLiteStore_DecisionsPersistedAsKeepReject(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	u := seedUser(t, s, "alex")
	papers := seedPapers(t, s, "A", "B")

	require.NoError(t, s.RecordDecision(ctx, u.ID, papers[0].ID, model.DecisionKeep, 1))
	require.NoError(t, s.RecordDecision(ctx, u.ID, papers[1].ID, model.DecisionReject, 2))

	var decisions []string
	rows, err := s.db.QueryContext(ctx, `SELECT decision FROM swipe_decisions ORDER BY paper_id`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var d string
		require.NoError(t, rows.Scan(&d))
		decisions = append(decisions, d)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"keep", "reject"}, decisions)

	// The API's Y/N payload encoding never reaches the store.
	err = s.RecordDecision(ctx, u.ID, papers[0].ID, "Y", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid decision")
}

func TestSQLiteStore_YearNullableInteger(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.ImportPapers(ctx, []model.Paper{
		{Title: "Dated", Year: 2024},
		{Title: "Undated"},
	})
	require.NoError(t, err)

	stored, err := s.ListPapers(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 2024, stored[0].Year)
	assert.Equal(t, 0, stored[1].Year)
}

func TestSQLiteStore_CursorNeverMovesBackward(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	u := seedUser(t, s, "alex")
	papers := seedPapers(t, s, "A", "B", "C")

	require.NoError(t, s.RecordDecision(ctx, u.ID, papers[2].ID, model.DecisionKeep, 3))
	require.NoError(t, s.RecordDecision(ctx, u.ID, papers[0].ID, model.DecisionKeep, 1))

	p, err := s.GetProgress(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Cursor)
	assert.Equal(t, 2, p.TotalKept)
}

func TestSQLiteStore_ProgressCountsPerUser(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	alex := seedUser(t, s, "alex")
	sam := seedUser(t, s, "sam")
	papers := seedPapers(t, s, "A", "B")

	require.NoError(t, s.RecordDecision(ctx, alex.ID, papers[0].ID, model.DecisionKeep, 1))
	require.NoError(t, s.RecordDecision(ctx, alex.ID, papers[1].ID, model.DecisionReject, 2))
	require.NoError(t, s.RecordDecision(ctx, sam.ID, papers[0].ID, model.DecisionReject, 1))

	pa, err := s.GetProgress(ctx, alex.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pa.TotalKept)
	assert.Equal(t, 1, pa.TotalRejected)

	ps, err := s.GetProgress(ctx, sam.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, ps.TotalKept)
	assert.Equal(t, 1, ps.TotalRejected)
}

func TestSQLiteStore_ResetProgress(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	u := seedUser(t, s, "alex")
	papers := seedPapers(t, s, "A", "B")

	require.NoError(t, s.RecordDecision(ctx, u.ID, papers[0].ID, model.DecisionKeep, 1))
	require.NoError(t, s.ResetProgress(ctx, u.ID))

	p, err := s.GetProgress(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Cursor)
	assert.Equal(t, 0, p.TotalKept)
	assert.Equal(t, 0, p.TotalRejected)

	kept, err := s.KeptPapers(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, kept)
}

func TestSQLiteStore_KeptPapersOrderedByID(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	u := seedUser(t, s, "alex")
	papers := seedPapers(t, s, "A", "B", "C")

	require.NoError(t, s.RecordDecision(ctx, u.ID, papers[2].ID, model.DecisionKeep, 3))
	require.NoError(t, s.RecordDecision(ctx, u.ID, papers[0].ID, model.DecisionKeep, 1))
	require.NoError(t, s.RecordDecision(ctx, u.ID, papers[1].ID, model.DecisionReject, 2))

	kept, err := s.KeptPapers(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, "A", kept[0].Title)
	assert.Equal(t, "C", kept[1].Title)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
