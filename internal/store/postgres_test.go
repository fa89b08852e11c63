package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hero-lab/litscreen/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetUserByUsername_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, username, password_hash, display_name, role, invite_code, created_at`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	u, err := s.GetUserByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetUserByUsername_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, username, password_hash, display_name, role, invite_code, created_at`).
		WithArgs("alex").
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "username", "password_hash", "display_name", "role", "invite_code", "created_at"}).
			AddRow(int64(7), "alex", "$2a$hash", "Alex", "contributor", "", now))

	u, err := s.GetUserByUsername(context.Background(), "alex")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, model.RoleContributor, u.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateUser_RejectsUnknownRole(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	_, err := s.CreateUser(context.Background(), model.User{Username: "x", Role: "owner"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")
}

func TestPostgresStore_ImportPapers(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"papers"}, paperColumns).WillReturnResult(2)

	n, err := s.ImportPapers(context.Background(), []model.Paper{
		{Title: "EEG in the wild"},
		{Title: "Eye tracking at home"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ImportPapers_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	n, err := s.ImportPapers(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordDecision_Transactional(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO swipe_decisions`).
		WithArgs(int64(1), int64(42), model.DecisionKeep).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO user_progress`).
		WithArgs(int64(1), 5).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.RecordDecision(context.Background(), 1, 42, model.DecisionKeep, 5)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordDecision_InvalidValue(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// Only the persisted values pass; the API's Y/N payload encoding must
	// be translated before it reaches the store.
	for _, bad := range []string{"maybe", "Y", "N"} {
		err := s.RecordDecision(context.Background(), 1, 42, bad, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid decision")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordDecision_RollsBackOnError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO swipe_decisions`).
		WithArgs(int64(1), int64(42), model.DecisionReject).
		WillReturnError(pgx.ErrTxClosed)
	mock.ExpectRollback()

	err := s.RecordDecision(context.Background(), 1, 42, model.DecisionReject, 0)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProgress_DefaultsToZero(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT user_id, cursor, total_kept, total_rejected, last_active`).
		WithArgs(int64(3)).
		WillReturnError(pgx.ErrNoRows)

	p, err := s.GetProgress(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(3), p.UserID)
	assert.Equal(t, 0, p.Cursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResetProgress(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM swipe_decisions WHERE user_id`).
		WithArgs(int64(9)).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectExec(`DELETE FROM user_progress WHERE user_id`).
		WithArgs(int64(9)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, s.ResetProgress(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountPapers(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM papers`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(128))

	n, err := s.CountPapers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 128, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
