package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/hero-lab/litscreen/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'contributor'
	              CHECK (role IN ('contributor', 'supervisor', 'administrator')),
	invite_code   TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS papers (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	title          TEXT NOT NULL,
	authors        TEXT NOT NULL DEFAULT '',
	year           INTEGER,
	abstract       TEXT NOT NULL DEFAULT '',
	doi            TEXT NOT NULL DEFAULT '',
	source         TEXT NOT NULL DEFAULT '',
	nlp_confidence TEXT NOT NULL DEFAULT '',
	nlp_reason     TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS swipe_decisions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	paper_id   INTEGER NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
	decision   TEXT NOT NULL CHECK (decision IN ('keep', 'reject')),
	decided_at DATETIME NOT NULL,
	UNIQUE (user_id, paper_id)
);

CREATE TABLE IF NOT EXISTS user_progress (
	user_id        INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	cursor         INTEGER NOT NULL DEFAULT 0,
	total_kept     INTEGER NOT NULL DEFAULT 0,
	total_rejected INTEGER NOT NULL DEFAULT 0,
	last_active    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_swipe_decisions_user ON swipe_decisions(user_id);
CREATE INDEX IF NOT EXISTS idx_swipe_decisions_paper ON swipe_decisions(paper_id);
CREATE INDEX IF NOT EXISTS idx_papers_title ON papers(title);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u model.User) (*model.User, error) {
	if !model.ValidRole(u.Role) {
		return nil, eris.Errorf("sqlite: invalid role %q", u.Role)
	}

	u.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, display_name, role, invite_code, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.PasswordHash, u.DisplayName, string(u.Role), u.InviteCode, u.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: create user %s", u.Username)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last insert id")
	}
	return &u, nil
}

func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, display_name, role, invite_code, created_at
		 FROM users WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.Role, &u.InviteCode, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get user %s", username)
	}
	return &u, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, password_hash, display_name, role, invite_code, created_at
		 FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list users")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.Role, &u.InviteCode, &u.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan user")
		}
		users = append(users, u)
	}
	return users, eris.Wrap(rows.Err(), "sqlite: list users iterate")
}

func (s *SQLiteStore) ImportPapers(ctx context.Context, papers []model.Paper) (int, error) {
	if len(papers) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (title, authors, year, abstract, doi, source, nlp_confidence, nlp_reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare import")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range papers {
		if _, err := stmt.ExecContext(ctx,
			p.Title, p.Authors, nullableYear(p.Year), p.Abstract, p.DOI, p.Source, p.NLPConfidence, p.NLPReason, now,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert paper %q", p.Title)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import tx")
	}
	return len(papers), nil
}

func (s *SQLiteStore) ListPapers(ctx context.Context) ([]model.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, authors, year, abstract, doi, source, nlp_confidence, nlp_reason, created_at
		 FROM papers ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list papers")
	}
	defer rows.Close()
	return scanPapers(rows)
}

func scanPapers(rows *sql.Rows) ([]model.Paper, error) {
	var papers []model.Paper
	for rows.Next() {
		var p model.Paper
		var year sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Title, &p.Authors, &year, &p.Abstract,
			&p.DOI, &p.Source, &p.NLPConfidence, &p.NLPReason, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan paper")
		}
		if year.Valid {
			p.Year = int(year.Int64)
		}
		papers = append(papers, p)
	}
	return papers, eris.Wrap(rows.Err(), "sqlite: iterate papers")
}

func (s *SQLiteStore) CountPapers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&count)
	return count, eris.Wrap(err, "sqlite: count papers")
}

func (s *SQLiteStore) RecordDecision(ctx context.Context, userID, paperID int64, decision string, cursor int) error {
	if decision != model.DecisionKeep && decision != model.DecisionReject {
		return eris.Errorf("sqlite: invalid decision %q", decision)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin decision tx")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO swipe_decisions (user_id, paper_id, decision, decided_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, paper_id)
		 DO UPDATE SET decision = excluded.decision, decided_at = excluded.decided_at`,
		userID, paperID, decision, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert decision user=%d paper=%d", userID, paperID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, cursor, total_kept, total_rejected, last_active)
		 SELECT ?,
		        ?,
		        SUM(CASE WHEN decision = 'keep' THEN 1 ELSE 0 END),
		        SUM(CASE WHEN decision = 'reject' THEN 1 ELSE 0 END),
		        ?
		 FROM swipe_decisions WHERE user_id = ?
		 ON CONFLICT (user_id) DO UPDATE SET
		   cursor = MAX(user_progress.cursor, excluded.cursor),
		   total_kept = excluded.total_kept,
		   total_rejected = excluded.total_rejected,
		   last_active = excluded.last_active`,
		userID, cursor, now, userID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update progress user=%d", userID)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit decision tx")
}

func (s *SQLiteStore) GetProgress(ctx context.Context, userID int64) (*model.Progress, error) {
	var p model.Progress
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, cursor, total_kept, total_rejected, last_active
		 FROM user_progress WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &p.Cursor, &p.TotalKept, &p.TotalRejected, &p.LastActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.Progress{UserID: userID}, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get progress user=%d", userID)
	}
	return &p, nil
}

func (s *SQLiteStore) ResetProgress(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin reset tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM swipe_decisions WHERE user_id = ?`, userID); err != nil {
		return eris.Wrapf(err, "sqlite: delete decisions user=%d", userID)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_progress WHERE user_id = ?`, userID); err != nil {
		return eris.Wrapf(err, "sqlite: delete progress user=%d", userID)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit reset tx")
}

func (s *SQLiteStore) KeptPapers(ctx context.Context, userID int64) ([]model.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.title, p.authors, p.year, p.abstract, p.doi, p.source,
		        p.nlp_confidence, p.nlp_reason, p.created_at
		 FROM papers p
		 JOIN swipe_decisions d ON d.paper_id = p.id
		 WHERE d.user_id = ? AND d.decision = 'keep'
		 ORDER BY p.id`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: kept papers user=%d", userID)
	}
	defer rows.Close()
	return scanPapers(rows)
}
