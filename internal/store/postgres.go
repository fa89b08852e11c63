package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/hero-lab/litscreen/internal/db"
	"github.com/hero-lab/litscreen/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'contributor'
	              CHECK (role IN ('contributor', 'supervisor', 'administrator')),
	invite_code   TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS papers (
	id             BIGSERIAL PRIMARY KEY,
	title          TEXT NOT NULL,
	authors        TEXT NOT NULL DEFAULT '',
	year           INTEGER,
	abstract       TEXT NOT NULL DEFAULT '',
	doi            TEXT NOT NULL DEFAULT '',
	source         TEXT NOT NULL DEFAULT '',
	nlp_confidence TEXT NOT NULL DEFAULT '',
	nlp_reason     TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS swipe_decisions (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	paper_id   BIGINT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
	decision   TEXT NOT NULL CHECK (decision IN ('keep', 'reject')),
	decided_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, paper_id)
);

CREATE TABLE IF NOT EXISTS user_progress (
	user_id        BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	cursor         INTEGER NOT NULL DEFAULT 0,
	total_kept     INTEGER NOT NULL DEFAULT 0,
	total_rejected INTEGER NOT NULL DEFAULT 0,
	last_active    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_swipe_decisions_user ON swipe_decisions(user_id);
CREATE INDEX IF NOT EXISTS idx_swipe_decisions_paper ON swipe_decisions(paper_id);
CREATE INDEX IF NOT EXISTS idx_papers_title ON papers(title);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u model.User) (*model.User, error) {
	if !model.ValidRole(u.Role) {
		return nil, eris.Errorf("postgres: invalid role %q", u.Role)
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, display_name, role, invite_code)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		u.Username, u.PasswordHash, u.DisplayName, string(u.Role), u.InviteCode,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: create user %s", u.Username)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, display_name, role, invite_code, created_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.Role, &u.InviteCode, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get user %s", username)
	}
	return &u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, username, password_hash, display_name, role, invite_code, created_at
		 FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list users")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.Role, &u.InviteCode, &u.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan user")
		}
		users = append(users, u)
	}
	return users, eris.Wrap(rows.Err(), "postgres: list users iterate")
}

var paperColumns = []string{
	"title", "authors", "year", "abstract", "doi", "source", "nlp_confidence", "nlp_reason",
}

func (s *PostgresStore) ImportPapers(ctx context.Context, papers []model.Paper) (int, error) {
	rows := make([][]any, 0, len(papers))
	for _, p := range papers {
		rows = append(rows, []any{
			p.Title, p.Authors, nullableYear(p.Year), p.Abstract, p.DOI, p.Source, p.NLPConfidence, p.NLPReason,
		})
	}

	n, err := db.CopyFrom(ctx, s.pool, "papers", paperColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import papers")
	}
	return int(n), nil
}

func (s *PostgresStore) ListPapers(ctx context.Context) ([]model.Paper, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, authors, year, abstract, doi, source, nlp_confidence, nlp_reason, created_at
		 FROM papers ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list papers")
	}
	defer rows.Close()
	return collectPapers(rows)
}

func collectPapers(rows pgx.Rows) ([]model.Paper, error) {
	var papers []model.Paper
	for rows.Next() {
		var p model.Paper
		var year *int
		if err := rows.Scan(&p.ID, &p.Title, &p.Authors, &year, &p.Abstract,
			&p.DOI, &p.Source, &p.NLPConfidence, &p.NLPReason, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan paper")
		}
		if year != nil {
			p.Year = *year
		}
		papers = append(papers, p)
	}
	return papers, eris.Wrap(rows.Err(), "postgres: iterate papers")
}

func (s *PostgresStore) CountPapers(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM papers`).Scan(&count)
	return count, eris.Wrap(err, "postgres: count papers")
}

// RecordDecision upserts one reviewer's verdict on one paper. The unique
// (user_id, paper_id) constraint makes repeated swipes last-write-wins, and
// progress counters are recomputed from the decisions table inside the same
// transaction so they never drift. The cursor only moves forward.
func (s *PostgresStore) RecordDecision(ctx context.Context, userID, paperID int64, decision string, cursor int) error {
	if decision != model.DecisionKeep && decision != model.DecisionReject {
		return eris.Errorf("postgres: invalid decision %q", decision)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin decision tx")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO swipe_decisions (user_id, paper_id, decision, decided_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id, paper_id)
		 DO UPDATE SET decision = EXCLUDED.decision, decided_at = EXCLUDED.decided_at`,
		userID, paperID, decision,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert decision user=%d paper=%d", userID, paperID)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_progress (user_id, cursor, total_kept, total_rejected, last_active)
		 SELECT $1,
		        $2,
		        COUNT(*) FILTER (WHERE decision = 'keep'),
		        COUNT(*) FILTER (WHERE decision = 'reject'),
		        now()
		 FROM swipe_decisions WHERE user_id = $1
		 ON CONFLICT (user_id) DO UPDATE SET
		   cursor = GREATEST(user_progress.cursor, EXCLUDED.cursor),
		   total_kept = EXCLUDED.total_kept,
		   total_rejected = EXCLUDED.total_rejected,
		   last_active = EXCLUDED.last_active`,
		userID, cursor,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update progress user=%d", userID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit decision tx")
}

func (s *PostgresStore) GetProgress(ctx context.Context, userID int64) (*model.Progress, error) {
	var p model.Progress
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, cursor, total_kept, total_rejected, last_active
		 FROM user_progress WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.Cursor, &p.TotalKept, &p.TotalRejected, &p.LastActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.Progress{UserID: userID}, nil
		}
		return nil, eris.Wrapf(err, "postgres: get progress user=%d", userID)
	}
	return &p, nil
}

// ResetProgress wipes a reviewer's decisions and progress row so they can
// start the swipe pass again.
func (s *PostgresStore) ResetProgress(ctx context.Context, userID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin reset tx")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM swipe_decisions WHERE user_id = $1`, userID); err != nil {
		return eris.Wrapf(err, "postgres: delete decisions user=%d", userID)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_progress WHERE user_id = $1`, userID); err != nil {
		return eris.Wrapf(err, "postgres: delete progress user=%d", userID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit reset tx")
}

func (s *PostgresStore) KeptPapers(ctx context.Context, userID int64) ([]model.Paper, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.title, p.authors, p.year, p.abstract, p.doi, p.source,
		        p.nlp_confidence, p.nlp_reason, p.created_at
		 FROM papers p
		 JOIN swipe_decisions d ON d.paper_id = p.id
		 WHERE d.user_id = $1 AND d.decision = 'keep'
		 ORDER BY p.id`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: kept papers user=%d", userID)
	}
	defer rows.Close()
	return collectPapers(rows)
}
