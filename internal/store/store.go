// Package store persists the screened paper catalog, reviewer accounts,
// and per-reviewer swipe decisions.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/hero-lab/litscreen/internal/config"
	"github.com/hero-lab/litscreen/internal/model"
)

// Store defines the persistence interface for the screening catalog.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u model.User) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)

	// Papers
	ImportPapers(ctx context.Context, papers []model.Paper) (int, error)
	ListPapers(ctx context.Context) ([]model.Paper, error)
	CountPapers(ctx context.Context) (int, error)

	// Swipe decisions and progress
	RecordDecision(ctx context.Context, userID, paperID int64, decision string, cursor int) error
	GetProgress(ctx context.Context, userID int64) (*model.Progress, error)
	ResetProgress(ctx context.Context, userID int64) error
	KeptPapers(ctx context.Context, userID int64) ([]model.Paper, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// nullableYear maps the zero "unknown" year onto SQL NULL.
func nullableYear(year int) any {
	if year == 0 {
		return nil
	}
	return year
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
