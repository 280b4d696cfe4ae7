package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver pgx para database/sql (goose)
	"github.com/pressly/goose/v3"

	"github.com/jhoicas/BancoSangre-api/migrations"
)

// Migrator aplica las migraciones embebidas con goose.
type Migrator struct {
	db       *sql.DB
	provider *goose.Provider
}

// NewMigrator abre una conexión database/sql sobre pgx y prepara el provider de goose.
func NewMigrator(dsn string) (*Migrator, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{db: db, provider: provider}, nil
}

// Close libera la conexión.
func (m *Migrator) Close() error { return m.db.Close() }

// Up aplica todas las migraciones pendientes y devuelve cuántas aplicó.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose up: %w", err)
	}
	return len(results), nil
}

// Down revierte la última migración aplicada.
func (m *Migrator) Down(ctx context.Context) error {
	if _, err := m.provider.Down(ctx); err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

// MigrationState estado de una migración.
type MigrationState struct {
	Version int64
	Path    string
	Applied bool
}

// Status lista las migraciones conocidas y si están aplicadas.
func (m *Migrator) Status(ctx context.Context) ([]MigrationState, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	out := make([]MigrationState, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationState{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
