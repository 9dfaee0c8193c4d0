// Package postgresql provides PostgreSQL persistence for the workflow state
// and schema version histories.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	// Registers the "postgres" database/sql driver.
	_ "github.com/lib/pq"

	"github.com/nstri/studyflow/pkg/persistence/sqlbase"
)

// stateRowID pins the workflow state to a single row.
const stateRowID = "workflow"

// Persistence implements persistence.Persistence on PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence connects, pings and migrates the database.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	if err := migrationManager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{db: database, logger: logger}, nil
}

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflow_state (
				id TEXT PRIMARY KEY,
				payload JSONB NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS schema_history (
				artifact_key TEXT PRIMARY KEY,
				payload JSONB NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);
		`,
	}
}

func (p *Persistence) ReadState(ctx context.Context) ([]byte, error) {
	var payload []byte

	err := p.db.QueryRowContext(ctx,
		"SELECT payload FROM workflow_state WHERE id = $1", stateRowID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read workflow state: %w", err)
	}

	return payload, nil
}

func (p *Persistence) WriteState(ctx context.Context, data []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO workflow_state (id, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`, stateRowID, data)
	if err != nil {
		return fmt.Errorf("failed to write workflow state: %w", err)
	}

	return nil
}

func (p *Persistence) ReadHistory(ctx context.Context, artifactKey string) ([]byte, error) {
	var payload []byte

	err := p.db.QueryRowContext(ctx,
		"SELECT payload FROM schema_history WHERE artifact_key = $1", artifactKey,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read history for %s: %w", artifactKey, err)
	}

	return payload, nil
}

func (p *Persistence) WriteHistory(ctx context.Context, artifactKey string, data []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO schema_history (artifact_key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (artifact_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`, artifactKey, data)
	if err != nil {
		return fmt.Errorf("failed to write history for %s: %w", artifactKey, err)
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
