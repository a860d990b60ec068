// Package postgresql provides the PostgreSQL artifact store.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/dukex/flowforge/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

const upsertFileSQL = `
	INSERT INTO generated_files (workflow_id, path, content, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (workflow_id, path)
	DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at
`

// Store implements persistence.Store on a generated_files table.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore connects to databaseURL and migrates the schema.
func NewStore(ctx context.Context, logger *slog.Logger, databaseURL string) (*Store, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger = logger.With("module", "postgresql_store")

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: database, logger: logger}, nil
}

// Save upserts every file in one transaction. The workflow id, or opts.OutputPath when set,
// keys the rows; the returned location is postgres://generated_files/<key>.
func (s *Store) Save(ctx context.Context, workflowID string, files map[string]string, opts persistence.SaveOptions) (string, error) {
	if err := persistence.CheckWorkflowID(workflowID); err != nil {
		return "", persistence.NewStoreError("Save", workflowID, "", err)
	}

	paths, err := persistence.SortedPaths(workflowID, files)
	if err != nil {
		return "", err
	}

	key, err := persistence.OutputLocation(workflowID, opts)
	if err != nil {
		return "", persistence.NewStoreError("Save", workflowID, opts.OutputPath, err)
	}

	transaction, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", persistence.NewStoreError("Save", workflowID, "", fmt.Errorf("failed to begin transaction: %w", err))
	}

	for _, name := range paths {
		_, err = transaction.ExecContext(ctx, upsertFileSQL, key, name, files[name])
		if err != nil {
			_ = transaction.Rollback()

			return "", persistence.NewStoreError("Save", workflowID, name, err)
		}
	}

	err = transaction.Commit()
	if err != nil {
		return "", persistence.NewStoreError("Save", workflowID, "", fmt.Errorf("failed to commit: %w", err))
	}

	s.logger.InfoContext(ctx, "Saved generated files", "workflow_id", workflowID, "files_count", len(paths))

	return "postgres://generated_files/" + key, nil
}

// Files returns the stored files of a key. It backs integration tests and tooling; the HTTP
// surface never reads artifacts back.
func (s *Store) Files(ctx context.Context, key string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, content FROM generated_files WHERE workflow_id = $1", key)
	if err != nil {
		return nil, fmt.Errorf("failed to query generated files: %w", err)
	}

	defer func() { _ = rows.Close() }()

	files := map[string]string{}

	for rows.Next() {
		var name, content string
		if err := rows.Scan(&name, &content); err != nil {
			return nil, fmt.Errorf("failed to scan generated file: %w", err)
		}

		files[name] = content
	}

	return files, rows.Err()
}

// HealthCheck verifies the database connection is healthy.
func (s *Store) HealthCheck(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close(_ context.Context) error {
	if s.db != nil {
		err := s.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
