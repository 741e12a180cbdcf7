// Package postgres provides PostgreSQL persistence for canvases, storing
// node and connection sets as jsonb documents.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/persistence"
	"github.com/agentcanvas/agentcanvas/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence using PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence connects to PostgreSQL and runs migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, canvasMigrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run canvas migrations: %w", err)
	}

	logger.InfoContext(ctx, "Canvas PostgreSQL persistence initialized successfully")

	return &Persistence{
		db:     database,
		logger: logger.With("component", "canvas_postgres_persistence"),
	}, nil
}

func canvasMigrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS canvases (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				owner TEXT NOT NULL DEFAULT '',
				nodes JSONB NOT NULL DEFAULT '[]',
				connections JSONB NOT NULL DEFAULT '[]',
				metadata JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);
		`,
	}
}

func (p *Persistence) Close(_ context.Context) error {
	return p.db.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Persistence) Canvases(ctx context.Context) ([]*models.Canvas, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, description, owner, nodes, connections, metadata, created_at, updated_at
		FROM canvases
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list canvases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	canvases := make([]*models.Canvas, 0)

	for rows.Next() {
		canvas, err := scanCanvas(rows.Scan)
		if err != nil {
			return nil, err
		}

		canvases = append(canvases, canvas)
	}

	return canvases, rows.Err()
}

func (p *Persistence) CanvasByID(ctx context.Context, id string) (*models.Canvas, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, name, description, owner, nodes, connections, metadata, created_at, updated_at
		FROM canvases
		WHERE id = $1
	`, id)

	canvas, err := scanCanvas(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewCanvasError("CanvasByID", id, persistence.ErrCanvasNotFound)
		}

		return nil, persistence.NewCanvasError("CanvasByID", id, err)
	}

	return canvas, nil
}

func (p *Persistence) SaveCanvas(ctx context.Context, canvas *models.Canvas) error {
	nodesJSON, err := json.Marshal(canvas.Nodes)
	if err != nil {
		return persistence.NewCanvasError("SaveCanvas", canvas.ID, err)
	}

	connectionsJSON, err := json.Marshal(canvas.Connections)
	if err != nil {
		return persistence.NewCanvasError("SaveCanvas", canvas.ID, err)
	}

	var metadataJSON sql.NullString

	if len(canvas.Metadata) > 0 {
		data, err := json.Marshal(canvas.Metadata)
		if err != nil {
			return persistence.NewCanvasError("SaveCanvas", canvas.ID, err)
		}

		metadataJSON = sql.NullString{String: string(data), Valid: true}
	}

	now := time.Now().UTC()
	if canvas.CreatedAt.IsZero() {
		canvas.CreatedAt = now
	}

	canvas.UpdatedAt = now

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO canvases (id, name, description, owner, nodes, connections, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			owner = EXCLUDED.owner,
			nodes = EXCLUDED.nodes,
			connections = EXCLUDED.connections,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`,
		canvas.ID,
		canvas.Name,
		canvas.Description,
		canvas.Owner,
		string(nodesJSON),
		string(connectionsJSON),
		metadataJSON,
		canvas.CreatedAt,
		canvas.UpdatedAt,
	)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to save canvas", "canvas_id", canvas.ID, "error", err)

		return persistence.NewCanvasError("SaveCanvas", canvas.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteCanvas(ctx context.Context, id string) error {
	result, err := p.db.ExecContext(ctx, "DELETE FROM canvases WHERE id = $1", id)
	if err != nil {
		return persistence.NewCanvasError("DeleteCanvas", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewCanvasError("DeleteCanvas", id, err)
	}

	if affected == 0 {
		return persistence.NewCanvasError("DeleteCanvas", id, persistence.ErrCanvasNotFound)
	}

	return nil
}

func scanCanvas(scan func(dest ...any) error) (*models.Canvas, error) {
	var (
		canvas          models.Canvas
		nodesJSON       []byte
		connectionsJSON []byte
		metadataJSON    sql.NullString
	)

	err := scan(
		&canvas.ID,
		&canvas.Name,
		&canvas.Description,
		&canvas.Owner,
		&nodesJSON,
		&connectionsJSON,
		&metadataJSON,
		&canvas.CreatedAt,
		&canvas.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(nodesJSON, &canvas.Nodes); err != nil {
		return nil, fmt.Errorf("failed to decode canvas nodes: %w", err)
	}

	if err := json.Unmarshal(connectionsJSON, &canvas.Connections); err != nil {
		return nil, fmt.Errorf("failed to decode canvas connections: %w", err)
	}

	if metadataJSON.Valid {
		if err := json.Unmarshal([]byte(metadataJSON.String), &canvas.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode canvas metadata: %w", err)
		}
	}

	return &canvas, nil
}
