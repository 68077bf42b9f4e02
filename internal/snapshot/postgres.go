package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sprint-mcp/internal/jira"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sprint_snapshots (
	id           TEXT PRIMARY KEY,
	sprint_id    INTEGER NOT NULL UNIQUE,
	sprint_name  TEXT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	total_issues INTEGER NOT NULL,
	issues       JSONB NOT NULL,
	details      JSONB
);
CREATE INDEX IF NOT EXISTS idx_sprint_snapshots_updated ON sprint_snapshots(updated_at DESC);
`

// PostgresStore keeps snapshots in PostgreSQL with issues in a JSONB column.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	log.Debug().Msg("PostgreSQL snapshot store ready")
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) SaveSprintSnapshot(ctx context.Context, sprintID int, sprintName string, issues []jira.Issue, sprintInfo *jira.SprintDTO) error {
	doc := newSnapshot(sprintID, sprintName, issues, sprintInfo, time.Now())

	issuesJSON, err := json.Marshal(doc.Issues)
	if err != nil {
		return fmt.Errorf("encode issues: %w", err)
	}
	var detailsJSON []byte
	if doc.Details != nil {
		if detailsJSON, err = json.Marshal(doc.Details); err != nil {
			return fmt.Errorf("encode sprint details: %w", err)
		}
	}

	const q = `
		INSERT INTO sprint_snapshots (id, sprint_id, sprint_name, updated_at, total_issues, issues, details)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			sprint_name  = EXCLUDED.sprint_name,
			updated_at   = EXCLUDED.updated_at,
			total_issues = EXCLUDED.total_issues,
			issues       = EXCLUDED.issues,
			details      = EXCLUDED.details`
	_, err = s.pool.Exec(ctx, q, doc.ID, doc.SprintID, doc.SprintName, doc.UpdatedAt, doc.TotalIssues, issuesJSON, detailsJSON)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", doc.ID, err)
	}

	log.Info().Int("sprint", sprintID).Int("issues", doc.TotalIssues).Msg("Sprint snapshot saved")
	return nil
}

func (s *PostgresStore) GetSprintSnapshot(ctx context.Context, sprintID int) (*Snapshot, error) {
	var (
		doc         Snapshot
		issuesJSON  []byte
		detailsJSON []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, sprint_id, sprint_name, updated_at, total_issues, issues, details
		 FROM sprint_snapshots WHERE id = $1`, DocumentID(sprintID)).
		Scan(&doc.ID, &doc.SprintID, &doc.SprintName, &doc.UpdatedAt, &doc.TotalIssues, &issuesJSON, &detailsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	if err := json.Unmarshal(issuesJSON, &doc.Issues); err != nil {
		return nil, fmt.Errorf("snapshot %s: decode issues: %w", doc.ID, err)
	}
	if len(detailsJSON) > 0 && string(detailsJSON) != "null" {
		doc.Details = &jira.SprintDTO{}
		if err := json.Unmarshal(detailsJSON, doc.Details); err != nil {
			return nil, fmt.Errorf("snapshot %s: decode details: %w", doc.ID, err)
		}
	}
	return &doc, nil
}

func (s *PostgresStore) ListSprintSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sprint_id, sprint_name, updated_at, total_issues
		 FROM sprint_snapshots ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := []Snapshot{}
	for rows.Next() {
		var doc Snapshot
		if err := rows.Scan(&doc.ID, &doc.SprintID, &doc.SprintName, &doc.UpdatedAt, &doc.TotalIssues); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
