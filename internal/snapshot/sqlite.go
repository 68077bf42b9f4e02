package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sprint-mcp/internal/jira"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sprint_snapshots (
	id           TEXT PRIMARY KEY,
	sprint_id    INTEGER NOT NULL UNIQUE,
	sprint_name  TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	total_issues INTEGER NOT NULL,
	issues       TEXT NOT NULL,
	details      TEXT
);
CREATE INDEX IF NOT EXISTS idx_sprint_snapshots_updated ON sprint_snapshots(updated_at);
`

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps snapshots in an embedded database, issues as a JSON column.
type SQLiteStore struct {
	db *sqlx.DB
}

// snapshotRow is the column layout shared by the SQL backends.
type snapshotRow struct {
	ID          string  `db:"id"`
	SprintID    int     `db:"sprint_id"`
	SprintName  string  `db:"sprint_name"`
	UpdatedAt   string  `db:"updated_at"`
	TotalIssues int     `db:"total_issues"`
	Issues      string  `db:"issues"`
	Details     *string `db:"details"`
}

// NewSQLiteStore opens (and creates) the database at path. ":memory:" keeps it in process.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store needs a path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("SQLite snapshot store ready")
	return &SQLiteStore{db: db}, nil
}

func encodeRow(doc Snapshot) (snapshotRow, error) {
	issues, err := json.Marshal(doc.Issues)
	if err != nil {
		return snapshotRow{}, fmt.Errorf("encode issues: %w", err)
	}
	row := snapshotRow{
		ID:          doc.ID,
		SprintID:    doc.SprintID,
		SprintName:  doc.SprintName,
		UpdatedAt:   doc.UpdatedAt.UTC().Format(timeLayout),
		TotalIssues: doc.TotalIssues,
		Issues:      string(issues),
	}
	if doc.Details != nil {
		details, err := json.Marshal(doc.Details)
		if err != nil {
			return snapshotRow{}, fmt.Errorf("encode sprint details: %w", err)
		}
		s := string(details)
		row.Details = &s
	}
	return row, nil
}

func (r snapshotRow) decode(withIssues bool) (*Snapshot, error) {
	updated, err := time.Parse(timeLayout, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: bad updated_at %q: %w", r.ID, r.UpdatedAt, err)
	}
	doc := &Snapshot{
		ID:          r.ID,
		SprintID:    r.SprintID,
		SprintName:  r.SprintName,
		UpdatedAt:   updated,
		TotalIssues: r.TotalIssues,
	}
	if !withIssues {
		return doc, nil
	}
	if err := json.Unmarshal([]byte(r.Issues), &doc.Issues); err != nil {
		return nil, fmt.Errorf("snapshot %s: decode issues: %w", r.ID, err)
	}
	if r.Details != nil && *r.Details != "" && *r.Details != "null" {
		doc.Details = &jira.SprintDTO{}
		if err := json.Unmarshal([]byte(*r.Details), doc.Details); err != nil {
			return nil, fmt.Errorf("snapshot %s: decode details: %w", r.ID, err)
		}
	}
	return doc, nil
}

func (s *SQLiteStore) SaveSprintSnapshot(ctx context.Context, sprintID int, sprintName string, issues []jira.Issue, sprintInfo *jira.SprintDTO) error {
	row, err := encodeRow(newSnapshot(sprintID, sprintName, issues, sprintInfo, time.Now()))
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO sprint_snapshots (id, sprint_id, sprint_name, updated_at, total_issues, issues, details)
		VALUES (:id, :sprint_id, :sprint_name, :updated_at, :total_issues, :issues, :details)
		ON CONFLICT(id) DO UPDATE SET
			sprint_name  = excluded.sprint_name,
			updated_at   = excluded.updated_at,
			total_issues = excluded.total_issues,
			issues       = excluded.issues,
			details      = excluded.details`
	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("save snapshot %s: %w", row.ID, err)
	}

	log.Info().Int("sprint", sprintID).Int("issues", row.TotalIssues).Msg("Sprint snapshot saved")
	return nil
}

func (s *SQLiteStore) GetSprintSnapshot(ctx context.Context, sprintID int) (*Snapshot, error) {
	var rows []snapshotRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, sprint_id, sprint_name, updated_at, total_issues, issues, details
		 FROM sprint_snapshots WHERE id = ?`, DocumentID(sprintID))
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].decode(true)
}

func (s *SQLiteStore) ListSprintSnapshots(ctx context.Context) ([]Snapshot, error) {
	var rows []snapshotRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, sprint_id, sprint_name, updated_at, total_issues, '' AS issues, NULL AS details
		 FROM sprint_snapshots ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return decodeList(rows)
}

func decodeList(rows []snapshotRow) ([]Snapshot, error) {
	out := make([]Snapshot, 0, len(rows))
	for _, r := range rows {
		doc, err := r.decode(false)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
