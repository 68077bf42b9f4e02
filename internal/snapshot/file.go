package snapshot

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"sprint-mcp/internal/jira"

	"github.com/rs/zerolog/log"
)

// FileStore keeps one JSON document per sprint in a directory.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store needs a directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(sprintID int) string {
	return filepath.Join(s.dir, DocumentID(sprintID)+".json")
}

// SaveSprintSnapshot writes the document to a temp file and renames it into place.
func (s *FileStore) SaveSprintSnapshot(ctx context.Context, sprintID int, sprintName string, issues []jira.Issue, sprintInfo *jira.SprintDTO) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := newSnapshot(sprintID, sprintName, issues, sprintInfo, time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(sprintID)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot file: %w", err)
	}

	writer := bufio.NewWriter(file)
	if err := json.NewEncoder(writer).Encode(doc); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}

	log.Info().Int("sprint", sprintID).Int("issues", doc.TotalIssues).Msg("Sprint snapshot saved")
	return nil
}

func (s *FileStore) GetSprintSnapshot(ctx context.Context, sprintID int) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readSnapshot(s.path(sprintID))
}

func readSnapshot(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	var doc Snapshot
	if err := json.NewDecoder(bufio.NewReader(file)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", filepath.Base(path), err)
	}
	return &doc, nil
}

func (s *FileStore) ListSprintSnapshots(ctx context.Context) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var out []Snapshot
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "sprint_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		doc, err := readSnapshot(filepath.Join(s.dir, name))
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Skipping unreadable snapshot")
			continue
		}
		if doc == nil {
			continue
		}
		doc.Issues = nil
		doc.Details = nil
		out = append(out, *doc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *FileStore) Close() error { return nil }
