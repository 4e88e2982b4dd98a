package scores

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps one JSON file per record in a directory.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scores directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes rec to <dir>/<id>.json.
func (fs *FileStore) Save(ctx context.Context, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if strings.ContainsAny(rec.ID, `/\`) {
		return fmt.Errorf("%w: id %q", ErrInvalidRecord, rec.ID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal score: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := os.WriteFile(fs.path(rec.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write score file: %w", err)
	}
	return nil
}

// Top reads every record and returns the best q.Limit.
func (fs *FileStore) Top(ctx context.Context, q Query) ([]*Record, error) {
	q = q.Normalize()

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scores directory: %w", err)
	}

	records := []*Record{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(fs.dir, entry.Name()))
		if err != nil {
			log.Printf("Warning: failed to read score %s: %v", entry.Name(), err)
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			log.Printf("Warning: failed to parse score %s: %v", entry.Name(), err)
			continue
		}
		if q.ConfigID != "" && rec.ConfigID != q.ConfigID {
			continue
		}
		records = append(records, &rec)
	}

	Rank(records)
	if len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return records, nil
}

// Close is a no-op.
func (fs *FileStore) Close() error {
	return nil
}

func (fs *FileStore) path(id string) string {
	return filepath.Join(fs.dir, id+".json")
}
