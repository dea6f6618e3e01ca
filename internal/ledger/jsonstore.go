package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/ziadkadry99/cafeteria-ai/internal/jsonfile"
	"github.com/ziadkadry99/cafeteria-ai/internal/logging"
)

// JSONStore keeps the ledger in a single JSON document. Each mutation is a
// full read-modify-write under a process-wide lock, written to a temporary
// file and renamed into place.
type JSONStore struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// NewJSONStore creates a store backed by path. The file is created on the
// first write.
func NewJSONStore(path string, logger *zap.Logger) *JSONStore {
	return &JSONStore{path: path, logger: logging.OrNop(logger)}
}

// Path returns the ledger file location.
func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) Apply(ctx context.Context, date string, d Delta) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.read()
	if err != nil {
		return err
	}
	entry := snap[date].clone()
	d.applyTo(&entry)
	snap[date] = entry
	return s.write(snap)
}

func (s *JSONStore) Snapshot(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *JSONStore) Close() error { return nil }

// read loads the document. A missing or empty file is an empty ledger; an
// unparsable one is treated as empty and logged.
func (s *JSONStore) read() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	if len(data) == 0 {
		return Snapshot{}, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("ledger file is corrupt; treating as empty",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return Snapshot{}, nil
	}
	if snap == nil {
		snap = Snapshot{}
	}
	for date, e := range snap {
		if e.MenuSales == nil {
			e.MenuSales = map[string]int{}
			snap[date] = e
		}
	}
	return snap, nil
}

func (s *JSONStore) write(snap Snapshot) error {
	if err := jsonfile.Write(s.path, snap); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	return nil
}
