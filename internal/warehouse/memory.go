package warehouse

import (
	"context"
	"fmt"
	"sync"

	"github.com/radiusdt/marketing-dashboard/internal/models"
)

// MemorySource is a thread-safe in-memory Source. It serves fixed frames and
// counts loads per table, which makes it suitable for tests and demos.
type MemorySource struct {
	mu      sync.RWMutex
	frames  map[string]*models.Frame
	loads   map[string]int
	failure error
}

// NewMemorySource creates a source serving the given frames keyed by table.
func NewMemorySource(frames ...*models.Frame) *MemorySource {
	s := &MemorySource{
		frames: make(map[string]*models.Frame),
		loads:  make(map[string]int),
	}
	for _, f := range frames {
		s.frames[f.Table] = f
	}
	return s
}

// Put replaces the frame served for its table.
func (s *MemorySource) Put(f *models.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[f.Table] = f
}

// Fail makes every subsequent Load and Ping return err. A nil err clears
// the failure.
func (s *MemorySource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

// Loads returns how many times table was loaded.
func (s *MemorySource) Loads(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads[table]
}

// Load returns a copy of the stored frame. A table with no stored frame
// loads as an empty frame with no columns.
func (s *MemorySource) Load(ctx context.Context, table string) (*models.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loads[table]++
	if s.failure != nil {
		return nil, &DataSourceError{Table: table, Op: "query", Err: s.failure}
	}
	if err := ctx.Err(); err != nil {
		return nil, &DataSourceError{Table: table, Op: "query", Err: err}
	}

	f, ok := s.frames[table]
	if !ok {
		return &models.Frame{Table: table, Columns: []string{}, Rows: [][]any{}}, nil
	}

	cp := &models.Frame{
		Table:   table,
		Columns: append([]string(nil), f.Columns...),
		Rows:    make([][]any, len(f.Rows)),
	}
	for i, r := range f.Rows {
		cp.Rows[i] = append([]any(nil), r...)
	}
	return cp, nil
}

// Ping reports the injected failure, if any.
func (s *MemorySource) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return &DataSourceError{Op: "connect", Err: fmt.Errorf("ping: %w", s.failure)}
	}
	return nil
}
