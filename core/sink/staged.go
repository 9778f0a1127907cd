package sink

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
)

// StagedSink holds writes in memory until Commit copies them to the wrapped
// sink. Reads see staged data first.
type StagedSink struct {
	inner Sink

	mu    sync.Mutex
	files map[string][]byte
	order []string
}

// NewStagedSink wraps inner.
func NewStagedSink(inner Sink) *StagedSink {
	return &StagedSink{inner: inner, files: make(map[string][]byte)}
}

func stagedKey(name string) string {
	return path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
}

func (s *StagedSink) Read(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	data, ok := s.files[stagedKey(name)]
	s.mu.Unlock()
	if ok {
		return append([]byte(nil), data...), nil
	}
	return s.inner.Read(ctx, name)
}

func (s *StagedSink) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := stagedKey(name)
	if key == "/" {
		return fmt.Errorf("invalid output name %q", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[key]; !ok {
		s.order = append(s.order, key)
	}
	s.files[key] = append([]byte(nil), data...)
	return nil
}

// Pending returns the number of staged names.
func (s *StagedSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Commit writes every staged blob to the wrapped sink in first-write order
// and clears the stage. Every blob is attempted; errors are joined.
func (s *StagedSink) Commit(ctx context.Context) error {
	s.mu.Lock()
	order, files := s.order, s.files
	s.order, s.files = nil, make(map[string][]byte)
	s.mu.Unlock()

	var errs []error
	for _, key := range order {
		if err := s.inner.Write(ctx, key[1:], files[key]); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", key[1:], err))
		}
	}
	return errors.Join(errs...)
}

// Discard drops every staged blob.
func (s *StagedSink) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order, s.files = nil, make(map[string][]byte)
}
