package avatar

import (
	"errors"
	"sync/atomic"
)

// ErrNotReady is returned by Spawn before any tables are published.
var ErrNotReady = errors.New("avatar: tables not loaded")

// Store publishes a Tables snapshot for readers that may start before
// loading has finished.
type Store struct {
	tables atomic.Pointer[Tables]
}

// Publish makes t the current snapshot.
func (s *Store) Publish(t *Tables) { s.tables.Store(t) }

// Snapshot returns the current tables without blocking; ok is false until
// the first Publish.
func (s *Store) Snapshot() (t *Tables, ok bool) {
	t = s.tables.Load()
	return t, t != nil
}

// LoadAsync loads src in the background and publishes the result. The
// channel receives the load error, or nil once published, and is closed.
func (s *Store) LoadAsync(src Sources) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		t, err := Load(src)
		if err == nil {
			s.Publish(t)
		}
		done <- err
	}()
	return done
}
