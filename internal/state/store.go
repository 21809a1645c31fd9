// Package state holds the per-platform asset records observed by the HTTP
// layer. Every transition replaces a record whole under the lock, and every
// read returns a copy.
package state

import (
	"fmt"
	"sync"
	"time"

	"brandkit/internal/domain"
)

// Store owns one AssetState per platform in the table.
type Store struct {
	mu      sync.RWMutex
	records map[domain.PlatformKey]domain.AssetState
	now     func() time.Time
}

// New returns a store with every platform idle.
func New() *Store {
	s := &Store{now: time.Now}
	s.records = s.idleRecords()
	return s
}

// WithClock overrides the timestamp source. Tests use it for stable output.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

func (s *Store) idleRecords() map[domain.PlatformKey]domain.AssetState {
	ts := s.now()
	records := make(map[domain.PlatformKey]domain.AssetState, len(domain.PlatformKeys()))
	for _, key := range domain.PlatformKeys() {
		records[key] = domain.AssetState{Platform: key, Status: domain.StatusIdle, UpdatedAt: ts}
	}
	return records
}

// Get returns a copy of the record for key.
func (s *Store) Get(key domain.PlatformKey) (domain.AssetState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

// Snapshot returns every record in table order.
func (s *Store) Snapshot() []domain.AssetState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AssetState, 0, len(s.records))
	for _, key := range domain.PlatformKeys() {
		out = append(out, s.records[key])
	}
	return out
}

// ResetUnlessLoading puts every platform back to idle and drops prompts and
// images. It refuses with ErrPlatformBusy when any platform is still
// rendering. The check and the reset share one
// critical section.
func (s *Store) ResetUnlessLoading() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range domain.PlatformKeys() {
		if s.records[key].Status == domain.StatusLoading {
			return fmt.Errorf("%w: %s is still rendering", domain.ErrPlatformBusy, key)
		}
	}
	s.records = s.idleRecords()
	return nil
}

// SetLoading moves key to loading with prompt. Any previous image is kept
// so an error after a regenerate still shows the last good render.
func (s *Store) SetLoading(key domain.PlatformKey, prompt string) error {
	return s.update(key, func(rec domain.AssetState) domain.AssetState {
		rec.Status = domain.StatusLoading
		rec.Prompt = prompt
		rec.ErrorMsg = ""
		return rec
	})
}

// BeginRender moves key to loading unless it is already loading. It reports
// false when another render owns the platform.
func (s *Store) BeginRender(key domain.PlatformKey, prompt string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrUnknownPlatform, key)
	}
	if rec.Status == domain.StatusLoading {
		return false, nil
	}
	rec.Status = domain.StatusLoading
	rec.Prompt = prompt
	rec.ErrorMsg = ""
	rec.UpdatedAt = s.now()
	s.records[key] = rec
	return true, nil
}

// SetSuccess stores the rendered image as a data URI.
func (s *Store) SetSuccess(key domain.PlatformKey, imageURL string) error {
	return s.update(key, func(rec domain.AssetState) domain.AssetState {
		rec.Status = domain.StatusSuccess
		rec.ImageURL = imageURL
		rec.ErrorMsg = ""
		return rec
	})
}

// SetError records a user-facing failure message.
func (s *Store) SetError(key domain.PlatformKey, msg string) error {
	return s.update(key, func(rec domain.AssetState) domain.AssetState {
		rec.Status = domain.StatusError
		rec.ErrorMsg = msg
		return rec
	})
}

// IsLoading reports whether key currently has a render in flight.
func (s *Store) IsLoading(key domain.PlatformKey) bool {
	rec, ok := s.Get(key)
	return ok && rec.Status == domain.StatusLoading
}

func (s *Store) update(key domain.PlatformKey, fn func(domain.AssetState) domain.AssetState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownPlatform, key)
	}
	next := fn(rec)
	next.Platform = key
	next.UpdatedAt = s.now()
	s.records[key] = next
	return nil
}
