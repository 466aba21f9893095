package dataset

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/crwatch/backend/internal/domain"
)

// Reload outcomes reported to the ReloadObserver
const (
	ReloadSuccess = "success"
	ReloadFailure = "failure"
)

// ReloadObserver is notified after every reload attempt.
// snapshot is the snapshot being served after the attempt and may be nil.
type ReloadObserver interface {
	ObserveReload(outcome string, snapshot *domain.Snapshot)
}

type nopReloadObserver struct{}

func (nopReloadObserver) ObserveReload(string, *domain.Snapshot) {}

// Store publishes the current dataset snapshot.
// Readers always see a complete snapshot; reloads replace it wholesale.
type Store struct {
	loader   domain.SnapshotLoader
	current  atomic.Pointer[domain.Snapshot]
	observer ReloadObserver
	logger   zerolog.Logger
}

// NewStore creates an empty store; call Reload to publish the first snapshot
func NewStore(loader domain.SnapshotLoader, observer ReloadObserver, logger zerolog.Logger) *Store {
	if observer == nil {
		observer = nopReloadObserver{}
	}
	return &Store{
		loader:   loader,
		observer: observer,
		logger:   logger.With().Str("component", "dataset_store").Logger(),
	}
}

// Current returns the published snapshot, or nil before the first successful load
func (s *Store) Current() *domain.Snapshot {
	return s.current.Load()
}

// Reload loads a fresh snapshot and publishes it.
// On failure the previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) (*domain.Snapshot, error) {
	snapshot, err := s.loader.Load(ctx)
	if err != nil {
		previous := s.current.Load()
		event := s.logger.Error().Err(err)
		if previous != nil {
			event = event.Str("kept_version", previous.Version)
		}
		event.Msg("dataset reload failed")
		s.observer.ObserveReload(ReloadFailure, previous)
		return nil, err
	}

	s.current.Store(snapshot)
	s.logger.Info().
		Str("version", snapshot.Version).
		Str("source", snapshot.Source).
		Int("entries", snapshot.Len()).
		Msg("dataset loaded")
	s.observer.ObserveReload(ReloadSuccess, snapshot)

	return snapshot, nil
}
