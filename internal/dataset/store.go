package dataset

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// LoadStats describes the last successful load.
type LoadStats struct {
	LoadID   string
	Source   string
	Records  int
	Rejected int
	Warnings int
	Parses   int // parse passes attempted over the store lifetime
	Duration time.Duration
}

// Store holds the normalized records. It starts empty and is filled once by
// a successful Load; afterwards it is read-only.
type Store struct {
	src    Source
	logger *slog.Logger
	group  singleflight.Group

	mu       sync.RWMutex
	records  []Record
	warnings []ParseWarning
	loaded   bool
	stats    LoadStats
	parses   int
}

// NewStore returns an empty store reading from src.
func NewStore(src Source, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{src: src, logger: logger}
}

// Load ingests the source once. Concurrent callers share a single in-flight
// parse; calls after a successful load return nil immediately. If ctx is
// cancelled the caller returns early while the shared load runs on.
func (s *Store) Load(ctx context.Context) error {
	if s.IsLoaded() {
		return nil
	}
	ch := s.group.DoChan("load", func() (any, error) {
		if s.IsLoaded() {
			return nil, nil
		}
		return nil, s.load(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) load(ctx context.Context) error {
	if s.src == nil {
		return &IngestError{Kind: FetchFailure, Source: "(none)", Err: errors.New("no dataset source configured")}
	}
	start := time.Now()
	name := s.src.Name()
	s.logger.Debug("loading dataset", "source", name)

	rc, err := s.src.Open(ctx)
	if err != nil {
		s.logger.Error("dataset fetch failed", "source", name, "error", err)
		return &IngestError{Kind: FetchFailure, Source: name, Err: err}
	}
	defer rc.Close()

	s.mu.Lock()
	s.parses++
	s.mu.Unlock()

	res, err := Parse(rc)
	if err != nil {
		s.logger.Error("dataset parse failed", "source", name, "error", err)
		return &IngestError{Kind: ParseFailure, Source: name, Err: err}
	}
	if len(res.Warnings) > 0 {
		s.logger.Warn("csv parsing warnings", "source", name, "count", len(res.Warnings))
		for _, w := range res.Warnings {
			s.logger.Debug("csv parsing warning", "row", w.Row, "field", w.Field, "message", w.Message)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = res.Records
	s.warnings = res.Warnings
	s.loaded = true
	s.stats = LoadStats{
		LoadID:   uuid.NewString(),
		Source:   name,
		Records:  len(res.Records),
		Rejected: res.Rejected,
		Warnings: len(res.Warnings),
		Parses:   s.parses,
		Duration: time.Since(start),
	}
	s.logger.Info("dataset loaded",
		"load_id", s.stats.LoadID,
		"source", name,
		"records", s.stats.Records,
		"rejected", s.stats.Rejected,
		"duration", s.stats.Duration,
	)
	return nil
}

// All returns the loaded records. Before a successful load it returns nil.
// The returned slice is a copy; the records share raw cell maps with the
// store and must be treated as read-only.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return nil
	}
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Stats reports the last successful load. Parses counts every attempt.
func (s *Store) Stats() LoadStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stats
	st.Parses = s.parses
	return st
}

func (s *Store) Warnings() []ParseWarning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ParseWarning(nil), s.warnings...)
}

// Source returns the configured source.
func (s *Store) Source() Source { return s.src }
