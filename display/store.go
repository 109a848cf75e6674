// Package display holds the process-wide display state: the latest compiled
// animation, its version counter, the last source URL and the fit mode.
package display

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"gifscreen/transcoder"
)

// Snapshot is a consistent read-only view of the state. Binary and Version
// always belong together.
type Snapshot struct {
	Binary  []byte
	Version uint64
	Mode    transcoder.FitMode
	URL     string
	Frames  int
	DelayMs uint16
}

// Empty reports whether nothing has been compiled yet.
func (s Snapshot) Empty() bool {
	return len(s.Binary) == 0
}

// Result describes a successful compile.
type Result struct {
	Frames  int
	DelayMs uint16
	Bytes   int
	Version uint64
}

// Listener is called after every successful publish.
type Listener func(Snapshot)

// Store owns the display state. The zero value is not usable; call NewStore.
type Store struct {
	fetcher transcoder.Fetcher

	// compileMu serializes compiles so the later request wins.
	compileMu sync.Mutex

	mu      sync.RWMutex
	binary  []byte
	version uint64
	lastURL string
	mode    transcoder.FitMode
	header  transcoder.Header

	listenersMu sync.RWMutex
	listeners   []Listener

	// notifyMu orders deliveries; notified is the last version delivered.
	notifyMu sync.Mutex
	notified uint64
}

func NewStore(fetcher transcoder.Fetcher, mode transcoder.FitMode) *Store {
	return &Store{
		fetcher: fetcher,
		mode:    mode,
	}
}

// Subscribe registers fn to be told about new versions. Calls happen on a
// separate goroutine after the compile has returned, one at a time and in
// increasing version order; a version superseded before delivery is skipped.
func (s *Store) Subscribe(fn Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Binary:  s.binary,
		Version: s.version,
		Mode:    s.mode,
		URL:     s.lastURL,
		Frames:  int(s.header.Frames),
		DelayMs: s.header.DelayMs,
	}
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) Mode() transcoder.FitMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Compile runs the whole pipeline for rawURL and, only if every stage
// succeeds, publishes the new binary with version+1. On failure the state is
// left exactly as it was.
func (s *Store) Compile(ctx context.Context, rawURL string, mode transcoder.FitMode) (Result, error) {
	s.compileMu.Lock()
	defer s.compileMu.Unlock()
	return s.compileLocked(ctx, rawURL, mode)
}

// CompileCurrent is Compile with the fit mode that is active once this
// compile gets its turn.
func (s *Store) CompileCurrent(ctx context.Context, rawURL string) (Result, error) {
	s.compileMu.Lock()
	defer s.compileMu.Unlock()
	return s.compileLocked(ctx, rawURL, s.Mode())
}

func (s *Store) compileLocked(ctx context.Context, rawURL string, mode transcoder.FitMode) (Result, error) {
	id := uuid.New().String()
	log := slog.With("compile_id", id, "url", rawURL, "mode", mode.String())
	start := time.Now()
	log.Info("compile started")

	blob, err := transcoder.Compile(ctx, s.fetcher, rawURL, mode)
	if err != nil {
		log.Warn("compile failed", "kind", transcoder.Kind(err), "error", err)
		return Result{}, err
	}
	header, _, err := transcoder.ParseBlob(blob)
	if err != nil {
		log.Error("compiled blob is malformed", "error", err)
		return Result{}, err
	}

	s.mu.Lock()
	s.binary = blob
	s.version++
	s.lastURL = rawURL
	s.mode = mode
	s.header = header
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Info("compile published",
		"version", snap.Version,
		"frames", header.Frames,
		"delay_ms", header.DelayMs,
		"bytes", len(blob),
		"elapsed", time.Since(start))

	go s.notify(snap)
	return Result{
		Frames:  int(header.Frames),
		DelayMs: header.DelayMs,
		Bytes:   len(blob),
		Version: snap.Version,
	}, nil
}

// SetMode switches the fit mode and recompiles the last source with it.
// The new mode sticks even if that recompile fails. With no source on record
// it returns a zero Result and no error.
func (s *Store) SetMode(ctx context.Context, mode transcoder.FitMode) (Result, error) {
	s.compileMu.Lock()
	defer s.compileMu.Unlock()

	s.mu.Lock()
	prev := s.mode
	s.mode = mode
	lastURL := s.lastURL
	s.mu.Unlock()

	slog.Info("fit mode changed", "from", prev.String(), "to", mode.String())
	if lastURL == "" {
		return Result{}, nil
	}
	return s.compileLocked(ctx, lastURL, mode)
}

func (s *Store) notify(snap Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Version <= s.notified {
		return
	}
	s.notified = snap.Version

	s.listenersMu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(snap)
	}
}
