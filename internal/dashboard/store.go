package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xtding233/shardcost/internal/game"
)

type snapshots map[string]*Snapshot

// Store publishes snapshots per game. Readers never lock; a reload builds a new map
// and swaps it in.
type Store struct {
	loader *game.Loader
	opts   Options
	log    *zap.Logger

	current atomic.Pointer[snapshots]
	writeMu sync.Mutex // serializes reloads
}

// NewStore creates an empty store. Call Load before serving.
func NewStore(loader *game.Loader, opts Options, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{loader: loader, opts: opts, log: log}
	empty := snapshots{}
	s.current.Store(&empty)
	return s
}

// Load builds snapshots for ids, or for every game the loader lists when ids is empty,
// and publishes them together.
func (s *Store) Load(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		all, err := s.loader.List()
		if err != nil {
			return err
		}
		ids = all
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := make(snapshots, len(*s.current.Load())+len(ids))
	for id, snap := range *s.current.Load() {
		next[id] = snap
	}
	for _, id := range ids {
		g, err := s.loader.Load(id)
		if err != nil {
			return err
		}
		snap, err := Build(ctx, g, s.opts, s.log)
		if err != nil {
			return err
		}
		next[id] = snap
	}
	s.current.Store(&next)
	return nil
}

// Get returns the published snapshot for a game.
func (s *Store) Get(id string) (*Snapshot, error) {
	snap, ok := (*s.current.Load())[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", game.ErrUnknownGame, id)
	}
	return snap, nil
}

// Games lists the published game ids, sorted.
func (s *Store) Games() []string {
	cur := *s.current.Load()
	ids := make([]string, 0, len(cur))
	for id := range cur {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reload drops cached definitions and rebuilds the given games. On failure the
// previous snapshots stay published.
func (s *Store) Reload(ctx context.Context, ids ...string) error {
	s.loader.Invalidate()
	if err := s.Load(ctx, ids...); err != nil {
		s.log.Error("reload failed, keeping previous snapshots", zap.Strings("games", ids), zap.Error(err))
		return err
	}
	s.log.Info("reloaded", zap.Strings("games", ids))
	return nil
}

// Watch polls the on-disk files of every published game and reloads on change.
// It returns a stop function; with the embedded game set there is nothing to watch.
func (s *Store) Watch(ctx context.Context, interval time.Duration) (stop func()) {
	var paths []string
	seen := make(map[string]bool)
	for _, id := range s.Games() {
		for _, p := range s.loader.Paths(id) {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	if len(paths) == 0 {
		return func() {}
	}

	w := game.NewFileWatcher(paths, interval, s.log, func([]string) {
		_ = s.Reload(ctx, s.Games()...)
	})
	w.Start()
	return w.Stop
}
