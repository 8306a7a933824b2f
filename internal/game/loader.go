package game

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var ErrUnknownGame = errors.New("unknown game")

//go:embed games/*.yaml
var builtin embed.FS

const defaultID = "default"

// Loader reads game YAML files and merges default -> game.
//
// Layout (relative to the loader root):
//
//	games/default.yaml   shared draw/currency settings
//	games/<id>.yaml      per-game overrides and catalogs
type Loader struct {
	fsys fs.FS
	dir  string // on-disk root; empty for the embedded set

	mu    sync.RWMutex
	cache map[string]Game
}

// NewLoader creates a loader rooted at dir. An empty dir uses the built-in games.
func NewLoader(dir string) *Loader {
	if dir == "" {
		return NewLoaderFS(builtin)
	}
	l := NewLoaderFS(os.DirFS(dir))
	l.dir = dir
	return l
}

// NewLoaderFS creates a loader over any fs.FS with the games/ layout.
func NewLoaderFS(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys, cache: make(map[string]Game)}
}

// Load returns the resolved game, reading and caching it on first use.
func (l *Loader) Load(id string) (Game, error) {
	l.mu.RLock()
	g, ok := l.cache[id]
	l.mu.RUnlock()
	if ok {
		return g, nil
	}

	merged, err := l.LoadMerged(id)
	if err != nil {
		return Game{}, err
	}
	g, err = Resolve(id, merged)
	if err != nil {
		return Game{}, err
	}

	l.mu.Lock()
	l.cache[id] = g
	l.mu.Unlock()
	return g, nil
}

// LoadMerged reads default and game files and returns the merged RawConfig
// without validation.
func (l *Loader) LoadMerged(id string) (RawConfig, error) {
	if id == "" || id == defaultID || strings.ContainsAny(id, `/\.`) {
		return RawConfig{}, fmt.Errorf("%w: %q", ErrUnknownGame, id)
	}
	def, err := readYAML(l.fsys, gamePath(defaultID))
	if err != nil {
		return RawConfig{}, fmt.Errorf("read default: %w", err)
	}
	gameCfg, err := readYAML(l.fsys, gamePath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return RawConfig{}, fmt.Errorf("%w: %q", ErrUnknownGame, id)
	}
	if err != nil {
		return RawConfig{}, fmt.Errorf("read game %s: %w", id, err)
	}
	return mergeRaw(def, gameCfg), nil
}

// List returns the ids of every game file, sorted.
func (l *Loader) List() ([]string, error) {
	matches, err := fs.Glob(l.fsys, "games/*.yaml")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		id := strings.TrimSuffix(path.Base(m), ".yaml")
		if id != defaultID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Paths returns the on-disk files that define id, for watching.
// It returns nil for the embedded set.
func (l *Loader) Paths(id string) []string {
	if l.dir == "" {
		return nil
	}
	return []string{
		filepath.Join(l.dir, filepath.FromSlash(gamePath(defaultID))),
		filepath.Join(l.dir, filepath.FromSlash(gamePath(id))),
	}
}

// Invalidate clears the cache. Call after the watcher detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]Game)
}

func gamePath(id string) string { return path.Join("games", id+".yaml") }

// readYAML decodes one file strictly. A missing default file yields a zero config;
// a missing game file is reported as fs.ErrNotExist.
func readYAML(fsys fs.FS, name string) (RawConfig, error) {
	var cfg RawConfig
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path.Base(name) == defaultID+".yaml" {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return RawConfig{}, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, nil
}

// mergeRaw overlays b on a: set scalars and pointers in b win, slices in b replace,
// catalogs merge per regime.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Name != "" {
		out.Name = b.Name
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// currency
	switch {
	case out.Currency == nil && b.Currency != nil:
		c := *b.Currency
		out.Currency = &c
	case out.Currency != nil && b.Currency != nil:
		c := *out.Currency
		if b.Currency.Name != "" {
			c.Name = b.Currency.Name
		}
		if b.Currency.PerPull != nil {
			c.PerPull = b.Currency.PerPull
		}
		if b.Currency.Store != "" {
			c.Store = b.Currency.Store
		}
		out.Currency = &c
	}

	// draw
	if b.Draw.PBase != nil {
		out.Draw.PBase = b.Draw.PBase
	}
	if b.Draw.Pity != nil {
		out.Draw.Pity = b.Draw.Pity
	}
	switch {
	case out.Draw.Soft == nil && b.Draw.Soft != nil:
		s := *b.Draw.Soft
		out.Draw.Soft = &s
	case out.Draw.Soft != nil && b.Draw.Soft != nil:
		s := *out.Draw.Soft
		if b.Draw.Soft.StartAt != nil {
			s.StartAt, s.StartPct = b.Draw.Soft.StartAt, nil
		}
		if b.Draw.Soft.StartPct != nil {
			s.StartPct = b.Draw.Soft.StartPct
			if b.Draw.Soft.StartAt == nil {
				s.StartAt = nil
			}
		}
		if b.Draw.Soft.Target != nil {
			s.Target = b.Draw.Soft.Target
		}
		if b.Draw.Soft.Easing != "" {
			s.Easing = b.Draw.Soft.Easing
		}
		out.Draw.Soft = &s
	}

	// banner
	switch {
	case out.Banner == nil && b.Banner != nil:
		c := *b.Banner
		out.Banner = &c
	case out.Banner != nil && b.Banner != nil:
		c := *out.Banner
		if len(b.Banner.OffProbs) > 0 {
			c.OffProbs = append([]float64(nil), b.Banner.OffProbs...)
		}
		if b.Banner.MaxOff != 0 {
			c.MaxOff = b.Banner.MaxOff
		}
		out.Banner = &c
	}

	// catalogs
	if len(b.Catalogs) > 0 {
		merged := make(map[string][]BundleConfig, len(a.Catalogs)+len(b.Catalogs))
		for k, v := range a.Catalogs {
			merged[k] = v
		}
		for k, v := range b.Catalogs {
			merged[k] = append([]BundleConfig(nil), v...)
		}
		out.Catalogs = merged
	}

	return out
}
