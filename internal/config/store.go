// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ChangeFunc is called with the name of a preference key whose value changed.
type ChangeFunc func(key string)

// Store holds configuration with atomic reloading capability.
// Reads are thread-safe; every successful reload or Set publishes one
// ChangeFunc call per preference key whose effective value changed.
type Store struct {
	mu       sync.RWMutex
	path     string
	prefs    map[string]string
	settings Settings
	logger   zerolog.Logger

	writeMu  sync.Mutex
	reloadMu sync.Mutex

	subMu  sync.Mutex
	subs   map[uint64]ChangeFunc
	subSeq uint64

	debounce time.Duration
	watchMu  sync.Mutex
	stopLoop context.CancelFunc
	loopDone chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithDebounce overrides the file watcher debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// Open loads the configuration at path. A missing file yields defaults; the
// file is created by the first Set. An empty path disables persistence.
func Open(path string, opts ...Option) (*Store, error) {
	l, err := load(path)
	if err != nil {
		return nil, err
	}
	s := &Store{
		path:     path,
		prefs:    l.prefs,
		settings: l.settings,
		logger:   xglog.WithComponent("config"),
		subs:     make(map[uint64]ChangeFunc),
		debounce: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Settings returns the daemon settings captured at load time.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Prefs returns a copy of every preference value.
func (s *Store) Prefs() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.prefs))
	for k, v := range s.prefs {
		out[k] = v
	}
	return out
}

// GetString returns the preference value or def when unset.
func (s *Store) GetString(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.prefs[key]; ok {
		return v
	}
	return def
}

// GetInt returns the preference parsed as an integer. Values that do not
// parse fall back to def with a warning.
func (s *Store) GetInt(key string, def int) int {
	raw := s.GetString(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		s.logger.Warn().
			Str(xglog.FieldKey, key).
			Str("value", raw).
			Int("default", def).
			Msg("invalid integer preference, using default")
		return def
	}
	return v
}

// GetBool returns the preference parsed as a boolean, or def.
func (s *Store) GetBool(key string, def bool) bool {
	raw := s.GetString(key, "")
	if raw == "" {
		return def
	}
	if b, ok := parseBoolValue(raw); ok {
		return b
	}
	s.logger.Warn().
		Str(xglog.FieldKey, key).
		Str("value", raw).
		Bool("default", def).
		Msg("invalid boolean preference, using default")
	return def
}

// Subscribe registers fn for preference change notifications and returns a
// function that removes it. Callbacks run on the goroutine that performed the
// reload and must not block.
func (s *Store) Subscribe(fn ChangeFunc) (unsubscribe func()) {
	s.subMu.Lock()
	s.subSeq++
	id := s.subSeq
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Reload reloads configuration from file and validates it.
// If validation fails, the old configuration is kept and an error is returned.
func (s *Store) Reload(_ context.Context) error {
	// One reload at a time: file read, swap and notification stay in order.
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	s.logger.Debug().Str(xglog.FieldEvent, "config.reload_start").Msg("reloading configuration")

	l, err := load(s.path)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.reload_failed").
			Msg("failed to load new configuration")
		return fmt.Errorf("reload config: %w", err)
	}

	s.mu.Lock()
	old := s.prefs
	s.prefs = l.prefs
	s.mu.Unlock()

	changed := diffPrefs(old, l.prefs)
	for _, key := range changed {
		s.logger.Info().
			Str(xglog.FieldEvent, "config.changed").
			Str(xglog.FieldKey, key).
			Str("old", old[key]).
			Str("new", l.prefs[key]).
			Msg("preference changed")
	}
	s.notify(changed)

	s.logger.Debug().
		Str(xglog.FieldEvent, "config.reload_success").
		Int("changed", len(changed)).
		Msg("configuration reloaded")
	return nil
}

// Set validates value, persists it atomically to the config file and
// reloads, which publishes the change.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ValidatePref(key, value); err != nil {
		return err
	}
	if s.path == "" {
		return ErrNoConfigPath
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	fc, err := readFileConfig(s.path)
	if err != nil {
		return err
	}
	if fc.Prefs == nil {
		fc.Prefs = make(map[string]any)
	}
	fc.Prefs[key] = value

	data, err := yaml.Marshal(&fc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return err
	}

	s.logger.Info().
		Str(xglog.FieldEvent, "config.persisted").
		Str(xglog.FieldKey, key).
		Str(xglog.FieldPath, s.path).
		Msg("preference written")

	return s.Reload(ctx)
}

func (s *Store) notify(keys []string) {
	if len(keys) == 0 {
		return
	}
	s.subMu.Lock()
	fns := make([]ChangeFunc, 0, len(s.subs))
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, key := range keys {
		for _, fn := range fns {
			fn(key)
		}
	}
}

// diffPrefs returns the keys whose values differ, in PrefKeys order.
func diffPrefs(old, next map[string]string) []string {
	var changed []string
	for _, key := range PrefKeys {
		if old[key] != next[key] {
			changed = append(changed, key)
		}
	}
	return changed
}

func readFileConfig(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return FileConfig{}, nil
	}
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	return parse(data)
}

// writeAtomic replaces path with data: temp file, fsync, rename.
func writeAtomic(path string, data []byte) error {
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending config file: %w", err)
	}
	defer func() {
		_ = pendingFile.Cleanup()
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write config data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace config file: %w", err)
	}
	return nil
}
