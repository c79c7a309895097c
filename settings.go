package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-settings/internal/atomicfile"
	"github.com/goliatone/go-settings/internal/keypath"
	"github.com/goliatone/go-settings/layering"
	"github.com/goliatone/go-settings/pkg/activity"
)

// ErrEmptyKey is returned when a key canonicalises to nothing.
var ErrEmptyKey = errors.New("settings: key must contain at least one segment")

// Status reports the outcome of the last load or sync.
type Status int

const (
	StatusNoError Status = iota
	StatusAccessError
	StatusFormatError
)

func (s Status) String() string {
	switch s {
	case StatusNoError:
		return "ok"
	case StatusAccessError:
		return "access error"
	case StatusFormatError:
		return "format error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Settings is a flat key/value store optionally bound to a document on disk.
// It is safe for concurrent use.
type Settings struct {
	mu      sync.RWMutex
	cfg     config
	path    string
	format  Format
	values  FlatMap
	dirty   bool
	status  Status
	loadErr error
	layers  []Layer

	emitter   *activity.Emitter
	evalOnce  sync.Once
	evaluator Evaluator
}

// New returns detached in-memory settings.
func New(opts ...Option) *Settings {
	cfg := applyOptions(opts)
	format := JSONFormat
	if cfg.format != nil {
		format = *cfg.format
	}
	return &Settings{
		cfg:     cfg,
		format:  format,
		values:  FlatMap{},
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{Enabled: true, Channel: cfg.activityChannel}),
	}
}

// Open binds settings to the document at path and reads it. A missing or
// blank file yields empty settings. A document that cannot be parsed leaves
// the settings empty with Status() == StatusFormatError and no error; other
// I/O failures are returned.
func Open(path string, opts ...Option) (*Settings, error) {
	if path == "" {
		return nil, fmt.Errorf("settings: open: path must not be empty")
	}
	s := New(opts...)
	s.path = path
	if s.cfg.format == nil {
		s.format = FormatForPath(path)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads the bound document. Callers hold the write lock or own s.
func (s *Settings) load() error {
	s.values = FlatMap{}
	s.dirty = false
	s.loadErr = nil
	s.status = StatusNoError

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger().Debug("settings document missing, starting empty", "path", s.path)
		return nil
	}
	if err != nil {
		s.status = StatusAccessError
		s.loadErr = err
		return fmt.Errorf("settings: open %q: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	values, err := ReadDocument(bytes.NewReader(data), s.format.codec())
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) && decodeErr.Source == "" {
			decodeErr.Source = s.path
		}
		s.status = StatusFormatError
		s.loadErr = err
		s.logger().Warn("settings document unreadable", "path", s.path, "format", s.format.Name, "error", err)
		return nil
	}
	s.values = values
	s.logger().Debug("settings document loaded", "path", s.path, "format", s.format.Name, "keys", len(values))
	return nil
}

// Path returns the bound document path, or "" for detached settings.
func (s *Settings) Path() string {
	return s.path
}

// Format returns the document format.
func (s *Settings) Format() Format {
	return s.format
}

// Status reports the outcome of the last load or sync.
func (s *Settings) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err returns the error behind a non-OK Status.
func (s *Settings) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Dirty reports whether there are changes Sync has not written.
func (s *Settings) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Value returns the leaf stored at key, falling back to the configured
// defaults. Group keys are not leaves; use Group or Tree for subtrees.
func (s *Settings) Value(key string) (Value, bool) {
	canonical := keypath.Canonical(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if value, ok := s.values[canonical]; ok {
		return value.Clone(), true
	}
	if value, ok := s.cfg.defaults[canonical]; ok {
		return value.Clone(), true
	}
	return Value{}, false
}

// ValueOr returns the value at key or def when absent.
func (s *Settings) ValueOr(key string, def Value) Value {
	if value, ok := s.Value(key); ok {
		return value
	}
	return def
}

// Contains reports whether key holds a value.
func (s *Settings) Contains(key string) bool {
	_, ok := s.Value(key)
	return ok
}

// SetValue stores value at key. Writing a leaf replaces any leaf on its path
// and any keys beneath it. Writing a non-empty object stores its leaves under
// key; an empty object clears the subtree.
func (s *Settings) SetValue(ctx context.Context, key string, value Value) error {
	segments := keypath.Split(key)
	if len(segments) == 0 {
		return ErrEmptyKey
	}
	canonical := keypath.Join(segments...)

	s.mu.Lock()
	old, had := s.values[canonical]
	if had && !value.IsObject() && old.Equal(value) {
		s.mu.Unlock()
		return nil
	}
	if value.IsObject() {
		layering.Shadow(s.values, segments)
		s.removeLocked(segments)
		if leaves, ok := Flatten(value); ok {
			for leaf, leafValue := range leaves {
				s.values[keypath.Join(canonical, leaf)] = leafValue
			}
		}
	} else {
		layering.Apply(s.values, FlatMap{canonical: value.Clone()})
	}
	s.dirty = true
	s.mu.Unlock()

	input := s.eventInput(canonical)
	if had {
		input.OldValue = old.Any()
	}
	input.NewValue = value.Any()
	s.emit(ctx, activity.BuildSettingUpdatedEvent(input))
	return nil
}

// Remove deletes key and every key beneath it. An empty key clears all
// settings.
func (s *Settings) Remove(ctx context.Context, key string) error {
	segments := keypath.Split(key)
	canonical := keypath.Join(segments...)

	s.mu.Lock()
	removed := s.removeLocked(segments)
	if removed > 0 {
		s.dirty = true
	}
	s.mu.Unlock()

	if removed == 0 {
		return nil
	}
	input := s.eventInput(canonical)
	input.Metadata = map[string]any{"removed": removed}
	s.emit(ctx, activity.BuildSettingDeletedEvent(input))
	return nil
}

func (s *Settings) removeLocked(segments []string) int {
	canonical := keypath.Join(segments...)
	removed := 0
	for key := range s.values {
		if key == canonical || keypath.IsStrictPrefix(segments, keypath.Split(key)) {
			delete(s.values, key)
			removed++
		}
	}
	return removed
}

// AllKeys returns every stored key in ascending order.
func (s *Settings) AllKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Keys()
}

// ChildKeys returns the names of leaves directly under group.
func (s *Settings) ChildKeys(group string) []string {
	leaves, _ := s.children(group)
	return leaves
}

// ChildGroups returns the names of groups directly under group.
func (s *Settings) ChildGroups(group string) []string {
	_, groups := s.children(group)
	return groups
}

func (s *Settings) children(group string) ([]string, []string) {
	prefix := keypath.Split(group)
	leafSet := map[string]struct{}{}
	groupSet := map[string]struct{}{}

	s.mu.RLock()
	for key := range s.values {
		segments := keypath.Split(key)
		if !keypath.IsStrictPrefix(prefix, segments) {
			continue
		}
		name := segments[len(prefix)]
		if len(segments) == len(prefix)+1 {
			leafSet[name] = struct{}{}
		} else {
			groupSet[name] = struct{}{}
		}
	}
	s.mu.RUnlock()

	return sortedSet(leafSet), sortedSet(groupSet)
}

// Snapshot returns a copy of the stored values.
func (s *Settings) Snapshot() FlatMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Clone()
}

// Tree returns the stored values as a nested object.
func (s *Settings) Tree() Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Unflatten(s.values)
}

// Layers returns the layers the settings were merged from, strongest first.
func (s *Settings) Layers() []Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Layer, len(s.layers))
	for i := range s.layers {
		out[i] = s.layers[i].clone()
	}
	return out
}

// Sync writes pending changes to the bound document. The document is
// replaced atomically. Empty settings are written as a blank file. Sync
// refuses to overwrite a document that failed to parse; Reload first.
func (s *Settings) Sync(ctx context.Context) error {
	if s.path == "" {
		return ErrNotBound
	}

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	if s.status == StatusFormatError {
		s.mu.Unlock()
		return fmt.Errorf("%w: refusing to overwrite %q", ErrMalformedDocument, s.path)
	}
	var data []byte
	if len(s.values) > 0 {
		encoded, err := s.format.codec().Encode(Unflatten(s.values))
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("settings: sync %q: %w", s.path, err)
		}
		data = encoded
	}
	if err := atomicfile.Write(s.path, data); err != nil {
		s.status = StatusAccessError
		s.loadErr = err
		s.mu.Unlock()
		s.logger().Error("settings sync failed", "path", s.path, "error", err)
		return fmt.Errorf("settings: sync %q: %w", s.path, err)
	}
	keys := len(s.values)
	s.dirty = false
	s.status = StatusNoError
	s.loadErr = nil
	s.mu.Unlock()

	s.logger().Debug("settings document synced", "path", s.path, "keys", keys)
	input := s.eventInput("")
	input.Document = s.path
	input.Metadata = map[string]any{"keys": keys, "format": s.format.Name}
	s.emit(ctx, activity.BuildDocumentSyncedEvent(input))
	return nil
}

// Reload discards pending changes and re-reads the bound document.
func (s *Settings) Reload(ctx context.Context) error {
	if s.path == "" {
		return ErrNotBound
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Settings) logger() *slog.Logger {
	if s.cfg.logger != nil {
		return s.cfg.logger
	}
	return slog.Default()
}

func (s *Settings) eventInput(key string) activity.SettingEventInput {
	return activity.SettingEventInput{
		ActorID:    s.cfg.actorID,
		TenantID:   s.cfg.tenantID,
		Document:   s.path,
		Key:        key,
		Scope:      s.cfg.scope.activityContext(""),
		OccurredAt: time.Now().UTC(),
	}
}

// emit delivers event to the activity hooks. Hook failures are logged and
// never fail the settings operation.
func (s *Settings) emit(ctx context.Context, event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger().Warn("settings activity hook failed", "verb", event.Verb, "object_id", event.ObjectID, "error", err)
	}
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
