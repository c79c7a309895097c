package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	settings "github.com/goliatone/go-settings"
)

// ErrETagMismatch is returned when a save or mutation carries an ETag that no
// longer matches the stored snapshot.
var ErrETagMismatch = errors.New("state: etag mismatch")

// ErrNoLayers is returned by Resolve when none of the requested scopes has a
// stored snapshot.
var ErrNoLayers = errors.New("state: no layers found")

// Ref identifies one persisted snapshot for one settings domain.
type Ref struct {
	Domain string
	Scope  settings.Scope
}

// Meta is storage-owned metadata used for trace/audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one snapshot for a single scope reference.
type Store interface {
	Load(ctx context.Context, ref Ref) (snapshot settings.FlatMap, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot settings.FlatMap, meta Meta) (Meta, error)
}

// Mutator edits a snapshot in place.
type Mutator func(snapshot settings.FlatMap) error

// Validator rejects snapshots before Mutate saves them.
type Validator func(snapshot settings.FlatMap) error

// Resolver orchestrates scoped loads and merges them into Settings.
type Resolver struct {
	Store Store
	// Validate runs after the mutator and before the save. The default
	// rejects snapshots the JSON codec cannot encode.
	Validate Validator
	// Options apply to every Settings the resolver builds.
	Options []settings.Option
}

// Identifier returns the canonical storage key for the ref:
// system/<domain> or <scope>/<id>/<domain>, where id is read from the
// "<scope>_id" metadata entry.
func (r Ref) Identifier() (string, error) {
	if r.Domain == "" {
		return "", fmt.Errorf("state: domain is required")
	}
	switch r.Scope.Name {
	case "system":
		return fmt.Sprintf("system/%s", r.Domain), nil
	case "tenant", "org", "team", "user":
		metadataKey := r.Scope.Name + "_id"
		id, ok := r.Scope.Metadata[metadataKey]
		if !ok {
			return "", fmt.Errorf("state: missing metadata key %q for scope %q", metadataKey, r.Scope.Name)
		}
		idString, ok := id.(string)
		if !ok || idString == "" {
			return "", fmt.Errorf("state: missing metadata key %q for scope %q", metadataKey, r.Scope.Name)
		}
		return fmt.Sprintf("%s/%s/%s", r.Scope.Name, idString, r.Domain), nil
	default:
		return "", fmt.Errorf("state: unsupported scope name %q", r.Scope.Name)
	}
}

// Resolve loads the domain snapshot for every scope and merges the ones that
// exist.
func (r Resolver) Resolve(ctx context.Context, domain string, scopes ...settings.Scope) (*settings.Settings, error) {
	if err := r.check(domain); err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		return nil, fmt.Errorf("state: at least one scope is required")
	}

	layers, err := r.loadLayers(ctx, domain, scopes)
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w for domain %q", ErrNoLayers, domain)
	}
	return r.merge(layers)
}

// ResolveWithDefaults is Resolve with an extra "defaults" layer placed below
// every requested scope.
func (r Resolver) ResolveWithDefaults(ctx context.Context, domain string, defaults settings.FlatMap, scopes ...settings.Scope) (*settings.Settings, error) {
	if err := r.check(domain); err != nil {
		return nil, err
	}

	prioritySet := make(map[int]struct{}, len(scopes)+1)
	minPriority := 0
	if len(scopes) > 0 {
		minPriority = scopes[0].Priority
	}
	for _, scope := range scopes {
		if scope.Name == "defaults" {
			return nil, fmt.Errorf("state: scope name %q is reserved", "defaults")
		}
		prioritySet[scope.Priority] = struct{}{}
		if scope.Priority < minPriority {
			minPriority = scope.Priority
		}
	}

	defaultsPriority := 0
	if len(scopes) > 0 {
		defaultsPriority = minPriority - 1
		for {
			if _, ok := prioritySet[defaultsPriority]; !ok {
				break
			}
			defaultsPriority--
		}
	}

	layers, err := r.loadLayers(ctx, domain, scopes)
	if err != nil {
		return nil, err
	}
	defaultsScope := settings.NewScope("defaults", defaultsPriority, settings.WithScopeLabel("Defaults"))
	layers = append(layers, settings.NewLayer(defaultsScope, defaults))
	return r.merge(layers)
}

// Mutate loads one snapshot, applies fn to a copy, validates it, then saves.
// A non-empty meta.ETag must match the stored snapshot.
func (r Resolver) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (*settings.Settings, Meta, error) {
	if err := r.check(ref.Domain); err != nil {
		return nil, Meta{}, err
	}
	if ref.Scope.Name == "" {
		return nil, Meta{}, fmt.Errorf("state: scope name is required")
	}
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("state: mutator is required")
	}

	snapshot, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}
	if !ok {
		snapshot = settings.FlatMap{}
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	working := snapshot.Clone()
	if working == nil {
		working = settings.FlatMap{}
	}
	if err := fn(working); err != nil {
		return nil, loadedMeta, err
	}
	working = working.Canonical()

	validate := r.Validate
	if validate == nil {
		validate = encodable
	}
	if err := validate(working); err != nil {
		return nil, loadedMeta, err
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	savedMeta, err := r.Store.Save(ctx, ref, working, saveMeta)
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("state: save %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}

	out, err := r.merge([]settings.Layer{
		settings.NewLayer(ref.Scope, working, settings.WithSnapshotID(savedMeta.SnapshotID)),
	})
	if err != nil {
		return nil, loadedMeta, err
	}
	return out, savedMeta, nil
}

func (r Resolver) check(domain string) error {
	if r.Store == nil {
		return fmt.Errorf("state: store is required")
	}
	if domain == "" {
		return fmt.Errorf("state: domain is required")
	}
	return nil
}

func (r Resolver) loadLayers(ctx context.Context, domain string, scopes []settings.Scope) ([]settings.Layer, error) {
	layers := make([]settings.Layer, 0, len(scopes)+1)
	for _, scope := range scopes {
		snapshot, meta, ok, err := r.Store.Load(ctx, Ref{Domain: domain, Scope: scope})
		if err != nil {
			return nil, fmt.Errorf("state: load %q for scope %q: %w", domain, scope.Name, err)
		}
		if !ok {
			continue
		}
		layers = append(layers, settings.NewLayer(scope, snapshot, settings.WithSnapshotID(meta.SnapshotID)))
	}
	return layers, nil
}

func (r Resolver) merge(layers []settings.Layer) (*settings.Settings, error) {
	stack, err := settings.NewStack(layers...)
	if err != nil {
		return nil, fmt.Errorf("state: stack: %w", err)
	}
	opts := append([]settings.Option{settings.WithScopeSchema(true)}, r.Options...)
	return stack.Merge(opts...)
}

func encodable(snapshot settings.FlatMap) error {
	if _, err := (settings.JSONCodec{Compact: true}).Encode(settings.Unflatten(snapshot)); err != nil {
		return fmt.Errorf("state: invalid snapshot: %w", err)
	}
	return nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
