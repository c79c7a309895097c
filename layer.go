package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-settings/layering"
	"github.com/goliatone/go-settings/pkg/activity"
)

// Scope models a named precedence bucket (system, tenant, user, etc.). Higher
// priority values represent stronger layers.
type Scope struct {
	Name     string         `json:"name"`
	Label    string         `json:"label,omitempty"`
	Priority int            `json:"priority"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScopeOption configures metadata on Scope creation.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	label    string
	metadata map[string]any
}

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.label = label
	}
}

// WithScopeMetadata attaches arbitrary metadata to the scope. The map is
// copied.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(cfg *scopeConfig) {
		if len(metadata) == 0 {
			return
		}
		cfg.metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope. Validation is deferred to NewStack.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	cfg := scopeConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return Scope{
		Name:     name,
		Label:    cfg.label,
		Priority: priority,
		Metadata: copyMetadata(cfg.metadata),
	}
}

func (s Scope) clone() Scope {
	return Scope{
		Name:     s.Name,
		Label:    s.Label,
		Priority: s.Priority,
		Metadata: copyMetadata(s.Metadata),
	}
}

func (s Scope) isZero() bool {
	return s.Name == "" && s.Label == "" && s.Priority == 0 && len(s.Metadata) == 0
}

func (s Scope) activityContext(snapshotID string) activity.ScopeContext {
	return activity.ScopeContext{
		Name:       s.Name,
		Label:      s.Label,
		Priority:   s.Priority,
		Metadata:   copyMetadata(s.Metadata),
		SnapshotID: snapshotID,
	}
}

// Layer pairs a scope with the flat settings captured for it.
type Layer struct {
	Scope      Scope
	Snapshot   FlatMap
	SnapshotID string
}

// LayerOption configures optional metadata for a layer.
type LayerOption func(*Layer)

// WithSnapshotID sets the snapshot identifier used for auditing.
func WithSnapshotID(id string) LayerOption {
	return func(layer *Layer) {
		layer.SnapshotID = id
	}
}

// NewLayer constructs a Layer holding copies of scope and snapshot. Snapshot
// keys are canonicalised.
func NewLayer(scope Scope, snapshot FlatMap, opts ...LayerOption) Layer {
	layer := Layer{
		Scope:    scope.clone(),
		Snapshot: snapshot.Canonical(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&layer)
	}
	return layer
}

func (l Layer) clone() Layer {
	return Layer{
		Scope:      l.Scope.clone(),
		Snapshot:   l.Snapshot.Clone(),
		SnapshotID: l.SnapshotID,
	}
}

var (
	// ErrScopeNameRequired indicates a missing scope name.
	ErrScopeNameRequired = errors.New("settings: scope name must be provided")
	// ErrDuplicateScopeName indicates NewStack received multiple layers with
	// the same scope name.
	ErrDuplicateScopeName = errors.New("settings: scope names must be unique")
	// ErrPriorityOrder indicates NewStack detected duplicate priorities.
	ErrPriorityOrder = errors.New("settings: scope priorities must be strictly ordered")
	// ErrEmptyStack indicates Merge was called without layers.
	ErrEmptyStack = errors.New("settings: stack must include at least one layer")
)

// Stack is an immutable list of layers ordered from strongest to weakest.
type Stack struct {
	layers []Layer
}

// NewStack validates the supplied layers and sorts them so that the highest
// priority comes first.
func NewStack(layers ...Layer) (*Stack, error) {
	if len(layers) == 0 {
		return &Stack{}, nil
	}

	seenNames := make(map[string]struct{}, len(layers))
	copied := make([]Layer, len(layers))
	for i, layer := range layers {
		layer := layer.clone()
		if layer.Scope.Name == "" {
			return nil, ErrScopeNameRequired
		}
		if _, ok := seenNames[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		seenNames[layer.Scope.Name] = struct{}{}
		copied[i] = layer
	}

	sort.Slice(copied, func(i, j int) bool {
		if copied[i].Scope.Priority == copied[j].Scope.Priority {
			return copied[i].Scope.Name < copied[j].Scope.Name
		}
		return copied[i].Scope.Priority > copied[j].Scope.Priority
	})

	for i := 1; i < len(copied); i++ {
		if copied[i-1].Scope.Priority <= copied[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Scope.Priority)
		}
	}

	return &Stack{layers: copied}, nil
}

// Layers returns copies of the layers, strongest first.
func (s *Stack) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i := range s.layers {
		out[i] = s.layers[i].clone()
	}
	return out
}

// Len returns the number of layers in the stack.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Merge resolves the stack into detached Settings that remember each
// contributing layer for ResolveWithTrace. The options apply to the result;
// a settings.layer.applied event is emitted per layer.
func (s *Stack) Merge(opts ...Option) (*Settings, error) {
	if s == nil || len(s.layers) == 0 {
		return nil, ErrEmptyStack
	}
	snapshots := make([]map[string]Value, len(s.layers))
	for i := range s.layers {
		snapshots[i] = s.layers[i].Snapshot
	}
	merged := FlatMap(layering.MergeFlat(snapshots...)).Clone()

	out := New(opts...)
	out.values = merged
	out.layers = s.Layers()

	for _, layer := range out.layers {
		input := out.eventInput("")
		input.Scope = layer.Scope.activityContext(layer.SnapshotID)
		input.Metadata = map[string]any{"keys": len(layer.Snapshot)}
		out.emit(context.Background(), activity.BuildLayerAppliedEvent(input))
	}
	out.logger().Debug("settings layers merged", "layers", len(out.layers), "keys", len(merged))
	return out, nil
}

const (
	// Recommended priorities for common layering patterns. Higher numbers win.
	ScopePrioritySystem = 100
	ScopePriorityTenant = 200
	ScopePriorityOrg    = 300
	ScopePriorityTeam   = 400
	ScopePriorityUser   = 500
)

// SystemTenantOrgTeamUser assembles the five-layer stack system, tenant, org,
// team, user and returns the merged settings.
func SystemTenantOrgTeamUser(system, tenant, org, team, user FlatMap, opts ...Option) (*Settings, error) {
	stack, err := NewStack(
		NewLayer(NewScope("user", ScopePriorityUser, WithScopeLabel("User")), user),
		NewLayer(NewScope("team", ScopePriorityTeam, WithScopeLabel("Team")), team),
		NewLayer(NewScope("org", ScopePriorityOrg, WithScopeLabel("Organization")), org),
		NewLayer(NewScope("tenant", ScopePriorityTenant, WithScopeLabel("Tenant")), tenant),
		NewLayer(NewScope("system", ScopePrioritySystem, WithScopeLabel("System Defaults")), system),
	)
	if err != nil {
		return nil, err
	}
	return stack.Merge(opts...)
}

func scopeToBinding(scope Scope) map[string]any {
	if scope.isZero() {
		return nil
	}
	binding := map[string]any{
		"name":     scope.Name,
		"label":    scope.Label,
		"priority": scope.Priority,
	}
	if len(scope.Metadata) > 0 {
		binding["metadata"] = copyMetadata(scope.Metadata)
	}
	return binding
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
