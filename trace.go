package settings

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-settings/internal/keypath"
	"github.com/goliatone/go-settings/layering"
)

// ErrKeyNotFound is returned by ResolveWithTrace when no value exists.
var ErrKeyNotFound = errors.New("settings: key not found")

// Trace captures provenance for a key across the layers that produced the
// merged settings.
type Trace struct {
	Key    string       `json:"key"`
	Layers []Provenance `json:"layers"`
}

// Provenance details how a specific scope contributed to a traced key.
type Provenance struct {
	Scope      Scope  `json:"scope"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Key        string `json:"key"`
	Value      any    `json:"value,omitempty"`
	Found      bool   `json:"found"`
	// Effective marks the layer whose value survived the merge.
	Effective bool `json:"effective"`
}

// ResolveWithTrace returns the value at key together with the provenance of
// every layer, strongest first. Settings not produced by Stack.Merge return
// an empty trace. A missing key returns ErrKeyNotFound alongside the trace.
func (s *Settings) ResolveWithTrace(key string) (Value, Trace, error) {
	canonical := keypath.Canonical(key)
	if canonical == "" {
		return Value{}, Trace{}, ErrEmptyKey
	}
	layers := s.Layers()
	trace := Trace{Key: canonical, Layers: make([]Provenance, 0, len(layers))}

	snapshots := make([]map[string]Value, len(layers))
	for i := range layers {
		snapshots[i] = layers[i].Snapshot
	}
	_, effective, _ := layering.Lookup(canonical, snapshots...)

	for i, layer := range layers {
		entry := Provenance{
			Scope:      layer.Scope,
			SnapshotID: layer.SnapshotID,
			Key:        canonical,
			Effective:  i == effective,
		}
		if value, ok := layer.Snapshot[canonical]; ok {
			entry.Found = true
			entry.Value = value.Native()
		}
		trace.Layers = append(trace.Layers, entry)
	}

	value, ok := s.Value(canonical)
	if !ok {
		return Value{}, trace, fmt.Errorf("%w: %s", ErrKeyNotFound, canonical)
	}
	return value, trace, nil
}

// EffectiveScope returns the scope of the layer that supplied the value, if
// any.
func (t Trace) EffectiveScope() (Scope, bool) {
	for _, layer := range t.Layers {
		if layer.Effective {
			return layer.Scope, true
		}
	}
	return Scope{}, false
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
