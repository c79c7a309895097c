package settings

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrFunctionNotFound is returned by FunctionRegistry.Call for unknown names.
var ErrFunctionNotFound = errors.New("settings: function not registered")

// Function is a helper callable from expressions, either directly by name or
// through call(name, args...).
type Function func(args ...any) (any, error)

// FunctionRegistry holds custom functions keyed by lower-cased name. Reads
// never block; Register copies the table.
type FunctionRegistry struct {
	mu    sync.Mutex
	table atomic.Pointer[map[string]Function]
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{}
}

var functionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// setting and call are bound by every evaluator.
var reservedFunctions = []string{"setting", "call"}

// Register adds fn under name. Names must be identifiers, unique ignoring
// case, and not reserved.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	switch {
	case fn == nil:
		return fmt.Errorf("settings: function %q is nil", name)
	case name == "":
		return fmt.Errorf("settings: function name must not be empty")
	case !functionName.MatchString(name):
		return fmt.Errorf("settings: function name %q is not an identifier", name)
	}
	key := strings.ToLower(name)
	if slices.Contains(reservedFunctions, key) {
		return fmt.Errorf("settings: function name %q is reserved", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.snapshot()
	if _, exists := current[key]; exists {
		return fmt.Errorf("settings: function %q already registered", name)
	}
	next := make(map[string]Function, len(current)+1)
	maps.Copy(next, current)
	next[key] = fn
	r.table.Store(&next)
	return nil
}

func (r *FunctionRegistry) snapshot() map[string]Function {
	if table := r.table.Load(); table != nil {
		return *table
	}
	return nil
}

// Clone returns a registry with the same functions that no longer tracks
// later registrations on r.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	clone := &FunctionRegistry{}
	if current := r.snapshot(); current != nil {
		copied := maps.Clone(current)
		clone.table.Store(&copied)
	}
	return clone
}

// Call runs the function registered for name. Failures from fn are returned
// with the function name attached.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %q (no registry)", ErrFunctionNotFound, name)
	}
	fn := r.snapshot()[strings.ToLower(name)]
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	out, err := fn(args...)
	if err != nil {
		return nil, fmt.Errorf("settings: function %q: %w", name, err)
	}
	return out, nil
}

// Names returns the registered (lower-cased) names in order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.snapshot()))
}
