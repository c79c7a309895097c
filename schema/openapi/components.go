package openapi

import (
	"fmt"
	"regexp"
)

// componentRegistry publishes object shapes that occur at least minShared
// times under #/components/schemas. Shapes are counted before rendering so
// every occurrence, including the first, becomes a reference.
type componentRegistry struct {
	minShared int
	counts    map[string]int
	names     map[string]string
	schemas   map[string]map[string]any
	usedNames map[string]struct{}
}

func newComponentRegistry(minShared int) *componentRegistry {
	return &componentRegistry{
		minShared: minShared,
		counts:    map[string]int{},
		names:     map[string]string{},
		schemas:   map[string]map[string]any{},
		usedNames: map[string]struct{}{},
	}
}

// count walks node and records how often each object shape appears.
func (r *componentRegistry) count(node *schemaNode) {
	if node == nil {
		return
	}
	if node.Type == "object" && len(node.Properties) > 0 {
		r.counts[node.Digest()]++
	}
	for _, name := range node.propertyNames() {
		r.count(node.Properties[name])
	}
	r.count(node.Items)
	for _, variant := range node.OneOf {
		r.count(variant)
	}
}

func (r *componentRegistry) shared(node *schemaNode) bool {
	if r.minShared <= 0 || node == nil || node.Type != "object" || len(node.Properties) == 0 {
		return false
	}
	return r.counts[node.Digest()] >= r.minShared
}

// reference returns the $ref for node, publishing schema under a name derived
// from nameHint the first time the shape is seen.
func (r *componentRegistry) reference(nameHint string, node *schemaNode, render func() map[string]any) string {
	digest := node.Digest()
	name, ok := r.names[digest]
	if !ok {
		name = r.uniqueName(nameHint)
		r.names[digest] = name
		r.schemas[name] = render()
	}
	return fmt.Sprintf("#/components/schemas/%s", name)
}

func (r *componentRegistry) uniqueName(name string) string {
	safe := sanitizeComponentName(name)
	if safe == "" {
		safe = "Schema"
	}
	candidate := safe
	for suffix := 1; ; suffix++ {
		if _, exists := r.usedNames[candidate]; !exists {
			r.usedNames[candidate] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s%d", safe, suffix)
	}
}

func (r *componentRegistry) componentsMap() map[string]any {
	if len(r.schemas) == 0 {
		return nil
	}
	out := make(map[string]any, len(r.schemas))
	for name, schema := range r.schemas {
		out[name] = schema
	}
	return out
}

var componentNameRegexp = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func sanitizeComponentName(name string) string {
	name = componentNameRegexp.ReplaceAllString(name, "_")
	for len(name) > 0 && name[0] == '_' {
		name = name[1:]
	}
	for len(name) > 0 && name[len(name)-1] == '_' {
		name = name[:len(name)-1]
	}
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
