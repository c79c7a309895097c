package openapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/internal/keypath"
)

type schemaNode struct {
	Type        string
	Description string
	Nullable    bool
	Default     any
	Properties  map[string]*schemaNode
	Items       *schemaNode
	OneOf       []*schemaNode
}

func newObjectNode() *schemaNode {
	return &schemaNode{
		Type:       "object",
		Properties: map[string]*schemaNode{},
	}
}

func (n *schemaNode) baseMap() map[string]any {
	result := map[string]any{}
	if n.Type != "" {
		result["type"] = n.Type
	}
	if n.Description != "" {
		result["description"] = n.Description
	}
	if n.Nullable {
		result["nullable"] = true
	}
	if n.Default != nil {
		result["default"] = n.Default
	}
	return result
}

func (n *schemaNode) inlineOpenAPI() map[string]any {
	result := n.baseMap()
	if n.Type == "object" {
		props := make(map[string]any, len(n.Properties))
		for _, name := range n.propertyNames() {
			props[name] = n.Properties[name].inlineOpenAPI()
		}
		result["properties"] = props
	}
	if n.Type == "array" {
		if n.Items == nil {
			result["items"] = map[string]any{}
		} else {
			result["items"] = n.Items.inlineOpenAPI()
		}
	}
	if len(n.OneOf) > 0 {
		variants := make([]any, len(n.OneOf))
		for i, variant := range n.OneOf {
			variants[i] = variant.inlineOpenAPI()
		}
		result["oneOf"] = variants
	}
	return result
}

func (n *schemaNode) propertyNames() []string {
	names := make([]string, 0, len(n.Properties))
	for name := range n.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Digest identifies the node by its rendered schema.
func (n *schemaNode) Digest() string {
	data, err := json.Marshal(n.inlineOpenAPI())
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type graphBuilder struct {
	defaults     bool
	descriptions map[string]string
}

// buildSchemaGraph describes root. A non-object root is described as an empty
// object since settings documents always have an object root.
func buildSchemaGraph(root settings.Value, cfg generatorConfig) *schemaNode {
	if !root.IsObject() {
		return newObjectNode()
	}
	b := graphBuilder{defaults: cfg.valueDefaults, descriptions: cfg.descriptions}
	return b.build(root, "")
}

func (b graphBuilder) build(v settings.Value, path string) *schemaNode {
	node := b.shape(v, path)
	if path != "" {
		node.Description = b.descriptions[path]
	}
	return node
}

func (b graphBuilder) shape(v settings.Value, path string) *schemaNode {
	switch v.Kind() {
	case settings.KindNull:
		return &schemaNode{Nullable: true}
	case settings.KindObject:
		node := newObjectNode()
		for _, name := range v.Fields() {
			field, _ := v.Field(name)
			node.Properties[name] = b.build(field, keypath.Join(path, name))
		}
		return node
	case settings.KindArray:
		elems, _ := v.Elems()
		return &schemaNode{Type: "array", Items: unify(elems)}
	default:
		node := &schemaNode{Type: settings.TypeName(v)}
		if v.Kind() == settings.KindBool {
			node.Type = "boolean"
		}
		if b.defaults {
			node.Default = v.Native()
		}
		return node
	}
}

// unify returns the item schema for elems: the shared schema when every
// element agrees, "number" when integers and floats mix, otherwise a oneOf of
// the distinct shapes in order of first appearance.
//
// Elements carry neither defaults nor descriptions, which would make every
// element distinct.
func unify(elems []settings.Value) *schemaNode {
	if len(elems) == 0 {
		return nil
	}
	var shapes graphBuilder
	seen := map[string]struct{}{}
	var variants []*schemaNode
	for _, elem := range elems {
		node := shapes.build(elem, "")
		digest := node.Digest()
		if _, ok := seen[digest]; ok {
			continue
		}
		seen[digest] = struct{}{}
		variants = append(variants, node)
	}
	if len(variants) == 1 {
		return variants[0]
	}
	if numericOnly(variants) {
		return &schemaNode{Type: "number"}
	}
	return &schemaNode{OneOf: variants}
}

func numericOnly(nodes []*schemaNode) bool {
	for _, node := range nodes {
		if node.Type != "integer" && node.Type != "number" {
			return false
		}
	}
	return true
}
