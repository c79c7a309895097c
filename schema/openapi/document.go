package openapi

import (
	"fmt"
	"strings"
)

// documentBuilder renders one schema graph into an OpenAPI document. It is
// single use; the generator creates one per Generate call.
type documentBuilder struct {
	cfg      generatorConfig
	registry *componentRegistry
}

func newDocumentBuilder(cfg generatorConfig) *documentBuilder {
	return &documentBuilder{cfg: cfg, registry: newComponentRegistry(cfg.minShared)}
}

func (b *documentBuilder) build(root *schemaNode) (map[string]any, error) {
	if err := b.cfg.validate(); err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("openapi: root schema node cannot be nil")
	}
	b.registry.count(root)

	var body map[string]any
	if name := b.cfg.rootComponent; name != "" {
		name = b.registry.uniqueName(name)
		b.registry.schemas[name] = b.render(root, name)
		body = map[string]any{"$ref": "#/components/schemas/" + name}
	} else {
		body = b.schemaFor(root, "Settings")
	}

	document := map[string]any{
		"openapi": b.cfg.openAPIVersion,
		"info":    b.info(),
		"paths": map[string]any{
			b.cfg.operation.Path: map[string]any{
				b.cfg.method(): b.operation(body),
			},
		},
	}
	if components := b.registry.componentsMap(); components != nil {
		document["components"] = map[string]any{"schemas": components}
	}
	return document, nil
}

func (b *documentBuilder) info() map[string]any {
	info := map[string]any{
		"title":   b.cfg.info.Title,
		"version": b.cfg.info.Version,
	}
	if b.cfg.info.Description != "" {
		info["description"] = b.cfg.info.Description
	}
	return info
}

func (b *documentBuilder) operation(body map[string]any) map[string]any {
	responses := make(map[string]any, len(b.cfg.responses))
	for status, resp := range b.cfg.responses {
		responses[status] = map[string]any{"description": resp.Description}
	}
	operation := map[string]any{
		"operationId": b.cfg.operationID(),
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				b.cfg.contentType: map[string]any{"schema": body},
			},
		},
		"responses": responses,
	}
	if b.cfg.operation.Summary != "" {
		operation["summary"] = b.cfg.operation.Summary
	}
	return operation
}

// schemaFor renders node inline, or as a $ref when its shape is shared.
func (b *documentBuilder) schemaFor(node *schemaNode, nameHint string) map[string]any {
	if node == nil {
		return map[string]any{}
	}
	if !b.registry.shared(node) {
		return b.render(node, nameHint)
	}
	ref := b.registry.reference(nameHint, node, func() map[string]any {
		return b.render(node, nameHint)
	})
	return map[string]any{"$ref": ref}
}

func (b *documentBuilder) render(node *schemaNode, nameHint string) map[string]any {
	result := node.baseMap()
	switch node.Type {
	case "object":
		props := make(map[string]any, len(node.Properties))
		for _, key := range node.propertyNames() {
			props[key] = b.schemaFor(node.Properties[key], componentName(nameHint, key))
		}
		result["properties"] = props
	case "array":
		result["items"] = b.schemaFor(node.Items, componentName(nameHint, "item"))
	}
	if len(node.OneOf) > 0 {
		variants := make([]any, len(node.OneOf))
		for i, variant := range node.OneOf {
			variants[i] = b.schemaFor(variant, componentName(nameHint, fmt.Sprintf("variant%d", i+1)))
		}
		result["oneOf"] = variants
	}
	return result
}

func componentName(parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return "Schema"
	}
	return strings.Join(kept, "_")
}
