package openapi

import (
	settings "github.com/goliatone/go-settings"
)

type generator struct {
	config generatorConfig
}

// NewGenerator constructs an OpenAPI 3 document generator for settings trees.
// The tree is described as the request body of a single operation.
func NewGenerator(opts ...GeneratorOption) settings.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{config: cfg}
}

// Option returns a settings.Option that wires the OpenAPI generator into
// Settings.Schema.
func Option(opts ...GeneratorOption) settings.Option {
	return settings.WithSchemaGenerator(NewGenerator(opts...))
}

func (g generator) Generate(root settings.Value) (settings.SchemaDocument, error) {
	node := buildSchemaGraph(root, g.config)
	document, err := newDocumentBuilder(g.config).build(node)
	if err != nil {
		return settings.SchemaDocument{}, err
	}
	return settings.SchemaDocument{
		Format:   settings.SchemaFormatOpenAPI,
		Document: document,
	}, nil
}
