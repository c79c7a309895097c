package settings

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors represents flat key descriptors.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI represents OpenAPI-compatible JSON Schema documents.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument encapsulates a generated schema alongside its format.
// Document must be JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
	Scopes   []SchemaScope
}

// SchemaScope describes a single layer included in a schema document.
type SchemaScope struct {
	Name       string         `json:"name"`
	Label      string         `json:"label,omitempty"`
	Priority   int            `json:"priority"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	SnapshotID string         `json:"snapshot_id,omitempty"`
}

// SchemaGenerator describes a settings tree. Implementations must be safe
// for concurrent use and return an empty document for an empty tree.
type SchemaGenerator interface {
	Generate(root Value) (SchemaDocument, error)
}

// FieldDescriptor describes a flat key and the kind stored there.
type FieldDescriptor struct {
	Key  string `json:"key"`
	Type string `json:"type"`
}

// DefaultSchemaGenerator returns the built-in descriptor generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(root Value) (SchemaDocument, error) {
	descriptors := []FieldDescriptor{}
	if m, ok := Flatten(root); ok {
		for _, key := range m.Keys() {
			descriptors = append(descriptors, FieldDescriptor{Key: key, Type: TypeName(m[key])})
		}
	}
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: descriptors,
	}, nil
}

// TypeName names the shape of v: null, bool, integer, number, string,
// object, or array of the first element's type ("array<integer>").
func TypeName(v Value) string {
	switch v.Kind() {
	case KindNumber:
		if v.IsInteger() {
			return "integer"
		}
		return "number"
	case KindArray:
		if v.Len() == 0 {
			return "array"
		}
		return "array<" + TypeName(v.array[0]) + ">"
	default:
		return v.Kind().String()
	}
}

// Schema describes the stored settings with the configured generator.
func (s *Settings) Schema() (SchemaDocument, error) {
	generator := s.cfg.schemaGenerator
	if generator == nil {
		generator = DefaultSchemaGenerator()
	}
	doc, err := generator.Generate(s.Tree())
	if err != nil {
		return SchemaDocument{}, err
	}
	if s.cfg.scopeSchema {
		for _, layer := range s.Layers() {
			doc.Scopes = append(doc.Scopes, SchemaScope{
				Name:       layer.Scope.Name,
				Label:      layer.Scope.Label,
				Priority:   layer.Scope.Priority,
				Metadata:   copyMetadata(layer.Scope.Metadata),
				SnapshotID: layer.SnapshotID,
			})
		}
	}
	return doc, nil
}
