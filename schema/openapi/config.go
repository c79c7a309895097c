package openapi

import (
	"errors"
	"maps"
	"strings"

	"github.com/goliatone/go-settings/internal/keypath"
)

// generatorConfig describes the single operation whose request body carries
// the settings tree.
type generatorConfig struct {
	openAPIVersion string
	info           openapiInfo
	operation      operationConfig
	contentType    string
	responses      map[string]responseConfig

	rootComponent string
	valueDefaults bool
	descriptions  map[string]string
	// minShared is how often an object shape must occur before it becomes a
	// component. Zero disables sharing.
	minShared int
}

type openapiInfo struct {
	Title       string
	Version     string
	Description string
}

type operationConfig struct {
	Path        string
	Method      string
	OperationID string
	Summary     string
}

type responseConfig struct {
	Description string
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: "3.0.3",
		info:           openapiInfo{Title: "Settings Schema", Version: "1.0.0"},
		operation:      operationConfig{Path: "/settings", Method: "put"},
		contentType:    "application/json",
		responses:      map[string]responseConfig{"204": {Description: "OK"}},
		minShared:      2,
	}
}

func (c generatorConfig) method() string {
	if c.operation.Method == "" {
		return "put"
	}
	return c.operation.Method
}

func (c generatorConfig) operationID() string {
	if c.operation.OperationID != "" {
		return c.operation.OperationID
	}
	return c.method() + ":" + c.operation.Path
}

// validate reports configuration that cannot yield a usable document.
func (c generatorConfig) validate() error {
	var errs []error
	if c.openAPIVersion == "" {
		errs = append(errs, errors.New("openapi: version must be set"))
	}
	if c.info.Title == "" {
		errs = append(errs, errors.New("openapi: info.title must be set"))
	}
	if c.info.Version == "" {
		errs = append(errs, errors.New("openapi: info.version must be set"))
	}
	if !strings.HasPrefix(c.operation.Path, "/") {
		errs = append(errs, errors.New("openapi: operation path must start with /"))
	}
	if c.contentType == "" {
		errs = append(errs, errors.New("openapi: content type must be set"))
	}
	if len(c.responses) == 0 {
		errs = append(errs, errors.New("openapi: at least one response is required"))
	}
	return errors.Join(errs...)
}

// GeneratorOption configures the OpenAPI generator.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides the document version (default 3.0.3).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version != "" {
			cfg.openAPIVersion = version
		}
	}
}

// InfoOption configures optional fields of the info section.
type InfoOption func(*openapiInfo)

func WithInfoDescription(description string) InfoOption {
	return func(info *openapiInfo) {
		info.Description = description
	}
}

// WithInfo sets the info title and version. Empty strings keep the current
// values.
func WithInfo(title, version string, opts ...InfoOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.info.Title = title
		}
		if version != "" {
			cfg.info.Version = version
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.info)
			}
		}
	}
}

// OperationOption configures optional operation metadata.
type OperationOption func(*operationConfig)

func WithOperationSummary(summary string) OperationOption {
	return func(operation *operationConfig) {
		operation.Summary = strings.TrimSpace(summary)
	}
}

// WithOperation sets the path, method and operationId of the generated
// operation. Empty inputs keep the defaults; an empty operationId is derived
// as "method:path".
func WithOperation(path, method, operationID string, opts ...OperationOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		if path != "" {
			cfg.operation.Path = path
		}
		if method != "" {
			cfg.operation.Method = strings.ToLower(method)
		}
		if operationID != "" {
			cfg.operation.OperationID = operationID
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.operation)
			}
		}
	}
}

func WithContentType(contentType string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if contentType != "" {
			cfg.contentType = contentType
		}
	}
}

// ResponseOption configures additional response metadata.
type ResponseOption func(*responseConfig)

// WithResponse adds or updates the response documented for status.
func WithResponse(status, description string, opts ...ResponseOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		if status == "" {
			return
		}
		responses := maps.Clone(cfg.responses)
		if responses == nil {
			responses = map[string]responseConfig{}
		}
		resp := responses[status]
		if description != "" {
			resp.Description = description
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&resp)
			}
		}
		responses[status] = resp
		cfg.responses = responses
	}
}

// WithRootComponent publishes the whole tree as a named component and
// references it from the request body.
func WithRootComponent(name string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.rootComponent = name
	}
}

// WithValueDefaults records each scalar's current value as its default.
func WithValueDefaults() GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.valueDefaults = true
	}
}

// WithDescriptions attaches descriptions to keys or groups, addressed by
// their slash-separated path ("server/port", "server").
func WithDescriptions(descriptions map[string]string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if len(descriptions) == 0 {
			return
		}
		merged := maps.Clone(cfg.descriptions)
		if merged == nil {
			merged = make(map[string]string, len(descriptions))
		}
		for key, description := range descriptions {
			if canonical := keypath.Canonical(key); canonical != "" {
				merged[canonical] = description
			}
		}
		cfg.descriptions = merged
	}
}

// WithSharedComponents sets how many times an object shape must repeat before
// it is moved under #/components/schemas (default 2). Zero or less inlines
// every shape.
func WithSharedComponents(minOccurrences int) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.minShared = max(minOccurrences, 0)
	}
}
