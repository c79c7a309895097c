package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	settings "github.com/goliatone/go-settings"
)

func TestNewGeneratorOptions(t *testing.T) {
	custom := NewGenerator(
		WithOpenAPIVersion("3.1.0"),
		WithInfo("Custom Service", "2.0.0", WithInfoDescription("custom schema")),
		WithOperation("/prefs", "POST", "updatePrefs", WithOperationSummary("Update preferences")),
		WithContentType("application/x-www-form-urlencoded"),
		WithResponse("201", "Created"),
		WithValueDefaults(),
	)

	internal, ok := custom.(generator)
	if !ok {
		t.Fatalf("expected generator implementation, got %T", custom)
	}

	cfg := internal.config
	if cfg.openAPIVersion != "3.1.0" {
		t.Fatalf("expected openapi version 3.1.0, got %q", cfg.openAPIVersion)
	}
	if cfg.info.Title != "Custom Service" || cfg.info.Version != "2.0.0" || cfg.info.Description != "custom schema" {
		t.Fatalf("unexpected info %+v", cfg.info)
	}
	if cfg.operation.Path != "/prefs" || cfg.operation.Method != "post" || cfg.operation.OperationID != "updatePrefs" {
		t.Fatalf("unexpected operation %+v", cfg.operation)
	}
	if cfg.operation.Summary != "Update preferences" {
		t.Fatalf("expected summary, got %q", cfg.operation.Summary)
	}
	if cfg.contentType != "application/x-www-form-urlencoded" {
		t.Fatalf("unexpected content type %q", cfg.contentType)
	}
	if cfg.responses["201"].Description != "Created" {
		t.Fatalf("expected 201 response, got %+v", cfg.responses)
	}
	if _, exists := cfg.responses["204"]; !exists {
		t.Fatalf("expected default 204 response to remain configured")
	}
	if !cfg.valueDefaults {
		t.Fatalf("expected value defaults to be enabled")
	}
}

func TestGenerateMinimalDocument(t *testing.T) {
	root := settings.Unflatten(settings.FlatMap{
		"enabled":   settings.Bool(true),
		"name":      settings.String("service"),
		"retries":   settings.Int(3),
		"threshold": settings.Float(0.75),
	})

	doc, err := NewGenerator().Generate(root)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc.Format != settings.SchemaFormatOpenAPI {
		t.Fatalf("expected format %q, got %q", settings.SchemaFormatOpenAPI, doc.Format)
	}

	assertJSONEqual(t, `{
		"openapi": "3.0.3",
		"info": {"title": "Settings Schema", "version": "1.0.0"},
		"paths": {
			"/settings": {
				"put": {
					"operationId": "put:/settings",
					"requestBody": {
						"required": true,
						"content": {
							"application/json": {
								"schema": {
									"type": "object",
									"properties": {
										"enabled": {"type": "boolean"},
										"name": {"type": "string"},
										"retries": {"type": "integer"},
										"threshold": {"type": "number"}
									}
								}
							}
						}
					},
					"responses": {"204": {"description": "OK"}}
				}
			}
		}
	}`, doc.Document)
}

func TestGenerateArraysAndNulls(t *testing.T) {
	root := settings.Unflatten(settings.FlatMap{
		"ids":     settings.Array(settings.Int(1), settings.Int(2)),
		"ratios":  settings.Array(settings.Int(1), settings.Float(2.5)),
		"mixed":   settings.Array(settings.Int(1), settings.String("a")),
		"empty":   settings.Array(),
		"matrix":  settings.Array(settings.Array(settings.Int(1)), settings.Array(settings.Int(2))),
		"missing": settings.Null(),
	})

	props := requestProperties(t, mustGenerate(t, NewGenerator(), root))

	assertJSONEqual(t, `{"type": "array", "items": {"type": "integer"}}`, props["ids"])
	assertJSONEqual(t, `{"type": "array", "items": {"type": "number"}}`, props["ratios"])
	assertJSONEqual(t, `{"type": "array", "items": {"oneOf": [{"type": "integer"}, {"type": "string"}]}}`, props["mixed"])
	assertJSONEqual(t, `{"type": "array", "items": {}}`, props["empty"])
	assertJSONEqual(t, `{"type": "array", "items": {"type": "array", "items": {"type": "integer"}}}`, props["matrix"])
	assertJSONEqual(t, `{"nullable": true}`, props["missing"])
}

func TestGenerateSharedComponents(t *testing.T) {
	endpoint := func(host string) settings.Value {
		return settings.Object(map[string]settings.Value{
			"host": settings.String(host),
			"port": settings.Int(8080),
		})
	}
	root := settings.Object(map[string]settings.Value{
		"primary":   endpoint("primary.local"),
		"secondary": endpoint("secondary.local"),
		"replicas":  settings.Array(endpoint("replica-a.local"), endpoint("replica-b.local")),
	})

	document := mustGenerate(t, NewGenerator(), root)
	props := requestProperties(t, document)

	ref := `{"$ref": "#/components/schemas/Settings_primary"}`
	assertJSONEqual(t, ref, props["primary"])
	assertJSONEqual(t, ref, props["secondary"])
	assertJSONEqual(t, `{"type": "array", "items": `+ref+`}`, props["replicas"])

	components := document["components"].(map[string]any)["schemas"].(map[string]any)
	if len(components) != 1 {
		t.Fatalf("expected one shared component, got %v", components)
	}
	assertJSONEqual(t, `{"type": "object", "properties": {"host": {"type": "string"}, "port": {"type": "integer"}}}`, components["Settings_primary"])
}

func TestGenerateSharingThreshold(t *testing.T) {
	endpoint := settings.Object(map[string]settings.Value{"host": settings.String("a")})
	root := settings.Object(map[string]settings.Value{
		"primary":   endpoint,
		"secondary": endpoint,
	})

	inlined := mustGenerate(t, NewGenerator(WithSharedComponents(0)), root)
	if _, ok := inlined["components"]; ok {
		t.Fatalf("sharing disabled must not publish components")
	}
	assertJSONEqual(t, `{"type": "object", "properties": {"host": {"type": "string"}}}`, requestProperties(t, inlined)["primary"])

	strict := mustGenerate(t, NewGenerator(WithSharedComponents(3)), root)
	if _, ok := strict["components"]; ok {
		t.Fatalf("two occurrences are below a threshold of three")
	}
}

func TestGenerateDescriptions(t *testing.T) {
	root := settings.Unflatten(settings.FlatMap{
		"server/port": settings.Int(8080),
		"server/host": settings.String("localhost"),
	})
	gen := NewGenerator(WithDescriptions(map[string]string{
		"/server/":    "HTTP listener",
		"server/port": "TCP port",
		"":            "ignored",
	}))
	props := requestProperties(t, mustGenerate(t, gen, root))
	assertJSONEqual(t, `{
		"type": "object",
		"description": "HTTP listener",
		"properties": {
			"host": {"type": "string"},
			"port": {"type": "integer", "description": "TCP port"}
		}
	}`, props["server"])
}

func TestGenerateRootComponentAndDefaults(t *testing.T) {
	root := settings.Unflatten(settings.FlatMap{
		"logs/level":   settings.String("info"),
		"logs/retries": settings.Int(3),
	})
	document := mustGenerate(t, NewGenerator(WithRootComponent("Preferences"), WithValueDefaults()), root)

	schema := requestSchema(t, document)
	assertJSONEqual(t, `{"$ref": "#/components/schemas/Preferences"}`, schema)

	components := document["components"].(map[string]any)["schemas"].(map[string]any)
	assertJSONEqual(t, `{
		"type": "object",
		"properties": {
			"logs": {
				"type": "object",
				"properties": {
					"level": {"type": "string", "default": "info"},
					"retries": {"type": "integer", "default": 3}
				}
			}
		}
	}`, components["Preferences"])
}

func TestGenerateEmptyTree(t *testing.T) {
	for name, root := range map[string]settings.Value{
		"empty object": settings.EmptyObject(),
		"null":         settings.Null(),
	} {
		t.Run(name, func(t *testing.T) {
			schema := requestSchema(t, mustGenerate(t, NewGenerator(), root))
			assertJSONEqual(t, `{"type": "object", "properties": {}}`, schema)
		})
	}
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	_, err := NewGenerator(WithOperation("", "", ""), func(cfg *generatorConfig) {
		cfg.info.Title = ""
	}).Generate(settings.EmptyObject())
	if err == nil || !strings.Contains(err.Error(), "info.title") {
		t.Fatalf("expected validation failure for missing title, got %v", err)
	}
	_, err = NewGenerator(WithOperation("settings", "", "")).Generate(settings.EmptyObject())
	if err == nil {
		t.Fatalf("expected validation failure for relative path")
	}
}

func TestSettingsSchemaUsesGenerator(t *testing.T) {
	s := settings.New(Option(WithInfo("App", "")))
	if err := s.SetValue(context.Background(), "server/port", settings.Int(8080)); err != nil {
		t.Fatalf("set: %v", err)
	}
	doc, err := s.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	document, ok := doc.Document.(map[string]any)
	if !ok {
		t.Fatalf("expected map document, got %T", doc.Document)
	}
	if title := document["info"].(map[string]any)["title"]; title != "App" {
		t.Fatalf("expected custom title, got %v", title)
	}
	props := requestProperties(t, document)
	assertJSONEqual(t, `{"type": "object", "properties": {"port": {"type": "integer"}}}`, props["server"])
}

func TestGeneratorConcurrentAccess(t *testing.T) {
	gen := NewGenerator()
	root := settings.Unflatten(settings.FlatMap{
		"service/name":    settings.String("api"),
		"service/enabled": settings.Bool(true),
	})

	const goroutines = 16
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			doc, err := gen.Generate(root)
			if err != nil {
				t.Errorf("Generate returned error: %v", err)
				return
			}
			if doc.Document == nil {
				t.Errorf("expected document payload")
			}
		}()
	}
	wg.Wait()
}

func mustGenerate(t *testing.T, gen settings.SchemaGenerator, root settings.Value) map[string]any {
	t.Helper()
	doc, err := gen.Generate(root)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	document, ok := doc.Document.(map[string]any)
	if !ok {
		t.Fatalf("expected map document, got %T", doc.Document)
	}
	return document
}

func requestSchema(t *testing.T, document map[string]any) any {
	t.Helper()
	paths := document["paths"].(map[string]any)
	for _, item := range paths {
		for _, operation := range item.(map[string]any) {
			body := operation.(map[string]any)["requestBody"].(map[string]any)
			for _, media := range body["content"].(map[string]any) {
				return media.(map[string]any)["schema"]
			}
		}
	}
	t.Fatalf("document has no request schema")
	return nil
}

func requestProperties(t *testing.T, document map[string]any) map[string]any {
	t.Helper()
	schema, ok := requestSchema(t, document).(map[string]any)
	if !ok {
		t.Fatalf("expected inline request schema")
	}
	return schema["properties"].(map[string]any)
}

func assertJSONEqual(t *testing.T, want string, got any) {
	t.Helper()

	var expected any
	if err := json.Unmarshal([]byte(want), &expected); err != nil {
		t.Fatalf("bad expectation %s: %v", want, err)
	}
	wantBytes := mustMarshal(t, expected)
	gotBytes := mustMarshal(t, got)
	if !bytes.Equal(wantBytes, gotBytes) {
		t.Fatalf("schema mismatch\nwant: %s\ngot:  %s", wantBytes, gotBytes)
	}
}

func mustMarshal(t *testing.T, value any) []byte {
	t.Helper()

	raw, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal json: %v", err)
	}
	return raw
}
