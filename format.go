package settings

import (
	"path/filepath"
	"strings"
)

// Format names a document encoding and the file extensions it claims.
type Format struct {
	Name       string
	Extensions []string
	Codec      Codec
}

var (
	// JSONFormat is the default settings document format.
	JSONFormat = Format{Name: "json", Extensions: []string{".json"}, Codec: JSONCodec{}}
	// YAMLFormat stores settings as YAML.
	YAMLFormat = Format{Name: "yaml", Extensions: []string{".yaml", ".yml"}, Codec: YAMLCodec{}}
)

// Formats lists the built-in formats, default first.
func Formats() []Format {
	return []Format{JSONFormat, YAMLFormat}
}

// FormatForPath picks a built-in format by file extension, falling back to
// JSONFormat.
func FormatForPath(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range Formats() {
		for _, candidate := range format.Extensions {
			if ext == candidate {
				return format
			}
		}
	}
	return JSONFormat
}

// ParseFormat resolves a format by name or extension ("json", "j", "yaml",
// "yml", "y").
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json", "j":
		return JSONFormat, true
	case "yaml", "yml", "y":
		return YAMLFormat, true
	default:
		return Format{}, false
	}
}

func (f Format) codec() Codec {
	if f.Codec == nil {
		return JSONCodec{}
	}
	return f.Codec
}
