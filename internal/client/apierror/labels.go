package apierror

import (
	"bytes"
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

var defaultLabels = map[string]string{
	"email":      "Email",
	"password":   "Contraseña",
	"tipo":       "Tipo de publicación",
	"titulo":     "Título",
	"excerpt":    "Resumen",
	"portadaUrl": "URL de la portada",
	"linkUrl":    "Enlace externo",
	"destacado":  "Destacado",
	"blocksJson": "Contenido",
	"estado":     "Estado",
	"slug":       "Slug",
}

// DefaultLabels returns a copy of the built-in field label table.
func DefaultLabels() map[string]string {
	return maps.Clone(defaultLabels)
}

// ParseLabels decodes a flat YAML mapping of field name to label.
func ParseLabels(data []byte) (map[string]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]string{}, nil
	}
	var labels map[string]string
	if err := yaml.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("labels: decode: %w", err)
	}
	if labels == nil {
		labels = map[string]string{}
	}
	return labels, nil
}

// LoadLabels reads a labels file. An empty path yields no overrides.
func LoadLabels(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("labels: read %s: %w", path, err)
	}
	labels, err := ParseLabels(data)
	if err != nil {
		return nil, fmt.Errorf("labels: %s: %w", path, err)
	}
	return labels, nil
}
