// internal/handlers/docs.go
package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"net/http"

	"gopkg.in/yaml.v3"
)

//go:embed assets
var assets embed.FS

// Static forms served as-is from the embedded assets
const (
	RegisterFormPath = "/RegisterForm.html"
	SearchFormPath   = "/SearchForm.html"
)

// DocsHandler serves the OpenAPI document and a browsable UI for it
type DocsHandler struct {
	document []byte
	logger   *slog.Logger
}

// NewDocsHandler renders the embedded OpenAPI document with version stamped
// into its info block
func NewDocsHandler(version string, logger *slog.Logger) (*DocsHandler, error) {
	raw, err := assets.ReadFile("assets/openapi.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI document: %w", err)
	}

	document, err := stampVersion(raw, version)
	if err != nil {
		return nil, err
	}

	return &DocsHandler{
		document: document,
		logger:   logger.With(slog.String("handler", "docs")),
	}, nil
}

// UI handles GET /docs
func (h *DocsHandler) UI(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, assets, "assets/docs.html")
}

// OpenAPI handles GET /docs/openapi.yaml
func (h *DocsHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	if _, err := w.Write(h.document); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write OpenAPI document",
			slog.String("error", err.Error()))
	}
}

// RegisterForm handles GET /RegisterForm.html
func RegisterForm(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, assets, "assets"+RegisterFormPath)
}

// SearchForm handles GET /SearchForm.html
func SearchForm(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, assets, "assets"+SearchFormPath)
}

func stampVersion(raw []byte, version string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	if version == "" || len(doc.Content) == 0 {
		return raw, nil
	}

	if info := mappingValue(doc.Content[0], "info"); info != nil {
		if v := mappingValue(info, "version"); v != nil {
			v.Value = version
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode OpenAPI document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode OpenAPI document: %w", err)
	}
	return buf.Bytes(), nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
