// internal/handlers/routes.go
package handlers

import (
	"net/http"

	"github.com/ammerola/stockroom/internal/handlers/middleware"
	"github.com/ammerola/stockroom/internal/pkg/metrics"
)

// Routes groups the handlers mounted on the API mux. Docs, Health, Export
// and Metrics are optional and their routes are skipped when nil.
type Routes struct {
	Inventory   *InventoryHandler
	Health      *HealthHandler
	Export      *ExportHandler
	Docs        *DocsHandler
	Metrics     *metrics.Metrics
	MetricsPath string
}

// NewRouter builds the route table. Requests that match no pattern, or match
// a path under a different method, receive 405.
func NewRouter(rt Routes) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", rt.Inventory.Register)
	mux.HandleFunc("GET /inventory", rt.Inventory.ListInventory)
	mux.HandleFunc("GET /inventory/{id}", rt.Inventory.GetInventory)
	mux.HandleFunc("PUT /inventory/{id}", rt.Inventory.UpdateInventory)
	mux.HandleFunc("DELETE /inventory/{id}", rt.Inventory.DeleteInventory)
	mux.HandleFunc("GET /inventory/{id}/photo", rt.Inventory.GetPhoto)
	mux.HandleFunc("PUT /inventory/{id}/photo", rt.Inventory.UpdatePhoto)
	mux.HandleFunc("POST /search", rt.Inventory.Search)

	mux.HandleFunc("GET "+RegisterFormPath, RegisterForm)
	mux.HandleFunc("GET "+SearchFormPath, SearchForm)

	if rt.Docs != nil {
		mux.HandleFunc("GET /docs", rt.Docs.UI)
		mux.HandleFunc("GET /docs/openapi.yaml", rt.Docs.OpenAPI)
	}

	if rt.Health != nil {
		mux.HandleFunc("GET /health", rt.Health.Health)
	}

	if rt.Export != nil {
		mux.HandleFunc("GET /export/excel", rt.Export.ExportExcel)
		mux.HandleFunc("GET /export/json", rt.Export.ExportJSON)
	}

	if rt.Metrics != nil {
		path := rt.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, rt.Metrics.Handler())
	}

	mux.HandleFunc("/", MethodNotAllowed)

	return middleware.Metrics(rt.Metrics)(mux)
}
