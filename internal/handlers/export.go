// internal/handlers/export.go
package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockroom/internal/core/domain"
	"github.com/ammerola/stockroom/internal/core/ports"
)

// ExportColumns are the spreadsheet column headers, in order
var ExportColumns = []string{"ID", "Inventory Name", "Description", "Photo URL"}

// JSONExportResponse represents the JSON export response structure
type JSONExportResponse struct {
	Inventory []domain.ItemView `json:"inventory"`
	Metadata  ExportMetadata    `json:"metadata"`
}

// ExportMetadata contains metadata about the export
type ExportMetadata struct {
	ExportDate time.Time `json:"export_date"`
	TotalItems int       `json:"total_items"`
	WithPhotos int       `json:"with_photos"`
}

// ExportHandler handles export operations
type ExportHandler struct {
	service ports.InventoryService
	logger  *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(service ports.InventoryService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "export")),
	}
}

// ExportExcel handles GET /export/excel
func (h *ExportHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to retrieve inventory data", slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "failed to retrieve data")
		return
	}

	excelData, err := GenerateExcel(items)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file", slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "failed to generate Excel file")
		return
	}

	filename := fmt.Sprintf("inventory_export_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(excelData)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(excelData); err != nil {
		h.logger.ErrorContext(ctx, "failed to write Excel response", slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "Excel export completed",
		slog.Int("total_rows", len(items)),
		slog.String("filename", filename))
}

// ExportJSON handles GET /export/json
func (h *ExportHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to retrieve inventory data", slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "failed to retrieve data")
		return
	}

	response := JSONExportResponse{
		Inventory: make([]domain.ItemView, 0, len(items)),
		Metadata: ExportMetadata{
			ExportDate: time.Now().UTC(),
			TotalItems: len(items),
		},
	}
	for i := range items {
		if items[i].HasPhoto() {
			response.Metadata.WithPhotos++
		}
		response.Inventory = append(response.Inventory, items[i].View())
	}

	filename := fmt.Sprintf("inventory_export_%s.json", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	respondJSON(w, h.logger, http.StatusOK, response)
}

// GenerateExcel renders items as a single-sheet workbook
func GenerateExcel(items []domain.InventoryItem) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Inventory")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, header := range ExportColumns {
		cell := headerRow.AddCell()
		cell.Value = header
		style := cell.GetStyle()
		style.Font.Bold = true
		style.Fill.PatternType = "solid"
		style.Fill.FgColor = "CCCCCC"
	}

	for i := range items {
		row := sheet.AddRow()
		for _, value := range excelRow(&items[i]) {
			row.AddCell().SetString(value)
		}
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}

	return buffer.Bytes(), nil
}

func excelRow(item *domain.InventoryItem) []string {
	return []string{
		item.ID,
		item.InventoryName,
		safeStringValue(item.Description),
		safeStringValue(item.PhotoURL()),
	}
}

func safeStringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
