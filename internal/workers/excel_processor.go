// internal/workers/excel_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockroom/internal/core/domain"
	"github.com/ammerola/stockroom/internal/core/ports"
)

// ImportResult summarises one spreadsheet import
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	IDs      []string `json:"ids"`
}

// ExcelProcessor imports inventory items from a workbook. The first sheet is
// read; a header row, when present, locates the name and description columns,
// so files produced by the spreadsheet export can be imported back. Sheets
// without one are read as name in A and description in B.
type ExcelProcessor struct {
	service ports.InventoryService
	logger  *slog.Logger
}

// NewExcelProcessor creates a new Excel processor
func NewExcelProcessor(service ports.InventoryService, logger *slog.Logger) *ExcelProcessor {
	return &ExcelProcessor{
		service: service,
		logger:  logger.With(slog.String("processor", "excel")),
	}
}

// ImportFile registers every row of the workbook at path
func (p *ExcelProcessor) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	return p.importWorkbook(ctx, file, path)
}

// ImportBinary registers every row of an in-memory workbook
func (p *ExcelProcessor) ImportBinary(ctx context.Context, data []byte) (*ImportResult, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	return p.importWorkbook(ctx, file, "<memory>")
}

func (p *ExcelProcessor) importWorkbook(ctx context.Context, file *xlsx.File, source string) (*ImportResult, error) {
	p.logger.InfoContext(ctx, "processing Excel file", slog.String("source", source))

	result := &ImportResult{IDs: []string{}}
	if len(file.Sheets) == 0 {
		return result, nil
	}

	var (
		cols   *columns
		rowIdx int
	)
	err := file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		if cols == nil {
			var isHeader bool
			cols, isHeader = headerColumns(r)
			if isHeader {
				return nil
			}
		}

		input, ok := cols.parseRow(r)
		if !ok {
			result.Skipped++
			p.logger.DebugContext(ctx, "skipping row without a name", slog.Int("row", rowIdx))
			return nil
		}

		item, err := p.service.Register(ctx, input)
		if err != nil {
			return fmt.Errorf("row %d: %w", rowIdx, err)
		}
		result.Imported++
		result.IDs = append(result.IDs, item.ID)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to process Excel rows: %w", err)
	}

	p.logger.InfoContext(ctx, "Excel processing completed",
		slog.String("source", source),
		slog.Int("items_imported", result.Imported),
		slog.Int("rows_skipped", result.Skipped))

	return result, nil
}

// columns holds the indexes of the imported fields; -1 when absent
type columns struct {
	name        int
	description int
}

// headerColumns locates the known headers in r. When none is found r is a
// data row and positions A and B are used.
func headerColumns(r *xlsx.Row) (*columns, bool) {
	cols := &columns{name: -1, description: -1}
	r.ForEachCell(func(c *xlsx.Cell) error {
		col, _ := c.GetCoordinates()
		switch normalizeHeader(c.String()) {
		case "inventoryname", "name", "itemname", "item":
			cols.name = col
		case "description":
			cols.description = col
		}
		return nil
	})

	if cols.name < 0 && cols.description < 0 {
		return &columns{name: 0, description: 1}, false
	}
	if cols.name < 0 {
		cols.name = 0
	}
	return cols, true
}

func (c *columns) parseRow(r *xlsx.Row) (domain.RegisterInput, bool) {
	get := func(i int) string {
		if i < 0 {
			return ""
		}
		cell := r.GetCell(i)
		if cell == nil {
			return ""
		}
		return strings.TrimSpace(cell.String())
	}

	name := get(c.name)
	if name == "" {
		return domain.RegisterInput{}, false
	}

	input := domain.RegisterInput{InventoryName: name}
	if desc := get(c.description); desc != "" {
		input.Description = &desc
	}
	return input, true
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}
