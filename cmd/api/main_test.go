package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockroom/internal/core/domain"
)

func writeWorkbook(t *testing.T, path string, rows ...[]string) {
	t.Helper()
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Inventory")
	require.NoError(t, err)
	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	require.NoError(t, file.Save(path))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STOCKROOM_APP_ENVIRONMENT", "test")
	t.Setenv("STOCKROOM_APP_LOG_LEVEL", "error")

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImportCommand_NeedsOnlyCacheDir(t *testing.T) {
	cache := t.TempDir()
	workbook := filepath.Join(t.TempDir(), "items.xlsx")
	writeWorkbook(t, workbook,
		[]string{"Inventory Name", "Description"},
		[]string{"Lamp", "Brass"},
		[]string{"Desk", ""},
	)

	out, err := execute(t, "import", workbook, "-c", cache)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 item(s), skipped 0 row(s)")

	data, err := os.ReadFile(filepath.Join(cache, "inventory.json"))
	require.NoError(t, err)

	var items []domain.InventoryItem
	require.NoError(t, json.Unmarshal(data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Lamp", items[0].InventoryName)
	assert.Equal(t, "Desk", items[1].InventoryName)
	assert.Nil(t, items[1].Description)
}

func TestImportCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "import", filepath.Join(t.TempDir(), "absent.xlsx"), "-c", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open Excel file")
}

func TestImportCommand_RequiresCacheDir(t *testing.T) {
	_, err := execute(t, "import", "items.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Storage.CacheDir")
}

func TestServeCommand_RequiresHost(t *testing.T) {
	_, err := execute(t, "-p", "0", "-c", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Server.Host")
}
