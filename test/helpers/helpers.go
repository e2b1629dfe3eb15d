// test/helpers/helpers.go
package helpers

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockroom/internal/core/domain"
	"github.com/ammerola/stockroom/internal/pkg/config"
)

// PNGBytes is a minimal payload that content sniffing recognises as image/png
var PNGBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// LoadTestConfig returns a test configuration rooted at cacheDir
func LoadTestConfig(cacheDir string) *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "stockroom-test",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            "0",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			IdleTimeout:     30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxUploadSizeMB: 8,
		},
		Storage: config.StorageConfig{
			CacheDir:           cacheDir,
			InventoryFile:      "inventory.json",
			UploadDir:          "uploads",
			PhotoBackend:       config.PhotoBackendLocal,
			WatchDebounce:      50 * time.Millisecond,
			CleanupInterval:    time.Hour,
			CleanupGracePeriod: time.Hour,
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 1000,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
		},
		Metrics: config.MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// CreateTestInventoryItem creates a test inventory item
func CreateTestInventoryItem(overrides ...func(*domain.InventoryItem)) *domain.InventoryItem {
	description := "Antique porcelain tea set, circa 1890"
	item := domain.NewInventoryItem("Test Victorian Tea Set", &description)

	for _, override := range overrides {
		override(item)
	}

	return item
}

// CreateTestInventoryItems creates multiple test inventory items
func CreateTestInventoryItems(count int) []domain.InventoryItem {
	items := make([]domain.InventoryItem, count)
	for i := 0; i < count; i++ {
		items[i] = *CreateTestInventoryItem(func(item *domain.InventoryItem) {
			item.InventoryName = fmt.Sprintf("Test Item %d", i+1)
		})
	}
	return items
}

// FormFile is a file part of a multipart body
type FormFile struct {
	Field    string
	Filename string
	Content  []byte
}

// MultipartBody encodes fields and files as multipart/form-data and returns
// the body with its content type
func MultipartBody(t *testing.T, fields map[string]string, files ...FormFile) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		require.NoError(t, err)
		_, err = part.Write(f.Content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

// CreateTempFile creates a temporary file for testing
func CreateTempFile(t *testing.T, dir string, content []byte, extension string) string {
	t.Helper()

	file, err := os.CreateTemp(dir, fmt.Sprintf("test-*%s", extension))
	require.NoError(t, err, "Failed to create temp file")

	_, err = file.Write(content)
	require.NoError(t, err, "Failed to write to temp file")
	require.NoError(t, file.Close())

	return file.Name()
}

// Age backdates a file's modification time
func Age(t *testing.T, path string, by time.Duration) {
	t.Helper()
	past := time.Now().Add(-by)
	require.NoError(t, os.Chtimes(path, past, past))
}

// CountFiles returns the number of regular files in dir
func CountFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)

	n := 0
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) != ".tmp" {
			n++
		}
	}
	return n
}
