// internal/handlers/inventory.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/ammerola/stockroom/internal/core/domain"
	"github.com/ammerola/stockroom/internal/core/ports"
	"github.com/ammerola/stockroom/internal/pkg/logger"
)

// DefaultMaxUploadBytes bounds the in-memory part of a multipart upload;
// larger files spill to temporary files.
const DefaultMaxUploadBytes = 32 << 20

// InventoryHandler handles inventory-related HTTP requests
type InventoryHandler struct {
	service        ports.InventoryService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service ports.InventoryService, maxUploadBytes int64, logger *slog.Logger) *InventoryHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &InventoryHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "inventory")),
	}
}

// Register handles POST /register
func (h *InventoryHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.parseForm(r); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid form body")
		return
	}
	defer h.cleanupForm(r)

	photo, err := formPhoto(r)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid photo upload")
		return
	}
	defer closePhoto(photo)

	input := domain.RegisterInput{
		InventoryName: r.PostForm.Get("inventory_name"),
		Description:   formValue(r, "description"),
		Photo:         photo,
	}

	item, err := h.service.Register(ctx, input)
	if err != nil {
		respondServiceError(w, r, h.logger, "failed to register inventory item", err)
		return
	}

	h.logger.InfoContext(ctx, "inventory item created",
		slog.String("item_id", item.ID),
		slog.String("inventory_name", item.InventoryName))

	respondJSON(w, h.logger, http.StatusCreated, item.View())
}

// ListInventory handles GET /inventory
func (h *InventoryHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, "failed to list inventory items", err)
		return
	}

	views := make([]domain.ItemView, 0, len(items))
	for i := range items {
		views = append(views, items[i].View())
	}

	respondJSON(w, h.logger, http.StatusOK, views)
}

// GetInventory handles GET /inventory/{id}
func (h *InventoryHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	r = withItemID(r)

	item, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, h.logger, "failed to get inventory item", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item.View())
}

// GetPhoto handles GET /inventory/{id}/photo
func (h *InventoryHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	r = withItemID(r)
	ctx := r.Context()

	photo, err := h.service.OpenPhoto(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.logger.DebugContext(ctx, "photo not available", slog.String("error", err.Error()))
			respondError(w, h.logger, http.StatusNotFound, "photo not found")
			return
		}
		respondServiceError(w, r, h.logger, "failed to open photo", err)
		return
	}
	defer photo.Body.Close()

	w.Header().Set("Content-Type", photo.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, photo.Body); err != nil {
		h.logger.WarnContext(ctx, "failed to stream photo", slog.String("error", err.Error()))
	}
}

// UpdatePhoto handles PUT /inventory/{id}/photo
func (h *InventoryHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	r = withItemID(r)
	ctx := r.Context()

	var photo *domain.PhotoUpload
	err := r.ParseMultipartForm(h.maxUploadBytes)
	switch {
	case err == nil:
		defer h.cleanupForm(r)
		photo, err = formPhoto(r)
		if err != nil {
			respondError(w, h.logger, http.StatusBadRequest, "invalid photo upload")
			return
		}
		defer closePhoto(photo)
	case errors.Is(err, http.ErrNotMultipart):
		// No file part at all; the service reports the missing field.
	default:
		respondError(w, h.logger, http.StatusBadRequest, "invalid multipart body")
		return
	}

	item, err := h.service.UpdatePhoto(ctx, r.PathValue("id"), photo)
	if err != nil {
		respondServiceError(w, r, h.logger, "failed to update photo", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item.View())
}

// UpdateInventory handles PUT /inventory/{id}
func (h *InventoryHandler) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	r = withItemID(r)

	var patch domain.InventoryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, h.logger, http.StatusBadRequest, "invalid JSON body")
		return
	}

	item, err := h.service.UpdateFields(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		respondServiceError(w, r, h.logger, "failed to update inventory item", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item.View())
}

// DeleteInventory handles DELETE /inventory/{id}
func (h *InventoryHandler) DeleteInventory(w http.ResponseWriter, r *http.Request) {
	r = withItemID(r)

	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, r, h.logger, "failed to delete inventory item", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// SearchRequest is the body accepted by POST /search
type SearchRequest struct {
	ID           any `json:"id"`
	IncludePhoto any `json:"includePhoto"`
}

// Search handles POST /search
func (h *InventoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	id, includePhoto, err := parseSearch(r)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Search(r.Context(), id, includePhoto)
	if err != nil {
		respondServiceError(w, r, h.logger, "failed to search inventory", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

// Helper methods

// parseForm accepts both multipart and urlencoded bodies
func (h *InventoryHandler) parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(h.maxUploadBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func (h *InventoryHandler) cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.WarnContext(r.Context(), "failed to remove multipart temp files",
				slog.String("error", err.Error()))
		}
	}
}

// formPhoto returns the uploaded "photo" file, or nil when none was sent
func formPhoto(r *http.Request) (*domain.PhotoUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &domain.PhotoUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, nil
}

func closePhoto(photo *domain.PhotoUpload) {
	if photo == nil {
		return
	}
	if c, ok := photo.Body.(io.Closer); ok {
		c.Close()
	}
}

// formValue distinguishes an absent field (nil) from an empty one
func formValue(r *http.Request, key string) *string {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func parseSearch(r *http.Request) (string, bool, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return "", false, fmt.Errorf("invalid JSON body")
		}
		return stringID(req.ID), truthy(req.IncludePhoto), nil
	}

	if err := r.ParseForm(); err != nil {
		return "", false, fmt.Errorf("invalid form body")
	}
	return r.PostForm.Get("id"), truthy(r.PostForm.Get("includePhoto")), nil
}

// stringID accepts ids sent as JSON strings or numbers
func stringID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

// truthy interprets checkbox and boolean style flags
func truthy(v any) bool {
	switch flag := v.(type) {
	case bool:
		return flag
	case string:
		switch strings.ToLower(strings.TrimSpace(flag)) {
		case "on", "true", "1", "yes":
			return true
		}
	}
	return false
}

func withItemID(r *http.Request) *http.Request {
	id := r.PathValue("id")
	if id == "" {
		return r
	}
	return r.WithContext(logger.WithValue(r.Context(), logger.ContextKeyItemID, id))
}
