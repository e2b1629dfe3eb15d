// internal/core/domain/inventory.go
package domain

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// InventoryItem represents a single registered item as it is persisted
type InventoryItem struct {
	ID            string  `json:"id"`
	InventoryName string  `json:"inventory_name"`
	Description   *string `json:"description"`
	// Photo holds a storage reference (filesystem path or object key), never a URL.
	Photo *string `json:"photo"`
}

// NewInventoryItem creates an item with a freshly generated ID
func NewInventoryItem(name string, description *string) *InventoryItem {
	return &InventoryItem{
		ID:            uuid.New().String(),
		InventoryName: name,
		Description:   description,
	}
}

// Validate performs presence checks on the item
func (i *InventoryItem) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("%w: id", ErrMissingRequiredField)
	}
	if i.InventoryName == "" {
		return fmt.Errorf("%w: inventory_name", ErrMissingRequiredField)
	}
	return nil
}

// HasPhoto reports whether the item references a stored photo
func (i *InventoryItem) HasPhoto() bool {
	return i.Photo != nil && *i.Photo != ""
}

// PhotoURL returns the retrieval URL for the item's photo, or nil
func (i *InventoryItem) PhotoURL() *string {
	if !i.HasPhoto() {
		return nil
	}
	url := PhotoURL(i.ID)
	return &url
}

// PhotoURL builds the retrieval URL for an item photo
func PhotoURL(id string) string {
	return "/inventory/" + id + "/photo"
}

// Clone returns a deep copy of the item
func (i InventoryItem) Clone() InventoryItem {
	out := i
	if i.Description != nil {
		d := *i.Description
		out.Description = &d
	}
	if i.Photo != nil {
		p := *i.Photo
		out.Photo = &p
	}
	return out
}

// ItemView is the client-facing representation of an item
type ItemView struct {
	ID            string  `json:"id"`
	InventoryName string  `json:"inventory_name"`
	Description   *string `json:"description"`
	Photo         *string `json:"photo"`
}

// View converts the item to its response form with the photo rewritten to a URL
func (i *InventoryItem) View() ItemView {
	return ItemView{
		ID:            i.ID,
		InventoryName: i.InventoryName,
		Description:   i.Description,
		Photo:         i.PhotoURL(),
	}
}

// SearchResult is the reduced projection returned by search
type SearchResult struct {
	ID            string  `json:"id"`
	InventoryName string  `json:"inventory_name"`
	Description   *string `json:"description"`
	Photo         *string `json:"photo,omitempty"`
}

// Project builds a search result, including the photo URL only when asked for
// and present.
func (i *InventoryItem) Project(includePhoto bool) SearchResult {
	result := SearchResult{
		ID:            i.ID,
		InventoryName: i.InventoryName,
		Description:   i.Description,
	}
	if includePhoto {
		result.Photo = i.PhotoURL()
	}
	return result
}

// RegisterInput carries the fields accepted when registering an item
type RegisterInput struct {
	InventoryName string
	Description   *string
	Photo         *PhotoUpload
}

// PhotoUpload is an uploaded photo stream with its client-supplied metadata
type PhotoUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}
