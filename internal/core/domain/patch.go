// internal/core/domain/patch.go
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Optional distinguishes an absent JSON key from one that is present, even
// when the present value is empty or null.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns an Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null returns an Optional that was present as JSON null
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON marks the field as present and decodes its value
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Null = bytes.Equal(bytes.TrimSpace(data), []byte("null"))
	return json.Unmarshal(data, &o.Value)
}

// InventoryPatch describes a partial update of an item's text fields
type InventoryPatch struct {
	InventoryName Optional[string]  `json:"inventory_name"`
	Description   Optional[*string] `json:"description"`
}

// IsEmpty reports whether the patch carries no fields
func (p InventoryPatch) IsEmpty() bool {
	return !p.InventoryName.Set && !p.Description.Set
}

// Validate rejects a null name; an item always keeps one
func (p InventoryPatch) Validate() error {
	if p.InventoryName.Set && p.InventoryName.Null {
		return fmt.Errorf("%w: inventory_name", ErrMissingRequiredField)
	}
	return nil
}

// Apply writes the present fields onto the item
func (p InventoryPatch) Apply(item *InventoryItem) {
	if p.InventoryName.Set {
		item.InventoryName = p.InventoryName.Value
	}
	if p.Description.Set {
		item.Description = p.Description.Value
	}
}
