package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockroom/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func TestInventoryItem_Validate(t *testing.T) {
	tests := []struct {
		name      string
		item      *domain.InventoryItem
		wantError bool
		errorMsg  string
	}{
		{
			name:      "valid_item",
			item:      domain.NewInventoryItem("Drill", strPtr("cordless")),
			wantError: false,
		},
		{
			name:      "valid_item_without_description",
			item:      domain.NewInventoryItem("Drill", nil),
			wantError: false,
		},
		{
			name:      "missing_inventory_name",
			item:      domain.NewInventoryItem("", nil),
			wantError: true,
			errorMsg:  "inventory_name",
		},
		{
			name:      "missing_id",
			item:      &domain.InventoryItem{InventoryName: "Drill"},
			wantError: true,
			errorMsg:  "id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrMissingRequiredField))
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewInventoryItem_GeneratesUniqueUUIDs(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		item := domain.NewInventoryItem("Item", nil)
		_, err := uuid.Parse(item.ID)
		require.NoError(t, err)

		_, dup := seen[item.ID]
		require.False(t, dup, "duplicate id %s", item.ID)
		seen[item.ID] = struct{}{}
	}
}

func TestInventoryItem_View(t *testing.T) {
	t.Run("rewrites_photo_path_to_url", func(t *testing.T) {
		item := domain.InventoryItem{
			ID:            "abc",
			InventoryName: "Lamp",
			Photo:         strPtr("/var/cache/uploads/xyz.jpg"),
		}

		view := item.View()
		require.NotNil(t, view.Photo)
		assert.Equal(t, "/inventory/abc/photo", *view.Photo)
		assert.Equal(t, "/var/cache/uploads/xyz.jpg", *item.Photo, "source item must not change")
	})

	t.Run("null_photo_when_absent", func(t *testing.T) {
		item := domain.InventoryItem{ID: "abc", InventoryName: "Lamp"}

		body, err := json.Marshal(item.View())
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"abc","inventory_name":"Lamp","description":null,"photo":null}`, string(body))
	})

	t.Run("empty_photo_reference_counts_as_absent", func(t *testing.T) {
		item := domain.InventoryItem{ID: "abc", InventoryName: "Lamp", Photo: strPtr("")}
		assert.Nil(t, item.View().Photo)
	})
}

func TestInventoryItem_Project(t *testing.T) {
	withPhoto := domain.InventoryItem{ID: "1", InventoryName: "Saw", Description: strPtr("rip"), Photo: strPtr("p.jpg")}
	withoutPhoto := domain.InventoryItem{ID: "2", InventoryName: "Axe"}

	tests := []struct {
		name         string
		item         domain.InventoryItem
		includePhoto bool
		wantPhoto    bool
	}{
		{"flag_off_with_photo", withPhoto, false, false},
		{"flag_on_with_photo", withPhoto, true, true},
		{"flag_on_without_photo", withoutPhoto, true, false},
		{"flag_off_without_photo", withoutPhoto, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.item.Project(tt.includePhoto)
			assert.Equal(t, tt.item.ID, result.ID)
			assert.Equal(t, tt.item.InventoryName, result.InventoryName)

			body, err := json.Marshal(result)
			require.NoError(t, err)

			var raw map[string]any
			require.NoError(t, json.Unmarshal(body, &raw))
			_, hasPhoto := raw["photo"]
			assert.Equal(t, tt.wantPhoto, hasPhoto)
		})
	}
}

func TestInventoryItem_Clone(t *testing.T) {
	item := domain.InventoryItem{ID: "1", InventoryName: "Saw", Description: strPtr("rip"), Photo: strPtr("p.jpg")}

	clone := item.Clone()
	*clone.Description = "changed"
	*clone.Photo = "other.jpg"

	assert.Equal(t, "rip", *item.Description)
	assert.Equal(t, "p.jpg", *item.Photo)
}

func TestInventoryItem_LoadsLegacyRecords(t *testing.T) {
	// Records written with timestamp ids and without a description key.
	raw := `[{"id":"1700000000000","inventory_name":"Old","photo":"cache/uploads/abc"}]`

	var items []domain.InventoryItem
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "1700000000000", items[0].ID)
	assert.Nil(t, items[0].Description)
	assert.True(t, items[0].HasPhoto())
}
