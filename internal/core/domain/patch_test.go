package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockroom/internal/core/domain"
)

func TestInventoryPatch_Decode(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		wantNameSet     bool
		wantName        string
		wantDescSet     bool
		wantDescription *string
	}{
		{
			name: "empty_object",
			body: `{}`,
		},
		{
			name:        "name_only",
			body:        `{"inventory_name":"Hammer"}`,
			wantNameSet: true,
			wantName:    "Hammer",
		},
		{
			name:            "description_only",
			body:            `{"description":"claw"}`,
			wantDescSet:     true,
			wantDescription: strPtr("claw"),
		},
		{
			name:            "explicit_empty_string_is_present",
			body:            `{"description":""}`,
			wantDescSet:     true,
			wantDescription: strPtr(""),
		},
		{
			name:        "explicit_null_is_present",
			body:        `{"description":null}`,
			wantDescSet: true,
		},
		{
			name:        "empty_name_is_present",
			body:        `{"inventory_name":""}`,
			wantNameSet: true,
			wantName:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var patch domain.InventoryPatch
			require.NoError(t, json.Unmarshal([]byte(tt.body), &patch))

			assert.Equal(t, tt.wantNameSet, patch.InventoryName.Set)
			assert.Equal(t, tt.wantName, patch.InventoryName.Value)
			assert.Equal(t, tt.wantDescSet, patch.Description.Set)
			assert.Equal(t, tt.wantDescription, patch.Description.Value)
		})
	}
}

func TestInventoryPatch_Apply(t *testing.T) {
	base := func() *domain.InventoryItem {
		return &domain.InventoryItem{ID: "1", InventoryName: "Hammer", Description: strPtr("claw")}
	}

	t.Run("absent_fields_untouched", func(t *testing.T) {
		item := base()
		domain.InventoryPatch{}.Apply(item)
		assert.Equal(t, "Hammer", item.InventoryName)
		assert.Equal(t, "claw", *item.Description)
	})

	t.Run("description_only_keeps_name", func(t *testing.T) {
		item := base()
		domain.InventoryPatch{Description: domain.Some(strPtr("ball peen"))}.Apply(item)
		assert.Equal(t, "Hammer", item.InventoryName)
		assert.Equal(t, "ball peen", *item.Description)
	})

	t.Run("name_only_keeps_description", func(t *testing.T) {
		item := base()
		domain.InventoryPatch{InventoryName: domain.Some("Mallet")}.Apply(item)
		assert.Equal(t, "Mallet", item.InventoryName)
		assert.Equal(t, "claw", *item.Description)
	})

	t.Run("null_description_clears", func(t *testing.T) {
		item := base()
		domain.InventoryPatch{Description: domain.Some[*string](nil)}.Apply(item)
		assert.Nil(t, item.Description)
	})

	t.Run("null_name_fails_validation", func(t *testing.T) {
		var patch domain.InventoryPatch
		require.NoError(t, json.Unmarshal([]byte(`{"inventory_name": null, "description": null}`), &patch))

		assert.True(t, patch.InventoryName.Null)
		assert.True(t, patch.Description.Null)
		assert.True(t, errors.Is(patch.Validate(), domain.ErrMissingRequiredField))
	})

	t.Run("empty_name_passes_validation", func(t *testing.T) {
		var patch domain.InventoryPatch
		require.NoError(t, json.Unmarshal([]byte(`{"inventory_name": ""}`), &patch))

		assert.False(t, patch.InventoryName.Null)
		assert.NoError(t, patch.Validate())
	})

	t.Run("is_empty", func(t *testing.T) {
		assert.True(t, domain.InventoryPatch{}.IsEmpty())
		assert.False(t, domain.InventoryPatch{InventoryName: domain.Some("x")}.IsEmpty())
	})
}
