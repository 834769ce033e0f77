package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dropdownField(id, name string, options ...ClickUpFieldOption) ClickUpField {
	field := ClickUpField{ID: id, Name: name, Type: "drop_down"}
	field.TypeConfig.Options = options
	return field
}

func fieldValue(values []ClickUpFieldValue, id string) (ClickUpFieldValue, bool) {
	for _, v := range values {
		if v.ID == id {
			return v, true
		}
	}
	return ClickUpFieldValue{}, false
}

func TestResolveCustomFields(t *testing.T) {
	fields := []ClickUpField{
		dropdownField("fld-priority", "Priority",
			ClickUpFieldOption{ID: "opt-high", Name: "High"},
			ClickUpFieldOption{ID: "opt-low", Name: "Low"},
		),
		{ID: "fld-fid", Name: "FID", Type: "short_text"},
	}

	t.Run("TextFieldPassesRawValue", func(t *testing.T) {
		values, err := ResolveCustomFields(fields, map[string]string{"FID": "F100"}, true)
		require.NoError(t, err)
		v, ok := fieldValue(values, "fld-fid")
		require.True(t, ok)
		assert.Equal(t, "F100", v.Value)
	})

	t.Run("DropdownResolvesByOptionID", func(t *testing.T) {
		values, err := ResolveCustomFields(fields, map[string]string{"Priority": "opt-low"}, true)
		require.NoError(t, err)
		v, ok := fieldValue(values, "fld-priority")
		require.True(t, ok)
		assert.Equal(t, "opt-low", v.Value)
	})

	t.Run("DropdownResolvesByNameCaseInsensitive", func(t *testing.T) {
		values, err := ResolveCustomFields(fields, map[string]string{"priority": "hIgH"}, true)
		require.NoError(t, err)
		v, ok := fieldValue(values, "fld-priority")
		require.True(t, ok)
		assert.Equal(t, "opt-high", v.Value)
	})

	t.Run("StrictModeSkipsUnmatchedOption", func(t *testing.T) {
		values, err := ResolveCustomFields(fields, map[string]string{"Priority": "Critical"}, true)
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("LenientModeSendsUnmatchedRaw", func(t *testing.T) {
		values, err := ResolveCustomFields(fields, map[string]string{"Priority": "Critical"}, false)
		require.NoError(t, err)
		v, ok := fieldValue(values, "fld-priority")
		require.True(t, ok)
		assert.Equal(t, "Critical", v.Value)
	})

	t.Run("UnknownFieldNameAlwaysSkipped", func(t *testing.T) {
		values, err := ResolveCustomFields(fields, map[string]string{"Severity": "Major"}, false)
		require.NoError(t, err)
		assert.Empty(t, values)
	})
}
