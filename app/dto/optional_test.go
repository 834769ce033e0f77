package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalUnmarshal(t *testing.T) {
	type patch struct {
		IssueType Optional[string] `json:"issue_type"`
		Hidden    Optional[bool]   `json:"hidden"`
	}

	t.Run("AbsentFieldStaysAbsent", func(t *testing.T) {
		var p patch
		require.NoError(t, json.Unmarshal([]byte(`{"hidden":true}`), &p))
		assert.False(t, p.IssueType.Present)
		assert.Nil(t, p.IssueType.Value)
		assert.True(t, p.Hidden.Present)
		require.NotNil(t, p.Hidden.Value)
		assert.True(t, *p.Hidden.Value)
	})

	t.Run("ExplicitNullIsPresentWithoutValue", func(t *testing.T) {
		var p patch
		require.NoError(t, json.Unmarshal([]byte(`{"issue_type":null}`), &p))
		assert.True(t, p.IssueType.Present)
		assert.Nil(t, p.IssueType.Value)
	})

	t.Run("ValueIsPresentWithValue", func(t *testing.T) {
		var p patch
		require.NoError(t, json.Unmarshal([]byte(`{"issue_type":"Hardware"}`), &p))
		assert.True(t, p.IssueType.Present)
		require.NotNil(t, p.IssueType.Value)
		assert.Equal(t, "Hardware", *p.IssueType.Value)
	})

	t.Run("TypeMismatchFails", func(t *testing.T) {
		var p patch
		assert.Error(t, json.Unmarshal([]byte(`{"hidden":"yes"}`), &p))
	})
}

func TestOptionalMarshal(t *testing.T) {
	t.Run("PresentValueRoundTrips", func(t *testing.T) {
		raw, err := json.Marshal(NewOptional("Hardware"))
		require.NoError(t, err)
		assert.Equal(t, `"Hardware"`, string(raw))
	})

	t.Run("NullAndAbsentMarshalAsNull", func(t *testing.T) {
		raw, err := json.Marshal(NullOptional[string]())
		require.NoError(t, err)
		assert.Equal(t, "null", string(raw))

		raw, err = json.Marshal(Optional[string]{})
		require.NoError(t, err)
		assert.Equal(t, "null", string(raw))
	})
}

func TestOptionalIsZero(t *testing.T) {
	assert.True(t, Optional[string]{}.IsZero())
	assert.False(t, NullOptional[string]().IsZero())
	assert.False(t, NewOptional("x").IsZero())
}
