package businessflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/merchantops/support-console/models"
	"github.com/merchantops/support-console/utils"
)

func TestNormalizeValue(t *testing.T) {
	t.Run("NilIsNull", func(t *testing.T) {
		assert.Nil(t, normalizeValue(nil))
		assert.Nil(t, normalizeValue((*string)(nil)))
		assert.Nil(t, normalizeValue((*bool)(nil)))
		assert.Nil(t, normalizeValue((*uint)(nil)))
	})

	t.Run("BooleansCoerceToDigits", func(t *testing.T) {
		// boolean true and stored "1" must compare equal so pure type
		// differences never produce history rows
		assert.Equal(t, "1", *normalizeValue(true))
		assert.Equal(t, "0", *normalizeValue(false))
		assert.Equal(t, "1", *normalizeValue(utils.ToPtr(true)))
		assert.True(t, normalizedEqual(normalizeValue(true), normalizeValue("1")))
		assert.True(t, normalizedEqual(normalizeValue(false), normalizeValue("0")))
	})

	t.Run("Numbers", func(t *testing.T) {
		assert.Equal(t, "42", *normalizeValue(uint(42)))
		assert.Equal(t, "42", *normalizeValue(utils.ToPtr(uint(42))))
		assert.Equal(t, "-7", *normalizeValue(-7))
		assert.Equal(t, "3.5", *normalizeValue(3.5))
	})

	t.Run("Timestamps", func(t *testing.T) {
		ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
		assert.Equal(t, "2025-06-01T12:30:00Z", *normalizeValue(ts))
		assert.Equal(t, "2025-06-01T12:30:00Z", *normalizeValue(&ts))
	})

	t.Run("StatusValues", func(t *testing.T) {
		assert.Equal(t, "Resolved", *normalizeValue(models.TicketStatusResolved))
	})
}

func TestNormalizedEqual(t *testing.T) {
	assert.True(t, normalizedEqual(nil, nil))
	assert.False(t, normalizedEqual(nil, utils.ToPtr("x")))
	assert.False(t, normalizedEqual(utils.ToPtr("x"), nil))
	assert.True(t, normalizedEqual(utils.ToPtr("x"), utils.ToPtr("x")))
	assert.False(t, normalizedEqual(utils.ToPtr("x"), utils.ToPtr("y")))
}

func TestMaskToken(t *testing.T) {
	token := "abcdefgh0123456789ijklmnopqrstuvwxyz"
	masked := maskToken(token)
	assert.Equal(t, "abcdefgh...wxyz", masked)

	// short values are not worth masking
	assert.Equal(t, "short", maskToken("short"))
	assert.Equal(t, "twelve-chars", maskToken("twelve-chars"))
}

func TestNormalizePagination(t *testing.T) {
	limit, offset, err := normalizePagination(0, 0)
	assert.NoError(t, err)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset, err = normalizePagination(3, 50)
	assert.NoError(t, err)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 100, offset)

	_, _, err = normalizePagination(1, 101)
	assert.True(t, IsInvalidPageSize(err))
}

func TestResolveActorLabel(t *testing.T) {
	assert.Equal(t, "system", resolveActorLabel(nil, nil, nil))
	assert.Equal(t, "system", resolveActorLabel(nil, nil, &Actor{Role: "agent"}))
}

func TestSanitizeSheetName(t *testing.T) {
	assert.Equal(t, "By Status", sanitizeSheetName("By Status"))
	assert.Equal(t, "a_b_c", sanitizeSheetName("a:b/c"))
	assert.Equal(t, "Sheet", sanitizeSheetName("  "))
	long := sanitizeSheetName("this sheet name is far too long to be accepted")
	assert.Len(t, long, 31)
}
