package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fabula/pkg/domain-errors"
)

func TestParseTaleID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseTaleID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseTaleID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseTaleID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseTaleID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, TaleID(valid), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check - if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	userID := UserID(uuid.New())
	taleID := TaleID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ UserID = taleID   // compile error
	// var _ TaleID = userID   // compile error

	assert.NotEqual(t, uuid.UUID(userID), uuid.UUID(taleID))
}

// TestParseID_RejectsHostileInput validates that route parameters and token
// claims cannot smuggle anything past the UUID parser.
func TestParseID_RejectsHostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE tales;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400\u200B-e29b-41d4-a716-446655440000", true},

		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},

		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUserID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures every ID type parses identically.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errUser := ParseUserID(validUUID)
		_, errTale := ParseTaleID(validUUID)
		_, errComment := ParseCommentID(validUUID)
		_, errBookmark := ParseBookmarkID(validUUID)

		require.NoError(t, errUser)
		require.NoError(t, errTale)
		require.NoError(t, errComment)
		require.NoError(t, errBookmark)
	})

	for _, input := range invalidInputs {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errUser := ParseUserID(input)
			_, errTale := ParseTaleID(input)
			_, errComment := ParseCommentID(input)
			_, errBookmark := ParseBookmarkID(input)

			require.Error(t, errUser)
			require.Error(t, errTale)
			require.Error(t, errComment)
			require.Error(t, errBookmark)
		})
	}
}

func TestIsNil(t *testing.T) {
	assert.True(t, UserID(uuid.Nil).IsNil())
	assert.False(t, NewUserID().IsNil())
	assert.True(t, TaleID(uuid.Nil).IsNil())
	assert.False(t, NewTaleID().IsNil())
}
