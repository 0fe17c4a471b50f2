package shared_test

import (
	"errors"
	"testing"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== EntityID[T] 基礎測試 =====

func TestNewEntityID_GeneratesUniqueUUIDs(t *testing.T) {
	// Act
	id1 := shared.NewUserID()
	id2 := shared.NewUserID()

	// Assert
	assert.NotEmpty(t, id1.String())
	assert.NotEqual(t, id1.String(), id2.String(), "每次生成的 UUID 應該不同")
}

func TestEntityIDFromString_ValidUUID_Success(t *testing.T) {
	// Arrange
	validUUID := "550e8400-e29b-41d4-a716-446655440000"

	// Act
	id, err := shared.UserIDFromString(validUUID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, validUUID, id.String())
}

func TestEntityIDFromString_InvalidUUID_ReturnsDomainError(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"空字串", ""},
		{"不是 UUID 格式", "not-a-uuid"},
		{"部分 UUID", "550e8400-e29b"},
		{"Nil UUID", "00000000-0000-0000-0000-000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			id, err := shared.VenueIDFromString(tt.value)

			// Assert
			assert.Error(t, err)
			assert.True(t, id.IsEmpty(), "解析失敗應該返回空 ID")
			assert.ErrorIs(t, err, shared.ErrInvalidVenueID)
		})
	}
}

func TestEntityIDFromString_AddsContextToError(t *testing.T) {
	// Act
	_, err := shared.UserIDFromString("bad-uuid")

	// Assert
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "bad-uuid", domainErr.Context["input"])
	assert.NotNil(t, domainErr.Context["parse_error"])
}

func TestEntityIDFromString_HandlesErrorsWithoutWithContext(t *testing.T) {
	// Arrange
	simpleErr := errors.New("simple error")

	// Act
	id, err := shared.EntityIDFromString[shared.UserMarker]("not-a-uuid", simpleErr)

	// Assert
	assert.Equal(t, simpleErr, err, "應該直接返回原始錯誤")
	assert.True(t, id.IsEmpty())
}

func TestEntityID_String_ReturnsLowercaseUUID(t *testing.T) {
	// Act
	id, err := shared.UserIDFromString("550E8400-E29B-41D4-A716-446655440000")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id.String())
}

func TestEntityID_EqualsAndIsEmpty(t *testing.T) {
	// Arrange
	raw := "550e8400-e29b-41d4-a716-446655440000"
	id1, _ := shared.UserIDFromString(raw)
	id2, _ := shared.UserIDFromString(raw)
	other := shared.NewUserID()

	// Assert
	assert.True(t, id1.Equals(id2))
	assert.False(t, id1.Equals(other))
	assert.True(t, shared.UserID{}.IsEmpty())
	assert.False(t, other.IsEmpty())
}

func TestEntityID_ConcurrencySafe(t *testing.T) {
	// Arrange
	const goroutines = 100
	ids := make([]shared.UserID, goroutines)
	done := make(chan struct{})

	// Act
	for i := 0; i < goroutines; i++ {
		go func(index int) {
			ids[index] = shared.NewUserID()
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < goroutines; i++ {
		<-done
	}

	// Assert
	unique := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, id.IsEmpty())
		unique[id.String()] = true
	}
	assert.Len(t, unique, goroutines)
}
