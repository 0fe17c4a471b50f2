package shared_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_WithContext_KeepsCodeForErrorsIs(t *testing.T) {
	// Arrange
	base := &shared.DomainError{Code: "TEST_CODE", Message: "測試錯誤"}

	// Act
	err := base.WithContext("key", 42)
	wrapped := fmt.Errorf("use case failed: %w", err)

	// Assert
	assert.ErrorIs(t, wrapped, base)
	assert.Contains(t, err.Error(), "TEST_CODE")
	assert.Contains(t, err.Error(), "key")
	assert.Empty(t, base.Context, "原始錯誤不應被修改")
}

func TestDomainError_Is_DifferentCode_ReturnsFalse(t *testing.T) {
	a := &shared.DomainError{Code: "A"}
	b := &shared.DomainError{Code: "B"}

	assert.False(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, errors.New("A")))
}

func TestDomainError_WithContext_OddArguments_Panics(t *testing.T) {
	base := &shared.DomainError{Code: "A"}

	assert.Panics(t, func() {
		_ = base.WithContext("only-key")
	})
}

func TestEventRecorder_PullEvents_ClearsList(t *testing.T) {
	var r shared.EventRecorder

	assert.Empty(t, r.PullEvents())
}

func TestFixedClock_Advance(t *testing.T) {
	clock := &shared.FixedClock{}
	start := clock.Now()

	clock.Advance(90)

	assert.Equal(t, int64(90), clock.Now().Sub(start).Nanoseconds())
}
