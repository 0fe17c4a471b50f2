package ports_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"遠端不可用", ports.ErrRemoteUnavailable.WithContext("status", 503), true},
		{"包裝後的遠端不可用", fmt.Errorf("submit: %w", ports.ErrRemoteUnavailable), true},
		{"逾時", context.DeadlineExceeded, true},
		{"取消", context.Canceled, false},
		{"遠端拒絕", ports.ErrRemoteRejected, false},
		{"其他錯誤", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ports.IsRetryable(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, ports.IsFatal(ports.ErrRemoteRejected.WithContext("status", 422)))
	assert.True(t, ports.IsFatal(fmt.Errorf("decode: %w", offline.ErrInvalidPayload)))
	assert.False(t, ports.IsFatal(ports.ErrRemoteUnavailable))
	assert.False(t, ports.IsFatal(nil))
}
