package notification_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notice(t *testing.T) ports.ExpirationNotice {
	t.Helper()
	amount, err := points.NewPointsAmount(250)
	require.NoError(t, err)
	return ports.ExpirationNotice{
		MembershipID:   membership.NewMembershipID(),
		UserID:         shared.NewUserID(),
		VenueID:        shared.NewVenueID(),
		Points:         amount,
		ExpirationDate: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		DaysLeft:       7,
	}
}

func TestLogDispatcher_SendWarning_WritesStructuredRecord(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	dispatcher := notification.NewLogDispatcher(slog.New(slog.NewJSONHandler(&buf, nil)))
	n := notice(t)

	// Act
	err := dispatcher.SendWarning(context.Background(), n)

	// Assert
	require.NoError(t, err)
	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "points expiring soon", record["msg"])
	assert.Equal(t, n.MembershipID.String(), record["membership_id"])
	assert.Equal(t, float64(250), record["points"])
	assert.Equal(t, float64(7), record["days_left"])
	assert.Equal(t, "2024-12-31", record["expiration_date"])
	assert.Equal(t, "notification", record["component"])
}

func TestLogDispatcher_SendExpired(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	dispatcher := notification.NewLogDispatcher(slog.New(slog.NewJSONHandler(&buf, nil)))

	// Act
	err := dispatcher.SendExpired(context.Background(), notice(t))

	// Assert
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"points expired"`)
	assert.NotContains(t, buf.String(), "days_left")
}

func TestLogDispatcher_CancelledContext(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	dispatcher := notification.NewLogDispatcher(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	err := dispatcher.SendWarning(ctx, notice(t))

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}
