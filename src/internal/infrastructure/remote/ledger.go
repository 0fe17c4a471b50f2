package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ===========================
// 遠端帳本 DTO
// ===========================

type earningEventDTO struct {
	EventKey     string          `json:"eventKey"`
	MembershipID string          `json:"membershipId"`
	UserID       string          `json:"userId"`
	VenueID      string          `json:"venueId"`
	Source       string          `json:"source"`
	PointsEarned int             `json:"pointsEarned"`
	Spend        decimal.Decimal `json:"spend"`
	Multiplier   decimal.Decimal `json:"multiplier"`
	OccurredAt   time.Time       `json:"occurredAt"`
}

type chainDTO struct {
	UserID    string   `json:"userId"`
	Referrers []string `json:"referrers"`
}

type distributionRequestDTO struct {
	EventKey     string          `json:"eventKey"`
	UserID       string          `json:"userId"`
	PointsEarned decimal.Decimal `json:"pointsEarned"`
}

type payoutDTO struct {
	ReferrerID string          `json:"referrerId"`
	Amount     decimal.Decimal `json:"amount"`
}

type distributionResponseDTO struct {
	Payouts []payoutDTO `json:"payouts"`
}

type expirationDTO struct {
	PointsExpired int `json:"pointsExpired"`
}

type activityDTO struct {
	At time.Time `json:"at"`
}

// ===========================
// RemoteLedgerAPI
// ===========================

// SubmitEarningEvent 外送入帳事件（以 EventKey 冪等）
func (c *Client) SubmitEarningEvent(ctx context.Context, event ports.EarningEvent) error {
	return c.do(ctx, http.MethodPost, "/v1/earnings", event.EventKey, earningEventDTO{
		EventKey:     event.EventKey,
		MembershipID: event.MembershipID,
		UserID:       event.UserID,
		VenueID:      event.VenueID,
		Source:       event.Source,
		PointsEarned: event.PointsEarned,
		Spend:        event.Spend,
		Multiplier:   event.Multiplier,
		OccurredAt:   event.OccurredAt.UTC(),
	}, nil)
}

// FetchReferralChain 取得用戶的推薦鏈
func (c *Client) FetchReferralChain(ctx context.Context, userID shared.UserID) (*ports.RemoteChain, error) {
	var dto chainDTO
	path := "/v1/referrals/" + url.PathEscape(userID.String()) + "/chain"
	if err := c.do(ctx, http.MethodGet, path, "", nil, &dto); err != nil {
		return nil, err
	}

	if len(dto.Referrers) > referral.MaxLevels {
		return nil, referral.ErrInvalidLevel.WithContext("levels", len(dto.Referrers))
	}
	chain := &ports.RemoteChain{UserID: userID}
	for i, raw := range dto.Referrers {
		if raw == "" {
			continue
		}
		id, err := shared.UserIDFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid referrer at level %d: %w", i+1, err)
		}
		chain.Referrers[i] = id
	}
	return chain, nil
}

// SubmitReferralDistribution 送出分潤並返回遠端確認的金額
func (c *Client) SubmitReferralDistribution(
	ctx context.Context,
	eventKey string,
	userID shared.UserID,
	pointsEarned decimal.Decimal,
) (map[shared.UserID]decimal.Decimal, error) {
	var resp distributionResponseDTO
	err := c.do(ctx, http.MethodPost, "/v1/referrals/distributions", eventKey, distributionRequestDTO{
		EventKey:     eventKey,
		UserID:       userID.String(),
		PointsEarned: pointsEarned,
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make(map[shared.UserID]decimal.Decimal, len(resp.Payouts))
	for _, p := range resp.Payouts {
		id, err := shared.UserIDFromString(p.ReferrerID)
		if err != nil {
			return nil, fmt.Errorf("invalid referrer in distribution: %w", err)
		}
		out[id] = out[id].Add(p.Amount)
	}
	return out, nil
}

// NotifyExpiration 通知遠端會籍積分已過期
func (c *Client) NotifyExpiration(
	ctx context.Context,
	idempotencyKey string,
	membershipID membership.MembershipID,
	pointsExpired points.PointsAmount,
) error {
	path := "/v1/memberships/" + url.PathEscape(membershipID.String()) + "/expirations"
	return c.do(ctx, http.MethodPost, path, idempotencyKey, expirationDTO{PointsExpired: pointsExpired.Value()}, nil)
}

// NotifyActivity 回報會籍活動時間
func (c *Client) NotifyActivity(ctx context.Context, membershipID membership.MembershipID, at time.Time) error {
	path := "/v1/memberships/" + url.PathEscape(membershipID.String()) + "/activity"
	return c.do(ctx, http.MethodPost, path, "", activityDTO{At: at.UTC()}, nil)
}
