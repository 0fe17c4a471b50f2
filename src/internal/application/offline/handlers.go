package offline

import (
	"context"
	"fmt"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReferralProcessor 入帳事件送出後的推薦分潤
type ReferralProcessor interface {
	ProcessReferralRewards(ctx context.Context, eventKey string, userID shared.UserID, pointsEarned decimal.Decimal) (map[shared.UserID]decimal.Decimal, error)
}

// Dispatcher 依動作類型呼叫對應的遠端 API
type Dispatcher struct {
	actions   ports.RemoteActionAPI
	ledger    ports.RemoteLedgerAPI
	referrals ReferralProcessor
}

var _ Handler = (*Dispatcher)(nil)

// NewDispatcher 建立 Dispatcher
func NewDispatcher(actions ports.RemoteActionAPI, ledger ports.RemoteLedgerAPI, referrals ReferralProcessor) *Dispatcher {
	return &Dispatcher{actions: actions, ledger: ledger, referrals: referrals}
}

// Handle 送出單一動作，冪等鍵為動作的 IdempotencyKey
func (d *Dispatcher) Handle(ctx context.Context, a *offline.PendingAction) error {
	key := a.IdempotencyKey()
	switch p := a.Payload().(type) {
	case offline.CheckInPayload:
		return d.actions.CheckIn(ctx, key, p)
	case offline.RSVPPayload:
		return d.actions.RSVP(ctx, key, p)
	case offline.JoinVenuePayload:
		return d.actions.JoinVenue(ctx, key, p)
	case offline.RedeemRewardPayload:
		return d.actions.RedeemReward(ctx, key, p)
	case offline.CreatePostPayload:
		return d.actions.CreatePost(ctx, key, p)
	case offline.LikePostPayload:
		return d.actions.LikePost(ctx, key, p)
	case offline.AddCommentPayload:
		return d.actions.AddComment(ctx, key, p)
	case offline.UpdateProfilePayload:
		return d.actions.UpdateProfile(ctx, key, p)
	case offline.SubmitEarningPayload:
		return d.submitEarning(ctx, p)
	default:
		return offline.ErrUnknownActionType.WithContext("action_type", string(a.Type()))
	}
}

// submitEarning 送出入帳事件後處理推薦分潤；兩步都以 EventKey 冪等，重送安全
func (d *Dispatcher) submitEarning(ctx context.Context, p offline.SubmitEarningPayload) error {
	err := d.ledger.SubmitEarningEvent(ctx, ports.EarningEvent{
		EventKey:     p.EventKey,
		MembershipID: p.MembershipID,
		UserID:       p.UserID,
		VenueID:      p.VenueID,
		Source:       p.Source,
		PointsEarned: p.PointsEarned,
		Spend:        p.Spend,
		Multiplier:   p.Multiplier,
		OccurredAt:   p.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("submit earning event: %w", err)
	}

	if d.referrals == nil || p.PointsEarned == 0 {
		return nil
	}
	userID, err := shared.UserIDFromString(p.UserID)
	if err != nil {
		return fmt.Errorf("%w: %v", offline.ErrInvalidPayload, err)
	}
	if _, err := d.referrals.ProcessReferralRewards(ctx, p.EventKey, userID, decimal.NewFromInt(int64(p.PointsEarned))); err != nil {
		return fmt.Errorf("process referral rewards: %w", err)
	}
	return nil
}
