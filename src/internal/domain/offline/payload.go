package offline

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ActionType 離線動作類型
type ActionType string

const (
	ActionCheckIn       ActionType = "check_in"
	ActionRSVP          ActionType = "rsvp"
	ActionJoinVenue     ActionType = "join_venue"
	ActionRedeemReward  ActionType = "redeem_reward"
	ActionCreatePost    ActionType = "create_post"
	ActionLikePost      ActionType = "like_post"
	ActionAddComment    ActionType = "add_comment"
	ActionUpdateProfile ActionType = "update_profile"
	// ActionSubmitEarning 積分事件外送（本地已入帳，等待遠端確認與推薦分潤）
	ActionSubmitEarning ActionType = "submit_earning"
)

// ===========================
// Payload 封閉和型別
// ===========================

// Payload 離線動作內容
//
// 只有本套件定義的型別可以實作（sealed）。
type Payload interface {
	ActionType() ActionType
	sealed()
}

// CheckInPayload 打卡
type CheckInPayload struct {
	UserID     string    `json:"userId" validate:"required,uuid"`
	VenueID    string    `json:"venueId" validate:"required,uuid"`
	VenueName  string    `json:"venueName,omitempty" validate:"max=200"`
	Method     string    `json:"method" validate:"required,oneof=nfc qr manual"`
	EventID    string    `json:"eventId,omitempty" validate:"omitempty,uuid"`
	OccurredAt time.Time `json:"occurredAt"`
}

// RSVPPayload 活動報名
type RSVPPayload struct {
	EventID string `json:"eventId" validate:"required,uuid"`
	UserID  string `json:"userId" validate:"required,uuid"`
	Status  string `json:"status" validate:"required,oneof=going interested not_going"`
}

// JoinVenuePayload 加入場館會員
type JoinVenuePayload struct {
	UserID  string `json:"userId" validate:"required,uuid"`
	VenueID string `json:"venueId" validate:"required,uuid"`
}

// RedeemRewardPayload 兌換獎勵
type RedeemRewardPayload struct {
	RewardID     string `json:"rewardId" validate:"required,uuid"`
	MembershipID string `json:"membershipId" validate:"required,uuid"`
	PointsCost   int    `json:"pointsCost" validate:"gte=1"`
}

// CreatePostPayload 發文
type CreatePostPayload struct {
	UserID  string `json:"userId" validate:"required,uuid"`
	VenueID string `json:"venueId,omitempty" validate:"omitempty,uuid"`
	Content string `json:"content" validate:"required,max=2000"`
}

// LikePostPayload 按讚
type LikePostPayload struct {
	PostID string `json:"postId" validate:"required,uuid"`
	UserID string `json:"userId" validate:"required,uuid"`
}

// AddCommentPayload 留言
type AddCommentPayload struct {
	PostID  string `json:"postId" validate:"required,uuid"`
	UserID  string `json:"userId" validate:"required,uuid"`
	Content string `json:"content" validate:"required,max=1000"`
}

// UpdateProfilePayload 更新個人資料（至少一個欄位）
type UpdateProfilePayload struct {
	UserID      string `json:"userId" validate:"required,uuid"`
	DisplayName string `json:"displayName,omitempty" validate:"omitempty,min=1,max=64"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Bio         string `json:"bio,omitempty" validate:"max=500"`
}

// SubmitEarningPayload 積分事件外送
//
// EventKey 同時作為遠端冪等鍵與推薦分潤的事件鍵。
type SubmitEarningPayload struct {
	EventKey     string          `json:"eventKey" validate:"required,max=128"`
	MembershipID string          `json:"membershipId" validate:"required,uuid"`
	UserID       string          `json:"userId" validate:"required,uuid"`
	VenueID      string          `json:"venueId" validate:"required,uuid"`
	Source       string          `json:"source" validate:"required,oneof=check_in purchase"`
	PointsEarned int             `json:"pointsEarned" validate:"gte=0"`
	Spend        decimal.Decimal `json:"spend" validate:"gte=0"`
	Multiplier   decimal.Decimal `json:"multiplier" validate:"gte=0"`
	OccurredAt   time.Time       `json:"occurredAt"`
}

func (CheckInPayload) ActionType() ActionType       { return ActionCheckIn }
func (RSVPPayload) ActionType() ActionType          { return ActionRSVP }
func (JoinVenuePayload) ActionType() ActionType     { return ActionJoinVenue }
func (RedeemRewardPayload) ActionType() ActionType  { return ActionRedeemReward }
func (CreatePostPayload) ActionType() ActionType    { return ActionCreatePost }
func (LikePostPayload) ActionType() ActionType      { return ActionLikePost }
func (AddCommentPayload) ActionType() ActionType    { return ActionAddComment }
func (UpdateProfilePayload) ActionType() ActionType { return ActionUpdateProfile }
func (SubmitEarningPayload) ActionType() ActionType { return ActionSubmitEarning }

func (CheckInPayload) sealed()       {}
func (RSVPPayload) sealed()          {}
func (JoinVenuePayload) sealed()     {}
func (RedeemRewardPayload) sealed()  {}
func (CreatePostPayload) sealed()    {}
func (LikePostPayload) sealed()      {}
func (AddCommentPayload) sealed()    {}
func (UpdateProfilePayload) sealed() {}
func (SubmitEarningPayload) sealed() {}

// IdempotencyKey 積分事件以 EventKey 作為冪等鍵
func (p SubmitEarningPayload) IdempotencyKey() string { return p.EventKey }

// ===========================
// 驗證
// ===========================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// decimal 以 float64 參與數值比較標籤（gte 等）
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// ValidatePayload 驗證內容，失敗時返回帶欄位資訊的 ErrInvalidPayload
func ValidatePayload(p Payload) error {
	if p == nil {
		return ErrInvalidPayload.WithContext("reason", "nil payload")
	}

	if err := validate.Struct(p); err != nil {
		return ErrInvalidPayload.WithContext(
			"action_type", string(p.ActionType()),
			"fields", describeValidationError(err),
		)
	}

	switch v := p.(type) {
	case CheckInPayload:
		if v.OccurredAt.IsZero() {
			return ErrInvalidPayload.WithContext("action_type", string(v.ActionType()), "fields", "OccurredAt: required")
		}
	case SubmitEarningPayload:
		if v.OccurredAt.IsZero() {
			return ErrInvalidPayload.WithContext("action_type", string(v.ActionType()), "fields", "OccurredAt: required")
		}
	case UpdateProfilePayload:
		if v.DisplayName == "" && v.Email == "" && v.Bio == "" {
			return ErrInvalidPayload.WithContext("action_type", string(v.ActionType()), "fields", "at least one profile field")
		}
	}
	return nil
}

func describeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

// ===========================
// 編碼
// ===========================

// EncodePayload 序列化為 JSON（持久化用）
func EncodePayload(p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.ActionType(), err)
	}
	return data, nil
}

// DecodePayload 依動作類型反序列化
func DecodePayload(t ActionType, data []byte) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch t {
	case ActionCheckIn:
		p, err = decodeInto[CheckInPayload](data)
	case ActionRSVP:
		p, err = decodeInto[RSVPPayload](data)
	case ActionJoinVenue:
		p, err = decodeInto[JoinVenuePayload](data)
	case ActionRedeemReward:
		p, err = decodeInto[RedeemRewardPayload](data)
	case ActionCreatePost:
		p, err = decodeInto[CreatePostPayload](data)
	case ActionLikePost:
		p, err = decodeInto[LikePostPayload](data)
	case ActionAddComment:
		p, err = decodeInto[AddCommentPayload](data)
	case ActionUpdateProfile:
		p, err = decodeInto[UpdateProfilePayload](data)
	case ActionSubmitEarning:
		p, err = decodeInto[SubmitEarningPayload](data)
	default:
		return nil, ErrUnknownActionType.WithContext("action_type", string(t))
	}
	if err != nil {
		return nil, ErrInvalidPayload.WithContext("action_type", string(t), "decode_error", err.Error())
	}
	return p, nil
}

func decodeInto[T Payload](data []byte) (Payload, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
