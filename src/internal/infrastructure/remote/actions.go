package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
)

// ===========================
// RemoteActionAPI
// ===========================
//
// 請求內容直接使用 payload 的 JSON 形式，key 放在 Idempotency-Key 標頭。

func (c *Client) CheckIn(ctx context.Context, key string, p offline.CheckInPayload) error {
	return c.do(ctx, http.MethodPost, "/v1/check-ins", key, p, nil)
}

func (c *Client) RSVP(ctx context.Context, key string, p offline.RSVPPayload) error {
	return c.do(ctx, http.MethodPut, "/v1/events/"+url.PathEscape(p.EventID)+"/rsvp", key, p, nil)
}

func (c *Client) JoinVenue(ctx context.Context, key string, p offline.JoinVenuePayload) error {
	return c.do(ctx, http.MethodPost, "/v1/venues/"+url.PathEscape(p.VenueID)+"/members", key, p, nil)
}

func (c *Client) RedeemReward(ctx context.Context, key string, p offline.RedeemRewardPayload) error {
	return c.do(ctx, http.MethodPost, "/v1/rewards/"+url.PathEscape(p.RewardID)+"/redemptions", key, p, nil)
}

func (c *Client) CreatePost(ctx context.Context, key string, p offline.CreatePostPayload) error {
	return c.do(ctx, http.MethodPost, "/v1/posts", key, p, nil)
}

func (c *Client) LikePost(ctx context.Context, key string, p offline.LikePostPayload) error {
	return c.do(ctx, http.MethodPost, "/v1/posts/"+url.PathEscape(p.PostID)+"/likes", key, p, nil)
}

func (c *Client) AddComment(ctx context.Context, key string, p offline.AddCommentPayload) error {
	return c.do(ctx, http.MethodPost, "/v1/posts/"+url.PathEscape(p.PostID)+"/comments", key, p, nil)
}

// UpdateProfile 只送出非空欄位（PATCH）
func (c *Client) UpdateProfile(ctx context.Context, key string, p offline.UpdateProfilePayload) error {
	return c.do(ctx, http.MethodPatch, "/v1/users/"+url.PathEscape(p.UserID)+"/profile", key, p, nil)
}
