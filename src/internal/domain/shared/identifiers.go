package shared

// ===========================
// 跨 bounded context 共用的 ID
// ===========================
//
// UserID 與 VenueID 同時被會籍、推薦鏈、離線佇列引用，
// 因此放在 shared，而非任何單一業務包。

// UserMarker 是 UserID 的標記類型
type UserMarker struct{}

// UserID 用戶的唯一標識符
type UserID = EntityID[UserMarker]

// NewUserID 生成新的用戶 ID
func NewUserID() UserID {
	return NewEntityID[UserMarker]()
}

// UserIDFromString 從字串解析用戶 ID（失敗返回 ErrInvalidUserID）
func UserIDFromString(s string) (UserID, error) {
	return EntityIDFromString[UserMarker](s, ErrInvalidUserID)
}

// VenueMarker 是 VenueID 的標記類型
type VenueMarker struct{}

// VenueID 場館的唯一標識符
type VenueID = EntityID[VenueMarker]

// NewVenueID 生成新的場館 ID
func NewVenueID() VenueID {
	return NewEntityID[VenueMarker]()
}

// VenueIDFromString 從字串解析場館 ID（失敗返回 ErrInvalidVenueID）
func VenueIDFromString(s string) (VenueID, error) {
	return EntityIDFromString[VenueMarker](s, ErrInvalidVenueID)
}
