package membership

import "github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"

// MembershipMarker 會籍 ID 標記類型
type MembershipMarker struct{}

// MembershipID 會籍 ID 值對象（基於泛型 EntityID）
//
//	id := NewMembershipID()
//	id, err := MembershipIDFromString(str)
type MembershipID = shared.EntityID[MembershipMarker]

// NewMembershipID 生成新的會籍 ID
func NewMembershipID() MembershipID {
	return shared.NewEntityID[MembershipMarker]()
}

// MembershipIDFromString 從字串解析會籍 ID（失敗返回 ErrInvalidMembershipID）
func MembershipIDFromString(value string) (MembershipID, error) {
	return shared.EntityIDFromString[MembershipMarker](value, ErrInvalidMembershipID)
}
