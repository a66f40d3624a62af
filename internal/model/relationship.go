package model

import (
	"strings"
	"time"
)

// FriendRequest 状态
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestDeclined = "declined"
)

// FriendRequest 好友请求 — 对应 friend_requests
type FriendRequest struct {
	ID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FromUserID string `gorm:"type:uuid;not null"                             json:"from_user_id"`
	ToUserID   string `gorm:"type:uuid;not null"                             json:"to_user_id"`
	Status     string `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Timestamps

	FromUser *User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUser   *User `gorm:"foreignKey:ToUserID"   json:"to_user,omitempty"`
}

// TableName 指定表名
func (FriendRequest) TableName() string { return "friend_requests" }

// IsPending 是否待处理
func (r *FriendRequest) IsPending() bool { return r.Status == FriendRequestPending }

// Friendship 好友关系 — 对应 friendships，User1ID < User2ID
type Friendship struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	User1ID   string    `gorm:"type:uuid;not null"                             json:"user1_id"`
	User2ID   string    `gorm:"type:uuid;not null"                             json:"user2_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	User1 *User `gorm:"foreignKey:User1ID" json:"-"`
	User2 *User `gorm:"foreignKey:User2ID" json:"-"`
}

// TableName 指定表名
func (Friendship) TableName() string { return "friendships" }

// CanonicalPair 按 ID 升序返回一对用户；uuid 文本不区分大小写，先统一为小写
func CanonicalPair(a, b string) (string, string) {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a < b {
		return a, b
	}
	return b, a
}

// NewFriendship 以规范顺序构造好友关系
func NewFriendship(a, b string) *Friendship {
	u1, u2 := CanonicalPair(a, b)
	return &Friendship{User1ID: u1, User2ID: u2}
}

// Other 返回关系中另一方的 ID
func (f *Friendship) Other(userID string) string {
	if f.User1ID == userID {
		return f.User2ID
	}
	return f.User1ID
}

// OtherUser 返回关系中另一方
func (f *Friendship) OtherUser(userID string) *User {
	if f.User1ID == userID {
		return f.User2
	}
	return f.User1
}

// UserBlock 拉黑记录 — 对应 user_blocks
type UserBlock struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	BlockerID string    `gorm:"type:uuid;not null"                             json:"blocker_id"`
	BlockedID string    `gorm:"type:uuid;not null"                             json:"blocked_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	Blocked *User `gorm:"foreignKey:BlockedID" json:"-"`
}

// TableName 指定表名
func (UserBlock) TableName() string { return "user_blocks" }
