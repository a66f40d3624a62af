package dto

import "time"

// ── 好友模块 DTO ──

// SendFriendRequestRequest 发送好友请求
type SendFriendRequestRequest struct {
	ToUser string `json:"to_user"`
}

// RespondFriendRequestRequest 接受/拒绝好友请求
type RespondFriendRequestRequest struct {
	RequestID string `json:"request_id"`
}

// BlockUserRequest 拉黑请求
type BlockUserRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ── 好友模块响应 ──

// FriendRequestResponse 好友请求
type FriendRequestResponse struct {
	ID        string       `json:"id"`
	FromUser  *UserSummary `json:"from_user"`
	ToUser    *UserSummary `json:"to_user"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// FriendRequestsResponse 收到与发出的待处理请求
type FriendRequestsResponse struct {
	Received []FriendRequestResponse `json:"received"`
	Sent     []FriendRequestResponse `json:"sent"`
}

// FriendResponse 好友条目
type FriendResponse struct {
	ID        string       `json:"id"`
	Friend    *UserSummary `json:"friend"`
	CreatedAt time.Time    `json:"created_at"`
}

// BlockResponse 拉黑条目
type BlockResponse struct {
	ID        string       `json:"id"`
	User      *UserSummary `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

// ── 推荐 ──

// UserRecommendation 用户推荐结果
type UserRecommendation struct {
	User            *UserSummary `json:"user"`
	Score           int          `json:"score"`
	IsFriend        bool         `json:"is_friend"`
	SharedMajors    []string     `json:"shared_majors"`
	SharedInterests []string     `json:"shared_interests"`
	SharedGroups    int          `json:"shared_groups"`
}

// GroupRecommendation 群组推荐结果
type GroupRecommendation struct {
	Group          *GroupResponse `json:"group"`
	Score          int            `json:"score"`
	FriendsInGroup int            `json:"friends_in_group"`
}

// FeedResponse 发现页
type FeedResponse struct {
	Users  []UserRecommendation  `json:"users"`
	Groups []GroupRecommendation `json:"groups"`
}
