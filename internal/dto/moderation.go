package dto

import "time"

// ── 管理模块 DTO ──

// LogListRequest 管理日志查询参数
type LogListRequest struct {
	PaginationRequest
	GroupID      string `form:"group"       binding:"omitempty,uuid"`
	Action       string `form:"action"      binding:"omitempty,max=30"`
	TargetUserID string `form:"target_user" binding:"omitempty,uuid"`
}

// BanListRequest 封禁列表查询参数
type BanListRequest struct {
	PaginationRequest
	GroupID    string `form:"group"  binding:"omitempty,uuid"`
	UserID     string `form:"user"   binding:"omitempty,uuid"`
	ActiveOnly bool   `form:"active"`
}

// CreateBanRequest 封禁请求；group 为空表示全局封禁
type CreateBanRequest struct {
	UserID    string     `json:"user"       binding:"required,uuid"`
	GroupID   *string    `json:"group"      binding:"omitempty,uuid"`
	IsGlobal  bool       `json:"is_global"`
	Reason    string     `json:"reason"     binding:"omitempty,max=1000"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// ── 管理模块响应 ──

// ModerationLogResponse 管理日志
type ModerationLogResponse struct {
	ID           string                 `json:"id"`
	ModeratorID  *string                `json:"moderator"`
	Action       string                 `json:"action"`
	GroupID      *string                `json:"group"`
	ThreadID     *string                `json:"thread"`
	ReplyID      *string                `json:"reply"`
	TargetUserID *string                `json:"target_user"`
	Reason       string                 `json:"reason"`
	Metadata     map[string]interface{} `json:"metadata"`
	CreatedAt    time.Time              `json:"created_at"`
}

// BanResponse 封禁记录
type BanResponse struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user"`
	GroupID   *string    `json:"group"`
	BannedBy  *string    `json:"banned_by"`
	Reason    string     `json:"reason"`
	IsGlobal  bool       `json:"is_global"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
	RevokedBy *string    `json:"revoked_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// ── 平台统计 ──

// StatsResponse 平台统计
type StatsResponse struct {
	TotalUsers           int64            `json:"total_users"`
	VerifiedUsers        int64            `json:"verified_users"`
	OnboardingCompleted  int64            `json:"onboarding_completed"`
	OnboardingIncomplete int64            `json:"onboarding_incomplete"`
	TotalGroups          int64            `json:"total_groups"`
	TotalThreads         int64            `json:"total_threads"`
	TotalMessages        int64            `json:"total_messages"`
	ActiveBans           int64            `json:"active_bans"`
	MajorsCounts         map[string]int64 `json:"majors_counts"`
	InterestsCounts      map[string]int64 `json:"interests_counts"`
}
