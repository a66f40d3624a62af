package dto

import "time"

// ── 群组模块 DTO ──

// GroupListRequest 群组列表查询参数
type GroupListRequest struct {
	PaginationRequest
	Search   string `form:"search"   binding:"omitempty,max=100"`
	Category string `form:"category" binding:"omitempty,oneof=class_year major interests_activities other"`
	Tag      string `form:"tag"      binding:"omitempty,max=100"`
}

// CreateGroupRequest 创建群组请求
type CreateGroupRequest struct {
	Name        string   `json:"name"        binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"    binding:"required"`
	Tags        []string `json:"tags"        binding:"omitempty,max=20,dive,min=1,max=100"`
}

// UpdateGroupRequest 更新群组请求
type UpdateGroupRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Tags        *[]string `json:"tags"`
}

// ModeratorRequest 添加版主请求
type ModeratorRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ── 群组模块响应 ──

// GroupResponse 群组信息
type GroupResponse struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Tags        []string     `json:"tags"`
	Creator     *UserSummary `json:"creator"`
	MemberCount int64        `json:"member_count"`
	IsMember    bool         `json:"is_member"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// MemberResponse 群组成员
type MemberResponse struct {
	ID       string       `json:"id"`
	User     *UserSummary `json:"user"`
	JoinedAt time.Time    `json:"joined_at"`
}

// ModeratorResponse 群组版主
type ModeratorResponse struct {
	ID      string       `json:"id"`
	User    *UserSummary `json:"user"`
	AddedAt time.Time    `json:"added_at"`
}
