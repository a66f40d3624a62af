package dto

import "time"

// ── 论坛模块 DTO ──

// ThreadListRequest 主题列表查询参数
type ThreadListRequest struct {
	PaginationRequest
	GroupID string `form:"group" binding:"omitempty,uuid"`
}

// CreateThreadRequest 创建主题请求
type CreateThreadRequest struct {
	GroupID     string        `json:"group"        binding:"required,uuid"`
	Title       string        `json:"title"        binding:"required,max=200"`
	Content     string        `json:"content"      binding:"required,max=10000"`
	ContentType string        `json:"content_type" binding:"omitempty,oneof=plain markdown html"`
	Attachments []interface{} `json:"attachments"  binding:"omitempty,max=10"`
}

// UpdateThreadRequest 编辑主题请求
type UpdateThreadRequest struct {
	Title       *string `json:"title"        binding:"omitempty,max=200"`
	Content     *string `json:"content"      binding:"omitempty,max=10000"`
	ContentType *string `json:"content_type" binding:"omitempty,oneof=plain markdown html"`
}

// ReplyListRequest 回复列表查询参数
type ReplyListRequest struct {
	PaginationRequest
	ThreadID string `form:"thread" binding:"omitempty,uuid"`
}

// CreateReplyRequest 回复请求（主题由路径给出）
type CreateReplyRequest struct {
	Content     string        `json:"content"      binding:"required,max=10000"`
	ContentType string        `json:"content_type" binding:"omitempty,oneof=plain markdown html"`
	Attachments []interface{} `json:"attachments"  binding:"omitempty,max=10"`
}

// CreateReplyWithThreadRequest 回复请求（主题由请求体给出）
type CreateReplyWithThreadRequest struct {
	ThreadID string `json:"thread" binding:"required,uuid"`
	CreateReplyRequest
}

// ── 论坛模块响应 ──

// ThreadResponse 主题
type ThreadResponse struct {
	ID          string        `json:"id"`
	GroupID     string        `json:"group"`
	Author      *UserSummary  `json:"author"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	ContentType string        `json:"content_type"`
	Attachments []interface{} `json:"attachments"`
	Pinned      bool          `json:"pinned"`
	Locked      bool          `json:"locked"`
	ReplyCount  int64         `json:"reply_count"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ReplyResponse 回复
type ReplyResponse struct {
	ID          string        `json:"id"`
	ThreadID    string        `json:"thread"`
	Author      *UserSummary  `json:"author"`
	Content     string        `json:"content"`
	ContentType string        `json:"content_type"`
	Attachments []interface{} `json:"attachments"`
	CreatedAt   time.Time     `json:"created_at"`
}
