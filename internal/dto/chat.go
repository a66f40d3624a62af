package dto

import "time"

// ── 私聊模块 DTO ──

// CreateChatRequest 创建会话请求
type CreateChatRequest struct {
	ParticipantIDs []string `json:"participant_ids"`
	Name           string   `json:"name"   binding:"omitempty,max=100"`
	Avatar         string   `json:"avatar" binding:"omitempty,max=500"`
}

// UpdateChatRequest 更新会话请求
type UpdateChatRequest struct {
	Name   *string `json:"name"   binding:"omitempty,max=100"`
	Avatar *string `json:"avatar" binding:"omitempty,max=500"`
}

// AddParticipantRequest 添加参与者请求
type AddParticipantRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// MuteRequest 静音设置请求
type MuteRequest struct {
	Mute *bool `json:"mute" binding:"required"`
}

// MessageListRequest 消息列表参数
type MessageListRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content string `json:"content"`
}

// ── 私聊模块响应 ──

// ParticipantResponse 会话参与者
type ParticipantResponse struct {
	User     *UserSummary `json:"user"`
	Muted    bool         `json:"muted"`
	JoinedAt time.Time    `json:"joined_at"`
}

// ChatResponse 会话
type ChatResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Avatar       string                `json:"avatar"`
	CreatedBy    *string               `json:"created_by"`
	IsMuted      bool                  `json:"is_muted"`
	Participants []ParticipantResponse `json:"participants"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// ChatMessageResponse 消息
type ChatMessageResponse struct {
	ID        string       `json:"id"`
	ChatID    string       `json:"chat_id"`
	Author    *UserSummary `json:"author"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
}
