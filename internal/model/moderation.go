package model

import "time"

// ModerationAction 管理操作类型
type ModerationAction string

const (
	ActionPinThread       ModerationAction = "pin_thread"
	ActionUnpinThread     ModerationAction = "unpin_thread"
	ActionLockThread      ModerationAction = "lock_thread"
	ActionUnlockThread    ModerationAction = "unlock_thread"
	ActionDeleteThread    ModerationAction = "delete_thread"
	ActionDeleteReply     ModerationAction = "delete_reply"
	ActionAddModerator    ModerationAction = "add_moderator"
	ActionRemoveModerator ModerationAction = "remove_moderator"
	ActionBanUser         ModerationAction = "ban_user"
	ActionUnbanUser       ModerationAction = "unban_user"
)

// ModerationActions 全部合法操作
var ModerationActions = []ModerationAction{
	ActionPinThread, ActionUnpinThread, ActionLockThread, ActionUnlockThread,
	ActionDeleteThread, ActionDeleteReply, ActionAddModerator, ActionRemoveModerator,
	ActionBanUser, ActionUnbanUser,
}

// Valid 操作类型是否合法
func (a ModerationAction) Valid() bool {
	for _, v := range ModerationActions {
		if v == a {
			return true
		}
	}
	return false
}

// ModerationLog 管理日志 — 对应 moderation_logs，仅追加
type ModerationLog struct {
	ID           string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ModeratorID  *string          `gorm:"type:uuid"                                      json:"moderator_id"`
	Action       ModerationAction `gorm:"type:varchar(30);not null"                      json:"action"`
	GroupID      *string          `gorm:"type:uuid"                                      json:"group_id,omitempty"`
	ThreadID     *string          `gorm:"type:uuid"                                      json:"thread_id,omitempty"`
	ReplyID      *string          `gorm:"type:uuid"                                      json:"reply_id,omitempty"`
	TargetUserID *string          `gorm:"type:uuid"                                      json:"target_user_id,omitempty"`
	Reason       string           `gorm:"type:text;not null;default:''"                  json:"reason"`
	Metadata     JSONMap          `gorm:"type:jsonb;not null;default:'{}'"               json:"metadata"`
	CreatedAt    time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ModerationLog) TableName() string { return "moderation_logs" }

// UserBan 封禁记录 — 对应 user_bans；IsGlobal ⇔ GroupID 为空
type UserBan struct {
	ID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string     `gorm:"type:uuid;not null"                             json:"user_id"`
	GroupID   *string    `gorm:"type:uuid"                                      json:"group_id,omitempty"`
	BannedBy  *string    `gorm:"type:uuid"                                      json:"banned_by"`
	Reason    string     `gorm:"type:text;not null;default:''"                  json:"reason"`
	IsGlobal  bool       `gorm:"not null;default:false"                         json:"is_global"`
	ExpiresAt *time.Time `                                                      json:"expires_at,omitempty"`
	RevokedAt *time.Time `                                                      json:"revoked_at,omitempty"`
	RevokedBy *string    `gorm:"type:uuid"                                      json:"revoked_by,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (UserBan) TableName() string { return "user_bans" }

// ActiveAt 在给定时刻是否生效：未撤销且未过期
func (b *UserBan) ActiveAt(now time.Time) bool {
	if b.RevokedAt != nil {
		return false
	}
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}

// Covers 是否作用于指定群组（全局封禁作用于所有群组）
func (b *UserBan) Covers(groupID string) bool {
	if b.IsGlobal {
		return true
	}
	return b.GroupID != nil && *b.GroupID == groupID
}
