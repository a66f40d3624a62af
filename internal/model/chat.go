package model

import "time"

// PrivateChat 私聊会话 — 对应 private_chats
type PrivateChat struct {
	ID        string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string  `gorm:"type:varchar(100);not null;default:''"          json:"name"`
	Avatar    string  `gorm:"type:varchar(500);not null;default:''"          json:"avatar"`
	CreatedBy *string `gorm:"type:uuid"                                      json:"created_by"`
	Timestamps

	Participants []ChatParticipant `gorm:"foreignKey:ChatID" json:"-"`
}

// TableName 指定表名
func (PrivateChat) TableName() string { return "private_chats" }

// ChatParticipant 会话参与者 — 对应 chat_participants
type ChatParticipant struct {
	ID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ChatID   string    `gorm:"type:uuid;not null"                             json:"chat_id"`
	UserID   string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Muted    bool      `gorm:"not null;default:false"                         json:"muted"`
	JoinedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"joined_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName 指定表名
func (ChatParticipant) TableName() string { return "chat_participants" }

// Message 私聊消息 — 对应 messages，创建后不可修改
type Message struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ChatID    string    `gorm:"type:uuid;not null"                             json:"chat_id"`
	AuthorID  string    `gorm:"type:uuid;not null"                             json:"author_id"`
	Content   string    `gorm:"type:text;not null"                             json:"content"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	Author *User `gorm:"foreignKey:AuthorID" json:"-"`
}

// TableName 指定表名
func (Message) TableName() string { return "messages" }
