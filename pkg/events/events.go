package events

import (
	"context"
	"encoding/json"
	"time"
)

// 领域事件类型
const (
	FriendRequestSent     = "friend_request.sent"
	FriendRequestAccepted = "friend_request.accepted"
	FriendshipRemoved     = "friendship.removed"
	GroupCreated          = "group.created"
	GroupMemberJoined     = "group.member_joined"
	GroupMemberLeft       = "group.member_left"
	ThreadCreated         = "thread.created"
	ReplyCreated          = "reply.created"
	ChatMessageSent       = "chat.message_sent"
	ModerationRecorded    = "moderation.recorded"
	UserSignedUp          = "user.signed_up"
	UserVerified          = "user.verified"
)

// Event 领域事件信封
type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"` // 分区键，通常为聚合根 ID
	ActorID    string      `json:"actor_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

// New 构造事件
func New(eventType, key, actorID string, payload interface{}) Event {
	return Event{
		Type:       eventType,
		Key:        key,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Encode 序列化事件
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher 领域事件发布接口
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// NopPublisher 未启用 Kafka 时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close()                               {}

type instrumented struct {
	Publisher
	observe func(eventType string)
}

// Instrument 包装 Publisher，每次发布成功后回调 observe
func Instrument(p Publisher, observe func(eventType string)) Publisher {
	if observe == nil {
		return p
	}
	return instrumented{Publisher: p, observe: observe}
}

func (i instrumented) Publish(ctx context.Context, e Event) error {
	if err := i.Publisher.Publish(ctx, e); err != nil {
		return err
	}
	i.observe(e.Type)
	return nil
}
