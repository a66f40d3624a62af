package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/j-neeley/DawgPound/config"
)

const (
	// EventConnected 连接建立后推送的第一帧
	EventConnected = "connected"
	// EventUnsubscribed 群组订阅被取消，连接保持
	EventUnsubscribed = "group_unsubscribed"
)

const deliverBuffer = 256

// ErrHubClosed Hub 已停止，不再接受新连接
var ErrHubClosed = errors.New("realtime hub closed")

// Envelope 推送帧
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ConnectionObserver 连接数观测，*metrics.Metrics 实现该接口
type ConnectionObserver interface {
	ConnectionOpened()
	ConnectionClosed()
}

// delivery 与取消订阅共用同一队列，保持先后顺序
type delivery struct {
	users       []string
	group       string
	payload     []byte
	unsubscribe bool
}

// Hub 维护在线连接并按用户、群组分发事件
//
// 所有索引只在 Run 所在的 goroutine 中读写
type Hub struct {
	cfg      config.WebSocketConfig
	origins  map[string]bool
	observer ConnectionObserver
	logger   *zap.Logger

	users  map[string]map[*Client]struct{}
	groups map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}
}

// NewHub 创建 Hub；origins 为空时不校验 Origin
func NewHub(cfg config.WebSocketConfig, origins []string, observer ConnectionObserver, logger *zap.Logger) *Hub {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Hub{
		cfg:        cfg,
		origins:    allowed,
		observer:   observer,
		logger:     logger,
		users:      make(map[string]map[*Client]struct{}),
		groups:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, deliverBuffer),
		done:       make(chan struct{}),
	}
}

// Run 事件循环，ctx 取消后关闭全部连接并返回
func (h *Hub) Run(ctx context.Context) error {
	h.logger.Info("实时推送 Hub 已启动")
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case d := <-h.deliver:
			if d.unsubscribe {
				h.unsubscribe(d)
			} else {
				h.dispatch(d)
			}
		case <-ctx.Done():
			for _, set := range h.users {
				for c := range set {
					h.remove(c)
				}
			}
			h.logger.Info("实时推送 Hub 已停止")
			return nil
		}
	}
}

// NotifyGroup 推送给订阅该群组的连接
func (h *Hub) NotifyGroup(groupID, eventType string, payload interface{}) {
	h.enqueue(delivery{group: groupID}, eventType, payload)
}

// NotifyUsers 推送给指定用户的全部连接
func (h *Hub) NotifyUsers(userIDs []string, eventType string, payload interface{}) {
	if len(userIDs) == 0 {
		return
	}
	h.enqueue(delivery{users: userIDs}, eventType, payload)
}

// Unsubscribe 取消群组订阅；groupID 为空时取消这些用户的全部群组订阅，userIDs 为空时清空该群组
func (h *Hub) Unsubscribe(groupID string, userIDs []string) {
	if groupID == "" && len(userIDs) == 0 {
		return
	}
	// 队列满时阻塞等待，不丢弃
	select {
	case h.deliver <- delivery{group: groupID, users: userIDs, unsubscribe: true}:
	case <-h.done:
	}
}

func (h *Hub) enqueue(d delivery, eventType string, payload interface{}) {
	data, err := json.Marshal(Envelope{Type: eventType, Data: payload})
	if err != nil {
		h.logger.Error("序列化推送事件失败", zap.String("type", eventType), zap.Error(err))
		return
	}
	d.payload = data

	select {
	case h.deliver <- d:
	case <-h.done:
	default:
		h.logger.Warn("推送队列已满，丢弃事件", zap.String("type", eventType))
	}
}

func (h *Hub) add(c *Client) {
	if h.users[c.userID] == nil {
		h.users[c.userID] = make(map[*Client]struct{})
	}
	h.users[c.userID][c] = struct{}{}
	if c.groupID != "" {
		if h.groups[c.groupID] == nil {
			h.groups[c.groupID] = make(map[*Client]struct{})
		}
		h.groups[c.groupID][c] = struct{}{}
	}

	if frame, err := json.Marshal(Envelope{Type: EventConnected}); err == nil {
		c.send <- frame
	}
	if h.observer != nil {
		h.observer.ConnectionOpened()
	}
	h.logger.Debug("实时连接已注册", zap.String("user_id", c.userID), zap.String("group_id", c.groupID))
}

func (h *Hub) remove(c *Client) {
	set, ok := h.users[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.users, c.userID)
	}
	if c.groupID != "" {
		delete(h.groups[c.groupID], c)
		if len(h.groups[c.groupID]) == 0 {
			delete(h.groups, c.groupID)
		}
	}
	close(c.send)

	if h.observer != nil {
		h.observer.ConnectionClosed()
	}
	h.logger.Debug("实时连接已注销", zap.String("user_id", c.userID))
}

func (h *Hub) dispatch(d delivery) {
	targets := make(map[*Client]struct{})
	if d.group != "" {
		for c := range h.groups[d.group] {
			targets[c] = struct{}{}
		}
	}
	for _, id := range d.users {
		for c := range h.users[id] {
			targets[c] = struct{}{}
		}
	}

	for c := range targets {
		select {
		case c.send <- d.payload:
		default:
			// 消费过慢的连接直接断开
			h.logger.Warn("连接发送缓冲已满，断开连接", zap.String("user_id", c.userID))
			h.remove(c)
		}
	}
}

func (h *Hub) unsubscribe(d delivery) {
	targets := make(map[*Client]struct{})
	if len(d.users) == 0 {
		for c := range h.groups[d.group] {
			targets[c] = struct{}{}
		}
	}
	for _, id := range d.users {
		for c := range h.users[id] {
			if c.groupID != "" && (d.group == "" || c.groupID == d.group) {
				targets[c] = struct{}{}
			}
		}
	}

	for c := range targets {
		groupID := c.groupID
		delete(h.groups[groupID], c)
		if len(h.groups[groupID]) == 0 {
			delete(h.groups, groupID)
		}
		c.groupID = ""

		frame, err := json.Marshal(Envelope{Type: EventUnsubscribed, Data: map[string]string{"group": groupID}})
		if err != nil {
			continue
		}
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("连接发送缓冲已满，断开连接", zap.String("user_id", c.userID))
			h.remove(c)
		}
	}
	h.logger.Debug("群组订阅已取消", zap.String("group_id", d.group), zap.Int("connections", len(targets)))
}

// online 当前在线连接数
func (h *Hub) online() int {
	n := 0
	for _, set := range h.users {
		n += len(set)
	}
	return n
}
