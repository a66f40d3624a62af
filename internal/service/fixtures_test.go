package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/j-neeley/DawgPound/internal/model"
	"github.com/j-neeley/DawgPound/pkg/events"
)

// ── 测试辅助 ──

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// seedUser 创建已验证用户，ID 与用户名一致便于断言
func seedUser(m *mocks, username string) *model.User {
	verified := testNow.Add(-24 * time.Hour)
	u := &model.User{
		ID:               username,
		Username:         username,
		Email:            username + "@uni.edu",
		FirstName:        username,
		VerifiedAt:       &verified,
		Majors:           model.StringArray{},
		InterestsHobbies: model.StringArray{},
		Privacy:          model.JSONMap{"profile_visible": true},
	}
	m.users.users[u.ID] = u
	return u
}

func onboard(u *model.User, majors, interests []string, year string) {
	u.Majors = majors
	u.InterestsHobbies = interests
	u.YearOfStudy = year
}

func asUser(u *model.User) Caller {
	return Caller{UserID: u.ID, IsStaff: u.IsStaff, IsSuperuser: u.IsSuperuser}
}

func seedStaff(m *mocks, username string) *model.User {
	u := seedUser(m, username)
	u.IsStaff = true
	return u
}

func makeFriends(m *mocks, a, b *model.User) {
	_ = m.friends.CreateFriendship(context.Background(), model.NewFriendship(a.ID, b.ID))
}

func seedGroup(m *mocks, creator *model.User, name, category string, tags ...string) *model.Group {
	g := &model.Group{Name: name, Category: category, Tags: tags, CreatorID: &creator.ID}
	ctx := context.Background()
	_ = m.groups.Create(ctx, g)
	_ = m.groups.AddMember(ctx, &model.GroupMembership{GroupID: g.ID, UserID: creator.ID})
	_ = m.groups.AddModerator(ctx, &model.GroupModerator{GroupID: g.ID, UserID: creator.ID})
	return g
}

func seedBan(m *mocks, userID string, groupID *string, expiresAt *time.Time) *model.UserBan {
	b := &model.UserBan{UserID: userID, GroupID: groupID, IsGlobal: groupID == nil, ExpiresAt: expiresAt}
	_ = m.bans.Create(context.Background(), b)
	return b
}

func testEmitter(p events.Publisher) *emitter {
	return newEmitter(p, zap.NewNop())
}

// ── 协作者桩 ──

type notice struct {
	target    []string
	eventType string
	payload   interface{}
}

type unsubscription struct {
	group string
	users []string
}

type recordingNotifier struct {
	group   []notice
	users   []notice
	dropped []unsubscription
}

func (n *recordingNotifier) Unsubscribe(groupID string, userIDs []string) {
	n.dropped = append(n.dropped, unsubscription{group: groupID, users: userIDs})
}

func (n *recordingNotifier) NotifyGroup(groupID, eventType string, payload interface{}) {
	n.group = append(n.group, notice{target: []string{groupID}, eventType: eventType, payload: payload})
}

func (n *recordingNotifier) NotifyUsers(userIDs []string, eventType string, payload interface{}) {
	n.users = append(n.users, notice{target: userIDs, eventType: eventType, payload: payload})
}

func (n *recordingNotifier) groupEvents() []string {
	out := make([]string, 0, len(n.group))
	for _, e := range n.group {
		out = append(out, e.eventType)
	}
	return out
}

type capturePublisher struct {
	published []events.Event
	err       error
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, e)
	return nil
}

func (p *capturePublisher) Close() {}

func (p *capturePublisher) types() []string {
	out := make([]string, 0, len(p.published))
	for _, e := range p.published {
		out = append(out, e.Type)
	}
	return out
}

type captureMailer struct {
	tokens []string
	err    error
}

func (m *captureMailer) SendVerification(_ context.Context, _, _, token string) error {
	if m.err != nil {
		return m.err
	}
	m.tokens = append(m.tokens, token)
	return nil
}

type captureSessions struct {
	revoked []string
}

func (s *captureSessions) RevokeSession(_ context.Context, jti string, _ time.Time) error {
	s.revoked = append(s.revoked, jti)
	return nil
}
