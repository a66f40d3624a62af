package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/model"
	"github.com/j-neeley/DawgPound/internal/repository"
)

var mockSeq int

func nextMockID(prefix string) string {
	mockSeq++
	return fmt.Sprintf("%s-%04d", prefix, mockSeq)
}

// mocks 测试用 mock 仓储集合
type mocks struct {
	users   *mockUserRepo
	friends *mockFriendRepo
	blocks  *mockBlockRepo
	groups  *mockGroupRepo
	threads *mockThreadRepo
	replies *mockReplyRepo
	chats   *mockChatRepo
	logs    *mockModerationRepo
	bans    *mockBanRepo
	stats   *mockStatsRepo
}

func newMockRepository() (*repository.Repository, *mocks) {
	m := &mocks{users: newMockUserRepo()}
	m.friends = &mockFriendRepo{users: m.users, requests: make(map[string]*model.FriendRequest)}
	m.blocks = &mockBlockRepo{users: m.users}
	m.groups = &mockGroupRepo{users: m.users, groups: make(map[string]*model.Group)}
	m.threads = &mockThreadRepo{users: m.users, threads: make(map[string]*model.Thread)}
	m.replies = &mockReplyRepo{users: m.users, threads: m.threads, replies: make(map[string]*model.Reply)}
	m.threads.replies = m.replies
	m.chats = &mockChatRepo{users: m.users, chats: make(map[string]*model.PrivateChat)}
	m.logs = &mockModerationRepo{}
	m.bans = &mockBanRepo{bans: make(map[string]*model.UserBan)}
	m.stats = &mockStatsRepo{}

	repo := &repository.Repository{
		User:       m.users,
		Friend:     m.friends,
		Block:      m.blocks,
		Group:      m.groups,
		Thread:     m.threads,
		Reply:      m.replies,
		Chat:       m.chats,
		Moderation: m.logs,
		Ban:        m.bans,
		Stats:      m.stats,
	}
	return repo, m
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	err   error // 非空时所有调用返回该错误
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) get(id string) *model.User {
	return m.users[id]
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if m.err != nil {
		return m.err
	}
	if user.ID == "" {
		user.ID = nextMockID("user")
	}
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) find(match func(u *model.User) bool) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Username == username })
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *mockUserRepo) GetByVerificationToken(_ context.Context, token string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.VerificationToken != nil && *u.VerificationToken == token })
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if m.err != nil {
		return m.err
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) sorted(keep func(u *model.User) bool) []model.User {
	result := make([]model.User, 0)
	for _, u := range m.users {
		if keep(u) {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *mockUserRepo) Search(_ context.Context, query string, excludeIDs []string, limit int) ([]model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	q := strings.ToLower(query)
	result := m.sorted(func(u *model.User) bool {
		if !u.IsVerified() || contains(excludeIDs, u.ID) {
			return false
		}
		return strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.FirstName), q) ||
			strings.Contains(strings.ToLower(u.LastName), q) ||
			strings.Contains(strings.ToLower(u.Email), q)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockUserRepo) ListOnboarded(_ context.Context, excludeIDs []string) ([]model.User, error) {
	return m.sorted(func(u *model.User) bool {
		return u.IsVerified() && u.OnboardingCompleted() && !contains(excludeIDs, u.ID)
	}), nil
}

func (m *mockUserRepo) List(_ context.Context, _ repository.Page) ([]model.User, int64, error) {
	result := m.sorted(func(*model.User) bool { return true })
	return result, int64(len(result)), nil
}

// ── Mock FriendRepository ──

type mockFriendRepo struct {
	users       *mockUserRepo
	requests    map[string]*model.FriendRequest
	friendships []model.Friendship
}

func (m *mockFriendRepo) CreateRequest(_ context.Context, req *model.FriendRequest) error {
	for _, r := range m.requests {
		if r.FromUserID == req.FromUserID && r.ToUserID == req.ToUserID {
			return fmt.Errorf("duplicate friend request")
		}
	}
	if req.ID == "" {
		req.ID = nextMockID("freq")
	}
	if req.Status == "" {
		req.Status = model.FriendRequestPending
	}
	req.CreatedAt = time.Now()
	m.requests[req.ID] = req
	return nil
}

func (m *mockFriendRepo) withUsers(r *model.FriendRequest) *model.FriendRequest {
	out := *r
	out.FromUser = m.users.get(r.FromUserID)
	out.ToUser = m.users.get(r.ToUserID)
	return &out
}

func (m *mockFriendRepo) GetRequestByID(_ context.Context, id string) (*model.FriendRequest, error) {
	if r, ok := m.requests[id]; ok {
		return m.withUsers(r), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFriendRepo) FindRequest(_ context.Context, fromID, toID string) (*model.FriendRequest, error) {
	for _, r := range m.requests {
		if r.FromUserID == fromID && r.ToUserID == toID {
			return m.withUsers(r), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFriendRepo) HasPendingBetween(_ context.Context, a, b string) (bool, error) {
	for _, r := range m.requests {
		if !r.IsPending() {
			continue
		}
		if (r.FromUserID == a && r.ToUserID == b) || (r.FromUserID == b && r.ToUserID == a) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockFriendRepo) UpdateRequestStatus(_ context.Context, id, status string) error {
	r, ok := m.requests[id]
	if !ok || !r.IsPending() {
		return gorm.ErrRecordNotFound
	}
	r.Status = status
	return nil
}

func (m *mockFriendRepo) listPending(match func(r *model.FriendRequest) bool) []model.FriendRequest {
	result := make([]model.FriendRequest, 0)
	for _, r := range m.requests {
		if r.IsPending() && match(r) {
			result = append(result, *m.withUsers(r))
		}
	}
	return result
}

func (m *mockFriendRepo) ListPendingReceived(_ context.Context, userID string) ([]model.FriendRequest, error) {
	return m.listPending(func(r *model.FriendRequest) bool { return r.ToUserID == userID }), nil
}

func (m *mockFriendRepo) ListPendingSent(_ context.Context, userID string) ([]model.FriendRequest, error) {
	return m.listPending(func(r *model.FriendRequest) bool { return r.FromUserID == userID }), nil
}

func (m *mockFriendRepo) DeleteRequestsBetween(_ context.Context, a, b string) error {
	for id, r := range m.requests {
		if (r.FromUserID == a && r.ToUserID == b) || (r.FromUserID == b && r.ToUserID == a) {
			delete(m.requests, id)
		}
	}
	return nil
}

func (m *mockFriendRepo) CreateFriendship(_ context.Context, f *model.Friendship) error {
	f.User1ID, f.User2ID = model.CanonicalPair(f.User1ID, f.User2ID)
	for _, existing := range m.friendships {
		if existing.User1ID == f.User1ID && existing.User2ID == f.User2ID {
			return fmt.Errorf("duplicate friendship")
		}
	}
	if f.ID == "" {
		f.ID = nextMockID("friendship")
	}
	f.CreatedAt = time.Now()
	m.friendships = append(m.friendships, *f)
	return nil
}

func (m *mockFriendRepo) GetFriendship(_ context.Context, a, b string) (*model.Friendship, error) {
	u1, u2 := model.CanonicalPair(a, b)
	for i := range m.friendships {
		if m.friendships[i].User1ID == u1 && m.friendships[i].User2ID == u2 {
			f := m.friendships[i]
			return &f, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFriendRepo) DeleteFriendship(_ context.Context, a, b string) error {
	u1, u2 := model.CanonicalPair(a, b)
	kept := m.friendships[:0]
	for _, f := range m.friendships {
		if f.User1ID != u1 || f.User2ID != u2 {
			kept = append(kept, f)
		}
	}
	m.friendships = kept
	return nil
}

func (m *mockFriendRepo) ListFriendships(_ context.Context, userID string) ([]model.Friendship, error) {
	result := make([]model.Friendship, 0)
	for _, f := range m.friendships {
		if f.User1ID == userID || f.User2ID == userID {
			f.User1 = m.users.get(f.User1ID)
			f.User2 = m.users.get(f.User2ID)
			result = append(result, f)
		}
	}
	return result, nil
}

func (m *mockFriendRepo) ListFriendIDs(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for _, f := range m.friendships {
		if f.User1ID == userID || f.User2ID == userID {
			ids = append(ids, f.Other(userID))
		}
	}
	return ids, nil
}

// ── Mock BlockRepository ──

type mockBlockRepo struct {
	users  *mockUserRepo
	blocks []model.UserBlock
}

func (m *mockBlockRepo) Create(_ context.Context, block *model.UserBlock) error {
	if block.ID == "" {
		block.ID = nextMockID("block")
	}
	block.CreatedAt = time.Now()
	m.blocks = append(m.blocks, *block)
	return nil
}

func (m *mockBlockRepo) Delete(_ context.Context, blockerID, blockedID string) (int64, error) {
	var removed int64
	kept := m.blocks[:0]
	for _, b := range m.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	m.blocks = kept
	return removed, nil
}

func (m *mockBlockRepo) Exists(_ context.Context, blockerID, blockedID string) (bool, error) {
	for _, b := range m.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBlockRepo) IsBlockedEither(ctx context.Context, a, b string) (bool, error) {
	if ok, _ := m.Exists(ctx, a, b); ok {
		return true, nil
	}
	return m.Exists(ctx, b, a)
}

func (m *mockBlockRepo) ListByBlocker(_ context.Context, blockerID string) ([]model.UserBlock, error) {
	result := make([]model.UserBlock, 0)
	for _, b := range m.blocks {
		if b.BlockerID == blockerID {
			b.Blocked = m.users.get(b.BlockedID)
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockBlockRepo) ListRelatedIDs(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for _, b := range m.blocks {
		switch userID {
		case b.BlockerID:
			ids = append(ids, b.BlockedID)
		case b.BlockedID:
			ids = append(ids, b.BlockerID)
		}
	}
	return ids, nil
}

// ── Mock GroupRepository ──

type mockGroupRepo struct {
	users       *mockUserRepo
	groups      map[string]*model.Group
	memberships []model.GroupMembership
	moderators  []model.GroupModerator
}

func (m *mockGroupRepo) Create(_ context.Context, group *model.Group) error {
	if group.ID == "" {
		group.ID = nextMockID("group")
	}
	group.CreatedAt = time.Now()
	m.groups[group.ID] = group
	return nil
}

func (m *mockGroupRepo) GetByID(_ context.Context, id string) (*model.Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *g
	if g.CreatorID != nil {
		out.Creator = m.users.get(*g.CreatorID)
	}
	return &out, nil
}

func (m *mockGroupRepo) Update(_ context.Context, group *model.Group) error {
	m.groups[group.ID] = group
	return nil
}

func (m *mockGroupRepo) Delete(_ context.Context, id string) error {
	delete(m.groups, id)
	return nil
}

func (m *mockGroupRepo) List(_ context.Context, filter repository.GroupFilter, _ repository.Page) ([]model.Group, int64, error) {
	result := make([]model.Group, 0)
	for _, g := range m.groups {
		if filter.Category != "" && g.Category != filter.Category {
			continue
		}
		if filter.Tag != "" && !g.Tags.Contains(filter.Tag) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(g.Name), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, int64(len(result)), nil
}

func (m *mockGroupRepo) ListNotJoined(_ context.Context, userID string) ([]model.Group, error) {
	result := make([]model.Group, 0)
	for _, g := range m.groups {
		if !m.isMember(g.ID, userID) {
			result = append(result, *g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockGroupRepo) isMember(groupID, userID string) bool {
	for _, ms := range m.memberships {
		if ms.GroupID == groupID && ms.UserID == userID {
			return true
		}
	}
	return false
}

func (m *mockGroupRepo) AddMember(_ context.Context, ms *model.GroupMembership) error {
	if m.isMember(ms.GroupID, ms.UserID) {
		return fmt.Errorf("duplicate membership")
	}
	if ms.ID == "" {
		ms.ID = nextMockID("member")
	}
	ms.JoinedAt = time.Now()
	m.memberships = append(m.memberships, *ms)
	return nil
}

func (m *mockGroupRepo) GetMembership(_ context.Context, groupID, userID string) (*model.GroupMembership, error) {
	for i := range m.memberships {
		if m.memberships[i].GroupID == groupID && m.memberships[i].UserID == userID {
			ms := m.memberships[i]
			return &ms, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) RemoveMember(_ context.Context, groupID, userID string) error {
	kept := m.memberships[:0]
	for _, ms := range m.memberships {
		if ms.GroupID != groupID || ms.UserID != userID {
			kept = append(kept, ms)
		}
	}
	m.memberships = kept
	return nil
}

func (m *mockGroupRepo) ListMembers(_ context.Context, groupID string, _ repository.Page) ([]model.GroupMembership, int64, error) {
	result := make([]model.GroupMembership, 0)
	for _, ms := range m.memberships {
		if ms.GroupID == groupID {
			ms.User = m.users.get(ms.UserID)
			result = append(result, ms)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockGroupRepo) CountMembers(_ context.Context, groupIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, ms := range m.memberships {
		if contains(groupIDs, ms.GroupID) {
			counts[ms.GroupID]++
		}
	}
	return counts, nil
}

func (m *mockGroupRepo) MemberOf(_ context.Context, userID string, groupIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range groupIDs {
		if m.isMember(id, userID) {
			out[id] = true
		}
	}
	return out, nil
}

func (m *mockGroupRepo) ListMembershipsByUsers(_ context.Context, userIDs []string) ([]model.GroupMembership, error) {
	result := make([]model.GroupMembership, 0)
	for _, ms := range m.memberships {
		if contains(userIDs, ms.UserID) {
			result = append(result, ms)
		}
	}
	return result, nil
}

func (m *mockGroupRepo) AddModerator(ctx context.Context, mod *model.GroupModerator) error {
	if ok, _ := m.IsModerator(ctx, mod.GroupID, mod.UserID); ok {
		return fmt.Errorf("duplicate moderator")
	}
	if mod.ID == "" {
		mod.ID = nextMockID("mod")
	}
	mod.AddedAt = time.Now()
	m.moderators = append(m.moderators, *mod)
	return nil
}

func (m *mockGroupRepo) IsModerator(_ context.Context, groupID, userID string) (bool, error) {
	for _, mod := range m.moderators {
		if mod.GroupID == groupID && mod.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockGroupRepo) RemoveModerator(_ context.Context, groupID, userID string) error {
	kept := m.moderators[:0]
	for _, mod := range m.moderators {
		if mod.GroupID != groupID || mod.UserID != userID {
			kept = append(kept, mod)
		}
	}
	m.moderators = kept
	return nil
}

func (m *mockGroupRepo) ListModerators(_ context.Context, groupID string) ([]model.GroupModerator, error) {
	result := make([]model.GroupModerator, 0)
	for _, mod := range m.moderators {
		if mod.GroupID == groupID {
			mod.User = m.users.get(mod.UserID)
			result = append(result, mod)
		}
	}
	return result, nil
}

// ── Mock ThreadRepository ──

type mockThreadRepo struct {
	users   *mockUserRepo
	threads map[string]*model.Thread
	replies *mockReplyRepo
}

func (m *mockThreadRepo) Create(_ context.Context, thread *model.Thread) error {
	if thread.ID == "" {
		thread.ID = nextMockID("thread")
	}
	thread.CreatedAt = time.Now()
	m.threads[thread.ID] = thread
	return nil
}

func (m *mockThreadRepo) GetByID(_ context.Context, id string) (*model.Thread, error) {
	t, ok := m.threads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *t
	out.Author = m.users.get(t.AuthorID)
	return &out, nil
}

func (m *mockThreadRepo) Update(_ context.Context, thread *model.Thread) error {
	if _, ok := m.threads[thread.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *thread
	m.threads[thread.ID] = &stored
	return nil
}

func (m *mockThreadRepo) Delete(_ context.Context, id string) error {
	delete(m.threads, id)
	return nil
}

func (m *mockThreadRepo) List(_ context.Context, groupID string, _ repository.Page) ([]model.Thread, int64, error) {
	result := make([]model.Thread, 0)
	for _, t := range m.threads {
		if groupID == "" || t.GroupID == groupID {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Pinned != result[j].Pinned {
			return result[i].Pinned
		}
		return result[i].ID > result[j].ID
	})
	return result, int64(len(result)), nil
}

func (m *mockThreadRepo) CountReplies(_ context.Context, threadIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, r := range m.replies.replies {
		if contains(threadIDs, r.ThreadID) {
			counts[r.ThreadID]++
		}
	}
	return counts, nil
}

// ── Mock ReplyRepository ──

type mockReplyRepo struct {
	users   *mockUserRepo
	threads *mockThreadRepo
	replies map[string]*model.Reply
}

func (m *mockReplyRepo) Create(_ context.Context, reply *model.Reply) error {
	if reply.ID == "" {
		reply.ID = nextMockID("reply")
	}
	reply.CreatedAt = time.Now()
	m.replies[reply.ID] = reply
	return nil
}

func (m *mockReplyRepo) GetByID(_ context.Context, id string) (*model.Reply, error) {
	r, ok := m.replies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *r
	out.Author = m.users.get(r.AuthorID)
	out.Thread = m.threads.threads[r.ThreadID]
	return &out, nil
}

func (m *mockReplyRepo) Delete(_ context.Context, id string) error {
	delete(m.replies, id)
	return nil
}

func (m *mockReplyRepo) List(_ context.Context, threadID string, _ repository.Page) ([]model.Reply, int64, error) {
	result := make([]model.Reply, 0)
	for _, r := range m.replies {
		if threadID == "" || r.ThreadID == threadID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, int64(len(result)), nil
}

// ── Mock ChatRepository ──

type mockChatRepo struct {
	users        *mockUserRepo
	chats        map[string]*model.PrivateChat
	participants []model.ChatParticipant
	messages     []model.Message
}

func (m *mockChatRepo) Create(_ context.Context, chat *model.PrivateChat) error {
	if chat.ID == "" {
		chat.ID = nextMockID("chat")
	}
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = chat.CreatedAt
	m.chats[chat.ID] = chat
	return nil
}

func (m *mockChatRepo) GetByID(ctx context.Context, id string) (*model.PrivateChat, error) {
	c, ok := m.chats[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *c
	out.Participants, _ = m.ListParticipants(ctx, id)
	return &out, nil
}

func (m *mockChatRepo) Update(_ context.Context, chat *model.PrivateChat) error {
	stored := *chat
	stored.Participants = nil
	m.chats[chat.ID] = &stored
	return nil
}

func (m *mockChatRepo) Delete(_ context.Context, id string) error {
	delete(m.chats, id)
	return nil
}

func (m *mockChatRepo) ListByUser(ctx context.Context, userID string) ([]model.PrivateChat, error) {
	result := make([]model.PrivateChat, 0)
	for _, p := range m.participants {
		if p.UserID != userID {
			continue
		}
		if c, err := m.GetByID(ctx, p.ChatID); err == nil {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockChatRepo) AddParticipants(ctx context.Context, ps []model.ChatParticipant) error {
	for _, p := range ps {
		if _, err := m.GetParticipant(ctx, p.ChatID, p.UserID); err == nil {
			return fmt.Errorf("duplicate participant")
		}
		p.ID = nextMockID("participant")
		p.JoinedAt = time.Now()
		m.participants = append(m.participants, p)
	}
	return nil
}

func (m *mockChatRepo) GetParticipant(_ context.Context, chatID, userID string) (*model.ChatParticipant, error) {
	for i := range m.participants {
		if m.participants[i].ChatID == chatID && m.participants[i].UserID == userID {
			p := m.participants[i]
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockChatRepo) RemoveParticipant(_ context.Context, chatID, userID string) error {
	kept := m.participants[:0]
	for _, p := range m.participants {
		if p.ChatID != chatID || p.UserID != userID {
			kept = append(kept, p)
		}
	}
	m.participants = kept
	return nil
}

func (m *mockChatRepo) CountParticipants(_ context.Context, chatID string) (int64, error) {
	var n int64
	for _, p := range m.participants {
		if p.ChatID == chatID {
			n++
		}
	}
	return n, nil
}

func (m *mockChatRepo) SetMuted(_ context.Context, chatID, userID string, muted bool) error {
	for i := range m.participants {
		if m.participants[i].ChatID == chatID && m.participants[i].UserID == userID {
			m.participants[i].Muted = muted
		}
	}
	return nil
}

func (m *mockChatRepo) ListParticipants(_ context.Context, chatID string) ([]model.ChatParticipant, error) {
	result := make([]model.ChatParticipant, 0)
	for _, p := range m.participants {
		if p.ChatID == chatID {
			p.User = m.users.get(p.UserID)
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockChatRepo) CreateMessage(_ context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = nextMockID("msg")
	}
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *mockChatRepo) ListMessages(_ context.Context, chatID string, limit int) ([]model.Message, error) {
	var all []model.Message
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			msg.Author = m.users.get(msg.AuthorID)
			all = append(all, msg)
		}
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// ── Mock ModerationRepository ──

type mockModerationRepo struct {
	logs []model.ModerationLog
}

func (m *mockModerationRepo) CreateLog(_ context.Context, log *model.ModerationLog) error {
	if log.ID == "" {
		log.ID = nextMockID("log")
	}
	log.CreatedAt = time.Now()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockModerationRepo) ListLogs(_ context.Context, filter repository.LogFilter, _ repository.Page) ([]model.ModerationLog, int64, error) {
	result := make([]model.ModerationLog, 0)
	for _, l := range m.logs {
		if filter.GroupID != "" && (l.GroupID == nil || *l.GroupID != filter.GroupID) {
			continue
		}
		if filter.Action != "" && string(l.Action) != filter.Action {
			continue
		}
		if filter.TargetUserID != "" && (l.TargetUserID == nil || *l.TargetUserID != filter.TargetUserID) {
			continue
		}
		if filter.ModeratorID != "" && (l.ModeratorID == nil || *l.ModeratorID != filter.ModeratorID) {
			continue
		}
		result = append(result, l)
	}
	return result, int64(len(result)), nil
}

func (m *mockModerationRepo) actions() []model.ModerationAction {
	out := make([]model.ModerationAction, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

// ── Mock BanRepository ──

type mockBanRepo struct {
	bans map[string]*model.UserBan
}

func (m *mockBanRepo) Create(_ context.Context, ban *model.UserBan) error {
	if ban.ID == "" {
		ban.ID = nextMockID("ban")
	}
	ban.CreatedAt = time.Now()
	m.bans[ban.ID] = ban
	return nil
}

func (m *mockBanRepo) GetByID(_ context.Context, id string) (*model.UserBan, error) {
	if b, ok := m.bans[id]; ok {
		out := *b
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBanRepo) Revoke(_ context.Context, id, revokedBy string, at time.Time) error {
	b, ok := m.bans[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.RevokedAt = &at
	b.RevokedBy = &revokedBy
	return nil
}

func (m *mockBanRepo) List(_ context.Context, filter repository.BanFilter, _ repository.Page) ([]model.UserBan, int64, error) {
	result := make([]model.UserBan, 0)
	for _, b := range m.bans {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.GroupID != "" && (b.GroupID == nil || *b.GroupID != filter.GroupID) {
			continue
		}
		if filter.GlobalOnly && !b.IsGlobal {
			continue
		}
		if filter.ActiveAt != nil && !b.ActiveAt(*filter.ActiveAt) {
			continue
		}
		result = append(result, *b)
	}
	return result, int64(len(result)), nil
}

func (m *mockBanRepo) ListActiveForUser(_ context.Context, userID string, now time.Time) ([]model.UserBan, error) {
	result := make([]model.UserBan, 0)
	for _, b := range m.bans {
		if b.UserID == userID && b.ActiveAt(now) {
			result = append(result, *b)
		}
	}
	return result, nil
}

// ── Mock StatsRepository ──

type mockStatsRepo struct {
	totals repository.PlatformTotals
	values map[string][]repository.ValueCount
	err    error
}

func (m *mockStatsRepo) Totals(_ context.Context, _ time.Time) (*repository.PlatformTotals, error) {
	if m.err != nil {
		return nil, m.err
	}
	t := m.totals
	return &t, nil
}

func (m *mockStatsRepo) CountUserArrayValues(_ context.Context, column string) ([]repository.ValueCount, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.values[column], nil
}

// ── 通用辅助 ──

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
