package handler

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/service"
)

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AccountService ──

type mockAccountService struct {
	sessionResult *dto.SessionResult
	sessionErr    error
	userResult    *dto.UserResponse
	userErr       error
	logoutErr     error
	resendErr     error

	loggedOutJTI string
	lastCaller   string
}

func (m *mockAccountService) Signup(_ context.Context, _ *dto.SignupRequest) (*dto.SessionResult, error) {
	return m.sessionResult, m.sessionErr
}
func (m *mockAccountService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.SessionResult, error) {
	return m.sessionResult, m.sessionErr
}
func (m *mockAccountService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.loggedOutJTI = jti
	return m.logoutErr
}
func (m *mockAccountService) Me(_ context.Context, userID string) (*dto.UserResponse, error) {
	m.lastCaller = userID
	return m.userResult, m.userErr
}
func (m *mockAccountService) IsVerified(_ context.Context, _ string) (bool, error) {
	return true, nil
}
func (m *mockAccountService) Privileges(_ context.Context, _ string) (bool, bool, error) {
	return false, false, nil
}
func (m *mockAccountService) VerifyEmail(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.userResult, m.userErr
}
func (m *mockAccountService) ResendVerification(_ context.Context, _ string) error {
	return m.resendErr
}
func (m *mockAccountService) GetOnboarding(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.userResult, m.userErr
}
func (m *mockAccountService) CompleteOnboarding(_ context.Context, _ string, _ *dto.OnboardingRequest) (*dto.UserResponse, error) {
	return m.userResult, m.userErr
}
func (m *mockAccountService) UpdateOnboarding(_ context.Context, _ string, _ *dto.OnboardingRequest) (*dto.UserResponse, error) {
	return m.userResult, m.userErr
}
func (m *mockAccountService) Taxonomy() *dto.TaxonomyResponse {
	return &dto.TaxonomyResponse{Majors: []string{"Computer Science"}, Interests: []string{"Chess"}}
}

// ── Mock FriendService / BlockService ──

type mockFriendService struct {
	requestResult  *dto.FriendRequestResponse
	requestsResult *dto.FriendRequestsResponse
	friendsResult  []dto.FriendResponse
	err            error

	gotRequestID string
	gotToUser    string
}

func (m *mockFriendService) SendRequest(_ context.Context, _ service.Caller, toUserID string) (*dto.FriendRequestResponse, error) {
	m.gotToUser = toUserID
	return m.requestResult, m.err
}
func (m *mockFriendService) AcceptRequest(_ context.Context, _ service.Caller, requestID string) error {
	m.gotRequestID = requestID
	return m.err
}
func (m *mockFriendService) DeclineRequest(_ context.Context, _ service.Caller, requestID string) error {
	m.gotRequestID = requestID
	return m.err
}
func (m *mockFriendService) ListRequests(_ context.Context, _ service.Caller) (*dto.FriendRequestsResponse, error) {
	return m.requestsResult, m.err
}
func (m *mockFriendService) ListFriends(_ context.Context, _ service.Caller) ([]dto.FriendResponse, error) {
	return m.friendsResult, m.err
}
func (m *mockFriendService) Unfriend(_ context.Context, _ service.Caller, _ string) error {
	return m.err
}

type mockBlockService struct {
	blockResult *dto.BlockResponse
	listResult  []dto.BlockResponse
	err         error
}

func (m *mockBlockService) Block(_ context.Context, _ service.Caller, _ string) (*dto.BlockResponse, error) {
	return m.blockResult, m.err
}
func (m *mockBlockService) Unblock(_ context.Context, _ service.Caller, _ string) error {
	return m.err
}
func (m *mockBlockService) List(_ context.Context, _ service.Caller) ([]dto.BlockResponse, error) {
	return m.listResult, m.err
}

// ── Mock GroupService ──

type mockGroupService struct {
	groupResult  *dto.GroupResponse
	listResult   []dto.GroupResponse
	listTotal    int64
	modResult    *dto.ModeratorResponse
	isMember     bool
	isMemberErr  error
	subscribeErr error
	err          error
	lastCaller   service.Caller
	lastListPage int
}

func (m *mockGroupService) Create(_ context.Context, caller service.Caller, _ *dto.CreateGroupRequest) (*dto.GroupResponse, error) {
	m.lastCaller = caller
	return m.groupResult, m.err
}
func (m *mockGroupService) Get(_ context.Context, caller service.Caller, _ string) (*dto.GroupResponse, error) {
	m.lastCaller = caller
	return m.groupResult, m.err
}
func (m *mockGroupService) List(_ context.Context, caller service.Caller, req *dto.GroupListRequest) ([]dto.GroupResponse, int64, error) {
	m.lastCaller = caller
	m.lastListPage = req.GetPage()
	return m.listResult, m.listTotal, m.err
}
func (m *mockGroupService) Update(_ context.Context, _ service.Caller, _ string, _ *dto.UpdateGroupRequest) (*dto.GroupResponse, error) {
	return m.groupResult, m.err
}
func (m *mockGroupService) Delete(_ context.Context, _ service.Caller, _ string) error {
	return m.err
}
func (m *mockGroupService) Join(_ context.Context, _ service.Caller, _ string) error {
	return m.err
}
func (m *mockGroupService) Leave(_ context.Context, _ service.Caller, _ string) error {
	return m.err
}
func (m *mockGroupService) IsMember(_ context.Context, _, _ string) (bool, error) {
	return m.isMember, m.isMemberErr
}
func (m *mockGroupService) CanSubscribe(_ context.Context, _, _ string) error {
	switch {
	case m.isMemberErr != nil:
		return m.isMemberErr
	case !m.isMember:
		return service.ErrNotMember
	}
	return m.subscribeErr
}
func (m *mockGroupService) ListMembers(_ context.Context, _ string, _ *dto.PaginationRequest) ([]dto.MemberResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockGroupService) ListModerators(_ context.Context, _ string) ([]dto.ModeratorResponse, error) {
	return nil, m.err
}
func (m *mockGroupService) AddModerator(_ context.Context, _ service.Caller, _, _ string) (*dto.ModeratorResponse, error) {
	return m.modResult, m.err
}
func (m *mockGroupService) RemoveModerator(_ context.Context, _ service.Caller, _, _ string) error {
	return m.err
}

// ── Mock ForumService ──

type mockForumService struct {
	threadResult *dto.ThreadResponse
	replyResult  *dto.ReplyResponse
	replies      []dto.ReplyResponse
	err          error

	gotThreadID string
	gotReason   string
	gotFlag     *bool
}

func (m *mockForumService) CreateThread(_ context.Context, _ service.Caller, _ *dto.CreateThreadRequest) (*dto.ThreadResponse, error) {
	return m.threadResult, m.err
}
func (m *mockForumService) GetThread(_ context.Context, _ string) (*dto.ThreadResponse, error) {
	return m.threadResult, m.err
}
func (m *mockForumService) ListThreads(_ context.Context, _ *dto.ThreadListRequest) ([]dto.ThreadResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockForumService) UpdateThread(_ context.Context, _ service.Caller, _ string, _ *dto.UpdateThreadRequest) (*dto.ThreadResponse, error) {
	return m.threadResult, m.err
}
func (m *mockForumService) DeleteThread(_ context.Context, _ service.Caller, _, reason string) error {
	m.gotReason = reason
	return m.err
}
func (m *mockForumService) SetPinned(_ context.Context, _ service.Caller, _ string, pinned bool, reason string) (*dto.ThreadResponse, error) {
	m.gotFlag, m.gotReason = &pinned, reason
	return m.threadResult, m.err
}
func (m *mockForumService) SetLocked(_ context.Context, _ service.Caller, _ string, locked bool, reason string) (*dto.ThreadResponse, error) {
	m.gotFlag, m.gotReason = &locked, reason
	return m.threadResult, m.err
}
func (m *mockForumService) AddReply(_ context.Context, _ service.Caller, threadID string, _ *dto.CreateReplyRequest) (*dto.ReplyResponse, error) {
	m.gotThreadID = threadID
	return m.replyResult, m.err
}
func (m *mockForumService) GetReply(_ context.Context, _ string) (*dto.ReplyResponse, error) {
	return m.replyResult, m.err
}
func (m *mockForumService) ListReplies(_ context.Context, threadID string, _ *dto.PaginationRequest) ([]dto.ReplyResponse, int64, error) {
	m.gotThreadID = threadID
	return m.replies, int64(len(m.replies)), m.err
}
func (m *mockForumService) DeleteReply(_ context.Context, _ service.Caller, _, reason string) error {
	m.gotReason = reason
	return m.err
}

// ── Mock ChatService ──

type mockChatService struct {
	chatResult *dto.ChatResponse
	msgResult  *dto.ChatMessageResponse
	msgs       []dto.ChatMessageResponse
	err        error

	gotLimit int
	gotMuted *bool
}

func (m *mockChatService) Create(_ context.Context, _ service.Caller, _ *dto.CreateChatRequest) (*dto.ChatResponse, error) {
	return m.chatResult, m.err
}
func (m *mockChatService) List(_ context.Context, _ service.Caller) ([]dto.ChatResponse, error) {
	return nil, m.err
}
func (m *mockChatService) Get(_ context.Context, _ service.Caller, _ string) (*dto.ChatResponse, error) {
	return m.chatResult, m.err
}
func (m *mockChatService) Update(_ context.Context, _ service.Caller, _ string, _ *dto.UpdateChatRequest) (*dto.ChatResponse, error) {
	return m.chatResult, m.err
}
func (m *mockChatService) AddParticipant(_ context.Context, _ service.Caller, _, _ string) (*dto.ChatResponse, error) {
	return m.chatResult, m.err
}
func (m *mockChatService) RemoveParticipant(_ context.Context, _ service.Caller, _, _ string) error {
	return m.err
}
func (m *mockChatService) SetMuted(_ context.Context, _ service.Caller, _ string, muted bool) (*dto.ChatResponse, error) {
	m.gotMuted = &muted
	return m.chatResult, m.err
}
func (m *mockChatService) ListMessages(_ context.Context, _ service.Caller, _ string, limit int) ([]dto.ChatMessageResponse, error) {
	m.gotLimit = limit
	return m.msgs, m.err
}
func (m *mockChatService) SendMessage(_ context.Context, _ service.Caller, _, _ string) (*dto.ChatMessageResponse, error) {
	return m.msgResult, m.err
}

// ── Mock ModerationService ──

type mockModerationService struct {
	banResult *dto.BanResponse
	err       error
	gotReason string
}

func (m *mockModerationService) Ban(_ context.Context, _ service.Caller, _ *dto.CreateBanRequest) (*dto.BanResponse, error) {
	return m.banResult, m.err
}
func (m *mockModerationService) Unban(_ context.Context, _ service.Caller, _, reason string) (*dto.BanResponse, error) {
	m.gotReason = reason
	return m.banResult, m.err
}
func (m *mockModerationService) ListBans(_ context.Context, _ service.Caller, _ *dto.BanListRequest) ([]dto.BanResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockModerationService) ListLogs(_ context.Context, _ service.Caller, _ *dto.LogListRequest) ([]dto.ModerationLogResponse, int64, error) {
	return []dto.ModerationLogResponse{}, 0, m.err
}

// ── Mock AdminService / ExportService ──

type mockAdminService struct {
	result *dto.StatsResponse
	err    error
}

func (m *mockAdminService) Stats(_ context.Context, _ service.Caller) (*dto.StatsResponse, error) {
	return m.result, m.err
}

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportUsers(_ context.Context, _ service.Caller) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportModerationLogs(_ context.Context, _ service.Caller, _ *dto.LogListRequest) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock WSServer ──

type mockWSServer struct {
	called  bool
	userID  string
	groupID string
}

func (m *mockWSServer) ServeWS(w http.ResponseWriter, _ *http.Request, userID, groupID string) error {
	m.called, m.userID, m.groupID = true, userID, groupID
	w.WriteHeader(http.StatusSwitchingProtocols)
	return nil
}
