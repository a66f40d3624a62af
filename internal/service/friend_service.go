package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/model"
	"github.com/j-neeley/DawgPound/internal/repository"
	pkgerrors "github.com/j-neeley/DawgPound/pkg/errors"
	"github.com/j-neeley/DawgPound/pkg/events"
)

var (
	ErrToUserRequired        = errors.New("to_user is required")
	ErrSelfFriendRequest     = errors.New("Cannot send friend request to yourself")
	ErrAlreadyFriends        = errors.New("Already friends")
	ErrFriendRequestExists   = errors.New("Friend request already exists")
	ErrRequestIDRequired     = errors.New("request_id is required")
	ErrFriendRequestNotFound = errors.New("Friend request not found")
	ErrFriendshipNotFound    = errors.New("Friendship not found")
	ErrUserBlocked           = errors.New("You cannot interact with this user")
)

// FriendService 好友请求与好友关系业务接口
type FriendService interface {
	SendRequest(ctx context.Context, caller Caller, toUserID string) (*dto.FriendRequestResponse, error)
	AcceptRequest(ctx context.Context, caller Caller, requestID string) error
	DeclineRequest(ctx context.Context, caller Caller, requestID string) error
	ListRequests(ctx context.Context, caller Caller) (*dto.FriendRequestsResponse, error)
	ListFriends(ctx context.Context, caller Caller) ([]dto.FriendResponse, error)
	Unfriend(ctx context.Context, caller Caller, friendID string) error
}

type friendService struct {
	repo   *repository.Repository
	events *emitter
	now    func() time.Time
	logger *zap.Logger
}

// NewFriendService 创建 FriendService 实例
func NewFriendService(repo *repository.Repository, em *emitter, now func() time.Time, logger *zap.Logger) FriendService {
	if now == nil {
		now = time.Now
	}
	return &friendService{repo: repo, events: em, now: now, logger: logger}
}

// ────────── Send ──────────

func (s *friendService) SendRequest(ctx context.Context, caller Caller, toUserID string) (*dto.FriendRequestResponse, error) {
	toUserID = normalizeID(toUserID)
	if toUserID == "" {
		return nil, ErrToUserRequired
	}
	if toUserID == caller.UserID {
		return nil, ErrSelfFriendRequest
	}
	if err := checkBan(ctx, s.repo, s.logger, caller.UserID, "", s.now()); err != nil {
		return nil, err
	}

	toUser, err := s.repo.User.GetByID(ctx, toUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.internal(err, "查询目标用户失败")
	}
	fromUser, err := s.repo.User.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.internal(err, "查询当前用户失败")
	}

	blocked, err := s.repo.Block.IsBlockedEither(ctx, caller.UserID, toUserID)
	if err != nil {
		return nil, s.internal(err, "查询拉黑关系失败")
	}
	if blocked {
		return nil, ErrUserBlocked
	}

	if _, err := s.repo.Friend.GetFriendship(ctx, caller.UserID, toUserID); err == nil {
		return nil, ErrAlreadyFriends
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.internal(err, "查询好友关系失败")
	}

	pending, err := s.repo.Friend.HasPendingBetween(ctx, caller.UserID, toUserID)
	if err != nil {
		return nil, s.internal(err, "查询待处理请求失败")
	}
	if pending {
		return nil, ErrFriendRequestExists
	}
	// (from, to) 唯一：同方向已处理过的请求也视为已存在
	if _, err := s.repo.Friend.FindRequest(ctx, caller.UserID, toUserID); err == nil {
		return nil, ErrFriendRequestExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.internal(err, "查询历史请求失败")
	}

	req := &model.FriendRequest{
		FromUserID: caller.UserID,
		ToUserID:   toUserID,
		Status:     model.FriendRequestPending,
	}
	if err := s.repo.Friend.CreateRequest(ctx, req); err != nil {
		if pkgerrors.IsUniqueViolation(err, "uq_friend_requests_pair") {
			return nil, ErrFriendRequestExists
		}
		return nil, s.internal(err, "创建好友请求失败")
	}
	req.FromUser, req.ToUser = fromUser, toUser

	s.events.emit(ctx, events.FriendRequestSent, req.ID, caller.UserID, map[string]string{"to_user_id": toUserID})
	return toFriendRequestResponse(req), nil
}

// ────────── Accept / Decline ──────────

func (s *friendService) AcceptRequest(ctx context.Context, caller Caller, requestID string) error {
	req, err := s.pendingRequestFor(ctx, caller, requestID)
	if err != nil {
		return err
	}

	friendship := model.NewFriendship(req.FromUserID, req.ToUserID)
	err = inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Friend.UpdateRequestStatus(ctx, req.ID, model.FriendRequestAccepted); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFriendRequestNotFound
			}
			return s.internal(err, "更新请求状态失败")
		}
		if err := txRepo.Friend.CreateFriendship(ctx, friendship); err != nil {
			if pkgerrors.IsUniqueViolation(err, "uq_friendships_pair") {
				return ErrAlreadyFriends
			}
			return s.internal(err, "创建好友关系失败")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.emit(ctx, events.FriendRequestAccepted, req.ID, caller.UserID,
		map[string]string{"friendship_id": friendship.ID, "from_user_id": req.FromUserID})
	return nil
}

func (s *friendService) DeclineRequest(ctx context.Context, caller Caller, requestID string) error {
	req, err := s.pendingRequestFor(ctx, caller, requestID)
	if err != nil {
		return err
	}
	if err := s.repo.Friend.UpdateRequestStatus(ctx, req.ID, model.FriendRequestDeclined); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFriendRequestNotFound
		}
		return s.internal(err, "更新请求状态失败")
	}
	return nil
}

// pendingRequestFor 只有发给 caller 的待处理请求可被处理
func (s *friendService) pendingRequestFor(ctx context.Context, caller Caller, requestID string) (*model.FriendRequest, error) {
	requestID = normalizeID(requestID)
	if requestID == "" {
		return nil, ErrRequestIDRequired
	}
	req, err := s.repo.Friend.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, s.internal(err, "查询好友请求失败")
	}
	if req.ToUserID != caller.UserID || !req.IsPending() {
		return nil, ErrFriendRequestNotFound
	}
	return req, nil
}

// ────────── List ──────────

func (s *friendService) ListRequests(ctx context.Context, caller Caller) (*dto.FriendRequestsResponse, error) {
	received, err := s.repo.Friend.ListPendingReceived(ctx, caller.UserID)
	if err != nil {
		return nil, s.internal(err, "查询收到的请求失败")
	}
	sent, err := s.repo.Friend.ListPendingSent(ctx, caller.UserID)
	if err != nil {
		return nil, s.internal(err, "查询发出的请求失败")
	}

	resp := &dto.FriendRequestsResponse{
		Received: make([]dto.FriendRequestResponse, 0, len(received)),
		Sent:     make([]dto.FriendRequestResponse, 0, len(sent)),
	}
	for i := range received {
		resp.Received = append(resp.Received, *toFriendRequestResponse(&received[i]))
	}
	for i := range sent {
		resp.Sent = append(resp.Sent, *toFriendRequestResponse(&sent[i]))
	}
	return resp, nil
}

func (s *friendService) ListFriends(ctx context.Context, caller Caller) ([]dto.FriendResponse, error) {
	friendships, err := s.repo.Friend.ListFriendships(ctx, caller.UserID)
	if err != nil {
		return nil, s.internal(err, "查询好友列表失败")
	}
	result := make([]dto.FriendResponse, 0, len(friendships))
	for i := range friendships {
		f := &friendships[i]
		result = append(result, dto.FriendResponse{
			ID:        f.ID,
			Friend:    toUserSummary(f.OtherUser(caller.UserID)),
			CreatedAt: f.CreatedAt,
		})
	}
	return result, nil
}

// ────────── Unfriend ──────────

// Unfriend 删除好友关系及双方之间的请求记录，之后可重新发送请求
func (s *friendService) Unfriend(ctx context.Context, caller Caller, friendID string) error {
	friendID = normalizeID(friendID)
	if _, err := s.repo.Friend.GetFriendship(ctx, caller.UserID, friendID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFriendshipNotFound
		}
		return s.internal(err, "查询好友关系失败")
	}

	err := inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Friend.DeleteFriendship(ctx, caller.UserID, friendID); err != nil {
			return s.internal(err, "删除好友关系失败")
		}
		if err := txRepo.Friend.DeleteRequestsBetween(ctx, caller.UserID, friendID); err != nil {
			return s.internal(err, "删除好友请求失败")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.emit(ctx, events.FriendshipRemoved, caller.UserID, caller.UserID, map[string]string{"friend_id": friendID})
	return nil
}

// internal 记录仓储层错误并原样返回
func (s *friendService) internal(err error, msg string) error {
	s.logger.Error(msg, zap.Error(err))
	return err
}

func toFriendRequestResponse(r *model.FriendRequest) *dto.FriendRequestResponse {
	return &dto.FriendRequestResponse{
		ID:        r.ID,
		FromUser:  toUserSummary(r.FromUser),
		ToUser:    toUserSummary(r.ToUser),
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}
