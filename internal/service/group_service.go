package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/model"
	"github.com/j-neeley/DawgPound/internal/repository"
	pkgerrors "github.com/j-neeley/DawgPound/pkg/errors"
	"github.com/j-neeley/DawgPound/pkg/events"
)

const (
	maxGroupName        = 100
	maxGroupDescription = 500
)

var (
	ErrGroupNotFound         = errors.New("Group not found")
	ErrGroupNameRequired     = errors.New("Group name is required")
	ErrGroupNameTooLong      = errors.New("Group name must be at most 100 characters")
	ErrInvalidCategory       = errors.New("Invalid category")
	ErrAlreadyMember         = errors.New("Already a member")
	ErrNotMember             = errors.New("Not a member")
	ErrCreatorCannotLeave    = errors.New("Creator cannot leave group")
	ErrGroupPermissionDenied = errors.New("You do not have permission to modify this group")
	ErrTargetNotMember       = errors.New("User is not a member of this group")
	ErrAlreadyModerator      = errors.New("User is already a moderator")
	ErrModeratorNotFound     = errors.New("User is not a moderator")
	ErrCannotRemoveCreator   = errors.New("Cannot remove the group creator")
)

// GroupService 群组、成员与版主业务接口
type GroupService interface {
	Create(ctx context.Context, caller Caller, req *dto.CreateGroupRequest) (*dto.GroupResponse, error)
	Get(ctx context.Context, caller Caller, id string) (*dto.GroupResponse, error)
	List(ctx context.Context, caller Caller, req *dto.GroupListRequest) ([]dto.GroupResponse, int64, error)
	Update(ctx context.Context, caller Caller, id string, req *dto.UpdateGroupRequest) (*dto.GroupResponse, error)
	Delete(ctx context.Context, caller Caller, id string) error

	Join(ctx context.Context, caller Caller, id string) error
	Leave(ctx context.Context, caller Caller, id string) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	CanSubscribe(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, id string, page *dto.PaginationRequest) ([]dto.MemberResponse, int64, error)

	ListModerators(ctx context.Context, id string) ([]dto.ModeratorResponse, error)
	AddModerator(ctx context.Context, caller Caller, groupID, userID string) (*dto.ModeratorResponse, error)
	RemoveModerator(ctx context.Context, caller Caller, groupID, userID string) error
}

type groupService struct {
	repo     *repository.Repository
	events   *emitter
	recorder *recorder
	notifier Notifier
	now      func() time.Time
	logger   *zap.Logger
}

// NewGroupService 创建 GroupService 实例
func NewGroupService(repo *repository.Repository, em *emitter, notifier Notifier, now func() time.Time, logger *zap.Logger) GroupService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	return &groupService{
		repo:     repo,
		events:   em,
		recorder: newRecorder(repo, em, logger),
		notifier: notifier,
		now:      now,
		logger:   logger,
	}
}

// ────────── Create ──────────

// Create 同一事务内创建群组、创建者成员关系与版主关系
func (s *groupService) Create(ctx context.Context, caller Caller, req *dto.CreateGroupRequest) (*dto.GroupResponse, error) {
	name, err := normalizeGroupName(req.Name)
	if err != nil {
		return nil, err
	}
	if !model.IsValidCategory(req.Category) {
		return nil, ErrInvalidCategory
	}

	group := &model.Group{
		Name:        name,
		Description: truncateRunes(strings.TrimSpace(req.Description), maxGroupDescription),
		Category:    req.Category,
		Tags:        cleanList(req.Tags),
		CreatorID:   &caller.UserID,
	}

	err = inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Group.Create(ctx, group); err != nil {
			return logErr(s.logger, err, "创建群组失败")
		}
		if err := txRepo.Group.AddMember(ctx, &model.GroupMembership{GroupID: group.ID, UserID: caller.UserID}); err != nil {
			return logErr(s.logger, err, "写入创建者成员关系失败", zap.String("group_id", group.ID))
		}
		if err := txRepo.Group.AddModerator(ctx, &model.GroupModerator{GroupID: group.ID, UserID: caller.UserID}); err != nil {
			return logErr(s.logger, err, "写入创建者版主关系失败", zap.String("group_id", group.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, events.GroupCreated, group.ID, caller.UserID, map[string]string{"name": group.Name, "category": group.Category})
	return s.Get(ctx, caller, group.ID)
}

// ────────── Read ──────────

func (s *groupService) Get(ctx context.Context, caller Caller, id string) (*dto.GroupResponse, error) {
	group, err := s.getGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.decorate(ctx, caller, []model.Group{*group})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *groupService) List(ctx context.Context, caller Caller, req *dto.GroupListRequest) ([]dto.GroupResponse, int64, error) {
	filter := repository.GroupFilter{Search: req.Search, Category: req.Category, Tag: req.Tag}
	groups, total, err := s.repo.Group.List(ctx, filter, repository.Page{Offset: req.GetOffset(), Limit: req.GetPageSize()})
	if err != nil {
		return nil, 0, logErr(s.logger, err, "查询群组列表失败")
	}
	items, err := s.decorate(ctx, caller, groups)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// decorate 批量补充 member_count 与 is_member
func (s *groupService) decorate(ctx context.Context, caller Caller, groups []model.Group) ([]dto.GroupResponse, error) {
	ids := make([]string, len(groups))
	for i := range groups {
		ids[i] = groups[i].ID
	}
	counts, err := s.repo.Group.CountMembers(ctx, ids)
	if err != nil {
		return nil, logErr(s.logger, err, "统计群组成员失败")
	}
	memberOf, err := s.repo.Group.MemberOf(ctx, caller.UserID, ids)
	if err != nil {
		return nil, logErr(s.logger, err, "查询成员关系失败")
	}

	result := make([]dto.GroupResponse, 0, len(groups))
	for i := range groups {
		g := &groups[i]
		result = append(result, *toGroupResponse(g, counts[g.ID], memberOf[g.ID]))
	}
	return result, nil
}

// ────────── Update / Delete ──────────

func (s *groupService) Update(ctx context.Context, caller Caller, id string, req *dto.UpdateGroupRequest) (*dto.GroupResponse, error) {
	group, err := s.getGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(creatorOf(group)) {
		return nil, ErrGroupPermissionDenied
	}

	if req.Name != nil {
		name, err := normalizeGroupName(*req.Name)
		if err != nil {
			return nil, err
		}
		group.Name = name
	}
	if req.Description != nil {
		group.Description = truncateRunes(strings.TrimSpace(*req.Description), maxGroupDescription)
	}
	if req.Category != nil {
		if !model.IsValidCategory(*req.Category) {
			return nil, ErrInvalidCategory
		}
		group.Category = *req.Category
	}
	if req.Tags != nil {
		group.Tags = cleanList(*req.Tags)
	}

	if err := s.repo.Group.Update(ctx, group); err != nil {
		return nil, logErr(s.logger, err, "更新群组失败", zap.String("group_id", id))
	}
	return s.Get(ctx, caller, id)
}

func (s *groupService) Delete(ctx context.Context, caller Caller, id string) error {
	group, err := s.getGroup(ctx, id)
	if err != nil {
		return err
	}
	if !caller.Owns(creatorOf(group)) {
		return ErrGroupPermissionDenied
	}
	if err := s.repo.Group.Delete(ctx, id); err != nil {
		return logErr(s.logger, err, "删除群组失败", zap.String("group_id", id))
	}
	s.notifier.Unsubscribe(id, nil)
	return nil
}

// ────────── Membership ──────────

func (s *groupService) Join(ctx context.Context, caller Caller, id string) error {
	if _, err := s.getGroup(ctx, id); err != nil {
		return err
	}
	if err := checkBan(ctx, s.repo, s.logger, caller.UserID, id, s.now()); err != nil {
		return err
	}

	if _, err := s.repo.Group.GetMembership(ctx, id, caller.UserID); err == nil {
		return ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return logErr(s.logger, err, "查询成员关系失败", zap.String("group_id", id))
	}

	if err := s.repo.Group.AddMember(ctx, &model.GroupMembership{GroupID: id, UserID: caller.UserID}); err != nil {
		if pkgerrors.IsUniqueViolation(err, "uq_group_memberships_user_group") {
			return ErrAlreadyMember
		}
		return logErr(s.logger, err, "加入群组失败", zap.String("group_id", id))
	}

	s.events.emit(ctx, events.GroupMemberJoined, id, caller.UserID, nil)
	return nil
}

// Leave 创建者不能退出；退出的版主同时失去版主身份
func (s *groupService) Leave(ctx context.Context, caller Caller, id string) error {
	group, err := s.getGroup(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.repo.Group.GetMembership(ctx, id, caller.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}
		return logErr(s.logger, err, "查询成员关系失败", zap.String("group_id", id))
	}
	if group.IsCreator(caller.UserID) {
		return ErrCreatorCannotLeave
	}

	err = inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Group.RemoveMember(ctx, id, caller.UserID); err != nil {
			return logErr(s.logger, err, "退出群组失败", zap.String("group_id", id))
		}
		if err := txRepo.Group.RemoveModerator(ctx, id, caller.UserID); err != nil {
			return logErr(s.logger, err, "移除版主身份失败", zap.String("group_id", id))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Unsubscribe(id, []string{caller.UserID})
	s.events.emit(ctx, events.GroupMemberLeft, id, caller.UserID, nil)
	return nil
}

func (s *groupService) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	if _, err := s.getGroup(ctx, groupID); err != nil {
		return false, err
	}
	if _, err := s.repo.Group.GetMembership(ctx, groupID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, logErr(s.logger, err, "查询成员关系失败", zap.String("group_id", groupID))
	}
	return true, nil
}

// CanSubscribe 实时订阅群组前的校验：须为成员且未被封禁
func (s *groupService) CanSubscribe(ctx context.Context, groupID, userID string) error {
	member, err := s.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}
	return checkBan(ctx, s.repo, s.logger, userID, groupID, s.now())
}

func (s *groupService) ListMembers(ctx context.Context, id string, page *dto.PaginationRequest) ([]dto.MemberResponse, int64, error) {
	if _, err := s.getGroup(ctx, id); err != nil {
		return nil, 0, err
	}
	members, total, err := s.repo.Group.ListMembers(ctx, id, repository.Page{Offset: page.GetOffset(), Limit: page.GetPageSize()})
	if err != nil {
		return nil, 0, logErr(s.logger, err, "查询成员列表失败", zap.String("group_id", id))
	}
	result := make([]dto.MemberResponse, 0, len(members))
	for i := range members {
		m := &members[i]
		result = append(result, dto.MemberResponse{ID: m.ID, User: toUserSummary(m.User), JoinedAt: m.JoinedAt})
	}
	return result, total, nil
}

// ────────── Moderators ──────────

func (s *groupService) ListModerators(ctx context.Context, id string) ([]dto.ModeratorResponse, error) {
	if _, err := s.getGroup(ctx, id); err != nil {
		return nil, err
	}
	mods, err := s.repo.Group.ListModerators(ctx, id)
	if err != nil {
		return nil, logErr(s.logger, err, "查询版主列表失败", zap.String("group_id", id))
	}
	result := make([]dto.ModeratorResponse, 0, len(mods))
	for i := range mods {
		m := &mods[i]
		result = append(result, dto.ModeratorResponse{ID: m.ID, User: toUserSummary(m.User), AddedAt: m.AddedAt})
	}
	return result, nil
}

// AddModerator 仅创建者或 staff 可任命；目标必须是成员
func (s *groupService) AddModerator(ctx context.Context, caller Caller, groupID, userID string) (*dto.ModeratorResponse, error) {
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(creatorOf(group)) {
		return nil, ErrGroupPermissionDenied
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, logErr(s.logger, err, "查询用户失败", zap.String("user_id", userID))
	}
	if _, err := s.repo.Group.GetMembership(ctx, groupID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTargetNotMember
		}
		return nil, logErr(s.logger, err, "查询成员关系失败", zap.String("group_id", groupID))
	}
	isMod, err := s.repo.Group.IsModerator(ctx, groupID, userID)
	if err != nil {
		return nil, logErr(s.logger, err, "查询版主身份失败", zap.String("group_id", groupID))
	}
	if isMod {
		return nil, ErrAlreadyModerator
	}

	mod := &model.GroupModerator{GroupID: groupID, UserID: userID}
	if err := s.repo.Group.AddModerator(ctx, mod); err != nil {
		if pkgerrors.IsUniqueViolation(err, "uq_group_moderators_user_group") {
			return nil, ErrAlreadyModerator
		}
		return nil, logErr(s.logger, err, "任命版主失败", zap.String("group_id", groupID))
	}

	s.recorder.record(ctx, &model.ModerationLog{
		ModeratorID:  strPtr(caller.UserID),
		Action:       model.ActionAddModerator,
		GroupID:      strPtr(groupID),
		TargetUserID: strPtr(userID),
	})
	return &dto.ModeratorResponse{ID: mod.ID, User: toUserSummary(user), AddedAt: mod.AddedAt}, nil
}

func (s *groupService) RemoveModerator(ctx context.Context, caller Caller, groupID, userID string) error {
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !caller.Owns(creatorOf(group)) {
		return ErrGroupPermissionDenied
	}
	if group.IsCreator(userID) {
		return ErrCannotRemoveCreator
	}
	isMod, err := s.repo.Group.IsModerator(ctx, groupID, userID)
	if err != nil {
		return logErr(s.logger, err, "查询版主身份失败", zap.String("group_id", groupID))
	}
	if !isMod {
		return ErrModeratorNotFound
	}
	if err := s.repo.Group.RemoveModerator(ctx, groupID, userID); err != nil {
		return logErr(s.logger, err, "移除版主失败", zap.String("group_id", groupID))
	}

	s.recorder.record(ctx, &model.ModerationLog{
		ModeratorID:  strPtr(caller.UserID),
		Action:       model.ActionRemoveModerator,
		GroupID:      strPtr(groupID),
		TargetUserID: strPtr(userID),
	})
	return nil
}

// ── 内部辅助方法 ──

func (s *groupService) getGroup(ctx context.Context, id string) (*model.Group, error) {
	group, err := s.repo.Group.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, logErr(s.logger, err, "查询群组失败", zap.String("group_id", id))
	}
	return group, nil
}

func creatorOf(g *model.Group) string {
	if g.CreatorID == nil {
		return ""
	}
	return *g.CreatorID
}

func normalizeGroupName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrGroupNameRequired
	}
	if utf8.RuneCountInString(name) > maxGroupName {
		return "", ErrGroupNameTooLong
	}
	return name, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
