package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/model"
)

// GroupFilter 群组列表过滤条件
type GroupFilter struct {
	Search   string
	Category string
	Tag      string
}

// GroupRepository 群组、成员与版主数据访问接口
type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id string) (*model.Group, error)
	Update(ctx context.Context, group *model.Group) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter GroupFilter, page Page) ([]model.Group, int64, error)
	ListNotJoined(ctx context.Context, userID string) ([]model.Group, error)

	// ── 成员 ──
	AddMember(ctx context.Context, m *model.GroupMembership) error
	GetMembership(ctx context.Context, groupID, userID string) (*model.GroupMembership, error)
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string, page Page) ([]model.GroupMembership, int64, error)
	CountMembers(ctx context.Context, groupIDs []string) (map[string]int64, error)
	MemberOf(ctx context.Context, userID string, groupIDs []string) (map[string]bool, error)
	ListMembershipsByUsers(ctx context.Context, userIDs []string) ([]model.GroupMembership, error)

	// ── 版主 ──
	AddModerator(ctx context.Context, m *model.GroupModerator) error
	IsModerator(ctx context.Context, groupID, userID string) (bool, error)
	RemoveModerator(ctx context.Context, groupID, userID string) error
	ListModerators(ctx context.Context, groupID string) ([]model.GroupModerator, error)
}

type groupRepo struct {
	db *gorm.DB
}

// NewGroupRepo 创建 GroupRepository 实例
func NewGroupRepo(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

// ────────── 群组 ──────────

func (r *groupRepo) Create(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepo) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) Update(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).
		Model(group).
		Select("name", "description", "category", "tags", "updated_at").
		Updates(group).Error
}

func (r *groupRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Group{}).Error
}

func (r *groupRepo) List(ctx context.Context, filter GroupFilter, page Page) ([]model.Group, int64, error) {
	var groups []model.Group
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Group{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.Tag != "" {
		db = db.Where("? = ANY(tags)", filter.Tag)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db).Preload("Creator").Order("created_at DESC").Find(&groups).Error; err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

func (r *groupRepo) ListNotJoined(ctx context.Context, userID string) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).
		Where("id NOT IN (?)", r.db.Model(&model.GroupMembership{}).Select("group_id").Where("user_id = ?", userID)).
		Find(&groups).Error
	return groups, err
}

// ────────── 成员 ──────────

func (r *groupRepo) AddMember(ctx context.Context, m *model.GroupMembership) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *groupRepo) GetMembership(ctx context.Context, groupID, userID string) (*model.GroupMembership, error) {
	var m model.GroupMembership
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *groupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.GroupMembership{}).Error
}

func (r *groupRepo) ListMembers(ctx context.Context, groupID string, page Page) ([]model.GroupMembership, int64, error) {
	var members []model.GroupMembership
	var total int64

	db := r.db.WithContext(ctx).Model(&model.GroupMembership{}).Where("group_id = ?", groupID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db).Preload("User").Order("joined_at DESC").Find(&members).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

type groupCount struct {
	GroupID string
	Count   int64
}

func (r *groupRepo) CountMembers(ctx context.Context, groupIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(groupIDs))
	if len(groupIDs) == 0 {
		return result, nil
	}
	var rows []groupCount
	err := r.db.WithContext(ctx).Model(&model.GroupMembership{}).
		Select("group_id, COUNT(*) AS count").
		Where("group_id IN ?", groupIDs).
		Group("group_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.GroupID] = row.Count
	}
	return result, nil
}

func (r *groupRepo) MemberOf(ctx context.Context, userID string, groupIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(groupIDs))
	if userID == "" || len(groupIDs) == 0 {
		return result, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.GroupMembership{}).
		Where("user_id = ? AND group_id IN ?", userID, groupIDs).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *groupRepo) ListMembershipsByUsers(ctx context.Context, userIDs []string) ([]model.GroupMembership, error) {
	var ms []model.GroupMembership
	if len(userIDs) == 0 {
		return ms, nil
	}
	err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&ms).Error
	return ms, err
}

// ────────── 版主 ──────────

func (r *groupRepo) AddModerator(ctx context.Context, m *model.GroupModerator) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *groupRepo) IsModerator(ctx context.Context, groupID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.GroupModerator{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *groupRepo) RemoveModerator(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.GroupModerator{}).Error
}

func (r *groupRepo) ListModerators(ctx context.Context, groupID string) ([]model.GroupModerator, error) {
	var mods []model.GroupModerator
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("group_id = ?", groupID).
		Order("added_at ASC").
		Find(&mods).Error
	return mods, err
}
