package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/model"
)

// PlatformTotals 平台统计汇总
type PlatformTotals struct {
	Users               int64
	VerifiedUsers       int64
	OnboardingCompleted int64
	Groups              int64
	Threads             int64
	Messages            int64
	ActiveBans          int64
}

// ValueCount 数组字段中单个取值的出现次数
type ValueCount struct {
	Value string
	Count int64
}

// 可统计的用户数组字段
const (
	ColumnMajors    = "majors"
	ColumnInterests = "interests_hobbies"
)

// StatsRepository 管理统计查询接口
type StatsRepository interface {
	Totals(ctx context.Context, now time.Time) (*PlatformTotals, error)
	CountUserArrayValues(ctx context.Context, column string) ([]ValueCount, error)
}

type statsRepo struct {
	db *gorm.DB
}

// NewStatsRepo 创建 StatsRepository 实例
func NewStatsRepo(db *gorm.DB) StatsRepository {
	return &statsRepo{db: db}
}

func (r *statsRepo) Totals(ctx context.Context, now time.Time) (*PlatformTotals, error) {
	var t PlatformTotals
	db := r.db.WithContext(ctx)

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&t.Users, db.Model(&model.User{})},
		{&t.VerifiedUsers, db.Model(&model.User{}).Where("verified_at IS NOT NULL")},
		{&t.OnboardingCompleted, db.Model(&model.User{}).
			Where("cardinality(majors) >= ? AND cardinality(interests_hobbies) >= ?", model.MinMajors, model.MinInterests)},
		{&t.Groups, db.Model(&model.Group{})},
		{&t.Threads, db.Model(&model.Thread{})},
		{&t.Messages, db.Model(&model.Message{})},
		{&t.ActiveBans, activeAt(db.Model(&model.UserBan{}), now)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// CountUserArrayValues 展开数组字段并按取值计数
func (r *statsRepo) CountUserArrayValues(ctx context.Context, column string) ([]ValueCount, error) {
	if column != ColumnMajors && column != ColumnInterests {
		return nil, fmt.Errorf("unsupported column %q", column)
	}
	var rows []ValueCount
	err := r.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT v AS value, COUNT(*) AS count FROM users, unnest(%s) AS v GROUP BY v ORDER BY count DESC, v ASC", column)).
		Scan(&rows).Error
	return rows, err
}
