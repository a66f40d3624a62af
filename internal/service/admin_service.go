package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/repository"
)

var ErrStaffOnly = errors.New("Staff access required")

// AdminService 平台统计接口
type AdminService interface {
	Stats(ctx context.Context, caller Caller) (*dto.StatsResponse, error)
}

type adminService struct {
	repo   *repository.Repository
	now    func() time.Time
	logger *zap.Logger
}

// NewAdminService 创建 AdminService 实例
func NewAdminService(repo *repository.Repository, now func() time.Time, logger *zap.Logger) AdminService {
	if now == nil {
		now = time.Now
	}
	return &adminService{repo: repo, now: now, logger: logger}
}

func (s *adminService) Stats(ctx context.Context, caller Caller) (*dto.StatsResponse, error) {
	if !caller.Elevated() {
		return nil, ErrStaffOnly
	}

	totals, err := s.repo.Stats.Totals(ctx, s.now())
	if err != nil {
		return nil, logErr(s.logger, err, "查询平台统计失败")
	}
	majors, err := s.valueCounts(ctx, repository.ColumnMajors)
	if err != nil {
		return nil, err
	}
	interests, err := s.valueCounts(ctx, repository.ColumnInterests)
	if err != nil {
		return nil, err
	}

	return &dto.StatsResponse{
		TotalUsers:           totals.Users,
		VerifiedUsers:        totals.VerifiedUsers,
		OnboardingCompleted:  totals.OnboardingCompleted,
		OnboardingIncomplete: totals.Users - totals.OnboardingCompleted,
		TotalGroups:          totals.Groups,
		TotalThreads:         totals.Threads,
		TotalMessages:        totals.Messages,
		ActiveBans:           totals.ActiveBans,
		MajorsCounts:         majors,
		InterestsCounts:      interests,
	}, nil
}

func (s *adminService) valueCounts(ctx context.Context, column string) (map[string]int64, error) {
	rows, err := s.repo.Stats.CountUserArrayValues(ctx, column)
	if err != nil {
		return nil, logErr(s.logger, err, "统计用户资料失败", zap.String("column", column))
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Value] = r.Count
	}
	return out, nil
}
