package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/repository"
)

const searchLimit = 20

// UserService 用户检索业务接口
type UserService interface {
	Search(ctx context.Context, caller Caller, query string) ([]dto.UserSummary, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// Search 匹配用户名/姓名/邮箱，排除本人与拉黑关系用户
func (s *userService) Search(ctx context.Context, caller Caller, query string) ([]dto.UserSummary, error) {
	result := make([]dto.UserSummary, 0)
	query = strings.TrimSpace(query)
	if query == "" {
		return result, nil
	}

	exclude, err := s.repo.Block.ListRelatedIDs(ctx, caller.UserID)
	if err != nil {
		s.logger.Error("查询拉黑关系失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	exclude = append(exclude, caller.UserID)

	users, err := s.repo.User.Search(ctx, query, exclude, searchLimit)
	if err != nil {
		s.logger.Error("搜索用户失败", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	for i := range users {
		result = append(result, *toUserSummary(&users[i]))
	}
	return result, nil
}
