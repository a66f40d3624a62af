package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/model"
	"github.com/j-neeley/DawgPound/internal/repository"
	pkgerrors "github.com/j-neeley/DawgPound/pkg/errors"
)

var (
	ErrSelfBlock      = errors.New("Cannot block yourself")
	ErrAlreadyBlocked = errors.New("User already blocked")
	ErrBlockNotFound  = errors.New("User is not blocked")
)

// BlockService 拉黑业务接口
type BlockService interface {
	Block(ctx context.Context, caller Caller, targetID string) (*dto.BlockResponse, error)
	Unblock(ctx context.Context, caller Caller, targetID string) error
	List(ctx context.Context, caller Caller) ([]dto.BlockResponse, error)
}

type blockService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewBlockService 创建 BlockService 实例
func NewBlockService(repo *repository.Repository, logger *zap.Logger) BlockService {
	return &blockService{repo: repo, logger: logger}
}

// Block 拉黑并在同一事务中解除好友关系、清除双方请求
func (s *blockService) Block(ctx context.Context, caller Caller, targetID string) (*dto.BlockResponse, error) {
	targetID = normalizeID(targetID)
	if targetID == caller.UserID {
		return nil, ErrSelfBlock
	}
	target, err := s.repo.User.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, logErr(s.logger, err, "查询目标用户失败", zap.String("target_id", targetID))
	}

	exists, err := s.repo.Block.Exists(ctx, caller.UserID, targetID)
	if err != nil {
		return nil, logErr(s.logger, err, "查询拉黑记录失败")
	}
	if exists {
		return nil, ErrAlreadyBlocked
	}

	block := &model.UserBlock{BlockerID: caller.UserID, BlockedID: targetID}
	err = inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Block.Create(ctx, block); err != nil {
			if pkgerrors.IsUniqueViolation(err, "uq_user_blocks_pair") {
				return ErrAlreadyBlocked
			}
			return logErr(s.logger, err, "创建拉黑记录失败")
		}
		if err := txRepo.Friend.DeleteFriendship(ctx, caller.UserID, targetID); err != nil {
			return logErr(s.logger, err, "解除好友关系失败")
		}
		if err := txRepo.Friend.DeleteRequestsBetween(ctx, caller.UserID, targetID); err != nil {
			return logErr(s.logger, err, "清除好友请求失败")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.BlockResponse{ID: block.ID, User: toUserSummary(target), CreatedAt: block.CreatedAt}, nil
}

func (s *blockService) Unblock(ctx context.Context, caller Caller, targetID string) error {
	targetID = normalizeID(targetID)
	n, err := s.repo.Block.Delete(ctx, caller.UserID, targetID)
	if err != nil {
		return logErr(s.logger, err, "删除拉黑记录失败")
	}
	if n == 0 {
		return ErrBlockNotFound
	}
	return nil
}

func (s *blockService) List(ctx context.Context, caller Caller) ([]dto.BlockResponse, error) {
	blocks, err := s.repo.Block.ListByBlocker(ctx, caller.UserID)
	if err != nil {
		return nil, logErr(s.logger, err, "查询拉黑列表失败")
	}
	result := make([]dto.BlockResponse, 0, len(blocks))
	for i := range blocks {
		b := &blocks[i]
		result = append(result, dto.BlockResponse{ID: b.ID, User: toUserSummary(b.Blocked), CreatedAt: b.CreatedAt})
	}
	return result, nil
}
