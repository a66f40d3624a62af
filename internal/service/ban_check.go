package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/j-neeley/DawgPound/internal/repository"
)

var (
	ErrAccountBanned   = errors.New("Your account is banned")
	ErrBannedFromGroup = errors.New("You are banned from this group")
)

// checkBan 在访问时刻校验封禁；groupID 为空时只检查全局封禁
func checkBan(ctx context.Context, repo *repository.Repository, logger *zap.Logger, userID, groupID string, now time.Time) error {
	bans, err := repo.Ban.ListActiveForUser(ctx, userID, now)
	if err != nil {
		logger.Error("查询封禁失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	for i := range bans {
		b := &bans[i]
		if !b.ActiveAt(now) {
			continue
		}
		if b.IsGlobal {
			return ErrAccountBanned
		}
		if groupID != "" && b.Covers(groupID) {
			return ErrBannedFromGroup
		}
	}
	return nil
}
