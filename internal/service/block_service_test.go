package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func setupTestBlockService() (BlockService, FriendService, *mocks) {
	repo, m := newMockRepository()
	logger := zap.NewNop()
	return NewBlockService(repo, logger), NewFriendService(repo, nil, fixedNow, logger), m
}

func TestBlockService_Block_RemovesFriendshipAndRequests(t *testing.T) {
	svc, friends, m := setupTestBlockService()
	alice, bob, carol := seedUser(m, "alice"), seedUser(m, "bob"), seedUser(m, "carol")
	ctx := context.Background()
	makeFriends(m, alice, bob)
	if _, err := friends.SendRequest(ctx, asUser(carol), alice.ID); err != nil {
		t.Fatalf("SendRequest 应成功: %v", err)
	}

	if _, err := svc.Block(ctx, asUser(alice), bob.ID); err != nil {
		t.Fatalf("Block 应成功: %v", err)
	}
	if _, err := svc.Block(ctx, asUser(alice), carol.ID); err != nil {
		t.Fatalf("Block 应成功: %v", err)
	}

	if len(m.friends.friendships) != 0 {
		t.Error("拉黑后好友关系应被移除")
	}
	if len(m.friends.requests) != 0 {
		t.Error("拉黑后双方请求应被移除")
	}

	list, _ := svc.List(ctx, asUser(alice))
	if len(list) != 2 {
		t.Errorf("期望 2 条拉黑记录，实际 %d", len(list))
	}
}

func TestBlockService_Block_Errors(t *testing.T) {
	svc, _, m := setupTestBlockService()
	alice, bob := seedUser(m, "alice"), seedUser(m, "bob")
	ctx := context.Background()

	if _, err := svc.Block(ctx, asUser(alice), alice.ID); !errors.Is(err, ErrSelfBlock) {
		t.Errorf("期望 ErrSelfBlock，实际: %v", err)
	}
	if _, err := svc.Block(ctx, asUser(alice), strings.ToUpper(alice.ID)); !errors.Is(err, ErrSelfBlock) {
		t.Errorf("大写 ID 也应识别为自己，实际: %v", err)
	}
	if _, err := svc.Block(ctx, asUser(alice), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
	_, _ = svc.Block(ctx, asUser(alice), bob.ID)
	if _, err := svc.Block(ctx, asUser(alice), bob.ID); !errors.Is(err, ErrAlreadyBlocked) {
		t.Errorf("期望 ErrAlreadyBlocked，实际: %v", err)
	}
}

func TestBlockService_Unblock(t *testing.T) {
	svc, _, m := setupTestBlockService()
	alice, bob := seedUser(m, "alice"), seedUser(m, "bob")
	ctx := context.Background()

	if err := svc.Unblock(ctx, asUser(alice), bob.ID); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("期望 ErrBlockNotFound，实际: %v", err)
	}
	_, _ = svc.Block(ctx, asUser(alice), bob.ID)
	if err := svc.Unblock(ctx, asUser(alice), bob.ID); err != nil {
		t.Errorf("Unblock 应成功: %v", err)
	}
}
