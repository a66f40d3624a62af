package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/model"
	"github.com/j-neeley/DawgPound/pkg/events"
)

func setupTestModerationService() (ModerationService, *mocks, *capturePublisher) {
	repo, m := newMockRepository()
	pub := &capturePublisher{}
	svc := NewModerationService(repo, testEmitter(pub), nil, fixedNow, zap.NewNop())
	return svc, m, pub
}

// ── Ban 测试 ──

func TestModerationService_Ban_GlobalDerivedFromMissingGroup(t *testing.T) {
	svc, m, pub := setupTestModerationService()
	staff, bob := seedStaff(m, "staff"), seedUser(m, "bob")

	ban, err := svc.Ban(context.Background(), asUser(staff), &dto.CreateBanRequest{UserID: bob.ID, Reason: " spam "})
	if err != nil {
		t.Fatalf("Ban 应成功: %v", err)
	}
	if !ban.IsGlobal || ban.GroupID != nil {
		t.Errorf("未指定群组期望全局封禁，实际 is_global=%v group=%v", ban.IsGlobal, ban.GroupID)
	}
	if !ban.Active || ban.Reason != "spam" {
		t.Errorf("期望 active 且 reason=spam，实际 active=%v reason=%q", ban.Active, ban.Reason)
	}
	if got := m.logs.actions(); len(got) != 1 || got[0] != model.ActionBanUser {
		t.Errorf("期望记录 ban_user，实际: %v", got)
	}
	if got := pub.types(); len(got) != 1 || got[0] != events.ModerationRecorded {
		t.Errorf("期望发布 moderation.recorded，实际: %v", got)
	}
}

func TestModerationService_Ban_ScopeConflict(t *testing.T) {
	svc, m, _ := setupTestModerationService()
	staff, bob := seedStaff(m, "staff"), seedUser(m, "bob")
	g := seedGroup(m, staff, "G", model.CategoryOther)

	_, err := svc.Ban(context.Background(), asUser(staff), &dto.CreateBanRequest{
		UserID: bob.ID, GroupID: &g.ID, IsGlobal: true,
	})
	if !errors.Is(err, ErrBanScopeConflict) {
		t.Errorf("期望 ErrBanScopeConflict，实际: %v", err)
	}
	if len(m.logs.logs) != 0 {
		t.Error("失败的封禁不应写入日志")
	}
}

func TestModerationService_Ban_Validation(t *testing.T) {
	svc, m, _ := setupTestModerationService()
	staff, bob := seedStaff(m, "staff"), seedUser(m, "bob")
	past := testNow.Add(-time.Minute)
	ctx := context.Background()

	if _, err := svc.Ban(ctx, asUser(staff), &dto.CreateBanRequest{UserID: staff.ID}); !errors.Is(err, ErrBanSelf) {
		t.Errorf("期望 ErrBanSelf，实际: %v", err)
	}
	if _, err := svc.Ban(ctx, asUser(staff), &dto.CreateBanRequest{UserID: bob.ID, ExpiresAt: &past}); !errors.Is(err, ErrBanExpiryInPast) {
		t.Errorf("期望 ErrBanExpiryInPast，实际: %v", err)
	}
	if _, err := svc.Ban(ctx, asUser(staff), &dto.CreateBanRequest{UserID: "ghost"}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestModerationService_Ban_Permissions(t *testing.T) {
	svc, m, _ := setupTestModerationService()
	owner, mod, member, target := seedUser(m, "owner"), seedUser(m, "mod"), seedUser(m, "member"), seedUser(m, "target")
	g := seedGroup(m, owner, "G", model.CategoryOther)
	ctx := context.Background()
	_ = m.groups.AddModerator(ctx, &model.GroupModerator{GroupID: g.ID, UserID: mod.ID})

	if _, err := svc.Ban(ctx, asUser(mod), &dto.CreateBanRequest{UserID: target.ID}); !errors.Is(err, ErrModerationDenied) {
		t.Errorf("版主发起全局封禁期望 ErrModerationDenied，实际: %v", err)
	}
	if _, err := svc.Ban(ctx, asUser(member), &dto.CreateBanRequest{UserID: target.ID, GroupID: &g.ID}); !errors.Is(err, ErrModerationDenied) {
		t.Errorf("普通成员期望 ErrModerationDenied，实际: %v", err)
	}
	ban, err := svc.Ban(ctx, asUser(mod), &dto.CreateBanRequest{UserID: target.ID, GroupID: &g.ID})
	if err != nil {
		t.Fatalf("版主群组封禁应成功: %v", err)
	}
	if ban.IsGlobal || ban.GroupID == nil || *ban.GroupID != g.ID {
		t.Errorf("期望群组封禁，实际: %+v", ban)
	}
	missing := "missing"
	if _, err := svc.Ban(ctx, asUser(mod), &dto.CreateBanRequest{UserID: target.ID, GroupID: &missing}); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("期望 ErrGroupNotFound，实际: %v", err)
	}
}

// ── Unban 测试 ──

func TestModerationService_Unban(t *testing.T) {
	svc, m, _ := setupTestModerationService()
	staff, bob := seedStaff(m, "staff"), seedUser(m, "bob")
	ctx := context.Background()

	ban, _ := svc.Ban(ctx, asUser(staff), &dto.CreateBanRequest{UserID: bob.ID})
	revoked, err := svc.Unban(ctx, asUser(staff), ban.ID, "appeal")
	if err != nil {
		t.Fatalf("Unban 应成功: %v", err)
	}
	if revoked.Active || revoked.RevokedAt == nil {
		t.Errorf("期望封禁已撤销，实际: %+v", revoked)
	}
	if _, err := svc.Unban(ctx, asUser(staff), ban.ID, ""); !errors.Is(err, ErrBanAlreadyRevoked) {
		t.Errorf("期望 ErrBanAlreadyRevoked，实际: %v", err)
	}
	if _, err := svc.Unban(ctx, asUser(staff), "missing", ""); !errors.Is(err, ErrBanNotFound) {
		t.Errorf("期望 ErrBanNotFound，实际: %v", err)
	}
	if len(m.bans.bans) != 1 {
		t.Error("撤销不应删除封禁记录")
	}
}

// ── List 测试 ──

func TestModerationService_ListLogs_OnlyGrows(t *testing.T) {
	svc, m, _ := setupTestModerationService()
	staff, bob := seedStaff(m, "staff"), seedUser(m, "bob")
	ctx := context.Background()

	ban, _ := svc.Ban(ctx, asUser(staff), &dto.CreateBanRequest{UserID: bob.ID})
	before, _, _ := svc.ListLogs(ctx, asUser(staff), &dto.LogListRequest{})
	_, _ = svc.Unban(ctx, asUser(staff), ban.ID, "")
	after, total, err := svc.ListLogs(ctx, asUser(staff), &dto.LogListRequest{})
	if err != nil {
		t.Fatalf("ListLogs 应成功: %v", err)
	}
	if len(after) != len(before)+1 || total != 2 {
		t.Errorf("期望日志只增不减：before=%d after=%d", len(before), len(after))
	}
}

func TestModerationService_ListLogs_ModeratorScope(t *testing.T) {
	svc, m, _ := setupTestModerationService()
	owner := seedUser(m, "owner")
	g := seedGroup(m, owner, "G", model.CategoryOther)
	ctx := context.Background()

	if _, _, err := svc.ListLogs(ctx, asUser(owner), &dto.LogListRequest{}); !errors.Is(err, ErrModerationDenied) {
		t.Errorf("版主查看全部日志期望 ErrModerationDenied，实际: %v", err)
	}
	if _, _, err := svc.ListLogs(ctx, asUser(owner), &dto.LogListRequest{GroupID: g.ID}); err != nil {
		t.Errorf("版主查看本群日志应成功: %v", err)
	}
}

func TestModerationService_ListBans_ActiveOnly(t *testing.T) {
	svc, m, _ := setupTestModerationService()
	staff, bob := seedStaff(m, "staff"), seedUser(m, "bob")
	expired := testNow.Add(-time.Hour)
	seedBan(m, bob.ID, nil, &expired)
	seedBan(m, bob.ID, nil, nil)

	bans, _, err := svc.ListBans(context.Background(), asUser(staff), &dto.BanListRequest{UserID: bob.ID, ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListBans 应成功: %v", err)
	}
	if len(bans) != 1 || !bans[0].Active {
		t.Errorf("期望仅返回 1 条生效封禁，实际: %+v", bans)
	}
}

func TestModerationService_Ban_DropsSubscriptions(t *testing.T) {
	repo, m := newMockRepository()
	notifier := &recordingNotifier{}
	svc := NewModerationService(repo, testEmitter(&capturePublisher{}), notifier, fixedNow, zap.NewNop())
	staff, bob := seedStaff(m, "staff"), seedUser(m, "bob")
	g := seedGroup(m, staff, "G", model.CategoryOther)
	ctx := context.Background()

	if _, err := svc.Ban(ctx, asUser(staff), &dto.CreateBanRequest{UserID: bob.ID, GroupID: &g.ID}); err != nil {
		t.Fatalf("群组封禁应成功: %v", err)
	}
	if _, err := svc.Ban(ctx, asUser(staff), &dto.CreateBanRequest{UserID: bob.ID}); err != nil {
		t.Fatalf("全局封禁应成功: %v", err)
	}

	if len(notifier.dropped) != 2 {
		t.Fatalf("期望 2 次取消订阅，实际: %+v", notifier.dropped)
	}
	if d := notifier.dropped[0]; d.group != g.ID || len(d.users) != 1 || d.users[0] != bob.ID {
		t.Errorf("群组封禁期望取消 bob 对 %s 的订阅，实际: %+v", g.ID, d)
	}
	if d := notifier.dropped[1]; d.group != "" || len(d.users) != 1 || d.users[0] != bob.ID {
		t.Errorf("全局封禁期望取消 bob 的全部群组订阅，实际: %+v", d)
	}

	if _, err := svc.Ban(ctx, asUser(staff), &dto.CreateBanRequest{UserID: staff.ID}); !errors.Is(err, ErrBanSelf) {
		t.Fatalf("期望 ErrBanSelf，实际: %v", err)
	}
	if len(notifier.dropped) != 2 {
		t.Errorf("失败的封禁不应取消订阅，实际: %+v", notifier.dropped)
	}
}
