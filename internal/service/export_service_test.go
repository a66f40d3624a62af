package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/model"
)

func TestExportService_ExportUsers(t *testing.T) {
	repo, m := newMockRepository()
	svc := NewExportService(repo, zap.NewNop())
	staff := seedStaff(m, "staff")
	alice := seedUser(m, "alice")
	onboard(alice, []string{"CS", "Math"}, threeInterests, "Junior")

	buf, filename, err := svc.ExportUsers(context.Background(), asUser(staff))
	if err != nil {
		t.Fatalf("ExportUsers 应成功: %v", err)
	}
	if !strings.HasPrefix(filename, "users_") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名格式错误: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Users")
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望表头 + 2 行，实际=%d", len(rows))
	}
	if rows[0][1] != "Username" {
		t.Errorf("期望表头第 2 列为 Username，实际=%s", rows[0][1])
	}
	// 按 ID 排序：alice 在 staff 之前
	if rows[1][1] != "alice" || rows[1][6] != "CS, Math" {
		t.Errorf("期望 alice 行专业 'CS, Math'，实际: %v", rows[1])
	}
	if len(f.GetSheetList()) != 1 {
		t.Errorf("期望仅保留 1 个 Sheet，实际: %v", f.GetSheetList())
	}
}

func TestExportService_ExportModerationLogs_Filtered(t *testing.T) {
	repo, m := newMockRepository()
	svc := NewExportService(repo, zap.NewNop())
	staff := seedStaff(m, "staff")
	ctx := context.Background()
	g1, g2 := "g1", "g2"
	_ = m.logs.CreateLog(ctx, &model.ModerationLog{Action: model.ActionLockThread, GroupID: &g1, ModeratorID: &staff.ID, Reason: "heated"})
	_ = m.logs.CreateLog(ctx, &model.ModerationLog{Action: model.ActionPinThread, GroupID: &g2})

	buf, _, err := svc.ExportModerationLogs(ctx, asUser(staff), &dto.LogListRequest{GroupID: g1})
	if err != nil {
		t.Fatalf("ExportModerationLogs 应成功: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows("Moderation logs")
	if len(rows) != 2 {
		t.Fatalf("期望表头 + 1 行，实际=%d", len(rows))
	}
	if rows[1][1] != "lock_thread" || rows[1][7] != "heated" {
		t.Errorf("期望导出 lock_thread 日志，实际: %v", rows[1])
	}
}

func TestExportService_StaffOnly(t *testing.T) {
	repo, m := newMockRepository()
	svc := NewExportService(repo, zap.NewNop())
	alice := seedUser(m, "alice")

	if _, _, err := svc.ExportUsers(context.Background(), asUser(alice)); !errors.Is(err, ErrStaffOnly) {
		t.Errorf("期望 ErrStaffOnly，实际: %v", err)
	}
	if _, _, err := svc.ExportModerationLogs(context.Background(), asUser(alice), &dto.LogListRequest{}); !errors.Is(err, ErrStaffOnly) {
		t.Errorf("期望 ErrStaffOnly，实际: %v", err)
	}
}
