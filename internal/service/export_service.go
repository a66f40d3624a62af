package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("Failed to generate export file")

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写出
type ExportService interface {
	// ExportUsers 导出全部用户资料
	ExportUsers(ctx context.Context, caller Caller) (*bytes.Buffer, string, error)
	// ExportModerationLogs 按过滤条件导出管理日志
	ExportModerationLogs(ctx context.Context, caller Caller, req *dto.LogListRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var userExportHeader = []string{
	"ID", "Username", "Email", "First name", "Last name", "Verified",
	"Majors", "Interests", "Year of study", "Graduation year", "Staff", "Joined",
}

func (s *exportService) ExportUsers(ctx context.Context, caller Caller) (*bytes.Buffer, string, error) {
	if !caller.Elevated() {
		return nil, "", ErrStaffOnly
	}
	users, _, err := s.repo.User.List(ctx, repository.Page{})
	if err != nil {
		return nil, "", logErr(s.logger, err, "查询用户列表失败")
	}

	rows := make([][]interface{}, 0, len(users))
	for i := range users {
		u := &users[i]
		grad := ""
		if u.GraduationYear != nil {
			grad = fmt.Sprint(*u.GraduationYear)
		}
		rows = append(rows, []interface{}{
			u.ID, u.Username, u.Email, u.FirstName, u.LastName, yesNo(u.IsVerified()),
			strings.Join(u.Majors, ", "), strings.Join(u.InterestsHobbies, ", "),
			u.YearOfStudy, grad, yesNo(u.IsStaff), formatTime(u.CreatedAt),
		})
	}

	buf, err := s.writeSheet("Users", userExportHeader, rows)
	if err != nil {
		return nil, "", err
	}
	return buf, fmt.Sprintf("users_%s.xlsx", time.Now().Format("20060102")), nil
}

var logExportHeader = []string{
	"Time", "Action", "Moderator", "Group", "Thread", "Reply", "Target user", "Reason",
}

func (s *exportService) ExportModerationLogs(ctx context.Context, caller Caller, req *dto.LogListRequest) (*bytes.Buffer, string, error) {
	if !caller.Elevated() {
		return nil, "", ErrStaffOnly
	}
	filter := repository.LogFilter{
		GroupID:      req.GroupID,
		Action:       req.Action,
		TargetUserID: req.TargetUserID,
	}
	logs, _, err := s.repo.Moderation.ListLogs(ctx, filter, repository.Page{})
	if err != nil {
		return nil, "", logErr(s.logger, err, "查询管理日志失败")
	}

	rows := make([][]interface{}, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		rows = append(rows, []interface{}{
			formatTime(l.CreatedAt), string(l.Action), deref(l.ModeratorID), deref(l.GroupID),
			deref(l.ThreadID), deref(l.ReplyID), deref(l.TargetUserID), l.Reason,
		})
	}

	buf, err := s.writeSheet("Moderation logs", logExportHeader, rows)
	if err != nil {
		return nil, "", err
	}
	return buf, fmt.Sprintf("moderation_logs_%s.xlsx", time.Now().Format("20060102")), nil
}

// writeSheet 单 Sheet 表格：首行加粗表头，冻结首行
func (s *exportService) writeSheet(sheetName string, header []string, rows [][]interface{}) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		s.logger.Error("创建 Sheet 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range header {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
		f.SetColWidth(sheetName, colName(i), colName(i), 20)
	}
	f.SetCellStyle(sheetName, cell(colName(0), 1), cell(colName(len(header)-1), 1), headerStyle)
	f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for r, values := range rows {
		for c, v := range values {
			f.SetCellValue(sheetName, cell(colName(c), r+2), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
