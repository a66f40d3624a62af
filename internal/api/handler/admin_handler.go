package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/service"
	"github.com/j-neeley/DawgPound/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler 平台统计与导出 HTTP 处理器
type AdminHandler struct {
	adminSvc  service.AdminService
	exportSvc service.ExportService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(adminSvc service.AdminService, exportSvc service.ExportService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc, exportSvc: exportSvc}
}

// Stats godoc
// @Summary      Platform statistics
// @Tags         admin
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  response.Response{data=dto.StatsResponse}
// @Failure      403  {object}  response.Response "Staff access required"
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	stats, err := h.adminSvc.Stats(c.Request.Context(), caller)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.OK(c, stats)
}

// ExportUsers 导出用户资料
// GET /api/v1/admin/export/users
func (h *AdminHandler) ExportUsers(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	buf, filename, err := h.exportSvc.ExportUsers(c.Request.Context(), caller)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	sendXLSX(c, buf, filename)
}

// ExportModerationLogs 导出管理日志
// GET /api/v1/admin/export/moderation-logs
func (h *AdminHandler) ExportModerationLogs(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.LogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	buf, filename, err := h.exportSvc.ExportModerationLogs(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	sendXLSX(c, buf, filename)
}

func sendXLSX(c *gin.Context, buf *bytes.Buffer, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *AdminHandler) handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStaffOnly):
		response.Forbidden(c, 17001, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 17002, err.Error())
	default:
		response.InternalError(c)
	}
}
