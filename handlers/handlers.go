package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/luishou/safe-xcx/config"
	"github.com/luishou/safe-xcx/database"
	"github.com/luishou/safe-xcx/middleware"
	"github.com/luishou/safe-xcx/models"
	"github.com/luishou/safe-xcx/rabbitmq"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	db        *database.Database
	config    *config.Config
	publisher *rabbitmq.Publisher
}

// NewHandlers creates a new handlers instance. The publisher may be
// nil; lifecycle events are then skipped.
func NewHandlers(db *database.Database, cfg *config.Config, publisher *rabbitmq.Publisher) *Handlers {
	return &Handlers{
		db:        db,
		config:    cfg,
		publisher: publisher,
	}
}

// respondError maps store errors onto the HTTP error envelope.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, database.ErrValidation), errors.Is(err, database.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "举报记录不存在"})
	default:
		log.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fallback})
	}
}

// reportID parses the :id path parameter.
func reportID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid report id"})
		return 0, false
	}
	return id, true
}

// publishEvent fans a lifecycle event out to RabbitMQ. Publishing is
// best effort; broker failures never fail the request.
func (h *Handlers) publishEvent(event string, report *models.Report, actorID string) {
	if h.publisher == nil {
		return
	}
	err := h.publisher.Publish(models.ReportEvent{
		Event:      event,
		ReportID:   report.ID,
		Section:    report.Section,
		Status:     report.Status,
		HazardType: report.HazardType,
		Severity:   report.Severity,
		ActorID:    actorID,
		OccurredAt: time.Now(),
	})
	if err != nil {
		log.WithError(err).WithField("event", event).WithField("report_id", report.ID).Warn("failed to publish lifecycle event")
	}
}

// SubmitReport handles POST /report/submit.
func (h *Handlers) SubmitReport(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "请先登录"})
		return
	}

	var req models.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	reporterName := principal.NickName
	if reporterName == "" {
		reporterName = "微信用户"
	}

	id, err := h.db.CreateReport(c.Request.Context(), &req, principal.UserID, reporterName)
	if err != nil {
		respondError(c, err, "提交举报失败")
		return
	}

	h.publishEvent(models.EventReportCreated, &models.Report{
		ID:         id,
		Section:    req.Section,
		Status:     models.StatusSubmitted,
		HazardType: req.HazardType,
		Severity:   req.Severity,
	}, principal.UserID)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "举报提交成功",
		"data":    gin.H{"id": id},
	})
}

// parseListFilter reads the shared listing query parameters. An
// unknown status value is refused rather than dropped, since dropping
// it would widen the query to every status.
func (h *Handlers) parseListFilter(c *gin.Context) (*models.ListFilter, bool) {
	filter := &models.ListFilter{
		Section:  c.Query("section"),
		Severity: c.Query("severity"),
		Page:     1,
		Limit:    h.config.DefaultPageSize,
	}

	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if !models.IsValidStatus(s) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的状态值"})
				return nil, false
			}
			filter.Statuses = append(filter.Statuses, models.NormalizeStatus(s))
		}
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		if limit > h.config.MaxPageSize {
			limit = h.config.MaxPageSize
		}
		filter.Limit = limit
	}
	return filter, true
}

// GetManagementReports handles GET /report/list. Admin only; admins
// with a managed_sections claim only see those sections.
func (h *Handlers) GetManagementReports(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	filter, ok := h.parseListFilter(c)
	if !ok {
		return
	}

	if filter.Section != "" && !principal.ManagesSection(filter.Section) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "无权查看该标段的举报"})
		return
	}
	if filter.Section == "" {
		filter.Sections = principal.ManagedSections
	}

	list, err := h.db.ListReports(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "获取举报列表失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
}

// GetMyReports handles GET /report/my-reports and
// GET /report/personal-reports. Section is mandatory and results are
// always limited to the caller's own reports.
func (h *Handlers) GetMyReports(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	filter, ok := h.parseListFilter(c)
	if !ok {
		return
	}
	if filter.Section == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "请选择标段"})
		return
	}
	filter.ReporterID = principal.UserID

	list, err := h.db.ListReports(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "获取举报列表失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
}

// GetPublicReports handles GET /report/public-reports: the disclosure
// listing with reporter identity withheld.
func (h *Handlers) GetPublicReports(c *gin.Context) {
	filter, ok := h.parseListFilter(c)
	if !ok {
		return
	}

	list, err := h.db.ListReports(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "获取举报列表失败")
		return
	}

	for i := range list.Reports {
		list.Reports[i].ReporterID = ""
		list.Reports[i].ReporterName = ""
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
}

// GetReportDetail handles GET /report/:id. Employees may only see
// their own reports.
func (h *Handlers) GetReportDetail(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	id, ok := reportID(c)
	if !ok {
		return
	}

	report, err := h.db.GetReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "获取举报详情失败")
		return
	}

	if !principal.IsAdmin() && report.ReporterID != principal.UserID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "无权查看此举报记录"})
		return
	}

	history, err := h.db.GetReportHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "获取举报详情失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"report":  report,
			"history": history,
		},
	})
}

// AddReportHistory handles POST /report/:id/history.
func (h *Handlers) AddReportHistory(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	id, ok := reportID(c)
	if !ok {
		return
	}

	var req models.AddHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if req.Action == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "操作类型不能为空"})
		return
	}

	if err := h.db.AddHistory(c.Request.Context(), id, principal.UserID, req.Action, req.Description); err != nil {
		respondError(c, err, "添加举报历史失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "历史记录添加成功"})
}

// GetStats handles GET /report/stats. Admin only; the section must be
// within the admin's managed scope.
func (h *Handlers) GetStats(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	section := c.Query("section")
	if section == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "请提供标段代码 section"})
		return
	}
	if !principal.ManagesSection(section) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "无权查看该标段的统计数据"})
		return
	}

	start, ok := parseStatsTime(c, c.Query("startDate"), false)
	if !ok {
		return
	}
	end, ok := parseStatsTime(c, c.Query("endDate"), true)
	if !ok {
		return
	}

	stats, err := h.db.GetStats(c.Request.Context(), section, start, end)
	if err != nil {
		respondError(c, err, "获取统计数据失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// parseStatsTime parses an optional date bound, accepting a bare date
// or a full datetime. An end-of-day adjustment keeps a bare endDate
// inclusive.
func parseStatsTime(c *gin.Context, raw string, endOfDay bool) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
		return &t, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的日期格式"})
		return nil, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, true
}
