package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luishou/safe-xcx/middleware"
	"github.com/luishou/safe-xcx/models"
)

// loadManagedReport fetches the report and verifies the admin may act
// on its section. Registered behind RequireAdmin.
func (h *Handlers) loadManagedReport(c *gin.Context, id int64) (*models.Report, *models.Principal, bool) {
	principal := middleware.GetPrincipal(c)

	report, err := h.db.GetReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "获取举报详情失败")
		return nil, nil, false
	}
	if !principal.ManagesSection(report.Section) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "无权操作该标段的举报"})
		return nil, nil, false
	}
	return report, principal, true
}

// UpdateReportStatus handles PUT /report/:id/status, mapping the
// requested target status onto the lifecycle transitions.
func (h *Handlers) UpdateReportStatus(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if !models.IsValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的状态值"})
		return
	}

	report, principal, ok := h.loadManagedReport(c, id)
	if !ok {
		return
	}

	// Legacy clients send status "rejected" instead of the flag.
	rejected := req.IsRejected || req.Status == "rejected"

	var err error
	event := ""
	switch target := models.NormalizeStatus(req.Status); target {
	case models.StatusProcessing:
		err = h.db.ConfirmProcessing(c.Request.Context(), id, principal.UserID, req.AssignedTo, req.Plan, req.Feedback)
		event = models.EventReportConfirmed
	case models.StatusCompleted:
		if rejected {
			err = h.db.RejectAndClose(c.Request.Context(), id, principal.UserID, req.Feedback)
			event = models.EventReportRejected
		} else {
			err = h.db.CompleteFromStored(c.Request.Context(), id, principal.UserID, req.Plan)
			event = models.EventReportCompleted
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "状态只能向前流转"})
		return
	}
	if err != nil {
		respondError(c, err, "更新举报状态失败")
		return
	}

	report.Status = models.NormalizeStatus(req.Status)
	h.publishEvent(event, report, principal.UserID)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "举报状态更新成功"})
}

// CompleteReport handles POST /report/:id/complete: closing a report
// with the remediation plan and photo evidence in one call.
func (h *Handlers) CompleteReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	var req models.CompleteReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if len(req.RectifiedImages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "请提供整改图片"})
		return
	}
	if req.Plan == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "请提供整改方案"})
		return
	}

	report, principal, ok := h.loadManagedReport(c, id)
	if !ok {
		return
	}

	if err := h.db.CompleteWithEvidence(c.Request.Context(), id, principal.UserID, req.RectifiedImages, req.Plan); err != nil {
		respondError(c, err, "完成办结失败")
		return
	}

	report.Status = models.StatusCompleted
	h.publishEvent(models.EventReportCompleted, report, principal.UserID)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "举报处理完成"})
}

// UploadRectifiedImages handles POST /report/:id/images.
func (h *Handlers) UploadRectifiedImages(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	var req models.RectifiedImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if len(req.Images) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "请提供整改图片"})
		return
	}

	if _, _, ok := h.loadManagedReport(c, id); !ok {
		return
	}

	if err := h.db.SetRectifiedImages(c.Request.Context(), id, req.Images); err != nil {
		respondError(c, err, "上传整改图片失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "整改图片上传成功"})
}
