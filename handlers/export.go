package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/luishou/safe-xcx/middleware"
	"github.com/luishou/safe-xcx/models"
)

var exportHeaders = []string{
	"编号", "举报人", "隐患描述", "隐患类型", "严重程度",
	"位置", "状态", "处理人", "整改方案", "提交时间", "更新时间",
}

// ExportReports handles GET /report/export: all of a section's
// reports as an xlsx download.
func (h *Handlers) ExportReports(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	section := c.Query("section")
	if section == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "请提供标段代码 section"})
		return
	}
	if !principal.ManagesSection(section) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "无权导出该标段的举报"})
		return
	}

	reports, err := h.db.ListSectionReports(c.Request.Context(), section)
	if err != nil {
		respondError(c, err, "导出失败")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	const timeLayout = "2006-01-02 15:04:05"
	for i, r := range reports {
		assignedTo := ""
		if r.AssignedTo != nil {
			assignedTo = *r.AssignedTo
		}
		plan := ""
		if r.Plan != nil {
			plan = *r.Plan
		}
		values := []interface{}{
			r.ID, r.ReporterName, r.Description, r.HazardType, r.Severity,
			r.Location, models.StatusLabel(r.Status), assignedTo, plan,
			r.CreatedAt.Format(timeLayout), r.UpdatedAt.Format(timeLayout),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	filename := fmt.Sprintf("reports_%s_%s.xlsx", section, time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := f.Write(c.Writer); err != nil {
		log.WithError(err).Error("failed to write export spreadsheet")
	}
}
