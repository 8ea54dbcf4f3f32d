package controllers

import (
	"strconv"

	"rescuenet/services"
	"rescuenet/utils"

	"github.com/gin-gonic/gin"
)

type HistoryController struct {
	historyService *services.HistoryService
}

func NewHistoryController(historyService *services.HistoryService) *HistoryController {
	return &HistoryController{historyService: historyService}
}

// Archive handles POST /history/archive
func (hc *HistoryController) Archive(c *gin.Context) {
	var req struct {
		AlertID string `json:"alertId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Alert ID is required")
		return
	}

	entry, err := hc.historyService.Archive(c.Request.Context(), req.AlertID)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to archive alert")
		return
	}

	utils.CreatedResponse(c, "Alert archived successfully", entry)
}

// GetUserHistory handles GET /history/user/:userId
func (hc *HistoryController) GetUserHistory(c *gin.Context) {
	userID := c.Param("userId")
	finalStatus := c.Query("status")

	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	response, err := hc.historyService.GetUserHistory(c.Request.Context(), userID, finalStatus, page, limit)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to retrieve alert history")
		return
	}

	utils.SuccessResponse(c, "Alert history retrieved successfully", response)
}

// GetEntry handles GET /history/:id
func (hc *HistoryController) GetEntry(c *gin.Context) {
	entryID := c.Param("id")

	entry, err := hc.historyService.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to retrieve history entry")
		return
	}

	utils.SuccessResponse(c, "History entry retrieved successfully", entry)
}

// DeleteEntry handles DELETE /history/:id
func (hc *HistoryController) DeleteEntry(c *gin.Context) {
	entryID := c.Param("id")

	if err := hc.historyService.DeleteEntry(c.Request.Context(), entryID); err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to delete history entry")
		return
	}

	utils.SuccessResponse(c, "History entry deleted successfully", nil)
}

// GetUserStats handles GET /history/user/:userId/stats
func (hc *HistoryController) GetUserStats(c *gin.Context) {
	userID := c.Param("userId")

	stats, err := hc.historyService.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to retrieve history statistics")
		return
	}

	utils.SuccessResponse(c, "History statistics retrieved successfully", stats)
}
