package controllers

import (
	"strconv"

	"rescuenet/models"
	"rescuenet/services"
	"rescuenet/utils"

	"github.com/gin-gonic/gin"
)

type AlertController struct {
	alertService    *services.AlertService
	locationService *services.LocationService
}

func NewAlertController(alertService *services.AlertService, locationService *services.LocationService) *AlertController {
	return &AlertController{
		alertService:    alertService,
		locationService: locationService,
	}
}

// CreateAlert handles POST /alerts
func (ac *AlertController) CreateAlert(c *gin.Context) {
	var req models.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format")
		return
	}

	alert, err := ac.alertService.CreateAlert(c.Request.Context(), req)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to create alert")
		return
	}

	utils.CreatedResponse(c, "Alert created successfully", alert)
}

// GetAlerts handles GET /alerts
func (ac *AlertController) GetAlerts(c *gin.Context) {
	filter := models.AlertFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.ParseInt(limitStr, 10, 64); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	response, err := ac.alertService.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to retrieve alerts")
		return
	}

	utils.SuccessResponse(c, "Alerts retrieved successfully", response)
}

// GetAlert handles GET /alerts/:id
func (ac *AlertController) GetAlert(c *gin.Context) {
	alertID := c.Param("id")

	alert, err := ac.alertService.GetAlert(c.Request.Context(), alertID)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to retrieve alert")
		return
	}

	utils.SuccessResponse(c, "Alert retrieved successfully", alert)
}

// GetUserAlerts handles GET /alerts/user/:userId
func (ac *AlertController) GetUserAlerts(c *gin.Context) {
	userID := c.Param("userId")

	alerts, err := ac.alertService.GetUserAlerts(c.Request.Context(), userID)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to retrieve user alerts")
		return
	}

	utils.SuccessResponse(c, "User alerts retrieved successfully", gin.H{
		"alerts": alerts,
		"total":  len(alerts),
	})
}

// UpdateStatus handles PATCH /alerts/:id/status
func (ac *AlertController) UpdateStatus(c *gin.Context) {
	alertID := c.Param("id")

	var req models.UpdateAlertStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format")
		return
	}

	alert, err := ac.alertService.UpdateStatus(c.Request.Context(), alertID, req)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to update alert status")
		return
	}

	utils.SuccessResponse(c, "Alert status updated successfully", alert)
}

// UpdateLocation handles PATCH /alerts/:id/location
func (ac *AlertController) UpdateLocation(c *gin.Context) {
	alertID := c.Param("id")

	var req models.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format")
		return
	}

	alert, err := ac.locationService.PushLocation(c.Request.Context(), alertID, req)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to update alert location")
		return
	}

	utils.SuccessResponse(c, "Location updated successfully", gin.H{
		"alert":              alert,
		"historyLength":      len(alert.LocationHistory),
		"lastLocationUpdate": alert.LastLocationUpdate,
	})
}

// MarkOffline handles PATCH /alerts/:id/offline
func (ac *AlertController) MarkOffline(c *gin.Context) {
	alertID := c.Param("id")

	alert, err := ac.locationService.MarkOffline(c.Request.Context(), alertID)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to mark alert offline")
		return
	}

	utils.SuccessResponse(c, "Alert marked offline", alert)
}

// GetStats handles GET /alerts/stats/summary
func (ac *AlertController) GetStats(c *gin.Context) {
	stats, err := ac.alertService.GetStats(c.Request.Context())
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to retrieve alert statistics")
		return
	}

	utils.SuccessResponse(c, "Alert statistics retrieved successfully", stats)
}
