package controllers

import (
	"net/http"
	"time"
	"visitbook-backend/config"
	"visitbook-backend/models"
	"visitbook-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DashboardOverview struct {
	TotalClients        int64                    `json:"totalClients"`
	VisitsToday         int64                    `json:"visitsToday"`
	VisitsTomorrow      int64                    `json:"visitsTomorrow"`
	BalanceCents        int64                    `json:"balanceCents"`
	RecentNotifications []models.NotificationLog `json:"recentNotifications"`
}

func GetDashboardOverview(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}
	userUUID, err := uuid.Parse(userID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", userUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	overview := DashboardOverview{BalanceCents: user.BalanceCents}

	config.DB.Model(&models.Client{}).
		Where("user_id = ?", userUUID).
		Count(&overview.TotalClients)

	today := utils.BeginningOfDay(time.Now().UTC())
	tomorrow := utils.Tomorrow(time.Now().UTC())

	config.DB.Model(&models.Visit{}).
		Joins("JOIN clients ON clients.id = visits.client_id").
		Where("clients.user_id = ? AND visits.date = ?", userUUID, today).
		Count(&overview.VisitsToday)

	config.DB.Model(&models.Visit{}).
		Joins("JOIN clients ON clients.id = visits.client_id").
		Where("clients.user_id = ? AND visits.date = ?", userUUID, tomorrow).
		Count(&overview.VisitsTomorrow)

	config.DB.
		Where("user_id = ?", userUUID).
		Order("sent_at DESC").
		Limit(5).
		Find(&overview.RecentNotifications)

	c.JSON(http.StatusOK, overview)
}
