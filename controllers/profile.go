package controllers

import (
	"net/http"
	"visitbook-backend/config"
	"visitbook-backend/models"
	"visitbook-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UpdateProfileInput struct {
	Name          *string `json:"name"`
	BusinessName  *string `json:"businessName"`
	SMSReminders  *bool   `json:"smsReminders"`
	SMSPriceCents *int64  `json:"smsPriceCents"`
}

type TopUpInput struct {
	AmountCents int64 `json:"amountCents" binding:"required,gt=0"`
}

func GetProfile(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":          user.Name,
		"email":         user.Email,
		"businessName":  user.BusinessName,
		"smsReminders":  user.SMSReminders,
		"smsPriceCents": user.SMSPriceCents,
		"balanceCents":  user.BalanceCents,
	})
}

func UpdateProfile(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.BusinessName != nil {
		user.BusinessName = *input.BusinessName
	}
	if input.SMSReminders != nil {
		user.SMSReminders = *input.SMSReminders
	}
	if input.SMSPriceCents != nil {
		if *input.SMSPriceCents < 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "SMS price must not be negative")
			return
		}
		user.SMSPriceCents = *input.SMSPriceCents
	}

	if err := config.DB.Save(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// TopUpBalance credits the prepaid SMS balance.
func TopUpBalance(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	userUUID, err := uuid.Parse(userID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return
	}

	var input TopUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if err := Reminders.CreditBalance(userUUID, input.AmountCents); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to top up balance")
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", userUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"balanceCents": user.BalanceCents})
}
