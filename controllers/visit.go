package controllers

import (
	"errors"
	"net/http"
	"time"
	"visitbook-backend/config"
	"visitbook-backend/models"
	"visitbook-backend/services"
	"visitbook-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reminders drives SMS dispatch for the cancellation flow. Set once in
// main after the gateway client is constructed.
var Reminders *services.ReminderService

// CreateVisitInput defines the expected JSON structure for creating a visit
type CreateVisitInput struct {
	ClientID string `json:"clientId" binding:"required"`
	Date     string `json:"date" binding:"required"` // "YYYY-MM-DD"
	Time     string `json:"time" binding:"required"` // "HH:MM"
	Notes    string `json:"notes"`
}

// UpdateVisitInput defines the expected JSON structure for updating a visit
type UpdateVisitInput struct {
	ClientID *string `json:"clientId"`
	Date     *string `json:"date"`
	Time     *string `json:"time"`
	Notes    *string `json:"notes"`
}

// CancelVisitsInput defines the bulk-cancellation form
type CancelVisitsInput struct {
	FromDate    string `json:"fromDate" binding:"required"`
	ToDate      string `json:"toDate" binding:"required"`
	SendSMS     bool   `json:"sendSms"`
	TextMessage string `json:"textMessage"`
}

// ownedClient loads a client and verifies it belongs to the account.
func ownedClient(userUUID, clientUUID uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := config.DB.Where("user_id = ? AND id = ?", userUUID, clientUUID).First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func CreateVisit(c *gin.Context) {
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

	var input CreateVisitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	clientUUID, err := uuid.Parse(input.ClientID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	date, err := utils.ParseDate(input.Date)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	if _, err := ownedClient(userUUID, clientUUID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	visit := models.Visit{
		ClientID: clientUUID,
		Date:     date,
		Time:     input.Time,
		Notes:    input.Notes,
	}

	if err := config.DB.Create(&visit).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create visit")
		return
	}

	c.JSON(http.StatusCreated, visit)
}

// GetVisits lists the account's visits for one day (?date=YYYY-MM-DD,
// defaults to today), ordered by time.
func GetVisits(c *gin.Context) {
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

	date := utils.BeginningOfDay(time.Now().UTC())
	if d := c.Query("date"); d != "" {
		parsed, err := utils.ParseDate(d)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	var visits []models.Visit
	if err := config.DB.
		Joins("JOIN clients ON clients.id = visits.client_id").
		Where("clients.user_id = ? AND visits.date = ?", userUUID, date).
		Order("visits.time").
		Preload("Client").
		Find(&visits).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve visits")
		return
	}

	c.JSON(http.StatusOK, visits)
}

func GetVisit(c *gin.Context) {
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

	visitUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid visit ID format")
		return
	}

	var visit models.Visit
	if err := config.DB.
		Joins("JOIN clients ON clients.id = visits.client_id").
		Where("clients.user_id = ? AND visits.id = ?", userUUID, visitUUID).
		Preload("Client").
		First(&visit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Visit not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, visit)
}

func UpdateVisit(c *gin.Context) {
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

	visitUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid visit ID format")
		return
	}

	var input UpdateVisitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var visit models.Visit
	if err := config.DB.
		Joins("JOIN clients ON clients.id = visits.client_id").
		Where("clients.user_id = ? AND visits.id = ?", userUUID, visitUUID).
		First(&visit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Visit not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.ClientID != nil {
		clientUUID, err := uuid.Parse(*input.ClientID)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
			return
		}
		if _, err := ownedClient(userUUID, clientUUID); err != nil {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
			return
		}
		visit.ClientID = clientUUID
	}
	if input.Date != nil {
		date, err := utils.ParseDate(*input.Date)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		visit.Date = date
	}
	if input.Time != nil {
		visit.Time = *input.Time
	}
	if input.Notes != nil {
		visit.Notes = *input.Notes
	}

	if err := config.DB.Save(&visit).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update visit")
		return
	}

	c.JSON(http.StatusOK, visit)
}

func DeleteVisit(c *gin.Context) {
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

	visitUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid visit ID format")
		return
	}

	result := config.DB.
		Where("id = ? AND client_id IN (?)", visitUUID,
			config.DB.Model(&models.Client{}).Select("id").Where("user_id = ?", userUUID)).
		Delete(&models.Visit{})

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete visit")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Visit not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Visit deleted successfully"})
}

// CancelVisits deletes all visits in an inclusive date range and
// optionally notifies the affected clients by SMS. Every validation
// failure rejects the whole action: nothing is deleted, sent or billed.
func CancelVisits(c *gin.Context) {
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

	var input CancelVisitsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	fromDate, err := utils.ParseDate(input.FromDate)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid fromDate, expected YYYY-MM-DD")
		return
	}
	toDate, err := utils.ParseDate(input.ToDate)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid toDate, expected YYYY-MM-DD")
		return
	}
	if toDate.Before(fromDate) {
		utils.RespondWithError(c, http.StatusUnprocessableEntity, "toDate must not be before fromDate")
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", userUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var visits []models.Visit
	if err := config.DB.
		Joins("JOIN clients ON clients.id = visits.client_id").
		Where("clients.user_id = ? AND visits.date BETWEEN ? AND ?", userUUID, fromDate, toDate).
		Preload("Client").
		Find(&visits).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve visits")
		return
	}

	if len(visits) == 0 {
		utils.RespondWithError(c, http.StatusUnprocessableEntity, cancelErrorMessage(services.ErrNoVisits))
		return
	}

	if input.SendSMS {
		if err := Reminders.ValidateCancellation(user, len(visits), input.TextMessage); err != nil {
			utils.RespondWithError(c, http.StatusUnprocessableEntity, cancelErrorMessage(err))
			return
		}
	}

	ids := make([]uuid.UUID, 0, len(visits))
	for _, v := range visits {
		ids = append(ids, v.ID)
	}
	if err := config.DB.Delete(&models.Visit{}, "id IN ?", ids).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to cancel visits")
		return
	}

	notified := 0
	if input.SendSMS {
		confirmed, err := Reminders.SendCancellations(c.Request.Context(), user, visits, input.TextMessage)
		if err != nil {
			// Visits are already cancelled at this point; report the
			// notification failure without undoing the cancellation.
			c.JSON(http.StatusOK, gin.H{
				"cancelled": len(visits),
				"notified":  confirmed,
				"smsError":  err.Error(),
			})
			return
		}
		notified = confirmed
	}

	c.JSON(http.StatusOK, gin.H{
		"cancelled": len(visits),
		"notified":  notified,
	})
}

func cancelErrorMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		return "Text message is required when sending SMS"
	case errors.Is(err, services.ErrRemindersDisabled):
		return "SMS notifications are not enabled for this account"
	case errors.Is(err, services.ErrInsufficientBalance):
		return "Insufficient balance to notify all clients"
	case errors.Is(err, services.ErrNoVisits):
		return "No visits found for this period"
	default:
		return err.Error()
	}
}
