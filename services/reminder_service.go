// services/reminder_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"visitbook-backend/models"
	"visitbook-backend/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	KindReminder     = "reminder"
	KindCancellation = "cancellation"

	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrRemindersDisabled   = errors.New("sms notifications are not enabled")
	ErrEmptyMessage        = errors.New("message text is required")
	ErrNoVisits            = errors.New("no visits found for this period")
)

type ReminderService struct {
	db      *gorm.DB
	gateway SMSGateway
}

func NewReminderService(db *gorm.DB, gateway SMSGateway) *ReminderService {
	return &ReminderService{db: db, gateway: gateway}
}

// StartScheduler runs the reminder workflow on the given cron spec.
func (s *ReminderService) StartScheduler(spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		s.SendDailyReminders(context.Background())
	}); err != nil {
		return nil, err
	}
	c.Start()
	log.Println("Reminder scheduler started")
	return c, nil
}

// CanAfford reports whether a balance covers count messages at the
// given per-message price.
func CanAfford(balanceCents, priceCents int64, count int) bool {
	return balanceCents >= priceCents*int64(count)
}

// SendDailyReminders runs one reminder batch per eligible account for
// visits scheduled tomorrow. Per-account failures are logged and
// skipped; they never abort the run.
func (s *ReminderService) SendDailyReminders(ctx context.Context) {
	log.Println("Starting daily reminder processing...")

	// Dates are compared in UTC everywhere: ParseDate yields UTC
	// midnight, so clock-derived dates must too.
	target := utils.Tomorrow(time.Now().UTC())

	var users []models.User
	if err := s.db.Find(&users, "sms_reminders = ? AND balance_cents > 0", true).Error; err != nil {
		log.Printf("Failed to fetch accounts: %v", err)
		return
	}

	for _, user := range users {
		if err := s.ProcessUserReminders(ctx, user, target); err != nil {
			log.Printf("Account %s: reminder batch failed: %v", user.ID, err)
		}
	}

	log.Println("Daily reminder processing completed")
}

// ProcessUserReminders selects the account's unnotified visits on the
// target date, checks affordability, dispatches and bills confirmed
// deliveries.
func (s *ReminderService) ProcessUserReminders(ctx context.Context, user models.User, target time.Time) error {
	visits, err := s.eligibleVisits(user.ID, target)
	if err != nil {
		return fmt.Errorf("select visits: %w", err)
	}
	if len(visits) == 0 {
		return nil
	}

	if !CanAfford(user.BalanceCents, user.SMSPriceCents, len(visits)) {
		log.Printf("Account %s: balance too low for %d reminders, skipping", user.ID, len(visits))
		return nil
	}

	msgs := s.buildMessages(visits, func(v models.Visit) string {
		return reminderText(user.BusinessName, v)
	})

	confirmed, err := s.dispatch(ctx, user, KindReminder, msgs)
	if err != nil {
		return err
	}

	return s.DebitBalance(user.ID, user.SMSPriceCents*int64(confirmed))
}

// SendCancellations notifies the owners of the given visits with the
// caller-supplied text. Billing covers confirmed deliveries only.
func (s *ReminderService) SendCancellations(ctx context.Context, user models.User, visits []models.Visit, text string) (int, error) {
	if err := s.ValidateCancellation(user, len(visits), text); err != nil {
		return 0, err
	}

	msgs := s.buildMessages(visits, func(models.Visit) string {
		return text
	})

	confirmed, err := s.dispatch(ctx, user, KindCancellation, msgs)
	if err != nil {
		return 0, err
	}

	return confirmed, s.DebitBalance(user.ID, user.SMSPriceCents*int64(confirmed))
}

// ValidateCancellation runs every pre-check of the cancellation flow
// before anything is deleted, sent or billed.
func (s *ReminderService) ValidateCancellation(user models.User, count int, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if !user.SMSReminders {
		return ErrRemindersDisabled
	}
	if !CanAfford(user.BalanceCents, user.SMSPriceCents, count) {
		return ErrInsufficientBalance
	}
	return nil
}

func (s *ReminderService) eligibleVisits(userID uuid.UUID, date time.Time) ([]models.Visit, error) {
	var visits []models.Visit
	err := s.db.
		Joins("JOIN clients ON clients.id = visits.client_id").
		Where("clients.user_id = ? AND visits.date = ? AND visits.reminder_sent_on IS NULL", userID, utils.BeginningOfDay(date)).
		Order("visits.time").
		Preload("Client").
		Find(&visits).Error
	return visits, err
}

type outgoingMessage struct {
	ClientID uuid.UUID
	VisitID  uuid.UUID
	Phone    string
	Text     string
}

func (s *ReminderService) buildMessages(visits []models.Visit, render func(models.Visit) string) []outgoingMessage {
	msgs := make([]outgoingMessage, 0, len(visits))
	for _, v := range visits {
		phone, err := utils.NormalizePhone(v.Client.PhoneNumber)
		if err != nil {
			log.Printf("Client %s: %v, skipping", v.ClientID, err)
			continue
		}
		msgs = append(msgs, outgoingMessage{
			ClientID: v.ClientID,
			VisitID:  v.ID,
			Phone:    phone,
			Text:     render(v),
		})
	}
	return msgs
}

func reminderText(businessName string, v models.Visit) string {
	return fmt.Sprintf("Hello!\nWe would like to remind you about the visit on %s, %d.%d in the %s",
		v.Time, v.Date.Day(), int(v.Date.Month()), businessName)
}

// batchSession owns the gateway token for the duration of one batch.
type batchSession struct {
	gateway SMSGateway
	token   string
}

func newBatchSession(ctx context.Context, gateway SMSGateway) (*batchSession, error) {
	token, err := gateway.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return &batchSession{gateway: gateway, token: token}, nil
}

// deliver attempts one send. When the gateway rejects the token it
// re-authenticates and retries exactly once; the retried outcome is
// final for this message.
func (b *batchSession) deliver(ctx context.Context, to, text string) (bool, error) {
	result, err := b.gateway.Send(ctx, b.token, to, text)
	if result == TokenRejected {
		token, authErr := b.gateway.Authenticate(ctx)
		if authErr != nil {
			return false, authErr
		}
		b.token = token
		result, err = b.gateway.Send(ctx, b.token, to, text)
	}
	if result == Delivered {
		return true, nil
	}
	if err == nil {
		err = errors.New("gateway rejected session token")
	}
	return false, err
}

// dispatch drives the batch. An authentication failure abandons the
// whole batch before any send; per-message failures only reduce the
// confirmed count. Every attempt is written to the notification log.
func (s *ReminderService) dispatch(ctx context.Context, user models.User, kind string, msgs []outgoingMessage) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}

	session, err := newBatchSession(ctx, s.gateway)
	if err != nil {
		return 0, err
	}

	confirmed := 0
	for _, m := range msgs {
		delivered, sendErr := session.deliver(ctx, m.Phone, m.Text)

		status := StatusDelivered
		errorMsg := ""
		if delivered {
			confirmed++
		} else {
			status = StatusFailed
			errorMsg = sendErr.Error()
			log.Printf("Failed to send %s to %s: %v", kind, m.Phone, sendErr)
		}

		entry := models.NotificationLog{
			UserID:       user.ID,
			ClientID:     m.ClientID,
			VisitID:      m.VisitID,
			Kind:         kind,
			Message:      m.Text,
			PhoneNumber:  m.Phone,
			Status:       status,
			ErrorMessage: errorMsg,
			SentAt:       time.Now(),
		}
		if err := s.db.Create(&entry).Error; err != nil {
			log.Printf("Failed to log %s for client %s: %v", kind, m.ClientID, err)
		}

		if delivered && kind == KindReminder {
			stamp := utils.BeginningOfDay(time.Now().UTC())
			if err := s.db.Model(&models.Visit{}).Where("id = ?", m.VisitID).
				Update("reminder_sent_on", stamp).Error; err != nil {
				log.Printf("Failed to mark visit %s as notified: %v", m.VisitID, err)
			}
		}
	}

	return confirmed, nil
}

// DebitBalance charges an account for confirmed deliveries. The row is
// locked for the duration of the transaction, so concurrent runs over
// the same account serialize and the balance can never go negative.
func (s *ReminderService) DebitBalance(userID uuid.UUID, amountCents int64) error {
	if amountCents == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		if user.BalanceCents < amountCents {
			return ErrInsufficientBalance
		}
		return tx.Model(&user).Update("balance_cents", user.BalanceCents-amountCents).Error
	})
}

// CreditBalance tops up an account.
func (s *ReminderService) CreditBalance(userID uuid.UUID, amountCents int64) error {
	if amountCents == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		return tx.Model(&user).Update("balance_cents", user.BalanceCents+amountCents).Error
	})
}
