package services

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mehdiasadli/yayago-application-sub000/models"
)

// NotificationService writes domain events for the external delivery pipeline.
// Emission is strictly fire-and-forget: a failed write is logged and swallowed
// so it can never fail the booking or settlement operation that triggered it.
type NotificationService struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewNotificationService(db *gorm.DB, logger *zap.Logger) *NotificationService {
	return &NotificationService{DB: db, log: logger}
}

func (s *NotificationService) Emit(recipientKind string, recipientID uint, event, bookingRef string, payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	// event id lets the delivery pipeline dedupe redeliveries
	payload["event_id"] = uuid.NewString()

	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("notification payload marshal failed", zap.String("event", event), zap.Error(err))
		raw = []byte("{}")
	}

	n := models.Notification{
		RecipientKind: recipientKind,
		RecipientID:   recipientID,
		Event:         event,
		BookingRef:    bookingRef,
		Payload:       datatypes.JSON(raw),
	}
	if err := s.DB.Create(&n).Error; err != nil {
		s.log.Warn("notification write failed",
			zap.String("event", event),
			zap.String("booking_ref", bookingRef),
			zap.Error(err),
		)
	}
}
