package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification is the write-only sink for lifecycle and settlement events.
// Delivery (push/email) is handled by an external pipeline that drains this
// table; nothing in this core reads it back.
type Notification struct {
	gorm.Model

	RecipientKind string `gorm:"column:recipient_kind;size:32;index" json:"recipient_kind"` // user | organization | admin
	RecipientID   uint   `gorm:"column:recipient_id;index" json:"recipient_id"`

	Event      string         `gorm:"column:event;size:64;index" json:"event"`
	BookingRef string         `gorm:"column:booking_ref;size:16;index" json:"booking_ref,omitempty"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
}
