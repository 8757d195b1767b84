package models

import (
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPendingApproval BookingStatus = "PENDING_APPROVAL"
	BookingApproved        BookingStatus = "APPROVED"
	BookingActive          BookingStatus = "ACTIVE"
	BookingCompleted       BookingStatus = "COMPLETED"
	BookingCancelledByUser BookingStatus = "CANCELLED_BY_USER"
	BookingCancelledByHost BookingStatus = "CANCELLED_BY_HOST"
	BookingDisputed        BookingStatus = "DISPUTED"
)

type PaymentStatus string

const (
	PaymentNotPaid           PaymentStatus = "NOT_PAID"
	PaymentAuthorized        PaymentStatus = "AUTHORIZED"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// bookingTransitions is the server-enforced lifecycle table. Anything not
// listed here is an invalid transition.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPendingApproval: {BookingApproved, BookingCancelledByHost, BookingCancelledByUser},
	BookingApproved:        {BookingActive, BookingCancelledByUser, BookingCancelledByHost},
	BookingActive:          {BookingCompleted, BookingDisputed},
}

// CanTransition reports whether the lifecycle table allows from -> to.
func CanTransition(from, to BookingStatus) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelledByUser || s == BookingCancelledByHost
}

// HoldingStatuses are the statuses that reserve listing inventory for the
// booking's date range. Availability checks only consider these.
func HoldingStatuses() []BookingStatus {
	return []BookingStatus{BookingPendingApproval, BookingApproved, BookingActive}
}

// Payout / refund leg statuses persisted on the settlement sub-structure.
const (
	PayoutStatusProcessing = "processing"
	PayoutStatusPaid       = "paid"
	PayoutStatusFailed     = "failed"
	RefundStatusRefunded   = "refunded"
	RefundStatusFailed     = "failed"
)

// Settlement holds the write-once facts produced by trip settlement. All
// fields are nullable from creation: nil means "not yet attempted", a value
// means "attempted and recorded" (paid/refunded or failed).
type Settlement struct {
	PlatformCommission  *float64 `gorm:"column:platform_commission" json:"platformCommission,omitempty"`
	PartnerPayoutAmount *float64 `gorm:"column:partner_payout_amount" json:"partnerPayoutAmount,omitempty"`

	PartnerPayoutStatus *string    `gorm:"column:partner_payout_status;size:16" json:"partnerPayoutStatus,omitempty"`
	PartnerPayoutID     *string    `gorm:"column:partner_payout_id;size:64" json:"partnerPayoutId,omitempty"`
	PartnerPaidAt       *time.Time `gorm:"column:partner_paid_at" json:"partnerPaidAt,omitempty"`

	DepositRefundStatus *string    `gorm:"column:deposit_refund_status;size:16" json:"depositRefundStatus,omitempty"`
	DepositRefundID     *string    `gorm:"column:deposit_refund_id;size:64" json:"depositRefundId,omitempty"`
	DepositRefundedAt   *time.Time `gorm:"column:deposit_refunded_at" json:"depositRefundedAt,omitempty"`
}

type Booking struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ReferenceCode string `gorm:"column:reference_code;size:16;uniqueIndex" json:"reference_code"`

	ListingID uint    `gorm:"column:listing_id;index" json:"listing_id"`
	UserID    uint    `gorm:"column:user_id;index" json:"user_id"`
	Listing   Listing `gorm:"foreignKey:ListingID;references:ID" json:"listing,omitempty"`
	User      User    `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`

	// Date-only semantics, half-open [StartDate, EndDate).
	StartDate time.Time `gorm:"column:start_date;index" json:"start_date"`
	EndDate   time.Time `gorm:"column:end_date;index" json:"end_date"`
	Timezone  string    `gorm:"column:timezone;size:64" json:"timezone,omitempty"`
	Days      int       `gorm:"column:days" json:"days"`

	Currency    string  `gorm:"column:currency;size:3" json:"currency"`
	BasePrice   float64 `gorm:"column:base_price" json:"base_price"`
	AddonsTotal float64 `gorm:"column:addons_total" json:"addons_total"`
	DeliveryFee float64 `gorm:"column:delivery_fee" json:"delivery_fee"`
	TaxAmount   float64 `gorm:"column:tax_amount" json:"tax_amount"`
	// DepositHeld is refundable and excluded from commissionable revenue.
	DepositHeld float64 `gorm:"column:deposit_held" json:"deposit_held"`
	TotalPrice  float64 `gorm:"column:total_price" json:"total_price"`

	Status        BookingStatus `gorm:"column:status;size:32;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"column:payment_status;size:32" json:"payment_status"`

	// PaymentIntentID references the processor payment that holds the deposit.
	PaymentIntentID string `gorm:"column:payment_intent_id;size:64" json:"paymentIntentId,omitempty"`

	ActualPickupTime *time.Time `gorm:"column:actual_pickup_time" json:"actualPickupTime,omitempty"`
	ActualReturnTime *time.Time `gorm:"column:actual_return_time" json:"actualReturnTime,omitempty"`
	StartOdometer    *int       `gorm:"column:start_odometer" json:"startOdometer,omitempty"`
	EndOdometer      *int       `gorm:"column:end_odometer" json:"endOdometer,omitempty"`

	Settlement Settlement `gorm:"embedded" json:"settlement"`

	Addons []BookingAddon `gorm:"foreignKey:BookingID" json:"addons"`
}

// BookingAddon snapshots an addon line at booking time so later listing edits
// don't change historical totals.
type BookingAddon struct {
	gorm.Model

	BookingID uint    `gorm:"column:booking_id;index" json:"booking_id"`
	AddonID   uint    `gorm:"column:addon_id" json:"addon_id"`
	Name      string  `gorm:"column:name;size:100" json:"name"`
	Price     float64 `gorm:"column:price" json:"price"`
	PerDay    bool    `gorm:"column:per_day" json:"perDay"`
	LineTotal float64 `gorm:"column:line_total" json:"lineTotal"`
}
