package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mehdiasadli/yayago-application-sub000/models"
	"github.com/mehdiasadli/yayago-application-sub000/utils"
)

var (
	ErrBookingNotFound    = errors.New("booking_not_found")
	ErrInvalidTransition  = errors.New("invalid_state_transition")
	ErrNotAuthorized      = errors.New("not_authorized")
	ErrListingUnavailable = errors.New("listing_unavailable")
	ErrOdometerRequired   = errors.New("odometer_required")
)

const refCodeMaxRetries = 5

type CreateBookingInput struct {
	ListingID       uint
	StartDate       time.Time
	EndDate         time.Time
	AddonIDs        []uint
	DeliveryTo      *Coordinates
	PaymentIntentID string
}

// BookingService owns the booking lifecycle. Every transition is applied as a
// compare-and-swap on the current status so two concurrent requests can never
// both succeed from the same source state.
type BookingService struct {
	DB         *gorm.DB
	pricing    *PricingService
	notifier   *NotificationService
	settlement *SettlementService
	log        *zap.Logger
}

func NewBookingService(db *gorm.DB, pricing *PricingService, settlement *SettlementService, notifier *NotificationService, logger *zap.Logger) *BookingService {
	return &BookingService{
		DB:         db,
		pricing:    pricing,
		settlement: settlement,
		notifier:   notifier,
		log:        logger,
	}
}

// Create validates availability, prices the range, and persists the booking.
// The listing row is locked FOR UPDATE inside the transaction, which
// serializes concurrent check-then-create sequences per listing and closes
// the double-booking race.
func (s *BookingService) Create(input CreateBookingInput, renterID uint) (*models.Booking, error) {
	if !input.StartDate.Before(input.EndDate) {
		return nil, ErrInvalidRange
	}

	var renter models.User
	if err := s.DB.First(&renter, renterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("validation: renter %d not found", renterID)
		}
		return nil, fmt.Errorf("db error checking renter: %w", err)
	}

	var created models.Booking
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		var listing models.Listing
		q := tx.Preload("Addons")
		if tx.Dialector.Name() == "mysql" {
			// sqlite (tests) has a single writer and rejects FOR UPDATE
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&listing, input.ListingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return fmt.Errorf("load listing %d: %w", input.ListingID, err)
		}
		if listing.Status != "active" {
			return ErrListingInactive
		}

		conflicts, err := conflictingBookingIDs(tx, listing.ID, input.StartDate, input.EndDate)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return fmt.Errorf("%w: conflicts with bookings %v", ErrListingUnavailable, conflicts)
		}

		breakdown, err := priceForListing(&listing, input.StartDate, input.EndDate, input.AddonIDs, input.DeliveryTo)
		if err != nil {
			return err
		}

		status := models.BookingPendingApproval
		if listing.InstantBook {
			status = models.BookingApproved
		}

		booking := models.Booking{
			ListingID:       listing.ID,
			UserID:          renterID,
			StartDate:       input.StartDate,
			EndDate:         input.EndDate,
			Timezone:        listing.Timezone,
			Days:            breakdown.Days,
			Currency:        breakdown.Currency,
			BasePrice:       breakdown.BasePrice,
			AddonsTotal:     breakdown.AddonsTotal,
			DeliveryFee:     breakdown.DeliveryFee,
			TaxAmount:       breakdown.TaxAmount,
			DepositHeld:     breakdown.DepositHeld,
			TotalPrice:      breakdown.TotalPrice,
			Status:          status,
			PaymentStatus:   models.PaymentNotPaid,
			PaymentIntentID: input.PaymentIntentID,
		}

		if err := createWithReferenceCode(tx, &booking); err != nil {
			return err
		}

		for _, line := range breakdown.AddonLines {
			ba := models.BookingAddon{
				BookingID: booking.ID,
				AddonID:   line.AddonID,
				Name:      line.Name,
				Price:     line.Price,
				PerDay:    line.PerDay,
				LineTotal: line.LineTotal,
			}
			if err := tx.Create(&ba).Error; err != nil {
				return fmt.Errorf("create booking addon: %w", err)
			}
		}

		created = booking
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	bookingsCreated.Inc()

	var result models.Booking
	if err := s.DB.Preload("Listing").Preload("User").Preload("Addons").First(&result, created.ID).Error; err != nil {
		return nil, err
	}

	s.notifier.Emit("organization", result.Listing.OrganizationID, "booking.created", result.ReferenceCode, map[string]interface{}{
		"booking_id": result.ID,
		"status":     string(result.Status),
		"start_date": result.StartDate.Format("2006-01-02"),
		"end_date":   result.EndDate.Format("2006-01-02"),
	})

	return &result, nil
}

// createWithReferenceCode inserts the booking, regenerating the reference on a
// duplicate-key error. After the short 4-digit space keeps colliding, the
// suffix widens to 8 digits.
func createWithReferenceCode(tx *gorm.DB, booking *models.Booking) error {
	var lastErr error
	for attempt := 0; attempt < refCodeMaxRetries; attempt++ {
		var code string
		var err error
		if attempt < refCodeMaxRetries-1 {
			code, err = utils.GenerateReferenceCode()
		} else {
			code, err = utils.GenerateLongReferenceCode()
		}
		if err != nil {
			return fmt.Errorf("generate reference code: %w", err)
		}
		booking.ReferenceCode = code

		lastErr = tx.Create(booking).Error
		if lastErr == nil {
			return nil
		}
		if !isDuplicateKeyError(lastErr) {
			return fmt.Errorf("create booking: %w", lastErr)
		}
		booking.ID = 0
	}
	return fmt.Errorf("create booking after %d reference retries: %w", refCodeMaxRetries, lastErr)
}

func isDuplicateKeyError(err error) bool {
	var myErr *mysqldrv.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	lc := strings.ToLower(err.Error())
	return strings.Contains(lc, "duplicate") || strings.Contains(lc, "unique")
}

// UpdateStatus applies one table-driven transition for approval, rejection,
// cancellation and dispute targets. ACTIVE and COMPLETED have dedicated
// operations because they carry trip facts.
func (s *BookingService) UpdateStatus(bookingID uint, target models.BookingStatus, actorID uint, reason string) (*models.Booking, error) {
	if target == models.BookingActive || target == models.BookingCompleted {
		return nil, fmt.Errorf("%w: %s requires the trip operation", ErrOdometerRequired, target)
	}

	booking, err := s.GetWithRelations(bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeTransition(booking, target, actorID); err != nil {
		return nil, err
	}
	if !models.CanTransition(booking.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, target)
	}

	updates := map[string]interface{}{"status": target}
	if err := s.transition(booking, target, updates); err != nil {
		return nil, err
	}

	s.emitTransition(booking, target, reason)
	return s.GetWithRelations(bookingID)
}

// StartTrip moves APPROVED -> ACTIVE, recording the pickup time and odometer.
// Partner-side members only.
func (s *BookingService) StartTrip(bookingID uint, startOdometer int, actorID uint) (*models.Booking, error) {
	booking, err := s.GetWithRelations(bookingID)
	if err != nil {
		return nil, err
	}
	if !s.isOrganizationMember(booking.Listing.OrganizationID, actorID) {
		return nil, fmt.Errorf("%w: trip start is a partner operation", ErrNotAuthorized)
	}
	if !models.CanTransition(booking.Status, models.BookingActive) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, models.BookingActive)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":             models.BookingActive,
		"actual_pickup_time": now,
		"start_odometer":     startOdometer,
	}
	if err := s.transition(booking, models.BookingActive, updates); err != nil {
		return nil, err
	}

	s.emitTransition(booking, models.BookingActive, "")
	return s.GetWithRelations(bookingID)
}

// CompleteTrip moves ACTIVE -> COMPLETED, records the return facts, and then
// triggers settlement. Settlement failures do not roll the completion back:
// the payout-status guard makes a later retry safe and at-most-once.
func (s *BookingService) CompleteTrip(ctx context.Context, bookingID uint, endOdometer int, actorID uint) (*models.Booking, error) {
	booking, err := s.GetWithRelations(bookingID)
	if err != nil {
		return nil, err
	}
	if !s.isOrganizationMember(booking.Listing.OrganizationID, actorID) {
		return nil, fmt.Errorf("%w: trip completion is a partner operation", ErrNotAuthorized)
	}
	if !models.CanTransition(booking.Status, models.BookingCompleted) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, models.BookingCompleted)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":             models.BookingCompleted,
		"actual_return_time": now,
		"end_odometer":       endOdometer,
	}
	if err := s.transition(booking, models.BookingCompleted, updates); err != nil {
		return nil, err
	}

	s.emitTransition(booking, models.BookingCompleted, "")

	if s.settlement != nil {
		if _, err := s.settlement.ProcessTripPayout(ctx, bookingID); err != nil {
			s.log.Error("settlement after trip completion failed",
				zap.Uint("booking_id", bookingID),
				zap.String("reference", booking.ReferenceCode),
				zap.Error(err),
			)
		}
	}

	return s.GetWithRelations(bookingID)
}

// Cancel is the renter-initiated cancellation, valid while the booking is
// still PENDING_APPROVAL or APPROVED.
func (s *BookingService) Cancel(bookingID, renterID uint, reason string) (*models.Booking, error) {
	return s.UpdateStatus(bookingID, models.BookingCancelledByUser, renterID, reason)
}

func (s *BookingService) GetWithRelations(bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.DB.
		Preload("Listing").
		Preload("Listing.Organization").
		Preload("User").
		Preload("Addons").
		First(&booking, bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	return &booking, nil
}

// transition performs the conditional update that makes the state machine safe
// under concurrency: the WHERE clause pins the expected source status, and
// zero affected rows means someone else transitioned first.
func (s *BookingService) transition(booking *models.Booking, target models.BookingStatus, updates map[string]interface{}) error {
	res := s.DB.Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, booking.Status).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("transition %s -> %s: %w", booking.Status, target, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: booking %d is no longer %s", ErrInvalidTransition, booking.ID, booking.Status)
	}
	bookingTransitions.WithLabelValues(string(target)).Inc()
	return nil
}

func (s *BookingService) authorizeTransition(booking *models.Booking, target models.BookingStatus, actorID uint) error {
	switch target {
	case models.BookingCancelledByUser:
		if booking.UserID != actorID {
			return fmt.Errorf("%w: only the renter can cancel their booking", ErrNotAuthorized)
		}
	case models.BookingApproved, models.BookingCancelledByHost:
		if !s.isOrganizationMember(booking.Listing.OrganizationID, actorID) {
			return fmt.Errorf("%w: approval and rejection are partner operations", ErrNotAuthorized)
		}
	case models.BookingDisputed:
		if booking.UserID != actorID && !s.isOrganizationMember(booking.Listing.OrganizationID, actorID) {
			return fmt.Errorf("%w: disputes are limited to the booking parties", ErrNotAuthorized)
		}
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, target)
	}
	return nil
}

func (s *BookingService) isOrganizationMember(organizationID, userID uint) bool {
	var count int64
	err := s.DB.Model(&models.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Count(&count).Error
	if err != nil {
		s.log.Warn("membership check failed", zap.Uint("organization_id", organizationID), zap.Error(err))
		return false
	}
	return count > 0
}

func (s *BookingService) emitTransition(booking *models.Booking, target models.BookingStatus, reason string) {
	payload := map[string]interface{}{
		"booking_id": booking.ID,
		"from":       string(booking.Status),
		"to":         string(target),
	}
	if reason != "" {
		payload["reason"] = reason
	}
	s.notifier.Emit("user", booking.UserID, "booking.status_changed", booking.ReferenceCode, payload)
	s.notifier.Emit("organization", booking.Listing.OrganizationID, "booking.status_changed", booking.ReferenceCode, payload)
}
