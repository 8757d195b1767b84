package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mehdiasadli/yayago-application-sub000/models"
	"github.com/mehdiasadli/yayago-application-sub000/payments"
	"github.com/mehdiasadli/yayago-application-sub000/utils"
)

var (
	ErrNotCompleted          = errors.New("booking_not_completed")
	ErrAlreadySettled        = errors.New("already_settled")
	ErrPayoutSetupIncomplete = errors.New("payout_setup_incomplete")
	ErrMissingPaymentIntent  = errors.New("missing_payment_intent")
)

type SettlementResult struct {
	BookingID           uint    `json:"booking_id"`
	ReferenceCode       string  `json:"reference_code"`
	PlatformCommission  float64 `json:"platform_commission"`
	PartnerPayoutAmount float64 `json:"partner_payout_amount"`

	DepositRefunded     bool   `json:"deposit_refunded"`
	DepositRefundID     string `json:"deposit_refund_id,omitempty"`
	DepositRefundStatus string `json:"deposit_refund_status,omitempty"`

	PartnerPaid         bool   `json:"partner_paid"`
	PartnerPayoutID     string `json:"partner_payout_id,omitempty"`
	PartnerPayoutStatus string `json:"partner_payout_status,omitempty"`
}

// SettlementService turns a COMPLETED booking into two real money movements:
// the renter's deposit refund and the partner's net payout. The two legs hit
// different external accounts and fail independently; each records its own
// durable status so a reconciliation job can retry only the failed leg.
type SettlementService struct {
	DB        *gorm.DB
	processor payments.Processor
	connect   *ConnectService
	notifier  *NotificationService
	log       *zap.Logger

	// defaultRate applies when a country carries no commission rate.
	defaultRate float64
	callTimeout time.Duration
}

func NewSettlementService(db *gorm.DB, processor payments.Processor, connect *ConnectService, notifier *NotificationService, defaultRate float64, logger *zap.Logger) *SettlementService {
	return &SettlementService{
		DB:          db,
		processor:   processor,
		connect:     connect,
		notifier:    notifier,
		log:         logger,
		defaultRate: defaultRate,
		callTimeout: 45 * time.Second,
	}
}

// ProcessTripPayout settles one booking at most once. Safe to call
// concurrently or repeatedly: a conditional update on partner_payout_status
// acts as the compare-and-swap guard before any external call is issued.
func (s *SettlementService) ProcessTripPayout(ctx context.Context, bookingID uint) (*SettlementResult, error) {
	var booking models.Booking
	err := s.DB.
		Preload("Listing").
		Preload("Listing.Organization").
		Preload("Listing.Organization.Country").
		First(&booking, bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}

	if booking.Status != models.BookingCompleted {
		return nil, fmt.Errorf("%w: booking %s is %s", ErrNotCompleted, booking.ReferenceCode, booking.Status)
	}
	if st := booking.Settlement.PartnerPayoutStatus; st != nil && (*st == models.PayoutStatusPaid || *st == models.PayoutStatusProcessing) {
		return nil, fmt.Errorf("%w: booking %s payout is %s", ErrAlreadySettled, booking.ReferenceCode, *st)
	}

	org := booking.Listing.Organization
	// Precondition, not a processing error: nothing gets marked failed here.
	if org.StripeAccountID == nil || *org.StripeAccountID == "" || !org.PayoutsEnabled {
		return nil, fmt.Errorf("%w: organization %d has no usable payout destination", ErrPayoutSetupIncomplete, org.ID)
	}

	rate := org.Country.PlatformCommissionRate
	if rate <= 0 {
		rate = s.defaultRate
	}

	// Integer cents throughout; the deposit is refundable, not revenue.
	revenueCents := utils.ToCents(booking.BasePrice) +
		utils.ToCents(booking.AddonsTotal) +
		utils.ToCents(booking.DeliveryFee) +
		utils.ToCents(booking.TaxAmount)
	commissionCents, partnerNetCents := utils.SplitCommission(revenueCents, rate)

	// CAS guard: only an unattempted or previously failed settlement may
	// proceed. Concurrent retries lose here without touching the processor.
	res := s.DB.Model(&models.Booking{}).
		Where("id = ? AND status = ? AND (partner_payout_status IS NULL OR partner_payout_status = ?)",
			booking.ID, models.BookingCompleted, models.PayoutStatusFailed).
		Update("partner_payout_status", models.PayoutStatusProcessing)
	if res.Error != nil {
		return nil, fmt.Errorf("settlement guard for booking %d: %w", booking.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: booking %s", ErrAlreadySettled, booking.ReferenceCode)
	}

	result := &SettlementResult{
		BookingID:           booking.ID,
		ReferenceCode:       booking.ReferenceCode,
		PlatformCommission:  utils.FromCents(commissionCents),
		PartnerPayoutAmount: utils.FromCents(partnerNetCents),
	}

	// Computed facts persist regardless of how the legs end.
	updates := map[string]interface{}{
		"platform_commission":   utils.FromCents(commissionCents),
		"partner_payout_amount": utils.FromCents(partnerNetCents),
	}

	s.runDepositLeg(ctx, &booking, result, updates)
	s.runPayoutLeg(ctx, &booking, &org, partnerNetCents, result, updates)

	if err := s.DB.Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("persist settlement for booking %d: %w", booking.ID, err)
	}

	s.notifier.Emit("organization", org.ID, "settlement.processed", booking.ReferenceCode, map[string]interface{}{
		"booking_id":            booking.ID,
		"platform_commission":   result.PlatformCommission,
		"partner_payout_amount": result.PartnerPayoutAmount,
		"partner_payout_status": result.PartnerPayoutStatus,
		"deposit_refund_status": result.DepositRefundStatus,
	})

	return result, nil
}

// runDepositLeg refunds the held deposit. A failure is recorded and does not
// block the payout leg.
func (s *SettlementService) runDepositLeg(ctx context.Context, booking *models.Booking, result *SettlementResult, updates map[string]interface{}) {
	if booking.DepositHeld <= 0 {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	refundID, err := s.refundDeposit(cctx, booking)
	if err != nil {
		s.log.Error("deposit refund failed",
			zap.String("reference", booking.ReferenceCode),
			zap.Error(err),
		)
		settlementLegs.WithLabelValues("deposit_refund", "failed").Inc()
		result.DepositRefundStatus = models.RefundStatusFailed
		updates["deposit_refund_status"] = models.RefundStatusFailed
		return
	}

	now := time.Now().UTC()
	settlementLegs.WithLabelValues("deposit_refund", "refunded").Inc()
	result.DepositRefunded = true
	result.DepositRefundID = refundID
	result.DepositRefundStatus = models.RefundStatusRefunded
	updates["deposit_refund_status"] = models.RefundStatusRefunded
	updates["deposit_refund_id"] = refundID
	updates["deposit_refunded_at"] = now
	// rental revenue stays collected, only the deposit goes back
	updates["payment_status"] = models.PaymentPartiallyRefunded
}

func (s *SettlementService) refundDeposit(ctx context.Context, booking *models.Booking) (string, error) {
	if booking.PaymentIntentID == "" {
		return "", fmt.Errorf("%w: booking %s", ErrMissingPaymentIntent, booking.ReferenceCode)
	}
	chargeID, err := s.processor.ChargeIDFromPaymentIntent(ctx, booking.PaymentIntentID)
	if err != nil {
		return "", err
	}

	refund, err := s.processor.CreateRefund(ctx, payments.RefundInput{
		ChargeID:    chargeID,
		AmountCents: utils.ToCents(booking.DepositHeld),
		Reason:      "requested_by_customer",
		Metadata: map[string]string{
			"booking_id":  fmt.Sprint(booking.ID),
			"booking_ref": booking.ReferenceCode,
			"kind":        "deposit_release",
		},
		// deterministic key: a retried leg can never double-refund
		IdempotencyKey: fmt.Sprintf("deposit-refund-%s", booking.ReferenceCode),
	})
	if err != nil {
		return "", err
	}
	return refund.ID, nil
}

// runPayoutLeg transfers the partner net. Capability errors trigger the
// Connect self-heal exactly once; an unknown outcome (timeout) is resolved by
// re-querying the processor for a transfer tagged with the booking reference
// before the leg is declared failed.
func (s *SettlementService) runPayoutLeg(ctx context.Context, booking *models.Booking, org *models.Organization, partnerNetCents int64, result *SettlementResult, updates map[string]interface{}) {
	if partnerNetCents <= 0 {
		// nothing to move; the guard column still records the run
		result.PartnerPayoutStatus = models.PayoutStatusPaid
		updates["partner_payout_status"] = models.PayoutStatusPaid
		updates["partner_paid_at"] = time.Now().UTC()
		return
	}

	transferID, err := s.issueTransfer(ctx, booking, *org.StripeAccountID, partnerNetCents)

	if err != nil && payments.IsCapability(err) {
		transferID, err = s.retryAfterSelfHeal(ctx, booking, org, partnerNetCents, err)
	}
	if err != nil && payments.IsUnavailable(err) {
		// unknown outcome: the transfer may have landed before the timeout
		if existing := s.lookupExistingTransfer(ctx, booking.ReferenceCode); existing != "" {
			transferID, err = existing, nil
		}
	}

	if err != nil {
		s.log.Error("partner payout failed",
			zap.String("reference", booking.ReferenceCode),
			zap.Int64("amount_cents", partnerNetCents),
			zap.Error(err),
		)
		settlementLegs.WithLabelValues("partner_payout", "failed").Inc()
		result.PartnerPayoutStatus = models.PayoutStatusFailed
		updates["partner_payout_status"] = models.PayoutStatusFailed
		return
	}

	now := time.Now().UTC()
	settlementLegs.WithLabelValues("partner_payout", "paid").Inc()
	result.PartnerPaid = true
	result.PartnerPayoutID = transferID
	result.PartnerPayoutStatus = models.PayoutStatusPaid
	updates["partner_payout_status"] = models.PayoutStatusPaid
	updates["partner_payout_id"] = transferID
	updates["partner_paid_at"] = now
}

func (s *SettlementService) issueTransfer(ctx context.Context, booking *models.Booking, destination string, amountCents int64) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	transfer, err := s.processor.CreateTransfer(cctx, payments.TransferInput{
		AmountCents:          amountCents,
		Currency:             booking.Currency,
		DestinationAccountID: destination,
		Reference:            booking.ReferenceCode,
		Metadata: map[string]string{
			"booking_id":  fmt.Sprint(booking.ID),
			"booking_ref": booking.ReferenceCode,
			"kind":        "partner_payout",
		},
		IdempotencyKey: fmt.Sprintf("partner-payout-%s", booking.ReferenceCode),
	})
	if err != nil {
		return "", err
	}
	return transfer.ID, nil
}

// retryAfterSelfHeal asks the Connect manager for a replacement account and
// retries the transfer exactly once. A second failure surfaces to the caller.
func (s *SettlementService) retryAfterSelfHeal(ctx context.Context, booking *models.Booking, org *models.Organization, amountCents int64, cause error) (string, error) {
	s.log.Warn("payout hit a capability error, recreating connect account",
		zap.String("reference", booking.ReferenceCode),
		zap.Uint("organization_id", org.ID),
		zap.Error(cause),
	)

	accountID, healErr := s.connect.RecoverAccount(ctx, org.ID)
	if healErr != nil {
		return "", fmt.Errorf("self-heal for organization %d: %w", org.ID, healErr)
	}
	org.StripeAccountID = &accountID

	return s.issueTransfer(ctx, booking, accountID, amountCents)
}

func (s *SettlementService) lookupExistingTransfer(ctx context.Context, reference string) string {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	existing, err := s.processor.FindTransferByReference(cctx, reference)
	if err != nil || existing == nil {
		return ""
	}
	s.log.Info("transfer found after unknown outcome, treating as paid",
		zap.String("reference", reference),
		zap.String("transfer_id", existing.ID),
	)
	return existing.ID
}
