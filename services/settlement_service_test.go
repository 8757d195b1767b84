package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mehdiasadli/yayago-application-sub000/models"
	"github.com/mehdiasadli/yayago-application-sub000/payments"
)

func newSettlementService(db *gorm.DB, proc payments.Processor) *SettlementService {
	log := zap.NewNop()
	connect := NewConnectService(db, proc, nil, "https://app.test/refresh", "https://app.test/return", log)
	return NewSettlementService(db, proc, connect, NewNotificationService(db, log), 0.10, log)
}

func enablePayouts(t *testing.T, db *gorm.DB, orgID uint, accountID string) {
	t.Helper()
	require.NoError(t, db.Model(&models.Organization{}).Where("id = ?", orgID).Updates(map[string]interface{}{
		"stripe_account_id":     accountID,
		"stripe_account_status": "enabled",
		"charges_enabled":       true,
		"payouts_enabled":       true,
		"details_submitted":     true,
	}).Error)
}

func seedCompletedBooking(t *testing.T, db *gorm.DB, fx fixtures, ref string) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ReferenceCode:   ref,
		ListingID:       fx.Listing.ID,
		UserID:          fx.Renter.ID,
		StartDate:       date(2026, 5, 1),
		EndDate:         date(2026, 5, 4),
		Days:            3,
		Currency:        "AED",
		BasePrice:       300,
		DepositHeld:     500,
		TotalPrice:      300,
		Status:          models.BookingCompleted,
		PaymentStatus:   models.PaymentPaid,
		PaymentIntentID: "pi_123",
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

func TestProcessTripPayout(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixtures(t, db)
	enablePayouts(t, db, fx.Org.ID, "acct_partner")
	proc := &fakeProcessor{}
	svc := newSettlementService(db, proc)

	booking := seedCompletedBooking(t, db, fx, "YAYA-5001")

	result, err := svc.ProcessTripPayout(context.Background(), booking.ID)
	require.NoError(t, err)

	// 5% of the 300 AED rental revenue; the deposit is excluded
	assert.Equal(t, 15.0, result.PlatformCommission)
	assert.Equal(t, 285.0, result.PartnerPayoutAmount)
	assert.True(t, result.PartnerPaid)
	assert.True(t, result.DepositRefunded)

	require.Len(t, proc.transfers, 1)
	transfer := proc.transfers[0]
	assert.EqualValues(t, 28500, transfer.AmountCents)
	assert.Equal(t, "AED", transfer.Currency)
	assert.Equal(t, "acct_partner", transfer.DestinationAccountID)
	assert.Equal(t, "YAYA-5001", transfer.Reference)
	assert.Equal(t, "partner-payout-YAYA-5001", transfer.IdempotencyKey)

	require.Len(t, proc.refunds, 1)
	refund := proc.refunds[0]
	assert.Equal(t, "ch_pi_123", refund.ChargeID)
	assert.EqualValues(t, 50000, refund.AmountCents)
	assert.Equal(t, "deposit-refund-YAYA-5001", refund.IdempotencyKey)

	var stored models.Booking
	require.NoError(t, db.First(&stored, booking.ID).Error)
	require.NotNil(t, stored.Settlement.PartnerPayoutStatus)
	assert.Equal(t, models.PayoutStatusPaid, *stored.Settlement.PartnerPayoutStatus)
	require.NotNil(t, stored.Settlement.PlatformCommission)
	assert.Equal(t, 15.0, *stored.Settlement.PlatformCommission)
	require.NotNil(t, stored.Settlement.PartnerPayoutAmount)
	assert.Equal(t, 285.0, *stored.Settlement.PartnerPayoutAmount)
	require.NotNil(t, stored.Settlement.DepositRefundStatus)
	assert.Equal(t, models.RefundStatusRefunded, *stored.Settlement.DepositRefundStatus)
	assert.NotNil(t, stored.Settlement.PartnerPaidAt)
	assert.NotNil(t, stored.Settlement.DepositRefundedAt)
	assert.Equal(t, models.PaymentPartiallyRefunded, stored.PaymentStatus)

	t.Run("second call settles nothing twice", func(t *testing.T) {
		_, err := svc.ProcessTripPayout(context.Background(), booking.ID)
		assert.ErrorIs(t, err, ErrAlreadySettled)
		assert.Len(t, proc.transfers, 1)
		assert.Len(t, proc.refunds, 1)

		var again models.Booking
		require.NoError(t, db.First(&again, booking.ID).Error)
		require.NotNil(t, again.Settlement.PartnerPayoutAmount)
		assert.Equal(t, 285.0, *again.Settlement.PartnerPayoutAmount)
	})
}

func TestProcessTripPayoutPreconditions(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixtures(t, db)
	proc := &fakeProcessor{}
	svc := newSettlementService(db, proc)

	t.Run("unknown booking", func(t *testing.T) {
		_, err := svc.ProcessTripPayout(context.Background(), 9999)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("booking not completed", func(t *testing.T) {
		b := seedBookingInStatus(t, db, fx, "YAYA-6001", models.BookingActive)
		_, err := svc.ProcessTripPayout(context.Background(), b.ID)
		assert.ErrorIs(t, err, ErrNotCompleted)
	})

	t.Run("organization without payout destination", func(t *testing.T) {
		b := seedCompletedBooking(t, db, fx, "YAYA-6002")
		_, err := svc.ProcessTripPayout(context.Background(), b.ID)
		assert.ErrorIs(t, err, ErrPayoutSetupIncomplete)
		assert.Empty(t, proc.transfers)

		// a precondition failure leaves the guard untouched
		var stored models.Booking
		require.NoError(t, db.First(&stored, b.ID).Error)
		assert.Nil(t, stored.Settlement.PartnerPayoutStatus)
	})

	t.Run("payouts disabled on the account", func(t *testing.T) {
		require.NoError(t, db.Model(&models.Organization{}).Where("id = ?", fx.Org.ID).Updates(map[string]interface{}{
			"stripe_account_id": "acct_partner",
			"payouts_enabled":   false,
		}).Error)
		b := seedCompletedBooking(t, db, fx, "YAYA-6003")
		_, err := svc.ProcessTripPayout(context.Background(), b.ID)
		assert.ErrorIs(t, err, ErrPayoutSetupIncomplete)
	})
}

func TestProcessTripPayoutRefundFailureDoesNotBlockPayout(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixtures(t, db)
	enablePayouts(t, db, fx.Org.ID, "acct_partner")
	proc := &fakeProcessor{refundErr: &payments.Error{Op: "refund", Code: payments.ErrCodeUnavailable}}
	svc := newSettlementService(db, proc)

	booking := seedCompletedBooking(t, db, fx, "YAYA-7001")

	result, err := svc.ProcessTripPayout(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.False(t, result.DepositRefunded)
	assert.Equal(t, models.RefundStatusFailed, result.DepositRefundStatus)
	assert.True(t, result.PartnerPaid)
	assert.Len(t, proc.transfers, 1)

	var stored models.Booking
	require.NoError(t, db.First(&stored, booking.ID).Error)
	require.NotNil(t, stored.Settlement.DepositRefundStatus)
	assert.Equal(t, models.RefundStatusFailed, *stored.Settlement.DepositRefundStatus)
	// rental revenue stayed collected, no partial refund happened
	assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)
}

func TestProcessTripPayoutRetryAfterFailedTransfer(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixtures(t, db)
	enablePayouts(t, db, fx.Org.ID, "acct_partner")
	proc := &fakeProcessor{transferErr: &payments.Error{Op: "transfer", Code: payments.ErrCodeUnknown}}
	svc := newSettlementService(db, proc)

	booking := seedCompletedBooking(t, db, fx, "YAYA-7002")

	result, err := svc.ProcessTripPayout(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.False(t, result.PartnerPaid)
	assert.Equal(t, models.PayoutStatusFailed, result.PartnerPayoutStatus)
	assert.True(t, result.DepositRefunded)

	// a failed leg re-opens the guard for the admin retry surface
	proc.transferErr = nil
	retried, err := svc.ProcessTripPayout(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.True(t, retried.PartnerPaid)

	require.Len(t, proc.refunds, 2)
	// the deterministic key makes the repeated refund a processor no-op
	assert.Equal(t, proc.refunds[0].IdempotencyKey, proc.refunds[1].IdempotencyKey)
}

func TestProcessTripPayoutCapabilitySelfHeal(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixtures(t, db)
	enablePayouts(t, db, fx.Org.ID, "acct_broken")
	proc := &fakeProcessor{
		transferErr:     &payments.Error{Op: "transfer", Code: payments.ErrCodeCapability, Msg: "transfers capability inactive"},
		transferErrOnce: true,
	}
	svc := newSettlementService(db, proc)

	booking := seedCompletedBooking(t, db, fx, "YAYA-7003")

	result, err := svc.ProcessTripPayout(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.True(t, result.PartnerPaid)

	// the transfer landed on a freshly provisioned replacement account
	require.Len(t, proc.transfers, 1)
	assert.Equal(t, "acct_test_1", proc.transfers[0].DestinationAccountID)

	var org models.Organization
	require.NoError(t, db.First(&org, fx.Org.ID).Error)
	require.NotNil(t, org.StripeAccountID)
	assert.Equal(t, "acct_test_1", *org.StripeAccountID)
}

func TestProcessTripPayoutUnknownOutcomeRecovery(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixtures(t, db)
	enablePayouts(t, db, fx.Org.ID, "acct_partner")
	proc := &fakeProcessor{
		transferErr: &payments.Error{Op: "transfer", Code: payments.ErrCodeUnavailable, Msg: "timeout"},
		findResult:  &payments.TransferResult{ID: "tr_landed_before_timeout"},
	}
	svc := newSettlementService(db, proc)

	booking := seedCompletedBooking(t, db, fx, "YAYA-7004")

	result, err := svc.ProcessTripPayout(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.True(t, result.PartnerPaid)
	assert.Equal(t, "tr_landed_before_timeout", result.PartnerPayoutID)

	var stored models.Booking
	require.NoError(t, db.First(&stored, booking.ID).Error)
	require.NotNil(t, stored.Settlement.PartnerPayoutID)
	assert.Equal(t, "tr_landed_before_timeout", *stored.Settlement.PartnerPayoutID)
}

func TestProcessTripPayoutZeroNet(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixtures(t, db)
	enablePayouts(t, db, fx.Org.ID, "acct_partner")
	proc := &fakeProcessor{}
	svc := newSettlementService(db, proc)

	booking := seedCompletedBooking(t, db, fx, "YAYA-7005")
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(map[string]interface{}{
		"base_price":  0.0,
		"total_price": 0.0,
	}).Error)

	result, err := svc.ProcessTripPayout(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.PartnerPayoutAmount)
	assert.Equal(t, models.PayoutStatusPaid, result.PartnerPayoutStatus)
	assert.Empty(t, proc.transfers, "no transfer for a zero net amount")
}
