package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mehdiasadli/yayago-application-sub000/models"
	"github.com/mehdiasadli/yayago-application-sub000/payments"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// one connection keeps every session on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Country{},
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Listing{},
		&models.Addon{},
		&models.Booking{},
		&models.BookingAddon{},
		&models.Notification{},
	))
	return db
}

type fixtures struct {
	Country models.Country
	Org     models.Organization
	Member  models.User
	Renter  models.User
	Listing models.Listing
}

func seedFixtures(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()

	country := models.Country{Code: "AE", Name: "United Arab Emirates", Currency: "AED", PlatformCommissionRate: 0.05, Supported: true}
	require.NoError(t, db.Create(&country).Error)

	org := models.Organization{Name: "Desert Wheels", Email: "fleet@desertwheels.test", CountryID: country.ID}
	require.NoError(t, db.Create(&org).Error)

	member := models.User{FullName: "Fleet Manager", Email: "manager@desertwheels.test"}
	require.NoError(t, db.Create(&member).Error)
	require.NoError(t, db.Create(&models.OrganizationMember{OrganizationID: org.ID, UserID: member.ID, Role: "owner"}).Error)

	renter := models.User{FullName: "Road Tripper", Email: "renter@example.test"}
	require.NoError(t, db.Create(&renter).Error)

	listing := models.Listing{
		OrganizationID: org.ID,
		Title:          "Nissan Patrol 2023",
		Status:         "active",
		Currency:       "AED",
		PricePerDay:    100,
		Timezone:       "Asia/Dubai",
		Latitude:       25.2048,
		Longitude:      55.2708,
	}
	require.NoError(t, db.Create(&listing).Error)

	return fixtures{Country: country, Org: org, Member: member, Renter: renter, Listing: listing}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newBookingService(db *gorm.DB, settlement *SettlementService) *BookingService {
	log := zap.NewNop()
	return NewBookingService(db, NewPricingService(db, log), settlement, NewNotificationService(db, log), log)
}

// fakeProcessor is an in-memory payments.Processor recording every call.
type fakeProcessor struct {
	mu sync.Mutex

	transfers []payments.TransferInput
	refunds   []payments.RefundInput

	transferErr     error
	transferErrOnce bool
	refundErr       error

	chargeID   string
	chargeErr  error
	findResult *payments.TransferResult

	accountSeq int
	status     *payments.AccountStatus
}

func (p *fakeProcessor) CreateTransfer(_ context.Context, in payments.TransferInput) (*payments.TransferResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transferErr != nil {
		err := p.transferErr
		if p.transferErrOnce {
			p.transferErr = nil
		}
		return nil, err
	}
	p.transfers = append(p.transfers, in)
	return &payments.TransferResult{ID: fmt.Sprintf("tr_test_%d", len(p.transfers))}, nil
}

func (p *fakeProcessor) CreateRefund(_ context.Context, in payments.RefundInput) (*payments.RefundResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	p.refunds = append(p.refunds, in)
	return &payments.RefundResult{ID: fmt.Sprintf("re_test_%d", len(p.refunds))}, nil
}

func (p *fakeProcessor) ChargeIDFromPaymentIntent(_ context.Context, paymentIntentID string) (string, error) {
	if p.chargeErr != nil {
		return "", p.chargeErr
	}
	if p.chargeID != "" {
		return p.chargeID, nil
	}
	return "ch_" + paymentIntentID, nil
}

func (p *fakeProcessor) FindTransferByReference(_ context.Context, _ string) (*payments.TransferResult, error) {
	return p.findResult, nil
}

func (p *fakeProcessor) CreateConnectAccount(_ context.Context, _ payments.AccountInput) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accountSeq++
	return fmt.Sprintf("acct_test_%d", p.accountSeq), nil
}

func (p *fakeProcessor) CreateAccountLink(_ context.Context, accountID, _, _ string) (string, error) {
	return "https://connect.stripe.test/setup/" + accountID, nil
}

func (p *fakeProcessor) GetConnectAccountStatus(_ context.Context, accountID string) (*payments.AccountStatus, error) {
	if p.status != nil {
		st := *p.status
		st.ID = accountID
		return &st, nil
	}
	return &payments.AccountStatus{ID: accountID, Status: "pending"}, nil
}
