package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mehdiasadli/yayago-application-sub000/models"
	"github.com/mehdiasadli/yayago-application-sub000/payments"
)

var (
	ErrOrganizationNotFound = errors.New("organization_not_found")
	ErrRegionUnsupported    = errors.New("region_unsupported")
	ErrNoConnectAccount     = errors.New("no_connect_account")
)

// ConnectService manages the partner's processor sub-account: creation,
// status sync, onboarding links, and recovery from capability
// misconfiguration. The settlement engine depends on it for a usable payout
// destination.
type ConnectService struct {
	DB        *gorm.DB
	processor payments.Processor
	log       *zap.Logger

	denied     map[string]bool
	refreshURL string
	returnURL  string
}

func NewConnectService(db *gorm.DB, processor payments.Processor, deniedCountries []string, refreshURL, returnURL string, logger *zap.Logger) *ConnectService {
	denied := make(map[string]bool, len(deniedCountries))
	for _, code := range deniedCountries {
		denied[strings.ToUpper(code)] = true
	}
	return &ConnectService{
		DB:         db,
		processor:  processor,
		log:        logger,
		denied:     denied,
		refreshURL: refreshURL,
		returnURL:  returnURL,
	}
}

// EnsureAccount returns the organization's Connect account id, creating one if
// none exists yet. Never creates a duplicate.
func (s *ConnectService) EnsureAccount(ctx context.Context, organizationID uint) (string, error) {
	org, err := s.loadOrganization(organizationID)
	if err != nil {
		return "", err
	}

	if org.StripeAccountID != nil && *org.StripeAccountID != "" {
		return *org.StripeAccountID, nil
	}

	// fail fast before touching the processor
	if s.denied[strings.ToUpper(org.Country.Code)] {
		return "", fmt.Errorf("%w: connect accounts are not yet supported in %s", ErrRegionUnsupported, org.Country.Name)
	}

	accountID, err := s.processor.CreateConnectAccount(ctx, payments.AccountInput{
		CountryCode: org.Country.Code,
		Email:       org.Email,
		Metadata:    map[string]string{"organization_id": fmt.Sprint(org.ID)},
	})
	if err != nil {
		return "", fmt.Errorf("create connect account for organization %d: %w", org.ID, err)
	}

	err = s.DB.Model(&models.Organization{}).Where("id = ?", org.ID).Updates(map[string]interface{}{
		"stripe_account_id":     accountID,
		"stripe_account_status": "pending",
		"charges_enabled":       false,
		"payouts_enabled":       false,
		"details_submitted":     false,
	}).Error
	if err != nil {
		return "", fmt.Errorf("persist connect account for organization %d: %w", org.ID, err)
	}

	s.log.Info("connect account created",
		zap.Uint("organization_id", org.ID),
		zap.String("account_id", accountID),
	)
	return accountID, nil
}

// GetStatus pulls the live account state from the processor and syncs it onto
// the organization record. The first time the account reaches "enabled" the
// onboarding completion timestamp is stamped.
func (s *ConnectService) GetStatus(ctx context.Context, organizationID uint) (*payments.AccountStatus, error) {
	org, err := s.loadOrganization(organizationID)
	if err != nil {
		return nil, err
	}
	if org.StripeAccountID == nil || *org.StripeAccountID == "" {
		return nil, fmt.Errorf("%w: organization %d", ErrNoConnectAccount, organizationID)
	}

	status, err := s.processor.GetConnectAccountStatus(ctx, *org.StripeAccountID)
	if err != nil {
		return nil, fmt.Errorf("get account status for organization %d: %w", organizationID, err)
	}

	updates := map[string]interface{}{
		"stripe_account_status": status.Status,
		"charges_enabled":       status.ChargesEnabled,
		"payouts_enabled":       status.PayoutsEnabled,
		"details_submitted":     status.DetailsSubmitted,
	}
	if status.Status == "enabled" && org.OnboardingCompletedAt == nil {
		updates["onboarding_completed_at"] = time.Now().UTC()
	}
	if err := s.DB.Model(&models.Organization{}).Where("id = ?", org.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("sync account status for organization %d: %w", organizationID, err)
	}

	return status, nil
}

// AccountLink creates a fresh onboarding link for the stored account.
func (s *ConnectService) AccountLink(ctx context.Context, organizationID uint) (string, error) {
	org, err := s.loadOrganization(organizationID)
	if err != nil {
		return "", err
	}
	if org.StripeAccountID == nil || *org.StripeAccountID == "" {
		return "", fmt.Errorf("%w: organization %d", ErrNoConnectAccount, organizationID)
	}

	url, err := s.processor.CreateAccountLink(ctx, *org.StripeAccountID, s.refreshURL, s.returnURL)
	if err != nil {
		return "", fmt.Errorf("create account link for organization %d: %w", organizationID, err)
	}
	return url, nil
}

// RecoverAccount drops a misconfigured account reference and provisions a
// fresh one. Called by the settlement engine's capability self-heal; the
// bounded retry (exactly once) lives with the caller.
func (s *ConnectService) RecoverAccount(ctx context.Context, organizationID uint) (string, error) {
	org, err := s.loadOrganization(organizationID)
	if err != nil {
		return "", err
	}

	if org.StripeAccountID != nil {
		s.log.Warn("clearing broken connect account",
			zap.Uint("organization_id", org.ID),
			zap.String("account_id", *org.StripeAccountID),
		)
	}

	err = s.DB.Model(&models.Organization{}).Where("id = ?", org.ID).Updates(map[string]interface{}{
		"stripe_account_id":       nil,
		"stripe_account_status":   "",
		"charges_enabled":         false,
		"payouts_enabled":         false,
		"details_submitted":       false,
		"onboarding_completed_at": nil,
	}).Error
	if err != nil {
		return "", fmt.Errorf("clear connect account for organization %d: %w", org.ID, err)
	}

	return s.EnsureAccount(ctx, organizationID)
}

func (s *ConnectService) loadOrganization(organizationID uint) (*models.Organization, error) {
	var org models.Organization
	if err := s.DB.Preload("Country").First(&org, organizationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("load organization %d: %w", organizationID, err)
	}
	return &org, nil
}
