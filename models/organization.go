package models

import (
	"time"

	"gorm.io/gorm"
)

// Organization is the rental partner aggregate. The payout-side columns are
// owned by the Connect lifecycle manager and read by the settlement engine;
// everything else is written by the (out of scope) onboarding flows.
type Organization struct {
	gorm.Model

	Name  string `gorm:"column:name;size:255" json:"name"`
	Email string `gorm:"column:email;size:150" json:"email"`

	CountryID uint    `gorm:"column:country_id;index" json:"country_id"`
	Country   Country `gorm:"foreignKey:CountryID;references:ID" json:"country,omitempty"`

	// StripeAccountID is nil until a Connect account has been created.
	StripeAccountID       *string    `gorm:"column:stripe_account_id;size:64;index" json:"stripeAccountId,omitempty"`
	StripeAccountStatus   string     `gorm:"column:stripe_account_status;size:32" json:"stripeAccountStatus,omitempty"`
	ChargesEnabled        bool       `gorm:"column:charges_enabled;default:false" json:"chargesEnabled"`
	PayoutsEnabled        bool       `gorm:"column:payouts_enabled;default:false" json:"payoutsEnabled"`
	DetailsSubmitted      bool       `gorm:"column:details_submitted;default:false" json:"detailsSubmitted"`
	OnboardingCompletedAt *time.Time `gorm:"column:onboarding_completed_at" json:"onboardingCompletedAt,omitempty"`
}

// OrganizationMember links platform users to a partner organization.
// Membership is what authorizes partner-side booking operations.
type OrganizationMember struct {
	gorm.Model

	OrganizationID uint   `gorm:"column:organization_id;index;uniqueIndex:idx_org_member" json:"organization_id"`
	UserID         uint   `gorm:"column:user_id;index;uniqueIndex:idx_org_member" json:"user_id"`
	Role           string `gorm:"column:role;size:32;default:'member'" json:"role"`

	Organization Organization `gorm:"foreignKey:OrganizationID;references:ID" json:"organization,omitempty"`
	User         User         `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}
