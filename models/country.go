package models

import "time"

// Country scopes commission and Connect-account creation. Seeded in config.
type Country struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Code     string `gorm:"column:code;size:2;uniqueIndex" json:"code"`
	Name     string `gorm:"column:name;size:100" json:"name"`
	Currency string `gorm:"column:currency;size:3" json:"currency"`

	// PlatformCommissionRate is a fraction of commissionable revenue, e.g. 0.05.
	PlatformCommissionRate float64 `gorm:"column:platform_commission_rate;default:0.05" json:"platform_commission_rate"`

	Supported bool `gorm:"column:supported;default:true" json:"supported"`
}
