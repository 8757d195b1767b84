package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mehdiasadli/yayago-application-sub000/models"
	"github.com/mehdiasadli/yayago-application-sub000/utils"
)

var (
	ErrInvalidRange        = errors.New("invalid_range")
	ErrListingNotFound     = errors.New("listing_not_found")
	ErrListingInactive     = errors.New("listing_inactive")
	ErrAddonNotFound       = errors.New("addon_not_found")
	ErrDeliveryUnavailable = errors.New("delivery_unavailable")
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type AddonLine struct {
	AddonID   uint    `json:"addon_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	PerDay    bool    `json:"per_day"`
	LineTotal float64 `json:"line_total"`
}

// PriceBreakdown mirrors the booking commercial fields. Computing one never
// mutates state.
type PriceBreakdown struct {
	Currency       string      `json:"currency"`
	Days           int         `json:"days"`
	BasePrice      float64     `json:"base_price"`
	AddonsTotal    float64     `json:"addons_total"`
	AddonLines     []AddonLine `json:"addon_lines,omitempty"`
	DeliveryFee    float64     `json:"delivery_fee"`
	DeliveryIsFree bool        `json:"delivery_is_free"`
	DistanceKm     float64     `json:"distance_km,omitempty"`
	TaxAmount      float64     `json:"tax_amount"`
	DepositHeld    float64     `json:"deposit_held"`
	TotalPrice     float64     `json:"total_price"`
}

type AvailabilityResult struct {
	Available             bool   `json:"available"`
	ConflictingBookingIDs []uint `json:"conflicting_booking_ids"`
}

type DeliveryQuote struct {
	Fee    float64 `json:"fee"`
	IsFree bool    `json:"is_free"`
}

type PricingService struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewPricingService(db *gorm.DB, logger *zap.Logger) *PricingService {
	return &PricingService{DB: db, log: logger}
}

// CalculateDays returns the billable day count for a range: ceil of the span
// in days, never less than 1 (start == end still bills one day).
func CalculateDays(start, end time.Time) int {
	hours := math.Abs(end.Sub(start).Hours())
	days := int(math.Ceil(hours / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// DeliveryFee prices a delivery. Inside the free radius the fee is exactly
// zero; beyond it the per-km rate applies only to the distance past the
// radius. Monotone non-decreasing in distance.
func DeliveryFee(distanceKm, baseFee, perKmFee float64, freeRadiusKm *float64) DeliveryQuote {
	radius := 0.0
	if freeRadiusKm != nil {
		radius = *freeRadiusKm
		if distanceKm <= radius {
			return DeliveryQuote{Fee: 0, IsFree: true}
		}
	}
	billable := distanceKm - radius
	if billable < 0 {
		billable = 0
	}
	return DeliveryQuote{Fee: utils.Round2(baseFee + perKmFee*billable)}
}

// CalculatePrice computes the full breakdown for a candidate booking.
func (s *PricingService) CalculatePrice(listingID uint, start, end time.Time, addonIDs []uint, deliveryTo *Coordinates) (*PriceBreakdown, error) {
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}

	var listing models.Listing
	if err := s.DB.Preload("Addons").First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("load listing %d: %w", listingID, err)
	}

	return priceForListing(&listing, start, end, addonIDs, deliveryTo)
}

// priceForListing is the pure computation shared with the booking create
// transaction (which loads the listing under a row lock itself).
func priceForListing(listing *models.Listing, start, end time.Time, addonIDs []uint, deliveryTo *Coordinates) (*PriceBreakdown, error) {
	days := CalculateDays(start, end)

	breakdown := &PriceBreakdown{
		Currency:    listing.Currency,
		Days:        days,
		BasePrice:   baseForDays(listing, days),
		DepositHeld: listing.SecurityDeposit,
	}

	byID := make(map[uint]models.Addon, len(listing.Addons))
	for _, a := range listing.Addons {
		byID[a.ID] = a
	}
	for _, id := range addonIDs {
		addon, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: addon %d does not belong to listing %d", ErrAddonNotFound, id, listing.ID)
		}
		line := AddonLine{AddonID: addon.ID, Name: addon.Name, Price: addon.Price, PerDay: addon.PerDay}
		if addon.PerDay {
			line.LineTotal = utils.Round2(addon.Price * float64(days))
		} else {
			line.LineTotal = utils.Round2(addon.Price)
		}
		breakdown.AddonLines = append(breakdown.AddonLines, line)
		breakdown.AddonsTotal = utils.Round2(breakdown.AddonsTotal + line.LineTotal)
	}

	if deliveryTo != nil {
		if !listing.DeliveryAvailable {
			return nil, ErrDeliveryUnavailable
		}
		breakdown.DistanceKm = utils.HaversineKm(listing.Latitude, listing.Longitude, deliveryTo.Latitude, deliveryTo.Longitude)
		quote := DeliveryFee(breakdown.DistanceKm, listing.DeliveryBaseFee, listing.DeliveryPerKmFee, listing.DeliveryFreeRadiusKm)
		breakdown.DeliveryFee = quote.Fee
		breakdown.DeliveryIsFree = quote.IsFree
	}

	breakdown.TotalPrice = utils.Round2(breakdown.BasePrice + breakdown.AddonsTotal + breakdown.DeliveryFee + breakdown.TaxAmount)
	return breakdown, nil
}

// baseForDays selects one rate tier in descending duration order and scales it
// linearly. Tiers are never blended.
func baseForDays(l *models.Listing, days int) float64 {
	switch {
	case days >= 30 && l.PricePerMonth != nil:
		return utils.Round2(*l.PricePerMonth * float64(days) / 30)
	case days >= 7 && l.PricePerWeek != nil:
		return utils.Round2(*l.PricePerWeek * float64(days) / 7)
	default:
		return utils.Round2(l.PricePerDay * float64(days))
	}
}

// CheckAvailability reports whether the listing is bookable for the range.
func (s *PricingService) CheckAvailability(listingID uint, start, end time.Time) (*AvailabilityResult, error) {
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}

	var count int64
	if err := s.DB.Model(&models.Listing{}).Where("id = ?", listingID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check listing %d: %w", listingID, err)
	}
	if count == 0 {
		return nil, ErrListingNotFound
	}

	ids, err := conflictingBookingIDs(s.DB, listingID, start, end)
	if err != nil {
		return nil, err
	}
	return &AvailabilityResult{Available: len(ids) == 0, ConflictingBookingIDs: ids}, nil
}

// conflictingBookingIDs finds bookings in a holding status whose half-open
// [start, end) interval overlaps the candidate range. Back-to-back bookings
// (one ends exactly when another starts) do not conflict.
func conflictingBookingIDs(tx *gorm.DB, listingID uint, start, end time.Time) ([]uint, error) {
	ids := []uint{}
	err := tx.Model(&models.Booking{}).
		Where("listing_id = ? AND status IN ? AND start_date < ? AND end_date > ?",
			listingID, models.HoldingStatuses(), end, start).
		Order("start_date ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("availability query for listing %d: %w", listingID, err)
	}
	return ids, nil
}
