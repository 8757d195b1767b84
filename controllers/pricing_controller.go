package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mehdiasadli/yayago-application-sub000/services"
	"github.com/mehdiasadli/yayago-application-sub000/utils"
)

const dateLayout = "2006-01-02"

type QuoteRequest struct {
	ListingID uint   `json:"listing_id" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	AddonIDs  []uint `json:"addon_ids"`

	Delivery *services.Coordinates `json:"delivery,omitempty"`
}

type PricingController struct {
	PricingSvc *services.PricingService
}

func NewPricingController(svc *services.PricingService) *PricingController {
	return &PricingController{PricingSvc: svc}
}

// Quote returns a read-only price breakdown for a candidate booking.
func (ctrl *PricingController) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "error.invalidPayload", "listing_id, start_date and end_date are required")
		return
	}

	start, end, ok := parseDateRange(c, req.StartDate, req.EndDate)
	if !ok {
		return
	}

	breakdown, err := ctrl.PricingSvc.CalculatePrice(req.ListingID, start, end, req.AddonIDs, req.Delivery)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, breakdown)
}

// Availability checks whether a listing is bookable for a date range.
// GET /api/listings/:id/availability?start_date=...&end_date=...
func (ctrl *PricingController) Availability(c *gin.Context) {
	listingID, ok := pathID(c)
	if !ok {
		return
	}

	start, end, ok := parseDateRange(c, c.Query("start_date"), c.Query("end_date"))
	if !ok {
		return
	}

	result, err := ctrl.PricingSvc.CheckAvailability(listingID, start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}

func parseDateRange(c *gin.Context, rawStart, rawEnd string) (time.Time, time.Time, bool) {
	start, err := parseDate(rawStart)
	if err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "error.invalidDate", "start_date must be YYYY-MM-DD or RFC3339")
		return time.Time{}, time.Time{}, false
	}
	end, err := parseDate(rawEnd)
	if err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "error.invalidDate", "end_date must be YYYY-MM-DD or RFC3339")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
