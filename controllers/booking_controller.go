package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mehdiasadli/yayago-application-sub000/models"
	"github.com/mehdiasadli/yayago-application-sub000/services"
	"github.com/mehdiasadli/yayago-application-sub000/utils"
)

type CreateBookingRequest struct {
	ListingID       uint   `json:"listing_id" binding:"required"`
	StartDate       string `json:"start_date" binding:"required"`
	EndDate         string `json:"end_date" binding:"required"`
	AddonIDs        []uint `json:"addon_ids"`
	PaymentIntentID string `json:"payment_intent_id"`

	Delivery *services.Coordinates `json:"delivery,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type StartTripRequest struct {
	StartOdometer int `json:"start_odometer" binding:"required"`
}

type CompleteTripRequest struct {
	EndOdometer int `json:"end_odometer" binding:"required"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type BookingController struct {
	BookingSvc *services.BookingService
}

func NewBookingController(svc *services.BookingService) *BookingController {
	return &BookingController{BookingSvc: svc}
}

func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	renterID, ok := actorID(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "error.invalidPayload", "listing_id, start_date and end_date are required")
		return
	}

	start, end, ok := parseDateRange(c, req.StartDate, req.EndDate)
	if !ok {
		return
	}

	booking, err := ctrl.BookingSvc.Create(services.CreateBookingInput{
		ListingID:       req.ListingID,
		StartDate:       start,
		EndDate:         end,
		AddonIDs:        req.AddonIDs,
		DeliveryTo:      req.Delivery,
		PaymentIntentID: req.PaymentIntentID,
	}, renterID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, booking)
}

func (ctrl *BookingController) GetBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	booking, err := ctrl.BookingSvc.GetWithRelations(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *BookingController) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "error.invalidPayload", "status is required")
		return
	}

	booking, err := ctrl.BookingSvc.UpdateStatus(id, models.BookingStatus(req.Status), actor, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *BookingController) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req CancelRequest
	_ = c.ShouldBindJSON(&req) // reason is optional

	booking, err := ctrl.BookingSvc.Cancel(id, actor, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *BookingController) StartTrip(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req StartTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "error.invalidPayload", "start_odometer is required")
		return
	}

	booking, err := ctrl.BookingSvc.StartTrip(id, req.StartOdometer, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *BookingController) CompleteTrip(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req CompleteTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "error.invalidPayload", "end_odometer is required")
		return
	}

	booking, err := ctrl.BookingSvc.CompleteTrip(c.Request.Context(), id, req.EndOdometer, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}
