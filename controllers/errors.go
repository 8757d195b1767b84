package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mehdiasadli/yayago-application-sub000/services"
	"github.com/mehdiasadli/yayago-application-sub000/utils"
)

// respondServiceError maps service sentinels onto HTTP statuses and stable
// machine codes. Anything unmapped is a 500 with the message withheld.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidRange):
		utils.JSONErrorCode(c, http.StatusBadRequest, "error.invalidRange", "start date must be before end date")
	case errors.Is(err, services.ErrListingNotFound):
		utils.JSONErrorCode(c, http.StatusNotFound, "error.listingNotFound", "listing not found")
	case errors.Is(err, services.ErrListingInactive):
		utils.JSONErrorCode(c, http.StatusConflict, "error.listingInactive", "listing is not accepting bookings")
	case errors.Is(err, services.ErrAddonNotFound):
		utils.JSONErrorCode(c, http.StatusBadRequest, "error.addonNotFound", "one or more addons do not belong to this listing")
	case errors.Is(err, services.ErrDeliveryUnavailable):
		utils.JSONErrorCode(c, http.StatusBadRequest, "error.deliveryUnavailable", "this listing does not offer delivery")
	case errors.Is(err, services.ErrBookingNotFound):
		utils.JSONErrorCode(c, http.StatusNotFound, "error.bookingNotFound", "booking not found")
	case errors.Is(err, services.ErrListingUnavailable):
		utils.JSONErrorCode(c, http.StatusConflict, "error.listingUnavailable", "listing is already booked for these dates")
	case errors.Is(err, services.ErrInvalidTransition):
		utils.JSONErrorCode(c, http.StatusConflict, "error.invalidStateTransition", "this status change is not allowed from the booking's current state")
	case errors.Is(err, services.ErrNotAuthorized):
		utils.JSONErrorCode(c, http.StatusForbidden, "error.notAuthorized", "you are not allowed to perform this action on the booking")
	case errors.Is(err, services.ErrOdometerRequired):
		utils.JSONErrorCode(c, http.StatusBadRequest, "error.odometerRequired", "use the trip start/complete endpoints for this transition")
	case errors.Is(err, services.ErrNotCompleted):
		utils.JSONErrorCode(c, http.StatusConflict, "error.bookingNotCompleted", "settlement requires a completed trip")
	case errors.Is(err, services.ErrAlreadySettled):
		utils.JSONErrorCode(c, http.StatusConflict, "error.alreadySettled", "this booking has already been settled")
	case errors.Is(err, services.ErrPayoutSetupIncomplete):
		utils.JSONErrorCode(c, http.StatusPreconditionFailed, "error.payoutSetupIncomplete", "the partner has not completed payout onboarding")
	case errors.Is(err, services.ErrOrganizationNotFound):
		utils.JSONErrorCode(c, http.StatusNotFound, "error.organizationNotFound", "organization not found")
	case errors.Is(err, services.ErrRegionUnsupported):
		utils.JSONErrorCode(c, http.StatusUnprocessableEntity, "error.regionUnsupported", "connect accounts are not yet supported in this country")
	case errors.Is(err, services.ErrNoConnectAccount):
		utils.JSONErrorCode(c, http.StatusPreconditionFailed, "error.noConnectAccount", "the organization has no connect account yet")
	default:
		utils.JSONErrorCode(c, http.StatusInternalServerError, "error.internal", "something went wrong")
	}
}

// actorID reads the authenticated user id injected by the upstream gateway.
func actorID(c *gin.Context) (uint, bool) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		utils.JSONErrorCode(c, http.StatusUnauthorized, "error.missingActor", "X-User-ID header is required")
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.JSONErrorCode(c, http.StatusBadRequest, "error.invalidActor", "X-User-ID must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// pathID parses the :id route param.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.JSONErrorCode(c, http.StatusBadRequest, "error.invalidId", "route id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}
