package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mehdiasadli/yayago-application-sub000/services"
	"github.com/mehdiasadli/yayago-application-sub000/utils"
)

type SettlementController struct {
	SettlementSvc *services.SettlementService
}

func NewSettlementController(svc *services.SettlementService) *SettlementController {
	return &SettlementController{SettlementSvc: svc}
}

// ProcessPayout is the admin/ops retry surface for settlement. Trip completion
// already settles synchronously; this endpoint re-runs the failed leg(s) of a
// booking whose payout status is failed.
func (ctrl *SettlementController) ProcessPayout(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := ctrl.SettlementSvc.ProcessTripPayout(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}
