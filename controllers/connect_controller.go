package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mehdiasadli/yayago-application-sub000/services"
	"github.com/mehdiasadli/yayago-application-sub000/utils"
)

type ConnectController struct {
	ConnectSvc *services.ConnectService
}

func NewConnectController(svc *services.ConnectService) *ConnectController {
	return &ConnectController{ConnectSvc: svc}
}

func (ctrl *ConnectController) EnsureAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	accountID, err := ctrl.ConnectSvc.EnsureAccount(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"account_id": accountID})
}

func (ctrl *ConnectController) AccountLink(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	url, err := ctrl.ConnectSvc.AccountLink(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"url": url})
}

func (ctrl *ConnectController) GetStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	status, err := ctrl.ConnectSvc.GetStatus(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, status)
}
