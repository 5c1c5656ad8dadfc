package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/keepsake/services"
	"github.com/cppla/keepsake/utils"
)

// AdminController provisions access codes.
type AdminController struct {
	gate *services.Gate
}

// NewAdminController creates an AdminController.
func NewAdminController(gate *services.Gate) *AdminController {
	return &AdminController{gate: gate}
}

// Provision registers a new access code. The admin secret travels in the body.
func (a *AdminController) Provision(ctx *gin.Context) {
	var req struct {
		Code        string `json:"code"`
		AdminSecret string `json:"adminSecret"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid_payload")
		return
	}
	if !a.gate.AdminAuthorized(req.AdminSecret) {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "admin_denied")
		return
	}

	rec, err := a.gate.Provision(ctx.Request.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			utils.Error(ctx, http.StatusBadRequest, 40031, "code_too_short")
		case errors.Is(err, services.ErrAlreadyExists):
			utils.Error(ctx, http.StatusConflict, 40930, "code_exists")
		default:
			logError(ctx, "provision failed", err)
			utils.Error(ctx, http.StatusInternalServerError, 50030, "server_error")
		}
		return
	}
	utils.Success(ctx, gin.H{"code": rec.Code, "created_at": rec.CreatedAt})
}
