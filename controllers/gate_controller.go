package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/keepsake/middleware"
	"github.com/cppla/keepsake/services"
	"github.com/cppla/keepsake/utils"
)

// CookieSettings controls the session cookie.
type CookieSettings struct {
	Name   string
	Domain string
}

// GateController handles the access code check and the visitor session.
type GateController struct {
	gate      *services.Gate
	signer    *utils.SessionSigner
	blacklist *utils.TokenBlacklist
	cookie    CookieSettings
}

// NewGateController creates a GateController.
func NewGateController(gate *services.Gate, signer *utils.SessionSigner, blacklist *utils.TokenBlacklist, cookie CookieSettings) *GateController {
	return &GateController{gate: gate, signer: signer, blacklist: blacklist, cookie: cookie}
}

// Check verifies an access code and issues the session cookie.
func (g *GateController) Check(ctx *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid_payload")
		return
	}

	identity, err := g.gate.Verify(ctx.Request.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			utils.Error(ctx, http.StatusBadRequest, 40011, "code_required")
		case errors.Is(err, services.ErrUnauthorized):
			utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid_code")
		default:
			logError(ctx, "gate check failed", err)
			utils.Error(ctx, http.StatusInternalServerError, 50010, "server_error")
		}
		return
	}

	token, _, err := g.signer.Issue(identity)
	if err != nil {
		logError(ctx, "issue session failed", err)
		utils.Error(ctx, http.StatusInternalServerError, 50011, "session_issue_err")
		return
	}
	g.setCookie(ctx, token, int(g.signer.TTL().Seconds()))
	utils.Success(ctx, gin.H{"success": true})
}

// Session reports whether the caller holds a valid session.
func (g *GateController) Session(ctx *gin.Context) {
	claims, ok := middleware.ReadSession(ctx, g.cookie.Name, g.signer, g.blacklist)
	if ok {
		// A code removed after the cookie was issued no longer counts.
		exists, err := g.gate.Exists(ctx.Request.Context(), claims.Identity)
		if err != nil {
			logError(ctx, "session lookup failed", err)
			utils.Error(ctx, http.StatusInternalServerError, 50012, "server_error")
			return
		}
		ok = exists
	}
	utils.Success(ctx, gin.H{"loggedIn": ok})
}

// Logout revokes the current session token and clears the cookie.
func (g *GateController) Logout(ctx *gin.Context) {
	if claims, ok := middleware.ReadSession(ctx, g.cookie.Name, g.signer, g.blacklist); ok && claims.ExpiresAt != nil {
		g.blacklist.Revoke(ctx.Request.Context(), claims.ID, claims.ExpiresAt.Time)
	}
	g.setCookie(ctx, "", -1)
	utils.Success(ctx, gin.H{"message": utils.T(utils.Locale(ctx), "logged_out")})
}

func (g *GateController) setCookie(ctx *gin.Context, value string, maxAge int) {
	// Cross-origin credentialed requests need SameSite=None, which requires Secure.
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(g.cookie.Name, value, maxAge, "/", g.cookie.Domain, true, true)
}

func logError(ctx *gin.Context, msg string, err error) {
	fields := []zap.Field{zap.Error(err), zap.String("path", ctx.FullPath())}
	if id, ok := middleware.Identity(ctx); ok {
		fields = append(fields, zap.String("identity", id))
	}
	if rid := ctx.GetString(utils.RequestIDHeader); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	utils.Logger.Error(msg, fields...)
}
