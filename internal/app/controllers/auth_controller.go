// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/practicelog/internal/app/models/dto"
	"github.com/yigit/practicelog/internal/app/services"
	"github.com/yigit/practicelog/internal/middleware"
)

// CookieOptions configures the session cookie
type CookieOptions struct {
	Name   string
	Secure bool
}

// AuthController handles member login and the session member's own data
type AuthController struct {
	authService    *services.AuthService
	checkinService services.CheckinService
	cookie         CookieOptions
	logger         zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, checkinService services.CheckinService, cookie CookieOptions, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService:    authService,
		checkinService: checkinService,
		cookie:         cookie,
		logger:         logger,
	}
}

// Login handles member login
// @Summary Log in with member name and numeric password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse}
// @Failure 400 {object} dto.ErrorResponse "Missing or non-numeric password"
// @Failure 401 {object} dto.ErrorResponse "Wrong password"
// @Failure 404 {object} dto.ErrorResponse "Unknown member"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBind(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	result, err := c.authService.Login(ctx.Request.Context(), req.Name, req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.cookie.Name, result.Token, int(c.authService.SessionTTL().Seconds()), "/", "", c.cookie.Secure, true)

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.LoginResponse{
		MemberID:   result.Member.ID,
		MemberName: result.Member.DisplayName,
		Token:      result.Token,
		ExpiresAt:  result.ExpiresAt,
	}, "Logged in"))
}

// Logout clears the session cookie
// @Summary Log out
// @Tags auth
// @Success 200 {object} dto.APIResponse
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.cookie.Name, "", -1, "/", "", c.cookie.Secure, true)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Logged out"))
}

// Me returns the progress summary of the session member
// @Summary Progress summary of the logged-in member
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=models.MemberSummary}
// @Failure 401 {object} dto.ErrorResponse
// @Router /me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	memberID := ctx.GetString(middleware.ContextMemberID)

	summary, err := c.checkinService.SummarizeMember(ctx.Request.Context(), memberID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(summary, ""))
}
