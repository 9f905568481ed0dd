package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/services"
)

// AuthController exposes account and session endpoints.
type AuthController struct {
	authSvc services.AuthService
	cartSvc services.CartService
}

// NewAuthController creates a new AuthController.
func NewAuthController(authSvc services.AuthService, cartSvc services.CartService) *AuthController {
	return &AuthController{authSvc: authSvc, cartSvc: cartSvc}
}

// Register handles POST /auth/register.
func (ac *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	user, svcErr := ac.authSvc.Register(c.Request.Context(), &req)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    user,
		Message: "Account created. Check your email for the verification code.",
	})
}

// VerifyEmail handles POST /auth/verify.
func (ac *AuthController) VerifyEmail(c *gin.Context) {
	var req models.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if svcErr := ac.authSvc.VerifyEmail(c.Request.Context(), req.Email, req.Code); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondMessage(c, "Email verified")
}

// Login handles POST /auth/login. When the request carries a guest
// session token, the guest cart folds into the user's cart.
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	pair, user, svcErr := ac.authSvc.Login(c.Request.Context(), &req)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}

	if sessionToken := c.GetHeader("X-Session-Token"); sessionToken != "" {
		if _, mergeErr := ac.cartSvc.MergeGuestCart(c.Request.Context(), user.ID.String(), sessionToken); mergeErr != nil {
			// Login still succeeds; the guest cart stays behind.
			respondOK(c, gin.H{"tokens": pair, "user": user, "cart_merged": false})
			return
		}
		respondOK(c, gin.H{"tokens": pair, "user": user, "cart_merged": true})
		return
	}
	respondOK(c, gin.H{"tokens": pair, "user": user})
}

// Refresh handles POST /auth/refresh.
func (ac *AuthController) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	pair, svcErr := ac.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, pair)
}

// Logout handles POST /auth/logout.
func (ac *AuthController) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if svcErr := ac.authSvc.Logout(c.Request.Context(), req.RefreshToken); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondMessage(c, "Logged out")
}

// ForgotPassword handles POST /auth/forgot-password.
func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if svcErr := ac.authSvc.ForgotPassword(c.Request.Context(), req.Email); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondMessage(c, "If the account exists, a reset code has been sent")
}

// ResetPassword handles POST /auth/reset-password.
func (ac *AuthController) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if svcErr := ac.authSvc.ResetPassword(c.Request.Context(), &req); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondMessage(c, "Password reset")
}

// Profile handles GET /auth/me.
func (ac *AuthController) Profile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	user, svcErr := ac.authSvc.GetProfile(c.Request.Context(), userID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, user)
}
