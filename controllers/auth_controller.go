package controllers

import (
	"rescuenet/models"
	"rescuenet/services"
	"rescuenet/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService *services.AuthService
}

func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// RegisterUser handles POST /auth/register/user
func (ac *AuthController) RegisterUser(c *gin.Context) {
	var req models.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format")
		return
	}

	response, err := ac.authService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Registration failed")
		return
	}

	utils.CreatedResponse(c, "User registered successfully", response)
}

// RegisterResponder handles POST /auth/register/responder
func (ac *AuthController) RegisterResponder(c *gin.Context) {
	var req models.RegisterResponderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format")
		return
	}

	response, err := ac.authService.RegisterResponder(c.Request.Context(), req)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Registration failed")
		return
	}

	utils.CreatedResponse(c, "Responder registered successfully", response)
}

// LoginUser handles POST /auth/login/user
func (ac *AuthController) LoginUser(c *gin.Context) {
	ac.login(c, models.RoleUser)
}

// LoginResponder handles POST /auth/login/responder
func (ac *AuthController) LoginResponder(c *gin.Context) {
	ac.login(c, models.RoleResponder)
}

func (ac *AuthController) login(c *gin.Context, role string) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format")
		return
	}

	response, err := ac.authService.Login(c.Request.Context(), req, role)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Login failed")
		return
	}

	utils.SuccessResponse(c, "Login successful", response)
}

// GetProfile handles GET /auth/me
func (ac *AuthController) GetProfile(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "")
		return
	}

	user, err := ac.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to retrieve profile")
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", user)
}
