package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/mesa-api/internal/application/service"
	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/enum"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/request"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/response"
)

// AuthHandler handles sign-in and staff HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func staffJSON(s *entity.Staff) gin.H {
	return gin.H{
		"id":            s.ID,
		"name":          s.Name,
		"role":          s.Role,
		"active":        s.Active,
		"created_at":    s.CreatedAt,
		"last_login_at": s.LastLoginAt,
	}
}

func tokensJSON(out *service.LoginOutput) gin.H {
	return gin.H{
		"staff":         staffJSON(out.Staff),
		"access_token":  out.AccessToken,
		"refresh_token": out.RefreshToken,
		"token_type":    "Bearer",
	}
}

// Login handles staff sign-in with name and PIN
// @Summary Login
// @Description Authenticate a staff member and return tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Login credentials"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	output, err := h.authService.Login(c.Request.Context(), &service.LoginInput{
		Name: req.Name,
		PIN:  req.PIN,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Login successful", tokensJSON(output))
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req request.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	output, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Token refreshed successfully", tokensJSON(output))
}

// GetProfile returns the signed-in staff member
func (h *AuthHandler) GetProfile(c *gin.Context) {
	staffID := GetStaffID(c)
	if staffID == "" {
		response.Unauthorized(c, "Staff not authenticated")
		return
	}

	staff, err := h.authService.GetCurrentStaff(c.Request.Context(), staffID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Profile retrieved successfully", staffJSON(staff))
}

// ListStaff handles listing staff accounts
func (h *AuthHandler) ListStaff(c *gin.Context) {
	staff, err := h.authService.ListStaff(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]gin.H, len(staff))
	for i := range staff {
		out[i] = staffJSON(&staff[i])
	}
	response.OK(c, "Staff retrieved successfully", out)
}

// CreateStaff handles registering a waiter or manager
func (h *AuthHandler) CreateStaff(c *gin.Context) {
	var req request.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	staff, err := h.authService.CreateStaff(c.Request.Context(), &service.CreateStaffInput{
		Name: req.Name,
		PIN:  req.PIN,
		Role: enum.StaffRole(req.Role),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Staff member created successfully", staffJSON(staff))
}
