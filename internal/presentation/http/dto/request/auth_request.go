package request

// LoginRequest represents a device sign-in with name and PIN
type LoginRequest struct {
	Name string `json:"name" binding:"required"`
	PIN  string `json:"pin" binding:"required,numeric,min=4,max=8"`
}

// RefreshTokenRequest represents a token refresh request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateStaffRequest registers a waiter or manager
type CreateStaffRequest struct {
	Name string `json:"name" binding:"required,max=100"`
	PIN  string `json:"pin" binding:"required,numeric,min=4,max=8"`
	Role string `json:"role" binding:"omitempty,oneof=manager waiter"`
}
