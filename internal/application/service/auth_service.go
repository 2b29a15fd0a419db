package service

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/enum"
	"github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/apperror"
	"github.com/sangkips/mesa-api/pkg/utils"
)

// AuthService handles staff sign-in on the bar's devices
type AuthService struct {
	staffRepo  repository.StaffRepository
	jwtManager *utils.JWTManager
}

// NewAuthService creates a new auth service
func NewAuthService(staffRepo repository.StaffRepository, jwtManager *utils.JWTManager) *AuthService {
	return &AuthService{
		staffRepo:  staffRepo,
		jwtManager: jwtManager,
	}
}

// LoginInput represents the login input
type LoginInput struct {
	Name string
	PIN  string
}

// LoginOutput represents the login output
type LoginOutput struct {
	Staff        *entity.Staff
	AccessToken  string
	RefreshToken string
}

// Login authenticates a staff member by name and PIN and returns tokens
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	staff, err := s.staffRepo.GetByName(ctx, utils.NormalizeName(input.Name))
	if err != nil {
		return nil, storeErr("read staff", err)
	}
	if staff == nil || !staff.Active {
		return nil, apperror.ErrInvalidCredentials
	}
	if !utils.CheckPINHash(input.PIN, staff.PINHash) {
		return nil, apperror.ErrInvalidCredentials
	}

	out, err := s.issue(staff)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	staff.LastLoginAt = &now
	if err := s.staffRepo.Update(ctx, staff); err != nil {
		log.Printf("Warning: failed to record last login for %s: %v", staff.Name, err)
	}
	return out, nil
}

func (s *AuthService) issue(staff *entity.Staff) (*LoginOutput, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(staff.ID, staff.Name, string(staff.Role))
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(staff.ID)
	if err != nil {
		return nil, err
	}
	return &LoginOutput{
		Staff:        staff,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshToken generates new tokens from a refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*LoginOutput, error) {
	staffID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}

	staff, err := s.staffRepo.GetByID(ctx, staffID)
	if err != nil {
		return nil, storeErr("read staff", err)
	}
	if staff == nil || !staff.Active {
		return nil, apperror.ErrInvalidToken
	}
	return s.issue(staff)
}

// GetCurrentStaff returns the signed-in staff member
func (s *AuthService) GetCurrentStaff(ctx context.Context, staffID string) (*entity.Staff, error) {
	staff, err := s.staffRepo.GetByID(ctx, staffID)
	if err != nil {
		return nil, storeErr("read staff", err)
	}
	if staff == nil {
		return nil, apperror.NewNotFoundError("Staff member")
	}
	return staff, nil
}

// CreateStaffInput represents a new staff account
type CreateStaffInput struct {
	Name string
	PIN  string
	Role enum.StaffRole
}

// CreateStaff registers a staff member. Names are unique after normalization.
func (s *AuthService) CreateStaff(ctx context.Context, input *CreateStaffInput) (*entity.Staff, error) {
	name := strings.TrimSpace(input.Name)
	key := utils.NormalizeName(name)
	if key == "" {
		return nil, apperror.NewInvalidInputError("Staff name is required")
	}
	if err := validatePIN(input.PIN); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = enum.StaffRoleWaiter
	}
	if !input.Role.IsValid() {
		return nil, apperror.NewInvalidInputError("Unknown staff role %q", input.Role)
	}

	existing, err := s.staffRepo.GetByName(ctx, key)
	if err != nil {
		return nil, storeErr("read staff", err)
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Staff member \"" + name + "\" already exists")
	}

	hash, err := utils.HashPIN(input.PIN)
	if err != nil {
		return nil, err
	}
	staff := &entity.Staff{
		ID:             utils.NewID(),
		Name:           name,
		NormalizedName: key,
		Role:           input.Role,
		PINHash:        hash,
		Active:         true,
		CreatedAt:      time.Now(),
	}
	if err := s.staffRepo.Create(ctx, staff); err != nil {
		return nil, storeErr("create staff "+name, err)
	}
	return staff, nil
}

// ListStaff returns every staff account
func (s *AuthService) ListStaff(ctx context.Context) ([]entity.Staff, error) {
	staff, err := s.staffRepo.List(ctx)
	if err != nil {
		return nil, storeErr("read staff", err)
	}
	return staff, nil
}

// EnsureAdmin creates the first manager account when no staff exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, pin string) error {
	if name == "" || pin == "" {
		return nil
	}
	staff, err := s.staffRepo.List(ctx)
	if err != nil {
		return storeErr("read staff", err)
	}
	if len(staff) > 0 {
		return nil
	}
	if _, err := s.CreateStaff(ctx, &CreateStaffInput{Name: name, PIN: pin, Role: enum.StaffRoleManager}); err != nil {
		return err
	}
	log.Printf("Created initial manager account %q", name)
	return nil
}

func validatePIN(pin string) error {
	if len(pin) < 4 || len(pin) > 8 {
		return apperror.NewInvalidInputError("PIN must have 4 to 8 digits")
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return apperror.NewInvalidInputError("PIN must contain digits only")
		}
	}
	return nil
}
