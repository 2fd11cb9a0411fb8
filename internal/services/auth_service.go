// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pokemart/pokemart-backend/internal/config"
	"github.com/pokemart/pokemart-backend/internal/models"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = time.Hour
)

type AuthService struct {
	db                  *gorm.DB
	cfg                 *config.Config
	notificationService *NotificationService
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username  string          `json:"username" validate:"required,username"`
	Email     string          `json:"email" validate:"required,email"`
	Password  string          `json:"password" validate:"required,strong_password"`
	FirstName string          `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  string          `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Role      models.UserRole `json:"role,omitempty"`
	Address   string          `json:"address,omitempty"`
	Country   string          `json:"country,omitempty"`
	Interest  string          `json:"interest,omitempty"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config, notificationService *NotificationService) *AuthService {
	return &AuthService{
		db:                  db,
		cfg:                 cfg,
		notificationService: notificationService,
	}
}

func (s *AuthService) Register(req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var existingUser models.User
	if err := s.db.Where("email = ? OR username = ?", req.Email, req.Username).First(&existingUser).Error; err == nil {
		if existingUser.Email == req.Email {
			return nil, errors.New("user with this email already exists")
		}
		return nil, errors.New("username already taken")
	}

	// Self-service registration only hands out shop-facing roles; staff
	// accounts are provisioned by an admin.
	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer && role != models.RoleSeller {
		return nil, errors.New("invalid role")
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
		Address:   req.Address,
		Country:   req.Country,
		Interest:  req.Interest,
		IsActive:  true,
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	go s.sendWelcomeEmail(user)

	return s.issueTokens(user)
}

// Login verifies credentials and enforces the lockout policy: five failed
// attempts lock the account for an hour, and a successful login resets the
// counter.
func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid email or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !user.IsActive {
		return nil, errors.New("account is deactivated")
	}

	now := time.Now()
	if user.IsLockedOut(now) {
		return nil, errors.New("account is temporarily locked; try again later")
	}

	if err := user.CheckPassword(req.Password); err != nil {
		s.recordFailedAttempt(&user, now)
		return nil, errors.New("invalid email or password")
	}

	updates := map[string]interface{}{
		"login_attempts":     0,
		"lockout_until":      nil,
		"last_login_attempt": now,
		"last_login_at":      now,
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to record login")
	}
	user.LoginAttempts = 0
	user.LockoutUntil = nil
	user.LastLoginAt = &now

	return s.issueTokens(&user)
}

func (s *AuthService) recordFailedAttempt(user *models.User, now time.Time) {
	attempts := user.LoginAttempts + 1
	updates := map[string]interface{}{
		"login_attempts":     attempts,
		"last_login_attempt": now,
	}
	if attempts >= maxLoginAttempts {
		lockout := now.Add(lockoutDuration)
		updates["lockout_until"] = lockout
		updates["login_attempts"] = 0
		logrus.WithFields(logrus.Fields{
			"user_id":       user.ID,
			"lockout_until": lockout,
		}).Warn("Account locked after repeated failed logins")
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to record login attempt")
	}
}

func (s *AuthService) RefreshToken(refreshToken string) (*AuthResponse, error) {
	userIDStr, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in token: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !user.IsActive {
		return nil, errors.New("account is deactivated")
	}

	return s.issueTokens(&user)
}

func (s *AuthService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Username, string(user.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

func (s *AuthService) sendWelcomeEmail(user *models.User) {
	if s.notificationService == nil {
		return
	}
	body := fmt.Sprintf("Hi %s,\n\nWelcome to Pokemart! Browse the catalog at %s and tell us what you're interested in — the more we know, the better the picks on your home page.\n",
		user.FullName(), s.cfg.Frontend.BaseURL)
	if err := s.notificationService.SendEmail(user.Email, "Welcome to Pokemart", body); err != nil {
		logrus.WithError(err).WithField("email", user.Email).Warn("Failed to send welcome email")
	}
}
