// internal/services/auth_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/gorm"

	"github.com/pokemart/pokemart-backend/internal/config"
	"github.com/pokemart/pokemart-backend/internal/models"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

func newAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	utils.SetJWTSecret("test-secret")
	cfg := &config.Config{
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  24,
			RefreshTokenTTL: 168,
		},
	}
	return NewAuthService(db, cfg, nil), db
}

func validRegistration(username string) *RegisterRequest {
	return &RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "Sup3rSecret!",
	}
}

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	service, db := newAuthService(t)

	registered, err := service.Register(validRegistration("ash"))
	require.NoError(t, err)

	assert.Equal(t, models.RoleCustomer, registered.User.Role)
	assert.Equal(t, "Bearer", registered.TokenType)
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.RefreshToken)
	assert.Equal(t, 24*3600, registered.ExpiresIn)

	// The stored password is hashed, never plaintext.
	var stored models.User
	require.NoError(t, db.First(&stored, "username = ?", "ash").Error)
	assert.NotEqual(t, "Sup3rSecret!", stored.PasswordHash)

	loggedIn, err := service.Login(&LoginRequest{
		Email:    "ash@example.com",
		Password: "Sup3rSecret!",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)
	assert.NotNil(t, loggedIn.User.LastLoginAt)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	service, _ := newAuthService(t)

	_, err := service.Register(validRegistration("ash"))
	require.NoError(t, err)

	_, err = service.Register(validRegistration("ash"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already exists")

	other := validRegistration("ash")
	other.Email = "other@example.com"
	_, err = service.Register(other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username already taken")
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	service, _ := newAuthService(t)

	req := validRegistration("ash")
	req.Password = "password"
	_, err := service.Register(req)
	require.Error(t, err)
}

func TestRegisterOnlyGrantsShopRoles(t *testing.T) {
	service, _ := newAuthService(t)

	seller := validRegistration("seller")
	seller.Role = models.RoleSeller
	response, err := service.Register(seller)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, response.User.Role)

	admin := validRegistration("sneaky")
	admin.Role = models.RoleAdmin
	_, err = service.Register(admin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")
}

func TestLoginLocksOutAfterFiveFailures(t *testing.T) {
	service, db := newAuthService(t)

	_, err := service.Register(validRegistration("ash"))
	require.NoError(t, err)

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := service.Login(&LoginRequest{
			Email:    "ash@example.com",
			Password: "WrongPass1!",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid email or password")
	}

	var locked models.User
	require.NoError(t, db.First(&locked, "username = ?", "ash").Error)
	require.NotNil(t, locked.LockoutUntil)
	assert.True(t, locked.LockoutUntil.After(time.Now()))

	// Even the right password bounces while the lockout holds.
	_, err = service.Login(&LoginRequest{
		Email:    "ash@example.com",
		Password: "Sup3rSecret!",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporarily locked")
}

func TestLoginResetsFailureCountOnSuccess(t *testing.T) {
	service, db := newAuthService(t)

	_, err := service.Register(validRegistration("ash"))
	require.NoError(t, err)

	for i := 0; i < maxLoginAttempts-1; i++ {
		_, err := service.Login(&LoginRequest{
			Email:    "ash@example.com",
			Password: "WrongPass1!",
		})
		require.Error(t, err)
	}

	_, err = service.Login(&LoginRequest{
		Email:    "ash@example.com",
		Password: "Sup3rSecret!",
	})
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.First(&user, "username = ?", "ash").Error)
	assert.Zero(t, user.LoginAttempts)
	assert.Nil(t, user.LockoutUntil)
}

func TestLoginExpiredLockoutClears(t *testing.T) {
	service, db := newAuthService(t)

	response, err := service.Register(validRegistration("ash"))
	require.NoError(t, err)

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", response.User.ID).
		Update("lockout_until", expired).Error)

	_, err = service.Login(&LoginRequest{
		Email:    "ash@example.com",
		Password: "Sup3rSecret!",
	})
	require.NoError(t, err)
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	service, db := newAuthService(t)

	response, err := service.Register(validRegistration("ash"))
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", response.User.ID).
		Update("is_active", false).Error)

	_, err = service.Login(&LoginRequest{
		Email:    "ash@example.com",
		Password: "Sup3rSecret!",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deactivated")
}

func TestRefreshTokenIssuesNewPair(t *testing.T) {
	service, _ := newAuthService(t)

	registered, err := service.Register(validRegistration("ash"))
	require.NoError(t, err)

	refreshed, err := service.RefreshToken(registered.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = service.RefreshToken("not-a-token")
	require.Error(t, err)
}
