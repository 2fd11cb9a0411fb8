// internal/services/admin_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pokemart/pokemart-backend/internal/models"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

func createAdmin(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	admin := createUser(t, db, username)
	require.NoError(t, db.Model(admin).Update("role", models.RoleAdmin).Error)
	admin.Role = models.RoleAdmin
	return admin
}

func TestSetUserRoleWritesAuditTrail(t *testing.T) {
	db := newTestDB(t)
	service := NewAdminService(db, nil)

	admin := createAdmin(t, db, "admin")
	user := createUser(t, db, "helper")

	updated, err := service.SetUserRole(admin.ID, user.ID, models.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, updated.Role)

	var entry models.AuditLog
	require.NoError(t, db.First(&entry, "action = ?", "user.role_change").Error)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, admin.ID, *entry.UserID)
	assert.Equal(t, "customer", entry.NewValues["old_role"])
	assert.Equal(t, "moderator", entry.NewValues["new_role"])
}

func TestSetUserRoleProtectsLastAdmin(t *testing.T) {
	db := newTestDB(t)
	service := NewAdminService(db, nil)

	admin := createAdmin(t, db, "admin")

	_, err := service.SetUserRole(admin.ID, admin.ID, models.RoleCustomer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "last admin")

	// With a second admin the demotion is allowed.
	createAdmin(t, db, "backup")
	_, err = service.SetUserRole(admin.ID, admin.ID, models.RoleCustomer)
	require.NoError(t, err)
}

func TestSetUserRoleRejectsUnknownRole(t *testing.T) {
	db := newTestDB(t)
	service := NewAdminService(db, nil)

	admin := createAdmin(t, db, "admin")
	user := createUser(t, db, "helper")

	_, err := service.SetUserRole(admin.ID, user.ID, models.UserRole("wizard"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")
}

func TestSetUserActiveNotifiesOnReactivation(t *testing.T) {
	db := newTestDB(t)
	service := NewAdminService(db, NewNotificationService(db, nil))

	admin := createAdmin(t, db, "admin")
	user := createUser(t, db, "helper")

	_, err := service.SetUserActive(admin.ID, user.ID, false)
	require.NoError(t, err)

	var notifications int64
	db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&notifications)
	assert.Zero(t, notifications)

	_, err = service.SetUserActive(admin.ID, user.ID, true)
	require.NoError(t, err)

	db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&notifications)
	assert.EqualValues(t, 1, notifications)
}

func TestListUsersFilters(t *testing.T) {
	db := newTestDB(t)
	service := NewAdminService(db, nil)

	createAdmin(t, db, "admin")
	createUser(t, db, "ash")
	inactive := createUser(t, db, "gone")
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	active := true
	users, total, err := service.ListUsers(UserFilter{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20},
		Role:             string(models.RoleCustomer),
		Active:           &active,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "ash", users[0].Username)
}

func TestDashboardStats(t *testing.T) {
	db := newTestDB(t)
	service := NewAdminService(db, nil)

	buyer := createUser(t, db, "buyer")
	category := createCategory(t, db, "Medicine")
	listed := createProduct(t, db, "Potion", category)
	createProduct(t, db, "Secret Brew", category, func(p *models.Product) {
		p.IsListed = false
		p.Quantity = 0
	})
	createFulfilledOrder(t, db, buyer, listed)
	require.NoError(t, db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusFulfilled).
		Update("total_amount", 25.0).Error)

	stats, err := service.GetDashboardStats()
	require.NoError(t, err)

	assert.EqualValues(t, 1, stats.TotalUsers)
	assert.EqualValues(t, 2, stats.TotalProducts)
	assert.EqualValues(t, 1, stats.ListedProducts)
	assert.EqualValues(t, 1, stats.OutOfStock)
	assert.EqualValues(t, 1, stats.FulfilledOrders)
	assert.InDelta(t, 25.0, stats.TotalRevenue, 0.001)
	assert.InDelta(t, 25.0, stats.RevenueThisMonth, 0.001)
}
