// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pokemart/pokemart-backend/internal/models"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

// AdminService is the staff back office: dashboard numbers, user management
// and the audit trail.
type AdminService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type DashboardStats struct {
	TotalUsers       int64   `json:"total_users"`
	NewUsersThisWeek int64   `json:"new_users_this_week"`
	TotalProducts    int64   `json:"total_products"`
	ListedProducts   int64   `json:"listed_products"`
	OutOfStock       int64   `json:"out_of_stock"`
	PendingOrders    int64   `json:"pending_orders"`
	FulfilledOrders  int64   `json:"fulfilled_orders"`
	TotalRevenue     float64 `json:"total_revenue"`
	RevenueThisMonth float64 `json:"revenue_this_month"`
}

type UserFilter struct {
	utils.PaginationParams
	Role   string
	Active *bool
	Search string
}

func NewAdminService(db *gorm.DB, notificationService *NotificationService) *AdminService {
	return &AdminService{
		db:                  db,
		notificationService: notificationService,
	}
}

func (s *AdminService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	s.db.Model(&models.User{}).Count(&stats.TotalUsers)
	s.db.Model(&models.User{}).Where("created_at >= ?", weekAgo).Count(&stats.NewUsersThisWeek)
	s.db.Model(&models.Product{}).Count(&stats.TotalProducts)
	s.db.Model(&models.Product{}).Where("is_listed = ?", true).Count(&stats.ListedProducts)
	s.db.Model(&models.Product{}).Where("quantity = 0").Count(&stats.OutOfStock)
	s.db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending).Count(&stats.PendingOrders)
	s.db.Model(&models.Order{}).Where("status = ?", models.OrderStatusFulfilled).Count(&stats.FulfilledOrders)

	err := s.db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusFulfilled).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.TotalRevenue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}

	err = s.db.Model(&models.Order{}).
		Where("status = ? AND created_at >= ?", models.OrderStatusFulfilled, monthStart).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.RevenueThisMonth).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly revenue: %w", err)
	}

	return stats, nil
}

func (s *AdminService) ListUsers(filter UserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Search != "" {
		term := "%" + filter.Search + "%"
		query = query.Where("username LIKE ? OR email LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	err := utils.ApplyPagination(query.Order("created_at DESC"), filter.PaginationParams).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

// SetUserRole changes a user's role. Only an admin may grant or revoke staff
// roles, and nobody can demote the last admin.
func (s *AdminService) SetUserRole(adminID, userID uuid.UUID, role models.UserRole) (*models.User, error) {
	valid := false
	for _, r := range []models.UserRole{
		models.RoleAdmin, models.RoleModerator, models.RoleCustomerService,
		models.RoleSeller, models.RoleCustomer,
	} {
		if role == r {
			valid = true
			break
		}
	}
	if !valid {
		return nil, errors.New("invalid role")
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.Role == models.RoleAdmin && role != models.RoleAdmin {
		var admins int64
		s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins)
		if admins <= 1 {
			return nil, errors.New("cannot demote the last admin")
		}
	}

	oldRole := user.Role
	if err := s.db.Model(&user).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	user.Role = role

	s.writeAuditLog(adminID, "user.role_change", "user", &userID, models.JSONB{
		"old_role": string(oldRole),
		"new_role": string(role),
	})

	return &user, nil
}

func (s *AdminService) SetUserActive(adminID, userID uuid.UUID, active bool) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Model(&user).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.IsActive = active

	s.writeAuditLog(adminID, "user.active_change", "user", &userID, models.JSONB{
		"is_active": active,
	})

	if s.notificationService != nil && active {
		s.notificationService.Notify(userID, "Your account has been reactivated",
			models.NotificationTypeSuccess, "/account")
	}

	return &user, nil
}

// SetReviewBan toggles whether the user may post product reviews.
func (s *AdminService) SetReviewBan(adminID, userID uuid.UUID, banned bool) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Model(&user).Update("is_review_banned", banned).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.IsReviewBanned = banned

	s.writeAuditLog(adminID, "user.review_ban", "user", &userID, models.JSONB{
		"is_review_banned": banned,
	})

	return &user, nil
}

func (s *AdminService) ListAuditLogs(params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	query := s.db.Model(&models.AuditLog{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var logs []models.AuditLog
	err := utils.ApplyPagination(query.Order("created_at DESC"), params).
		Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}

func (s *AdminService) writeAuditLog(actorID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, newValues models.JSONB) {
	entry := &models.AuditLog{
		UserID:       &actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		NewValues:    newValues,
	}
	if err := s.db.Create(entry).Error; err != nil {
		logrus.WithError(err).WithField("action", action).Error("Failed to write audit log")
	}
}
