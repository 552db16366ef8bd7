package service

import (
	"context"

	"go.uber.org/zap"

	"chargehub/internal/models"
	"chargehub/internal/repository"
)

// AdminService covers user management and platform-wide views.
type AdminService struct {
	users    UserStore
	insights InsightsStore
	logger   *zap.Logger
}

// NewAdminService builds service.
func NewAdminService(users UserStore, insights InsightsStore, logger *zap.Logger) *AdminService {
	return &AdminService{users: users, insights: insights, logger: logger}
}

// Dashboard returns platform totals.
func (s *AdminService) Dashboard(ctx context.Context) (*repository.DashboardTotals, error) {
	return s.insights.Dashboard(ctx)
}

// ListUsers returns all accounts, newest first.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// SetBlacklist flips the blacklist flag. Blacklisted users cannot log in or
// start charging; their active sessions are left to finish normally.
func (s *AdminService) SetBlacklist(ctx context.Context, userID int64, blacklisted bool) error {
	if err := s.users.SetBlacklist(ctx, userID, blacklisted); err != nil {
		return err
	}
	s.logger.Info("user blacklist updated",
		zap.Int64("user_id", userID),
		zap.Bool("blacklisted", blacklisted),
	)
	return nil
}

// UpdateUserInput carries editable account fields.
type UpdateUserInput struct {
	Name        string
	Email       string
	Role        string
	Blacklisted bool
}

// UpdateUser rewrites an account's profile fields.
func (s *AdminService) UpdateUser(ctx context.Context, userID int64, input UpdateUserInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = input.Name
	user.Email = input.Email
	user.Role = input.Role
	user.Blacklisted = input.Blacklisted
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// QueueOverview returns every waiting-queue entry in FIFO order.
func (s *AdminService) QueueOverview(ctx context.Context) ([]models.QueueOverviewEntry, error) {
	return s.insights.QueueOverview(ctx)
}
