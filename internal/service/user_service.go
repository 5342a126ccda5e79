package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/postpilothq/postpilot/internal/apperr"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/provider"
	"github.com/postpilothq/postpilot/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
	RemoveUser(ctx context.Context, userID int64) error
}

type userService struct {
	db      *sql.DB
	u       repository.UserRepository
	gateway provider.Gateway
}

func NewUserService(db *sql.DB, u repository.UserRepository, gateway provider.Gateway) UserService {
	return &userService{
		db:      db,
		u:       u,
		gateway: gateway,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, isExist, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user info: %w", err)
	}
	if !isExist {
		return nil, apperr.NotFound("user %d not found", id)
	}
	return user, nil
}

// RemoveUser deletes the user and everything hanging off it. The local
// rows go in one transaction; the provider-side team delete follows and
// cascades to all accounts, uploads and posts the provider holds.
func (s *userService) RemoveUser(ctx context.Context, userID int64) error {
	user, err := s.GetUserInfo(ctx, userID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.u.Remove(ctx, tx, userID); err != nil {
		return fmt.Errorf("error removing user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if user.ProviderTeamID == "" {
		return nil
	}
	if err := s.gateway.DeleteTeamAndAllData(ctx, user.ProviderTeamID); err != nil {
		slog.Error("provider team delete failed after local removal", "user_id", userID, "err", err)
		return err
	}
	return nil
}
