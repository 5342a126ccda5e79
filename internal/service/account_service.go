package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/postpilothq/postpilot/internal/apperr"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/provider"
	"github.com/postpilothq/postpilot/internal/repository"
)

type AccountService interface {
	Link(ctx context.Context, userID int64, providerAccountID string) (*models.SocialAccount, error)
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	AccountInfo(ctx context.Context, userID, accountID int64) (*models.SocialAccount, error)
	Analytics(ctx context.Context, userID, accountID int64) (json.RawMessage, error)
	Disconnect(ctx context.Context, userID, accountID int64) error
}

type accountService struct {
	db      *sql.DB
	sa      repository.SocialAccountRepository
	gateway provider.Gateway
}

func NewAccountService(db *sql.DB, sa repository.SocialAccountRepository, gateway provider.Gateway) AccountService {
	return &accountService{
		db:      db,
		sa:      sa,
		gateway: gateway,
	}
}

// Link mirrors a provider-side connected account into the local store.
// The connect flow itself (platform OAuth) lives on the provider.
func (s *accountService) Link(ctx context.Context, userID int64, providerAccountID string) (*models.SocialAccount, error) {
	if providerAccountID == "" {
		return nil, apperr.Validation("account id cannot be empty")
	}

	result, err := s.gateway.FetchAccount(ctx, providerAccountID)
	if err != nil {
		return nil, err
	}
	if result.Status != provider.AccountStatusConnected {
		return nil, apperr.Precondition("account %s is not connected on the provider", providerAccountID)
	}

	account := models.SocialAccount{
		UserID:            userID,
		Platform:          strings.ToLower(result.Platform),
		ProviderAccountID: result.ID,
		AccountName:       result.Name,
		AccountUsername:   result.Username,
		ProfilePicture:    result.AvatarURL,
		IsConnected:       true,
	}

	id, err := s.sa.Create(ctx, nil, &account)
	if err != nil {
		return nil, fmt.Errorf("error saving social account: %w", err)
	}
	account.ID = id

	return &account, nil
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing social accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountService) AccountInfo(ctx context.Context, userID, accountID int64) (*models.SocialAccount, error) {
	return s.ownedAccount(ctx, userID, accountID)
}

func (s *accountService) Analytics(ctx context.Context, userID, accountID int64) (json.RawMessage, error) {
	account, err := s.ownedAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	return s.gateway.FetchAccountAnalytics(ctx, account.ProviderAccountID)
}

// Disconnect removes the local mirror inside a transaction, then tells
// the provider to drop the connection. The remote call is the
// non-transactional tail of the flow: a failure there leaves the account
// gone locally and is surfaced for the caller to retry provider-side.
func (s *accountService) Disconnect(ctx context.Context, userID, accountID int64) error {
	account, err := s.ownedAccount(ctx, userID, accountID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.sa.Remove(ctx, tx, account.ID); err != nil {
		return fmt.Errorf("error removing social account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.gateway.DisconnectAccount(ctx, account.ProviderAccountID)
}

func (s *accountService) ownedAccount(ctx context.Context, userID, accountID int64) (*models.SocialAccount, error) {
	if userID == 0 {
		return nil, apperr.Validation("user is not valid")
	}
	if accountID == 0 {
		return nil, apperr.Validation("account id is not valid")
	}

	isValid, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}
	if !isValid {
		return nil, apperr.NotFound("social account %d not found", accountID)
	}

	return s.sa.GetByID(ctx, accountID)
}
