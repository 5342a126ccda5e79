package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

type PostTargetRepository interface {
	Create(ctx context.Context, tx *sql.Tx, target *models.PostTarget) error
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error)
	UpdateResult(ctx context.Context, postID int64, platform, status, contentID, permalink, errorMessage string) error
	UpdateStatusAll(ctx context.Context, postID int64, status string) error
}

type postTargetRepository struct {
	db *sql.DB
}

func NewPostTargetRepository(db *sql.DB) PostTargetRepository {
	return &postTargetRepository{db: db}
}

func (r *postTargetRepository) Create(ctx context.Context, tx *sql.Tx, target *models.PostTarget) error {
	query := `
		INSERT INTO post_targets (post_id, platform, provider_account_id, status, display_order)
		VALUES ($1, $2, $3, $4, $5)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, target.PostID, target.Platform, target.ProviderAccountID, target.Status, target.DisplayOrder)
	} else {
		_, err = r.db.ExecContext(ctx, query, target.PostID, target.Platform, target.ProviderAccountID, target.Status, target.DisplayOrder)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postTargetRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error) {
	query := `
		SELECT post_id, platform, provider_account_id, status, content_id, permalink, error_message, display_order, created_at, updated_at
		FROM post_targets
		WHERE post_id = $1
		ORDER BY display_order
	`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var targets []*models.PostTarget
	for rows.Next() {
		var t models.PostTarget
		err := rows.Scan(&t.PostID, &t.Platform, &t.ProviderAccountID, &t.Status, &t.ContentID,
			&t.Permalink, &t.ErrorMessage, &t.DisplayOrder, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		targets = append(targets, &t)
	}
	return targets, nil
}

func (r *postTargetRepository) UpdateResult(ctx context.Context, postID int64, platform, status, contentID, permalink, errorMessage string) error {
	query := `
		UPDATE post_targets
		SET status = $1,
			content_id = $2,
			permalink = $3,
			error_message = $4,
			updated_at = $5
		WHERE post_id = $6 AND platform = $7
	`
	_, err := r.db.ExecContext(ctx, query, status, contentID, permalink, errorMessage, time.Now(), postID, platform)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postTargetRepository) UpdateStatusAll(ctx context.Context, postID int64, status string) error {
	query := `UPDATE post_targets SET status = $1, updated_at = $2 WHERE post_id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
