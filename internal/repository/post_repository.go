package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/postpilothq/postpilot/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	ListByStatus(ctx context.Context, statuses []string) ([]*models.Post, error)
	CountByUserID(ctx context.Context, userID int64) (int, error)
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	UpdateSubmitted(ctx context.Context, postID int64, providerPostID, status string, publishedAt *time.Time) error
	UpdateContent(ctx context.Context, postID int64, caption string, hashtags []string, scheduledFor *time.Time) error
	UpdateStatus(ctx context.Context, status string, postID int64) error
	SetAnalytics(ctx context.Context, postID int64, analytics []byte) error
	Remove(ctx context.Context, tx *sql.Tx, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, video_id, caption, hashtags, thumbnail_url, scheduled_for, provider_post_id, status, published_at, analytics, created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, video_id, caption, hashtags, thumbnail_url, scheduled_for, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.UserID, post.VideoID, post.Caption, post.Hashtags, post.ThumbnailURL, post.ScheduledFor, post.Status).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.UserID, post.VideoID, post.Caption, post.Hashtags, post.ThumbnailURL, post.ScheduledFor, post.Status).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var post models.Post
	err := row.Scan(&post.ID, &post.UserID, &post.VideoID, &post.Caption, &post.Hashtags,
		&post.ThumbnailURL, &post.ScheduledFor, &post.ProviderPostID, &post.Status,
		&post.PublishedAt, &post.Analytics, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows)
}

// ListByStatus feeds the reconciliation sweep: posts still scheduled or
// pending are the ones whose provider-side outcome may have moved.
func (r *postRepository) ListByStatus(ctx context.Context, statuses []string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(statuses))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (r *postRepository) CountByUserID(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM posts WHERE user_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := "SELECT 1 FROM posts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) UpdateSubmitted(ctx context.Context, postID int64, providerPostID, status string, publishedAt *time.Time) error {
	query := `
		UPDATE posts
		SET provider_post_id = $1,
			status = $2,
			published_at = $3,
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, providerPostID, status, publishedAt, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdateContent(ctx context.Context, postID int64, caption string, hashtags []string, scheduledFor *time.Time) error {
	query := `
		UPDATE posts
		SET caption = $1,
			hashtags = $2,
			scheduled_for = COALESCE($3, scheduled_for),
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, caption, pq.Array(hashtags), scheduledFor, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, status string, postID int64) error {
	query := `
		UPDATE posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) SetAnalytics(ctx context.Context, postID int64, analytics []byte) error {
	query := `UPDATE posts SET analytics = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, analytics, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, id)
	} else {
		_, err = r.db.ExecContext(ctx, query, id)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanPosts(rows *sql.Rows) ([]*models.Post, error) {
	var posts []*models.Post
	for rows.Next() {
		var post models.Post
		err := rows.Scan(&post.ID, &post.UserID, &post.VideoID, &post.Caption, &post.Hashtags,
			&post.ThumbnailURL, &post.ScheduledFor, &post.ProviderPostID, &post.Status,
			&post.PublishedAt, &post.Analytics, &post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &post)
	}
	return posts, nil
}
