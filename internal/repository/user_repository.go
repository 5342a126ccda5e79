package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, bool, error)
	Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error)
	SetProviderTeamID(ctx context.Context, userID int64, teamID string) error
	AppendPost(ctx context.Context, tx *sql.Tx, userID, postID int64) error
	RemovePost(ctx context.Context, tx *sql.Tx, userID, postID int64) error
	ListPostIDs(ctx context.Context, userID int64) ([]int64, error)
	Remove(ctx context.Context, tx *sql.Tx, id int64) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	var user models.User
	query := "SELECT id, google_id, email, name, profile_picture, provider_team_id FROM users WHERE id = $1"
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.GoogleID, &user.Email, &user.Name, &user.ProfilePicture, &user.ProviderTeamID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &user, true, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	var user models.User
	query := "SELECT id, google_id, email, name, provider_team_id FROM users WHERE email = $1"
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.GoogleID, &user.Email, &user.Name, &user.ProviderTeamID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &user, true, nil
}

func (r *userRepository) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	query := "INSERT INTO users (google_id, email, name, profile_picture, provider_team_id) VALUES ($1, $2, $3, $4, $5) RETURNING id"

	var err error
	var id int64

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, user.GoogleID, user.Email, user.Name, user.ProfilePicture, user.ProviderTeamID).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, user.GoogleID, user.Email, user.Name, user.ProfilePicture, user.ProviderTeamID).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *userRepository) SetProviderTeamID(ctx context.Context, userID int64, teamID string) error {
	query := `UPDATE users SET provider_team_id = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, teamID, time.Now(), userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// AppendPost records a post in the user's post index so listing a user's
// posts never needs a full posts scan.
func (r *userRepository) AppendPost(ctx context.Context, tx *sql.Tx, userID, postID int64) error {
	query := `INSERT INTO user_posts (user_id, post_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, userID, postID)
	} else {
		_, err = r.db.ExecContext(ctx, query, userID, postID)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) RemovePost(ctx context.Context, tx *sql.Tx, userID, postID int64) error {
	query := `DELETE FROM user_posts WHERE user_id = $1 AND post_id = $2`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, userID, postID)
	} else {
		_, err = r.db.ExecContext(ctx, query, userID, postID)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) ListPostIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT post_id FROM user_posts WHERE user_id = $1 ORDER BY post_id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *userRepository) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	query := `DELETE FROM users WHERE id = $1`

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
