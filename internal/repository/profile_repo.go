package repository

import (
	"context"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/models"
)

type UpdateProfileInput struct {
	FullName  *string
	Phone     *string
	AvatarURL *string
}

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, user_id, full_name, phone, avatar_url, is_admin, is_blocked,
	is_online, last_seen_at, created_at, updated_at`

func (r *ProfileRepository) Create(ctx context.Context, userID int64, fullName string, isAdmin bool) error {
	query := `INSERT INTO profiles (user_id, full_name, is_admin) VALUES ($1, $2, $3)`
	_, err := r.db.Exec(ctx, query, userID, fullName, isAdmin)
	return err
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, userID))
}

func (r *ProfileRepository) UpdatePartial(ctx context.Context, userID int64, req UpdateProfileInput) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET full_name = COALESCE($1, full_name),
			phone = COALESCE($2, phone),
			avatar_url = COALESCE($3, avatar_url),
			updated_at = NOW()
		WHERE user_id = $4
		RETURNING ` + profileColumns
	return r.scanOne(r.db.QueryRow(ctx, query, req.FullName, req.Phone, req.AvatarURL, userID))
}

func (r *ProfileRepository) SetOnline(ctx context.Context, userID int64, online bool) error {
	query := `
		UPDATE profiles
		SET is_online = $2, last_seen_at = NOW(), updated_at = NOW()
		WHERE user_id = $1
	`
	_, err := r.db.Exec(ctx, query, userID, online)
	return err
}

// MarkStaleOffline flips profiles whose last heartbeat is older than cutoff.
func (r *ProfileRepository) MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE profiles
		SET is_online = FALSE, updated_at = NOW()
		WHERE is_online = TRUE AND (last_seen_at IS NULL OR last_seen_at < $1)
	`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *ProfileRepository) SetBlocked(ctx context.Context, userID int64, blocked bool) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET is_blocked = $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + profileColumns
	return r.scanOne(r.db.QueryRow(ctx, query, userID, blocked))
}

func (r *ProfileRepository) SetAdmin(ctx context.Context, userID int64, admin bool) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET is_admin = $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + profileColumns
	return r.scanOne(r.db.QueryRow(ctx, query, userID, admin))
}

func (r *ProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		var profile models.Profile
		if err := scanProfile(rows, &profile); err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *ProfileRepository) ListAdminUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM profiles WHERE is_admin = TRUE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner, profile *models.Profile) error {
	return row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Phone,
		&profile.AvatarURL,
		&profile.IsAdmin,
		&profile.IsBlocked,
		&profile.IsOnline,
		&profile.LastSeenAt,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
}

func (r *ProfileRepository) scanOne(row rowScanner) (*models.Profile, error) {
	var profile models.Profile
	if err := scanProfile(row, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
