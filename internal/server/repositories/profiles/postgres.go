package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/dbx"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const profileColumns = `id, email, full_name, bio, avatar_key, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	p := &models.Profile{}
	var bio, avatar sql.NullString
	if err := row.Scan(&p.ID, &p.Email, &p.FullName, &bio, &avatar, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if bio.Valid {
		p.Bio = &bio.String
	}
	if avatar.Valid {
		p.AvatarKey = &avatar.String
	}
	return p, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Create keeps the caller's timestamps so the client and the server agree
// on them.
func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (id, email, full_name, bio, avatar_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + profileColumns

	created, err := scanProfile(r.db.QueryRowContext(ctx, query,
		p.ID, p.Email, p.FullName, nullable(p.Bio), nullable(p.AvatarKey), p.CreatedAt, p.UpdatedAt))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

// Update never moves updated_at backwards. A nil Bio keeps the stored value
// and an empty one clears it.
func (r *PostgresRepository) Update(ctx context.Context, id string, u *models.ProfileUpdate) (*models.Profile, error) {
	query := `
		UPDATE profiles SET
			full_name  = COALESCE($2, full_name),
			bio        = CASE WHEN $3::text IS NULL THEN bio WHEN $3::text = '' THEN NULL ELSE $3::text END,
			avatar_key = COALESCE($4, avatar_key),
			updated_at = GREATEST(updated_at, $5)
		WHERE id = $1
		RETURNING ` + profileColumns

	p, err := scanProfile(r.db.QueryRowContext(ctx, query,
		id, nullable(u.FullName), nullable(u.Bio), nullable(u.AvatarKey), u.UpdatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
