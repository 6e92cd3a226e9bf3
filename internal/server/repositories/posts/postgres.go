package posts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/linkedcommunity/internal/dbx"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, authorID, content string) (*models.Post, error) {
	query := `
		INSERT INTO posts (author_id, content)
		VALUES ($1, $2)
		RETURNING id, seq, created_at
	`
	p := &models.Post{AuthorID: authorID, Content: content}
	if err := r.db.QueryRowContext(ctx, query, authorID, content).Scan(&p.ID, &p.Seq, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// List orders by created_at and breaks ties with seq, newest first.
func (r *PostgresRepository) List(ctx context.Context, authorID string) ([]models.FeedPost, error) {
	query := `
		SELECT p.id, p.seq, p.author_id, p.content, p.created_at,
		       pr.id, pr.email, pr.full_name, pr.bio, pr.avatar_key, pr.created_at, pr.updated_at
		FROM posts p
		LEFT JOIN profiles pr ON pr.id = p.author_id
		WHERE $1 = '' OR p.author_id::text = $1
		ORDER BY p.created_at DESC, p.seq DESC
	`
	rows, err := r.db.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.FeedPost
	for rows.Next() {
		var (
			fp                           models.FeedPost
			aID, aEmail, aName, bio, key sql.NullString
			aCreated, aUpdated           sql.NullTime
		)
		if err := rows.Scan(&fp.ID, &fp.Seq, &fp.AuthorID, &fp.Content, &fp.CreatedAt,
			&aID, &aEmail, &aName, &bio, &key, &aCreated, &aUpdated); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if aID.Valid {
			fp.Author = &models.Profile{
				ID:        aID.String,
				Email:     aEmail.String,
				FullName:  aName.String,
				CreatedAt: aCreated.Time,
				UpdatedAt: aUpdated.Time,
			}
			if bio.Valid {
				fp.Author.Bio = &bio.String
			}
			if key.Valid {
				fp.Author.AvatarKey = &key.String
			}
		}
		out = append(out, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
