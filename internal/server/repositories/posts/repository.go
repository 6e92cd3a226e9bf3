// Package posts declares the server-side repository contract for posts.
package posts

import (
	"context"

	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
)

type Repository interface {
	// Create stores a post and fills in its id, sequence and timestamp.
	Create(ctx context.Context, authorID, content string) (*models.Post, error)

	// List returns posts newest first, joined with their authors. An empty
	// authorID lists every post.
	List(ctx context.Context, authorID string) ([]models.FeedPost, error)
}
