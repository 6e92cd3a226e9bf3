package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/repositories/repomanager"
)

type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager) *PostService {
	return &PostService{db: db, repomanager: m}
}

// List returns posts newest first. An empty authorID lists everyone's.
func (s *PostService) List(ctx context.Context, authorID string) ([]models.FeedPost, error) {
	posts, err := s.repomanager.Posts(s.db).List(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

// Create publishes content as the caller. Content is trimmed and must be
// 1..500 characters long.
func (s *PostService) Create(ctx context.Context, callerID, authorID, content string) (*models.Post, error) {
	if authorID != callerID {
		return nil, common.ErrPermissionDenied
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.NewValidationError("content", "must not be empty")
	}
	if utf8.RuneCountInString(content) > common.MaxPostLength {
		return nil, common.NewValidationError("content", "must be at most 500 characters")
	}

	if _, err := s.repomanager.Profiles(s.db).Get(ctx, callerID); err != nil {
		return nil, fmt.Errorf("error loading author: %w", err)
	}

	p, err := s.repomanager.Posts(s.db).Create(ctx, callerID, content)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	return p, nil
}
