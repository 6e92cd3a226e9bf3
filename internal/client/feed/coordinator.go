// Package feed loads and publishes posts for the signed-in user.
package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/linkedcommunity/internal/client/identity"
	"github.com/dmitrijs2005/linkedcommunity/internal/client/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/logging"
)

type Scope int

const (
	ScopeAll Scope = iota
	ScopeMine
)

func (s Scope) String() string {
	if s == ScopeMine {
		return "mine"
	}
	return "all"
}

// PostStore lists and creates posts. ListPosts returns every post when
// authorID is empty, each joined with its author's profile.
type PostStore interface {
	ListPosts(ctx context.Context, authorID string) ([]models.FeedPost, error)
	CreatePost(ctx context.Context, authorID, content string) (*models.Post, error)
}

// Session exposes the current identity state.
type Session interface {
	Current() identity.Snapshot
}

// Coordinator keeps the displayed feed. Only the most recently started load
// may replace the list, so a slow earlier request cannot overwrite a newer
// one.
type Coordinator struct {
	store   PostStore
	session Session
	logger  logging.Logger

	mu      sync.Mutex
	posts   []models.FeedPost
	scope   Scope
	loadSeq uint64
}

func NewCoordinator(store PostStore, session Session, logger logging.Logger) *Coordinator {
	return &Coordinator{
		store:   store,
		session: session,
		logger:  logger.With("module", "feed"),
	}
}

// CreatePost validates content, stores it under the current identity and
// reloads the active feed. Nothing is inserted into the list locally.
func (c *Coordinator) CreatePost(ctx context.Context, content string) (*models.Post, error) {
	s := c.session.Current()
	if s.State != identity.StateAuthenticated {
		return nil, common.ErrNotAuthenticated
	}

	text, err := models.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	post, err := c.store.CreatePost(ctx, s.Identity.ID, text)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	c.logger.Info(ctx, "post created", "post_id", post.ID)

	if _, err := c.LoadFeed(ctx, c.Scope()); err != nil {
		c.logger.Warn(ctx, "feed refresh after post failed", "error", err)
	}
	return post, nil
}

// LoadFeed fetches the feed for scope, newest first, and replaces the
// displayed list. On failure the list is left as it was.
func (c *Coordinator) LoadFeed(ctx context.Context, scope Scope) ([]models.FeedPost, error) {
	var author string
	if scope == ScopeMine {
		s := c.session.Current()
		if s.State != identity.StateAuthenticated {
			return nil, common.ErrNotAuthenticated
		}
		author = s.Identity.ID
	}

	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	posts, err := c.store.ListPosts(ctx, author)
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}
	models.SortNewestFirst(posts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq == c.loadSeq {
		c.posts = posts
		c.scope = scope
	}
	return clonePosts(posts), nil
}

// Posts returns the displayed list.
func (c *Coordinator) Posts() []models.FeedPost {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clonePosts(c.posts)
}

func (c *Coordinator) Scope() Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

// Reset clears the list and invalidates loads still in flight.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadSeq++
	c.posts = nil
	c.scope = ScopeAll
}

// Follow resets the feed whenever the session leaves Authenticated. It
// returns when ctx is done or updates is closed.
func (c *Coordinator) Follow(ctx context.Context, updates <-chan identity.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-updates:
			if !ok {
				return
			}
			if s.State == identity.StateUnauthenticated {
				c.Reset()
			}
		}
	}
}

func clonePosts(in []models.FeedPost) []models.FeedPost {
	if in == nil {
		return nil
	}
	out := make([]models.FeedPost, len(in))
	for i, p := range in {
		out[i] = p
		out[i].Author = p.Author.Clone()
	}
	return out
}
