package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/linkedcommunity/internal/client/feed"
	"github.com/dmitrijs2005/linkedcommunity/internal/client/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/timex"
)

// Post publishes the text given as arguments, or asks for a multi-line
// body.
func (a *App) Post(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return common.ErrNotAuthenticated
	}

	content := strings.Join(args, " ")
	if content == "" {
		var err error
		content, err = getMultiline(a.reader, "What's on your mind?", a.out)
		if err != nil {
			return err
		}
	}

	if _, err := a.feed.CreatePost(ctx, content); err != nil {
		return err
	}
	a.println("Posted")
	return nil
}

func (a *App) Feed(ctx context.Context) error {
	return a.showFeed(ctx, feed.ScopeAll)
}

func (a *App) Mine(ctx context.Context) error {
	return a.showFeed(ctx, feed.ScopeMine)
}

func (a *App) showFeed(ctx context.Context, scope feed.Scope) error {
	posts, err := a.feed.LoadFeed(ctx, scope)
	if err != nil {
		return err
	}

	a.outMu.Lock()
	defer a.outMu.Unlock()
	renderPosts(a.out, posts, a.now())
	return nil
}

func renderPosts(w io.Writer, posts []models.FeedPost, now time.Time) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts yet")
		return
	}

	var b strings.Builder
	for i, p := range posts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.AuthorName())
		b.WriteString(" - ")
		b.WriteString(timex.Ago(p.CreatedAt, now))
		b.WriteString("\n")
		for _, line := range strings.Split(p.Content, "\n") {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	fmt.Fprint(w, b.String())
}
