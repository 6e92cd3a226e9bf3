package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/linkedcommunity/internal/client/feed"
	"github.com/dmitrijs2005/linkedcommunity/internal/client/identity"
	"github.com/dmitrijs2005/linkedcommunity/internal/client/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/logging"
)

// IdentityService is the part of identity.Manager the CLI drives.
type IdentityService interface {
	Current() identity.Snapshot
	SignUp(ctx context.Context, email string, password []byte, fullName string) (*models.Profile, error)
	SignIn(ctx context.Context, email string, password []byte) (*models.Profile, error)
	SignOut(ctx context.Context)
	UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error)
	Retry(ctx context.Context) error
}

type FeedService interface {
	CreatePost(ctx context.Context, content string) (*models.Post, error)
	LoadFeed(ctx context.Context, scope feed.Scope) ([]models.FeedPost, error)
}

type AvatarService interface {
	SetAvatar(ctx context.Context, path string) (*models.Profile, error)
}

type App struct {
	identity IdentityService
	feed     FeedService
	avatars  AvatarService
	logger   logging.Logger
	reader   *bufio.Reader
	now      func() time.Time

	outMu sync.Mutex
	out   io.Writer
}

func NewApp(ids IdentityService, fs FeedService, avatars AvatarService, logger logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		identity: ids,
		feed:     fs,
		avatars:  avatars,
		logger:   logger.With("module", "cli"),
		reader:   bufio.NewReader(in),
		now:      time.Now,
		out:      out,
	}
}

// Run prints a greeting and serves commands until exit or end of input.
func (a *App) Run(ctx context.Context) {
	a.println("Welcome to LinkedCommunity (type 'help' for commands)")
	if s := a.identity.Current(); s.State == identity.StateAuthenticated && s.Profile != nil {
		a.printf("Signed in as %s\n", s.Profile.FullName)
	}
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

// Watch prints session changes until updates is closed or ctx is done.
// Transitions caused by the user's own commands are reported by the
// commands themselves, so only an unexpected end of session and stuck
// loads are printed here.
func (a *App) Watch(ctx context.Context, updates <-chan identity.Snapshot) {
	last := a.identity.Current().State
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-updates:
			if !ok {
				return
			}
			switch {
			case s.State == identity.StateUnauthenticated && last == identity.StateAuthenticated:
				a.println("Your session has ended. Please log in again.")
			case s.State == identity.StateLoading && s.Err != nil:
				a.printf("Could not load your profile: %s (type 'retry')\n", describeError(s.Err))
			}
			last = s.State
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.identity.Current().State == identity.StateAuthenticated
}

func (a *App) getStatus() string {
	s := a.identity.Current()
	switch s.State {
	case identity.StateAuthenticated:
		if s.Identity != nil {
			return s.Identity.Email
		}
		return s.State.String()
	case identity.StateLoading:
		if s.Err != nil {
			return "offline"
		}
		return "loading"
	default:
		return "signed out"
	}
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}
