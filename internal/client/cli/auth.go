package cli

import (
	"context"

	"github.com/dmitrijs2005/linkedcommunity/internal/client/identity"
	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/timex"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getMultiline = GetMultiline

// Register prompts for email, password and an optional full name and
// creates the account. The password is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	fullName, err := getSimpleText(a.reader, "Enter full name (optional)", a.out)
	if err != nil {
		return err
	}

	profile, err := a.identity.SignUp(ctx, email, password, fullName)
	if err != nil {
		return err
	}

	a.printf("Welcome, %s!\n", profile.FullName)
	return nil
}

// Login prompts for credentials and signs in. The password is wiped
// before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	profile, err := a.identity.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	a.printf("Welcome back, %s!\n", profile.FullName)
	return nil
}

// Logout works from any state that may hold a session, including a
// profile load stuck in Loading.
func (a *App) Logout(ctx context.Context) error {
	if a.identity.Current().State == identity.StateUnauthenticated {
		return common.ErrNotAuthenticated
	}
	a.identity.SignOut(ctx)
	a.println("Logged out")
	return nil
}

// Retry re-runs a session check or profile load that failed earlier.
func (a *App) Retry(ctx context.Context) error {
	before := a.identity.Current()
	if before.State != identity.StateLoading || before.Err == nil {
		a.println("Nothing to retry")
		return nil
	}
	if err := a.identity.Retry(ctx); err != nil {
		return err
	}
	return a.WhoAmI(ctx)
}

func (a *App) WhoAmI(ctx context.Context) error {
	s := a.identity.Current()
	if s.State != identity.StateAuthenticated || s.Profile == nil {
		a.printf("Not signed in (%s)\n", s.State)
		return nil
	}

	p := s.Profile
	a.printf("%s <%s>\n", p.FullName, p.Email)
	if p.Bio != nil {
		a.printf("Bio: %s\n", *p.Bio)
	}
	if p.AvatarKey != nil {
		a.printf("Avatar: %s\n", *p.AvatarKey)
	}
	a.printf("Joined %s\n", timex.Ago(p.CreatedAt, a.now()))
	return nil
}
