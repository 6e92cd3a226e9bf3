package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/dbx"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/repositories/posts"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/repositories/users"
)

type fakeUsersRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	created []*models.User

	createErr error
	getErr    error
}

func newFakeUsersRepo(us ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{byEmail: map[string]*models.User{}}
	for _, u := range us {
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrEmailTaken
	}
	c := *u
	c.ID = "u-" + u.Email
	c.CreatedAt = time.Now()
	f.byEmail[u.Email] = &c
	f.created = append(f.created, &c)
	return &c, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

type fakeRefreshRepo struct {
	mu       sync.Mutex
	tokens   map[string]*models.RefreshToken
	deleted  []string
	prunedAt []time.Time

	consumeErr error
	delErr     error
	createErr  error
	pruneErr   error
	pruned     int64
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: expiresAt}
	return nil
}

func (f *fakeRefreshRepo) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	delete(f.tokens, token)
	return t, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.tokens, token)
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prunedAt = append(f.prunedAt, now)
	return f.pruned, f.pruneErr
}

type fakeProfilesRepo struct {
	profiles map[string]*models.Profile

	lastCreate *models.Profile
	lastUpdate *models.ProfileUpdate
	updateErr  error
}

func newFakeProfilesRepo(ps ...*models.Profile) *fakeProfilesRepo {
	f := &fakeProfilesRepo{profiles: map[string]*models.Profile{}}
	for _, p := range ps {
		f.profiles[p.ID] = p
	}
	return f
}

func (f *fakeProfilesRepo) Get(ctx context.Context, id string) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfilesRepo) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	f.lastCreate = p
	if _, ok := f.profiles[p.ID]; ok {
		return nil, common.ErrConflict
	}
	f.profiles[p.ID] = p
	return p, nil
}

func (f *fakeProfilesRepo) Update(ctx context.Context, id string, u *models.ProfileUpdate) (*models.Profile, error) {
	f.lastUpdate = u
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.UpdatedAt.After(p.UpdatedAt) {
		p.UpdatedAt = u.UpdatedAt
	}
	return p, nil
}

type fakePostsRepo struct {
	listOut []models.FeedPost
	listErr error
	listArg string
	created []string
}

func (f *fakePostsRepo) Create(ctx context.Context, authorID, content string) (*models.Post, error) {
	f.created = append(f.created, content)
	return &models.Post{ID: "p1", Seq: int64(len(f.created)), AuthorID: authorID, Content: content, CreatedAt: time.Now()}, nil
}

func (f *fakePostsRepo) List(ctx context.Context, authorID string) ([]models.FeedPost, error) {
	f.listArg = authorID
	return f.listOut, f.listErr
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	r  *fakeRefreshRepo
	pr *fakeProfilesRepo
	po *fakePostsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Profiles(db dbx.DBTX) profiles.Repository           { return m.pr }
func (m *fakeRepoManager) Posts(db dbx.DBTX) posts.Repository                 { return m.po }
