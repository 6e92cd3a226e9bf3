// Package identity owns the client's notion of "who is signed in".
//
// Manager reconciles the session provider's events with the profile kept in
// the remote store. It is a four-state machine:
//
//	Unknown -> Loading -> Authenticated | Unauthenticated
//
// Profiles are provisioned lazily on the first successful session. At most
// one fetch-or-provision runs per identity, and results that arrive after
// a sign-out or after a different identity took over are dropped.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/linkedcommunity/internal/client/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/logging"
	"golang.org/x/sync/singleflight"
)

type State int

const (
	StateUnknown State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the manager state.
// Identity is set in Loading (when known) and Authenticated; Profile only in
// Authenticated. Err holds the last failure that left the manager in Loading.
type Snapshot struct {
	State    State
	Identity *models.Identity
	Profile  *models.Profile
	Err      error
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.Identity != nil {
		id := *s.Identity
		out.Identity = &id
	}
	out.Profile = s.Profile.Clone()
	return out
}

// SessionProvider authenticates users and reports session changes.
// GetSession returns (nil, nil) when there is no session. The callback
// passed to OnSessionChange receives nil when the session ends.
type SessionProvider interface {
	GetSession(ctx context.Context) (*models.Identity, error)
	SignUp(ctx context.Context, email string, password []byte, fullName string) (*models.Identity, error)
	SignIn(ctx context.Context, email string, password []byte) (*models.Identity, error)
	SignOut(ctx context.Context) error
	OnSessionChange(fn func(*models.Identity))
}

// ProfileStore persists profiles. GetProfile returns (nil, nil) when the
// profile does not exist; CreateProfile fails with common.ErrConflict when
// it already does.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	CreateProfile(ctx context.Context, p *models.Profile) error
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch, updatedAt time.Time) error
}

type flight struct {
	identityID string
	key        string
	ctx        context.Context
	cancel     context.CancelFunc
}

type sessionEvent struct {
	identity *models.Identity
	epoch    uint64
}

type Manager struct {
	sessions SessionProvider
	store    ProfileStore
	logger   logging.Logger
	now      func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	snap     Snapshot
	epoch    uint64
	flightNo uint64
	signOuts uint64
	inflight *flight
	names    map[string]string // lower-cased email -> full name given at sign-up
	authing  map[uint64]int    // sign-out count at start -> SignIn/SignUp calls in flight
	subs     map[int]chan Snapshot
	nextSub  int
	pending  *sessionEvent

	wake chan struct{}
}

// NewManager registers the manager as the provider's session-change sink.
// Notifications are queued until Run is started.
func NewManager(sessions SessionProvider, store ProfileStore, logger logging.Logger) *Manager {
	m := &Manager{
		sessions: sessions,
		store:    store,
		logger:   logger.With("module", "identity"),
		now:      func() time.Time { return time.Now().UTC() },
		names:    make(map[string]string),
		authing:  make(map[uint64]int),
		subs:     make(map[int]chan Snapshot),
		wake:     make(chan struct{}, 1),
	}
	sessions.OnSessionChange(m.notify)
	return m
}

// Current returns a copy of the present state.
func (m *Manager) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.clone()
}

// Subscribe returns a channel that always holds the latest state. Slow
// readers skip intermediate states. The current state is delivered first.
// The returned func unsubscribes and closes the channel.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	ch <- m.snap.clone()
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			close(ch)
			m.mu.Unlock()
		})
	}
}

// setLocked replaces the state and fans it out. m.mu must be held.
func (m *Manager) setLocked(s Snapshot) {
	m.snap = s
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.clone()
	}
}

// Start performs the initial session check. It only acts in Unknown.
// A transport failure leaves the manager in Loading with the error
// recorded; Retry picks it up from there.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.snap.State != StateUnknown {
		m.mu.Unlock()
		return nil
	}
	epoch := m.epoch
	m.setLocked(Snapshot{State: StateLoading})
	m.mu.Unlock()

	return m.checkSession(ctx, epoch)
}

func (m *Manager) checkSession(ctx context.Context, epoch uint64) error {
	id, err := m.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, common.ErrTransport) {
			m.mu.Lock()
			if m.epoch == epoch && m.snap.State == StateLoading && m.snap.Identity == nil {
				m.setLocked(Snapshot{State: StateLoading, Err: err})
			}
			m.mu.Unlock()
			return fmt.Errorf("session check: %w", err)
		}
		m.logger.Warn(ctx, "session lookup failed, treating as signed out", "error", err)
		id = nil
	}

	if id == nil {
		m.mu.Lock()
		if m.epoch == epoch && m.snap.State == StateLoading && m.snap.Identity == nil {
			m.setLocked(Snapshot{State: StateUnauthenticated})
		}
		m.mu.Unlock()
		return nil
	}

	_, err = m.resolve(ctx, *id, epoch)
	if errors.Is(err, common.ErrSuperseded) {
		return nil
	}
	return err
}

// Retry re-runs whatever left the manager stuck in Loading with an error:
// the session check when no identity is known yet, otherwise the
// fetch-or-provision for that identity.
func (m *Manager) Retry(ctx context.Context) error {
	m.mu.Lock()
	s := m.snap
	epoch := m.epoch
	m.mu.Unlock()

	switch {
	case s.State == StateUnknown:
		return m.Start(ctx)
	case s.State != StateLoading || s.Err == nil:
		return nil
	case s.Identity == nil:
		return m.checkSession(ctx, epoch)
	default:
		_, err := m.resolve(ctx, *s.Identity, epoch)
		return err
	}
}

// SignUp creates the account and provisions its profile with fullName.
// On failure the state is left untouched.
func (m *Manager) SignUp(ctx context.Context, email string, password []byte, fullName string) (*models.Profile, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	seen := m.beginAuth()
	defer m.endAuth(seen)

	m.mu.Lock()
	if name := strings.TrimSpace(fullName); name != "" {
		m.names[key] = name
	}
	m.mu.Unlock()

	id, err := m.sessions.SignUp(ctx, email, password, fullName)
	if err != nil {
		m.mu.Lock()
		delete(m.names, key)
		m.mu.Unlock()
		return nil, err
	}

	m.logger.Info(ctx, "signed up", "identity_id", id.ID)
	return m.profileAfterAuth(ctx, *id, seen)
}

// SignIn authenticates and loads (or provisions) the profile. On failure
// the state is left untouched.
func (m *Manager) SignIn(ctx context.Context, email string, password []byte) (*models.Profile, error) {
	seen := m.beginAuth()
	defer m.endAuth(seen)

	id, err := m.sessions.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "signed in", "identity_id", id.ID)
	return m.profileAfterAuth(ctx, *id, seen)
}

func (m *Manager) beginAuth() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := m.signOuts
	m.authing[seen]++
	return seen
}

func (m *Manager) endAuth(seen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authing[seen]--; m.authing[seen] <= 0 {
		delete(m.authing, seen)
	}
}

// lateAuthLocked reports whether the only provider calls in flight started
// before the latest sign-out. m.mu must be held.
func (m *Manager) lateAuthLocked() bool {
	return len(m.authing) > 0 && m.authing[m.signOuts] == 0
}

// profileAfterAuth resolves a freshly authenticated identity. If the user
// signed out while the provider call was running, the session it produced
// is ended again so neither the provider nor its cache keeps it.
func (m *Manager) profileAfterAuth(ctx context.Context, id models.Identity, signOuts uint64) (*models.Profile, error) {
	m.mu.Lock()
	if m.signOuts != signOuts {
		m.mu.Unlock()
		m.logger.Info(ctx, "discarding session started before sign-out", "identity_id", id.ID)
		if err := m.sessions.SignOut(ctx); err != nil {
			m.logger.Warn(ctx, "late session not revoked", "identity_id", id.ID, "error", err)
		}
		return nil, common.ErrSuperseded
	}
	epoch := m.epoch
	m.mu.Unlock()

	s, err := m.resolve(ctx, id, epoch)
	if err != nil {
		return nil, err
	}
	return s.Profile.Clone(), nil
}

// SignOut drops local state first and then ends the remote session.
// The remote outcome is logged and otherwise ignored.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	m.endSessionLocked()
	m.mu.Unlock()

	if err := m.sessions.SignOut(ctx); err != nil {
		m.logger.Warn(ctx, "remote sign-out failed", "error", err)
		return
	}
	m.logger.Info(ctx, "signed out")
}

func (m *Manager) endSessionLocked() {
	m.epoch++
	m.signOuts++
	if m.inflight != nil {
		m.inflight.cancel()
		m.inflight = nil
	}
	m.pending = nil
	m.setLocked(Snapshot{State: StateUnauthenticated})
}

// UpdateProfile validates and persists patch, then merges it into the
// cached profile. The cache is untouched when persisting fails.
func (m *Manager) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error) {
	m.mu.Lock()
	if m.snap.State != StateAuthenticated {
		m.mu.Unlock()
		return nil, common.ErrNotAuthenticated
	}
	id := m.snap.Identity.ID
	epoch := m.epoch
	current := m.snap.Profile.Clone()
	m.mu.Unlock()

	norm, err := patch.Normalize()
	if err != nil {
		return nil, err
	}
	if norm.IsEmpty() {
		return current, nil
	}

	now := m.now()
	if err := m.store.UpdateProfile(ctx, id, norm, now); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch || m.snap.State != StateAuthenticated || m.snap.Identity.ID != id {
		return nil, common.ErrSuperseded
	}

	updated := m.snap.Profile.Clone()
	norm.ApplyTo(updated, now)
	m.setLocked(Snapshot{State: StateAuthenticated, Identity: m.snap.Identity, Profile: updated})

	return updated.Clone(), nil
}

// resolve drives identity id to Authenticated through fetch-or-provision.
// Callers asking for an identity that is already loaded or loading share
// the result. Starting a new fetch requires epoch to still be current,
// otherwise the call fails with common.ErrSuperseded. Every new fetch
// bumps the epoch so older queued events cannot undo it.
func (m *Manager) resolve(ctx context.Context, id models.Identity, epoch uint64) (Snapshot, error) {
	m.mu.Lock()

	if m.snap.State == StateAuthenticated && m.snap.Identity.ID == id.ID {
		s := m.snap.clone()
		m.mu.Unlock()
		return s, nil
	}

	if m.inflight == nil || m.inflight.identityID != id.ID {
		if m.epoch != epoch {
			m.mu.Unlock()
			return Snapshot{}, common.ErrSuperseded
		}
		if m.inflight != nil {
			m.logger.Info(ctx, "session superseded", "from", m.inflight.identityID, "to", id.ID)
			m.inflight.cancel()
		}
		m.epoch++
		m.flightNo++
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		m.inflight = &flight{
			identityID: id.ID,
			key:        fmt.Sprintf("%s#%d", id.ID, m.flightNo),
			ctx:        fctx,
			cancel:     cancel,
		}
		ident := id
		m.setLocked(Snapshot{State: StateLoading, Identity: &ident})
	}
	fl := m.inflight
	m.mu.Unlock()

	ch := m.group.DoChan(fl.key, func() (any, error) {
		return m.fetchOrProvision(fl, id)
	})

	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot).clone(), nil
	}
}

func (m *Manager) fetchOrProvision(fl *flight, id models.Identity) (Snapshot, error) {
	ctx := fl.ctx
	p, err := m.loadOrCreate(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inflight != fl {
		m.logger.Debug(ctx, "discarding stale profile result", "identity_id", id.ID)
		return Snapshot{}, common.ErrSuperseded
	}
	m.inflight = nil
	fl.cancel()

	ident := id
	if err != nil {
		m.logger.Error(ctx, "profile fetch failed", "identity_id", id.ID, "error", err)
		m.setLocked(Snapshot{State: StateLoading, Identity: &ident, Err: err})
		return Snapshot{}, err
	}

	delete(m.names, strings.ToLower(id.Email))
	s := Snapshot{State: StateAuthenticated, Identity: &ident, Profile: p}
	m.setLocked(s)
	return s.clone(), nil
}

func (m *Manager) loadOrCreate(ctx context.Context, id models.Identity) (*models.Profile, error) {
	p, err := m.store.GetProfile(ctx, id.ID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if p != nil {
		return p, nil
	}

	m.mu.Lock()
	name := m.names[strings.ToLower(id.Email)]
	m.mu.Unlock()

	p = models.NewProfile(id, name, m.now())
	err = m.store.CreateProfile(ctx, p)
	switch {
	case err == nil:
		m.logger.Info(ctx, "profile provisioned", "identity_id", id.ID)
		return p, nil
	case errors.Is(err, common.ErrConflict):
		p, err = m.store.GetProfile(ctx, id.ID)
		if err != nil {
			return nil, fmt.Errorf("get profile after conflict: %w", err)
		}
		if p == nil {
			return nil, fmt.Errorf("get profile after conflict: %w", common.ErrNotFound)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("create profile: %w", err)
	}
}
