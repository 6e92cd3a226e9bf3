package identity

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/linkedcommunity/internal/client/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/common"
)

// notify is the session-change sink. Events are conflated: only the latest
// one waits for the worker. An event for a different identity cancels the
// fetch that is currently in flight. Identities reported by a sign-in the
// user has already signed out of are dropped.
func (m *Manager) notify(id *models.Identity) {
	m.mu.Lock()
	if id != nil && m.lateAuthLocked() {
		m.mu.Unlock()
		m.logger.Debug(context.Background(), "ignoring session from a sign-in made before sign-out", "identity_id", id.ID)
		return
	}
	var ident *models.Identity
	if id != nil {
		v := *id
		ident = &v
		if m.inflight != nil && m.inflight.identityID != id.ID {
			m.inflight.cancel()
			m.inflight = nil
			m.epoch++
		}
	}
	m.pending = &sessionEvent{identity: ident, epoch: m.epoch}
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Run processes session-change events one at a time until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.wake:
		}

		m.mu.Lock()
		ev := m.pending
		m.pending = nil
		m.mu.Unlock()

		if ev != nil {
			m.handle(ctx, ev)
		}
	}
}

func (m *Manager) handle(ctx context.Context, ev *sessionEvent) {
	if ev.identity == nil {
		m.mu.Lock()
		if m.epoch == ev.epoch && m.snap.State != StateUnauthenticated {
			m.logger.Info(ctx, "session ended")
			m.endSessionLocked()
		}
		m.mu.Unlock()
		return
	}

	_, err := m.resolve(ctx, *ev.identity, ev.epoch)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrSuperseded), errors.Is(err, context.Canceled):
		m.logger.Debug(ctx, "session event dropped", "identity_id", ev.identity.ID, "error", err)
	default:
		m.logger.Warn(ctx, "session event failed", "identity_id", ev.identity.ID, "error", err)
	}
}
