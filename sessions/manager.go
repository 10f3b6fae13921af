package sessions

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-gateway/internal/errors"
	"github.com/jrsteele09/go-session-gateway/users"
)

// Manager owns one persisted session record. Every read and write of the
// record goes through it.
type Manager struct {
	repo Repo
	key  string
}

func NewManager(repo Repo, key string) *Manager {
	if key == "" {
		key = DefaultKey
	}
	return &Manager{repo: repo, key: key}
}

func (m *Manager) Key() string {
	return m.key
}

// Load returns the persisted record. It never fails: a store error or a
// malformed record is logged and reported as no session.
func (m *Manager) Load(ctx context.Context) (Record, bool) {
	data, found, err := m.repo.Get(ctx, m.key)
	if err != nil {
		log.Warn().Err(err).Str("key", m.key).Msg("Session read failed, treating as signed out")
		return Record{}, false
	}
	if !found {
		return Record{}, false
	}

	record, err := Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("key", m.key).Msg("Ignoring malformed session record")
		return Record{}, false
	}
	return record, true
}

// Token returns the bearer credential of the persisted session, if any.
func (m *Manager) Token(ctx context.Context) (string, bool) {
	record, ok := m.Load(ctx)
	if !ok {
		return "", false
	}
	return record.Token()
}

func (m *Manager) Identity(ctx context.Context) (users.Identity, bool) {
	record, ok := m.Load(ctx)
	if !ok {
		return users.Identity{}, false
	}
	return record.Identity()
}

// Login creates or overwrites the persisted session.
func (m *Manager) Login(ctx context.Context, token string, identity *users.Identity) error {
	if token == "" {
		return errors.Wrapf(errors.ErrInvalidToken, "[Manager Login] empty token")
	}
	if identity != nil && identity.Role != "" && !identity.Role.Valid() {
		return errors.Wrapf(errors.ErrInvalidRole, "[Manager Login] role %q", identity.Role)
	}

	data, err := Encode(NewRecord(token, identity))
	if err != nil {
		return err
	}
	if err := m.repo.Set(ctx, m.key, data); err != nil {
		return errors.Wrapf(err, "[Manager Login] store %s", m.key)
	}
	return nil
}

// Logout removes the persisted session on explicit user request.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.repo.Delete(ctx, m.key); err != nil {
		return errors.Wrapf(err, "[Manager Logout] delete %s", m.key)
	}
	return nil
}

// Invalidate removes the persisted session after the server rejected its
// credential. Clearing an already empty session is a no-op.
func (m *Manager) Invalidate(ctx context.Context) error {
	if err := m.repo.Delete(ctx, m.key); err != nil {
		return errors.Wrapf(err, "[Manager Invalidate] delete %s", m.key)
	}
	log.Info().Str("key", m.key).Msg("Session invalidated")
	return nil
}
