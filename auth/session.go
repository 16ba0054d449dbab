package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"transitdesk/db"
)

// Storage keys for the persisted session.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var ErrNoSession = errors.New("no active session")

// Session is the signed-in operator. A Session that is not Resolved is
// still being restored from storage.
type Session struct {
	UserID   string          `json:"user_id"`
	RoleID   Role            `json:"role_id"`
	Token    string          `json:"-"`
	User     json.RawMessage `json:"user,omitempty"`
	Resolved bool            `json:"-"`
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.User != nil {
		c.User = append(json.RawMessage(nil), s.User...)
	}
	return &c
}

// Provider owns the session lifecycle. Many readers, one writer.
type Provider struct {
	store   db.Store
	decoder *TokenDecoder
	logger  *zap.Logger

	mu        sync.RWMutex
	session   *Session
	restoring bool
}

func NewProvider(store db.Store, decoder *TokenDecoder, logger *zap.Logger) *Provider {
	return &Provider{store: store, decoder: decoder, logger: logger}
}

// RestoreSession reads the stored token and decodes it. A token that no
// longer decodes is cleared from storage; the caller only sees nil.
func (p *Provider) RestoreSession(ctx context.Context) *Session {
	p.mu.Lock()
	p.restoring = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.restoring = false
		p.mu.Unlock()
	}()

	token, err := p.store.Get(ctx, KeyToken)
	if errors.Is(err, db.ErrNotFound) {
		p.set(nil)
		return nil
	}
	if err != nil {
		p.logger.Error("failed to read stored token", zap.Error(err))
		p.set(nil)
		return nil
	}

	claims, err := p.decoder.Decode(token)
	if err != nil {
		p.logger.Warn("stored token rejected, clearing session", zap.Error(err))
		if cerr := p.clearStorage(ctx); cerr != nil {
			p.logger.Error("failed to clear stored session", zap.Error(cerr))
		}
		p.set(nil)
		return nil
	}

	s := &Session{
		UserID:   string(claims.UserID),
		RoleID:   claims.RoleID,
		Token:    token,
		Resolved: true,
	}
	if raw, err := p.store.Get(ctx, KeyUser); err == nil && json.Valid([]byte(raw)) {
		s.User = json.RawMessage(raw)
	}
	p.set(s)
	p.logger.Info("session restored", zap.String("user_id", s.UserID), zap.Stringer("role", s.RoleID))
	return s.clone()
}

// Login persists the token and user payload, then decodes the token.
// A token that does not decode leaves no session behind.
func (p *Provider) Login(ctx context.Context, token string, user json.RawMessage) (*Session, error) {
	if err := p.store.Set(ctx, KeyToken, token); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}
	if len(user) > 0 {
		if err := p.store.Set(ctx, KeyUser, string(user)); err != nil {
			return nil, fmt.Errorf("failed to persist user: %w", err)
		}
	} else if err := p.store.Delete(ctx, KeyUser); err != nil {
		return nil, fmt.Errorf("failed to clear user: %w", err)
	}

	claims, err := p.decoder.Decode(token)
	if err != nil {
		p.logger.Warn("login token rejected", zap.Error(err))
		if cerr := p.clearStorage(ctx); cerr != nil {
			p.logger.Error("failed to clear stored session", zap.Error(cerr))
		}
		p.set(nil)
		return nil, err
	}

	s := &Session{
		UserID:   string(claims.UserID),
		RoleID:   claims.RoleID,
		Token:    token,
		User:     user,
		Resolved: true,
	}
	p.set(s)
	return s.clone(), nil
}

// Logout clears storage and memory. It never calls the backend.
func (p *Provider) Logout(ctx context.Context) error {
	p.set(nil)
	return p.clearStorage(ctx)
}

// Current returns a copy of the resolved session, or nil.
func (p *Provider) Current() *Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session.clone()
}

// Snapshot is what the access guard decides on: an unresolved session
// while a restore is in flight, otherwise Current.
func (p *Provider) Snapshot() *Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.restoring {
		return &Session{}
	}
	return p.session.clone()
}

// Token returns the bearer token for backend calls, "" when signed out.
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.session == nil {
		return ""
	}
	return p.session.Token
}

// UserID returns the signed-in user id, "" when signed out.
func (p *Provider) UserID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.session == nil {
		return ""
	}
	return p.session.UserID
}

func (p *Provider) set(s *Session) {
	p.mu.Lock()
	p.session = s
	p.mu.Unlock()
}

func (p *Provider) clearStorage(ctx context.Context) error {
	if err := p.store.Delete(ctx, KeyToken); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	if err := p.store.Delete(ctx, KeyUser); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}
	return nil
}
