package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/Dmitrij-bot/vinabook/internal/notify"
	"github.com/Dmitrij-bot/vinabook/internal/repository"
	"github.com/Dmitrij-bot/vinabook/internal/resource"
)

// SessionStore holds the signed-in user, mirrored to the repository so it
// survives restarts. Tokens are never refreshed or expired here; a request
// failing with 401 is the caller's cue to log in again.
type SessionStore struct {
	mu      sync.RWMutex
	user    *resource.User
	subs    map[int]func(resource.User, bool)
	nextSub int

	repo     repository.Interface
	auth     resource.AuthAccessor
	notifier notify.Notifier
	log      *logrus.Entry
}

// NewSessionStore rehydrates the session from repo. A stored user that no
// longer decodes is dropped.
func NewSessionStore(ctx context.Context, repo repository.Interface, auth resource.AuthAccessor, notifier notify.Notifier, log *logrus.Entry) (*SessionStore, error) {
	s := &SessionStore{
		subs:     make(map[int]func(resource.User, bool)),
		repo:     repo,
		auth:     auth,
		notifier: notifier,
		log:      log.WithField("component", "session"),
	}

	raw, found, err := repo.Get(ctx, repository.KeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !found {
		return s, nil
	}

	var u resource.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log.WithError(err).Warn("dropping unreadable session record")
		if err := repo.Delete(ctx, repository.KeyUser); err != nil {
			return nil, fmt.Errorf("failed to drop session record: %w", err)
		}
		return s, nil
	}
	s.user = &u

	return s, nil
}

func (s *SessionStore) User() (resource.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return resource.User{}, false
	}
	return *s.user, true
}

func (s *SessionStore) Subscribe(fn func(u resource.User, signedIn bool)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// SetUser persists u and then publishes it.
func (s *SessionStore) SetUser(ctx context.Context, u resource.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	if err := s.repo.Set(ctx, repository.KeyUser, string(raw)); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	s.publish(&u)
	return nil
}

func (s *SessionStore) ResetUser(ctx context.Context) error {
	if err := s.repo.Delete(ctx, repository.KeyUser); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}

	s.publish(nil)
	return nil
}

func (s *SessionStore) publish(u *resource.User) {
	s.mu.Lock()
	s.user = u
	subs := make([]func(resource.User, bool), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	var value resource.User
	if u != nil {
		value = *u
	}
	for _, fn := range subs {
		fn(value, u != nil)
	}
}

// Login exchanges credentials for a token and stores token and user
// together. The result names the screen the user lands on.
func (s *SessionStore) Login(ctx context.Context, credentials resource.CredentialsLogin) (LoginResult, error) {
	resp, err := s.auth.Login(ctx, credentials)
	if err != nil {
		notifyError(s.notifier, s.log, err, msgUnknownError)
		return LoginResult{}, fmt.Errorf("failed to login as %q: %w", credentials.Username, err)
	}
	if resp.Token == "" {
		s.notifier.Error(msgLoginFailed)
		return LoginResult{}, ErrLoginRejected
	}

	u := resource.User{Username: credentials.Username, Role: resource.RoleUser}
	if resp.User != nil {
		u = *resp.User
	}

	raw, err := json.Marshal(u)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to marshal user: %w", err)
	}

	if err := s.repo.SetMany(ctx, map[string]string{
		repository.KeyToken: resp.Token,
		repository.KeyUser:  string(raw),
	}); err != nil {
		return LoginResult{}, fmt.Errorf("failed to save session: %w", err)
	}

	s.publish(&u)
	s.notifier.Success(msgLoggedIn)
	s.log.WithFields(logrus.Fields{"username": u.Username, "role": u.Role}).Info("logged in")

	route := RouteClientHome
	if u.Role == resource.RoleAdmin {
		route = RouteAdmin
	}

	return LoginResult{User: u, Route: route, Message: resp.Message}, nil
}

func (s *SessionStore) Logout(ctx context.Context) error {
	if err := s.repo.Delete(ctx, repository.KeyToken, repository.KeyUser); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.publish(nil)
	s.notifier.Success(msgLoggedOut)

	return nil
}

func (s *SessionStore) Register(ctx context.Context, credentials resource.Credentials) (resource.SignupResponse, error) {
	resp, err := s.auth.Signup(ctx, credentials)
	if err != nil {
		notifyError(s.notifier, s.log, err, msgUnknownError)
		return resource.SignupResponse{}, fmt.Errorf("failed to register %q: %w", credentials.Username, err)
	}
	if resp.User == nil {
		s.notifier.Error(msgRegisterError)
		return resp, nil
	}

	s.notifier.Success(msgRegistered)
	return resp, nil
}

func (s *SessionStore) Token(ctx context.Context) (string, error) {
	return repository.TokenSource(s.repo).Token(ctx)
}

// Claims decodes the stored token without verifying its signature. It is
// meant for display only.
func (s *SessionStore) Claims(ctx context.Context) (Claims, error) {
	tok, err := s.Token(ctx)
	if err != nil {
		return Claims{}, err
	}
	if tok == "" {
		return Claims{}, fmt.Errorf("token: %w", ErrNotFound)
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, mc); err != nil {
		return Claims{}, fmt.Errorf("failed to parse token: %w", err)
	}

	var c Claims
	c.Subject, _ = mc.GetSubject()
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	c.Username = stringClaim(mc, "username")
	c.Role = stringClaim(mc, "role")
	if c.Subject == "" {
		c.Subject = stringClaim(mc, "id")
	}

	return c, nil
}

func stringClaim(mc jwt.MapClaims, key string) string {
	switch v := mc[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}
