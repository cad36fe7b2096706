package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jadwalin/jadwal/internal/persistence"
)

func plainVerifier(hashed, password string) error {
	if hashed != password {
		return ErrInvalidCredentials
	}
	return nil
}

func tokenSequence(tokens ...string) func() string {
	return func() string {
		if len(tokens) == 0 {
			return ""
		}
		token := tokens[0]
		tokens = tokens[1:]
		return token
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues sessions for valid credentials", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
		creds := &credentialStoreStub{
			credentials: UserCredentials{
				User:         User{ID: "user-1", Email: "user@kampus.ac.id"},
				PasswordHash: "secret",
			},
		}
		repo := newSessionRepositoryStub()
		svc := NewAuthService(creds, repo, plainVerifier, tokenSequence("session-id", "session-token"), func() time.Time { return now }, time.Hour)

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "User@Kampus.ac.id", Password: "secret", Fingerprint: " device "})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.Session.ID != "session-id" || result.Session.Token != "session-token" {
			t.Fatalf("unexpected session %+v", result.Session)
		}
		if result.Session.Fingerprint != "device" {
			t.Fatalf("expected fingerprint to be trimmed, got %q", result.Session.Fingerprint)
		}
		if !result.Session.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Fatalf("unexpected expiry %s", result.Session.ExpiresAt)
		}
		if _, ok := repo.tokenToID["session-token"]; !ok {
			t.Fatal("expected session to be persisted")
		}
	})

	t.Run("verifies argon2id hashes by default", func(t *testing.T) {
		t.Parallel()

		hash, err := CreatePasswordHash("rahasia123", fastArgon2)
		if err != nil {
			t.Fatalf("CreatePasswordHash: %v", err)
		}
		creds := &credentialStoreStub{credentials: UserCredentials{User: User{ID: "user"}, PasswordHash: hash}}
		svc := NewAuthService(creds, nil, nil, tokenSequence("id", "token"), nil, time.Hour)

		if _, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@kampus.ac.id", Password: "rahasia123"}); err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if _, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@kampus.ac.id", Password: "salah"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects unknown users and blank input with the same sentinel", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(&credentialStoreStub{}, nil, plainVerifier, nil, nil, time.Hour)
		for _, params := range []AuthenticateParams{
			{Email: "ghost@kampus.ac.id", Password: "x"},
			{Email: "", Password: "x"},
			{Email: "ghost@kampus.ac.id"},
		} {
			if _, err := svc.Authenticate(context.Background(), params); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("Authenticate(%+v) = %v, want ErrInvalidCredentials", params, err)
			}
		}
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("boom")
		creds := &credentialStoreStub{credentials: UserCredentials{User: User{ID: "user"}, PasswordHash: "secret"}}
		repo := newSessionRepositoryStub()
		repo.createErr = expected

		svc := NewAuthService(creds, repo, plainVerifier, func() string { return "token" }, time.Now, time.Hour)
		if _, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@kampus.ac.id", Password: "secret"}); !errors.Is(err, expected) {
			t.Fatalf("expected error %v, got %v", expected, err)
		}
	})
}

func TestAuthService_RefreshSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

	t.Run("rotates tokens and extends expiry", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepositoryStub()
		repo.seed(Session{ID: "session-1", UserID: "user", Token: "existing", ExpiresAt: now.Add(time.Minute)})
		svc := NewAuthService(nil, repo, nil, tokenSequence("new-token"), func() time.Time { return now }, 2*time.Hour)

		result, err := svc.RefreshSession(context.Background(), RefreshSessionParams{Token: "existing"})
		if err != nil {
			t.Fatalf("RefreshSession failed: %v", err)
		}
		if result.Session.Token != "new-token" || !result.Session.ExpiresAt.Equal(now.Add(2*time.Hour)) {
			t.Fatalf("unexpected refreshed session %+v", result.Session)
		}
		if _, ok := repo.tokenToID["existing"]; ok {
			t.Fatal("expected the old token to be retired")
		}
	})

	t.Run("rejects expired and revoked sessions", func(t *testing.T) {
		t.Parallel()

		revokedAt := now.Add(-time.Minute)
		repo := newSessionRepositoryStub()
		repo.seed(Session{ID: "expired", Token: "expired", ExpiresAt: now})
		repo.seed(Session{ID: "revoked", Token: "revoked", ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt})
		svc := NewAuthService(nil, repo, nil, nil, func() time.Time { return now }, time.Hour)

		if _, err := svc.RefreshSession(context.Background(), RefreshSessionParams{Token: "expired"}); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		if _, err := svc.RefreshSession(context.Background(), RefreshSessionParams{Token: "revoked"}); !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
		if _, err := svc.RefreshSession(context.Background(), RefreshSessionParams{Token: " "}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_ValidateAndRevoke(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	creds := &credentialStoreStub{credentials: UserCredentials{User: User{ID: "admin-1", IsAdmin: true, Role: RoleAdmin}}}
	repo := newSessionRepositoryStub()
	repo.seed(Session{ID: "s-1", UserID: "admin-1", Token: "tok", ExpiresAt: now.Add(time.Hour)})
	repo.seed(Session{ID: "s-2", UserID: "deleted-user", Token: "orphan", ExpiresAt: now.Add(time.Hour)})
	svc := NewAuthService(creds, repo, nil, nil, func() time.Time { return now }, time.Hour)

	principal, err := svc.ValidateSession(context.Background(), " tok ")
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if principal.UserID != "admin-1" || !principal.IsAdmin {
		t.Fatalf("unexpected principal %+v", principal)
	}

	if _, err := svc.ValidateSession(context.Background(), "unknown"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown token, got %v", err)
	}
	if _, err := svc.ValidateSession(context.Background(), "orphan"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for a session without user, got %v", err)
	}

	if err := svc.RevokeSession(context.Background(), "tok"); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if _, err := svc.ValidateSession(context.Background(), "tok"); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked after logout, got %v", err)
	}
	if err := svc.RevokeSession(context.Background(), "unknown"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_PruneExpiredSessions(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	repo := newSessionRepositoryStub()
	repo.seed(Session{ID: "old", Token: "old", ExpiresAt: now.Add(-time.Minute)})
	repo.seed(Session{ID: "edge", Token: "edge", ExpiresAt: now})
	repo.seed(Session{ID: "live", Token: "live", ExpiresAt: now.Add(time.Minute)})
	svc := NewAuthService(nil, repo, nil, nil, func() time.Time { return now }, time.Hour)

	removed, err := svc.PruneExpiredSessions(context.Background())
	if err != nil {
		t.Fatalf("PruneExpiredSessions failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 sessions removed, got %d", removed)
	}
	if _, ok := repo.sessionsByID["live"]; !ok {
		t.Fatal("expected live session to survive")
	}
	if len(repo.deleteCalls) != 1 || !repo.deleteCalls[0].Equal(now) {
		t.Fatalf("expected one prune at now, got %v", repo.deleteCalls)
	}

	repo.deleteErr = errors.New("disk full")
	if _, err := svc.PruneExpiredSessions(context.Background()); err == nil {
		t.Fatal("expected prune failure to propagate")
	}
}

// credentialStoreStub implements CredentialStore for tests.
type credentialStoreStub struct {
	credentials UserCredentials
	err         error
}

func (c *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	if c.err != nil {
		return UserCredentials{}, c.err
	}
	if c.credentials.User.ID == "" {
		return UserCredentials{}, persistence.ErrNotFound
	}
	return c.credentials, nil
}

func (c *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	if c.err != nil {
		return User{}, c.err
	}
	if c.credentials.User.ID == id {
		return c.credentials.User, nil
	}
	return User{}, ErrNotFound
}

// sessionRepositoryStub provides an in-memory implementation of SessionRepository for tests.
type sessionRepositoryStub struct {
	sessionsByID map[string]Session
	tokenToID    map[string]string

	createErr error
	deleteErr error

	deleteCalls []time.Time
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{
		sessionsByID: make(map[string]Session),
		tokenToID:    make(map[string]string),
	}
}

func (s *sessionRepositoryStub) seed(session Session) {
	s.sessionsByID[session.ID] = cloneSession(session)
	s.tokenToID[session.Token] = session.ID
}

func (s *sessionRepositoryStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.seed(session)
	return cloneSession(session), nil
}

func (s *sessionRepositoryStub) GetSession(ctx context.Context, token string) (Session, error) {
	id, ok := s.tokenToID[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return cloneSession(s.sessionsByID[id]), nil
}

func (s *sessionRepositoryStub) UpdateSession(ctx context.Context, session Session) (Session, error) {
	current, ok := s.sessionsByID[session.ID]
	if !ok {
		return Session{}, ErrNotFound
	}
	if current.Token != session.Token {
		delete(s.tokenToID, current.Token)
	}
	s.seed(session)
	return cloneSession(session), nil
}

func (s *sessionRepositoryStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	id, ok := s.tokenToID[token]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	session := s.sessionsByID[id]
	revoked := revokedAt.UTC()
	session.RevokedAt = &revoked
	session.UpdatedAt = revoked
	s.sessionsByID[id] = session
	return cloneSession(session), nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) (int64, error) {
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	cutoff := reference.UTC()
	s.deleteCalls = append(s.deleteCalls, cutoff)
	var removed int64
	for id, session := range s.sessionsByID {
		if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(cutoff) {
			delete(s.sessionsByID, id)
			delete(s.tokenToID, session.Token)
			removed++
		}
	}
	return removed, nil
}

func cloneSession(session Session) Session {
	clone := session
	if session.RevokedAt != nil {
		revoked := session.RevokedAt.UTC()
		clone.RevokedAt = &revoked
	}
	return clone
}
