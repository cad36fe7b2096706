package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jadwalin/jadwal/internal/persistence"
)

type userRepoStub struct {
	users      map[string]User
	hashes     map[string]string
	createErr  error
	deleteErr  error
	lastHashed string
}

func newUserRepoStub(users ...User) *userRepoStub {
	stub := &userRepoStub{users: make(map[string]User), hashes: make(map[string]string)}
	for _, user := range users {
		stub.users[user.ID] = user
	}
	return stub
}

func (s *userRepoStub) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if s.createErr != nil {
		return User{}, s.createErr
	}
	s.users[user.ID] = user
	s.hashes[user.ID] = passwordHash
	return user, nil
}

func (s *userRepoStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := s.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *userRepoStub) UpdateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	s.users[user.ID] = user
	s.lastHashed = passwordHash
	if passwordHash != "" {
		s.hashes[user.ID] = passwordHash
	}
	return user, nil
}

func (s *userRepoStub) DeleteUser(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *userRepoStub) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func fakeHasher(password string) (string, error) {
	return "hashed:" + password, nil
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin", IsAdmin: true}
	valid := UserInput{Email: " Budi@Kampus.ac.id ", DisplayName: " Budi ", Password: "rahasia123"}

	t.Run("requires administrator privileges", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(newUserRepoStub(), fakeHasher, nil, nil)
		if _, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: Principal{UserID: "student"}, Input: valid}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates input fields", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(newUserRepoStub(), fakeHasher, nil, nil)
		_, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: admin, Input: UserInput{Email: "not-an-email", Role: "dean", Password: "short"}})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"email", "display_name", "role", "password"} {
			if vErr.FieldErrors[field] == "" {
				t.Errorf("expected %s field error, got %+v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("persists normalized users with hashed password", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepoStub()
		now := time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC)
		svc := NewUserService(repo, fakeHasher, func() string { return "user-1" }, func() time.Time { return now })

		user, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: admin, Input: valid})
		if err != nil {
			t.Fatalf("CreateUser returned error: %v", err)
		}
		if user.Email != "budi@kampus.ac.id" || user.DisplayName != "Budi" || user.Role != RoleStudent || user.IsAdmin {
			t.Fatalf("unexpected user %+v", user)
		}
		if repo.hashes["user-1"] != "hashed:rahasia123" {
			t.Fatalf("expected hashed password to be stored, got %q", repo.hashes["user-1"])
		}
	})

	t.Run("admin role implies admin flag", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(newUserRepoStub(), fakeHasher, func() string { return "user-2" }, nil)
		input := valid
		input.Role = "Admin"
		user, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: admin, Input: input})
		if err != nil {
			t.Fatalf("CreateUser returned error: %v", err)
		}
		if user.Role != RoleAdmin || !user.IsAdmin {
			t.Fatalf("unexpected admin user %+v", user)
		}
	})

	t.Run("maps duplicate email to ErrAlreadyExists", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepoStub()
		repo.createErr = persistence.ErrDuplicate
		svc := NewUserService(repo, fakeHasher, nil, nil)
		if _, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: admin, Input: valid}); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()

	repo := newUserRepoStub(User{ID: "user-1", Email: "a@kampus.ac.id", DisplayName: "A", Role: RoleStudent})
	svc := NewUserService(repo, fakeHasher, nil, nil)
	admin := Principal{UserID: "admin", IsAdmin: true}

	user, err := svc.UpdateUser(context.Background(), UpdateUserParams{Principal: admin, UserID: "user-1", Input: UserInput{Email: "a@kampus.ac.id", DisplayName: "Dosen A", Role: RoleLecturer}})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if user.Role != RoleLecturer || user.DisplayName != "Dosen A" {
		t.Fatalf("unexpected update %+v", user)
	}
	if repo.lastHashed != "" {
		t.Fatal("an empty password must keep the stored hash")
	}

	if _, err := svc.UpdateUser(context.Background(), UpdateUserParams{Principal: admin, UserID: "missing", Input: UserInput{Email: "b@kampus.ac.id", DisplayName: "B"}}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.UpdateUser(context.Background(), UpdateUserParams{Principal: Principal{UserID: "user-1"}, UserID: "user-1"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUserService_GetListDelete(t *testing.T) {
	t.Parallel()

	repo := newUserRepoStub(
		User{ID: "user-2", Email: "zaki@kampus.ac.id"},
		User{ID: "user-1", Email: "ani@kampus.ac.id"},
	)
	svc := NewUserService(repo, fakeHasher, nil, nil)
	admin := Principal{UserID: "admin", IsAdmin: true}

	if _, err := svc.GetUser(context.Background(), Principal{UserID: "user-1"}, "user-1"); err != nil {
		t.Fatalf("self GetUser returned error: %v", err)
	}
	if _, err := svc.GetUser(context.Background(), Principal{UserID: "user-1"}, "user-2"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	users, err := svc.ListUsers(context.Background(), admin)
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(users) != 2 || users[0].Email != "ani@kampus.ac.id" {
		t.Fatalf("unexpected order %+v", users)
	}
	if _, err := svc.ListUsers(context.Background(), Principal{UserID: "user-1"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if err := svc.DeleteUser(context.Background(), admin, "admin"); err == nil {
		t.Fatal("expected self deletion to be rejected")
	}
	if err := svc.DeleteUser(context.Background(), admin, "user-2"); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if err := svc.DeleteUser(context.Background(), admin, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
