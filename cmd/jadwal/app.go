package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jadwalin/jadwal/internal/application"
	"github.com/jadwalin/jadwal/internal/config"
	"github.com/jadwalin/jadwal/internal/logging"
	"github.com/jadwalin/jadwal/internal/persistence"
	"github.com/jadwalin/jadwal/internal/persistence/memory"
	"github.com/jadwalin/jadwal/internal/persistence/sqlite"
	"github.com/jadwalin/jadwal/internal/recurrence"
)

// operator is the principal used for administrative CLI commands.
var operator = application.Principal{UserID: "cli", IsAdmin: true}

// App holds the CLI application state.
type App struct {
	getenv func(string) string
	stdout io.Writer
	logOut io.Writer
	root   *cobra.Command
}

// NewApp builds the command tree. Structured logs go to logOut, command output to stdout.
func NewApp(getenv func(string) string, stdout, logOut io.Writer) *App {
	a := &App{getenv: getenv, stdout: stdout, logOut: logOut}

	a.root = &cobra.Command{
		Use:   "jadwal",
		Short: "Weekly class timetable with conflict warnings",
		Long: `Jadwal keeps a weekly timetable per student or lecturer and warns
when two slots on the same day overlap.

Configuration comes from JADWAL_CONFIG_FILE and JADWAL_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	a.root.SetOut(stdout)
	a.root.SetErr(logOut)

	a.root.AddCommand(a.serveCmd())
	a.root.AddCommand(a.migrateCmd())
	a.root.AddCommand(a.addUserCmd())
	a.root.AddCommand(a.checkCmd())

	return a
}

// Execute runs the CLI with args taken from the process.
func (a *App) Execute(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}

// ExecuteArgs runs the CLI with explicit arguments.
func (a *App) ExecuteArgs(ctx context.Context, args ...string) error {
	a.root.SetArgs(args)
	return a.root.ExecuteContext(ctx)
}

// runtime is the wired service graph shared by the commands.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	location *time.Location
	store    persistence.Store
	schedule *application.ScheduleService
	subjects *application.SubjectService
	users    *application.UserService
	auth     *application.AuthService
}

func (a *App) bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadFrom(a.getenv)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(a.logOut, level)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	users := newUserRepositoryAdapter(store)
	subjects := newSubjectRepositoryAdapter(store)
	events := newEventRepositoryAdapter(store)
	sessions := newSessionRepositoryAdapter(store)
	engine := recurrence.NewEngine(loc)

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		location: loc,
		store:    store,
		schedule: application.NewScheduleServiceWithLogger(events, users, subjects, engine, idGenerator, now, logger),
		subjects: application.NewSubjectServiceWithLogger(subjects, idGenerator, now, logger),
		users:    application.NewUserServiceWithLogger(users, application.HashPassword, idGenerator, now, logger),
		auth:     application.NewAuthServiceWithLogger(users, sessions, nil, tokenGenerator, now, cfg.SessionTTL, logger),
	}

	if err := rt.ensureAdmin(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	if cfg.Storage == config.StorageMemory && cfg.AdminEmail == "" {
		logger.Warn("memory storage starts without accounts; set JADWAL_ADMIN_EMAIL and JADWAL_ADMIN_PASSWORD to log in")
	}
	return rt, nil
}

// ensureAdmin creates the configured admin account unless its email is taken.
func (r *runtime) ensureAdmin(ctx context.Context) error {
	if r.cfg.AdminEmail == "" {
		return nil
	}
	user, err := r.users.CreateUser(ctx, application.CreateUserParams{
		Principal: operator,
		Input: application.UserInput{
			Email:       strings.ToLower(strings.TrimSpace(r.cfg.AdminEmail)),
			DisplayName: "Administrator",
			Role:        application.RoleAdmin,
			Password:    r.cfg.AdminPassword,
		},
	})
	switch {
	case errors.Is(err, application.ErrAlreadyExists):
		r.logger.Debug("admin account already present", "email", r.cfg.AdminEmail)
		return nil
	case err != nil:
		return fmt.Errorf("create admin account: %w", describeError(err))
	}
	r.logger.Info("admin account created", "user_id", user.ID, "email", user.Email)
	return nil
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		r.logger.Error("failed to close storage", "error", err)
	}
}

func openStore(cfg config.Config) (persistence.Store, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return memory.New(), nil
	default:
		storage, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		return storage, nil
	}
}
