package testfixtures

import (
	"log/slog"
	"time"

	"github.com/jadwalin/jadwal/internal/application"
	"github.com/jadwalin/jadwal/internal/recurrence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Engine      *recurrence.Engine
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory whose engine runs in the campus zone.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Engine == nil {
		factory.Engine = recurrence.NewEngine(Campus)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Clock = clock }
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.IDGenerator = generator }
}

// ScheduleServiceDeps captures dependencies for constructing a schedule service.
type ScheduleServiceDeps struct {
	Events   application.EventRepository
	Users    application.UserDirectory
	Subjects application.SubjectCatalog
	Logger   *slog.Logger
}

// NewScheduleService builds a schedule service from deps and the factory defaults.
func (f *ServiceFactory) NewScheduleService(deps ScheduleServiceDeps) *application.ScheduleService {
	return application.NewScheduleServiceWithLogger(
		deps.Events,
		deps.Users,
		deps.Subjects,
		f.Engine,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		deps.Logger,
	)
}

// NewSubjectService builds a subject service over repo.
func (f *ServiceFactory) NewSubjectService(repo application.SubjectRepository, logger *slog.Logger) *application.SubjectService {
	return application.NewSubjectServiceWithLogger(repo, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), logger)
}

// NewUserService builds a user service over repo. A nil hasher stores
// "plain:<password>" so tests avoid argon2 cost.
func (f *ServiceFactory) NewUserService(repo application.UserRepository, hash application.PasswordHasher, logger *slog.Logger) *application.UserService {
	if hash == nil {
		hash = PlainHasher
	}
	return application.NewUserServiceWithLogger(repo, hash, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), logger)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials    application.CredentialStore
	Sessions       application.SessionRepository
	PasswordVerify application.PasswordVerifier
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service. Tokens come from the factory's id generator.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	verify := deps.PasswordVerify
	if verify == nil {
		verify = PlainVerifier
	}
	return application.NewAuthServiceWithLogger(
		deps.Credentials,
		deps.Sessions,
		verify,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		deps.SessionTTL,
		deps.Logger,
	)
}

// PlainHasher is a PasswordHasher for tests.
func PlainHasher(password string) (string, error) {
	return "plain:" + password, nil
}

// PlainVerifier accepts hashes produced by PlainHasher.
func PlainVerifier(hashed, password string) error {
	if hashed != "plain:"+password {
		return application.ErrInvalidCredentials
	}
	return nil
}
