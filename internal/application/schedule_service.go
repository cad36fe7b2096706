package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jadwalin/jadwal/internal/calendar"
	"github.com/jadwalin/jadwal/internal/persistence"
	"github.com/jadwalin/jadwal/internal/recurrence"
	"github.com/jadwalin/jadwal/internal/scheduler"
)

const maxTitleLength = 200

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// EventRepository captures the persistence interactions needed by the service.
type EventRepository interface {
	CreateEvent(ctx context.Context, event ScheduleEvent) (ScheduleEvent, error)
	GetEvent(ctx context.Context, id string) (ScheduleEvent, error)
	UpdateEvent(ctx context.Context, event ScheduleEvent) (ScheduleEvent, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, filter EventRepositoryFilter) ([]ScheduleEvent, error)
}

// EventRepositoryFilter narrows queries issued to the event repository.
type EventRepositoryFilter struct {
	UserID    string
	DayOfWeek *time.Weekday
}

// UserDirectory exposes user lookup operations.
type UserDirectory interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

// SubjectCatalog exposes subject lookup operations.
type SubjectCatalog interface {
	SubjectExists(ctx context.Context, id string) (bool, error)
}

// ScheduleService orchestrates validation, conflict detection and persistence
// for weekly schedule events. Conflicts never block a write; they are
// returned as warnings next to the persisted event.
type ScheduleService struct {
	events      EventRepository
	users       UserDirectory
	subjects    SubjectCatalog
	engine      *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	warnings    *warningCache
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(events EventRepository, users UserDirectory, subjects SubjectCatalog, engine *recurrence.Engine, idGenerator func() string, now func() time.Time) *ScheduleService {
	return NewScheduleServiceWithLogger(events, users, subjects, engine, idGenerator, now, nil)
}

// NewScheduleServiceWithLogger wires dependencies for schedule operations with a specified logger.
func NewScheduleServiceWithLogger(events EventRepository, users UserDirectory, subjects SubjectCatalog, engine *recurrence.Engine, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	return &ScheduleService{
		events:      events,
		users:       users,
		subjects:    subjects,
		engine:      engine,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		warnings:    newWarningCache(5*time.Minute, 512, now),
	}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, attrs...)
}

// CreateEvent validates the request, checks the owner's schedule for
// overlaps and persists the event.
func (s *ScheduleService) CreateEvent(ctx context.Context, params CreateEventParams) (event ScheduleEvent, warnings []ConflictWarning, err error) {
	if s == nil {
		err = fmt.Errorf("ScheduleService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateEvent", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID, "conflicts", len(warnings)).InfoContext(ctx, "event created")
	}()

	input := params.Input
	var owner string
	owner, err = resolveOwner(params.Principal, input.UserID)
	if err != nil {
		return
	}

	if vErr := validateEventInput(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if owner != params.Principal.UserID {
		if err = s.ensureUserExists(ctx, owner); err != nil {
			return
		}
	}
	if err = s.ensureSubjectExists(ctx, input.SubjectID); err != nil {
		return
	}

	createdAt := s.now()
	event = ScheduleEvent{
		ID:        s.idGenerator(),
		UserID:    owner,
		SubjectID: normalizeOptionalString(input.SubjectID),
		Title:     strings.TrimSpace(input.Title),
		DayOfWeek: input.DayOfWeek,
		Start:     input.Start,
		End:       input.End,
		Location:  strings.TrimSpace(input.Location),
		JoinURL:   strings.TrimSpace(input.JoinURL),
		Notes:     input.Notes,
		Color:     strings.TrimSpace(input.Color),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	if s.events == nil {
		return
	}

	warnings, err = s.detectConflicts(ctx, scheduler.Query{
		UserID:    owner,
		DayOfWeek: event.DayOfWeek,
		Start:     event.Start,
		End:       event.End,
	})
	if err != nil {
		return
	}

	var persisted ScheduleEvent
	persisted, err = s.events.CreateEvent(ctx, event)
	if err != nil {
		err = mapEventRepoError(err)
		warnings = nil
		return
	}
	s.warnings.InvalidateUser(owner)

	event = persisted
	return
}

// UpdateEvent edits an event in place. The event never conflicts with its own
// previous version.
func (s *ScheduleService) UpdateEvent(ctx context.Context, params UpdateEventParams) (event ScheduleEvent, warnings []ConflictWarning, err error) {
	if s == nil {
		err = fmt.Errorf("ScheduleService is nil")
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEvent",
		"principal_id", params.Principal.UserID,
		"event_id", params.EventID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("conflicts", len(warnings)).InfoContext(ctx, "event updated")
	}()

	var existing ScheduleEvent
	existing, err = s.loadOwnedEvent(ctx, params.Principal, params.EventID)
	if err != nil {
		return
	}

	input := params.Input
	vErr := &ValidationError{}
	if input.UserID != "" && input.UserID != existing.UserID {
		vErr.add("user_id", "owner cannot be changed")
	}
	vErr.merge(validateEventInput(input))
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = s.ensureSubjectExists(ctx, input.SubjectID); err != nil {
		return
	}

	updated := existing
	updated.SubjectID = normalizeOptionalString(input.SubjectID)
	updated.Title = strings.TrimSpace(input.Title)
	updated.DayOfWeek = input.DayOfWeek
	updated.Start = input.Start
	updated.End = input.End
	updated.Location = strings.TrimSpace(input.Location)
	updated.JoinURL = strings.TrimSpace(input.JoinURL)
	updated.Notes = input.Notes
	updated.Color = strings.TrimSpace(input.Color)
	updated.UpdatedAt = s.now()

	event, warnings, err = s.saveExisting(ctx, updated)
	return
}

// MoveEvent reschedules an event to a new day and start. When End is nil the
// event keeps its duration.
func (s *ScheduleService) MoveEvent(ctx context.Context, params MoveEventParams) (event ScheduleEvent, warnings []ConflictWarning, err error) {
	if s == nil {
		err = fmt.Errorf("ScheduleService is nil")
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "MoveEvent",
		"principal_id", params.Principal.UserID,
		"event_id", params.EventID,
		"day_of_week", int(params.DayOfWeek),
		"start", params.Start.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to move event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("conflicts", len(warnings)).InfoContext(ctx, "event moved")
	}()

	var existing ScheduleEvent
	existing, err = s.loadOwnedEvent(ctx, params.Principal, params.EventID)
	if err != nil {
		return
	}

	end := params.Start + (existing.End - existing.Start)
	if params.End != nil {
		end = *params.End
	}
	if vErr := validateSlot(params.DayOfWeek, params.Start, end); vErr.HasErrors() {
		err = vErr
		return
	}

	moved := existing
	moved.DayOfWeek = params.DayOfWeek
	moved.Start = params.Start
	moved.End = end
	moved.UpdatedAt = s.now()

	event, warnings, err = s.saveExisting(ctx, moved)
	return
}

// DuplicateEvent copies an event to another day under a new id. The source
// event takes part in the conflict check like any other.
func (s *ScheduleService) DuplicateEvent(ctx context.Context, params DuplicateEventParams) (event ScheduleEvent, warnings []ConflictWarning, err error) {
	if s == nil {
		err = fmt.Errorf("ScheduleService is nil")
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "DuplicateEvent",
		"principal_id", params.Principal.UserID,
		"source_event_id", params.EventID,
		"day_of_week", int(params.DayOfWeek),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to duplicate event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID, "conflicts", len(warnings)).InfoContext(ctx, "event duplicated")
	}()

	var source ScheduleEvent
	source, err = s.loadOwnedEvent(ctx, params.Principal, params.EventID)
	if err != nil {
		return
	}

	start := source.Start
	if params.Start != nil {
		start = *params.Start
	}
	end := start + (source.End - source.Start)
	if vErr := validateSlot(params.DayOfWeek, start, end); vErr.HasErrors() {
		err = vErr
		return
	}

	createdAt := s.now()
	copyEvent := source
	copyEvent.ID = s.idGenerator()
	copyEvent.SubjectID = normalizeOptionalString(source.SubjectID)
	copyEvent.DayOfWeek = params.DayOfWeek
	copyEvent.Start = start
	copyEvent.End = end
	copyEvent.CreatedAt = createdAt
	copyEvent.UpdatedAt = createdAt

	warnings, err = s.detectConflicts(ctx, scheduler.Query{
		UserID:    copyEvent.UserID,
		DayOfWeek: copyEvent.DayOfWeek,
		Start:     copyEvent.Start,
		End:       copyEvent.End,
	})
	if err != nil {
		return
	}

	event, err = s.events.CreateEvent(ctx, copyEvent)
	if err != nil {
		err = mapEventRepoError(err)
		warnings = nil
		return
	}
	s.warnings.InvalidateUser(event.UserID)
	return
}

// DeleteEvent ensures authorization before delegating to persistence.
func (s *ScheduleService) DeleteEvent(ctx context.Context, principal Principal, eventID string) (err error) {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}
	if s.events == nil {
		return fmt.Errorf("event repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEvent", "principal_id", principal.UserID, "event_id", eventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event deleted")
	}()

	existing, err := s.loadOwnedEvent(ctx, principal, eventID)
	if err != nil {
		return err
	}
	if err = s.events.DeleteEvent(ctx, eventID); err != nil {
		return mapEventRepoError(err)
	}
	s.warnings.InvalidateUser(existing.UserID)
	return nil
}

// GetEvent returns a single event visible to the principal.
func (s *ScheduleService) GetEvent(ctx context.Context, principal Principal, eventID string) (ScheduleEvent, error) {
	if s == nil {
		return ScheduleEvent{}, fmt.Errorf("ScheduleService is nil")
	}
	if s.events == nil {
		return ScheduleEvent{}, fmt.Errorf("event repository not configured")
	}
	return s.loadOwnedEvent(ctx, principal, eventID)
}

// ListEvents returns the owner's events ordered by day, start and id, together
// with warnings for every overlapping pair among them.
func (s *ScheduleService) ListEvents(ctx context.Context, params ListEventsParams) (events []ScheduleEvent, warnings []ConflictWarning, err error) {
	if s == nil {
		err = fmt.Errorf("ScheduleService is nil")
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	var owner string
	owner, err = resolveOwner(params.Principal, params.UserID)
	if err != nil {
		return
	}
	if params.DayOfWeek != nil {
		if dayErr := scheduler.ValidateDay(*params.DayOfWeek); dayErr != nil {
			vErr := &ValidationError{}
			detectorValidation(dayErr, vErr)
			err = vErr
			return
		}
	}

	generation := s.warnings.Generation(owner)
	events, err = s.events.ListEvents(ctx, EventRepositoryFilter{UserID: owner, DayOfWeek: params.DayOfWeek})
	if err != nil {
		if isNotFoundError(err) {
			err = nil
			return
		}
		return
	}
	sortEvents(events)

	key := buildWarningCacheKey(owner, params.DayOfWeek)
	if cached, ok := s.warnings.Get(key, generation); ok {
		warnings = cached
		return
	}

	warnings = detectListConflicts(events)
	s.warnings.Store(owner, key, generation, warnings)
	return
}

// CheckConflicts reports the owner's events that overlap a proposed slot
// without persisting anything.
func (s *ScheduleService) CheckConflicts(ctx context.Context, params CheckConflictsParams) ([]ConflictWarning, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}

	owner, err := resolveOwner(params.Principal, params.UserID)
	if err != nil {
		return nil, err
	}

	query := scheduler.Query{
		UserID:         owner,
		DayOfWeek:      params.DayOfWeek,
		Start:          params.Start,
		End:            params.End,
		ExcludeEventID: params.ExcludeEventID,
	}
	if vErr := validateSlot(query.DayOfWeek, query.Start, query.End); vErr.HasErrors() {
		return nil, vErr
	}
	if s.events == nil {
		return nil, nil
	}
	return s.detectConflicts(ctx, query)
}

// WeekView expands the owner's events into dated occurrences for the
// Monday-started week containing the reference time.
func (s *ScheduleService) WeekView(ctx context.Context, params WeekViewParams) ([]Occurrence, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	if s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}

	owner, err := resolveOwner(params.Principal, params.UserID)
	if err != nil {
		return nil, err
	}

	reference := params.Reference
	if reference.IsZero() {
		reference = s.now()
	}
	weekStart := s.engine.WeekStart(reference)

	events, err := s.events.ListEvents(ctx, EventRepositoryFilter{UserID: owner})
	if err != nil && !isNotFoundError(err) {
		return nil, err
	}

	titles := make(map[string]string, len(events))
	slots := make([]recurrence.Weekly, 0, len(events))
	for _, event := range events {
		titles[event.ID] = event.Title
		slots = append(slots, recurrence.Weekly{
			EventID:   event.ID,
			DayOfWeek: event.DayOfWeek,
			Start:     event.Start,
			End:       event.End,
		})
	}

	expanded, err := s.engine.ExpandAll(slots, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, fmt.Errorf("expand week of %s: %w", weekStart.Format(time.DateOnly), err)
	}

	occurrences := make([]Occurrence, 0, len(expanded))
	for _, occ := range expanded {
		occurrences = append(occurrences, Occurrence{
			EventID: occ.EventID,
			Title:   titles[occ.EventID],
			Start:   occ.Start,
			End:     occ.End,
		})
	}
	return occurrences, nil
}

// ExportCalendar renders the owner's schedule as an iCalendar document.
func (s *ScheduleService) ExportCalendar(ctx context.Context, principal Principal, userID string) (data []byte, err error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	if s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}

	owner, err := resolveOwner(principal, userID)
	if err != nil {
		return nil, err
	}

	logger := s.loggerWith(ctx, "ExportCalendar", "principal_id", principal.UserID, "user_id", owner)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to export calendar", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("bytes", len(data)).InfoContext(ctx, "calendar exported")
	}()

	events, err := s.events.ListEvents(ctx, EventRepositoryFilter{UserID: owner})
	if err != nil && !isNotFoundError(err) {
		return nil, err
	}
	sortEvents(events)

	exported := make([]calendar.Event, 0, len(events))
	for _, event := range events {
		exported = append(exported, calendar.Event{
			ID:        event.ID,
			Title:     event.Title,
			Location:  event.Location,
			Notes:     event.Notes,
			JoinURL:   event.JoinURL,
			DayOfWeek: event.DayOfWeek,
			Start:     event.Start,
			End:       event.End,
			UpdatedAt: event.UpdatedAt,
		})
	}

	now := s.now()
	return calendar.Export(exported, calendar.EncodeOptions{
		Name:   "Jadwal_In",
		Engine: s.engine,
		Anchor: now,
		Now:    now,
	})
}

func (s *ScheduleService) loadOwnedEvent(ctx context.Context, principal Principal, eventID string) (ScheduleEvent, error) {
	existing, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return ScheduleEvent{}, mapEventRepoError(err)
	}
	if existing.UserID != principal.UserID && !principal.IsAdmin {
		return ScheduleEvent{}, ErrUnauthorized
	}
	return existing, nil
}

func (s *ScheduleService) saveExisting(ctx context.Context, event ScheduleEvent) (ScheduleEvent, []ConflictWarning, error) {
	warnings, err := s.detectConflicts(ctx, scheduler.Query{
		UserID:         event.UserID,
		DayOfWeek:      event.DayOfWeek,
		Start:          event.Start,
		End:            event.End,
		ExcludeEventID: event.ID,
	})
	if err != nil {
		return ScheduleEvent{}, nil, err
	}

	persisted, err := s.events.UpdateEvent(ctx, event)
	if err != nil {
		return ScheduleEvent{}, nil, mapEventRepoError(err)
	}
	s.warnings.InvalidateUser(persisted.UserID)
	return persisted, warnings, nil
}

func (s *ScheduleService) ensureUserExists(ctx context.Context, userID string) error {
	if s.users == nil {
		return nil
	}
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fieldError("user_id", "user does not exist")
	}
	return nil
}

func (s *ScheduleService) ensureSubjectExists(ctx context.Context, subjectID *string) error {
	subjectID = normalizeOptionalString(subjectID)
	if subjectID == nil || s.subjects == nil {
		return nil
	}
	exists, err := s.subjects.SubjectExists(ctx, *subjectID)
	if err != nil {
		return err
	}
	if !exists {
		return fieldError("subject_id", "subject does not exist")
	}
	return nil
}

func (s *ScheduleService) detectConflicts(ctx context.Context, query scheduler.Query) ([]ConflictWarning, error) {
	day := query.DayOfWeek
	stored, err := s.events.ListEvents(ctx, EventRepositoryFilter{UserID: query.UserID, DayOfWeek: &day})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	sortEvents(stored)

	byID := make(map[string]ScheduleEvent, len(stored))
	existing := make([]scheduler.Event, 0, len(stored))
	for _, event := range stored {
		byID[event.ID] = event
		existing = append(existing, toSchedulerEvent(event))
	}

	conflicts, err := scheduler.GetConflicts(existing, query)
	if err != nil {
		vErr := &ValidationError{}
		if detectorValidation(err, vErr) {
			return nil, vErr
		}
		return nil, err
	}
	return toConflictWarnings(conflicts, byID, ""), nil
}

func resolveOwner(principal Principal, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = principal.UserID
	}
	if userID == "" {
		return "", ErrUnauthorized
	}
	if userID != principal.UserID && !principal.IsAdmin {
		return "", ErrUnauthorized
	}
	return userID, nil
}

func validateEventInput(input EventInput) *ValidationError {
	vErr := &ValidationError{}

	title := strings.TrimSpace(input.Title)
	switch {
	case title == "":
		vErr.add("title", "title is required")
	case len([]rune(title)) > maxTitleLength:
		vErr.add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}

	vErr.merge(validateSlot(input.DayOfWeek, input.Start, input.End))

	if joinURL := strings.TrimSpace(input.JoinURL); joinURL != "" {
		parsed, err := url.ParseRequestURI(joinURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			vErr.add("join_url", "must be a valid http or https URL")
		}
	}

	if color := strings.TrimSpace(input.Color); color != "" && !colorPattern.MatchString(color) {
		vErr.add("color", "must be a hex color such as #1E88E5")
	}

	if input.SubjectID != nil && strings.TrimSpace(*input.SubjectID) == "" {
		vErr.add("subject_id", "must not be empty when provided")
	}

	return vErr
}

func validateSlot(day time.Weekday, start, end scheduler.DayOffset) *ValidationError {
	vErr := &ValidationError{}
	if err := scheduler.ValidateDay(day); err != nil {
		detectorValidation(err, vErr)
	}
	if err := scheduler.ValidateInterval(start, end); err != nil {
		detectorValidation(err, vErr)
	}
	return vErr
}

func toSchedulerEvent(event ScheduleEvent) scheduler.Event {
	return scheduler.Event{
		ID:        event.ID,
		UserID:    event.UserID,
		DayOfWeek: event.DayOfWeek,
		Start:     event.Start,
		End:       event.End,
	}
}

func toConflictWarnings(conflicts []scheduler.Event, byID map[string]ScheduleEvent, conflictsWith string) []ConflictWarning {
	if len(conflicts) == 0 {
		return nil
	}
	warnings := make([]ConflictWarning, 0, len(conflicts))
	for _, conflict := range conflicts {
		warnings = append(warnings, ConflictWarning{
			EventID:       conflict.ID,
			Title:         byID[conflict.ID].Title,
			DayOfWeek:     conflict.DayOfWeek,
			Start:         conflict.Start,
			End:           conflict.End,
			ConflictsWith: conflictsWith,
		})
	}
	return warnings
}

// detectListConflicts reports each overlapping pair once, naming the later
// event of the pair and the earlier one it conflicts with.
func detectListConflicts(events []ScheduleEvent) []ConflictWarning {
	if len(events) <= 1 {
		return nil
	}

	byID := make(map[string]ScheduleEvent, len(events))
	converted := make([]scheduler.Event, len(events))
	for i, event := range events {
		byID[event.ID] = event
		converted[i] = toSchedulerEvent(event)
	}

	var warnings []ConflictWarning
	for i, candidate := range converted[:len(converted)-1] {
		conflicts, err := scheduler.GetConflicts(converted[i+1:], scheduler.Query{
			UserID:    candidate.UserID,
			DayOfWeek: candidate.DayOfWeek,
			Start:     candidate.Start,
			End:       candidate.End,
		})
		if err != nil {
			continue
		}
		warnings = append(warnings, toConflictWarnings(conflicts, byID, candidate.ID)...)
	}
	return warnings
}

func sortEvents(events []ScheduleEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.ID < b.ID
	})
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapEventRepoError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFoundError(err) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("time", "start must be before end and within the same day")
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return fieldError("subject_id", "referenced user or subject does not exist")
	}
	return err
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
