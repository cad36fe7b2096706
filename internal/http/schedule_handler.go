package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jadwalin/jadwal/internal/application"
	"github.com/jadwalin/jadwal/internal/scheduler"
)

type scheduleService interface {
	CreateEvent(ctx context.Context, params application.CreateEventParams) (application.ScheduleEvent, []application.ConflictWarning, error)
	UpdateEvent(ctx context.Context, params application.UpdateEventParams) (application.ScheduleEvent, []application.ConflictWarning, error)
	MoveEvent(ctx context.Context, params application.MoveEventParams) (application.ScheduleEvent, []application.ConflictWarning, error)
	DuplicateEvent(ctx context.Context, params application.DuplicateEventParams) (application.ScheduleEvent, []application.ConflictWarning, error)
	DeleteEvent(ctx context.Context, principal application.Principal, eventID string) error
	GetEvent(ctx context.Context, principal application.Principal, eventID string) (application.ScheduleEvent, error)
	ListEvents(ctx context.Context, params application.ListEventsParams) ([]application.ScheduleEvent, []application.ConflictWarning, error)
	CheckConflicts(ctx context.Context, params application.CheckConflictsParams) ([]application.ConflictWarning, error)
	WeekView(ctx context.Context, params application.WeekViewParams) ([]application.Occurrence, error)
	ExportCalendar(ctx context.Context, principal application.Principal, userID string) ([]byte, error)
}

type ScheduleHandler struct {
	service   scheduleService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

// NewScheduleHandler builds the event endpoints. Dates in query strings are
// interpreted in loc; a nil loc means UTC.
func NewScheduleHandler(service scheduleService, loc *time.Location, logger *slog.Logger) *ScheduleHandler {
	if loc == nil {
		loc = time.UTC
	}
	base := defaultLogger(logger)
	return &ScheduleHandler{service: service, location: loc, responder: newResponder(base), logger: base}
}

func (h *ScheduleHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ScheduleHandler", operation, attrs...)
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	input, problems := req.toInput()
	if len(problems) > 0 {
		h.writeProblems(r.Context(), w, problems)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	event, warnings, err := h.service.CreateEvent(r.Context(), application.CreateEventParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderEvent(r.Context(), w, event, warnings, http.StatusCreated)
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	input, problems := req.toInput()
	if len(problems) > 0 {
		h.writeProblems(r.Context(), w, problems)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	event, warnings, err := h.service.UpdateEvent(r.Context(), application.UpdateEventParams{
		Principal: principal,
		EventID:   eventID,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderEvent(r.Context(), w, event, warnings, http.StatusOK)
}

func (h *ScheduleHandler) Move(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	problems := fieldProblems{}
	day := problems.day(req.DayOfWeek)
	start := problems.start("start", req.Start)
	var end *scheduler.DayOffset
	if strings.TrimSpace(req.End) != "" {
		parsed := problems.end("end", req.End)
		end = &parsed
	}
	if len(problems) > 0 {
		h.writeProblems(r.Context(), w, problems)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, warnings, err := h.service.MoveEvent(r.Context(), application.MoveEventParams{
		Principal: principal,
		EventID:   eventID,
		DayOfWeek: day,
		Start:     start,
		End:       end,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderEvent(r.Context(), w, event, warnings, http.StatusOK)
}

func (h *ScheduleHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req duplicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	problems := fieldProblems{}
	day := problems.day(req.DayOfWeek)
	var start *scheduler.DayOffset
	if strings.TrimSpace(req.Start) != "" {
		parsed := problems.start("start", req.Start)
		start = &parsed
	}
	if len(problems) > 0 {
		h.writeProblems(r.Context(), w, problems)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, warnings, err := h.service.DuplicateEvent(r.Context(), application.DuplicateEventParams{
		Principal: principal,
		EventID:   eventID,
		DayOfWeek: day,
		Start:     start,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderEvent(r.Context(), w, event, warnings, http.StatusCreated)
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, err := h.service.GetEvent(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderEvent(r.Context(), w, event, nil, http.StatusOK)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteEvent(r.Context(), principal, eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params, problems := buildListParams(r.URL.Query(), principal)
	if len(problems) > 0 {
		h.writeProblems(r.Context(), w, problems)
		return
	}

	events, warnings, err := h.service.ListEvents(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEventsResponse{
		Events:   toEventDTOs(events),
		Warnings: toWarningDTOs(warnings),
	})
}

// CheckConflicts tests a proposed slot without saving anything.
func (h *ScheduleHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req conflictCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	problems := fieldProblems{}
	day := problems.day(req.DayOfWeek)
	start := problems.start("start", req.Start)
	end := problems.end("end", req.End)
	if len(problems) > 0 {
		h.writeProblems(r.Context(), w, problems)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	warnings, err := h.service.CheckConflicts(r.Context(), application.CheckConflictsParams{
		Principal:      principal,
		UserID:         strings.TrimSpace(req.UserID),
		DayOfWeek:      day,
		Start:          start,
		End:            end,
		ExcludeEventID: strings.TrimSpace(req.ExcludeEventID),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, conflictCheckResponse{
		HasConflict: len(warnings) > 0,
		Warnings:    toWarningDTOs(warnings),
	})
}

// Week lists dated occurrences for the Monday-started week containing ?date=.
func (h *ScheduleHandler) Week(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	var reference time.Time
	if value := strings.TrimSpace(query.Get("date")); value != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, value, h.location)
		if err != nil {
			h.responder.writeValidation(r.Context(), w, "date", "must be a date formatted as YYYY-MM-DD")
			return
		}
		reference = parsed
	}

	principal, _ := PrincipalFromContext(r.Context())
	occurrences, err := h.service.WeekView(r.Context(), application.WeekViewParams{
		Principal: principal,
		UserID:    strings.TrimSpace(query.Get("user_id")),
		Reference: reference,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, weekResponse{Occurrences: toOccurrenceDTOs(occurrences)})
}

// Export streams the timetable as text/calendar.
func (h *ScheduleHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	data, err := h.service.ExportCalendar(r.Context(), principal, strings.TrimSpace(r.URL.Query().Get("user_id")))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="jadwal.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log(r.Context(), "Export").ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}

func (h *ScheduleHandler) renderEvent(ctx context.Context, w http.ResponseWriter, event application.ScheduleEvent, warnings []application.ConflictWarning, status int) {
	h.responder.writeJSON(ctx, w, status, eventResponse{
		Event:    toEventDTO(event),
		Warnings: toWarningDTOs(warnings),
	})
}

func (h *ScheduleHandler) writeProblems(ctx context.Context, w http.ResponseWriter, problems fieldProblems) {
	h.responder.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
		ErrorCode: "VALIDATION_FAILED",
		Message:   statusMessage(http.StatusUnprocessableEntity),
		Errors:    problems,
	})
}

// fieldProblems collects request decoding issues keyed by JSON field.
type fieldProblems map[string]string

func (p fieldProblems) day(value *int) time.Weekday {
	if value == nil {
		p["day_of_week"] = "day_of_week is required"
		return 0
	}
	return time.Weekday(*value)
}

func (p fieldProblems) start(field, value string) scheduler.DayOffset {
	offset, err := scheduler.ParseDayOffset(strings.TrimSpace(value))
	if err != nil {
		p[field] = "must be a 24-hour time formatted as HH:MM"
	}
	return offset
}

func (p fieldProblems) end(field, value string) scheduler.DayOffset {
	offset, err := scheduler.ParseEndOffset(strings.TrimSpace(value))
	if err != nil {
		p[field] = "must be a 24-hour time formatted as HH:MM, or 24:00"
	}
	return offset
}

type eventRequest struct {
	UserID    string  `json:"user_id"`
	SubjectID *string `json:"subject_id"`
	Title     string  `json:"title"`
	DayOfWeek *int    `json:"day_of_week"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Location  string  `json:"location"`
	JoinURL   string  `json:"join_url"`
	Notes     string  `json:"notes"`
	Color     string  `json:"color"`
}

func (r eventRequest) toInput() (application.EventInput, fieldProblems) {
	problems := fieldProblems{}
	input := application.EventInput{
		UserID:    strings.TrimSpace(r.UserID),
		SubjectID: r.SubjectID,
		Title:     strings.TrimSpace(r.Title),
		DayOfWeek: problems.day(r.DayOfWeek),
		Start:     problems.start("start", r.Start),
		End:       problems.end("end", r.End),
		Location:  strings.TrimSpace(r.Location),
		JoinURL:   strings.TrimSpace(r.JoinURL),
		Notes:     r.Notes,
		Color:     strings.TrimSpace(r.Color),
	}
	return input, problems
}

type moveRequest struct {
	DayOfWeek *int   `json:"day_of_week"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

type duplicateRequest struct {
	DayOfWeek *int   `json:"day_of_week"`
	Start     string `json:"start"`
}

type conflictCheckRequest struct {
	UserID         string `json:"user_id"`
	DayOfWeek      *int   `json:"day_of_week"`
	Start          string `json:"start"`
	End            string `json:"end"`
	ExcludeEventID string `json:"exclude_event_id"`
}

type conflictCheckResponse struct {
	HasConflict bool                 `json:"has_conflict"`
	Warnings    []conflictWarningDTO `json:"warnings"`
}

type eventResponse struct {
	Event    eventDTO             `json:"event"`
	Warnings []conflictWarningDTO `json:"warnings"`
}

type listEventsResponse struct {
	Events   []eventDTO           `json:"events"`
	Warnings []conflictWarningDTO `json:"warnings"`
}

type weekResponse struct {
	Occurrences []occurrenceDTO `json:"occurrences"`
}

type eventDTO struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	SubjectID *string `json:"subject_id,omitempty"`
	Title     string  `json:"title"`
	DayOfWeek int     `json:"day_of_week"`
	DayName   string  `json:"day_name"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Location  string  `json:"location,omitempty"`
	JoinURL   string  `json:"join_url,omitempty"`
	Notes     string  `json:"notes,omitempty"`
	Color     string  `json:"color,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func toEventDTO(event application.ScheduleEvent) eventDTO {
	return eventDTO{
		ID:        event.ID,
		UserID:    event.UserID,
		SubjectID: event.SubjectID,
		Title:     event.Title,
		DayOfWeek: int(event.DayOfWeek),
		DayName:   event.DayOfWeek.String(),
		Start:     event.Start.String(),
		End:       event.End.String(),
		Location:  event.Location,
		JoinURL:   event.JoinURL,
		Notes:     event.Notes,
		Color:     event.Color,
		CreatedAt: event.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: event.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toEventDTOs(events []application.ScheduleEvent) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, toEventDTO(event))
	}
	return out
}

type conflictWarningDTO struct {
	EventID       string `json:"event_id"`
	Title         string `json:"title"`
	DayOfWeek     int    `json:"day_of_week"`
	Start         string `json:"start"`
	End           string `json:"end"`
	ConflictsWith string `json:"conflicts_with,omitempty"`
}

func toWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, conflictWarningDTO{
			EventID:       warning.EventID,
			Title:         warning.Title,
			DayOfWeek:     int(warning.DayOfWeek),
			Start:         warning.Start.String(),
			End:           warning.End.String(),
			ConflictsWith: warning.ConflictsWith,
		})
	}
	return out
}

type occurrenceDTO struct {
	EventID string `json:"event_id"`
	Title   string `json:"title"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

func toOccurrenceDTOs(occurrences []application.Occurrence) []occurrenceDTO {
	out := make([]occurrenceDTO, 0, len(occurrences))
	for _, occurrence := range occurrences {
		out = append(out, occurrenceDTO{
			EventID: occurrence.EventID,
			Title:   occurrence.Title,
			Start:   occurrence.Start.Format(time.RFC3339),
			End:     occurrence.End.Format(time.RFC3339),
		})
	}
	return out
}

func buildListParams(values url.Values, principal application.Principal) (application.ListEventsParams, fieldProblems) {
	params := application.ListEventsParams{
		Principal: principal,
		UserID:    strings.TrimSpace(values.Get("user_id")),
	}
	problems := fieldProblems{}

	if day := strings.TrimSpace(values.Get("day")); day != "" {
		n, err := strconv.Atoi(day)
		if err != nil || n < 0 || n > 6 {
			problems["day"] = "day must be between 0 (Sunday) and 6 (Saturday)"
		} else {
			weekday := time.Weekday(n)
			params.DayOfWeek = &weekday
		}
	}

	return params, problems
}
