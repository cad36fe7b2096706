package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jadwalin/jadwal/internal/application"
)

type subjectService interface {
	CreateSubject(ctx context.Context, params application.CreateSubjectParams) (application.Subject, error)
	UpdateSubject(ctx context.Context, params application.UpdateSubjectParams) (application.Subject, error)
	DeleteSubject(ctx context.Context, principal application.Principal, subjectID string) error
	GetSubject(ctx context.Context, principal application.Principal, subjectID string) (application.Subject, error)
	ListSubjects(ctx context.Context, principal application.Principal) ([]application.Subject, error)
}

type SubjectHandler struct {
	service   subjectService
	responder responder
	logger    *slog.Logger
}

func NewSubjectHandler(service subjectService, logger *slog.Logger) *SubjectHandler {
	base := defaultLogger(logger)
	return &SubjectHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SubjectHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SubjectHandler", operation, attrs...)
}

func (h *SubjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req subjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode subject request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	subject, err := h.service.CreateSubject(r.Context(), application.CreateSubjectParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "subject creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("subject_id", subject.ID).InfoContext(r.Context(), "subject created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, subjectResponse{Subject: toSubjectDTO(subject)})
}

func (h *SubjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	subjectID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(subjectID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req subjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "subject_id", subjectID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode subject update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "subject_id", subjectID)

	subject, err := h.service.UpdateSubject(r.Context(), application.UpdateSubjectParams{
		Principal: principal,
		SubjectID: subjectID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "subject update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "subject updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, subjectResponse{Subject: toSubjectDTO(subject)})
}

func (h *SubjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	subjectID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(subjectID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	subject, err := h.service.GetSubject(r.Context(), principal, subjectID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, subjectResponse{Subject: toSubjectDTO(subject)})
}

func (h *SubjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	subjectID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(subjectID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "subject_id", subjectID)
	if err := h.service.DeleteSubject(r.Context(), principal, subjectID); err != nil {
		logger.ErrorContext(r.Context(), "subject delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "subject deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SubjectHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	subjects, err := h.service.ListSubjects(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "subject list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSubjectsResponse{Subjects: toSubjectDTOs(subjects)})
}

type subjectRequest struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Credits  int     `json:"credits"`
	Lecturer *string `json:"lecturer"`
	Color    *string `json:"color"`
}

func (r subjectRequest) toInput() application.SubjectInput {
	return application.SubjectInput{
		Code:     strings.TrimSpace(r.Code),
		Name:     strings.TrimSpace(r.Name),
		Credits:  r.Credits,
		Lecturer: r.Lecturer,
		Color:    r.Color,
	}
}

type subjectResponse struct {
	Subject subjectDTO `json:"subject"`
}

type listSubjectsResponse struct {
	Subjects []subjectDTO `json:"subjects"`
}

type subjectDTO struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Credits   int     `json:"credits"`
	Lecturer  *string `json:"lecturer,omitempty"`
	Color     *string `json:"color,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func toSubjectDTO(subject application.Subject) subjectDTO {
	return subjectDTO{
		ID:        subject.ID,
		Code:      subject.Code,
		Name:      subject.Name,
		Credits:   subject.Credits,
		Lecturer:  subject.Lecturer,
		Color:     subject.Color,
		CreatedAt: subject.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: subject.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toSubjectDTOs(subjects []application.Subject) []subjectDTO {
	out := make([]subjectDTO, 0, len(subjects))
	for _, subject := range subjects {
		out = append(out, toSubjectDTO(subject))
	}
	return out
}
