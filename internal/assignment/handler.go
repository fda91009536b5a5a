package assignment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/docuvault/access-management/internal/auth"
	"github.com/docuvault/access-management/internal/transport"
	"github.com/docuvault/access-management/pkg/logger"
)

type ServiceAPI interface {
	AssignProfile(assignedBy uuid.UUID, dto CreateAssignmentDTO) (*AssignmentResponse, error)
	GetAssignment(id uuid.UUID) (*AssignmentResponse, error)
	GetAssignmentsForUser(userID uuid.UUID, validOnly bool) ([]AssignmentResponse, error)
	GetAssignmentsForProfile(profileID uuid.UUID) ([]AssignmentResponse, error)
	GetAssignmentsForOrganization(organizationID uuid.UUID) ([]AssignmentResponse, error)
	GetExpiringAssignments(userID uuid.UUID, days int) ([]AssignmentResponse, error)
	RevokeAssignment(id, revokedBy uuid.UUID, reason string) (*AssignmentResponse, error)
	ReactivateAssignment(id, reactivatedBy uuid.UUID) (*AssignmentResponse, error)
	DeactivateAssignment(id uuid.UUID) (*AssignmentResponse, error)
	ActivateAssignment(id uuid.UUID) (*AssignmentResponse, error)
	ChangeAssignmentProfile(id, changedBy uuid.UUID, dto ChangeProfileDTO) (*AssignmentResponse, error)
	ExtendAssignment(id uuid.UUID, dto ExtendAssignmentDTO) (*AssignmentResponse, error)
	DeleteAssignment(id uuid.UUID) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) AssignProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("AssignProfile: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateAssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("AssignProfile: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.Service.AssignProfile(user.ID, dto)
	if err != nil {
		h.Logger.Error("AssignProfile: service error", "error", err, "user_id", dto.UserID, "profile_id", dto.ProfileID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid assignment ID")
		return
	}

	found, err := h.Service.GetAssignment(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) GetUserAssignments(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	validOnly := r.URL.Query().Get("valid_only") == "true"

	assignments, err := h.Service.GetAssignmentsForUser(userID, validOnly)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"assignments": assignments,
		"total":       len(assignments),
	})
}

func (h *Handler) GetProfileAssignments(w http.ResponseWriter, r *http.Request) {
	profileID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid profile ID")
		return
	}

	assignments, err := h.Service.GetAssignmentsForProfile(profileID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"assignments": assignments,
		"total":       len(assignments),
	})
}

func (h *Handler) GetOrganizationAssignments(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid organization ID")
		return
	}

	assignments, err := h.Service.GetAssignmentsForOrganization(orgID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"assignments": assignments,
		"total":       len(assignments),
	})
}

func (h *Handler) GetExpiringAssignments(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	days := ExpiryWarningDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 && d <= 365 {
			days = d
		}
	}

	assignments, err := h.Service.GetExpiringAssignments(userID, days)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"assignments": assignments,
		"total":       len(assignments),
		"window_days": days,
	})
}

func (h *Handler) RevokeAssignment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid assignment ID")
		return
	}

	var dto RevokeAssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	revoked, err := h.Service.RevokeAssignment(id, user.ID, dto.Reason)
	if err != nil {
		h.Logger.Error("RevokeAssignment: service error", "error", err, "assignment_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, revoked)
}

func (h *Handler) ReactivateAssignment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid assignment ID")
		return
	}

	reactivated, err := h.Service.ReactivateAssignment(id, user.ID)
	if err != nil {
		h.Logger.Error("ReactivateAssignment: service error", "error", err, "assignment_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, reactivated)
}

func (h *Handler) DeactivateAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid assignment ID")
		return
	}

	deactivated, err := h.Service.DeactivateAssignment(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, deactivated)
}

func (h *Handler) ActivateAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid assignment ID")
		return
	}

	activated, err := h.Service.ActivateAssignment(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, activated)
}

func (h *Handler) ChangeAssignmentProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid assignment ID")
		return
	}

	var dto ChangeProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changed, err := h.Service.ChangeAssignmentProfile(id, user.ID, dto)
	if err != nil {
		h.Logger.Error("ChangeAssignmentProfile: service error", "error", err, "assignment_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, changed)
}

func (h *Handler) ExtendAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid assignment ID")
		return
	}

	var dto ExtendAssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	extended, err := h.Service.ExtendAssignment(id, dto)
	if err != nil {
		h.Logger.Error("ExtendAssignment: service error", "error", err, "assignment_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, extended)
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid assignment ID")
		return
	}

	if err := h.Service.DeleteAssignment(id); err != nil {
		h.Logger.Error("DeleteAssignment: service error", "error", err, "assignment_id", id)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
