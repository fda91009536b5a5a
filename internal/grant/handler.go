package grant

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/docuvault/access-management/internal/auth"
	"github.com/docuvault/access-management/internal/transport"
	"github.com/docuvault/access-management/pkg/logger"
)

type ServiceAPI interface {
	CreateGrant(createdBy uuid.UUID, dto CreateGrantDTO) (*GrantResponse, error)
	GetGrant(id uuid.UUID) (*GrantResponse, error)
	GetGrantsForProfile(profileID uuid.UUID, activeOnly bool) ([]GrantResponse, error)
	GetGrantsForOrganization(organizationID uuid.UUID) ([]GrantResponse, error)
	UpdateGrant(id uuid.UUID, dto UpdateGrantDTO) (*GrantResponse, error)
	DeactivateGrant(id uuid.UUID) (*GrantResponse, error)
	ReactivateGrant(id uuid.UUID) (*GrantResponse, error)
	DeleteGrant(id uuid.UUID) error
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

func (h *Handler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreateGrant: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateGrantDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateGrant: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	grant, err := h.Service.CreateGrant(user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateGrant: service error", "error", err, "profile_id", dto.ProfileID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, grant)
}

func (h *Handler) GetGrant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid grant ID")
		return
	}

	grant, err := h.Service.GetGrant(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, grant)
}

func (h *Handler) GetProfileGrants(w http.ResponseWriter, r *http.Request) {
	profileID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid profile ID")
		return
	}

	activeOnly := r.URL.Query().Get("active_only") == "true"

	grants, err := h.Service.GetGrantsForProfile(profileID, activeOnly)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"grants": grants,
		"total":  len(grants),
	})
}

func (h *Handler) GetOrganizationGrants(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid organization ID")
		return
	}

	grants, err := h.Service.GetGrantsForOrganization(orgID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"grants": grants,
		"total":  len(grants),
	})
}

func (h *Handler) UpdateGrant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid grant ID")
		return
	}

	var dto UpdateGrantDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateGrant: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	grant, err := h.Service.UpdateGrant(id, dto)
	if err != nil {
		h.Logger.Error("UpdateGrant: service error", "error", err, "grant_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, grant)
}

func (h *Handler) DeactivateGrant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid grant ID")
		return
	}

	grant, err := h.Service.DeactivateGrant(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, grant)
}

func (h *Handler) ReactivateGrant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid grant ID")
		return
	}

	grant, err := h.Service.ReactivateGrant(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, grant)
}

func (h *Handler) DeleteGrant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid grant ID")
		return
	}

	if err := h.Service.DeleteGrant(id); err != nil {
		h.Logger.Error("DeleteGrant: service error", "error", err, "grant_id", id)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
