package access

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/docuvault/access-management/internal/transport"
	"github.com/docuvault/access-management/pkg/logger"
)

type ServiceAPI interface {
	CheckAccess(userID uuid.UUID, folderPath, action string) (*Decision, error)
	GetUserContext(userID uuid.UUID) (*UserContext, error)
	GetPermissionMatrix(organizationID uuid.UUID, filter MatrixFilter) (*PermissionMatrix, error)
}

type CheckAccessDTO struct {
	UserID     uuid.UUID `json:"user_id"`
	FolderPath string    `json:"folder_path"`
	Action     string    `json:"action,omitempty"`
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

func (h *Handler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	var dto CheckAccessDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CheckAccess: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.UserID == uuid.Nil {
		h.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	decision, err := h.Service.CheckAccess(dto.UserID, dto.FolderPath, dto.Action)
	if err != nil {
		h.Logger.Error("CheckAccess: service error", "error", err, "user_id", dto.UserID, "folder_path", dto.FolderPath)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, decision)
}

func (h *Handler) GetUserContext(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	userContext, err := h.Service.GetUserContext(userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, userContext)
}

func (h *Handler) GetPermissionMatrix(w http.ResponseWriter, r *http.Request) {
	organizationID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid organization ID")
		return
	}

	query := r.URL.Query()
	filter := MatrixFilter{
		IncludeInactive: query.Get("include_inactive") == "true",
		FolderPaths:     query["folder_path"],
	}
	for _, raw := range query["profile_id"] {
		profileID, err := uuid.Parse(raw)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid profile ID filter")
			return
		}
		filter.ProfileIDs = append(filter.ProfileIDs, profileID)
	}

	matrix, err := h.Service.GetPermissionMatrix(organizationID, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, matrix)
}
