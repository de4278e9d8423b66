package places

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/storyweave/storyweave/internal/platform/httpx"
	"github.com/storyweave/storyweave/internal/shared"
)

// Handler wires HTTP endpoints for places.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers place routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/communities/{communityID}/places", h.handleList)
	r.Post("/places", h.handleCreate)
	r.Get("/places/{placeID}", h.handleGet)
	r.Patch("/places/{placeID}", h.handleUpdate)
	r.Delete("/places/{placeID}", h.handleDelete)
}

type placeResponse struct {
	ID                    int64     `json:"id"`
	CommunityID           int64     `json:"community_id"`
	Name                  string    `json:"name"`
	Slug                  string    `json:"slug"`
	Description           string    `json:"description,omitempty"`
	TypeOfPlace           string    `json:"type_of_place,omitempty"`
	Latitude              float64   `json:"latitude"`
	Longitude             float64   `json:"longitude"`
	Region                string    `json:"region,omitempty"`
	PermissionLevel       string    `json:"permission_level"`
	CeremonialContent     bool      `json:"ceremonial_content"`
	ElderApprovalRequired bool      `json:"elder_approval_required"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type listResponse struct {
	Places     []placeResponse   `json:"places"`
	Pagination shared.Pagination `json:"pagination"`
}

func toResponse(p Place) placeResponse {
	return placeResponse{
		ID:                    p.ID,
		CommunityID:           p.CommunityID,
		Name:                  p.Name,
		Slug:                  p.Slug,
		Description:           p.Description,
		TypeOfPlace:           p.TypeOfPlace,
		Latitude:              p.Latitude,
		Longitude:             p.Longitude,
		Region:                p.Region,
		PermissionLevel:       string(p.PermissionLevel),
		CeremonialContent:     p.CeremonialContent,
		ElderApprovalRequired: p.ElderApprovalRequired,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	place, err := h.service.Create(r.Context(), p, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*place))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "placeID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid place id")
		return
	}

	place, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*place))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	communityID, err := strconv.ParseInt(chi.URLParam(r, "communityID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid community id")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	places, pg, err := h.service.List(r.Context(), p, communityID, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]placeResponse, 0, len(places))
	for _, place := range places {
		out = append(out, toResponse(place))
	}
	httpx.JSON(w, http.StatusOK, listResponse{Places: out, Pagination: pg})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "placeID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid place id")
		return
	}

	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	place, err := h.service.Update(r.Context(), p, id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*place))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "placeID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid place id")
		return
	}
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
