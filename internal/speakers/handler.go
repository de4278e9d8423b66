package speakers

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

// Handler wires HTTP endpoints for speakers.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers speaker routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/communities/{communityID}/speakers", h.handleList)
	r.Post("/speakers", h.handleCreate)
	r.Get("/speakers/{speakerID}", h.handleGet)
	r.Patch("/speakers/{speakerID}", h.handleUpdate)
	r.Put("/speakers/{speakerID}/elder-status", h.handleElderStatus)
	r.Delete("/speakers/{speakerID}", h.handleDelete)
}

type speakerResponse struct {
	ID                    int64     `json:"id"`
	CommunityID           int64     `json:"community_id"`
	Name                  string    `json:"name"`
	Bio                   string    `json:"bio,omitempty"`
	Birthplace            string    `json:"birthplace,omitempty"`
	BirthYear             int       `json:"birth_year,omitempty"`
	IsElder               bool      `json:"is_elder"`
	PermissionLevel       string    `json:"permission_level"`
	CeremonialContent     bool      `json:"ceremonial_content"`
	ElderApprovalRequired bool      `json:"elder_approval_required"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type listResponse struct {
	Speakers   []speakerResponse `json:"speakers"`
	Pagination shared.Pagination `json:"pagination"`
}

func toResponse(s Speaker) speakerResponse {
	return speakerResponse{
		ID:                    s.ID,
		CommunityID:           s.CommunityID,
		Name:                  s.Name,
		Bio:                   s.Bio,
		Birthplace:            s.Birthplace,
		BirthYear:             s.BirthYear,
		IsElder:               s.IsElder,
		PermissionLevel:       string(s.PermissionLevel),
		CeremonialContent:     s.CeremonialContent,
		ElderApprovalRequired: s.ElderApprovalRequired,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
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

	speaker, err := h.service.Create(r.Context(), p, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*speaker))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "speakerID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid speaker id")
		return
	}

	speaker, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*speaker))
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

	speakers, pg, err := h.service.List(r.Context(), p, communityID, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]speakerResponse, 0, len(speakers))
	for _, speaker := range speakers {
		out = append(out, toResponse(speaker))
	}
	httpx.JSON(w, http.StatusOK, listResponse{Speakers: out, Pagination: pg})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "speakerID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid speaker id")
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

	speaker, err := h.service.Update(r.Context(), p, id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*speaker))
}

func (h *Handler) handleElderStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "speakerID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid speaker id")
		return
	}

	var in ElderStatusInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	speaker, err := h.service.SetElderStatus(r.Context(), p, id, in.IsElder)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*speaker))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "speakerID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid speaker id")
		return
	}
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
