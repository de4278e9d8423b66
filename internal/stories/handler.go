package stories

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

// Handler wires HTTP endpoints for stories.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers story routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/communities/{communityID}/stories", h.handleList)
	r.Post("/stories", h.handleCreate)
	r.Get("/stories/{storyID}", h.handleGet)
	r.Patch("/stories/{storyID}", h.handleUpdate)
	r.Delete("/stories/{storyID}", h.handleDelete)
}

type storyResponse struct {
	ID                    int64     `json:"id"`
	CommunityID           int64     `json:"community_id"`
	Title                 string    `json:"title"`
	Slug                  string    `json:"slug"`
	Description           string    `json:"description,omitempty"`
	Language              string    `json:"language,omitempty"`
	PermissionLevel       string    `json:"permission_level"`
	CeremonialContent     bool      `json:"ceremonial_content"`
	ElderApprovalRequired bool      `json:"elder_approval_required"`
	CreatedBy             int64     `json:"created_by"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	PlaceIDs              []int64   `json:"place_ids"`
	SpeakerIDs            []int64   `json:"speaker_ids"`
}

type listResponse struct {
	Stories    []storyResponse   `json:"stories"`
	Pagination shared.Pagination `json:"pagination"`
}

func toResponse(s Story) storyResponse {
	return storyResponse{
		ID:                    s.ID,
		CommunityID:           s.CommunityID,
		Title:                 s.Title,
		Slug:                  s.Slug,
		Description:           s.Description,
		Language:              s.Language,
		PermissionLevel:       string(s.PermissionLevel),
		CeremonialContent:     s.CeremonialContent,
		ElderApprovalRequired: s.ElderApprovalRequired,
		CreatedBy:             s.CreatedBy,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
		PlaceIDs:              s.PlaceIDs,
		SpeakerIDs:            s.SpeakerIDs,
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

	story, err := h.service.Create(r.Context(), p, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*story))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "storyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid story id")
		return
	}

	story, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*story))
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

	stories, pg, err := h.service.List(r.Context(), p, communityID, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]storyResponse, 0, len(stories))
	for _, s := range stories {
		out = append(out, toResponse(s))
	}
	httpx.JSON(w, http.StatusOK, listResponse{Stories: out, Pagination: pg})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "storyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid story id")
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

	story, err := h.service.Update(r.Context(), p, id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*story))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "storyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid story id")
		return
	}
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
