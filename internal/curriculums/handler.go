package curriculums

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

// Handler wires HTTP endpoints for curriculums.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers curriculum routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/communities/{communityID}/curriculums", h.handleList)
	r.Post("/curriculums", h.handleCreate)
	r.Get("/curriculums/{curriculumID}", h.handleGet)
	r.Patch("/curriculums/{curriculumID}", h.handleUpdate)
	r.Delete("/curriculums/{curriculumID}", h.handleDelete)
}

type curriculumResponse struct {
	ID                    int64     `json:"id"`
	CommunityID           int64     `json:"community_id"`
	Title                 string    `json:"title"`
	Slug                  string    `json:"slug"`
	Description           string    `json:"description,omitempty"`
	PermissionLevel       string    `json:"permission_level"`
	CeremonialContent     bool      `json:"ceremonial_content"`
	ElderApprovalRequired bool      `json:"elder_approval_required"`
	CreatedBy             int64     `json:"created_by"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	StoryIDs              []int64   `json:"story_ids"`
}

type listResponse struct {
	Curriculums []curriculumResponse `json:"curriculums"`
	Pagination  shared.Pagination    `json:"pagination"`
}

func toResponse(c Curriculum) curriculumResponse {
	return curriculumResponse{
		ID:                    c.ID,
		CommunityID:           c.CommunityID,
		Title:                 c.Title,
		Slug:                  c.Slug,
		Description:           c.Description,
		PermissionLevel:       string(c.PermissionLevel),
		CeremonialContent:     c.CeremonialContent,
		ElderApprovalRequired: c.ElderApprovalRequired,
		CreatedBy:             c.CreatedBy,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
		StoryIDs:              c.StoryIDs,
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

	cur, err := h.service.Create(r.Context(), p, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*cur))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "curriculumID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid curriculum id")
		return
	}

	cur, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*cur))
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

	curriculums, pg, err := h.service.List(r.Context(), p, communityID, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]curriculumResponse, 0, len(curriculums))
	for _, c := range curriculums {
		out = append(out, toResponse(c))
	}
	httpx.JSON(w, http.StatusOK, listResponse{Curriculums: out, Pagination: pg})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "curriculumID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid curriculum id")
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

	cur, err := h.service.Update(r.Context(), p, id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*cur))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "curriculumID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid curriculum id")
		return
	}
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
