package themes

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

// Handler wires HTTP endpoints for community theming.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers theme routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/communities/{communityID}/theme", h.handleGet)
	r.Put("/communities/{communityID}/theme", h.handleUpsert)
}

type themeResponse struct {
	ID              int64     `json:"id"`
	CommunityID     int64     `json:"community_id"`
	MapboxStyleURL  string    `json:"mapbox_style_url,omitempty"`
	CenterLatitude  float64   `json:"center_latitude"`
	CenterLongitude float64   `json:"center_longitude"`
	ZoomLevel       float64   `json:"zoom_level"`
	PitchDegrees    float64   `json:"pitch_degrees"`
	BearingDegrees  float64   `json:"bearing_degrees"`
	PrimaryColor    string    `json:"primary_color,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toResponse(t Theme) themeResponse {
	return themeResponse{
		ID:              t.ID,
		CommunityID:     t.CommunityID,
		MapboxStyleURL:  t.MapboxStyleURL,
		CenterLatitude:  t.CenterLatitude,
		CenterLongitude: t.CenterLongitude,
		ZoomLevel:       t.ZoomLevel,
		PitchDegrees:    t.PitchDegrees,
		BearingDegrees:  t.BearingDegrees,
		PrimaryColor:    t.PrimaryColor,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
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

	theme, err := h.service.Get(r.Context(), p, communityID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*theme))
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
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

	var in UpsertInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	theme, err := h.service.Upsert(r.Context(), p, communityID, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*theme))
}
