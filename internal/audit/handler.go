package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storyweave/storyweave/internal/platform/httpx"
	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Handler wires HTTP endpoints for decision-log review.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers review routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/communities/{communityID}/decisions", h.handleReview)
	r.Get("/communities/{communityID}/decisions/export", h.handleExport)
}

type entryResponse struct {
	ID           int64     `json:"id"`
	ActorID      int64     `json:"actor_id"`
	ActorRole    string    `json:"actor_role"`
	ResourceType string    `json:"resource_type"`
	ResourceID   int64     `json:"resource_id"`
	Action       string    `json:"action"`
	Outcome      string    `json:"outcome"`
	Reason       string    `json:"reason,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type reviewResponse struct {
	Decisions  []entryResponse   `json:"decisions"`
	Pagination shared.Pagination `json:"pagination"`
}

func parseFilters(r *http.Request) Filters {
	q := r.URL.Query()
	var f Filters
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = t
		}
	}
	f.Outcome = policy.Outcome(q.Get("outcome"))
	f.Reason = policy.Reason(q.Get("reason"))
	f.ResourceType = q.Get("resource_type")
	if v := q.Get("actor_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.ActorID = id
		}
	}
	return f
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
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

	entries, pg, err := h.service.Review(r.Context(), p, communityID, parseFilters(r), page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:           e.ID,
			ActorID:      e.ActorID,
			ActorRole:    string(e.ActorRole),
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			Action:       string(e.Action),
			Outcome:      string(e.Outcome),
			Reason:       string(e.Reason),
			Detail:       e.Detail,
			OccurredAt:   e.OccurredAt,
		})
	}
	httpx.JSON(w, http.StatusOK, reviewResponse{Decisions: out, Pagination: pg})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
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

	data, err := h.service.ExportCSV(r.Context(), p, communityID, parseFilters(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="decisions.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
