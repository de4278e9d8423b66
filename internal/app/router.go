package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storyweave/storyweave/internal/audit"
	"github.com/storyweave/storyweave/internal/auth"
	"github.com/storyweave/storyweave/internal/communities"
	"github.com/storyweave/storyweave/internal/curriculums"
	"github.com/storyweave/storyweave/internal/files"
	"github.com/storyweave/storyweave/internal/observability"
	"github.com/storyweave/storyweave/internal/places"
	"github.com/storyweave/storyweave/internal/shared"
	"github.com/storyweave/storyweave/internal/speakers"
	"github.com/storyweave/storyweave/internal/stories"
	"github.com/storyweave/storyweave/internal/themes"
	"github.com/storyweave/storyweave/internal/users"
	"github.com/storyweave/storyweave/jobs"
)

// RouterParams carries everything NewRouter needs to assemble the HTTP surface.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler    *auth.Handler
	AuthMiddleware auth.Middleware

	CommunitiesHandler *communities.Handler
	UsersHandler       *users.Handler
	StoriesHandler     *stories.Handler
	PlacesHandler      *places.Handler
	SpeakersHandler    *speakers.Handler
	ThemesHandler      *themes.Handler
	CurriculumsHandler *curriculums.Handler
	FilesHandler       *files.Handler
	AuditHandler       *audit.Handler
	JobHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter builds the chi router with the full middleware stack and all
// mounted handlers.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:           params.Logger,
		Config:           params.Config,
		SessionManager:   params.SessionManager,
		CSRFManager:      params.CSRFManager,
		Metrics:          params.Metrics,
		PrincipalResolve: params.AuthMiddleware.ResolvePrincipal,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth)

		params.CommunitiesHandler.MountRoutes(r)
		params.UsersHandler.MountRoutes(r)
		params.StoriesHandler.MountRoutes(r)
		params.PlacesHandler.MountRoutes(r)
		params.SpeakersHandler.MountRoutes(r)
		params.ThemesHandler.MountRoutes(r)
		params.CurriculumsHandler.MountRoutes(r)
		params.FilesHandler.MountRoutes(r)
		params.AuditHandler.MountRoutes(r)
	})

	return r
}
