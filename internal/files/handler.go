package files

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/storyweave/storyweave/internal/platform/httpx"
	"github.com/storyweave/storyweave/internal/shared"
)

// Handler wires HTTP endpoints for media uploads.
type Handler struct {
	logger          *slog.Logger
	service         *Service
	validator       *validator.Validate
	uploadsPerMin   int
	uploadRateBurst time.Duration
}

// NewHandler constructs a Handler instance. uploadsPerMin bounds how many
// uploads a single principal may register per minute.
func NewHandler(logger *slog.Logger, service *Service, uploadsPerMin int) *Handler {
	if uploadsPerMin <= 0 {
		uploadsPerMin = 10
	}
	return &Handler{
		logger:          logger,
		service:         service,
		validator:       validator.New(),
		uploadsPerMin:   uploadsPerMin,
		uploadRateBurst: time.Minute,
	}
}

// MountRoutes registers file routes on provided router. The upload route
// carries its own per-principal rate limit on top of the global per-IP one.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(h.uploadsPerMin, h.uploadRateBurst,
			httprate.WithKeyFuncs(principalKey)))
		r.Post("/files", h.handleUpload)
	})
	r.Get("/files/{fileID}", h.handleGet)
	r.Delete("/files/{fileID}", h.handleDelete)
}

// principalKey buckets rate limiting by authenticated principal, falling
// back to remote IP for anonymous requests.
func principalKey(r *http.Request) (string, error) {
	if p, ok := shared.PrincipalFromContext(r.Context()); ok {
		community := int64(0)
		if p.CommunityID != nil {
			community = *p.CommunityID
		}
		return strconv.FormatInt(community, 10) + ":" + strconv.FormatInt(p.ID, 10), nil
	}
	return httprate.KeyByIP(r)
}

type fileResponse struct {
	ID                    int64     `json:"id"`
	CommunityID           int64     `json:"community_id"`
	ObjectKey             string    `json:"object_key"`
	Filename              string    `json:"filename"`
	ContentType           string    `json:"content_type"`
	SizeBytes             int64     `json:"size_bytes"`
	Status                string    `json:"status"`
	PermissionLevel       string    `json:"permission_level"`
	CeremonialContent     bool      `json:"ceremonial_content"`
	ElderApprovalRequired bool      `json:"elder_approval_required"`
	UploadedBy            int64     `json:"uploaded_by"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type uploadResponse struct {
	File      fileResponse `json:"file"`
	UploadURL string       `json:"upload_url"`
}

func toResponse(f File) fileResponse {
	return fileResponse{
		ID:                    f.ID,
		CommunityID:           f.CommunityID,
		ObjectKey:             f.ObjectKey,
		Filename:              f.Filename,
		ContentType:           f.ContentType,
		SizeBytes:             f.SizeBytes,
		Status:                string(f.Status),
		PermissionLevel:       string(f.PermissionLevel),
		CeremonialContent:     f.CeremonialContent,
		ElderApprovalRequired: f.ElderApprovalRequired,
		UploadedBy:            f.UploadedBy,
		CreatedAt:             f.CreatedAt,
		UpdatedAt:             f.UpdatedAt,
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Idempotency-Key header required")
		return
	}

	var in UploadInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	upload, err := h.service.RegisterUpload(r.Context(), p, key, in)
	if err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "upload already registered")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, uploadResponse{
		File:      toResponse(upload.File),
		UploadURL: upload.UploadURL,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid file id")
		return
	}

	file, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*file))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid file id")
		return
	}
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
