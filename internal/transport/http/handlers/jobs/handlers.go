package jobshandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"boutika/internal/domain/auth"
	"boutika/internal/platform/jobs"
	"boutika/internal/transport/http/api"
	"boutika/internal/transport/http/middleware"
)

type Handler struct {
	Jobs  *jobs.Service
	Perms middleware.PermissionStore
}

func NewHandler(jobsSvc *jobs.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Jobs: jobsSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTeamManage, h.Perms)).Post("/{jobType}/run", h.handleRun)
	})
}

// handleRun runs one scan pass synchronously so admins can refresh
// stock alerts or stale-approval reminders without waiting for the
// next tick.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	jobType := chi.URLParam(r, "jobType")

	details, err := h.Jobs.Trigger(r.Context(), jobType, user.WorkspaceID)
	switch {
	case errors.Is(err, jobs.ErrUnknownJobType):
		api.Fail(w, http.StatusBadRequest, "unknown_job_type", "no job registered under that name", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "job_run_failed", "job run failed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"jobType": jobType, "details": details}, middleware.GetRequestID(r.Context()))
}
