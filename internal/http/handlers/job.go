package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/http/response"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/carepulse-backend/internal/pkg/errors"
	"github.com/yungbote/carepulse-backend/internal/services"
)

// JobHandler looks jobs up across every queue it was given.
type JobHandler struct {
	queues []services.JobService
}

func NewJobHandler(queues ...services.JobService) *JobHandler {
	return &JobHandler{queues: queues}
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	_, job, err := h.find(dbctx.Context{Ctx: c.Request.Context()}, jobID)
	if err != nil {
		response.RespondServiceError(c, err, "get_job_failed")
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// POST /api/jobs/:id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	q, _, err := h.find(dbc, jobID)
	if err != nil {
		response.RespondServiceError(c, err, "cancel_job_failed")
		return
	}
	job, err := q.Cancel(dbc, jobID)
	if err != nil {
		response.RespondServiceError(c, err, "cancel_job_failed")
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

func (h *JobHandler) find(dbc dbctx.Context, jobID uuid.UUID) (services.JobService, *types.JobRun, error) {
	for _, q := range h.queues {
		job, err := q.Get(dbc, jobID)
		if err == nil {
			return q, job, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, err
		}
	}
	return nil, nil, apperrors.ErrNotFound
}
