package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/carepulse-backend/internal/http/response"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/services"
)

type MomentHandler struct {
	moments services.MomentService
}

func NewMomentHandler(moments services.MomentService) *MomentHandler {
	return &MomentHandler{moments: moments}
}

// POST /api/moments (multipart: file, worker_id, submitter_name)
func (h *MomentHandler) Upload(c *gin.Context) {
	workerID, err := uuid.Parse(strings.TrimSpace(c.PostForm("worker_id")))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_worker_id", err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()

	res, err := h.moments.Upload(dbctx.Context{Ctx: c.Request.Context()}, services.UploadInput{
		WorkerID:      workerID,
		SubmitterName: c.PostForm("submitter_name"),
		Filename:      fh.Filename,
		ContentType:   fh.Header.Get("Content-Type"),
		File:          f,
	})
	if err != nil {
		response.RespondServiceError(c, err, "upload_failed")
		return
	}
	response.RespondCreated(c, gin.H{
		"moment":                res.Moment,
		"processed_immediately": res.ProcessedImmediately,
		"extracted_text":        res.ExtractedText,
		"sentiment_score":       res.SentimentScore,
	})
}

// GET /api/moments/:id
func (h *MomentHandler) GetMoment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_moment_id", err)
		return
	}
	m, err := h.moments.Get(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondServiceError(c, err, "get_moment_failed")
		return
	}
	response.RespondOK(c, gin.H{"moment": m})
}

// GET /api/workers/:id/moments?limit=
func (h *MomentHandler) ListWorkerMoments(c *gin.Context) {
	workerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_worker_id", err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.moments.ListByWorker(dbctx.Context{Ctx: c.Request.Context()}, workerID, limit)
	if err != nil {
		response.RespondServiceError(c, err, "list_moments_failed")
		return
	}
	response.RespondOK(c, gin.H{"moments": list})
}
