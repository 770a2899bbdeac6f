package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/carepulse-backend/internal/http/response"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/services"
)

type TaskHandler struct {
	tasks services.TaskService
}

func NewTaskHandler(tasks services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req services.CreateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	task, err := h.tasks.Create(dbctx.Context{Ctx: c.Request.Context()}, req)
	if err != nil {
		response.RespondServiceError(c, err, "create_task_failed")
		return
	}
	response.RespondCreated(c, gin.H{"task": task})
}

// GET /api/tasks?status=&limit=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.tasks.List(dbctx.Context{Ctx: c.Request.Context()}, c.Query("status"), limit)
	if err != nil {
		response.RespondServiceError(c, err, "list_tasks_failed")
		return
	}
	response.RespondOK(c, gin.H{"tasks": list})
}

// GET /api/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	task, err := h.tasks.Get(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondServiceError(c, err, "get_task_failed")
		return
	}
	response.RespondOK(c, gin.H{"task": task})
}

type dueDateRequest struct {
	DueAt time.Time `json:"due_at" binding:"required"`
}

// PATCH /api/tasks/:id/due-date
func (h *TaskHandler) UpdateDueDate(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	var req dueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	task, err := h.tasks.UpdateDueDate(dbctx.Context{Ctx: c.Request.Context()}, id, req.DueAt)
	if err != nil {
		response.RespondServiceError(c, err, "update_task_failed")
		return
	}
	response.RespondOK(c, gin.H{"task": task})
}

// POST /api/tasks/:id/complete
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	task, err := h.tasks.Complete(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondServiceError(c, err, "complete_task_failed")
		return
	}
	response.RespondOK(c, gin.H{"task": task})
}

// DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	if err := h.tasks.Delete(dbctx.Context{Ctx: c.Request.Context()}, id); err != nil {
		response.RespondServiceError(c, err, "delete_task_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

func taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_task_id", err)
		return uuid.Nil, false
	}
	return id, true
}
