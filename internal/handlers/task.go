package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	dom "TaskAPI/internal/domain"
	"TaskAPI/internal/dto"
	"TaskAPI/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	msgNotFound = "Task not found"
	msgDeleted  = "Task deleted successfully!"
)

type TaskHandler struct {
	svc *service.TaskService
	log *slog.Logger
}

func NewTaskHandler(svc *service.TaskService, log *slog.Logger) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskHandler{svc: svc, log: log}
}

// List godoc
// @Summary      List all tasks
// @Tags         tasks
// @Produce      json
// @Success      200  {array}   dto.TaskResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.internalError(c, "list tasks", err)
		return
	}
	c.JSON(http.StatusOK, tasksToResponses(list))
}

// Newest godoc
// @Summary      List the three most recently created tasks
// @Tags         tasks
// @Produce      json
// @Success      200  {array}   dto.TaskResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /tasks/newest3 [get]
func (h *TaskHandler) Newest(c *gin.Context) {
	list, err := h.svc.Latest(c.Request.Context(), service.LatestCount)
	if err != nil {
		h.internalError(c, "latest tasks", err)
		return
	}
	c.JSON(http.StatusOK, tasksToResponses(list))
}

// GetByID godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	t, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: msgNotFound})
			return
		}
		h.internalError(c, "get task", err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTaskRequest  true  "Task body"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  dto.ValidationErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	d, err := dto.DecodeCreate(body)
	if err != nil {
		ve, ok := dom.AsValidationError(err)
		if !ok {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
		// Report the rule failures of the clean fields too.
		if rules, ok := dom.AsValidationError(d.Normalize().Validate()); ok {
			ve.Merge(rules)
		}
		validationError(c, ve)
		return
	}

	t, err := h.svc.Create(c.Request.Context(), d)
	if err != nil {
		if ve, ok := dom.AsValidationError(err); ok {
			validationError(c, ve)
			return
		}
		h.internalError(c, "create task", err)
		return
	}
	c.JSON(http.StatusCreated, taskToResponse(t))
}

// Update godoc
// @Summary      Update a task
// @Description  Replaces the fields present in the body; omitted fields are kept.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Task ID"
// @Param        body  body      dto.UpdateTaskRequest  true  "Partial update"
// @Success      200   {object}  dto.TaskResponse
// @Failure      400   {object}  dto.ValidationErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	p, err := dto.DecodePatch(body)
	if err != nil {
		ve, ok := dom.AsValidationError(err)
		if !ok {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
		// Report the rule failures of the clean fields too.
		cerr := h.svc.CheckPatch(c.Request.Context(), c.Param("id"), p)
		if errors.Is(cerr, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: msgNotFound})
			return
		}
		if rules, ok := dom.AsValidationError(cerr); ok {
			ve.Merge(rules)
		} else if cerr != nil {
			h.internalError(c, "update task", cerr)
			return
		}
		validationError(c, ve)
		return
	}

	t, err := h.svc.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: msgNotFound})
			return
		}
		if ve, ok := dom.AsValidationError(err); ok {
			validationError(c, ve)
			return
		}
		h.internalError(c, "update task", err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: msgNotFound})
			return
		}
		h.internalError(c, "delete task", err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: msgDeleted})
}

func (h *TaskHandler) internalError(c *gin.Context, op string, err error) {
	h.log.Error(op+" failed", "error", err, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
}

func validationError(c *gin.Context, ve *dom.ValidationError) {
	c.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{
		Error:  "validation failed",
		Errors: ve.Fields,
	})
}

func taskToResponse(t dom.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Content:   t.Content,
		Priority:  string(t.Priority),
		DueDate:   t.DueDate,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func tasksToResponses(list []dom.Task) []dto.TaskResponse {
	out := make([]dto.TaskResponse, len(list))
	for i := range list {
		out[i] = taskToResponse(list[i])
	}
	return out
}
