package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/task-system/internal/core/ports"
)

// TaskHandler handles HTTP requests for task operations.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// Create assigns a new task to an existing user.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTaskRequest  true  "Task details"
// @Success      201   {object}  createTaskResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	id, err := h.service.Create(c.Request().Context(), actor, ports.CreateTaskInput{
		Assignee:    req.Assignee,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, createTaskResponse{Message: "task created successfully", ID: id})
}

// ListMine returns the caller's tasks.
//
// @Summary      List my tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        assigned    query     bool  false  "Include tasks assigned to me"  default(true)
// @Param        created_by  query     bool  false  "Include tasks I created"       default(true)
// @Success      200         {array}   taskSummary
// @Failure      400         {object}  map[string]any
// @Router       /tasks [get]
func (h *TaskHandler) ListMine(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	in := ports.ListTasksInput{Assigned: true, CreatedBy: true}
	if err := echo.QueryParamsBinder(c).
		Bool("assigned", &in.Assigned).
		Bool("created_by", &in.CreatedBy).
		BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "assigned and created_by must be booleans")
	}

	tasks, err := h.service.ListMine(c.Request().Context(), actor, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskSummaries(tasks))
}

// ListAll returns tasks of every user.
//
// @Summary      List all tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   taskDetail
// @Failure      403  {object}  map[string]any
// @Router       /tasks/all [get]
func (h *TaskHandler) ListAll(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	tasks, err := h.service.ListAll(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskDetails(tasks))
}

// Get returns a single task.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  taskDetail
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	task, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskDetail(task))
}

// Update edits a task.
//
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Task id"
// @Param        body  body      updateTaskRequest  true  "Fields to change"
// @Success      200   {object}  taskDetail
// @Failure      400   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), ports.UpdateTaskInput{
		Assignee:    req.Assignee,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskDetail(task))
}

// MarkDone closes a task.
//
// @Summary      Mark a task done
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  successResponse
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      500  {object}  map[string]any
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) MarkDone(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.MarkDone(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true, Message: "operation is done successfully"})
}

// Delete removes or deactivates a task.
//
// @Summary      Delete a task
// @Tags         tasks
// @Security     BearerAuth
// @Param        id               path   string  true   "Task id"
// @Param        just_deactivate  query  bool    false  "Only mark the task inactive"
// @Success      204
// @Failure      400  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var justDeactivate bool
	if err := echo.QueryParamsBinder(c).Bool("just_deactivate", &justDeactivate).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "just_deactivate must be a boolean")
	}

	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id"), justDeactivate); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
