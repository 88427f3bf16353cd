package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-autopilot/internal/adapter/dto/automation"
	"github.com/johnquangdev/meeting-autopilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-autopilot/internal/domain/repositories"
	"github.com/johnquangdev/meeting-autopilot/internal/usecase/analyzer"
	"github.com/johnquangdev/meeting-autopilot/internal/usecase/dispatch"
)

// Automation handles the transcript-to-side-effects HTTP surface
type Automation struct {
	analyzer   *analyzer.Service
	dispatcher *dispatch.Service
	taskRepo   repositories.TaskRepository
	logger     *zap.Logger
}

// NewAutomationHandler creates a new automation handler
func NewAutomationHandler(
	analyzerService *analyzer.Service,
	dispatcherService *dispatch.Service,
	taskRepo repositories.TaskRepository,
	logger *zap.Logger,
) *Automation {
	return &Automation{
		analyzer:   analyzerService,
		dispatcher: dispatcherService,
		taskRepo:   taskRepo,
		logger:     logger,
	}
}

// Run handles POST /automations: analyze the transcript, then fan the result
// out into email and tracker-card tasks. Individual task failures do not fail
// the request; they are reported through per-task status in the response.
func (h *Automation) Run(c echo.Context) error {
	var req automation.RunAutomationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_request",
			"message": err.Error(),
		})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "validation_failed",
			"message": err.Error(),
		})
	}

	ctx := c.Request().Context()

	analysis, err := h.analyzer.Analyze(ctx, req.Transcript)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	roster := entities.RosterView{
		TeamID:   req.Roster.TeamID,
		TeamName: req.Roster.TeamName,
		Members:  make([]entities.RosterMember, 0, len(req.Roster.Members)),
	}
	for _, m := range req.Roster.Members {
		roster.Members = append(roster.Members, entities.RosterMember{
			Name:  m.Name,
			Email: m.Email,
		})
	}

	// Both side effects run unless the caller narrows the pass
	target := dispatch.Target{SendEmail: true, CreateCards: true}
	if req.Options != nil {
		target = dispatch.Target{
			SendEmail:   req.Options.SendEmail,
			CreateCards: req.Options.CreateCards,
			BoardID:     req.Options.BoardID,
			ListID:      req.Options.ListID,
		}
	}

	batchID, tasks, err := h.dispatcher.Dispatch(ctx, analysis, roster, target)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	resp := automation.RunAutomationResponse{
		BatchID:  batchID.String(),
		Analysis: toAnalysisResponse(analysis),
		Tasks:    make([]automation.TaskResponse, 0, len(tasks)),
	}
	for i := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(&tasks[i]))
	}

	return HandleSuccess(h.logger, c, resp)
}

// ListBatchTasks handles GET /automations/:batch_id/tasks
func (h *Automation) ListBatchTasks(c echo.Context) error {
	batchID, err := uuid.Parse(c.Param("batch_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_batch_id",
			"message": "batch_id must be a valid UUID",
		})
	}

	tasks, err := h.taskRepo.ListByBatch(c.Request().Context(), batchID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	resp := automation.BatchTasksResponse{
		BatchID: batchID.String(),
		Tasks:   make([]automation.TaskResponse, 0, len(tasks)),
		Total:   len(tasks),
	}
	for i := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(&tasks[i]))
	}

	return HandleSuccess(h.logger, c, resp)
}

// GetTask handles GET /tasks/:id
func (h *Automation) GetTask(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_task_id",
			"message": "id must be a valid UUID",
		})
	}

	task, err := h.taskRepo.GetByID(c.Request().Context(), taskID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if task == nil {
		return HandleError(h.logger, c, entities.ErrTaskNotFound)
	}

	return HandleSuccess(h.logger, c, toTaskResponse(task))
}
