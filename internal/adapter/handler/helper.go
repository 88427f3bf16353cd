package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-autopilot/errors"
	"github.com/johnquangdev/meeting-autopilot/internal/adapter/dto/automation"
	"github.com/johnquangdev/meeting-autopilot/internal/domain/entities"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get("X-Request-ID")
}

// HandleSuccess writes a standardized success response
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(http.StatusOK, resp)
}

// HandleError centralizes error handling and logging. Domain errors are
// translated to AppError first so every failure leaves through one shape.
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	appErr, ok := asAppError(err)
	if !ok {
		appErr = mapDomainError(err)
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Any("app_code", appErr.Code),
			zap.Error(err),
		)
	}

	info := ""
	if appErr.Raw != nil {
		info = appErr.Raw.Error()
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Info:    info,
		Details: appErr.Details,
	}

	return c.JSON(appErr.HTTPCode, body)
}

func asAppError(err error) (errors.AppError, bool) {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr, true
	}
	return errors.AppError{}, false
}

// mapDomainError translates usecase-layer errors into the HTTP error
// vocabulary
func mapDomainError(err error) errors.AppError {
	var analysisErr *entities.AnalysisError
	if stdErrors.As(err, &analysisErr) {
		switch analysisErr.Kind {
		case entities.AnalysisInputTooLarge:
			return errors.ErrAnalysisInputTooLarge(analysisErr.Err)
		case entities.AnalysisRemoteFailed:
			return errors.ErrAnalysisRemoteFailed(analysisErr.Err)
		default:
			return errors.ErrAnalysisParseFailed(analysisErr.Err)
		}
	}

	var dispatchErr *entities.DispatchError
	if stdErrors.As(err, &dispatchErr) {
		return errors.ErrDispatchPrecondition(dispatchErr.Reason)
	}

	if stdErrors.Is(err, entities.ErrTaskNotFound) {
		return errors.ErrNotFound("task")
	}

	return errors.ErrInternal(err)
}

// toTaskResponse maps a task entity onto its transport shape
func toTaskResponse(t *entities.AutomationTask) automation.TaskResponse {
	return automation.TaskResponse{
		ID:           t.ID.String(),
		BatchID:      t.BatchID.String(),
		Kind:         string(t.Kind),
		Status:       string(t.Status),
		ExternalRef:  t.ExternalRef,
		AttemptCount: t.AttemptCount,
		LastError:    t.LastError,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// toAnalysisResponse maps a MeetingAnalysis onto its transport shape
func toAnalysisResponse(a *entities.MeetingAnalysis) automation.AnalysisResponse {
	items := make([]automation.ActionItemResponse, 0, len(a.ActionItems))
	for _, item := range a.ActionItems {
		items = append(items, automation.ActionItemResponse{
			Task:     item.Description,
			Assignee: item.Assignee,
			DueDate:  item.DueDateText,
		})
	}
	return automation.AnalysisResponse{
		Summary:     a.Summary,
		Decisions:   a.Decisions,
		ActionItems: items,
	}
}
