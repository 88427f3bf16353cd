package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-autopilot/internal/adapter/repository"
	"github.com/johnquangdev/meeting-autopilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-autopilot/internal/usecase/analyzer"
	"github.com/johnquangdev/meeting-autopilot/internal/usecase/dispatch"
	"github.com/johnquangdev/meeting-autopilot/pkg/config"
	"github.com/johnquangdev/meeting-autopilot/pkg/trello"
	pkgvalidator "github.com/johnquangdev/meeting-autopilot/pkg/validator"
)

type stubModel struct {
	response string
	err      error
}

func (s *stubModel) Extract(ctx context.Context, transcript string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type stubMail struct {
	sent int
	err  error
}

func (s *stubMail) Send(ctx context.Context, recipient, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent++
	return nil
}

type stubTracker struct {
	created int
}

func (s *stubTracker) CreateCard(ctx context.Context, listID, title, description, token string) (*trello.CardRef, error) {
	s.created++
	return &trello.CardRef{ID: fmt.Sprintf("card-%d", s.created)}, nil
}

const validModelResponse = `{"summary":"Weekly sync.","decisions":["Adopt the new CI"],"action_items":[{"task":"Migrate pipeline","assignee":"Binh","due_date":"2026-09-01"}]}`

func newTestHandler(model analyzer.LanguageModel, mail dispatch.EmailSender, tracker dispatch.CardCreator) (*Automation, *repository.MemoryTaskRepository) {
	repo := repository.NewMemoryTaskRepository()
	analyzerSvc := analyzer.NewService(model, &config.AnalyzerConfig{MaxTranscriptChars: 100000}, nil)
	dispatchSvc := dispatch.NewService(repo, mail, tracker, &config.DispatchConfig{
		MaxAttempts:   3,
		CallTimeout:   time.Second,
		BackoffBase:   time.Millisecond,
		BackoffFactor: 2.0,
		BackoffCap:    5 * time.Millisecond,
	}, nil)
	return NewAutomationHandler(analyzerSvc, dispatchSvc, repo, nil), repo
}

func newEchoContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = pkgvalidator.New()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRun_Success(t *testing.T) {
	mail := &stubMail{}
	tracker := &stubTracker{}
	h, _ := newTestHandler(&stubModel{response: validModelResponse}, mail, tracker)

	body := `{
		"transcript": "Binh: let's adopt the new CI and migrate the pipeline.",
		"roster": {"team_name": "Platform", "members": [
			{"name": "An", "email": "an@example.com"},
			{"name": "Binh", "email": "binh@example.com"}
		]},
		"options": {"send_email": true, "create_cards": true, "board_id": "b1", "list_id": "l1"}
	}`

	c, rec := newEchoContext(http.MethodPost, "/v1/automations", body)
	if err := h.Run(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Code int `json:"code"`
		Data struct {
			BatchID  string `json:"batch_id"`
			Analysis struct {
				Summary string `json:"summary"`
			} `json:"analysis"`
			Tasks []struct {
				Kind   string `json:"kind"`
				Status string `json:"status"`
			} `json:"tasks"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response: %v", err)
	}

	if envelope.Data.Analysis.Summary != "Weekly sync." {
		t.Fatalf("unexpected summary %q", envelope.Data.Analysis.Summary)
	}
	if _, err := uuid.Parse(envelope.Data.BatchID); err != nil {
		t.Fatalf("invalid batch id %q", envelope.Data.BatchID)
	}
	// 2 roster members + 1 action item
	if len(envelope.Data.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(envelope.Data.Tasks))
	}
	for _, task := range envelope.Data.Tasks {
		if task.Status != string(entities.TaskStatusDispatched) {
			t.Fatalf("expected dispatched tasks, got %s", task.Status)
		}
	}
	if mail.sent != 2 || tracker.created != 1 {
		t.Fatalf("unexpected side effects: %d mails, %d cards", mail.sent, tracker.created)
	}
}

func TestRun_PartialFailureStillSucceeds(t *testing.T) {
	mail := &stubMail{err: errors.New("smtp: invalid recipient")}
	tracker := &stubTracker{}
	h, _ := newTestHandler(&stubModel{response: validModelResponse}, mail, tracker)

	body := `{
		"transcript": "t",
		"roster": {"members": [{"email": "an@example.com"}]},
		"options": {"send_email": true, "create_cards": true, "board_id": "b1", "list_id": "l1"}
	}`

	c, rec := newEchoContext(http.MethodPost, "/v1/automations", body)
	if err := h.Run(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("per-task failures must not fail the request, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), string(entities.TaskStatusFailed)) {
		t.Fatalf("expected a failed task in the response: %s", rec.Body.String())
	}
}

func TestRun_MissingTranscript(t *testing.T) {
	h, _ := newTestHandler(&stubModel{response: validModelResponse}, &stubMail{}, &stubTracker{})

	c, rec := newEchoContext(http.MethodPost, "/v1/automations", `{"roster":{"members":[]}}`)
	if err := h.Run(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRun_AnalysisFailure(t *testing.T) {
	h, _ := newTestHandler(&stubModel{response: "not json at all"}, &stubMail{}, &stubTracker{})

	c, rec := newEchoContext(http.MethodPost, "/v1/automations", `{"transcript":"t","roster":{"members":[]}}`)
	if err := h.Run(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for a parse failure, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRun_MissingCardTarget(t *testing.T) {
	h, _ := newTestHandler(&stubModel{response: validModelResponse}, &stubMail{}, &stubTracker{})

	body := `{"transcript":"t","roster":{"members":[]},"options":{"create_cards":true}}`
	c, rec := newEchoContext(http.MethodPost, "/v1/automations", body)
	if err := h.Run(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a dispatch precondition, got %d", rec.Code)
	}
}

func TestGetTask(t *testing.T) {
	h, repo := newTestHandler(&stubModel{response: validModelResponse}, &stubMail{}, &stubTracker{})

	task, err := entities.NewEmailTask(uuid.New(), entities.EmailPayload{Recipient: "an@example.com"})
	if err != nil {
		t.Fatalf("failed to build task: %v", err)
	}
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}

	c, rec := newEchoContext(http.MethodGet, "/v1/tasks/"+task.ID.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(task.ID.String())
	if err := h.GetTask(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), task.ID.String()) {
		t.Fatalf("task id missing from response")
	}
}

func TestGetTask_NotFound(t *testing.T) {
	h, _ := newTestHandler(&stubModel{response: validModelResponse}, &stubMail{}, &stubTracker{})

	unknown := uuid.NewString()
	c, rec := newEchoContext(http.MethodGet, "/v1/tasks/"+unknown, "")
	c.SetParamNames("id")
	c.SetParamValues(unknown)
	if err := h.GetTask(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetTask_InvalidID(t *testing.T) {
	h, _ := newTestHandler(&stubModel{response: validModelResponse}, &stubMail{}, &stubTracker{})

	c, rec := newEchoContext(http.MethodGet, "/v1/tasks/not-a-uuid", "")
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	if err := h.GetTask(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListBatchTasks(t *testing.T) {
	h, repo := newTestHandler(&stubModel{response: validModelResponse}, &stubMail{}, &stubTracker{})

	batchID := uuid.New()
	for i := 0; i < 2; i++ {
		task, err := entities.NewEmailTask(batchID, entities.EmailPayload{Recipient: fmt.Sprintf("m%d@example.com", i)})
		if err != nil {
			t.Fatalf("failed to build task: %v", err)
		}
		if err := repo.Create(context.Background(), task); err != nil {
			t.Fatalf("failed to seed task: %v", err)
		}
	}

	c, rec := newEchoContext(http.MethodGet, "/v1/automations/"+batchID.String()+"/tasks", "")
	c.SetParamNames("batch_id")
	c.SetParamValues(batchID.String())
	if err := h.ListBatchTasks(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if envelope.Data.Total != 2 {
		t.Fatalf("expected 2 tasks, got %d", envelope.Data.Total)
	}
}
