package jobcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type KeyContext string

var (
	keyBatchID      KeyContext = "batch_id"
	keyTaskID       KeyContext = "task_id"
	keyTaskKind     KeyContext = "task_kind"
	keyRetryAttempt KeyContext = "retry_attempt"
	keyTaskStart    KeyContext = "task_start_time"
)

// TaskMetadata holds metadata for one task execution
type TaskMetadata struct {
	BatchID      uuid.UUID
	TaskID       uuid.UUID
	TaskKind     string
	RetryAttempt int
	StartTime    time.Time
}

// TaskBegin annotates ctx with task execution metadata and applies the
// per-call timeout for the external capability
func TaskBegin(parentCtx context.Context, batchID, taskID uuid.UUID, kind string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parentCtx, timeout)

	ctx = context.WithValue(ctx, keyBatchID, batchID)
	ctx = context.WithValue(ctx, keyTaskID, taskID)
	ctx = context.WithValue(ctx, keyTaskKind, kind)
	ctx = context.WithValue(ctx, keyRetryAttempt, 0)
	ctx = context.WithValue(ctx, keyTaskStart, time.Now())

	return ctx, cancel
}

// GetTaskID extracts the task ID from context
func GetTaskID(ctx context.Context) (uuid.UUID, bool) {
	taskID, ok := ctx.Value(keyTaskID).(uuid.UUID)
	return taskID, ok
}

// GetBatchID extracts the batch ID from context
func GetBatchID(ctx context.Context) (uuid.UUID, bool) {
	batchID, ok := ctx.Value(keyBatchID).(uuid.UUID)
	return batchID, ok
}

// GetRetryAttempt extracts the current retry attempt from context
func GetRetryAttempt(ctx context.Context) int {
	attempt, ok := ctx.Value(keyRetryAttempt).(int)
	if !ok {
		return 0
	}
	return attempt
}

// SetRetryAttempt updates the retry attempt in context
func SetRetryAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, keyRetryAttempt, attempt)
}

// GetTaskMetadata extracts all task metadata from context
func GetTaskMetadata(ctx context.Context) *TaskMetadata {
	batchID, _ := GetBatchID(ctx)
	taskID, _ := GetTaskID(ctx)
	kind, _ := ctx.Value(keyTaskKind).(string)
	start, _ := ctx.Value(keyTaskStart).(time.Time)

	return &TaskMetadata{
		BatchID:      batchID,
		TaskID:       taskID,
		TaskKind:     kind,
		RetryAttempt: GetRetryAttempt(ctx),
		StartTime:    start,
	}
}

// IsRetryableError checks if an error should trigger a retry.
// Retryable errors include: network errors, timeouts, rate limits, 5xx
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Context errors (timeout, cancelled)
	if strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "context canceled") {
		return true
	}

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "status 429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	// Temporary failures
	if strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "try again") {
		return true
	}

	return false
}

// IsNonRetryableError checks if an error should NOT trigger a retry
func IsNonRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Client errors (4xx except 429)
	if strings.Contains(errStr, "status 400") ||
		strings.Contains(errStr, "status 401") ||
		strings.Contains(errStr, "status 403") ||
		strings.Contains(errStr, "status 404") ||
		strings.Contains(errStr, "invalid") ||
		strings.Contains(errStr, "bad request") {
		return true
	}

	// Data validation errors
	if strings.Contains(errStr, "validation failed") ||
		strings.Contains(errStr, "malformed") ||
		strings.Contains(errStr, "parse error") {
		return true
	}

	return false
}

// CalculateBackoff calculates exponential backoff for the given attempt
// (0-based): base * factor^attempt, capped
func CalculateBackoff(attempt int, base time.Duration, factor float64, cap time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	backoff := float64(base)
	for i := 0; i < attempt; i++ {
		backoff *= factor
	}

	d := time.Duration(backoff)
	if d > cap {
		d = cap
	}
	return d
}
