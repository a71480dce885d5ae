package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"timetrack/internal/domain"
	"timetrack/internal/ports"
)

// TrackingEngine owns the task, time-entry and active-timer lifecycle.
// It holds no state of its own; everything shared lives in the store.
type TrackingEngine struct {
	Log   *slog.Logger
	Store ports.Store
	Now   func() time.Time // defaults to time.Now when nil
}

func (e *TrackingEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// CreateTaskRequest carries the fields accepted at task creation.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	ProjectID   *string `json:"project_id"`
	StartDate   *string `json:"start_date"`
	DueDate     *string `json:"due_date"`
}

// ListTasks returns all tasks, most recently updated first, each carrying
// its derived total minutes and entry count.
func (e *TrackingEngine) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return e.Store.ListTasks(ctx)
}

// CreateTask creates a pending task. Description defaults to empty,
// category to "General". An empty title is rejected.
func (e *TrackingEngine) CreateTask(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	now := e.now()
	t := domain.Task{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Status:      domain.StatusPending,
		ProjectID:   normalizeOptional(req.ProjectID),
		StartDate:   normalizeOptional(req.StartDate),
		DueDate:     normalizeOptional(req.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Category == "" {
		t.Category = "General"
	}
	if err := e.Store.InsertTask(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	e.Log.Info("task created", slog.String("task_id", t.ID), slog.String("title", t.Title))
	return &t, nil
}

// UpdateTask applies the present patch fields, each refreshing updated_at,
// and returns the task re-read with fresh aggregates. Empty date and
// project strings clear the stored value rather than being stored verbatim.
func (e *TrackingEngine) UpdateTask(ctx context.Context, id string, p domain.TaskPatch) (*domain.Task, error) {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return nil, fmt.Errorf("title cannot be empty: %w", domain.ErrValidation)
	}
	if p.Status != nil && !domain.ValidStatus(*p.Status) {
		return nil, fmt.Errorf("status %q not allowed: %w", *p.Status, domain.ErrValidation)
	}
	if !p.Empty() {
		if err := e.Store.UpdateTask(ctx, id, p, e.now()); err != nil {
			return nil, fmt.Errorf("update task %s: %w", id, err)
		}
	}
	t, err := e.Store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTask removes a task and everything hanging off it. The cascade is
// best-effort: timer and entry cleanup failures are logged by the store but
// only the task delete itself decides the outcome.
func (e *TrackingEngine) DeleteTask(ctx context.Context, id string) error {
	if err := e.Store.DeleteTaskCascade(ctx, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	e.Log.Info("task deleted", slog.String("task_id", id))
	return nil
}

// DeleteTasksBulk cascades DeleteTask over every id. Unknown ids and
// duplicates are tolerated; the returned count is the number of ids
// processed, not the number of rows that existed.
func (e *TrackingEngine) DeleteTasksBulk(ctx context.Context, ids []string) (int, error) {
	for _, id := range ids {
		if err := e.Store.DeleteTaskCascade(ctx, id); err != nil {
			return 0, fmt.Errorf("bulk delete task %s: %w", id, err)
		}
	}
	e.Log.Info("tasks bulk deleted", slog.Int("count", len(ids)))
	return len(ids), nil
}

// StartTimer opens an active timer for the task on behalf of the caller.
// The store's unique key on task_id resolves races: exactly one concurrent
// start succeeds, the rest observe ErrConflict.
func (e *TrackingEngine) StartTimer(ctx context.Context, callerID, taskID, notes string) (*domain.ActiveTimer, error) {
	now := e.now()
	t := domain.ActiveTimer{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		UserID:    callerID,
		StartTime: now,
		Notes:     notes,
		CreatedAt: now,
	}
	if err := e.Store.InsertTimer(ctx, t); err != nil {
		return nil, fmt.Errorf("start timer for task %s: %w", taskID, err)
	}
	e.Log.Info("timer started", slog.String("task_id", taskID), slog.String("user_id", callerID))
	return &t, nil
}

// StopTimer converts the task's active timer into a time entry. Elapsed
// time rounds to the nearest minute (half-up) and is clamped at zero so
// clock skew never produces a negative duration. The delete+insert pair is
// applied atomically by the store.
func (e *TrackingEngine) StopTimer(ctx context.Context, taskID string) (*domain.TimeEntry, error) {
	timer, err := e.Store.GetTimerByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("stop timer for task %s: %w", taskID, err)
	}
	now := e.now()
	end := now
	entry := domain.TimeEntry{
		ID:              uuid.New().String(),
		TaskID:          taskID,
		UserID:          timer.UserID,
		StartTime:       timer.StartTime,
		EndTime:         &end,
		DurationMinutes: elapsedMinutes(timer.StartTime, now),
		Notes:           timer.Notes,
		CreatedAt:       now,
	}
	if err := e.Store.CloseTimer(ctx, taskID, entry); err != nil {
		return nil, fmt.Errorf("stop timer for task %s: %w", taskID, err)
	}
	e.Log.Info("timer stopped",
		slog.String("task_id", taskID),
		slog.Int64("minutes", entry.DurationMinutes),
	)
	return &entry, nil
}

// ListActiveTimers returns the caller's running timers.
func (e *TrackingEngine) ListActiveTimers(ctx context.Context, callerID string) ([]domain.ActiveTimer, error) {
	return e.Store.ListTimersByUser(ctx, callerID)
}

// elapsedMinutes rounds the interval to the nearest whole minute, never
// below zero. 90s rounds to 2.
func elapsedMinutes(start, end time.Time) int64 {
	if end.Before(start) {
		return 0
	}
	return int64(math.Round(end.Sub(start).Seconds() / 60))
}

// normalizeOptional maps present-but-empty strings to nil.
func normalizeOptional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
