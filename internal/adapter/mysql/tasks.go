package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"timetrack/internal/domain"
)

const taskAggregateQuery = `
SELECT t.id, t.title, t.description, t.category, t.status,
       t.project_id, t.start_date, t.due_date, t.created_at, t.updated_at,
       COALESCE(SUM(e.duration_minutes), 0) AS total_minutes,
       COUNT(e.id) AS entry_count
FROM tasks t
LEFT JOIN time_entries e ON e.task_id = t.id
`

func (s *Store) ListTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, taskAggregateQuery+`
GROUP BY t.id
ORDER BY t.updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, taskAggregateQuery+`
WHERE t.id = ?
GROUP BY t.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return scanTask(rows)
}

func scanTask(rows *sql.Rows) (*domain.Task, error) {
	var (
		t                   domain.Task
		project, start, due sql.NullString
	)
	if err := rows.Scan(
		&t.ID, &t.Title, &t.Description, &t.Category, &t.Status,
		&project, &start, &due, &t.CreatedAt, &t.UpdatedAt,
		&t.TotalMinutes, &t.EntryCount,
	); err != nil {
		return nil, err
	}
	t.ProjectID = strPtr(project)
	t.StartDate = strPtr(start)
	t.DueDate = strPtr(due)
	return &t, nil
}

func (s *Store) InsertTask(ctx context.Context, t domain.Task) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO tasks (id, title, description, category, status, project_id, start_date, due_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Category, t.Status,
		nullStr(t.ProjectID), nullStr(t.StartDate), nullStr(t.DueDate),
		t.CreatedAt, t.UpdatedAt,
	)
	if isFKViolation(err) {
		return fmt.Errorf("project %v: %w", t.ProjectID, domain.ErrNotFound)
	}
	return err
}

// UpdateTask applies each present field as its own UPDATE, stamping
// updated_at every time. Empty strings in the nullable fields clear the
// column.
func (s *Store) UpdateTask(ctx context.Context, id string, p domain.TaskPatch, updatedAt time.Time) error {
	set := func(column string, value any) error {
		_, err := s.db.ExecContext(ctx,
			"UPDATE tasks SET "+column+" = ?, updated_at = ? WHERE id = ?",
			value, updatedAt, id)
		return err
	}
	clearable := func(v *string) any {
		if *v == "" {
			return nil
		}
		return *v
	}

	if p.Title != nil {
		if err := set("title", *p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := set("description", *p.Description); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := set("category", *p.Category); err != nil {
			return err
		}
	}
	if p.Status != nil {
		if err := set("status", *p.Status); err != nil {
			return err
		}
	}
	if p.ProjectID != nil {
		if err := set("project_id", clearable(p.ProjectID)); isFKViolation(err) {
			return fmt.Errorf("project %s: %w", *p.ProjectID, domain.ErrNotFound)
		} else if err != nil {
			return err
		}
	}
	if p.StartDate != nil {
		if err := set("start_date", clearable(p.StartDate)); err != nil {
			return err
		}
	}
	if p.DueDate != nil {
		if err := set("due_date", clearable(p.DueDate)); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTaskCascade removes the timer and entries first, then the task.
// The cleanup steps are best-effort: a failure there is logged and the task
// delete still runs, matching the documented availability-first policy. The
// schema's ON DELETE CASCADE keys back this up.
func (s *Store) DeleteTaskCascade(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM active_timers WHERE task_id = ?", id); err != nil {
		s.log.Warn("cascade: timer cleanup failed", slog.String("task_id", id), slog.String("error", err.Error()))
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM time_entries WHERE task_id = ?", id); err != nil {
		s.log.Warn("cascade: entry cleanup failed", slog.String("task_id", id), slog.String("error", err.Error()))
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	return err
}

func (s *Store) InsertTimer(ctx context.Context, t domain.ActiveTimer) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO active_timers (id, task_id, user_id, start_time, notes, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.TaskID, t.UserID, t.StartTime, t.Notes, t.CreatedAt,
	)
	switch {
	case isDuplicate(err):
		return fmt.Errorf("task %s already has an active timer: %w", t.TaskID, domain.ErrConflict)
	case isFKViolation(err):
		return fmt.Errorf("task %s: %w", t.TaskID, domain.ErrNotFound)
	}
	return err
}

func (s *Store) GetTimerByTask(ctx context.Context, taskID string) (*domain.ActiveTimer, error) {
	var t domain.ActiveTimer
	err := s.db.QueryRowContext(ctx, `
SELECT a.id, a.task_id, t.title, a.user_id, a.start_time, a.notes, a.created_at
FROM active_timers a
JOIN tasks t ON t.id = a.task_id
WHERE a.task_id = ?`, taskID).Scan(
		&t.ID, &t.TaskID, &t.TaskTitle, &t.UserID, &t.StartTime, &t.Notes, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no active timer for task %s: %w", taskID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTimersByUser(ctx context.Context, userID string) ([]domain.ActiveTimer, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT a.id, a.task_id, t.title, a.user_id, a.start_time, a.notes, a.created_at
FROM active_timers a
JOIN tasks t ON t.id = a.task_id
WHERE a.user_id = ?
ORDER BY a.start_time`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var timers []domain.ActiveTimer
	for rows.Next() {
		var t domain.ActiveTimer
		if err := rows.Scan(&t.ID, &t.TaskID, &t.TaskTitle, &t.UserID, &t.StartTime, &t.Notes, &t.CreatedAt); err != nil {
			return nil, err
		}
		timers = append(timers, t)
	}
	return timers, rows.Err()
}

// CloseTimer deletes the task's timer and inserts the entry in one
// transaction. The delete doubles as the existence check: zero affected
// rows means another stop (or a cascade delete) won the race.
func (s *Store) CloseTimer(ctx context.Context, taskID string, entry domain.TimeEntry) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM active_timers WHERE task_id = ?", taskID)
	if err != nil {
		tx.Rollback()
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		tx.Rollback()
		return err
	} else if n == 0 {
		tx.Rollback()
		return fmt.Errorf("no active timer for task %s: %w", taskID, domain.ErrNotFound)
	}
	var end any
	if entry.EndTime != nil {
		end = entry.EndTime.UTC()
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO time_entries (id, task_id, user_id, start_time, end_time, duration_minutes, notes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.TaskID, entry.UserID, entry.StartTime.UTC(), end,
		entry.DurationMinutes, entry.Notes, entry.CreatedAt.UTC(),
	); err != nil {
		tx.Rollback()
		if isFKViolation(err) {
			return fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
		}
		return err
	}
	return tx.Commit()
}
