package domain

import "time"

// TimeEntry is an immutable closed interval of logged work against a task.
// Entries are created only when an active timer is stopped.
type TimeEntry struct {
	ID              string     `json:"id"`
	TaskID          string     `json:"task_id"`
	UserID          string     `json:"user_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes int64      `json:"duration_minutes"`
	Notes           string     `json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ActiveTimer marks a task as having work in progress. At most one exists
// per task; stopping it converts it into a TimeEntry.
type ActiveTimer struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	TaskTitle string    `json:"task_title"` // joined in for responses, not stored
	UserID    string    `json:"user_id"`
	StartTime time.Time `json:"start_time"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}
