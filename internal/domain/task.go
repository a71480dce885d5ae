package domain

import "time"

// Task statuses accepted by the engine. Status is stored as a string but
// validated against this set at the boundary.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
)

// ValidStatus reports whether s is an accepted task status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task is a trackable unit of work. TotalMinutes and EntryCount are derived
// from the task's time entries at read time and never persisted.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Status      string     `json:"status"`
	ProjectID   *string    `json:"project_id"`
	StartDate   *string    `json:"start_date"` // YYYY-MM-DD
	DueDate     *string    `json:"due_date"`   // YYYY-MM-DD
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	TotalMinutes int64 `json:"total_minutes"`
	EntryCount   int64 `json:"entry_count"`
}

// TaskPatch carries a partial update. Nil fields are left untouched; a
// present-but-empty date or project id clears the stored value.
type TaskPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Status      *string `json:"status"`
	ProjectID   *string `json:"project_id"`
	StartDate   *string `json:"start_date"`
	DueDate     *string `json:"due_date"`
}

// Empty reports whether the patch carries no fields at all.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Status == nil && p.ProjectID == nil && p.StartDate == nil && p.DueDate == nil
}
