package ports

import (
	"context"
	"time"

	"timetrack/internal/domain"
)

// Store is the durable-record contract the core depends on. Implementations
// must map uniqueness violations to domain.ErrConflict and missing rows to
// domain.ErrNotFound so callers can classify with errors.Is.
type Store interface {
	// Tasks. List and Get return derived TotalMinutes/EntryCount computed
	// from time entries at read time; List orders by updated_at descending.
	ListTasks(ctx context.Context) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	InsertTask(ctx context.Context, t domain.Task) error
	// UpdateTask applies each present patch field as its own write, stamping
	// updatedAt on every one.
	UpdateTask(ctx context.Context, id string, p domain.TaskPatch, updatedAt time.Time) error
	// DeleteTaskCascade removes the task's active timer, its time entries,
	// then the task itself. The cleanup steps are best-effort: their failure
	// is logged but only the final task delete decides the result.
	DeleteTaskCascade(ctx context.Context, id string) error

	// Timers. InsertTimer returns domain.ErrConflict when the task already
	// has a timer (unique key on task_id) and domain.ErrNotFound when the
	// task does not exist.
	InsertTimer(ctx context.Context, t domain.ActiveTimer) error
	GetTimerByTask(ctx context.Context, taskID string) (*domain.ActiveTimer, error)
	ListTimersByUser(ctx context.Context, userID string) ([]domain.ActiveTimer, error)
	// CloseTimer atomically deletes the task's active timer and inserts the
	// entry; neither effect may be visible without the other. Returns
	// domain.ErrNotFound when no timer exists for the task.
	CloseTimer(ctx context.Context, taskID string, entry domain.TimeEntry) error

	// Users.
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	// ListUsers returns all users when roleFilter is nil, otherwise only
	// those with the given role. Ordered by created_at descending.
	ListUsers(ctx context.Context, roleFilter *domain.Role) ([]domain.User, error)
	CountUsers(ctx context.Context) (int64, error)
	InsertUser(ctx context.Context, u domain.User) error
	UpdateUserRole(ctx context.Context, id string, role domain.Role) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string, forceChange bool) error
	UpdateUserFullName(ctx context.Context, id, fullName string) error
	DeleteUser(ctx context.Context, id string) error

	// Projects.
	ListProjects(ctx context.Context) ([]domain.Project, error)
	InsertProject(ctx context.Context, p domain.Project) error

	// TimeReport sums entry minutes grouped by (user, project) with
	// left-join semantics: users without entries still produce one row with
	// zero minutes and no project. A non-nil onlyRole restricts the user
	// rows to that role. Ordered by username asc, then minutes desc.
	TimeReport(ctx context.Context, onlyRole *domain.Role) ([]domain.TimeReportRow, error)
}

// PasswordHasher produces and checks opaque password digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}
