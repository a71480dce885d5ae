package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"timetrack/internal/domain"
)

// memStore is an in-memory ports.Store honoring the same contract as the
// MySQL adapter: error kinds, timer uniqueness, atomic close, left-join
// report semantics.
type memStore struct {
	mu       sync.Mutex
	tasks    map[string]domain.Task
	entries  map[string]domain.TimeEntry
	timers   map[string]domain.ActiveTimer // keyed by task id
	users    map[string]domain.User
	projects map[string]domain.Project
	order    int // insertion counter for stable user ordering
	userSeq  map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		tasks:    make(map[string]domain.Task),
		entries:  make(map[string]domain.TimeEntry),
		timers:   make(map[string]domain.ActiveTimer),
		users:    make(map[string]domain.User),
		projects: make(map[string]domain.Project),
		userSeq:  make(map[string]int),
	}
}

func (m *memStore) aggregates(taskID string) (minutes, count int64) {
	for _, e := range m.entries {
		if e.TaskID == taskID {
			minutes += e.DurationMinutes
			count++
		}
	}
	return minutes, count
}

func (m *memStore) ListTasks(context.Context) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		t.TotalMinutes, t.EntryCount = m.aggregates(t.ID)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memStore) GetTask(_ context.Context, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	t.TotalMinutes, t.EntryCount = m.aggregates(id)
	return &t, nil
}

func (m *memStore) InsertTask(_ context.Context, t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	return nil
}

func (m *memStore) UpdateTask(_ context.Context, id string, p domain.TaskPatch, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil // per-field updates on a missing row affect nothing
	}
	clearable := func(v *string) *string {
		if *v == "" {
			return nil
		}
		return v
	}
	apply := func(f func()) { f(); t.UpdatedAt = updatedAt }
	if p.Title != nil {
		apply(func() { t.Title = *p.Title })
	}
	if p.Description != nil {
		apply(func() { t.Description = *p.Description })
	}
	if p.Category != nil {
		apply(func() { t.Category = *p.Category })
	}
	if p.Status != nil {
		apply(func() { t.Status = *p.Status })
	}
	if p.ProjectID != nil {
		apply(func() { t.ProjectID = clearable(p.ProjectID) })
	}
	if p.StartDate != nil {
		apply(func() { t.StartDate = clearable(p.StartDate) })
	}
	if p.DueDate != nil {
		apply(func() { t.DueDate = clearable(p.DueDate) })
	}
	m.tasks[id] = t
	return nil
}

func (m *memStore) DeleteTaskCascade(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.timers, id)
	for eid, e := range m.entries {
		if e.TaskID == id {
			delete(m.entries, eid)
		}
	}
	delete(m.tasks, id)
	return nil
}

func (m *memStore) InsertTimer(_ context.Context, t domain.ActiveTimer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.TaskID]; !ok {
		return fmt.Errorf("task %s: %w", t.TaskID, domain.ErrNotFound)
	}
	if _, ok := m.timers[t.TaskID]; ok {
		return fmt.Errorf("task %s already has an active timer: %w", t.TaskID, domain.ErrConflict)
	}
	m.timers[t.TaskID] = t
	return nil
}

func (m *memStore) GetTimerByTask(_ context.Context, taskID string) (*domain.ActiveTimer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timers[taskID]
	if !ok {
		return nil, fmt.Errorf("no active timer for task %s: %w", taskID, domain.ErrNotFound)
	}
	if task, ok := m.tasks[taskID]; ok {
		t.TaskTitle = task.Title
	}
	return &t, nil
}

func (m *memStore) ListTimersByUser(_ context.Context, userID string) ([]domain.ActiveTimer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ActiveTimer
	for _, t := range m.timers {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memStore) CloseTimer(_ context.Context, taskID string, entry domain.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.timers[taskID]; !ok {
		return fmt.Errorf("no active timer for task %s: %w", taskID, domain.ErrNotFound)
	}
	delete(m.timers, taskID)
	m.entries[entry.ID] = entry
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
}

func (m *memStore) ListUsers(_ context.Context, roleFilter *domain.Role) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		if roleFilter == nil || u.Role == *roleFilter {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.userSeq[out[i].ID] > m.userSeq[out[j].ID] })
	return out, nil
}

func (m *memStore) CountUsers(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *memStore) InsertUser(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return fmt.Errorf("username %q taken: %w", u.Username, domain.ErrConflict)
		}
	}
	m.order++
	m.userSeq[u.ID] = m.order
	m.users[u.ID] = u
	return nil
}

func (m *memStore) UpdateUserRole(_ context.Context, id string, role domain.Role) error {
	return m.mutateUser(id, func(u *domain.User) { u.Role = role })
}

func (m *memStore) UpdateUserPassword(_ context.Context, id, hash string, force bool) error {
	return m.mutateUser(id, func(u *domain.User) {
		u.PasswordHash = hash
		u.ForceChangePassword = force
	})
}

func (m *memStore) UpdateUserFullName(_ context.Context, id, fullName string) error {
	return m.mutateUser(id, func(u *domain.User) { u.FullName = fullName })
}

func (m *memStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) mutateUser(id string, f func(*domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	f(&u)
	m.users[id] = u
	return nil
}

func (m *memStore) ListProjects(context.Context) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) InsertProject(_ context.Context, p domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.projects {
		if existing.Name == p.Name {
			return fmt.Errorf("project %q: %w", p.Name, domain.ErrConflict)
		}
	}
	m.projects[p.ID] = p
	return nil
}

func (m *memStore) TimeReport(_ context.Context, onlyRole *domain.Role) ([]domain.TimeReportRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type key struct{ user, project string }
	sums := make(map[key]int64)
	for _, e := range m.entries {
		k := key{user: e.UserID}
		if t, ok := m.tasks[e.TaskID]; ok && t.ProjectID != nil {
			k.project = *t.ProjectID
		}
		sums[k] += e.DurationMinutes
	}

	var rows []domain.TimeReportRow
	for _, u := range m.users {
		if onlyRole != nil && u.Role != *onlyRole {
			continue
		}
		found := false
		for k, total := range sums {
			if k.user != u.ID {
				continue
			}
			found = true
			row := domain.TimeReportRow{UserID: u.ID, Username: u.Username, FullName: u.FullName, TotalMinutes: total}
			if p, ok := m.projects[k.project]; ok {
				row.ProjectID = &p.ID
				row.ProjectName = &p.Name
				row.ProjectColor = &p.Color
			}
			rows = append(rows, row)
		}
		if !found {
			rows = append(rows, domain.TimeReportRow{UserID: u.ID, Username: u.Username, FullName: u.FullName})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Username != rows[j].Username {
			return rows[i].Username < rows[j].Username
		}
		return rows[i].TotalMinutes > rows[j].TotalMinutes
	})
	return rows, nil
}
