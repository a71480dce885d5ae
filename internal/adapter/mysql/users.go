package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"timetrack/internal/domain"
)

const userColumns = "id, username, full_name, password_hash, role, force_change_password, created_at"

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.PasswordHash, &u.Role, &u.ForceChangePassword, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return u, err
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?", username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	}
	return u, err
}

func (s *Store) ListUsers(ctx context.Context, roleFilter *domain.Role) ([]domain.User, error) {
	q := "SELECT " + userColumns + " FROM users"
	var args []any
	if roleFilter != nil {
		q += " WHERE role = ?"
		args = append(args, string(*roleFilter))
	}
	q += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func (s *Store) InsertUser(ctx context.Context, u domain.User) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, username, full_name, password_hash, role, force_change_password, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.FullName, u.PasswordHash, string(u.Role), u.ForceChangePassword, u.CreatedAt,
	)
	if isDuplicate(err) {
		return fmt.Errorf("username %q taken: %w", u.Username, domain.ErrConflict)
	}
	return err
}

func (s *Store) UpdateUserRole(ctx context.Context, id string, role domain.Role) error {
	return s.execOnUser(ctx, id, "UPDATE users SET role = ? WHERE id = ?", string(role), id)
}

func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string, forceChange bool) error {
	return s.execOnUser(ctx, id,
		"UPDATE users SET password_hash = ?, force_change_password = ? WHERE id = ?",
		passwordHash, forceChange, id)
}

func (s *Store) UpdateUserFullName(ctx context.Context, id, fullName string) error {
	return s.execOnUser(ctx, id, "UPDATE users SET full_name = ? WHERE id = ?", fullName, id)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.execOnUser(ctx, id, "DELETE FROM users WHERE id = ?", id)
}

// execOnUser runs a single-row statement and maps a missing row to
// ErrNotFound. The driver reports rows changed, not rows matched (absent
// clientFoundRows in the DSN), so an UPDATE writing the value a row already
// holds also affects zero rows; a lookup separates that no-op from a row
// that does not exist.
func (s *Store) execOnUser(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var one int
		err := s.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, color FROM projects ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Color); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) InsertProject(ctx context.Context, p domain.Project) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO projects (id, name, color) VALUES (?, ?, ?)",
		p.ID, p.Name, p.Color)
	if isDuplicate(err) {
		return fmt.Errorf("project %q: %w", p.Name, domain.ErrConflict)
	}
	return err
}

// TimeReport mirrors the aggregate the admin dashboard needs: minutes per
// (user, project) with left joins so idle users still show a zero row.
func (s *Store) TimeReport(ctx context.Context, onlyRole *domain.Role) ([]domain.TimeReportRow, error) {
	q := `
SELECT u.id AS user_id, u.username, u.full_name,
       p.id AS project_id, p.name AS project_name, p.color AS project_color,
       COALESCE(SUM(e.duration_minutes), 0) AS total_minutes
FROM users u
LEFT JOIN time_entries e ON e.user_id = u.id
LEFT JOIN tasks t ON t.id = e.task_id
LEFT JOIN projects p ON p.id = t.project_id
`
	var args []any
	if onlyRole != nil {
		q += "WHERE u.role = ?\n"
		args = append(args, string(*onlyRole))
	}
	q += `GROUP BY u.id, u.username, u.full_name, p.id, p.name, p.color
ORDER BY u.username, total_minutes DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []domain.TimeReportRow
	for rows.Next() {
		var (
			r                  domain.TimeReportRow
			pid, pname, pcolor sql.NullString
		)
		if err := rows.Scan(&r.UserID, &r.Username, &r.FullName, &pid, &pname, &pcolor, &r.TotalMinutes); err != nil {
			return nil, err
		}
		r.ProjectID = strPtr(pid)
		r.ProjectName = strPtr(pname)
		r.ProjectColor = strPtr(pcolor)
		report = append(report, r)
	}
	return report, rows.Err()
}
