package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"timetrack/internal/domain"
	"timetrack/internal/ports"
)

// Reporter builds the cross-user time report.
type Reporter struct {
	Log   *slog.Logger
	Store ports.Store
}

// TimeReport sums logged minutes per (user, project). Row scope mirrors the
// user-listing rule: superadmin sees every account, admin only plain users,
// anyone else is refused. Users without entries still appear with a single
// zero-minute row.
func (r *Reporter) TimeReport(ctx context.Context, callerRole domain.Role) ([]domain.TimeReportRow, error) {
	scope, err := ViewScope(callerRole)
	if err != nil {
		return nil, err
	}
	rows, err := r.Store.TimeReport(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("time report: %w", err)
	}
	r.Log.Debug("time report built", slog.Int("rows", len(rows)))
	return rows, nil
}

// Projects lists all projects; any authenticated caller may read them.
func (r *Reporter) Projects(ctx context.Context) ([]domain.Project, error) {
	return r.Store.ListProjects(ctx)
}

// CreateProject registers a project for report grouping. Admin or above.
func (r *Reporter) CreateProject(ctx context.Context, callerRole domain.Role, p domain.Project) (*domain.Project, error) {
	if callerRole != domain.RoleAdmin && callerRole != domain.RoleSuperadmin {
		return nil, fmt.Errorf("role %q may not create projects: %w", callerRole, domain.ErrForbidden)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("project name is required: %w", domain.ErrValidation)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := r.Store.InsertProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &p, nil
}
