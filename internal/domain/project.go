package domain

// Project groups tasks for reporting.
type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TimeReportRow is one line of the per-user/per-project minutes report.
// Project columns are nil when a user's entries (or the user as a whole)
// have no project attached.
type TimeReportRow struct {
	UserID       string  `json:"user_id"`
	Username     string  `json:"username"`
	FullName     string  `json:"full_name"`
	ProjectID    *string `json:"project_id"`
	ProjectName  *string `json:"project_name"`
	ProjectColor *string `json:"project_color"`
	TotalMinutes int64   `json:"total_minutes"`
}
