package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"timetrack/internal/auth"
	"timetrack/internal/domain"
	"timetrack/internal/usecase"
)

// HTTPServer returns a configured http.Server exposing the API.
// Call ListenAndServe on the returned server in a goroutine and Shutdown it
// on exit.
func (a *App) HTTPServer(addr string) *http.Server {
	return &http.Server{Addr: addr, Handler: a.routes()}
}

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/login", a.handleLogin)

	// Tasks and timers are open to any authenticated caller.
	mux.HandleFunc("GET /api/tasks", a.authed(a.handleListTasks))
	mux.HandleFunc("POST /api/tasks", a.authed(a.handleCreateTask))
	mux.HandleFunc("PATCH /api/tasks/{id}", a.authed(a.handleUpdateTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", a.authed(a.handleDeleteTask))
	mux.HandleFunc("POST /api/tasks/bulk-delete", a.authed(a.handleBulkDelete))
	mux.HandleFunc("POST /api/tasks/{id}/timer/start", a.authed(a.handleStartTimer))
	mux.HandleFunc("POST /api/tasks/{id}/timer/stop", a.authed(a.handleStopTimer))
	mux.HandleFunc("GET /api/timer", a.authed(a.handleActiveTimers))

	mux.HandleFunc("GET /api/projects", a.authed(a.handleListProjects))
	mux.HandleFunc("POST /api/projects", a.authed(a.handleCreateProject))

	mux.HandleFunc("PUT /api/profile", a.authed(a.handleUpdateProfile))
	mux.HandleFunc("POST /api/password", a.authed(a.handleChangePassword))

	mux.HandleFunc("GET /api/admin/users", a.authed(a.handleListUsers))
	mux.HandleFunc("DELETE /api/admin/users/{id}", a.authed(a.handleDeleteUser))
	mux.HandleFunc("PUT /api/admin/users/{id}/role", a.authed(a.handleChangeRole))
	mux.HandleFunc("POST /api/admin/users/{id}/reset-password", a.authed(a.handleResetPassword))
	mux.HandleFunc("GET /api/admin/time-report", a.authed(a.handleTimeReport))

	return loggingMiddleware(a.log, mux)
}

// loggingMiddleware provides basic request logging.
func loggingMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr),
			slog.Duration("dur", time.Since(start)),
		)
	})
}

// authed verifies the bearer token and hands the typed caller identity to
// the handler. Identity is always an explicit argument, never request
// ambient state.
func (a *App) authed(h func(http.ResponseWriter, *http.Request, auth.Identity)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		id, err := a.tokens.Verify(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		h(w, r, id)
	}
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the core error kinds to status codes. Anything
// unclassified is an internal failure: logged in full, surfaced generically.
func (a *App) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	default:
		a.log.Error("internal error", slog.String("error", err.Error()))
		a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed request body: %w", domain.ErrValidation)
	}
	return nil
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	token, user, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (a *App) handleListTasks(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	tasks, err := a.engine.ListTasks(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, tasks)
}

func (a *App) handleCreateTask(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var req usecase.CreateTaskRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	task, err := a.engine.CreateTask(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, task)
}

func (a *App) handleUpdateTask(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var patch domain.TaskPatch
	if err := decode(r, &patch); err != nil {
		a.writeError(w, err)
		return
	}
	task, err := a.engine.UpdateTask(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, task)
}

func (a *App) handleDeleteTask(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	if err := a.engine.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (a *App) handleBulkDelete(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decode(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	n, err := a.engine.DeleteTasksBulk(r.Context(), req.IDs)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]int{"deleted_count": n})
}

func (a *App) handleStartTimer(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req struct {
		Notes string `json:"notes"`
	}
	// The body is optional for starts; anything present must still parse.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.writeError(w, fmt.Errorf("malformed request body: %w", domain.ErrValidation))
		return
	}
	timer, err := a.engine.StartTimer(r.Context(), id.UserID, r.PathValue("id"), req.Notes)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, timer)
}

func (a *App) handleStopTimer(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	entry, err := a.engine.StopTimer(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, entry)
}

func (a *App) handleActiveTimers(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	timers, err := a.engine.ListActiveTimers(r.Context(), id.UserID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, timers)
}

func (a *App) handleListProjects(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	projects, err := a.reporter.Projects(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, projects)
}

func (a *App) handleCreateProject(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var p domain.Project
	if err := decode(r, &p); err != nil {
		a.writeError(w, err)
		return
	}
	created, err := a.reporter.CreateProject(r.Context(), id.Role, p)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *App) handleUpdateProfile(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req struct {
		FullName string `json:"full_name"`
	}
	if err := decode(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	if err := a.admin.UpdateProfile(r.Context(), id.UserID, req.FullName); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (a *App) handleChangePassword(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decode(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	if err := a.auth.ChangePassword(r.Context(), id.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (a *App) handleListUsers(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	users, err := a.admin.ListUsers(r.Context(), id.Role)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, users)
}

func (a *App) handleDeleteUser(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := a.admin.DeleteUser(r.Context(), id.UserID, id.Role, r.PathValue("id")); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (a *App) handleChangeRole(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decode(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	if err := a.admin.ChangeRole(r.Context(), id.UserID, id.Role, r.PathValue("id"), domain.Role(req.Role)); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (a *App) handleResetPassword(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req struct {
		NewPassword string `json:"new_password"`
	}
	if err := decode(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	if err := a.admin.ResetPassword(r.Context(), id.UserID, id.Role, r.PathValue("id"), req.NewPassword); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]bool{"reset": true})
}

func (a *App) handleTimeReport(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	rows, err := a.reporter.TimeReport(r.Context(), id.Role)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, rows)
}
