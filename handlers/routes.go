package handlers

import (
	"net/http"
	"projectcamp/auth"
	"projectcamp/models"
	"projectcamp/services"
	"projectcamp/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the router needs. Registry receives the HTTP metrics
// and is served on /metrics.
type Deps struct {
	Auth     *services.AuthService
	Projects *services.ProjectService
	Tasks    *services.TaskService
	Store    store.Store
	Sessions pinger
	Tokens   *auth.TokenIssuer
	Registry *prometheus.Registry

	CORSOrigins   []string
	AuthRateLimit int
	SecureCookies bool
	TrustProxy    bool
}

func with(base []step, extra ...step) []step {
	steps := make([]step, 0, len(base)+len(extra))
	steps = append(steps, base...)
	return append(steps, extra...)
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	m := newMetrics(d.Registry)
	base := []step{requestLog, m.step}
	limited := with(base, newIPRateLimiter(d.AuthRateLimit, d.TrustProxy).step)
	guarded := with(base, newGuard(d.Tokens, d.Store).require)

	handle := func(pattern string, steps []step, fn http.HandlerFunc) {
		mux.Handle(pattern, chain(fn, steps...))
	}

	opts := sessionOptions{tokens: d.Tokens, secure: d.SecureCookies, trustProxy: d.TrustProxy}

	handle("GET /api/v1/healthcheck", base, func(w http.ResponseWriter, r *http.Request) {
		HealthCheck(w, r, map[string]pinger{"database": d.Store, "sessions": d.Sessions})
	})

	for _, prefix := range []string{"/api/v1/auth", "/api/v1/users"} {
		handle("POST "+prefix+"/register", limited, func(w http.ResponseWriter, r *http.Request) {
			RegisterUser(w, r, d.Auth)
		})
		handle("POST "+prefix+"/login", limited, func(w http.ResponseWriter, r *http.Request) {
			Login(w, r, d.Auth, opts)
		})
		handle("GET "+prefix+"/verify-email/{verificationToken}", limited, func(w http.ResponseWriter, r *http.Request) {
			VerifyEmail(w, r, d.Auth)
		})
		handle("POST "+prefix+"/refresh-token", limited, func(w http.ResponseWriter, r *http.Request) {
			RefreshToken(w, r, d.Auth, opts)
		})
		handle("POST "+prefix+"/forgot-password", limited, func(w http.ResponseWriter, r *http.Request) {
			ForgotPassword(w, r, d.Auth)
		})
		handle("POST "+prefix+"/reset-password/{resetToken}", limited, func(w http.ResponseWriter, r *http.Request) {
			ResetPassword(w, r, d.Auth)
		})
		handle("POST "+prefix+"/logout", guarded, func(w http.ResponseWriter, r *http.Request) {
			Logout(w, r, d.Auth, opts)
		})
		handle("GET "+prefix+"/current-user", guarded, func(w http.ResponseWriter, r *http.Request) {
			CurrentUser(w, r, d.Auth)
		})
		handle("POST "+prefix+"/change-password", guarded, func(w http.ResponseWriter, r *http.Request) {
			ChangePassword(w, r, d.Auth)
		})
		handle("POST "+prefix+"/resend-email-verification", guarded, func(w http.ResponseWriter, r *http.Request) {
			ResendEmailVerification(w, r, d.Auth)
		})
	}

	// Projects
	handle("POST /api/v1/projects", guarded, func(w http.ResponseWriter, r *http.Request) {
		CreateProject(w, r, d.Projects)
	})
	handle("GET /api/v1/projects", guarded, func(w http.ResponseWriter, r *http.Request) {
		ListProjects(w, r, d.Projects)
	})
	handle("GET /api/v1/projects/{projectId}", guarded, func(w http.ResponseWriter, r *http.Request) {
		GetProject(w, r, d.Projects)
	})
	handle("PATCH /api/v1/projects/{projectId}", guarded, func(w http.ResponseWriter, r *http.Request) {
		UpdateProject(w, r, d.Projects)
	})
	handle("DELETE /api/v1/projects/{projectId}", guarded, func(w http.ResponseWriter, r *http.Request) {
		DeleteProject(w, r, d.Projects)
	})
	handle("POST /api/v1/projects/{projectId}/add-member", guarded, func(w http.ResponseWriter, r *http.Request) {
		AddMember(w, r, d.Projects)
	})
	handle("PATCH /api/v1/projects/{projectId}/notes", guarded, func(w http.ResponseWriter, r *http.Request) {
		UpdateNotes(w, r, d.Projects)
	})

	// Tasks
	handle("POST /api/v1/tasks", guarded, func(w http.ResponseWriter, r *http.Request) {
		CreateTask(w, r, d.Tasks)
	})
	handle("PATCH /api/v1/tasks/{taskId}", guarded, func(w http.ResponseWriter, r *http.Request) {
		UpdateTaskStatus(w, r, d.Tasks)
	})
	handle("DELETE /api/v1/tasks/{taskId}", guarded, func(w http.ResponseWriter, r *http.Request) {
		DeleteTask(w, r, d.Tasks)
	})
	handle("POST /api/v1/tasks/{taskId}/subtask", guarded, func(w http.ResponseWriter, r *http.Request) {
		AddSubtask(w, r, d.Tasks)
	})
	handle("PATCH /api/v1/tasks/{taskId}/subtask/{subtaskId}", guarded, func(w http.ResponseWriter, r *http.Request) {
		ToggleSubtask(w, r, d.Tasks)
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry}))

	handle("/", base, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, models.NotFound("Route not found"))
	})

	return cors(d.CORSOrigins)(mux)
}
