package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskflow/api/handler"
	"github.com/fastygo/taskflow/pkg/metrics"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Task    *apiHandler.TaskHandler
	Stats   *apiHandler.StatsHandler
	Members *apiHandler.MemberHandler
	Health  *apiHandler.HealthHandler
}

// Middleware authenticates requests. Auth guards the API; Login, which may
// be nil, records an optional caller on the login route.
type Middleware struct {
	Auth  func(fasthttp.RequestHandler) fasthttp.RequestHandler
	Login func(fasthttp.RequestHandler) fasthttp.RequestHandler
}

// New registers every route. Routes under /api/v1 other than login and
// refresh require an authenticated caller; all routes are instrumented under
// their pattern.
func New(handlers Handlers, mw Middleware, m *metrics.Metrics) *router.Router {
	r := router.New()
	authMiddleware := mw.Auth
	loginMiddleware := mw.Login
	if loginMiddleware == nil {
		loginMiddleware = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}

	open := func(method, path string, h fasthttp.RequestHandler) {
		r.Handle(method, path, m.Instrument(path, h))
	}
	protected := func(method, path string, h fasthttp.RequestHandler) {
		r.Handle(method, path, m.Instrument(path, authMiddleware(h)))
	}

	open(fasthttp.MethodGet, "/health", handlers.Health.Check)
	if m != nil {
		r.GET("/metrics", m.Handler())
	}

	// Auth routes
	open(fasthttp.MethodPost, "/api/v1/auth/login", loginMiddleware(handlers.Auth.Login))
	open(fasthttp.MethodPost, "/api/v1/auth/refresh", handlers.Auth.Refresh)
	protected(fasthttp.MethodPost, "/api/v1/auth/logout", handlers.Auth.Logout)

	protected(fasthttp.MethodGet, "/api/v1/tasks", handlers.Task.GetTasks)
	protected(fasthttp.MethodPost, "/api/v1/tasks", handlers.Task.CreateTask)
	protected(fasthttp.MethodGet, "/api/v1/tasks/{id}", handlers.Task.GetTask)
	protected(fasthttp.MethodPatch, "/api/v1/tasks/{id}", handlers.Task.UpdateTask)
	protected(fasthttp.MethodDelete, "/api/v1/tasks/{id}", handlers.Task.DeleteTask)
	protected(fasthttp.MethodPost, "/api/v1/tasks/{id}/toggle", handlers.Task.ToggleTask)
	protected(fasthttp.MethodPut, "/api/v1/tasks/{id}/assignee", handlers.Task.AssignTask)
	protected(fasthttp.MethodPost, "/api/v1/tasks/{id}/collaborators", handlers.Task.AddCollaborator)
	protected(fasthttp.MethodPost, "/api/v1/tasks/{id}/comments", handlers.Task.AddComment)
	protected(fasthttp.MethodGet, "/api/v1/categories", handlers.Task.GetCategories)

	protected(fasthttp.MethodGet, "/api/v1/stats", handlers.Stats.GetStats)
	protected(fasthttp.MethodPost, "/api/v1/stats/refresh", handlers.Stats.RefreshStats)
	protected(fasthttp.MethodGet, "/api/v1/insights", handlers.Stats.GetInsights)
	protected(fasthttp.MethodPost, "/api/v1/insights/predict", handlers.Stats.Predict)

	protected(fasthttp.MethodGet, "/api/v1/members", handlers.Members.ListMembers)
	protected(fasthttp.MethodGet, "/api/v1/members/{id}", handlers.Members.GetMember)

	return r
}
