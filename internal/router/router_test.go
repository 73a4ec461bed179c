package router

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskflow/api/handler"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/infrastructure/monitor"
	"github.com/fastygo/taskflow/internal/middleware"
	"github.com/fastygo/taskflow/pkg/metrics"
	"github.com/fastygo/taskflow/repository/memory"
	authUC "github.com/fastygo/taskflow/usecase/auth"
	memberUC "github.com/fastygo/taskflow/usecase/member"
	taskUC "github.com/fastygo/taskflow/usecase/task"
)

type testServer struct {
	handler fasthttp.RequestHandler
	metrics *metrics.Metrics
}

const testSecret = "router-test-secret"

func newTestServer(t *testing.T, openLogin bool) *testServer {
	t.Helper()
	tasks := taskUC.New(memory.NewTaskRepository(), memory.NewStatsRepository(), nil, taskUC.Options{})
	auth := authUC.New(memory.NewUserRepository(), memory.NewSessionRepository(time.Hour), true, nil)
	members := memberUC.New(memory.NewMemberDirectory(domain.Member{ID: "1", Name: "John Doe"}), nil)
	m := metrics.New()

	r := New(Handlers{
		Auth:    apiHandler.NewAuthHandler(auth, nil, nil, time.Hour, openLogin),
		Task:    apiHandler.NewTaskHandler(tasks, nil, nil),
		Stats:   apiHandler.NewStatsHandler(tasks, nil, nil),
		Members: apiHandler.NewMemberHandler(members, nil, nil),
		Health:  apiHandler.NewHealthHandler(monitor.New(monitor.Deps{Storage: "memory"}, 0, nil), nil, nil),
	}, Middleware{
		Auth:  middleware.Auth(middleware.AuthConfig{Secret: testSecret, Sessions: auth}, nil),
		Login: middleware.Optional(middleware.AuthConfig{Secret: testSecret}, nil),
	}, m)

	return &testServer{handler: r.Handler, metrics: m}
}

func (s *testServer) do(t *testing.T, method, uri, session, body string) (int, json.RawMessage) {
	t.Helper()
	return s.doWith(t, method, uri, map[string]string{"X-Session-ID": session}, body)
}

func (s *testServer) doWith(t *testing.T, method, uri string, headers map[string]string, body string) (int, json.RawMessage) {
	t.Helper()
	var rc fasthttp.RequestCtx
	rc.Request.Header.SetMethod(method)
	rc.Request.SetRequestURI(uri)
	for k, v := range headers {
		if v != "" {
			rc.Request.Header.Set(k, v)
		}
	}
	if body != "" {
		rc.Request.SetBodyString(body)
	}
	s.handler(&rc)

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if len(rc.Response.Body()) > 0 {
		_ = json.Unmarshal(rc.Response.Body(), &env)
	}
	return rc.Response.StatusCode(), env.Data
}

func TestRouter_TaskLifecycle(t *testing.T) {
	s := newTestServer(t, true)

	status, _ := s.do(t, http.MethodGet, "/api/v1/tasks", "", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", status)
	}

	status, data := s.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"user_id":"alice"}`)
	if status != http.StatusCreated {
		t.Fatalf("login status %d", status)
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	status, data = s.do(t, http.MethodPost, "/api/v1/tasks", session.ID, `{"title":"Ship release","priority":"high","estimated_time":2}`)
	if status != http.StatusCreated {
		t.Fatalf("create status %d", status)
	}
	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}

	status, _ = s.do(t, http.MethodPatch, "/api/v1/tasks/"+task.ID, session.ID, `{"actual_time":3,"completed":true}`)
	if status != http.StatusOK {
		t.Fatalf("patch status %d", status)
	}

	status, data = s.do(t, http.MethodGet, "/api/v1/stats", session.ID, "")
	if status != http.StatusOK {
		t.Fatalf("stats status %d", status)
	}
	var stats domain.UserStats
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalTasks != 1 || stats.CompletedTasks != 1 || stats.CompletionRate != 100 || stats.AvgCompletionTime != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}

	status, _ = s.do(t, http.MethodPut, "/api/v1/tasks/"+task.ID+"/assignee", session.ID, `{"member_id":"1"}`)
	if status != http.StatusOK {
		t.Fatalf("assign status %d", status)
	}
	status, _ = s.do(t, http.MethodDelete, "/api/v1/tasks/"+task.ID, session.ID, "")
	if status != http.StatusNoContent {
		t.Fatalf("delete status %d", status)
	}

	status, data = s.do(t, http.MethodPost, "/api/v1/stats/refresh", session.ID, "")
	if status != http.StatusOK {
		t.Fatalf("refresh status %d", status)
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalTasks != 0 || stats.CompletionRate != 0 {
		t.Errorf("expected empty stats after delete, got %+v", stats)
	}

	gathered, err := s.metrics.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if gathered["taskflow_http_requests_total"] < 8 {
		t.Errorf("expected requests to be counted, got %v", gathered["taskflow_http_requests_total"])
	}
}

func TestRouter_HealthAndMembers(t *testing.T) {
	s := newTestServer(t, true)

	if status, _ := s.do(t, http.MethodGet, "/health", "", ""); status != http.StatusOK {
		t.Fatalf("health status %d", status)
	}

	_, data := s.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"user_id":"bob"}`)
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	status, data := s.do(t, http.MethodGet, "/api/v1/members", session.ID, "")
	if status != http.StatusOK {
		t.Fatalf("members status %d", status)
	}
	var members []domain.Member
	if err := json.Unmarshal(data, &members); err != nil || len(members) != 1 {
		t.Fatalf("unexpected members %s (%v)", data, err)
	}
	if status, _ := s.do(t, http.MethodGet, "/api/v1/members/42", session.ID, ""); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown member, got %d", status)
	}
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func TestRouter_LoginRequiresMatchingToken(t *testing.T) {
	s := newTestServer(t, false)

	status, data := s.doWith(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"Authorization": bearer(t, "alice")}, `{"user_id":"alice"}`)
	if status != http.StatusCreated {
		t.Fatalf("login with own token: status %d", status)
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if status, _ := s.do(t, http.MethodPost, "/api/v1/tasks", session.ID, `{"title":"alice private"}`); status != http.StatusCreated {
		t.Fatalf("create status %d", status)
	}

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{name: "no credentials", want: http.StatusUnauthorized},
		{name: "token for another user", headers: map[string]string{"Authorization": bearer(t, "mallory")}, want: http.StatusUnauthorized},
		{name: "forged token", headers: map[string]string{"Authorization": "Bearer not-a-jwt"}, want: http.StatusUnauthorized},
		{name: "session cannot mint sessions", headers: map[string]string{"X-Session-ID": session.ID}, want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := s.doWith(t, http.MethodPost, "/api/v1/auth/login", tt.headers, `{"user_id":"alice"}`)
			if status != tt.want {
				t.Fatalf("status = %d, want %d (data %s)", status, tt.want, data)
			}
		})
	}
}

func TestRouter_Logout(t *testing.T) {
	s := newTestServer(t, true)

	_, data := s.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"user_id":"alice"}`)
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	if status, _ := s.do(t, http.MethodPost, "/api/v1/auth/logout", session.ID, ""); status != http.StatusNoContent {
		t.Fatalf("logout status %d", status)
	}
	if status, _ := s.do(t, http.MethodGet, "/api/v1/tasks", session.ID, ""); status != http.StatusUnauthorized {
		t.Errorf("expected revoked session to be refused, got %d", status)
	}
}
