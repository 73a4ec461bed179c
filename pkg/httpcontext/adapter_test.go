package httpcontext

import (
	"testing"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskflow/pkg/identity"
	appLogger "github.com/fastygo/taskflow/pkg/logger"
)

func TestAttach_CarriesRequestIDAndUser(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set("X-Request-ID", "req-1")
	SetUserID(&rc, " alice ")

	ctx, cancel := NewAdapter(0).Attach(&rc)
	defer cancel()

	if got := appLogger.RequestID(ctx); got != "req-1" {
		t.Errorf("request id = %q", got)
	}
	if got := string(rc.Response.Header.Peek("X-Request-ID")); got != "req-1" {
		t.Errorf("response request id = %q", got)
	}
	if userID, ok := identity.UserID(ctx); !ok || userID != "alice" {
		t.Errorf("identity = %q, %v", userID, ok)
	}
}

func TestAttach_IgnoresUserHeader(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set("X-User-ID", "mallory")

	ctx, cancel := NewAdapter(0).Attach(&rc)
	defer cancel()

	if _, ok := identity.UserID(ctx); ok {
		t.Error("a client supplied header must not become the caller identity")
	}
	if appLogger.RequestID(ctx) == "" {
		t.Error("expected a generated request id")
	}
}
