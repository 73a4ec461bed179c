package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	authUC "github.com/fastygo/taskflow/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc         *authUC.UseCase
	defaultTTL time.Duration
	openLogin  bool
}

// NewAuthHandler builds the session endpoints. Unless openLogin is set, a
// login must carry a bearer token for the same user it asks a session for.
func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger, ttl time.Duration, openLogin bool) *AuthHandler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		defaultTTL:  ttl,
		openLogin:   openLogin,
	}
}

// @Summary Issue a new session
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.AuthLoginRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if !h.openLogin {
		caller, ok := httpcontext.UserID(ctx)
		if !ok {
			h.respondError(ctx, stdCtx, domain.ErrNotAuthenticated)
			return
		}
		if caller != strings.TrimSpace(req.UserID) {
			h.logger.Warn("login for another user refused", zap.String("caller", caller))
			h.respondError(ctx, stdCtx, domain.ErrUnauthorized)
			return
		}
	}

	session, err := h.uc.CreateSession(stdCtx, req.UserID, req.Email, h.ttlFromRequest(req.TTL))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, session)
}

// @Summary Refresh an existing session
// @Tags auth
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	var req transport.RefreshRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.RefreshSession(stdCtx, req.SessionID, h.ttlFromRequest(req.TTL))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, session)
}

// @Summary Revoke the session named by X-Session-ID
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	sessionID := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Session-ID")))
	if sessionID == "" {
		h.respondError(ctx, nil, domain.Validation("X-Session-ID header is required"))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	caller, ok := httpcontext.UserID(ctx)
	if !ok {
		h.respondError(ctx, stdCtx, domain.ErrNotAuthenticated)
		return
	}
	if err := h.uc.RevokeSession(stdCtx, caller, sessionID); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondNoContent(ctx)
}

func (h *AuthHandler) ttlFromRequest(ttlSeconds int) time.Duration {
	if ttlSeconds <= 0 {
		return h.defaultTTL
	}
	return time.Duration(ttlSeconds) * time.Second
}
