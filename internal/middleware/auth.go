package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
)

// SessionResolver maps a session id to its user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (string, error)
}

// AuthConfig selects the accepted credentials. With an empty Secret bearer
// tokens are refused; with a nil Sessions the X-Session-ID header is ignored.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Sessions SessionResolver
	Timeout  time.Duration
}

// Auth authenticates the caller from a JWT bearer token (user_id or sub
// claim) or an X-Session-ID header and records it on the request.
func Auth(cfg AuthConfig, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return authenticator(cfg, true, logger)
}

// Optional records the caller when credentials are present. Requests without
// credentials pass through anonymously; invalid credentials are still refused.
func Optional(cfg AuthConfig, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return authenticator(cfg, false, logger)
}

func authenticator(cfg AuthConfig, required bool, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			userID, err := authenticate(ctx, cfg)
			switch {
			case err == nil:
				httpcontext.SetUserID(ctx, userID)
			case !required && errors.Is(err, errNoCredentials):
			default:
				reject(ctx, err, logger)
				return
			}
			next(ctx)
		}
	}
}

var errNoCredentials = domain.ErrNotAuthenticated

func authenticate(ctx *fasthttp.RequestCtx, cfg AuthConfig) (string, error) {
	if token := extractToken(ctx); token != "" {
		if cfg.Secret == "" {
			return "", fmt.Errorf("bearer tokens are disabled")
		}
		return userFromToken(token, cfg)
	}

	if sessionID := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Session-ID"))); sessionID != "" && cfg.Sessions != nil {
		stdCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		userID, err := cfg.Sessions.ResolveSession(stdCtx, sessionID)
		if errors.Is(err, errNoCredentials) {
			// An unknown session is a bad credential, not a missing one.
			return "", domain.ErrUnauthorized
		}
		return userID, err
	}

	return "", errNoCredentials
}

func userFromToken(tokenString string, cfg AuthConfig) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid jwt token: %w", err)
	}
	if cfg.Issuer != "" && !claims.VerifyIssuer(cfg.Issuer, true) {
		return "", fmt.Errorf("unexpected issuer")
	}

	userID, _ := claims["user_id"].(string)
	if strings.TrimSpace(userID) == "" {
		userID, _ = claims["sub"].(string)
	}
	if strings.TrimSpace(userID) == "" {
		return "", domain.ErrUnauthorized
	}
	return userID, nil
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(header)
}

// reject answers 503 when the session store could not be reached, so clients
// retry instead of logging in again, and 401 otherwise.
func reject(ctx *fasthttp.RequestCtx, err error, logger *zap.Logger) {
	status := fasthttp.StatusUnauthorized
	envelope := transport.NewError(string(domain.ErrCodeUnauthorized), domain.ErrNotAuthenticated.Message, nil)
	if domain.IsDomainError(err, domain.ErrCodeUnavailable) {
		status = fasthttp.StatusServiceUnavailable
		message := "session store unavailable"
		if dErr, ok := domain.AsError(err); ok && dErr.Message != "" {
			message = dErr.Message
		}
		envelope = transport.NewError(string(domain.ErrCodeUnavailable), message, nil)
		logger.Error("authentication backend unavailable", zap.ByteString("path", ctx.Path()), zap.Error(err))
	} else {
		logger.Debug("request not authenticated", zap.ByteString("path", ctx.Path()), zap.Error(err))
	}

	body, _ := json.Marshal(envelope)
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
