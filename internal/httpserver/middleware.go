package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/records/internal/errs"
	"github.com/Skotchmaster/records/internal/guard"
	"github.com/Skotchmaster/records/internal/logging"
	"github.com/Skotchmaster/records/internal/models"
	"github.com/Skotchmaster/records/internal/tokens"
)

const (
	CtxClaims = "claims"
	CtxActor  = "actor"
)

const maxPeekBody = 1 << 20

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*tokens.Claims, error)
}

// Authenticate attaches the actor of a valid bearer token. Requests without
// one continue anonymously and are turned away by the guard where needed.
func Authenticate(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := tokens.FromAuthorizationHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return next(c)
			}

			ctx := c.Request().Context()
			l := logging.FromContext(ctx)
			claims, err := a.Authenticate(ctx, raw)
			if err != nil {
				if errs.Kind(err) == errs.ErrUnauthenticated {
					l.Info("token_rejected", "error", err)
					return next(c)
				}
				return fail(l, "authenticate_failed", err)
			}

			c.Set(CtxClaims, claims)
			c.Set(CtxActor, &guard.Actor{ID: claims.Subject, Email: claims.Email, Role: claims.Role})
			l = l.With("actor_id", claims.Subject)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
			return next(c)
		}
	}
}

type guardConfig struct {
	roleFromBody bool
}

type GuardOption func(*guardConfig)

// RoleFromBody reads the requested role from the JSON body's "role" field.
// The body is restored for the handler.
func RoleFromBody() GuardOption {
	return func(g *guardConfig) { g.roleFromBody = true }
}

// Guard authorizes op through the pipeline before the handler runs.
func Guard(p *guard.Pipeline, op string, opts ...GuardOption) echo.MiddlewareFunc {
	var cfg guardConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("operation", op)

			req := &guard.Request{Actor: actorOf(c), Params: paramsOf(c)}
			if cfg.roleFromBody {
				r, err := peekRole(c)
				if err != nil {
					l.Warn("guard_failed", "status", http.StatusBadRequest, "error", err)
					return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
				}
				req.RequestedRole = r
			}

			if err := p.Authorize(ctx, op, req); err != nil {
				return fail(l, "guard_denied", err)
			}
			return next(c)
		}
	}
}

func actorOf(c echo.Context) *guard.Actor {
	a, _ := c.Get(CtxActor).(*guard.Actor)
	return a
}

func claimsOf(c echo.Context) *tokens.Claims {
	cl, _ := c.Get(CtxClaims).(*tokens.Claims)
	return cl
}

func paramsOf(c echo.Context) map[string]string {
	names := c.ParamNames()
	values := c.ParamValues()
	out := make(map[string]string, len(names))
	for i, n := range names {
		if i < len(values) {
			out[n] = values[i]
		}
	}
	return out
}

func peekRole(c echo.Context) (*models.Role, error) {
	body := c.Request().Body
	if body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(body, maxPeekBody))
	if err != nil {
		return nil, err
	}
	_ = body.Close()
	c.Request().Body = io.NopCloser(bytes.NewReader(data))

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var v struct {
		Role *models.Role `json:"role"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v.Role, nil
}
