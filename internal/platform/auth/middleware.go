package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hivcare/hivcare/internal/platform/apperr"
)

// Authenticator resolves bearer tokens to live principals.
type Authenticator struct {
	tokens *TokenManager
	store  PrincipalStore
}

func NewAuthenticator(tokens *TokenManager, store PrincipalStore) *Authenticator {
	return &Authenticator{tokens: tokens, store: store}
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

func (a *Authenticator) resolve(ctx context.Context, header string) (*Principal, error) {
	tok, ok := bearerToken(header)
	if !ok {
		return nil, apperr.Unauthenticated("Access token required")
	}

	claims, err := a.tokens.Parse(tok)
	switch {
	case errors.Is(err, ErrTokenExpired):
		return nil, apperr.Unauthenticated("Token expired")
	case err != nil:
		return nil, apperr.Unauthenticated("Invalid token")
	}

	p, err := a.store.FindPrincipal(ctx, claims.StaffID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated("User not found or inactive")
		}
		return nil, apperr.Internal("Authentication error", err)
	}
	if !p.Active {
		return nil, apperr.Unauthenticated("User not found or inactive")
	}
	return p, nil
}

func attach(c echo.Context, p *Principal) {
	c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
	c.Set("staff_id", p.StaffID)
}

// Authenticate rejects requests without a valid token for an active staff
// member. Requests for which skip returns true pass through untouched.
func (a *Authenticator) Authenticate(skip func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}
			p, err := a.resolve(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}
			attach(c, p)
			return next(c)
		}
	}
}

// OptionalAuthenticate attaches a principal when one can be resolved and
// otherwise continues anonymously. It never rejects.
func (a *Authenticator) OptionalAuthenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p, err := a.resolve(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization)); err == nil {
				attach(c, p)
			}
			return next(c)
		}
	}
}
