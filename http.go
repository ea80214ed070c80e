package taskflow

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-taskflow/middleware/jwtware"
)

// ContextKeyUser is the Locals key under which the resolved user record is
// stored for downstream handlers.
const ContextKeyUser = "current_user"

type RouteAuthenticator struct {
	auth             *Auther
	cfg              Config
	users            Users
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther *Auther, cfg Config, users Users) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		users:  users,
		Logger: defLogger{},
	}

	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	a.Logger = logger
	return a
}

// tokenValidatorAdapter narrows the token service down to the validator
// surface jwtware consumes. The claims returned by the service carry the
// subject and user id, which is all the middleware needs.
type tokenValidatorAdapter struct {
	service TokenService
}

var _ jwtware.TokenValidator = tokenValidatorAdapter{}

func (t tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := t.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ProtectedRoute validates the bearer token and stores the decoded claims
// under the configured context key.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler:   errorHandler,
			TokenValidator: tokenValidatorAdapter{service: a.auth.TokenService()},
			AuthScheme:     cfg.GetAuthScheme(),
			ContextKey:     cfg.GetContextKey(),
			TokenLookup:    cfg.GetTokenLookup(),
		})(hf)
	}
}

// WithUser resolves the validated claims back to a live user record. Tokens
// whose subject no longer exists or has been deactivated are rejected, even
// when the signature still verifies.
func (a *RouteAuthenticator) WithUser() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, ok := ctx.Locals(a.cfg.GetContextKey()).(jwtware.AuthClaims)
			if !ok || claims == nil {
				return a.AuthErrorHandler(ctx, ErrUnableToFindSession)
			}

			user, err := a.users.GetByIdentifier(ctx.Context(), claims.UserID())
			if err != nil {
				if repository.IsRecordNotFound(err) {
					return a.AuthErrorHandler(ctx, ErrIdentityNotFound)
				}
				return WriteError(ctx, err)
			}

			if !user.Active {
				return a.AuthErrorHandler(ctx, ErrInactiveUser)
			}

			ctx.Locals(ContextKeyUser, user)

			return hf(ctx)
		}
	}
}

// CurrentUser returns the user record stored by WithUser
func CurrentUser(ctx router.Context) (*User, error) {
	user, ok := ctx.Locals(ContextKeyUser).(*User)
	if !ok || user == nil {
		return nil, ErrUnableToFindSession
	}
	return user, nil
}

// MakeClientRouteAuthErrorHandler normalizes validation failures before they
// reach the JSON error handler. When optional is true the request proceeds
// without an identity instead of failing.
func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else if errors.Is(err, ErrTokenSignature) {
			richErr = ErrTokenSignature
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding: %s", richErr.Message)
			return ctx.Next()
		}

		return a.AuthErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error: %s text_code=%s details=%s",
		richErr.Message,
		richErr.TextCode,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	return WriteError(c, richErr)
}
