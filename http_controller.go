package taskflow

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controllers.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// PublicUser is the outward representation of a user record. The password
// hash never leaves the store layer.
type PublicUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Active   bool   `json:"is_active"`
}

func NewPublicUser(user *User) PublicUser {
	return PublicUser{
		ID:       user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
		Active:   user.Active,
	}
}

// TokenResponse is the login response body
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthController exposes registration, login, and the current identity as a
// JSON API.
type AuthController struct {
	Logger Logger
	Repo   RepositoryManager
	Auther *RouteAuthenticator
}

type AuthControllerOption func(*AuthController) *AuthController

func WithAuthLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithAuthRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthAuther(auther *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	return c
}

// RegisterRoutes mounts the auth endpoints. The me route requires a valid
// bearer token; register and login are public.
func (a *AuthController) RegisterRoutes(group RouteRegistrar, protected ...router.MiddlewareFunc) {
	group.Post("/register", a.RegistrationCreate)
	group.Post("/login", a.LoginPost)
	group.Get("/me", a.Me, protected...)
}

// LoginRequest payload. Username carries the identifier to stay compatible
// with form-encoded clients; either a username or an email works.
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Username
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	if err := errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(
				&r.Username,
				validation.Required,
			),
			validation.Field(
				&r.Password,
				validation.Required,
			),
		)
	}, "invalid login payload"); err != nil {
		return err
	}
	return nil
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse login payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, err)
	}

	token, err := a.Auther.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Info("login rejected for %q: %v", payload.GetIdentifier(), err)
		// every credential failure maps to the same response
		if errors.Is(err, ErrTooManyLoginAttempts) || errors.Is(err, ErrInactiveUser) {
			return WriteError(ctx, err)
		}
		return WriteError(ctx, ErrMismatchedHashAndPassword)
	}

	return ctx.JSON(router.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	Email    string `form:"email" json:"email"`
	Username string `form:"username" json:"username"`
	FullName string `form:"full_name" json:"full_name"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	if err := errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, validation.Length(3, 100), is.Email),
			validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
			validation.Field(&r.FullName, validation.Length(0, 200)),
			validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		)
	}, "invalid registration payload"); err != nil {
		return err
	}
	return nil
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: %v", err)
		return WriteError(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse registration payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: %v", err)
		return WriteError(ctx, err)
	}

	req := RegisterUserMessage{
		FullName: payload.FullName,
		Email:    payload.Email,
		Username: payload.Username,
		Password: payload.Password,
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	user, err := registerUser.Execute(ctx.Context(), req)
	if err != nil {
		a.Logger.Error("register user error: %v", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, NewPublicUser(user))
}

// Me returns the authenticated caller's record
func (a *AuthController) Me(ctx router.Context) error {
	user, err := CurrentUser(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, NewPublicUser(user))
}
