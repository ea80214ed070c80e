package taskflow

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// UsersController exposes the users resource as a JSON API
type UsersController struct {
	Logger Logger
	Repo   RepositoryManager
}

type UsersControllerOption func(*UsersController) *UsersController

func WithUsersLogger(logger Logger) UsersControllerOption {
	return func(c *UsersController) *UsersController {
		c.Logger = logger
		return c
	}
}

func WithUsersRepo(repo RepositoryManager) UsersControllerOption {
	return func(c *UsersController) *UsersController {
		c.Repo = repo
		return c
	}
}

func NewUsersController(opts ...UsersControllerOption) *UsersController {
	c := &UsersController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in users controller...")
	}

	return c
}

// RegisterRoutes mounts the user endpoints
func (u *UsersController) RegisterRoutes(group RouteRegistrar, protected ...router.MiddlewareFunc) {
	group.Get("", u.List, protected...)
	group.Patch("/me", u.UpdateMe, protected...)
	group.Get("/:id", u.Show, protected...)
}

// List returns every active user
func (u *UsersController) List(ctx router.Context) error {
	records, err := u.Repo.Users().ListActive(ctx.Context())
	if err != nil {
		u.Logger.Error("user list error: %v", err)
		return WriteError(ctx, err)
	}

	items := make([]PublicUser, 0, len(records))
	for _, record := range records {
		items = append(items, NewPublicUser(record))
	}

	return ctx.JSON(router.StatusOK, items)
}

func (u *UsersController) Show(ctx router.Context) error {
	raw := ctx.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return WriteError(ctx, errors.New("user id must be a valid uuid", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"id": raw}))
	}

	record, err := u.Repo.Users().GetByID(ctx.Context(), id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return WriteError(ctx, ErrUserNotFound)
		}
		u.Logger.Error("user get error: %v", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, NewPublicUser(record))
}

// UserUpdatePayload carries profile fields the caller may change on their
// own record
type UserUpdatePayload struct {
	FullName *string `form:"full_name" json:"full_name"`
}

// Validate will validate the payload
func (r UserUpdatePayload) Validate() error {
	if err := errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.FullName, validation.Length(0, 200)),
		)
	}, "invalid user payload"); err != nil {
		return err
	}
	return nil
}

// UpdateMe updates the authenticated caller's profile
func (u *UsersController) UpdateMe(ctx router.Context) error {
	user, err := CurrentUser(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(UserUpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse user payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, err)
	}

	if payload.FullName != nil {
		user.FullName = *payload.FullName
	}

	updated, err := u.Repo.Users().Update(ctx.Context(), user, repository.UpdateByID(user.ID.String()))
	if err != nil {
		u.Logger.Error("user update error: %v", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, NewPublicUser(updated))
}
