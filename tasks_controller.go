package taskflow

import (
	"context"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TaskListResponse is the paged listing envelope
type TaskListResponse struct {
	Items   []*Task `json:"items"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
}

// TasksController exposes task CRUD as a JSON API. All routes require an
// authenticated caller; new tasks are always owned by that caller.
type TasksController struct {
	Logger Logger
	Repo   RepositoryManager
}

type TasksControllerOption func(*TasksController) *TasksController

func WithTasksLogger(logger Logger) TasksControllerOption {
	return func(c *TasksController) *TasksController {
		c.Logger = logger
		return c
	}
}

func WithTasksRepo(repo RepositoryManager) TasksControllerOption {
	return func(c *TasksController) *TasksController {
		c.Repo = repo
		return c
	}
}

func NewTasksController(opts ...TasksControllerOption) *TasksController {
	c := &TasksController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in tasks controller...")
	}

	return c
}

// RegisterRoutes mounts the task endpoints
func (t *TasksController) RegisterRoutes(group RouteRegistrar, protected ...router.MiddlewareFunc) {
	group.Get("", t.List, protected...)
	group.Post("", t.Create, protected...)
	group.Get("/:id", t.Show, protected...)
	group.Put("/:id", t.Update, protected...)
	group.Delete("/:id", t.Delete, protected...)
}

func (t *TasksController) List(ctx router.Context) error {
	filter, err := taskFilterFromQuery(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	items, total, err := t.Repo.Tasks().ListFiltered(ctx.Context(), filter)
	if err != nil {
		t.Logger.Error("task list error: %v", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, TaskListResponse{
		Items:   items,
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
	})
}

// TaskCreatePayload is the creation body. Owner is never part of the payload,
// it is bound to the authenticated caller.
type TaskCreatePayload struct {
	Title       string     `form:"title" json:"title"`
	Description string     `form:"description" json:"description"`
	Status      string     `form:"status" json:"status"`
	Priority    string     `form:"priority" json:"priority"`
	DueDate     *time.Time `form:"due_date" json:"due_date"`
	AssigneeID  *string    `form:"assignee_id" json:"assignee_id"`
}

// Validate will validate the payload
func (r TaskCreatePayload) Validate() error {
	if err := errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
			validation.Field(&r.Status, validation.In(StatusTodo, StatusInProgress, StatusReview, StatusDone)),
			validation.Field(&r.Priority, validation.In(PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent)),
		)
	}, "invalid task payload"); err != nil {
		return err
	}
	return nil
}

func (t *TasksController) Create(ctx router.Context) error {
	owner, err := CurrentUser(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(TaskCreatePayload)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse task payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, err)
	}

	assigneeID, err := parseAssigneeID(payload.AssigneeID)
	if err != nil {
		return WriteError(ctx, err)
	}

	record := &Task{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      payload.Status,
		Priority:    payload.Priority,
		DueDate:     payload.DueDate,
		AssigneeID:  assigneeID,
		OwnerID:     owner.ID,
	}
	record.EnsureDefaults()

	err = t.Repo.RunInTx(ctx.Context(), nil, func(txCtx context.Context, tx bun.Tx) error {
		if record.AssigneeID != nil {
			if err := t.ensureAssigneeExists(txCtx, tx, *record.AssigneeID); err != nil {
				return err
			}
		}

		created, err := t.Repo.Tasks().CreateTx(txCtx, tx, record)
		if err != nil {
			return err
		}

		record = created
		return nil
	})

	if err != nil {
		t.Logger.Error("task create error: %v", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, record)
}

func (t *TasksController) Show(ctx router.Context) error {
	id, err := taskIDFromPath(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	record, err := t.Repo.Tasks().GetByID(ctx.Context(), id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return WriteError(ctx, ErrTaskNotFound)
		}
		t.Logger.Error("task get error: %v", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

// TaskUpdatePayload carries a partial update. Nil fields are left untouched
// on the stored record.
type TaskUpdatePayload struct {
	Title       *string    `form:"title" json:"title"`
	Description *string    `form:"description" json:"description"`
	Status      *string    `form:"status" json:"status"`
	Priority    *string    `form:"priority" json:"priority"`
	DueDate     *time.Time `form:"due_date" json:"due_date"`
	AssigneeID  *string    `form:"assignee_id" json:"assignee_id"`
}

// Validate will validate the fields that are present
func (r TaskUpdatePayload) Validate() error {
	if err := errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
			validation.Field(&r.Status, validation.In(StatusTodo, StatusInProgress, StatusReview, StatusDone)),
			validation.Field(&r.Priority, validation.In(PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent)),
		)
	}, "invalid task payload"); err != nil {
		return err
	}
	return nil
}

func (t *TasksController) Update(ctx router.Context) error {
	id, err := taskIDFromPath(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(TaskUpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse task payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, err)
	}

	assigneeID, err := parseAssigneeID(payload.AssigneeID)
	if err != nil {
		return WriteError(ctx, err)
	}

	var record *Task

	// read-modify-write inside one transaction so concurrent updates cannot
	// interleave between the fetch and the persist
	err = t.Repo.RunInTx(ctx.Context(), nil, func(txCtx context.Context, tx bun.Tx) error {
		current, err := t.Repo.Tasks().GetByIDTx(txCtx, tx, id.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrTaskNotFound
			}
			return err
		}

		if payload.Title != nil {
			current.Title = *payload.Title
		}
		if payload.Description != nil {
			current.Description = *payload.Description
		}
		if payload.Status != nil {
			current.Status = *payload.Status
		}
		if payload.Priority != nil {
			current.Priority = *payload.Priority
		}
		if payload.DueDate != nil {
			current.DueDate = payload.DueDate
		}
		if assigneeID != nil {
			if err := t.ensureAssigneeExists(txCtx, tx, *assigneeID); err != nil {
				return err
			}
			current.AssigneeID = assigneeID
		}

		now := time.Now()
		current.UpdatedAt = &now

		updated, err := t.Repo.Tasks().UpdateTx(txCtx, tx, current, repository.UpdateByID(current.ID.String()))
		if err != nil {
			return err
		}

		record = updated
		return nil
	})

	if err != nil {
		t.Logger.Error("task update error: %v", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (t *TasksController) Delete(ctx router.Context) error {
	id, err := taskIDFromPath(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	if err := t.Repo.Tasks().DeleteByID(ctx.Context(), id); err != nil {
		if repository.IsRecordNotFound(err) {
			return WriteError(ctx, ErrTaskNotFound)
		}
		t.Logger.Error("task delete error: %v", err)
		return WriteError(ctx, err)
	}

	return ctx.Status(router.StatusNoContent).SendString("")
}

func (t *TasksController) ensureAssigneeExists(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if _, err := t.Repo.Users().GetByIdentifierTx(ctx, tx, id.String()); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrAssigneeNotFound
		}
		return err
	}
	return nil
}

func taskIDFromPath(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("task id must be a valid uuid", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"id": raw})
	}
	return id, nil
}

func taskFilterFromQuery(ctx router.Context) (*TaskFilter, error) {
	filter := &TaskFilter{
		Page:    1,
		PerPage: DefaultPerPage,
	}

	if raw := ctx.Query("status", ""); raw != "" {
		status, ok := ParseTaskStatus(raw)
		if !ok {
			return nil, errors.New("unknown task status", errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest).
				WithMetadata(map[string]any{"status": raw})
		}
		filter.Status = status
	}

	if raw := ctx.Query("priority", ""); raw != "" {
		priority, ok := ParseTaskPriority(raw)
		if !ok {
			return nil, errors.New("unknown task priority", errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest).
				WithMetadata(map[string]any{"priority": raw})
		}
		filter.Priority = priority
	}

	var err error
	if filter.Page, err = positiveQueryInt(ctx, "page", 1); err != nil {
		return nil, err
	}

	if filter.PerPage, err = positiveQueryInt(ctx, "per_page", DefaultPerPage); err != nil {
		return nil, err
	}

	if filter.PerPage > MaxPerPage {
		return nil, errors.New("per_page is above the allowed maximum", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"per_page": filter.PerPage, "max": MaxPerPage})
	}

	return filter, nil
}

func positiveQueryInt(ctx router.Context, name string, def int) (int, error) {
	raw := ctx.Query(name, "")
	if raw == "" {
		return def, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil || val < 1 {
		return 0, errors.New(name+" must be a positive integer", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{name: raw})
	}

	return val, nil
}

func parseAssigneeID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}

	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, errors.New("assignee_id must be a valid uuid", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"assignee_id": *raw})
	}

	return &id, nil
}
