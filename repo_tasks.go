package taskflow

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TaskFilter narrows and pages task listings
type TaskFilter struct {
	Status   TaskStatus
	Priority TaskPriority
	Page     int
	PerPage  int
}

// DefaultPerPage is the page size used when the caller does not set one
const DefaultPerPage = 20

// MaxPerPage caps the page size a caller may request
const MaxPerPage = 100

// EnsureDefaults normalizes the paging window
func (f *TaskFilter) EnsureDefaults() *TaskFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	return f
}

type Tasks interface {
	repository.Repository[*Task]

	ListFiltered(ctx context.Context, filter *TaskFilter) ([]*Task, int, error)
	ListFilteredTx(ctx context.Context, tx bun.IDB, filter *TaskFilter) ([]*Task, int, error)

	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type tasks struct {
	repository.Repository[*Task]
	db *bun.DB
}

var (
	_ Tasks                        = (*tasks)(nil)
	_ repository.Repository[*Task] = (*tasks)(nil)
)

func NewTasksRepository(db *bun.DB) Tasks {
	repo := repository.NewRepository[*Task](db, repository.ModelHandlers[*Task]{
		NewRecord: func() *Task { return &Task{} },
		GetID: func(t *Task) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Task, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
	})

	return &tasks{
		Repository: repo,
		db:         db,
	}
}

func (a *tasks) ListFiltered(ctx context.Context, filter *TaskFilter) ([]*Task, int, error) {
	return a.ListFilteredTx(ctx, a.db, filter)
}

// ListFilteredTx pages through tasks ordered newest first. The returned count
// is the total number of rows matching the filter, not the page length.
func (a *tasks) ListFilteredTx(ctx context.Context, tx bun.IDB, filter *TaskFilter) ([]*Task, int, error) {
	if filter == nil {
		filter = &TaskFilter{}
	}
	filter.EnsureDefaults()

	records := []*Task{}

	q := tx.NewSelect().Model(&records)

	if filter.Status != "" {
		q.Where("?TableAlias.status = ?", filter.Status)
	}

	if filter.Priority != "" {
		q.Where("?TableAlias.priority = ?", filter.Priority)
	}

	total, err := q.
		Order("tsk.created_at DESC").
		Limit(filter.PerPage).
		Offset((filter.Page - 1) * filter.PerPage).
		ScanAndCount(ctx)

	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (a *tasks) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return a.DeleteByIDTx(ctx, a.db, id)
}

func (a *tasks) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewDelete().
		Model((*Task)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}
