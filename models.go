package taskflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TaskStatus is a task's workflow state
type TaskStatus = string

const (
	// StatusTodo is the initial state of a task
	StatusTodo TaskStatus = "todo"
	// StatusInProgress marks a task somebody is working on
	StatusInProgress TaskStatus = "in_progress"
	// StatusReview marks a task waiting on review
	StatusReview TaskStatus = "review"
	// StatusDone is the terminal state
	StatusDone TaskStatus = "done"
)

// TaskPriority is a task's urgency level
type TaskPriority = string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// ParseTaskStatus validates a status value
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return s, true
	}
	return "", false
}

// ParseTaskPriority validates a priority value
func ParseTaskPriority(s string) (TaskPriority, bool) {
	switch s {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return s, true
	}
	return "", false
}

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	FullName       string     `bun:"full_name" json:"full_name,omitempty"`
	Active         bool       `bun:"is_active" json:"is_active"`
	Superuser      bool       `bun:"is_superuser" json:"is_superuser,omitempty"`
	LoginAttempts  int        `bun:"login_attempts,nullzero,default:0" json:"-"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at,nullzero" json:"-"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Task is the work item model. OwnerID is fixed at creation time to the
// authenticated caller; AssigneeID is optional and must reference an
// existing user when set.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:tsk"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string       `bun:"title,notnull" json:"title,omitempty"`
	Description   string       `bun:"description" json:"description,omitempty"`
	Status        TaskStatus   `bun:"status,notnull" json:"status,omitempty"`
	Priority      TaskPriority `bun:"priority,notnull" json:"priority,omitempty"`
	DueDate       *time.Time   `bun:"due_date,nullzero" json:"due_date,omitempty"`
	OwnerID       uuid.UUID    `bun:"owner_id,notnull,type:uuid" json:"owner_id,omitempty"`
	AssigneeID    *uuid.UUID   `bun:"assignee_id,nullzero,type:uuid" json:"assignee_id,omitempty"`
	Owner         *User        `bun:"rel:belongs-to,join:owner_id=id" json:"owner,omitempty"`
	Assignee      *User        `bun:"rel:belongs-to,join:assignee_id=id" json:"assignee,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureDefaults fills the enumerated fields for new records
func (t *Task) EnsureDefaults() *Task {
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return t
}
