package ports

import (
	"context"
	"time"

	"github.com/doable/api/internal/core/domain"
	"github.com/google/uuid"
)

// FilterAll is the sentinel meaning "no filter on this field". It is
// excluded from the query predicate entirely, never matched literally.
const FilterAll = "ALL"

type CreateTodoInput struct {
	Title       string
	Description string
	Priority    domain.Priority
	Status      domain.TodoStatus
	DueDate     time.Time
}

// UpdateTodoInput carries partial updates. Nil means "field omitted,
// leave untouched", which is distinct from a set-to-zero value.
type UpdateTodoInput struct {
	Title       *string
	Description *string
	Priority    *domain.Priority
	Status      *domain.TodoStatus
	Completed   *bool
	Pinned      *bool
	DueDate     *time.Time
}

type TodoFilter struct {
	Search    string
	Priority  string // LOW|MEDIUM|HIGH, empty or ALL for no filter
	Completed string // true|false, empty or ALL for no filter
	Status    string // TODO|IN_PROGRESS|DONE, empty or ALL for no filter
	SortBy    string // date|priority|title
	SortOrder string // asc|desc
	Page      int
	Limit     int
}

type TodoCounts struct {
	All       int `json:"all"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

type TodoPage struct {
	Todos      []*domain.Todo `json:"todos"`
	Total      int            `json:"total"`
	Filtered   int            `json:"filtered"`
	Counts     TodoCounts     `json:"counts"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

type TodoRepository interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateTodoInput) (*domain.Todo, error)
	// List applies the full filter set and returns the page rows together
	// with the three-tier counts: Total/Counts over the base predicate
	// (user + search + priority), Filtered over the full predicate.
	List(ctx context.Context, userID uuid.UUID, filter TodoFilter) (*TodoPage, error)
	Counts(ctx context.Context, userID uuid.UUID) (*TodoCounts, error)
	// GetByID filters by (id, userID) and returns domain.ErrTodoNotFound
	// both for missing ids and ids owned by another user.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Todo, error)
	Update(ctx context.Context, userID, id uuid.UUID, input UpdateTodoInput) (*domain.Todo, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// ToggleComplete and TogglePin negate the flag in a single conditional
	// statement, so concurrent toggles cannot lose updates.
	ToggleComplete(ctx context.Context, userID, id uuid.UUID) (*domain.Todo, error)
	TogglePin(ctx context.Context, userID, id uuid.UUID) (*domain.Todo, error)
	UpdateStatus(ctx context.Context, userID, id uuid.UUID, status domain.TodoStatus) (*domain.Todo, error)
}

type TodoService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateTodoInput) (*domain.Todo, error)
	List(ctx context.Context, userID uuid.UUID, filter TodoFilter) (*TodoPage, error)
	Counts(ctx context.Context, userID uuid.UUID) (*TodoCounts, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Todo, error)
	Update(ctx context.Context, userID, id uuid.UUID, input UpdateTodoInput) (*domain.Todo, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ToggleComplete(ctx context.Context, userID, id uuid.UUID) (*domain.Todo, error)
	TogglePin(ctx context.Context, userID, id uuid.UUID) (*domain.Todo, error)
	UpdateStatus(ctx context.Context, userID, id uuid.UUID, status domain.TodoStatus) (*domain.Todo, error)
}
