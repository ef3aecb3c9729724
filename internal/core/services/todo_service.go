package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doable/api/internal/core/domain"
	"github.com/doable/api/internal/core/ports"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type todoService struct {
	repo ports.TodoRepository
	log  *zap.SugaredLogger
}

func NewTodoService(repo ports.TodoRepository, log *zap.SugaredLogger) ports.TodoService {
	return &todoService{repo: repo, log: log}
}

func (s *todoService) Create(ctx context.Context, userID uuid.UUID, input ports.CreateTodoInput) (*domain.Todo, error) {
	if input.Title == "" || len(input.Title) > 255 || len(input.Description) > 1000 {
		return nil, domain.ErrValidation
	}
	if !input.Priority.Valid() {
		return nil, domain.ErrValidation
	}
	if input.Status == "" {
		input.Status = domain.StatusTodo
	}
	if !input.Status.Valid() {
		return nil, domain.ErrValidation
	}

	todo, err := s.repo.Create(ctx, userID, input)
	if err != nil {
		s.log.Errorw("todo create failed", "userId", userID, "error", err)
		return nil, domain.ErrInternal
	}
	s.log.Infow("todo created", "userId", userID, "todoId", todo.ID)
	return todo, nil
}

// List normalizes the filter before it reaches the store: the ALL sentinel
// collapses to "no filter", page and limit are clamped, sort fields fall
// back to their defaults.
func (s *todoService) List(ctx context.Context, userID uuid.UUID, filter ports.TodoFilter) (*ports.TodoPage, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	page, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		s.log.Errorw("todo list failed", "userId", userID, "error", err)
		return nil, domain.ErrInternal
	}
	return page, nil
}

func (s *todoService) Counts(ctx context.Context, userID uuid.UUID) (*ports.TodoCounts, error) {
	counts, err := s.repo.Counts(ctx, userID)
	if err != nil {
		s.log.Errorw("todo counts failed", "userId", userID, "error", err)
		return nil, domain.ErrInternal
	}
	return counts, nil
}

func (s *todoService) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Todo, error) {
	return s.repo.GetByID(ctx, userID, id)
}

func (s *todoService) Update(ctx context.Context, userID, id uuid.UUID, input ports.UpdateTodoInput) (*domain.Todo, error) {
	if input.Title != nil && (*input.Title == "" || len(*input.Title) > 255) {
		return nil, domain.ErrValidation
	}
	if input.Description != nil && len(*input.Description) > 1000 {
		return nil, domain.ErrValidation
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, domain.ErrValidation
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, domain.ErrValidation
	}
	return s.repo.Update(ctx, userID, id, input)
}

func (s *todoService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.log.Infow("todo deleted", "userId", userID, "todoId", id)
	return nil
}

func (s *todoService) ToggleComplete(ctx context.Context, userID, id uuid.UUID) (*domain.Todo, error) {
	return s.repo.ToggleComplete(ctx, userID, id)
}

func (s *todoService) TogglePin(ctx context.Context, userID, id uuid.UUID) (*domain.Todo, error) {
	return s.repo.TogglePin(ctx, userID, id)
}

func (s *todoService) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status domain.TodoStatus) (*domain.Todo, error) {
	if !status.Valid() {
		return nil, domain.ErrValidation
	}
	// Status and completed are independent axes; this never cascades.
	return s.repo.UpdateStatus(ctx, userID, id, status)
}

// normalizeFilter collapses the ALL sentinel, rejects out-of-enum filter
// values and clamps paging. An unknown priority, status or completed value
// is a caller error, not an empty result set.
func normalizeFilter(f ports.TodoFilter) (ports.TodoFilter, error) {
	if f.Priority == ports.FilterAll {
		f.Priority = ""
	}
	if f.Priority != "" && !domain.Priority(f.Priority).Valid() {
		return f, domain.ErrValidation
	}
	if f.Completed == ports.FilterAll {
		f.Completed = ""
	}
	if f.Completed != "" && f.Completed != "true" && f.Completed != "false" {
		return f, domain.ErrValidation
	}
	if f.Status == ports.FilterAll {
		f.Status = ""
	}
	if f.Status != "" && !domain.TodoStatus(f.Status).Valid() {
		return f, domain.ErrValidation
	}
	switch f.SortBy {
	case "date", "priority", "title":
	default:
		f.SortBy = "date"
	}
	switch f.SortOrder {
	case "asc", "desc":
	default:
		f.SortOrder = "desc"
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	return f, nil
}
