package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/doable/api/internal/core/domain"
	"github.com/doable/api/internal/core/ports"
)

const todoColumns = `id, title, description, priority, status, completed, pinned, due_date, user_id, created_at, updated_at`

type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) ports.TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Create(ctx context.Context, userID uuid.UUID, input ports.CreateTodoInput) (*domain.Todo, error) {
	query := `
		INSERT INTO todos (title, description, priority, status, due_date, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + todoColumns

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query,
		input.Title, input.Description, input.Priority, input.Status, input.DueDate, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to insert todo: %w", err)
	}
	return todo, nil
}

// List runs the filtered page query plus the four count queries backing the
// three-tier contract: filtered counts the full predicate, total and the
// active/completed split count the base predicate (user + search +
// priority) only.
func (r *TodoRepository) List(ctx context.Context, userID uuid.UUID, f ports.TodoFilter) (*ports.TodoPage, error) {
	base := newPredicate()
	base.add("user_id = $%d", userID)
	if f.Search != "" {
		base.addSearch(f.Search)
	}
	if f.Priority != "" {
		base.add("priority = $%d", f.Priority)
	}

	full := base.clone()
	if f.Completed != "" {
		full.add("completed = $%d", f.Completed == "true")
	}
	if f.Status != "" {
		full.add("status = $%d", f.Status)
	}

	limitArg := len(full.args) + 1
	offsetArg := len(full.args) + 2
	query := fmt.Sprintf(
		`SELECT %s FROM todos WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		todoColumns, full.where(), orderClause(f.SortBy, f.SortOrder), limitArg, offsetArg,
	)
	args := append(append([]any{}, full.args...), f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []*domain.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	filtered, err := r.count(ctx, full.where(), full.args)
	if err != nil {
		return nil, err
	}
	total, err := r.count(ctx, base.where(), base.args)
	if err != nil {
		return nil, err
	}
	active, err := r.count(ctx, base.where()+" AND completed = FALSE", base.args)
	if err != nil {
		return nil, err
	}
	completed, err := r.count(ctx, base.where()+" AND completed = TRUE", base.args)
	if err != nil {
		return nil, err
	}

	return &ports.TodoPage{
		Todos:      todos,
		Total:      total,
		Filtered:   filtered,
		Counts:     ports.TodoCounts{All: total, Active: active, Completed: completed},
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: (filtered + f.Limit - 1) / f.Limit,
	}, nil
}

func (r *TodoRepository) Counts(ctx context.Context, userID uuid.UUID) (*ports.TodoCounts, error) {
	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE NOT completed),
			count(*) FILTER (WHERE completed)
		FROM todos WHERE user_id = $1
	`
	var c ports.TodoCounts
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&c.All, &c.Active, &c.Completed); err != nil {
		return nil, fmt.Errorf("failed to count todos: %w", err)
	}
	return &c, nil
}

func (r *TodoRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`
	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		// Missing and not-owned are indistinguishable on purpose.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

func (r *TodoRepository) Update(ctx context.Context, userID, id uuid.UUID, input ports.UpdateTodoInput) (*domain.Todo, error) {
	sets := []string{}
	args := []any{}
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if input.Title != nil {
		addSet("title", *input.Title)
	}
	if input.Description != nil {
		addSet("description", *input.Description)
	}
	if input.Priority != nil {
		addSet("priority", *input.Priority)
	}
	if input.Status != nil {
		addSet("status", *input.Status)
	}
	if input.Completed != nil {
		addSet("completed", *input.Completed)
	}
	if input.Pinned != nil {
		addSet("pinned", *input.Pinned)
	}
	if input.DueDate != nil {
		addSet("due_date", *input.DueDate)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, userID, id)
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id, userID)
	query := fmt.Sprintf(
		`UPDATE todos SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), todoColumns,
	)

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return todo, nil
}

func (r *TodoRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if affected == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

// ToggleComplete negates the flag in one conditional statement so that
// concurrent toggles on the same todo cannot lose updates.
func (r *TodoRepository) ToggleComplete(ctx context.Context, userID, id uuid.UUID) (*domain.Todo, error) {
	return r.toggle(ctx, userID, id, "completed")
}

func (r *TodoRepository) TogglePin(ctx context.Context, userID, id uuid.UUID) (*domain.Todo, error) {
	return r.toggle(ctx, userID, id, "pinned")
}

func (r *TodoRepository) toggle(ctx context.Context, userID, id uuid.UUID, column string) (*domain.Todo, error) {
	query := fmt.Sprintf(
		`UPDATE todos SET %s = NOT %s, updated_at = now() WHERE id = $1 AND user_id = $2 RETURNING %s`,
		column, column, todoColumns,
	)
	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to toggle %s: %w", column, err)
	}
	return todo, nil
}

func (r *TodoRepository) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status domain.TodoStatus) (*domain.Todo, error) {
	query := `UPDATE todos SET status = $1, updated_at = now() WHERE id = $2 AND user_id = $3 RETURNING ` + todoColumns
	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, status, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	return todo, nil
}

func (r *TodoRepository) count(ctx context.Context, where string, args []any) (int, error) {
	var n int
	query := `SELECT count(*) FROM todos WHERE ` + where
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}
	return n, nil
}

// predicate accumulates WHERE conditions with positional args.
type predicate struct {
	conds []string
	args  []any
}

func newPredicate() *predicate {
	return &predicate{}
}

func (p *predicate) add(format string, value any) {
	p.args = append(p.args, value)
	p.conds = append(p.conds, fmt.Sprintf(format, len(p.args)))
}

func (p *predicate) addSearch(term string) {
	p.args = append(p.args, "%"+term+"%")
	n := len(p.args)
	p.conds = append(p.conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
}

func (p *predicate) clone() *predicate {
	return &predicate{
		conds: append([]string{}, p.conds...),
		args:  append([]any{}, p.args...),
	}
}

func (p *predicate) where() string {
	return strings.Join(p.conds, " AND ")
}

// orderClause puts pinned todos first regardless of the requested sort,
// then the requested key, then creation time descending as the tie-break.
func orderClause(sortBy, sortOrder string) string {
	dir := "DESC"
	if sortOrder == "asc" {
		dir = "ASC"
	}
	switch sortBy {
	case "priority":
		return fmt.Sprintf(
			"pinned DESC, CASE priority WHEN 'LOW' THEN 1 WHEN 'MEDIUM' THEN 2 ELSE 3 END %s, created_at DESC", dir)
	case "title":
		return fmt.Sprintf("pinned DESC, title %s, created_at DESC", dir)
	default:
		return fmt.Sprintf("pinned DESC, created_at %s", dir)
	}
}

func scanTodo(row rowScanner) (*domain.Todo, error) {
	var t domain.Todo
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status,
		&t.Completed, &t.Pinned, &t.DueDate, &t.UserID,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
