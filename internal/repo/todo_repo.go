package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	dom "todoapi/internal/domain"

	sq "github.com/Masterminds/squirrel"
)

const todosTable = "todos"

var todoColumns = []string{"id", "title", "description", "completed", "created_at", "updated_at"}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DBTX is the subset of *sql.DB / *sql.Tx the repository needs.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type TodoRepo interface {
	FindAll(ctx context.Context) ([]dom.Todo, error)
	FindByID(ctx context.Context, id int64) (dom.Todo, error)
	Create(ctx context.Context, t dom.Todo) (dom.Todo, error)
	Update(ctx context.Context, id int64, patch dom.TodoPatch) (dom.Todo, error)
	Delete(ctx context.Context, id int64) (bool, error)
	FindCompleted(ctx context.Context) ([]dom.Todo, error)
	FindPending(ctx context.Context) ([]dom.Todo, error)
}

// PGTodoRepo implements TodoRepo on the todos table.
type PGTodoRepo struct {
	db DBTX
}

func NewPGTodoRepo(db DBTX) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func (r *PGTodoRepo) FindAll(ctx context.Context) ([]dom.Todo, error) {
	return r.list(ctx, psql.Select(todoColumns...).From(todosTable).OrderBy("created_at DESC"))
}

func (r *PGTodoRepo) FindCompleted(ctx context.Context) ([]dom.Todo, error) {
	return r.list(ctx, psql.Select(todoColumns...).From(todosTable).
		Where(sq.Eq{"completed": true}).
		OrderBy("updated_at DESC"))
}

func (r *PGTodoRepo) FindPending(ctx context.Context) ([]dom.Todo, error) {
	return r.list(ctx, psql.Select(todoColumns...).From(todosTable).
		Where(sq.Eq{"completed": false}).
		OrderBy("created_at DESC"))
}

func (r *PGTodoRepo) FindByID(ctx context.Context, id int64) (dom.Todo, error) {
	query, args, err := psql.Select(todoColumns...).From(todosTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return dom.Todo{}, fmt.Errorf("build select: %w", err)
	}
	return r.one(ctx, query, args)
}

func (r *PGTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	query, args, err := psql.Insert(todosTable).
		Columns("title", "description", "completed").
		Values(t.Title, t.Description, t.Completed).
		Suffix(returningClause()).
		ToSql()
	if err != nil {
		return dom.Todo{}, fmt.Errorf("build insert: %w", err)
	}
	return r.one(ctx, query, args)
}

// Update sets only the fields present in patch and always refreshes updated_at.
func (r *PGTodoRepo) Update(ctx context.Context, id int64, patch dom.TodoPatch) (dom.Todo, error) {
	set := map[string]any{"updated_at": sq.Expr("NOW()")}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	query, args, err := psql.Update(todosTable).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix(returningClause()).
		ToSql()
	if err != nil {
		return dom.Todo{}, fmt.Errorf("build update: %w", err)
	}
	return r.one(ctx, query, args)
}

// Delete removes the row and reports whether one was actually removed.
func (r *PGTodoRepo) Delete(ctx context.Context, id int64) (bool, error) {
	query, args, err := psql.Delete(todosTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Truncate empties the table and resets the id sequence. Used by test setup.
func (r *PGTodoRepo) Truncate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "TRUNCATE TABLE "+todosTable+" RESTART IDENTITY"); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PGTodoRepo) one(ctx context.Context, query string, args []any) (dom.Todo, error) {
	var t dom.Todo
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dom.Todo{}, dom.ErrNotFound
		}
		return dom.Todo{}, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PGTodoRepo) list(ctx context.Context, b sq.SelectBuilder) ([]dom.Todo, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	list := []dom.Todo{}
	for rows.Next() {
		var t dom.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func returningClause() string {
	return "RETURNING id, title, description, completed, created_at, updated_at"
}
