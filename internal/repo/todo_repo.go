package repo

import (
	"context"
	"errors"

	dom "github.com/birlikkoshan/todo-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrStorage matches every *StorageError via errors.Is.
	ErrStorage = errors.New("storage error")
	// ErrRecordMissing is wrapped in a StorageError when Update or Delete target an
	// id the store does not hold. Callers are expected to check existence first.
	ErrRecordMissing = errors.New("record missing")
)

// StorageError wraps a failure of the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// TodoRepo persists todos. FindByID reports absence with found == false and a nil error.
type TodoRepo interface {
	FindAll(ctx context.Context) ([]dom.Todo, error)
	FindByID(ctx context.Context, id int64) (t dom.Todo, found bool, err error)
	Save(ctx context.Context, t dom.Todo) (dom.Todo, error)
	Update(ctx context.Context, t dom.Todo) (dom.Todo, error)
	Delete(ctx context.Context, id int64) error
}

// PGTodoRepo implements TodoRepo with Postgres. Ids come from the SERIAL column.
type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func (r *PGTodoRepo) FindAll(ctx context.Context) ([]dom.Todo, error) {
	rows, err := r.db.Query(ctx, `SELECT id, title, completed FROM todos ORDER BY id`)
	if err != nil {
		return nil, storageErr("find all", err)
	}
	defer rows.Close()
	list := []dom.Todo{}
	for rows.Next() {
		var (
			id        int64
			title     string
			completed bool
		)
		if err := rows.Scan(&id, &title, &completed); err != nil {
			return nil, storageErr("find all", err)
		}
		list = append(list, dom.ReconstructTodo(id, title, completed))
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("find all", err)
	}
	return list, nil
}

func (r *PGTodoRepo) FindByID(ctx context.Context, id int64) (dom.Todo, bool, error) {
	t, err := r.scanOne(ctx, `SELECT id, title, completed FROM todos WHERE id = $1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Todo{}, false, nil
	}
	if err != nil {
		return dom.Todo{}, false, storageErr("find by id", err)
	}
	return t, true, nil
}

func (r *PGTodoRepo) Save(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	query := `
		INSERT INTO todos (title, completed)
		VALUES ($1, $2)
		RETURNING id, title, completed`
	out, err := r.scanOne(ctx, query, t.Title(), t.Completed())
	if err != nil {
		return dom.Todo{}, storageErr("save", err)
	}
	return out, nil
}

func (r *PGTodoRepo) Update(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	if !t.HasID() {
		return dom.Todo{}, storageErr("update", ErrRecordMissing)
	}
	query := `
		UPDATE todos SET title = $2, completed = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, title, completed`
	out, err := r.scanOne(ctx, query, t.ID(), t.Title(), t.Completed())
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Todo{}, storageErr("update", ErrRecordMissing)
	}
	if err != nil {
		return dom.Todo{}, storageErr("update", err)
	}
	return out, nil
}

func (r *PGTodoRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return storageErr("delete", ErrRecordMissing)
	}
	return nil
}

func (r *PGTodoRepo) scanOne(ctx context.Context, query string, args ...any) (dom.Todo, error) {
	var (
		id        int64
		title     string
		completed bool
	)
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id, &title, &completed); err != nil {
		return dom.Todo{}, err
	}
	return dom.ReconstructTodo(id, title, completed), nil
}
