package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Filter matches rows whose columns equal every given value (logical AND).
type Filter map[string]any

// DTO is the write shape of a row. Fields carry `db` tags naming their columns.
type DTO[T any] interface {
	ToModel(id string) *T
}

// This type of hook separates from the regular PostSave hook since it has side effects
type AfterSaveCommitHook func()

// Hooks for database operations
type Hooks[T any] struct {
	PreSave         []func(ctx context.Context, tx *sqlx.Tx, data DTO[T], isNew bool) error
	PostSave        []func(ctx context.Context, tx *sqlx.Tx, data DTO[T], model *T, isNew bool) error
	PreDelete       []func(ctx context.Context, tx *sqlx.Tx, id string) error
	AfterSaveCommit []func(ctx context.Context, data DTO[T], model *T, isNew bool) AfterSaveCommitHook
}

type Datastorer[T any] interface {
	Create(ctx context.Context, data DTO[T]) (*T, error)
	Update(ctx context.Context, id string, data DTO[T]) (*T, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*T, error)
	Find(ctx context.Context, filter Filter) ([]T, error)
	QueryRow(ctx context.Context, query string, args ...any) (any, error)
	Get(ctx context.Context, query string, args ...any) (*T, error)
	Select(ctx context.Context, query string, args ...any) ([]T, error)

	// DeleteWhere removes every row whose column equals value, inside tx when
	// it is not nil.
	// WARN: DeleteWhere does not run hooks.
	DeleteWhere(ctx context.Context, tx *sqlx.Tx, column string, value any) error

	// Set hooks.
	SetHooks(hooks Hooks[T])
}
