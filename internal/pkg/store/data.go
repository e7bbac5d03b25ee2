package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/paulexconde/surveypulse/pkg/fault"
	"github.com/paulexconde/surveypulse/pkg/store"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type dataStore[T any] struct {
	db        *sqlx.DB
	tablename string
	columns   []string
	hooks     store.Hooks[T]
	mu        sync.RWMutex
}

var _ store.Datastorer[struct{}] = (*dataStore[struct{}])(nil)

// NewDataStore binds a row type to a table. The selectable columns are the
// `db` tags of T.
func NewDataStore[T any](db *sqlx.DB, tablename string) *dataStore[T] {
	return &dataStore[T]{
		db:        db,
		tablename: tablename,
		columns:   getStructFieldNamesFromInstance(new(T)),
		mu:        sync.RWMutex{},
	}
}

func (s *dataStore[T]) SetHooks(hooks store.Hooks[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks.PreSave = append(s.hooks.PreSave, hooks.PreSave...)
	s.hooks.PostSave = append(s.hooks.PostSave, hooks.PostSave...)
	s.hooks.PreDelete = append(s.hooks.PreDelete, hooks.PreDelete...)
	s.hooks.AfterSaveCommit = append(s.hooks.AfterSaveCommit, hooks.AfterSaveCommit...)
}

func (s *dataStore[T]) snapshotHooks() store.Hooks[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hooks
}

func (s *dataStore[T]) QueryRow(ctx context.Context, query string, args ...any) (any, error) {
	row := s.db.QueryRowContext(ctx, query, args...)

	var result any

	err := row.Scan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, err
	}

	return result, nil
}

func (s *dataStore[T]) Get(ctx context.Context, query string, args ...any) (*T, error) {
	var result T

	if err := s.db.GetContext(ctx, &result, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, err
	}

	return &result, nil
}

func (s *dataStore[T]) Select(ctx context.Context, query string, args ...any) ([]T, error) {
	var results []T

	if err := s.db.SelectContext(ctx, &results, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []T{}, nil
		}
		return nil, err
	}

	return results, nil
}

func (s *dataStore[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return s.getByID(ctx, s.db, id)
}

func (s *dataStore[T]) Find(ctx context.Context, filter store.Filter) ([]T, error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		if !slices.Contains(s.columns, k) {
			return nil, fmt.Errorf("unknown column %q for %s", k, s.tablename)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(s.columns, ", "), s.tablename)

	args := make([]any, 0, len(keys))
	conds := make([]string, 0, len(keys))
	for i, k := range keys {
		conds = append(conds, fmt.Sprintf("%s = $%d", k, i+1))
		args = append(args, filter[k])
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	results, err := s.Select(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []T{}
	}
	return results, nil
}

func (s *dataStore[T]) Create(ctx context.Context, data store.DTO[T]) (model *T, err error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	hooks := s.snapshotHooks()

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, hook := range hooks.PreSave {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		if err = hook(ctx, tx, data, true); err != nil {
			return nil, err
		}
	}

	columns, placeholders := getStructFieldsFromDTO(data)

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id", s.tablename, columns, placeholders)

	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer stmt.Close()

	var id string
	err = stmt.QueryRowContext(ctx, data).Scan(&id)
	if err != nil {
		err = translatePQError(err)
		return nil, err
	}

	model = data.ToModel(id)

	for _, hook := range hooks.PostSave {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		if err = hook(ctx, tx, data, model, true); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	runAfterCommit(ctx, hooks, data, model, true)

	return model, nil
}

func (s *dataStore[T]) Update(ctx context.Context, id string, data store.DTO[T]) (updated *T, err error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	hooks := s.snapshotHooks()

	params := map[string]any{"id": id}
	setClause := getNonEmptyFieldsFromDTO(data, params)

	if setClause == "" {
		return nil, fmt.Errorf("no fields to update")
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, hook := range hooks.PreSave {
		if err = hook(ctx, tx, data, false); err != nil {
			return nil, err
		}
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", s.tablename, setClause)

	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, params)
	if err != nil {
		err = translatePQError(err)
		return nil, err
	}
	if n, rerr := res.RowsAffected(); rerr == nil && n == 0 {
		err = fault.ErrNotFound
		return nil, err
	}

	updated, err = s.getByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	for _, hook := range hooks.PostSave {
		if err = hook(ctx, tx, data, updated, false); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	runAfterCommit(ctx, hooks, data, updated, false)

	return updated, nil
}

func (s *dataStore[T]) DeleteWhere(ctx context.Context, tx *sqlx.Tx, column string, value any) (err error) {
	if !slices.Contains(s.columns, column) {
		return fmt.Errorf("unknown column %q for %s", column, s.tablename)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", s.tablename, column)

	var exec sqlx.ExecerContext = s.db
	if tx != nil {
		exec = tx
	}

	if _, err = exec.ExecContext(ctx, query, value); err != nil {
		return translatePQError(err)
	}
	return nil
}

func (s *dataStore[T]) Delete(ctx context.Context, id string) (err error) {
	hooks := s.snapshotHooks()

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, hook := range hooks.PreDelete {
		if err = hook(ctx, tx, id); err != nil {
			return err
		}
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tablename)

	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		err = translatePQError(err)
		return err
	}
	if n, rerr := res.RowsAffected(); rerr == nil && n == 0 {
		err = fault.ErrNotFound
		return err
	}

	return tx.Commit()
}

func (s *dataStore[T]) getByID(ctx context.Context, q sqlx.QueryerContext, id string) (*T, error) {
	var result T

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", strings.Join(s.columns, ", "), s.tablename)

	if err := sqlx.GetContext(ctx, q, &result, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, err
	}

	return &result, nil
}

func runAfterCommit[T any](ctx context.Context, hooks store.Hooks[T], data store.DTO[T], model *T, isNew bool) {
	for _, hook := range hooks.AfterSaveCommit {
		if fn := hook(ctx, data, model, isNew); fn != nil {
			fn()
		}
	}
}

func translatePQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return fault.ErrUniqueViolation
		case pgForeignKeyViolation:
			return fault.ErrForeignKeyViolation
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fault.ErrNotFound
	}
	return err
}
