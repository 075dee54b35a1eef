package store

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Resource is the single-entity surface the admin console works with:
// fetch-by-id, list, create, update, delete. Reads and deletes go
// through bun directly, writes through the shared repository so id
// defaults and identity handling stay in one place.
type Resource[T any] struct {
	db    *bun.DB
	repo  repository.Repository[*T]
	order string
}

// NewResource wraps one catalog table. Listing orders newest first
// unless the table carries no timestamps and a different order is given.
func NewResource[T any](db *bun.DB, repo repository.Repository[*T], order ...string) *Resource[T] {
	listOrder := "created_at DESC"
	if len(order) > 0 && order[0] != "" {
		listOrder = order[0]
	}
	return &Resource[T]{db: db, repo: repo, order: listOrder}
}

// Get fetches a record by id.
func (r *Resource[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.repo.GetByID(ctx, id.String())
}

// List returns every record, newest first.
func (r *Resource[T]) List(ctx context.Context) ([]*T, error) {
	var records []*T
	err := r.db.NewSelect().
		Model(&records).
		Order(r.order).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list records")
	}
	return records, nil
}

// Create inserts a record.
func (r *Resource[T]) Create(ctx context.Context, record *T) (*T, error) {
	return r.repo.CreateTx(ctx, r.db, record)
}

// Update saves a record by its id.
func (r *Resource[T]) Update(ctx context.Context, id uuid.UUID, record *T) (*T, error) {
	return r.repo.UpdateTx(ctx, r.db, record, repository.UpdateByID(id.String()))
}

// Delete removes a record by id. Missing rows report not found so the
// console can surface stale-tab deletes.
func (r *Resource[T]) Delete(ctx context.Context, id uuid.UUID) error {
	var record T
	res, err := r.db.NewDelete().
		Model(&record).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete record")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}
