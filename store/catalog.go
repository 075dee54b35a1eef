package store

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Catalog bundles the storefront repositories behind one manager, the
// same shape the auth package uses for its tables.
type Catalog interface {
	DB() *bun.DB
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Services() repository.Repository[*Service]
	ServiceCategories() repository.Repository[*ServiceCategory]
	Banners() repository.Repository[*Banner]
	Categories() repository.Repository[*Category]
	Colors() repository.Repository[*Color]
	Brands() repository.Repository[*Brand]
	Products() repository.Repository[*Product]
}

type catalog struct {
	db                *bun.DB
	services          repository.Repository[*Service]
	serviceCategories repository.Repository[*ServiceCategory]
	banners           repository.Repository[*Banner]
	categories        repository.Repository[*Category]
	colors            repository.Repository[*Color]
	brands            repository.Repository[*Brand]
	products          repository.Repository[*Product]
}

// NewCatalog wires every storefront repository over the given DB.
func NewCatalog(db *bun.DB) Catalog {
	return &catalog{
		db: db,
		services: newCatalogRepo(db,
			func() *Service { return &Service{} },
			func(r *Service) *uuid.UUID { return &r.ID },
			"name",
		),
		serviceCategories: newCatalogRepo(db,
			func() *ServiceCategory { return &ServiceCategory{} },
			func(r *ServiceCategory) *uuid.UUID { return &r.ID },
			"name",
		),
		banners: newCatalogRepo(db,
			func() *Banner { return &Banner{} },
			func(r *Banner) *uuid.UUID { return &r.ID },
			"name",
		),
		categories: newCatalogRepo(db,
			func() *Category { return &Category{} },
			func(r *Category) *uuid.UUID { return &r.ID },
			"name",
		),
		colors: newCatalogRepo(db,
			func() *Color { return &Color{} },
			func(r *Color) *uuid.UUID { return &r.ID },
			"name",
		),
		brands: newCatalogRepo(db,
			func() *Brand { return &Brand{} },
			func(r *Brand) *uuid.UUID { return &r.ID },
			"name",
		),
		products: newCatalogRepo(db,
			func() *Product { return &Product{} },
			func(r *Product) *uuid.UUID { return &r.ID },
			"name",
		),
	}
}

func (c *catalog) DB() *bun.DB { return c.db }

func (c *catalog) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return c.db.RunInTx(ctx, opts, f)
	}
}

func (c *catalog) Services() repository.Repository[*Service] { return c.services }

func (c *catalog) ServiceCategories() repository.Repository[*ServiceCategory] {
	return c.serviceCategories
}
func (c *catalog) Banners() repository.Repository[*Banner] { return c.banners }

func (c *catalog) Categories() repository.Repository[*Category] { return c.categories }

func (c *catalog) Colors() repository.Repository[*Color] { return c.colors }

func (c *catalog) Brands() repository.Repository[*Brand] { return c.brands }

func (c *catalog) Products() repository.Repository[*Product] { return c.products }

func newCatalogRepo[T any](
	db *bun.DB,
	newRecord func() *T,
	idField func(*T) *uuid.UUID,
	identifier string,
) repository.Repository[*T] {
	return repository.NewRepository[*T](db, repository.ModelHandlers[*T]{
		NewRecord: func() *T { return newRecord() },
		GetID: func(r *T) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return *idField(r)
		},
		SetID: func(r *T, id uuid.UUID) {
			if r != nil {
				*idField(r) = id
			}
		},
		GetIdentifier: func() string {
			return identifier
		},
	})
}
