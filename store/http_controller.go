package store

import (
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/modomall/console/auth"
)

// RegisterCatalogRoutes mounts the admin CRUD surface for every catalog
// table. The guard middleware is expected to be the admin gate; nothing
// here re-checks the role.
func RegisterCatalogRoutes[T any](app router.Router[T], catalog Catalog, logger auth.Logger, guard router.MiddlewareFunc) {
	db := catalog.DB()

	mountResource(app, "/admin/api/services", NewResource(db, catalog.Services()), logger, guard)
	mountResource(app, "/admin/api/service-categories", NewResource(db, catalog.ServiceCategories(), "name ASC"), logger, guard)
	mountResource(app, "/admin/api/banners", NewResource(db, catalog.Banners()), logger, guard)
	mountResource(app, "/admin/api/categories", NewResource(db, catalog.Categories()), logger, guard)
	mountResource(app, "/admin/api/colors", NewResource(db, catalog.Colors()), logger, guard)
	mountResource(app, "/admin/api/brands", NewResource(db, catalog.Brands()), logger, guard)
	mountResource(app, "/admin/api/products", NewResource(db, catalog.Products()), logger, guard)
}

func mountResource[T any, M any](
	app router.Router[T],
	path string,
	resource *Resource[M],
	logger auth.Logger,
	guard router.MiddlewareFunc,
) {
	app.Get(path, guard(listHandler(resource, logger)))
	app.Get(path+"/:id", guard(getHandler(resource, logger)))
	app.Post(path, guard(createHandler(resource, logger)))
	app.Put(path+"/:id", guard(updateHandler(resource, logger)))
	app.Delete(path+"/:id", guard(deleteHandler(resource, logger)))
}

func listHandler[M any](resource *Resource[M], logger auth.Logger) router.HandlerFunc {
	return func(ctx router.Context) error {
		records, err := resource.List(ctx.Context())
		if err != nil {
			logger.Error("catalog list: %v", err)
			return ctx.JSON(router.StatusInternalServerError, errBody(err))
		}
		return ctx.JSON(router.StatusOK, records)
	}
}

func getHandler[M any](resource *Resource[M], logger auth.Logger) router.HandlerFunc {
	return func(ctx router.Context) error {
		id, err := uuid.Parse(ctx.Param("id", ""))
		if err != nil {
			return ctx.JSON(router.StatusBadRequest, errBody(err))
		}

		record, err := resource.Get(ctx.Context(), id)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ctx.JSON(router.StatusNotFound, errBody(err))
			}
			logger.Error("catalog get: %v", err)
			return ctx.JSON(router.StatusInternalServerError, errBody(err))
		}
		return ctx.JSON(router.StatusOK, record)
	}
}

func createHandler[M any](resource *Resource[M], logger auth.Logger) router.HandlerFunc {
	return func(ctx router.Context) error {
		record := new(M)
		if err := ctx.Bind(record); err != nil {
			return ctx.JSON(router.StatusBadRequest, errBody(err))
		}

		created, err := resource.Create(ctx.Context(), record)
		if err != nil {
			logger.Error("catalog create: %v", err)
			return ctx.JSON(router.StatusInternalServerError, errBody(err))
		}
		return ctx.JSON(router.StatusCreated, created)
	}
}

func updateHandler[M any](resource *Resource[M], logger auth.Logger) router.HandlerFunc {
	return func(ctx router.Context) error {
		id, err := uuid.Parse(ctx.Param("id", ""))
		if err != nil {
			return ctx.JSON(router.StatusBadRequest, errBody(err))
		}

		record := new(M)
		if err := ctx.Bind(record); err != nil {
			return ctx.JSON(router.StatusBadRequest, errBody(err))
		}

		updated, err := resource.Update(ctx.Context(), id, record)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ctx.JSON(router.StatusNotFound, errBody(err))
			}
			logger.Error("catalog update: %v", err)
			return ctx.JSON(router.StatusInternalServerError, errBody(err))
		}
		return ctx.JSON(router.StatusOK, updated)
	}
}

func deleteHandler[M any](resource *Resource[M], logger auth.Logger) router.HandlerFunc {
	return func(ctx router.Context) error {
		id, err := uuid.Parse(ctx.Param("id", ""))
		if err != nil {
			return ctx.JSON(router.StatusBadRequest, errBody(err))
		}

		if err := resource.Delete(ctx.Context(), id); err != nil {
			if repository.IsRecordNotFound(err) {
				return ctx.JSON(router.StatusNotFound, errBody(err))
			}
			logger.Error("catalog delete: %v", err)
			return ctx.JSON(router.StatusInternalServerError, errBody(err))
		}
		return ctx.JSON(router.StatusOK, map[string]any{"deleted": id.String()})
	}
}

func errBody(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}
