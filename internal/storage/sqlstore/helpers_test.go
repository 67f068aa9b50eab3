package sqlstore_test

import (
	"context"

	"localbiz/internal/domain"
	"localbiz/internal/storage/sqlstore"
)

// upsertCategory and upsertBusiness run a single write in its own transaction.

func upsertCategory(ctx context.Context, repo *sqlstore.Repo, slug, name string) (int64, error) {
	var id int64
	err := repo.InTx(ctx, func(w domain.CatalogWriter) error {
		var err error
		id, err = w.UpsertCategory(ctx, slug, name)
		return err
	})
	return id, err
}

func upsertBusiness(ctx context.Context, repo *sqlstore.Repo, b domain.Business) error {
	return repo.InTx(ctx, func(w domain.CatalogWriter) error {
		return w.UpsertBusiness(ctx, b)
	})
}
