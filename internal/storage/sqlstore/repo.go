package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"localbiz/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repo struct {
	db *sql.DB
	d  dialect
}

// New wraps db for the given driver name (mysql, postgres or sqlite3).
func New(db *sql.DB, driver string) (*Repo, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &Repo{db: db, d: d}, nil
}

// InTx runs fn inside one transaction. Any error from fn rolls the whole batch back.
func (r *Repo) InTx(ctx context.Context, fn func(w domain.CatalogWriter) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StoreError{Op: "begin", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&writer{q: tx, d: r.d}); err != nil {
		return err
	}
	if cerr := tx.Commit(); cerr != nil {
		err = &domain.StoreError{Op: "commit", Err: cerr}
		return err
	}
	return nil
}

func (r *Repo) ListBusinesses(ctx context.Context, categorySlug string) ([]domain.BusinessView, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if categorySlug == "" {
		rows, err = r.db.QueryContext(ctx, r.d.listBusinesses)
	} else {
		rows, err = r.db.QueryContext(ctx, r.d.listByCategory, categorySlug)
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "list businesses", Err: err}
	}
	defer rows.Close()

	out := make([]domain.BusinessView, 0)
	for rows.Next() {
		bv, err := scanBusinessView(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: "scan business", Err: err}
		}
		out = append(out, bv)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list businesses", Err: err}
	}
	return out, nil
}

func (r *Repo) GetBusiness(ctx context.Context, externalID string) (domain.BusinessView, error) {
	bv, err := scanBusinessView(r.db.QueryRowContext(ctx, r.d.getBusinessByExt, externalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.BusinessView{}, domain.ErrNotFound
		}
		return domain.BusinessView{}, &domain.StoreError{Op: "get business", Err: err}
	}
	return bv, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBusinessView(s scanner) (domain.BusinessView, error) {
	var bv domain.BusinessView
	var address sql.NullString
	var lat, lng, rating sql.NullFloat64
	if err := s.Scan(
		&bv.ID,
		&bv.ExternalID,
		&bv.Name,
		&address,
		&lat, &lng,
		&rating,
		&bv.CategoryID,
		&bv.Category.ID,
		&bv.Category.Slug,
		&bv.Category.Name,
	); err != nil {
		return domain.BusinessView{}, err
	}
	if address.Valid {
		a := address.String
		bv.Address = &a
	}
	if lat.Valid {
		f := lat.Float64
		bv.Lat = &f
	}
	if lng.Valid {
		f := lng.Float64
		bv.Lng = &f
	}
	if rating.Valid {
		f := rating.Float64
		bv.Rating = &f
	}
	return bv, nil
}

// writer implements domain.CatalogWriter on top of one transaction.
type writer struct {
	q querier
	d dialect
}

func (w *writer) UpsertCategory(ctx context.Context, slug, name string) (int64, error) {
	if w.d.returningID {
		var id int64
		if err := w.q.QueryRowContext(ctx, w.d.upsertCategory, slug, name).Scan(&id); err != nil {
			return 0, &domain.StoreError{Op: fmt.Sprintf("upsert category %q", slug), Err: err}
		}
		return id, nil
	}
	res, err := w.q.ExecContext(ctx, w.d.upsertCategory, slug, name)
	if err != nil {
		return 0, &domain.StoreError{Op: fmt.Sprintf("upsert category %q", slug), Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &domain.StoreError{Op: fmt.Sprintf("upsert category %q", slug), Err: err}
	}
	return id, nil
}

func (w *writer) UpsertBusiness(ctx context.Context, b domain.Business) error {
	_, err := w.q.ExecContext(ctx, w.d.upsertBusiness,
		b.ExternalID,
		b.Name,
		valStr(b.Address),
		valF64(b.Lat),
		valF64(b.Lng),
		valF64(b.Rating),
		b.CategoryID,
	)
	if err != nil {
		return &domain.StoreError{Op: fmt.Sprintf("upsert business %q", b.ExternalID), Err: err}
	}
	return nil
}
