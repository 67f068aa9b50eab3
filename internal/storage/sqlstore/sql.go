package sqlstore

// dialect holds the statements that differ between drivers.
type dialect struct {
	name string
	// returningID is false for MySQL, which reports the id via LAST_INSERT_ID.
	returningID      bool
	upsertCategory   string
	upsertBusiness   string
	listBusinesses   string
	listByCategory   string
	getBusinessByExt string
}

// -----------------------------------------------------------------------------
// MySQL
// -----------------------------------------------------------------------------

// id = LAST_INSERT_ID(id) makes LastInsertId return the existing row on update.
const mysqlUpsertCategorySQL = `
INSERT INTO categories (slug, name)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  name       = VALUES(name),
  updated_at = CURRENT_TIMESTAMP,
  id         = LAST_INSERT_ID(id)
`

const mysqlUpsertBusinessSQL = `
INSERT INTO businesses
  (external_id, name, address, lat, lng, rating, category_id)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name        = VALUES(name),
  address     = VALUES(address),
  lat         = VALUES(lat),
  lng         = VALUES(lng),
  rating      = VALUES(rating),
  category_id = VALUES(category_id),
  updated_at  = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// PostgreSQL
// -----------------------------------------------------------------------------

const pgUpsertCategorySQL = `
INSERT INTO categories (slug, name)
VALUES ($1, $2)
ON CONFLICT (slug) DO UPDATE SET
  name       = EXCLUDED.name,
  updated_at = NOW()
RETURNING id
`

const pgUpsertBusinessSQL = `
INSERT INTO businesses
  (external_id, name, address, lat, lng, rating, category_id)
VALUES
  ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (external_id) DO UPDATE SET
  name        = EXCLUDED.name,
  address     = EXCLUDED.address,
  lat         = EXCLUDED.lat,
  lng         = EXCLUDED.lng,
  rating      = EXCLUDED.rating,
  category_id = EXCLUDED.category_id,
  updated_at  = NOW()
`

// -----------------------------------------------------------------------------
// SQLite
// -----------------------------------------------------------------------------

const sqliteUpsertCategorySQL = `
INSERT INTO categories (slug, name)
VALUES (?, ?)
ON CONFLICT (slug) DO UPDATE SET
  name       = excluded.name,
  updated_at = CURRENT_TIMESTAMP
RETURNING id
`

const sqliteUpsertBusinessSQL = `
INSERT INTO businesses
  (external_id, name, address, lat, lng, rating, category_id)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (external_id) DO UPDATE SET
  name        = excluded.name,
  address     = excluded.address,
  lat         = excluded.lat,
  lng         = excluded.lng,
  rating      = excluded.rating,
  category_id = excluded.category_id,
  updated_at  = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const selectBusinessView = `
SELECT
  b.id,
  b.external_id,
  b.name,
  b.address,
  b.lat,
  b.lng,
  b.rating,
  b.category_id,
  c.id,
  c.slug,
  c.name
FROM businesses b
JOIN categories c ON c.id = b.category_id
`

var (
	mysqlDialect = dialect{
		name:             "mysql",
		upsertCategory:   mysqlUpsertCategorySQL,
		upsertBusiness:   mysqlUpsertBusinessSQL,
		listBusinesses:   selectBusinessView + "ORDER BY b.id",
		listByCategory:   selectBusinessView + "WHERE c.slug = ?\nORDER BY b.id",
		getBusinessByExt: selectBusinessView + "WHERE b.external_id = ?",
	}
	postgresDialect = dialect{
		name:             "postgres",
		returningID:      true,
		upsertCategory:   pgUpsertCategorySQL,
		upsertBusiness:   pgUpsertBusinessSQL,
		listBusinesses:   selectBusinessView + "ORDER BY b.id",
		listByCategory:   selectBusinessView + "WHERE c.slug = $1\nORDER BY b.id",
		getBusinessByExt: selectBusinessView + "WHERE b.external_id = $1",
	}
	sqliteDialect = dialect{
		name:             "sqlite3",
		returningID:      true,
		upsertCategory:   sqliteUpsertCategorySQL,
		upsertBusiness:   sqliteUpsertBusinessSQL,
		listBusinesses:   selectBusinessView + "ORDER BY b.id",
		listByCategory:   selectBusinessView + "WHERE c.slug = ?\nORDER BY b.id",
		getBusinessByExt: selectBusinessView + "WHERE b.external_id = ?",
	}
)
