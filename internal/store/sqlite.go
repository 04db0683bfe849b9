package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/fieldsight/internal/model"
)

// SQLiteStore serves the registry and ledger from a local SQLite file.
// Used for offline snapshots and tests; the schema mirrors the Postgres
// source tables.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id       INTEGER PRIMARY KEY,
	username TEXT NOT NULL,
	name     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS customers (
	id       INTEGER PRIMARY KEY,
	custname TEXT NOT NULL,
	phone    TEXT
);
CREATE TABLE IF NOT EXISTS acc_customers (
	cid       TEXT,
	cust_name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS products (
	id       INTEGER PRIMARY KEY,
	prodname TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS clinics (
	id         INTEGER PRIMARY KEY,
	clinicname TEXT NOT NULL,
	citycode   TEXT
);
CREATE TABLE IF NOT EXISTS plans (
	id         INTEGER PRIMARY KEY,
	userid     INTEGER NOT NULL,
	custcode   INTEGER,
	cliniccode INTEGER,
	date       TEXT
);
CREATE TABLE IF NOT EXISTS reports (
	id        INTEGER PRIMARY KEY,
	idplan    INTEGER NOT NULL,
	visitnote TEXT
);
CREATE TABLE IF NOT EXISTS transactions (
	salesman_name TEXT,
	cust_id       TEXT,
	item_id       TEXT,
	product       TEXT NOT NULL,
	qty           INTEGER NOT NULL DEFAULT 0,
	amount        INTEGER NOT NULL DEFAULT 0,
	inv_date      TEXT
);
CREATE INDEX IF NOT EXISTS idx_plans_userid      ON plans(userid);
CREATE INDEX IF NOT EXISTS idx_reports_idplan    ON reports(idplan);
CREATE INDEX IF NOT EXISTS idx_tx_inv_date       ON transactions(inv_date);
`

// NewSQLite opens (creating if needed) the SQLite database at path and
// applies the schema.
func NewSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// modernc.org/sqlite serializes writes; one connection avoids
	// SQLITE_BUSY under concurrent report passes.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrap(err, "sqlite: pragma")
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying handle for snapshot loaders and tests.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error {
	return eris.Wrap(s.db.Close(), "sqlite: close")
}

func (s *SQLiteStore) Users(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT CAST(id AS TEXT), username, name FROM users ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query users")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Code, &u.Name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan user")
		}
		users = append(users, u)
	}
	return users, eris.Wrap(rows.Err(), "sqlite: users rows")
}

func (s *SQLiteStore) Customers(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT CAST(id AS TEXT), custname, COALESCE(phone, '') FROM customers ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query customers")
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan customer")
		}
		customers = append(customers, c)
	}
	return customers, eris.Wrap(rows.Err(), "sqlite: customers rows")
}

func (s *SQLiteStore) AccCustomers(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT TRIM(cid), cust_name FROM acc_customers WHERE cid IS NOT NULL AND cid != ''`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query acc_customers")
	}
	defer rows.Close()

	mapping := make(map[string]string)
	for rows.Next() {
		var cid, name string
		if err := rows.Scan(&cid, &name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan acc_customer")
		}
		mapping[cid] = name
	}
	return mapping, eris.Wrap(rows.Err(), "sqlite: acc_customers rows")
}

func (s *SQLiteStore) Products(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT CAST(id AS TEXT), prodname FROM products ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "sqlite: products rows")
}

func (s *SQLiteStore) Clinics(ctx context.Context) ([]model.Clinic, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT CAST(id AS TEXT), clinicname, COALESCE(citycode, '') FROM clinics ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query clinics")
	}
	defer rows.Close()

	var clinics []model.Clinic
	for rows.Next() {
		var c model.Clinic
		if err := rows.Scan(&c.ID, &c.Name, &c.CityCode); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan clinic")
		}
		clinics = append(clinics, c)
	}
	return clinics, eris.Wrap(rows.Err(), "sqlite: clinics rows")
}

func (s *SQLiteStore) SalesByRawName(ctx context.Context) ([]model.RawMetric, error) {
	return s.rawMetrics(ctx, `
SELECT salesman_name, COUNT(*)
FROM transactions
WHERE salesman_name IS NOT NULL AND salesman_name != ''
GROUP BY salesman_name`)
}

func (s *SQLiteStore) SalesByRawCustomer(ctx context.Context) ([]model.RawMetric, error) {
	return s.rawMetrics(ctx, `
SELECT TRIM(cust_id), COUNT(*)
FROM transactions
WHERE cust_id IS NOT NULL AND cust_id != ''
GROUP BY TRIM(cust_id)`)
}

func (s *SQLiteStore) rawMetrics(ctx context.Context, query string) ([]model.RawMetric, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query raw metrics")
	}
	defer rows.Close()

	var metrics []model.RawMetric
	for rows.Next() {
		var m model.RawMetric
		if err := rows.Scan(&m.Raw, &m.Metric); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan raw metric")
		}
		metrics = append(metrics, m)
	}
	return metrics, eris.Wrap(rows.Err(), "sqlite: raw metric rows")
}

func (s *SQLiteStore) SalesByRawProduct(ctx context.Context) ([]model.ProductMetric, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT COALESCE(item_id, ''), product,
       COALESCE(SUM(qty), 0),
       COALESCE(SUM(amount), 0)
FROM transactions
GROUP BY item_id, product`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query raw products")
	}
	defer rows.Close()

	var metrics []model.ProductMetric
	for rows.Next() {
		var m model.ProductMetric
		if err := rows.Scan(&m.ItemID, &m.Raw, &m.Units, &m.Revenue); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan raw product")
		}
		metrics = append(metrics, m)
	}
	return metrics, eris.Wrap(rows.Err(), "sqlite: raw product rows")
}

func (s *SQLiteStore) PlansByUser(ctx context.Context) ([]model.IDMetric, error) {
	return s.idMetrics(ctx, `SELECT CAST(userid AS TEXT), COUNT(*) FROM plans GROUP BY userid`)
}

func (s *SQLiteStore) ReportsByUser(ctx context.Context) ([]model.IDMetric, error) {
	return s.idMetrics(ctx, `
SELECT CAST(p.userid AS TEXT), COUNT(r.id)
FROM reports r
JOIN plans p ON r.idplan = p.id
GROUP BY p.userid`)
}

func (s *SQLiteStore) idMetrics(ctx context.Context, query string) ([]model.IDMetric, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query id metrics")
	}
	defer rows.Close()

	var metrics []model.IDMetric
	for rows.Next() {
		var m model.IDMetric
		if err := rows.Scan(&m.ID, &m.Metric); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan id metric")
		}
		metrics = append(metrics, m)
	}
	return metrics, eris.Wrap(rows.Err(), "sqlite: id metric rows")
}

func (s *SQLiteStore) VisitsByCustomerCode(ctx context.Context) (map[string]int, error) {
	return s.countMap(ctx, `SELECT CAST(custcode AS TEXT), COUNT(*) FROM plans GROUP BY custcode`)
}

func (s *SQLiteStore) VisitsByClinicCode(ctx context.Context) (map[string]int, error) {
	return s.countMap(ctx, `SELECT CAST(cliniccode AS TEXT), COUNT(*) FROM plans GROUP BY cliniccode`)
}

func (s *SQLiteStore) countMap(ctx context.Context, query string, args ...any) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query counts")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan count")
		}
		counts[key] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count rows")
}

// sqliteDate renders a range bound the way snapshot loaders store dates.
func sqliteDate(t time.Time) string { return t.Format("2006-01-02") }

func (s *SQLiteStore) VisitCountsByUserName(ctx context.Context, from, to time.Time) (map[string]int, error) {
	return s.countMap(ctx, `
SELECT u.name, COUNT(r.id)
FROM reports r
JOIN plans p ON r.idplan = p.id
JOIN users u ON p.userid = u.id
WHERE p.date BETWEEN ? AND ?
GROUP BY u.name`, sqliteDate(from), sqliteDate(to))
}

func (s *SQLiteStore) TransactionStats(ctx context.Context, from, to time.Time) ([]PerformanceRow, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT salesman_name, COUNT(*), COALESCE(SUM(amount * qty), 0)
FROM transactions
WHERE inv_date BETWEEN ? AND ?
  AND salesman_name IS NOT NULL AND salesman_name != ''
GROUP BY salesman_name`, sqliteDate(from), sqliteDate(to))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query transaction stats")
	}
	defer rows.Close()

	var stats []PerformanceRow
	for rows.Next() {
		var r PerformanceRow
		if err := rows.Scan(&r.RawName, &r.Transactions, &r.Revenue); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan transaction stat")
		}
		stats = append(stats, r)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: transaction stat rows")
}

func (s *SQLiteStore) TopProductByUnits(ctx context.Context, from, to time.Time) (*TopProduct, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT product, COALESCE(SUM(qty), 0) AS units
FROM transactions
WHERE inv_date BETWEEN ? AND ?
GROUP BY product
ORDER BY units DESC
LIMIT 1`, sqliteDate(from), sqliteDate(to))

	var top TopProduct
	if err := row.Scan(&top.Name, &top.Units); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: scan top product")
	}
	return &top, nil
}
