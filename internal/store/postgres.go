package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldsight/internal/model"
)

// pgPool is the minimal pool surface used by PostgresStore; pgxmock
// satisfies it in tests.
type pgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore reads the registry and ledger from Postgres via pgx.
type PostgresStore struct {
	pool pgPool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres connects a PostgresStore to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests.
func NewPostgresFromPool(pool pgPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Users(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text, username, name FROM users ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query users")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Code, &u.Name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan user")
		}
		users = append(users, u)
	}
	return users, eris.Wrap(rows.Err(), "postgres: users rows")
}

func (s *PostgresStore) Customers(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text, custname, COALESCE(phone, '') FROM customers ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query customers")
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone); err != nil {
			return nil, eris.Wrap(err, "postgres: scan customer")
		}
		customers = append(customers, c)
	}
	return customers, eris.Wrap(rows.Err(), "postgres: customers rows")
}

func (s *PostgresStore) AccCustomers(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT TRIM(cid), cust_name FROM acc_customers WHERE cid IS NOT NULL AND cid != ''`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query acc_customers")
	}
	defer rows.Close()

	mapping := make(map[string]string)
	for rows.Next() {
		var cid, name string
		if err := rows.Scan(&cid, &name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan acc_customer")
		}
		mapping[cid] = name
	}
	return mapping, eris.Wrap(rows.Err(), "postgres: acc_customers rows")
}

func (s *PostgresStore) Products(ctx context.Context) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text, prodname FROM products ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "postgres: products rows")
}

func (s *PostgresStore) Clinics(ctx context.Context) ([]model.Clinic, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text, clinicname, COALESCE(citycode, '') FROM clinics ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query clinics")
	}
	defer rows.Close()

	var clinics []model.Clinic
	for rows.Next() {
		var c model.Clinic
		if err := rows.Scan(&c.ID, &c.Name, &c.CityCode); err != nil {
			return nil, eris.Wrap(err, "postgres: scan clinic")
		}
		clinics = append(clinics, c)
	}
	return clinics, eris.Wrap(rows.Err(), "postgres: clinics rows")
}

func (s *PostgresStore) SalesByRawName(ctx context.Context) ([]model.RawMetric, error) {
	return s.rawMetrics(ctx, `
SELECT salesman_name, COUNT(*)
FROM transactions
WHERE salesman_name IS NOT NULL AND salesman_name != ''
GROUP BY salesman_name`)
}

func (s *PostgresStore) SalesByRawCustomer(ctx context.Context) ([]model.RawMetric, error) {
	return s.rawMetrics(ctx, `
SELECT TRIM(cust_id), COUNT(*)
FROM transactions
WHERE cust_id IS NOT NULL AND cust_id != ''
GROUP BY TRIM(cust_id)`)
}

func (s *PostgresStore) rawMetrics(ctx context.Context, sql string) ([]model.RawMetric, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query raw metrics")
	}
	defer rows.Close()

	var metrics []model.RawMetric
	for rows.Next() {
		var m model.RawMetric
		if err := rows.Scan(&m.Raw, &m.Metric); err != nil {
			return nil, eris.Wrap(err, "postgres: scan raw metric")
		}
		metrics = append(metrics, m)
	}
	return metrics, eris.Wrap(rows.Err(), "postgres: raw metric rows")
}

func (s *PostgresStore) SalesByRawProduct(ctx context.Context) ([]model.ProductMetric, error) {
	// SUM(amount) cast to a wide integer to dodge float accumulation.
	rows, err := s.pool.Query(ctx, `
SELECT COALESCE(item_id, ''), product,
       COALESCE(SUM(qty), 0),
       COALESCE(CAST(SUM(amount) AS BIGINT), 0)
FROM transactions
GROUP BY item_id, product`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query raw products")
	}
	defer rows.Close()

	var metrics []model.ProductMetric
	for rows.Next() {
		var m model.ProductMetric
		if err := rows.Scan(&m.ItemID, &m.Raw, &m.Units, &m.Revenue); err != nil {
			return nil, eris.Wrap(err, "postgres: scan raw product")
		}
		metrics = append(metrics, m)
	}
	return metrics, eris.Wrap(rows.Err(), "postgres: raw product rows")
}

func (s *PostgresStore) PlansByUser(ctx context.Context) ([]model.IDMetric, error) {
	return s.idMetrics(ctx, `SELECT userid::text, COUNT(*) FROM plans GROUP BY userid`)
}

func (s *PostgresStore) ReportsByUser(ctx context.Context) ([]model.IDMetric, error) {
	return s.idMetrics(ctx, `
SELECT p.userid::text, COUNT(r.id)
FROM reports r
JOIN plans p ON r.idplan = p.id
GROUP BY p.userid`)
}

func (s *PostgresStore) idMetrics(ctx context.Context, sql string) ([]model.IDMetric, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query id metrics")
	}
	defer rows.Close()

	var metrics []model.IDMetric
	for rows.Next() {
		var m model.IDMetric
		if err := rows.Scan(&m.ID, &m.Metric); err != nil {
			return nil, eris.Wrap(err, "postgres: scan id metric")
		}
		metrics = append(metrics, m)
	}
	return metrics, eris.Wrap(rows.Err(), "postgres: id metric rows")
}

func (s *PostgresStore) VisitsByCustomerCode(ctx context.Context) (map[string]int, error) {
	return s.countMap(ctx, `SELECT custcode::text, COUNT(*) FROM plans GROUP BY custcode`)
}

func (s *PostgresStore) VisitsByClinicCode(ctx context.Context) (map[string]int, error) {
	return s.countMap(ctx, `SELECT cliniccode::text, COUNT(*) FROM plans GROUP BY cliniccode`)
}

func (s *PostgresStore) countMap(ctx context.Context, sql string, args ...any) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query counts")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan count")
		}
		counts[key] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count rows")
}

func (s *PostgresStore) VisitCountsByUserName(ctx context.Context, from, to time.Time) (map[string]int, error) {
	return s.countMap(ctx, `
SELECT u.name, COUNT(r.id)
FROM reports r
JOIN plans p ON r.idplan = p.id
JOIN users u ON p.userid = u.id
WHERE p.date BETWEEN $1 AND $2
GROUP BY u.name`, from, to)
}

func (s *PostgresStore) TransactionStats(ctx context.Context, from, to time.Time) ([]PerformanceRow, error) {
	rows, err := s.pool.Query(ctx, `
SELECT salesman_name, COUNT(*),
       COALESCE(CAST(SUM(amount * qty) AS BIGINT), 0)
FROM transactions
WHERE inv_date BETWEEN $1 AND $2
  AND salesman_name IS NOT NULL AND salesman_name != ''
GROUP BY salesman_name`, from, to)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query transaction stats")
	}
	defer rows.Close()

	var stats []PerformanceRow
	for rows.Next() {
		var r PerformanceRow
		if err := rows.Scan(&r.RawName, &r.Transactions, &r.Revenue); err != nil {
			return nil, eris.Wrap(err, "postgres: scan transaction stat")
		}
		stats = append(stats, r)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: transaction stat rows")
}

func (s *PostgresStore) TopProductByUnits(ctx context.Context, from, to time.Time) (*TopProduct, error) {
	rows, err := s.pool.Query(ctx, `
SELECT product, COALESCE(SUM(qty), 0) AS units
FROM transactions
WHERE inv_date BETWEEN $1 AND $2
GROUP BY product
ORDER BY units DESC
LIMIT 1`, from, to)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query top product")
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, eris.Wrap(rows.Err(), "postgres: top product rows")
	}
	var top TopProduct
	if err := rows.Scan(&top.Name, &top.Units); err != nil {
		return nil, eris.Wrap(err, "postgres: scan top product")
	}
	return &top, nil
}
