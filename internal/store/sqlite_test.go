package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "fieldsight.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedSQLite(t *testing.T, s *SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	stmts := []string{
		`INSERT INTO users (id, username, name) VALUES
			(1, 'PS100', 'Gladys Hartono'),
			(2, 'DC214', 'Bryan Wijaya')`,
		`INSERT INTO customers (id, custname, phone) VALUES
			(10, 'drg. Budi Santoso', '0812000111'),
			(11, 'Budi Santoso', NULL)`,
		`INSERT INTO acc_customers (cid, cust_name) VALUES
			('C-010 ', 'Budi Santoso'),
			('', 'dropped')`,
		`INSERT INTO products (id, prodname) VALUES
			(100, 'Angel Aligner Select')`,
		`INSERT INTO clinics (id, clinicname, citycode) VALUES
			(50, 'Klinik Sehat Selalu', 'JKT')`,
		`INSERT INTO plans (id, userid, custcode, cliniccode, date) VALUES
			(1, 1, 10, 50, '2026-07-03'),
			(2, 1, 11, 50, '2026-07-10'),
			(3, 2, 10, 50, '2026-08-01')`,
		`INSERT INTO reports (id, idplan, visitnote) VALUES
			(1, 1, 'intro visit'),
			(2, 2, 'follow up')`,
		`INSERT INTO transactions (salesman_name, cust_id, item_id, product, qty, amount, inv_date) VALUES
			('PS100 Gladys', ' C-010', '100', 'Angel Aligner Select v2', 2, 500, '2026-07-05'),
			('PS100 Gladys', 'C-010', '100', 'Angel Aligner Select v2', 1, 500, '2026-07-20'),
			('Bryan / Wilson', 'C-011', '', 'Mystery Gadget', 5, 10, '2026-08-02'),
			('', 'C-011', '', 'No Salesman', 1, 1, '2026-07-06')`,
	}
	for _, stmt := range stmts {
		_, err := s.DB().ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
}

func TestSQLiteDirectory(t *testing.T) {
	s := newTestSQLite(t)
	seedSQLite(t, s)
	ctx := context.Background()

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "1", users[0].ID)
	assert.Equal(t, "PS100", users[0].Code)

	customers, err := s.Customers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "0812000111", customers[0].Phone)
	assert.Equal(t, "", customers[1].Phone)

	acc, err := s.AccCustomers(ctx)
	require.NoError(t, err)
	// Blank cids are filtered and stored ids are trimmed.
	require.Len(t, acc, 1)
	assert.Equal(t, "Budi Santoso", acc["C-010"])

	clinics, err := s.Clinics(ctx)
	require.NoError(t, err)
	require.Len(t, clinics, 1)
	assert.Equal(t, "JKT", clinics[0].CityCode)
}

func TestSQLiteSalesByRawName(t *testing.T) {
	s := newTestSQLite(t)
	seedSQLite(t, s)

	metrics, err := s.SalesByRawName(context.Background())
	require.NoError(t, err)

	byRaw := map[string]int{}
	for _, m := range metrics {
		byRaw[m.Raw] = m.Metric
	}
	assert.Equal(t, map[string]int{
		"PS100 Gladys":   2,
		"Bryan / Wilson": 1,
	}, byRaw)
}

func TestSQLiteSalesByRawCustomerTrims(t *testing.T) {
	s := newTestSQLite(t)
	seedSQLite(t, s)

	metrics, err := s.SalesByRawCustomer(context.Background())
	require.NoError(t, err)

	byRaw := map[string]int{}
	for _, m := range metrics {
		byRaw[m.Raw] = m.Metric
	}
	// ' C-010' and 'C-010' collapse into one group after TRIM.
	assert.Equal(t, 2, byRaw["C-010"])
	assert.Equal(t, 2, byRaw["C-011"])
}

func TestSQLiteSalesByRawProduct(t *testing.T) {
	s := newTestSQLite(t)
	seedSQLite(t, s)

	metrics, err := s.SalesByRawProduct(context.Background())
	require.NoError(t, err)

	var aligner *struct{ units, revenue int }
	for _, m := range metrics {
		if m.ItemID == "100" {
			aligner = &struct{ units, revenue int }{m.Units, m.Revenue}
		}
	}
	require.NotNil(t, aligner)
	assert.Equal(t, 3, aligner.units)
	assert.Equal(t, 1000, aligner.revenue)
}

func TestSQLitePlanAndReportCounts(t *testing.T) {
	s := newTestSQLite(t)
	seedSQLite(t, s)
	ctx := context.Background()

	plans, err := s.PlansByUser(ctx)
	require.NoError(t, err)
	planned := map[string]int{}
	for _, m := range plans {
		planned[m.ID] = m.Metric
	}
	assert.Equal(t, map[string]int{"1": 2, "2": 1}, planned)

	reports, err := s.ReportsByUser(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "1", reports[0].ID)
	assert.Equal(t, 2, reports[0].Metric)

	visits, err := s.VisitsByCustomerCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"10": 2, "11": 1}, visits)

	clinicVisits, err := s.VisitsByClinicCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"50": 3}, clinicVisits)
}

func TestSQLiteDateRangedQueries(t *testing.T) {
	s := newTestSQLite(t)
	seedSQLite(t, s)
	ctx := context.Background()
	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	visits, err := s.VisitCountsByUserName(ctx, from, to)
	require.NoError(t, err)
	// Both July reports belong to Gladys; Bryan's plan has no report.
	assert.Equal(t, map[string]int{"Gladys Hartono": 2}, visits)

	stats, err := s.TransactionStats(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "PS100 Gladys", stats[0].RawName)
	assert.Equal(t, 2, stats[0].Transactions)
	assert.Equal(t, 1500, stats[0].Revenue)

	top, err := s.TopProductByUnits(ctx, from, to)
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, "Angel Aligner Select v2", top.Name)
	assert.Equal(t, 3, top.Units)
}

func TestSQLiteTopProductEmptyRange(t *testing.T) {
	s := newTestSQLite(t)
	seedSQLite(t, s)
	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)

	top, err := s.TopProductByUnits(context.Background(), from, to)
	require.NoError(t, err)
	assert.Nil(t, top)
}
