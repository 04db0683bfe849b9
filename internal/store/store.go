// Package store provides read access to the reference registry and the raw
// transactional ledger. The resolution engine never opens connections
// itself; a Store is injected at pass start and each pass treats the data it
// reads as an immutable snapshot.
package store

import (
	"context"
	"time"

	"github.com/sells-group/fieldsight/internal/model"
)

// Directory is the reference data provider: canonical entities used to
// build per-pass resolution indexes.
type Directory interface {
	Users(ctx context.Context) ([]model.User, error)
	Customers(ctx context.Context) ([]model.Customer, error)
	// AccCustomers maps the accounting system's customer id (cid) to its
	// recorded customer name.
	AccCustomers(ctx context.Context) (map[string]string, error)
	Products(ctx context.Context) ([]model.Product, error)
	Clinics(ctx context.Context) ([]model.Clinic, error)
}

// PerformanceRow is one raw salesperson row from the date-ranged
// transaction aggregate.
type PerformanceRow struct {
	RawName      string
	Transactions int
	Revenue      int
}

// TopProduct is the highest-volume raw product name within a date range.
type TopProduct struct {
	Name  string
	Units int
}

// Ledger is the raw record provider: aggregated rows of free text plus a
// metric, straight from the transactional logs. Rows with blank raw text
// are filtered by the queries, not by the engine.
type Ledger interface {
	// SalesByRawName groups transaction counts by the raw salesman field.
	SalesByRawName(ctx context.Context) ([]model.RawMetric, error)
	// SalesByRawProduct groups units and revenue by raw item id + product text.
	SalesByRawProduct(ctx context.Context) ([]model.ProductMetric, error)
	// SalesByRawCustomer groups transaction counts by the raw customer id.
	SalesByRawCustomer(ctx context.Context) ([]model.RawMetric, error)
	// PlansByUser counts planned visits per registry user id.
	PlansByUser(ctx context.Context) ([]model.IDMetric, error)
	// ReportsByUser counts completed visit reports per registry user id.
	ReportsByUser(ctx context.Context) ([]model.IDMetric, error)
	// VisitsByCustomerCode counts planned visits per customer registry id.
	VisitsByCustomerCode(ctx context.Context) (map[string]int, error)
	// VisitsByClinicCode counts planned visits per clinic registry id.
	VisitsByClinicCode(ctx context.Context) (map[string]int, error)

	// Date-ranged sources for the best performers report.
	VisitCountsByUserName(ctx context.Context, from, to time.Time) (map[string]int, error)
	TransactionStats(ctx context.Context, from, to time.Time) ([]PerformanceRow, error)
	TopProductByUnits(ctx context.Context, from, to time.Time) (*TopProduct, error)
}

// Store bundles both providers behind one connection.
type Store interface {
	Directory
	Ledger
	Close() error
}
