// Package report runs the resolution passes: it builds request-scoped
// indexes from a registry snapshot, streams raw ledger rows through the
// resolution cascades, and aggregates metrics per canonical entity.
package report

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/fieldsight/internal/model"
	"github.com/sells-group/fieldsight/internal/resolve"
	"github.com/sells-group/fieldsight/internal/store"
)

// Thresholds overrides the built-in cascade cutoffs. Zero fields keep the
// defaults from the resolve package.
type Thresholds struct {
	Person   float64
	Product  float64
	Customer float64
	Clinic   float64
}

// Engine executes report passes against injected providers. It holds no
// cached state; every pass rebuilds its indexes from a fresh snapshot.
type Engine struct {
	dir store.Directory
	led store.Ledger
	th  Thresholds
}

func NewEngine(dir store.Directory, led store.Ledger) *Engine {
	return &Engine{dir: dir, led: led}
}

// SetThresholds applies configured cutoff overrides to subsequent passes.
func (e *Engine) SetThresholds(th Thresholds) { e.th = th }

func (e *Engine) userIndex(users []model.User) *resolve.Index {
	ix := resolve.NewIndex(users)
	if e.th.Person > 0 {
		ix.Threshold = e.th.Person
	}
	return ix
}

func (e *Engine) productIndex(products []model.Product) *resolve.ProductIndex {
	ix := resolve.NewProductIndex(products)
	if e.th.Product > 0 {
		ix.Threshold = e.th.Product
	}
	return ix
}

func orDefault(override, def float64) float64 {
	if override > 0 {
		return override
	}
	return def
}

// Row is one aggregated output line: a display name and its metric total.
type Row struct {
	Name   string `json:"name"`
	Metric int    `json:"metric"`
}

// ProductRow carries the two product metrics.
type ProductRow struct {
	Name    string `json:"name"`
	Units   int    `json:"units"`
	Revenue int    `json:"revenue"`
}

// ClusterRow is one aggregated cluster: the display name, the registry ids
// folded into it, optional locality, and the metric total.
type ClusterRow struct {
	Name     string `json:"name"`
	IDs      string `json:"ids"`
	Locality string `json:"locality,omitempty"`
	Metric   int    `json:"metric"`
}

// ScorecardRow compares a salesperson's funnel stages.
type ScorecardRow struct {
	Name         string  `json:"name"`
	Planned      int     `json:"planned"`
	Visited      int     `json:"visited"`
	Transactions int     `json:"transactions"`
	VisitRate    float64 `json:"visit_rate"`
	CloseRate    float64 `json:"close_rate"`
}

// PerformerRow is one salesperson in the date-ranged performance report.
type PerformerRow struct {
	Name         string  `json:"name"`
	Visits       int     `json:"visits"`
	Transactions int     `json:"transactions"`
	Revenue      int     `json:"revenue"`
	Conversion   float64 `json:"conversion"`
}

// Performance is the best performers report for a date range.
type Performance struct {
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	Rows       []PerformerRow `json:"rows"`
	TopProduct string         `json:"top_product,omitempty"`
	TopUnits   int            `json:"top_units,omitempty"`
}

// SalesBySalesperson resolves the raw salesman field of every transaction
// group and totals transaction counts per salesperson. Multi-person fields
// are split first and each person receives the full metric. Unresolved
// tokens keep their volume under a "[NO CODE]" bucket row.
func (e *Engine) SalesBySalesperson(ctx context.Context) ([]Row, error) {
	users, err := e.dir.Users(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load users")
	}
	rows, err := e.led.SalesByRawName(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load raw sales")
	}

	ix := e.userIndex(users)
	totals := make(map[string]int)
	for _, rm := range rows {
		for _, person := range resolve.SplitPeople(rm.Raw) {
			res := ix.Resolve(person)
			if res.Resolved() {
				u, _ := ix.User(res.EntityID)
				totals[u.Name] += rm.Metric
				continue
			}
			totals["[NO CODE] "+res.Bucket] += rm.Metric
		}
	}

	zap.L().Debug("sales by salesperson resolved",
		zap.Int("raw_rows", len(rows)),
		zap.Int("output_rows", len(totals)))
	return sortRows(totals), nil
}

// Raw transaction customer ids sometimes carry a one-letter company prefix
// absent from the accounting registry.
var cidPrefixRe = regexp.MustCompile(`^[A-Za-z]-`)

// CustomerTransactions totals transaction counts per directory customer. The
// raw cid is looked up in the accounting registry for its recorded name,
// which is then fuzzy-linked to the customer directory. Unknown cids and
// unlinkable names keep their volume under "[Unknown ID]" and "[New]" rows.
func (e *Engine) CustomerTransactions(ctx context.Context) ([]Row, error) {
	customers, err := e.dir.Customers(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load customers")
	}
	acc, err := e.dir.AccCustomers(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load acc customers")
	}
	rows, err := e.led.SalesByRawCustomer(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load raw customer sales")
	}

	names := make([]string, len(customers))
	for i, c := range customers {
		names[i] = resolve.PersonName(c.Name)
	}

	totals := make(map[string]int)
	for _, rm := range rows {
		cid := strings.TrimSpace(rm.Raw)
		accName, ok := acc[cid]
		if !ok {
			accName, ok = acc[cidPrefixRe.ReplaceAllString(cid, "")]
		}
		if !ok {
			totals["[Unknown ID] "+cid] += rm.Metric
			continue
		}
		if m, found := resolve.BestMatch(resolve.PersonName(accName), names, resolve.AccNameThreshold); found {
			totals[customers[m.Index].Name] += rm.Metric
			continue
		}
		totals["[New] "+accName] += rm.Metric
	}
	return sortRows(totals), nil
}

// ProductSales totals units and revenue per canonical product through the
// three-tier product cascade.
func (e *Engine) ProductSales(ctx context.Context) ([]ProductRow, error) {
	products, err := e.dir.Products(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load products")
	}
	rows, err := e.led.SalesByRawProduct(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load raw product sales")
	}

	ix := e.productIndex(products)
	type tally struct{ units, revenue int }
	totals := make(map[string]*tally)
	add := func(key string, units, revenue int) {
		t := totals[key]
		if t == nil {
			t = &tally{}
			totals[key] = t
		}
		t.units += units
		t.revenue += revenue
	}

	for _, pm := range rows {
		res := ix.Resolve(pm.ItemID, pm.Raw)
		if res.Resolved() {
			p, _ := ix.Product(res.EntityID)
			add(p.Name, pm.Units, pm.Revenue)
			continue
		}
		add(res.Bucket, pm.Units, pm.Revenue)
	}

	out := make([]ProductRow, 0, len(totals))
	for name, t := range totals {
		out = append(out, ProductRow{Name: name, Units: t.units, Revenue: t.revenue})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// PlansBySalesperson totals planned visits per registry user.
func (e *Engine) PlansBySalesperson(ctx context.Context) ([]Row, error) {
	metrics, err := e.led.PlansByUser(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load plans")
	}
	return e.rowsByUser(ctx, metrics)
}

// ReportsBySalesperson totals completed visit reports per registry user.
func (e *Engine) ReportsBySalesperson(ctx context.Context) ([]Row, error) {
	metrics, err := e.led.ReportsByUser(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load visit reports")
	}
	return e.rowsByUser(ctx, metrics)
}

func (e *Engine) rowsByUser(ctx context.Context, metrics []model.IDMetric) ([]Row, error) {
	users, err := e.dir.Users(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load users")
	}
	byID := make(map[string]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.Name
	}

	totals := make(map[string]int)
	for _, m := range metrics {
		if name, ok := byID[m.ID]; ok {
			totals[name] += m.Metric
			continue
		}
		totals["[Unknown User] "+m.ID] += m.Metric
	}
	return sortRows(totals), nil
}

// VisitsByCustomer clusters the customer directory (contact wildcard rule,
// first-letter prefilter) and totals planned visits per cluster. Clusters
// with no visits are omitted.
func (e *Engine) VisitsByCustomer(ctx context.Context) ([]ClusterRow, error) {
	customers, err := e.dir.Customers(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load customers")
	}
	visits, err := e.led.VisitsByCustomerCode(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load customer visits")
	}

	members := make([]resolve.Member, len(customers))
	for i, c := range customers {
		members[i] = resolve.Member{
			ID:    c.ID,
			Name:  c.Name,
			Key:   resolve.PersonName(c.Name),
			Phone: resolve.Phone(c.Phone),
		}
	}
	clusters := resolve.Clusterize(members, resolve.ClusterOptions{
		Threshold:            orDefault(e.th.Customer, resolve.CustomerThreshold),
		FirstLetterPrefilter: true,
		PhoneWildcard:        true,
	})
	return clusterRows(clusters, visits, "; "), nil
}

// VisitsByClinic clusters the clinic directory within city partitions and
// totals planned visits per cluster.
func (e *Engine) VisitsByClinic(ctx context.Context) ([]ClusterRow, error) {
	clinics, err := e.dir.Clinics(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load clinics")
	}
	visits, err := e.led.VisitsByClinicCode(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load clinic visits")
	}

	members := make([]resolve.Member, len(clinics))
	for i, c := range clinics {
		members[i] = resolve.Member{
			ID:       c.ID,
			Name:     c.Name,
			Key:      resolve.FacilityName(c.Name),
			Locality: resolve.CityCode(c.CityCode),
		}
	}
	clusters := resolve.ClusterizeByLocality(members, resolve.ClusterOptions{
		Threshold: orDefault(e.th.Clinic, resolve.ClinicThreshold),
	})
	return clusterRows(clusters, visits, ", "), nil
}

// Scorecard compares planned visits, completed visits, and closed
// transactions per salesperson. The three sources are independent, so they
// are fetched concurrently.
func (e *Engine) Scorecard(ctx context.Context) ([]ScorecardRow, error) {
	var (
		users   []model.User
		plans   []model.IDMetric
		reports []model.IDMetric
		sales   []model.RawMetric
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { users, err = e.dir.Users(gctx); return })
	g.Go(func() (err error) { plans, err = e.led.PlansByUser(gctx); return })
	g.Go(func() (err error) { reports, err = e.led.ReportsByUser(gctx); return })
	g.Go(func() (err error) { sales, err = e.led.SalesByRawName(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "report: load scorecard sources")
	}

	ix := resolve.NewIndex(users)

	planned := make(map[string]int)
	for _, m := range plans {
		planned[m.ID] += m.Metric
	}
	visited := make(map[string]int)
	for _, m := range reports {
		visited[m.ID] += m.Metric
	}
	closed := make(map[string]int)
	for _, rm := range sales {
		for _, person := range resolve.SplitPeople(rm.Raw) {
			if res := ix.Resolve(person); res.Resolved() {
				closed[res.EntityID] += rm.Metric
			}
		}
	}

	rows := make([]ScorecardRow, 0, len(users))
	for _, u := range users {
		row := ScorecardRow{
			Name:         u.Name,
			Planned:      planned[u.ID],
			Visited:      visited[u.ID],
			Transactions: closed[u.ID],
		}
		if row.Planned+row.Visited+row.Transactions == 0 {
			continue
		}
		row.VisitRate = ratio(row.Visited, row.Planned)
		row.CloseRate = ratio(row.Transactions, row.Visited)
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Transactions != rows[j].Transactions {
			return rows[i].Transactions > rows[j].Transactions
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}

// DefaultRange is the trailing window used when a performance report is
// requested without explicit bounds.
func DefaultRange(now time.Time) (from, to time.Time) {
	return now.AddDate(0, 0, -30), now
}

// BestPerformers resolves date-ranged visit and transaction stats per
// salesperson and ranks them by revenue. Zero bounds fall back to the
// trailing thirty days.
func (e *Engine) BestPerformers(ctx context.Context, from, to time.Time) (*Performance, error) {
	if from.IsZero() && to.IsZero() {
		from, to = DefaultRange(time.Now())
	}

	var (
		users  []model.User
		visits map[string]int
		stats  []store.PerformanceRow
		top    *store.TopProduct
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { users, err = e.dir.Users(gctx); return })
	g.Go(func() (err error) { visits, err = e.led.VisitCountsByUserName(gctx, from, to); return })
	g.Go(func() (err error) { stats, err = e.led.TransactionStats(gctx, from, to); return })
	g.Go(func() (err error) { top, err = e.led.TopProductByUnits(gctx, from, to); return })
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "report: load performance sources")
	}

	ix := resolve.NewIndex(users)

	type tally struct{ transactions, revenue int }
	closed := make(map[string]*tally)
	for _, s := range stats {
		for _, person := range resolve.SplitPeople(s.RawName) {
			res := ix.Resolve(person)
			if !res.Resolved() {
				continue
			}
			t := closed[res.EntityID]
			if t == nil {
				t = &tally{}
				closed[res.EntityID] = t
			}
			t.transactions += s.Transactions
			t.revenue += s.Revenue
		}
	}

	perf := &Performance{From: from, To: to}
	for _, u := range users {
		t := closed[u.ID]
		v := visits[u.Name]
		if t == nil && v == 0 {
			continue
		}
		row := PerformerRow{Name: u.Name, Visits: v}
		if t != nil {
			row.Transactions = t.transactions
			row.Revenue = t.revenue
		}
		row.Conversion = ratio(row.Transactions, row.Visits)
		perf.Rows = append(perf.Rows, row)
	}
	sort.Slice(perf.Rows, func(i, j int) bool {
		if perf.Rows[i].Revenue != perf.Rows[j].Revenue {
			return perf.Rows[i].Revenue > perf.Rows[j].Revenue
		}
		return perf.Rows[i].Name < perf.Rows[j].Name
	})
	if top != nil {
		perf.TopProduct = top.Name
		perf.TopUnits = top.Units
	}
	return perf, nil
}

func clusterRows(clusters []*resolve.Cluster, visits map[string]int, idSep string) []ClusterRow {
	rows := make([]ClusterRow, 0, len(clusters))
	for _, c := range clusters {
		total := 0
		for _, id := range c.IDs() {
			total += visits[id]
		}
		if total == 0 {
			continue
		}
		rows = append(rows, ClusterRow{
			Name:     c.DisplayName(),
			IDs:      strings.Join(c.IDs(), idSep),
			Locality: c.Locality(),
			Metric:   total,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Metric != rows[j].Metric {
			return rows[i].Metric > rows[j].Metric
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

func sortRows(totals map[string]int) []Row {
	rows := make([]Row, 0, len(totals))
	for name, metric := range totals {
		rows = append(rows, Row{Name: name, Metric: metric})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Metric != rows[j].Metric {
			return rows[i].Metric > rows[j].Metric
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
