package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fieldsight/internal/report"
)

var (
	reportOut  string
	reportFrom string
	reportTo   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run a resolution report pass",
}

// runReport opens the store, runs one pass, and prints or exports the table.
func runReport(cmd *cobra.Command, build func(*report.Engine) (*report.Table, error)) error {
	if err := cfg.Validate("report"); err != nil {
		return err
	}

	st, err := initStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	table, err := build(newEngine(st))
	if err != nil {
		return err
	}

	if reportOut != "" {
		if err := report.WriteXLSX(reportOut, table); err != nil {
			return err
		}
		zap.L().Info("report exported", zap.String("path", reportOut))
		return nil
	}
	fmt.Print(table.Markdown())
	return nil
}

var reportSalesCmd = &cobra.Command{
	Use:   "sales",
	Short: "Transaction counts per salesperson",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(e *report.Engine) (*report.Table, error) {
			rows, err := e.SalesBySalesperson(cmd.Context())
			if err != nil {
				return nil, err
			}
			return report.RowsTable("Sales by Salesperson", "Transactions", rows), nil
		})
	},
}

var reportCustomersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Transaction counts per customer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(e *report.Engine) (*report.Table, error) {
			rows, err := e.CustomerTransactions(cmd.Context())
			if err != nil {
				return nil, err
			}
			return report.RowsTable("Transactions by Customer", "Transactions", rows), nil
		})
	},
}

var reportProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "Units and revenue per product",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(e *report.Engine) (*report.Table, error) {
			rows, err := e.ProductSales(cmd.Context())
			if err != nil {
				return nil, err
			}
			return report.ProductTable(rows), nil
		})
	},
}

var reportPlansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Planned visits per salesperson",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(e *report.Engine) (*report.Table, error) {
			rows, err := e.PlansBySalesperson(cmd.Context())
			if err != nil {
				return nil, err
			}
			return report.RowsTable("Planned Visits by Salesperson", "Plans", rows), nil
		})
	},
}

var reportVisitsCmd = &cobra.Command{
	Use:   "visits",
	Short: "Completed visit reports per salesperson",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(e *report.Engine) (*report.Table, error) {
			rows, err := e.ReportsBySalesperson(cmd.Context())
			if err != nil {
				return nil, err
			}
			return report.RowsTable("Completed Visits by Salesperson", "Reports", rows), nil
		})
	},
}

var reportCustomerVisitsCmd = &cobra.Command{
	Use:   "customer-visits",
	Short: "Planned visits per deduplicated customer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(e *report.Engine) (*report.Table, error) {
			rows, err := e.VisitsByCustomer(cmd.Context())
			if err != nil {
				return nil, err
			}
			return report.ClusterTable("Visits by Customer", rows), nil
		})
	},
}

var reportClinicVisitsCmd = &cobra.Command{
	Use:   "clinic-visits",
	Short: "Planned visits per deduplicated clinic",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(e *report.Engine) (*report.Table, error) {
			rows, err := e.VisitsByClinic(cmd.Context())
			if err != nil {
				return nil, err
			}
			return report.ClusterTable("Visits by Clinic", rows), nil
		})
	},
}

var reportScorecardCmd = &cobra.Command{
	Use:   "scorecard",
	Short: "Planned vs completed vs closed funnel per salesperson",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(e *report.Engine) (*report.Table, error) {
			rows, err := e.Scorecard(cmd.Context())
			if err != nil {
				return nil, err
			}
			return report.ScorecardTable(rows), nil
		})
	},
}

var reportBestCmd = &cobra.Command{
	Use:   "best",
	Short: "Best performers in a date range (default: trailing 30 days)",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := parseReportRange()
		if err != nil {
			return err
		}
		return runReport(cmd, func(e *report.Engine) (*report.Table, error) {
			perf, err := e.BestPerformers(cmd.Context(), from, to)
			if err != nil {
				return nil, err
			}
			return report.PerformanceTable(perf), nil
		})
	},
}

func parseReportRange() (from, to time.Time, err error) {
	if reportFrom != "" {
		if from, err = time.Parse(time.DateOnly, reportFrom); err != nil {
			return from, to, eris.Wrap(err, "parse --from")
		}
	}
	if reportTo != "" {
		if to, err = time.Parse(time.DateOnly, reportTo); err != nil {
			return from, to, eris.Wrap(err, "parse --to")
		}
	}
	return from, to, nil
}

func init() {
	reportCmd.PersistentFlags().StringVar(&reportOut, "out", "", "write xlsx to this path instead of printing markdown")
	reportBestCmd.Flags().StringVar(&reportFrom, "from", "", "range start (YYYY-MM-DD)")
	reportBestCmd.Flags().StringVar(&reportTo, "to", "", "range end (YYYY-MM-DD)")

	reportCmd.AddCommand(
		reportSalesCmd,
		reportCustomersCmd,
		reportProductsCmd,
		reportPlansCmd,
		reportVisitsCmd,
		reportCustomerVisitsCmd,
		reportClinicVisitsCmd,
		reportScorecardCmd,
		reportBestCmd,
	)
	rootCmd.AddCommand(reportCmd)
}
