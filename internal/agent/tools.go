package agent

import (
	"context"
	"encoding/json"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldsight/internal/report"
)

const (
	toolSalesBySalesperson   = "sales_by_salesperson"
	toolCustomerTransactions = "customer_transactions"
	toolProductSales         = "product_sales"
	toolPlansBySalesperson   = "plans_by_salesperson"
	toolReportsBySalesperson = "reports_by_salesperson"
	toolVisitsByCustomer     = "visits_by_customer"
	toolVisitsByClinic       = "visits_by_clinic"
	toolScorecard            = "scorecard"
	toolBestPerformers       = "best_performers"
)

func reportTools() []sdk.ToolUnionParam {
	noArgs := sdk.ToolInputSchemaParam{Properties: map[string]any{}}
	tool := func(name, description string, schema sdk.ToolInputSchemaParam) sdk.ToolUnionParam {
		return sdk.ToolUnionParam{OfTool: &sdk.ToolParam{
			Name:        name,
			Description: sdk.String(description),
			InputSchema: schema,
		}}
	}

	return []sdk.ToolUnionParam{
		tool(toolSalesBySalesperson,
			"Transaction counts per salesperson, resolved from raw salesman names.", noArgs),
		tool(toolCustomerTransactions,
			"Transaction counts per customer, linked through the accounting registry.", noArgs),
		tool(toolProductSales,
			"Units and revenue per canonical product.", noArgs),
		tool(toolPlansBySalesperson,
			"Planned visit counts per salesperson.", noArgs),
		tool(toolReportsBySalesperson,
			"Completed visit report counts per salesperson.", noArgs),
		tool(toolVisitsByCustomer,
			"Planned visits per deduplicated customer.", noArgs),
		tool(toolVisitsByClinic,
			"Planned visits per deduplicated clinic, grouped by city.", noArgs),
		tool(toolScorecard,
			"Planned vs completed vs closed funnel per salesperson.", noArgs),
		tool(toolBestPerformers,
			"Ranked salesperson performance in a date range; defaults to the trailing 30 days.",
			sdk.ToolInputSchemaParam{Properties: map[string]any{
				"from": map[string]any{"type": "string", "description": "Start date, YYYY-MM-DD."},
				"to":   map[string]any{"type": "string", "description": "End date, YYYY-MM-DD."},
			}}),
	}
}

// dispatch executes one tool invocation against the report engine and
// renders the result as a markdown table.
func (a *Agent) dispatch(ctx context.Context, inv ToolInvocation) (string, error) {
	switch inv.Name {
	case toolSalesBySalesperson:
		rows, err := a.engine.SalesBySalesperson(ctx)
		if err != nil {
			return "", err
		}
		return report.RowsTable("Sales by Salesperson", "Transactions", rows).Markdown(), nil
	case toolCustomerTransactions:
		rows, err := a.engine.CustomerTransactions(ctx)
		if err != nil {
			return "", err
		}
		return report.RowsTable("Transactions by Customer", "Transactions", rows).Markdown(), nil
	case toolProductSales:
		rows, err := a.engine.ProductSales(ctx)
		if err != nil {
			return "", err
		}
		return report.ProductTable(rows).Markdown(), nil
	case toolPlansBySalesperson:
		rows, err := a.engine.PlansBySalesperson(ctx)
		if err != nil {
			return "", err
		}
		return report.RowsTable("Planned Visits by Salesperson", "Plans", rows).Markdown(), nil
	case toolReportsBySalesperson:
		rows, err := a.engine.ReportsBySalesperson(ctx)
		if err != nil {
			return "", err
		}
		return report.RowsTable("Completed Visits by Salesperson", "Reports", rows).Markdown(), nil
	case toolVisitsByCustomer:
		rows, err := a.engine.VisitsByCustomer(ctx)
		if err != nil {
			return "", err
		}
		return report.ClusterTable("Visits by Customer", rows).Markdown(), nil
	case toolVisitsByClinic:
		rows, err := a.engine.VisitsByClinic(ctx)
		if err != nil {
			return "", err
		}
		return report.ClusterTable("Visits by Clinic", rows).Markdown(), nil
	case toolScorecard:
		rows, err := a.engine.Scorecard(ctx)
		if err != nil {
			return "", err
		}
		return report.ScorecardTable(rows).Markdown(), nil
	case toolBestPerformers:
		from, to, err := parseRange(inv.Args)
		if err != nil {
			return "", err
		}
		perf, err := a.engine.BestPerformers(ctx, from, to)
		if err != nil {
			return "", err
		}
		return report.PerformanceTable(perf).Markdown(), nil
	}
	return "", eris.Errorf("agent: unknown tool %q", inv.Name)
}

func parseRange(args json.RawMessage) (from, to time.Time, err error) {
	var in struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return from, to, eris.Wrap(err, "agent: parse date range")
		}
	}
	if in.From != "" {
		if from, err = time.Parse(time.DateOnly, in.From); err != nil {
			return from, to, eris.Wrap(err, "agent: parse from date")
		}
	}
	if in.To != "" {
		if to, err = time.Parse(time.DateOnly, in.To); err != nil {
			return from, to, eris.Wrap(err, "agent: parse to date")
		}
	}
	return from, to, nil
}
