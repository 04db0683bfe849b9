package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Table is a rendered report ready for markdown or xlsx output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Markdown renders the table as a pipe-delimited markdown block with the
// title as a heading.
func (t *Table) Markdown() string {
	var b strings.Builder
	if t.Title != "" {
		b.WriteString("## ")
		b.WriteString(t.Title)
		b.WriteString("\n\n")
	}
	b.WriteString("| ")
	b.WriteString(strings.Join(t.Headers, " | "))
	b.WriteString(" |\n|")
	for range t.Headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range t.Rows {
		b.WriteString("| ")
		b.WriteString(strings.Join(row, " | "))
		b.WriteString(" |\n")
	}
	return b.String()
}

// RowsTable lays out a simple name+metric report.
func RowsTable(title, metricHeader string, rows []Row) *Table {
	t := &Table{Title: title, Headers: []string{"Name", metricHeader}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Name, strconv.Itoa(r.Metric)})
	}
	return t
}

// ProductTable lays out the product sales report.
func ProductTable(rows []ProductRow) *Table {
	t := &Table{Title: "Product Sales", Headers: []string{"Product", "Units", "Revenue"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Name, strconv.Itoa(r.Units), strconv.Itoa(r.Revenue)})
	}
	return t
}

// ClusterTable lays out a clustered visit report. The locality column is
// included only when any row carries one.
func ClusterTable(title string, rows []ClusterRow) *Table {
	withLocality := false
	for _, r := range rows {
		if r.Locality != "" {
			withLocality = true
			break
		}
	}

	t := &Table{Title: title}
	if withLocality {
		t.Headers = []string{"Name", "City", "IDs", "Visits"}
		for _, r := range rows {
			t.Rows = append(t.Rows, []string{r.Name, r.Locality, r.IDs, strconv.Itoa(r.Metric)})
		}
		return t
	}
	t.Headers = []string{"Name", "IDs", "Visits"}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Name, r.IDs, strconv.Itoa(r.Metric)})
	}
	return t
}

// ScorecardTable lays out the salesperson funnel scorecard.
func ScorecardTable(rows []ScorecardRow) *Table {
	t := &Table{
		Title:   "Salesperson Scorecard",
		Headers: []string{"Name", "Planned", "Visited", "Transactions", "Visit Rate", "Close Rate"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Name,
			strconv.Itoa(r.Planned),
			strconv.Itoa(r.Visited),
			strconv.Itoa(r.Transactions),
			formatRate(r.VisitRate),
			formatRate(r.CloseRate),
		})
	}
	return t
}

// PerformanceTable lays out the best performers report, with the date range
// in the title and the top product appended as a footer row.
func PerformanceTable(p *Performance) *Table {
	t := &Table{
		Title: fmt.Sprintf("Best Performers %s to %s",
			p.From.Format(time.DateOnly), p.To.Format(time.DateOnly)),
		Headers: []string{"Name", "Visits", "Transactions", "Revenue", "Conversion"},
	}
	for _, r := range p.Rows {
		t.Rows = append(t.Rows, []string{
			r.Name,
			strconv.Itoa(r.Visits),
			strconv.Itoa(r.Transactions),
			strconv.Itoa(r.Revenue),
			formatRate(r.Conversion),
		})
	}
	if p.TopProduct != "" {
		t.Rows = append(t.Rows, []string{
			"Top product: " + p.TopProduct, strconv.Itoa(p.TopUnits), "", "", "",
		})
	}
	return t
}

func formatRate(r float64) string {
	return fmt.Sprintf("%.0f%%", r*100)
}
