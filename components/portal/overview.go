package portal

import "fmt"

// Aggregate record keys of the overall section.
const (
	KeyTotalOrders   = "totalOrders"
	KeyTotalInvoices = "totalInvoices"
	KeyTotalSales    = "totalSales"
	KeyTotalPayments = "totalPayments"
	KeyBestPayment   = "bestPayment"
	KeyCurrency      = "currency"
)

// ChartPoint is one labelled value of a summary chart.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// Overview holds the aggregate figures behind the overall charts.
type Overview struct {
	TotalOrders   float64 `json:"total_orders"`
	TotalInvoices float64 `json:"total_invoices"`
	TotalSales    float64 `json:"total_sales"`
	TotalPayments float64 `json:"total_payments"`
	BestPayment   float64 `json:"best_payment"`
	Currency      string  `json:"currency"`
}

// OverviewFromRecords reads the first aggregate record. Non-numeric figures
// count as zero; a missing record or one without any figure is malformed.
func OverviewFromRecords(records []Record) (Overview, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return Overview{}, ErrMalformedAggregate
	}
	rec := records[0]
	found := false
	figure := func(key string) float64 {
		v, ok := rec.Float(key)
		if ok {
			found = true
		}
		return v
	}
	o := Overview{
		TotalOrders:   figure(KeyTotalOrders),
		TotalInvoices: figure(KeyTotalInvoices),
		TotalSales:    figure(KeyTotalSales),
		TotalPayments: figure(KeyTotalPayments),
		BestPayment:   figure(KeyBestPayment),
		Currency:      rec.String(KeyCurrency),
	}
	if !found {
		return Overview{}, fmt.Errorf("%w: no aggregate figures in %v", ErrMalformedAggregate, keysOf(rec))
	}
	return o, nil
}

// PiePoints returns the orders vs invoices split.
func (o Overview) PiePoints() []ChartPoint {
	return []ChartPoint{
		{Label: "Total Orders", Value: o.TotalOrders, Color: "#FF6384"},
		{Label: "Total Invoices", Value: o.TotalInvoices, Color: "#36A2EB"},
	}
}

// BarPoints returns the sales, payments and best payment figures.
func (o Overview) BarPoints() []ChartPoint {
	return []ChartPoint{
		{Label: "Total Sales", Value: o.TotalSales, Color: "#4BC0C0"},
		{Label: "Total Payments", Value: o.TotalPayments, Color: "#9966FF"},
		{Label: "Best Payment", Value: o.BestPayment, Color: "#FF9F40"},
	}
}

// DashboardStats are the record counts shown on the dashboard cards.
type DashboardStats struct {
	Inquiries  int `json:"inquiries"`
	Sales      int `json:"sales"`
	Invoices   int `json:"invoices"`
	Deliveries int `json:"deliveries"`
}

func keysOf(rec Record) []string {
	out := make([]string, 0, len(rec))
	for k := range rec {
		out = append(out, k)
	}
	return out
}
