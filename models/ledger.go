package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID          int64           `json:"id"`
	ClientID    int64           `json:"client_id"`
	PaymentDate Date            `json:"payment_date"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Check struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	CheckDate Date      `json:"check_date"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportData is the full snapshot returned by export_data. Ledger maps are
// keyed by client id.
type ExportData struct {
	Clients          []Client            `json:"clients"`
	ChecksByClient   map[int64][]Check   `json:"checks_by_client"`
	PaymentsByClient map[int64][]Payment `json:"payments_by_client"`
}

type FinanceSummary struct {
	TotalClients   int             `json:"total_clients"`
	ActiveClients  int             `json:"active_clients"`
	AnnualRevenue  decimal.Decimal `json:"annual_revenue"`
	MonthlyTotal   decimal.Decimal `json:"monthly_total"`
	RevenueTarget  decimal.Decimal `json:"revenue_target"`
	TargetProgress float64         `json:"target_progress"`
}
