// migration/import_legacy.go
// Loads a JSON snapshot produced by the previous dashboard's export_data
// action into the current schema.
//
// USAGE:
//   trainer-api import-legacy export.json

package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/LovationAdmin/trainer-api/models"
	"github.com/LovationAdmin/trainer-api/services"
	"github.com/LovationAdmin/trainer-api/utils"

	"github.com/shopspring/decimal"
)

// legacyTimestampLayouts covers MySQL DATETIME and RFC3339 values.
var legacyTimestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	models.DateLayout,
}

// LegacyTimestamp is a created_at value as the old export wrote it.
type LegacyTimestamp struct {
	Time  time.Time
	Valid bool
}

func (t *LegacyTimestamp) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == nil || *s == "" {
		*t = LegacyTimestamp{}
		return nil
	}
	for _, layout := range legacyTimestampLayouts {
		if parsed, err := time.Parse(layout, *s); err == nil {
			*t = LegacyTimestamp{Time: parsed, Valid: true}
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", *s)
}

func (t LegacyTimestamp) or(fallback time.Time) time.Time {
	if t.Valid {
		return t.Time
	}
	return fallback
}

// LegacyClient is one row of the old clients table. Every scalar may arrive
// as a string. The old payment and check cursors are not read; they are
// rebuilt from the ledgers.
type LegacyClient struct {
	ID                   models.FlexInt  `json:"id"`
	FirstName            string          `json:"first_name"`
	LastName             string          `json:"last_name"`
	Email                string          `json:"email"`
	Phone                string          `json:"phone"`
	ServiceType          string          `json:"service_type"`
	ServicePrice         decimal.Decimal `json:"service_price"`
	ProgramStartDate     models.NullDate `json:"program_start_date"`
	ProgramDurationWeeks models.FlexInt  `json:"program_duration_weeks"`
	Notes                string          `json:"notes"`
	IsActive             models.FlexBool `json:"is_active"`
	CreatedAt            LegacyTimestamp `json:"created_at"`
}

type LegacyCheck struct {
	CheckDate models.Date     `json:"check_date"`
	CreatedAt LegacyTimestamp `json:"created_at"`
}

type LegacyPayment struct {
	PaymentDate models.Date     `json:"payment_date"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   LegacyTimestamp `json:"created_at"`
}

// LegacyExport is the old export_data payload. Ledger maps are keyed by the
// old client id.
type LegacyExport struct {
	Clients          []LegacyClient             `json:"clients"`
	ChecksByClient   map[string][]LegacyCheck   `json:"checks_by_client"`
	PaymentsByClient map[string][]LegacyPayment `json:"payments_by_client"`
}

// ImportResult counts what was written.
type ImportResult struct {
	Clients  int
	Payments int
	Checks   int
}

// DecodeLegacyExport parses the payload and rejects ledgers that point at no
// client.
func DecodeLegacyExport(r io.Reader) (*LegacyExport, error) {
	var export LegacyExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to decode legacy export: %w", err)
	}

	known := make(map[string]bool, len(export.Clients))
	for _, c := range export.Clients {
		if c.ID <= 0 {
			return nil, fmt.Errorf("legacy client without id")
		}
		known[strconv.FormatInt(int64(c.ID), 10)] = true
	}
	for id := range export.ChecksByClient {
		if !known[id] {
			return nil, fmt.Errorf("checks reference unknown client %s", id)
		}
	}
	for id := range export.PaymentsByClient {
		if !known[id] {
			return nil, fmt.Errorf("payments reference unknown client %s", id)
		}
	}
	return &export, nil
}

// ImportLegacyExport writes every client with its ledgers in a single
// transaction. Billing and check cursors are recomputed from the imported
// ledgers; check_required holds when the latest check falls in now's month.
func ImportLegacyExport(ctx context.Context, db *sql.DB, r io.Reader, now time.Time) (*ImportResult, error) {
	export, err := DecodeLegacyExport(r)
	if err != nil {
		return nil, err
	}

	log.Printf("🚀 Importing %d legacy clients...", len(export.Clients))

	result := &ImportResult{}
	err = utils.WithTransaction(ctx, db, func(tx *sql.Tx) error {
		for _, lc := range export.Clients {
			oldID := strconv.FormatInt(int64(lc.ID), 10)
			if err := importClient(ctx, tx, lc, export.PaymentsByClient[oldID], export.ChecksByClient[oldID], now, result); err != nil {
				return fmt.Errorf("client %s: %w", oldID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📊 Imported %d clients, %d payments, %d checks", result.Clients, result.Payments, result.Checks)
	return result, nil
}

func importClient(ctx context.Context, tx *sql.Tx, lc LegacyClient, payments []LegacyPayment, checks []LegacyCheck, now time.Time, result *ImportResult) error {
	serviceType, err := models.ParseServiceType(lc.ServiceType)
	if err != nil {
		return err
	}
	c := models.Client{
		FirstName:            strings.TrimSpace(lc.FirstName),
		LastName:             strings.TrimSpace(lc.LastName),
		Email:                strings.TrimSpace(lc.Email),
		Phone:                strings.TrimSpace(lc.Phone),
		ServiceType:          serviceType,
		ServicePrice:         lc.ServicePrice,
		ProgramStartDate:     lc.ProgramStartDate,
		ProgramDurationWeeks: int(lc.ProgramDurationWeeks),
		Notes:                lc.Notes,
		IsActive:             bool(lc.IsActive),
	}

	for _, p := range payments {
		if !c.LastPaymentDate.Valid || p.PaymentDate.After(c.LastPaymentDate.Date.Time) {
			c.LastPaymentDate = models.DateOf(p.PaymentDate)
		}
	}
	c.NextPaymentDueDate = services.BillingCursor(c, c.LastPaymentDate)

	for _, ch := range checks {
		if !c.LastCheckDate.Valid || ch.CheckDate.After(c.LastCheckDate.Date.Time) {
			c.LastCheckDate = models.DateOf(ch.CheckDate)
		}
	}
	c.CheckRequired = c.LastCheckDate.Valid && services.InSameMonth(c.LastCheckDate.Date, now)

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO clients
			(first_name, last_name, email, phone,
			 service_type, service_price,
			 program_start_date, program_duration_weeks,
			 notes, is_active,
			 last_payment_date, next_payment_due_date,
			 last_check_date, check_required, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`,
		c.FirstName, c.LastName, c.Email, c.Phone,
		string(c.ServiceType), c.ServicePrice,
		c.ProgramStartDate, c.ProgramDurationWeeks,
		c.Notes, c.IsActive,
		c.LastPaymentDate, c.NextPaymentDueDate,
		c.LastCheckDate, c.CheckRequired, lc.CreatedAt.or(now),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert client: %w", err)
	}
	result.Clients++

	for _, p := range payments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO client_payments (client_id, payment_date, amount, created_at)
			VALUES ($1, $2, $3, $4)
		`, id, p.PaymentDate, p.Amount, p.CreatedAt.or(now))
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
		result.Payments++
	}

	for _, ch := range checks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO client_checks (client_id, check_date, created_at)
			VALUES ($1, $2, $3)
		`, id, ch.CheckDate, ch.CreatedAt.or(now))
		if err != nil {
			return fmt.Errorf("failed to insert check: %w", err)
		}
		result.Checks++
	}

	utils.LogClientAction("imported", id, "")
	return nil
}
