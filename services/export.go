package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/LovationAdmin/trainer-api/models"
	"github.com/LovationAdmin/trainer-api/utils"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// exportTxOptions gives the three export reads one consistent snapshot.
var exportTxOptions = &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}

// Export reads every client with its full ledger history. Clients come
// oldest first; ledgers are grouped by client id with the latest entry first.
// All reads share one snapshot, so every ledger group has its client.
func (s *ClientService) Export(ctx context.Context) (*models.ExportData, error) {
	var data *models.ExportData
	err := utils.WithTransactionOptions(ctx, s.db, exportTxOptions, func(tx *sql.Tx) error {
		var err error
		data, err = readExport(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func readExport(ctx context.Context, tx *sql.Tx) (*models.ExportData, error) {
	clients, err := queryClients(ctx, tx, `SELECT `+clientColumns+` FROM clients ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}

	data := &models.ExportData{
		Clients:          clients,
		ChecksByClient:   map[int64][]models.Check{},
		PaymentsByClient: map[int64][]models.Payment{},
	}

	checkRows, err := tx.QueryContext(ctx, `
		SELECT id, client_id, check_date, created_at
		FROM client_checks
		ORDER BY client_id, check_date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to export checks: %w", err)
	}
	checks, err := scanChecks(checkRows)
	checkRows.Close()
	if err != nil {
		return nil, err
	}
	for _, ch := range checks {
		data.ChecksByClient[ch.ClientID] = append(data.ChecksByClient[ch.ClientID], ch)
	}

	paymentRows, err := tx.QueryContext(ctx, `
		SELECT id, client_id, payment_date, amount, created_at
		FROM client_payments
		ORDER BY client_id, payment_date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to export payments: %w", err)
	}
	payments, err := scanPayments(paymentRows)
	paymentRows.Close()
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		data.PaymentsByClient[p.ClientID] = append(data.PaymentsByClient[p.ClientID], p)
	}

	return data, nil
}

// FinanceSummary totals revenue for the finance view.
func (s *ClientService) FinanceSummary(ctx context.Context, target decimal.Decimal) (*models.FinanceSummary, error) {
	clients, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	summary := Summarize(clients, target)
	return &summary, nil
}

// ============================================================================
// XLSX
// ============================================================================

const (
	SheetClients  = "Clients"
	SheetPayments = "Payments"
	SheetChecks   = "Checks"
)

var (
	clientHeaders = []string{
		"ID", "First name", "Last name", "Email", "Phone", "Service", "Price",
		"Program start", "Duration (weeks)", "Active", "Last payment",
		"Next due", "Last check", "Check required", "Notes",
	}
	paymentHeaders = []string{"ID", "Client ID", "Client", "Date", "Amount"}
	checkHeaders   = []string{"ID", "Client ID", "Client", "Date"}
)

func nullDateCell(d models.NullDate) string {
	if !d.Valid {
		return ""
	}
	return d.Date.String()
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// WriteWorkbook renders data as an xlsx workbook with one sheet per table.
func WriteWorkbook(data *models.ExportData, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetClients); err != nil {
		return fmt.Errorf("failed to create clients sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetPayments); err != nil {
		return fmt.Errorf("failed to create payments sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetChecks); err != nil {
		return fmt.Errorf("failed to create checks sheet: %w", err)
	}

	for sheet, headers := range map[string][]string{
		SheetClients:  clientHeaders,
		SheetPayments: paymentHeaders,
		SheetChecks:   checkHeaders,
	} {
		if err := writeHeader(f, sheet, headers); err != nil {
			return fmt.Errorf("failed to write %s header: %w", sheet, err)
		}
	}

	names := make(map[int64]string, len(data.Clients))
	paymentRow, checkRow := 2, 2
	for i, c := range data.Clients {
		names[c.ID] = c.FirstName + " " + c.LastName
		price, _ := c.ServicePrice.Float64()
		err := writeRow(f, SheetClients, i+2, []interface{}{
			c.ID, c.FirstName, c.LastName, c.Email, c.Phone, string(c.ServiceType), price,
			nullDateCell(c.ProgramStartDate), c.ProgramDurationWeeks, c.IsActive,
			nullDateCell(c.LastPaymentDate), nullDateCell(c.NextPaymentDueDate),
			nullDateCell(c.LastCheckDate), c.CheckRequired, c.Notes,
		})
		if err != nil {
			return fmt.Errorf("failed to write client row: %w", err)
		}

		for _, p := range data.PaymentsByClient[c.ID] {
			amount, _ := p.Amount.Float64()
			if err := writeRow(f, SheetPayments, paymentRow, []interface{}{
				p.ID, p.ClientID, names[c.ID], p.PaymentDate.String(), amount,
			}); err != nil {
				return fmt.Errorf("failed to write payment row: %w", err)
			}
			paymentRow++
		}
		for _, ch := range data.ChecksByClient[c.ID] {
			if err := writeRow(f, SheetChecks, checkRow, []interface{}{
				ch.ID, ch.ClientID, names[c.ID], ch.CheckDate.String(),
			}); err != nil {
				return fmt.Errorf("failed to write check row: %w", err)
			}
			checkRow++
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
