package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LovationAdmin/trainer-api/models"
	"github.com/LovationAdmin/trainer-api/utils"
)

type ledgerTable struct {
	name string
	kind string
}

var (
	paymentsTable = ledgerTable{name: "client_payments", kind: "payment"}
	checksTable   = ledgerTable{name: "client_checks", kind: "check"}
)

// lockLedgerEntry locks the owning client and then the entry itself. Delete
// takes the client lock before touching ledger rows too, so every path
// locks client then ledger.
func lockLedgerEntry(ctx context.Context, tx *sql.Tx, table ledgerTable, id int64) (*models.Client, error) {
	var clientID int64
	err := tx.QueryRowContext(ctx, `SELECT client_id FROM `+table.name+` WHERE id = $1`, id).Scan(&clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(table.kind, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", table.kind, err)
	}

	c, err := lockClient(ctx, tx, clientID)
	if err != nil {
		return nil, err
	}

	// the entry may have gone while we waited for the client
	var locked int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM `+table.name+` WHERE id = $1 AND client_id = $2 FOR UPDATE`, id, clientID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(table.kind, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", table.kind, err)
	}
	return c, nil
}

// ============================================================================
// PAYMENTS
// ============================================================================

// ListPayments returns a client's payment history, latest first.
func (s *ClientService) ListPayments(ctx context.Context, clientID int64) ([]models.Payment, error) {
	if clientID <= 0 {
		return nil, invalid("invalid client id")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, payment_date, amount, created_at
		FROM client_payments
		WHERE client_id = $1
		ORDER BY payment_date DESC, id DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	return scanPayments(rows)
}

func scanPayments(rows *sql.Rows) ([]models.Payment, error) {
	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.ClientID, &p.PaymentDate, &p.Amount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payments: %w", err)
	}
	return payments, nil
}

// DeletePayment removes one payment and recomputes the client's billing
// cursor from what is left. It returns the owning client id.
func (s *ClientService) DeletePayment(ctx context.Context, paymentID int64) (int64, error) {
	if paymentID <= 0 {
		return 0, invalid("invalid payment id")
	}

	var clientID int64
	err := utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		c, err := lockLedgerEntry(ctx, tx, paymentsTable, paymentID)
		if err != nil {
			return err
		}
		clientID = c.ID

		if _, err := tx.ExecContext(ctx, `DELETE FROM client_payments WHERE id = $1`, paymentID); err != nil {
			return fmt.Errorf("failed to delete payment: %w", err)
		}

		var last models.NullDate
		if err := tx.QueryRowContext(ctx, `SELECT MAX(payment_date) FROM client_payments WHERE client_id = $1`, clientID).Scan(&last); err != nil {
			return fmt.Errorf("failed to read last payment: %w", err)
		}

		next := BillingCursor(*c, last)
		_, err = tx.ExecContext(ctx, `
			UPDATE clients
			SET last_payment_date = $1,
			    next_payment_due_date = $2
			WHERE id = $3
		`, last, next, clientID)
		if err != nil {
			return fmt.Errorf("failed to update payment cursor: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	utils.LogClientAction("payment deleted", clientID, "")
	return clientID, nil
}

// BillingCursor derives the next due date from the latest remaining payment,
// falling back to the program start date.
func BillingCursor(c models.Client, last models.NullDate) models.NullDate {
	switch {
	case last.Valid:
		return models.DateOf(NextDueDate(last.Date, c.ServiceType))
	case c.ProgramStartDate.Valid:
		return models.DateOf(NextDueDate(c.ProgramStartDate.Date, c.ServiceType))
	default:
		return models.NullDate{}
	}
}

// ============================================================================
// CHECKS
// ============================================================================

// ListChecks returns a client's check history, latest first.
func (s *ClientService) ListChecks(ctx context.Context, clientID int64) ([]models.Check, error) {
	if clientID <= 0 {
		return nil, invalid("invalid client id")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, check_date, created_at
		FROM client_checks
		WHERE client_id = $1
		ORDER BY check_date DESC, id DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checks: %w", err)
	}
	defer rows.Close()

	return scanChecks(rows)
}

func scanChecks(rows *sql.Rows) ([]models.Check, error) {
	checks := []models.Check{}
	for rows.Next() {
		var ch models.Check
		if err := rows.Scan(&ch.ID, &ch.ClientID, &ch.CheckDate, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan check: %w", err)
		}
		checks = append(checks, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checks: %w", err)
	}
	return checks, nil
}

// DeleteCheck removes one check and recomputes last_check_date and
// check_required. The flag stays on only if the latest remaining check is in
// the current month.
func (s *ClientService) DeleteCheck(ctx context.Context, checkID int64) (int64, error) {
	if checkID <= 0 {
		return 0, invalid("invalid check id")
	}

	now := s.now()
	var clientID int64
	err := utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		c, err := lockLedgerEntry(ctx, tx, checksTable, checkID)
		if err != nil {
			return err
		}
		clientID = c.ID

		if _, err := tx.ExecContext(ctx, `DELETE FROM client_checks WHERE id = $1`, checkID); err != nil {
			return fmt.Errorf("failed to delete check: %w", err)
		}

		var last models.NullDate
		if err := tx.QueryRowContext(ctx, `SELECT MAX(check_date) FROM client_checks WHERE client_id = $1`, clientID).Scan(&last); err != nil {
			return fmt.Errorf("failed to read last check: %w", err)
		}

		required := last.Valid && InSameMonth(last.Date, now)
		_, err = tx.ExecContext(ctx, `
			UPDATE clients
			SET last_check_date = $1,
			    check_required = $2
			WHERE id = $3
		`, last, required, clientID)
		if err != nil {
			return fmt.Errorf("failed to update check cursor: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	utils.LogClientAction("check deleted", clientID, "")
	return clientID, nil
}
