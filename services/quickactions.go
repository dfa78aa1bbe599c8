package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LovationAdmin/trainer-api/models"
	"github.com/LovationAdmin/trainer-api/utils"
)

// Quick action types accepted by QuickAction.
const (
	QuickToggleActive        = "toggle_active"
	QuickMarkPaymentDone     = "mark_payment_done"
	QuickToggleCheckRequired = "toggle_check_required"
)

type quickTransition func(ctx context.Context, tx *sql.Tx, c *models.Client, today models.Date) error

var quickTransitions = map[string]quickTransition{
	QuickToggleActive:        toggleActive,
	QuickMarkPaymentDone:     markPaymentDone,
	QuickToggleCheckRequired: toggleCheckRequired,
}

// QuickAction applies one dashboard transition to a client. The client row
// is locked for the whole transaction, so ledger inserts and cursor updates
// land together or not at all.
func (s *ClientService) QuickAction(ctx context.Context, id int64, actionType string) error {
	if id <= 0 || actionType == "" {
		return invalid("client id and action type are required")
	}
	transition, ok := quickTransitions[actionType]
	if !ok {
		return invalid("invalid action type %q", actionType)
	}

	today := s.today()
	err := utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		c, err := lockClient(ctx, tx, id)
		if err != nil {
			return err
		}
		return transition(ctx, tx, c, today)
	})
	if err != nil {
		return err
	}

	utils.LogClientAction(actionType, id, "")
	return nil
}

func toggleActive(ctx context.Context, tx *sql.Tx, c *models.Client, _ models.Date) error {
	if _, err := tx.ExecContext(ctx, `UPDATE clients SET is_active = $1 WHERE id = $2`, !c.IsActive, c.ID); err != nil {
		return fmt.Errorf("failed to toggle active: %w", err)
	}
	return nil
}

// markPaymentDone books one payment at the current price and rolls the due
// date forward from the previous due date, or from today when there is none.
func markPaymentDone(ctx context.Context, tx *sql.Tx, c *models.Client, today models.Date) error {
	base := today
	if c.NextPaymentDueDate.Valid {
		base = c.NextPaymentDueDate.Date
	}
	next := NextDueDate(base, c.ServiceType)

	_, err := tx.ExecContext(ctx, `
		INSERT INTO client_payments (client_id, payment_date, amount)
		VALUES ($1, $2, $3)
	`, c.ID, today, c.ServicePrice)
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE clients
		SET last_payment_date = $1,
		    next_payment_due_date = $2
		WHERE id = $3
	`, today, next, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update payment cursor: %w", err)
	}
	return nil
}

// toggleCheckRequired records a check when the flag goes on. Turning it off
// keeps the history row.
func toggleCheckRequired(ctx context.Context, tx *sql.Tx, c *models.Client, today models.Date) error {
	if c.CheckRequired {
		if _, err := tx.ExecContext(ctx, `UPDATE clients SET check_required = FALSE WHERE id = $1`, c.ID); err != nil {
			return fmt.Errorf("failed to clear check flag: %w", err)
		}
		return nil
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO client_checks (client_id, check_date)
		VALUES ($1, $2)
	`, c.ID, today)
	if err != nil {
		return fmt.Errorf("failed to record check: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE clients
		SET check_required = TRUE,
		    last_check_date = $1
		WHERE id = $2
	`, today, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update check cursor: %w", err)
	}
	return nil
}
