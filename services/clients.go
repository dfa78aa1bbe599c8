package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LovationAdmin/trainer-api/models"
	"github.com/LovationAdmin/trainer-api/utils"
)

type ClientService struct {
	db  *sql.DB
	now func() time.Time
}

func NewClientService(db *sql.DB) *ClientService {
	return &ClientService{db: db, now: time.Now}
}

// Now is the service clock; every "today" in the transitions comes from it.
func (s *ClientService) Now() time.Time {
	return s.now()
}

func (s *ClientService) today() models.Date {
	return models.NewDate(s.now())
}

const clientColumns = `id, first_name, last_name, email, phone, service_type, service_price,
		program_start_date, program_duration_weeks, notes, is_active,
		last_payment_date, next_payment_due_date, last_check_date, check_required, created_at`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var c models.Client
	var serviceType string
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&serviceType,
		&c.ServicePrice,
		&c.ProgramStartDate,
		&c.ProgramDurationWeeks,
		&c.Notes,
		&c.IsActive,
		&c.LastPaymentDate,
		&c.NextPaymentDueDate,
		&c.LastCheckDate,
		&c.CheckRequired,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	// rows written before the CHECK constraint may carry legacy names
	if c.ServiceType, err = models.ParseServiceType(serviceType); err != nil {
		c.ServiceType = models.ServiceMonthly
	}
	return &c, nil
}

// List returns every client, newest first.
func (s *ClientService) List(ctx context.Context) ([]models.Client, error) {
	return queryClients(ctx, s.db, `SELECT `+clientColumns+` FROM clients ORDER BY id DESC`)
}

// ListViews is List with the derived payment and check statuses.
func (s *ClientService) ListViews(ctx context.Context) ([]models.ClientView, error) {
	clients, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]models.ClientView, 0, len(clients))
	for _, c := range clients {
		views = append(views, View(c, now))
	}
	return views, nil
}

func queryClients(ctx context.Context, q queryer, query string) ([]models.Client, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// GetByID reads one client without locking it.
func (s *ClientService) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	c, err := scanClient(s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("client", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	return c, nil
}

// lockClient loads a client and holds its row lock until tx ends.
func lockClient(ctx context.Context, tx *sql.Tx, id int64) (*models.Client, error) {
	c, err := scanClient(tx.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("client", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock client: %w", err)
	}
	return c, nil
}

// ============================================================================
// SAVE
// ============================================================================

// normalizeClient trims and validates the editable fields of req.
func normalizeClient(req models.SaveClientRequest) (models.Client, error) {
	c := models.Client{
		ID:                   int64(req.ID),
		FirstName:            strings.TrimSpace(req.FirstName),
		LastName:             strings.TrimSpace(req.LastName),
		Email:                strings.TrimSpace(req.Email),
		Phone:                strings.TrimSpace(req.Phone),
		ServicePrice:         req.ServicePrice,
		ProgramStartDate:     req.ProgramStartDate,
		ProgramDurationWeeks: int(req.ProgramDurationWeeks),
		Notes:                req.Notes,
		IsActive:             true,
	}

	if c.ID < 0 {
		return c, invalid("invalid client id")
	}
	if c.FirstName == "" || c.LastName == "" || c.Email == "" {
		return c, invalid("first name, last name and email are required")
	}

	serviceType, err := models.ParseServiceType(req.ServiceType)
	if err != nil {
		return c, invalid("%s", err.Error())
	}
	c.ServiceType = serviceType

	if c.ServicePrice.IsNegative() {
		return c, invalid("service price cannot be negative")
	}
	if c.ProgramDurationWeeks < 0 {
		return c, invalid("program duration cannot be negative")
	}
	if req.IsActive != nil {
		c.IsActive = bool(*req.IsActive)
	}
	return c, nil
}

// Save inserts when req has no id and overwrites the editable fields
// otherwise. It reports whether a row was created.
func (s *ClientService) Save(ctx context.Context, req models.SaveClientRequest) (int64, bool, error) {
	c, err := normalizeClient(req)
	if err != nil {
		return 0, false, err
	}
	if c.ID > 0 {
		return c.ID, false, s.Update(ctx, c)
	}
	id, err := s.Create(ctx, c)
	return id, true, err
}

// Create inserts a client. The first due date is derived from the program
// start date when one is given.
func (s *ClientService) Create(ctx context.Context, c models.Client) (int64, error) {
	var nextDue models.NullDate
	if c.ProgramStartDate.Valid {
		nextDue = models.DateOf(NextDueDate(c.ProgramStartDate.Date, c.ServiceType))
	}

	query := `
		INSERT INTO clients
			(first_name, last_name, email, phone,
			 service_type, service_price,
			 program_start_date, program_duration_weeks,
			 notes, is_active, next_payment_due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		c.FirstName, c.LastName, c.Email, c.Phone,
		string(c.ServiceType), c.ServicePrice,
		c.ProgramStartDate, c.ProgramDurationWeeks,
		c.Notes, c.IsActive, nextDue,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create client: %w", err)
	}

	utils.LogClientAction("created", id, "")
	return id, nil
}

// Update overwrites the editable fields. Billing and check cursors are left
// alone; they only move through quick actions and ledger deletes.
func (s *ClientService) Update(ctx context.Context, c models.Client) error {
	query := `
		UPDATE clients SET
			first_name = $1,
			last_name  = $2,
			email      = $3,
			phone      = $4,
			service_type = $5,
			service_price = $6,
			program_start_date = $7,
			program_duration_weeks = $8,
			notes = $9,
			is_active = $10
		WHERE id = $11
	`
	res, err := s.db.ExecContext(ctx, query,
		c.FirstName, c.LastName, c.Email, c.Phone,
		string(c.ServiceType), c.ServicePrice,
		c.ProgramStartDate, c.ProgramDurationWeeks,
		c.Notes, c.IsActive, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	if n == 0 {
		return notFound("client", c.ID)
	}

	utils.LogClientAction("updated", c.ID, "")
	return nil
}

// ============================================================================
// DELETE
// ============================================================================

// Delete removes a client together with its payment and check history.
func (s *ClientService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return invalid("invalid client id")
	}

	err := utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := lockClient(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM client_payments WHERE client_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete payments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM client_checks WHERE client_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete checks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete client: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	utils.LogClientAction("deleted", id, "")
	return nil
}
