package services

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/LovationAdmin/trainer-api/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var clientCols = []string{
	"id", "first_name", "last_name", "email", "phone", "service_type", "service_price",
	"program_start_date", "program_duration_weeks", "notes", "is_active",
	"last_payment_date", "next_payment_due_date", "last_check_date", "check_required", "created_at",
}

func newMockService(t *testing.T) (*ClientService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewClientService(db)
	svc.now = func() time.Time { return fixedNow }
	return svc, mock
}

func dateValue(n models.NullDate) driver.Value {
	v, _ := n.Value()
	return v
}

func sampleClient(id int64) models.Client {
	return models.Client{
		ID:           id,
		FirstName:    "Giulia",
		LastName:     "Rossi",
		Email:        "giulia@example.com",
		Phone:        "+39 333 1234567",
		ServiceType:  models.ServiceMonthly,
		ServicePrice: decimal.RequireFromString("50"),
		IsActive:     true,
		CreatedAt:    time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
	}
}

func clientRows(clients ...models.Client) *sqlmock.Rows {
	rows := sqlmock.NewRows(clientCols)
	for _, c := range clients {
		rows.AddRow(
			c.ID, c.FirstName, c.LastName, c.Email, c.Phone, string(c.ServiceType), c.ServicePrice.String(),
			dateValue(c.ProgramStartDate), c.ProgramDurationWeeks, c.Notes, c.IsActive,
			dateValue(c.LastPaymentDate), dateValue(c.NextPaymentDueDate), dateValue(c.LastCheckDate),
			c.CheckRequired, c.CreatedAt,
		)
	}
	return rows
}

const (
	lockClientSQL = `SELECT .+ FROM clients WHERE id = \$1 FOR UPDATE`
	selectAllSQL  = `SELECT .+ FROM clients ORDER BY id DESC`
)

func expectLockClient(mock sqlmock.Sqlmock, c models.Client) {
	mock.ExpectQuery(lockClientSQL).WithArgs(c.ID).WillReturnRows(clientRows(c))
}
