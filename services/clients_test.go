package services

import (
	"context"
	"errors"
	"testing"

	"github.com/LovationAdmin/trainer-api/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_EmptyIsNotNil(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery(selectAllSQL).WillReturnRows(sqlmock.NewRows(clientCols))

	clients, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, clients)
	assert.Empty(t, clients)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListViews_DerivesStatus(t *testing.T) {
	svc, mock := newMockService(t)

	c := sampleClient(7)
	c.NextPaymentDueDate = nullDate(t, "2024-03-14")
	c.CheckRequired = true
	c.LastCheckDate = nullDate(t, "2024-03-02")

	legacy := sampleClient(3)
	legacy.ServiceType = "TRIMESTRALE"

	mock.ExpectQuery(selectAllSQL).WillReturnRows(clientRows(c, legacy))

	views, err := svc.ListViews(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, int64(7), views[0].ID)
	assert.Equal(t, models.PaymentLate, views[0].PaymentStatus)
	assert.Equal(t, models.CheckDone, views[0].CheckStatus)
	assert.Equal(t, models.ServiceQuarterly, views[1].ServiceType)
	assert.Equal(t, models.PaymentPendingUnknown, views[1].PaymentStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery(`SELECT .+ FROM clients WHERE id = \$1`).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(clientCols))

	_, err := svc.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSave_CreateDerivesFirstDueDate(t *testing.T) {
	svc, mock := newMockService(t)

	req := models.SaveClientRequest{
		FirstName:            "  Marco ",
		LastName:             "Bianchi",
		Email:                "marco@example.com",
		ServiceType:          "QUARTERLY",
		ServicePrice:         decimal.RequireFromString("120"),
		ProgramStartDate:     nullDate(t, "2024-01-01"),
		ProgramDurationWeeks: 12,
	}

	mock.ExpectQuery(`INSERT INTO clients`).
		WithArgs("Marco", "Bianchi", "marco@example.com", "", "QUARTERLY",
			decimal.RequireFromString("120"), "2024-01-01", 12, "", true, "2024-04-01").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, created, err := svc.Save(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_CreateWithoutStartDateLeavesDueNull(t *testing.T) {
	svc, mock := newMockService(t)

	req := models.SaveClientRequest{FirstName: "A", LastName: "B", Email: "a@b.c"}
	mock.ExpectQuery(`INSERT INTO clients`).
		WithArgs("A", "B", "a@b.c", "", "MONTHLY", decimal.Zero, nil, 0, "", true, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	_, created, err := svc.Save(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_UpdateLeavesCursorsAlone(t *testing.T) {
	svc, mock := newMockService(t)

	inactive := models.FlexBool(false)
	req := models.SaveClientRequest{
		ID:           5,
		FirstName:    "Giulia",
		LastName:     "Rossi",
		Email:        "giulia@example.com",
		ServiceType:  "MENSILE",
		ServicePrice: decimal.RequireFromString("55"),
		IsActive:     &inactive,
	}

	mock.ExpectExec(`UPDATE clients SET`).
		WithArgs("Giulia", "Rossi", "giulia@example.com", "", "MONTHLY",
			decimal.RequireFromString("55"), nil, 0, "", false, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, created, err := svc.Save(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(5), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_UpdateMissingClient(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectExec(`UPDATE clients SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, _, err := svc.Save(context.Background(), models.SaveClientRequest{
		ID: 99, FirstName: "A", LastName: "B", Email: "a@b.c",
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "client not found")
}

func TestSave_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  models.SaveClientRequest
	}{
		{"missing first name", models.SaveClientRequest{FirstName: "  ", LastName: "B", Email: "a@b.c"}},
		{"missing email", models.SaveClientRequest{FirstName: "A", LastName: "B"}},
		{"unknown service type", models.SaveClientRequest{FirstName: "A", LastName: "B", Email: "a@b.c", ServiceType: "WEEKLY"}},
		{"negative price", models.SaveClientRequest{FirstName: "A", LastName: "B", Email: "a@b.c", ServicePrice: decimal.NewFromInt(-1)}},
		{"negative duration", models.SaveClientRequest{FirstName: "A", LastName: "B", Email: "a@b.c", ProgramDurationWeeks: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newMockService(t)
			_, _, err := svc.Save(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)

			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDelete_RemovesLedgersInOneTransaction(t *testing.T) {
	svc, mock := newMockService(t)
	c := sampleClient(4)

	mock.ExpectBegin()
	expectLockClient(mock, c)
	mock.ExpectExec(`DELETE FROM client_payments WHERE client_id = \$1`).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM client_checks WHERE client_id = \$1`).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM clients WHERE id = \$1`).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(context.Background(), 4))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_MissingClientRollsBack(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockClientSQL).WithArgs(int64(8)).WillReturnRows(sqlmock.NewRows(clientCols))
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), 8)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_FailureRollsBack(t *testing.T) {
	svc, mock := newMockService(t)
	c := sampleClient(4)

	mock.ExpectBegin()
	expectLockClient(mock, c)
	mock.ExpectExec(`DELETE FROM client_payments`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), 4)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_InvalidID(t *testing.T) {
	svc, _ := newMockService(t)
	assert.ErrorIs(t, svc.Delete(context.Background(), 0), ErrValidation)
}
