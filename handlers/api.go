package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/LovationAdmin/trainer-api/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ClientStore is the service surface the API actions need.
type ClientStore interface {
	Now() time.Time
	ListViews(ctx context.Context) ([]models.ClientView, error)
	Save(ctx context.Context, req models.SaveClientRequest) (int64, bool, error)
	Delete(ctx context.Context, id int64) error
	QuickAction(ctx context.Context, id int64, actionType string) error
	ListChecks(ctx context.Context, clientID int64) ([]models.Check, error)
	DeleteCheck(ctx context.Context, checkID int64) (int64, error)
	ListPayments(ctx context.Context, clientID int64) ([]models.Payment, error)
	DeletePayment(ctx context.Context, paymentID int64) (int64, error)
	Export(ctx context.Context) (*models.ExportData, error)
	FinanceSummary(ctx context.Context, target decimal.Decimal) (*models.FinanceSummary, error)
}

// ChangeNotifier is told about every successful mutation.
type ChangeNotifier interface {
	BroadcastChange(action string, clientID int64)
}

type APIHandler struct {
	Clients       ClientStore
	Notifier      ChangeNotifier
	RevenueTarget decimal.Decimal

	actions map[string]apiAction
}

type apiAction struct {
	method string
	handle gin.HandlerFunc
}

func NewAPIHandler(clients ClientStore, notifier ChangeNotifier, revenueTarget decimal.Decimal) *APIHandler {
	RegisterValidators()

	h := &APIHandler{Clients: clients, Notifier: notifier, RevenueTarget: revenueTarget}
	h.actions = map[string]apiAction{
		"list_clients":          {http.MethodGet, h.ListClients},
		"save_client":           {http.MethodPost, h.SaveClient},
		"delete_client":         {http.MethodPost, h.DeleteClient},
		"quick_action":          {http.MethodPost, h.QuickAction},
		"client_checks":         {http.MethodGet, h.ClientChecks},
		"delete_client_check":   {http.MethodPost, h.DeleteClientCheck},
		"client_payments":       {http.MethodGet, h.ClientPayments},
		"delete_client_payment": {http.MethodPost, h.DeleteClientPayment},
		"export_data":           {http.MethodGet, h.ExportData},
		"export_xlsx":           {http.MethodGet, h.ExportXLSX},
		"finance_summary":       {http.MethodGet, h.FinanceSummary},
	}
	return h
}

// Dispatch routes /api?action=<name> through the fixed action table.
func (h *APIHandler) Dispatch(c *gin.Context) {
	name := c.Query("action")
	action, ok := h.actions[name]
	if !ok {
		abortError(c, http.StatusNotFound, "unknown action", gin.H{"action": name})
		return
	}
	if c.Request.Method != action.method {
		c.Header("Allow", action.method)
		abortError(c, http.StatusMethodNotAllowed, "method not allowed", gin.H{"action": name})
		return
	}
	action.handle(c)
}

func (h *APIHandler) notify(action string, clientID int64) {
	if h.Notifier != nil {
		h.Notifier.BroadcastChange(action, clientID)
	}
}
