package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/LovationAdmin/trainer-api/models"
	"github.com/LovationAdmin/trainer-api/services"

	"github.com/gin-gonic/gin"
)

// ============================================================================
// CLIENTS
// ============================================================================

func (h *APIHandler) ListClients(c *gin.Context) {
	clients, err := h.Clients.ListViews(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

func (h *APIHandler) SaveClient(c *gin.Context) {
	var req models.SaveClientRequest
	if !bindJSON(c, &req) {
		return
	}

	id, created, err := h.Clients.Save(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notify("save_client", id)
	if created {
		c.JSON(http.StatusCreated, gin.H{"status": "created", "id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "id": id})
}

func (h *APIHandler) DeleteClient(c *gin.Context) {
	var req models.IDRequest
	if !bindJSON(c, &req) {
		return
	}

	id := int64(req.ID)
	if err := h.Clients.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	h.notify("delete_client", id)
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *APIHandler) QuickAction(c *gin.Context) {
	var req models.QuickActionRequest
	if !bindJSON(c, &req) {
		return
	}

	id := int64(req.ID)
	if err := h.Clients.QuickAction(c.Request.Context(), id, req.Type); err != nil {
		respondError(c, err)
		return
	}

	h.notify("quick_action", id)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ============================================================================
// LEDGERS
// ============================================================================

// clientIDParam reads client_id, falling back to id.
func clientIDParam(c *gin.Context) (int64, bool) {
	raw := c.Query("client_id")
	if raw == "" {
		raw = c.Query("id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		abortError(c, http.StatusBadRequest, "invalid client id", nil)
		return 0, false
	}
	return id, true
}

func (h *APIHandler) ClientChecks(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	checks, err := h.Clients.ListChecks(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client_id": clientID, "checks": checks})
}

func (h *APIHandler) ClientPayments(c *gin.Context) {
	clientID, ok := clientIDParam(c)
	if !ok {
		return
	}

	payments, err := h.Clients.ListPayments(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client_id": clientID, "payments": payments})
}

func (h *APIHandler) DeleteClientCheck(c *gin.Context) {
	h.deleteLedgerEntry(c, "delete_client_check", h.Clients.DeleteCheck)
}

func (h *APIHandler) DeleteClientPayment(c *gin.Context) {
	h.deleteLedgerEntry(c, "delete_client_payment", h.Clients.DeletePayment)
}

type ledgerDelete func(ctx context.Context, id int64) (int64, error)

func (h *APIHandler) deleteLedgerEntry(c *gin.Context, action string, del ledgerDelete) {
	var req models.IDRequest
	if !bindJSON(c, &req) {
		return
	}

	clientID, err := del(c.Request.Context(), int64(req.ID))
	if err != nil {
		respondError(c, err)
		return
	}

	h.notify(action, clientID)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "client_id": clientID})
}

// ============================================================================
// EXPORT
// ============================================================================

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var writeWorkbook = services.WriteWorkbook

func (h *APIHandler) ExportData(c *gin.Context) {
	data, err := h.Clients.Export(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *APIHandler) ExportXLSX(c *gin.Context) {
	data, err := h.Clients.Export(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := writeWorkbook(data, &buf); err != nil {
		respondError(c, err)
		return
	}

	fileName := "clients_" + h.Clients.Now().Format("20060102_150405") + ".xlsx"
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *APIHandler) FinanceSummary(c *gin.Context) {
	summary, err := h.Clients.FinanceSummary(c.Request.Context(), h.RevenueTarget)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
