package handlers

import (
	"net/http"

	"github.com/aj9599/rental-billing/services"
)

// BillingHandler serves the local charge computation used by the invoice
// forms before anything is submitted.
type BillingHandler struct {
	console  *Console
	invoices *services.InvoiceService
}

func NewBillingHandler(console *Console, invoices *services.InvoiceService) *BillingHandler {
	return &BillingHandler{console: console, invoices: invoices}
}

func (h *BillingHandler) TariffDefaults(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.invoices.Tariff())
}

func (h *BillingHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var in services.CreateInvoiceInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}

	inv, err := h.invoices.Preview(in)
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	respondWithJSON(w, http.StatusOK, inv)
}

func (h *BillingHandler) PreviewBulk(w http.ResponseWriter, r *http.Request) {
	var in services.BulkInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}

	invoices, err := h.invoices.PreviewBulk(in)
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}

	var total int64
	for _, inv := range invoices {
		total += inv.TotalAmount
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"invoices":     invoices,
		"count":        len(invoices),
		"total_amount": total,
	})
}
