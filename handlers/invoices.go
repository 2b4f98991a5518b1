package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/models"
	"github.com/aj9599/rental-billing/services"
)

type InvoiceHandler struct {
	console  *Console
	invoices *services.InvoiceService
	pdf      *services.PDFGenerator
}

func NewInvoiceHandler(console *Console, invoices *services.InvoiceService, pdf *services.PDFGenerator) *InvoiceHandler {
	return &InvoiceHandler{console: console, invoices: invoices, pdf: pdf}
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.invoices.List(r.Context(), h.console.caller(r), listParams(r, "status", "month", "room_id"))
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *InvoiceHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	stats, err := h.invoices.Statistics(r.Context(), h.console.caller(r), month)
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}
	inv, err := h.invoices.Get(r.Context(), h.console.caller(r), id)
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	respondWithJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateInvoiceInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}

	inv, err := h.invoices.Create(r.Context(), h.console.caller(r), in)
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	h.console.logAction(r, "invoice_created",
		fmt.Sprintf("Invoice %d for room %d (%s), total %d", inv.InvoiceID, inv.RoomID, inv.BillingMonth, inv.TotalAmount))
	respondWithJSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var in services.BulkInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}

	res, err := h.invoices.GenerateBulk(r.Context(), h.console.caller(r), in)
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	h.console.logAction(r, "invoices_bulk_created",
		fmt.Sprintf("%d invoices for %d rooms (%s)", res.Created, len(in.Rooms), in.BillingMonth))
	respondWithJSON(w, http.StatusCreated, res)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	if err := h.invoices.Delete(r.Context(), h.console.caller(r), id, confirmed(r)); err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	h.console.logAction(r, "invoice_deleted", fmt.Sprintf("Invoice %d", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvoiceHandler) AddCharge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}
	var charge billing.AdHocCharge
	if err := decodeAndValidate(r, &charge); err != nil {
		writeBadRequest(w, err)
		return
	}

	inv, err := h.invoices.AddCharge(r.Context(), h.console.caller(r), id, charge)
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	h.console.logAction(r, "invoice_charge_added",
		fmt.Sprintf("Invoice %d: %q %d", id, charge.Description, charge.Amount))
	respondWithJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}
	var payment models.Payment
	if err := decodeAndValidate(r, &payment); err != nil {
		writeBadRequest(w, err)
		return
	}

	inv, err := h.invoices.RecordPayment(r.Context(), h.console.caller(r), id, payment)
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	h.console.logAction(r, "invoice_payment",
		fmt.Sprintf("Invoice %d: %d via %s", id, payment.Amount, payment.Method))
	respondWithJSON(w, http.StatusOK, inv)
}

// DownloadPDF renders the invoice on the fly; nothing is stored on disk.
func (h *InvoiceHandler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	inv, err := h.invoices.Get(r.Context(), h.console.caller(r), id)
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}

	var buf bytes.Buffer
	if err := h.pdf.GenerateInvoicePDF(&buf, *inv, h.console.language(r)); err != nil {
		log.Printf("ERROR: Failed to render PDF for invoice %d: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	disposition := "inline"
	if r.URL.Query().Get("download") == "1" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=hoa-don-%d-%s.pdf", disposition, id, inv.BillingMonth))
	w.Write(buf.Bytes())
}
