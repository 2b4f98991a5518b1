package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/models"
	"github.com/aj9599/rental-billing/services"
)

const exportPageSize = 200

type ExportHandler struct {
	console  *Console
	invoices *services.InvoiceService
}

func NewExportHandler(console *Console, invoices *services.InvoiceService) *ExportHandler {
	return &ExportHandler{console: console, invoices: invoices}
}

// ExportData writes invoices or meter readings of one month as CSV.
func (h *ExportHandler) ExportData(w http.ResponseWriter, r *http.Request) {
	exportType := r.URL.Query().Get("type")
	if exportType == "" {
		exportType = "invoices"
	}
	month, err := monthParam(r)
	if err != nil || month.IsZero() {
		respondWithError(w, http.StatusBadRequest, "Missing or invalid month (YYYY-MM)")
		return
	}

	tr := h.console.translations(r)
	var data [][]string

	switch exportType {
	case "invoices":
		data, err = h.exportInvoices(r, month, tr)
	case "meter-readings":
		data, err = h.exportMeterReadings(r.Context(), h.console.caller(r), month, tr)
	default:
		respondWithError(w, http.StatusBadRequest, "Invalid export type")
		return
	}
	if err != nil {
		log.Printf("Export error: %v", err)
		writeServiceError(w, err, tr)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	filename := fmt.Sprintf("%s-%s.csv", exportType, month)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	// BOM so spreadsheet apps read Vietnamese text as UTF-8.
	w.Write([]byte("\xEF\xBB\xBF"))
	writer := csv.NewWriter(w)
	defer writer.Flush()

	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Printf("Error writing CSV: %v", err)
			return
		}
	}
	h.console.logAction(r, "export", fmt.Sprintf("%s %s (%d rows)", exportType, month, len(data)-1))
}

func (h *ExportHandler) exportInvoices(r *http.Request, month billing.Month, tr services.Translations) ([][]string, error) {
	caller := h.console.caller(r)
	rows := [][]string{{"ID", tr.Room, tr.Tenant, tr.BillingMonth, tr.DueDate, tr.Total, tr.Paid, tr.Remaining, tr.Status}}

	params := apiclient.ListParams{Page: 1, PerPage: exportPageSize, Filters: map[string]string{"month": month.String()}}
	for {
		page, err := h.invoices.List(r.Context(), caller, params)
		if err != nil {
			return nil, err
		}
		for _, inv := range page.Data {
			rows = append(rows, invoiceRow(inv, tr))
		}
		if page.LastPage <= params.Page || len(page.Data) == 0 {
			break
		}
		params.Page++
	}
	return rows, nil
}

func invoiceRow(inv models.Invoice, tr services.Translations) []string {
	due := ""
	if !inv.DueDate.IsZero() {
		due = inv.DueDate.Format("2006-01-02")
	}
	status := inv.DisplayStatus
	if status == "" {
		status = inv.Status
	}
	return []string{
		strconv.FormatInt(inv.InvoiceID, 10),
		roomName(inv.RoomID, inv.RoomName),
		inv.TenantName,
		inv.BillingMonth.String(),
		due,
		strconv.FormatInt(inv.TotalAmount, 10),
		strconv.FormatInt(inv.PaidAmount, 10),
		strconv.FormatInt(inv.RemainingAmount, 10),
		services.TranslateStatus(status, tr),
	}
}

func (h *ExportHandler) exportMeterReadings(ctx context.Context, caller services.Caller, month billing.Month, tr services.Translations) ([][]string, error) {
	rows := [][]string{{tr.Room, tr.BillingMonth, "old_value", "new_value", "usage_kwh"}}

	params := apiclient.ListParams{Page: 1, PerPage: exportPageSize}
	for {
		page, err := caller.MeterReadings.List(ctx, month, params)
		if err != nil {
			return nil, err
		}
		for _, m := range page.Data {
			usage := m.Usage
			if usage == 0 {
				usage = m.Reading().Usage()
			}
			rows = append(rows, []string{
				roomName(m.RoomID, m.RoomName),
				m.Month.String(),
				strconv.FormatInt(m.OldValue, 10),
				strconv.FormatInt(m.NewValue, 10),
				strconv.FormatInt(usage, 10),
			})
		}
		if page.LastPage <= params.Page || len(page.Data) == 0 {
			break
		}
		params.Page++
	}
	return rows, nil
}

func roomName(id int64, name string) string {
	if name != "" {
		return name
	}
	return "#" + strconv.FormatInt(id, 10)
}
