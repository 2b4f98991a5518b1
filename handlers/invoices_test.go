package handlers

import (
	"net/http"
	"testing"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/services"
)

func (env *testEnv) mountInvoices() {
	svc := services.NewInvoiceService(env.notifier, env.guard, billing.DefaultTariff())
	h := NewInvoiceHandler(env.console, svc, services.NewPDFGenerator("", services.BankAccount{}))
	env.router.HandleFunc("/api/invoices/{id:[0-9]+}/charges", h.AddCharge).Methods("POST")
	env.router.HandleFunc("/api/invoices/{id:[0-9]+}/payments", h.RecordPayment).Methods("POST")
}

func TestInvoiceHandler_RejectsInvalidBodies(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		body      string
		wantField string
	}{
		{"payment without amount", "/api/invoices/7/payments", `{"method":"cash"}`, "Amount"},
		{"negative payment", "/api/invoices/7/payments", `{"amount":-5000,"method":"cash"}`, "Amount"},
		{"charge without description", "/api/invoices/7/charges", `{"amount":50000}`, "Description"},
		{"free charge", "/api/invoices/7/charges", `{"description":"Sửa vòi nước","amount":0}`, "Amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.mountInvoices()

			rec := env.do(t, "POST", tt.target, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			var body struct {
				Fields []apiclient.FieldError `json:"fields"`
			}
			decodeResponse(t, rec, &body)
			if len(body.Fields) != 1 || body.Fields[0].Field != tt.wantField {
				t.Errorf("Expected a %s field error, got %+v", tt.wantField, body.Fields)
			}
			if calls := env.backend.calls(); len(calls) != 0 {
				t.Errorf("Expected no backend call, got %v", calls)
			}
		})
	}
}
