// Package billing turns room profiles, meter readings and a tariff into priced
// invoices. It has no I/O; every function is safe to call from any goroutine.
//
// Amounts are whole đồng held in int64. Nothing is rounded.
package billing
