package services

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/aj9599/rental-billing/models"
)

const unicodeFont = "DejaVu"

type PDFGenerator struct {
	fontPath string
	bank     BankAccount
}

// NewPDFGenerator renders with the TTF at fontPath when given. Without it the
// core Arial font is used and Vietnamese marks are folded away.
func NewPDFGenerator(fontPath string, bank BankAccount) *PDFGenerator {
	return &PDFGenerator{fontPath: fontPath, bank: bank}
}

type pdfWriter struct {
	pdf  *gofpdf.Fpdf
	font string
	tr   func(string) string
}

func (pg *PDFGenerator) newDocument() *pdfWriter {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)

	if pg.fontPath != "" {
		pdf.AddUTF8Font(unicodeFont, "", pg.fontPath)
		pdf.AddUTF8Font(unicodeFont, "B", pg.fontPath)
		if pdf.Ok() {
			return &pdfWriter{pdf: pdf, font: unicodeFont, tr: func(s string) string { return s }}
		}
		log.Printf("WARNING: Failed to load PDF font %s: %v", pg.fontPath, pdf.Error())
		pdf = gofpdf.New("P", "mm", "A4", "")
		pdf.SetMargins(15, 15, 15)
	}

	cp1252 := pdf.UnicodeTranslatorFromDescriptor("")
	return &pdfWriter{
		pdf:  pdf,
		font: "Arial",
		tr: func(s string) string {
			return cp1252(strings.ReplaceAll(FoldDiacritics(s), "₫", "VND"))
		},
	}
}

// GenerateInvoicePDF writes the invoice to w in the given language.
func (pg *PDFGenerator) GenerateInvoicePDF(w io.Writer, inv models.Invoice, lang string) error {
	t := GetTranslations(lang)
	doc := pg.newDocument()
	pdf, font, tx := doc.pdf, doc.font, doc.tr
	money := func(v int64) string { return tx(FormatVND(v, t.Language)) }

	pdf.AddPage()

	// Header
	pdf.SetFont(font, "B", 22)
	pdf.SetTextColor(0, 123, 255)
	pdf.Cell(0, 10, tx(strings.ToUpper(t.Invoice)))
	pdf.Ln(9)

	pdf.SetFont(font, "", 10)
	pdf.SetTextColor(100, 100, 100)
	if inv.InvoiceID != 0 {
		pdf.Cell(0, 6, fmt.Sprintf("#%d", inv.InvoiceID))
		pdf.Ln(8)
	}

	// Status badge
	status := inv.DisplayStatus
	if status == "" {
		status = inv.Status
	}
	pdf.SetFillColor(212, 237, 218)
	pdf.SetTextColor(21, 87, 36)
	pdf.SetFont(font, "B", 9)
	pdf.CellFormat(45, 6, tx(TranslateStatus(status, t)), "", 0, "C", true, 0, "")
	pdf.Ln(12)

	// Details
	pdf.SetTextColor(0, 0, 0)
	details := [][2]string{
		{t.Room, roomLabel(inv.RoomID, inv.RoomName)},
		{t.BillingMonth, inv.BillingMonth.String()},
	}
	if inv.TenantName != "" {
		details = append(details, [2]string{t.Tenant, inv.TenantName})
	}
	if !inv.IssueDate.IsZero() {
		details = append(details, [2]string{t.IssueDate, inv.IssueDate.Format("02/01/2006")})
	}
	if !inv.DueDate.IsZero() {
		details = append(details, [2]string{t.DueDate, inv.DueDate.Format("02/01/2006")})
	}
	for _, d := range details {
		pdf.SetFont(font, "B", 10)
		pdf.CellFormat(45, 6, tx(d[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont(font, "", 10)
		pdf.CellFormat(0, 6, tx(d[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Items table
	pdf.SetFillColor(249, 249, 249)
	pdf.SetFont(font, "B", 9)
	pdf.CellFormat(80, 8, tx(t.Description), "B", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, tx(t.Quantity), "B", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, tx(t.UnitPrice), "B", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, tx(t.Amount), "B", 1, "R", true, 0, "")

	pdf.SetFont(font, "", 9)
	for _, item := range inv.LineItems {
		pdf.CellFormat(80, 6, tx(TranslateItemType(item, t)), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, money(item.UnitPrice), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, money(item.Amount), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Totals
	pdf.SetFont(font, "B", 14)
	pdf.CellFormat(0, 10, tx(t.Total+": ")+money(inv.TotalAmount), "", 1, "R", true, 0, "")
	pdf.SetFont(font, "", 10)
	if inv.PaidAmount > 0 {
		pdf.CellFormat(0, 6, tx(t.Paid+": ")+money(inv.PaidAmount), "", 1, "R", false, 0, "")
		pdf.CellFormat(0, 6, tx(t.Remaining+": ")+money(inv.RemainingAmount), "", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	if inv.RemainingAmount > 0 && pg.bank.Configured() {
		pg.addPaymentSection(doc, inv, t)
	}

	pdf.SetFont(font, "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.Cell(0, 6, tx(t.ThankYou))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	log.Printf("[PDF] Generated invoice %d for room %d (%s)", inv.InvoiceID, inv.RoomID, t.Language)
	return nil
}

func (pg *PDFGenerator) addPaymentSection(doc *pdfWriter, inv models.Invoice, t Translations) {
	pdf, font, tx := doc.pdf, doc.font, doc.tr
	note := TransferNoteFor(inv)

	pdf.SetFont(font, "B", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.Cell(0, 6, tx(strings.ToUpper(t.PaymentInfo)))
	pdf.Ln(7)

	top := pdf.GetY()
	pdf.SetFont(font, "", 9)
	lines := [][2]string{
		{t.Bank, pg.bank.BankName},
		{t.AccountNumber, pg.bank.AccountNumber},
		{t.AccountHolder, pg.bank.AccountHolder},
		{t.TransferNote, note},
	}
	for _, l := range lines {
		if l[1] == "" {
			continue
		}
		pdf.CellFormat(100, 5, tx(l[0]+": "+l[1]), "", 1, "L", false, 0, "")
	}

	payload, err := VietQRPayload(pg.bank, inv.RemainingAmount, note)
	if err != nil {
		log.Printf("WARNING: Skipping transfer QR for invoice %d: %v", inv.InvoiceID, err)
		return
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		log.Printf("WARNING: Failed to generate QR code for invoice %d: %v", inv.InvoiceID, err)
		return
	}

	name := fmt.Sprintf("qr-%d", inv.InvoiceID)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pdf.ImageOptions(name, 145, top-2, 45, 45, false, opts, 0, "")
	pdf.SetXY(145, top+44)
	pdf.SetFont(font, "", 8)
	pdf.CellFormat(45, 4, tx(t.ScanToPay), "", 1, "C", false, 0, "")
	pdf.SetX(15)
	pdf.Ln(6)
}

// TransferNoteFor is the reference tenants type into their banking app.
func TransferNoteFor(inv models.Invoice) string {
	room := inv.RoomName
	if room == "" {
		room = fmt.Sprintf("P%d", inv.RoomID)
	}
	return fmt.Sprintf("HD%d %s %s", inv.InvoiceID, room, inv.BillingMonth.String())
}
