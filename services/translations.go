package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/billing"
)

// Translations contains all text that appears on invoices and in toasts
type Translations struct {
	Language string

	Invoice       string
	Room          string
	Tenant        string
	BillingMonth  string
	IssueDate     string
	DueDate       string
	Status        string
	Description   string
	Quantity      string
	UnitPrice     string
	Amount        string
	Total         string
	Paid          string
	Remaining     string
	PaymentInfo   string
	Bank          string
	AccountNumber string
	AccountHolder string
	TransferNote  string
	ScanToPay     string
	ThankYou      string

	// Item type translations
	Rent        string
	Electricity string
	Water       string
	Internet    string
	Trash       string
	Parking     string
	AdHoc       string

	StatusNew           string
	StatusPartiallyPaid string
	StatusPaid          string
	StatusOverdue       string

	// Toast titles and bodies; %d and %s verbs are filled by the services.
	InvoiceCreated     string
	InvoicesCreated    string
	InvoiceDeleted     string
	ChargeAdded        string
	PaymentRecorded    string
	ReadingsSaved      string
	ReadingsPartial    string
	ReadingsFailed     string
	AndMore            string
	AutoBillingDone    string
	AutoBillingFailed  string
	ActionFailed       string
	NoRoomSelected     string
	NoRoomsSelected    string
	InvalidPayment     string
	PaymentTooLarge    string
	InvalidCharge      string
	MeterRollback      string
	SubmitInProgress   string
	ConfirmDelete      string
	ConfirmationNeeded string
	ItemSaved          string
	ItemDeleted        string

	Errors apiclient.Messages
}

// GetTranslations returns translations for the specified language
func GetTranslations(lang string) Translations {
	switch lang {
	case "en":
		return Translations{
			Language:      "en",
			Invoice:       "Rent Invoice",
			Room:          "Room",
			Tenant:        "Tenant",
			BillingMonth:  "Billing month",
			IssueDate:     "Issued",
			DueDate:       "Due date",
			Status:        "Status",
			Description:   "Description",
			Quantity:      "Qty",
			UnitPrice:     "Unit price",
			Amount:        "Amount",
			Total:         "Total",
			Paid:          "Paid",
			Remaining:     "Remaining",
			PaymentInfo:   "Bank transfer",
			Bank:          "Bank",
			AccountNumber: "Account number",
			AccountHolder: "Account holder",
			TransferNote:  "Transfer note",
			ScanToPay:     "Scan to pay",
			ThankYou:      "Thank you!",

			Rent:        "Rent",
			Electricity: "Electricity",
			Water:       "Water",
			Internet:    "Internet",
			Trash:       "Trash collection",
			Parking:     "Parking",
			AdHoc:       "Additional charge",

			StatusNew:           "New",
			StatusPartiallyPaid: "Partially paid",
			StatusPaid:          "Paid",
			StatusOverdue:       "Overdue",

			InvoiceCreated:     "Invoice created",
			InvoicesCreated:    "Created %d invoices",
			InvoiceDeleted:     "Invoice deleted",
			ChargeAdded:        "Charge added",
			PaymentRecorded:    "Payment recorded",
			ReadingsSaved:      "Saved %d meter readings",
			ReadingsPartial:    "Saved %d readings, %d failed: %s",
			ReadingsFailed:     "No meter readings were saved: %s",
			AndMore:            "and %d more",
			AutoBillingDone:    "Auto billing %q created %d invoices",
			AutoBillingFailed:  "Auto billing %q failed",
			ActionFailed:       "Action failed",
			NoRoomSelected:     "Please select a room.",
			NoRoomsSelected:    "Please select at least one room.",
			InvalidPayment:     "Payment amount must be greater than zero.",
			PaymentTooLarge:    "Payment exceeds the remaining amount.",
			InvalidCharge:      "A charge needs a description and a positive amount.",
			MeterRollback:      "The new reading is lower than the previous one.",
			SubmitInProgress:   "This action is already being processed.",
			ConfirmDelete:      "Delete this invoice? This cannot be undone.",
			ConfirmationNeeded: "Please confirm this action.",
			ItemSaved:          "Saved",
			ItemDeleted:        "Deleted",

			Errors: apiclient.Messages{
				Network:      "Cannot reach the server. Please check your connection.",
				Timeout:      "The server took too long to respond. Please try again.",
				Server:       "The server ran into a problem. Please try again later.",
				Unauthorized: "Your session has expired. Please sign in again.",
				Forbidden:    "You are not allowed to do this.",
				Generic:      "Something went wrong. Please try again.",
			},
		}
	default:
		return Translations{
			Language:      "vi",
			Invoice:       "Hóa đơn tiền phòng",
			Room:          "Phòng",
			Tenant:        "Khách thuê",
			BillingMonth:  "Tháng",
			IssueDate:     "Ngày lập",
			DueDate:       "Hạn thanh toán",
			Status:        "Trạng thái",
			Description:   "Nội dung",
			Quantity:      "SL",
			UnitPrice:     "Đơn giá",
			Amount:        "Thành tiền",
			Total:         "Tổng cộng",
			Paid:          "Đã thanh toán",
			Remaining:     "Còn lại",
			PaymentInfo:   "Thông tin chuyển khoản",
			Bank:          "Ngân hàng",
			AccountNumber: "Số tài khoản",
			AccountHolder: "Chủ tài khoản",
			TransferNote:  "Nội dung chuyển khoản",
			ScanToPay:     "Quét mã để thanh toán",
			ThankYou:      "Xin cảm ơn!",

			Rent:        "Tiền phòng",
			Electricity: "Tiền điện",
			Water:       "Tiền nước",
			Internet:    "Internet",
			Trash:       "Tiền rác",
			Parking:     "Gửi xe",
			AdHoc:       "Phát sinh",

			StatusNew:           "Mới",
			StatusPartiallyPaid: "Thanh toán một phần",
			StatusPaid:          "Đã thanh toán",
			StatusOverdue:       "Quá hạn",

			InvoiceCreated:     "Tạo hóa đơn thành công",
			InvoicesCreated:    "Đã tạo %d hóa đơn",
			InvoiceDeleted:     "Đã xóa hóa đơn",
			ChargeAdded:        "Đã thêm phát sinh",
			PaymentRecorded:    "Đã ghi nhận thanh toán",
			ReadingsSaved:      "Đã lưu %d chỉ số điện",
			ReadingsPartial:    "Đã lưu %d chỉ số, %d thất bại: %s",
			ReadingsFailed:     "Không lưu được chỉ số điện nào: %s",
			AndMore:            "và %d phòng khác",
			AutoBillingDone:    "Lập hóa đơn tự động %q: đã tạo %d hóa đơn",
			AutoBillingFailed:  "Lập hóa đơn tự động %q thất bại",
			ActionFailed:       "Thao tác thất bại",
			NoRoomSelected:     "Vui lòng chọn phòng.",
			NoRoomsSelected:    "Vui lòng chọn ít nhất một phòng.",
			InvalidPayment:     "Số tiền thanh toán phải lớn hơn 0.",
			PaymentTooLarge:    "Số tiền thanh toán vượt quá số tiền còn lại.",
			InvalidCharge:      "Phát sinh cần có nội dung và số tiền lớn hơn 0.",
			MeterRollback:      "Chỉ số mới nhỏ hơn chỉ số cũ.",
			SubmitInProgress:   "Yêu cầu đang được xử lý.",
			ConfirmDelete:      "Bạn có chắc muốn xóa hóa đơn này? Thao tác không thể hoàn tác.",
			ConfirmationNeeded: "Vui lòng xác nhận thao tác.",
			ItemSaved:          "Đã lưu",
			ItemDeleted:        "Đã xóa",

			Errors: apiclient.DefaultMessages,
		}
	}
}

// TranslateItemType labels a line item. Internet and ad-hoc items keep their
// own description, which carries the plan or the operator's text.
func TranslateItemType(item billing.ChargeLineItem, tr Translations) string {
	switch item.Type {
	case billing.ItemRent:
		return tr.Rent
	case billing.ItemElectricity:
		return tr.Electricity
	case billing.ItemWater:
		return tr.Water
	case billing.ItemInternet:
		if plan, ok := strings.CutPrefix(item.Description, "Internet (plan "); ok {
			return tr.Internet + " (" + strings.TrimSuffix(plan, ")") + ")"
		}
		return tr.Internet
	case billing.ItemTrash:
		return tr.Trash
	case billing.ItemParking:
		return tr.Parking
	case billing.ItemAdHoc:
		if item.Description != "" {
			return item.Description
		}
		return tr.AdHoc
	default:
		return item.Description
	}
}

func TranslateStatus(status billing.InvoiceStatus, tr Translations) string {
	switch status {
	case billing.StatusNew:
		return tr.StatusNew
	case billing.StatusPartiallyPaid:
		return tr.StatusPartiallyPaid
	case billing.StatusPaid:
		return tr.StatusPaid
	case billing.StatusOverdue:
		return tr.StatusOverdue
	default:
		return string(status)
	}
}

// FormatVND groups digits the way the language expects: 4.260.000 ₫ in
// Vietnamese, 4,260,000 VND in English.
func FormatVND(amount int64, lang string) string {
	tag := language.Vietnamese
	suffix := " ₫"
	if lang == "en" {
		tag = language.English
		suffix = " VND"
	}
	return message.NewPrinter(tag).Sprintf("%d", amount) + suffix
}

// FoldDiacritics strips Vietnamese tone and vowel marks for fonts that only
// cover Latin-1, e.g. "Hóa đơn" becomes "Hoa don".
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
}
