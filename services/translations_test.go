package services

import (
	"strings"
	"testing"

	"github.com/aj9599/rental-billing/billing"
)

func TestFormatVND(t *testing.T) {
	if got := FormatVND(4_260_000, "en"); got != "4,260,000 VND" {
		t.Errorf("en: got %q", got)
	}
	vi := FormatVND(4_260_000, "vi")
	if !strings.HasSuffix(vi, " ₫") || !strings.HasPrefix(vi, "4") || !strings.Contains(vi, "260") {
		t.Errorf("vi: got %q", vi)
	}
	if strings.Contains(vi, ",") {
		t.Errorf("vi must not use comma grouping: %q", vi)
	}
}

func TestFoldDiacritics(t *testing.T) {
	tests := map[string]string{
		"Hóa đơn tiền phòng": "Hoa don tien phong",
		"ĐÃ THANH TOÁN":      "DA THANH TOAN",
		"Gửi xe":             "Gui xe",
		"Plain":              "Plain",
	}
	for in, want := range tests {
		if got := FoldDiacritics(in); got != want {
			t.Errorf("FoldDiacritics(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTranslateItemType(t *testing.T) {
	vi, en := GetTranslations("vi"), GetTranslations("xx")
	if en.Language != "vi" {
		t.Fatalf("Unknown languages fall back to Vietnamese, got %q", en.Language)
	}
	en = GetTranslations("en")

	tests := []struct {
		item billing.ChargeLineItem
		tr   Translations
		want string
	}{
		{billing.ChargeLineItem{Type: billing.ItemRent, Description: "Rent"}, vi, "Tiền phòng"},
		{billing.ChargeLineItem{Type: billing.ItemInternet, Description: "Internet (plan A)"}, vi, "Internet (A)"},
		{billing.ChargeLineItem{Type: billing.ItemAdHoc, Description: "Thay khóa"}, en, "Thay khóa"},
		{billing.ChargeLineItem{Type: billing.ItemAdHoc}, en, "Additional charge"},
		{billing.ChargeLineItem{Type: billing.ItemTrash}, en, "Trash collection"},
	}
	for _, tt := range tests {
		if got := TranslateItemType(tt.item, tt.tr); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.item.Type, got, tt.want)
		}
	}

	if got := TranslateStatus(billing.StatusOverdue, vi); got != "Quá hạn" {
		t.Errorf("Unexpected overdue label %q", got)
	}
}
