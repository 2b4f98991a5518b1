package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

var testBank = BankAccount{
	BIN:           "970436",
	AccountNumber: "0123456789",
	AccountHolder: "NGUYEN VAN A",
	BankName:      "Vietcombank",
}

func TestCRC16CCITT_CheckValue(t *testing.T) {
	if got := crc16CCITT([]byte("123456789")); got != 0x29B1 {
		t.Errorf("Expected 0x29B1, got 0x%04X", got)
	}
}

func TestVietQRPayload(t *testing.T) {
	payload, err := VietQRPayload(testBank, 1_500_000, "HD7 P101 2025-10")
	if err != nil {
		t.Fatalf("VietQRPayload: %v", err)
	}

	for _, part := range []string{
		"000201",
		"010212",
		"0010A000000727",
		"0006970436",
		"01100123456789",
		"0208QRIBFTTA",
		"5303704",
		"54071500000",
		"5802VN",
		"0815HD7 P101 202510",
	} {
		if !strings.Contains(payload, part) {
			t.Errorf("Payload %q is missing %q", payload, part)
		}
	}

	body, crc := payload[:len(payload)-4], payload[len(payload)-4:]
	if !strings.HasSuffix(body, "6304") {
		t.Fatalf("Expected CRC tag before checksum: %q", payload)
	}
	if want := fmt.Sprintf("%04X", crc16CCITT([]byte(body))); crc != want {
		t.Errorf("Expected CRC %s, got %s", want, crc)
	}
}

func TestVietQRPayload_OpenAmount(t *testing.T) {
	payload, err := VietQRPayload(testBank, 0, "")
	if err != nil {
		t.Fatalf("VietQRPayload: %v", err)
	}
	if !strings.Contains(payload, "010211") {
		t.Errorf("Expected static initiation method: %q", payload)
	}
	if strings.Contains(payload, "5802VN62") {
		t.Errorf("Expected no additional data without a note: %q", payload)
	}
}

func TestVietQRPayload_InvalidAccount(t *testing.T) {
	tests := []BankAccount{
		{BIN: "97043", AccountNumber: "1"},
		{BIN: "97043A", AccountNumber: "1"},
		{BIN: "970436"},
	}
	for _, acct := range tests {
		if _, err := VietQRPayload(acct, 1, ""); !errors.Is(err, ErrInvalidBankAccount) {
			t.Errorf("%+v: expected ErrInvalidBankAccount, got %v", acct, err)
		}
	}
}

func TestTransferNote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hóa đơn P101", "Hoa don P101"},
		{"  HD12 - Phòng 3  ", "HD12  Phong 3"},
		{strings.Repeat("a", 80), strings.Repeat("a", maxTransferNote)},
	}
	for _, tt := range tests {
		if got := transferNote(tt.in); got != tt.want {
			t.Errorf("transferNote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
