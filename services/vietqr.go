package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// BankAccount is the payee of invoice transfers.
type BankAccount struct {
	BIN           string
	AccountNumber string
	AccountHolder string
	BankName      string
}

func (b BankAccount) Configured() bool {
	return b.BIN != "" && b.AccountNumber != ""
}

var ErrInvalidBankAccount = errors.New("bank BIN must be 6 digits and the account number must be set")

const (
	napasGUID        = "A000000727"
	serviceToAccount = "QRIBFTTA"
	currencyVND      = "704"
	maxTransferNote  = 50
)

// VietQRPayload builds the EMVCo merchant-presented payload that Vietnamese
// banking apps read for a transfer to acct. A zero amount leaves the amount
// open.
func VietQRPayload(acct BankAccount, amount int64, note string) (string, error) {
	if len(acct.BIN) != 6 || !isDigits(acct.BIN) || acct.AccountNumber == "" {
		return "", ErrInvalidBankAccount
	}

	beneficiary := tlv("00", acct.BIN) + tlv("01", acct.AccountNumber)
	merchant := tlv("00", napasGUID) + tlv("01", beneficiary) + tlv("02", serviceToAccount)

	initMethod := "11"
	if amount > 0 {
		initMethod = "12"
	}

	var b strings.Builder
	b.WriteString(tlv("00", "01"))
	b.WriteString(tlv("01", initMethod))
	b.WriteString(tlv("38", merchant))
	b.WriteString(tlv("53", currencyVND))
	if amount > 0 {
		b.WriteString(tlv("54", strconv.FormatInt(amount, 10)))
	}
	b.WriteString(tlv("58", "VN"))
	if note = transferNote(note); note != "" {
		b.WriteString(tlv("62", tlv("08", note)))
	}
	b.WriteString("6304")

	payload := b.String()
	return payload + fmt.Sprintf("%04X", crc16CCITT([]byte(payload))), nil
}

func tlv(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// transferNote keeps the note within what banks accept: plain ASCII letters,
// digits and spaces.
func transferNote(note string) string {
	note = FoldDiacritics(note)
	var b strings.Builder
	for _, r := range note {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
		if b.Len() == maxTransferNote {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

// crc16CCITT is CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF).
func crc16CCITT(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
