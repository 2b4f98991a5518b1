package config

import (
	"testing"
	"time"

	"github.com/aj9599/rental-billing/billing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("METER_SAVE_DELAY", "")
	t.Setenv("TARIFF_ELECTRICITY_RATE", "")

	cfg := Load()

	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.MeterSaveDelay != 300*time.Millisecond {
		t.Errorf("Expected 300ms delay, got %s", cfg.MeterSaveDelay)
	}
	if cfg.Tariff != billing.DefaultTariff() {
		t.Errorf("Expected default tariff, got %+v", cfg.Tariff)
	}
	if cfg.DefaultLanguage != "vi" {
		t.Errorf("Expected vi, got %s", cfg.DefaultLanguage)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.vn")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("TARIFF_ELECTRICITY_RATE", "4000")
	t.Setenv("TARIFF_DUE_DAY", "10")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()

	if cfg.APIBaseURL != "https://api.example.vn" {
		t.Errorf("Unexpected base URL %s", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("Expected 5s, got %s", cfg.RequestTimeout)
	}
	if cfg.Tariff.ElectricityRatePerKwh != 4000 || cfg.Tariff.DueDayOfMonth != 10 {
		t.Errorf("Tariff overrides not applied: %+v", cfg.Tariff)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("METER_SAVE_DELAY", "soon")
	t.Setenv("TARIFF_TRASH_FEE", "free")

	cfg := Load()

	if cfg.MeterSaveDelay != 300*time.Millisecond {
		t.Errorf("Expected default delay, got %s", cfg.MeterSaveDelay)
	}
	if cfg.Tariff.TrashFee != billing.DefaultTrashFee {
		t.Errorf("Expected default trash fee, got %d", cfg.Tariff.TrashFee)
	}
}
