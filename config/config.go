package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aj9599/rental-billing/billing"
)

type Config struct {
	APIBaseURL           string
	ServerAddress        string
	DatabasePath         string
	JWTSecret            string
	SessionEncryptionKey string
	RequestTimeout       time.Duration
	MeterSaveDelay       time.Duration
	MQTTBroker           string
	MQTTTopic            string
	MQTTUsername         string
	MQTTPassword         string
	AutoBillingToken     string
	DefaultLanguage      string
	AllowedOrigins       []string
	PDFFontPath          string
	Bank                 BankConfig
	Tariff               billing.TariffConfig
}

// BankConfig is the payee printed on invoices and encoded in the transfer QR.
type BankConfig struct {
	BIN           string
	AccountNumber string
	AccountHolder string
	Name          string
}

// Load reads an optional .env file, then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARNING: Failed to read .env file: %v", err)
	}

	return &Config{
		APIBaseURL:           getEnv("API_BASE_URL", "http://localhost:8000/api"),
		ServerAddress:        getEnv("SERVER_ADDRESS", ":8081"),
		DatabasePath:         getEnv("DATABASE_PATH", "./rental-billing.db"),
		JWTSecret:            getEnv("JWT_SECRET", "rental-billing-secret-change-in-production"),
		SessionEncryptionKey: getEnv("SESSION_ENCRYPTION_KEY", ""),
		RequestTimeout:       getDuration("REQUEST_TIMEOUT", 30*time.Second),
		MeterSaveDelay:       getDuration("METER_SAVE_DELAY", 300*time.Millisecond),
		MQTTBroker:           getEnv("MQTT_BROKER", ""),
		MQTTTopic:            getEnv("MQTT_TOPIC", "rental/meters/+/reading"),
		MQTTUsername:         getEnv("MQTT_USERNAME", ""),
		MQTTPassword:         getEnv("MQTT_PASSWORD", ""),
		AutoBillingToken:     getEnv("AUTO_BILLING_TOKEN", ""),
		DefaultLanguage:      getEnv("DEFAULT_LANGUAGE", "vi"),
		AllowedOrigins:       getList("ALLOWED_ORIGINS", []string{"*"}),
		PDFFontPath:          getEnv("PDF_FONT_PATH", ""),
		Bank: BankConfig{
			BIN:           getEnv("BANK_BIN", ""),
			AccountNumber: getEnv("BANK_ACCOUNT_NUMBER", ""),
			AccountHolder: getEnv("BANK_ACCOUNT_HOLDER", ""),
			Name:          getEnv("BANK_NAME", ""),
		},
		Tariff: loadTariff(),
	}
}

func loadTariff() billing.TariffConfig {
	t := billing.DefaultTariff()
	t.ElectricityRatePerKwh = getInt64("TARIFF_ELECTRICITY_RATE", t.ElectricityRatePerKwh)
	t.WaterRatePerOccupant = getInt64("TARIFF_WATER_RATE", t.WaterRatePerOccupant)
	t.InternetPlanAFee = getInt64("TARIFF_INTERNET_PLAN_A", t.InternetPlanAFee)
	t.InternetPlanBFee = getInt64("TARIFF_INTERNET_PLAN_B", t.InternetPlanBFee)
	t.TrashFee = getInt64("TARIFF_TRASH_FEE", t.TrashFee)
	t.ParkingFeePerVehicle = getInt64("TARIFF_PARKING_FEE", t.ParkingFeePerVehicle)
	t.DueDayOfMonth = int(getInt64("TARIFF_DUE_DAY", int64(t.DueDayOfMonth)))
	return t
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("WARNING: Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
