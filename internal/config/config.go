package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DBUrl              string
	JWTSecret          string
	AppEnv             string
	AdminEmail         string
	SupabaseURL        string
	SupabaseBucket     string
	SupabaseServiceKey string
	FlutterwaveBaseURL string
	FlutterwaveSecret  string
	PaymentCurrency    string
	SMTPHost           string
	SMTPPort           string
	SMTPUser           string
	SMTPPassword       string
	SMTPFrom           string
	SheetsCredFile     string
	SheetsSpreadsheet  string
	SheetsRange        string
	ExpiryScanCron     string
	OfflineSweepCron   string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DBUrl:              getEnv("DB_URL", ""),
		JWTSecret:          jwtSecret,
		AppEnv:             normalizeEnv(getEnv("APP_ENV", "production")),
		AdminEmail:         strings.ToLower(getEnv("ADMIN_EMAIL", "")),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		FlutterwaveBaseURL: getEnv("FLW_BASE_URL", "https://api.flutterwave.com/v3"),
		FlutterwaveSecret:  getEnv("FLW_SECRET_KEY", ""),
		PaymentCurrency:    strings.ToUpper(getEnv("PAYMENT_CURRENCY", "NGN")),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnv("SMTP_PORT", "587"),
		SMTPUser:           getEnv("SMTP_USER", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:           getEnv("SMTP_FROM", ""),
		SheetsCredFile:     getEnv("SHEETS_CREDENTIALS_FILE", ""),
		SheetsSpreadsheet:  getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsRange:        getEnv("SHEETS_RANGE", "Leads!A:C"),
		ExpiryScanCron:     getEnv("EXPIRY_SCAN_CRON", "0 * * * *"),
		OfflineSweepCron:   getEnv("OFFLINE_SWEEP_CRON", "*/5 * * * *"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
