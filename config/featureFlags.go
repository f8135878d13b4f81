package config

import (
	"os"
	"strings"
	"time"
)

const (
	LedgerBackendRedis  = "redis"
	LedgerBackendMySQL  = "mysql"
	LedgerBackendGCS    = "gcs"
	LedgerBackendMemory = "memory"

	defaultLedgerKey        = "salesRecords"
	defaultPhoneCountryCode = "IN"
)

// StrictPhoneValidation adds a libphonenumber check on top of the minimum length rule.
//
// Set via env:
// - STRICT_PHONE_VALIDATION=true
func StrictPhoneValidation() bool {
	return envBool("STRICT_PHONE_VALIDATION")
}

// PhoneCountryCode is the default region used when a phone number has no international prefix.
func PhoneCountryCode() string {
	v := strings.ToUpper(strings.TrimSpace(os.Getenv("PHONE_COUNTRY_CODE")))
	if v == "" {
		return defaultPhoneCountryCode
	}
	return v
}

// LedgerBackend selects the persistence gateway for the sales ledger.
//
// Set via env:
// - LEDGER_BACKEND=redis|mysql|gcs|memory (default redis)
func LedgerBackend() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("LEDGER_BACKEND")))
	if v == "" {
		return LedgerBackendRedis
	}
	return v
}

// LedgerKey names the key, row or object the serialized ledger is stored under.
func LedgerKey() string {
	v := strings.TrimSpace(os.Getenv("LEDGER_KEY"))
	if v == "" {
		return defaultLedgerKey
	}
	return v
}

// SalesTopic is the Pub/Sub topic for committed sales. Empty disables notifications.
func SalesTopic() string {
	return strings.TrimSpace(os.Getenv("SALES_TOPIC"))
}

// StoreLocation is used for month bucketing and display timestamps.
//
// Set via env:
// - STORE_TIMEZONE=Asia/Kolkata (default: process local time)
func StoreLocation() *time.Location {
	name := strings.TrimSpace(os.Getenv("STORE_TIMEZONE"))
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		LogError(GetLogger(), "config", "StoreLocation", "time.LoadLocation", name, err)
		return time.Local
	}
	return loc
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
