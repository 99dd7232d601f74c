package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr            string
	DatabaseURL     string
	LedgerURL       string
	LedgerTimeout   time.Duration
	LedgerRetries   int
	LedgerScanLimit int
	FanoutLimit     int
	KafkaBrokers    []string
	KafkaTopic      string
	ArchiveBucket   string
	ArchivePrefix   string
	JWTSecret       string
	AllowDebugToken bool
	DebugToken      string
}

const (
	defaultAddr         = ":8080"
	defaultLedgerTOMs   = 5000
	defaultLedgerRetry  = 2
	defaultScanLimit    = 100
	defaultFanoutLimit  = 8
	defaultKafkaTopic   = "supplychain.audit"
	defaultArchivePfx   = "supplychain"
)

func Load() (Config, error) {
	cfg := Config{
		Addr:            getEnv("GATEWAY_ADDR", defaultAddr),
		DatabaseURL:     firstNonEmpty(os.Getenv("GATEWAY_DATABASE_URL"), os.Getenv("DATABASE_URL")),
		LedgerURL:       os.Getenv("LEDGER_URL"),
		LedgerTimeout:   time.Duration(getInt("LEDGER_TIMEOUT_MS", defaultLedgerTOMs)) * time.Millisecond,
		LedgerRetries:   getInt("LEDGER_RETRIES", defaultLedgerRetry),
		LedgerScanLimit: getInt("LEDGER_SCAN_LIMIT", defaultScanLimit),
		FanoutLimit:     getInt("GATEWAY_FANOUT_LIMIT", defaultFanoutLimit),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", defaultKafkaTopic),
		ArchiveBucket:   os.Getenv("ARCHIVE_BUCKET"),
		ArchivePrefix:   getEnv("ARCHIVE_PREFIX", defaultArchivePfx),
		JWTSecret:       os.Getenv("GATEWAY_JWT_SECRET"),
		AllowDebugToken: getBool("GATEWAY_ALLOW_DEBUG_TOKEN", false),
		DebugToken:      os.Getenv("GATEWAY_DEBUG_TOKEN"),
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL or GATEWAY_DATABASE_URL required")
	}
	if cfg.LedgerURL == "" {
		return Config{}, fmt.Errorf("LEDGER_URL required")
	}
	if cfg.JWTSecret == "" && !cfg.AllowDebugToken {
		return Config{}, fmt.Errorf("GATEWAY_JWT_SECRET required unless GATEWAY_ALLOW_DEBUG_TOKEN=true")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
