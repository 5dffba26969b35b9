package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	BackendEth    = "eth"
	BackendMemory = "memory"
)

type Config struct {
	Port          string
	Env           string
	LedgerBackend string

	RPCURL          string
	ContractAddress string
	RelayerKey      string
	OwnerKey        string

	StripeSecretKey     string
	StripeWebhookSecret string

	DBSource  string
	RedisAddr string
}

func Load() (*Config, error) {
	// Optional; env vars set in the process win over .env entries.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getenv("SERVER_PORT", "3001"),
		Env:                 getenv("ENVIRONMENT", "development"),
		LedgerBackend:       getenv("LEDGER_BACKEND", BackendEth),
		RPCURL:              os.Getenv("RPC_URL"),
		ContractAddress:     os.Getenv("CONTRACT_ADDRESS"),
		RelayerKey:          os.Getenv("RELAYER_PRIVATE_KEY"),
		OwnerKey:            os.Getenv("OWNER_PRIVATE_KEY"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		DBSource:            os.Getenv("DB_SOURCE"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
	}

	switch cfg.LedgerBackend {
	case BackendEth:
		if cfg.ContractAddress == "" {
			return nil, fmt.Errorf("CONTRACT_ADDRESS environment variable is required")
		}
		if cfg.RPCURL == "" {
			return nil, fmt.Errorf("RPC_URL environment variable is required")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
