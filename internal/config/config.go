package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

type Config struct {
	Development bool
	// API configuration
	APIPort int
	// Postgres configuration
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string
	// Chain configuration
	NodeURL           string
	BundlerURL        string
	PaymasterURL      string
	EntryPointAddress string
	AccountAddress    string
	OwnerKey          string
	ChainID           *big.Int
	ExplorerURL       string

	// Receipt wait policy (owned by the account client, not the core)
	ReceiptWaitTimeout  time.Duration
	ReceiptPollInterval time.Duration

	// Asset registry configuration
	NativeSymbol string
	NativeName   string
	// Tokens is the static token list, "SYMBOL:address:decimals" entries
	// separated by commas.
	Tokens string
	// TokenListURL optionally points at a JSON token list refreshed
	// periodically into the registry.
	TokenListURL string

	// SMTP configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPSender   string

	// Operator notification configuration
	TelegramBotToken string
	OperatorChatID   string
	OperatorEmail    string
}

// knownExplorers maps chain IDs to their canonical block explorer.
var knownExplorers = map[int64]string{
	1:        "https://etherscan.io",
	10:       "https://optimistic.etherscan.io",
	8453:     "https://basescan.org",
	84532:    "https://sepolia.basescan.org",
	11155111: "https://sepolia.etherscan.io",
}

// ExplorerBase returns the block explorer base URL for the configured chain.
// An explicit EXPLORER_URL wins over the built-in per-chain mapping.
func (c *Config) ExplorerBase() string {
	if c.ExplorerURL != "" {
		return strings.TrimRight(c.ExplorerURL, "/")
	}
	if base, ok := knownExplorers[c.ChainID.Int64()]; ok {
		return base
	}
	// Unknown chain without an override: no explorer links
	return ""
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Development:      getEnvAsBool("DEVELOPMENT", false),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvAsInt("POSTGRES_PORT", 5432),
		PostgresDB:       getEnv("POSTGRES_DB", "patronus"),

		NodeURL:           getEnv("NODE_URL", "http://localhost:8545"),
		BundlerURL:        getEnv("BUNDLER_URL", ""),
		PaymasterURL:      getEnv("PAYMASTER_URL", ""),
		EntryPointAddress: getEnv("ENTRYPOINT_ADDRESS", "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"),
		AccountAddress:    getEnv("ACCOUNT_ADDRESS", ""),
		OwnerKey:          getEnv("OWNER_KEY", ""),
		ChainID:           getEnvAsBigInt("CHAIN_ID", big.NewInt(11155111)), // Default to Sepolia
		ExplorerURL:       getEnv("EXPLORER_URL", ""),

		ReceiptWaitTimeout:  time.Duration(getEnvAsInt("RECEIPT_WAIT_TIMEOUT_SECONDS", 120)) * time.Second,
		ReceiptPollInterval: time.Duration(getEnvAsInt("RECEIPT_POLL_INTERVAL_SECONDS", 2)) * time.Second,

		NativeSymbol: getEnv("NATIVE_SYMBOL", "ETH"),
		NativeName:   getEnv("NATIVE_NAME", "Ether"),
		Tokens:       getEnv("TOKENS", ""),
		TokenListURL: getEnv("TOKEN_LIST_URL", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPSender:   getEnv("SMTP_SENDER", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		OperatorChatID:   getEnv("OPERATOR_CHAT_ID", ""),
		OperatorEmail:    getEnv("OPERATOR_EMAIL", ""),

		APIPort: getEnvAsInt("API_PORT", 6533),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are properly set
func (c *Config) Validate() error {
	if c.BundlerURL == "" {
		return fmt.Errorf("BUNDLER_URL is required")
	}

	if c.NodeURL == "" {
		return fmt.Errorf("NODE_URL is required")
	}

	if c.AccountAddress == "" {
		return fmt.Errorf("ACCOUNT_ADDRESS is required")
	}
	if !common.IsHexAddress(c.AccountAddress) {
		return fmt.Errorf("invalid ACCOUNT_ADDRESS format: %s", c.AccountAddress)
	}

	if !common.IsHexAddress(c.EntryPointAddress) {
		return fmt.Errorf("invalid ENTRYPOINT_ADDRESS format: %s", c.EntryPointAddress)
	}

	if c.OwnerKey == "" {
		return fmt.Errorf("OWNER_KEY is required")
	}

	if c.PostgresDB == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}

	if _, err := c.TokenEntries(); err != nil {
		return err
	}

	return nil
}

// TokenEntry is one parsed entry of the static TOKENS configuration.
type TokenEntry struct {
	Symbol   string
	Address  string
	Decimals int32
}

// TokenEntries parses the TOKENS environment value.
func (c *Config) TokenEntries() ([]TokenEntry, error) {
	if c.Tokens == "" {
		return nil, nil
	}

	var entries []TokenEntry
	for _, raw := range strings.Split(c.Tokens, ",") {
		parts := strings.Split(strings.TrimSpace(raw), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid TOKENS entry %q: want SYMBOL:address:decimals", raw)
		}
		if !common.IsHexAddress(parts[1]) {
			return nil, fmt.Errorf("invalid token address in TOKENS entry %q", raw)
		}
		decimals, err := strconv.Atoi(parts[2])
		if err != nil || decimals < 0 {
			return nil, fmt.Errorf("invalid token decimals in TOKENS entry %q", raw)
		}
		entries = append(entries, TokenEntry{
			Symbol:   strings.ToUpper(parts[0]),
			Address:  parts[1],
			Decimals: int32(decimals),
		})
	}
	return entries, nil
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBigInt(name string, defaultValue *big.Int) *big.Int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, ok := new(big.Int).SetString(valueStr, 10); ok {
			return value
		}
	}
	return defaultValue
}
