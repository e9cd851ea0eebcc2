package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"aptos-nft-auction/auction_house"
	"aptos-nft-auction/chain_client"
)

type HTTPConfig struct {
	Port string
}

type ChainConfig struct {
	NodeURL             string
	ModuleAddress       string
	RequestTimeout      time.Duration
	ConfirmationTimeout time.Duration
	ConfirmationDelay   time.Duration
}

// WalletConfig is optional: without a key the page runs read-only.
type WalletConfig struct {
	PrivateKey   string
	Address      string
	MaxGasAmount uint64
	GasUnitPrice uint64
	Expiration   time.Duration
}

type LogConfig struct {
	Level string
	JSON  bool
}

type FluentBitConfig struct {
	Enabled bool
	Host    string
	Port    int
	Level   string
}

type AppConfig struct {
	AppName        string
	HTTP           HTTPConfig
	Chain          ChainConfig
	ReaderStrategy auction_house.Strategy
	Wallet         WalletConfig
	Log            LogConfig
	FluentBit      FluentBitConfig
}

// Load reads an optional .env file, then the environment.
func Load(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath...)
	} else {
		err = godotenv.Load()
	}
	if err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrapf(err, "could not load .env file (path: %v)", envPath)
	}

	cfg := &AppConfig{}
	cfg.AppName = getEnvAsString("APP_NAME", "aptos-nft-auction")
	cfg.HTTP.Port = getEnvAsString("HTTP_PORT", "8080")

	cfg.Chain.NodeURL = getEnvAsString("APTOS_NODE_URL", chain_client.DevnetURL)
	cfg.Chain.ModuleAddress = getEnvAsString("MODULE_ADDRESS", auction_house.DefaultModuleAddress)
	cfg.Chain.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT", time.Duration(10)*time.Second)
	cfg.Chain.ConfirmationTimeout = getEnvAsDuration("CONFIRMATION_TIMEOUT", time.Duration(30)*time.Second)
	cfg.Chain.ConfirmationDelay = getEnvAsDuration("CONFIRMATION_DELAY", time.Duration(1)*time.Second)
	if cfg.Chain.ConfirmationDelay <= 0 {
		return nil, errors.New("CONFIRMATION_DELAY must be positive")
	}

	strategy, ok := auction_house.ParseStrategy(os.Getenv("READER_STRATEGY"))
	if !ok {
		return nil, errors.Errorf("unknown READER_STRATEGY %q, want resource or view", os.Getenv("READER_STRATEGY"))
	}
	cfg.ReaderStrategy = strategy

	cfg.Wallet.PrivateKey = os.Getenv("WALLET_PRIVATE_KEY")
	cfg.Wallet.Address = os.Getenv("WALLET_ADDRESS")
	cfg.Wallet.MaxGasAmount = getEnvAsUint("MAX_GAS_AMOUNT", 200000)
	cfg.Wallet.GasUnitPrice = getEnvAsUint("GAS_UNIT_PRICE", 0)
	cfg.Wallet.Expiration = getEnvAsDuration("TX_EXPIRATION", time.Duration(60)*time.Second)

	cfg.Log.Level = getEnvAsString("LOG_LEVEL", "info")
	cfg.Log.JSON = getEnvAsBool("LOG_JSON", false)

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: %s=%q is not an int: %v. Using default %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsUint(key string, defaultValue uint64) uint64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		log.Printf("Warning: %s=%q is not an unsigned int: %v. Using default %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: %s=%q is not a bool: %v. Using default %t\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("30s") or plain seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	log.Printf("Warning: %s=%q is not a duration. Using default %s\n", key, valueStr, defaultValue)
	return defaultValue
}
