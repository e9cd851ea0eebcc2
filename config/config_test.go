package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"aptos-nft-auction/auction_house"
	"aptos-nft-auction/chain_client"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("failed to load defaults: %s", err.Error())
	}

	if cfg.AppName != "aptos-nft-auction" || cfg.HTTP.Port != "8080" {
		t.Fatalf("unexpected app defaults %q %q", cfg.AppName, cfg.HTTP.Port)
	}
	if cfg.Chain.NodeURL != chain_client.DevnetURL || cfg.Chain.ModuleAddress != auction_house.DefaultModuleAddress {
		t.Fatalf("unexpected chain defaults %+v", cfg.Chain)
	}
	if cfg.ReaderStrategy != auction_house.StrategyResource {
		t.Fatalf("unexpected strategy %q", cfg.ReaderStrategy)
	}
	if cfg.Chain.ConfirmationTimeout != 30*time.Second || cfg.Wallet.MaxGasAmount != 200000 {
		t.Fatalf("unexpected timeouts or gas %+v %+v", cfg.Chain, cfg.Wallet)
	}
	if cfg.FluentBit.Enabled {
		t.Fatal("fluent bit enabled by default")
	}
}

func TestLoad_FromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "HTTP_PORT=9000\nREADER_STRATEGY=view\nCONFIRMATION_DELAY=250ms\nCONFIRMATION_TIMEOUT=5\nGAS_UNIT_PRICE=150\nFLUENTBIT_ENABLED=true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"HTTP_PORT", "READER_STRATEGY", "CONFIRMATION_DELAY", "CONFIRMATION_TIMEOUT", "GAS_UNIT_PRICE", "FLUENTBIT_ENABLED", "FLUENTBIT_HOST"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load env file: %s", err.Error())
	}

	if cfg.HTTP.Port != "9000" || cfg.ReaderStrategy != auction_house.StrategyView {
		t.Fatalf("unexpected port or strategy %q %q", cfg.HTTP.Port, cfg.ReaderStrategy)
	}
	if cfg.Chain.ConfirmationDelay != 250*time.Millisecond || cfg.Chain.ConfirmationTimeout != 5*time.Second {
		t.Fatalf("unexpected confirmation settings %+v", cfg.Chain)
	}
	if cfg.Wallet.GasUnitPrice != 150 {
		t.Fatalf("unexpected gas price %d", cfg.Wallet.GasUnitPrice)
	}
	// no host configured
	if cfg.FluentBit.Enabled {
		t.Fatal("fluent bit enabled without a host")
	}
}

func TestLoad_UnknownStrategy(t *testing.T) {
	t.Setenv("READER_STRATEGY", "indexer")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
