package aptos_nft_auction

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"aptos-nft-auction/auction_house"
	"aptos-nft-auction/auction_page"
	"aptos-nft-auction/chain_client"
	"aptos-nft-auction/config"
	"aptos-nft-auction/logger"
	"aptos-nft-auction/wallet_manager"
)

const shutdownTimeout = time.Duration(5) * time.Second

// Marketplace wires the chain client, wallet, reader and page together.
type Marketplace struct {
	Config *config.AppConfig
	Logger logger.Logger
	Chain  *chain_client.Client
	Wallet *wallet_manager.WalletManager
	Reader auction_house.Reader
	Page   *auction_page.Page
	Server *auction_page.Server

	fluent *fluent.Fluent
}

// NewLogger builds stdout logging and, when enabled, a Fluent Bit sink.
// The returned client is nil without Fluent Bit.
func NewLogger(cfg *config.AppConfig) (logger.Logger, *fluent.Fluent, error) {
	stdout := logger.NewSlogLogger(logger.SlogConfig{
		Writer:   os.Stdout,
		Level:    logger.ParseLevel(cfg.Log.Level),
		IsJSON:   cfg.Log.JSON,
		UseColor: !cfg.Log.JSON,
	})
	base := logger.Fields{"service": cfg.AppName}
	if !cfg.FluentBit.Enabled {
		return stdout.WithFields(base), nil, nil
	}

	client, err := logger.NewFluentClient(logger.FluentConfig{
		Host:      cfg.FluentBit.Host,
		Port:      cfg.FluentBit.Port,
		TagPrefix: cfg.AppName,
	})
	if err != nil {
		return nil, nil, err
	}
	fluentLogger, err := logger.NewFluentLogger(client, logger.ParseLevel(cfg.FluentBit.Level))
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	multi, err := logger.NewMultiLogger(stdout, fluentLogger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return multi.WithFields(base), client, nil
}

func NewWallet(cfg config.WalletConfig, node wallet_manager.Node) (*wallet_manager.WalletManager, error) {
	if cfg.PrivateKey == "" {
		return nil, nil
	}
	key, err := wallet_manager.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid WALLET_PRIVATE_KEY")
	}
	address := wallet_manager.DeriveAddress(key)
	if cfg.Address != "" {
		// rotated auth keys no longer derive the account address
		if address, err = wallet_manager.ParseAddress(cfg.Address); err != nil {
			return nil, errors.Wrap(err, "invalid WALLET_ADDRESS")
		}
	}
	return wallet_manager.NewWalletManagerWithOpts(
		node,
		key,
		address,
		cfg.MaxGasAmount,
		cfg.GasUnitPrice,
		cfg.Expiration,
	), nil
}

func NewReader(strategy auction_house.Strategy, cfg auction_house.Config, chain auction_house.ChainReader) (auction_house.Reader, error) {
	switch strategy {
	case auction_house.StrategyResource, "":
		return auction_house.NewResourceReader(cfg, chain), nil
	case auction_house.StrategyView:
		return auction_house.NewViewReader(cfg, chain), nil
	}
	return nil, errors.Errorf("unknown reader strategy %q", strategy)
}

// New builds the marketplace. log may be nil, in which case one is built
// from cfg.
func New(cfg *config.AppConfig, log logger.Logger) (*Marketplace, error) {
	m := &Marketplace{Config: cfg, Logger: log}
	if m.Logger == nil {
		var err error
		if m.Logger, m.fluent, err = NewLogger(cfg); err != nil {
			return nil, errors.Wrap(err, "failed to set up logging")
		}
	}

	m.Chain = chain_client.NewClientWithOpts(
		cfg.Chain.NodeURL,
		&http.Client{Timeout: cfg.Chain.RequestTimeout},
		cfg.Chain.ConfirmationTimeout,
		cfg.Chain.ConfirmationDelay,
	)

	wallet, err := NewWallet(cfg.Wallet, m.Chain)
	if err != nil {
		m.Close()
		return nil, err
	}
	m.Wallet = wallet

	houseCfg := auction_house.Config{ModuleAddress: cfg.Chain.ModuleAddress}
	if m.Reader, err = NewReader(cfg.ReaderStrategy, houseCfg, m.Chain); err != nil {
		m.Close()
		return nil, err
	}

	// a nil *WalletManager must not become a non-nil interface
	var pageWallet wallet_manager.Wallet
	if wallet != nil {
		pageWallet = wallet
	}
	m.Page = auction_page.NewPage(houseCfg, m.Reader, pageWallet, m.Chain, m.Logger)
	m.Server = auction_page.NewServer(cfg.HTTP.Port, auction_page.NewHandlers(m.Page), m.Logger)

	fields := logger.Fields{
		"node_url":        cfg.Chain.NodeURL,
		"module_address":  houseCfg.ModuleAddress,
		"reader_strategy": string(m.Reader.Strategy()),
	}
	if wallet != nil {
		fields["account"] = wallet.Address()
	}
	m.Logger.Info("Marketplace configured", fields)
	return m, nil
}

// Run serves the page until ctx is cancelled, then shuts the server down.
func (m *Marketplace) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(m.Server.Start)
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return m.Server.Stop(shutdownCtx)
	})
	return g.Wait()
}

func (m *Marketplace) Close() {
	if m.fluent != nil {
		if err := m.fluent.Close(); err != nil {
			m.Logger.Error("Failed to close fluent client", err, nil)
		}
		m.fluent = nil
	}
}
