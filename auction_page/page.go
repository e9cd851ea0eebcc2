package auction_page

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"aptos-nft-auction/auction_house"
	"aptos-nft-auction/logger"
	"aptos-nft-auction/wallet_manager"
)

var ErrNoWalletConfigured = errors.New("no wallet is configured")

// Page owns the displayed auction list. Only Refresh writes it; a slow
// fetch finishing after a newer one still wins.
type Page struct {
	cfg        auction_house.Config
	reader     auction_house.Reader
	wallet     wallet_manager.Wallet
	dispatcher *auction_house.Dispatcher
	log        logger.Logger

	mu        sync.Mutex
	connected bool
	snapshot  auction_house.Snapshot
}

// NewPage wires the dispatcher so every confirmed transaction refreshes the
// page. wallet may be nil for a read-only page.
func NewPage(
	cfg auction_house.Config,
	reader auction_house.Reader,
	wallet wallet_manager.Wallet,
	chain auction_house.TransactionWaiter,
	log logger.Logger,
) *Page {
	if log == nil {
		log = logger.Noop()
	}
	p := &Page{
		cfg:       cfg,
		reader:    reader,
		wallet:    wallet,
		log:       log.WithFields(logger.Fields{"component": "AuctionPage"}),
		connected: wallet != nil,
		snapshot:  auction_house.Snapshot{Strategy: reader.Strategy()},
	}
	p.dispatcher = auction_house.NewDispatcher(cfg, wallet, chain, p.Refresh)
	p.dispatcher.OnStateChange(func(op auction_house.Operation, state auction_house.DispatchState) {
		p.log.Debug("Dispatch state changed", logger.Fields{"operation": string(op), "state": string(state)})
	})
	return p
}

// Account is the connected account address, empty when disconnected.
func (p *Page) Account() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected || p.wallet == nil {
		return ""
	}
	return p.wallet.Address()
}

func (p *Page) WalletConfigured() bool {
	return p.wallet != nil
}

func (p *Page) Snapshot() auction_house.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

func (p *Page) Refresh(ctx context.Context) {
	snapshot := p.reader.Fetch(ctx, p.Account())
	p.mu.Lock()
	p.snapshot = snapshot
	p.mu.Unlock()
}

func (p *Page) Connect(ctx context.Context) error {
	if p.wallet == nil {
		return ErrNoWalletConfigured
	}
	p.mu.Lock()
	changed := !p.connected
	p.connected = true
	p.mu.Unlock()
	if changed {
		p.Refresh(ctx)
	}
	return nil
}

func (p *Page) Disconnect(ctx context.Context) {
	p.mu.Lock()
	changed := p.connected
	p.connected = false
	p.mu.Unlock()
	if changed {
		p.Refresh(ctx)
	}
}

func (p *Page) requireAccount() error {
	if p.Account() == "" {
		return auction_house.ErrWalletNotConnected
	}
	return nil
}

func (p *Page) ListForAuction(ctx context.Context, params auction_house.ListingParams) (*auction_house.Receipt, error) {
	if err := p.requireAccount(); err != nil {
		return nil, err
	}
	return p.dispatcher.ListForAuction(ctx, params)
}

func (p *Page) Bid(ctx context.Context, auctionID auction_house.AuctionID, amount uint64) (*auction_house.Receipt, error) {
	if err := p.requireAccount(); err != nil {
		return nil, err
	}
	return p.dispatcher.Bid(ctx, auctionID, amount)
}

func (p *Page) Finalize(ctx context.Context, auctionID auction_house.AuctionID) (*auction_house.Receipt, error) {
	if err := p.requireAccount(); err != nil {
		return nil, err
	}
	return p.dispatcher.Finalize(ctx, auctionID)
}
