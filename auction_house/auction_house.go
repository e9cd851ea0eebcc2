package auction_house

import (
	"context"

	"github.com/pkg/errors"

	"aptos-nft-auction/chain_client"
	"aptos-nft-auction/logger"
	"aptos-nft-auction/wallet_manager"
)

var ErrWalletNotConnected = errors.New("wallet is not connected")

type Operation string

const (
	OperationListForAuction Operation = "list_for_auction"
	OperationBid            Operation = "bid"
	OperationFinalize       Operation = "finalize"
)

// DispatchState tracks a single user action:
// Idle -> Submitting -> AwaitingConfirmation -> Confirmed | Failed -> Idle.
type DispatchState string

const (
	StateIdle                 DispatchState = "idle"
	StateSubmitting           DispatchState = "submitting"
	StateAwaitingConfirmation DispatchState = "awaiting_confirmation"
	StateConfirmed            DispatchState = "confirmed"
	StateFailed               DispatchState = "failed"
)

type StateObserver func(op Operation, state DispatchState)

// Refresher resynchronizes the view after a confirmed transaction.
type Refresher func(ctx context.Context)

type ListingParams struct {
	NftID        uint64
	StartPrice   uint64
	ReservePrice uint64
	Duration     uint64
}

type Receipt struct {
	Operation Operation
	Hash      string
	Version   uint64
}

// Dispatcher submits the module's entry functions through a wallet. The
// contract validates everything; no client-side checks happen here.
type Dispatcher struct {
	cfg      Config
	wallet   wallet_manager.Wallet
	chain    TransactionWaiter
	refresh  Refresher
	observer StateObserver
}

func NewDispatcher(cfg Config, wallet wallet_manager.Wallet, chain TransactionWaiter, refresh Refresher) *Dispatcher {
	return &Dispatcher{cfg: cfg, wallet: wallet, chain: chain, refresh: refresh}
}

func (d *Dispatcher) OnStateChange(observer StateObserver) {
	d.observer = observer
}

func (d *Dispatcher) transition(op Operation, state DispatchState) {
	if d.observer != nil {
		d.observer(op, state)
	}
}

func ListForAuctionPayload(cfg Config, params ListingParams) chain_client.EntryFunctionPayload {
	return chain_client.EntryFunctionPayload{
		Function:      cfg.FunctionID(listNFTForAuctionFunction),
		TypeArguments: []string{},
		Arguments: []chain_client.Argument{
			chain_client.AddressArg(cfg.moduleAddress()),
			chain_client.U64Arg(params.NftID),
			chain_client.U64Arg(params.StartPrice),
			chain_client.U64Arg(params.ReservePrice),
			chain_client.U64Arg(params.Duration),
		},
	}
}

func BidPayload(cfg Config, auctionID AuctionID, amount uint64) chain_client.EntryFunctionPayload {
	return chain_client.EntryFunctionPayload{
		Function:      cfg.FunctionID(placeBidFunction),
		TypeArguments: []string{},
		Arguments: []chain_client.Argument{
			chain_client.U64Arg(uint64(auctionID)),
			chain_client.U64Arg(amount),
		},
	}
}

func FinalizePayload(cfg Config, auctionID AuctionID) chain_client.EntryFunctionPayload {
	return chain_client.EntryFunctionPayload{
		Function:      cfg.FunctionID(finalizeAuctionFunction),
		TypeArguments: []string{},
		Arguments:     []chain_client.Argument{chain_client.U64Arg(uint64(auctionID))},
	}
}

func (d *Dispatcher) ListForAuction(ctx context.Context, params ListingParams) (*Receipt, error) {
	return d.dispatch(ctx, OperationListForAuction, ListForAuctionPayload(d.cfg, params))
}

// Bid is submitted even when amount is below the current highest bid; the
// contract decides.
func (d *Dispatcher) Bid(ctx context.Context, auctionID AuctionID, amount uint64) (*Receipt, error) {
	return d.dispatch(ctx, OperationBid, BidPayload(d.cfg, auctionID, amount))
}

func (d *Dispatcher) Finalize(ctx context.Context, auctionID AuctionID) (*Receipt, error) {
	return d.dispatch(ctx, OperationFinalize, FinalizePayload(d.cfg, auctionID))
}

func (d *Dispatcher) dispatch(ctx context.Context, op Operation, payload chain_client.EntryFunctionPayload) (*Receipt, error) {
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		"component": "Dispatcher",
		"operation": string(op),
		"function":  payload.Function,
	})
	if d.wallet == nil {
		return nil, ErrWalletNotConnected
	}

	d.transition(op, StateSubmitting)
	hash, err := d.wallet.SignAndSubmitTransaction(ctx, payload)
	if err != nil {
		d.fail(op)
		log.Error("Failed to sign and submit transaction", err, nil)
		return nil, errors.Wrapf(err, "failed to submit %s", op)
	}

	d.transition(op, StateAwaitingConfirmation)
	log.Info("Awaiting transaction confirmation", logger.Fields{"hash": hash})
	tx, err := d.chain.WaitForTransaction(ctx, hash)
	if err != nil {
		d.fail(op)
		log.Error("Transaction was not confirmed", err, logger.Fields{"hash": hash})
		return nil, errors.Wrapf(err, "failed to confirm %s", op)
	}

	d.transition(op, StateConfirmed)
	if d.refresh != nil {
		d.refresh(ctx)
	}
	d.transition(op, StateIdle)

	receipt := &Receipt{Operation: op, Hash: hash}
	if tx != nil {
		receipt.Version = uint64(tx.Version)
	}
	return receipt, nil
}

func (d *Dispatcher) fail(op Operation) {
	d.transition(op, StateFailed)
	d.transition(op, StateIdle)
}
