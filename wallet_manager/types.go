package wallet_manager

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"aptos-nft-auction/chain_client"
)

// Wallet exposes the connected account and the ability to sign and submit
// an entry-function payload, returning the transaction hash.
type Wallet interface {
	Address() string
	SignAndSubmitTransaction(ctx context.Context, payload chain_client.EntryFunctionPayload) (string, error)
}

// Node is the part of the chain client the wallet needs to build and
// submit transactions.
type Node interface {
	GetAccount(ctx context.Context, address string) (*chain_client.AccountInfo, error)
	GetLedgerInfo(ctx context.Context) (*chain_client.LedgerInfo, error)
	EstimateGasPrice(ctx context.Context) (*chain_client.GasEstimation, error)
	SubmitTransaction(ctx context.Context, signedTxn []byte) (*chain_client.PendingTransaction, error)
}

// WalletManager is a local ed25519 wallet.
type WalletManager struct {
	Node         Node
	PrivateKey   solana.PrivateKey
	MaxGasAmount uint64
	// GasUnitPrice of zero asks the node for an estimate before each
	// submission.
	GasUnitPrice uint64
	Expiration   time.Duration

	address AccountAddress
	now     func() time.Time
	// mu keeps two submissions from reading the same sequence number.
	mu sync.Mutex
}
