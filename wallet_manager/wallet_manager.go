package wallet_manager

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"aptos-nft-auction/chain_client"
	"aptos-nft-auction/logger"
)

const (
	DefaultMaxGasAmount = 200000
	DefaultExpiration   = time.Duration(60) * time.Second
)

func NewWalletManager(node Node, privateKey solana.PrivateKey) *WalletManager {
	return NewWalletManagerWithOpts(
		node,
		privateKey,
		DeriveAddress(privateKey),
		DefaultMaxGasAmount,
		0,
		DefaultExpiration,
	)
}

func NewWalletManagerWithOpts(
	node Node,
	privateKey solana.PrivateKey,
	address AccountAddress,
	maxGasAmount uint64,
	gasUnitPrice uint64,
	expiration time.Duration,
) *WalletManager {
	return &WalletManager{
		Node:         node,
		PrivateKey:   privateKey,
		MaxGasAmount: maxGasAmount,
		GasUnitPrice: gasUnitPrice,
		Expiration:   expiration,
		address:      address,
		now:          time.Now,
	}
}

func (wm *WalletManager) Address() string {
	return wm.address.String()
}

// BuildTransaction fills in sequence number, chain id and gas for payload.
func (wm *WalletManager) BuildTransaction(ctx context.Context, payload chain_client.EntryFunctionPayload) (*RawTransaction, error) {
	fn, err := NewEntryFunction(payload)
	if err != nil {
		return nil, err
	}

	var sequenceNumber uint64
	account, err := wm.Node.GetAccount(ctx, wm.Address())
	switch {
	case err == nil:
		sequenceNumber = uint64(account.SequenceNumber)
	case chain_client.IsNotFound(err):
		// account not created yet, first transaction uses 0
	default:
		return nil, errors.Wrapf(err, "failed to get account %s", wm.Address())
	}

	ledger, err := wm.Node.GetLedgerInfo(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ledger info")
	}

	gasUnitPrice := wm.GasUnitPrice
	if gasUnitPrice == 0 {
		estimation, err := wm.Node.EstimateGasPrice(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to estimate gas price")
		}
		gasUnitPrice = estimation.GasEstimate
	}

	return &RawTransaction{
		Sender:                  wm.address,
		SequenceNumber:          sequenceNumber,
		Payload:                 fn,
		MaxGasAmount:            wm.MaxGasAmount,
		GasUnitPrice:            gasUnitPrice,
		ExpirationTimestampSecs: uint64(wm.now().Add(wm.Expiration).Unix()),
		ChainID:                 ledger.ChainID,
	}, nil
}

// SignTransaction returns the BCS encoded SignedTransaction.
func (wm *WalletManager) SignTransaction(tx *RawTransaction) ([]byte, error) {
	raw, err := tx.MarshalBCS()
	if err != nil {
		return nil, err
	}
	message, err := tx.SigningMessage()
	if err != nil {
		return nil, err
	}
	sig, err := wm.PrivateKey.Sign(message)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}
	pub := wm.PrivateKey.PublicKey()
	return EncodeSignedTransaction(raw, pub.Bytes(), sig[:])
}

func (wm *WalletManager) SignAndSubmitTransaction(ctx context.Context, payload chain_client.EntryFunctionPayload) (string, error) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	log := logger.FromContext(ctx).WithFields(logger.Fields{
		"component": "WalletManager",
		"sender":    wm.Address(),
		"function":  payload.Function,
	})

	tx, err := wm.BuildTransaction(ctx, payload)
	if err != nil {
		return "", err
	}
	signed, err := wm.SignTransaction(tx)
	if err != nil {
		return "", err
	}
	pending, err := wm.Node.SubmitTransaction(ctx, signed)
	if err != nil {
		return "", errors.Wrap(err, "failed to submit transaction")
	}
	hash := pending.Hash
	if hash == "" {
		hash = TransactionHash(signed)
	}
	log.Info("Transaction signed and submitted", logger.Fields{
		"hash":            hash,
		"sequence_number": tx.SequenceNumber,
	})
	return hash, nil
}
