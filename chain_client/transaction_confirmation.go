package chain_client

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"aptos-nft-auction/logger"
)

// WaitForTransaction polls the node until the transaction leaves the
// mempool. A committed transaction that aborted returns ErrTransactionFailed.
func (c *Client) WaitForTransaction(ctx context.Context, hash string) (*Transaction, error) {
	if hash == "" {
		return nil, errors.New("transaction hash is empty")
	}
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		"component": "ChainClient",
		"method":    "WaitForTransaction",
		"hash":      hash,
	})

	timeout := c.ConfirmationTimeout
	if timeout <= 0 {
		timeout = time.Duration(30) * time.Second
	}
	delay := c.ConfirmationDelay
	if delay <= 0 {
		delay = time.Duration(1) * time.Second
	}
	after := time.After(timeout)
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	// the first poll does not wait for a tick: a timeout shorter than the
	// delay still sees an already committed transaction
	var lastErr error
	for {
		tx, err := c.GetTransactionByHash(ctx, hash)
		switch {
		case err != nil:
			// 404 until the node has seen it
			if !IsNotFound(err) {
				log.Debug("Polling transaction failed", logger.Fields{"error": err.Error()})
			}
			lastErr = err
		case tx.IsPending():
			lastErr = nil
		case !tx.Success:
			return tx, errors.Wrapf(ErrTransactionFailed, "transaction %s: %s", hash, tx.VMStatus)
		default:
			log.Info("Transaction confirmed", logger.Fields{"version": uint64(tx.Version)})
			return tx, nil
		}

		select {
		case <-ticker.C:
		case <-after:
			if lastErr != nil {
				return nil, errors.Wrapf(ErrConfirmationTimeout, "transaction %s (last error: %s)", hash, lastErr.Error())
			}
			return nil, errors.Wrapf(ErrConfirmationTimeout, "transaction %s", hash)
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "waiting for transaction "+hash)
		}
	}
}
