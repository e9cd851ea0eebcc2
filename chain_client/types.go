package chain_client

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// U64 decodes the node's u64 encoding, a decimal string, and tolerates a
// bare JSON number.
type U64 uint64

func (v *U64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return errors.Errorf("invalid u64 %s", string(data))
	}
	*v = U64(n)
	return nil
}

func (v U64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(v), 10))
}

// Resource is an on-chain data object owned by an account.
type Resource struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ViewRequest calls a read-only function without a signed transaction.
type ViewRequest struct {
	Function      string        `json:"function"`
	TypeArguments []string      `json:"type_arguments"`
	Arguments     []interface{} `json:"arguments"`
}

type AccountInfo struct {
	SequenceNumber    U64    `json:"sequence_number"`
	AuthenticationKey string `json:"authentication_key"`
}

type LedgerInfo struct {
	ChainID         uint8  `json:"chain_id"`
	Epoch           U64    `json:"epoch"`
	LedgerVersion   U64    `json:"ledger_version"`
	LedgerTimestamp U64    `json:"ledger_timestamp"`
	BlockHeight     U64    `json:"block_height"`
	NodeRole        string `json:"node_role"`
}

type GasEstimation struct {
	GasEstimate            uint64 `json:"gas_estimate"`
	PrioritizedGasEstimate uint64 `json:"prioritized_gas_estimate"`
}

// PendingTransaction is what the node answers to a submission.
type PendingTransaction struct {
	Hash           string `json:"hash"`
	Sender         string `json:"sender"`
	SequenceNumber U64    `json:"sequence_number"`
}

const pendingTransactionType = "pending_transaction"

type Transaction struct {
	Type     string `json:"type"`
	Hash     string `json:"hash"`
	Version  U64    `json:"version"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vm_status"`
	GasUsed  U64    `json:"gas_used"`
}

func (tx *Transaction) IsPending() bool {
	return tx.Type == pendingTransactionType
}
