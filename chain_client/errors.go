package chain_client

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrTransactionFailed   = errors.New("transaction failed on chain")
	ErrConfirmationTimeout = errors.New("timeout waiting for transaction confirmation")
)

// APIError is a non-2xx answer from the node.
type APIError struct {
	StatusCode  int    `json:"-"`
	Message     string `json:"message"`
	ErrorCode   string `json:"error_code"`
	VMErrorCode int    `json:"vm_error_code"`
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("node returned %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("node returned %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the node, e.g. a missing
// resource or a transaction that is not indexed yet.
func IsNotFound(err error) bool {
	apiErr, ok := errors.Cause(err).(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}
