package chain_client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"aptos-nft-auction/logger"
)

const (
	DevnetURL  = "https://fullnode.devnet.aptoslabs.com/v1"
	TestnetURL = "https://fullnode.testnet.aptoslabs.com/v1"
	MainnetURL = "https://fullnode.mainnet.aptoslabs.com/v1"

	signedTransactionContentType = "application/x.aptos.signed_transaction+bcs"
)

// Client talks to an Aptos fullnode REST API.
type Client struct {
	baseURL             string
	httpClient          *http.Client
	ConfirmationTimeout time.Duration
	ConfirmationDelay   time.Duration
}

func NewClient(baseURL string) *Client {
	return NewClientWithOpts(
		baseURL,
		&http.Client{Timeout: time.Duration(10) * time.Second},
		time.Duration(30)*time.Second,
		time.Duration(1)*time.Second,
	)
}

func NewClientWithOpts(
	baseURL string,
	httpClient *http.Client,
	confirmationTimeout time.Duration,
	confirmationDelay time.Duration,
) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:             strings.TrimRight(baseURL, "/"),
		httpClient:          httpClient,
		ConfirmationTimeout: confirmationTimeout,
		ConfirmationDelay:   confirmationDelay,
	}
}

func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if traceID := logger.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

// call performs the request and decodes a 2xx body into out.
func (c *Client) call(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path, contentType, body)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode response of %s %s", method, path)
	}
	return nil
}

func (c *Client) GetAccountResource(ctx context.Context, address, resourceType string) (*Resource, error) {
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		"component": "ChainClient",
		"method":    "GetAccountResource",
	})
	path := "/accounts/" + url.PathEscape(address) + "/resource/" + url.PathEscape(resourceType)
	log.Debug("Requesting account resource", logger.Fields{"address": address, "resource_type": resourceType})

	var resource Resource
	if err := c.call(ctx, http.MethodGet, path, "", nil, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

// View returns the function's return values in declaration order.
func (c *Client) View(ctx context.Context, request ViewRequest) ([]json.RawMessage, error) {
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		"component": "ChainClient",
		"method":    "View",
	})
	if request.TypeArguments == nil {
		request.TypeArguments = []string{}
	}
	if request.Arguments == nil {
		request.Arguments = []interface{}{}
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode view request")
	}
	log.Debug("Calling view function", logger.Fields{"function": request.Function})

	var values []json.RawMessage
	if err := c.call(ctx, http.MethodPost, "/view", "application/json", bytes.NewReader(body), &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (c *Client) GetAccount(ctx context.Context, address string) (*AccountInfo, error) {
	var info AccountInfo
	if err := c.call(ctx, http.MethodGet, "/accounts/"+url.PathEscape(address), "", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) GetLedgerInfo(ctx context.Context) (*LedgerInfo, error) {
	var info LedgerInfo
	if err := c.call(ctx, http.MethodGet, "", "", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) EstimateGasPrice(ctx context.Context) (*GasEstimation, error) {
	var estimation GasEstimation
	if err := c.call(ctx, http.MethodGet, "/estimate_gas_price", "", nil, &estimation); err != nil {
		return nil, err
	}
	return &estimation, nil
}

// SubmitTransaction posts a BCS encoded SignedTransaction.
func (c *Client) SubmitTransaction(ctx context.Context, signedTxn []byte) (*PendingTransaction, error) {
	var pending PendingTransaction
	err := c.call(ctx, http.MethodPost, "/transactions", signedTransactionContentType, bytes.NewReader(signedTxn), &pending)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Transaction submitted", logger.Fields{
		"component": "ChainClient",
		"hash":      pending.Hash,
	})
	return &pending, nil
}

func (c *Client) GetTransactionByHash(ctx context.Context, hash string) (*Transaction, error) {
	var tx Transaction
	if err := c.call(ctx, http.MethodGet, "/transactions/by_hash/"+url.PathEscape(hash), "", nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}
