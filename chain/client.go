package chain

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SimulationResult reports the outcome of a dry run. A dry run needs only the
// sender's public key, never a signature.
type SimulationResult struct {
	Success  bool   `json:"success"`
	VMStatus string `json:"vmStatus"`
	GasUsed  uint64 `json:"gasUsed"`
}

// TransactionResult is the final state of a committed transaction.
type TransactionResult struct {
	Hash     string `json:"hash"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vmStatus"`
	GasUsed  uint64 `json:"gasUsed"`
	Version  uint64 `json:"version"`
	Pending  bool   `json:"pending,omitempty"`
}

// Client is the fullnode surface the submission pipeline depends on.
type Client interface {
	AccountBalance(ctx context.Context, owner AccountAddress, assetType string) (*big.Int, error)
	AccountSequenceNumber(ctx context.Context, owner AccountAddress) (uint64, error)
	Simulate(ctx context.Context, tx *RawTransaction, publicKey ed25519.PublicKey) (*SimulationResult, error)
	Submit(ctx context.Context, tx *SignedTransaction) (string, error)
	WaitForTransaction(ctx context.Context, hash string) (*TransactionResult, error)
}

// ClientConfig controls how the HTTP client connects to a fullnode.
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// HTTPClient implements Client against the fullnode REST API.
type HTTPClient struct {
	baseURL      string
	http         *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewHTTPClient constructs an HTTPClient from the provided configuration.
func NewHTTPClient(cfg ClientConfig) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("node base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 60 * time.Second
	}
	return &HTTPClient{
		baseURL:      base,
		http:         &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}, nil
}

// AccountBalance reads the raw balance of one asset type. A missing account
// or resource reads as zero: the chain has no record to distinguish the two.
func (c *HTTPClient) AccountBalance(ctx context.Context, owner AccountAddress, assetType string) (*big.Int, error) {
	var out struct {
		Balance string `json:"balance"`
	}
	path := fmt.Sprintf("/v1/accounts/%s/balance/%s", owner.Hex(), url.PathEscape(assetType))
	status, err := c.do(ctx, http.MethodGet, path, nil, &out)
	if status == http.StatusNotFound {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch balance of %s: %w", assetType, err)
	}
	balance, ok := new(big.Int).SetString(strings.TrimSpace(out.Balance), 10)
	if !ok || balance.Sign() < 0 {
		return nil, fmt.Errorf("malformed balance %q for %s", out.Balance, assetType)
	}
	return balance, nil
}

// AccountSequenceNumber reads the sender's next sequence number. A missing
// account starts at zero.
func (c *HTTPClient) AccountSequenceNumber(ctx context.Context, owner AccountAddress) (uint64, error) {
	var out struct {
		SequenceNumber uint64 `json:"sequenceNumber"`
	}
	status, err := c.do(ctx, http.MethodGet, "/v1/accounts/"+owner.Hex(), nil, &out)
	if status == http.StatusNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("fetch account %s: %w", owner.Hex(), err)
	}
	return out.SequenceNumber, nil
}

// Simulate dry-runs the envelope using the sender's public key.
func (c *HTTPClient) Simulate(ctx context.Context, tx *RawTransaction, publicKey ed25519.PublicKey) (*SimulationResult, error) {
	req := struct {
		RawTransaction *RawTransaction `json:"rawTransaction"`
		PublicKey      string          `json:"publicKey"`
	}{tx, hexutil.Encode(publicKey)}
	var out SimulationResult
	if _, err := c.do(ctx, http.MethodPost, "/v1/transactions/simulate", req, &out); err != nil {
		return nil, fmt.Errorf("simulate transaction: %w", err)
	}
	return &out, nil
}

// Submit sends the signed envelope and returns the pending transaction hash.
func (c *HTTPClient) Submit(ctx context.Context, tx *SignedTransaction) (string, error) {
	var out struct {
		Hash string `json:"hash"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/v1/transactions", tx, &out); err != nil {
		return "", fmt.Errorf("submit transaction: %w", err)
	}
	if strings.TrimSpace(out.Hash) == "" {
		return "", fmt.Errorf("submit transaction: node returned no hash")
	}
	return out.Hash, nil
}

// WaitForTransaction polls until the transaction leaves the pending state or
// the poll window closes.
func (c *HTTPClient) WaitForTransaction(ctx context.Context, hash string) (*TransactionResult, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var out TransactionResult
		status, err := c.do(waitCtx, http.MethodGet, "/v1/transactions/by_hash/"+url.PathEscape(hash), nil, &out)
		switch {
		case status == http.StatusNotFound || (err == nil && out.Pending):
			// Not yet committed.
		case err != nil:
			return nil, fmt.Errorf("fetch transaction %s: %w", hash, err)
		default:
			return &out, nil
		}

		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("transaction %s not finalized within %s: %w", hash, c.pollTimeout, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// do issues one request, decoding a JSON body into out when provided. The
// returned status lets callers special-case 404 before inspecting the error.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, fmt.Errorf("node returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
