// Package backend is a typed client for the lending protocol's REST API:
// the broker list, per-wallet portfolios, and ticket issuance.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"movelend/lending"
)

// Config controls how the Client connects to the backend.
type Config struct {
	BaseURL           string
	BearerToken       string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client issues authenticated JSON requests against the backend API.
type Client struct {
	baseURL string
	http    *http.Client
	bearer  string
	limiter *rate.Limiter
}

// New constructs a Client from the provided configuration.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(math.Ceil(cfg.RequestsPerSecond))
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		bearer:  strings.TrimSpace(cfg.BearerToken),
		limiter: limiter,
	}, nil
}

// ticketOperations are the endpoints that issue packets.
var ticketOperations = map[string]struct{}{
	"lend":     {},
	"withdraw": {},
	"borrow":   {},
	"repay":    {},
}

// TicketRequest is the body POSTed to one of the ticket endpoints. Amount is
// in raw units of the instrument the operation moves.
type TicketRequest struct {
	Operation             string             `json:"-"`
	Amount                string             `json:"amount"`
	SignerPubkey          string             `json:"signerPubkey"`
	Network               string             `json:"network"`
	BrokerName            string             `json:"brokerName"`
	CurrentPortfolioState *lending.Portfolio `json:"currentPortfolioState"`
}

// Brokers fetches the current market list.
func (c *Client) Brokers(ctx context.Context) ([]lending.Broker, error) {
	var out []lending.Broker
	if err := c.get(ctx, "/brokers", &out); err != nil {
		return nil, fmt.Errorf("fetch brokers: %w", err)
	}
	return out, nil
}

// Portfolio fetches the wallet's current position snapshot.
func (c *Client) Portfolio(ctx context.Context, address string) (*lending.Portfolio, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, fmt.Errorf("portfolio address is required")
	}
	var out lending.Portfolio
	if err := c.get(ctx, "/portfolios/"+url.PathEscape(trimmed), &out); err != nil {
		return nil, fmt.Errorf("fetch portfolio for %s: %w", trimmed, err)
	}
	return &out, nil
}

// RequestTicket asks the backend to issue a single-use packet authorizing the
// operation. Any non-2xx response or empty packet is an error.
func (c *Client) RequestTicket(ctx context.Context, req TicketRequest) (string, error) {
	op := strings.TrimSpace(req.Operation)
	if _, ok := ticketOperations[op]; !ok {
		return "", fmt.Errorf("unknown ticket operation %q", req.Operation)
	}
	var out struct {
		Packet string `json:"packet"`
	}
	if err := c.post(ctx, "/"+op, req, &out); err != nil {
		return "", fmt.Errorf("request %s ticket for %s: %w", op, req.BrokerName, err)
	}
	if strings.TrimSpace(out.Packet) == "" {
		return "", fmt.Errorf("request %s ticket for %s: backend returned no packet", op, req.BrokerName)
	}
	return out.Packet, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("backend returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
