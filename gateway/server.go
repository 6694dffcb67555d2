// Package gateway exposes the read and quote surface over HTTP: market
// listings, wallet positions, and locally-computed operation quotes. It never
// signs or submits; execution stays with callers who hold a signer.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"movelend/chain"
	"movelend/engine"
	"movelend/journal"
	"movelend/lending"
)

const (
	requestLimit = 1 << 20 // 1 MiB
	historyLimit = 100
)

// MarketSource supplies the broker list and wallet portfolios.
type MarketSource interface {
	Brokers(ctx context.Context) ([]lending.Broker, error)
	Portfolio(ctx context.Context, address string) (*lending.Portfolio, error)
}

// HistorySource lists a wallet's confirmed submissions, newest first.
type HistorySource interface {
	BySender(ctx context.Context, sender string, limit int) ([]journal.Record, error)
}

// Config wires the server's collaborators. Node is optional; when present,
// quotes with a wallet address apply the native-asset holdings rule during
// symbol resolution. History is optional; without it the history route is
// not registered.
type Config struct {
	Source   MarketSource
	Node     chain.Client
	History  HistorySource
	Contract chain.AccountAddress
	Timeout  time.Duration
}

// Server serves the gateway routes.
type Server struct {
	source   MarketSource
	node     chain.Client
	history  HistorySource
	contract chain.AccountAddress
	timeout  time.Duration
}

// New validates the configuration and builds a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("market source is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Server{source: cfg.Source, node: cfg.Node, history: cfg.History, contract: cfg.Contract, timeout: timeout}, nil
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/markets", s.listMarkets)
		v1.Get("/markets/{symbol}", s.getMarket)
		v1.Get("/positions/{address}", s.getPosition)
		v1.Post("/quote", s.quote)
		if s.history != nil {
			v1.Get("/history/{address}", s.getHistory)
		}
	})

	return otelhttp.NewHandler(r, "gateway")
}

func (s *Server) context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}

// marketView is the wire shape of one market.
type marketView struct {
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	Asset           string  `json:"asset"`
	Decimals        int32   `json:"decimals"`
	Price           float64 `json:"price"`
	Utilization     float64 `json:"utilization"`
	BorrowRate      float64 `json:"borrowRate"`
	SupplyAPY       float64 `json:"supplyApy"`
	AvailableRaw    string  `json:"availableRaw"`
	TotalBorrowed   string  `json:"totalBorrowedRaw"`
	DepositHeadroom string  `json:"depositHeadroom"`
}

func marketFromBroker(b *lending.Broker) marketView {
	u := b.Utilization()
	return marketView{
		Name:            b.Name,
		Symbol:          b.UnderlyingAsset.Ticker,
		Asset:           b.UnderlyingAsset.NetworkAddress,
		Decimals:        b.UnderlyingAsset.Decimals,
		Price:           b.UnderlyingAsset.Price,
		Utilization:     u,
		BorrowRate:      b.InterestRateCurve.BorrowRate(u),
		SupplyAPY:       b.SupplyAPY(),
		AvailableRaw:    b.AvailableLiquidityRaw().String(),
		TotalBorrowed:   b.TotalBorrowedRaw().String(),
		DepositHeadroom: b.DepositHeadroomScaled().String(),
	}
}

func (s *Server) listMarkets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.context(r.Context())
	defer cancel()

	brokers, err := s.source.Brokers(ctx)
	if err != nil {
		writeError(w, fmt.Errorf("fetch markets: %w", err))
		return
	}
	views := make([]marketView, 0, len(brokers))
	for i := range brokers {
		views = append(views, marketFromBroker(&brokers[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) getMarket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.context(r.Context())
	defer cancel()

	brokers, err := s.source.Brokers(ctx)
	if err != nil {
		writeError(w, fmt.Errorf("fetch markets: %w", err))
		return
	}
	res, err := lending.ResolveBroker(ctx, brokers, chi.URLParam(r, "symbol"), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, marketFromBroker(res.Broker))
}

func (s *Server) getPosition(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.context(r.Context())
	defer cancel()

	address := chi.URLParam(r, "address")
	if _, err := chain.ParseAddress(address); err != nil {
		writeStatus(w, http.StatusBadRequest, fmt.Sprintf("invalid address: %v", err))
		return
	}
	portfolio, err := s.source.Portfolio(ctx, address)
	if err != nil {
		writeError(w, fmt.Errorf("fetch portfolio: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}

// historyView is the wire shape of one confirmed submission.
type historyView struct {
	Operation     string    `json:"operation"`
	Broker        string    `json:"broker"`
	Symbol        string    `json:"symbol"`
	UnderlyingRaw string    `json:"underlyingRaw"`
	TicketRaw     string    `json:"ticketRaw"`
	TxHash        string    `json:"txHash"`
	GasUsed       uint64    `json:"gasUsed"`
	VMStatus      string    `json:"vmStatus"`
	ConfirmedAt   time.Time `json:"confirmedAt"`
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.context(r.Context())
	defer cancel()

	address := chi.URLParam(r, "address")
	if _, err := chain.ParseAddress(address); err != nil {
		writeStatus(w, http.StatusBadRequest, fmt.Sprintf("invalid address: %v", err))
		return
	}
	records, err := s.history.BySender(ctx, address, historyLimit)
	if err != nil {
		writeError(w, fmt.Errorf("fetch history: %w", err))
		return
	}
	views := make([]historyView, 0, len(records))
	for _, rec := range records {
		views = append(views, historyView{
			Operation:     rec.Operation,
			Broker:        rec.Broker,
			Symbol:        rec.Symbol,
			UnderlyingRaw: rec.UnderlyingRaw,
			TicketRaw:     rec.TicketRaw,
			TxHash:        rec.TxHash,
			GasUsed:       rec.GasUsed,
			VMStatus:      rec.VMStatus,
			ConfirmedAt:   rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// quoteRequest asks for a local dry evaluation of one operation.
type quoteRequest struct {
	Operation string `json:"operation"`
	Symbol    string `json:"symbol"`
	Amount    string `json:"amount"`
	Address   string `json:"address,omitempty"`
}

// quoteResponse reports the converted amounts and the entry point the
// transaction would call.
type quoteResponse struct {
	Operation       string `json:"operation"`
	Broker          string `json:"broker"`
	UnderlyingRaw   string `json:"underlyingRaw"`
	TicketRaw       string `json:"ticketRaw"`
	EntryFunction   string `json:"entryFunction"`
	TypeArgument    string `json:"typeArgument"`
	DepositHeadroom string `json:"depositHeadroom"`
}

func (s *Server) quote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.context(r.Context())
	defer cancel()

	var req quoteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, requestLimit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	op, err := engine.ParseOperation(req.Operation)
	if err != nil {
		writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	brokers, err := s.source.Brokers(ctx)
	if err != nil {
		writeError(w, fmt.Errorf("fetch markets: %w", err))
		return
	}

	portfolio := &lending.Portfolio{}
	var balance lending.BalanceFunc
	if strings.TrimSpace(req.Address) != "" {
		owner, err := chain.ParseAddress(req.Address)
		if err != nil {
			writeStatus(w, http.StatusBadRequest, fmt.Sprintf("invalid address: %v", err))
			return
		}
		if s.node != nil {
			balance = func(ctx context.Context, assetType string) (*big.Int, error) {
				return s.node.AccountBalance(ctx, owner, assetType)
			}
		}
		portfolio, err = s.source.Portfolio(ctx, req.Address)
		if err != nil {
			writeError(w, fmt.Errorf("fetch portfolio: %w", err))
			return
		}
	}

	res, err := lending.ResolveBroker(ctx, brokers, req.Symbol, balance)
	if err != nil {
		writeError(w, err)
		return
	}

	quote, err := engine.BuildQuote(op, res.Broker, portfolio, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{
		Operation:       op.String(),
		Broker:          quote.Broker,
		UnderlyingRaw:   quote.UnderlyingRaw.String(),
		TicketRaw:       quote.TicketRaw.String(),
		EntryFunction:   op.EntryFunction(s.contract).String(),
		TypeArgument:    res.Broker.UnderlyingAsset.NetworkAddress,
		DepositHeadroom: res.Broker.DepositHeadroomScaled().String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeStatus(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps domain error kinds to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidAmount):
		writeStatus(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrBrokerNotFound), errors.Is(err, lending.ErrBrokerNotFound):
		writeStatus(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrPoolFull), errors.Is(err, engine.ErrInsufficientBalance):
		writeStatus(w, http.StatusConflict, err.Error())
	default:
		writeStatus(w, http.StatusInternalServerError, err.Error())
	}
}
