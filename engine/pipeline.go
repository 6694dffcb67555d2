// Package engine implements the transaction-ticket signing-and-submission
// protocol shared by the supply, withdraw, borrow, and repay flows: pre-flight
// checks, ticket issuance, envelope construction, simulation, external
// signing, and finality.
package engine

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"movelend/backend"
	"movelend/chain"
	"movelend/lending"
	"movelend/observability"
)

// State names one step of the submission pipeline. Steps are strictly
// sequential within an invocation; a failure from any state is terminal.
type State string

const (
	StateCheckingGas           State = "checking-gas"
	StateFetchingBroker        State = "fetching-broker"
	StateFetchingPortfolio     State = "fetching-portfolio"
	StateValidatingLimits      State = "validating-limits"
	StateRequestingTicket      State = "requesting-ticket"
	StateDecodingTicket        State = "decoding-ticket"
	StateBuildingTransaction   State = "building-transaction"
	StateSimulating            State = "simulating"
	StateAwaitingSignature     State = "awaiting-signature"
	StateBuildingAuthenticator State = "building-authenticator"
	StateSubmitting            State = "submitting"
	StateAwaitingConfirmation  State = "awaiting-confirmation"
	StateConfirmed             State = "confirmed"
	StateFailed                State = "failed"
)

// ProgressFunc receives each state transition.
type ProgressFunc func(State)

// Backend is the ticket/broker/portfolio API consumed by the engine.
type Backend interface {
	Brokers(ctx context.Context) ([]lending.Broker, error)
	Portfolio(ctx context.Context, address string) (*lending.Portfolio, error)
	RequestTicket(ctx context.Context, req backend.TicketRequest) (string, error)
}

// Config wires the engine's collaborators and protocol constants.
type Config struct {
	Backend  Backend
	Node     chain.Client
	Contract chain.AccountAddress
	ChainID  chain.ChainID

	// Network tags ticket requests; defaults to "aptos".
	Network string
	// GasAssetType is the native asset checked pre-flight; defaults to the
	// legacy coin type.
	GasAssetType string

	SigningTimeout   time.Duration
	MaxGasAmount     uint64
	GasUnitPrice     uint64
	ExpirationWindow time.Duration

	Logger   *slog.Logger
	Recorder Recorder
}

// Engine executes the submission pipeline. It holds no per-invocation state;
// each Execute fetches fresh broker and portfolio snapshots and treats them
// as authoritative for that run only.
type Engine struct {
	cfg     Config
	log     *slog.Logger
	metrics *observability.EngineMetrics
}

// New validates the configuration and applies defaults.
func New(cfg Config) (*Engine, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend client is required")
	}
	if cfg.Node == nil {
		return nil, fmt.Errorf("node client is required")
	}
	if cfg.Contract.IsZero() {
		return nil, fmt.Errorf("contract address is required")
	}
	if cfg.Network == "" {
		cfg.Network = "aptos"
	}
	if cfg.GasAssetType == "" {
		cfg.GasAssetType = lending.NativeCoinType
	}
	if cfg.SigningTimeout <= 0 {
		cfg.SigningTimeout = 60 * time.Second
	}
	if cfg.MaxGasAmount == 0 {
		cfg.MaxGasAmount = 200_000
	}
	if cfg.GasUnitPrice == 0 {
		cfg.GasUnitPrice = 100
	}
	if cfg.ExpirationWindow <= 0 {
		cfg.ExpirationWindow = 10 * time.Minute
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{cfg: cfg, log: log, metrics: observability.Engine()}, nil
}

// Request describes one user intent. Amount is the human decimal amount of
// the underlying asset.
type Request struct {
	Operation Operation
	Symbol    string
	Amount    string
	Sender    chain.AccountAddress
	PublicKey ed25519.PublicKey
	Signer    chain.SignerFunc
	Progress  ProgressFunc
}

// Result carries the confirmed transaction back to the caller.
type Result struct {
	Hash          string
	Broker        string
	UnderlyingRaw *big.Int
	TicketRaw     *big.Int
	GasUsed       uint64
}

// Execute runs the pipeline once. There is no retry of any step and no
// dedup: re-running the same intent with a fresh ticket yields a different
// transaction, so callers must not invoke Execute concurrently for the same
// user action.
func (e *Engine) Execute(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	progress := req.Progress
	if progress == nil {
		progress = func(State) {}
	}
	step := func(s State) {
		e.metrics.ObserveState(string(s))
		progress(s)
	}
	fail := func(err error) (*Result, error) {
		step(StateFailed)
		e.metrics.ObserveExecution(req.Operation.String(), "failure", time.Since(started))
		e.metrics.ObserveFailure(Category(err))
		e.log.Error("pipeline failed",
			"operation", req.Operation.String(),
			"symbol", req.Symbol,
			"category", Category(err),
			"error", err,
		)
		return nil, err
	}

	if !req.Operation.Valid() {
		return fail(fmt.Errorf("invalid operation %s", req.Operation))
	}
	if req.Signer == nil {
		return fail(fmt.Errorf("signer is required"))
	}
	if len(req.PublicKey) != ed25519.PublicKeySize {
		return fail(fmt.Errorf("public key must be %d bytes", ed25519.PublicKeySize))
	}

	step(StateCheckingGas)
	gas, err := e.cfg.Node.AccountBalance(ctx, req.Sender, e.cfg.GasAssetType)
	if err != nil {
		return fail(fmt.Errorf("check gas balance: %w", err))
	}
	if gas == nil || gas.Sign() == 0 {
		return fail(fmt.Errorf("%w: %s holds no %s to cover gas", ErrInsufficientGas, req.Sender.Hex(), e.cfg.GasAssetType))
	}

	step(StateFetchingBroker)
	brokers, err := e.cfg.Backend.Brokers(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetch brokers: %w", err))
	}
	resolution, err := lending.ResolveBroker(ctx, brokers, req.Symbol, e.balanceFunc(req.Sender))
	if err != nil {
		if errors.Is(err, lending.ErrBrokerNotFound) {
			return fail(fmt.Errorf("%w: %v", ErrBrokerNotFound, err))
		}
		return fail(fmt.Errorf("resolve broker for %s: %w", req.Symbol, err))
	}
	broker := resolution.Broker

	step(StateFetchingPortfolio)
	portfolio, err := e.cfg.Backend.Portfolio(ctx, req.Sender.Hex())
	if err != nil {
		return fail(fmt.Errorf("fetch portfolio: %w", err))
	}

	step(StateValidatingLimits)
	quote, err := BuildQuote(req.Operation, broker, portfolio, req.Amount)
	if err != nil {
		return fail(err)
	}

	step(StateRequestingTicket)
	packet, err := e.cfg.Backend.RequestTicket(ctx, backend.TicketRequest{
		Operation:             req.Operation.TicketPath(),
		Amount:                quote.TicketRaw.String(),
		SignerPubkey:          hexutil.Encode(req.PublicKey),
		Network:               e.cfg.Network,
		BrokerName:            broker.Name,
		CurrentPortfolioState: portfolio,
	})
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrTicketRequest, err))
	}

	step(StateDecodingTicket)
	ticket, err := chain.DecodeTicket(packet)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrTicketRequest, err))
	}

	step(StateBuildingTransaction)
	sequence, err := e.cfg.Node.AccountSequenceNumber(ctx, req.Sender)
	if err != nil {
		return fail(fmt.Errorf("fetch sequence number: %w", err))
	}
	tx := &chain.RawTransaction{
		Sender:                  req.Sender,
		SequenceNumber:          sequence,
		Function:                req.Operation.EntryFunction(e.cfg.Contract),
		TypeArguments:           []string{broker.UnderlyingAsset.NetworkAddress},
		Arguments:               []chain.ByteArray{ticket.Argument()},
		MaxGasAmount:            e.cfg.MaxGasAmount,
		GasUnitPrice:            e.cfg.GasUnitPrice,
		ExpirationTimestampSecs: uint64(time.Now().Add(e.cfg.ExpirationWindow).Unix()),
		ChainID:                 e.cfg.ChainID,
	}

	step(StateSimulating)
	if sim, simErr := e.cfg.Node.Simulate(ctx, tx, req.PublicKey); simErr != nil || sim == nil {
		// Transport trouble or an empty result, not an on-chain verdict.
		// Submission re-validates.
		e.log.Warn("simulation unavailable, deferring to submission",
			"broker", broker.Name, "error", simErr)
	} else if !sim.Success {
		return fail(e.classifySimulation(sim.VMStatus, req, broker))
	}

	step(StateAwaitingSignature)
	signingHash, err := tx.SigningHash()
	if err != nil {
		return fail(fmt.Errorf("derive signing hash: %w", err))
	}
	signature, err := e.requestSignature(ctx, req.Signer, signingHash)
	if err != nil {
		return fail(err)
	}

	step(StateBuildingAuthenticator)
	auth, err := chain.NewAuthenticator(req.PublicKey, signature)
	if err != nil {
		return fail(fmt.Errorf("%w: assemble authenticator: %v", ErrSubmissionFailed, err))
	}
	hashBytes, err := hexutil.Decode(signingHash)
	if err != nil {
		return fail(fmt.Errorf("%w: decode signing hash: %v", ErrSubmissionFailed, err))
	}
	if !auth.Verify(hashBytes) {
		return fail(fmt.Errorf("%w: wallet signature does not verify against the signing hash", ErrSubmissionFailed))
	}
	signed := &chain.SignedTransaction{Raw: tx, Authenticator: auth}

	step(StateSubmitting)
	pendingHash, err := e.cfg.Node.Submit(ctx, signed)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrSubmissionFailed, err))
	}

	step(StateAwaitingConfirmation)
	final, err := e.cfg.Node.WaitForTransaction(ctx, pendingHash)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrConfirmationFailed, err))
	}
	if !final.Success {
		return fail(fmt.Errorf("%w: transaction %s reverted: %s", ErrConfirmationFailed, final.Hash, final.VMStatus))
	}

	step(StateConfirmed)
	e.metrics.ObserveExecution(req.Operation.String(), "success", time.Since(started))
	e.log.Info("pipeline confirmed",
		"operation", req.Operation.String(),
		"broker", broker.Name,
		"hash", final.Hash,
		"gasUsed", final.GasUsed,
	)

	if e.cfg.Recorder != nil {
		rec := SubmissionRecord{
			Operation:     req.Operation.String(),
			Broker:        broker.Name,
			Symbol:        req.Symbol,
			Sender:        req.Sender.Hex(),
			UnderlyingRaw: quote.UnderlyingRaw.String(),
			TicketRaw:     quote.TicketRaw.String(),
			TxHash:        final.Hash,
			GasUsed:       final.GasUsed,
			VMStatus:      final.VMStatus,
		}
		if recErr := e.cfg.Recorder.RecordSubmission(ctx, rec); recErr != nil {
			e.log.Warn("record submission", "hash", final.Hash, "error", recErr)
		}
	}

	return &Result{
		Hash:          final.Hash,
		Broker:        broker.Name,
		UnderlyingRaw: quote.UnderlyingRaw,
		TicketRaw:     quote.TicketRaw,
		GasUsed:       final.GasUsed,
	}, nil
}

// balanceFunc adapts the node client for the resolver's holdings check.
func (e *Engine) balanceFunc(owner chain.AccountAddress) lending.BalanceFunc {
	return func(ctx context.Context, assetType string) (*big.Int, error) {
		return e.cfg.Node.AccountBalance(ctx, owner, assetType)
	}
}

// requestSignature races the external signer against the signing timeout.
// The signer call itself is not cancellable; a late signature is discarded.
func (e *Engine) requestSignature(ctx context.Context, signer chain.SignerFunc, signingHash string) ([]byte, error) {
	type outcome struct {
		signature []byte
		err       error
	}
	ch := make(chan outcome, 1)
	go func() {
		sig, err := signer(ctx, signingHash)
		ch <- outcome{sig, err}
	}()

	timer := time.NewTimer(e.cfg.SigningTimeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		if out.err != nil {
			return nil, fmt.Errorf("wallet signer: %w", out.err)
		}
		return out.signature, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: wallet did not respond within %s", ErrSigningTimeout, e.cfg.SigningTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("awaiting signature: %w", ctx.Err())
	}
}
