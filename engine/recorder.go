package engine

import "context"

// SubmissionRecord captures a confirmed submission for history surfaces.
type SubmissionRecord struct {
	Operation     string
	Broker        string
	Symbol        string
	Sender        string
	UnderlyingRaw string
	TicketRaw     string
	TxHash        string
	GasUsed       uint64
	VMStatus      string
}

// Recorder receives confirmed submissions. Recording failures are logged and
// never fail the pipeline; the transaction is already on chain.
type Recorder interface {
	RecordSubmission(ctx context.Context, rec SubmissionRecord) error
}
