package domain

// SwapRecord is the journal entry of a submitted swap.
// Corresponds to swap_records table in PostgreSQL.
type SwapRecord struct {
	ID          string // deterministic hash of venue|signature
	Signature   string
	Venue       VenueID
	Pool        string
	Wallet      string
	Side        string // "buy" | "sell" | "swap"
	InputMint   string
	OutputMint  string
	AmountIn    uint64
	ExpectedOut uint64
	MinOut      uint64
	SlippageBps uint32
	FeeLamports uint64
	SubmittedAt int64 // Unix timestamp in milliseconds
}

// Swap side constants
const (
	SwapSideBuy  = "buy"
	SwapSideSell = "sell"
	SwapSideSwap = "swap"
)

// QuoteRecord is one observed quote.
// Corresponds to quote_records table in ClickHouse.
type QuoteRecord struct {
	ID          string // deterministic hash of venue|pool|input|amount|timestamp
	Venue       VenueID
	Pool        string
	InputMint   string
	OutputMint  string
	AmountIn    uint64
	ExpectedOut uint64
	MinOut      uint64
	SlippageBps uint32
	FeeRatePPM  uint64
	Timestamp   int64 // Unix timestamp in milliseconds
}

// NewQuoteRecord flattens a quote for the journal.
func NewQuoteRecord(q *SwapQuote, timestampMs int64) QuoteRecord {
	return QuoteRecord{
		Venue:       q.Venue,
		Pool:        q.Pool.String(),
		InputMint:   q.InputMint.String(),
		OutputMint:  q.OutputMint.String(),
		AmountIn:    q.AmountIn,
		ExpectedOut: q.ExpectedOut,
		MinOut:      q.MinOut,
		SlippageBps: q.SlippageBps,
		FeeRatePPM:  q.FeeRatePPM,
		Timestamp:   timestampMs,
	}
}
