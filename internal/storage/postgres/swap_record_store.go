package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/storage"
)

// SwapRecordStore implements storage.SwapRecordStore using PostgreSQL.
type SwapRecordStore struct {
	pool *Pool
}

// NewSwapRecordStore creates a new SwapRecordStore.
func NewSwapRecordStore(pool *Pool) *SwapRecordStore {
	return &SwapRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapRecordStore = (*SwapRecordStore)(nil)

const swapRecordColumns = `
	id, signature, venue, pool, wallet, side, input_mint, output_mint,
	amount_in, expected_out, min_out, slippage_bps, fee_lamports, submitted_at
`

// Amounts are NUMERIC(20,0) so the full u64 range fits; they travel as text.
const swapRecordSelect = `
	id, signature, venue, pool, wallet, side, input_mint, output_mint,
	amount_in::text, expected_out::text, min_out::text, slippage_bps, fee_lamports::text, submitted_at
`

// Insert adds a new record. Returns ErrDuplicateKey if id or signature exists.
func (s *SwapRecordStore) Insert(ctx context.Context, r *domain.SwapRecord) error {
	if r == nil || r.ID == "" || r.Signature == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO swap_records (` + swapRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::text::numeric, $10::text::numeric,
			$11::text::numeric, $12, $13::text::numeric, $14)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ID,
		r.Signature,
		string(r.Venue),
		r.Pool,
		r.Wallet,
		r.Side,
		r.InputMint,
		r.OutputMint,
		fmt.Sprint(r.AmountIn),
		fmt.Sprint(r.ExpectedOut),
		fmt.Sprint(r.MinOut),
		int32(r.SlippageBps),
		fmt.Sprint(r.FeeLamports),
		r.SubmittedAt,
	)
	if err != nil {
		switch {
		case isDuplicateKeyError(err):
			return storage.ErrDuplicateKey
		case isCheckViolation(err):
			return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
		}
		return fmt.Errorf("insert swap record: %w", err)
	}
	return nil
}

// GetBySignature retrieves a record by signature. Returns ErrNotFound if not exists.
func (s *SwapRecordStore) GetBySignature(ctx context.Context, signature string) (*domain.SwapRecord, error) {
	query := `SELECT ` + swapRecordSelect + ` FROM swap_records WHERE signature = $1`

	rows, err := s.pool.Query(ctx, query, signature)
	if err != nil {
		return nil, fmt.Errorf("get swap record by signature: %w", err)
	}
	defer rows.Close()

	records, err := scanSwapRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return records[0], nil
}

// GetByWallet retrieves records of a wallet within [start, end] (inclusive).
func (s *SwapRecordStore) GetByWallet(ctx context.Context, wallet string, start, end int64) ([]*domain.SwapRecord, error) {
	query := `
		SELECT ` + swapRecordSelect + `
		FROM swap_records
		WHERE wallet = $1 AND submitted_at >= $2 AND submitted_at <= $3
		ORDER BY submitted_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, wallet, start, end)
	if err != nil {
		return nil, fmt.Errorf("get swap records by wallet: %w", err)
	}
	defer rows.Close()

	return scanSwapRecords(rows)
}

// scanSwapRecords scans multiple rows into a slice of SwapRecord.
func scanSwapRecords(rows pgx.Rows) ([]*domain.SwapRecord, error) {
	var records []*domain.SwapRecord

	for rows.Next() {
		var (
			r                                        domain.SwapRecord
			venue                                    string
			amountIn, expectedOut, minOut, feeAmount string
			slippage                                 int32
		)

		err := rows.Scan(
			&r.ID,
			&r.Signature,
			&venue,
			&r.Pool,
			&r.Wallet,
			&r.Side,
			&r.InputMint,
			&r.OutputMint,
			&amountIn,
			&expectedOut,
			&minOut,
			&slippage,
			&feeAmount,
			&r.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap record row: %w", err)
		}

		r.Venue = domain.VenueID(venue)
		r.SlippageBps = uint32(slippage)
		for _, f := range []struct {
			src string
			dst *uint64
		}{
			{amountIn, &r.AmountIn},
			{expectedOut, &r.ExpectedOut},
			{minOut, &r.MinOut},
			{feeAmount, &r.FeeLamports},
		} {
			if _, err := fmt.Sscan(f.src, f.dst); err != nil {
				return nil, fmt.Errorf("parse amount %q: %w", f.src, err)
			}
		}

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap record rows: %w", err)
	}

	return records, nil
}
