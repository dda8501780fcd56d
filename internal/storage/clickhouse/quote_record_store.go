package clickhouse

import (
	"context"
	"fmt"

	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/storage"
)

// QuoteRecordStore implements storage.QuoteRecordStore using ClickHouse.
type QuoteRecordStore struct {
	conn *Conn
}

// NewQuoteRecordStore creates a new QuoteRecordStore.
func NewQuoteRecordStore(conn *Conn) *QuoteRecordStore {
	return &QuoteRecordStore{conn: conn}
}

// Compile-time interface check.
var _ storage.QuoteRecordStore = (*QuoteRecordStore)(nil)

// InsertBulk adds multiple quotes. Fails entire batch on duplicate id.
// MergeTree does not enforce keys, so duplicates are checked before insert.
func (s *QuoteRecordStore) InsertBulk(ctx context.Context, quotes []*domain.QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(quotes))
	ids := make([]string, 0, len(quotes))
	for _, q := range quotes {
		if q == nil || q.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[q.ID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[q.ID] = struct{}{}
		ids = append(ids, q.ID)
	}

	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM quote_records WHERE id IN (?)`, ids).Scan(&count)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO quote_records (
			id, venue, pool, input_mint, output_mint,
			amount_in, expected_out, min_out, slippage_bps, fee_rate_ppm, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, q := range quotes {
		err = batch.Append(
			q.ID, string(q.Venue), q.Pool, q.InputMint, q.OutputMint,
			q.AmountIn, q.ExpectedOut, q.MinOut, q.SlippageBps, q.FeeRatePPM, uint64(q.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPool retrieves quotes of a pool within [start, end] (inclusive), ordered by timestamp ASC.
func (s *QuoteRecordStore) GetByPool(ctx context.Context, pool string, start, end int64) ([]*domain.QuoteRecord, error) {
	query := `
		SELECT id, venue, pool, input_mint, output_mint,
			amount_in, expected_out, min_out, slippage_bps, fee_rate_ppm, timestamp_ms
		FROM quote_records
		WHERE pool = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, id ASC
	`

	rows, err := s.conn.Query(ctx, query, pool, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by pool: %w", err)
	}
	defer rows.Close()

	return scanQuoteRecords(rows)
}

func scanQuoteRecords(rows chRows) ([]*domain.QuoteRecord, error) {
	var out []*domain.QuoteRecord

	for rows.Next() {
		var q domain.QuoteRecord
		var venue string
		var timestampMs uint64

		err := rows.Scan(
			&q.ID, &venue, &q.Pool, &q.InputMint, &q.OutputMint,
			&q.AmountIn, &q.ExpectedOut, &q.MinOut, &q.SlippageBps, &q.FeeRatePPM, &timestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan quote record row: %w", err)
		}

		q.Venue = domain.VenueID(venue)
		q.Timestamp = int64(timestampMs)
		out = append(out, &q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote record rows: %w", err)
	}

	return out, nil
}
