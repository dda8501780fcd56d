package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
	DefaultCommitment  = "confirmed"
)

// CallObserver is notified after every RPC round trip.
type CallObserver func(method string, elapsed time.Duration, err error)

// HTTPClient implements Ledger using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	commitment  string
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	observer    CallObserver
	requestID   atomic.Uint64
}

var _ Ledger = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for read calls.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithCommitment sets the commitment used for reads and preflight.
func WithCommitment(commitment string) ClientOption {
	return func(c *HTTPClient) {
		c.commitment = commitment
	}
}

// WithObserver registers a callback invoked after each call.
func WithObserver(o CallObserver) ClientOption {
	return func(c *HTTPClient) {
		c.observer = o
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		commitment:  DefaultCommitment,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the RPC URL the client talks to.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	return c.do(ctx, method, params, result, c.maxRetries)
}

// callOnce performs a JSON-RPC call without retrying transport failures.
func (c *HTTPClient) callOnce(ctx context.Context, method string, params []interface{}, result interface{}) error {
	return c.do(ctx, method, params, result, 0)
}

func (c *HTTPClient) do(ctx context.Context, method string, params []interface{}, result interface{}, maxRetries int) (err error) {
	if c.observer != nil {
		start := time.Now()
		defer func() { c.observer(method, time.Since(start), err) }()
	}

	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	if maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// rawAccount is the base64-encoded account shape shared by the account methods.
type rawAccount struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"` // [base64_data, encoding]
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
}

func (r *rawAccount) decode() (*Account, error) {
	owner, err := solana.PublicKeyFromBase58(r.Owner)
	if err != nil {
		return nil, fmt.Errorf("parse owner: %w", err)
	}
	acc := &Account{
		Owner:      owner,
		Lamports:   r.Lamports,
		Executable: r.Executable,
		RentEpoch:  r.RentEpoch,
	}
	if len(r.Data) >= 1 {
		acc.Data, err = base64.StdEncoding.DecodeString(r.Data[0])
		if err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}
	return acc, nil
}

func (c *HTTPClient) accountConfig() map[string]interface{} {
	return map[string]interface{}{
		"encoding":   "base64",
		"commitment": c.commitment,
	}
}

// GetProgramAccounts lists accounts owned by program that pass the filters.
func (c *HTTPClient) GetProgramAccounts(ctx context.Context, program solana.PublicKey, filters ...Filter) ([]KeyedAccount, error) {
	cfg := c.accountConfig()
	if len(filters) > 0 {
		wire := make([]map[string]interface{}, 0, len(filters))
		for _, f := range filters {
			if f.Memcmp != nil {
				wire = append(wire, map[string]interface{}{
					"memcmp": map[string]interface{}{
						"offset": f.Memcmp.Offset,
						"bytes":  base58.Encode(f.Memcmp.Bytes),
					},
				})
				continue
			}
			wire = append(wire, map[string]interface{}{"dataSize": f.DataSize})
		}
		cfg["filters"] = wire
	}

	var result []getProgramAccountsResult
	if err := c.call(ctx, "getProgramAccounts", []interface{}{program.String(), cfg}, &result); err != nil {
		return nil, err
	}

	out := make([]KeyedAccount, 0, len(result))
	for _, r := range result {
		key, err := solana.PublicKeyFromBase58(r.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("parse pubkey %q: %w", r.Pubkey, err)
		}
		acc, err := r.Account.decode()
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", r.Pubkey, err)
		}
		out = append(out, KeyedAccount{Pubkey: key, Account: acc})
	}
	return out, nil
}

type getProgramAccountsResult struct {
	Pubkey  string     `json:"pubkey"`
	Account rawAccount `json:"account"`
}

// GetAccountInfo retrieves account info by public key.
// Returns nil if account not found.
func (c *HTTPClient) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*Account, error) {
	var result getAccountInfoResult
	if err := c.call(ctx, "getAccountInfo", []interface{}{account.String(), c.accountConfig()}, &result); err != nil {
		return nil, err
	}

	if result.Value == nil {
		return nil, nil
	}
	return result.Value.decode()
}

type getAccountInfoResult struct {
	Value *rawAccount `json:"value"`
}

// GetMultipleAccounts fetches several accounts in one round trip.
func (c *HTTPClient) GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) ([]*Account, error) {
	keys := make([]string, len(accounts))
	for i, a := range accounts {
		keys[i] = a.String()
	}

	var result getMultipleAccountsResult
	if err := c.call(ctx, "getMultipleAccounts", []interface{}{keys, c.accountConfig()}, &result); err != nil {
		return nil, err
	}
	if len(result.Value) != len(accounts) {
		return nil, fmt.Errorf("getMultipleAccounts: expected %d accounts, got %d", len(accounts), len(result.Value))
	}

	out := make([]*Account, len(accounts))
	for i, v := range result.Value {
		if v == nil {
			continue
		}
		acc, err := v.decode()
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", keys[i], err)
		}
		out[i] = acc
	}
	return out, nil
}

type getMultipleAccountsResult struct {
	Value []*rawAccount `json:"value"`
}

// GetLatestBlockhash retrieves the most recent blockhash.
func (c *HTTPClient) GetLatestBlockhash(ctx context.Context) (*Blockhash, error) {
	params := []interface{}{map[string]interface{}{"commitment": c.commitment}}

	var result getLatestBlockhashResult
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return nil, err
	}

	hash, err := solana.HashFromBase58(result.Value.Blockhash)
	if err != nil {
		return nil, fmt.Errorf("parse blockhash: %w", err)
	}
	return &Blockhash{
		Hash:                 hash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
		Slot:                 result.Context.Slot,
	}, nil
}

type getLatestBlockhashResult struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value struct {
		Blockhash            string `json:"blockhash"`
		LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	} `json:"value"`
}

// GetEpochInfo retrieves the current epoch.
func (c *HTTPClient) GetEpochInfo(ctx context.Context) (*EpochInfo, error) {
	params := []interface{}{map[string]interface{}{"commitment": c.commitment}}

	var result getEpochInfoResult
	if err := c.call(ctx, "getEpochInfo", params, &result); err != nil {
		return nil, err
	}
	return &EpochInfo{
		Epoch:        result.Epoch,
		SlotIndex:    result.SlotIndex,
		SlotsInEpoch: result.SlotsInEpoch,
		AbsoluteSlot: result.AbsoluteSlot,
		BlockHeight:  result.BlockHeight,
	}, nil
}

type getEpochInfoResult struct {
	AbsoluteSlot uint64 `json:"absoluteSlot"`
	BlockHeight  uint64 `json:"blockHeight"`
	Epoch        uint64 `json:"epoch"`
	SlotIndex    uint64 `json:"slotIndex"`
	SlotsInEpoch uint64 `json:"slotsInEpoch"`
}

// SendTransaction submits a signed transaction. It is never retried: a
// transport failure may still have delivered the transaction.
func (c *HTTPClient) SendTransaction(ctx context.Context, tx *solana.Transaction, opts SendOptions) (solana.Signature, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("marshal transaction: %w", err)
	}

	preflight := opts.PreflightCommitment
	if preflight == "" {
		preflight = c.commitment
	}
	params := []interface{}{
		base64.StdEncoding.EncodeToString(raw),
		map[string]interface{}{
			"encoding":            "base64",
			"skipPreflight":       opts.SkipPreflight,
			"preflightCommitment": preflight,
		},
	}

	var result string
	if err := c.callOnce(ctx, "sendTransaction", params, &result); err != nil {
		return solana.Signature{}, err
	}

	sig, err := solana.SignatureFromBase58(result)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("parse signature: %w", err)
	}
	return sig, nil
}
