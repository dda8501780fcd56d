package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

func rpcServer(t *testing.T, handle func(req rpcRequest) interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handle(req),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPClient_GetProgramAccounts(t *testing.T) {
	program := solana.MustPublicKeyFromBase58("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C")
	pool := solana.MustPublicKeyFromBase58("7JuwJuNU88gurFnyWeiyGKbFmExMWcmRZntn9imEzdny")
	mint := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	data := []byte{1, 2, 3, 4}

	server := rpcServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getProgramAccounts" {
			t.Errorf("expected method getProgramAccounts, got %s", req.Method)
		}
		if req.Params[0] != program.String() {
			t.Errorf("expected program %s, got %v", program, req.Params[0])
		}

		cfg := req.Params[1].(map[string]interface{})
		filters := cfg["filters"].([]interface{})
		if len(filters) != 2 {
			t.Fatalf("expected 2 filters, got %d", len(filters))
		}
		size := filters[0].(map[string]interface{})["dataSize"].(float64)
		if size != 637 {
			t.Errorf("expected dataSize 637, got %v", size)
		}
		memcmp := filters[1].(map[string]interface{})["memcmp"].(map[string]interface{})
		if memcmp["offset"].(float64) != 168 {
			t.Errorf("expected offset 168, got %v", memcmp["offset"])
		}
		if memcmp["bytes"] != base58.Encode(mint[:]) {
			t.Errorf("expected base58 mint bytes, got %v", memcmp["bytes"])
		}

		return []map[string]interface{}{
			{
				"pubkey": pool.String(),
				"account": map[string]interface{}{
					"lamports":   uint64(5000),
					"owner":      program.String(),
					"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
					"executable": false,
					"rentEpoch":  uint64(0),
				},
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	accounts, err := client.GetProgramAccounts(context.Background(), program,
		DataSizeFilter(637), MemcmpFilter(168, mint[:]))
	if err != nil {
		t.Fatalf("GetProgramAccounts: %v", err)
	}

	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	if accounts[0].Pubkey != pool {
		t.Errorf("expected pubkey %s, got %s", pool, accounts[0].Pubkey)
	}
	if accounts[0].Account.Owner != program {
		t.Errorf("expected owner %s, got %s", program, accounts[0].Account.Owner)
	}
	if string(accounts[0].Account.Data) != string(data) {
		t.Errorf("expected data %v, got %v", data, accounts[0].Account.Data)
	}
}

func TestHTTPClient_GetAccountInfo_NotFound(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{"context": map[string]interface{}{"slot": 1}, "value": nil}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	acc, err := client.GetAccountInfo(context.Background(), solana.SystemProgramID)
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if acc != nil {
		t.Errorf("expected nil for missing account, got %+v", acc)
	}
}

func TestHTTPClient_GetMultipleAccounts_PreservesGaps(t *testing.T) {
	owner := solana.TokenProgramID
	server := rpcServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{
			"value": []interface{}{
				nil,
				map[string]interface{}{
					"lamports": 1,
					"owner":    owner.String(),
					"data":     []string{base64.StdEncoding.EncodeToString([]byte{9}), "base64"},
				},
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	accs, err := client.GetMultipleAccounts(context.Background(), solana.SystemProgramID, solana.TokenProgramID)
	if err != nil {
		t.Fatalf("GetMultipleAccounts: %v", err)
	}
	if accs[0] != nil {
		t.Errorf("expected first account nil")
	}
	if accs[1] == nil || accs[1].Data[0] != 9 {
		t.Errorf("expected second account with data [9], got %+v", accs[1])
	}
}

func TestHTTPClient_GetLatestBlockhash(t *testing.T) {
	hash := solana.HashFromBytes(make([]byte, 32))
	hash[0] = 7

	server := rpcServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getLatestBlockhash" {
			t.Errorf("expected getLatestBlockhash, got %s", req.Method)
		}
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 99},
			"value": map[string]interface{}{
				"blockhash":            hash.String(),
				"lastValidBlockHeight": 1234,
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	bh, err := client.GetLatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}
	if bh.Hash != hash {
		t.Errorf("expected hash %s, got %s", hash, bh.Hash)
	}
	if bh.LastValidBlockHeight != 1234 || bh.Slot != 99 {
		t.Errorf("unexpected blockhash metadata %+v", bh)
	}
}

func TestHTTPClient_GetEpochInfo(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{
			"absoluteSlot": 300000000, "blockHeight": 280000000,
			"epoch": 694, "slotIndex": 10, "slotsInEpoch": 432000,
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetEpochInfo(context.Background())
	if err != nil {
		t.Fatalf("GetEpochInfo: %v", err)
	}
	if info.Epoch != 694 {
		t.Errorf("expected epoch 694, got %d", info.Epoch)
	}
}

func TestHTTPClient_SendTransaction_NoRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(5), WithRetryDelay(10*time.Millisecond))
	tx := signedTestTransaction(t)

	_, err := client.SendTransaction(context.Background(), tx, SendOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", attempts.Load())
	}
}

func TestHTTPClient_SendTransaction(t *testing.T) {
	tx := signedTestTransaction(t)

	server := rpcServer(t, func(req rpcRequest) interface{} {
		if req.Method != "sendTransaction" {
			t.Errorf("expected sendTransaction, got %s", req.Method)
		}
		raw, err := base64.StdEncoding.DecodeString(req.Params[0].(string))
		if err != nil {
			t.Errorf("expected base64 payload: %v", err)
		}
		decoded, err := solana.TransactionFromBytes(raw)
		if err != nil {
			t.Errorf("decode tx: %v", err)
		} else if decoded.Signatures[0] != tx.Signatures[0] {
			t.Errorf("signature mismatch")
		}
		cfg := req.Params[1].(map[string]interface{})
		if cfg["encoding"] != "base64" {
			t.Errorf("expected base64 encoding, got %v", cfg["encoding"])
		}
		return tx.Signatures[0].String()
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	sig, err := client.SendTransaction(context.Background(), tx, SendOptions{})
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig != tx.Signatures[0] {
		t.Errorf("expected signature %s, got %s", tx.Signatures[0], sig)
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32602,
				"message": "Invalid params",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.GetEpochInfo(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *RPCError, got %T", err)
	}
	if rpcErr.Code != -32602 {
		t.Errorf("expected code -32602, got %d", rpcErr.Code)
	}

	// RPC errors should not be retried
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt (no retry for RPC errors), got %d", attempts.Load())
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"epoch": 12},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	info, err := client.GetEpochInfo(context.Background())
	if err != nil {
		t.Fatalf("GetEpochInfo: %v", err)
	}
	if info.Epoch != 12 {
		t.Errorf("expected epoch 12, got %d", info.Epoch)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_Observer(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{"epoch": 1}
	})
	defer server.Close()

	var methods []string
	client := NewHTTPClient(server.URL, WithObserver(func(method string, _ time.Duration, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		methods = append(methods, method)
	}))

	if _, err := client.GetEpochInfo(context.Background()); err != nil {
		t.Fatalf("GetEpochInfo: %v", err)
	}
	if len(methods) != 1 || methods[0] != "getEpochInfo" {
		t.Errorf("expected observer to see getEpochInfo, got %v", methods)
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(10),
		WithRetryDelay(50*time.Millisecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_, err := client.GetEpochInfo(ctx)
	if err == nil {
		t.Fatal("expected error due to context cancellation")
	}
}

func TestFilter_Match(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5}

	cases := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"size match", DataSizeFilter(6), true},
		{"size mismatch", DataSizeFilter(7), false},
		{"memcmp match", MemcmpFilter(2, []byte{2, 3}), true},
		{"memcmp mismatch", MemcmpFilter(2, []byte{3}), false},
		{"memcmp past end", MemcmpFilter(5, []byte{5, 6}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Match(data); got != tc.want {
				t.Errorf("Match = %v, want %v", got, tc.want)
			}
		})
	}
}

func signedTestTransaction(t *testing.T) *solana.Transaction {
	t.Helper()
	payer := solana.NewWallet().PrivateKey
	ix := solana.NewInstruction(solana.MemoProgramID, solana.AccountMetaSlice{
		solana.Meta(payer.PublicKey()).SIGNER().WRITE(),
	}, []byte("ping"))

	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{1}, solana.TransactionPayer(payer.PublicKey()))
	if err != nil {
		t.Fatalf("new transaction: %v", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key == payer.PublicKey() {
			return &payer
		}
		return nil
	}); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tx
}
