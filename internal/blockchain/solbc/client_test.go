package solbc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// rpcServer отвечает на JSON-RPC вызовы готовыми результатами по имени метода.
func rpcServer(t *testing.T, results map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		result, ok := results[req.Method]
		if !ok {
			t.Errorf("unexpected method %s", req.Method)
			result = "null"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_GetAccountInfoNotFound(t *testing.T) {
	srv, _ := rpcServer(t, map[string]string{
		"getAccountInfo": `{"context":{"slot":1},"value":null}`,
	})
	c := NewClient(srv.URL, rpc.CommitmentConfirmed, zaptest.NewLogger(t))

	_, err := c.GetAccountInfo(context.Background(), solana.NewWallet().PublicKey())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.True(t, IsAccountNotFoundError(err))
}

func TestClient_GetMintDecimals(t *testing.T) {
	// MintAuthority(4+32) Supply(8) Decimals(1) IsInitialized(1) FreezeAuthority(4+32)
	data := make([]byte, 82)
	data[44] = 6
	data[45] = 1
	account := fmt.Sprintf(`{"context":{"slot":1},"value":{"data":[%q,"base64"],"executable":false,"lamports":1461600,"owner":%q,"rentEpoch":0}}`,
		base64.StdEncoding.EncodeToString(data), solana.TokenProgramID)

	srv, calls := rpcServer(t, map[string]string{"getAccountInfo": account})
	c := NewClient(srv.URL, rpc.CommitmentConfirmed, zaptest.NewLogger(t))

	decimals, err := c.GetMintDecimals(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint8(6), decimals)
	assert.Equal(t, int32(1), calls.Load())

	// нативный минт не запрашивается
	decimals, err = c.GetMintDecimals(context.Background(), solana.WrappedSol)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), decimals)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GetBalance(t *testing.T) {
	srv, _ := rpcServer(t, map[string]string{
		"getBalance": `{"context":{"slot":1},"value":42}`,
	})
	c := NewClient(srv.URL, "", nil)
	assert.Equal(t, rpc.CommitmentConfirmed, c.Commitment())

	balance, err := c.GetBalance(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), balance)
}

func TestIsAccountNotFoundError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", fmt.Errorf("wrap: %w", ErrAccountNotFound), true},
		{"rpc not found", rpc.ErrNotFound, true},
		{"message", errors.New("Account Not Found"), true},
		{"other", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAccountNotFoundError(tt.err))
		})
	}
}
