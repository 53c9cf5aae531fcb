package fixtures

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	mu         sync.Mutex
	recipients []solana.PublicKey
	fail       solana.PublicKey
}

func (r *recordingSubmitter) SendAndConfirm(_ context.Context, _ solana.PublicKey, instructions []solana.Instruction, _ []solana.PrivateKey) (solana.Signature, error) {
	to := instructions[0].Accounts()[1].PublicKey
	if to.Equals(r.fail) {
		return solana.Signature{}, errors.New("insufficient funds")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recipients = append(r.recipients, to)
	return solana.Signature{1}, nil
}

// staticBalance отдает один и тот же баланс для любого адреса.
type staticBalance struct {
	lamports uint64
	err      error
}

func (b staticBalance) GetBalance(context.Context, solana.PublicKey) (uint64, error) {
	return b.lamports, b.err
}

var rich = staticBalance{lamports: 100 * solana.LAMPORTS_PER_SOL}

func TestNewParticipants(t *testing.T) {
	source := solana.NewWallet().PrivateKey
	sub := &recordingSubmitter{}

	p, err := NewParticipants(context.Background(), sub, rich, source, 1_000_000_000)
	require.NoError(t, err)

	keys := []solana.PublicKey{p.Owner.PublicKey(), p.Seller.PublicKey(), p.Buyer.PublicKey()}
	assert.ElementsMatch(t, keys, sub.recipients)
	assert.NotEqual(t, keys[0], keys[1])
	assert.NotEqual(t, keys[1], keys[2])

	other, err := NewParticipants(context.Background(), sub, rich, source, 1)
	require.NoError(t, err)
	assert.NotEqual(t, p.Buyer.PublicKey(), other.Buyer.PublicKey())
}

func TestFund_PropagatesFailure(t *testing.T) {
	bad := solana.NewWallet().PublicKey()
	sub := &recordingSubmitter{fail: bad}

	err := Fund(context.Background(), sub, rich, solana.NewWallet().PrivateKey, 10,
		solana.NewWallet().PublicKey(), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad.String())
}

func TestFund_ChecksSourceBalance(t *testing.T) {
	source := solana.NewWallet().PrivateKey
	recipients := []solana.PublicKey{solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()}

	tests := []struct {
		name    string
		balance staticBalance
		wantErr error
		sent    int
	}{
		{"enough for all", staticBalance{lamports: 20}, nil, 2},
		{"short by one lamport", staticBalance{lamports: 19}, ErrInsufficientFunds, 0},
		{"balance unavailable", staticBalance{err: errors.New("rpc down")}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &recordingSubmitter{}
			err := Fund(context.Background(), sub, tt.balance, source, 10, recipients...)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.balance.err != nil:
				assert.ErrorIs(t, err, tt.balance.err)
			default:
				assert.NoError(t, err)
			}
			assert.Len(t, sub.recipients, tt.sent)
		})
	}
}
