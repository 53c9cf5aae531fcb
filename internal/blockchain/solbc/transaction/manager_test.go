package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/auction-house/internal/blockchain"
	"github.com/rovshanmuradov/auction-house/internal/types"
)

// MockSender реализует интерфейс Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	args := m.Called(ctx)
	return args.Get(0).(solana.Hash), args.Error(1)
}

func (m *MockSender) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	args := m.Called(ctx, tx, opts)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *MockSender) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	args := m.Called(ctx, signatures)
	res, _ := args.Get(0).(*rpc.GetSignatureStatusesResult)
	return res, args.Error(1)
}

func (m *MockSender) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*blockchain.SimulationResult, error) {
	args := m.Called(ctx, tx)
	res, _ := args.Get(0).(*blockchain.SimulationResult)
	return res, args.Error(1)
}

func testConfig() Config {
	return Config{
		Commitment:          rpc.CommitmentConfirmed,
		ConfirmationTimeout: 200 * time.Millisecond,
		PollInterval:        10 * time.Millisecond,
	}
}

func transferIx(from, to solana.PublicKey) solana.Instruction {
	return system.NewTransferInstruction(1, from, to).Build()
}

func statusOf(s rpc.ConfirmationStatusType, txErr interface{}) *rpc.GetSignatureStatusesResult {
	return &rpc.GetSignatureStatusesResult{
		Value: []*rpc.SignatureStatusesResult{{
			Slot:               42,
			ConfirmationStatus: s,
			Err:                txErr,
		}},
	}
}

func TestManager_SendAndConfirm(t *testing.T) {
	payer := solana.NewWallet()
	to := solana.NewWallet().PublicKey()
	sig := solana.Signature{1, 2, 3}

	sender := new(MockSender)
	sender.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{9}, nil)
	sender.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).Return(sig, nil)
	sender.On("GetSignatureStatuses", mock.Anything, mock.Anything).
		Return(statusOf(rpc.ConfirmationStatusProcessed, nil), nil).Once()
	sender.On("GetSignatureStatuses", mock.Anything, mock.Anything).
		Return(statusOf(rpc.ConfirmationStatusConfirmed, nil), nil)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	tm := NewManager(sender, zaptest.NewLogger(t), testConfig(), metrics)

	got, err := tm.SendAndConfirm(context.Background(), payer.PublicKey(),
		[]solana.Instruction{transferIx(payer.PublicKey(), to)},
		[]solana.PrivateKey{payer.PrivateKey})
	require.NoError(t, err)
	assert.Equal(t, sig, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.submittedCounter))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.confirmedCounter))

	sent := sender.Calls[1].Arguments.Get(1).(*solana.Transaction)
	require.Len(t, sent.Signatures, 1)
	assert.Equal(t, payer.PublicKey(), sent.Message.AccountKeys[0])
}

func TestManager_MissingSigner(t *testing.T) {
	payer := solana.NewWallet()
	other := solana.NewWallet()

	sender := new(MockSender)
	sender.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{9}, nil)

	tm := NewManager(sender, zaptest.NewLogger(t), testConfig(), nil)

	// other подписывает перевод, но его ключ не передан
	_, err := tm.SendAndConfirm(context.Background(), payer.PublicKey(),
		[]solana.Instruction{transferIx(other.PublicKey(), payer.PublicKey())},
		[]solana.PrivateKey{payer.PrivateKey})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSigner))
	sender.AssertNotCalled(t, "SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_SubmissionErrorIsNotRetried(t *testing.T) {
	payer := solana.NewWallet()
	rejected := errors.New("Transaction simulation failed: custom program error: 0x1770")

	sender := new(MockSender)
	sender.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{9}, nil)
	sender.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).
		Return(solana.Signature{}, rejected)

	tm := NewManager(sender, zaptest.NewLogger(t), testConfig(), nil)

	_, err := tm.SendAndConfirm(context.Background(), payer.PublicKey(),
		[]solana.Instruction{transferIx(payer.PublicKey(), solana.NewWallet().PublicKey())},
		[]solana.PrivateKey{payer.PrivateKey})
	require.ErrorIs(t, err, rejected)
	sender.AssertNumberOfCalls(t, "SendTransactionWithOpts", 1)
}

func TestManager_ConfirmationTimeout(t *testing.T) {
	payer := solana.NewWallet()
	sig := solana.Signature{7}

	sender := new(MockSender)
	sender.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{9}, nil)
	sender.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).Return(sig, nil)
	sender.On("GetSignatureStatuses", mock.Anything, mock.Anything).
		Return(&rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{nil}}, nil)

	metrics := NewMetrics(prometheus.NewRegistry())
	tm := NewManager(sender, zaptest.NewLogger(t), testConfig(), metrics)

	got, err := tm.SendAndConfirm(context.Background(), payer.PublicKey(),
		[]solana.Instruction{transferIx(payer.PublicKey(), solana.NewWallet().PublicKey())},
		[]solana.PrivateKey{payer.PrivateKey})
	require.ErrorIs(t, err, ErrConfirmationTimeout)
	assert.Equal(t, sig, got, "signature is returned so the caller can re-check state")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.timeoutCounter))
}

func TestManager_OnChainFailure(t *testing.T) {
	payer := solana.NewWallet()

	sender := new(MockSender)
	sender.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{9}, nil)
	sender.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).Return(solana.Signature{3}, nil)
	sender.On("GetSignatureStatuses", mock.Anything, mock.Anything).
		Return(statusOf(rpc.ConfirmationStatusConfirmed, map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}), nil)

	tm := NewManager(sender, zaptest.NewLogger(t), testConfig(), nil)

	_, err := tm.SendAndConfirm(context.Background(), payer.PublicKey(),
		[]solana.Instruction{transferIx(payer.PublicKey(), solana.NewWallet().PublicKey())},
		[]solana.PrivateKey{payer.PrivateKey})
	require.ErrorIs(t, err, ErrTransactionFailed)
	sender.AssertNumberOfCalls(t, "GetSignatureStatuses", 1)
}

func TestManager_NoInstructions(t *testing.T) {
	tm := NewManager(new(MockSender), zaptest.NewLogger(t), testConfig(), nil)
	_, err := tm.SendAndConfirm(context.Background(), solana.PublicKey{}, nil, nil)
	assert.ErrorIs(t, err, ErrNoInstructions)
}

func TestCommitmentReached(t *testing.T) {
	tests := []struct {
		got  rpc.ConfirmationStatusType
		want rpc.CommitmentType
		ok   bool
	}{
		{rpc.ConfirmationStatusProcessed, rpc.CommitmentProcessed, true},
		{rpc.ConfirmationStatusProcessed, rpc.CommitmentConfirmed, false},
		{rpc.ConfirmationStatusConfirmed, rpc.CommitmentConfirmed, true},
		{rpc.ConfirmationStatusFinalized, rpc.CommitmentConfirmed, true},
		{rpc.ConfirmationStatusConfirmed, rpc.CommitmentFinalized, false},
		{"", rpc.CommitmentProcessed, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, commitmentReached(tt.got, tt.want), "%s vs %s", tt.got, tt.want)
	}
}

func TestManager_BuildTransactionWithPriority(t *testing.T) {
	payer := solana.NewWallet()

	sender := new(MockSender)
	sender.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{9}, nil)

	cfg := testConfig()
	cfg.Priority = types.PriorityMedium
	tm := NewManager(sender, zaptest.NewLogger(t), cfg, nil)

	tx, err := tm.BuildTransaction(context.Background(), payer.PublicKey(),
		[]solana.Instruction{transferIx(payer.PublicKey(), solana.NewWallet().PublicKey())},
		[]solana.PrivateKey{payer.PrivateKey})
	require.NoError(t, err)
	require.Len(t, tx.Message.Instructions, 3)

	first, err := tx.Message.ResolveProgramIDIndex(tx.Message.Instructions[0].ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, computebudget.ProgramID, first)
	last, err := tx.Message.ResolveProgramIDIndex(tx.Message.Instructions[2].ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, solana.SystemProgramID, last)
}

func TestManager_ConfirmationTimeoutKeepsPollError(t *testing.T) {
	payer := solana.NewWallet()
	unreachable := errors.New("dial tcp 127.0.0.1:8899: connection refused")

	sender := new(MockSender)
	sender.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{9}, nil)
	sender.On("SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything).Return(solana.Signature{8}, nil)
	sender.On("GetSignatureStatuses", mock.Anything, mock.Anything).Return(nil, unreachable)

	tm := NewManager(sender, zaptest.NewLogger(t), testConfig(), nil)

	_, err := tm.SendAndConfirm(context.Background(), payer.PublicKey(),
		[]solana.Instruction{transferIx(payer.PublicKey(), solana.NewWallet().PublicKey())},
		[]solana.PrivateKey{payer.PrivateKey})
	require.ErrorIs(t, err, ErrConfirmationTimeout)
	assert.ErrorIs(t, err, unreachable)
}

func TestManager_DryRun(t *testing.T) {
	payer := solana.NewWallet()

	sender := new(MockSender)
	sender.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{9}, nil)
	sender.On("SimulateTransaction", mock.Anything, mock.Anything).
		Return(&blockchain.SimulationResult{Logs: []string{"Program log: ok"}, UnitsConsumed: 4500}, nil)

	cfg := testConfig()
	cfg.DryRun = true
	metrics := NewMetrics(prometheus.NewRegistry())
	tm := NewManager(sender, zaptest.NewLogger(t), cfg, metrics)

	sig, err := tm.SendAndConfirm(context.Background(), payer.PublicKey(),
		[]solana.Instruction{transferIx(payer.PublicKey(), solana.NewWallet().PublicKey())},
		[]solana.PrivateKey{payer.PrivateKey})
	require.NoError(t, err)

	simulated := sender.Calls[1].Arguments.Get(1).(*solana.Transaction)
	assert.Equal(t, simulated.Signatures[0], sig)
	sender.AssertNotCalled(t, "SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything)
	sender.AssertNotCalled(t, "GetSignatureStatuses", mock.Anything, mock.Anything)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.submittedCounter))
}

func TestManager_DryRunSimulationFailure(t *testing.T) {
	payer := solana.NewWallet()

	sender := new(MockSender)
	sender.On("GetRecentBlockhash", mock.Anything).Return(solana.Hash{9}, nil)
	sender.On("SimulateTransaction", mock.Anything, mock.Anything).
		Return(&blockchain.SimulationResult{Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}}, nil)

	cfg := testConfig()
	cfg.DryRun = true
	tm := NewManager(sender, zaptest.NewLogger(t), cfg, nil)

	_, err := tm.SendAndConfirm(context.Background(), payer.PublicKey(),
		[]solana.Instruction{transferIx(payer.PublicKey(), solana.NewWallet().PublicKey())},
		[]solana.PrivateKey{payer.PrivateKey})
	assert.ErrorIs(t, err, ErrSimulationFailed)
}
