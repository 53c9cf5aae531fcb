// internal/blockchain/solbc/transaction/manager.go
package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/auction-house/internal/blockchain"
	"github.com/rovshanmuradov/auction-house/internal/blockchain/solbc"
	"github.com/rovshanmuradov/auction-house/internal/types"
)

// Sender – часть сетевого клиента, которой достаточно для отправки и подтверждения.
type Sender interface {
	blockchain.TransactionSender
}

// Manager собирает, подписывает, отправляет транзакцию и ждёт подтверждения.
// Отправка никогда не повторяется: решение о повторе остаётся за вызывающим.
type Manager struct {
	client    Sender
	logger    *zap.Logger
	config    Config
	validator *Validator
	monitor   *Monitor
	metrics   *Metrics
	analyzer  *solbc.ErrorAnalyzer
}

func NewManager(client Sender, logger *zap.Logger, config Config, metrics *Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	config = config.withDefaults()
	return &Manager{
		client:    client,
		logger:    logger.Named("tx-manager"),
		config:    config,
		validator: NewValidator(logger),
		monitor:   NewMonitor(client, logger, config),
		metrics:   metrics,
		analyzer:  solbc.NewErrorAnalyzer(logger),
	}
}

// BuildTransaction собирает и подписывает транзакцию, не отправляя её.
func (tm *Manager) BuildTransaction(
	ctx context.Context,
	feePayer solana.PublicKey,
	instructions []solana.Instruction,
	signers []solana.PrivateKey,
) (*solana.Transaction, error) {
	if len(instructions) == 0 {
		return nil, ErrNoInstructions
	}

	priority, err := types.PriorityInstructions(tm.config.Priority)
	if err != nil {
		return nil, err
	}
	if len(priority) > 0 {
		instructions = append(priority, instructions...)
	}

	blockhash, err := tm.client.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(feePayer))
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	if err := tm.validator.ValidateSigners(tx, signers); err != nil {
		return nil, err
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		return findSigner(signers, key)
	}); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	if err := tm.validator.ValidateTransaction(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// SendAndConfirm отправляет инструкции одной транзакцией и ждёт подтверждения
// на уровне Config.Commitment.
func (tm *Manager) SendAndConfirm(
	ctx context.Context,
	feePayer solana.PublicKey,
	instructions []solana.Instruction,
	signers []solana.PrivateKey,
) (solana.Signature, error) {
	tx, err := tm.BuildTransaction(ctx, feePayer, instructions, signers)
	if err != nil {
		tm.logger.Error("Transaction build failed", zap.Error(err))
		return solana.Signature{}, err
	}
	if tm.config.DryRun {
		return tm.simulate(ctx, tx)
	}

	start := time.Now()
	sig, err := tm.client.SendTransactionWithOpts(ctx, tx, blockchain.TransactionOptions{
		SkipPreflight:       tm.config.SkipPreflight,
		PreflightCommitment: tm.config.Commitment,
	})
	if err != nil {
		tm.metrics.failureCounter.Inc()
		tm.logger.Error("Failed to send transaction",
			append([]zap.Field{zap.Error(err)}, tm.analyzer.Analyze(err).LogFields()...)...)
		return solana.Signature{}, err
	}
	tm.metrics.submittedCounter.Inc()
	tm.logger.Info("Transaction sent",
		zap.String("signature", sig.String()),
		zap.Int("instructions", len(instructions)))

	status, err := tm.monitor.AwaitConfirmation(ctx, sig)
	if err != nil {
		if errors.Is(err, ErrConfirmationTimeout) {
			tm.metrics.timeoutCounter.Inc()
		} else {
			tm.metrics.failureCounter.Inc()
		}
		tm.logger.Warn("Transaction confirmation failed",
			zap.String("signature", sig.String()),
			zap.Error(err))
		return sig, err
	}
	tm.metrics.TrackTransaction(start)
	tm.metrics.confirmedCounter.Inc()

	tm.logger.Info("Transaction confirmed",
		zap.String("signature", sig.String()),
		zap.String("status", string(status.Status)),
		zap.Uint64("slot", status.Slot))
	return sig, nil
}

// simulate прогоняет транзакцию через simulateTransaction вместо отправки.
// Возвращается подпись, которую получила бы транзакция.
func (tm *Manager) simulate(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig := tx.Signatures[0]
	result, err := tm.client.SimulateTransaction(ctx, tx)
	if err != nil {
		tm.logger.Error("Simulation request failed",
			append([]zap.Field{zap.Error(err)}, tm.analyzer.Analyze(err).LogFields()...)...)
		return solana.Signature{}, err
	}
	for _, line := range result.Logs {
		tm.logger.Debug("Program log", zap.String("line", line))
	}
	if result.Err != nil {
		tm.logger.Warn("Simulation failed",
			zap.String("signature", sig.String()),
			zap.Any("error", result.Err),
			zap.Strings("logs", result.Logs))
		return solana.Signature{}, fmt.Errorf("%w: %v", ErrSimulationFailed, result.Err)
	}
	tm.logger.Info("Dry run: transaction simulated, not sent",
		zap.String("signature", sig.String()),
		zap.Uint64("units_consumed", result.UnitsConsumed))
	return sig, nil
}
