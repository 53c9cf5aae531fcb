// internal/blockchain/solbc/transaction/monitor.go
package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// StatusReader – часть сетевого клиента, нужная монитору.
type StatusReader interface {
	GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

var errNotConfirmed = errors.New("signature not confirmed yet")

type Monitor struct {
	client StatusReader
	logger *zap.Logger
	config Config
}

func NewMonitor(client StatusReader, logger *zap.Logger, config Config) *Monitor {
	return &Monitor{
		client: client,
		logger: logger.Named("tx-monitor"),
		config: config.withDefaults(),
	}
}

// AwaitConfirmation опрашивает статус подписи, пока транзакция не достигнет
// нужного уровня подтверждения, не упадёт или не истечёт ConfirmationTimeout.
// Ошибка исполнения в сети возвращается сразу, без повторов.
func (m *Monitor) AwaitConfirmation(ctx context.Context, signature solana.Signature) (*Status, error) {
	// последняя ошибка опроса; сбрасывается, когда узел ответил
	var pollErr error
	operation := func() (*Status, error) {
		status, err := m.checkConfirmation(ctx, signature)
		if err != nil {
			if errors.Is(err, ErrTransactionFailed) {
				return nil, backoff.Permanent(err)
			}
			if errors.Is(err, errNotConfirmed) {
				pollErr = nil
			} else {
				pollErr = err
				m.logger.Warn("Confirmation check failed",
					zap.String("signature", signature.String()),
					zap.Error(err))
			}
			return nil, err
		}
		return status, nil
	}

	status, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(m.config.PollInterval)),
		backoff.WithMaxElapsedTime(m.config.ConfirmationTimeout),
	)
	if err != nil {
		if errors.Is(err, ErrTransactionFailed) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if pollErr != nil {
			return nil, fmt.Errorf("%w: %s after %s: %w", ErrConfirmationTimeout, signature, m.config.ConfirmationTimeout, pollErr)
		}
		return nil, fmt.Errorf("%w: %s after %s", ErrConfirmationTimeout, signature, m.config.ConfirmationTimeout)
	}
	return status, nil
}

// checkConfirmation проверяет, подтверждена ли транзакция
func (m *Monitor) checkConfirmation(ctx context.Context, signature solana.Signature) (*Status, error) {
	response, err := m.client.GetSignatureStatuses(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature status: %w", err)
	}
	if response == nil || len(response.Value) == 0 || response.Value[0] == nil {
		return nil, errNotConfirmed
	}

	status := response.Value[0]
	if status.Err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransactionFailed, signature, status.Err)
	}
	if !commitmentReached(status.ConfirmationStatus, m.config.Commitment) {
		return nil, errNotConfirmed
	}

	result := &Status{
		Signature: signature.String(),
		Status:    status.ConfirmationStatus,
		Slot:      status.Slot,
		Timestamp: time.Now(),
	}
	if status.Confirmations != nil {
		result.Confirmations = *status.Confirmations
	}
	return result, nil
}

// commitmentReached сравнивает фактический статус с требуемым уровнем.
func commitmentReached(got rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	rank := func(s string) int {
		switch s {
		case string(rpc.CommitmentProcessed):
			return 1
		case string(rpc.CommitmentConfirmed):
			return 2
		case string(rpc.CommitmentFinalized):
			return 3
		default:
			return 0
		}
	}
	have := rank(string(got))
	return have > 0 && have >= rank(string(want))
}
