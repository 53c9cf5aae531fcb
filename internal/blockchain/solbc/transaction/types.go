// internal/blockchain/solbc/transaction/types.go
package transaction

import (
	"errors"
	"time"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/auction-house/internal/types"
)

var (
	ErrConfirmationTimeout = errors.New("transaction confirmation timeout")
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrInvalidSignature    = errors.New("invalid transaction signature")
	ErrInvalidBlockhash    = errors.New("invalid blockhash")
	ErrNoInstructions      = errors.New("transaction has no instructions")
	ErrMissingSigner       = errors.New("missing required signer")
	ErrSimulationFailed    = errors.New("transaction simulation failed")
)

const (
	DefaultConfirmationTimeout = 60 * time.Second
	DefaultPollInterval        = 500 * time.Millisecond
)

// Config задаёт параметры отправки и ожидания подтверждения.
type Config struct {
	SkipPreflight       bool
	Commitment          rpc.CommitmentType
	ConfirmationTimeout time.Duration
	PollInterval        time.Duration
	// Priority добавляет инструкции compute budget перед инструкциями вызова.
	Priority types.PriorityLevel
	// DryRun заменяет отправку симуляцией; ожидания подтверждения нет.
	DryRun bool
}

func (c Config) withDefaults() Config {
	if c.Commitment == "" {
		c.Commitment = rpc.CommitmentConfirmed
	}
	if c.ConfirmationTimeout <= 0 {
		c.ConfirmationTimeout = DefaultConfirmationTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// Status описывает подтверждённую транзакцию.
type Status struct {
	Signature     string
	Status        rpc.ConfirmationStatusType
	Confirmations uint64
	Slot          uint64
	Timestamp     time.Time
}
