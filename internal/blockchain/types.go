// internal/blockchain/types.go
package blockchain

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TransactionOptions определяет опции для отправки транзакций.
type TransactionOptions struct {
	SkipPreflight       bool
	PreflightCommitment rpc.CommitmentType
}

// SimulationResult представляет результат симуляции транзакции.
type SimulationResult struct {
	Err           interface{}
	Logs          []string
	UnitsConsumed uint64
}

// AccountReader читает состояние аккаунтов из сети.
type AccountReader interface {
	// Получить информацию об аккаунте. Отсутствующий аккаунт возвращает ErrAccountNotFound.
	GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	// Получить держателей токена, отсортированных по убыванию баланса.
	GetTokenLargestAccounts(ctx context.Context, mint solana.PublicKey) ([]*rpc.TokenLargestAccountsResult, error)
}

// BalanceReader читает баланс кошелька в лампортах.
type BalanceReader interface {
	GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error)
}

// TransactionSender отправляет транзакции и следит за их статусом.
type TransactionSender interface {
	// Получить последний blockhash.
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	// Получить статусы подписей транзакций.
	GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	// Отправить транзакцию с опциями.
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts TransactionOptions) (solana.Signature, error)
	// Симулировать транзакцию без отправки.
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error)
}

// Client объединяет все, что нужно от сети сервису, менеджеру транзакций и фикстурам.
type Client interface {
	AccountReader
	BalanceReader
	TransactionSender
}
