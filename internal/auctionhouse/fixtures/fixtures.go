// Package fixtures builds freshly generated, funded participants for tests that
// run against a live cluster.
package fixtures

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/auction-house/internal/blockchain"
	"github.com/rovshanmuradov/auction-house/internal/wallet"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// Submitter отправляет инструкции и ждёт подтверждения.
type Submitter interface {
	SendAndConfirm(ctx context.Context, feePayer solana.PublicKey, instructions []solana.Instruction, signers []solana.PrivateKey) (solana.Signature, error)
}

// Participants – независимые кошельки одного сценария.
type Participants struct {
	Owner  solana.PrivateKey
	Seller solana.PrivateKey
	Buyer  solana.PrivateKey
}

// Fund переводит lamports с source на каждый из адресов отдельной транзакцией.
// Баланс source проверяется заранее, без учета комиссий.
func Fund(ctx context.Context, submitter Submitter, balances blockchain.BalanceReader, source solana.PrivateKey, lamports uint64, recipients ...solana.PublicKey) error {
	if len(recipients) == 0 {
		return nil
	}
	balance, err := balances.GetBalance(ctx, source.PublicKey())
	if err != nil {
		return fmt.Errorf("balance of %s: %w", source.PublicKey(), err)
	}
	if lamports > balance/uint64(len(recipients)) {
		return fmt.Errorf("%w: %s holds %d lamports, %d x %d requested",
			ErrInsufficientFunds, source.PublicKey(), balance, len(recipients), lamports)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, recipient := range recipients {
		g.Go(func() error {
			ix := system.NewTransferInstruction(lamports, source.PublicKey(), recipient).Build()
			if _, err := submitter.SendAndConfirm(ctx, source.PublicKey(),
				[]solana.Instruction{ix}, []solana.PrivateKey{source}); err != nil {
				return fmt.Errorf("fund %s: %w", recipient, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// NewParticipants генерирует владельца, продавца и покупателя и пополняет их
// с кошелька source.
func NewParticipants(ctx context.Context, submitter Submitter, balances blockchain.BalanceReader, source solana.PrivateKey, lamports uint64) (*Participants, error) {
	var keys [3]solana.PrivateKey
	for i := range keys {
		w, err := wallet.Generate()
		if err != nil {
			return nil, err
		}
		keys[i] = w.PrivateKey
	}
	p := &Participants{Owner: keys[0], Seller: keys[1], Buyer: keys[2]}
	if err := Fund(ctx, submitter, balances, source, lamports,
		p.Owner.PublicKey(), p.Seller.PublicKey(), p.Buyer.PublicKey()); err != nil {
		return nil, err
	}
	return p, nil
}
