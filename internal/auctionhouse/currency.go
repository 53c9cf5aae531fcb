// internal/auctionhouse/currency.go
package auctionhouse

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

// Currency описывает способ оплаты ставки. Вариант выбирается один раз по
// treasury mint аукционного дома.
type Currency interface {
	// PaymentAccount – источник средств покупателя.
	PaymentAccount() solana.PublicKey
	// TransferAuthority – кто вправе списать средства.
	TransferAuthority() solana.PublicKey
	// instructions оборачивает инструкцию buy нужными инструкциями токен-программы.
	instructions(buy solana.Instruction, owner solana.PublicKey, amount uint64) []solana.Instruction
	signers() []solana.PrivateKey
	delegated() bool
}

// NativeCurrency: кошелек покупателя платит напрямую.
type NativeCurrency struct {
	Wallet solana.PublicKey
}

func (c NativeCurrency) PaymentAccount() solana.PublicKey    { return c.Wallet }
func (c NativeCurrency) TransferAuthority() solana.PublicKey { return c.Wallet }
func (c NativeCurrency) signers() []solana.PrivateKey        { return nil }
func (c NativeCurrency) delegated() bool                     { return false }

func (c NativeCurrency) instructions(buy solana.Instruction, _ solana.PublicKey, _ uint64) []solana.Instruction {
	return []solana.Instruction{buy}
}

// CustomCurrency: оплата SPL-токеном с ATA покупателя через одноразового делегата.
type CustomCurrency struct {
	Mint      solana.PublicKey
	Account   solana.PublicKey
	Authority solana.PrivateKey
}

func (c CustomCurrency) PaymentAccount() solana.PublicKey    { return c.Account }
func (c CustomCurrency) TransferAuthority() solana.PublicKey { return c.Authority.PublicKey() }
func (c CustomCurrency) signers() []solana.PrivateKey        { return []solana.PrivateKey{c.Authority} }
func (c CustomCurrency) delegated() bool                     { return true }

// instructions: revoke прежнего делегата, approve ровно amount, затем buy.
func (c CustomCurrency) instructions(buy solana.Instruction, owner solana.PublicKey, amount uint64) []solana.Instruction {
	revoke := token.NewRevokeInstruction(c.Account, owner, nil).Build()
	approve := token.NewApproveInstruction(amount, c.Account, c.Authority.PublicKey(), owner, nil).Build()
	return []solana.Instruction{revoke, approve, buy}
}

// ResolveCurrency выбирает вариант оплаты для покупателя buyer.
func ResolveCurrency(house *AuctionHouse, buyer solana.PublicKey) (Currency, error) {
	if house.IsNative() {
		return NativeCurrency{Wallet: buyer}, nil
	}
	account, err := FindAssociatedTokenAddress(house.TreasuryMint, buyer)
	if err != nil {
		return nil, err
	}
	authority, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transfer authority: %w", err)
	}
	return CustomCurrency{
		Mint:      house.TreasuryMint,
		Account:   account,
		Authority: authority,
	}, nil
}
