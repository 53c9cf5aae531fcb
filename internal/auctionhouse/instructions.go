// internal/auctionhouse/instructions.go
package auctionhouse

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	createAuctionHouseDiscriminator = instructionDiscriminator("create_auction_house")
	sellDiscriminator               = instructionDiscriminator("sell")
	buyDiscriminator                = instructionDiscriminator("buy")
	executeSaleDiscriminator        = instructionDiscriminator("execute_sale")
	cancelDiscriminator             = instructionDiscriminator("cancel")
)

// instructionDiscriminator – первые 8 байт sha256("global:<name>") по схеме Anchor.
func instructionDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// CreateAuctionHouseArgs – аргументы create_auction_house в порядке borsh.
type CreateAuctionHouseArgs struct {
	Bump                 uint8
	FeePayerBump         uint8
	TreasuryBump         uint8
	SellerFeeBasisPoints uint16
	RequiresSignOff      bool
	CanChangeSalePrice   bool
}

type CreateAuctionHouseAccounts struct {
	TreasuryMint                       solana.PublicKey
	Payer                              solana.PublicKey
	Authority                          solana.PublicKey
	FeeWithdrawalDestination           solana.PublicKey
	TreasuryWithdrawalDestination      solana.PublicKey
	TreasuryWithdrawalDestinationOwner solana.PublicKey
	AuctionHouse                       solana.PublicKey
	AuctionHouseFeeAccount             solana.PublicKey
	AuctionHouseTreasury               solana.PublicKey
}

func NewCreateAuctionHouseInstruction(accounts CreateAuctionHouseAccounts, args CreateAuctionHouseArgs) (*solana.GenericInstruction, error) {
	metas := solana.AccountMetaSlice{
		solana.Meta(accounts.TreasuryMint),
		solana.Meta(accounts.Payer).WRITE().SIGNER(),
		solana.Meta(accounts.Authority),
		solana.Meta(accounts.FeeWithdrawalDestination).WRITE(),
		solana.Meta(accounts.TreasuryWithdrawalDestination).WRITE(),
		solana.Meta(accounts.TreasuryWithdrawalDestinationOwner),
		solana.Meta(accounts.AuctionHouse).WRITE(),
		solana.Meta(accounts.AuctionHouseFeeAccount).WRITE(),
		solana.Meta(accounts.AuctionHouseTreasury).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SPLAssociatedTokenAccountProgramID),
		solana.Meta(solana.SysVarRentPubkey),
	}
	return newInstruction(createAuctionHouseDiscriminator, metas, args)
}

// SellArgs – аргументы sell в порядке borsh.
type SellArgs struct {
	TradeStateBump      uint8
	FreeTradeStateBump  uint8
	ProgramAsSignerBump uint8
	BuyerPrice          uint64
	TokenSize           uint64
}

type SellAccounts struct {
	Wallet                 solana.PublicKey
	TokenAccount           solana.PublicKey
	Metadata               solana.PublicKey
	Authority              solana.PublicKey
	AuctionHouse           solana.PublicKey
	AuctionHouseFeeAccount solana.PublicKey
	SellerTradeState       solana.PublicKey
	FreeSellerTradeState   solana.PublicKey
	ProgramAsSigner        solana.PublicKey
	// AuthoritySigns помечает authority подписантом (co-signer).
	AuthoritySigns bool
}

func NewSellInstruction(accounts SellAccounts, args SellArgs) (*solana.GenericInstruction, error) {
	metas := solana.AccountMetaSlice{
		solana.Meta(accounts.Wallet).SIGNER(),
		solana.Meta(accounts.TokenAccount).WRITE(),
		solana.Meta(accounts.Metadata),
		authorityMeta(accounts.Authority, accounts.AuthoritySigns),
		solana.Meta(accounts.AuctionHouse),
		solana.Meta(accounts.AuctionHouseFeeAccount).WRITE(),
		solana.Meta(accounts.SellerTradeState).WRITE(),
		solana.Meta(accounts.FreeSellerTradeState).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(accounts.ProgramAsSigner),
		solana.Meta(solana.SysVarRentPubkey),
	}
	return newInstruction(sellDiscriminator, metas, args)
}

// BuyArgs – аргументы buy в порядке borsh.
type BuyArgs struct {
	TradeStateBump    uint8
	EscrowPaymentBump uint8
	BuyerPrice        uint64
	TokenSize         uint64
}

type BuyAccounts struct {
	Wallet                 solana.PublicKey
	PaymentAccount         solana.PublicKey
	TransferAuthority      solana.PublicKey
	TreasuryMint           solana.PublicKey
	TokenAccount           solana.PublicKey
	Metadata               solana.PublicKey
	EscrowPaymentAccount   solana.PublicKey
	Authority              solana.PublicKey
	AuctionHouse           solana.PublicKey
	AuctionHouseFeeAccount solana.PublicKey
	BuyerTradeState        solana.PublicKey
	// TransferAuthoritySigns нужен для делегированной оплаты в SPL-валюте.
	TransferAuthoritySigns bool
	AuthoritySigns         bool
}

func NewBuyInstruction(accounts BuyAccounts, args BuyArgs) (*solana.GenericInstruction, error) {
	transferAuthority := solana.Meta(accounts.TransferAuthority)
	if accounts.TransferAuthoritySigns {
		transferAuthority = transferAuthority.SIGNER()
	}
	metas := solana.AccountMetaSlice{
		solana.Meta(accounts.Wallet).SIGNER(),
		solana.Meta(accounts.PaymentAccount).WRITE(),
		transferAuthority,
		solana.Meta(accounts.TreasuryMint),
		solana.Meta(accounts.TokenAccount),
		solana.Meta(accounts.Metadata),
		solana.Meta(accounts.EscrowPaymentAccount).WRITE(),
		authorityMeta(accounts.Authority, accounts.AuthoritySigns),
		solana.Meta(accounts.AuctionHouse),
		solana.Meta(accounts.AuctionHouseFeeAccount).WRITE(),
		solana.Meta(accounts.BuyerTradeState).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SysVarRentPubkey),
	}
	return newInstruction(buyDiscriminator, metas, args)
}

// ExecuteSaleArgs – аргументы execute_sale в порядке borsh.
type ExecuteSaleArgs struct {
	EscrowPaymentBump   uint8
	FreeTradeStateBump  uint8
	ProgramAsSignerBump uint8
	BuyerPrice          uint64
	TokenSize           uint64
}

type ExecuteSaleAccounts struct {
	Buyer                       solana.PublicKey
	Seller                      solana.PublicKey
	TokenAccount                solana.PublicKey
	TokenMint                   solana.PublicKey
	Metadata                    solana.PublicKey
	TreasuryMint                solana.PublicKey
	EscrowPaymentAccount        solana.PublicKey
	SellerPaymentReceiptAccount solana.PublicKey
	BuyerReceiptTokenAccount    solana.PublicKey
	Authority                   solana.PublicKey
	AuctionHouse                solana.PublicKey
	AuctionHouseFeeAccount      solana.PublicKey
	AuctionHouseTreasury        solana.PublicKey
	BuyerTradeState             solana.PublicKey
	SellerTradeState            solana.PublicKey
	FreeTradeState              solana.PublicKey
	ProgramAsSigner             solana.PublicKey
	// Creators дописываются в конец списка: получатели роялти.
	Creators       []solana.PublicKey
	AuthoritySigns bool
}

func NewExecuteSaleInstruction(accounts ExecuteSaleAccounts, args ExecuteSaleArgs) (*solana.GenericInstruction, error) {
	metas := solana.AccountMetaSlice{
		solana.Meta(accounts.Buyer).WRITE(),
		solana.Meta(accounts.Seller).WRITE(),
		solana.Meta(accounts.TokenAccount).WRITE(),
		solana.Meta(accounts.TokenMint),
		solana.Meta(accounts.Metadata),
		solana.Meta(accounts.TreasuryMint),
		solana.Meta(accounts.EscrowPaymentAccount).WRITE(),
		solana.Meta(accounts.SellerPaymentReceiptAccount).WRITE(),
		solana.Meta(accounts.BuyerReceiptTokenAccount).WRITE(),
		authorityMeta(accounts.Authority, accounts.AuthoritySigns),
		solana.Meta(accounts.AuctionHouse),
		solana.Meta(accounts.AuctionHouseFeeAccount).WRITE(),
		solana.Meta(accounts.AuctionHouseTreasury).WRITE(),
		solana.Meta(accounts.BuyerTradeState).WRITE(),
		solana.Meta(accounts.SellerTradeState).WRITE(),
		solana.Meta(accounts.FreeTradeState).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SPLAssociatedTokenAccountProgramID),
		solana.Meta(accounts.ProgramAsSigner),
		solana.Meta(solana.SysVarRentPubkey),
	}
	metas = appendCreators(metas, accounts.Creators)
	return newInstruction(executeSaleDiscriminator, metas, args)
}

// CancelArgs – аргументы cancel в порядке borsh.
type CancelArgs struct {
	BuyerPrice uint64
	TokenSize  uint64
}

type CancelAccounts struct {
	Wallet                 solana.PublicKey
	TokenAccount           solana.PublicKey
	TokenMint              solana.PublicKey
	Authority              solana.PublicKey
	AuctionHouse           solana.PublicKey
	AuctionHouseFeeAccount solana.PublicKey
	TradeState             solana.PublicKey
	AuthoritySigns         bool
}

func NewCancelInstruction(accounts CancelAccounts, args CancelArgs) (*solana.GenericInstruction, error) {
	metas := solana.AccountMetaSlice{
		solana.Meta(accounts.Wallet).WRITE().SIGNER(),
		solana.Meta(accounts.TokenAccount).WRITE(),
		solana.Meta(accounts.TokenMint),
		authorityMeta(accounts.Authority, accounts.AuthoritySigns),
		solana.Meta(accounts.AuctionHouse),
		solana.Meta(accounts.AuctionHouseFeeAccount).WRITE(),
		solana.Meta(accounts.TradeState).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}
	return newInstruction(cancelDiscriminator, metas, args)
}

// appendCreators добавляет создателей как writable, не подписывающие аккаунты.
func appendCreators(metas solana.AccountMetaSlice, creators []solana.PublicKey) solana.AccountMetaSlice {
	for _, creator := range creators {
		metas = append(metas, solana.NewAccountMeta(creator, true, false))
	}
	return metas
}

func authorityMeta(authority solana.PublicKey, signs bool) *solana.AccountMeta {
	meta := solana.Meta(authority)
	if signs {
		meta = meta.SIGNER()
	}
	return meta
}

func newInstruction(discriminator [8]byte, metas solana.AccountMetaSlice, args interface{}) (*solana.GenericInstruction, error) {
	buf := new(bytes.Buffer)
	buf.Write(discriminator[:])
	if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
		return nil, fmt.Errorf("failed to encode instruction args: %w", err)
	}
	return solana.NewInstruction(ProgramID, metas, buf.Bytes()), nil
}
