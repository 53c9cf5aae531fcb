// internal/auctionhouse/pda.go
package auctionhouse

import (
	"encoding/binary"
	"fmt"

	token_metadata "github.com/gagliardetto/metaplex-go/clients/token-metadata"
	"github.com/gagliardetto/solana-go"
)

// FindAuctionHouseAddress: ["auction_house", creator, treasury_mint].
func FindAuctionHouseAddress(creator, treasuryMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return findProgramAddress("auction house",
		[]byte(seedPrefix),
		creator.Bytes(),
		treasuryMint.Bytes(),
	)
}

// FindAuctionHouseFeeAddress: ["auction_house", auction_house, "fee_payer"].
func FindAuctionHouseFeeAddress(auctionHouse solana.PublicKey) (solana.PublicKey, uint8, error) {
	return findProgramAddress("fee account",
		[]byte(seedPrefix),
		auctionHouse.Bytes(),
		[]byte(seedFeePayer),
	)
}

// FindAuctionHouseTreasuryAddress: ["auction_house", auction_house, "treasury"].
func FindAuctionHouseTreasuryAddress(auctionHouse solana.PublicKey) (solana.PublicKey, uint8, error) {
	return findProgramAddress("treasury",
		[]byte(seedPrefix),
		auctionHouse.Bytes(),
		[]byte(seedTreasury),
	)
}

// FindProgramAsSignerAddress: ["auction_house", "signer"].
func FindProgramAsSignerAddress() (solana.PublicKey, uint8, error) {
	return findProgramAddress("program as signer",
		[]byte(seedPrefix),
		[]byte(seedSigner),
	)
}

// FindEscrowPaymentAddress: ["auction_house", auction_house, wallet].
func FindEscrowPaymentAddress(auctionHouse, wallet solana.PublicKey) (solana.PublicKey, uint8, error) {
	return findProgramAddress("escrow payment account",
		[]byte(seedPrefix),
		auctionHouse.Bytes(),
		wallet.Bytes(),
	)
}

// TradeStateSeeds – входные данные адреса trade state. Price == 0 даёт
// "свободный" trade state.
type TradeStateSeeds struct {
	Wallet       solana.PublicKey
	AuctionHouse solana.PublicKey
	TokenAccount solana.PublicKey
	TreasuryMint solana.PublicKey
	TokenMint    solana.PublicKey
	Price        uint64
	TokenSize    uint64
}

// Free возвращает те же seeds с нулевой ценой.
func (s TradeStateSeeds) Free() TradeStateSeeds {
	s.Price = 0
	return s
}

// ForWallet возвращает те же seeds для другого участника сделки.
func (s TradeStateSeeds) ForWallet(wallet solana.PublicKey) TradeStateSeeds {
	s.Wallet = wallet
	return s
}

// FindTradeStateAddress: ["auction_house", wallet, auction_house, token_account,
// treasury_mint, token_mint, price (u64 LE), token_size (u64 LE)].
func FindTradeStateAddress(s TradeStateSeeds) (solana.PublicKey, uint8, error) {
	price := make([]byte, 8)
	size := make([]byte, 8)
	binary.LittleEndian.PutUint64(price, s.Price)
	binary.LittleEndian.PutUint64(size, s.TokenSize)

	return findProgramAddress("trade state",
		[]byte(seedPrefix),
		s.Wallet.Bytes(),
		s.AuctionHouse.Bytes(),
		s.TokenAccount.Bytes(),
		s.TreasuryMint.Bytes(),
		s.TokenMint.Bytes(),
		price,
		size,
	)
}

// FindAssociatedTokenAddress возвращает ATA владельца owner для минта mint.
func FindAssociatedTokenAddress(mint, owner solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive associated token account: %w", err)
	}
	return ata, nil
}

// FindMetadataAddress: ["metadata", token_metadata_program, mint].
func FindMetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte(seedMetadata),
			token_metadata.ProgramID.Bytes(),
			mint.Bytes(),
		},
		token_metadata.ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive metadata address: %w", err)
	}
	return addr, nil
}

func findProgramAddress(name string, seeds ...[]byte) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive %s address: %w", name, err)
	}
	return addr, bump, nil
}
