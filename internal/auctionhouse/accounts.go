// internal/auctionhouse/accounts.go
package auctionhouse

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	token_metadata "github.com/gagliardetto/metaplex-go/clients/token-metadata"
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/auction-house/internal/blockchain"
)

var (
	ErrInvalidAccountData = errors.New("invalid account data")
	ErrNoTokenAccount     = errors.New("no token account holds the mint")

	auctionHouseAccountDiscriminator = accountDiscriminator("AuctionHouse")
)

// AuctionHouse – конфигурация аукционного дома в порядке полей borsh.
// Поля, добавленные в поздних версиях программы, не читаются.
type AuctionHouse struct {
	AuctionHouseFeeAccount        solana.PublicKey
	AuctionHouseTreasury          solana.PublicKey
	TreasuryWithdrawalDestination solana.PublicKey
	FeeWithdrawalDestination      solana.PublicKey
	TreasuryMint                  solana.PublicKey
	Authority                     solana.PublicKey
	Creator                       solana.PublicKey
	Bump                          uint8
	TreasuryBump                  uint8
	FeePayerBump                  uint8
	SellerFeeBasisPoints          uint16
	RequiresSignOff               bool
	CanChangeSalePrice            bool
}

// IsNative сообщает, номинирован ли дом в нативной валюте.
func (ah *AuctionHouse) IsNative() bool {
	return ah.TreasuryMint.Equals(NativeMint)
}

// Encode сериализует конфигурацию вместе с дискриминатором аккаунта.
func (ah *AuctionHouse) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(auctionHouseAccountDiscriminator[:])
	if err := bin.NewBorshEncoder(buf).Encode(ah); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeAuctionHouse разбирает данные аккаунта AuctionHouse.
func DecodeAuctionHouse(data []byte) (*AuctionHouse, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: auction house account is %d bytes", ErrInvalidAccountData, len(data))
	}
	if !bytes.Equal(data[:8], auctionHouseAccountDiscriminator[:]) {
		return nil, fmt.Errorf("%w: not an auction house account", ErrInvalidAccountData)
	}
	var ah AuctionHouse
	if err := bin.NewBorshDecoder(data[8:]).Decode(&ah); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	return &ah, nil
}

// FetchAuctionHouse читает текущую конфигурацию аукционного дома.
func FetchAuctionHouse(ctx context.Context, reader blockchain.AccountReader, address solana.PublicKey) (*AuctionHouse, error) {
	info, err := reader.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get auction house %s: %w", address, err)
	}
	if info == nil || info.Value == nil {
		return nil, fmt.Errorf("failed to get auction house %s: empty response", address)
	}
	if !info.Value.Owner.Equals(ProgramID) {
		return nil, fmt.Errorf("%w: %s is owned by %s", ErrInvalidAccountData, address, info.Value.Owner)
	}
	ah, err := DecodeAuctionHouse(info.Value.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("auction house %s: %w", address, err)
	}
	return ah, nil
}

// metadataHeader – начало аккаунта Metadata до поля Data включительно.
type metadataHeader struct {
	Key             token_metadata.Key
	UpdateAuthority solana.PublicKey
	Mint            solana.PublicKey
	Data            token_metadata.Data
}

// FetchCreators возвращает адреса создателей из метаданных токена mint.
// Метаданные без списка создателей дают пустой срез.
func FetchCreators(ctx context.Context, reader blockchain.AccountReader, mint solana.PublicKey) ([]solana.PublicKey, error) {
	address, err := FindMetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	info, err := reader.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata for mint %s: %w", mint, err)
	}
	if info == nil || info.Value == nil {
		return nil, fmt.Errorf("failed to get metadata for mint %s: empty response", mint)
	}

	var meta metadataHeader
	if err := bin.NewBorshDecoder(info.Value.Data.GetBinary()).Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: metadata for mint %s: %v", ErrInvalidAccountData, mint, err)
	}
	if meta.Data.Creators == nil {
		return nil, nil
	}
	creators := make([]solana.PublicKey, 0, len(*meta.Data.Creators))
	for _, c := range *meta.Data.Creators {
		creators = append(creators, c.Address)
	}
	return creators, nil
}

// FindLargestTokenAccount возвращает токен-аккаунт с наибольшим балансом минта.
// Предполагается, что NFT лежит на одном аккаунте.
func FindLargestTokenAccount(ctx context.Context, reader blockchain.AccountReader, mint solana.PublicKey) (solana.PublicKey, error) {
	accounts, err := reader.GetTokenLargestAccounts(ctx, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to get largest accounts for mint %s: %w", mint, err)
	}
	for _, acc := range accounts {
		if acc == nil || acc.Amount == "0" {
			continue
		}
		return acc.Address, nil
	}
	return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrNoTokenAccount, mint)
}

func accountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}
