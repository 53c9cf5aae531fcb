package auctionhouse

import (
	"bytes"
	"context"
	"testing"

	bin "github.com/gagliardetto/binary"
	token_metadata "github.com/gagliardetto/metaplex-go/clients/token-metadata"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockReader реализует blockchain.AccountReader
type MockReader struct {
	mock.Mock
}

func (m *MockReader) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	args := m.Called(ctx, pubkey)
	res, _ := args.Get(0).(*rpc.GetAccountInfoResult)
	return res, args.Error(1)
}

func (m *MockReader) GetTokenLargestAccounts(ctx context.Context, mint solana.PublicKey) ([]*rpc.TokenLargestAccountsResult, error) {
	args := m.Called(ctx, mint)
	res, _ := args.Get(0).([]*rpc.TokenLargestAccountsResult)
	return res, args.Error(1)
}

// MockSubmitter реализует Submitter и запоминает последнюю отправку.
type MockSubmitter struct {
	mock.Mock

	FeePayer     solana.PublicKey
	Instructions []solana.Instruction
	Signers      []solana.PrivateKey
}

func (m *MockSubmitter) SendAndConfirm(ctx context.Context, feePayer solana.PublicKey, instructions []solana.Instruction, signers []solana.PrivateKey) (solana.Signature, error) {
	m.FeePayer = feePayer
	m.Instructions = instructions
	m.Signers = signers
	args := m.Called(ctx, feePayer, instructions, signers)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *MockSubmitter) signerKeys() []solana.PublicKey {
	keys := make([]solana.PublicKey, 0, len(m.Signers))
	for _, s := range m.Signers {
		keys = append(keys, s.PublicKey())
	}
	return keys
}

// market – аукционный дом, токен и участники для тестов сервиса.
type market struct {
	authority   solana.PrivateKey
	seller      solana.PrivateKey
	buyer       solana.PrivateKey
	payer       solana.PrivateKey
	mint        solana.PublicKey
	creators    []solana.PublicKey
	houseAddr   solana.PublicKey
	house       *AuctionHouse
	sellerToken solana.PublicKey

	reader    *MockReader
	submitter *MockSubmitter
	service   *Service
}

func newMarket(t *testing.T, treasuryMint solana.PublicKey) *market {
	t.Helper()

	m := &market{
		authority: solana.NewWallet().PrivateKey,
		seller:    solana.NewWallet().PrivateKey,
		buyer:     solana.NewWallet().PrivateKey,
		payer:     solana.NewWallet().PrivateKey,
		mint:      solana.NewWallet().PublicKey(),
		creators: []solana.PublicKey{
			solana.NewWallet().PublicKey(),
			solana.NewWallet().PublicKey(),
		},
	}

	var err error
	m.houseAddr, _, err = FindAuctionHouseAddress(m.authority.PublicKey(), treasuryMint)
	require.NoError(t, err)
	fee, feeBump, err := FindAuctionHouseFeeAddress(m.houseAddr)
	require.NoError(t, err)
	treasury, treasuryBump, err := FindAuctionHouseTreasuryAddress(m.houseAddr)
	require.NoError(t, err)

	m.house = &AuctionHouse{
		AuctionHouseFeeAccount: fee,
		AuctionHouseTreasury:   treasury,
		TreasuryMint:           treasuryMint,
		Authority:              m.authority.PublicKey(),
		Creator:                m.authority.PublicKey(),
		FeePayerBump:           feeBump,
		TreasuryBump:           treasuryBump,
		SellerFeeBasisPoints:   5000,
	}
	m.sellerToken, err = FindAssociatedTokenAddress(m.mint, m.seller.PublicKey())
	require.NoError(t, err)

	houseData, err := m.house.Encode()
	require.NoError(t, err)
	metadataAddr, err := FindMetadataAddress(m.mint)
	require.NoError(t, err)

	m.reader = new(MockReader)
	m.reader.On("GetAccountInfo", mock.Anything, m.houseAddr).
		Return(accountInfo(ProgramID, houseData), nil)
	m.reader.On("GetAccountInfo", mock.Anything, metadataAddr).
		Return(accountInfo(token_metadata.ProgramID, metadataBytes(t, m.mint, m.creators)), nil)
	m.reader.On("GetTokenLargestAccounts", mock.Anything, m.mint).
		Return([]*rpc.TokenLargestAccountsResult{largest(m.sellerToken, "1")}, nil)

	m.submitter = new(MockSubmitter)
	m.service = NewService(m.reader, m.submitter, nil)
	return m
}

func (m *market) order(price uint64) OrderParams {
	return OrderParams{
		AuctionHouse: m.houseAddr,
		TokenMint:    m.mint,
		Price:        price,
	}
}

func accountInfo(owner solana.PublicKey, data []byte) *rpc.GetAccountInfoResult {
	return &rpc.GetAccountInfoResult{
		Value: &rpc.Account{
			Owner: owner,
			Data:  rpc.DataBytesOrJSONFromBytes(data),
		},
	}
}

func largest(address solana.PublicKey, amount string) *rpc.TokenLargestAccountsResult {
	return &rpc.TokenLargestAccountsResult{
		Address:       address,
		UiTokenAmount: rpc.UiTokenAmount{Amount: amount},
	}
}

func metadataBytes(t *testing.T, mint solana.PublicKey, creators []solana.PublicKey) []byte {
	t.Helper()

	list := make([]token_metadata.Creator, 0, len(creators))
	for _, c := range creators {
		list = append(list, token_metadata.Creator{Address: c, Verified: true, Share: uint8(100 / len(creators))})
	}
	header := metadataHeader{
		UpdateAuthority: solana.NewWallet().PublicKey(),
		Mint:            mint,
		Data: token_metadata.Data{
			Name:                 "Test NFT",
			Symbol:               "TST",
			Uri:                  "https://example.org/nft.json",
			SellerFeeBasisPoints: 500,
			Creators:             &list,
		},
	}
	buf := new(bytes.Buffer)
	require.NoError(t, bin.NewBorshEncoder(buf).Encode(&header))
	// аккаунт метаданных дополнен нулями до фиксированного размера
	buf.Write(make([]byte, 64))
	return buf.Bytes()
}
