// internal/auctionhouse/service.go
package auctionhouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/auction-house/internal/blockchain"
	"github.com/rovshanmuradov/auction-house/internal/utils/logger"
)

var (
	ErrInvalidFeeBasisPoints = errors.New("seller fee basis points must be within 0..10000")
	ErrCoSignerMismatch      = errors.New("co-signer is not the auction house authority")
	ErrMissingKeypair        = errors.New("keypair is required")
)

// Submitter отправляет инструкции одной транзакцией и ждёт подтверждения.
type Submitter interface {
	SendAndConfirm(ctx context.Context, feePayer solana.PublicKey, instructions []solana.Instruction, signers []solana.PrivateKey) (solana.Signature, error)
}

// Service выполняет операции аукционного дома: чтение состояния, вывод адресов,
// сборка инструкций и отправка. Между вызовами ничего не кешируется.
type Service struct {
	reader    blockchain.AccountReader
	submitter Submitter
	logger    *logger.Logger
}

func NewService(reader blockchain.AccountReader, submitter Submitter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		reader:    reader,
		submitter: submitter,
		logger:    logger.Wrap(log.Named("auction-house")),
	}
}

// FetchAuctionHouse читает конфигурацию аукционного дома.
func (s *Service) FetchAuctionHouse(ctx context.Context, address solana.PublicKey) (*AuctionHouse, error) {
	return FetchAuctionHouse(ctx, s.reader, address)
}

// CreateAuctionHouseParams. Нулевые ключи заменяются значениями по умолчанию.
type CreateAuctionHouseParams struct {
	// Owner становится authority и creator аукционного дома.
	Owner solana.PublicKey
	// Payer оплачивает создание и единственный подписывает транзакцию.
	Payer solana.PrivateKey
	// TreasuryMint по умолчанию NativeMint.
	TreasuryMint         solana.PublicKey
	SellerFeeBasisPoints uint16
	RequiresSignOff      bool
	CanChangeSalePrice   bool
	// TreasuryWithdrawalDestinationOwner по умолчанию Owner. Для SPL-валюты
	// средства выводятся на его ATA.
	TreasuryWithdrawalDestinationOwner solana.PublicKey
	// FeeWithdrawalDestination по умолчанию Owner.
	FeeWithdrawalDestination solana.PublicKey
}

type CreateAuctionHouseResult struct {
	AuctionHouse solana.PublicKey
	FeeAccount   solana.PublicKey
	Treasury     solana.PublicKey
	Signature    solana.Signature
}

// CreateAuctionHouse создаёт аукционный дом для пары (owner, treasury mint).
func (s *Service) CreateAuctionHouse(ctx context.Context, p CreateAuctionHouseParams) (*CreateAuctionHouseResult, error) {
	if p.Payer == nil {
		return nil, fmt.Errorf("payer: %w", ErrMissingKeypair)
	}
	if p.Owner.IsZero() {
		return nil, errors.New("owner is required")
	}
	if p.SellerFeeBasisPoints > MaxSellerFeeBasisPoints {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFeeBasisPoints, p.SellerFeeBasisPoints)
	}
	if p.TreasuryMint.IsZero() {
		p.TreasuryMint = NativeMint
	}
	if p.TreasuryWithdrawalDestinationOwner.IsZero() {
		p.TreasuryWithdrawalDestinationOwner = p.Owner
	}
	if p.FeeWithdrawalDestination.IsZero() {
		p.FeeWithdrawalDestination = p.Owner
	}

	// Шаг 1: куда выводится казна
	treasuryWithdrawalDestination := p.TreasuryWithdrawalDestinationOwner
	if !p.TreasuryMint.Equals(NativeMint) {
		ata, err := FindAssociatedTokenAddress(p.TreasuryMint, p.TreasuryWithdrawalDestinationOwner)
		if err != nil {
			return nil, err
		}
		treasuryWithdrawalDestination = ata
	}

	// Шаг 2: адреса дома, fee-аккаунта и казны
	auctionHouse, bump, err := FindAuctionHouseAddress(p.Owner, p.TreasuryMint)
	if err != nil {
		return nil, err
	}
	feeAccount, feePayerBump, err := FindAuctionHouseFeeAddress(auctionHouse)
	if err != nil {
		return nil, err
	}
	treasury, treasuryBump, err := FindAuctionHouseTreasuryAddress(auctionHouse)
	if err != nil {
		return nil, err
	}

	// Шаг 3: инструкция
	ix, err := NewCreateAuctionHouseInstruction(
		CreateAuctionHouseAccounts{
			TreasuryMint:                       p.TreasuryMint,
			Payer:                              p.Payer.PublicKey(),
			Authority:                          p.Owner,
			FeeWithdrawalDestination:           p.FeeWithdrawalDestination,
			TreasuryWithdrawalDestination:      treasuryWithdrawalDestination,
			TreasuryWithdrawalDestinationOwner: p.TreasuryWithdrawalDestinationOwner,
			AuctionHouse:                       auctionHouse,
			AuctionHouseFeeAccount:             feeAccount,
			AuctionHouseTreasury:               treasury,
		},
		CreateAuctionHouseArgs{
			Bump:                 bump,
			FeePayerBump:         feePayerBump,
			TreasuryBump:         treasuryBump,
			SellerFeeBasisPoints: p.SellerFeeBasisPoints,
			RequiresSignOff:      p.RequiresSignOff,
			CanChangeSalePrice:   p.CanChangeSalePrice,
		},
	)
	if err != nil {
		return nil, err
	}

	// Шаг 4: отправка
	log := s.logger.WithAuctionHouse(auctionHouse).WithWallet(p.Payer.PublicKey())
	sig, err := s.submitter.SendAndConfirm(ctx, p.Payer.PublicKey(),
		[]solana.Instruction{ix}, []solana.PrivateKey{p.Payer})
	if err != nil {
		log.Error("Create auction house failed", zap.Error(err))
		return nil, err
	}

	log.Info("Auction house created",
		zap.String("treasury_mint", p.TreasuryMint.String()),
		zap.Uint16("seller_fee_basis_points", p.SellerFeeBasisPoints),
		zap.String("signature", sig.String()))

	return &CreateAuctionHouseResult{
		AuctionHouse: auctionHouse,
		FeeAccount:   feeAccount,
		Treasury:     treasury,
		Signature:    sig,
	}, nil
}

// OrderParams общие для sell, buy и cancel.
type OrderParams struct {
	AuctionHouse solana.PublicKey
	TokenMint    solana.PublicKey
	// Price в минимальных единицах treasury mint.
	Price uint64
	// TokenSize по умолчанию DefaultTokenSize.
	TokenSize uint64
	// TokenAccount по умолчанию аккаунт с наибольшим балансом TokenMint.
	TokenAccount solana.PublicKey
	// CoSigner – keypair authority дома, если дом требует его подписи.
	CoSigner solana.PrivateKey
}

type SellParams struct {
	OrderParams
	Seller solana.PrivateKey
}

type BuyParams struct {
	OrderParams
	Buyer solana.PrivateKey
}

type CancelParams struct {
	OrderParams
	Wallet solana.PrivateKey
}

// OrderResult описывает выставленный лот или ставку.
type OrderResult struct {
	TradeState   solana.PublicKey
	TokenAccount solana.PublicKey
	Signature    solana.Signature
}

// orderContext – состояние, прочитанное и вычисленное в начале операции.
type orderContext struct {
	house        *AuctionHouse
	tokenAccount solana.PublicKey
	metadata     solana.PublicKey
	seeds        TradeStateSeeds
	coSigns      bool
}

func (s *Service) resolveOrder(ctx context.Context, wallet solana.PublicKey, p *OrderParams) (*orderContext, error) {
	if p.TokenSize == 0 {
		p.TokenSize = DefaultTokenSize
	}

	house, err := FetchAuctionHouse(ctx, s.reader, p.AuctionHouse)
	if err != nil {
		return nil, err
	}

	coSigns := false
	if p.CoSigner != nil {
		if !p.CoSigner.PublicKey().Equals(house.Authority) {
			return nil, fmt.Errorf("%w: got %s, authority is %s", ErrCoSignerMismatch, p.CoSigner.PublicKey(), house.Authority)
		}
		coSigns = true
	}

	tokenAccount := p.TokenAccount
	if tokenAccount.IsZero() {
		tokenAccount, err = FindLargestTokenAccount(ctx, s.reader, p.TokenMint)
		if err != nil {
			return nil, err
		}
	}

	metadata, err := FindMetadataAddress(p.TokenMint)
	if err != nil {
		return nil, err
	}

	return &orderContext{
		house:        house,
		tokenAccount: tokenAccount,
		metadata:     metadata,
		coSigns:      coSigns,
		seeds: TradeStateSeeds{
			Wallet:       wallet,
			AuctionHouse: p.AuctionHouse,
			TokenAccount: tokenAccount,
			TreasuryMint: house.TreasuryMint,
			TokenMint:    p.TokenMint,
			Price:        p.Price,
			TokenSize:    p.TokenSize,
		},
	}, nil
}

func withCoSigner(signers []solana.PrivateKey, coSigner solana.PrivateKey) []solana.PrivateKey {
	if coSigner == nil {
		return signers
	}
	for _, s := range signers {
		if s.PublicKey().Equals(coSigner.PublicKey()) {
			return signers
		}
	}
	return append(signers, coSigner)
}

// Sell выставляет токен на продажу по цене Price.
func (s *Service) Sell(ctx context.Context, p SellParams) (*OrderResult, error) {
	if p.Seller == nil {
		return nil, fmt.Errorf("seller: %w", ErrMissingKeypair)
	}
	seller := p.Seller.PublicKey()
	log := s.logger.WithAuctionHouse(p.AuctionHouse).WithWallet(seller).
		With(zap.String("mint", p.TokenMint.String()))

	oc, err := s.resolveOrder(ctx, seller, &p.OrderParams)
	if err != nil {
		return nil, err
	}

	programAsSigner, programAsSignerBump, err := FindProgramAsSignerAddress()
	if err != nil {
		return nil, err
	}
	tradeState, tradeStateBump, err := FindTradeStateAddress(oc.seeds)
	if err != nil {
		return nil, err
	}
	freeTradeState, freeTradeStateBump, err := FindTradeStateAddress(oc.seeds.Free())
	if err != nil {
		return nil, err
	}

	ix, err := NewSellInstruction(
		SellAccounts{
			Wallet:                 seller,
			TokenAccount:           oc.tokenAccount,
			Metadata:               oc.metadata,
			Authority:              oc.house.Authority,
			AuctionHouse:           p.AuctionHouse,
			AuctionHouseFeeAccount: oc.house.AuctionHouseFeeAccount,
			SellerTradeState:       tradeState,
			FreeSellerTradeState:   freeTradeState,
			ProgramAsSigner:        programAsSigner,
			AuthoritySigns:         oc.coSigns,
		},
		SellArgs{
			TradeStateBump:      tradeStateBump,
			FreeTradeStateBump:  freeTradeStateBump,
			ProgramAsSignerBump: programAsSignerBump,
			BuyerPrice:          p.Price,
			TokenSize:           p.TokenSize,
		},
	)
	if err != nil {
		return nil, err
	}

	log.Debug("Submitting sell",
		zap.String("trade_state", tradeState.String()),
		zap.Uint64("price", p.Price),
		zap.Uint64("token_size", p.TokenSize))

	sig, err := s.submitter.SendAndConfirm(ctx, seller, []solana.Instruction{ix},
		withCoSigner([]solana.PrivateKey{p.Seller}, p.CoSigner))
	if err != nil {
		log.Error("Sell failed", zap.Error(err))
		return nil, err
	}
	log.Info("Token listed", zap.Uint64("price", p.Price), zap.String("signature", sig.String()))

	return &OrderResult{TradeState: tradeState, TokenAccount: oc.tokenAccount, Signature: sig}, nil
}

// Buy размещает ставку. Для SPL-валюты в транзакцию добавляются revoke и approve
// на одноразового делегата.
func (s *Service) Buy(ctx context.Context, p BuyParams) (*OrderResult, error) {
	if p.Buyer == nil {
		return nil, fmt.Errorf("buyer: %w", ErrMissingKeypair)
	}
	buyer := p.Buyer.PublicKey()
	log := s.logger.WithAuctionHouse(p.AuctionHouse).WithWallet(buyer).
		With(zap.String("mint", p.TokenMint.String()))

	oc, err := s.resolveOrder(ctx, buyer, &p.OrderParams)
	if err != nil {
		return nil, err
	}

	currency, err := ResolveCurrency(oc.house, buyer)
	if err != nil {
		return nil, err
	}

	escrow, escrowBump, err := FindEscrowPaymentAddress(p.AuctionHouse, buyer)
	if err != nil {
		return nil, err
	}
	tradeState, tradeStateBump, err := FindTradeStateAddress(oc.seeds)
	if err != nil {
		return nil, err
	}

	buy, err := NewBuyInstruction(
		BuyAccounts{
			Wallet:                 buyer,
			PaymentAccount:         currency.PaymentAccount(),
			TransferAuthority:      currency.TransferAuthority(),
			TreasuryMint:           oc.house.TreasuryMint,
			TokenAccount:           oc.tokenAccount,
			Metadata:               oc.metadata,
			EscrowPaymentAccount:   escrow,
			Authority:              oc.house.Authority,
			AuctionHouse:           p.AuctionHouse,
			AuctionHouseFeeAccount: oc.house.AuctionHouseFeeAccount,
			BuyerTradeState:        tradeState,
			TransferAuthoritySigns: currency.delegated(),
			AuthoritySigns:         oc.coSigns,
		},
		BuyArgs{
			TradeStateBump:    tradeStateBump,
			EscrowPaymentBump: escrowBump,
			BuyerPrice:        p.Price,
			TokenSize:         p.TokenSize,
		},
	)
	if err != nil {
		return nil, err
	}

	instructions := currency.instructions(buy, buyer, p.Price)
	signers := append([]solana.PrivateKey{p.Buyer}, currency.signers()...)
	signers = withCoSigner(signers, p.CoSigner)

	log.Debug("Submitting buy",
		zap.String("trade_state", tradeState.String()),
		zap.String("escrow", escrow.String()),
		zap.Bool("delegated", currency.delegated()),
		zap.Int("instructions", len(instructions)))

	sig, err := s.submitter.SendAndConfirm(ctx, buyer, instructions, signers)
	if err != nil {
		log.Error("Buy failed", zap.Error(err))
		return nil, err
	}
	log.Info("Bid placed", zap.Uint64("price", p.Price), zap.String("signature", sig.String()))

	return &OrderResult{TradeState: tradeState, TokenAccount: oc.tokenAccount, Signature: sig}, nil
}

// Cancel закрывает trade state лота или ставки кошелька Wallet.
func (s *Service) Cancel(ctx context.Context, p CancelParams) (solana.Signature, error) {
	if p.Wallet == nil {
		return solana.Signature{}, fmt.Errorf("wallet: %w", ErrMissingKeypair)
	}
	wallet := p.Wallet.PublicKey()
	log := s.logger.WithAuctionHouse(p.AuctionHouse).WithWallet(wallet).
		With(zap.String("mint", p.TokenMint.String()))

	oc, err := s.resolveOrder(ctx, wallet, &p.OrderParams)
	if err != nil {
		return solana.Signature{}, err
	}
	tradeState, _, err := FindTradeStateAddress(oc.seeds)
	if err != nil {
		return solana.Signature{}, err
	}

	ix, err := NewCancelInstruction(
		CancelAccounts{
			Wallet:                 wallet,
			TokenAccount:           oc.tokenAccount,
			TokenMint:              p.TokenMint,
			Authority:              oc.house.Authority,
			AuctionHouse:           p.AuctionHouse,
			AuctionHouseFeeAccount: oc.house.AuctionHouseFeeAccount,
			TradeState:             tradeState,
			AuthoritySigns:         oc.coSigns,
		},
		CancelArgs{BuyerPrice: p.Price, TokenSize: p.TokenSize},
	)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := s.submitter.SendAndConfirm(ctx, wallet, []solana.Instruction{ix},
		withCoSigner([]solana.PrivateKey{p.Wallet}, p.CoSigner))
	if err != nil {
		log.Error("Cancel failed",
			zap.String("trade_state", tradeState.String()),
			zap.Error(err))
		return solana.Signature{}, err
	}
	log.Info("Trade state cancelled",
		zap.String("trade_state", tradeState.String()),
		zap.String("signature", sig.String()))
	return sig, nil
}

type ExecuteSaleParams struct {
	// Payer оплачивает комиссию и единственный подписывает транзакцию.
	Payer        solana.PrivateKey
	AuctionHouse solana.PublicKey
	Buyer        solana.PublicKey
	Seller       solana.PublicKey
	TokenMint    solana.PublicKey
	Price        uint64
	// TokenSize по умолчанию DefaultTokenSize.
	TokenSize uint64
	// TokenAccount по умолчанию ATA продавца для TokenMint.
	TokenAccount solana.PublicKey
	// AuctionHouseSigns: Payer является authority дома и подписывает от его имени.
	AuctionHouseSigns bool
}

// ExecuteSale сводит лот продавца и ставку покупателя с одинаковыми ценой и размером.
func (s *Service) ExecuteSale(ctx context.Context, p ExecuteSaleParams) (solana.Signature, error) {
	if p.Payer == nil {
		return solana.Signature{}, fmt.Errorf("payer: %w", ErrMissingKeypair)
	}
	if p.TokenSize == 0 {
		p.TokenSize = DefaultTokenSize
	}
	log := s.logger.WithAuctionHouse(p.AuctionHouse).WithWallet(p.Payer.PublicKey()).With(
		zap.String("buyer", p.Buyer.String()),
		zap.String("seller", p.Seller.String()),
		zap.String("mint", p.TokenMint.String()))

	// Шаг 1: состояние сети
	house, err := FetchAuctionHouse(ctx, s.reader, p.AuctionHouse)
	if err != nil {
		return solana.Signature{}, err
	}
	if p.AuctionHouseSigns && !p.Payer.PublicKey().Equals(house.Authority) {
		return solana.Signature{}, fmt.Errorf("%w: payer %s, authority is %s", ErrCoSignerMismatch, p.Payer.PublicKey(), house.Authority)
	}
	creators, err := FetchCreators(ctx, s.reader, p.TokenMint)
	if err != nil {
		return solana.Signature{}, err
	}

	// Шаг 2: адреса
	tokenAccount := p.TokenAccount
	if tokenAccount.IsZero() {
		if tokenAccount, err = FindAssociatedTokenAddress(p.TokenMint, p.Seller); err != nil {
			return solana.Signature{}, err
		}
	}
	metadata, err := FindMetadataAddress(p.TokenMint)
	if err != nil {
		return solana.Signature{}, err
	}
	escrow, escrowBump, err := FindEscrowPaymentAddress(p.AuctionHouse, p.Buyer)
	if err != nil {
		return solana.Signature{}, err
	}
	programAsSigner, programAsSignerBump, err := FindProgramAsSignerAddress()
	if err != nil {
		return solana.Signature{}, err
	}

	sellerSeeds := TradeStateSeeds{
		Wallet:       p.Seller,
		AuctionHouse: p.AuctionHouse,
		TokenAccount: tokenAccount,
		TreasuryMint: house.TreasuryMint,
		TokenMint:    p.TokenMint,
		Price:        p.Price,
		TokenSize:    p.TokenSize,
	}
	sellerTradeState, _, err := FindTradeStateAddress(sellerSeeds)
	if err != nil {
		return solana.Signature{}, err
	}
	freeTradeState, freeTradeStateBump, err := FindTradeStateAddress(sellerSeeds.Free())
	if err != nil {
		return solana.Signature{}, err
	}
	buyerTradeState, _, err := FindTradeStateAddress(sellerSeeds.ForWallet(p.Buyer))
	if err != nil {
		return solana.Signature{}, err
	}

	buyerReceipt, err := FindAssociatedTokenAddress(p.TokenMint, p.Buyer)
	if err != nil {
		return solana.Signature{}, err
	}
	sellerReceipt, err := SellerPaymentReceipt(house, p.Seller)
	if err != nil {
		return solana.Signature{}, err
	}

	// Шаг 3: инструкция с создателями в конце
	ix, err := NewExecuteSaleInstruction(
		ExecuteSaleAccounts{
			Buyer:                       p.Buyer,
			Seller:                      p.Seller,
			TokenAccount:                tokenAccount,
			TokenMint:                   p.TokenMint,
			Metadata:                    metadata,
			TreasuryMint:                house.TreasuryMint,
			EscrowPaymentAccount:        escrow,
			SellerPaymentReceiptAccount: sellerReceipt,
			BuyerReceiptTokenAccount:    buyerReceipt,
			Authority:                   house.Authority,
			AuctionHouse:                p.AuctionHouse,
			AuctionHouseFeeAccount:      house.AuctionHouseFeeAccount,
			AuctionHouseTreasury:        house.AuctionHouseTreasury,
			BuyerTradeState:             buyerTradeState,
			SellerTradeState:            sellerTradeState,
			FreeTradeState:              freeTradeState,
			ProgramAsSigner:             programAsSigner,
			Creators:                    creators,
			AuthoritySigns:              p.AuctionHouseSigns,
		},
		ExecuteSaleArgs{
			EscrowPaymentBump:   escrowBump,
			FreeTradeStateBump:  freeTradeStateBump,
			ProgramAsSignerBump: programAsSignerBump,
			BuyerPrice:          p.Price,
			TokenSize:           p.TokenSize,
		},
	)
	if err != nil {
		return solana.Signature{}, err
	}

	log.Debug("Submitting execute sale",
		zap.String("seller_trade_state", sellerTradeState.String()),
		zap.String("buyer_trade_state", buyerTradeState.String()),
		zap.Int("creators", len(creators)))

	// Шаг 4: отправка
	sig, err := s.submitter.SendAndConfirm(ctx, p.Payer.PublicKey(),
		[]solana.Instruction{ix}, []solana.PrivateKey{p.Payer})
	if err != nil {
		log.Error("Execute sale failed", zap.Error(err))
		return solana.Signature{}, err
	}
	log.Info("Sale executed", zap.Uint64("price", p.Price), zap.String("signature", sig.String()))
	return sig, nil
}

// SellerPaymentReceipt – куда программа переводит выручку продавца: ATA
// treasury mint для SPL-валюты, сам кошелек для нативной.
func SellerPaymentReceipt(house *AuctionHouse, seller solana.PublicKey) (solana.PublicKey, error) {
	if house.IsNative() {
		return seller, nil
	}
	return FindAssociatedTokenAddress(house.TreasuryMint, seller)
}
