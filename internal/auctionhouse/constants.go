// internal/auctionhouse/constants.go
package auctionhouse

import (
	"github.com/gagliardetto/solana-go"
)

var (
	// ProgramID – адрес программы Auction House (mainnet и devnet).
	ProgramID = solana.MustPublicKeyFromBase58("hausS13jsjafwWwGqZTUQRmWyvyxn9EQpqMwV1PBBmk")

	// NativeMint – псевдо-минт нативной валюты (wrapped SOL).
	NativeMint = solana.WrappedSol
)

const (
	seedPrefix   = "auction_house"
	seedFeePayer = "fee_payer"
	seedTreasury = "treasury"
	seedSigner   = "signer"
	seedMetadata = "metadata"

	// MaxSellerFeeBasisPoints соответствует 100%.
	MaxSellerFeeBasisPoints = 10000

	// DefaultTokenSize используется, когда размер лота не указан.
	DefaultTokenSize uint64 = 1
)
