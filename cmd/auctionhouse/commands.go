// cmd/auctionhouse/commands.go
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/pflag"

	"github.com/rovshanmuradov/auction-house/internal/app"
	"github.com/rovshanmuradov/auction-house/internal/auctionhouse"
	"github.com/rovshanmuradov/auction-house/internal/auctionhouse/fixtures"
	"github.com/rovshanmuradov/auction-house/internal/types"
	"github.com/rovshanmuradov/auction-house/internal/wallet"
)

const solDecimals = 9

var createCommand = command{
	summary: "create an auction house owned by the signing wallet",
	flags: func(fs *pflag.FlagSet) {
		fs.String("treasury-mint", "", "treasury mint, native SOL when empty")
		fs.Uint16("fee-bps", 0, "seller fee basis points (10000 = 100%)")
		fs.Bool("requires-sign-off", false, "every trade must be signed by the authority")
		fs.Bool("can-change-sale-price", false, "authority may change prices of zero-priced listings")
		fs.String("owner", "", "authority of the new house, signing wallet when empty")
		fs.String("treasury-withdrawal-owner", "", "treasury withdrawal destination owner, owner when empty")
		fs.String("fee-withdrawal-destination", "", "fee withdrawal destination, owner when empty")
	},
	run: func(ctx context.Context, r *app.Runner, fs *pflag.FlagSet) error {
		payer, err := r.RequireWallet()
		if err != nil {
			return err
		}
		treasuryMint, err := optionalPubkey(fs, "treasury-mint")
		if err != nil {
			return err
		}
		owner, err := optionalPubkey(fs, "owner")
		if err != nil {
			return err
		}
		if owner.IsZero() {
			owner = payer.PublicKey
		}
		treasuryOwner, err := optionalPubkey(fs, "treasury-withdrawal-owner")
		if err != nil {
			return err
		}
		feeDestination, err := optionalPubkey(fs, "fee-withdrawal-destination")
		if err != nil {
			return err
		}
		feeBps, _ := fs.GetUint16("fee-bps")
		requiresSignOff, _ := fs.GetBool("requires-sign-off")
		canChangeSalePrice, _ := fs.GetBool("can-change-sale-price")

		res, err := r.Service.CreateAuctionHouse(ctx, auctionhouse.CreateAuctionHouseParams{
			Owner:                              owner,
			Payer:                              payer.PrivateKey,
			TreasuryMint:                       treasuryMint,
			SellerFeeBasisPoints:               feeBps,
			RequiresSignOff:                    requiresSignOff,
			CanChangeSalePrice:                 canChangeSalePrice,
			TreasuryWithdrawalDestinationOwner: treasuryOwner,
			FeeWithdrawalDestination:           feeDestination,
		})
		if err != nil {
			return err
		}
		fmt.Printf("auction house: %s\nfee account:   %s\ntreasury:      %s\nsignature:     %s\n",
			res.AuctionHouse, res.FeeAccount, res.Treasury, res.Signature)
		return nil
	},
}

func orderFlags(fs *pflag.FlagSet) {
	fs.String("auction-house", "", "auction house address")
	fs.String("mint", "", "token mint")
	fs.String("price", "", "price in treasury mint units, e.g. 1.5")
	fs.Uint64("size", auctionhouse.DefaultTokenSize, "token size")
	fs.String("token-account", "", "token account, largest holder of the mint when empty")
	fs.String("co-signer", "", "authority keypair file or base58 key when the house requires sign-off")
}

// orderParams читает общие флаги и переводит цену в минимальные единицы.
func orderParams(ctx context.Context, r *app.Runner, fs *pflag.FlagSet) (auctionhouse.OrderParams, error) {
	var p auctionhouse.OrderParams
	var err error
	if p.AuctionHouse, err = requiredPubkey(fs, "auction-house"); err != nil {
		return p, err
	}
	if p.TokenMint, err = requiredPubkey(fs, "mint"); err != nil {
		return p, err
	}
	if p.TokenAccount, err = optionalPubkey(fs, "token-account"); err != nil {
		return p, err
	}
	p.TokenSize, _ = fs.GetUint64("size")

	if p.Price, err = housePrice(ctx, r, p.AuctionHouse, fs); err != nil {
		return p, err
	}

	coSigner, _ := fs.GetString("co-signer")
	if coSigner != "" {
		w, err := wallet.LoadWallet(coSigner)
		if err != nil {
			return p, fmt.Errorf("co-signer: %w", err)
		}
		p.CoSigner = w.PrivateKey
	}
	return p, nil
}

// housePrice переводит --price в минимальные единицы treasury mint дома.
func housePrice(ctx context.Context, r *app.Runner, address solana.PublicKey, fs *pflag.FlagSet) (uint64, error) {
	raw, _ := fs.GetString("price")
	if raw == "" {
		return 0, fmt.Errorf("--price is required")
	}
	house, err := r.Service.FetchAuctionHouse(ctx, address)
	if err != nil {
		return 0, err
	}
	decimals, err := r.Client.GetMintDecimals(ctx, house.TreasuryMint)
	if err != nil {
		return 0, err
	}
	return types.ParseAmount(raw, decimals)
}

var sellCommand = command{
	summary: "list a token for sale",
	flags:   orderFlags,
	run: func(ctx context.Context, r *app.Runner, fs *pflag.FlagSet) error {
		seller, err := r.RequireWallet()
		if err != nil {
			return err
		}
		order, err := orderParams(ctx, r, fs)
		if err != nil {
			return err
		}
		res, err := r.Service.Sell(ctx, auctionhouse.SellParams{OrderParams: order, Seller: seller.PrivateKey})
		if err != nil {
			return err
		}
		fmt.Printf("trade state: %s\nsignature:   %s\n", res.TradeState, res.Signature)
		return nil
	},
}

var buyCommand = command{
	summary: "place a bid on a token",
	flags:   orderFlags,
	run: func(ctx context.Context, r *app.Runner, fs *pflag.FlagSet) error {
		buyer, err := r.RequireWallet()
		if err != nil {
			return err
		}
		order, err := orderParams(ctx, r, fs)
		if err != nil {
			return err
		}
		res, err := r.Service.Buy(ctx, auctionhouse.BuyParams{OrderParams: order, Buyer: buyer.PrivateKey})
		if err != nil {
			return err
		}
		fmt.Printf("trade state: %s\nsignature:   %s\n", res.TradeState, res.Signature)
		return nil
	},
}

var cancelCommand = command{
	summary: "cancel a listing or a bid of the signing wallet",
	flags:   orderFlags,
	run: func(ctx context.Context, r *app.Runner, fs *pflag.FlagSet) error {
		w, err := r.RequireWallet()
		if err != nil {
			return err
		}
		order, err := orderParams(ctx, r, fs)
		if err != nil {
			return err
		}
		sig, err := r.Service.Cancel(ctx, auctionhouse.CancelParams{OrderParams: order, Wallet: w.PrivateKey})
		if err != nil {
			return err
		}
		fmt.Printf("signature: %s\n", sig)
		return nil
	},
}

var executeSaleCommand = command{
	summary: "settle a matching listing and bid",
	flags: func(fs *pflag.FlagSet) {
		fs.String("auction-house", "", "auction house address")
		fs.String("mint", "", "token mint")
		fs.String("buyer", "", "buyer wallet")
		fs.String("seller", "", "seller wallet")
		fs.String("price", "", "agreed price in treasury mint units")
		fs.Uint64("size", auctionhouse.DefaultTokenSize, "token size")
		fs.String("token-account", "", "seller token account, seller ATA when empty")
		fs.Bool("auction-house-signs", false, "signing wallet is the house authority and signs the sale")
	},
	run: func(ctx context.Context, r *app.Runner, fs *pflag.FlagSet) error {
		payer, err := r.RequireWallet()
		if err != nil {
			return err
		}
		p := auctionhouse.ExecuteSaleParams{Payer: payer.PrivateKey}
		if p.AuctionHouse, err = requiredPubkey(fs, "auction-house"); err != nil {
			return err
		}
		if p.TokenMint, err = requiredPubkey(fs, "mint"); err != nil {
			return err
		}
		if p.Buyer, err = requiredPubkey(fs, "buyer"); err != nil {
			return err
		}
		if p.Seller, err = requiredPubkey(fs, "seller"); err != nil {
			return err
		}
		if p.TokenAccount, err = optionalPubkey(fs, "token-account"); err != nil {
			return err
		}
		if p.Price, err = housePrice(ctx, r, p.AuctionHouse, fs); err != nil {
			return err
		}
		p.TokenSize, _ = fs.GetUint64("size")
		p.AuctionHouseSigns, _ = fs.GetBool("auction-house-signs")

		sig, err := r.Service.ExecuteSale(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("signature: %s\n", sig)
		return nil
	},
}

var showCommand = command{
	summary: "print auction house configuration",
	flags: func(fs *pflag.FlagSet) {
		fs.String("auction-house", "", "auction house address")
	},
	run: func(ctx context.Context, r *app.Runner, fs *pflag.FlagSet) error {
		address, err := requiredPubkey(fs, "auction-house")
		if err != nil {
			return err
		}
		h, err := r.Service.FetchAuctionHouse(ctx, address)
		if err != nil {
			return err
		}
		fmt.Printf("auction house:            %s\n", address)
		fmt.Printf("authority:                %s\n", h.Authority)
		fmt.Printf("creator:                  %s\n", h.Creator)
		fmt.Printf("treasury mint:            %s (native: %t)\n", h.TreasuryMint, h.IsNative())
		fmt.Printf("fee account:              %s\n", h.AuctionHouseFeeAccount)
		fmt.Printf("treasury:                 %s\n", h.AuctionHouseTreasury)
		fmt.Printf("fee withdrawal:           %s\n", h.FeeWithdrawalDestination)
		fmt.Printf("treasury withdrawal:      %s\n", h.TreasuryWithdrawalDestination)
		fmt.Printf("seller fee basis points:  %d\n", h.SellerFeeBasisPoints)
		fmt.Printf("requires sign-off:        %t\n", h.RequiresSignOff)
		fmt.Printf("can change sale price:    %t\n", h.CanChangeSalePrice)
		return nil
	},
}

var fundCommand = command{
	summary: "transfer SOL from the signing wallet to one or more wallets",
	flags: func(fs *pflag.FlagSet) {
		fs.StringSlice("to", nil, "recipient wallets, comma separated")
		fs.String("sol", "", "amount in SOL per recipient")
	},
	run: func(ctx context.Context, r *app.Runner, fs *pflag.FlagSet) error {
		from, err := r.RequireWallet()
		if err != nil {
			return err
		}
		raw, _ := fs.GetStringSlice("to")
		recipients, err := parseRecipients(raw)
		if err != nil {
			return err
		}
		amount, _ := fs.GetString("sol")
		lamports, err := types.ParseAmount(amount, solDecimals)
		if err != nil {
			return err
		}
		if err := fixtures.Fund(ctx, r.Manager, r.Client, from.PrivateKey, lamports, recipients...); err != nil {
			return err
		}
		fmt.Printf("sent %s SOL to %d wallet(s)\n", types.FormatAmount(lamports, solDecimals), len(recipients))
		return nil
	},
}

var airdropCommand = command{
	summary: "request a devnet airdrop",
	flags: func(fs *pflag.FlagSet) {
		fs.String("to", "", "recipient, signing wallet when empty")
		fs.String("sol", "1", "amount in SOL")
	},
	run: func(ctx context.Context, r *app.Runner, fs *pflag.FlagSet) error {
		to, err := optionalPubkey(fs, "to")
		if err != nil {
			return err
		}
		if to.IsZero() {
			w, err := r.RequireWallet()
			if err != nil {
				return err
			}
			to = w.PublicKey
		}
		raw, _ := fs.GetString("sol")
		lamports, err := types.ParseAmount(raw, solDecimals)
		if err != nil {
			return err
		}
		sig, err := r.Client.RequestAirdrop(ctx, to, lamports)
		if err != nil {
			return err
		}
		fmt.Printf("airdrop requested: %s\n", sig)
		return nil
	},
}

// parseRecipients разбирает --to без повторов: одинаковые переводы из одного
// blockhash получили бы одну подпись.
func parseRecipients(raw []string) ([]solana.PublicKey, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("--to is required")
	}
	seen := make(map[solana.PublicKey]bool, len(raw))
	recipients := make([]solana.PublicKey, 0, len(raw))
	for _, s := range raw {
		key, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("--to %s: %w", s, err)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		recipients = append(recipients, key)
	}
	return recipients, nil
}

func requiredPubkey(fs *pflag.FlagSet, name string) (solana.PublicKey, error) {
	key, err := optionalPubkey(fs, name)
	if err != nil {
		return key, err
	}
	if key.IsZero() {
		return key, fmt.Errorf("--%s is required", name)
	}
	return key, nil
}

func optionalPubkey(fs *pflag.FlagSet, name string) (solana.PublicKey, error) {
	raw, _ := fs.GetString(name)
	if raw == "" {
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("--%s: %w", name, err)
	}
	return key, nil
}
