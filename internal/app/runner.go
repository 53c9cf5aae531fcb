// internal/app/runner.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/auction-house/internal/auctionhouse"
	"github.com/rovshanmuradov/auction-house/internal/blockchain/solbc"
	"github.com/rovshanmuradov/auction-house/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/auction-house/internal/config"
	"github.com/rovshanmuradov/auction-house/internal/types"
	"github.com/rovshanmuradov/auction-house/internal/utils/logger"
	"github.com/rovshanmuradov/auction-house/internal/wallet"
)

// Runner собирает зависимости одной команды CLI: логгер, RPC-клиент,
// менеджер транзакций, сервис аукционного дома и подписывающий кошелек.
type Runner struct {
	Logger  *logger.Logger
	Config  *config.Config
	Client  *solbc.Client
	Manager *transaction.Manager
	Service *auctionhouse.Service
	// Wallet – nil, если ключ не задан (например, для show).
	Wallet *wallet.Wallet

	metricsServer *http.Server
}

func NewRunner(cfg *config.Config) (*Runner, error) {
	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	priority, err := types.ParsePriorityLevel(cfg.Priority)
	if err != nil {
		return nil, err
	}

	var w *wallet.Wallet
	if cfg.Keypair != "" {
		if w, err = wallet.LoadWallet(cfg.Keypair); err != nil {
			return nil, fmt.Errorf("failed to load keypair: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	commitment := rpc.CommitmentType(cfg.Commitment)
	client := solbc.NewClient(cfg.RPCURL, commitment, log.Logger)
	manager := transaction.NewManager(client, log.Logger, transaction.Config{
		SkipPreflight:       cfg.SkipPreflight,
		Commitment:          commitment,
		ConfirmationTimeout: cfg.ConfirmationTimeout(),
		PollInterval:        cfg.PollInterval(),
		Priority:            priority,
		DryRun:              cfg.DryRun,
	}, transaction.NewMetrics(registry))

	r := &Runner{
		Logger:  log,
		Config:  cfg,
		Client:  client,
		Manager: manager,
		Service: auctionhouse.NewService(client, manager, log.Logger),
		Wallet:  w,
	}

	if cfg.MetricsAddr != "" {
		r.startMetricsServer(cfg.MetricsAddr, registry)
	}

	log.Debug("Runner initialized",
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("commitment", cfg.Commitment),
		zap.String("priority", string(priority)),
		zap.Bool("dry_run", cfg.DryRun))
	return r, nil
}

// RequireWallet возвращает подписывающий кошелек или ошибку, если он не задан.
func (r *Runner) RequireWallet() (*wallet.Wallet, error) {
	if r.Wallet == nil {
		return nil, errors.New("keypair is required: pass --keypair or set AUCTION_HOUSE_KEYPAIR")
	}
	return r.Wallet, nil
}

// Context отменяется по SIGINT/SIGTERM. Отправленная транзакция при этом
// может все равно попасть в блок.
func (r *Runner) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			r.Logger.Info("Signal received", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func (r *Runner) startMetricsServer(addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.metricsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := r.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.Logger.LogError("Metrics server stopped", err, zap.String("addr", addr))
		}
	}()
	r.Logger.Info("Serving metrics", zap.String("addr", addr))
}

// Shutdown останавливает сервер метрик и сбрасывает логи.
func (r *Runner) Shutdown() {
	if r.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = r.metricsServer.Shutdown(ctx)
	}
	if err := r.Logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
	}
}
