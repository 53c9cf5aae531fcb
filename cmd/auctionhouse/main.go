// ====================================
// File: cmd/auctionhouse/main.go
// ====================================
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/auction-house/internal/app"
	"github.com/rovshanmuradov/auction-house/internal/config"
)

// command – подкоманда CLI. flags регистрирует собственные флаги, run
// выполняется с готовым Runner.
type command struct {
	summary string
	flags   func(fs *pflag.FlagSet)
	run     func(ctx context.Context, r *app.Runner, fs *pflag.FlagSet) error
}

var commands = map[string]command{
	"create":       createCommand,
	"sell":         sellCommand,
	"buy":          buyCommand,
	"cancel":       cancelCommand,
	"execute-sale": executeSaleCommand,
	"show":         showCommand,
	"fund":         fundCommand,
	"airdrop":      airdropCommand,
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage()
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	config.BindFlags(fs)
	cmd.flags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	configPath, _ := fs.GetString("config")
	cfg, err := config.LoadConfig(configPath, fs)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	runner, err := app.NewRunner(cfg)
	if err != nil {
		return err
	}
	defer runner.Shutdown()

	ctx, cancel := runner.Context(context.Background())
	defer cancel()

	end := runner.Logger.TrackPerformance(args[0])
	defer end()

	if err := cmd.run(ctx, runner, fs); err != nil {
		runner.Logger.LogError("Command failed", err, zap.String("command", args[0]))
		return err
	}
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: auctionhouse <command> [flags]")
	fmt.Fprintln(os.Stderr, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-13s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(os.Stderr, "\nrun 'auctionhouse <command> --help' for flags")
}
