package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/datapool/internal/client/cli"
	"github.com/iudanet/datapool/internal/client/iocli"
	"github.com/iudanet/datapool/internal/client/storage/boltdb"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "datapool-client.db", "Path to local database")
	passphrase := flag.String("passphrase", "", "Local storage passphrase (not recommended)")
	passphraseFile := flag.String("passphrase-file", "", "Path to file containing the passphrase")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	command := args[0]
	passphraseOpts := cli.Passphrase{
		FromFile: *passphraseFile,
		FromArgs: *passphrase,
	}

	// Контекст с отменой по Ctrl+C (для watch)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	// Открываем BoltDB storage
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	c := cli.New(iocli.NewStdio(), logger, boltStorage, *serverURL, *dbPath)
	defer c.Close()

	// Выполняем команду
	switch command {
	case "login":
		if err := c.RunLogin(ctx, passphraseOpts); err != nil {
			fatal(err)
		}
	case "logout":
		if err := c.RunLogout(ctx, passphraseOpts); err != nil {
			fatal(err)
		}
	case "status":
		if err := c.RunStatus(ctx, passphraseOpts); err != nil {
			fatal(err)
		}
	case "list":
		if err := c.RunList(ctx, args[1:], passphraseOpts); err != nil {
			fatal(err)
		}
	case "sync":
		if err := c.RunSync(ctx, args[1:], passphraseOpts); err != nil {
			fatal(err)
		}
	case "watch":
		if err := c.RunWatch(ctx, args[1:], passphraseOpts); err != nil {
			fatal(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		cli.PrintUsage()
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printVersion() {
	fmt.Printf("Datapool Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
