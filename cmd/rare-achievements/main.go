package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"rare-achievements/cmd/rare-achievements/appconfig"
	"rare-achievements/cmd/rare-achievements/rarity"
	"rare-achievements/cmd/rare-achievements/report"
	"rare-achievements/cmd/rare-achievements/rqliterarestore"
	"rare-achievements/cmd/rare-achievements/secretsmanagerkey"
	"rare-achievements/steamhttprpc"
	"rare-achievements/steamidutil"
	"strings"
	"syscall"
	"time"
)

const (
	msgPrivateOrEmpty      = "User account is private or has no games"
	msgInvalidAccount      = "steamID entered does not belong to an account"
	msgPrivateAchievements = "User achievement information is private"
)

const usage = `usage: rare-achievements [flags]

Reads a steam ID from standard input and prints its rarest unlocked achievements.

  -config path         TOML config file
  -env-file path       dotenv file (default .env)
  -rqlite-address url  cache Steam data in rqlite between runs
  -initialize          create the rqlite schema
  -concurrency n       games fetched in parallel (default 1)
  -skip-private        skip games with private achievement data instead of stopping
  -count n             achievements to report (default 10)
  -timeout d           per-request timeout, 0 for none`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := newFlagSet("rare-achievements")

	var configpath string
	var envfile string
	var rqliteaddr string
	var initialize bool
	var concurrency int
	var skipPrivate bool
	var count int
	var timeout time.Duration

	flags.StringVar(&configpath, "config", "", "")
	flags.StringVar(&envfile, "env-file", ".env", "")
	flags.StringVar(&rqliteaddr, "rqlite-address", "", "")
	flags.BoolVar(&initialize, "initialize", false, "")
	flags.IntVar(&concurrency, "concurrency", 1, "")
	flags.BoolVar(&skipPrivate, "skip-private", false, "")
	flags.IntVar(&count, "count", rarity.DefaultCount, "")
	flags.DurationVar(&timeout, "timeout", 0, "")

	ok, err := parse(flags, args, stderr, usage)
	if err != nil {
		return fmt.Errorf("parse args: %w", err)
	}

	if !ok {
		return nil
	}

	if concurrency < 1 {
		return fmt.Errorf("-concurrency must be at least 1")
	}

	cfg, err := appconfig.Load(configpath, envfile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Log.Level}))

	ctx := context.Background()
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var keys steamhttprpc.KeySource

	if cfg.Steam.APIKey != "" {
		keys = steamhttprpc.StaticKey(cfg.Steam.APIKey)
	} else {
		opts := secretsmanagerkey.Options{
			SecretID: cfg.Secret.Name,
			Field:    cfg.Secret.Field,
			TTL:      time.Duration(cfg.Secret.TTL),
		}

		resolver, err := secretsmanagerkey.NewFromConfig(ctx, cfg.Secret.Region, cfg.Secret.Endpoint, opts)
		if err != nil {
			return fmt.Errorf("new secret resolver: %w", err)
		}

		keys = resolver
	}

	httpc := http.Client{Timeout: timeout}

	client := steamhttprpc.NewClient(httpc, keys, cfg.Steam.Address, cfg.Steam.StoreAddress)

	f := &Fetcher{
		client:      client,
		logger:      logger,
		concurrency: concurrency,
		skipPrivate: skipPrivate,
		count:       count,
		now:         time.Now,
	}

	if rqliteaddr != "" {
		store, err := rqliterarestore.New(rqliteaddr)
		if err != nil {
			return fmt.Errorf("new rare store: %w", err)
		}

		defer store.Close()

		if initialize {
			if err := store.CreateSchema(ctx); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
		}

		f.cache = store
	}

	fmt.Fprintln(stdout, "Enter your steamID")

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return fmt.Errorf("read steam ID: %w", err)
	}

	accountID, err := steamidutil.ParseAccountID(line)
	if err != nil {
		return fmt.Errorf("parse steam ID: %w", err)
	}

	if !steamidutil.IsIndividual(accountID) {
		logger.Warn("steam ID is outside the individual account range", slog.Uint64("steam_id", accountID))
	}

	return execute(ctx, f, accountID, stdout)
}

func execute(ctx context.Context, f *Fetcher, accountID uint64, stdout io.Writer) error {
	records, outcome, err := f.Rarest(ctx, accountID)
	if err != nil {
		return err
	}

	switch outcome {
	case OutcomeInvalidAccount:
		fmt.Fprintln(stdout, msgInvalidAccount)
		return nil
	case OutcomePrivateOrEmpty:
		fmt.Fprintln(stdout, msgPrivateOrEmpty)
		return nil
	case OutcomePrivateAchievements:
		fmt.Fprintln(stdout, msgPrivateAchievements)
		return nil
	}

	if err := report.Write(stdout, records); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func newFlagSet(prog string) *flag.FlagSet {
	f := flag.NewFlagSet(prog, flag.ContinueOnError)
	f.SetOutput(io.Discard)
	f.Usage = nil

	return f
}

func parse(flags *flag.FlagSet, args []string, stderr io.Writer, usage string) (bool, error) {
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, usage)
			return false, nil
		}

		return false, fmt.Errorf("argument parsing failure: %w\n\n%s", err, usage)
	}

	if flags.NArg() > 0 {
		return false, fmt.Errorf("unexpected arguments: %s\n\n%s", strings.Join(flags.Args(), " "), usage)
	}

	return true, nil
}
