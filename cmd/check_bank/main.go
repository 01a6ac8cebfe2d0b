package main

import (
	"fmt"
	"os"

	"quiz-review/internal/bank"
	"quiz-review/internal/config"
	"quiz-review/internal/domain"
	"quiz-review/internal/logger"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("check_bank", pflag.ContinueOnError)
	fs.String("config", "", "config file")
	fs.String("bank-mode", "", "strict or lenient")
	fs.String("log-level", "", "log level")
	normalized := fs.String("write-normalized", "", "write the validated bank back out as JSON to this path")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: check_bank [flags] [bank-file]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := config.BindFlags(fs); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		return 1
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()
	log := logger.Get()

	path := cfg.Bank.Path
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	mode, err := bank.ParseMode(cfg.Bank.Mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	log.Info("Checking question bank", zap.String("path", path), zap.String("mode", string(mode)))
	res, err := bank.NewLoader(mode).LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: INVALID (%s)\n  %v\n", path, domain.CodeOf(err), err)
		return 1
	}

	fmt.Printf("%s: OK (%s mode)\n", path, mode)
	fmt.Printf("  questions:   %d\n", res.Bank.Len())
	fmt.Printf("  fingerprint: %s\n", res.Bank.Fingerprint())
	if len(res.Skipped) > 0 {
		fmt.Printf("  skipped:     %d\n", len(res.Skipped))
		for _, issue := range res.Skipped {
			fmt.Printf("    - %s\n", issue.Message)
		}
	}

	if *normalized != "" {
		data, err := bank.Encode(res.Bank.Questions())
		if err != nil {
			log.Error("Failed to encode bank", zap.Error(err))
			return 1
		}
		if err := os.WriteFile(*normalized, append(data, '\n'), 0o644); err != nil {
			log.Error("Failed to write normalized bank", zap.String("path", *normalized), zap.Error(err))
			return 1
		}
		fmt.Printf("  normalized:  %s\n", *normalized)
	}
	return 0
}
