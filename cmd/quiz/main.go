package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"quiz-review/internal/cli"
	"quiz-review/internal/config"
	"quiz-review/internal/domain"
	"quiz-review/internal/dto"
	"quiz-review/internal/logger"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const usage = `Usage: quiz <command> [flags]

Commands:
  play    answer a round of questions (--json prints the score as JSON)
  stats   show progress against the question bank
  wrong   list questions whose latest answer was wrong
  reset   delete every recorded attempt (requires --yes)

Global flags:
  --config PATH       config file (default: config.yaml in ., ./config, ./configs)
  --bank PATH         question bank file (.json, .yaml, .yml)
  --bank-mode MODE    strict or lenient
  --store PATH        attempt store file
  --log-level LEVEL   debug, info, warn, error
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(errOut, usage)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	command := args[0]
	fs := pflag.NewFlagSet("quiz "+command, pflag.ContinueOnError)
	fs.SetOutput(errOut)
	addGlobalFlags(fs)

	var (
		count   int
		mode    string
		asJSON  bool
		confirm bool
	)
	switch command {
	case "play":
		fs.IntVarP(&count, "count", "n", 0, "number of questions (default: quiz.default_count)")
		fs.StringVarP(&mode, "mode", "m", "", "fresh, wrong_only or all (default: quiz.default_mode)")
		fs.BoolVar(&asJSON, "json", false, "print the score as JSON; questions go to stderr")
	case "stats", "wrong":
		fs.BoolVar(&asJSON, "json", false, "print JSON")
	case "reset":
		fs.BoolVar(&confirm, "yes", false, "confirm deleting every recorded attempt")
	default:
		fmt.Fprintf(errOut, "unknown command %q\n\n%s", command, usage)
		return 2
	}

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		fmt.Fprintf(errOut, "Failed to load configuration: %v\n", err)
		return 1
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Fprintf(errOut, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	deps, err := wire(ctx, cfg)
	if err != nil {
		return fail(errOut, err, asJSON)
	}
	defer deps.Close()

	if err := deps.Service.Warmup(ctx); err != nil {
		return fail(errOut, err, asJSON)
	}

	app := cli.NewApp(deps.Service, in, out)
	switch command {
	case "play":
		if asJSON {
			app.PromptTo(errOut)
		}
		err = play(ctx, app, cfg, fs, count, mode, asJSON)
	case "stats":
		err = app.Stats(ctx, asJSON)
	case "wrong":
		err = app.Wrong(ctx, asJSON)
	case "reset":
		err = app.Reset(ctx, confirm)
	}
	if err != nil {
		return fail(errOut, err, asJSON)
	}
	return 0
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file")
	fs.String("bank", "", "question bank file")
	fs.String("bank-mode", "", "strict or lenient")
	fs.String("store", "", "attempt store file")
	fs.String("log-level", "", "log level")
}

func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	if err := config.BindFlags(fs); err != nil {
		return nil, err
	}
	return config.LoadConfig()
}

func play(ctx context.Context, app *cli.App, cfg *config.Config, fs *pflag.FlagSet, count int, rawMode string, asJSON bool) error {
	if !fs.Changed("count") {
		count = cfg.Quiz.DefaultCount
	}
	if count <= 0 {
		return domain.NewInvalidInputError(fmt.Sprintf("--count must be positive, got %d", count))
	}
	if rawMode == "" {
		rawMode = cfg.Quiz.DefaultMode
	}
	mode, err := domain.ParseSelectionMode(rawMode)
	if err != nil {
		return err
	}
	return app.Play(ctx, count, mode, asJSON)
}

// exitInterrupted follows the shell convention of 128+SIGINT.
const exitInterrupted = 130

func fail(errOut io.Writer, err error, asJSON bool) int {
	if errors.Is(err, context.Canceled) {
		logger.Get().Info("Interrupted", zap.Error(err))
		fmt.Fprintln(errOut, "Interrupted.")
		return exitInterrupted
	}

	logger.Get().Error("Command failed", zap.String("code", string(domain.CodeOf(err))), zap.Error(err))
	if asJSON {
		enc := json.NewEncoder(errOut)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(dto.NewErrorResponse(err)); encErr == nil {
			return 1
		}
	}
	fmt.Fprintf(errOut, "Error [%s]: %v\n", domain.CodeOf(err), err)
	return 1
}
