package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dexgate-labs/dexgate/internal/candles"
	"github.com/dexgate-labs/dexgate/internal/config"
	"github.com/dexgate-labs/dexgate/internal/httpx"
	"github.com/dexgate-labs/dexgate/internal/okx"
	"github.com/dexgate-labs/dexgate/internal/quote"
	"github.com/dexgate-labs/dexgate/internal/server"
	"github.com/dexgate-labs/dexgate/internal/token"
	"github.com/dexgate-labs/dexgate/internal/trades"
	"github.com/dexgate-labs/dexgate/internal/version"
)

// Runner owns the command tree and wires components for the serve command.
type Runner struct {
	flags config.Flags
}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Run(args []string) int {
	root := r.newRootCommand()
	root.SetArgs(args)
	root.SilenceUsage = true
	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		return 1
	}
	return 0
}

func (r *Runner) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   version.ServiceName,
		Short: "Market data and quote resolution backend for a DEX trading UI",
	}
	root.PersistentFlags().StringVar(&r.flags.ConfigPath, "config", "", "path to yaml config file")
	root.PersistentFlags().StringVar(&r.flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(r.newServeCommand())
	root.AddCommand(newVersionCommand())
	return root
}

func (r *Runner) newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Missing .env is fine; credentials may come from the real
			// environment or be absent entirely.
			_ = godotenv.Load()

			settings, err := config.Load(r.flags)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			setupLogging(settings.LogLevel)

			srv, err := buildServer(settings)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, settings.Listen)
		},
	}
	cmd.Flags().StringVar(&r.flags.Listen, "listen", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&r.flags.Timeout, "timeout", "", "per-attempt upstream timeout, e.g. 10s")
	cmd.Flags().IntVar(&r.flags.Retries, "retries", -1, "upstream retry budget")
	return cmd
}

// buildServer assembles the component graph: one shared gateway client,
// the aggregator client behind it, and the three market-data components
// on top.
func buildServer(settings config.Settings) (*server.Server, error) {
	gateway := httpx.New(settings.Timeout, settings.Retries)
	signer := okx.NewHMACSigner(settings.OKXAPIKey, settings.OKXSecretKey, settings.OKXPassphrase, settings.OKXProjectID)
	aggregator := okx.New(gateway, settings.OKXBaseURL, settings.OKXSwapBaseURL, signer)

	tokens := token.NewService(aggregator, token.Options{
		RankedTTL:   settings.RankedTTL,
		DecimalsTTL: settings.DecimalsTTL,
		TopTokens:   settings.TopTokens,
	})
	candleStore := candles.NewStore(aggregator, settings.CandleLimit)
	tradeSvc := trades.NewService(aggregator, settings.TradeLimit)

	var (
		aggQuoter quote.AggregatorQuoter
		swapper   server.SwapBuilder
	)
	if settings.AggregatorConfigured() {
		aggQuoter = aggregator
		swapper = aggregator
	} else {
		log.Warn().Msg("no aggregator credentials configured; quotes use on-chain probing only")
	}
	resolver := quote.NewResolver(aggQuoter, quote.NewProber(), settings.RPCOverrides)

	return server.New(tokens, candleStore, resolver, tradeSvc, swapper), nil
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.Long())
		},
	}
}
