package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/efreitasn/simtrade/internal/config"
	"github.com/efreitasn/simtrade/internal/metrics"
	"github.com/efreitasn/simtrade/internal/replay"
	"github.com/efreitasn/simtrade/internal/service"
	"github.com/efreitasn/simtrade/internal/store"
)

func newReplayCmd(configPath *string) *cobra.Command {
	var (
		input       string
		output      string
		stopOnError bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run a JSON-lines command file through fresh accounts",
		Long: "replay reads one command per line ({\"account\":...,\"aid\":...}) and writes one\n" +
			"reply per line. Unknown accounts are created with the configured balance.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fail("failed to load config", err)
			}
			// Logs go to stderr so stdout stays a clean reply stream.
			logger := newLogger(os.Stderr, cfg.LogLevel)
			slog.SetDefault(logger)

			var in io.Reader = os.Stdin
			if input != "" && input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return fail("failed to open input", err)
				}
				defer f.Close()
				in = f
			}

			var out io.Writer = os.Stdout
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fail("failed to create output", err)
				}
				defer f.Close()
				out = f
			}

			_, err = replay.Run(cmd.Context(), in, out, newOfflineDispatcher(cfg, logger),
				replay.Options{StopOnError: stopOnError}, logger)
			if err != nil {
				return fail("replay failed", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "command file, - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "reply file, - for stdout")
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "stop at the first rejected command")
	return cmd
}

// newOfflineDispatcher wires the services without any publisher.
func newOfflineDispatcher(cfg *config.Config, logger *slog.Logger) *service.Dispatcher {
	m := metrics.Nop()
	pub := service.Publishers{}
	accounts := store.NewAccountStore()
	quotes := service.NewQuoteService(accounts, pub, m, logger)
	return &service.Dispatcher{
		Accounts:   service.NewAccountService(accounts, quotes, cfg.InitBalance, pub, m, logger),
		Orders:     service.NewOrderService(accounts, pub, m, logger),
		Quotes:     quotes,
		Settlement: service.NewSettlementService(accounts, store.NewReportStore(), pub, m, logger),
		AutoCreate: true,
	}
}
