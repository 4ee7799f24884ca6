// Package commands implements the homeroom command line.
package commands

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/homeroomhq/homeroom"
	"github.com/homeroomhq/homeroom/internal/config"
	"github.com/homeroomhq/homeroom/pkg/client"
	"github.com/homeroomhq/homeroom/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app holds what the root command resolves before a subcommand runs.
type app struct {
	configPath string
	baseURL    string
	logLevel   string

	cfg *config.Config
	log *logger.LogData
}

func (a *app) logger() zerolog.Logger {
	if a.log == nil {
		return zerolog.Nop()
	}
	return a.log.Logger
}

func (a *app) newClient() *client.Client {
	cc := a.cfg.Client
	opts := []client.Option{
		client.WithTimeout(cc.Timeout),
		client.WithLogger(a.logger()),
	}
	if cc.AuthToken != "" {
		opts = append(opts, client.WithAuthToken(cc.AuthToken))
	}
	if cc.Retries > 0 {
		opts = append(opts, client.WithRetryer(client.NewExponentialBackoffRetryer(cc.Retries)))
	}
	if cc.RateLimit > 0 {
		opts = append(opts, client.WithRateLimit(cc.RateLimit, cc.RateBurst))
	}
	if cc.Breaker.Failures > 0 {
		opts = append(opts, client.WithCircuitBreaker(cc.Breaker.Failures, cc.Breaker.OpenFor))
	}
	return client.New(cc.BaseURL, opts...)
}

func (a *app) newDataContext() *homeroom.DataContext {
	opts := []homeroom.Option{homeroom.WithLogger(a.logger())}
	if a.cfg.Sync.CascadeDelete {
		opts = append(opts, homeroom.WithCascadeDelete())
	}
	return homeroom.New(a.newClient(), opts...)
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("base-url") {
		cfg.Client.BaseURL = a.baseURL
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	build := logger.New().Level(cfg.Log.Level).FromBuffer(cmd.ErrOrStderr())
	if cfg.Log.File != "" {
		build = build.FromPath(cfg.Log.File)
	}
	if cfg.Log.Format == "console" {
		build = build.Console()
	}
	a.log, err = build.Make()
	return err
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "homeroom",
		Short:         "Homeschool boards, resources, lessons and planners from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.log == nil {
				return nil
			}
			return a.log.Close()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $"+config.PathEnvVar+")")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "API base URL, e.g. http://localhost:8080")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "trace, debug, info, warn, error or disabled")

	root.AddCommand(serveCmd(a), refreshCmd(a), recommendCmd(a), watchCmd(a))
	for _, ops := range kindCommands {
		root.AddCommand(kindCmd(a, ops))
	}
	return root
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		root.PrintErrln("Error:", err)
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func readInput(cmd *cobra.Command, data, file string) ([]byte, error) {
	switch {
	case data != "":
		return []byte(data), nil
	case file == "-":
		return io.ReadAll(cmd.InOrStdin())
	default:
		return os.ReadFile(file)
	}
}
