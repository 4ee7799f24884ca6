package commands

import (
	"github.com/homeroomhq/homeroom/internal/server"
	"github.com/homeroomhq/homeroom/internal/store"
	"github.com/spf13/cobra"
)

// serve runs the reference backend until interrupted.
func serveCmd(a *app) *cobra.Command {
	var addr, driver, sqlitePath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the homeroom API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := a.cfg.Server
			if cmd.Flags().Changed("addr") {
				sc.Addr = addr
			}
			if cmd.Flags().Changed("store") {
				sc.Store = driver
			}
			if cmd.Flags().Changed("sqlite-path") {
				sc.SQLitePath = sqlitePath
			}
			log := a.logger()

			st, err := store.Open(sc.Store, sc.SQLitePath)
			if err != nil {
				return err
			}
			defer func() {
				if err := st.Close(); err != nil {
					log.Error().Err(err).Msg("closing store")
				}
			}()

			srv := server.New(st, server.WithLogger(log))
			defer srv.Close()

			log.Info().Str("store", sc.Store).Msg("starting homeroom server")
			return server.Run(cmd.Context(), sc.Addr, srv.Handler(), sc.ShutdownTimeout, log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&driver, "store", "", "memory or sqlite")
	cmd.Flags().StringVar(&sqlitePath, "sqlite-path", "", "database file for the sqlite store")
	return cmd
}
