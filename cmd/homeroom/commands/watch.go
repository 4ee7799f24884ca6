package commands

import (
	"errors"

	"github.com/homeroomhq/homeroom/internal/codec"
	"github.com/homeroomhq/homeroom/pkg/live"
	"github.com/homeroomhq/homeroom/pkg/models"
	"github.com/spf13/cobra"
)

// watch prints live change notifications, one JSON object per line.
func watchCmd(a *app) *cobra.Command {
	var kinds []string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream changes made through the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := make(map[models.Kind]bool, len(kinds))
			for _, k := range kinds {
				kind, err := models.ParseKind(k)
				if err != nil {
					return err
				}
				filter[kind] = true
			}

			url, err := live.URL(a.cfg.Client.BaseURL)
			if err != nil {
				return err
			}
			opts := []live.SubscribeOption{live.WithLogger(a.logger())}
			if a.cfg.Client.AuthToken != "" {
				opts = append(opts, live.WithAuthToken(a.cfg.Client.AuthToken))
			}

			ctx := cmd.Context()
			sub, err := live.Subscribe(ctx, url, opts...)
			if err != nil {
				return err
			}
			defer sub.Close()
			a.logger().Info().Str("url", url).Msg("watching for changes")

			enc := codec.JSON.NewEncoder(cmd.OutOrStdout())
			for {
				select {
				case <-ctx.Done():
					return nil
				case n, ok := <-sub.Notifications():
					if !ok {
						if err := sub.Err(); err != nil && !errors.Is(err, live.ErrClosed) {
							return err
						}
						return nil
					}
					if len(filter) > 0 && !filter[n.Kind] {
						continue
					}
					if err := enc.Encode(n); err != nil {
						return err
					}
				}
			}
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "only show these kinds, e.g. boards,planner-items")
	return cmd
}
