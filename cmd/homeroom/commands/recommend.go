package commands

import (
	"fmt"

	"github.com/homeroomhq/homeroom/pkg/models"
	"github.com/homeroomhq/homeroom/pkg/recommend"
	"github.com/spf13/cobra"
)

func recommendCmd(a *app) *cobra.Command {
	var (
		target string
		prefs  recommend.Preferences
		kinds  []string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank resources or lessons against learner preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, k := range kinds {
				prefs.Kinds = append(prefs.Kinds, models.ResourceKind(k))
			}
			if prefs.IsZero() {
				return fmt.Errorf("give at least one of --subject, --grade, --tag or --kind")
			}

			dc := a.newDataContext()
			switch target {
			case "resources":
				dc.LoadResources(cmd.Context())
				if err := dc.LastError(); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dc.RecommendResources(prefs, limit))
			case "lessons":
				dc.LoadLessons(cmd.Context())
				if err := dc.LastError(); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dc.RecommendLessons(prefs, limit))
			}
			return fmt.Errorf("--for must be resources or lessons, got %q", target)
		},
	}

	cmd.Flags().StringVar(&target, "for", "resources", "what to rank: resources or lessons")
	cmd.Flags().StringSliceVar(&prefs.Subjects, "subject", nil, "preferred subjects")
	cmd.Flags().StringSliceVar(&prefs.GradeLevels, "grade", nil, "preferred grade levels")
	cmd.Flags().StringSliceVar(&prefs.Tags, "tag", nil, "preferred tags")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "preferred resource kinds (link, file, video, worksheet, book, other)")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results, 0 for all")
	return cmd
}
