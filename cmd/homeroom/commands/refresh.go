package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// refresh loads every top-level collection and prints a per-kind summary.
func refreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Load boards, resources, lessons and planners and summarise them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dc := a.newDataContext()
			refreshErr := dc.Refresh(cmd.Context())

			counts := map[string]int{
				"board":    len(dc.Boards()),
				"resource": len(dc.Resources()),
				"lesson":   len(dc.Lessons()),
				"planner":  len(dc.Planners()),
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tCOUNT\tERROR")
			for _, st := range dc.Status() {
				n, ok := counts[st.Kind.String()]
				if !ok {
					continue
				}
				msg := "-"
				if st.Err != nil {
					msg = st.Err.Error()
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", st.Kind.Plural(), n, msg)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return refreshErr
		},
	}
}
