package commands

import (
	"context"
	"fmt"

	"github.com/homeroomhq/homeroom"
	"github.com/homeroomhq/homeroom/internal/codec"
	"github.com/homeroomhq/homeroom/pkg/models"
	"github.com/spf13/cobra"
)

// kindOps binds the CRUD commands of one kind to the DataContext.
type kindOps struct {
	kind   models.Kind
	list   func(ctx context.Context, dc *homeroom.DataContext, parent models.ID) (any, error)
	get    func(ctx context.Context, dc *homeroom.DataContext, parent, id models.ID) (any, error)
	create func(ctx context.Context, dc *homeroom.DataContext, parent models.ID, data models.Patch) (any, error)
	update func(ctx context.Context, dc *homeroom.DataContext, parent, id models.ID, data models.Patch) (any, error)
	delete func(ctx context.Context, dc *homeroom.DataContext, parent, id models.ID) error
}

// settled turns an error recorded by a load or get into a return value.
func settled(dc *homeroom.DataContext, v any) (any, error) {
	if err := dc.LastError(); err != nil {
		return nil, err
	}
	return v, nil
}

var kindCommands = []kindOps{
	{
		kind: models.KindBoard,
		list: func(ctx context.Context, dc *homeroom.DataContext, _ models.ID) (any, error) {
			dc.LoadBoards(ctx)
			return settled(dc, dc.Boards())
		},
		get: func(ctx context.Context, dc *homeroom.DataContext, _, id models.ID) (any, error) {
			dc.GetBoard(ctx, id)
			return settled(dc, dc.CurrentBoard())
		},
		create: func(ctx context.Context, dc *homeroom.DataContext, _ models.ID, data models.Patch) (any, error) {
			return dc.CreateBoard(ctx, data)
		},
		update: func(ctx context.Context, dc *homeroom.DataContext, _, id models.ID, data models.Patch) (any, error) {
			return dc.UpdateBoard(ctx, id, data)
		},
		delete: func(ctx context.Context, dc *homeroom.DataContext, _, id models.ID) error {
			return dc.DeleteBoard(ctx, id)
		},
	},
	{
		kind: models.KindBoardItem,
		list: func(ctx context.Context, dc *homeroom.DataContext, parent models.ID) (any, error) {
			dc.LoadBoardItems(ctx, parent)
			return settled(dc, dc.BoardItems())
		},
		get: func(ctx context.Context, dc *homeroom.DataContext, parent, id models.ID) (any, error) {
			dc.GetBoardItem(ctx, parent, id)
			return settled(dc, dc.CurrentBoardItem())
		},
		create: func(ctx context.Context, dc *homeroom.DataContext, parent models.ID, data models.Patch) (any, error) {
			return dc.CreateBoardItem(ctx, parent, data)
		},
		update: func(ctx context.Context, dc *homeroom.DataContext, parent, id models.ID, data models.Patch) (any, error) {
			return dc.UpdateBoardItem(ctx, parent, id, data)
		},
		delete: func(ctx context.Context, dc *homeroom.DataContext, parent, id models.ID) error {
			return dc.DeleteBoardItem(ctx, parent, id)
		},
	},
	{
		kind: models.KindResource,
		list: func(ctx context.Context, dc *homeroom.DataContext, _ models.ID) (any, error) {
			dc.LoadResources(ctx)
			return settled(dc, dc.Resources())
		},
		get: func(ctx context.Context, dc *homeroom.DataContext, _, id models.ID) (any, error) {
			dc.GetResource(ctx, id)
			return settled(dc, dc.CurrentResource())
		},
		create: func(ctx context.Context, dc *homeroom.DataContext, _ models.ID, data models.Patch) (any, error) {
			return dc.CreateResource(ctx, data)
		},
		update: func(ctx context.Context, dc *homeroom.DataContext, _, id models.ID, data models.Patch) (any, error) {
			return dc.UpdateResource(ctx, id, data)
		},
		delete: func(ctx context.Context, dc *homeroom.DataContext, _, id models.ID) error {
			return dc.DeleteResource(ctx, id)
		},
	},
	{
		kind: models.KindLesson,
		list: func(ctx context.Context, dc *homeroom.DataContext, _ models.ID) (any, error) {
			dc.LoadLessons(ctx)
			return settled(dc, dc.Lessons())
		},
		get: func(ctx context.Context, dc *homeroom.DataContext, _, id models.ID) (any, error) {
			dc.GetLesson(ctx, id)
			return settled(dc, dc.CurrentLesson())
		},
		create: func(ctx context.Context, dc *homeroom.DataContext, _ models.ID, data models.Patch) (any, error) {
			return dc.CreateLesson(ctx, data)
		},
		update: func(ctx context.Context, dc *homeroom.DataContext, _, id models.ID, data models.Patch) (any, error) {
			return dc.UpdateLesson(ctx, id, data)
		},
		delete: func(ctx context.Context, dc *homeroom.DataContext, _, id models.ID) error {
			return dc.DeleteLesson(ctx, id)
		},
	},
	{
		kind: models.KindPlanner,
		list: func(ctx context.Context, dc *homeroom.DataContext, _ models.ID) (any, error) {
			dc.LoadPlanners(ctx)
			return settled(dc, dc.Planners())
		},
		get: func(ctx context.Context, dc *homeroom.DataContext, _, id models.ID) (any, error) {
			dc.GetPlanner(ctx, id)
			return settled(dc, dc.CurrentPlanner())
		},
		create: func(ctx context.Context, dc *homeroom.DataContext, _ models.ID, data models.Patch) (any, error) {
			return dc.CreatePlanner(ctx, data)
		},
		update: func(ctx context.Context, dc *homeroom.DataContext, _, id models.ID, data models.Patch) (any, error) {
			return dc.UpdatePlanner(ctx, id, data)
		},
		delete: func(ctx context.Context, dc *homeroom.DataContext, _, id models.ID) error {
			return dc.DeletePlanner(ctx, id)
		},
	},
	{
		kind: models.KindPlannerItem,
		list: func(ctx context.Context, dc *homeroom.DataContext, parent models.ID) (any, error) {
			dc.LoadPlannerItems(ctx, parent)
			return settled(dc, dc.PlannerItems())
		},
		get: func(ctx context.Context, dc *homeroom.DataContext, parent, id models.ID) (any, error) {
			dc.GetPlannerItem(ctx, parent, id)
			return settled(dc, dc.CurrentPlannerItem())
		},
		create: func(ctx context.Context, dc *homeroom.DataContext, parent models.ID, data models.Patch) (any, error) {
			return dc.CreatePlannerItem(ctx, parent, data)
		},
		update: func(ctx context.Context, dc *homeroom.DataContext, parent, id models.ID, data models.Patch) (any, error) {
			return dc.UpdatePlannerItem(ctx, parent, id, data)
		},
		delete: func(ctx context.Context, dc *homeroom.DataContext, parent, id models.ID) error {
			return dc.DeletePlannerItem(ctx, parent, id)
		},
	},
}

func kindCmd(a *app, ops kindOps) *cobra.Command {
	var parent string
	kind := ops.kind

	cmd := &cobra.Command{
		Use:   kind.Command(),
		Short: "List, show, create, update and delete " + kind.Plural(),
	}
	if kind.Nested() {
		cmd.PersistentFlags().StringVar(&parent, "parent", "", "id of the owning "+kind.Parent().Singular())
		_ = cmd.MarkPersistentFlagRequired("parent")
	}
	parentID := func() models.ID { return models.ID(parent) }

	list := &cobra.Command{
		Use:   "list",
		Short: "List " + kind.Plural(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := ops.list(cmd.Context(), a.newDataContext(), parentID())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one " + kind.Singular(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := ops.get(cmd.Context(), a.newDataContext(), parentID(), models.ID(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	var createIn, updateIn patchInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a " + kind.Singular(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := createIn.patch(cmd)
			if err != nil {
				return err
			}
			out, err := ops.create(cmd.Context(), a.newDataContext(), parentID(), data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	createIn.register(create)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a " + kind.Singular(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := updateIn.patch(cmd)
			if err != nil {
				return err
			}
			out, err := ops.update(cmd.Context(), a.newDataContext(), parentID(), models.ID(args[0]), data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	updateIn.register(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + kind.Singular(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ops.delete(cmd.Context(), a.newDataContext(), parentID(), models.ID(args[0])); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", kind.Singular(), args[0])
			return err
		},
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}

// patchInput reads the fields of a create or update from --data or --file.
type patchInput struct {
	data string
	file string
}

func (in *patchInput) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.data, "data", "", `fields as a JSON object, e.g. '{"title":"Fractions"}'`)
	cmd.Flags().StringVar(&in.file, "file", "", "read the JSON object from a file, - for stdin")
	cmd.MarkFlagsMutuallyExclusive("data", "file")
	cmd.MarkFlagsOneRequired("data", "file")
}

func (in *patchInput) patch(cmd *cobra.Command) (models.Patch, error) {
	raw, err := readInput(cmd, in.data, in.file)
	if err != nil {
		return nil, err
	}
	var data models.Patch
	if err := codec.JSON.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing fields: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("parsing fields: expected a JSON object")
	}
	return data, nil
}
