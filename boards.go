package homeroom

import (
	"context"

	"github.com/homeroomhq/homeroom/pkg/models"
)

func (dc *DataContext) Boards() []models.Board {
	return dc.boards.List()
}

func (dc *DataContext) CurrentBoard() *models.Board {
	return dc.boards.Current()
}

func (dc *DataContext) LoadBoards(ctx context.Context) {
	dc.boards.LoadAll(ctx)
}

func (dc *DataContext) GetBoard(ctx context.Context, id models.ID) {
	dc.boards.Get(ctx, id)
}

func (dc *DataContext) CreateBoard(ctx context.Context, data any) (*models.Board, error) {
	return dc.boards.Create(ctx, data)
}

func (dc *DataContext) UpdateBoard(ctx context.Context, id models.ID, data any) (*models.Board, error) {
	return dc.boards.Update(ctx, id, data)
}

// DeleteBoard deletes a board. Its items are only dropped locally with
// WithCascadeDelete.
func (dc *DataContext) DeleteBoard(ctx context.Context, id models.ID) error {
	if err := dc.boards.Delete(ctx, id); err != nil {
		return err
	}
	if dc.cascade {
		n := dc.boardItems.RemoveChildrenOf(id)
		dc.logger.Debug().Str("board", id.String()).Int("items", n).Msg("cascaded board delete")
	}
	return nil
}

func (dc *DataContext) BoardItems() []models.BoardItem {
	return dc.boardItems.List()
}

func (dc *DataContext) CurrentBoardItem() *models.BoardItem {
	return dc.boardItems.Current()
}

func (dc *DataContext) LoadBoardItems(ctx context.Context, boardID models.ID) {
	dc.boardItems.LoadAll(ctx, boardID)
}

func (dc *DataContext) GetBoardItem(ctx context.Context, boardID, id models.ID) {
	dc.boardItems.Get(ctx, boardID, id)
}

func (dc *DataContext) CreateBoardItem(ctx context.Context, boardID models.ID, data any) (*models.BoardItem, error) {
	return dc.boardItems.Create(ctx, boardID, data)
}

func (dc *DataContext) UpdateBoardItem(ctx context.Context, boardID, id models.ID, data any) (*models.BoardItem, error) {
	return dc.boardItems.Update(ctx, boardID, id, data)
}

func (dc *DataContext) DeleteBoardItem(ctx context.Context, boardID, id models.ID) error {
	return dc.boardItems.Delete(ctx, boardID, id)
}
