package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/homeroomhq/homeroom/internal/store"
	"github.com/homeroomhq/homeroom/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drivers(t *testing.T) map[string]store.Store {
	t.Helper()
	sqlite, err := store.OpenSQLite(filepath.Join(t.TempDir(), "homeroom.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]store.Store{
		"memory": store.NewMemory(),
		"sqlite": sqlite,
	}
}

func TestStore(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			board := store.Key{Kind: models.KindBoard, ID: "b1"}
			require.NoError(t, s.Put(ctx, board, store.Document{"id": "b1", "title": "Math"}))
			require.NoError(t, s.Put(ctx, store.Key{Kind: models.KindBoard, ID: "b2"}, store.Document{"id": "b2", "title": "Art"}))

			t.Run("replace keeps order", func(t *testing.T) {
				require.NoError(t, s.Put(ctx, board, store.Document{"id": "b1", "title": "Math II"}))
				docs, err := s.List(ctx, models.KindBoard, "")
				require.NoError(t, err)
				require.Len(t, docs, 2)
				assert.Equal(t, "Math II", docs[0]["title"])
				assert.Equal(t, "b2", docs[1]["id"])
			})

			t.Run("get", func(t *testing.T) {
				doc, err := s.Get(ctx, board)
				require.NoError(t, err)
				assert.Equal(t, "Math II", doc["title"])

				_, err = s.Get(ctx, store.Key{Kind: models.KindBoard, ID: "missing"})
				require.ErrorIs(t, err, store.ErrNotFound)
			})

			t.Run("children are scoped to their parent", func(t *testing.T) {
				item := store.Key{Kind: models.KindBoardItem, Parent: "b1", ID: "i1"}
				require.NoError(t, s.Put(ctx, item, store.Document{"id": "i1", "boardId": "b1"}))
				require.NoError(t, s.Put(ctx, store.Key{Kind: models.KindBoardItem, Parent: "b2", ID: "i2"}, store.Document{"id": "i2", "boardId": "b2"}))

				docs, err := s.List(ctx, models.KindBoardItem, "b1")
				require.NoError(t, err)
				require.Len(t, docs, 1)
				assert.Equal(t, "i1", docs[0]["id"])

				_, err = s.Get(ctx, store.Key{Kind: models.KindBoardItem, Parent: "b2", ID: "i1"})
				require.ErrorIs(t, err, store.ErrNotFound)

				n, err := s.DeleteChildren(ctx, models.KindBoardItem, "b1")
				require.NoError(t, err)
				assert.Equal(t, 1, n)

				docs, err = s.List(ctx, models.KindBoardItem, "b1")
				require.NoError(t, err)
				assert.Empty(t, docs)
				assert.NotNil(t, docs)
			})

			t.Run("delete", func(t *testing.T) {
				require.NoError(t, s.Delete(ctx, board))
				require.ErrorIs(t, s.Delete(ctx, board), store.ErrNotFound)

				docs, err := s.List(ctx, models.KindBoard, "")
				require.NoError(t, err)
				require.Len(t, docs, 1)
			})

			t.Run("unknown kind lists empty", func(t *testing.T) {
				docs, err := s.List(ctx, models.KindLesson, "")
				require.NoError(t, err)
				assert.Empty(t, docs)
			})
		})
	}
}

func TestOpen(t *testing.T) {
	s, err := store.Open("memory", "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = store.Open("postgres", "")
	require.ErrorIs(t, err, store.ErrUnknownDriver)
}
