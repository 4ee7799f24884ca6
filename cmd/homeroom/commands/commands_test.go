package commands

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/homeroomhq/homeroom/internal/config"
	"github.com/homeroomhq/homeroom/internal/server"
	"github.com/homeroomhq/homeroom/internal/store"
	"github.com/homeroomhq/homeroom/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t       *testing.T
	baseURL string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv(config.PathEnvVar, "")

	srv := server.New(store.NewMemory())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return &cli{t: t, baseURL: ts.URL}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--base-url", c.baseURL, "--log-level", "disabled"}, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "%v", args)
	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestBoardsCRUD(t *testing.T) {
	c := newCLI(t)

	board := decode[models.Board](t, c.mustRun("boards", "create", "--data", `{"title":"Maths"}`))
	require.NotEmpty(t, board.ID)
	assert.Equal(t, "Maths", board.Title)

	boards := decode[[]models.Board](t, c.mustRun("boards", "list"))
	require.Len(t, boards, 1)
	assert.Equal(t, board.ID, boards[0].ID)

	updated := decode[models.Board](t, c.mustRun("boards", "update", board.ID.String(), "--data", `{"status":"archived"}`))
	assert.Equal(t, models.BoardStatusArchived, updated.Status)
	assert.Equal(t, "Maths", updated.Title)

	got := decode[models.Board](t, c.mustRun("boards", "get", board.ID.String()))
	assert.Equal(t, models.BoardStatusArchived, got.Status)

	assert.Equal(t, "deleted board "+board.ID.String()+"\n", c.mustRun("boards", "delete", board.ID.String()))

	_, err := c.run("boards", "get", board.ID.String())
	require.Error(t, err)
	assert.Equal(t, "Failed to load board", err.Error())
}

func TestBoardItems_parent(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("board-items", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"parent" not set`)

	board := decode[models.Board](t, c.mustRun("boards", "create", "--data", `{"title":"Science"}`))

	path := filepath.Join(t.TempDir(), "item.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"Grow cress","kind":"task"}`), 0o600))
	item := decode[models.BoardItem](t, c.mustRun("board-items", "create", "--parent", board.ID.String(), "--file", path))
	assert.Equal(t, board.ID, item.BoardID)

	items := decode[[]models.BoardItem](t, c.mustRun("board-items", "list", "--parent", board.ID.String()))
	require.Len(t, items, 1)
	assert.Equal(t, "Grow cress", items[0].Title)

	_, err = c.run("board-items", "list", "--parent", "missing")
	require.Error(t, err)
	assert.Equal(t, "Failed to load board items", err.Error())
}

func TestCreate_input(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("lessons", "create")
	require.Error(t, err)

	_, err = c.run("lessons", "create", "--data", `{"title":`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing fields")

	_, err = c.run("lessons", "create", "--data", `{"description":"no title"}`)
	require.Error(t, err)
	assert.Equal(t, "Failed to create lesson", err.Error())
}

func TestRecommend(t *testing.T) {
	c := newCLI(t)

	c.mustRun("resources", "create", "--data", `{"title":"Fraction wall","kind":"worksheet","filePath":"f.pdf","tags":["math","fractions"]}`)
	c.mustRun("resources", "create", "--data", `{"title":"Volcano video","kind":"video","url":"https://example.com/v","tags":["science"]}`)

	_, err := c.run("recommend")
	require.Error(t, err)

	type scored struct {
		Item  models.Resource `json:"item"`
		Score float64         `json:"score"`
	}
	ranked := decode[[]scored](t, c.mustRun("recommend", "--tag", "fractions", "--kind", "worksheet"))
	require.NotEmpty(t, ranked)
	assert.Equal(t, "Fraction wall", ranked[0].Item.Title)
	assert.Greater(t, ranked[0].Score, 0.0)

	_, err = c.run("recommend", "--for", "planners", "--tag", "x")
	require.Error(t, err)
}

func TestRefresh(t *testing.T) {
	c := newCLI(t)

	c.mustRun("planners", "create", "--data", `{"title":"Autumn","startDate":"2024-09-02","endDate":"2024-12-20"}`)

	out := c.mustRun("refresh")
	assert.Contains(t, out, "KIND")
	assert.Regexp(t, `planners\s+1\s+-`, out)
	assert.Regexp(t, `boards\s+0\s+-`, out)
}
