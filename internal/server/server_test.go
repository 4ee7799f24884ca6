package server_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/homeroomhq/homeroom"
	"github.com/homeroomhq/homeroom/internal/server"
	"github.com/homeroomhq/homeroom/internal/store"
	"github.com/homeroomhq/homeroom/pkg/client"
	"github.com/homeroomhq/homeroom/pkg/live"
	"github.com/homeroomhq/homeroom/pkg/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var fixedNow = time.Date(2024, time.September, 2, 9, 0, 0, 0, time.UTC)

type ServerTestSuite struct {
	suite.Suite
	driver string

	store  store.Store
	srv    *server.Server
	ts     *httptest.Server
	client *client.Client
	dc     *homeroom.DataContext
}

func TestServer_memory(t *testing.T) {
	suite.Run(t, &ServerTestSuite{driver: "memory"})
}

func TestServer_sqlite(t *testing.T) {
	suite.Run(t, &ServerTestSuite{driver: "sqlite"})
}

func (s *ServerTestSuite) SetupTest() {
	st, err := store.Open(s.driver, filepath.Join(s.T().TempDir(), "homeroom.db"))
	s.Require().NoError(err)
	s.store = st

	var seq atomic.Int64
	s.srv = server.New(st,
		server.WithClock(func() time.Time { return fixedNow }),
		server.WithIDGenerator(func() models.ID { return models.ID(fmt.Sprintf("id-%d", seq.Add(1))) }),
	)
	s.ts = httptest.NewServer(s.srv.Handler())
	s.client = client.New(s.ts.URL)
	s.dc = homeroom.New(s.client)
}

func (s *ServerTestSuite) TearDownTest() {
	s.srv.Close()
	s.ts.Close()
	s.Require().NoError(s.store.Close())
}

func (s *ServerTestSuite) ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	s.T().Cleanup(cancel)
	return ctx
}

func (s *ServerTestSuite) TestBoardLifecycle() {
	ctx := s.ctx()

	board, err := s.dc.CreateBoard(ctx, models.Patch{"title": "Maths", "id": "ignored"})
	s.Require().NoError(err)
	s.Equal(models.ID("id-1"), board.ID)
	s.Equal("Maths", board.Title)
	s.True(board.CreatedAt.Equal(fixedNow))

	s.dc.LoadBoards(ctx)
	s.Empty(s.dc.Error())
	s.Len(s.dc.Boards(), 1)

	s.dc.GetBoard(ctx, board.ID)
	s.Require().NotNil(s.dc.CurrentBoard())
	s.Equal("Maths", s.dc.CurrentBoard().Title)

	updated, err := s.dc.UpdateBoard(ctx, board.ID, models.Patch{"description": "Year 4"})
	s.Require().NoError(err)
	s.Equal("Maths", updated.Title, "update merges over the stored record")
	s.Equal("Year 4", updated.Description)
	s.Equal("Year 4", s.dc.CurrentBoard().Description)

	s.Require().NoError(s.dc.DeleteBoard(ctx, board.ID))
	s.Empty(s.dc.Boards())
	s.Nil(s.dc.CurrentBoard())

	s.dc.GetBoard(ctx, board.ID)
	s.Equal("Failed to load board", s.dc.Error())
}

func (s *ServerTestSuite) TestNestedItemsCascade() {
	ctx := s.ctx()

	board, err := s.dc.CreateBoard(ctx, models.Patch{"title": "Science"})
	s.Require().NoError(err)
	item, err := s.dc.CreateBoardItem(ctx, board.ID, models.Patch{"title": "Plant seeds", "boardId": "elsewhere"})
	s.Require().NoError(err)
	s.Equal(board.ID, item.BoardID, "parent comes from the path")

	s.dc.LoadBoardItems(ctx, board.ID)
	s.Require().Len(s.dc.BoardItems(), 1)

	_, err = s.dc.UpdateBoardItem(ctx, board.ID, item.ID, models.Patch{"status": "completed"})
	s.Require().NoError(err)
	s.Equal(models.BoardItemCompleted, s.dc.BoardItems()[0].Status)

	s.Require().NoError(s.dc.DeleteBoard(ctx, board.ID))

	children, err := s.store.List(ctx, models.KindBoardItem, board.ID)
	s.Require().NoError(err)
	s.Empty(children)

	s.dc.LoadBoardItems(ctx, board.ID)
	s.Equal("Failed to load board items", s.dc.Error())
}

func (s *ServerTestSuite) TestMissingParent() {
	err := s.client.Do(s.ctx(), http.MethodPost, models.KindPlannerItem.CollectionPath("nope"),
		models.Patch{"title": "x", "date": "2024-09-02"}, nil)
	s.True(client.IsStatus(err, http.StatusNotFound), "%v", err)
	s.Contains(err.Error(), "planner nope not found")
}

func (s *ServerTestSuite) TestValidation() {
	ctx := s.ctx()

	testcases := []struct {
		name string
		path string
		body models.Patch
		msg  string
	}{
		{"board title", models.KindBoard.CollectionPath(""), models.Patch{}, "title is required"},
		{"resource kind", models.KindResource.CollectionPath(""), models.Patch{"title": "r", "kind": "poster", "url": "https://example.com"}, "kind must be one of"},
		{"resource target", models.KindResource.CollectionPath(""), models.Patch{"title": "r", "kind": "link"}, "resource needs a url or a filePath"},
		{"resource url", models.KindResource.CollectionPath(""), models.Patch{"title": "r", "kind": "link", "url": "not a url"}, "url must be a valid URL"},
		{"planner range", models.KindPlanner.CollectionPath(""), models.Patch{"title": "p", "startDate": "2024-12-20", "endDate": "2024-09-02"}, "endDate must not be before startDate"},
		{"planner dates", models.KindPlanner.CollectionPath(""), models.Patch{"title": "p", "startDate": "2024-09-02"}, "endDate is required"},
		{"planner date format", models.KindPlanner.CollectionPath(""), models.Patch{"title": "p", "startDate": "02/09/2024"}, "malformed planner"},
		{"lesson duration", models.KindLesson.CollectionPath(""), models.Patch{"title": "l", "durationMinutes": -5}, "durationMinutes must be at least 0"},
	}

	for _, tc := range testcases {
		s.Run(tc.name, func() {
			err := s.client.Do(ctx, http.MethodPost, tc.path, tc.body, nil)
			s.True(client.IsStatus(err, http.StatusBadRequest), "%v", err)
			s.Contains(err.Error(), tc.msg)
		})
	}

	s.Run("invalid update keeps record", func() {
		board, err := s.dc.CreateBoard(ctx, models.Patch{"title": "Keep"})
		s.Require().NoError(err)
		_, err = s.dc.UpdateBoard(ctx, board.ID, models.Patch{"title": ""})
		s.Require().Error(err)
		s.Equal("Failed to update board", err.Error())

		s.dc.GetBoard(ctx, board.ID)
		s.Equal("Keep", s.dc.CurrentBoard().Title)
	})
}

func (s *ServerTestSuite) TestPlannerItems() {
	ctx := s.ctx()

	planner, err := s.dc.CreatePlanner(ctx, models.Patch{"title": "Autumn", "startDate": "2024-09-02", "endDate": "2024-12-20"})
	s.Require().NoError(err)
	s.Equal("2024-12-20", planner.EndDate.String())

	_, err = s.dc.CreatePlannerItem(ctx, planner.ID, models.Patch{"title": "Fractions", "date": "2024-09-03", "lessonId": "missing"})
	s.Require().Error(err)
	s.True(client.IsStatus(err, http.StatusBadRequest))

	lesson, err := s.dc.CreateLesson(ctx, models.Patch{"title": "Fractions", "subject": "math"})
	s.Require().NoError(err)

	item, err := s.dc.CreatePlannerItem(ctx, planner.ID, models.Patch{
		"title": "Fractions", "date": "2024-09-03", "lessonId": lesson.ID, "startTime": "09:00", "endTime": "09:45",
	})
	s.Require().NoError(err)
	s.Equal(lesson.ID, item.LessonID)
	s.Equal(planner.ID, item.PlannerID)
	s.True(planner.Covers(item.Date))

	s.dc.LoadPlannerItems(ctx, planner.ID)
	s.Len(s.dc.PlannerItems(), 1)

	s.Require().NoError(s.dc.DeletePlannerItem(ctx, planner.ID, item.ID))
	s.Empty(s.dc.PlannerItems())
}

func (s *ServerTestSuite) TestLiveFeed() {
	ctx := s.ctx()

	url, err := live.URL(s.ts.URL)
	s.Require().NoError(err)
	sub, err := live.Subscribe(ctx, url)
	s.Require().NoError(err)
	defer sub.Close()

	s.Require().Eventually(func() bool { return s.srv.Hub().Len() == 1 }, time.Second, 10*time.Millisecond)

	// A second client whose changes the first one should see.
	other := homeroom.New(client.New(s.ts.URL))
	s.dc.LoadResources(ctx)

	created, err := other.CreateResource(ctx, models.Patch{"title": "Number line", "kind": "worksheet", "filePath": "files/numberline.pdf"})
	s.Require().NoError(err)

	select {
	case n := <-sub.Notifications():
		s.Equal(live.CreateAction, n.Action)
		s.Equal(models.KindResource, n.Kind)
		s.Equal(created.ID, n.ID)
		s.Require().NoError(s.dc.Apply(n))
	case <-ctx.Done():
		s.FailNow("no notification")
	}

	s.Require().Len(s.dc.Resources(), 1)
	s.Equal("Number line", s.dc.Resources()[0].Title)
}

func (s *ServerTestSuite) TestHealthAndUnknownRoutes() {
	ctx := s.ctx()

	health, err := s.client.Health(ctx)
	s.Require().NoError(err)
	s.Equal("ok", health["status"])

	resp, err := http.Get(s.ts.URL + "/api/unknown")
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.JSONEq(`{"error":"not found"}`, string(body))

	req, err := http.NewRequest(http.MethodGet, s.ts.URL+"/api/boards", nil)
	s.Require().NoError(err)
	req.Header.Set(models.RequestIDHeader, "trace-me")
	resp2, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp2.Body.Close()
	s.Equal("trace-me", resp2.Header.Get(models.RequestIDHeader))
}

func (s *ServerTestSuite) TestMalformedBody() {
	req, err := http.NewRequest(http.MethodPost, s.ts.URL+"/api/boards", strings.NewReader(`[1,2]`))
	s.Require().NoError(err)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("application/json", resp.Header.Get("Content-Type"))
}

func TestRun_shutsDownOnCancel(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	srv := server.New(store.NewMemory())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx, addr, srv.Handler(), time.Second, zerolog.Nop()) }()

	c := client.New("http://" + addr)
	require.Eventually(t, func() bool {
		_, err := c.Health(context.Background())
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRun_listenError(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	err = server.Run(context.Background(), l.Addr().String(), http.NotFoundHandler(), time.Second, zerolog.Nop())
	require.Error(t, err)
}
