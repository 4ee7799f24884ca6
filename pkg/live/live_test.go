package live_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/homeroomhq/homeroom/pkg/live"
	"github.com/homeroomhq/homeroom/pkg/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*live.Hub, string) {
	t.Helper()
	hub := live.NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	url, err := live.URL(srv.URL)
	require.NoError(t, err)
	return hub, url
}

func receive(t *testing.T, sub *live.Subscription) (live.Notification, bool) {
	t.Helper()
	select {
	case n, ok := <-sub.Notifications():
		return n, ok
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
		return live.Notification{}, false
	}
}

func TestHub_publishReachesSubscriber(t *testing.T) {
	hub, url := startHub(t)

	sub, err := live.Subscribe(context.Background(), url)
	require.NoError(t, err)
	defer sub.Close()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(live.Notification{
		Action:   live.CreateAction,
		Kind:     models.KindBoardItem,
		ID:       "i1",
		ParentID: "b1",
		Record:   []byte(`{"id":"i1","boardId":"b1","title":"Intro"}`),
	}))

	n, ok := receive(t, sub)
	require.True(t, ok)
	assert.Equal(t, live.CreateAction, n.Action)
	assert.Equal(t, models.KindBoardItem, n.Kind)
	assert.Equal(t, models.ID("b1"), n.ParentID)

	var item models.BoardItem
	require.NoError(t, n.Decode(&item))
	assert.Equal(t, "Intro", item.Title)
}

func TestHub_closeEndsSubscription(t *testing.T) {
	hub, url := startHub(t)

	sub, err := live.Subscribe(context.Background(), url)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 5*time.Second, 10*time.Millisecond)

	hub.Close()
	_, ok := receive(t, sub)
	assert.False(t, ok)
	assert.NoError(t, sub.Err())
	assert.ErrorIs(t, hub.Publish(live.Notification{}), live.ErrClosed)
}

func TestSubscribe_contextCancel(t *testing.T) {
	hub, url := startHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := live.Subscribe(ctx, url)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	_, ok := receive(t, sub)
	assert.False(t, ok)
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestURL(t *testing.T) {
	u, err := live.URL("https://homeroom.example/")
	require.NoError(t, err)
	assert.Equal(t, "wss://homeroom.example/api/live", u)

	u, err = live.URL("http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/api/live", u)

	_, err = live.URL("ftp://homeroom.example")
	require.Error(t, err)
}

func TestNotification_decodeWithoutRecord(t *testing.T) {
	n := live.Notification{Action: live.DeleteAction, Kind: models.KindBoard, ID: "b1"}
	var b models.Board
	require.Error(t, n.Decode(&b))
}
