package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, session string) *Client {
	return &Client{
		hub:     hub,
		send:    make(chan *Event, 8),
		session: session,
	}
}

func TestHub_BroadcastToSession(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	viewerA := newTestClient(hub, "room-a")
	viewerA2 := newTestClient(hub, "room-a")
	viewerB := newTestClient(hub, "room-b")

	hub.register <- viewerA
	hub.register <- viewerA2
	hub.register <- viewerB

	// 等注册完成
	require.Eventually(t, func() bool {
		return hub.SessionViewers("room-a") == 2 && hub.SessionViewers("room-b") == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastToSession("room-a", "hello a")

	for _, viewer := range []*Client{viewerA, viewerA2} {
		select {
		case event := <-viewer.send:
			assert.Equal(t, "new-message", event.Event)
			assert.Equal(t, "room-a", event.Session)
			assert.Equal(t, "hello a", event.Message)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for broadcast")
		}
	}

	select {
	case <-viewerB.send:
		t.Fatal("room-b viewer received room-a broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SlowClientEvicted(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := &Client{hub: hub, send: make(chan *Event, 1), session: "room-a"}
	healthy := newTestClient(hub, "room-a")

	hub.register <- slow
	hub.register <- healthy
	require.Eventually(t, func() bool {
		return hub.SessionViewers("room-a") == 2
	}, time.Second, 10*time.Millisecond)

	// 第一条填满 slow 的缓冲，第二条触发踢出
	hub.BroadcastToSession("room-a", "one")
	hub.BroadcastToSession("room-a", "two")

	require.Eventually(t, func() bool {
		return hub.SessionViewers("room-a") == 1
	}, time.Second, 10*time.Millisecond)

	// 踢出之后继续广播不能让 hub 崩掉，健康客户端要收齐
	hub.BroadcastToSession("room-a", "three")

	var got []string
	for i := 0; i < 3; i++ {
		select {
		case event := <-healthy.send:
			got = append(got, event.Message.(string))
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for broadcast %d", i+1)
		}
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)

	// slow 的通道已被关闭：缓冲里那条读完后通道关闭
	event, open := <-slow.send
	require.True(t, open)
	assert.Equal(t, "one", event.Message)
	_, open = <-slow.send
	assert.False(t, open)
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	viewer := newTestClient(hub, "room-a")
	hub.register <- viewer

	require.Eventually(t, func() bool {
		return hub.SessionViewers("room-a") == 1
	}, time.Second, 10*time.Millisecond)

	hub.unregister <- viewer

	require.Eventually(t, func() bool {
		return hub.SessionViewers("room-a") == 0
	}, time.Second, 10*time.Millisecond)

	// 注销后 send 通道被关闭
	_, open := <-viewer.send
	assert.False(t, open)
}
