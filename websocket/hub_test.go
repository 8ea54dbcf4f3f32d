package websocket

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"rescuenet/models"

	"github.com/gorilla/websocket"
)

// newServerConn dials a throwaway echo server and hands back the upgraded
// server-side connection.
func newServerConn(t *testing.T) *websocket.Conn {
	t.Helper()

	conns := make(chan *websocket.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conns <- conn
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { clientConn.Close() })

	return <-conns
}

func newJoinedClient(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()

	client := NewClient(newServerConn(t), hub, httptest.NewRequest(http.MethodGet, "/ws", nil))
	client.role = models.RoleUser
	client.subscriberID = id
	client.isJoined = true
	return client
}

func waitForActive(t *testing.T, hub *Hub, want int, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetActiveConnections() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s: active connections = %d, want %d", msg, hub.GetActiveConnections(), want)
}

// Disconnects that happen while the hub loop is busy elsewhere must still be
// processed: the unregister waits for the hub instead of being dropped.
func TestDisconnectUnregistersWhileHubBusy(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	const count = 20
	clients := make([]*Client, 0, count)
	for i := 0; i < count; i++ {
		client := newJoinedClient(t, hub, fmt.Sprintf("user-%d", i))
		hub.registerClient(client)
		clients = append(clients, client)
	}

	if got := hub.GetActiveConnections(); got != count {
		t.Fatalf("active connections = %d, want %d", got, count)
	}

	// Nothing is receiving on the unregister channel yet.
	for _, client := range clients {
		go client.cleanup()
	}

	go hub.Run()

	waitForActive(t, hub, 0, "dead clients lingered in the hub")

	hub.mutex.RLock()
	rooms := len(hub.rooms)
	hub.mutex.RUnlock()
	if rooms != 0 {
		t.Errorf("%d rooms linger after every client left", rooms)
	}
}

// Multiple goroutines can reach cleanup for the same client; only one may
// run the teardown and none may panic.
func TestCleanupIsConcurrencySafe(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	client := newJoinedClient(t, hub, "user-1")
	hub.registerClient(client)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client.cleanup()
		}()
	}
	wg.Wait()

	waitForActive(t, hub, 0, "client not unregistered after concurrent cleanup")
}

func TestPublishReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	client := newJoinedClient(t, hub, "user-1")
	hub.register <- client

	waitForActive(t, hub, 1, "client not registered")

	hub.Publish(models.WSEventNewAlert, map[string]string{"id": "a1"})

	select {
	case message := <-client.send:
		if message.Type != models.WSEventNewAlert {
			t.Errorf("message type = %q, want %q", message.Type, models.WSEventNewAlert)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast never reached the client")
	}
}
