package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func readCommand(t *testing.T, ctx context.Context, conn *websocket.Conn) Command {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return cmd
}

func waitClients(t *testing.T, srv *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for srv.NumClients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, srv.NumClients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServerSnapshotBroadcastAndEviction(t *testing.T) {
	nl, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer(nl.Addr().String())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, nl) }()

	// Published before anyone connects, so it only reaches clients
	// through the join snapshot.
	if err := srv.SetObject("visual/m/a", Object{Type: "sphere", Radius: 0.5}); err != nil {
		t.Fatalf("set object: %v", err)
	}

	wsURL := "ws://" + nl.Addr().String() + "/ws"
	dialCtx, dialCancel := context.WithTimeout(ctx, 5*time.Second)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	snap := readCommand(t, dialCtx, conn)
	if snap.Op != OpSetObject || snap.Path != "visual/m/a" {
		t.Fatalf("unexpected snapshot command %+v", snap)
	}
	waitClients(t, srv, 1)

	// A second connection lends its conn to a stand-in whose context is
	// already gone; the next publish must drop the stand-in and still
	// reach the healthy client.
	conn2, _, err := websocket.Dial(dialCtx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial second: %v", err)
	}
	readCommand(t, dialCtx, conn2)
	waitClients(t, srv, 2)

	deadCtx, deadCancel := context.WithCancel(context.Background())
	deadCancel()
	srv.mu.Lock()
	srv.clients["dead"] = &client{id: "dead", conn: conn2, ctx: deadCtx}
	srv.mu.Unlock()

	if err := srv.SetProperty("visual/m/a", "visible", false); err != nil {
		t.Fatalf("set property: %v", err)
	}

	srv.mu.Lock()
	_, deadAlive := srv.clients["dead"]
	srv.mu.Unlock()
	if deadAlive {
		t.Error("client with cancelled context not evicted on publish")
	}

	got := readCommand(t, dialCtx, conn)
	if got.Op != OpSetProperty || got.Property != "visible" {
		t.Fatalf("unexpected broadcast command %+v", got)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop on context cancellation")
	}
}
