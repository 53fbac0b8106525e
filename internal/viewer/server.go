package viewer

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// DefaultAddr is where the viewer listens unless told otherwise.
const DefaultAddr = ":8080"

// Server publishes scene commands to browser clients over a websocket.
// New clients first receive a snapshot of everything published so far.
type Server struct {
	addr  string
	scene *SceneTree

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
	ctx  context.Context
}

func NewServer(addr string) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		addr:    addr,
		scene:   NewSceneTree(),
		clients: make(map[string]*client),
	}
}

func (s *Server) Addr() string      { return s.addr }
func (s *Server) Scene() *SceneTree { return s.scene }

// writeTimeout bounds a single client write so a stalled connection is
// dropped instead of stalling the broadcast.
const writeTimeout = 5 * time.Second

// Publish applies a command to the scene and fans it out to every
// connected client. Writes happen outside the client lock, so a slow
// client never blocks NumClients or new connections.
func (s *Server) Publish(cmd Command) error {
	if err := s.scene.Apply(cmd); err != nil {
		return err
	}
	data, err := cmd.encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	var failed []string
	for _, c := range targets {
		wctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
		err := c.conn.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			c.conn.Close(websocket.StatusInternalError, "write failed")
			failed = append(failed, c.id)
		}
	}

	if len(failed) > 0 {
		s.mu.Lock()
		for _, id := range failed {
			delete(s.clients, id)
		}
		s.mu.Unlock()
	}
	return nil
}

// SetObject, SetTransform, SetProperty and Delete are Publish shorthands.

func (s *Server) SetObject(path string, obj Object) error {
	return s.Publish(Command{Op: OpSetObject, Path: path, Object: &obj})
}

func (s *Server) SetTransform(path string, matrix [16]float64) error {
	return s.Publish(Command{Op: OpSetTransform, Path: path, Matrix: matrix[:]})
}

func (s *Server) SetProperty(path, property string, value any) error {
	return s.Publish(Command{Op: OpSetProperty, Path: path, Property: property, Value: value})
}

func (s *Server) Delete(path string) error {
	return s.Publish(Command{Op: OpDelete, Path: path})
}

// NumClients reports the connected client count.
func (s *Server) NumClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// ListenAndServe blocks until the context is cancelled or the server
// fails. The page is served at / and the command stream at /ws.
func (s *Server) ListenAndServe(ctx context.Context) error {
	nl, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("viewer: listen %s: %w", s.addr, err)
	}
	defer nl.Close()
	return s.Serve(ctx, nl)
}

// Serve runs the viewer on an existing listener.
func (s *Server) Serve(ctx context.Context, nl net.Listener) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handlePage)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.handleWS(ctx, w, r)
	})

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(nl)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, viewerPage)
}

func (s *Server) handleWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		fmt.Printf("viewer: websocket accept: %v\n", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, ctx: ctx}

	// Bring the new client up to date before it joins the broadcast set.
	for _, cmd := range s.scene.Snapshot() {
		data, err := cmd.encode()
		if err != nil {
			conn.Close(websocket.StatusInternalError, "snapshot encode failed")
			return
		}
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			conn.Close(websocket.StatusInternalError, "snapshot write failed")
			return
		}
	}

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()

	// Drain the read side until the client hangs up.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	conn.Close(websocket.StatusNormalClosure, "")
}
