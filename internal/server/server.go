package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"starlanes/internal/game"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow connections from any origin
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Command-rate budget per client: sustained commands per second and the
// burst headroom. VR clients spam hover events, so this is generous.
const (
	commandRate  = 30
	commandBurst = 60
)

// Server handles HTTP and WebSocket connections
type Server struct {
	world *game.World
}

// NewServer creates a server around an already configured world.
func NewServer(world *game.World) *Server {
	return &Server{world: world}
}

// Start starts the server on the specified address
func (s *Server) Start(addr string) error {
	// Start the game world
	go s.world.Start()

	// Set up HTTP routes
	http.Handle("/", http.FileServer(http.Dir("./static")))
	http.HandleFunc("/ws", s.handleWebSocket)

	log.Printf("Server starting on %s", addr)
	return http.ListenAndServe(addr, nil)
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := game.NewClient(conn)
	if err := s.world.AddClient(client); err != nil {
		log.Printf("Rejecting connection: %v", err)
		conn.Close()
		return
	}

	// Start client goroutines
	go s.handleClientReads(client)
	go s.handleClientWrites(client)
}

// handleClientReads reads commands from the client. A per-client rate
// limiter drops command floods instead of letting one client starve the
// world lock.
func (s *Server) handleClientReads(client *game.Client) {
	defer func() {
		client.Conn.Close()
		s.world.RemoveClient(client.ID)
	}()

	limiter := rate.NewLimiter(rate.Limit(commandRate), commandBurst)

	// Set read deadline and pong handler for keepalive
	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if !limiter.Allow() {
			continue
		}

		var cmd game.CommandMsg
		if err := json.Unmarshal(messageBytes, &cmd); err != nil {
			log.Printf("Error unmarshaling command: %v", err)
			continue
		}

		s.world.HandleCommand(client.ID, cmd)
	}
}

// handleClientWrites sends messages to the client
func (s *Server) handleClientWrites(client *game.Client) {
	ticker := time.NewTicker(54 * time.Second) // Send ping every 54 seconds
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Payloads are compressed msgpack, so always binary frames.
			if err := client.Conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				log.Printf("Write error: %v", err)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
