package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"series-explorer/src/models"
	"series-explorer/src/observability"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *ExplorerServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.trackConnections()
			// Send initial state on connect
			s.trySend(client, s.stateMessage(models.MessageInitial))

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				s.trackConnections()
			}

		case d := <-s.direct:
			if _, ok := s.clients[d.client]; ok {
				s.trySend(d.client, d.message)
			}

		case <-s.notify:
			message := s.stateMessage(models.MessageUpdate)
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					s.Logger.Warning("Dropping slow client %s", client.id)
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.trackConnections()

		case <-s.done:
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.trackConnections()
			return
		}
	}
}

func (s *ExplorerServer) trackConnections() {
	n := int64(len(s.clients))
	s.connections.Store(n)
	observability.WebsocketClients.Set(float64(n))
}

// -----------------------------------------------------------------------------

func (s *ExplorerServer) stateMessage(kind string) *models.MStateMessage {
	state := s.LatestState()
	return &models.MStateMessage{
		Type:      kind,
		State:     &state,
		Timestamp: time.Now().UTC().Unix(),
	}
}

func errorMessage(format string, args ...interface{}) *models.MStateMessage {
	return &models.MStateMessage{
		Type:      models.MessageError,
		Error:     fmt.Sprintf(format, args...),
		Timestamp: time.Now().UTC().Unix(),
	}
}

// reply queues a direct answer through the hub, which drops it if the
// client has already been unregistered.
func (s *ExplorerServer) reply(client *Client, message *models.MStateMessage) {
	select {
	case s.direct <- directMessage{client: client, message: message}:
	case <-s.done:
	}
}

// trySend never blocks: a full buffer means the client is already behind and
// the next broadcast will catch it up or drop it.
func (s *ExplorerServer) trySend(client *Client, message *models.MStateMessage) {
	select {
	case client.send <- message:
	default:
		s.Logger.Debug("Send buffer full for client %s, message dropped", client.id)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *ExplorerServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MStateMessage, 64),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}
	s.Logger.Debug("Client %s connected from %s", client.id, c.ClientIP())

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies one command received from a client. State
// changes reach every client through the next broadcast; only subscribe and
// errors are answered directly.
func (s *ExplorerServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse command from client %s: %v", client.id, err)
		s.reply(client, errorMessage("invalid command: %v", err))
		return
	}

	switch strings.ToLower(strings.TrimSpace(cmd.Command)) {
	case models.CommandSubscribe:
		s.reply(client, s.stateMessage(models.MessageInitial))

	case models.CommandToggle:
		if strings.TrimSpace(cmd.Series) == "" {
			s.reply(client, errorMessage("toggle requires a series"))
			return
		}
		s.Orchestrator.Toggle(strings.TrimSpace(cmd.Series))

	case models.CommandSelect:
		s.Orchestrator.Select(cmd.Symbols...)

	case models.CommandFilters:
		if cmd.Filters == nil {
			s.reply(client, errorMessage("filters command requires filters"))
			return
		}
		s.Orchestrator.SetFilters(*cmd.Filters)

	case models.CommandRefresh:
		s.Orchestrator.Refresh()

	default:
		s.reply(client, errorMessage("unknown command %q", cmd.Command))
	}
}
