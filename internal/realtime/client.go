package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/grace-connect/backend/internal/models"
	"github.com/grace-connect/backend/internal/registrations"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client represents a single WebSocket connection on a topic.
type Client struct {
	ID       string
	Topic    string
	UserID   uuid.UUID
	Role     string
	hub      *Hub
	workflow *registrations.Workflow // set on the registration topic
	conn     *websocket.Conn
	send     chan WSMessage
	logger   *zap.Logger
}

// WorkflowFactory builds a registration workflow for one form session.
type WorkflowFactory func() *registrations.Workflow

// ServeWs handles the WebSocket upgrade and runs the client loop.
// The activity topic requires a valid staff/admin token; the
// registration topic is public and gets an interactive lookup session.
func ServeWs(hub *Hub, logger *zap.Logger, jwtValidate func(token string) (userID, role string, err error), newWorkflow WorkflowFactory) gin.HandlerFunc {
	return func(c *gin.Context) {
		topic := c.Query("topic")

		client := &Client{
			ID:     uuid.New().String(),
			Topic:  topic,
			hub:    hub,
			send:   make(chan WSMessage, 256),
			logger: logger,
		}

		switch topic {
		case TopicActivity:
			token := c.Query("token")
			if token == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
				return
			}
			userIDStr, role, err := jwtValidate(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			client.UserID, _ = uuid.Parse(userIDStr)
			client.Role = role
		case TopicRegistration:
			client.workflow = newWorkflow()
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown topic"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		client.conn = conn

		if client.workflow != nil {
			// Push lookup outcomes back to this connection as they settle.
			client.workflow.OnResolution(func(res registrations.Resolution) {
				hub.SendToClient(client.Topic, client.ID, "member_resolution", res)
			})
		}

		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		if c.workflow != nil {
			c.workflow.Close()
		}
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "attendee_type_change":
			if c.workflow != nil {
				var payload struct {
					AttendeeType string `json:"attendee_type"`
				}
				if err := json.Unmarshal(msg.Data, &payload); err == nil {
					c.workflow.SetAttendeeType(models.AttendeeType(payload.AttendeeType))
				}
			}
		case "phone_change":
			if c.workflow != nil {
				var payload struct {
					Phone string `json:"phone"`
				}
				if err := json.Unmarshal(msg.Data, &payload); err == nil {
					c.workflow.PhoneChanged(payload.Phone)
				}
			}
		default:
			// ignore
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
