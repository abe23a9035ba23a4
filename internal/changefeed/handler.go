package changefeed

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"helium-admin-backend/internal/env"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
)

var (
	upgrader    websocket.Upgrader
	redisClient *redis.Client
)

func init() {
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	redisClient = redis.NewClient(&redis.Options{
		Addr:     env.Get(env.FeedRedisURL),
		Password: env.Get(env.FeedRedisPass),
		DB:       0,
	})
}

type Handler struct {
	hub         *Hub
	redisClient *redis.Client
}

func NewHandler(h *Hub) *Handler {
	return &Handler{
		hub:         h,
		redisClient: redisClient,
	}
}

func (h *Handler) subscribeToTableChannel(table string) {
	if _, exists := h.hub.Tables[table]; !exists {
		log.Printf("Table %s not open for subscription", table)
		return
	}

	subscriber := h.redisClient.Subscribe(context.Background(), Channel(table))
	defer subscriber.Close()

	ch := subscriber.Channel()
	for msg := range ch {
		h.hub.Broadcast <- &FeedMessage{
			Content:   msg.Payload,
			Table:     table,
			Timestamp: time.Now().Unix(),
		}
	}
	log.Printf("Unsubscribed from feed channel: %s", table)
}

// OpenTable registers a table on the hub and bridges its Redis channel into
// the broadcast loop. Opening an already-open table is a no-op.
func (h *Handler) OpenTable(table string) {
	if _, exists := h.hub.Tables[table]; exists {
		return
	}

	h.hub.Tables[table] = &Table{
		Name:    table,
		Clients: make(map[string]*FeedClient),
	}
	setTables(len(h.hub.Tables))

	go h.subscribeToTableChannel(table)
}

// JoinTable upgrades the request and streams the table's events to the client
// until it disconnects.
func (h *Handler) JoinTable(w http.ResponseWriter, r *http.Request, table, clientID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if conn == nil {
		http.Error(w, "Error conn", http.StatusBadRequest)
		return
	}

	cl := &FeedClient{
		Conn:     conn,
		Message:  make(chan *FeedMessage, 10),
		ID:       clientID,
		Table:    table,
		done:     make(chan struct{}),
		isClosed: false,
	}

	h.hub.Register <- cl

	go cl.keepAlive()
	go cl.writeMessage()
	go cl.readMessage(h.hub)
}

func (h *Handler) GetTables(w http.ResponseWriter, r *http.Request) {
	tables := make([]TableRes, 0)

	for _, table := range h.hub.Tables {
		tables = append(tables, TableRes{
			Name: table.Name,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(tables)
}
