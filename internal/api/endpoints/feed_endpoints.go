package endpoints

import (
	"fmt"
	"net/http"
	"strings"

	"helium-admin-backend/internal/changefeed"

	"github.com/google/uuid"
)

type FeedEndpoints interface {
	Join(http.ResponseWriter, *http.Request) error
	Tables(http.ResponseWriter, *http.Request) error
}

type feedEndpoints struct {
	handler *changefeed.Handler
	prefix  string
}

func NewFeedEndpoints(handler *changefeed.Handler, prefix string) FeedEndpoints {
	return &feedEndpoints{
		handler: handler,
		prefix:  strings.TrimRight(prefix, "/") + "/feed/",
	}
}

// Join upgrades /feed/{table} to a websocket that streams the table's
// change events until the client disconnects.
func (h *feedEndpoints) Join(w http.ResponseWriter, r *http.Request) error {
	table := strings.Trim(strings.TrimPrefix(r.URL.Path, h.prefix), "/")
	if table == "" {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "table is required",
			ErrorLog:   fmt.Errorf("feed join without table: %s", r.URL.Path),
		}
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	h.handler.JoinTable(w, r, table, clientID)
	return nil
}

func (h *feedEndpoints) Tables(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) error {
			h.handler.GetTables(w, r)
			return nil
		},
	})
}
