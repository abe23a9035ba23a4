package changefeed

type Hub struct {
	Tables     map[string]*Table
	Register   chan *FeedClient
	Unregister chan *FeedClient
	Broadcast  chan *FeedMessage
}

func NewHub() *Hub {
	return &Hub{
		Tables:     make(map[string]*Table),
		Register:   make(chan *FeedClient),
		Unregister: make(chan *FeedClient),
		Broadcast:  make(chan *FeedMessage),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			table, ok := h.Tables[client.Table]
			if !ok {
				// Unknown table; drop the registration.
				continue
			}
			table.Clients[client.ID] = client
			incConnections()

		case client := <-h.Unregister:
			table, ok := h.Tables[client.Table]
			if !ok {
				continue
			}
			if _, ok := table.Clients[client.ID]; ok {
				delete(table.Clients, client.ID)
				close(client.Message)
				decConnections()
			}

		case message := <-h.Broadcast:
			table, ok := h.Tables[message.Table]
			if !ok {
				continue
			}
			delivered := 0
			for _, client := range table.Clients {
				select {
				case client.Message <- message:
					delivered++
				default:
					// Slow consumer; drop it rather than stall the feed.
					close(client.Message)
					delete(table.Clients, client.ID)
					decConnections()
				}
			}
			if delivered > 0 {
				addDelivered(delivered)
			}
		}
	}
}
