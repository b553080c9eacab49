package ws

// Hub maintains the set of active clients and broadcasts messages to the
// clients of a channel. All map access happens on the Run goroutine.

type clients map[*Client]bool

type broadcastMsg struct {
	channel string
	message []byte
}

type Hub struct {
	clients  clients
	channels map[string]clients

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 64),
		clients:    make(clients),
		channels:   make(map[string]clients),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			if _, ok := h.channels[client.channel]; !ok {
				h.channels[client.channel] = make(clients)
			}
			h.channels[client.channel][client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.disconnect(client)
			}

		case msg := <-h.broadcast:
			for client := range h.channels[msg.channel] {
				select {
				case client.send <- msg.message:
				default:
					// A client with a full buffer is dropped rather
					// than blocking the broadcaster.
					h.disconnect(client)
				}
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) disconnect(client *Client) {
	delete(h.clients, client)
	delete(h.channels[client.channel], client)
	close(client.send)
}

// BroadCastByChannel sends the message to every client subscribed to the
// channel.
func (h *Hub) BroadCastByChannel(channel string, message []byte) {
	h.broadcast <- broadcastMsg{channel: channel, message: message}
}
