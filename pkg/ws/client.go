package ws

import (
	"github.com/gorilla/websocket"
)

type Client struct {
	conn    *websocket.Conn
	channel string
	send    chan []byte
}

func NewClient(conn *websocket.Conn, channel string) *Client {
	if conn == nil {
		return nil
	}

	return &Client{
		conn:    conn,
		channel: channel,
		send:    make(chan []byte, 128),
	}
}

// Run pumps messages until the send channel closes or the connection
// breaks. The hub closes the send channel on unregister.
func (c *Client) Run() {
	defer c.conn.Close()

	for msg := range c.send {
		compressed, err := Compress(msg)
		if err != nil {
			continue
		}

		if err := c.conn.WriteMessage(websocket.TextMessage, compressed); err != nil {
			return
		}
	}
}
