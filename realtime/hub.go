package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub menampung semua koneksi client (staff dashboard, device meja) dan
// menyiarkan event ke subscriber restoran/meja yang cocok. Hub dibuat lewat
// NewHub dan di-inject dari composition root; tidak ada state global supaya
// test bisa membuat instance terisolasi.
type Hub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}

	heartbeatTimeout time.Duration
	sendBuffer       int
	log              *logrus.Logger
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte

	mu           sync.Mutex
	restaurantID uint
	tableID      uint
}

func NewHub(heartbeatTimeout time.Duration, log *logrus.Logger) *Hub {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = 30 * time.Second
	}
	if log == nil {
		log = logrus.New()
	}
	return &Hub{
		clients:          make(map[*hubClient]struct{}),
		heartbeatTimeout: heartbeatTimeout,
		sendBuffer:       64,
		log:              log,
	}
}

// ClientCount -> jumlah koneksi aktif (untuk healthcheck/test).
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish menyiarkan event ke semua client yang terdaftar untuk restoran
// (dan meja, bila event-nya table-scoped). Fire-and-forget: client yang
// lambat di-drop pesannya, caller tidak pernah diblok.
func (h *Hub) Publish(evt Event) {
	data, err := Encode(evt)
	if err != nil {
		h.log.Errorf("encode event %s: %v", evt.Kind(), err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.matches(evt) {
			c.enqueue(data)
		}
	}
}

func (c *hubClient) matches(evt Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.restaurantID == 0 || c.restaurantID != evt.RestaurantID {
		return false
	}
	// Event restoran-wide sampai ke semua; event table-scoped hanya ke
	// client meja itu dan client staff (tanpa meja).
	return evt.TableID == 0 || c.tableID == 0 || c.tableID == evt.TableID
}

// enqueue tidak pernah blok; kalau buffer penuh pesan dibuang. Client
// mereconcile lewat re-fetch, bukan lewat delivery guarantee.
func (c *hubClient) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

// Serve menjalankan satu koneksi sampai putus. Registrasi awal boleh datang
// dari query param (restaurantID/tableID di sini) dan/atau dari pesan
// register-* eksplisit.
func (h *Hub) Serve(conn *websocket.Conn, restaurantID, tableID uint) {
	c := &hubClient{
		conn:         conn,
		send:         make(chan []byte, h.sendBuffer),
		restaurantID: restaurantID,
		tableID:      tableID,
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()

	c.enqueueEvent(ConnectionEstablished{Timestamp: time.Now().UnixMilli()})
	if restaurantID != 0 {
		c.enqueueEvent(RegistrationConfirmed{RestaurantID: restaurantID, TableID: tableID})
	}

	h.readPump(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
	conn.Close()
}

func (c *hubClient) enqueueEvent(p Payload) {
	data, err := Encode(Event{Payload: p})
	if err != nil {
		return
	}
	c.enqueue(data)
}

// readPump memproses pesan masuk dan memelihara read deadline. Tanpa ping
// dalam heartbeatTimeout koneksi dianggap mati dan ditutup; ini pengganti
// keepalive TCP karena proxy perantara bisa diam-diam memutus koneksi idle.
func (h *Hub) readPump(c *hubClient) {
	c.conn.SetReadDeadline(time.Now().Add(h.heartbeatTimeout))

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.log.Warnf("bad client message: %v", err)
			continue
		}

		switch msg.Type {
		case MsgRegisterRestaurant:
			c.mu.Lock()
			c.restaurantID = msg.RestaurantID
			c.tableID = 0
			c.mu.Unlock()
			c.enqueueEvent(RegistrationConfirmed{RestaurantID: msg.RestaurantID})
		case MsgRegisterTable:
			c.mu.Lock()
			c.restaurantID = msg.RestaurantID
			c.tableID = msg.TableID
			c.mu.Unlock()
			c.enqueueEvent(RegistrationConfirmed{RestaurantID: msg.RestaurantID, TableID: msg.TableID})
		case MsgPing:
			c.conn.SetReadDeadline(time.Now().Add(h.heartbeatTimeout))
			c.enqueueEvent(Pong{Timestamp: msg.Timestamp})
		default:
			h.log.Warnf("unknown client message type %q", msg.Type)
		}
	}
}

// writePump adalah satu-satunya penulis ke koneksi; antrian tunggal ini yang
// menjamin urutan pesan per koneksi.
func (c *hubClient) writePump() {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// Close menutup semua koneksi (dipakai saat shutdown dan di test).
// Hanya conn.Close: writePump adalah satu-satunya penulis frame, jadi
// close frame tidak boleh ditulis dari goroutine lain.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
}
