package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ClientConfig -> tunable reconnect/heartbeat untuk sisi client.
type ClientConfig struct {
	PingInterval time.Duration
	BackoffBase  time.Duration
	BackoffCap   time.Duration
	MaxAttempts  int
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval: 25 * time.Second,
		BackoffBase:  1 * time.Second,
		BackoffCap:   30 * time.Second,
		MaxAttempts:  5,
	}
}

// Client adalah koneksi persistent ke endpoint /ws. Registrasi dikirim dua
// jalur sekaligus (query param saat dial + pesan register-* eksplisit).
// Putus abnormal memicu reconnect otomatis dengan exponential backoff yang
// dibatasi; setelah batas habis client diam sampai Reconnect() manual.
// Pesan keluar selama offline diantrikan dan di-flush berurutan saat
// tersambung lagi. Event masuk hanyalah hint untuk re-fetch; state otoritatif
// selalu diambil ulang lewat REST setelah reconnect.
type Client struct {
	url          string
	restaurantID uint
	tableID      uint
	cfg          ClientConfig

	// OnEvent dipanggil untuk setiap event server. Handler harus idempotent:
	// duplikasi dan out-of-order delivery mungkin terjadi lintas reconnect.
	OnEvent func(Event)

	dialer *websocket.Dialer
	// after di-override oleh test untuk mengintersep delay backoff
	after func(time.Duration) <-chan time.Time

	mu       sync.Mutex
	wmu      sync.Mutex
	conn     *websocket.Conn
	connDone chan struct{}
	queue    []ClientMessage
	attempts int
	gaveUp   bool
	closed   bool
}

// NewClient; url tanpa query string, mis. "ws://host:8080/ws".
// tableID 0 untuk client staff (subscribe seluruh restoran).
func NewClient(url string, restaurantID, tableID uint, cfg ClientConfig) *Client {
	if cfg.PingInterval <= 0 {
		cfg = DefaultClientConfig()
	}
	return &Client{
		url:          url,
		restaurantID: restaurantID,
		tableID:      tableID,
		cfg:          cfg,
		dialer:       websocket.DefaultDialer,
		after:        time.After,
	}
}

func (c *Client) dialURL() string {
	u := fmt.Sprintf("%s?restaurantId=%d", c.url, c.restaurantID)
	if c.tableID != 0 {
		u += fmt.Sprintf("&tableId=%d", c.tableID)
	}
	return u
}

// Connect membuka koneksi, mengirim pesan register-*, lalu mem-flush antrian
// offline secara berurutan. Sukses connect me-reset counter backoff.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.closed = false
	c.mu.Unlock()

	conn, _, err := c.dialer.Dial(c.dialURL(), nil)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.connDone = done
	c.attempts = 0
	c.gaveUp = false
	queued := c.queue
	c.queue = nil
	c.mu.Unlock()

	c.writeMessage(conn, ClientMessage{Type: MsgRegisterRestaurant, RestaurantID: c.restaurantID})
	if c.tableID != 0 {
		c.writeMessage(conn, ClientMessage{Type: MsgRegisterTable, RestaurantID: c.restaurantID, TableID: c.tableID})
	}
	for _, msg := range queued {
		c.writeMessage(conn, msg)
	}

	go c.readLoop(conn, done)
	go c.pingLoop(conn, done)
	return nil
}

// Send mengirim pesan; saat disconnected pesan masuk antrian dan dikirim
// lagi begitu koneksi pulih.
func (c *Client) Send(msg ClientMessage) {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.queue = append(c.queue, msg)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if err := c.writeMessage(conn, msg); err != nil {
		c.mu.Lock()
		c.queue = append(c.queue, msg)
		c.mu.Unlock()
	}
}

func (c *Client) writeMessage(conn *websocket.Conn, msg ClientMessage) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return conn.WriteJSON(msg)
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			closed := c.closed
			c.mu.Unlock()

			// Close code 1000 adalah disconnect yang disengaja; selain itu
			// masuk jalur reconnect otomatis.
			if !closed && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.scheduleReconnect()
			}
			return
		}

		evt, err := Decode(raw)
		if err != nil {
			continue
		}
		if c.OnEvent != nil {
			c.OnEvent(evt)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.writeMessage(conn, ClientMessage{Type: MsgPing, Timestamp: time.Now().UnixMilli()}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// BackoffDelay -> min(base * 2^attempt, cap)
func BackoffDelay(base, capDelay time.Duration, attempt int) time.Duration {
	if attempt > 30 {
		return capDelay
	}
	d := base << uint(attempt)
	if d > capDelay {
		return capDelay
	}
	return d
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.closed || c.gaveUp {
		c.mu.Unlock()
		return
	}
	if c.attempts >= c.cfg.MaxAttempts {
		c.gaveUp = true
		c.mu.Unlock()
		return
	}
	delay := BackoffDelay(c.cfg.BackoffBase, c.cfg.BackoffCap, c.attempts)
	c.attempts++
	after := c.after
	c.mu.Unlock()

	go func() {
		<-after(delay)
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		if err := c.Connect(); err != nil {
			c.scheduleReconnect()
		}
	}()
}

// Reconnect adalah jalur manual (aksi user) yang me-reset counter percobaan.
func (c *Client) Reconnect() error {
	c.mu.Lock()
	c.attempts = 0
	c.gaveUp = false
	c.mu.Unlock()
	return c.Connect()
}

// Close menutup dengan close code 1000 sehingga tidak ada reconnect.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		c.wmu.Lock()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.wmu.Unlock()
		conn.Close()
	}
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// GaveUp melaporkan apakah reconnect otomatis sudah menyerah.
func (c *Client) GaveUp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gaveUp
}

// Attempts -> jumlah percobaan reconnect sejak koneksi sukses terakhir.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}
