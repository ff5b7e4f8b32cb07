package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/dinetap/table-service/models"
)

// EventKind adalah nama event di wire format. Set-nya tertutup: decoder dan
// semua dispatch wajib switch exhaustive atas konstanta di bawah.
type EventKind string

const (
	EventConnectionEstablished EventKind = "connection-established"
	EventRegistrationConfirmed EventKind = "registration-confirmed"
	EventNewOrderReceived      EventKind = "new-order-received"
	EventOrderStatusUpdated    EventKind = "order-status-updated"
	EventTableStatusChanged    EventKind = "table-status-changed"
	EventBillRequested         EventKind = "bill-requested"
	EventPaymentReceived       EventKind = "payment-received"
	EventSessionTotalsUpdated  EventKind = "session-totals-updated"
	EventPong                  EventKind = "pong"
)

// Payload adalah tagged union tertutup untuk data event.
type Payload interface {
	Kind() EventKind
}

type ConnectionEstablished struct {
	Timestamp int64 `json:"timestamp"`
}

type RegistrationConfirmed struct {
	RestaurantID uint `json:"restaurantId"`
	TableID      uint `json:"tableId,omitempty"`
}

type NewOrderReceived struct {
	Order models.Order `json:"order"`
}

type OrderStatusUpdated struct {
	OrderID   uint               `json:"orderId"`
	SessionID uint               `json:"sessionId"`
	Status    models.OrderStatus `json:"status"`
}

type TableStatusChanged struct {
	TableID    uint `json:"tableId"`
	IsOccupied bool `json:"isOccupied"`
}

type BillRequested struct {
	SessionID   uint   `json:"sessionId"`
	RequestType string `json:"requestType"`
}

type PaymentReceived struct {
	BillID     uint  `json:"billId"`
	SessionID  uint  `json:"sessionId"`
	CustomerID *uint `json:"customerId,omitempty"`
}

type SessionTotalsUpdated struct {
	SessionID   uint    `json:"sessionId"`
	TotalAmount float64 `json:"totalAmount"`
	PaidAmount  float64 `json:"paidAmount"`
}

type Pong struct {
	Timestamp int64 `json:"timestamp"`
}

func (ConnectionEstablished) Kind() EventKind { return EventConnectionEstablished }
func (RegistrationConfirmed) Kind() EventKind { return EventRegistrationConfirmed }
func (NewOrderReceived) Kind() EventKind      { return EventNewOrderReceived }
func (OrderStatusUpdated) Kind() EventKind    { return EventOrderStatusUpdated }
func (TableStatusChanged) Kind() EventKind    { return EventTableStatusChanged }
func (BillRequested) Kind() EventKind         { return EventBillRequested }
func (PaymentReceived) Kind() EventKind       { return EventPaymentReceived }
func (SessionTotalsUpdated) Kind() EventKind  { return EventSessionTotalsUpdated }
func (Pong) Kind() EventKind                  { return EventPong }

// Event adalah satu notifikasi yang diarahkan ke subscriber sebuah restoran
// (dan opsional satu meja). TableID 0 berarti seluruh restoran.
type Event struct {
	RestaurantID uint
	TableID      uint
	Payload      Payload
}

func (e Event) Kind() EventKind { return e.Payload.Kind() }

type wireMessage struct {
	Event EventKind       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Encode -> {"event": ..., "data": {...}}
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{Event: e.Kind(), Data: data})
}

// Decode membaca wire message menjadi Event dengan payload konkrit.
// Kind yang tidak dikenal adalah error, bukan fallback dinamis.
func Decode(raw []byte) (Event, error) {
	var wm wireMessage
	if err := json.Unmarshal(raw, &wm); err != nil {
		return Event{}, err
	}

	var payload Payload
	switch wm.Event {
	case EventConnectionEstablished:
		payload = &ConnectionEstablished{}
	case EventRegistrationConfirmed:
		payload = &RegistrationConfirmed{}
	case EventNewOrderReceived:
		payload = &NewOrderReceived{}
	case EventOrderStatusUpdated:
		payload = &OrderStatusUpdated{}
	case EventTableStatusChanged:
		payload = &TableStatusChanged{}
	case EventBillRequested:
		payload = &BillRequested{}
	case EventPaymentReceived:
		payload = &PaymentReceived{}
	case EventSessionTotalsUpdated:
		payload = &SessionTotalsUpdated{}
	case EventPong:
		payload = &Pong{}
	default:
		return Event{}, fmt.Errorf("unknown event kind %q", wm.Event)
	}

	if err := json.Unmarshal(wm.Data, payload); err != nil {
		return Event{}, err
	}
	return Event{Payload: deref(payload)}, nil
}

// deref mengembalikan payload by-value supaya switch di consumer bisa
// match tipe konkrit tanpa pointer.
func deref(p Payload) Payload {
	switch v := p.(type) {
	case *ConnectionEstablished:
		return *v
	case *RegistrationConfirmed:
		return *v
	case *NewOrderReceived:
		return *v
	case *OrderStatusUpdated:
		return *v
	case *TableStatusChanged:
		return *v
	case *BillRequested:
		return *v
	case *PaymentReceived:
		return *v
	case *SessionTotalsUpdated:
		return *v
	case *Pong:
		return *v
	}
	return p
}

// Pesan client->server.
const (
	MsgRegisterRestaurant = "register-restaurant"
	MsgRegisterTable      = "register-table"
	MsgPing               = "ping"
)

type ClientMessage struct {
	Type         string `json:"type"`
	RestaurantID uint   `json:"restaurantId,omitempty"`
	TableID      uint   `json:"tableId,omitempty"`
	Timestamp    int64  `json:"timestamp,omitempty"`
}

// Publisher adalah sisi kirim dari channel realtime. Mutasi domain hanya
// memanggil Publish dan tidak pernah menunggu/menggagalkan delivery.
type Publisher interface {
	Publish(Event)
}

// NopPublisher untuk test dan wiring yang belum butuh broadcast.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
