package cache

import "github.com/dinetap/table-service/realtime"

// Resource names yang dipakai sebagai prefix tag.
const (
	ResourceSessions  = "sessions"
	ResourceOrders    = "orders"
	ResourceBills     = "bills"
	ResourceCustomers = "customers"
	ResourceTables    = "tables"
)

// TagsForEvent memetakan setiap broadcast event ke tag yang harus
// diinvalidasi. Switch-nya exhaustive atas union payload; event yang tidak
// menyentuh data ter-cache mengembalikan nil. Melewatkan satu tag di sini
// berarti UI basi, jadi tabel ini yang diuji per jenis mutasi.
func TagsForEvent(evt realtime.Event) []string {
	switch p := evt.Payload.(type) {
	case realtime.NewOrderReceived:
		tags := []string{
			Tag(ResourceOrders, 0),
			Tag(ResourceOrders, p.Order.ID),
			Tag(ResourceSessions, p.Order.TableSessionID),
			Tag(ResourceCustomers, p.Order.CustomerID),
		}
		return tags
	case realtime.OrderStatusUpdated:
		return []string{
			Tag(ResourceOrders, p.OrderID),
			Tag(ResourceSessions, p.SessionID),
		}
	case realtime.TableStatusChanged:
		return []string{
			Tag(ResourceTables, 0),
			Tag(ResourceTables, p.TableID),
		}
	case realtime.BillRequested:
		return []string{
			Tag(ResourceBills, 0),
			Tag(ResourceSessions, p.SessionID),
		}
	case realtime.PaymentReceived:
		tags := []string{
			Tag(ResourceBills, p.BillID),
			Tag(ResourceSessions, p.SessionID),
		}
		if p.CustomerID != nil {
			tags = append(tags, Tag(ResourceCustomers, *p.CustomerID))
		}
		return tags
	case realtime.SessionTotalsUpdated:
		return []string{Tag(ResourceSessions, p.SessionID)}
	case realtime.ConnectionEstablished, realtime.RegistrationConfirmed, realtime.Pong:
		return nil
	}
	return nil
}

// Invalidator menghubungkan realtime.Client dengan Manager: setiap event
// masuk diperlakukan sebagai hint invalidasi, bukan sumber data.
func Invalidator(m *Manager) func(realtime.Event) {
	return func(evt realtime.Event) {
		if tags := TagsForEvent(evt); len(tags) > 0 {
			m.Invalidate(tags...)
		}
	}
}
