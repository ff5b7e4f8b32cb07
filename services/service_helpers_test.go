package services

import (
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/realtime"
	"github.com/dinetap/table-service/utils"
)

// setupTestDB -> SQLite in-memory dengan skema penuh + seed dasar.
// TranslateError wajib: conflict detection bergantung pada ErrDuplicatedKey.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	// :memory: hidup per koneksi; satu koneksi supaya semua goroutine
	// melihat database yang sama.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Restaurant{},
		&models.User{},
		&models.Table{},
		&models.TableSession{},
		&models.Customer{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Bill{},
		&models.BillItem{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db.Create(&models.Restaurant{Name: "Test Resto", TaxInclusive: true})
	db.Create(&models.Table{RestaurantID: 1, TableNumber: 5, Capacity: 4})
	db.Create(&models.Table{RestaurantID: 1, TableNumber: 6, Capacity: 2})
	db.Create(&models.MenuItem{RestaurantID: 1, Name: "Nasi Goreng", Price: 10.00, IsAvailable: true})
	db.Create(&models.MenuItem{RestaurantID: 1, Name: "Sate Ayam", Price: 15.00, IsAvailable: true})
	db.Create(&models.MenuItem{RestaurantID: 1, Name: "Es Teler", Price: 5.00, IsAvailable: false})

	return db
}

// eventRecorder menangkap event yang dipublish service untuk diverifikasi.
type eventRecorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *eventRecorder) Publish(e realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) kinds() []realtime.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]realtime.EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind()
	}
	return kinds
}

func (r *eventRecorder) has(kind realtime.EventKind) bool {
	for _, k := range r.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// seedParty -> sesi aktif dengan dua customer dan dua order (10.00 + 15.00),
// skenario meja 5 rombongan berdua.
func seedParty(t *testing.T, db *gorm.DB) (*SessionService, *OrderService, *models.TableSession, models.Customer, models.Customer) {
	t.Helper()

	sessions := NewSessionService(db, nil)
	customers := NewCustomerService(db)
	orders := NewOrderService(db, nil, sessions)

	session, err := sessions.Create(1, 5, 2)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	custA, err := customers.Register(session.ID, "Ayu", nil, nil)
	if err != nil {
		t.Fatalf("register customer A: %v", err)
	}
	custB, err := customers.Register(session.ID, "Budi", nil, nil)
	if err != nil {
		t.Fatalf("register customer B: %v", err)
	}

	if _, err := orders.Place(custA.ID, session.ID, []OrderItemInput{{MenuItemID: 1, Quantity: 1}}, ""); err != nil {
		t.Fatalf("order A: %v", err)
	}
	if _, err := orders.Place(custB.ID, session.ID, []OrderItemInput{{MenuItemID: 2, Quantity: 1}}, ""); err != nil {
		t.Fatalf("order B: %v", err)
	}

	session, err = sessions.Get(session.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	return sessions, orders, session, *custA, *custB
}
