package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/realtime"
	"github.com/dinetap/table-service/router"
	"github.com/dinetap/table-service/services"
	"github.com/dinetap/table-service/utils"
)

func setupTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
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
	))

	db.Create(&models.Restaurant{Name: "Warung Integrasi", TaxInclusive: true})
	db.Create(&models.Table{RestaurantID: 1, TableNumber: 5, Capacity: 4})
	db.Create(&models.MenuItem{RestaurantID: 1, Name: "Nasi Goreng", Price: 10.00, IsAvailable: true})
	db.Create(&models.MenuItem{RestaurantID: 1, Name: "Sate Ayam", Price: 15.00, IsAvailable: true})

	hub := realtime.NewHub(30*time.Second, utils.InfoLogger)
	notifier := services.NewEmailNotifier(utils.InfoLogger)
	return router.SetupRouter(db, hub, hub, notifier), db
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func decodeData(t *testing.T, resp apiResponse, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

// Alur lengkap satu rombongan: buka meja 5, dua customer, order 10+15,
// individual bill, lunas semua -> sesi completed dan meja bebas.
func TestFullTableSessionFlow(t *testing.T) {
	r, db := setupTestServer(t)

	// Staff account untuk route ber-auth.
	w, _ := doJSON(t, r, "POST", "/register", "", gin.H{
		"restaurant_id": 1,
		"name":          "Staff Satu",
		"email":         "staff@warung.test",
		"password":      "rahasia-banget",
		"role":          "staff",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, loginResp := doJSON(t, r, "POST", "/login", "", gin.H{
		"email":    "staff@warung.test",
		"password": "rahasia-banget",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	decodeData(t, loginResp, &login)
	require.NotEmpty(t, login.Token)

	// Customer A scan meja 5 dan membuka sesi.
	w, resp := doJSON(t, r, "POST", "/restaurants/1/table-sessions", "", gin.H{
		"table_number": 5,
		"party_size":   2,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var session models.TableSession
	decodeData(t, resp, &session)
	assert.Equal(t, models.SessionWaiting, session.Status)

	// Scan kedua di meja yang sama: 409 dengan envelope error seragam.
	w, _ = doJSON(t, r, "POST", "/restaurants/1/table-sessions", "", gin.H{
		"table_number": 5,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	var envelope struct {
		Type      string                 `json:"type"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details"`
		Timestamp time.Time              `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "conflict", envelope.Type)
	assert.EqualValues(t, session.ID, envelope.Details["existing_session_id"])
	assert.False(t, envelope.Timestamp.IsZero())

	// Dua customer mendaftar; yang pertama jadi main.
	registerCustomer := func(name string) models.Customer {
		w, resp := doJSON(t, r, "POST", "/restaurants/1/customers", "", gin.H{
			"table_session_id": session.ID,
			"name":             name,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		var cust models.Customer
		decodeData(t, resp, &cust)
		return cust
	}
	custA := registerCustomer("Ayu")
	custB := registerCustomer("Budi")
	assert.True(t, custA.IsMainCustomer)
	assert.False(t, custB.IsMainCustomer)

	// A order 10.00; order pertama mengaktifkan sesi.
	w, _ = doJSON(t, r, "POST", "/restaurants/1/orders", "", gin.H{
		"customer_id":      custA.ID,
		"table_session_id": session.ID,
		"items":            []gin.H{{"menu_item_id": 1, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// B order 15.00.
	w, _ = doJSON(t, r, "POST", "/restaurants/1/orders", "", gin.H{
		"customer_id":      custB.ID,
		"table_session_id": session.ID,
		"items":            []gin.H{{"menu_item_id": 2, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	sessionPath := fmt.Sprintf("/restaurants/1/table-sessions/%d", session.ID)
	w, resp = doJSON(t, r, "GET", sessionPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var active models.TableSession
	decodeData(t, resp, &active)
	assert.Equal(t, models.SessionActive, active.Status)
	assert.InDelta(t, 25.00, active.TotalAmount, 0.001)

	// Minta bill individual.
	w, _ = doJSON(t, r, "POST", sessionPath+"/request-bill", "", gin.H{
		"customer_id":  custA.ID,
		"request_type": "individual",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Generate bill butuh staff token.
	w, _ = doJSON(t, r, "POST", sessionPath+"/bills", "", gin.H{
		"bill_type": "individual",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp = doJSON(t, r, "POST", sessionPath+"/bills", login.Token, gin.H{
		"bill_type": "individual",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var bills []models.Bill
	decodeData(t, resp, &bills)
	require.Len(t, bills, 2)

	billOf := func(customerID uint) models.Bill {
		for _, b := range bills {
			if b.CustomerID != nil && *b.CustomerID == customerID {
				return b
			}
		}
		t.Fatalf("no bill for customer %d", customerID)
		return models.Bill{}
	}
	assert.InDelta(t, 10.00, billOf(custA.ID).Total, 0.001)
	assert.InDelta(t, 15.00, billOf(custB.ID).Total, 0.001)

	// A bayar duluan: sesi masih menunggu bill B.
	payPath := fmt.Sprintf("/restaurants/1/bills/%d", billOf(custA.ID).ID)
	w, _ = doJSON(t, r, "PUT", payPath, login.Token, gin.H{
		"status":         "paid",
		"payment_method": "card",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doJSON(t, r, "GET", sessionPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mid models.TableSession
	decodeData(t, resp, &mid)
	assert.Equal(t, models.SessionBillRequested, mid.Status)
	assert.InDelta(t, 10.00, mid.PaidAmount, 0.001)

	// B lunas: sesi completed, meja 5 bebas lagi.
	payPath = fmt.Sprintf("/restaurants/1/bills/%d", billOf(custB.ID).ID)
	w, _ = doJSON(t, r, "PUT", payPath, login.Token, gin.H{
		"status":         "paid",
		"payment_method": "cash",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doJSON(t, r, "GET", sessionPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var done models.TableSession
	decodeData(t, resp, &done)
	assert.Equal(t, models.SessionCompleted, done.Status)
	assert.InDelta(t, 25.00, done.PaidAmount, 0.001)

	var table models.Table
	require.NoError(t, db.First(&table, 1).Error)
	assert.False(t, table.IsOccupied)

	// Tidak ada lagi sesi aktif di meja 5.
	w, _ = doJSON(t, r, "GET", "/restaurants/1/tables/1/session", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Meja bisa dibuka rombongan berikutnya.
	w, _ = doJSON(t, r, "POST", "/restaurants/1/table-sessions", "", gin.H{
		"table_number": 5,
		"party_size":   3,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestIllegalTransitionReturns422(t *testing.T) {
	r, _ := setupTestServer(t)

	w, _ := doJSON(t, r, "POST", "/register", "", gin.H{
		"restaurant_id": 1,
		"name":          "Admin",
		"email":         "admin@warung.test",
		"password":      "rahasia-banget",
		"role":          "admin",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w, loginResp := doJSON(t, r, "POST", "/login", "", gin.H{
		"email":    "admin@warung.test",
		"password": "rahasia-banget",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	decodeData(t, loginResp, &login)

	w, resp := doJSON(t, r, "POST", "/restaurants/1/table-sessions", "", gin.H{
		"table_number": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var session models.TableSession
	decodeData(t, resp, &session)

	// waiting -> completed tidak ada di tabel transisi.
	w, _ = doJSON(t, r, "PUT",
		fmt.Sprintf("/restaurants/1/table-sessions/%d", session.ID), login.Token,
		gin.H{"status": "completed"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var envelope struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "business_rule_violation", envelope.Type)
}
