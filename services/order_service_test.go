package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/realtime"
	"github.com/dinetap/table-service/utils"
)

func TestPlaceOrderActivatesSession(t *testing.T) {
	db := setupTestDB(t)
	rec := &eventRecorder{}
	sessions := NewSessionService(db, rec)
	customers := NewCustomerService(db)
	orders := NewOrderService(db, rec, sessions)

	session, err := sessions.Create(1, 5, 2)
	require.NoError(t, err)
	cust, err := customers.Register(session.ID, "Ayu", nil, nil)
	require.NoError(t, err)

	order, err := orders.Place(cust.ID, session.ID, []OrderItemInput{
		{MenuItemID: 1, Quantity: 1},
		{MenuItemID: 2, Quantity: 2},
	}, "pedas")
	require.NoError(t, err)

	// 10.00 + 2x15.00, harga snapshot dari menu saat order.
	assert.InDelta(t, 40.00, order.TotalAmount, 0.001)
	assert.Equal(t, models.OrderPending, order.Status)
	require.Len(t, order.OrderItems, 2)
	assert.InDelta(t, 10.00, order.OrderItems[0].Price, 0.001)

	// Order pertama: waiting -> active + FirstOrderTime terisi.
	reloaded, err := sessions.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, reloaded.Status)
	assert.NotNil(t, reloaded.FirstOrderTime)
	assert.InDelta(t, 40.00, reloaded.TotalAmount, 0.001)

	assert.True(t, rec.has(realtime.EventNewOrderReceived))
	assert.True(t, rec.has(realtime.EventSessionTotalsUpdated))
}

func TestPlaceOrderValidation(t *testing.T) {
	db := setupTestDB(t)
	sessions := NewSessionService(db, nil)
	customers := NewCustomerService(db)
	orders := NewOrderService(db, nil, sessions)

	session, err := sessions.Create(1, 5, 2)
	require.NoError(t, err)
	cust, err := customers.Register(session.ID, "Ayu", nil, nil)
	require.NoError(t, err)

	var appErr *utils.AppError

	_, err = orders.Place(cust.ID, session.ID, nil, "")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, utils.KindValidation, appErr.Kind)

	_, err = orders.Place(cust.ID, session.ID, []OrderItemInput{{MenuItemID: 1, Quantity: 0}}, "")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, utils.KindValidation, appErr.Kind)

	// Menu tidak tersedia. Flag false-nya harus benar-benar tersimpan
	// (bukan tertimpa default kolom saat insert).
	var unavailable models.MenuItem
	require.NoError(t, db.First(&unavailable, 3).Error)
	require.False(t, unavailable.IsAvailable)
	_, err = orders.Place(cust.ID, session.ID, []OrderItemInput{{MenuItemID: 3, Quantity: 1}}, "")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, utils.KindValidation, appErr.Kind)

	// Menu tidak ada.
	_, err = orders.Place(cust.ID, session.ID, []OrderItemInput{{MenuItemID: 99, Quantity: 1}}, "")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, utils.KindNotFound, appErr.Kind)

	// Customer dari sesi lain tidak boleh order ke sesi ini.
	other, err := sessions.Create(1, 6, 1)
	require.NoError(t, err)
	stranger, err := customers.Register(other.ID, "Tamu", nil, nil)
	require.NoError(t, err)
	_, err = orders.Place(stranger.ID, session.ID, []OrderItemInput{{MenuItemID: 1, Quantity: 1}}, "")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, utils.KindValidation, appErr.Kind)
}

func TestOrderStatusForwardOnly(t *testing.T) {
	db := setupTestDB(t)
	_, orders, session, custA, _ := seedParty(t, db)

	placed, err := orders.GetByCustomer(custA.ID)
	require.NoError(t, err)
	require.Len(t, placed, 1)
	orderID := placed[0].ID

	// pending -> preparing loncat satu tahap: ditolak, state tidak berubah.
	_, err = orders.UpdateStatus(orderID, models.OrderPreparing)
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, utils.KindBusinessRule, appErr.Kind)
	got, err := orders.Get(orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, got.Status)

	for _, next := range []models.OrderStatus{
		models.OrderConfirmed, models.OrderPreparing, models.OrderServed, models.OrderCompleted,
	} {
		got, err = orders.UpdateStatus(orderID, next)
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
	}

	// Terminal: tidak bisa mundur.
	_, err = orders.UpdateStatus(orderID, models.OrderPending)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, utils.KindBusinessRule, appErr.Kind)

	// Total sesi tetap jumlah order non-cancelled.
	reloaded, err := NewSessionService(db, nil).Get(session.ID)
	require.NoError(t, err)
	assert.InDelta(t, 25.00, reloaded.TotalAmount, 0.001)
}

func TestCancelOrderRecomputesTotal(t *testing.T) {
	db := setupTestDB(t)
	sessions, orders, session, custA, _ := seedParty(t, db)

	placed, err := orders.GetByCustomer(custA.ID)
	require.NoError(t, err)
	require.Len(t, placed, 1)

	_, err = orders.UpdateStatus(placed[0].ID, models.OrderCancelled)
	require.NoError(t, err)

	reloaded, err := sessions.Get(session.ID)
	require.NoError(t, err)
	assert.InDelta(t, 15.00, reloaded.TotalAmount, 0.001)
}
