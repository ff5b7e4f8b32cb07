package services

import (
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/realtime"
	"github.com/dinetap/table-service/utils"
)

type OrderService struct {
	DB       *gorm.DB
	Events   realtime.Publisher
	Sessions *SessionService
}

func NewOrderService(db *gorm.DB, events realtime.Publisher, sessions *SessionService) *OrderService {
	if events == nil {
		events = realtime.NopPublisher{}
	}
	return &OrderService{DB: db, Events: events, Sessions: sessions}
}

type OrderItemInput struct {
	MenuItemID    uint   `json:"menu_item_id"`
	Quantity      int    `json:"quantity"`
	Customization string `json:"customization"`
}

// Place mencatat satu order milik satu customer di sebuah sesi. Harga menu
// di-snapshot ke order item; order pertama menggeser sesi waiting -> active.
func (o *OrderService) Place(customerID, sessionID uint, items []OrderItemInput, notes string) (*models.Order, error) {
	if len(items) == 0 {
		return nil, utils.NewValidationError("order must contain at least one item")
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, utils.NewValidationError("item quantity must be at least 1")
		}
	}

	session, err := o.Sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionWaiting && session.Status != models.SessionActive {
		return nil, utils.NewBusinessRuleError(
			fmt.Sprintf("session in status %s is not accepting orders", session.Status))
	}

	var customer models.Customer
	if err := o.DB.First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("customer not found")
		}
		return nil, err
	}
	if customer.TableSessionID != sessionID {
		return nil, utils.NewValidationError("customer does not belong to this session")
	}

	// Validasi menu + snapshot harga saat ini.
	orderItems := make([]models.OrderItem, 0, len(items))
	var total float64
	for _, it := range items {
		var menu models.MenuItem
		if err := o.DB.Where("id = ? AND restaurant_id = ?", it.MenuItemID, session.RestaurantID).
			First(&menu).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.NewValidationError(fmt.Sprintf("menu item %d not found", it.MenuItemID))
			}
			return nil, err
		}
		if !menu.IsAvailable {
			return nil, utils.NewValidationError(fmt.Sprintf("menu item %q is not available", menu.Name))
		}
		orderItems = append(orderItems, models.OrderItem{
			MenuItemID:    menu.ID,
			Quantity:      it.Quantity,
			Price:         menu.Price,
			Customization: it.Customization,
		})
		total += float64(it.Quantity) * menu.Price
	}
	total = Round2(total)

	var order models.Order
	wasWaiting := session.Status == models.SessionWaiting
	err = o.DB.Transaction(func(tx *gorm.DB) error {
		var seq int64
		if err := tx.Model(&models.Order{}).
			Where("table_session_id = ?", sessionID).Count(&seq).Error; err != nil {
			return err
		}

		order = models.Order{
			OrderNumber:    utils.OrderNumber(session.Table.TableNumber, session.ID, seq+1),
			CustomerID:     customerID,
			TableSessionID: sessionID,
			Status:         models.OrderPending,
			TotalAmount:    total,
			Notes:          notes,
			OrderItems:     orderItems,
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	// Order pertama mengaktifkan sesi dan mencatat firstOrderTime.
	if wasWaiting {
		if _, err := o.Sessions.Transition(sessionID, models.SessionActive); err != nil {
			utils.ErrorLogger.Printf("activate session %d: %v", sessionID, err)
		}
	}
	if _, err := o.Sessions.RecomputeTotal(sessionID); err != nil {
		utils.ErrorLogger.Printf("recompute total for session %d: %v", sessionID, err)
	}

	o.Events.Publish(realtime.Event{
		RestaurantID: session.RestaurantID,
		TableID:      session.TableID,
		Payload:      realtime.NewOrderReceived{Order: order},
	})

	utils.InfoLogger.Printf("Order %s placed (session=%d customer=%d total=%.2f)",
		order.OrderNumber, sessionID, customerID, total)
	return &order, nil
}

// UpdateStatus menegakkan progres status forward-only; cancelled bisa dari
// semua status non-terminal dan memicu hitung ulang total sesi.
func (o *OrderService) UpdateStatus(orderID uint, to models.OrderStatus) (*models.Order, error) {
	var order models.Order
	if err := o.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("order not found")
		}
		return nil, err
	}

	if !order.Status.CanTransition(to) {
		return nil, utils.NewBusinessRuleError(
			fmt.Sprintf("invalid order transition %s -> %s", order.Status, to))
	}

	order.Status = to
	if err := o.DB.Model(&order).Update("status", to).Error; err != nil {
		return nil, err
	}

	session, err := o.Sessions.Get(order.TableSessionID)
	if err != nil {
		return nil, err
	}

	if to == models.OrderCancelled {
		if _, err := o.Sessions.RecomputeTotal(order.TableSessionID); err != nil {
			utils.ErrorLogger.Printf("recompute total for session %d: %v", order.TableSessionID, err)
		}
	}

	o.Events.Publish(realtime.Event{
		RestaurantID: session.RestaurantID,
		TableID:      session.TableID,
		Payload: realtime.OrderStatusUpdated{
			OrderID:   order.ID,
			SessionID: order.TableSessionID,
			Status:    to,
		},
	})

	utils.InfoLogger.Printf("Order %d -> %s", order.ID, to)
	return &order, nil
}

func (o *OrderService) GetBySession(sessionID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := o.DB.Preload("OrderItems").Where("table_session_id = ?", sessionID).
		Order("created_at asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (o *OrderService) GetByCustomer(customerID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := o.DB.Preload("OrderItems").Where("customer_id = ?", customerID).
		Order("created_at asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (o *OrderService) Get(orderID uint) (*models.Order, error) {
	var order models.Order
	if err := o.DB.Preload("OrderItems").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("order not found")
		}
		return nil, err
	}
	return &order, nil
}

// Round2 -> pembulatan dua desimal untuk nilai uang.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
