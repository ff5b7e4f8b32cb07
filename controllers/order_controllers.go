package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/services"
	"github.com/dinetap/table-service/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder -> customer submit order; harga di-snapshot dari menu.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body struct {
		CustomerID     uint                      `json:"customer_id" binding:"required"`
		TableSessionID uint                      `json:"table_session_id" binding:"required"`
		Items          []services.OrderItemInput `json:"items" binding:"required"`
		Notes          string                    `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, utils.NewValidationError(err.Error()))
		return
	}

	order, err := oc.Orders.Place(body.CustomerID, body.TableSessionID, body.Items, body.Notes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetOrder -> detail satu order beserta items.
func (oc *OrderController) GetOrder(c *gin.Context) {
	order, err := oc.Orders.Get(paramUint(c, "order_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// GetSessionOrders -> semua order satu sesi.
func (oc *OrderController) GetSessionOrders(c *gin.Context) {
	orders, err := oc.Orders.GetBySession(paramUint(c, "session_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetCustomerOrders -> semua order satu customer.
func (oc *OrderController) GetCustomerOrders(c *gin.Context) {
	orders, err := oc.Orders.GetByCustomer(paramUint(c, "customer_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// UpdateOrderStatus -> staff menggeser status order; forward-only.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	var body struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, utils.NewValidationError(err.Error()))
		return
	}

	order, err := oc.Orders.UpdateStatus(paramUint(c, "order_id"), body.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}
