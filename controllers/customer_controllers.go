package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dinetap/table-service/services"
	"github.com/dinetap/table-service/utils"
)

type CustomerController struct {
	Customers *services.CustomerService
}

func NewCustomerController(customers *services.CustomerService) *CustomerController {
	return &CustomerController{Customers: customers}
}

// RegisterCustomer -> anggota rombongan bergabung ke sesi. Registrant
// pertama otomatis jadi main customer.
func (cc *CustomerController) RegisterCustomer(c *gin.Context) {
	var body struct {
		TableSessionID uint    `json:"table_session_id" binding:"required"`
		Name           string  `json:"name" binding:"required"`
		Email          *string `json:"email"`
		Phone          *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, utils.NewValidationError(err.Error()))
		return
	}

	customer, err := cc.Customers.Register(body.TableSessionID, body.Name, body.Email, body.Phone)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Customer registered", customer)
}

// ListCustomers -> customer sesi, urut sesuai join.
func (cc *CustomerController) ListCustomers(c *gin.Context) {
	customers, err := cc.Customers.List(paramUint(c, "session_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of customers", customers)
}
