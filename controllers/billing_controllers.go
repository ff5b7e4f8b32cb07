package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/realtime"
	"github.com/dinetap/table-service/services"
	"github.com/dinetap/table-service/utils"
)

type BillingController struct {
	DB       *gorm.DB
	Events   realtime.Publisher
	Sessions *services.SessionService
	Notifier services.BillNotifier
}

func NewBillingController(db *gorm.DB, events realtime.Publisher, sessions *services.SessionService, notifier services.BillNotifier) *BillingController {
	return &BillingController{DB: db, Events: events, Sessions: sessions, Notifier: notifier}
}

// engine -> satu BillingEngine segar per request; state machine-nya hidup
// selama satu alur generate.
func (bc *BillingController) engine() *services.BillingEngine {
	return services.NewBillingEngine(bc.DB, bc.Events, bc.Sessions, bc.Notifier)
}

// RequestBill -> sesi pindah ke bill_requested dan staff diberi tahu.
func (bc *BillingController) RequestBill(c *gin.Context) {
	var body struct {
		CustomerID      uint   `json:"customer_id" binding:"required"`
		RequestType     string `json:"request_type" binding:"required"`
		SpecialRequests string `json:"special_requests"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, utils.NewValidationError(err.Error()))
		return
	}

	if err := bc.engine().RequestBill(paramUint(c, "session_id"), body.CustomerID,
		body.RequestType, body.SpecialRequests); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill requested", nil)
}

// GenerateBills menjalankan machine dari idle sampai generated untuk satu
// request: selectType (+selectCustomer utk custom), review, generate.
func (bc *BillingController) GenerateBills(c *gin.Context) {
	var body struct {
		BillType    models.SplitType          `json:"bill_type" binding:"required"`
		CustomerIDs []uint                    `json:"customer_ids"`
		Assignments []services.BillAssignment `json:"assignments"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, utils.NewValidationError(err.Error()))
		return
	}

	engine := bc.engine()
	if err := engine.SelectType(body.BillType); err != nil {
		utils.RespondError(c, err)
		return
	}
	for _, id := range body.CustomerIDs {
		if err := engine.SelectCustomer(id); err != nil {
			utils.RespondError(c, err)
			return
		}
	}
	if err := engine.Review(); err != nil {
		utils.RespondError(c, err)
		return
	}

	bills, err := engine.Generate(paramUint(c, "session_id"), body.Assignments)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Bills generated", bills)
}

// ListBills -> semua bill satu sesi.
func (bc *BillingController) ListBills(c *gin.Context) {
	bills, err := bc.engine().ListBills(paramUint(c, "session_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of bills", bills)
}

// UpdateBill -> saat ini hanya pelunasan (status=paid).
func (bc *BillingController) UpdateBill(c *gin.Context) {
	var body struct {
		Status        models.BillStatus `json:"status" binding:"required"`
		PaymentMethod string            `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, utils.NewValidationError(err.Error()))
		return
	}
	if body.Status != models.BillPaid {
		utils.RespondError(c, utils.NewValidationError("only status \"paid\" is supported"))
		return
	}

	bill, err := bc.engine().MarkPaid(paramUint(c, "bill_id"), body.PaymentMethod)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill paid", bill)
}
