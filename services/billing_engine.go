package services

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/realtime"
	"github.com/dinetap/table-service/utils"
)

// BillingState adalah enum eksplisit untuk alur pembuatan bill.
type BillingState string

const (
	BillingIdle          BillingState = "idle"
	BillingSelectingType BillingState = "selectingType"
	BillingReviewing     BillingState = "reviewing"
	BillingGenerating    BillingState = "generating"
	BillingGenerated     BillingState = "generated"
	BillingFailed        BillingState = "failed"
)

type billingEvent string

const (
	evSelectType billingEvent = "selectType"
	evReview     billingEvent = "review"
	evGenerate   billingEvent = "generate"
	evSucceed    billingEvent = "succeed"
	evFail       billingEvent = "fail"
	evReset      billingEvent = "reset"
)

// billingTransitions adalah tabel (state, event) -> state. Semua perpindahan
// state engine lewat tabel ini; kombinasi yang tidak terdaftar ditolak.
var billingTransitions = map[BillingState]map[billingEvent]BillingState{
	BillingIdle: {
		evSelectType: BillingSelectingType,
	},
	BillingSelectingType: {
		evSelectType: BillingSelectingType,
		evReview:     BillingReviewing,
	},
	BillingReviewing: {
		evSelectType: BillingSelectingType,
		evGenerate:   BillingGenerating,
	},
	BillingGenerating: {
		evSucceed: BillingGenerated,
		evFail:    BillingFailed,
	},
	BillingGenerated: {
		evReset: BillingIdle,
	},
	BillingFailed: {
		evReset: BillingIdle,
	},
}

// BillingContext adalah context machine yang dibersihkan oleh Reset.
type BillingContext struct {
	BillType            models.SplitType `json:"bill_type"`
	SelectedCustomerIDs []uint           `json:"selected_customer_ids"`
	Err                 string           `json:"error,omitempty"`
	GeneratedBillIDs    []uint           `json:"generated_bill_ids,omitempty"`
}

// BillAssignment mengalokasikan sebagian (atau seluruh) satu order item ke
// satu customer untuk custom split. Alokasi harus eksplisit dan menutup
// semua item; sisa yang tidak teralokasi adalah error, bukan dibagi diam-diam.
type BillAssignment struct {
	CustomerID  uint    `json:"customer_id"`
	OrderItemID uint    `json:"order_item_id"`
	Quantity    int     `json:"quantity"`
	Amount      float64 `json:"amount"`
}

// BillingEngine menjalankan pembuatan bill sebagai state machine. Kegagalan
// generate tidak dilempar keluar machine: state pindah ke failed dengan pesan
// error di context, dan Reset mengembalikan ke idle tanpa bill tersisa.
type BillingEngine struct {
	DB       *gorm.DB
	Events   realtime.Publisher
	Sessions *SessionService
	Notifier BillNotifier

	mu    sync.Mutex
	state BillingState
	ctx   BillingContext
}

func NewBillingEngine(db *gorm.DB, events realtime.Publisher, sessions *SessionService, notifier BillNotifier) *BillingEngine {
	if events == nil {
		events = realtime.NopPublisher{}
	}
	return &BillingEngine{
		DB:       db,
		Events:   events,
		Sessions: sessions,
		Notifier: notifier,
		state:    BillingIdle,
	}
}

func (e *BillingEngine) apply(ev billingEvent) error {
	next, ok := billingTransitions[e.state][ev]
	if !ok {
		return utils.NewBusinessRuleError(
			fmt.Sprintf("billing event %s not allowed in state %s", ev, e.state))
	}
	e.state = next
	return nil
}

func (e *BillingEngine) State() BillingState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *BillingEngine) Context() BillingContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctx
}

// SelectType menetapkan kebijakan split dan mengosongkan pilihan customer.
func (e *BillingEngine) SelectType(t models.SplitType) error {
	switch t {
	case models.SplitIndividual, models.SplitCombined, models.SplitCustom:
	default:
		return utils.NewValidationError(fmt.Sprintf("unknown bill type %q", t))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.apply(evSelectType); err != nil {
		return err
	}
	e.ctx.BillType = t
	e.ctx.SelectedCustomerIDs = nil
	return nil
}

// SelectCustomer hanya bermakna untuk custom split.
func (e *BillingEngine) SelectCustomer(id uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != BillingSelectingType || e.ctx.BillType != models.SplitCustom {
		return utils.NewBusinessRuleError("customer selection only applies to custom bills")
	}
	for _, existing := range e.ctx.SelectedCustomerIDs {
		if existing == id {
			return nil
		}
	}
	e.ctx.SelectedCustomerIDs = append(e.ctx.SelectedCustomerIDs, id)
	return nil
}

func (e *BillingEngine) UnselectCustomer(id uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != BillingSelectingType || e.ctx.BillType != models.SplitCustom {
		return utils.NewBusinessRuleError("customer selection only applies to custom bills")
	}
	kept := e.ctx.SelectedCustomerIDs[:0]
	for _, existing := range e.ctx.SelectedCustomerIDs {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	e.ctx.SelectedCustomerIDs = kept
	return nil
}

// Review: individual/combined selalu boleh; custom butuh minimal satu customer.
func (e *BillingEngine) Review() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx.BillType == models.SplitCustom && len(e.ctx.SelectedCustomerIDs) == 0 {
		return utils.NewBusinessRuleError("custom bill requires at least one selected customer")
	}
	return e.apply(evReview)
}

// Reset mengembalikan machine ke idle dan mengosongkan context.
func (e *BillingEngine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.apply(evReset); err != nil {
		return err
	}
	e.ctx = BillingContext{}
	return nil
}

// Generate menghitung dan mempersist bill sesuai tipe yang dipilih. Seluruh
// bill satu panggilan dibuat dalam satu transaction: gagal berarti nol baris
// tersimpan dan machine berakhir di failed.
func (e *BillingEngine) Generate(sessionID uint, assignments []BillAssignment) ([]models.Bill, error) {
	e.mu.Lock()
	if err := e.apply(evGenerate); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	billType := e.ctx.BillType
	selected := append([]uint(nil), e.ctx.SelectedCustomerIDs...)
	e.mu.Unlock()

	bills, err := e.generate(sessionID, billType, selected, assignments)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.ctx.Err = err.Error()
		if aerr := e.apply(evFail); aerr != nil {
			utils.ErrorLogger.Printf("billing machine fail transition: %v", aerr)
		}
		return nil, err
	}
	ids := make([]uint, len(bills))
	for i, b := range bills {
		ids[i] = b.ID
	}
	e.ctx.GeneratedBillIDs = ids
	e.ctx.Err = ""
	if aerr := e.apply(evSucceed); aerr != nil {
		utils.ErrorLogger.Printf("billing machine succeed transition: %v", aerr)
	}
	return bills, nil
}

func (e *BillingEngine) generate(sessionID uint, billType models.SplitType, selected []uint, assignments []BillAssignment) ([]models.Bill, error) {
	session, err := e.Sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, utils.NewBusinessRuleError("cannot generate bills for a closed session")
	}

	var restaurant models.Restaurant
	if err := e.DB.First(&restaurant, session.RestaurantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("restaurant not found")
		}
		return nil, err
	}

	// Semua order item dari order non-cancelled di sesi ini, dengan pemilik.
	var orders []models.Order
	if err := e.DB.Preload("OrderItems").
		Where("table_session_id = ? AND status != ?", sessionID, models.OrderCancelled).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	var items []sessionItem
	for _, ord := range orders {
		for _, it := range ord.OrderItems {
			items = append(items, sessionItem{OrderItem: it, ownerID: ord.CustomerID})
		}
	}
	if len(items) == 0 {
		return nil, utils.NewValidationError("session has no billable items")
	}

	type draft struct {
		customerID *uint
		billType   models.BillType
		items      []models.BillItem
		subtotal   float64
	}
	var drafts []draft

	switch billType {
	case models.SplitIndividual:
		// Satu bill per customer di sesi, item penuh milik masing-masing.
		customers, err := listSessionCustomers(e.DB, sessionID)
		if err != nil {
			return nil, err
		}
		for _, cust := range customers {
			d := draft{billType: models.BillIndividual}
			id := cust.ID
			d.customerID = &id
			for _, it := range items {
				if it.ownerID != cust.ID {
					continue
				}
				amount := Round2(float64(it.Quantity) * it.Price)
				d.items = append(d.items, models.BillItem{
					OrderItemID: it.ID,
					Quantity:    it.Quantity,
					Amount:      amount,
				})
				d.subtotal += amount
			}
			if len(d.items) == 0 {
				continue
			}
			drafts = append(drafts, d)
		}

	case models.SplitCombined:
		d := draft{billType: models.BillCombined}
		for _, it := range items {
			amount := Round2(float64(it.Quantity) * it.Price)
			d.items = append(d.items, models.BillItem{
				OrderItemID: it.ID,
				Quantity:    it.Quantity,
				Amount:      amount,
			})
			d.subtotal += amount
		}
		drafts = append(drafts, d)

	case models.SplitCustom:
		customDrafts, err := buildCustomDrafts(items, selected, assignments)
		if err != nil {
			return nil, err
		}
		for _, cd := range customDrafts {
			id := cd.customerID
			drafts = append(drafts, draft{
				customerID: &id,
				billType:   models.BillPartial,
				items:      cd.items,
				subtotal:   cd.subtotal,
			})
		}

	default:
		return nil, utils.NewValidationError("bill type has not been selected")
	}

	if len(drafts) == 0 {
		return nil, utils.NewValidationError("nothing to bill")
	}

	// Persist all-or-nothing. Unique index (session, customer) yang menjaga
	// invariant satu bill per customer per sesi; pelanggarannya muncul
	// sebagai ErrDuplicatedKey dan membatalkan seluruh transaksi.
	var bills []models.Bill
	err = e.DB.Transaction(func(tx *gorm.DB) error {
		for _, d := range drafts {
			subtotal := Round2(d.subtotal)
			tax, tip := 0.0, 0.0
			if !restaurant.TaxInclusive {
				tax = Round2(subtotal * restaurant.TaxRate)
				tip = Round2(subtotal * restaurant.TipRate)
			}
			bill := models.Bill{
				BillNumber:     utils.BillNumber(),
				TableSessionID: sessionID,
				CustomerID:     d.customerID,
				Type:           d.billType,
				Subtotal:       subtotal,
				Tax:            tax,
				Tip:            tip,
				Total:          Round2(subtotal + tax + tip),
				Status:         models.BillPending,
				BillItems:      d.items,
			}
			if err := tx.Create(&bill).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return utils.NewConflictError(
						"bill already exists for this customer in this session",
						map[string]interface{}{"customer_id": d.customerID})
				}
				return err
			}
			bills = append(bills, bill)
		}
		return tx.Model(&models.TableSession{}).Where("id = ?", sessionID).
			Update("split_type", billType).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Generated %d %s bill(s) for session %d", len(bills), billType, sessionID)
	return bills, nil
}

// sessionItem adalah order item beserta customer pemiliknya.
type sessionItem struct {
	models.OrderItem
	ownerID uint
}

type customDraft struct {
	customerID uint
	items      []models.BillItem
	subtotal   float64
}

// buildCustomDrafts memvalidasi bahwa assignment menutup setiap order item
// secara persis (quantity dan amount) dan hanya memakai customer terpilih.
func buildCustomDrafts(items []sessionItem, selected []uint, assignments []BillAssignment) ([]customDraft, error) {
	if len(assignments) == 0 {
		return nil, utils.NewValidationError("custom bill requires explicit item assignments")
	}

	selectedSet := make(map[uint]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}

	itemByID := make(map[uint]models.OrderItem, len(items))
	for _, it := range items {
		itemByID[it.ID] = it.OrderItem
	}

	assignedQty := make(map[uint]int)
	assignedAmount := make(map[uint]float64)
	byCustomer := make(map[uint]*customDraft)
	var order []uint

	for _, a := range assignments {
		if !selectedSet[a.CustomerID] {
			return nil, utils.NewValidationError(
				fmt.Sprintf("customer %d is not part of this custom bill", a.CustomerID))
		}
		item, ok := itemByID[a.OrderItemID]
		if !ok {
			return nil, utils.NewValidationError(
				fmt.Sprintf("order item %d does not belong to this session", a.OrderItemID))
		}
		if a.Quantity < 0 || a.Quantity > item.Quantity {
			return nil, utils.NewValidationError(
				fmt.Sprintf("invalid quantity for order item %d", a.OrderItemID))
		}

		assignedQty[a.OrderItemID] += a.Quantity
		assignedAmount[a.OrderItemID] += a.Amount

		d, ok := byCustomer[a.CustomerID]
		if !ok {
			d = &customDraft{customerID: a.CustomerID}
			byCustomer[a.CustomerID] = d
			order = append(order, a.CustomerID)
		}
		d.items = append(d.items, models.BillItem{
			OrderItemID: a.OrderItemID,
			Quantity:    a.Quantity,
			Amount:      Round2(a.Amount),
		})
		d.subtotal += a.Amount
	}

	// Sisa yang tidak teralokasi (atau alokasi berlebih) = error validasi.
	for id, item := range itemByID {
		lineTotal := Round2(float64(item.Quantity) * item.Price)
		if assignedQty[id] != item.Quantity || math.Abs(assignedAmount[id]-lineTotal) > 0.005 {
			return nil, utils.NewValidationError(fmt.Sprintf(
				"order item %d is not fully apportioned (assigned %d/%d, %.2f/%.2f)",
				id, assignedQty[id], item.Quantity, assignedAmount[id], lineTotal))
		}
	}

	drafts := make([]customDraft, 0, len(order))
	for _, id := range order {
		drafts = append(drafts, *byCustomer[id])
	}
	return drafts, nil
}

func listSessionCustomers(db *gorm.DB, sessionID uint) ([]models.Customer, error) {
	var customers []models.Customer
	err := db.Where("table_session_id = ?", sessionID).
		Order("created_at asc, id asc").Find(&customers).Error
	return customers, err
}

// RequestBill menandai sesi minta bill dan memberi tahu staff + email stub.
func (e *BillingEngine) RequestBill(sessionID, customerID uint, requestType, specialRequests string) error {
	var splitType models.SplitType
	switch requestType {
	case "individual":
		splitType = models.SplitIndividual
	case "table":
		splitType = models.SplitCombined
	case "partial":
		splitType = models.SplitCustom
	default:
		return utils.NewValidationError(fmt.Sprintf("unknown request type %q", requestType))
	}

	session, err := e.Sessions.Transition(sessionID, models.SessionBillRequested)
	if err != nil {
		return err
	}
	if err := e.DB.Model(&models.TableSession{}).Where("id = ?", sessionID).
		Update("split_type", splitType).Error; err != nil {
		return err
	}

	e.Events.Publish(realtime.Event{
		RestaurantID: session.RestaurantID,
		Payload:      realtime.BillRequested{SessionID: sessionID, RequestType: requestType},
	})

	// Email billing adalah stub best-effort; kegagalannya tidak boleh
	// menggagalkan request-bill itu sendiri.
	if e.Notifier != nil {
		go func() {
			if err := e.Notifier.SendBillRequest(*session, customerID, requestType, specialRequests); err != nil {
				utils.ErrorLogger.Printf("bill request notification failed: %v", err)
			}
		}()
	}
	return nil
}

// MarkPaid melunasi satu bill; kalau semua bill sesi sudah paid, sesi
// ditutup (completed) dan mejanya dibebaskan.
func (e *BillingEngine) MarkPaid(billID uint, paymentMethod string) (*models.Bill, error) {
	var bill models.Bill
	var session models.TableSession
	var allPaid bool

	err := e.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bill, billID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("bill not found")
			}
			return err
		}
		if bill.Status != models.BillPending {
			return utils.NewBusinessRuleError(fmt.Sprintf("bill is %s, not pending", bill.Status))
		}

		now := time.Now()
		bill.Status = models.BillPaid
		bill.PaidAt = &now
		bill.PaymentMethod = paymentMethod
		if err := tx.Save(&bill).Error; err != nil {
			return err
		}

		if bill.CustomerID != nil {
			if err := tx.Model(&models.Customer{}).Where("id = ?", *bill.CustomerID).
				Update("payment_status", models.PaymentPaid).Error; err != nil {
				return err
			}
		}

		if err := tx.First(&session, bill.TableSessionID).Error; err != nil {
			return err
		}

		// paidAmount diakumulasi dari subtotal (porsi order) supaya invariant
		// paidAmount <= totalAmount tetap berlaku saat bill membawa tax/tip.
		var paid float64
		if err := tx.Model(&models.Bill{}).
			Where("table_session_id = ? AND status = ?", session.ID, models.BillPaid).
			Select("COALESCE(SUM(subtotal), 0)").Scan(&paid).Error; err != nil {
			return err
		}
		session.PaidAmount = Round2(paid)
		if err := tx.Model(&session).Update("paid_amount", session.PaidAmount).Error; err != nil {
			return err
		}

		var unpaid int64
		if err := tx.Model(&models.Bill{}).
			Where("table_session_id = ? AND status = ?", session.ID, models.BillPending).
			Count(&unpaid).Error; err != nil {
			return err
		}
		allPaid = unpaid == 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.Events.Publish(realtime.Event{
		RestaurantID: session.RestaurantID,
		Payload: realtime.PaymentReceived{
			BillID:     bill.ID,
			SessionID:  session.ID,
			CustomerID: bill.CustomerID,
		},
	})
	e.Events.Publish(realtime.Event{
		RestaurantID: session.RestaurantID,
		TableID:      session.TableID,
		Payload: realtime.SessionTotalsUpdated{
			SessionID:   session.ID,
			TotalAmount: session.TotalAmount,
			PaidAmount:  session.PaidAmount,
		},
	})

	if allPaid && session.Status == models.SessionBillRequested {
		if _, err := e.Sessions.Transition(session.ID, models.SessionCompleted); err != nil {
			utils.ErrorLogger.Printf("complete session %d: %v", session.ID, err)
		}
	}

	utils.InfoLogger.Printf("Bill %d paid via %s", bill.ID, paymentMethod)
	return &bill, nil
}

func (e *BillingEngine) ListBills(sessionID uint) ([]models.Bill, error) {
	var bills []models.Bill
	if err := e.DB.Preload("BillItems").Where("table_session_id = ?", sessionID).
		Order("created_at asc").Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}
