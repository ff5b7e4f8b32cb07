package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/utils"
)

type CustomerService struct {
	DB *gorm.DB
}

func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{DB: db}
}

// Register mendaftarkan satu anggota rombongan ke sesi. Registrant pertama
// otomatis jadi main customer; penentuan "pertama" terjadi di dalam
// transaction supaya dua registrasi simultan tidak sama-sama jadi main.
func (cs *CustomerService) Register(sessionID uint, name string, email, phone *string) (*models.Customer, error) {
	if name == "" {
		return nil, utils.NewValidationError("customer name is required")
	}

	var customer models.Customer
	err := cs.DB.Transaction(func(tx *gorm.DB) error {
		var session models.TableSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("session not found")
			}
			return err
		}
		if session.Status.Terminal() {
			return utils.NewBusinessRuleError("cannot join a closed session")
		}

		var count int64
		if err := tx.Model(&models.Customer{}).
			Where("table_session_id = ?", sessionID).Count(&count).Error; err != nil {
			return err
		}

		customer = models.Customer{
			TableSessionID: sessionID,
			Name:           name,
			Email:          email,
			Phone:          phone,
			SessionKey:     utils.SessionKey(),
			IsMainCustomer: count == 0,
			PaymentStatus:  models.PaymentPending,
		}
		return tx.Create(&customer).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Customer %d (%s) joined session %d (main=%v)",
		customer.ID, customer.Name, sessionID, customer.IsMainCustomer)
	return &customer, nil
}

// List -> customer sesi diurutkan sesuai urutan join.
func (cs *CustomerService) List(sessionID uint) ([]models.Customer, error) {
	var customers []models.Customer
	if err := cs.DB.Where("table_session_id = ?", sessionID).
		Order("created_at asc, id asc").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (cs *CustomerService) Get(customerID uint) (*models.Customer, error) {
	var customer models.Customer
	if err := cs.DB.First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("customer not found")
		}
		return nil, err
	}
	return &customer, nil
}
