package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/utils"
)

// BillNotifier adalah boundary ke layanan pengiriman bill. Implementasi
// produksi sesungguhnya (payment gateway / mail provider) ada di luar scope;
// yang dipakai adalah stub email.
type BillNotifier interface {
	SendBillRequest(session models.TableSession, customerID uint, requestType, specialRequests string) error
}

// EmailNotifier mengirim ringkasan bill lewat email. Pengiriman di-retry
// dengan exponential backoff terbatas; kegagalan final muncul sebagai
// ExternalServiceError milik caller.
type EmailNotifier struct {
	MaxRetries int
	RetryDelay time.Duration
	log        *logrus.Logger

	// send bisa diganti di test; default-nya stub yang hanya mencatat.
	send func(subject, body string) error
}

func NewEmailNotifier(log *logrus.Logger) *EmailNotifier {
	n := &EmailNotifier{
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
		log:        log,
	}
	n.send = func(subject, body string) error {
		n.log.Infof("email stub: %s\n%s", subject, body)
		return nil
	}
	return n
}

func (n *EmailNotifier) SendBillRequest(session models.TableSession, customerID uint, requestType, specialRequests string) error {
	subject := fmt.Sprintf("Bill requested for table session %d", session.ID)
	body := fmt.Sprintf(
		"Session %d (table %d) requested a %s bill.\nTotal so far: %.2f\nRequested by customer %d.",
		session.ID, session.TableID, requestType, session.TotalAmount, customerID)
	if specialRequests != "" {
		body += "\nSpecial requests: " + specialRequests
	}

	delay := n.RetryDelay
	var lastErr error
	for attempt := 0; attempt <= n.MaxRetries; attempt++ {
		if lastErr = n.send(subject, body); lastErr == nil {
			return nil
		}
		n.log.Warnf("send bill email attempt %d failed: %v", attempt+1, lastErr)
		if attempt < n.MaxRetries {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return utils.NewExternalServiceError(fmt.Sprintf("bill email delivery failed: %v", lastErr))
}
