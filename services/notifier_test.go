package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/utils"
)

func TestEmailNotifierRetries(t *testing.T) {
	utils.InitLogger()
	notifier := NewEmailNotifier(utils.InfoLogger)
	notifier.RetryDelay = time.Millisecond

	calls := 0
	notifier.send = func(subject, body string) error {
		calls++
		if calls < 3 {
			return errors.New("smtp timeout")
		}
		return nil
	}

	err := notifier.SendBillRequest(models.TableSession{ID: 1, TableID: 1}, 1, "individual", "")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestEmailNotifierGivesUp(t *testing.T) {
	utils.InitLogger()
	notifier := NewEmailNotifier(utils.InfoLogger)
	notifier.RetryDelay = time.Millisecond

	calls := 0
	notifier.send = func(subject, body string) error {
		calls++
		return errors.New("smtp down")
	}

	err := notifier.SendBillRequest(models.TableSession{ID: 1, TableID: 1}, 1, "individual", "")
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, utils.KindExternalService, appErr.Kind)
	assert.Equal(t, 4, calls) // percobaan awal + MaxRetries
}
