package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderNumber -> nomor order untuk display: T<table>-S<session>-<seq>.
// Unik global lewat pasangan (session, seq); seq datang dari jumlah
// order di sesi, dihitung di dalam transaksi yang sama.
func OrderNumber(tableNumber int, sessionID uint, seq int64) string {
	return fmt.Sprintf("T%02d-S%d-%03d", tableNumber, sessionID, seq)
}

// BillNumber -> nomor bill unik: BILL-<YYYYMMDD>-<8 hex dari uuid>
func BillNumber() string {
	ref := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("BILL-%s-%s", time.Now().Format("20060102"), ref)
}

// SessionKey -> kunci sesi customer (dipakai di QR / cookie device)
func SessionKey() string {
	return uuid.NewString()
}
