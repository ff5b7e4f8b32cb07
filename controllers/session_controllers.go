package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/services"
	"github.com/dinetap/table-service/utils"
)

type SessionController struct {
	Sessions *services.SessionService
}

func NewSessionController(sessions *services.SessionService) *SessionController {
	return &SessionController{Sessions: sessions}
}

// CreateSession -> buka sesi baru untuk satu meja. 409 kalau meja sudah
// punya sesi hidup; body error membawa existing_session_id supaya client
// bisa langsung join.
func (sc *SessionController) CreateSession(c *gin.Context) {
	restaurantID := paramUint(c, "restaurant_id")
	if restaurantID == 0 {
		utils.RespondError(c, utils.NewValidationError("invalid restaurant id"))
		return
	}

	var body struct {
		TableNumber int `json:"table_number" binding:"required"`
		PartySize   int `json:"party_size"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, utils.NewValidationError(err.Error()))
		return
	}

	session, err := sc.Sessions.Create(restaurantID, body.TableNumber, body.PartySize)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Session created", session)
}

// GetSession -> baca sesi apa adanya, termasuk yang sudah terminal.
// Client yang reconnect re-fetch lewat sini; sesi completed tetap 200.
func (sc *SessionController) GetSession(c *gin.Context) {
	session, err := sc.Sessions.Get(paramUint(c, "session_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session detail", session)
}

// GetActiveSessionByTable -> dipakai device meja saat scan QR.
func (sc *SessionController) GetActiveSessionByTable(c *gin.Context) {
	session, err := sc.Sessions.FindActiveByTable(paramUint(c, "table_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active session", session)
}

// UpdateSessionStatus -> transisi status sesi; 422 untuk transisi ilegal.
func (sc *SessionController) UpdateSessionStatus(c *gin.Context) {
	var body struct {
		Status models.SessionStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, utils.NewValidationError(err.Error()))
		return
	}

	session, err := sc.Sessions.Transition(paramUint(c, "session_id"), body.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session status updated", session)
}

// GetCombined -> agregat {session, customers, orders, bills, combinedBills}
// dalam satu round trip untuk dashboard.
func (sc *SessionController) GetCombined(c *gin.Context) {
	view, err := sc.Sessions.Combined(paramUint(c, "session_id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Combined session view", view)
}
