package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dinetap/table-service/realtime"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSController struct {
	Hub *realtime.Hub
}

func NewWSController(hub *realtime.Hub) *WSController {
	return &WSController{Hub: hub}
}

// Handle -> endpoint /ws. Registrasi awal dari query param; client juga
// boleh (dan sebaiknya) mengirim register-* eksplisit setelah connect.
func (wc *WSController) Handle(c *gin.Context) {
	restaurantID := queryUint(c, "restaurantId")
	tableID := queryUint(c, "tableId")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// Blokir sampai koneksi putus; Serve yang mengurus unregister.
	wc.Hub.Serve(ws, restaurantID, tableID)
}

func queryUint(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}
