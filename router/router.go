package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dinetap/table-service/controllers"
	"github.com/dinetap/table-service/middlewares"
	"github.com/dinetap/table-service/realtime"
	"github.com/dinetap/table-service/services"
)

// SetupRouter merakit seluruh route. events adalah Publisher yang dipakai
// semua mutasi (biasanya batcher di depan hub); hub dipakai endpoint /ws.
func SetupRouter(db *gorm.DB, hub *realtime.Hub, events realtime.Publisher, notifier services.BillNotifier) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection"},
	}))
	r.Use(middlewares.LoggerMiddleware())

	// 50 request/detik per IP untuk semua route
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	// Services: satu-satunya jalur tulis ke session/order/bill.
	sessionSvc := services.NewSessionService(db, events)
	customerSvc := services.NewCustomerService(db)
	orderSvc := services.NewOrderService(db, events, sessionSvc)

	sessionCtrl := controllers.NewSessionController(sessionSvc)
	customerCtrl := controllers.NewCustomerController(customerSvc)
	orderCtrl := controllers.NewOrderController(orderSvc)
	billingCtrl := controllers.NewBillingController(db, events, sessionSvc, notifier)
	wsCtrl := controllers.NewWSController(hub)
	userCtrl := controllers.NewUserController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Realtime channel
	r.GET("/ws", wsCtrl.Handle)

	// Auth seam untuk staff
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// ----------------------------------------------------------------
	//                 CUSTOMER ROUTES (tanpa auth)
	// ----------------------------------------------------------------
	rest := r.Group("/restaurants/:restaurant_id")
	{
		rest.POST("/table-sessions", sessionCtrl.CreateSession)
		rest.GET("/table-sessions/:session_id", sessionCtrl.GetSession)
		rest.GET("/table-sessions/:session_id/combined", sessionCtrl.GetCombined)
		rest.GET("/tables/:table_id/session", sessionCtrl.GetActiveSessionByTable)

		rest.POST("/customers", customerCtrl.RegisterCustomer)
		rest.GET("/table-sessions/:session_id/customers", customerCtrl.ListCustomers)

		rest.POST("/orders", orderCtrl.CreateOrder)
		rest.GET("/orders/:order_id", orderCtrl.GetOrder)
		rest.GET("/table-sessions/:session_id/orders", orderCtrl.GetSessionOrders)
		rest.GET("/customers/:customer_id/orders", orderCtrl.GetCustomerOrders)

		rest.POST("/table-sessions/:session_id/request-bill", billingCtrl.RequestBill)
		rest.GET("/table-sessions/:session_id/bills", billingCtrl.ListBills)
	}

	// ----------------------------------------------------------------
	//                 STAFF ROUTES (auth + role)
	// ----------------------------------------------------------------
	staff := r.Group("/restaurants/:restaurant_id")
	staff.Use(middlewares.AuthMiddleware())
	staff.Use(middlewares.RequireRoles("admin", "staff"))
	{
		staff.PUT("/table-sessions/:session_id", sessionCtrl.UpdateSessionStatus)
		staff.PATCH("/orders/:order_id", orderCtrl.UpdateOrderStatus)
		staff.POST("/table-sessions/:session_id/bills", billingCtrl.GenerateBills)
		staff.PUT("/bills/:bill_id", billingCtrl.UpdateBill)
	}

	return r
}
