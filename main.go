package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/dinetap/table-service/config"
	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/realtime"
	"github.com/dinetap/table-service/router"
	"github.com/dinetap/table-service/services"
	"github.com/dinetap/table-service/utils"
)

func main() {
	utils.InitLogger()

	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	cfg := config.Load()
	if cfg.JWTSecret != "" {
		utils.JWTSecret = []byte(cfg.JWTSecret)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// Composition root realtime: hub menerima koneksi, batcher menahan burst
	// event sebelum diteruskan ke hub. Semua service publish ke batcher.
	hub := realtime.NewHub(cfg.HeartbeatTimeout, utils.InfoLogger)
	batcher := realtime.NewBatcher(hub, 250*time.Millisecond, 16)
	defer batcher.Stop()

	notifier := services.NewEmailNotifier(utils.InfoLogger)

	sessionSvc := services.NewSessionService(db, batcher)
	monitor := services.NewSessionMonitor(db, sessionSvc, cfg.SessionIdleTimeout)
	monitor.Start()
	defer monitor.Stop()

	r := router.SetupRouter(db, hub, batcher, notifier)

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Restaurant{},
		&models.User{},
		&models.Table{},
		&models.TableSession{},
		&models.Customer{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Bill{},
		&models.BillItem{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
