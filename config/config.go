package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dinetap/table-service/realtime"
)

// Config menampung seluruh konfigurasi runtime yang dibaca dari environment
// (lewat godotenv di main). Semua tunable realtime/billing ada di sini supaya
// tidak ada angka hard-coded di komponen.
type Config struct {
	Port      string
	DBUser    string
	DBPass    string
	DBHost    string
	DBPort    string
	DBName    string
	JWTSecret string

	// Realtime channel
	HeartbeatInterval time.Duration // interval ping dari client
	HeartbeatTimeout  time.Duration // server prune kalau tidak ada ping
	ReconnectBase     time.Duration // backoff awal reconnect client
	ReconnectCap      time.Duration // plafon backoff
	MaxReconnect      int           // batas percobaan reconnect otomatis

	// Session lifecycle
	SessionIdleTimeout time.Duration // sesi tanpa aktivitas di-abandon
}

func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		DBUser:    getEnv("DB_USER", "root"),
		DBPass:    getEnv("DB_PASS", ""),
		DBHost:    getEnv("DB_HOST", "127.0.0.1"),
		DBPort:    getEnv("DB_PORT", "3306"),
		DBName:    getEnv("DB_NAME", "table_service"),
		JWTSecret: getEnv("JWT_SECRET", ""),

		HeartbeatInterval: getDuration("WS_HEARTBEAT_INTERVAL", 25*time.Second),
		HeartbeatTimeout:  getDuration("WS_HEARTBEAT_TIMEOUT", 30*time.Second),
		ReconnectBase:     getDuration("WS_RECONNECT_BASE", 1*time.Second),
		ReconnectCap:      getDuration("WS_RECONNECT_CAP", 30*time.Second),
		MaxReconnect:      getInt("WS_MAX_RECONNECT", 5),

		SessionIdleTimeout: getDuration("SESSION_IDLE_TIMEOUT", 3*time.Hour),
	}
}

// ClientConfig -> tunable realtime untuk binary sisi client (device meja,
// dashboard staff) yang memakai realtime.Client.
func (c *Config) ClientConfig() realtime.ClientConfig {
	return realtime.ClientConfig{
		PingInterval: c.HeartbeatInterval,
		BackoffBase:  c.ReconnectBase,
		BackoffCap:   c.ReconnectCap,
		MaxAttempts:  c.MaxReconnect,
	}
}

func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
