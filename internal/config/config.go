package config

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	Mode        string
	BackendURL  string
	BackendKey  string
	RealtimeURL string
	Email       string
	Password    string
	CachePath   string
	MCPAddress  string
	LogLevel    string
	OfflineDemo bool
}

func Load() *Config {
	// Missing .env is fine; environment wins over file values either way.
	godotenv.Load()

	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".drift-chat")

	cfg := &Config{}

	flag.StringVar(&cfg.Mode, "mode", "server", "Run mode: server, interactive, or headless")
	flag.StringVar(&cfg.BackendURL, "backend", getEnv("CHAT_BACKEND_URL", "http://127.0.0.1:54321"), "Backend REST base URL")
	flag.StringVar(&cfg.BackendKey, "backend-key", getEnv("CHAT_BACKEND_KEY", ""), "Backend API key")
	flag.StringVar(&cfg.RealtimeURL, "realtime", getEnv("CHAT_REALTIME_URL", ""), "Realtime websocket URL (derived from backend URL when empty)")
	flag.StringVar(&cfg.Email, "email", getEnv("CHAT_EMAIL", ""), "Sign-in email")
	flag.StringVar(&cfg.Password, "password", getEnv("CHAT_PASSWORD", ""), "Sign-in password")
	flag.StringVar(&cfg.CachePath, "cache", getEnv("CHAT_CACHE_PATH", filepath.Join(dataDir, "chat.db")), "Local cache database path")
	flag.StringVar(&cfg.MCPAddress, "mcp-port", getEnv("CHAT_MCP_ADDRESS", "127.0.0.1:8080"), "MCP SSE server address")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("CHAT_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.BoolVar(&cfg.OfflineDemo, "demo", getEnv("CHAT_DEMO", "") == "1", "Run against the in-memory demo backend")

	flag.Parse()

	os.MkdirAll(filepath.Dir(cfg.CachePath), 0755)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
