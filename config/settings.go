package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	AppVersion = "v1.2.0"
	AppPort    = "8089"
	AppDebug   = false

	// Telegram
	BotToken    string
	AdminUserID int64

	// OpenAI
	OpenAIAPIKey   string
	OpenAIModel    = "gpt-4o"
	OpenAIProxyURL string

	// Database
	DBDriver = "sqlite"
	DBDSN    = "storages/postwatch.db"

	PathTemp     = "temp"
	PathStorages = "storages"
	ChannelsFile = "channels.yml"

	// Pipeline tuning
	DebounceInterval  = 3 * time.Second
	SendMaxAttempts   = 10
	SendRetryDelay    = 60 * time.Second
	MaxImageDimension = 1280

	// Event worker pool
	WorkerPoolSize  = 8
	WorkerQueueSize = 256
)

func init() {
	if v := strings.TrimSpace(os.Getenv("BOT_TOKEN")); v != "" {
		BotToken = v
	}
	if v := strings.TrimSpace(os.Getenv("ADMIN_USER_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n != 0 {
			AdminUserID = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		OpenAIAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); v != "" {
		OpenAIModel = v
	}
	if v := strings.TrimSpace(os.Getenv("PROXY_URL")); v != "" {
		OpenAIProxyURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DEBOUNCE_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			DebounceInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("SEND_MAX_ATTEMPTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			SendMaxAttempts = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SEND_RETRY_DELAY_S")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			SendRetryDelay = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("WORKER_POOL_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			WorkerPoolSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("WORKER_QUEUE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			WorkerQueueSize = n
		}
	}
}
