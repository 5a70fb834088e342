package config

import (
	"os"
	"strconv"
	"strings"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Telegram struct {
	BotToken  string
	ChannelID string
}

type VK struct {
	AccessToken string
	GroupID     int64
	APIVersion  string
}

type Instagram struct {
	AccessToken string
	AccountID   string
}

type Config struct {
	PostgresURI    string
	MigrationsPath string
	MediaDir       string
	FontPath       string
	CacheTTLHours  int
	Telegram       Telegram
	VK             VK
	Instagram      Instagram
	R2             R2
	SecretKey      string
	CookieName     string
	AllowedUserIDs []int64
	ListenAddr     string
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:    getEnv("POSTGRES_URI", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		MediaDir:       getEnv("MEDIA_DIR", "media"),
		FontPath:       getEnv("STORY_FONT_PATH", ""),
		CacheTTLHours:  getEnvInt("MEDIA_CACHE_TTL_HOURS", 72),
		Telegram: Telegram{
			BotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChannelID: getEnv("TELEGRAM_CHANNEL_ID", ""),
		},
		VK: VK{
			AccessToken: getEnv("VK_ACCESS_TOKEN", ""),
			GroupID:     getEnvInt64("VK_GROUP_ID", 0),
			APIVersion:  getEnv("VK_API_VERSION", "5.131"),
		},
		Instagram: Instagram{
			AccessToken: getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
			AccountID:   getEnv("INSTAGRAM_ACCOUNT_ID", ""),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:      getEnv("SECRET_KEY", ""),
		CookieName:     getEnv("COOKIE_NAME", "crosspost_session"),
		AllowedUserIDs: getEnvInt64List("ALLOWED_USER_IDS"),
		ListenAddr:     getEnv("LISTEN_ADDR", ":3000"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64List(key string) []int64 {
	var ids []int64
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, n)
		}
	}
	return ids
}
