package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	JWTSecret       string
	AllowOrigins    []string
	LogstashTCPAddr string

	SessionTTL    time.Duration
	VerifyCodeTTL time.Duration
	ResetCodeTTL  time.Duration

	RateLimitCalls  int
	RateLimitWindow time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	SendGridAPIKey    string
	SendGridFromName  string
	SendGridFromEmail string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromPhone  string

	MinIOEndpoint     string
	MinIOAccessKey    string
	MinIOSecretKey    string
	MinIOUseSSL       bool
	MinIOBucketAvatar string
	MinIOPublicURL    string

	AvatarMaxDimension int
	FFMPEGPath         string

	// ResetDevReturnCode echoes plaintext codes in responses when delivery
	// fails. Development only.
	ResetDevReturnCode bool
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		JWTSecret:       must("JWT_SECRET"),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		SessionTTL:    duration("SESSION_TTL", 24*time.Hour),
		VerifyCodeTTL: duration("VERIFY_CODE_TTL", 30*time.Minute),
		ResetCodeTTL:  duration("RESET_CODE_TTL", 15*time.Minute),

		RateLimitCalls:  intval("RATE_LIMIT_CALLS", 5),
		RateLimitWindow: duration("RATE_LIMIT_WINDOW", time.Minute),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       intval("REDIS_DB", 0),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", ""),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),

		SendGridAPIKey:    getenv("SENDGRID_API_KEY", ""),
		SendGridFromName:  getenv("SENDGRID_FROM_NAME", "İşçi Takip"),
		SendGridFromEmail: getenv("SENDGRID_FROM_EMAIL", ""),

		TwilioAccountSID: getenv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getenv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromPhone:  getenv("TWILIO_FROM_PHONE", ""),

		MinIOEndpoint:     getenv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:    getenv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:    getenv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:       getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketAvatar: getenv("MINIO_BUCKET_AVATAR", "isci-takip-avatars"),
		MinIOPublicURL:    getenv("MINIO_PUBLIC_URL", ""),

		AvatarMaxDimension: intval("AVATAR_MAX_DIMENSION", 1024),
		FFMPEGPath:         getenv("FFMPEG_PATH", ""),

		ResetDevReturnCode: getenv("RESET_DEV_RETURN_CODE", "false") == "true",
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func duration(k string, d time.Duration) time.Duration {
	raw := os.Getenv(k)
	if raw == "" {
		return d
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s=%q, using %s", k, raw, d)
		return d
	}
	return v
}

func intval(k string, d int) int {
	raw := os.Getenv(k)
	if raw == "" {
		return d
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", k, raw, d)
		return d
	}
	return v
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
