package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akbasozcan3/isci-takip-app/internal/config"
	"github.com/akbasozcan3/isci-takip-app/internal/logging"
	"github.com/akbasozcan3/isci-takip-app/internal/media"
	"github.com/akbasozcan3/isci-takip-app/internal/ratelimit"
	storageminio "github.com/akbasozcan3/isci-takip-app/internal/repository/minio"
	"github.com/akbasozcan3/isci-takip-app/internal/repository/ports"
	"github.com/akbasozcan3/isci-takip-app/internal/repository/postgres"
	"github.com/akbasozcan3/isci-takip-app/internal/service"
	transporthttp "github.com/akbasozcan3/isci-takip-app/internal/transport/http"
	"github.com/akbasozcan3/isci-takip-app/internal/transport/mail"
	"github.com/akbasozcan3/isci-takip-app/internal/transport/sms"
	"github.com/akbasozcan3/isci-takip-app/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := buildLimiter(ctx, cfg)

	userRepo := postgres.NewUserRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)
	verificationRepo := postgres.NewVerificationRepo(db)

	codeSvc := service.NewCodeService(verificationRepo, cfg.VerifyCodeTTL, cfg.ResetCodeTTL)

	var storage ports.ObjectStorage
	var processor media.Processor
	if cfg.MinIOEndpoint != "" {
		client, err := storageminio.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			log.Fatalf("connect minio: %v", err)
		}
		storage = storageminio.NewStorage(client, cfg.MinIOPublicURL)
		processor = media.NewFFMPEGProcessor(cfg.FFMPEGPath, cfg.AvatarMaxDimension)
	} else {
		log.Println("object storage disabled: MINIO_ENDPOINT not set")
	}

	authSvc := service.NewAuthService(
		userRepo, sessionRepo, codeSvc,
		buildMailer(cfg), buildSMS(cfg),
		util.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL),
		storage, processor,
		service.AuthServiceConfig{
			AvatarBucket:      cfg.MinIOBucketAvatar,
			ImageMaxDimension: cfg.AvatarMaxDimension,
			DevReturnCode:     cfg.ResetDevReturnCode,
		},
	)

	e := transporthttp.NewRouter(cfg.AllowOrigins)
	transporthttp.RegisterPages(e)
	transporthttp.RegisterSwagger(e)
	transporthttp.NewAuthHandler(authSvc, limiter, cfg.RateLimitCalls, cfg.RateLimitWindow).Register(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

func buildLimiter(ctx context.Context, cfg config.Config) ratelimit.Limiter {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("redis unreachable, falling back to in-memory rate limiter: %v", err)
		} else {
			return ratelimit.NewRedisLimiter(client, "ratelimit")
		}
	}

	limiter := ratelimit.NewSlidingWindow()
	limiter.StartSweeper(ctx, 5*time.Minute, cfg.RateLimitWindow)
	return limiter
}

func buildMailer(cfg config.Config) service.Mailer {
	if cfg.SendGridAPIKey != "" {
		return mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridFromName, cfg.SendGridFromEmail)
	}
	if cfg.SMTPHost != "" {
		return mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	}
	log.Println("mail delivery disabled: no SMTP or SendGrid configuration")
	return nil
}

func buildSMS(cfg config.Config) service.SMSSender {
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		return sms.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromPhone)
	}
	log.Println("sms delivery disabled: no Twilio configuration")
	return nil
}
