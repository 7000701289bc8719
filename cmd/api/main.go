package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/capsule-api/internal/application/achievement"
	"github.com/capsule-api/internal/application/capsule"
	"github.com/capsule-api/internal/application/claim"
	"github.com/capsule-api/internal/application/delivery"
	mediaapp "github.com/capsule-api/internal/application/media"
	"github.com/capsule-api/internal/application/notification"
	"github.com/capsule-api/internal/application/profile"
	"github.com/capsule-api/internal/application/session"
	"github.com/capsule-api/internal/application/user"
	"github.com/capsule-api/internal/config"
	"github.com/capsule-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/capsule-api/internal/infrastructure/jwt"
	s3infra "github.com/capsule-api/internal/infrastructure/s3"
	"github.com/capsule-api/internal/infrastructure/smtp"
	"github.com/capsule-api/internal/infrastructure/sns"
	"github.com/capsule-api/internal/kv"
	"github.com/capsule-api/internal/metrics"
	"github.com/capsule-api/internal/scheduler"
	transporthttp "github.com/capsule-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName, cfg.BucketCacheTTL)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional — graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	// Typed repos and document stores.
	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	sessionRepo := dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions)
	docs := dynamo.NewKV(dynamoClient, cfg.DynamoTables.Documents)

	capsules := kv.NewCapsuleStore(docs)
	schedule := kv.NewScheduleIndex(docs)
	received := kv.NewReceivedList(docs)
	feeds := kv.NewFeedStore(docs)
	profiles := kv.NewProfiles(docs)
	pending := kv.NewPendingClaims(docs)
	achievementStates := kv.NewAchievementStates(docs)
	mediaIndex := kv.NewMediaIndex(docs)

	m := metrics.New()

	// Application services.
	notificationSvc := notification.NewService(feeds, m)
	achievementSvc := achievement.NewService(achievementStates, notificationSvc, m)
	deliverySvc := delivery.NewService(delivery.Deps{
		Capsules:      capsules,
		Schedule:      schedule,
		Received:      received,
		Notifier:      notificationSvc,
		Achievements:  achievementSvc,
		Users:         userRepo,
		Profiles:      profiles,
		Pending:       pending,
		Mailer:        mailer,
		SMS:           smsSender,
		Metrics:       m,
		PendingPolicy: cfg.PendingPolicy,
	})
	claimSvc := claim.NewService(claim.Deps{
		Pending:      pending,
		Capsules:     capsules,
		Received:     received,
		Notifier:     notificationSvc,
		Achievements: achievementSvc,
		Profiles:     profiles,
		Metrics:      m,
	})
	refreshTokenDur := time.Duration(cfg.RefreshTokenExpiryDays) * 24 * time.Hour
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:        userRepo,
		SessionRepo:     sessionRepo,
		Profiles:        profiles,
		Claims:          claimSvc,
		JWTProvider:     jwtProvider,
		RefreshTokenDur: refreshTokenDur,
	})
	sessionSvc := session.NewService(sessionRepo, userRepo, jwtProvider, refreshTokenDur)
	capsuleSvc := capsule.NewService(capsules, schedule, received, achievementSvc)
	mediaSvc := mediaapp.NewService(s3Store, mediaIndex, capsules, received)
	profileSvc := profile.NewService(profiles)

	// Delivery sweep.
	sched := scheduler.New(cfg.DeliveryCronSpec, schedule, capsules, deliverySvc, m)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start delivery scheduler: %v", err)
	}

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		UserSvc:         userSvc,
		SessionSvc:      sessionSvc,
		CapsuleSvc:      capsuleSvc,
		DeliverySvc:     deliverySvc,
		NotificationSvc: notificationSvc,
		MediaSvc:        mediaSvc,
		ProfileSvc:      profileSvc,
		AchievementSvc:  achievementSvc,
		JWTProvider:     jwtProvider,
		Metrics:         m,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	sched.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
