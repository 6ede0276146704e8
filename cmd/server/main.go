package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/masterfabric/onboarding-events/internal/config"
	"github.com/masterfabric/onboarding-events/internal/database"
	"github.com/masterfabric/onboarding-events/internal/handler"
	"github.com/masterfabric/onboarding-events/internal/middleware"
	"github.com/masterfabric/onboarding-events/internal/queue"
	"github.com/masterfabric/onboarding-events/internal/repository"
	"github.com/masterfabric/onboarding-events/internal/router"
	"github.com/masterfabric/onboarding-events/internal/service"
)

func main() {
	// A missing .env file is fine; containers set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis powers the rate limiter and the response cache. A nil client
	// turns both into pass-throughs instead of taking the API down.
	rdb := config.NewRedisClient()

	events := repository.NewEventRepo(db)
	participants := repository.NewParticipantRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	codes := repository.NewVerificationRepo(db)

	var mailer service.Mailer = service.LogMailer{}
	if cfg.SendGridAPIKey != "" {
		mailer = service.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridName, cfg.SendGridFrom, cfg.SendGridSandbox)
	} else {
		log.Println("SENDGRID_API_KEY not set, verification codes go to the log")
	}

	registrations := service.NewRegistrationService(participants)
	verifications := service.NewVerificationService(codes, mailer, cfg.OrgEmailDomain)
	lookups := service.NewLookupService(participants)
	recaptcha := service.NewRecaptchaVerifier(cfg.RecaptchaSecret)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()

	limited := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cached := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewPublicEventHandler(events),
		handler.NewRegistrationHandler(registrations, events, recaptcha),
		handler.NewLookupHandler(lookups),
		cached, limited)
	router.RegisterVerification(e, handler.NewVerificationHandler(verifications, users, codes), cfg.JWTSecret, limited)
	router.RegisterOwner(e, handler.NewOwnerEventHandler(events, participants), cfg.JWTSecret)

	go func() {
		if err := queue.StartRegistrationConsumer(); err != nil {
			log.Printf("registration consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
