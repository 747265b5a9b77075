package main

import (
	"log"

	"github.com/kartuli-app/kartuli-backend/internal/billing"
	infra "github.com/kartuli-app/kartuli-backend/internal/infrastructure"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/auth"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/driver"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/logging"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/uuid"
	ihttp "github.com/kartuli-app/kartuli-backend/internal/interfaces/http"
	"github.com/kartuli-app/kartuli-backend/internal/mail"
	"github.com/kartuli-app/kartuli-backend/internal/progress"
	"go.uber.org/zap"
)

const recordIDLength = 21

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	logger = logger.With(
		zap.String("service.id", option.AppID),
	)
	defer logger.Sync()

	dbConn, err := driver.GetDBConnection(&driver.DBConfig{
		User:     option.Database.User,
		Password: option.Database.Password,
		MaxConn:  option.Database.MaxConn,
		Protocol: option.Database.Protocol,
		Driver:   option.Database.Driver,
		Host:     option.Database.Host,
		Port:     option.Database.Port,
		Query:    option.Database.Query,
		Schema:   option.Database.Schema,
	})
	if err != nil {
		log.Fatalf("Failed to create DB connection: %s\n", err)
	}
	logger.Debug("Create db connection instance", zap.String("db.driver", option.Database.Driver),
		zap.String("db.schema", option.Database.Schema),
		zap.String("db.host", option.Database.Host),
	)

	rdb := driver.NewRedisClient(option.KVStore.Host, option.KVStore.Port, option.KVStore.Password)

	var verifier auth.Verifier
	if option.Auth.JWTSecret != "" {
		verifier = auth.NewJWTVerifier(option.Auth.JWTSecret)
	} else {
		verifier = auth.NewRemoteVerifier(option.Auth.Endpoint, option.Auth.Timeout)
	}
	if option.Auth.CacheTTL > 0 {
		verifier = auth.NewCachedVerifier(verifier, rdb, option.Auth.CacheTTL)
	}

	UUIDGenerator := uuid.NewNanoIDGenerator(recordIDLength)
	ProgressRepo := progress.NewRepository(dbConn, UUIDGenerator)
	ProfileRepo := progress.NewProfileRepository(dbConn)
	ProgressUseCase := progress.NewUseCase(ProgressRepo, ProfileRepo, logger)

	StripeProvider := billing.NewStripeProvider(option.Billing.SecretKey)
	PlanCatalog := billing.NewCatalog(option.Billing.PremiumPriceID, option.Billing.PremiumAnnualPriceID)
	BillingService := billing.NewService(StripeProvider, PlanCatalog, ProfileRepo, logger)

	Mailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     option.SMTP.Host,
		Port:     option.SMTP.Port,
		Username: option.SMTP.Username,
		Password: option.SMTP.Password,
		From:     option.SMTP.From,
		To:       option.SMTP.To,
	})

	ihttp.Serve(dbConn, rdb, option, ProgressUseCase, ProfileRepo, BillingService, Mailer, verifier, logger)
}
