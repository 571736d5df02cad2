package main

import (
	"context"
	"errors"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/uxpromo/limboquest-api/api"
	"github.com/uxpromo/limboquest-api/db"
	"github.com/uxpromo/limboquest-api/service/booking"
	"github.com/uxpromo/limboquest-api/service/mail"
	"github.com/uxpromo/limboquest-api/service/security"
	"github.com/uxpromo/limboquest-api/service/worker"
	"github.com/uxpromo/limboquest-api/util"
)

func main() {
	// Load config
	config := util.LoadConfig(".env")

	// Connect to database
	queries := db.NewQueries()
	if err := queries.ConnectDB(config.DBConn); err != nil {
		util.LOGGER.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}

	// Run database migration
	if err := queries.AutoMigration(); err != nil {
		util.LOGGER.Error("Error running auto migration", "error", err)
		os.Exit(1)
	}

	// Connect Redis
	ctx := context.Background()
	if err := queries.ConnectRedis(ctx, &redis.Options{Addr: config.RedisAddr}); err != nil {
		util.LOGGER.Error("Error connecting to Redis", "error", err)
		os.Exit(1)
	}

	// Make sure at least one admin account exists
	if err := seedAdmin(ctx, queries, config); err != nil {
		util.LOGGER.Error("Error seeding admin account", "error", err)
		os.Exit(1)
	}

	// Create dependencies for server
	engine := booking.NewEngine(db.NewStore(queries.DB))
	jwtService := security.NewJWTService([]byte(config.SecretKey), config.TokenExpiration, config.RefreshTokenExpiration)
	distributor := worker.NewRedisTaskDistributor(asynq.RedisClientOpt{Addr: config.RedisAddr})
	mailService := mail.NewEmailService(config.Email, config.AppPassword)

	// Start the background server in separate goroutine (since it's will block the main thread)
	go StartBackgroundProcessor(asynq.RedisClientOpt{Addr: config.RedisAddr}, queries, mailService, config)

	// Start server
	server := api.NewServer(queries, engine, jwtService, distributor, config)
	if err := server.Start(); err != nil {
		util.LOGGER.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}

// seedAdmin creates the bootstrap administrator on first run. It does nothing
// when the credentials are not configured or the account already exists.
func seedAdmin(ctx context.Context, queries *db.Queries, config *util.Config) error {
	if config.AdminEmail == "" || config.AdminPassword == "" {
		return nil
	}

	if _, err := queries.GetUserByEmail(ctx, config.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	hashed, err := security.BcryptHash(config.AdminPassword)
	if err != nil {
		return err
	}

	admin := &db.User{
		Model:    db.NewModel(),
		Email:    config.AdminEmail,
		Password: hashed,
		IsAdmin:  true,
		IsActive: true,
	}
	if err := queries.CreateUser(ctx, admin); err != nil {
		return err
	}

	util.LOGGER.Info("Created bootstrap admin account", "email", config.AdminEmail)
	return nil
}

func StartBackgroundProcessor(
	redisOpts asynq.RedisClientOpt,
	queries *db.Queries,
	mailService mail.MailService,
	config *util.Config,
) error {
	// Create the processor
	processor := worker.NewRedisTaskProcessor(redisOpts, queries, mailService, config)

	// Start process tasks
	return processor.Start()
}
