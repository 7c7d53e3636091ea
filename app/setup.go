package app

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/avdeevk/lms-api/api"
	"github.com/avdeevk/lms-api/config"
	"github.com/avdeevk/lms-api/database"
	"github.com/avdeevk/lms-api/jobqueue"
	"github.com/avdeevk/lms-api/router"
	"github.com/avdeevk/lms-api/services"
	"github.com/avdeevk/lms-api/services/cron"
)

func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		log.Println("Check whether Postgres is running or not")
		return err
	}

	if err := store.Init(); err != nil {
		log.Println("Failed to initialize database tables")
		return err
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return fmt.Errorf("failed to get GORM DB instance")
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		cronManager = cron.NewCronManager(db)
		if err := cronManager.Start(); err != nil {
			log.Println("Warning: Failed to start cron jobs:", err)
			// Don't fail the app, just log the warning
		}
	}

	// Initialize the Redis-backed job queue
	opt, err := redis.ParseURL(getEnv.REDIS_URL)
	if err != nil {
		return err
	}
	redisClient := redis.NewClient(opt)

	queue := jobqueue.NewQueue(redisClient, db, getEnv.QUEUE_WORKERS)

	emailService := services.NewEmailService(getEnv)
	notificationService := services.NewNotificationService(db, emailService, getEnv.DOMAIN)
	jobqueue.RegisterNotificationJobs(queue, notificationService)

	queue.Start()

	// Defer closing DB and stopping background workers
	defer func() {
		queue.Stop()
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Attach Middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Setup Routes
	router.SetupRoutes(app, store, getEnv, queue)

	// Start the Server
	return server.Run()
}
